// Copyright (c) 2023 Alexander Khudich
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	speedy "github.com/alttagil/speedy-go"
)

// wavReader decodes a WAV file into chunks of float samples.
type wavReader struct {
	f      *os.File
	dec    *wav.Decoder
	format speedy.Format
	scale  float32
	buf    *audio.IntBuffer
}

const wavFormatPCM = 1

func openWAV(path string, framesPerBuffer int) (*wavReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%s: not a valid WAV file", path)
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if dec.WavAudioFormat != wavFormatPCM {
		f.Close()
		return nil, fmt.Errorf("%s: unsupported WAV format %d, only PCM is supported", path, dec.WavAudioFormat)
	}

	af := dec.Format()
	depth := int(dec.BitDepth)
	if depth != 16 && depth != 24 && depth != 32 {
		f.Close()
		return nil, fmt.Errorf("%s: unsupported bit depth %d", path, depth)
	}

	return &wavReader{
		f:   f,
		dec: dec,
		format: speedy.Format{
			SampleRate:    af.SampleRate,
			Channels:      af.NumChannels,
			ChannelLayout: speedy.DefaultChannelLayout(af.NumChannels),
		},
		scale: 1 / float32(uint64(1)<<(depth-1)),
		buf: &audio.IntBuffer{
			Format: af,
			Data:   make([]int, framesPerBuffer*af.NumChannels),
		},
	}, nil
}

// next returns the next chunk, or io.EOF once the file is exhausted.
// The chunk does not alias the reader's buffers.
func (r *wavReader) next() (*speedy.Chunk, error) {
	n, err := r.dec.PCMBuffer(r.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	n -= n % r.format.Channels
	if n == 0 {
		return nil, io.EOF
	}

	data := make([]float32, n)
	for i, v := range r.buf.Data[:n] {
		data[i] = float32(v) * r.scale
	}
	return speedy.NewChunk(r.format, data), nil
}

func (r *wavReader) Close() error {
	return r.f.Close()
}

// wavWriter encodes chunks as 16-bit PCM.
type wavWriter struct {
	f     *os.File
	enc   *wav.Encoder
	fixed []int16
	buf   *audio.IntBuffer
	n     int
}

func createWAV(path string, f speedy.Format) (*wavWriter, error) {
	out, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &wavWriter{
		f:   out,
		enc: wav.NewEncoder(out, f.SampleRate, 16, f.Channels, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: f.Channels, SampleRate: f.SampleRate},
			SourceBitDepth: 16,
		},
	}, nil
}

func (w *wavWriter) write(c *speedy.Chunk) error {
	if c == nil || len(c.Data) == 0 {
		return nil
	}
	w.fixed = speedy.ToFixed(w.fixed, c.Data)
	w.buf.Data = w.buf.Data[:0]
	for _, v := range w.fixed {
		w.buf.Data = append(w.buf.Data, int(v))
	}
	w.n += c.Frames()
	return w.enc.Write(w.buf)
}

// frames returns the number of frames written so far.
func (w *wavWriter) frames() int {
	return w.n
}

func (w *wavWriter) Close() error {
	return errors.Join(w.enc.Close(), w.f.Close())
}
