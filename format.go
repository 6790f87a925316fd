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

package speedy

import (
	"fmt"

	"github.com/go-audio/audio"
)

// WAVE speaker position bits used by DefaultChannelLayout.
const (
	SpeakerFrontLeft    uint32 = 0x1
	SpeakerFrontRight   uint32 = 0x2
	SpeakerFrontCenter  uint32 = 0x4
	SpeakerLowFrequency uint32 = 0x8
	SpeakerBackLeft     uint32 = 0x10
	SpeakerBackRight    uint32 = 0x20
	SpeakerSideLeft     uint32 = 0x200
	SpeakerSideRight    uint32 = 0x400
)

// Format describes interleaved audio. Two chunks with different formats
// never share an engine.
type Format struct {
	SampleRate    int
	Channels      int
	ChannelLayout uint32
}

// DefaultChannelLayout returns the conventional speaker mask for ch
// channels, or 0 when there is none.
func DefaultChannelLayout(ch int) uint32 {
	switch ch {
	case 1:
		return SpeakerFrontCenter
	case 2:
		return SpeakerFrontLeft | SpeakerFrontRight
	case 4:
		return SpeakerFrontLeft | SpeakerFrontRight | SpeakerBackLeft | SpeakerBackRight
	case 6:
		return SpeakerFrontLeft | SpeakerFrontRight | SpeakerFrontCenter | SpeakerLowFrequency | SpeakerBackLeft | SpeakerBackRight
	case 8:
		return SpeakerFrontLeft | SpeakerFrontRight | SpeakerFrontCenter | SpeakerLowFrequency |
			SpeakerBackLeft | SpeakerBackRight | SpeakerSideLeft | SpeakerSideRight
	default:
		return 0
	}
}

func (f Format) String() string {
	return fmt.Sprintf("%d Hz, %d ch, layout %#x", f.SampleRate, f.Channels, f.ChannelLayout)
}

// Chunk is a host audio buffer: interleaved float samples in [-1, 1] and
// their format. The Adapter borrows it for one call and may replace its
// contents.
type Chunk struct {
	Format
	Data []float32
}

// NewChunk wraps data, which must hold whole frames of f.
func NewChunk(f Format, data []float32) *Chunk {
	return &Chunk{Format: f, Data: data}
}

// ChunkFromBuffer wraps a go-audio buffer, sharing its data.
func ChunkFromBuffer(b *audio.Float32Buffer) *Chunk {
	return &Chunk{
		Format: Format{
			SampleRate:    b.Format.SampleRate,
			Channels:      b.Format.NumChannels,
			ChannelLayout: DefaultChannelLayout(b.Format.NumChannels),
		},
		Data: b.Data,
	}
}

// Float32Buffer returns a go-audio view of the chunk sharing its data.
func (c *Chunk) Float32Buffer() *audio.Float32Buffer {
	return &audio.Float32Buffer{
		Format: &audio.Format{NumChannels: c.Channels, SampleRate: c.SampleRate},
		Data:   c.Data,
	}
}

// Frames returns the number of frames in the chunk.
func (c *Chunk) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Data) / c.Channels
}

// Replace copies samples into the chunk, reusing its storage when possible.
// The format is left unchanged.
func (c *Chunk) Replace(samples []float32) {
	c.Data = append(c.Data[:0], samples...)
}

// Silence replaces the contents with frames frames of zeros.
func (c *Chunk) Silence(frames int) {
	c.Data = resize(c.Data, frames*c.Channels)
	clear(c.Data)
}
