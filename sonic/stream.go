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

package sonic

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a closed Stream.
var ErrClosed = errors.New("stream is closed")

// Stream is the streaming interface to a Sonic instance: write samples in,
// read stretched samples out, flush at the end.
type Stream struct {
	*Sonic
	closed bool
}

// NewStream creates a Stream for interleaved int16 audio with the given
// sample rate and channel count.
func NewStream(sampleRate, numChannels int) (*Stream, error) {
	if sampleRate < MinSampleRate || sampleRate > MaxSampleRate {
		return nil, fmt.Errorf("%w: sample rate %d is out of range [%d, %d]", ErrInvalid, sampleRate, MinSampleRate, MaxSampleRate)
	}
	if numChannels < 1 || numChannels > MaxChannels {
		return nil, fmt.Errorf("%w: channel count %d is out of range [1, %d]", ErrInvalid, numChannels, MaxChannels)
	}
	return &Stream{Sonic: newSonic(sampleRate, numChannels)}, nil
}

// Write adds interleaved samples to the stream and processes as much as it can.
// len(samples) must be a multiple of the channel count.
func (s *Stream) Write(samples []int16) error {
	if s.closed {
		return ErrClosed
	}
	return s.write(samples)
}

// Read moves up to len(to)/channels processed frames into to and returns
// the number of frames. Zero means nothing is ready yet.
func (s *Stream) Read(to []int16) int {
	if s.closed {
		return 0
	}
	return s.outputBuffer.ReadTo(to)
}

// ReadAll returns a copy of every processed frame and empties the output.
func (s *Stream) ReadAll() []int16 {
	if s.closed {
		return nil
	}
	out := make([]int16, s.outputBuffer.Len()*s.numChannels)
	s.outputBuffer.ReadTo(out)
	return out
}

// Flush makes everything written so far available for reading. Flushing in
// the middle of a word may introduce distortion, but adds no delay.
func (s *Stream) Flush() error {
	if s.closed {
		return ErrClosed
	}
	s.flush()
	return nil
}

// SamplesAvailable returns the number of frames ready to be read.
func (s *Stream) SamplesAvailable() int {
	if s.closed {
		return 0
	}
	return s.outputBuffer.Len()
}

// NumInputSamples returns the number of frames waiting to be processed,
// including those held back by nonlinear mode.
func (s *Stream) NumInputSamples() int {
	if s.closed {
		return 0
	}
	n := s.inputBuffer.Len()
	if s.nonlinear != nil {
		n += s.nonlinear.pending.Len()
	}
	return n
}

// Close releases the stream's buffers. Closing twice is a no-op.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.release()
	s.closed = true
	return nil
}
