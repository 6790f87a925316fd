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
)

// ErrChannels is returned when a sample slice does not hold whole frames.
var ErrChannels = errors.New("incompatible number of elements for the specified number of channels")

// SampleBuffer is a Buffer of interleaved int16 samples addressed in frames.
// A frame holds one sample per channel.
type SampleBuffer struct {
	*Buffer[int16]
	ch int
}

// NewSampleBuffer creates a SampleBuffer for ch channels with room for capacity frames.
func NewSampleBuffer(ch, capacity int) *SampleBuffer {
	return &SampleBuffer{
		Buffer: NewBuffer[int16](capacity * ch),
		ch:     ch,
	}
}

// Channels returns the number of channels per frame.
func (b *SampleBuffer) Channels() int {
	return b.ch
}

// Len returns the number of buffered frames.
func (b *SampleBuffer) Len() int {
	return b.Buffer.Len() / b.ch
}

// Truncate keeps the first n frames.
func (b *SampleBuffer) Truncate(n int) {
	b.Buffer.Truncate(n * b.ch)
}

// Drop discards up to n frames from the front.
func (b *SampleBuffer) Drop(n int) {
	b.Buffer.Drop(n * b.ch)
}

// WriteFrames appends whole frames.
func (b *SampleBuffer) WriteFrames(s []int16) error {
	if len(s)%b.ch != 0 {
		return ErrChannels
	}
	b.Buffer.WriteSlice(s)
	return nil
}

// WriteSilence appends n zeroed frames and returns the index of the first one.
func (b *SampleBuffer) WriteSilence(n int) int {
	return b.Buffer.WriteZero(n*b.ch) / b.ch
}

// Sample returns the sample of channel ch in frame at. Out of range reads yield zero.
func (b *SampleBuffer) Sample(at, ch int) int16 {
	v, _ := b.Buffer.At(at*b.ch + ch)
	return v
}

// SetSample overwrites the sample of channel ch in frame at.
func (b *SampleBuffer) SetSample(at, ch int, v int16) {
	b.Buffer.WriteAt(at*b.ch+ch, v)
}

// Frames returns up to n leading frames without consuming them.
func (b *SampleBuffer) Frames(n int) []int16 {
	return b.Buffer.Peek(n * b.ch)
}

// CutTail removes all frames from frame at onward and returns their samples.
func (b *SampleBuffer) CutTail(at int) []int16 {
	return b.Buffer.CutTail(at * b.ch)
}

// ReadTo copies up to len(to)/channels frames into to, consumes them and
// returns the number of frames copied.
func (b *SampleBuffer) ReadTo(to []int16) int {
	n := len(to) / b.ch
	s, err := b.Buffer.ReadSlice(n * b.ch)
	if err != nil {
		return 0
	}
	copy(to, s)
	return len(s) / b.ch
}

// MoveTo moves up to n frames into dst and returns how many were moved.
func (b *SampleBuffer) MoveTo(dst *SampleBuffer, n int) int {
	return b.Buffer.MoveTo(dst.Buffer, n*b.ch) / b.ch
}

// MoveAllTo moves every buffered frame into dst.
func (b *SampleBuffer) MoveAllTo(dst *SampleBuffer) int {
	return b.MoveTo(dst, b.Len())
}

// CopyTo appends up to n leading frames to dst without consuming them.
func (b *SampleBuffer) CopyTo(dst *SampleBuffer, n int) int {
	return b.Buffer.CopyTo(dst.Buffer, n*b.ch) / b.ch
}

// Scale multiplies every sample from frame at onward by factor/256, clipping to int16.
func (b *SampleBuffer) Scale(at, factor int) {
	s := b.Buffer.Buffer()[at*b.ch:]
	for i := range s {
		s[i] = scaleInt16(factor, s[i])
	}
}

func scaleInt16(volume int, sample int16) int16 {
	return clampInt16((volume * int(sample)) >> 8)
}

func clampInt16(v int) int16 {
	if v > ShrtMax {
		return ShrtMax
	} else if v < ShrtMin {
		return ShrtMin
	}
	return int16(v)
}
