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
	"math"
	"testing"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFixedSaturates(t *testing.T) {
	got := ToFixed(nil, []float32{1.5, -1.5, 1, -1, 100, -100, float32(math.Inf(1)), float32(math.Inf(-1))})
	assert.Equal(t, []int16{32767, -32768, 32767, -32767, 32767, -32768, 32767, -32768}, got)
}

func TestToFixedTruncatesTowardZero(t *testing.T) {
	got := ToFixed(nil, []float32{0.5, -0.5, 1.0 / 32767 * 0.99, float32(math.NaN())})
	assert.Equal(t, []int16{16383, -16383, 0, 0}, got)
}

func TestCodecRoundTrip(t *testing.T) {
	src := make([]float32, 2001)
	for i := range src {
		src[i] = float32(i-1000) / 1000
	}

	back := ToFloat(nil, ToFixed(nil, src))

	require.Len(t, back, len(src))
	for i := range src {
		assert.InDelta(t, src[i], back[i], 1.0/32767+1e-6, "sample %d", i)
	}
}

func TestCodecPreservesInterleaving(t *testing.T) {
	src := []int16{100, -100, 200, -200, 300, -300}
	got := ToFloat(nil, src)
	for i, v := range src {
		assert.InDelta(t, float32(v)/32767, got[i], 1e-7)
	}
}

func TestCodecReusesStorage(t *testing.T) {
	dst := make([]int16, 0, 16)
	out := ToFixed(dst, []float32{0, 0.5})
	assert.Len(t, out, 2)
	assert.Equal(t, 16, cap(out))

	f := make([]float32, 8)
	fo := ToFloat(f, []int16{1, 2, 3})
	assert.Len(t, fo, 3)
	assert.Same(t, &f[0], &fo[0])
}

func TestChunk(t *testing.T) {
	c := NewChunk(Format{SampleRate: 48000, Channels: 2}, []float32{1, 2, 3, 4, 5, 6})
	assert.Equal(t, 3, c.Frames())

	c.Silence(5)
	assert.Equal(t, 5, c.Frames())
	assert.Equal(t, make([]float32, 10), c.Data)

	c.Replace([]float32{0.1, 0.2})
	assert.Equal(t, []float32{0.1, 0.2}, c.Data)
	assert.Equal(t, 48000, c.SampleRate)

	assert.Equal(t, 0, (&Chunk{Data: []float32{1}}).Frames())
}

func TestChunkFloat32Buffer(t *testing.T) {
	buf := &audio.Float32Buffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: 44100},
		Data:   []float32{0.1, 0.2, 0.3, 0.4},
	}

	c := ChunkFromBuffer(buf)
	assert.Equal(t, Format{SampleRate: 44100, Channels: 2, ChannelLayout: SpeakerFrontLeft | SpeakerFrontRight}, c.Format)
	assert.Equal(t, 2, c.Frames())

	back := c.Float32Buffer()
	assert.Equal(t, 2, back.Format.NumChannels)
	assert.Equal(t, 44100, back.Format.SampleRate)
	assert.Equal(t, buf.Data, back.Data)
}

func TestDefaultChannelLayout(t *testing.T) {
	assert.Equal(t, SpeakerFrontCenter, DefaultChannelLayout(1))
	assert.Equal(t, uint32(0x3f), DefaultChannelLayout(6))
	assert.Equal(t, uint32(0), DefaultChannelLayout(3))
}
