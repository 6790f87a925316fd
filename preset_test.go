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
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsDefault(t *testing.T) {
	p := DefaultParams()
	assert.True(t, p.IsDefault())
	require.NoError(t, p.Validate())

	p.NonlinearFactor = 3
	assert.True(t, p.IsDefault(), "the nonlinear factor alone does not make params non-default")

	for _, mutate := range []func(*Params){
		func(p *Params) { p.Speed = 1.5 },
		func(p *Params) { p.Pitch = 0.9 },
		func(p *Params) { p.Rate = 2 },
		func(p *Params) { p.Volume = 0.5 },
		func(p *Params) { p.Nonlinear = true },
	} {
		q := DefaultParams()
		mutate(&q)
		assert.False(t, q.IsDefault(), "%v", q)
		q.Reset()
		assert.Equal(t, DefaultParams(), q)
	}
}

func TestParamsValidate(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	for _, p := range []Params{
		{Speed: 0, Pitch: 1, Rate: 1, Volume: 1, NonlinearFactor: 1},
		{Speed: 1, Pitch: -1, Rate: 1, Volume: 1, NonlinearFactor: 1},
		{Speed: 1, Pitch: 1, Rate: nan, Volume: 1, NonlinearFactor: 1},
		{Speed: 1, Pitch: 1, Rate: 1, Volume: inf, NonlinearFactor: 1},
		{Speed: 1, Pitch: 1, Rate: 1, Volume: 1, NonlinearFactor: 0},
	} {
		assert.ErrorIs(t, p.Validate(), ErrInvalidParams, "%+v", p)
	}
}

func TestPresetLayout(t *testing.T) {
	p := Params{Speed: 1.5, Pitch: 0.75, Rate: 2, Volume: 0.5, Nonlinear: true, NonlinearFactor: 0.25}

	pr := p.Preset()

	assert.Equal(t, SpeedyOwner, pr.Owner)
	require.Len(t, pr.Data, PresetSize)
	for i, want := range []float32{1.5, 0.75, 2, 0.5, 0.25} {
		assert.Equal(t, want, math.Float32frombits(binary.LittleEndian.Uint32(pr.Data[i*4:])))
	}
	assert.Equal(t, byte(1), pr.Data[20])
}

func TestPresetRoundTrip(t *testing.T) {
	for _, p := range []Params{
		DefaultParams(),
		{Speed: 1.5, Pitch: 0.75, Rate: 2, Volume: 0.5, Nonlinear: true, NonlinearFactor: 0.25},
		{Speed: 0.3, Pitch: 1.9, Rate: 1, Volume: 3, NonlinearFactor: 7},
	} {
		got, err := ParsePreset(p.Preset(), SpeedyOwner)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestParsePresetFailures(t *testing.T) {
	good := Params{Speed: 2, Pitch: 1, Rate: 1, Volume: 1, NonlinearFactor: 1}.Preset()

	foreign := good
	foreign.Owner[0] ^= 0xff
	_, err := ParsePreset(foreign, SpeedyOwner)
	assert.ErrorIs(t, err, ErrForeignPreset)

	short := Preset{Owner: SpeedyOwner, Data: good.Data[:PresetSize-1]}
	_, err = ParsePreset(short, SpeedyOwner)
	assert.ErrorIs(t, err, ErrShortPreset)

	_, err = ParsePreset(Preset{Owner: SpeedyOwner}, SpeedyOwner)
	assert.ErrorIs(t, err, ErrShortPreset)

	zeros := Preset{Owner: SpeedyOwner, Data: make([]byte, PresetSize)}
	_, err = ParsePreset(zeros, SpeedyOwner)
	assert.ErrorIs(t, err, ErrInvalidParams)

	for _, pr := range []Preset{foreign, short, zeros} {
		assert.Equal(t, DefaultParams(), LoadPreset(pr, SpeedyOwner))
	}
}

func TestParsePresetAcceptsLongerData(t *testing.T) {
	p := Params{Speed: 2, Pitch: 1, Rate: 1, Volume: 1, NonlinearFactor: 1}
	pr := p.Preset()
	pr.Data = append(pr.Data, 0xde, 0xad)

	got, err := ParsePreset(pr, SpeedyOwner)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPresetFileRoundTrip(t *testing.T) {
	pr := Params{Speed: 1.25, Pitch: 1, Rate: 1, Volume: 1, Nonlinear: true, NonlinearFactor: 0.5}.Preset()

	var buf bytes.Buffer
	n, err := pr.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(16+4+PresetSize), n)

	got, err := ReadPreset(&buf)
	require.NoError(t, err)
	assert.Equal(t, pr, got)
}

func TestReadPresetTruncated(t *testing.T) {
	var buf bytes.Buffer
	_, err := DefaultParams().Preset().WriteTo(&buf)
	require.NoError(t, err)

	_, err = ReadPreset(bytes.NewReader(buf.Bytes()[:10]))
	assert.Error(t, err)

	_, err = ReadPreset(bytes.NewReader(buf.Bytes()[:buf.Len()-1]))
	assert.Error(t, err)
}

func TestOwnerString(t *testing.T) {
	assert.Equal(t, "8e4a9f2c-3b5d-4e7a-9c1f-6d8b2a4e5f3c", SpeedyOwner.String())
}

func TestParamsApply(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want func(*Params)
		err  error
	}{
		{"speed", Event{FieldSpeed, 1.5}, func(p *Params) { p.Speed = 1.5 }, nil},
		{"pitch", Event{FieldPitch, 0.5}, func(p *Params) { p.Pitch = 0.5 }, nil},
		{"rate", Event{FieldRate, 1.25}, func(p *Params) { p.Rate = 1.25 }, nil},
		{"volume", Event{FieldVolume, 2}, func(p *Params) { p.Volume = 2 }, nil},
		{"nonlinear on", Event{FieldNonlinear, 1}, func(p *Params) { p.Nonlinear = true }, nil},
		{"factor", Event{FieldNonlinearFactor, 0.5}, func(p *Params) { p.NonlinearFactor = 0.5 }, nil},
		{"speed too fast", Event{FieldSpeed, 5}, nil, ErrInvalidParams},
		{"speed too slow", Event{FieldSpeed, 0.1}, nil, ErrInvalidParams},
		{"pitch out of range", Event{FieldPitch, 2.5}, nil, ErrInvalidParams},
		{"zero volume", Event{FieldVolume, 0}, nil, ErrInvalidParams},
		{"unknown", Event{"tempo", 1}, nil, ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			err := p.Apply(tt.ev)
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err), "got %v", err)
				assert.Equal(t, DefaultParams(), p)
				return
			}
			require.NoError(t, err)
			want := DefaultParams()
			tt.want(&want)
			assert.Equal(t, want, p)
		})
	}
}

func TestParamsApplyReset(t *testing.T) {
	p := Params{Speed: 2, Pitch: 2, Rate: 2, Volume: 2, Nonlinear: true, NonlinearFactor: 2}
	require.NoError(t, p.Apply(Event{Field: FieldReset}))
	assert.Equal(t, DefaultParams(), p)
}
