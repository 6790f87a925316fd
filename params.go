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
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is returned for parameters that are not finite and
// strictly positive.
var ErrInvalidParams = errors.New("invalid parameters")

// Ranges offered by interactive controls. Params loaded from presets or
// configuration may lie outside them.
const (
	MinSpeed = 0.25
	MaxSpeed = 4.0
	MinPitch = 0.5
	MaxPitch = 2.0
)

// Params are the tunable settings of an Adapter.
type Params struct {
	Speed  float32
	Pitch  float32
	Rate   float32
	Volume float32

	// Nonlinear varies the speed with the audio content around Speed.
	Nonlinear bool
	// NonlinearFactor is the intensity of the nonlinear mode.
	NonlinearFactor float32
}

// DefaultParams returns the settings that leave audio untouched.
func DefaultParams() Params {
	return Params{
		Speed:           1,
		Pitch:           1,
		Rate:            1,
		Volume:          1,
		NonlinearFactor: 1,
	}
}

// Reset restores the defaults.
func (p *Params) Reset() {
	*p = DefaultParams()
}

// IsDefault reports whether p leaves audio untouched. NonlinearFactor is
// not compared: it has no effect while Nonlinear is off, and with
// Nonlinear on the record is not default anyway.
func (p Params) IsDefault() bool {
	return p.Speed == 1 && p.Pitch == 1 && p.Rate == 1 && p.Volume == 1 && !p.Nonlinear
}

// Validate checks that every multiplier is finite and strictly positive.
func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		v    float32
	}{
		{"speed", p.Speed},
		{"pitch", p.Pitch},
		{"rate", p.Rate},
		{"volume", p.Volume},
		{"nonlinear_factor", p.NonlinearFactor},
	} {
		if !(f.v > 0) || math.IsInf(float64(f.v), 1) {
			return fmt.Errorf("%w: %s must be positive and finite, got %v", ErrInvalidParams, f.name, f.v)
		}
	}
	return nil
}

func (p Params) String() string {
	s := fmt.Sprintf("speed=%.3g pitch=%.3g rate=%.3g volume=%.3g", p.Speed, p.Pitch, p.Rate, p.Volume)
	if p.Nonlinear {
		s += fmt.Sprintf(" nonlinear=%.3g", p.NonlinearFactor)
	}
	return s
}
