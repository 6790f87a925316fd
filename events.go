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
)

// ErrUnknownField is returned for events naming no parameter.
var ErrUnknownField = errors.New("unknown field")

// Field names a parameter an Event changes.
type Field string

const (
	FieldSpeed           Field = "speed"
	FieldPitch           Field = "pitch"
	FieldRate            Field = "rate"
	FieldVolume          Field = "volume"
	FieldNonlinear       Field = "nonlinear"
	FieldNonlinearFactor Field = "nonlinear_factor"
	// FieldReset restores the defaults; the value is ignored.
	FieldReset Field = "reset"
)

// Event is a request from a user interface to set one parameter.
// FieldNonlinear treats any non-zero value as on.
type Event struct {
	Field Field   `json:"field"`
	Value float64 `json:"value"`
}

func (ev Event) String() string {
	return fmt.Sprintf("%s=%g", ev.Field, ev.Value)
}

// Apply sets the field named by ev. Speed and pitch must lie within the
// interactive ranges. p is unchanged on error.
func (p *Params) Apply(ev Event) error {
	q := *p
	v := float32(ev.Value)

	switch ev.Field {
	case FieldSpeed:
		if ev.Value < MinSpeed || ev.Value > MaxSpeed {
			return fmt.Errorf("%w: speed %g outside [%g, %g]", ErrInvalidParams, ev.Value, MinSpeed, MaxSpeed)
		}
		q.Speed = v
	case FieldPitch:
		if ev.Value < MinPitch || ev.Value > MaxPitch {
			return fmt.Errorf("%w: pitch %g outside [%g, %g]", ErrInvalidParams, ev.Value, MinPitch, MaxPitch)
		}
		q.Pitch = v
	case FieldRate:
		q.Rate = v
	case FieldVolume:
		q.Volume = v
	case FieldNonlinear:
		q.Nonlinear = ev.Value != 0
	case FieldNonlinearFactor:
		q.NonlinearFactor = v
	case FieldReset:
		q.Reset()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, ev.Field)
	}

	if err := q.Validate(); err != nil {
		return err
	}
	*p = q
	return nil
}
