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

	"github.com/alttagil/speedy-go/sonic"
)

// Engine is a streaming time-stretch processor bound to one sample rate and
// channel count. Samples are interleaved int16; counts passed to and
// returned from Read are in frames.
type Engine interface {
	SetSpeed(speed float64)
	SetPitch(pitch float64)
	SetRate(rate float64)
	SetVolume(volume float64)
	// EnableNonlinearSpeedup turns on content-dependent speed variation
	// with the given intensity.
	EnableNonlinearSpeedup(factor float64)

	Write(samples []int16) error
	// Read moves up to len(to)/channels frames into to. Zero means no
	// output is ready, not an error.
	Read(to []int16) int
	// Flush releases all buffered audio for reading.
	Flush() error
	Close() error
}

// EngineFunc creates an Engine for a sample rate and channel count.
type EngineFunc func(sampleRate, channels int) (Engine, error)

var _ Engine = (*sonic.Stream)(nil)

// SonicOptions configures engines from the sonic package.
type SonicOptions struct {
	// Quality searches pitch periods at the full sample rate instead of a
	// down-sampled copy.
	Quality bool
	// SinOverlap cross-fades pitch periods with a sine ramp.
	SinOverlap bool
}

// NewEngine is an EngineFunc.
func (o SonicOptions) NewEngine(sampleRate, channels int) (Engine, error) {
	s, err := sonic.NewStream(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("create sonic stream: %w", err)
	}
	s.SetQuality(o.Quality)
	s.SetUseSinOverlap(o.SinOverlap)
	return s, nil
}

// NewSonicEngine creates sonic engines with default options.
func NewSonicEngine(sampleRate, channels int) (Engine, error) {
	return SonicOptions{}.NewEngine(sampleRate, channels)
}
