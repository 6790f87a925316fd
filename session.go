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
	"github.com/alttagil/speedy-go/internal/log"
)

// session owns at most one engine, bound to exactly one format. It is
// either unbound or fully bound; a format mismatch replaces the engine
// rather than reconfiguring it.
type session struct {
	engine Engine
	format Format
}

func (s *session) bound() bool {
	return s.engine != nil
}

// bind makes sure an engine for f exists, creating one configured with p
// when the session is unbound or bound to another format. It reports
// whether an engine is bound afterwards.
func (s *session) bind(f Format, p Params, newEngine EngineFunc) bool {
	if s.engine != nil && s.format == f {
		return true
	}
	s.release()

	if f.SampleRate <= 0 || f.Channels <= 0 {
		log.Warnf("speedy: cannot bind engine to %v", f)
		return false
	}
	e, err := newEngine(f.SampleRate, f.Channels)
	if err != nil || e == nil {
		log.Warnf("speedy: engine for %v unavailable, passing audio through: %v", f, err)
		return false
	}

	s.engine = e
	s.format = f
	s.apply(p)
	if p.Nonlinear {
		e.EnableNonlinearSpeedup(float64(p.NonlinearFactor))
	}
	log.Debugf("speedy: bound engine to %v (%v)", f, p)
	return true
}

// apply pushes the linear settings of p to the bound engine.
func (s *session) apply(p Params) {
	if s.engine == nil {
		return
	}
	s.engine.SetSpeed(float64(p.Speed))
	s.engine.SetPitch(float64(p.Pitch))
	s.engine.SetRate(float64(p.Rate))
	s.engine.SetVolume(float64(p.Volume))
}

// release closes the engine, if any, and forgets the bound format.
func (s *session) release() {
	if s.engine == nil {
		return
	}
	if err := s.engine.Close(); err != nil {
		log.Warnf("speedy: closing engine for %v: %v", s.format, err)
	}
	s.engine = nil
	s.format = Format{}
}
