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

// DefaultDrainFactor caps the frames drained per chunk at this multiple of
// the chunk's frame count.
const DefaultDrainFactor = 4

const (
	// tailSeconds bounds how much audio EndOfStream drains.
	tailSeconds = 10
	// tailBlock is the number of frames EndOfStream drains per read loop.
	tailBlock = 4096
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithEngine sets the engine constructor. The default is NewSonicEngine.
func WithEngine(f EngineFunc) Option {
	return func(a *Adapter) {
		if f != nil {
			a.newEngine = f
		}
	}
}

// WithDrainFactor sets the drain cap multiple. Values below 1 are ignored.
func WithDrainFactor(n int) Option {
	return func(a *Adapter) {
		if n >= 1 {
			a.drainFactor = n
		}
	}
}

// Adapter stretches a stream of chunks through an engine.
//
// An Adapter has a single owner and no locks: every method must be called
// from the goroutine that processes the chunks. Parameter changes made
// elsewhere are handed over as Events and applied with ApplyPending.
type Adapter struct {
	params      Params
	newEngine   EngineFunc
	drainFactor int
	session     session

	in   []int16
	out  []int16
	fout []float32
}

// New returns an Adapter with params p. Invalid params are replaced by
// the defaults.
func New(p Params, opts ...Option) *Adapter {
	if err := p.Validate(); err != nil {
		log.Warnf("speedy: %v, using defaults", err)
		p = DefaultParams()
	}
	a := &Adapter{
		params:      p,
		newEngine:   NewSonicEngine,
		drainFactor: DefaultDrainFactor,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Process stretches c in place. With default params, or when no engine
// can be bound or written to, c is left untouched. Otherwise c receives
// the output drained from the engine, at most drain factor times its frame
// count, or silence of its original length while the engine has nothing
// to give yet. The format of c never changes.
func (a *Adapter) Process(c *Chunk) {
	if a.params.IsDefault() {
		return
	}
	frames := c.Frames()
	if frames == 0 {
		return
	}
	if !a.session.bind(c.Format, a.params, a.newEngine) {
		return
	}

	a.in = ToFixed(a.in, c.Data[:frames*c.Channels])
	if err := a.session.engine.Write(a.in); err != nil {
		log.Warnf("speedy: engine rejected %d frames, passing through: %v", frames, err)
		return
	}

	drained := a.drain(frames*a.drainFactor, c.Channels)
	if drained == 0 {
		c.Silence(frames)
		return
	}
	a.fout = ToFloat(a.fout, a.out[:drained*c.Channels])
	c.Replace(a.fout)
}

// drain reads from the engine into a.out until it runs dry or limit frames
// have been collected, and returns the number of frames.
func (a *Adapter) drain(limit, ch int) int {
	a.out = resize(a.out, limit*ch)
	total := 0
	for total < limit {
		n := a.session.engine.Read(a.out[total*ch : limit*ch])
		if n <= 0 {
			break
		}
		total = min(total+n, limit)
	}
	return total
}

// EndOfStream flushes the engine, drains everything it holds (up to ten
// seconds of audio) and releases it. It returns the drained audio in the
// bound format, or nil when there is none.
func (a *Adapter) EndOfStream() *Chunk {
	if !a.session.bound() {
		return nil
	}
	defer a.session.release()

	f := a.session.format
	if err := a.session.engine.Flush(); err != nil {
		log.Warnf("speedy: flushing engine: %v", err)
		return nil
	}

	var tail []float32
	limit := tailSeconds * f.SampleRate
	for total := 0; total < limit; {
		n := a.drain(min(tailBlock, limit-total), f.Channels)
		if n == 0 {
			break
		}
		a.fout = ToFloat(a.fout, a.out[:n*f.Channels])
		tail = append(tail, a.fout...)
		total += n
	}
	if len(tail) == 0 {
		return nil
	}
	log.Debugf("speedy: end of stream drained %d frames", len(tail)/f.Channels)
	return &Chunk{Format: f, Data: tail}
}

// EndOfTrack keeps the engine running across track boundaries so the
// stretch stays continuous.
func (a *Adapter) EndOfTrack() {}

// Flush drops the engine and everything it buffered. The next chunk
// binds a new one.
func (a *Adapter) Flush() {
	a.session.release()
}

// Close releases the engine. The Adapter may be reused afterwards.
func (a *Adapter) Close() error {
	a.session.release()
	return nil
}

// Latency returns the estimated delay of the current configuration.
func (a *Adapter) Latency() float64 {
	return EstimateLatency(a.params, a.session.bound())
}

// Params returns the current parameters.
func (a *Adapter) Params() Params {
	return a.params
}

// SetParams replaces the parameters. A bound engine picks up speed, pitch,
// rate, volume and nonlinear intensity immediately. Turning nonlinear mode
// off, or returning to defaults, releases the engine.
func (a *Adapter) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	old := a.params
	a.params = p

	switch {
	case !a.session.bound():
	case p.IsDefault(), old.Nonlinear && !p.Nonlinear:
		a.session.release()
	default:
		a.session.apply(p)
		if p.Nonlinear && (!old.Nonlinear || old.NonlinearFactor != p.NonlinearFactor) {
			a.session.engine.EnableNonlinearSpeedup(float64(p.NonlinearFactor))
		}
	}
	return nil
}

// Apply applies one event and returns the preset to persist.
func (a *Adapter) Apply(ev Event) (Preset, error) {
	p := a.params
	if err := p.Apply(ev); err != nil {
		return Preset{}, err
	}
	if err := a.SetParams(p); err != nil {
		return Preset{}, err
	}
	return p.Preset(), nil
}

// ApplyPending applies every event already waiting on events without
// blocking, passing each resulting preset to persist. Invalid events are
// logged and skipped.
func (a *Adapter) ApplyPending(events <-chan Event, persist func(Preset)) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			pr, err := a.Apply(ev)
			if err != nil {
				log.Warnf("speedy: ignoring %v: %v", ev, err)
				continue
			}
			log.Debugf("speedy: applied %v, now %v", ev, a.params)
			if persist != nil {
				persist(pr)
			}
		default:
			return
		}
	}
}
