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
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

const (
	// TensionFrameRate is the number of analysis frames per second in
	// nonlinear mode.
	TensionFrameRate = 100

	// HysteresisFrames is how many frames on either side of a frame can
	// hold its speed down. The future side is buffered before a frame is
	// released, so nonlinear mode adds HysteresisFrames/TensionFrameRate
	// seconds of latency.
	HysteresisFrames = 12

	// tensionGain maps a tension deviation of 0.5 to a 2x speed change.
	tensionGain = 2.0

	minSpeedScale = 0.5
	maxSpeedScale = 2.0

	// meanDecay is the per-frame weight of history in the running mean tension.
	meanDecay = 0.99

	// silenceFloor is the spectral energy per FFT bin below which a frame
	// is treated as silence.
	silenceFloor = 1e-4
)

// nonlinearSpeedup varies the local speed with the audio content: steady
// sounds and silence are sped up more, transitions less. Each 10 ms frame
// gets a tension value from its spectral flux; the speed of a frame follows
// the largest tension within the hysteresis window around it.
type nonlinearSpeedup struct {
	factor   float64
	channels int
	frameLen int

	fft    *fourier.FFT
	seq    []float64
	coeffs []complex128
	mag    []float64
	prev   []float64
	seeded bool // prev holds a frame's magnitudes

	pending  *SampleBuffer
	analyzed int       // leading frames of pending with a tension value
	tension  []float64 // per analysed frame of pending, oldest first
	past     []float64 // tensions of released frames, newest last
	out      []int16

	mean   float64
	primed bool
}

func newNonlinearSpeedup(sampleRate, channels int, factor float64) *nonlinearSpeedup {
	frameLen := max(1, sampleRate/TensionFrameRate)
	size := 2
	for size < frameLen {
		size <<= 1
	}
	bins := size/2 + 1

	return &nonlinearSpeedup{
		factor:   factor,
		channels: channels,
		frameLen: frameLen,
		fft:      fourier.NewFFT(size),
		seq:      make([]float64, size),
		coeffs:   make([]complex128, bins),
		mag:      make([]float64, bins),
		prev:     make([]float64, bins),
		pending:  NewSampleBuffer(channels, frameLen*(HysteresisFrames+2)),
	}
}

// push buffers whole frames and analyses every complete 10 ms frame.
// samples must hold whole frames.
func (n *nonlinearSpeedup) push(samples []int16) {
	n.pending.WriteSlice(samples)
	for n.pending.Len()-n.analyzed >= n.frameLen {
		n.tension = append(n.tension, n.analyze(n.analyzed))
		n.analyzed += n.frameLen
	}
}

// analyze returns the tension of the frame starting at frame index start.
func (n *nonlinearSpeedup) analyze(start int) float64 {
	ch := n.channels
	samples := n.pending.Buffer.Buffer()[start*ch : (start+n.frameLen)*ch]

	clear(n.seq)
	for i := 0; i < n.frameLen; i++ {
		v := 0
		for c := 0; c < ch; c++ {
			v += int(samples[i*ch+c])
		}
		n.seq[i] = float64(v) / float64(ch*ShrtMax)
	}
	window.Hann(n.seq[:n.frameLen])

	n.fft.Coefficients(n.coeffs, n.seq)
	for k, c := range n.coeffs {
		n.mag[k] = cmplx.Abs(c)
	}

	energy := floats.Sum(n.mag)
	flux := 0.0
	for k, m := range n.mag {
		if d := m - n.prev[k]; d > 0 {
			flux += d
		}
	}
	n.mag, n.prev = n.prev, n.mag

	// The first frame has nothing to be compared with and counts as steady.
	if !n.seeded {
		n.seeded = true
		return 0
	}
	if energy < silenceFloor*float64(len(n.coeffs)) {
		return 0
	}
	return math.Min(flux/energy, 1)
}

// pop releases the oldest pending frame once enough future frames are
// analysed, or unconditionally when flushing. It returns the frame and the
// factor its speed should be scaled by.
func (n *nonlinearSpeedup) pop(flush bool) ([]int16, float64, bool) {
	if n.pending.Len() == 0 {
		return nil, 0, false
	}
	if !flush && len(n.tension) <= HysteresisFrames {
		return nil, 0, false
	}

	frames := n.frameLen
	var tension float64
	if len(n.tension) > 0 {
		tension = n.smoothed()
		n.tension = append(n.tension[:0], n.tension[1:]...)
		n.analyzed -= n.frameLen
	} else {
		// Trailing partial frame.
		frames = n.pending.Len()
		tension = n.mean
	}

	scale := n.speedScale(tension)

	n.out = append(n.out[:0], n.pending.Frames(frames)...)
	n.pending.Drop(frames)

	if len(n.past) == HysteresisFrames {
		n.past = append(n.past[:0], n.past[1:]...)
	}
	n.past = append(n.past, tension)

	return n.out, scale, true
}

// smoothed returns the tension of the oldest pending frame after hysteresis:
// the maximum over the window, with neighbours weighted down by distance.
func (n *nonlinearSpeedup) smoothed() float64 {
	t := n.tension[0]
	future := n.tension[1:min(len(n.tension), HysteresisFrames+1)]
	for d, v := range future {
		t = math.Max(t, v*hysteresisWeight(d+1))
	}
	for d := 1; d <= len(n.past); d++ {
		t = math.Max(t, n.past[len(n.past)-d]*hysteresisWeight(d))
	}
	return t
}

func hysteresisWeight(distance int) float64 {
	return 1 - float64(distance)/float64(HysteresisFrames+1)
}

// speedScale maps a smoothed tension to a speed multiplier around 1.
func (n *nonlinearSpeedup) speedScale(tension float64) float64 {
	if !n.primed {
		n.mean = tension
		n.primed = true
	} else {
		n.mean = meanDecay*n.mean + (1-meanDecay)*tension
	}
	scale := math.Exp2(n.factor * tensionGain * (n.mean - tension))
	return math.Min(math.Max(scale, minSpeedScale), maxSpeedScale)
}

func (n *nonlinearSpeedup) reset() {
	n.pending.Reset()
	n.analyzed = 0
	n.tension = n.tension[:0]
	n.past = n.past[:0]
	clear(n.prev)
	n.seeded = false
	n.mean = 0
	n.primed = false
}
