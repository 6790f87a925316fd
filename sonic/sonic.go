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
	"math"
)

const (
	// MinPitch specifies the range of voice pitches we try to match.
	MinPitch = 65

	// MaxPitch specifies the upper limit of voice pitches we try to match.
	MaxPitch = 400

	// AmdfFreq is the rate inputs are down-sampled to for the coarse pitch search.
	AmdfFreq = 4000

	// SincFilterPoints is a number of points to use in the sinc FIR filter for resampling.
	SincFilterPoints = 12
	SincTableSize    = 601

	// ShrtMax represents the maximum positive value for a signed 16-bit integer.
	ShrtMax = 32767
	// ShrtMin represents the minimum negative value for a signed 16-bit integer.
	ShrtMin = -32768

	// MinSampleRate and MaxSampleRate bound the rates a stream can be created for.
	MinSampleRate = 1000
	MaxSampleRate = 500000

	// MaxChannels bounds the channel count a stream can be created for.
	MaxChannels = 32
)

// ErrInvalid is returned when a stream is created with unusable parameters.
var ErrInvalid = errors.New("invalid value")

// SincTable holds N=12 points of a Hann-windowed sinc, sampled every 0.02
// and scaled to int16.
var SincTable = [SincTableSize]int{
	0, 0, 0, 0, 0, 0, 0, -1, -1, -2, -2, -3, -4, -6, -7, -9, -10, -12, -14, -17,
	-19, -21, -24, -26, -29, -32, -34, -37, -40, -42, -44, -47, -48, -50, -51, -52, -53, -53, -53, -52,
	-50, -48, -46, -43, -39, -34, -29, -22, -16, -8, 0, 9, 19, 29, 41, 53, 65, 79, 92, 107,
	121, 137, 152, 168, 184, 200, 215, 231, 247, 262, 276, 291, 304, 317, 328, 339, 348, 357, 363, 369,
	372, 374, 375, 373, 369, 363, 355, 345, 332, 318, 300, 281, 259, 234, 208, 178, 147, 113, 77, 39,
	0, -41, -85, -130, -177, -225, -274, -324, -375, -426, -478, -530, -581, -632, -682, -731, -779, -825, -870, -912,
	-951, -989, -1023, -1053, -1080, -1104, -1123, -1138, -1149, -1154, -1155, -1151, -1141, -1125, -1105, -1078, -1046, -1007, -963, -913,
	-857, -796, -728, -655, -576, -492, -403, -309, -210, -107, 0, 111, 225, 342, 462, 584, 708, 833, 958, 1084,
	1209, 1333, 1455, 1575, 1693, 1807, 1916, 2022, 2122, 2216, 2304, 2384, 2457, 2522, 2579, 2625, 2663, 2689, 2706, 2711,
	2705, 2687, 2657, 2614, 2559, 2491, 2411, 2317, 2211, 2092, 1960, 1815, 1658, 1489, 1308, 1115, 912, 698, 474, 241,
	0, -249, -506, -769, -1037, -1310, -1586, -1864, -2144, -2424, -2703, -2980, -3254, -3523, -3787, -4043, -4291, -4529, -4757, -4972,
	-5174, -5360, -5531, -5685, -5819, -5935, -6029, -6101, -6150, -6175, -6175, -6149, -6096, -6015, -5905, -5767, -5599, -5401, -5172, -4912,
	-4621, -4298, -3944, -3558, -3141, -2693, -2214, -1705, -1166, -597, 0, 625, 1277, 1955, 2658, 3386, 4135, 4906, 5697, 6506,
	7332, 8173, 9027, 9893, 10769, 11654, 12544, 13439, 14335, 15232, 16128, 17019, 17904, 18782, 19649, 20504, 21345, 22170, 22977, 23763,
	24527, 25268, 25982, 26669, 27327, 27953, 28547, 29107, 29632, 30119, 30569, 30979, 31349, 31678, 31964, 32208, 32408, 32565, 32677, 32744,
	32767, 32744, 32677, 32565, 32408, 32208, 31964, 31678, 31349, 30979, 30569, 30119, 29632, 29107, 28547, 27953, 27327, 26669, 25982, 25268,
	24527, 23763, 22977, 22170, 21345, 20504, 19649, 18782, 17904, 17019, 16128, 15232, 14335, 13439, 12544, 11654, 10769, 9893, 9027, 8173,
	7332, 6506, 5697, 4906, 4135, 3386, 2658, 1955, 1277, 625, 0, -597, -1166, -1705, -2214, -2693, -3141, -3558, -3944, -4298,
	-4621, -4912, -5172, -5401, -5599, -5767, -5905, -6015, -6096, -6149, -6175, -6175, -6150, -6101, -6029, -5935, -5819, -5685, -5531, -5360,
	-5174, -4972, -4757, -4529, -4291, -4043, -3787, -3523, -3254, -2980, -2703, -2424, -2144, -1864, -1586, -1310, -1037, -769, -506, -249,
	0, 241, 474, 698, 912, 1115, 1308, 1489, 1658, 1815, 1960, 2092, 2211, 2317, 2411, 2491, 2559, 2614, 2657, 2687,
	2705, 2711, 2706, 2689, 2663, 2625, 2579, 2522, 2457, 2384, 2304, 2216, 2122, 2022, 1916, 1807, 1693, 1575, 1455, 1333,
	1209, 1084, 958, 833, 708, 584, 462, 342, 225, 111, 0, -107, -210, -309, -403, -492, -576, -655, -728, -796,
	-857, -913, -963, -1007, -1046, -1078, -1105, -1125, -1141, -1151, -1155, -1154, -1149, -1138, -1123, -1104, -1080, -1053, -1023, -989,
	-951, -912, -870, -825, -779, -731, -682, -632, -581, -530, -478, -426, -375, -324, -274, -225, -177, -130, -85, -41,
	0, 39, 77, 113, 147, 178, 208, 234, 259, 281, 300, 318, 332, 345, 355, 363, 369, 373, 375, 374,
	372, 369, 363, 357, 348, 339, 328, 317, 304, 291, 276, 262, 247, 231, 215, 200, 184, 168, 152, 137,
	121, 107, 92, 79, 65, 53, 41, 29, 19, 9, 0, -8, -16, -22, -29, -34, -39, -43, -46, -48,
	-50, -52, -53, -53, -53, -52, -51, -50, -48, -47, -44, -42, -40, -37, -34, -32, -29, -26, -24, -21,
	-19, -17, -14, -12, -10, -9, -7, -6, -4, -3, -2, -2, -1, -1, 0, 0, 0, 0, 0, 0, 0,
}

// Sonic holds the state of one stretching stream.
type Sonic struct {
	inputBuffer      *SampleBuffer
	outputBuffer     *SampleBuffer
	pitchBuffer      *SampleBuffer
	downSampleBuffer *SampleBuffer

	speed  float64
	volume float64
	pitch  float64
	rate   float64

	// samplePeriod is 1/sampleRate.
	samplePeriod float64

	// inputPlaytime is how long the buffered input should take to play
	// once processed. Samples written at different local speeds contribute
	// different amounts, which is what lets the nonlinear mode vary speed.
	inputPlaytime float64

	// timeError is the playtime error created when playing below 2.0X. Whole
	// pitch periods are inserted or removed, so the output drifts by up to a
	// period; while the error has the "wrong" sign, input is copied through
	// unmodified until it flips.
	timeError float64

	oldRatePosition int
	newRatePosition int

	quality       bool
	useSinOverlap bool

	numChannels int
	sampleRate  int
	minPeriod   int
	maxPeriod   int
	maxRequired int

	prevPeriod  int
	prevMinDiff int

	nonlinear *nonlinearSpeedup
}

func newSonic(sampleRate, numChannels int) *Sonic {
	minPeriod := sampleRate / MaxPitch
	maxPeriod := sampleRate / MinPitch
	maxRequired := 2 * maxPeriod

	bufferSize := maxRequired + (maxRequired >> 2)

	return &Sonic{
		sampleRate:       sampleRate,
		numChannels:      numChannels,
		minPeriod:        minPeriod,
		maxPeriod:        maxPeriod,
		maxRequired:      maxRequired,
		inputBuffer:      NewSampleBuffer(numChannels, bufferSize),
		outputBuffer:     NewSampleBuffer(numChannels, bufferSize),
		pitchBuffer:      NewSampleBuffer(numChannels, bufferSize),
		downSampleBuffer: NewSampleBuffer(1, maxRequired),
		samplePeriod:     1.0 / float64(sampleRate),

		speed:  1.0,
		pitch:  1.0,
		volume: 1.0,
		rate:   1.0,
	}
}

// Speed returns the speed-up factor.
func (s *Sonic) Speed() float64 {
	return s.speed
}

// SetSpeed sets the speed-up factor. 2.0 plays twice as fast at the same pitch.
func (s *Sonic) SetSpeed(speed float64) {
	s.speed = speed
	s.updateInputPlaytime()
}

// Pitch returns the pitch scaling factor.
func (s *Sonic) Pitch() float64 {
	return s.pitch
}

// SetPitch sets the pitch scaling factor. 1.3 means 30% higher.
func (s *Sonic) SetPitch(pitch float64) {
	s.pitch = pitch
	s.updateInputPlaytime()
}

// Rate returns the playback rate.
func (s *Sonic) Rate() float64 {
	return s.rate
}

// SetRate sets the playback rate, which scales speed and pitch together.
func (s *Sonic) SetRate(rate float64) {
	s.rate = rate
	s.oldRatePosition = 0
	s.newRatePosition = 0
}

// Volume returns the volume scaling factor.
func (s *Sonic) Volume() float64 {
	return s.volume
}

// SetVolume sets the volume scaling factor.
func (s *Sonic) SetVolume(volume float64) {
	s.volume = volume
}

// Quality reports whether the full-rate pitch search is used.
func (s *Sonic) Quality() bool {
	return s.quality
}

// SetQuality disables down-sampling in the pitch search. The default is
// virtually as good and much faster.
func (s *Sonic) SetQuality(quality bool) {
	s.quality = quality
}

// UseSinOverlap reports whether sine-shaped cross-fades are used.
func (s *Sonic) UseSinOverlap() bool {
	return s.useSinOverlap
}

// SetUseSinOverlap switches the overlap-add to a sine ramp, which can
// improve quality slightly at the cost of floating point math per sample.
func (s *Sonic) SetUseSinOverlap(useSinOverlap bool) {
	s.useSinOverlap = useSinOverlap
}

// SampleRate returns the rate the stream was created for.
func (s *Sonic) SampleRate() int {
	return s.sampleRate
}

// NumChannels returns the channel count the stream was created for.
func (s *Sonic) NumChannels() int {
	return s.numChannels
}

// EnableNonlinearSpeedup turns on content-dependent speed variation.
// factor scales how far the local speed may stray from the base speed;
// zero or less turns the mode off.
func (s *Sonic) EnableNonlinearSpeedup(factor float64) {
	if factor <= 0 {
		s.disableNonlinear()
		return
	}
	if s.nonlinear == nil {
		s.nonlinear = newNonlinearSpeedup(s.sampleRate, s.numChannels, factor)
		return
	}
	s.nonlinear.factor = factor
}

// NonlinearSpeedup reports whether nonlinear mode is on.
func (s *Sonic) NonlinearSpeedup() bool {
	return s.nonlinear != nil
}

func (s *Sonic) disableNonlinear() {
	if s.nonlinear == nil {
		return
	}
	s.releaseNonlinear(true)
	s.nonlinear = nil
}

func (s *Sonic) updateInputPlaytime() {
	s.inputPlaytime = float64(s.inputBuffer.Len()) * s.samplePeriod * s.pitch / s.speed
}

// addInput appends frames that should play at localSpeed. samples must
// hold whole frames.
func (s *Sonic) addInput(samples []int16, localSpeed float64) {
	s.inputBuffer.WriteSlice(samples)
	s.inputPlaytime += float64(len(samples)/s.numChannels) * s.samplePeriod * s.pitch / localSpeed
}

// write feeds samples in, through the nonlinear analyser when enabled, and
// processes whatever became available.
func (s *Sonic) write(samples []int16) error {
	if len(samples)%s.numChannels != 0 {
		return ErrChannels
	}
	if s.nonlinear == nil {
		s.addInput(samples, s.speed)
	} else {
		s.nonlinear.push(samples)
		s.releaseNonlinear(false)
	}
	s.processStreamInput()
	return nil
}

// releaseNonlinear moves analysed frames into the input buffer, each at its
// own local speed. With all set, the lookahead is drained too.
func (s *Sonic) releaseNonlinear(all bool) {
	for {
		frame, scale, ok := s.nonlinear.pop(all)
		if !ok {
			return
		}
		s.addInput(frame, s.speed*scale)
	}
}

// processStreamInput stretches the buffered input into the output buffer,
// then resamples and scales the newly produced output.
func (s *Sonic) processStreamInput() {
	inputLen := s.inputBuffer.Len()
	if inputLen == 0 {
		return
	}

	outputLen := s.outputBuffer.Len()
	speed := s.speed / s.pitch
	if s.inputPlaytime > 0 {
		speed = float64(inputLen) * s.samplePeriod / s.inputPlaytime
	}

	if speed > 1.00001 || speed < 0.99999 {
		s.changeSpeed(speed)
	} else {
		s.inputBuffer.MoveAllTo(s.outputBuffer)
		s.inputPlaytime = 0
	}

	if rate := s.rate * s.pitch; rate != 1.0 && outputLen < s.outputBuffer.Len() {
		s.adjustRate(rate, outputLen)
	}

	if s.volume != 1.0 && outputLen < s.outputBuffer.Len() {
		s.outputBuffer.Scale(outputLen, int(s.volume*256.0))
	}
}

// changeSpeed runs PICOLA over the input while at least maxRequired frames are buffered.
func (s *Sonic) changeSpeed(speed float64) {
	available := s.inputBuffer.Len()
	if available < s.maxRequired {
		return
	}
	playtime := s.inputPlaytime

	for s.inputBuffer.Len() >= s.maxRequired {
		before := s.inputBuffer.Len()

		if (speed > 1 && speed < 2 && s.timeError < 0) || (speed < 1 && speed > 0.5 && s.timeError > 0) {
			s.copyUnmodifiedSamples(speed)
		} else {
			period := s.findPitchPeriod(true)
			if speed > 1 {
				newSamples := s.skipPitchPeriod(speed, period)
				if speed < 2 {
					s.timeError += float64(newSamples)*s.samplePeriod - float64(period+newSamples)*playtime/float64(available)
				}
			} else {
				newSamples := s.insertPitchPeriod(speed, period)
				if speed > 0.5 {
					s.timeError += float64(period+newSamples)*s.samplePeriod - float64(newSamples)*playtime/float64(available)
				}
			}
		}

		if s.inputBuffer.Len() == before {
			break
		}
	}

	s.inputPlaytime = playtime * float64(s.inputBuffer.Len()) / float64(available)
}

// copyUnmodifiedSamples copies input straight through until timeError changes sign.
func (s *Sonic) copyUnmodifiedSamples(speed float64) {
	n := int(math.Round(1 - s.timeError*speed/(s.samplePeriod*(speed-1.0))))
	n = min(max(n, 1), s.inputBuffer.Len())
	s.inputBuffer.MoveTo(s.outputBuffer, n)
	s.timeError += float64(n) * s.samplePeriod * (speed - 1.0) / speed
}

// skipPitchPeriod removes a pitch period (or part of one at 2.0X and above)
// and returns the number of frames written.
func (s *Sonic) skipPitchPeriod(speed float64, period int) int {
	newSamples := period
	if speed >= 2.0 {
		newSamples = int(math.Round(float64(period) / (speed - 1.0)))
	}
	s.overlapAdd(newSamples, 0, period)
	s.inputBuffer.Drop(period + newSamples)
	return newSamples
}

// insertPitchPeriod repeats a pitch period and returns the number of input
// frames consumed besides the copied period.
func (s *Sonic) insertPitchPeriod(speed float64, period int) int {
	newSamples := period
	if speed <= 0.5 {
		newSamples = max(1, int(float64(period)*speed/(1.0-speed)))
	}
	s.inputBuffer.CopyTo(s.outputBuffer, period)
	s.overlapAdd(newSamples, period, 0)
	s.inputBuffer.Drop(newSamples)
	return newSamples
}

// overlapAdd cross-fades numSamples input frames starting at rampDown (fading
// out) with those starting at rampUp (fading in) and appends the result.
func (s *Sonic) overlapAdd(numSamples, rampDown, rampUp int) {
	if numSamples <= 0 {
		return
	}
	cur := s.outputBuffer.WriteSilence(numSamples)

	for i := 0; i < numSamples; i++ {
		for c := 0; c < s.numChannels; c++ {
			down := int(s.inputBuffer.Sample(rampDown+i, c))
			up := int(s.inputBuffer.Sample(rampUp+i, c))

			var v int16
			if s.useSinOverlap {
				ratio := math.Sin(float64(i) * math.Pi / (2 * float64(numSamples)))
				v = int16(float64(down)*(1.0-ratio) + float64(up)*ratio)
			} else {
				v = int16((down*(numSamples-i) + up*i) / numSamples)
			}
			s.outputBuffer.SetSample(cur+i, c, v)
		}
	}
}

func (s *Sonic) computeSkip() int {
	if s.sampleRate > AmdfFreq && !s.quality {
		return s.sampleRate / AmdfFreq
	}
	return 1
}

func (s *Sonic) findPitchPeriod(preferNewPeriod bool) int {
	var period, minDiff, maxDiff int

	minPeriod := s.minPeriod
	maxPeriod := s.maxPeriod
	skip := s.computeSkip()

	if s.numChannels == 1 && skip == 1 {
		period, minDiff, maxDiff = findPitchPeriodInRange(s.inputBuffer.Frames(s.maxRequired), minPeriod, maxPeriod)
	} else {
		s.downSampleInput(skip)
		period, minDiff, maxDiff = findPitchPeriodInRange(s.downSampleBuffer.Frames(s.maxRequired), minPeriod/skip, maxPeriod/skip)

		if skip != 1 {
			// Refine around the coarse estimate at full rate.
			period *= skip
			minPeriod = max(period-(skip<<2), s.minPeriod)
			maxPeriod = min(period+(skip<<2), s.maxPeriod)
			if s.numChannels == 1 {
				period, minDiff, maxDiff = findPitchPeriodInRange(s.inputBuffer.Frames(s.maxRequired), minPeriod, maxPeriod)
			} else {
				s.downSampleInput(1)
				period, minDiff, maxDiff = findPitchPeriodInRange(s.downSampleBuffer.Frames(s.maxRequired), minPeriod, maxPeriod)
			}
		}
	}

	ret := period
	if s.prevPeriodBetter(minDiff, maxDiff, preferNewPeriod) {
		ret = s.prevPeriod
	}

	s.prevMinDiff = minDiff
	s.prevPeriod = period

	return ret
}

// prevPeriodBetter detects abrupt ends of voiced words, where the previous
// pitch period estimate is a better approximation than the new one.
func (s *Sonic) prevPeriodBetter(minDiff, maxDiff int, preferNewPeriod bool) bool {
	if minDiff == 0 || s.prevPeriod == 0 {
		return false
	}

	if preferNewPeriod {
		if maxDiff > minDiff*3 {
			return false
		}
		if minDiff*2 <= s.prevMinDiff*3 {
			return false
		}
	} else if minDiff <= s.prevMinDiff {
		return false
	}
	return true
}

// downSampleInput averages skip frames (and all channels) of the input into
// one mono sample of the down-sample buffer.
func (s *Sonic) downSampleInput(skip int) {
	n := s.maxRequired / skip
	step := skip * s.numChannels
	samples := s.inputBuffer.Frames(s.maxRequired)

	s.downSampleBuffer.Reset()
	for i := 0; i < n; i++ {
		v := 0
		for _, x := range samples[i*step : (i+1)*step] {
			v += int(x)
		}
		s.downSampleBuffer.Write(int16(v / step))
	}
}

// findPitchPeriodInRange finds the period in [minP, maxP] with the lowest
// average magnitude difference. samples must hold at least 2*maxP values.
// It returns the best period and the normalised best and worst differences.
func findPitchPeriodInRange(samples []int16, minP, maxP int) (int, int, int) {
	bestPeriod, worstPeriod := 0, 255
	minDiff, maxDiff := 1, 0

	_ = samples[2*maxP-1]

	for period := minP; period <= maxP; period++ {
		diff := 0
		for i := 0; i < period; i++ {
			d := int(samples[i]) - int(samples[i+period])
			if d < 0 {
				d = -d
			}
			diff += d
		}

		if bestPeriod == 0 || diff*bestPeriod < minDiff*period {
			minDiff = diff
			bestPeriod = period
		}

		if diff*worstPeriod > maxDiff*period {
			maxDiff = diff
			worstPeriod = period
		}
	}

	return bestPeriod, minDiff / bestPeriod, maxDiff / worstPeriod
}

// adjustRate resamples output frames from position from onward by rate,
// keeping SincFilterPoints frames in the pitch buffer for the next call.
func (s *Sonic) adjustRate(rate float64, from int) {
	newSampleRate := int(float64(s.sampleRate) / rate)
	oldSampleRate := s.sampleRate

	for newSampleRate > (1<<14) || oldSampleRate > (1<<14) {
		newSampleRate >>= 1
		oldSampleRate >>= 1
	}

	s.pitchBuffer.Buffer.WriteSlice(s.outputBuffer.CutTail(from))

	n := s.pitchBuffer.Len() - SincFilterPoints
	if n < 1 {
		return
	}

	for i := 0; i < n; i++ {
		for (s.oldRatePosition+1)*newSampleRate > s.newRatePosition*oldSampleRate {
			at := s.outputBuffer.WriteSilence(1)
			for c := 0; c < s.numChannels; c++ {
				s.outputBuffer.SetSample(at, c, s.interpolate(i, c, oldSampleRate, newSampleRate))
			}
			s.newRatePosition++
		}
		s.oldRatePosition++
		if s.oldRatePosition == oldSampleRate {
			s.oldRatePosition = 0
			s.newRatePosition = 0
		}
	}

	s.pitchBuffer.Drop(n)
}

// interpolate computes one resampled value with an N-point sinc FIR filter.
func (s *Sonic) interpolate(n, c, oldSampleRate, newSampleRate int) int16 {
	position := s.newRatePosition * oldSampleRate
	leftPosition := s.oldRatePosition * newSampleRate
	rightPosition := (s.oldRatePosition + 1) * newSampleRate
	ratio := rightPosition - position - 1
	width := rightPosition - leftPosition

	total := 0
	for i := 0; i < SincFilterPoints; i++ {
		total += int(s.pitchBuffer.Sample(n+i, c)) * findSincCoefficient(i, ratio, width)
	}

	// Clip rather than wrap.
	return clampInt16(total >> 16)
}

// findSincCoefficient approximates the sinc function times a Hann window from the sinc table.
func findSincCoefficient(i, ratio, width int) int {
	lobePoints := (SincTableSize - 1) / SincFilterPoints
	left := i*lobePoints + (ratio*lobePoints)/width
	position := i*lobePoints*width + ratio*lobePoints - left*width

	return ((SincTable[left]*(width-position) + SincTable[left+1]*position) << 1) / width
}

// flush forces out everything buffered, including the nonlinear lookahead,
// by pushing silence through and trimming the output to the expected length.
func (s *Sonic) flush() {
	if s.nonlinear != nil {
		s.releaseNonlinear(true)
	}
	if s.inputBuffer.Len() == 0 && s.pitchBuffer.Len() == 0 {
		return
	}

	expected := s.outputBuffer.Len() +
		int((s.inputPlaytime/s.samplePeriod+float64(s.pitchBuffer.Len()))/(s.rate*s.pitch)+0.5)

	silence := 2 * s.maxRequired
	s.inputBuffer.WriteSilence(silence)
	s.inputPlaytime += float64(silence) * s.samplePeriod * s.pitch / s.speed
	s.processStreamInput()

	if s.outputBuffer.Len() > expected {
		s.outputBuffer.Truncate(expected)
	}

	// Whatever is left is padding.
	s.inputBuffer.Reset()
	s.pitchBuffer.Reset()
	s.inputPlaytime = 0
	s.timeError = 0
}

// Reset drops all buffered audio and analysis state but keeps the settings.
func (s *Sonic) Reset() {
	s.prevPeriod = 0
	s.prevMinDiff = 0
	s.oldRatePosition = 0
	s.newRatePosition = 0
	s.timeError = 0
	s.inputPlaytime = 0

	s.inputBuffer.Reset()
	s.outputBuffer.Reset()
	s.downSampleBuffer.Reset()
	s.pitchBuffer.Reset()
	if s.nonlinear != nil {
		s.nonlinear.reset()
	}
}

func (s *Sonic) release() {
	s.Reset()
	s.inputBuffer.Release()
	s.outputBuffer.Release()
	s.downSampleBuffer.Release()
	s.pitchBuffer.Release()
	s.nonlinear = nil
}
