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
	"github.com/alttagil/speedy-go/sonic"
)

// BaseLatency approximates the delay of the engine's pitch-period buffering.
const BaseLatency = 0.020

// NonlinearLatency is the lookahead added by the nonlinear mode.
const NonlinearLatency = float64(sonic.HysteresisFrames) / sonic.TensionFrameRate

// EstimateLatency returns the output delay in seconds that an adapter with
// p introduces. It is a fixed estimate, not a measurement: zero while no
// engine is bound.
func EstimateLatency(p Params, bound bool) float64 {
	if !bound {
		return 0
	}
	latency := BaseLatency
	if p.Nonlinear {
		latency += NonlinearLatency
	}
	return latency
}
