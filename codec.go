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

	"github.com/tphakala/simd/f32"
)

// fixedScale maps the float range [-1, 1] onto int16.
const fixedScale = 32767.0

// ToFixed converts float samples to int16, scaling by 32767, saturating to
// the int16 range and truncating toward zero. The result reuses dst's
// storage when it is large enough.
func ToFixed(dst []int16, src []float32) []int16 {
	dst = resize(dst, len(src))
	for i, x := range src {
		v := x * fixedScale
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		} else if math.IsNaN(float64(v)) {
			v = 0
		}
		dst[i] = int16(v)
	}
	return dst
}

// ToFloat converts int16 samples to floats by dividing by 32767. The result
// reuses dst's storage when it is large enough.
func ToFloat(dst []float32, src []int16) []float32 {
	dst = resize(dst, len(src))
	for i, x := range src {
		dst[i] = float32(x)
	}
	f32.Scale(dst, dst, 1/fixedScale)
	return dst
}

// resize returns s with length n, reallocating only when cap(s) < n.
func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}
