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

// ChangeSpeed stretches a complete interleaved int16 signal in one go and
// returns the result. It is the non-streaming counterpart of Stream.
func ChangeSpeed(sampleRate, numChannels int, speed, pitch, rate, volume float64, samples []int16) ([]int16, error) {
	stream, err := NewStream(sampleRate, numChannels)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	stream.SetSpeed(speed)
	stream.SetPitch(pitch)
	stream.SetRate(rate)
	stream.SetVolume(volume)

	if err := stream.Write(samples); err != nil {
		return nil, err
	}
	if err := stream.Flush(); err != nil {
		return nil, err
	}
	return stream.ReadAll(), nil
}
