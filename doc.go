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

// Package speedy applies continuous time and pitch stretching to a flowing
// sequence of host audio buffers.
//
// An Adapter sits between a host that delivers interleaved float32 chunks
// and a stretch engine that works on interleaved int16 samples. For every
// chunk it binds an engine to the chunk's format, converts the samples,
// writes them, drains whatever output is ready within a bounded number of
// frames and puts the result back into the chunk. Every failure degrades to
// pass-through or silence; Process never returns an error.
//
//	a := speedy.New(speedy.Params{Speed: 1.5, Pitch: 1, Rate: 1, Volume: 1, NonlinearFactor: 1})
//	defer a.Close()
//	for chunk := range chunks {
//		a.Process(chunk)
//		emit(chunk)
//	}
//	if tail := a.EndOfStream(); tail != nil {
//		emit(tail)
//	}
//
// The default engine is the sonic package in this module.
package speedy
