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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrForeignPreset is returned when a preset belongs to another component.
	ErrForeignPreset = errors.New("preset belongs to another owner")
	// ErrShortPreset is returned when preset data is smaller than PresetSize.
	ErrShortPreset = errors.New("preset data too short")
)

// PresetSize is the length of the preset payload: five little-endian
// float32 values (speed, pitch, rate, volume, nonlinear factor) followed by
// one boolean byte (nonlinear).
const PresetSize = 5*4 + 1

// maxPresetFile bounds the payload accepted by ReadPreset.
const maxPresetFile = 1 << 16

// Owner identifies the component a preset belongs to. It is stored in the
// memory layout of a Windows GUID.
type Owner [16]byte

// SpeedyOwner is the identity of presets produced by this package,
// {8e4a9f2c-3b5d-4e7a-9c1f-6d8b2a4e5f3c}.
var SpeedyOwner = Owner{
	0x2c, 0x9f, 0x4a, 0x8e,
	0x5d, 0x3b,
	0x7a, 0x4e,
	0x9c, 0x1f, 0x6d, 0x8b, 0x2a, 0x4e, 0x5f, 0x3c,
}

func (o Owner) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%x-%x",
		binary.LittleEndian.Uint32(o[0:4]),
		binary.LittleEndian.Uint16(o[4:6]),
		binary.LittleEndian.Uint16(o[6:8]),
		o[8:10], o[10:16])
}

// Preset is an opaque parameter blob tagged with its owner, as stored by a
// host's preset storage.
type Preset struct {
	Owner Owner
	Data  []byte
}

// Preset serializes p under SpeedyOwner.
func (p Params) Preset() Preset {
	return Preset{Owner: SpeedyOwner, Data: p.AppendBinary(make([]byte, 0, PresetSize))}
}

// AppendBinary appends the PresetSize byte encoding of p to b.
func (p Params) AppendBinary(b []byte) []byte {
	for _, v := range []float32{p.Speed, p.Pitch, p.Rate, p.Volume, p.NonlinearFactor} {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	if p.Nonlinear {
		return append(b, 1)
	}
	return append(b, 0)
}

// ParsePreset decodes a preset that must belong to owner. Data longer than
// PresetSize is accepted and the excess ignored.
func ParsePreset(pr Preset, owner Owner) (Params, error) {
	if pr.Owner != owner {
		return Params{}, fmt.Errorf("%w: %v", ErrForeignPreset, pr.Owner)
	}
	if len(pr.Data) < PresetSize {
		return Params{}, fmt.Errorf("%w: %d bytes, need %d", ErrShortPreset, len(pr.Data), PresetSize)
	}

	f := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(pr.Data[i*4:]))
	}
	p := Params{
		Speed:           f(0),
		Pitch:           f(1),
		Rate:            f(2),
		Volume:          f(3),
		NonlinearFactor: f(4),
		Nonlinear:       pr.Data[20] != 0,
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// LoadPreset is ParsePreset that falls back to DefaultParams on any error.
func LoadPreset(pr Preset, owner Owner) Params {
	p, err := ParsePreset(pr, owner)
	if err != nil {
		return DefaultParams()
	}
	return p
}

// WriteTo writes the preset as owner, a little-endian uint32 payload length
// and the payload.
func (pr Preset) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 0, len(pr.Owner)+4+len(pr.Data))
	buf = append(buf, pr.Owner[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(pr.Data)))
	buf = append(buf, pr.Data...)
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadPreset reads a preset written by Preset.WriteTo.
func ReadPreset(r io.Reader) (Preset, error) {
	var hdr [len(Owner{}) + 4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Preset{}, fmt.Errorf("read preset header: %w", err)
	}

	var pr Preset
	copy(pr.Owner[:], hdr[:16])
	size := binary.LittleEndian.Uint32(hdr[16:])
	if size > maxPresetFile {
		return Preset{}, fmt.Errorf("read preset: payload of %d bytes exceeds %d", size, maxPresetFile)
	}

	pr.Data = make([]byte, size)
	if _, err := io.ReadFull(r, pr.Data); err != nil {
		return Preset{}, fmt.Errorf("read preset payload: %w", err)
	}
	return pr, nil
}
