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
	"io"
	"reflect"
	"testing"
)

func TestBuffer_Write(t *testing.T) {
	b := &Buffer[int]{}
	values := []int{1, 2, 3, 4, 5}

	for _, v := range values {
		b.Write(v)
	}

	if !reflect.DeepEqual(b.Buffer(), values) {
		t.Errorf("Write: Expected %v, but got %v", values, b.Buffer())
	}
}

func TestBuffer_WriteSlice(t *testing.T) {
	b := &Buffer[int]{}
	slice := []int{1, 2, 3, 4, 5}

	b.WriteSlice(slice)
	slice[0] = 100

	expected := []int{1, 2, 3, 4, 5}
	if !reflect.DeepEqual(b.Buffer(), expected) {
		t.Errorf("WriteSlice: Expected %v, but got %v", expected, b.Buffer())
	}
}

func TestBuffer_Read(t *testing.T) {
	b := &Buffer[int]{}
	values := []int{1, 2, 3, 4, 5}
	b.WriteSlice(values)

	for _, expected := range values {
		actual, err := b.Read()
		if err != nil {
			t.Errorf("Error reading from buffer: %v", err)
		}
		if actual != expected {
			t.Errorf("Read: Expected %v, but got %v", expected, actual)
		}
	}

	if _, err := b.Read(); err != io.EOF {
		t.Errorf("Expected EOF after reading all values, but got: %v", err)
	}
}

func TestBuffer_ReadSlice(t *testing.T) {
	b := &Buffer[int]{}
	slice := []int{1, 2, 3, 4, 5}
	b.WriteSlice(slice)

	actual, err := b.ReadSlice(3)
	if err != nil {
		t.Errorf("Error reading slice from buffer: %v", err)
	}
	if !reflect.DeepEqual(actual, slice[:3]) {
		t.Errorf("ReadSlice: Expected %v, but got %v", slice[:3], actual)
	}

	actual, _ = b.ReadSlice(10)
	if !reflect.DeepEqual(actual, slice[3:]) {
		t.Errorf("ReadSlice: Expected %v, but got %v", slice[3:], actual)
	}

	if _, err = b.ReadSlice(1); err != io.EOF {
		t.Errorf("Expected EOF after reading all values, but got: %v", err)
	}
}

func TestBuffer_WriteZeroClearsReusedStorage(t *testing.T) {
	b := NewBuffer[int](8)
	b.WriteSlice([]int{7, 7, 7, 7})
	b.Truncate(1)

	at := b.WriteZero(3)
	if at != 1 {
		t.Fatalf("WriteZero position: Expected 1, but got %d", at)
	}
	expected := []int{7, 0, 0, 0}
	if !reflect.DeepEqual(b.Buffer(), expected) {
		t.Errorf("WriteZero: Expected %v, but got %v", expected, b.Buffer())
	}
}

func TestBuffer_CutTail(t *testing.T) {
	b := &Buffer[int]{}
	b.WriteSlice([]int{1, 2, 3, 4, 5})
	b.Drop(1)

	tail := append([]int(nil), b.CutTail(2)...)

	if !reflect.DeepEqual(tail, []int{4, 5}) {
		t.Errorf("CutTail: Expected [4 5], but got %v", tail)
	}
	if !reflect.DeepEqual(b.Buffer(), []int{2, 3}) {
		t.Errorf("CutTail remainder: Expected [2 3], but got %v", b.Buffer())
	}
}

func TestBuffer_GrowSlidesUnreadData(t *testing.T) {
	b := NewBuffer[int](16)
	for i := 0; i < 16; i++ {
		b.Write(i)
	}
	b.Drop(14)
	b.WriteSlice([]int{100, 101})

	expected := []int{14, 15, 100, 101}
	if !reflect.DeepEqual(b.Buffer(), expected) {
		t.Errorf("grow: Expected %v, but got %v", expected, b.Buffer())
	}
}

func TestSampleBuffer_Frames(t *testing.T) {
	b := NewSampleBuffer(2, 4)
	if err := b.WriteFrames([]int16{1, 2, 3}); err != ErrChannels {
		t.Fatalf("Expected ErrChannels for a partial frame, got %v", err)
	}
	if err := b.WriteFrames([]int16{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 3 {
		t.Errorf("Len: Expected 3 frames, got %d", b.Len())
	}
	if v := b.Sample(1, 1); v != 4 {
		t.Errorf("Sample(1, 1): Expected 4, got %d", v)
	}
	if v := b.Sample(9, 0); v != 0 {
		t.Errorf("Sample out of range: Expected 0, got %d", v)
	}

	to := make([]int16, 5)
	if n := b.ReadTo(to); n != 2 {
		t.Errorf("ReadTo: Expected 2 frames, got %d", n)
	}
	if !reflect.DeepEqual(to[:4], []int16{1, 2, 3, 4}) {
		t.Errorf("ReadTo: got %v", to[:4])
	}
	if b.Len() != 1 {
		t.Errorf("Len after ReadTo: Expected 1, got %d", b.Len())
	}
}

func TestSampleBuffer_ScaleClips(t *testing.T) {
	b := NewSampleBuffer(1, 4)
	_ = b.WriteFrames([]int16{1000, 20000, -20000, 3})

	b.Scale(1, 512)

	expected := []int16{1000, ShrtMax, ShrtMin, 6}
	if !reflect.DeepEqual(b.Frames(4), expected) {
		t.Errorf("Scale: Expected %v, but got %v", expected, b.Frames(4))
	}
}
