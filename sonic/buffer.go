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
//
// NOTE: The growth strategy in this file has been adapted from the "bytes"
// package of the Go standard library
//
// The original copyright notice from the Go project for these parts is
// reproduced here:
//
// ========================================================================
// Copyright (c) 2009 The Go Authors. All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are
// met:
//
//    * Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//    * Redistributions in binary form must reproduce the above
// copyright notice, this list of conditions and the following disclaimer
// in the documentation and/or other materials provided with the
// distribution.
//    * Neither the name of Google Inc. nor the names of its
// contributors may be used to endorse or promote products derived from
// this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
// "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
// LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
// A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
// OWNER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
// LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
// DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
// THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
// (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.
// ========================================================================

package sonic

import (
	"errors"
	"io"
)

// smallBufferSize is an initial allocation minimal capacity.
const smallBufferSize = 64

// ErrTooLarge is passed to panic if memory cannot be allocated to store data in a buffer.
var ErrTooLarge = errors.New("sonic.Buffer: too large")

const maxInt = int(^uint(0) >> 1)

// Buffer is a FIFO of elements with amortized growth. Reads advance an
// offset, writes append; the consumed prefix is reclaimed lazily on growth.
type Buffer[T any] struct {
	buf []T // contents are the elements buf[off : len(buf)]
	off int // read at &buf[off], write at &buf[len(buf)]
}

// NewBuffer returns an empty Buffer with room for initialCap elements.
func NewBuffer[T any](initialCap int) *Buffer[T] {
	return &Buffer[T]{buf: make([]T, 0, initialCap)}
}

// Buffer returns the unread portion. The slice aliases the buffer until the next write.
func (b *Buffer[T]) Buffer() []T {
	return b.buf[b.off:]
}

// Len returns the number of unread elements.
func (b *Buffer[T]) Len() int {
	return len(b.buf) - b.off
}

func (b *Buffer[T]) isEmpty() bool {
	return len(b.buf) <= b.off
}

// Truncate keeps the first n unread elements.
func (b *Buffer[T]) Truncate(n int) {
	if n == 0 {
		b.Reset()
		return
	}
	if n < 0 || n > b.Len() {
		panic("sonic.Buffer: truncation out of range")
	}
	b.buf = b.buf[:b.off+n]
}

// Reset empties the buffer but keeps its storage.
func (b *Buffer[T]) Reset() {
	b.buf = b.buf[:0]
	b.off = 0
}

// Release drops the storage entirely.
func (b *Buffer[T]) Release() {
	b.buf = nil
	b.off = 0
}

// Write appends one element.
func (b *Buffer[T]) Write(v T) {
	m, ok := b.tryGrowByReslice(1)
	if !ok {
		m = b.grow(1)
	}
	b.buf[m] = v
}

// WriteAt overwrites the unread element at position n.
func (b *Buffer[T]) WriteAt(n int, v T) {
	if n < 0 || n >= b.Len() {
		panic("sonic.Buffer: wrong position to write at")
	}
	b.buf[b.off+n] = v
}

// WriteSlice appends a copy of slice.
func (b *Buffer[T]) WriteSlice(slice []T) {
	if len(slice) == 0 {
		return
	}
	m, ok := b.tryGrowByReslice(len(slice))
	if !ok {
		m = b.grow(len(slice))
	}
	copy(b.buf[m:], slice)
}

// WriteZero appends n zero elements and returns the position of the first one.
func (b *Buffer[T]) WriteZero(n int) int {
	at := b.Len()
	if n <= 0 {
		return at
	}
	m, ok := b.tryGrowByReslice(n)
	if !ok {
		m = b.grow(n)
	}
	clear(b.buf[m : m+n])
	return at
}

// Read consumes one element. It returns io.EOF when the buffer is empty.
func (b *Buffer[T]) Read() (T, error) {
	if b.isEmpty() {
		var zero T
		b.Reset()
		return zero, io.EOF
	}
	v := b.buf[b.off]
	b.off++
	return v, nil
}

// ReadSlice consumes up to n elements. The returned slice aliases the buffer
// and is valid until the next write.
func (b *Buffer[T]) ReadSlice(n int) ([]T, error) {
	if b.isEmpty() {
		b.Reset()
		return nil, io.EOF
	}
	n = min(n, b.Len())
	slice := b.buf[b.off : b.off+n]
	b.off += n
	return slice, nil
}

// Drop discards up to n elements from the front.
func (b *Buffer[T]) Drop(n int) {
	if b.isEmpty() {
		b.Reset()
		return
	}
	b.off += min(n, b.Len())
}

// Peek returns up to n leading elements without consuming them.
func (b *Buffer[T]) Peek(n int) []T {
	n = min(n, b.Len())
	return b.buf[b.off : b.off+n]
}

// CutTail removes every element from position at onward and returns them.
// The returned slice aliases storage that the next write will reuse.
func (b *Buffer[T]) CutTail(at int) []T {
	if at < 0 || at > b.Len() {
		panic("sonic.Buffer: out of range")
	}
	tail := b.buf[b.off+at:]
	b.buf = b.buf[:b.off+at]
	return tail
}

// At returns the unread element at position n.
func (b *Buffer[T]) At(n int) (T, error) {
	if n < 0 || n >= b.Len() {
		var zero T
		return zero, io.EOF
	}
	return b.buf[b.off+n], nil
}

// MoveTo transfers up to n elements to dst.
func (b *Buffer[T]) MoveTo(dst *Buffer[T], n int) int {
	s, err := b.ReadSlice(n)
	if err != nil {
		return 0
	}
	dst.WriteSlice(s)
	return len(s)
}

// CopyTo appends up to n leading elements to dst without consuming them.
func (b *Buffer[T]) CopyTo(dst *Buffer[T], n int) int {
	s := b.Peek(n)
	dst.WriteSlice(s)
	return len(s)
}

// tryGrowByReslice is an inlineable version of grow for the fast-case where the
// internal buffer only needs to be resliced.
func (b *Buffer[T]) tryGrowByReslice(n int) (int, bool) {
	if l := len(b.buf); n <= cap(b.buf)-l {
		b.buf = b.buf[:l+n]
		return l, true
	}
	return 0, false
}

func growSlice[T any](b []T, n int) []T {
	defer func() {
		if recover() != nil {
			panic(ErrTooLarge)
		}
	}()
	c := len(b) + n
	if c < 2*cap(b) {
		c = 2 * cap(b)
	}
	b2 := make([]T, c)
	copy(b2, b)
	return b2[:len(b)]
}

// grow grows the buffer to guarantee space for n more elements and returns
// the index where they should be written.
func (b *Buffer[T]) grow(n int) int {
	m := b.Len()
	if m == 0 && b.off != 0 {
		b.Reset()
	}
	if i, ok := b.tryGrowByReslice(n); ok {
		return i
	}
	if b.buf == nil && n <= smallBufferSize {
		b.buf = make([]T, n, smallBufferSize)
		return 0
	}
	c := cap(b.buf)
	if n <= c/2-m {
		// Slide the unread portion down instead of reallocating; the
		// capacity is allowed to reach 2x before we pay for a copy.
		copy(b.buf, b.buf[b.off:])
	} else if c > maxInt-c-n {
		panic(ErrTooLarge)
	} else {
		b.buf = growSlice(b.buf[b.off:], b.off+n)
	}
	b.off = 0
	b.buf = b.buf[:m+n]
	return m
}
