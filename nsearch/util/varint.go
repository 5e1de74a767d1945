// Copyright © 2024 The nsearch Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package util provides a group-varint codec for pairs of integers.
package util

import "math/bits"

// PutUint64s encodes two uint64s into 2-16 bytes (big-endian, minimum byte
// lengths), and returns the control byte and the encoded byte length.
// The control byte saves (byte length - 1) of v1 in bits 3-5 and that of v2 in bits 0-2.
// buf should have at least 16 bytes.
func PutUint64s(buf []byte, v1, v2 uint64) (ctrl byte, n int) {
	l1 := ByteLengthUint64(v1)
	l2 := ByteLengthUint64(v2)
	ctrl = byte(l1-1)<<3 | byte(l2-1)

	n = putUint64(buf, v1, l1)
	n += putUint64(buf[n:], v2, l2)
	return
}

func putUint64(buf []byte, v uint64, blen uint8) int {
	for i := int(blen) - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return int(blen)
}

// Uint64s decodes two uint64s encoded by PutUint64s.
// n is 0 if buf is too short.
func Uint64s(ctrl byte, buf []byte) (v1, v2 uint64, n int) {
	l1 := int((ctrl>>3)&7) + 1
	l2 := int(ctrl&7) + 1
	if len(buf) < l1+l2 {
		return 0, 0, 0
	}

	for _, b := range buf[:l1] {
		v1 = v1<<8 | uint64(b)
	}
	for _, b := range buf[l1 : l1+l2] {
		v2 = v2<<8 | uint64(b)
	}
	return v1, v2, l1 + l2
}

// ByteLengthUint64 returns the minimum number of bytes to store a integer.
func ByteLengthUint64(n uint64) uint8 {
	if n == 0 {
		return 1
	}
	return uint8((bits.Len64(n) + 7) >> 3)
}

// CtrlByte2ByteLengthsUint64 returns the byte length for a given control byte.
func CtrlByte2ByteLengthsUint64(ctrl byte) int {
	return int(ctrl>>3&7+ctrl&7) + 2
}
