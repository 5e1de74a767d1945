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

package util

import (
	"math"
	"math/rand"
	"testing"
)

func TestByteLength(t *testing.T) {
	for v, n := range map[uint64]uint8{
		0: 1, 255: 1, 256: 2, 65535: 2, 65536: 3,
		1<<32 - 1: 4, 1 << 32: 5, 1<<56 - 1: 7, math.MaxUint64: 8,
	} {
		if l := ByteLengthUint64(v); l != n {
			t.Errorf("%d: expected %d bytes, returned %d", v, n, l)
		}
	}
}

func TestGroupVarint(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	tests := [][2]uint64{{0, 0}, {math.MaxUint64, 1}, {255, 256}}
	for i := 0; i < 1000; i++ {
		tests = append(tests, [2]uint64{r.Uint64() >> uint(r.Intn(64)), r.Uint64() >> uint(r.Intn(64))})
	}

	buf := make([]byte, 16)
	for i, test := range tests {
		ctrl, n := PutUint64s(buf, test[0], test[1])
		if CtrlByte2ByteLengthsUint64(ctrl) != n {
			t.Errorf("#%d, wrong byte length", i)
		}

		v1, v2, n2 := Uint64s(ctrl, buf[:n])
		if n2 != n {
			t.Errorf("#%d, wrong decoded length: %d != %d", i, n2, n)
		}
		if v1 != test[0] || v2 != test[1] {
			t.Errorf("#%d, wrong decoded result: %d, %d, answer: %d, %d", i, v1, v2, test[0], test[1])
		}

		if _, _, n2 = Uint64s(ctrl, buf[:n-1]); n2 != 0 {
			t.Errorf("#%d, truncated bytes should not be decoded", i)
		}
	}
}
