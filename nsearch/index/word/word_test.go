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

package word

import (
	"math/rand"
	"testing"
)

func TestIterator(t *testing.T) {
	s := []byte("NACGTNAACCGGTT")
	k := 4

	iter, err := NewIterator(s, k)
	if err != nil {
		t.Error(err)
		return
	}

	var n int
	iter.ForEach(func(pos int, key uint64) {
		word := s[pos : pos+k]
		expected, ok := Encode(word)
		if !ok {
			t.Errorf("ambiguous word returned: %d %s", pos, word)
			return
		}
		if key != expected {
			t.Errorf("%d %s: expected %064b, returned %064b", pos, word, expected, key)
		}
		t.Logf("%d\t%s\t%d", pos, word, key)
		n++
	})
	// ACGT, AACC, ACCG, CCGG, CGGT, GGTT
	if n != 6 {
		t.Errorf("expected 6 words, returned %d", n)
	}

	// restartable
	var n2 int
	for {
		if _, ok := iter.Next(); !ok {
			break
		}
		n2++
	}
	if n2 != n {
		t.Errorf("expected %d words after reset, returned %d", n, n2)
	}

	// reset in the middle
	iter.Reset()
	first, _ := iter.Next()
	iter.Next()
	iter.Reset()
	key, ok := iter.Next()
	if !ok || key != first || iter.Index() != 1 {
		t.Errorf("unexpected first word after reset: %d, %d", iter.Index(), key)
	}
	n2 = 1
	for {
		if _, ok = iter.Next(); !ok {
			break
		}
		n2++
	}
	if n2 != n {
		t.Errorf("expected %d words after reset, returned %d", n, n2)
	}
}

func TestEncoding(t *testing.T) {
	key, ok := Encode([]byte("ACTG"))
	if !ok {
		t.Error("unexpected ambiguity")
		return
	}
	// G T C A from high to low bits
	if key != 0b11100100 {
		t.Errorf("unexpected key: %b", key)
	}
	if k2, _ := Encode([]byte("ACUG")); k2 != key {
		t.Errorf("U should be encoded as T")
	}

	_, err := NewIterator([]byte("ACGT"), 33)
	if err != ErrInvalidWordLength {
		t.Errorf("expected error: %s", ErrInvalidWordLength)
	}
	_, err = NewIterator([]byte("ACGT"), 0)
	if err != ErrInvalidWordLength {
		t.Errorf("expected error: %s", ErrInvalidWordLength)
	}
}

func TestWordLength32(t *testing.T) {
	s := []byte("GGGGGGGGGGGGGGGGGGGGGGGGGGGGGGGGA")
	iter, _ := NewIterator(s, 32)
	key, ok := iter.Next()
	if !ok || key != 1<<64-1 {
		t.Errorf("unexpected first key: %x", key)
	}
	key, ok = iter.Next()
	if !ok || key != 1<<62-1 {
		t.Errorf("unexpected second key: %x", key)
	}
	if _, ok = iter.Next(); ok {
		t.Errorf("expected the end")
	}
}

func TestShortSequence(t *testing.T) {
	iter, _ := NewIterator([]byte("ACG"), 5)
	if iter.WordLength() != 3 {
		t.Errorf("expected clamped word length 3, returned %d", iter.WordLength())
	}
	var n int
	iter.ForEach(func(pos int, key uint64) {
		n++
		if pos != 0 || key != 0b110100 {
			t.Errorf("unexpected word: %d %b", pos, key)
		}
	})
	if n != 1 {
		t.Errorf("expected one word, returned %d", n)
	}

	iter, _ = NewIterator([]byte{}, 5)
	n = 0
	iter.ForEach(func(pos int, key uint64) { n++ })
	if n != 1 {
		t.Errorf("expected one empty word, returned %d", n)
	}
}

func TestWordCounts(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	bases := []byte("ACGTNRY")
	for round := 0; round < 200; round++ {
		s := make([]byte, 1+r.Intn(100))
		for i := range s {
			if r.Intn(10) == 0 {
				s[i] = bases[4+r.Intn(3)]
			} else {
				s[i] = bases[r.Intn(4)]
			}
		}
		k := 1 + r.Intn(len(s))
		if k > MaxWordLength {
			k = MaxWordLength
		}

		var expected int
		for i := 0; i+k <= len(s); i++ {
			if _, ok := Encode(s[i : i+k]); ok {
				expected++
			}
		}

		iter, _ := NewIterator(s, k)
		var n int
		iter.ForEach(func(pos int, key uint64) {
			n++
			if e, ok := Encode(s[pos : pos+k]); !ok || e != key {
				t.Errorf("%s k=%d pos=%d: wrong key", s, k, pos)
			}
		})
		if n != expected {
			t.Errorf("%s k=%d: expected %d words, returned %d", s, k, expected, n)
		}
	}
}
