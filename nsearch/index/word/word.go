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

// Package word produces packed keys of fixed-length words of nucleotide
// sequences. A base takes 2 bits (A=0, C=1, T/U=2, G=3), and the first
// base of a word is saved in the lowest 2 bits.
package word

import (
	"errors"

	"github.com/manutamminen/nsearch/nsearch/sequence"
)

// MaxWordLength is the longest word fitting in a uint64.
const MaxWordLength = 32

// ErrInvalidWordLength means the word length is < 1 or > MaxWordLength.
var ErrInvalidWordLength = errors.New("word: invalid word length, valid range: [1, 32]")

// Iterator iterates all words without ambiguous bases, in the order of positions.
//
// The key is updated in a rolling way, i.e., the oldest base is shifted out
// and the new one is put into the highest 2 bits. The index of the last
// ambiguous base is tracked, so a window is valid only when the ambiguous
// base is before the window.
type Iterator struct {
	s []byte
	k int // effective word length

	started bool
	i       int // start of the current window
	key     uint64
	top     uint // bit offset of the last base of a word

	lastAmbig int // -1 for none
	idx       int
}

// NewIterator returns an iterator of words of length k.
// If the sequence is shorter than k, k is clamped to the sequence length.
func NewIterator(s []byte, k int) (*Iterator, error) {
	if k < 1 || k > MaxWordLength {
		return nil, ErrInvalidWordLength
	}
	iter := &Iterator{s: s}
	iter.k = k
	if len(s) < k {
		iter.k = len(s)
	}
	if iter.k > 0 {
		iter.top = uint(iter.k-1) << 1
	}
	iter.Reset()
	return iter, nil
}

// Reset restarts the iteration.
func (iter *Iterator) Reset() {
	iter.started = false
	iter.i = 0
	iter.key = 0
	iter.lastAmbig = -1
	iter.idx = -1
}

// WordLength returns the effective word length.
func (iter *Iterator) WordLength() int { return iter.k }

// Index returns the 0-based position of the last returned word.
func (iter *Iterator) Index() int { return iter.idx }

// Next returns the key of the next valid word.
func (iter *Iterator) Next() (uint64, bool) {
	var c int8
	if !iter.started {
		iter.started = true
		for j := 0; j < iter.k; j++ {
			c = sequence.Code(iter.s[j])
			if c < 0 {
				iter.lastAmbig = j
				continue
			}
			iter.key |= uint64(c) << (uint(j) << 1)
		}
		if iter.lastAmbig < 0 {
			iter.idx = 0
			return iter.key, true
		}
	}

	last := len(iter.s) - iter.k
	var j int
	for iter.i < last {
		iter.i++
		j = iter.i + iter.k - 1

		iter.key >>= 2
		c = sequence.Code(iter.s[j])
		if c < 0 {
			iter.lastAmbig = j
		} else {
			iter.key |= uint64(c) << iter.top
		}

		if iter.lastAmbig < iter.i {
			iter.idx = iter.i
			return iter.key, true
		}
	}
	return 0, false
}

// ForEach calls f for every valid word. The iterator is reset before and after it.
func (iter *Iterator) ForEach(f func(pos int, key uint64)) {
	iter.Reset()
	var key uint64
	var ok bool
	for {
		key, ok = iter.Next()
		if !ok {
			break
		}
		f(iter.idx, key)
	}
	iter.Reset()
}

// Encode computes the key of a word, the second value is false
// if the word contains ambiguous bases or is too long.
func Encode(s []byte) (uint64, bool) {
	if len(s) > MaxWordLength {
		return 0, false
	}
	var key uint64
	var c int8
	for j, b := range s {
		c = sequence.Code(b)
		if c < 0 {
			return 0, false
		}
		key |= uint64(c) << (uint(j) << 1)
	}
	return key, true
}
