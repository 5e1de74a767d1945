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

package index

import (
	"sync"

	"github.com/manutamminen/nsearch/nsearch/index/chain"
)

// HitTracker collects word hits between a query and one target sequence,
// and merges hits on the same diagonal into longer seeds.
type HitTracker struct {
	seeds     []chain.Seed
	diagonals map[int]int // diagonal -> index of the last seed on it
}

// NewHitTracker returns a new HitTracker.
func NewHitTracker() *HitTracker {
	return &HitTracker{
		seeds:     make([]chain.Seed, 0, 64),
		diagonals: make(map[int]int, 64),
	}
}

var poolHitTracker = &sync.Pool{New: func() interface{} {
	return NewHitTracker()
}}

// Reset clears all hits.
func (ht *HitTracker) Reset() {
	ht.seeds = ht.seeds[:0]
	clear(ht.diagonals)
}

// AddHit records a match of length n at qpos in the query and tpos in the target.
// Hits on one diagonal should be added in ascending order of qpos.
// A hit overlapping or adjacent to the last seed on its diagonal extends that seed.
func (ht *HitTracker) AddHit(qpos, tpos, n int) {
	d := tpos - qpos
	if i, ok := ht.diagonals[d]; ok {
		s := &ht.seeds[i]
		if qpos >= s.QBegin && qpos <= s.QEnd() {
			if end := qpos + n; end > s.QEnd() {
				s.Len = end - s.QBegin
			}
			return
		}
	}

	ht.diagonals[d] = len(ht.seeds)
	ht.seeds = append(ht.seeds, chain.Seed{QBegin: qpos, TBegin: tpos, Len: n})
}

// Seeds returns the seeds in the order of creation.
// The returned slice is reused after Reset.
func (ht *HitTracker) Seeds() []chain.Seed {
	return ht.seeds
}
