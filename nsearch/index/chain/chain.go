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

// Package chain finds the optimal chain of seeds between two sequences.
package chain

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/btree"
	"github.com/twotwotwo/sorts/sortutil"
)

// ErrEmptyInput means no seeds are given.
var ErrEmptyInput = errors.New("chain: empty input")

// Seed is a diagonal match between a query and a target.
type Seed struct {
	QBegin int // 0-based start position in the query
	TBegin int // 0-based start position in the target
	Len    int
}

func (s Seed) String() string {
	return fmt.Sprintf("%d-%d vs %d-%d, len:%d",
		s.QBegin+1, s.QBegin+s.Len, s.TBegin+1, s.TBegin+s.Len, s.Len)
}

// QEnd returns the 0-based end position (exclusive) in the query.
func (s Seed) QEnd() int { return s.QBegin + s.Len }

// TEnd returns the 0-based end position (exclusive) in the target.
func (s Seed) TEnd() int { return s.TBegin + s.Len }

// rect is a seed in the plane of query (x) and target (y) positions.
type rect struct {
	x1, x2 int
	y1, y2 int
	score  int // score of the best chain ending with it
	prev   int // index of the predecessor in the arena, -1 for none
}

// entry is a chain ending at y on the frontier.
type entry struct {
	y     int
	score int
	idx   int // index of the last rect in the arena
}

func lessEntry(a, b entry) bool { return a.y < b.y }

type event struct {
	x    int
	kind uint64
	idx  int
}

const (
	rightEnd uint64 = iota // must be sorted before left ends at the same x
	leftEnd
)

// the largest x which can be packed in an event key
const maxPackedX = 1<<31 - 1

// Chainer computes the maximum-score chain of non-overlapping seeds with
// a sweep along the query, keeping a Pareto frontier of chains indexed by
// their target end positions (Gusfield, 1997). The time complexity is O(n log n).
//
// A Chainer reuses its internal objects, it is not safe for concurrent use.
type Chainer struct {
	rects     []rect // arena, all back-pointers are indexes of it
	keys      []uint64
	events    []event
	frontier  *btree.BTreeG[entry]
	dominated []entry
}

// NewChainer creates a new chainer.
func NewChainer() *Chainer {
	return &Chainer{
		rects:     make([]rect, 0, 1024),
		keys:      make([]uint64, 0, 2048),
		events:    make([]event, 0, 2048),
		frontier:  btree.NewG[entry](32, lessEntry),
		dominated: make([]entry, 0, 64),
	}
}

// PoolChainer is a pool of Chainers.
var PoolChainer = &sync.Pool{New: func() interface{} {
	return NewChainer()
}}

// OptimalChain computes the optimal chain with a Chainer from the pool.
func OptimalChain(seeds []Seed) ([]Seed, int, error) {
	ce := PoolChainer.Get().(*Chainer)
	chain, score, err := ce.Chain(seeds)
	PoolChainer.Put(ce)
	return chain, score, err
}

// Chain returns the seeds of the optimal chain in ascending order, and the
// chain score, i.e., the sum of seed lengths. For two successive seeds a and b
// in the chain, a.QEnd() <= b.QBegin and a.TEnd() <= b.TBegin.
//
// Ties are resolved by input order: among equally scored chains, the one
// inserted into the frontier first wins.
func (ce *Chainer) Chain(seeds []Seed) ([]Seed, int, error) {
	n := len(seeds)
	if n == 0 {
		return nil, 0, ErrEmptyInput
	}

	rects := ce.rects[:0]
	packable := uint64(n) < 1<<32
	var x2 int
	for _, s := range seeds {
		x2 = s.QBegin + s.Len
		if s.QBegin < 0 || x2 > maxPackedX {
			packable = false
		}
		rects = append(rects, rect{
			x1: s.QBegin, x2: x2,
			y1: s.TBegin, y2: s.TBegin + s.Len,
			score: s.Len,
			prev:  -1,
		})
	}
	ce.rects = rects

	if packable {
		ce.sortEventsPacked()
	} else {
		ce.sortEvents()
	}

	fr := ce.frontier
	fr.Clear(false)

	var best entry
	var found bool
	floor := func(item entry) bool {
		best = item
		found = true
		return false
	}

	var r *rect
	var score int
	dominated := ce.dominated[:0]
	collect := func(item entry) bool {
		if item.score >= score { // scores on the frontier are ascending
			return false
		}
		dominated = append(dominated, item)
		return true
	}

	for _, e := range ce.events {
		r = &rects[e.idx]

		if e.kind == leftEnd {
			// the best chain ending at or before the start of r in the target
			found = false
			fr.DescendLessOrEqual(entry{y: r.y1}, floor)
			if found {
				r.score += best.score
				r.prev = best.idx
			}
			continue
		}

		// right end, the score of r is final now

		found = false
		fr.DescendLessOrEqual(entry{y: r.y2}, floor)
		if found && best.score >= r.score { // dominated by an existing one
			continue
		}

		score = r.score
		dominated = dominated[:0]
		fr.AscendGreaterOrEqual(entry{y: r.y2}, collect)
		for _, d := range dominated {
			fr.Delete(d)
		}

		fr.ReplaceOrInsert(entry{y: r.y2, score: r.score, idx: e.idx})
	}
	ce.dominated = dominated

	last, _ := fr.Max()

	var k int
	for i := last.idx; i >= 0; i = rects[i].prev {
		k++
	}
	chain := make([]Seed, k)
	for i := last.idx; i >= 0; i = rects[i].prev {
		k--
		r = &rects[i]
		chain[k] = Seed{QBegin: r.x1, TBegin: r.y1, Len: r.x2 - r.x1}
	}

	return chain, last.score, nil
}

// sortEventsPacked packs each event into a uint64:
// x (31 bits) << 33 | kind (1 bit) << 32 | index (32 bits),
// so a plain integer sort keeps right ends first at the same x,
// and the input order for the same kind.
func (ce *Chainer) sortEventsPacked() {
	keys := ce.keys[:0]
	for i, r := range ce.rects {
		keys = append(keys, uint64(r.x2)<<33|rightEnd<<32|uint64(i))
		keys = append(keys, uint64(r.x1)<<33|leftEnd<<32|uint64(i))
	}
	sortutil.Uint64s(keys)
	ce.keys = keys

	events := ce.events[:0]
	for _, key := range keys {
		events = append(events, event{
			x:    int(key >> 33),
			kind: (key >> 32) & 1,
			idx:  int(key & 0xffffffff),
		})
	}
	ce.events = events
}

func (ce *Chainer) sortEvents() {
	events := ce.events[:0]
	for i, r := range ce.rects {
		events = append(events, event{x: r.x2, kind: rightEnd, idx: i})
	}
	for i, r := range ce.rects {
		events = append(events, event{x: r.x1, kind: leftEnd, idx: i})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].x == events[j].x {
			return events[i].kind < events[j].kind
		}
		return events[i].x < events[j].x
	})
	ce.events = events
}
