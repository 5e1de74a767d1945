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
	"errors"
	"fmt"
	"sort"

	"github.com/manutamminen/nsearch/nsearch/index/align"
	"github.com/manutamminen/nsearch/nsearch/index/chain"
	"github.com/manutamminen/nsearch/nsearch/index/word"
	"github.com/manutamminen/nsearch/nsearch/sequence"
)

// SearchOptions defineds options used in searching.
type SearchOptions struct {
	MaxHits       int  // the maximum number of returned candidates, <= 0 for all.
	BothStrands   bool // also search with the reverse complement sequence of the query.
	MinChainScore int  // minimum score of the optimal chain.
	KeepSeeds     bool // keep a copy of all seeds in Candidate.Seeds.

	// alignment
	Align        bool
	AlignOptions *align.AlignOptions
}

// DefaultSearchOptions contains default option values.
var DefaultSearchOptions = SearchOptions{
	MaxHits:       10,
	BothStrands:   false,
	MinChainScore: 0,

	Align:        true,
	AlignOptions: &align.DefaultAlignOptions,
}

// ErrNoAlignOptions means alignment is required but no options are given.
var ErrNoAlignOptions = errors.New("index: no alignment options given")

// CheckSearchOptions checks the searching options.
func CheckSearchOptions(opt *SearchOptions) error {
	if opt.Align {
		if opt.AlignOptions == nil {
			return ErrNoAlignOptions
		}
		return align.CheckAlignOptions(opt.AlignOptions)
	}
	return nil
}

// Candidate is a target sequence sharing at least one word with the query.
type Candidate struct {
	SeqIdx int                // index of the target in the index
	Target *sequence.Sequence // the target sequence
	Strand byte               // strand of the query, '+' or '-'

	Score int          // score of the optimal chain
	Chain []chain.Seed // the optimal chain
	Seeds []chain.Seed // all seeds, only saved with SearchOptions.KeepSeeds

	Alignment *align.AlignResult // guided global alignment, nil if not computed
}

func (c *Candidate) String() string {
	return fmt.Sprintf("%s (%c), chain score: %d, seeds: %d", c.Target.ID, c.Strand, c.Score, len(c.Chain))
}

// RecycleCandidates recycles the alignment results of candidates.
func RecycleCandidates(cands []*Candidate) {
	for _, c := range cands {
		if c.Alignment != nil {
			align.RecycleAlignResult(c.Alignment)
			c.Alignment = nil
		}
	}
}

// Query searches a query sequence with default options and up to maxHits
// candidates, maxHits <= 0 for all.
func (idx *Index) Query(q *sequence.Sequence, maxHits int) ([]*Candidate, error) {
	opt := DefaultSearchOptions
	opt.MaxHits = maxHits
	return idx.Search(q, &opt)
}

// Search searches a query sequence.
//
//  1. Words of the query are looked up in the index, and hits of each
//     target are collected into a HitTracker.
//  2. The optimal chain of seeds of each candidate is computed.
//  3. Candidates are sorted by chain scores in descending order, ties are
//     kept in the order they were first seen.
//  4. Top candidates are aligned with the guided global alignment,
//     one new aligner for each candidate.
//
// It returns an empty list if no word is shared.
// It is safe to call Search concurrently, but not during inserting sequences.
func (idx *Index) Search(q *sequence.Sequence, opt *SearchOptions) ([]*Candidate, error) {
	cands := make([]*Candidate, 0, 8)
	trackers := make([]*HitTracker, 0, 8)
	defer func() {
		for _, ht := range trackers {
			poolHitTracker.Put(ht)
		}
	}()

	idx.collect(q.Seq, Strands[0], &cands, &trackers)

	var rc []byte
	if opt.BothStrands {
		rc = sequence.RCInPlace(append([]byte{}, q.Seq...))
		idx.collect(rc, Strands[1], &cands, &trackers)
	}

	if len(cands) == 0 {
		return cands, nil
	}

	// -----------------------------------------------------------
	// chaining

	ce := chain.PoolChainer.Get().(*chain.Chainer)
	var err error
	for i, c := range cands {
		c.Chain, c.Score, err = ce.Chain(trackers[i].Seeds())
		if err != nil {
			chain.PoolChainer.Put(ce)
			return nil, err
		}
		if opt.KeepSeeds {
			c.Seeds = append([]chain.Seed{}, trackers[i].Seeds()...)
		}
	}
	chain.PoolChainer.Put(ce)

	if opt.MinChainScore > 0 {
		var j int
		for _, c := range cands {
			if c.Score >= opt.MinChainScore {
				cands[j] = c
				j++
			}
		}
		cands = cands[:j]
	}

	// -----------------------------------------------------------
	// ranking

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })

	if opt.MaxHits > 0 && len(cands) > opt.MaxHits {
		cands = cands[:opt.MaxHits]
	}

	// -----------------------------------------------------------
	// alignment

	if !opt.Align {
		return cands, nil
	}

	var qs []byte
	for _, c := range cands {
		qs = q.Seq
		if c.Strand == Strands[1] {
			qs = rc
		}
		c.Alignment = align.NewAligner(opt.AlignOptions).GuidedGlobal(qs, c.Target.Seq, c.Chain)
	}

	return cands, nil
}

// collect records word hits of a query sequence (one strand),
// a new candidate is appended when a target is first seen.
func (idx *Index) collect(s []byte, strand byte, cands *[]*Candidate, trackers *[]*HitTracker) {
	if len(s) == 0 {
		return
	}
	iter, err := word.NewIterator(s, idx.k)
	if err != nil { // k is checked in creating the index
		return
	}
	k := iter.WordLength()

	postings := func(key uint64) []Occurrence { return idx.postings[key] }
	if k < idx.k {
		postings = func(key uint64) []Occurrence { return idx.short[shortWord{n: uint8(k), key: key}] }
	}

	seen := make(map[uint32]int, 8)
	var i int
	var ok bool
	var ht *HitTracker
	iter.ForEach(func(pos int, key uint64) {
		for _, occ := range postings(key) {
			if i, ok = seen[occ.SeqIdx]; !ok {
				i = len(*cands)
				seen[occ.SeqIdx] = i

				*cands = append(*cands, &Candidate{
					SeqIdx: int(occ.SeqIdx),
					Target: idx.sequences[occ.SeqIdx],
					Strand: strand,
				})

				ht = poolHitTracker.Get().(*HitTracker)
				ht.Reset()
				*trackers = append(*trackers, ht)
			}

			(*trackers)[i].AddHit(pos, int(occ.Pos), k)
		}
	})
}
