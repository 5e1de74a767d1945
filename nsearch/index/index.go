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

// Package index implements an inverted index of fixed-length words of
// nucleotide sequences, and searches query sequences against it.
package index

import (
	"bytes"
	"errors"
	"math"
	"runtime"

	"github.com/manutamminen/nsearch/nsearch/index/word"
	"github.com/manutamminen/nsearch/nsearch/sequence"
	"github.com/manutamminen/nsearch/nsearch/workqueue"
	"github.com/rdleal/intervalst/interval"
	"github.com/zeebo/wyhash"
)

// Strands could be used to output strand for a reverse complement flag
var Strands = [2]byte{'+', '-'}

// ErrInvalidWordLength means the word length is out of the range of [1, 32],
// i.e., 2*k bits can not fit in a uint64.
var ErrInvalidWordLength = errors.New("index: invalid word length, valid range: [1, 32]")

// ErrSequenceTooLong means a sequence longer than 4G.
var ErrSequenceTooLong = errors.New("index: sequence too long (>4G)")

// ErrInvalidRegion means a skip region with end < start.
var ErrInvalidRegion = errors.New("index: invalid skip region")

// Occurrence is a position of a word in a sequence.
type Occurrence struct {
	Pos    uint32 // 0-based position
	SeqIdx uint32 // index of the sequence in the index
}

// RefSeq is a sequence to insert, with optional regions not to index.
type RefSeq struct {
	Seq *sequence.Sequence

	// 0-based closed intervals, words overlapping them are skipped.
	SkipRegions [][2]int
}

// IndexOptions contains options for building an index.
type IndexOptions struct {
	WordLength int
	Threads    int // for BatchInsert, <= 0 for all CPUs

	IDHashSeed uint64
}

// DefaultIndexOptions is the default IndexOptions.
var DefaultIndexOptions = IndexOptions{
	WordLength: 12,
	Threads:    runtime.NumCPU(),
	IDHashSeed: 1,
}

// Index is an append-only inverted index: a word key points to the ordered list
// of its occurrences. Occurrences of a later-added sequence are always
// appended after those of earlier ones.
//
// The index should be fully built before searching, it does not support
// insertion during searching.
type Index struct {
	k       int
	threads int
	seed    uint64

	sequences []*sequence.Sequence
	postings  map[uint64][]Occurrence
	short     map[shortWord][]Occurrence // clamped words of sequences shorter than k
	ids       map[uint64][]uint32        // hash of ID -> sequence indexes

	nOccurrences int
	nBases       int

	InputFiles []string // only saved in the info file
}

// shortWord is a word shorter than the word length. Keys of words of
// different lengths may be equal, so the length is part of it.
type shortWord struct {
	n   uint8
	key uint64
}

// NewIndex creates a new Index with a word length.
func NewIndex(k int) (*Index, error) {
	opt := DefaultIndexOptions
	opt.WordLength = k
	return NewIndexWithOptions(&opt)
}

// CheckIndexOptions checks the options.
func CheckIndexOptions(opt *IndexOptions) error {
	if opt.WordLength < 1 || opt.WordLength<<1 > 64 {
		return ErrInvalidWordLength
	}
	return nil
}

// NewIndexWithOptions creates a new Index with given options.
func NewIndexWithOptions(opt *IndexOptions) (*Index, error) {
	if err := CheckIndexOptions(opt); err != nil {
		return nil, err
	}
	threads := opt.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return &Index{
		k:       opt.WordLength,
		threads: threads,
		seed:    opt.IDHashSeed,

		sequences: make([]*sequence.Sequence, 0, 128),
		postings:  make(map[uint64][]Occurrence, 1024),
		short:     make(map[shortWord][]Occurrence),
		ids:       make(map[uint64][]uint32, 128),
	}, nil
}

// WordLength returns the word length.
func (idx *Index) WordLength() int { return idx.k }

// NumSequences returns the number of sequences.
func (idx *Index) NumSequences() int { return len(idx.sequences) }

// NumWords returns the number of distinct words, short ones included.
func (idx *Index) NumWords() int { return len(idx.postings) + len(idx.short) }

// NumOccurrences returns the number of word occurrences.
func (idx *Index) NumOccurrences() int { return idx.nOccurrences }

// NumBases returns the total length of all sequences.
func (idx *Index) NumBases() int { return idx.nBases }

// Sequence returns the i-th sequence.
func (idx *Index) Sequence(i int) *sequence.Sequence { return idx.sequences[i] }

// Occurrences returns the postings list of a word key.
// A key absent from the index has an empty list.
func (idx *Index) Occurrences(key uint64) []Occurrence {
	return idx.postings[key]
}

// Keys calls f for every full-length word key and its postings list, in random order.
func (idx *Index) Keys(f func(key uint64, occs []Occurrence)) {
	for key, occs := range idx.postings {
		f(key, occs)
	}
}

// SequenceByID returns the index of the first sequence with the given ID.
func (idx *Index) SequenceByID(id []byte) (int, bool) {
	for _, i := range idx.ids[wyhash.Hash(id, idx.seed)] {
		if bytes.Equal(idx.sequences[i].ID, id) {
			return int(i), true
		}
	}
	return -1, false
}

// AddSequence adds a sequence, all its valid words are appended to the postings lists.
// A sequence shorter than the word length has one word of its own length,
// which only matches words of queries with the same length.
// An empty sequence has no words.
func (idx *Index) AddSequence(s *sequence.Sequence) error {
	return idx.AddSequenceWithSkips(s, nil)
}

// AddSequenceWithSkips adds a sequence, words overlapping any of the
// 0-based closed regions are not indexed.
func (idx *Index) AddSequenceWithSkips(s *sequence.Sequence, regions [][2]int) error {
	if uint64(len(s.Seq)) > math.MaxUint32 {
		return ErrSequenceTooLong
	}
	words, err := idx.words(s.Seq, regions)
	if err != nil {
		return err
	}
	idx.append(s, words)
	return nil
}

// BatchInsert inserts sequences concurrently. Words are computed by a pool of
// workers, while the postings lists are updated serially in the input order,
// so the result is the same as that of calling AddSequence one by one.
func (idx *Index) BatchInsert(refs []*RefSeq) error {
	for _, ref := range refs {
		if uint64(len(ref.Seq.Seq)) > math.MaxUint32 {
			return ErrSequenceTooLong
		}
	}

	words := make([][]wordPos, len(refs))
	errs := make([]error, len(refs))

	q := workqueue.New(idx.threads, func(i int) {
		words[i], errs[i] = idx.words(refs[i].Seq.Seq, refs[i].SkipRegions)
	})
	for i := range refs {
		q.Enqueue(i)
	}
	q.WaitTillDone()
	q.Close()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	for i, ref := range refs {
		idx.append(ref.Seq, words[i])
	}
	return nil
}

type wordPos struct {
	key uint64
	pos uint32
}

// words computes all valid words of a sequence.
func (idx *Index) words(s []byte, regions [][2]int) ([]wordPos, error) {
	if len(s) == 0 {
		return nil, nil
	}

	var skip func(start, end int) bool
	if len(regions) > 0 {
		st := interval.NewSearchTree[int, int](func(x, y int) int { return x - y })
		for _, r := range regions {
			if r[1] < r[0] {
				return nil, ErrInvalidRegion
			}
			st.Insert(r[0], r[1], 0)
		}
		skip = func(start, end int) bool {
			_, ok := st.AnyIntersection(start, end)
			return ok
		}
	}

	iter, err := word.NewIterator(s, idx.k)
	if err != nil {
		return nil, err
	}

	k := iter.WordLength()
	words := make([]wordPos, 0, len(s)-k+1)
	k1 := k - 1
	iter.ForEach(func(pos int, key uint64) {
		if skip != nil && skip(pos, pos+k1) {
			return
		}
		words = append(words, wordPos{key: key, pos: uint32(pos)})
	})
	return words, nil
}

func (idx *Index) append(s *sequence.Sequence, words []wordPos) {
	i := uint32(len(idx.sequences))
	idx.sequences = append(idx.sequences, s)
	idx.nBases += len(s.Seq)

	h := wyhash.Hash(s.ID, idx.seed)
	idx.ids[h] = append(idx.ids[h], i)

	if len(s.Seq) < idx.k {
		n := uint8(len(s.Seq))
		var sw shortWord
		for _, w := range words {
			sw = shortWord{n: n, key: w.key}
			idx.short[sw] = append(idx.short[sw], Occurrence{Pos: w.pos, SeqIdx: i})
		}
	} else {
		for _, w := range words {
			idx.postings[w.key] = append(idx.postings[w.key], Occurrence{Pos: w.pos, SeqIdx: i})
		}
	}
	idx.nOccurrences += len(words)
}
