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
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/manutamminen/nsearch/nsearch/index/chain"
	"github.com/manutamminen/nsearch/nsearch/sequence"
)

func newSeq(id, s string) *sequence.Sequence {
	return &sequence.Sequence{ID: []byte(id), Seq: []byte(s)}
}

func randomSeq(r *rand.Rand, n int) []byte {
	bases := []byte("ACGT")
	s := make([]byte, n)
	for i := range s {
		s[i] = bases[r.Intn(4)]
	}
	return s
}

func TestNewIndex(t *testing.T) {
	if _, err := NewIndex(33); err != ErrInvalidWordLength {
		t.Errorf("expected error: %s", ErrInvalidWordLength)
	}
	if _, err := NewIndex(0); err != ErrInvalidWordLength {
		t.Errorf("expected error: %s", ErrInvalidWordLength)
	}
	if _, err := NewIndex(32); err != nil {
		t.Error(err)
	}
}

func TestQueryTies(t *testing.T) {
	idx, err := NewIndex(4)
	if err != nil {
		t.Error(err)
		return
	}
	for _, s := range []*sequence.Sequence{newSeq("s1", "ACGTACGT"), newSeq("s2", "TTTTACGT")} {
		if err = idx.AddSequence(s); err != nil {
			t.Error(err)
			return
		}
	}

	cands, err := idx.Query(newSeq("q", "ACGT"), 10)
	if err != nil {
		t.Error(err)
		return
	}
	for _, c := range cands {
		t.Logf("%s, alignment: %d %s", c, c.Alignment.Score, c.Alignment.Cigar)
	}
	if len(cands) != 2 {
		t.Errorf("expected 2 candidates, returned %d", len(cands))
		return
	}
	if string(cands[0].Target.ID) != "s1" || string(cands[1].Target.ID) != "s2" {
		t.Errorf("the first indexed sequence should be ranked first")
	}
	if cands[0].Score != 4 || cands[1].Score != 4 {
		t.Errorf("unexpected chain scores: %d, %d", cands[0].Score, cands[1].Score)
	}

	cands, _ = idx.Query(newSeq("q", "ACGT"), 1)
	if len(cands) != 1 || string(cands[0].Target.ID) != "s1" {
		t.Errorf("expected only s1 with maxHits 1")
	}

	// no shared words
	cands, err = idx.Query(newSeq("q", "GGGGGG"), 10)
	if err != nil || len(cands) != 0 {
		t.Errorf("expected an empty result")
	}

	// shorter than the word length, no short targets
	cands, err = idx.Query(newSeq("q", "ACG"), 10)
	if err != nil || len(cands) != 0 {
		t.Errorf("expected an empty result for a short query")
	}
}

func TestShortSequences(t *testing.T) {
	idx, _ := NewIndex(4)
	for _, s := range []*sequence.Sequence{
		newSeq("s1", "ACG"),
		newSeq("s2", "ACGTACGT"),
		newSeq("s3", "ACG"),
		newSeq("s4", "AC"),
		newSeq("s5", "ANG"),
		newSeq("s6", ""),
	} {
		if err := idx.AddSequence(s); err != nil {
			t.Error(err)
			return
		}
	}
	// ACGT, CGTA, GTAC, TACG, and two short ones
	if idx.NumWords() != 6 || idx.NumOccurrences() != 5+3 {
		t.Errorf("unexpected numbers of words: %d, %d", idx.NumWords(), idx.NumOccurrences())
	}

	cands, err := idx.Query(newSeq("q", "ACG"), 10)
	if err != nil {
		t.Error(err)
		return
	}
	if len(cands) != 2 || string(cands[0].Target.ID) != "s1" || string(cands[1].Target.ID) != "s3" {
		t.Errorf("expected s1 and s3, returned %d candidates", len(cands))
		return
	}
	c := cands[0]
	if c.Score != 3 || len(c.Chain) != 1 || c.Chain[0] != (chain.Seed{QBegin: 0, TBegin: 0, Len: 3}) {
		t.Errorf("unexpected chain: %d %v", c.Score, c.Chain)
	}
	if c.Alignment == nil || c.Alignment.Cigar.String() != "3M" {
		t.Errorf("unexpected alignment")
	}
	RecycleCandidates(cands)

	// only words of the same length match
	cands, _ = idx.Query(newSeq("q", "AC"), 10)
	if len(cands) != 1 || string(cands[0].Target.ID) != "s4" {
		t.Errorf("expected only s4")
	}

	for _, q := range []string{"ANG", "CGT", ""} {
		cands, err = idx.Query(newSeq("q", q), 10)
		if err != nil || len(cands) != 0 {
			t.Errorf("expected an empty result for %q", q)
		}
	}
}

func TestQueryIdentical(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	idx, _ := NewIndex(12)
	for i := 0; i < 20; i++ {
		idx.AddSequence(&sequence.Sequence{ID: []byte{'s', byte('a' + i)}, Seq: randomSeq(r, 200)})
	}

	q := idx.Sequence(7)
	cands, err := idx.Query(q, 5)
	if err != nil {
		t.Error(err)
		return
	}
	if len(cands) == 0 || cands[0].SeqIdx != 7 {
		t.Errorf("the identical sequence should be ranked first")
		return
	}
	c := cands[0]
	if c.Score != 200 || len(c.Chain) != 1 || c.Chain[0] != (chain.Seed{QBegin: 0, TBegin: 0, Len: 200}) {
		t.Errorf("unexpected chain: %d, %v", c.Score, c.Chain)
	}
	if c.Alignment.Score != 400 || c.Alignment.Cigar.String() != "200M" {
		t.Errorf("unexpected alignment: %d, %s", c.Alignment.Score, c.Alignment.Cigar)
	}
	RecycleCandidates(cands)
}

func TestSearchBothStrands(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	idx, _ := NewIndex(12)
	s := randomSeq(r, 300)
	idx.AddSequence(&sequence.Sequence{ID: []byte("s"), Seq: s})

	q := newSeq("q", string(s[50:150])).ReverseComplement()

	opt := DefaultSearchOptions
	opt.BothStrands = true
	opt.Align = false
	cands, err := idx.Search(q, &opt)
	if err != nil {
		t.Error(err)
		return
	}
	if len(cands) == 0 || cands[0].Strand != '-' || cands[0].Score != 100 {
		t.Errorf("expected a hit on the negative strand")
		return
	}
	if cands[0].Chain[0].TBegin != 50 {
		t.Errorf("unexpected target position: %d", cands[0].Chain[0].TBegin)
	}
	if cands[0].Alignment != nil {
		t.Errorf("alignment should not be computed")
	}

	opt.MinChainScore = 101
	cands, _ = idx.Search(q, &opt)
	if len(cands) != 0 {
		t.Errorf("candidates with low chain scores should be filtered")
	}
}

func TestHitTracker(t *testing.T) {
	ht := NewHitTracker()
	ht.AddHit(0, 10, 4)
	ht.AddHit(1, 11, 4)
	ht.AddHit(2, 5, 4)
	ht.AddHit(3, 13, 4)
	ht.AddHit(10, 20, 4)

	expected := []chain.Seed{{QBegin: 0, TBegin: 10, Len: 7}, {QBegin: 2, TBegin: 5, Len: 4}, {QBegin: 10, TBegin: 20, Len: 4}}
	seeds := ht.Seeds()
	if len(seeds) != len(expected) {
		t.Errorf("expected %d seeds, returned %d", len(expected), len(seeds))
		return
	}
	for i, s := range seeds {
		if s != expected[i] {
			t.Errorf("seed %d: expected %s, returned %s", i, expected[i], s)
		}
	}

	ht.Reset()
	if len(ht.Seeds()) != 0 {
		t.Errorf("seeds should be cleared")
	}
}

func TestSkipRegions(t *testing.T) {
	s := newSeq("s", "ACGTACGTNCCGGAANTTTACG")

	idx, _ := NewIndex(4)
	idx.AddSequence(s)
	if idx.NumOccurrences() != 11 {
		t.Errorf("expected 11 words, returned %d", idx.NumOccurrences())
	}

	idx, _ = NewIndex(4)
	if err := idx.AddSequenceWithSkips(s, [][2]int{{8, 15}}); err != nil {
		t.Error(err)
		return
	}
	if idx.NumOccurrences() != 8 {
		t.Errorf("expected 8 words, returned %d", idx.NumOccurrences())
	}

	if err := idx.AddSequenceWithSkips(s, [][2]int{{8, 2}}); err != ErrInvalidRegion {
		t.Errorf("expected error: %s", ErrInvalidRegion)
	}
}

func TestBatchInsert(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	refs := make([]*RefSeq, 50)
	for i := range refs {
		refs[i] = &RefSeq{Seq: &sequence.Sequence{ID: []byte{'s', byte('A' + i)}, Seq: randomSeq(r, 50+r.Intn(100))}}
	}

	idx1, _ := NewIndex(5)
	for _, ref := range refs {
		idx1.AddSequence(ref.Seq)
	}

	idx2, _ := NewIndexWithOptions(&IndexOptions{WordLength: 5, Threads: 4, IDHashSeed: 1})
	if err := idx2.BatchInsert(refs); err != nil {
		t.Error(err)
		return
	}

	comparePostings(t, idx1, idx2)

	i, ok := idx2.SequenceByID([]byte{'s', 'A' + 7})
	if !ok || i != 7 {
		t.Errorf("failed to find a sequence by ID: %d", i)
	}
	if _, ok = idx2.SequenceByID([]byte("missing")); ok {
		t.Errorf("unexpected ID found")
	}
}

func comparePostings(t *testing.T, idx1, idx2 *Index) {
	if idx1.NumWords() != idx2.NumWords() || idx1.NumOccurrences() != idx2.NumOccurrences() {
		t.Errorf("unequal numbers of words: %d, %d", idx1.NumWords(), idx2.NumWords())
		return
	}
	idx1.Keys(func(key uint64, occs []Occurrence) {
		occs2 := idx2.Occurrences(key)
		if len(occs) != len(occs2) {
			t.Errorf("unequal postings of %d", key)
			return
		}
		for i, o := range occs {
			if o != occs2[i] {
				t.Errorf("unequal postings of %d: %v, %v", key, o, occs2[i])
				return
			}
		}
	})
	for sw, occs := range idx1.short {
		occs2 := idx2.short[sw]
		if len(occs) != len(occs2) {
			t.Errorf("unequal postings of the short word %v", sw)
			continue
		}
		for i, o := range occs {
			if o != occs2[i] {
				t.Errorf("unequal postings of the short word %v: %v, %v", sw, o, occs2[i])
				break
			}
		}
	}
}

func TestSerialization(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	idx, _ := NewIndex(8)
	for i := 0; i < 30; i++ {
		idx.AddSequence(&sequence.Sequence{ID: []byte{'s', byte('A' + i)}, Seq: randomSeq(r, 100+r.Intn(200))})
	}
	for i := 0; i < 5; i++ {
		idx.AddSequence(&sequence.Sequence{ID: []byte{'t', byte('A' + i)}, Seq: randomSeq(r, 1+r.Intn(7))})
	}
	idx.InputFiles = []string{"test.fa"}

	dir := filepath.Join(t.TempDir(), "idx")
	if err := idx.WriteToPath(dir, false); err != nil {
		t.Error(err)
		return
	}
	if err := idx.WriteToPath(dir, false); err != ErrDirNotEmpty {
		t.Errorf("expected error: %s", ErrDirNotEmpty)
	}
	if err := idx.WriteToPath(dir, true); err != nil {
		t.Error(err)
		return
	}

	idx2, err := NewFromPath(dir, 2)
	if err != nil {
		t.Error(err)
		return
	}
	if idx2.WordLength() != 8 || idx2.NumSequences() != 35 || idx2.NumBases() != idx.NumBases() {
		t.Errorf("unexpected index: k=%d, sequences: %d", idx2.WordLength(), idx2.NumSequences())
	}
	for i := 0; i < idx.NumSequences(); i++ {
		a, b := idx.Sequence(i), idx2.Sequence(i)
		if string(a.ID) != string(b.ID) || string(a.Seq) != string(b.Seq) {
			t.Errorf("unequal sequence #%d", i)
		}
	}
	comparePostings(t, idx, idx2)

	info, err := ReadInfo(dir)
	if err != nil {
		t.Error(err)
		return
	}
	if info.Words != idx.NumWords() || len(info.InputFiles) != 1 {
		t.Errorf("unexpected info: %+v", info)
	}
}
