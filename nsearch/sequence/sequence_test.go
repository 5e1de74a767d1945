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

package sequence

import (
	"testing"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		a, b byte
		ok   bool
	}{
		{'A', 'A', true},
		{'C', 'T', false},
		{'G', 'R', true},
		{'A', 'Y', false},
		{'M', 'Y', true},
		{'N', 'G', true},
		{'u', 'T', true},
		{'a', 'A', true},
		{'-', 'A', false},
		{'X', 'X', false},
	}
	for _, test := range tests {
		if Match(test.a, test.b) != test.ok {
			t.Errorf("Match(%c, %c): expected %v", test.a, test.b, test.ok)
		}
		if Match(test.b, test.a) != test.ok {
			t.Errorf("Match(%c, %c): expected %v", test.b, test.a, test.ok)
		}
	}
}

func TestComplementBase(t *testing.T) {
	pairs := map[byte]byte{
		'A': 'T', 'U': 'A', 'R': 'Y', 'N': 'N', 'K': 'M', 'D': 'H', 'V': 'B',
		'W': 'W', 'S': 'S', 'g': 'c', '-': '-',
	}
	for b, c := range pairs {
		if ComplementBase(b) != c {
			t.Errorf("complement of %c: expected %c, returned %c", b, c, ComplementBase(b))
		}
	}
}

func TestCode(t *testing.T) {
	for b, c := range map[byte]int8{'A': 0, 'c': 1, 'T': 2, 'U': 2, 'G': 3, 'N': -1, 'R': -1} {
		if Code(b) != c {
			t.Errorf("code of %c: expected %d, returned %d", b, c, Code(b))
		}
	}
}

func TestSequenceOperations(t *testing.T) {
	s, err := New([]byte("s1"), []byte("ACGTN"), []byte("ABCDE"))
	if err != nil {
		t.Error(err)
		return
	}

	if _, err = New(nil, []byte("ACGT"), []byte("AB")); err != ErrQualityLength {
		t.Errorf("expected error: %s", ErrQualityLength)
	}

	r := s.Reverse()
	if string(r.Seq) != "NTGCA" || string(r.Qual) != "EDCBA" {
		t.Errorf("unexpected reverse: %s %s", r.Seq, r.Qual)
	}
	c := s.Complement()
	if string(c.Seq) != "TGCAN" || string(c.Qual) != "ABCDE" {
		t.Errorf("unexpected complement: %s %s", c.Seq, c.Qual)
	}
	rc := s.ReverseComplement()
	if string(rc.Seq) != "NACGT" || string(rc.Qual) != "EDCBA" {
		t.Errorf("unexpected reverse complement: %s %s", rc.Seq, rc.Qual)
	}
	if string(s.Seq) != "ACGTN" {
		t.Errorf("receiver modified: %s", s.Seq)
	}

	sub := s.Subsequence(1, 3)
	if string(sub.Seq) != "CGT" || string(sub.Qual) != "BCD" || string(sub.ID) != "s1" {
		t.Errorf("unexpected subsequence: %s %s %s", sub.ID, sub.Seq, sub.Qual)
	}
	if sub = s.Subsequence(3, -1); string(sub.Seq) != "TN" {
		t.Errorf("unexpected subsequence to the end: %s", sub.Seq)
	}
	if sub = s.Subsequence(10, 2); sub.Len() != 0 {
		t.Errorf("expected empty subsequence: %s", sub.Seq)
	}

	joined := s.Concat(&Sequence{Seq: []byte("GG"), Qual: []byte("FF")})
	if string(joined.Seq) != "ACGTNGG" || string(joined.Qual) != "ABCDEFF" || string(joined.ID) != "s1" {
		t.Errorf("unexpected concatenation: %s %s %s", joined.ID, joined.Seq, joined.Qual)
	}

	// only one side has qualities
	joined = s.Concat(&Sequence{Seq: []byte("GG")})
	if string(joined.Seq) != "ACGTNGG" || string(joined.Qual) != "ABCDE!!" {
		t.Errorf("unexpected concatenation: %s %s", joined.Seq, joined.Qual)
	}
	joined = (&Sequence{Seq: []byte("GG")}).Concat(s)
	if string(joined.Seq) != "GGACGTN" || string(joined.Qual) != "!!ABCDE" {
		t.Errorf("unexpected concatenation: %s %s", joined.Seq, joined.Qual)
	}
	if _, err := New(joined.ID, joined.Seq, joined.Qual); err != nil {
		t.Errorf("concatenation breaks quality length: %s", err)
	}
	joined = (&Sequence{Seq: []byte("GG")}).Concat(&Sequence{Seq: []byte("A")})
	if string(joined.Seq) != "GGA" || joined.Qual != nil {
		t.Errorf("unexpected concatenation without qualities: %s %q", joined.Seq, joined.Qual)
	}
}

func TestEqual(t *testing.T) {
	a := &Sequence{Seq: []byte("ATCGGA")}
	for _, test := range []struct {
		s  string
		ok bool
	}{
		{"ATCGGA", true},
		{"ATCGGR", true},
		{"NNNNNN", true},
		{"ATCGGT", false},
		{"ATCGG", false},
	} {
		if a.Equal(&Sequence{Seq: []byte(test.s)}) != test.ok {
			t.Errorf("%s vs %s: expected %v", a.Seq, test.s, test.ok)
		}
	}
}

func TestFormat(t *testing.T) {
	s := &Sequence{ID: []byte("s1"), Seq: []byte("ACGTACG")}
	if got := string(s.Format(3)); got != ">s1\nACG\nTAC\nG\n" {
		t.Errorf("unexpected FASTA: %q", got)
	}
	s.Qual = []byte("IIIIIII")
	if got := s.String(); got != "@s1\nACGTACG\n+\nIIIIIII\n" {
		t.Errorf("unexpected FASTQ: %q", got)
	}
}
