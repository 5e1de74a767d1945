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
	"bytes"
	"errors"

	"github.com/shenwei356/bio/seqio/fastx"
)

// ErrQualityLength means the quality string does not match the sequence.
var ErrQualityLength = errors.New("sequence: quality and sequence lengths differ")

// Sequence is a nucleotide sequence with an optional identifier and
// per-base quality. Operations return new values and never modify the receiver.
type Sequence struct {
	ID   []byte
	Seq  []byte
	Qual []byte
}

// New creates a Sequence, the slices are used directly.
func New(id, s, qual []byte) (*Sequence, error) {
	if len(qual) > 0 && len(qual) != len(s) {
		return nil, ErrQualityLength
	}
	return &Sequence{ID: id, Seq: s, Qual: qual}, nil
}

// FromRecord copies a FASTA/Q record into a Sequence.
func FromRecord(record *fastx.Record) (*Sequence, error) {
	s := &Sequence{
		ID:  append([]byte{}, record.ID...),
		Seq: append([]byte{}, record.Seq.Seq...),
	}
	if len(record.Seq.Qual) > 0 {
		s.Qual = append([]byte{}, record.Seq.Qual...)
		if len(s.Qual) != len(s.Seq) {
			return nil, ErrQualityLength
		}
	}
	return s, nil
}

// Len returns the sequence length.
func (s *Sequence) Len() int { return len(s.Seq) }

// Clone returns a deep copy.
func (s *Sequence) Clone() *Sequence {
	c := &Sequence{
		ID:  append([]byte{}, s.ID...),
		Seq: append([]byte{}, s.Seq...),
	}
	if len(s.Qual) > 0 {
		c.Qual = append([]byte{}, s.Qual...)
	}
	return c
}

// Subsequence returns n symbols starting at pos (0-based).
// A negative n means to the end. Out-of-range positions give an empty sequence.
func (s *Sequence) Subsequence(pos, n int) *Sequence {
	return &Sequence{
		ID:   append([]byte{}, s.ID...),
		Seq:  cut(s.Seq, pos, n),
		Qual: cut(s.Qual, pos, n),
	}
}

func cut(s []byte, pos, n int) []byte {
	if pos < 0 || pos >= len(s) {
		return []byte{}
	}
	end := len(s)
	if n >= 0 && pos+n < end {
		end = pos + n
	}
	return append([]byte{}, s[pos:end]...)
}

// PlaceholderQuality fills the quality of bases without one
// when a sequence is joined with a FASTQ one.
const PlaceholderQuality byte = '!'

// Concat joins two sequences, the identifier of s is kept.
// If only one of them has qualities, the other one's bases get PlaceholderQuality.
func (s *Sequence) Concat(other *Sequence) *Sequence {
	c := s.Clone()
	c.Seq = append(c.Seq, other.Seq...)
	if len(s.Qual) > 0 || len(other.Qual) > 0 {
		qual := make([]byte, 0, len(c.Seq))
		qual = appendQual(qual, s.Qual, len(s.Seq))
		c.Qual = appendQual(qual, other.Qual, len(other.Seq))
	}
	return c
}

func appendQual(dst, qual []byte, n int) []byte {
	if len(qual) > 0 {
		return append(dst, qual...)
	}
	for ; n > 0; n-- {
		dst = append(dst, PlaceholderQuality)
	}
	return dst
}

// Reverse reverses the sequence and its quality.
func (s *Sequence) Reverse() *Sequence {
	c := s.Clone()
	reverse(c.Seq)
	reverse(c.Qual)
	return c
}

// Complement complements every base.
func (s *Sequence) Complement() *Sequence {
	c := s.Clone()
	ComplementInPlace(c.Seq)
	return c
}

// ReverseComplement returns the reverse complement sequence,
// quality is reversed.
func (s *Sequence) ReverseComplement() *Sequence {
	c := s.Clone()
	RCInPlace(c.Seq)
	reverse(c.Qual)
	return c
}

// Equal compares two sequences base by base, ambiguous bases match
// any base they stand for.
func (s *Sequence) Equal(other *Sequence) bool {
	if len(s.Seq) != len(other.Seq) {
		return false
	}
	for i, b := range s.Seq {
		if !Match(b, other.Seq[i]) {
			return false
		}
	}
	return true
}

// Format returns the FASTA record, or a FASTQ record if quality exists.
// Sequences in FASTA are wrapped with the given line width, 0 for no wrapping.
func (s *Sequence) Format(width int) []byte {
	var buf bytes.Buffer
	if len(s.Qual) > 0 {
		buf.WriteByte('@')
		buf.Write(s.ID)
		buf.WriteByte('\n')
		buf.Write(s.Seq)
		buf.WriteString("\n+\n")
		buf.Write(s.Qual)
		buf.WriteByte('\n')
		return buf.Bytes()
	}

	buf.WriteByte('>')
	buf.Write(s.ID)
	buf.WriteByte('\n')
	if width <= 0 {
		buf.Write(s.Seq)
		buf.WriteByte('\n')
		return buf.Bytes()
	}
	for i := 0; i < len(s.Seq); i += width {
		j := i + width
		if j > len(s.Seq) {
			j = len(s.Seq)
		}
		buf.Write(s.Seq[i:j])
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// String returns the FASTA/Q text without line wrapping.
func (s *Sequence) String() string {
	return string(s.Format(0))
}

func reverse(s []byte) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
