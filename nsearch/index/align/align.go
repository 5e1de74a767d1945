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

// Package align implements affine-gap global, local, and chain-guided
// banded global alignment of nucleotide sequences.
package align

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/manutamminen/nsearch/nsearch/sequence"
)

// Pointer is for saving where the maximum score of current position comes from.
type Pointer uint8

const (
	None     Pointer = iota // the topleft corner, or the start of a local alignment.
	Top                     // a base in the query only
	Left                    // a base in the target only
	Diagonal                // match or mismatch

	maskSource Pointer = 7

	leftOpen Pointer = 1 << 3 // the horizontal gap opens here
	topOpen  Pointer = 1 << 4 // the vertical gap opens here
)

func (p Pointer) String() string {
	switch p & maskSource {
	case Diagonal:
		return "↘︎"
	case Top:
		return "↓"
	case Left:
		return "→"
	case None:
		return "×"
	}
	return "■"
}

const negInf = math.MinInt32 / 2

// ErrInvalidOptions means the scoring parameters make no sense.
var ErrInvalidOptions = errors.New("align: match score should be > 0, mismatch score <= 0, gap penalties >= 0")

// AlignOptions contains all alignment options.
// A gap of length n costs GapOpen + n*GapExtend.
type AlignOptions struct {
	MatchScore    int // score for a match
	MisMatchScore int // score for a mismatch

	InteriorGapOpen   int
	InteriorGapExtend int
	TerminalGapOpen   int // for gaps at the start or end of either sequence
	TerminalGapExtend int

	Band int // band width of the guided alignment, < 0 for no band

	// save alignment strings
	// AT-GTTAT
	// || | ||
	// ATCG-TAC
	SaveAlignments bool
	// save matrix in the bytes buffer
	SaveMatrix bool
}

// DefaultAlignOptions is the default AlignOptions.
var DefaultAlignOptions = AlignOptions{
	MatchScore:    2,
	MisMatchScore: -3,

	InteriorGapOpen:   5,
	InteriorGapExtend: 2,
	TerminalGapOpen:   5,
	TerminalGapExtend: 2,

	Band: 16,

	SaveAlignments: false,
	SaveMatrix:     false,
}

// CheckAlignOptions checks the scoring parameters.
func CheckAlignOptions(opt *AlignOptions) error {
	if opt.MatchScore <= 0 || opt.MisMatchScore > 0 ||
		opt.InteriorGapOpen < 0 || opt.InteriorGapExtend < 0 ||
		opt.TerminalGapOpen < 0 || opt.TerminalGapExtend < 0 {
		return ErrInvalidOptions
	}
	return nil
}

// AlignResult holds the details of the alignment.
type AlignResult struct {
	Score int
	Cigar Cigar

	// 0-based, end positions are exclusive
	QBegin, QEnd int
	TBegin, TEnd int

	Len        int // length of alignment, clips excluded
	Matches    int
	Mismatches int
	Gaps       int // number of gap columns

	AlignQ []byte // Alignment string for the query
	AlignM []byte // Matching symbols, "|" for match, " " for mismatch and gap
	AlignT []byte // Alignment string for the target

	Matrix []byte // Matrix text, note that it's not thread-safe, only for debugging.
}

// Identity returns the fraction of matched columns.
func (r *AlignResult) Identity() float64 {
	if r.Len == 0 {
		return 0
	}
	return float64(r.Matches) / float64(r.Len)
}

// Reset resets all the values.
func (r *AlignResult) Reset() {
	r.Score = 0
	r.Cigar = r.Cigar[:0]
	r.QBegin, r.QEnd, r.TBegin, r.TEnd = 0, 0, 0, 0
	r.Len = 0
	r.Matches = 0
	r.Mismatches = 0
	r.Gaps = 0

	if r.AlignQ != nil {
		r.AlignQ = r.AlignQ[:0]
	}
	if r.AlignM != nil {
		r.AlignM = r.AlignM[:0]
	}
	if r.AlignT != nil {
		r.AlignT = r.AlignT[:0]
	}
	r.Matrix = nil
}

var poolAlignResult = &sync.Pool{New: func() interface{} {
	r := &AlignResult{Cigar: make(Cigar, 0, 8)}
	return r
}}

// RecycleAlignResult recycles an alignment result.
func RecycleAlignResult(r *AlignResult) {
	poolAlignResult.Put(r)
}

// Aligner aligns a query (rows of the matrices) to a target (columns).
// It reuses the matrices, so it is not safe for concurrent use.
type Aligner struct {
	Options *AlignOptions

	// reusable variables
	h, e, f  []int     // best scores, ending with a target gap, ending with a query gap
	pointers []Pointer // pointer matrix
	starts   []int     // the first stored column of each row
	bw       int       // number of stored columns of each row
	ops      []byte    // operations in reversed order
	rq, rt   []byte    // reversed sequences
	buf      bytes.Buffer
}

// NewAligner returns an aligner.
func NewAligner(options *AlignOptions) *Aligner {
	// matrices are allocated on demand
	return &Aligner{
		Options: options,
		ops:     make([]byte, 0, 256),
	}
}

// Global aligns two sequences end to end, leading and trailing gaps
// are scored with terminal gap penalties.
// Please remember to recycle the result after using
// by calling RecycleAlignResult.
func (alg *Aligner) Global(q, t []byte) *AlignResult {
	r := poolAlignResult.Get().(*AlignResult)
	r.Reset()

	alg.segment(r, q, t, true, true, -1)
	r.QEnd, r.TEnd = len(q), len(t)
	return r
}

// Local finds the best alignment between substrings of the two sequences.
// Unaligned query bases are represented as soft clips in the CIGAR.
func (alg *Aligner) Local(q, t []byte) *AlignResult {
	r := poolAlignResult.Get().(*AlignResult)
	r.Reset()

	score, endI, endJ := alg.fill(q, t, true, false, false, -1, 0)
	r.Score = score
	if alg.Options.SaveMatrix {
		r.Matrix = alg.printMatrix(q, t)
	}

	ops := alg.traceback(endI, endJ)
	beginI, beginJ := endI, endJ
	for _, op := range ops {
		switch op {
		case OpMatch:
			beginI--
			beginJ--
		case OpInsertion:
			beginI--
		case OpDeletion:
			beginJ--
		}
	}
	r.QBegin, r.QEnd, r.TBegin, r.TEnd = beginI, endI, beginJ, endJ

	r.Cigar.Add(OpSoftClip, beginI)
	alg.collect(r, q, t, beginI, beginJ, ops)
	r.Cigar.Add(OpSoftClip, len(q)-endI)
	return r
}

// segment aligns q and t globally and appends the result to r.
//
// With a band, only the len(q)+band target bases next to the inner end
// (the outer end for the leading segment) are aligned, and the other
// target bases are added as one gap continuing the gap at the boundary.
func (alg *Aligner) segment(r *AlignResult, q, t []byte, lead, trail bool, band int) {
	var cut int
	if band >= 0 && !(lead && trail) {
		cut = len(t) - len(q) - band
	}

	if cut <= 0 {
		score, i, j := alg.fill(q, t, false, lead, trail, band, 0)
		r.Score += score
		if alg.Options.SaveMatrix {
			r.Matrix = alg.printMatrix(q, t)
		}
		alg.collect(r, q, t, 0, 0, alg.traceback(i, j))
		return
	}

	if lead {
		alg.deletion(r, t[:cut])
		t = t[cut:]
		score, i, j := alg.fill(q, t, false, true, false, band, cut)
		r.Score += score
		if alg.Options.SaveMatrix {
			r.Matrix = alg.printMatrix(q, t)
		}
		alg.collect(r, q, t, 0, 0, alg.traceback(i, j))
		return
	}

	// the gap is at the right end, so the reversed sequences are aligned
	w := len(t) - cut
	alg.rq = reverseInto(alg.rq[:0], q)
	alg.rt = reverseInto(alg.rt[:0], t[:w])
	score, i, j := alg.fill(alg.rq, alg.rt, false, trail, false, band, cut)
	r.Score += score
	if alg.Options.SaveMatrix {
		r.Matrix = alg.printMatrix(alg.rq, alg.rt)
	}

	// operations of the reversed sequences are in the order of the original ones
	ops := alg.traceback(i, j)
	for a, b := 0, len(ops)-1; a < b; a, b = a+1, b-1 {
		ops[a], ops[b] = ops[b], ops[a]
	}
	alg.collect(r, q, t[:w], 0, 0, ops)
	alg.deletion(r, t[w:])
}

// deletion appends a gap in the query covering t.
func (alg *Aligner) deletion(r *AlignResult, t []byte) {
	if len(t) == 0 {
		return
	}
	r.Cigar.Add(OpDeletion, len(t))
	r.Len += len(t)
	r.Gaps += len(t)
	if alg.Options.SaveAlignments {
		for _, b := range t {
			r.AlignQ = append(r.AlignQ, '-')
			r.AlignM = append(r.AlignM, ' ')
			r.AlignT = append(r.AlignT, b)
		}
	}
}

// cell returns the offset of the cell (i, j) in the matrices,
// or -1 if the cell is not stored.
func (alg *Aligner) cell(i, j int) int {
	s := alg.starts[i]
	if j < s || j >= s+alg.bw {
		return -1
	}
	return i*alg.bw + j - s
}

// fill computes the matrices with the Gotoh algorithm,
// and returns the score and the end cell.
//
// In global mode, gaps in the first row/column are terminal ones if lead is true,
// and those in the last row/column are terminal ones if trail is true.
// carry > 0 means that carry target bases before t are already in a gap
// of the first row's type.
//
// Only cells with lo <= j-i <= hi are computed if band >= 0,
// and each row stores hi-lo+1 columns at most.
func (alg *Aligner) fill(q, t []byte, local, lead, trail bool, band, carry int) (int, int, int) {
	n, m := len(q), len(t)
	h := n + 1 // height of the matrix
	w := m + 1 // width of the matrix

	lo, hi := -n, m
	banded := band >= 0
	if banded {
		lo, hi = min(0, m-n)-band, max(0, m-n)+band
	}
	bw := min(w, hi-lo+1)
	size := h * bw

	alg.h = resizeInts(alg.h, size)
	alg.e = resizeInts(alg.e, size)
	alg.f = resizeInts(alg.f, size)
	alg.starts = resizeInts(alg.starts, h)
	if size <= cap(alg.pointers) {
		alg.pointers = alg.pointers[:size]
	} else {
		alg.pointers = make([]Pointer, size)
	}
	alg.bw = bw
	H, E, F, P, starts := alg.h, alg.e, alg.f, alg.pointers, alg.starts

	o := alg.Options
	match, mismatch := o.MatchScore, o.MisMatchScore
	goI, geI := o.InteriorGapOpen, o.InteriorGapExtend
	goT, geT := o.TerminalGapOpen, o.TerminalGapExtend

	var i, j, k int
	for k = range H {
		H[k], E[k], F[k], P[k] = negInf, negInf, negInf, None
	}
	for i = range starts {
		starts[i] = min(max(i+lo, 0), w-bw)
	}

	// ---------------------------------------------------
	// the first row and column, both start at offset 0

	H[0] = 0
	if local {
		for j = 1; j < w; j++ {
			H[j] = 0
		}
		for i = 1; i < h; i++ {
			H[i*bw] = 0
		}
	} else {
		gapOpen, gapExt := goI, geI
		if lead || (n == 0 && trail) {
			gapOpen, gapExt = goT, geT
		}
		open := gapOpen
		if carry > 0 {
			H[0] = -gapOpen - carry*gapExt
			open = 0
		}
		for j = 1; j < w && j <= hi; j++ {
			if j == 1 {
				E[j] = H[0] - open - gapExt
				P[j] = Left | leftOpen
			} else {
				E[j] = E[j-1] - gapExt
				P[j] = Left
			}
			H[j] = E[j]
		}
		gapOpen, gapExt = goI, geI
		if lead || (m == 0 && trail) {
			gapOpen, gapExt = goT, geT
		}
		for i = 1; i < h && -i >= lo; i++ {
			k = i * bw
			if i == 1 {
				F[k] = H[0] - gapOpen - gapExt
				P[k] = Top | topOpen
			} else {
				F[k] = F[k-bw] - gapExt
				P[k] = Top
			}
			H[k] = F[k]
		}
	}

	// ---------------------------------------------------
	// compute

	var bestScore, bestI, bestJ int
	var rowOpen, rowExt, colOpen, colExt int
	var s, open, ext, diag int
	var p Pointer
	var jb, je, si, sp, row, prev int
	var b byte
	for i = 1; i < h; i++ {
		rowOpen, rowExt = goI, geI
		if i == n && trail && !local {
			rowOpen, rowExt = goT, geT
		}

		jb, je = max(1, i+lo), min(w-1, i+hi)

		// offsets of column 0 in this row and the previous one
		si, sp = starts[i], starts[i-1]
		row, prev = i*bw-si, (i-1)*bw-sp

		b = q[i-1]
		for j = jb; j <= je; j++ {
			k = row + j
			p = None

			// a gap in the query, i.e., a target base only
			if j-1 >= si {
				open = H[k-1] - rowOpen - rowExt
				ext = E[k-1] - rowExt
			} else {
				open, ext = negInf, negInf
			}
			if ext > open {
				E[k] = ext
			} else {
				E[k] = open
				p |= leftOpen
			}

			// a gap in the target
			colOpen, colExt = goI, geI
			if j == m && trail && !local {
				colOpen, colExt = goT, geT
			}
			if j < sp+bw {
				open = H[prev+j] - colOpen - colExt
				ext = F[prev+j] - colExt
			} else {
				open, ext = negInf, negInf
			}
			if ext > open {
				F[k] = ext
			} else {
				F[k] = open
				p |= topOpen
			}

			if j-1 >= sp && j-1 < sp+bw {
				diag = H[prev+j-1]
			} else {
				diag = negInf
			}
			if sequence.Match(b, t[j-1]) {
				s = diag + match
			} else {
				s = diag + mismatch
			}
			p |= Diagonal
			if E[k] > s {
				s = E[k]
				p = p&^maskSource | Left
			}
			if F[k] > s {
				s = F[k]
				p = p&^maskSource | Top
			}

			if local {
				if s <= 0 {
					s = 0
					p &^= maskSource
				} else if s > bestScore {
					bestScore, bestI, bestJ = s, i, j
				}
			}

			H[k] = s
			P[k] = p
		}
	}

	if local {
		return bestScore, bestI, bestJ
	}
	return H[alg.cell(n, m)], n, m
}

// traceback returns the operations in reversed order, from the cell (i, j).
func (alg *Aligner) traceback(i, j int) []byte {
	ops := alg.ops[:0]
	P := alg.pointers

	var p Pointer
	var k int
	state := Diagonal
	for {
		if k = alg.cell(i, j); k < 0 {
			break
		}
		p = P[k]
		switch state {
		case Left:
			ops = append(ops, OpDeletion)
			j--
			if p&leftOpen > 0 {
				state = Diagonal
			}
			continue
		case Top:
			ops = append(ops, OpInsertion)
			i--
			if p&topOpen > 0 {
				state = Diagonal
			}
			continue
		}

		switch p & maskSource {
		case None:
			alg.ops = ops
			return ops
		case Diagonal:
			ops = append(ops, OpMatch)
			i--
			j--
		case Left:
			state = Left
		case Top:
			state = Top
		}
	}
	alg.ops = ops
	return ops
}

// collect appends operations (reversed) starting from q[i] and t[j] to the result.
func (alg *Aligner) collect(r *AlignResult, q, t []byte, i, j int, ops []byte) {
	save := alg.Options.SaveAlignments
	var op byte
	for k := len(ops) - 1; k >= 0; k-- {
		op = ops[k]
		r.Cigar.Add(op, 1)
		r.Len++

		switch op {
		case OpMatch:
			if sequence.Match(q[i], t[j]) {
				r.Matches++
				if save {
					r.AlignM = append(r.AlignM, '|')
				}
			} else {
				r.Mismatches++
				if save {
					r.AlignM = append(r.AlignM, ' ')
				}
			}
			if save {
				r.AlignQ = append(r.AlignQ, q[i])
				r.AlignT = append(r.AlignT, t[j])
			}
			i++
			j++
		case OpInsertion:
			r.Gaps++
			if save {
				r.AlignQ = append(r.AlignQ, q[i])
				r.AlignM = append(r.AlignM, ' ')
				r.AlignT = append(r.AlignT, '-')
			}
			i++
		case OpDeletion:
			r.Gaps++
			if save {
				r.AlignQ = append(r.AlignQ, '-')
				r.AlignM = append(r.AlignM, ' ')
				r.AlignT = append(r.AlignT, t[j])
			}
			j++
		}
	}
}

func (alg *Aligner) printMatrix(q, t []byte) []byte {
	h := len(q) + 1
	w := len(t) + 1
	var i, j, k int
	buf := &alg.buf

	buf.Reset()

	buf.WriteString(fmt.Sprintf("%c  %s%-4s", ' ', " ", " "))
	for j = 0; j < len(t); j++ {
		buf.WriteString(fmt.Sprintf("  %s%4c", " ", t[j]))
	}
	buf.WriteByte('\n')

	for i = 0; i < h; i++ {
		if i == 0 {
			buf.WriteString(fmt.Sprintf("%c", ' '))
		} else {
			buf.WriteString(fmt.Sprintf("%c", q[i-1]))
		}

		for j = 0; j < w; j++ {
			k = alg.cell(i, j)
			if k < 0 {
				buf.WriteString(fmt.Sprintf("  %s%4s", None, "-"))
				continue
			}
			if alg.h[k] == negInf {
				buf.WriteString(fmt.Sprintf("  %s%4s", alg.pointers[k], "-"))
				continue
			}
			buf.WriteString(fmt.Sprintf("  %s%4d", alg.pointers[k], alg.h[k]))
		}
		buf.WriteByte('\n')
	}

	return append([]byte{}, buf.Bytes()...)
}

func reverseInto(dst, s []byte) []byte {
	for i := len(s) - 1; i >= 0; i-- {
		dst = append(dst, s[i])
	}
	return dst
}

func resizeInts(s []int, n int) []int {
	if n <= cap(s) {
		return s[:n]
	}
	return make([]int, n)
}
