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

package align

import (
	"github.com/manutamminen/nsearch/nsearch/index/chain"
	"github.com/manutamminen/nsearch/nsearch/sequence"
)

// GuidedGlobal aligns two sequences end to end along a chain of seeds.
// Seeds are kept as runs of matches, and only the regions between seeds
// (plus the leading and trailing ones) are aligned with banded dynamic
// programming, with the band of Options.Band around the diagonal of each region.
// Seeds conflicting with previous ones or out of range are ignored.
// It falls back to Global for an empty chain.
func (alg *Aligner) GuidedGlobal(q, t []byte, seeds []chain.Seed) *AlignResult {
	if len(seeds) == 0 {
		return alg.Global(q, t)
	}

	r := poolAlignResult.Get().(*AlignResult)
	r.Reset()

	band := alg.Options.Band
	var qb, tb int
	lead := true
	for _, s := range seeds {
		if s.Len <= 0 || s.QBegin < qb || s.TBegin < tb || s.QEnd() > len(q) || s.TEnd() > len(t) {
			continue
		}

		alg.segment(r, q[qb:s.QBegin], t[tb:s.TBegin], lead, false, band)
		lead = false

		alg.anchor(r, q[s.QBegin:s.QEnd()], t[s.TBegin:s.TEnd()])
		qb, tb = s.QEnd(), s.TEnd()
	}
	alg.segment(r, q[qb:], t[tb:], lead, true, band)

	r.QEnd, r.TEnd = len(q), len(t)
	return r
}

// anchor appends an ungapped region to the result.
func (alg *Aligner) anchor(r *AlignResult, q, t []byte) {
	ops := alg.ops[:0]
	for i := range q {
		if sequence.Match(q[i], t[i]) {
			r.Score += alg.Options.MatchScore
		} else {
			r.Score += alg.Options.MisMatchScore
		}
		ops = append(ops, OpMatch)
	}
	alg.ops = ops
	alg.collect(r, q, t, 0, 0, ops)
}
