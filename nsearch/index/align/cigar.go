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
	"bytes"
	"strconv"
)

// CIGAR operations.
const (
	OpMatch     byte = 'M' // match or mismatch
	OpInsertion byte = 'I' // a base in the query only
	OpDeletion  byte = 'D' // a base in the target only
	OpSoftClip  byte = 'S' // an unaligned base of the query
)

// CigarEntry is a run of the same operation.
type CigarEntry struct {
	Op byte
	N  int
}

// Cigar is a run-length edit script of an alignment.
type Cigar []CigarEntry

// Add appends n operations, merging with the last run.
func (c *Cigar) Add(op byte, n int) {
	if n <= 0 {
		return
	}
	if k := len(*c); k > 0 && (*c)[k-1].Op == op {
		(*c)[k-1].N += n
		return
	}
	*c = append(*c, CigarEntry{Op: op, N: n})
}

// String returns the CIGAR string, e.g., 3D5M1D2M.
func (c Cigar) String() string {
	if len(c) == 0 {
		return "*"
	}
	var buf bytes.Buffer
	for _, e := range c {
		buf.WriteString(strconv.Itoa(e.N))
		buf.WriteByte(e.Op)
	}
	return buf.String()
}

// QueryLen returns the number of query bases consumed, clips included.
func (c Cigar) QueryLen() int {
	var n int
	for _, e := range c {
		if e.Op != OpDeletion {
			n += e.N
		}
	}
	return n
}

// TargetLen returns the number of target bases consumed.
func (c Cigar) TargetLen() int {
	var n int
	for _, e := range c {
		if e.Op == OpMatch || e.Op == OpDeletion {
			n += e.N
		}
	}
	return n
}
