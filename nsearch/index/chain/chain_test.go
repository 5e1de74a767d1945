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

package chain

import (
	"math/rand"
	"testing"
)

func TestChainExample(t *testing.T) {
	seeds := []Seed{
		{QBegin: 0, TBegin: 0, Len: 4},
		{QBegin: 5, TBegin: 5, Len: 3},
		{QBegin: 10, TBegin: 2, Len: 2},
	}

	chain, score, err := OptimalChain(seeds)
	if err != nil {
		t.Error(err)
		return
	}
	for _, s := range chain {
		t.Logf("%s", s)
	}
	if score != 7 {
		t.Errorf("expected score 7, returned %d", score)
	}
	if len(chain) != 2 || chain[0] != seeds[0] || chain[1] != seeds[1] {
		t.Errorf("unexpected chain: %v", chain)
	}
}

func TestChainEmpty(t *testing.T) {
	_, _, err := NewChainer().Chain(nil)
	if err != ErrEmptyInput {
		t.Errorf("expected error: %s", ErrEmptyInput)
	}
}

func TestChainAdjacent(t *testing.T) {
	// a seed ending exactly where another begins
	seeds := []Seed{
		{QBegin: 4, TBegin: 4, Len: 4},
		{QBegin: 0, TBegin: 0, Len: 4},
	}
	chain, score, _ := OptimalChain(seeds)
	if score != 8 || len(chain) != 2 || chain[0] != seeds[1] {
		t.Errorf("unexpected chain: %v, score: %d", chain, score)
	}
}

func TestChainTies(t *testing.T) {
	seeds := []Seed{
		{QBegin: 0, TBegin: 0, Len: 2},
		{QBegin: 0, TBegin: 10, Len: 2},
	}
	chain, score, _ := OptimalChain(seeds)
	if score != 2 || len(chain) != 1 || chain[0] != seeds[0] {
		t.Errorf("the first seed should win: %v", chain)
	}

	seeds = []Seed{
		{QBegin: 0, TBegin: 10, Len: 2},
		{QBegin: 0, TBegin: 0, Len: 2},
	}
	chain, _, _ = OptimalChain(seeds)
	if len(chain) != 1 || chain[0] != seeds[0] {
		t.Errorf("the first seed should win: %v", chain)
	}

	// identical seeds
	seeds = []Seed{{1, 1, 3}, {1, 1, 3}, {1, 1, 3}}
	chain, score, _ = OptimalChain(seeds)
	if score != 3 || len(chain) != 1 {
		t.Errorf("unexpected chain of identical seeds: %v, score: %d", chain, score)
	}
}

// bruteForce is an O(n^2) DP on seeds sorted by query starts.
func bruteForce(seeds []Seed) int {
	best := make([]int, len(seeds))
	var max int
	for i, a := range seeds {
		best[i] = a.Len
	}
	// relax until stable, seeds are not sorted
	for changed := true; changed; {
		changed = false
		for i, a := range seeds {
			for j, b := range seeds {
				if b.QEnd() <= a.QBegin && b.TEnd() <= a.TBegin && best[j]+a.Len > best[i] {
					best[i] = best[j] + a.Len
					changed = true
				}
			}
		}
	}
	for _, s := range best {
		if s > max {
			max = s
		}
	}
	return max
}

func TestChainRandom(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	ce := NewChainer()
	for round := 0; round < 500; round++ {
		n := 1 + r.Intn(40)
		seeds := make([]Seed, n)
		var maxLen int
		for i := range seeds {
			seeds[i] = Seed{QBegin: r.Intn(100), TBegin: r.Intn(100), Len: 1 + r.Intn(12)}
			if seeds[i].Len > maxLen {
				maxLen = seeds[i].Len
			}
		}

		chain, score, err := ce.Chain(seeds)
		if err != nil {
			t.Error(err)
			return
		}

		expected := bruteForce(seeds)
		if score != expected {
			t.Errorf("round %d: expected score %d, returned %d", round, expected, score)
		}
		if score < maxLen {
			t.Errorf("round %d: score %d less than the longest seed %d", round, score, maxLen)
		}

		var sum int
		for i, s := range chain {
			sum += s.Len
			if i > 0 && (chain[i-1].QEnd() > s.QBegin || chain[i-1].TEnd() > s.TBegin) {
				t.Errorf("round %d: overlapped seeds: %s, %s", round, chain[i-1], s)
			}
			var ok bool
			for _, s2 := range seeds {
				if s2 == s {
					ok = true
					break
				}
			}
			if !ok {
				t.Errorf("round %d: seed not in input: %s", round, s)
			}
		}
		if sum != score {
			t.Errorf("round %d: chain length sum %d != score %d", round, sum, score)
		}
	}
}

func TestChainUnpackable(t *testing.T) {
	seeds := []Seed{
		{QBegin: 1 << 32, TBegin: 0, Len: 4},
		{QBegin: 0, TBegin: 0, Len: 4},
		{QBegin: 1<<32 + 4, TBegin: 4, Len: 5},
	}
	chain, score, _ := OptimalChain(seeds)
	if score != 9 || len(chain) != 2 || chain[1] != seeds[2] {
		t.Errorf("unexpected chain: %v, score: %d", chain, score)
	}
}
