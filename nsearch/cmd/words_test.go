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

package cmd

import (
	"testing"

	"github.com/manutamminen/nsearch/nsearch/index/word"
	"github.com/shenwei356/kmers"
)

func TestKmerCode(t *testing.T) {
	for _, s := range []string{"A", "ACGT", "TTGCA", "GATTACA", "ACGTACGTACGTACGTACGTACGTACGTACGT"} {
		key, ok := word.Encode([]byte(s))
		if !ok {
			t.Errorf("failed to encode %s", s)
			continue
		}

		code := kmerCode(key, len(s))
		code2, err := kmers.Encode([]byte(s))
		if err != nil {
			t.Error(err)
			continue
		}
		if code != code2 {
			t.Errorf("%s: expected code %d, returned %d", s, code2, code)
		}

		if decoded := string(kmers.MustDecode(code, len(s))); decoded != s {
			t.Errorf("expected %s, returned %s", s, decoded)
		}
	}
}
