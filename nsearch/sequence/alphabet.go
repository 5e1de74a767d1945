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

// Match tells whether two nucleotide symbols are compatible under IUPAC
// ambiguity rules, i.e., whether the sets of bases they stand for
// intersect. It is case-insensitive and treats U as T.
// Symbols outside of the IUPAC alphabet never match.
func Match(a, b byte) bool {
	return baseMasks[a]&baseMasks[b] > 0
}

// Code returns the 2-bit code of a base used in packed words:
// A=0, C=1, T/U=2, G=3. Other symbols return -1.
func Code(b byte) int8 {
	return baseCodes[b]
}

// IsAmbiguous tells if a symbol can not be encoded in 2 bits.
func IsAmbiguous(b byte) bool {
	return baseCodes[b] < 0
}

// ComplementBase returns the complement base, with the case kept.
// Unknown symbols are returned unchanged.
func ComplementBase(b byte) byte {
	return complementTable[b]
}

// ComplementInPlace complements a sequence without reversing it.
func ComplementInPlace(s []byte) []byte {
	for i, b := range s {
		s[i] = complementTable[b]
	}
	return s
}

// RCInPlace computes the reverse complement sequence in place.
func RCInPlace(s []byte) []byte {
	for i := range s {
		s[i] = complementTable[s[i]]
	}
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return s
}

// 4-bit masks: A=1, C=2, G=4, T=8.
var baseMasks [256]uint8

var baseCodes [256]int8

func init() {
	masks := map[byte]uint8{
		'A': 1, 'C': 2, 'G': 4, 'T': 8, 'U': 8,
		'R': 1 | 4, // A/G
		'Y': 2 | 8, // C/T
		'S': 2 | 4,
		'W': 1 | 8,
		'K': 4 | 8,
		'M': 1 | 2,
		'B': 2 | 4 | 8, // not A
		'D': 1 | 4 | 8, // not C
		'H': 1 | 2 | 8, // not G
		'V': 1 | 2 | 4, // not T
		'N': 1 | 2 | 4 | 8,
	}
	for b, m := range masks {
		baseMasks[b] = m
		baseMasks[b+32] = m // lower case
	}

	for i := range baseCodes {
		baseCodes[i] = -1
	}
	for b, c := range map[byte]int8{'A': 0, 'C': 1, 'T': 2, 'U': 2, 'G': 3} {
		baseCodes[b] = c
		baseCodes[b+32] = c
	}
}

var complementTable = [256]byte{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
	16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31,
	32, 33, 34, 35, 36, 37, 38, 39, 40, 41, 42, 43, 44, 45, 46, 47,
	48, 49, 50, 51, 52, 53, 54, 55, 56, 57, 58, 59, 60, 61, 62, 63,
	64, 84, 86, 71, 72, 69, 70, 67, 68, 73, 74, 77, 76, 75, 78, 79,
	80, 81, 89, 83, 65, 65, 66, 87, 88, 82, 90, 91, 92, 93, 94, 95,
	96, 116, 118, 103, 104, 101, 102, 99, 100, 105, 106, 109, 108, 107, 110, 111,
	112, 113, 121, 115, 97, 97, 98, 119, 120, 114, 122, 123, 124, 125, 126, 127,
	128, 129, 130, 131, 132, 133, 134, 135, 136, 137, 138, 139, 140, 141, 142, 143,
	144, 145, 146, 147, 148, 149, 150, 151, 152, 153, 154, 155, 156, 157, 158, 159,
	160, 161, 162, 163, 164, 165, 166, 167, 168, 169, 170, 171, 172, 173, 174, 175,
	176, 177, 178, 179, 180, 181, 182, 183, 184, 185, 186, 187, 188, 189, 190, 191,
	192, 193, 194, 195, 196, 197, 198, 199, 200, 201, 202, 203, 204, 205, 206, 207,
	208, 209, 210, 211, 212, 213, 214, 215, 216, 217, 218, 219, 220, 221, 222, 223,
	224, 225, 226, 227, 228, 229, 230, 231, 232, 233, 234, 235, 236, 237, 238, 239,
	240, 241, 242, 243, 244, 245, 246, 247, 248, 249, 250, 251, 252, 253, 254, 255,
}
