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
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/manutamminen/nsearch/nsearch/util"
	"github.com/twotwotwo/sorts/sortutil"
)

var be = binary.BigEndian

// MagicWords is the magic number of the words file.
var MagicWords = [8]byte{'.', 'n', 's', 'w', 'o', 'r', 'd', 's'}

// writeWords writes the postings lists to a file.
//
// Header (24 bytes):
//
//	Magic number, 8 bytes, ".nswords".
//	Main and minor versions, 2 bytes.
//	Word length, 1 byte.
//	Blank, 1 byte.
//	Number of short words, 4 bytes.
//	Number of words, 8 bytes.
//
// For each word, in ascending order of keys:
//
//	Control byte, 1 byte.
//	Delta value of the key and the number of occurrences, 2-16 bytes.
//	For each occurrence:
//		Control byte, 1 byte.
//		Sequence index and position, 2-16 bytes, 2-8 bytes for most cases.
//
// For each short word, in ascending order of lengths and keys:
//
//	Word length, 1 byte.
//	Control byte, 1 byte.
//	Key and the number of occurrences, 2-16 bytes.
//	Occurrences, the same as above.
func (idx *Index) writeWords(file string) (int, error) {
	var N int // the number of bytes.

	fh, err := os.Create(file)
	if err != nil {
		return N, err
	}
	defer fh.Close()
	w := bufio.NewWriter(fh)

	// 8-byte magic number
	err = binary.Write(w, be, MagicWords)
	if err != nil {
		return N, err
	}
	N += 8

	// 4-byte meta info
	err = binary.Write(w, be, [4]uint8{MainVersion, MinorVersion, uint8(idx.k)})
	if err != nil {
		return N, err
	}
	N += 4

	// 4-byte the number of short words
	err = binary.Write(w, be, uint32(len(idx.short)))
	if err != nil {
		return N, err
	}
	N += 4

	// 8-byte the number of words
	err = binary.Write(w, be, uint64(len(idx.postings)))
	if err != nil {
		return N, err
	}
	N += 8

	keys := make([]uint64, 0, len(idx.postings))
	for key := range idx.postings {
		keys = append(keys, key)
	}
	sortutil.Uint64s(keys)

	buf := make([]byte, 17) // needs at most 1+16=17
	var ctrl byte
	var n int
	var preKey uint64
	for _, key := range keys {
		occs := idx.postings[key]

		ctrl, n = util.PutUint64s(buf[1:], key-preKey, uint64(len(occs)))
		buf[0] = ctrl
		if _, err = w.Write(buf[:n+1]); err != nil {
			return N, err
		}
		N += n + 1
		preKey = key

		if n, err = writeOccurrences(w, buf, occs); err != nil {
			return N, err
		}
		N += n
	}

	shorts := make([]shortWord, 0, len(idx.short))
	for sw := range idx.short {
		shorts = append(shorts, sw)
	}
	sort.Slice(shorts, func(i, j int) bool {
		if shorts[i].n == shorts[j].n {
			return shorts[i].key < shorts[j].key
		}
		return shorts[i].n < shorts[j].n
	})
	for _, sw := range shorts {
		occs := idx.short[sw]

		if err = w.WriteByte(sw.n); err != nil {
			return N, err
		}
		ctrl, n = util.PutUint64s(buf[1:], sw.key, uint64(len(occs)))
		buf[0] = ctrl
		if _, err = w.Write(buf[:n+1]); err != nil {
			return N, err
		}
		N += n + 2

		if n, err = writeOccurrences(w, buf, occs); err != nil {
			return N, err
		}
		N += n
	}

	return N, w.Flush()
}

func writeOccurrences(w *bufio.Writer, buf []byte, occs []Occurrence) (int, error) {
	var N, n int
	var ctrl byte
	for _, occ := range occs {
		ctrl, n = util.PutUint64s(buf[1:], uint64(occ.SeqIdx), uint64(occ.Pos))
		buf[0] = ctrl
		if _, err := w.Write(buf[:n+1]); err != nil {
			return N, err
		}
		N += n + 1
	}
	return N, nil
}

// readWords reads the postings lists, sequences should be loaded first.
func (idx *Index) readWords(file string) error {
	fh, err := os.Open(file)
	if err != nil {
		return err
	}
	defer fh.Close()
	r := bufio.NewReader(fh)

	buf := make([]byte, 24)

	// header
	_, err = io.ReadFull(r, buf)
	if err != nil {
		return ErrBrokenFile
	}
	if !bytes.Equal(buf[:8], MagicWords[:]) {
		return ErrInvalidFileFormat
	}
	if buf[8] != MainVersion {
		return ErrVersionMismatch
	}
	if int(buf[10]) != idx.k {
		return ErrInconsistentInfo
	}
	nShorts := be.Uint32(buf[12:16])
	nWords := be.Uint64(buf[16:24])

	nSeqs := uint64(len(idx.sequences))
	maxOccs := uint64(idx.nBases)
	var ctrl byte
	var nBytes int
	var key, delta, count uint64
	var i uint64
	var occs []Occurrence
	for i = 0; i < nWords; i++ {
		ctrl, err = r.ReadByte()
		if err != nil {
			return ErrBrokenFile
		}
		nBytes = util.CtrlByte2ByteLengthsUint64(ctrl)
		if _, err = io.ReadFull(r, buf[:nBytes]); err != nil {
			return ErrBrokenFile
		}
		delta, count, _ = util.Uint64s(ctrl, buf[:nBytes])
		if count > maxOccs {
			return ErrBrokenFile
		}
		key += delta

		if occs, err = readOccurrences(r, buf, count, nSeqs); err != nil {
			return err
		}
		idx.postings[key] = occs
		idx.nOccurrences += int(count)
	}

	var n byte
	var j uint32
	for j = 0; j < nShorts; j++ {
		n, err = r.ReadByte()
		if err != nil {
			return ErrBrokenFile
		}
		if int(n) >= idx.k {
			return ErrBrokenFile
		}
		ctrl, err = r.ReadByte()
		if err != nil {
			return ErrBrokenFile
		}
		nBytes = util.CtrlByte2ByteLengthsUint64(ctrl)
		if _, err = io.ReadFull(r, buf[:nBytes]); err != nil {
			return ErrBrokenFile
		}
		key, count, _ = util.Uint64s(ctrl, buf[:nBytes])
		if count > maxOccs {
			return ErrBrokenFile
		}

		if occs, err = readOccurrences(r, buf, count, nSeqs); err != nil {
			return err
		}
		idx.short[shortWord{n: n, key: key}] = occs
		idx.nOccurrences += int(count)
	}

	return nil
}

func readOccurrences(r *bufio.Reader, buf []byte, count, nSeqs uint64) ([]Occurrence, error) {
	occs := make([]Occurrence, count)
	var ctrl byte
	var nBytes int
	var seqIdx, pos uint64
	var err error
	for j := range occs {
		ctrl, err = r.ReadByte()
		if err != nil {
			return nil, ErrBrokenFile
		}
		nBytes = util.CtrlByte2ByteLengthsUint64(ctrl)
		if _, err = io.ReadFull(r, buf[:nBytes]); err != nil {
			return nil, ErrBrokenFile
		}
		seqIdx, pos, _ = util.Uint64s(ctrl, buf[:nBytes])
		if seqIdx >= nSeqs {
			return nil, ErrBrokenFile
		}
		occs[j] = Occurrence{Pos: uint32(pos), SeqIdx: uint32(seqIdx)}
	}
	return occs, nil
}
