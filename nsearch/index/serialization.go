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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/manutamminen/nsearch/nsearch/sequence"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/util/pathutil"
	"github.com/shenwei356/xopen"
)

// MainVersion is use for checking compatibility
var MainVersion uint8 = 0

// MinorVersion is less important
var MinorVersion uint8 = 1

// ErrInvalidFileFormat means invalid file format.
var ErrInvalidFileFormat = errors.New("index: invalid binary format")

// ErrBrokenFile means the file is not complete.
var ErrBrokenFile = errors.New("index: broken file")

// ErrVersionMismatch means version mismatch between files and program.
var ErrVersionMismatch = errors.New("index: version mismatch")

// ErrDirNotEmpty means the output directory is not empty.
var ErrDirNotEmpty = errors.New("index: output directory not empty")

// ErrPWDAsOutDir means the current directory is used as the output directory.
var ErrPWDAsOutDir = errors.New("index: current directory cant't be the output dir")

// ErrInconsistentInfo means the data files do not match the info file.
var ErrInconsistentInfo = errors.New("index: data files do not match the info file")

// InfoFile contains some summary infomation.
const InfoFile = "info.toml"

// SeqsFile stores the indexed sequences in FASTA format.
const SeqsFile = "seqs.fasta.gz"

// WordsFile stores the postings lists.
const WordsFile = "words.bin"

// Info is the summary information of an index.
type Info struct {
	MainVersion  uint8 `toml:"main-version" comment:"Index format"`
	MinorVersion uint8 `toml:"minor-version"`

	WordLength int    `toml:"word-length" comment:"Indexing"`
	IDHashSeed uint64 `toml:"id-hash-seed"`

	Sequences   int `toml:"sequences" comment:"Statistics"`
	Bases       int `toml:"bases"`
	Words       int `toml:"words"`
	Occurrences int `toml:"occurrences"`

	InputFiles []string  `toml:"input-files" comment:"Input"`
	CreatedAt  time.Time `toml:"created-at"`
}

// Info returns the summary information of the index.
func (idx *Index) Info() *Info {
	return &Info{
		MainVersion:  MainVersion,
		MinorVersion: MinorVersion,
		WordLength:   idx.k,
		IDHashSeed:   idx.seed,
		Sequences:    len(idx.sequences),
		Bases:        idx.nBases,
		Words:        idx.NumWords(),
		Occurrences:  idx.nOccurrences,
		InputFiles:   idx.InputFiles,
		CreatedAt:    time.Now(),
	}
}

// ReadInfo reads the info file of an index directory.
func ReadInfo(dir string) (*Info, error) {
	file := filepath.Join(dir, InfoFile)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "read info file: %s", file)
	}
	info := &Info{}
	if err = toml.Unmarshal(data, info); err != nil {
		return nil, errors.Wrapf(err, "parse info file: %s", file)
	}
	if info.MainVersion != MainVersion {
		return nil, ErrVersionMismatch
	}
	return info, nil
}

// WriteToPath writes an index to a directory.
//
// Files:
//
//	info.toml, plain text
//	seqs.fasta.gz, gzip-compressed FASTA
//	words.bin, binary
func (idx *Index) WriteToPath(outDir string, overwrite bool) error {
	pwd, _ := os.Getwd()
	if outDir == "./" || outDir == "." || pwd == filepath.Clean(outDir) {
		return ErrPWDAsOutDir
	}

	existed, err := pathutil.DirExists(outDir)
	if err != nil {
		return err
	}
	if existed {
		empty, err := pathutil.IsEmpty(outDir)
		if err != nil {
			return err
		}
		if !empty && !overwrite {
			return ErrDirNotEmpty
		}
		if err = os.RemoveAll(outDir); err != nil {
			return err
		}
	}
	if err = os.MkdirAll(outDir, 0777); err != nil {
		return err
	}

	if err = idx.writeSequences(filepath.Join(outDir, SeqsFile)); err != nil {
		return err
	}

	if _, err = idx.writeWords(filepath.Join(outDir, WordsFile)); err != nil {
		return err
	}

	data, err := toml.Marshal(idx.Info())
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, InfoFile), data, 0644)
}

func (idx *Index) writeSequences(file string) error {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return errors.Wrapf(err, "write sequence file: %s", file)
	}
	defer outfh.Close()

	var s *sequence.Sequence
	for _, _s := range idx.sequences {
		s = &sequence.Sequence{ID: _s.ID, Seq: _s.Seq} // quality is not saved
		if _, err = outfh.Write(s.Format(0)); err != nil {
			return err
		}
	}
	return nil
}

// NewFromPath reads an index from a directory.
func NewFromPath(dir string, threads int) (*Index, error) {
	ok, err := pathutil.DirExists(dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("index path not found: %s", dir)
	}
	for _, name := range []string{InfoFile, SeqsFile, WordsFile} {
		ok, err = pathutil.Exists(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("index file not found: %s", filepath.Join(dir, name))
		}
	}

	info, err := ReadInfo(dir)
	if err != nil {
		return nil, err
	}

	idx, err := NewIndexWithOptions(&IndexOptions{
		WordLength: info.WordLength,
		Threads:    threads,
		IDHashSeed: info.IDHashSeed,
	})
	if err != nil {
		return nil, err
	}
	idx.InputFiles = info.InputFiles

	if err = idx.readSequences(filepath.Join(dir, SeqsFile)); err != nil {
		return nil, err
	}
	if len(idx.sequences) != info.Sequences {
		return nil, ErrInconsistentInfo
	}

	if err = idx.readWords(filepath.Join(dir, WordsFile)); err != nil {
		return nil, err
	}
	if idx.NumWords() != info.Words || idx.nOccurrences != info.Occurrences {
		return nil, ErrInconsistentInfo
	}

	return idx, nil
}

func (idx *Index) readSequences(file string) error {
	fastxReader, err := fastx.NewReader(seq.Unlimit, file, "")
	if err != nil {
		return errors.Wrapf(err, "read sequence file: %s", file)
	}
	defer fastxReader.Close()

	var record *fastx.Record
	var s *sequence.Sequence
	for {
		record, err = fastxReader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return errors.Wrapf(err, "read sequence file: %s", file)
		}

		s, err = sequence.FromRecord(record)
		if err != nil {
			return err
		}
		idx.append(s, nil)
	}
	return nil
}
