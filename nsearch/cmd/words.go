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
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/manutamminen/nsearch/nsearch/index/word"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/kmers"
	"github.com/spf13/cobra"
)

var wordsCmd = &cobra.Command{
	Use:   "words",
	Short: "List words of sequences",
	Long: `List words of sequences

Attention:
  1. Words containing ambiguous bases are skipped.
  2. For sequences shorter than the word length, the whole sequence is
     the only word, which is not indexed by "nsearch index".

Output format:
  Tab-delimited format with 4 columns.

    1. seqid,  Sequence ID.
    2. pos,    Start position of the word, 0-based.
    3. key,    Integer key of the word.
    4. word,   The word, decoded from the key.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}
		outputLog := opt.Verbose || opt.Log2File
		timeStart := time.Now()
		defer func() {
			if outputLog {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		k := getFlagPositiveInt(cmd, "word-length")
		if k > word.MaxWordLength {
			checkError(fmt.Errorf("the value of flag -k/--word-length should be in range of [1, %d]", word.MaxWordLength))
		}
		outFile := expandPath(getFlagString(cmd, "out-file"))

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		fmt.Fprintln(outfh, "seqid\tpos\tkey\tword")

		var record *fastx.Record
		var iter *word.Iterator
		var nSeqs, nWords int
		for _, file := range files {
			fastxReader, err := fastx.NewReader(nil, file, "")
			checkError(errors.Wrap(err, file))

			for {
				record, err = fastxReader.Read()
				if err != nil {
					if err == io.EOF {
						break
					}
					checkError(errors.Wrap(err, file))
					break
				}
				nSeqs++

				iter, err = word.NewIterator(record.Seq.Seq, k)
				checkError(err)

				_k := iter.WordLength() // clamped for short sequences
				iter.ForEach(func(pos int, key uint64) {
					nWords++
					fmt.Fprintf(outfh, "%s\t%d\t%d\t%s\n", record.ID, pos, key,
						kmers.MustDecode(kmerCode(key, _k), _k))
				})
			}
			fastxReader.Close()
		}

		if outputLog {
			log.Infof("%d words listed from %d sequences", nWords, nSeqs)
		}
	},
}

var word2kmerBase = [4]uint64{0, 1, 3, 2}

// kmerCode converts a word key, where the j-th base is stored at bits 2j
// with A0 C1 T2 G3, to a k-mer code of the package kmers, where the first
// base is stored at the most significant bits with A0 C1 G2 T3.
func kmerCode(key uint64, k int) (code uint64) {
	for j := 0; j < k; j++ {
		code = code<<2 | word2kmerBase[key>>(j<<1)&3]
	}
	return code
}

func init() {
	utilsCmd.AddCommand(wordsCmd)

	wordsCmd.Flags().IntP("word-length", "k", 12,
		formatFlagUsage(`Word (k-mer) length.`))

	wordsCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports a ".gz" suffix ("-" for stdout).`))

	wordsCmd.Flags().StringP("infile-list", "X", "",
		formatFlagUsage(`File of input file list (one file per line). If given, they are appended to files from CLI arguments.`))

	wordsCmd.SetUsageTemplate(usageTemplate("[-k <k>] [seqs.fasta ...]"))
}
