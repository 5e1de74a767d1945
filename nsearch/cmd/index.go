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
	"path/filepath"
	"regexp"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/manutamminen/nsearch/nsearch/index"
	"github.com/manutamminen/nsearch/nsearch/index/word"
	"github.com/manutamminen/nsearch/nsearch/sequence"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Generate an index from FASTA/Q sequences",
	Long: `Generate an index from FASTA/Q sequences

Input:
  1. Input plain or gzipped FASTA/Q files can be given via positional
     arguments or the flag -X/--infile-list with the list of input files,
  2. Or a directory containing sequence files via the flag -I/--in-dir,
     with multiple-level sub-directories allowed. A regular expression
     for matching sequencing files is available via the flag -r/--file-regexp.

Attention:
  1. All words (k-mers) of each sequence are indexed, except those
     containing ambiguous bases or overlapping regions in the mask file
     (-M/--mask-file).
  2. Sequences shorter than the word length are kept in the index,
     but they can not be found by any query.
  3. Unwanted sequences like plasmids can be filtered out by
     the name via regular expressions (-B/--seq-name-filter).

Mask file:
  A tab-delimited file with three columns: sequence ID, start (0-based),
  and end (exclusive). Words overlapping these regions are not indexed.

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

		// ---------------------------------------------------------------
		// basic flags

		k := getFlagPositiveInt(cmd, "word-length")
		batchSize := getFlagPositiveInt(cmd, "batch-size")
		seed := getFlagPositiveInt(cmd, "seed")

		outDir := expandPath(getFlagString(cmd, "index"))
		force := getFlagBool(cmd, "force")
		skipFileCheck := getFlagBool(cmd, "skip-file-check")
		maskFile := expandPath(getFlagString(cmd, "mask-file"))

		if outDir == "" {
			checkError(fmt.Errorf("flag -d/--index is needed"))
		}

		iopt := &index.IndexOptions{
			WordLength: k,
			Threads:    opt.NumCPUs,
			IDHashSeed: uint64(seed),
		}
		checkError(index.CheckIndexOptions(iopt))

		var err error

		inDir := expandPath(getFlagString(cmd, "in-dir"))

		outDir = filepath.Clean(outDir)

		if filepath.Clean(inDir) == outDir {
			checkError(fmt.Errorf("intput and output paths should not be the same: %s", outDir))
		}

		readFromDir := inDir != ""
		if readFromDir {
			var isDir bool
			isDir, err = pathutil.IsDir(inDir)
			if err != nil {
				checkError(errors.Wrapf(err, "checking -I/--in-dir"))
			}
			if !isDir {
				checkError(fmt.Errorf("value of -I/--in-dir should be a directory: %s", inDir))
			}
		}

		reFileStr := getFlagString(cmd, "file-regexp")
		var reFile *regexp.Regexp
		if readFromDir {
			reFile, err = compileIgnoreCase(reFileStr)
			checkError(errors.Wrapf(err, "failed to parse regular expression for matching file: %s", reFileStr))
		}

		reSeqNameStrs := getFlagStringSlice(cmd, "seq-name-filter")
		reSeqNames := make([]*regexp.Regexp, 0, len(reSeqNameStrs))
		for _, kw := range reSeqNameStrs {
			re, err := compileIgnoreCase(kw)
			if err != nil {
				checkError(errors.Wrapf(err, "failed to parse regular expression for matching sequence header: %s", kw))
			}
			reSeqNames = append(reSeqNames, re)
		}

		var skipRegions map[string][][2]int
		if maskFile != "" {
			skipRegions, err = readSkipRegions(maskFile)
			checkError(err)
		}

		// ---------------------------------------------------------------
		// input files

		if outputLog {
			log.Infof("nsearch v%s", VERSION)
			log.Info()
			log.Info("checking input files ...")
		}

		var files []string
		if readFromDir {
			files, err = getFileListFromDir(inDir, reFile, opt.NumCPUs)
			if err != nil {
				checkError(errors.Wrapf(err, "walking dir: %s", inDir))
			}
			if len(files) == 0 {
				log.Warningf("  no files matching regular expression: %s", reFileStr)
			}
		} else {
			files = getFileListFromArgsAndFile(cmd, args, !skipFileCheck, "infile-list", !skipFileCheck)
			if outputLog {
				if len(files) == 1 && isStdin(files[0]) {
					log.Info("  no files given, reading from stdin")
				}
			}
		}
		if len(files) < 1 {
			checkError(fmt.Errorf("FASTA/Q files needed"))
		} else if outputLog {
			log.Infof("  %d input file(s) given", len(files))
		}

		if outputLog {
			log.Info()
			log.Infof("-------------------- [main parameters] --------------------")
			log.Infof("  output directory: %s", outDir)
			log.Infof("  word length: %d", k)
			log.Infof("  batch size: %d", batchSize)
			if maskFile != "" {
				log.Infof("  mask file: %s, %d sequences with regions to skip", maskFile, len(skipRegions))
			}
			log.Infof("-------------------- [main parameters] --------------------")
			log.Info()
			log.Infof("building index ...")
		}

		// ---------------------------------------------------------------
		// indexing

		idx, err := index.NewIndexWithOptions(iopt)
		checkError(err)

		var pbs *mpb.Progress
		var bar *mpb.Bar
		if opt.Verbose {
			pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
			bar = pbs.AddBar(int64(len(files)),
				mpb.PrependDecorators(
					decor.Name("processed files: ", decor.WC{W: len("processed files: "), C: decor.DindentRight}),
					decor.Name("", decor.WCSyncSpaceR),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
					decor.EwmaETA(decor.ET_STYLE_GO, 3),
					decor.OnComplete(decor.Name(""), ". done"),
				),
			)
		}

		batch := make([]*index.RefSeq, 0, batchSize)
		insert := func() {
			if len(batch) == 0 {
				return
			}
			checkError(idx.BatchInsert(batch))
			batch = batch[:0]
		}

		var record *fastx.Record
		var s *sequence.Sequence
		var filtered, masked int
		var ignore bool
		for _, file := range files {
			startTime := time.Now()

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

				if len(reSeqNames) > 0 {
					ignore = false
					for _, re := range reSeqNames {
						if re.Match(record.Name) {
							ignore = true
							break
						}
					}
					if ignore {
						filtered++
						continue
					}
				}

				s, err = sequence.FromRecord(record)
				checkError(errors.Wrap(err, file))

				ref := &index.RefSeq{Seq: s}
				if skipRegions != nil {
					if ref.SkipRegions = skipRegions[string(s.ID)]; ref.SkipRegions != nil {
						masked++
					}
				}
				batch = append(batch, ref)

				if len(batch) >= batchSize {
					insert()
				}
			}
			fastxReader.Close()

			if opt.Verbose {
				bar.EwmaIncrBy(1, time.Since(startTime))
			}
		}
		insert()

		if opt.Verbose {
			pbs.Wait()
		}

		idx.InputFiles = files

		if outputLog {
			log.Infof("  %s sequences (%s bases) indexed, %s sequences filtered out, %s sequences masked",
				humanize.Comma(int64(idx.NumSequences())), humanize.Comma(int64(idx.NumBases())),
				humanize.Comma(int64(filtered)), humanize.Comma(int64(masked)))
			log.Infof("  %s distinct words, %s occurrences",
				humanize.Comma(int64(idx.NumWords())), humanize.Comma(int64(idx.NumOccurrences())))
			log.Info()
			log.Infof("writing index to %s ...", outDir)
		}

		err = idx.WriteToPath(outDir, force)
		if err == index.ErrDirNotEmpty {
			checkError(fmt.Errorf("output directory not empty: %s, use --force to overwrite", outDir))
		}
		checkError(err)

		if outputLog {
			log.Infof("index saved: %s", outDir)
		}
	},
}

func init() {
	RootCmd.AddCommand(indexCmd)

	// -----------------------------  input  -----------------------------

	indexCmd.Flags().StringP("in-dir", "I", "",
		formatFlagUsage(`Directory containing FASTA/Q files. Directory symlinks are followed.`))

	indexCmd.Flags().StringP("file-regexp", "r", `\.(f[aq](st[aq])?|fna)(.gz)?$`,
		formatFlagUsage(`Regular expression for matching sequence files in -I/--in-dir, case ignored.`))

	indexCmd.Flags().StringP("infile-list", "X", "",
		formatFlagUsage(`File of input file list (one file per line). If given, they are appended to files from CLI arguments.`))

	indexCmd.Flags().StringSliceP("seq-name-filter", "B", []string{},
		formatFlagUsage(`List of regular expressions for filtering out sequences by header/name, case ignored.`))

	indexCmd.Flags().BoolP("skip-file-check", "S", false,
		formatFlagUsage(`Skip input file checking when given files or a file list.`))

	indexCmd.Flags().StringP("mask-file", "M", "",
		formatFlagUsage(`Tab-delimited file of regions to skip: sequence ID, start (0-based), end (exclusive).`))

	// -----------------------------  output  -----------------------------

	indexCmd.Flags().StringP("index", "d", "",
		formatFlagUsage(`Output index directory.`))

	indexCmd.Flags().BoolP("force", "", false,
		formatFlagUsage(`Overwrite existed output directory.`))

	// -----------------------------  index   -----------------------------

	indexCmd.Flags().IntP("word-length", "k", index.DefaultIndexOptions.WordLength,
		formatFlagUsage(fmt.Sprintf(`Word (k-mer) length, in range of [1, %d].`, word.MaxWordLength)))

	indexCmd.Flags().IntP("seed", "s", 1,
		formatFlagUsage(`Seed for hashing sequence IDs.`))

	indexCmd.Flags().IntP("batch-size", "b", 4096,
		formatFlagUsage(`Maximum number of sequences in each batch of concurrent insertion.`))

	indexCmd.SetUsageTemplate(usageTemplate("[-k <k>] {[-I <seqs dir>] | <seq files> | -X <file list>} -d <index dir>"))
}
