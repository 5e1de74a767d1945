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
	"strings"
	"time"

	"github.com/manutamminen/nsearch/nsearch/index"
	"github.com/manutamminen/nsearch/nsearch/index/align"
	"github.com/manutamminen/nsearch/nsearch/sequence"
	"github.com/manutamminen/nsearch/nsearch/workqueue"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search sequences against an index",
	Long: `Search sequences against an index

Attention:
  1. Input should be (gzipped) FASTA or FASTQ records from files or stdin.
  2. Queries shorter than the word length have no hits.
  3. Results are output in the order of input queries.

Steps:
  1. Words of a query are looked up in the index, and hits on the same
     diagonal of each target sequence are merged into seeds.
  2. The optimal chain of co-linear seeds is computed for each target.
  3. Targets are ranked by the chain score, i.e., the number of bases
     covered by the chain, and the top N (-n/--max-hits) are kept.
  4. Each top target is aligned with the query by a global alignment
     guided by the chain, skipped with --no-align.

Scoring:
  Alignment scores can also be given in a TOML file (--config), where
  values of explicitly given flags have higher priorities. E.g.,

    [align]
    match = 2
    mismatch = -3
    gap-open = 5
    gap-ext = 2

Output format:
  Tab-delimited format with 11 columns.

    1.  query,        Query sequence ID.
    2.  qlen,         Query sequence length.
    3.  hits,         Number of reported target sequences.
    4.  target,       Target sequence ID.
    5.  tlen,         Target sequence length.
    6.  strand,       Query strand.
    7.  chain_score,  Score of the optimal chain.
    8.  seeds,        Number of seeds in the optimal chain.
    9.  align_score,  Score of the guided global alignment. (NA with --no-align)
    10. identity,     Fraction of matched columns in the alignment. (NA with --no-align)
    11. cigar,        CIGAR string of the alignment. (* with --no-align)

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		outFile := expandPath(getFlagString(cmd, "out-file"))

		var fhLog *os.File
		if opt.Log2File {
			ro, err := filepath.Abs(outFile)
			if err != nil {
				checkError(fmt.Errorf("failed to check output file: %s", err))
			}
			rl, err := filepath.Abs(opt.LogFile)
			if err != nil {
				checkError(fmt.Errorf("failed to check log file: %s", err))
			}
			if ro == rl {
				checkError(fmt.Errorf("output file and log file should not be the same: %s", outFile))
			}
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
		// flags

		dbDir := expandPath(getFlagString(cmd, "index"))
		if dbDir == "" {
			checkError(fmt.Errorf("flag -d/--index needed"))
		}

		maxHits := getFlagNonNegativeInt(cmd, "max-hits")
		minChainScore := getFlagNonNegativeInt(cmd, "min-chain-score")
		noAlign := getFlagBool(cmd, "no-align")
		batchSize := getFlagPositiveInt(cmd, "batch-size")

		strand := strings.ToLower(getFlagString(cmd, "strand"))
		if strand != "plus" && strand != "both" {
			checkError(fmt.Errorf("invalid value of flag --strand: %s, available: plus, both", strand))
		}

		aopt, err := alignOptionsFromFlagsAndConfig(cmd, expandPath(getFlagString(cmd, "config")))
		checkError(err)

		sopt := &index.SearchOptions{
			MaxHits:       maxHits,
			BothStrands:   strand == "both",
			MinChainScore: minChainScore,

			Align:        !noAlign,
			AlignOptions: aopt,
		}
		if err = index.CheckSearchOptions(sopt); err != nil {
			checkError(fmt.Errorf("invalid alignment scores: %s", err))
		}

		if outputLog {
			log.Infof("nsearch v%s", VERSION)
			log.Info()
			log.Info("checking input files ...")
		}

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)

		if outputLog {
			if len(files) == 1 {
				if isStdin(files[0]) {
					log.Info("  no files given, reading from stdin")
				} else {
					log.Infof("  %d input file given: %s", len(files), files[0])
				}
			} else {
				log.Infof("  %d input file(s) given", len(files))
			}
		}

		outFileClean := filepath.Clean(outFile)
		for _, file := range files {
			if !isStdin(file) && filepath.Clean(file) == outFileClean {
				checkError(fmt.Errorf("out file should not be one of the input file"))
			}
		}

		// ---------------------------------------------------------------
		// loading index

		if outputLog {
			log.Info()
			log.Infof("loading index: %s", dbDir)
		}

		idx, err := index.NewFromPath(dbDir, opt.NumCPUs)
		checkError(err)

		if outputLog {
			log.Infof("  index loaded in %s: %d sequences, word length: %d", time.Since(timeStart), idx.NumSequences(), idx.WordLength())
			log.Info()
			log.Infof("searching with %d threads...", opt.NumCPUs)
		}

		// ---------------------------------------------------------------
		// searching

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		fmt.Fprintln(outfh, "query\tqlen\thits\ttarget\ttlen\tstrand\tchain_score\tseeds\talign_score\tidentity\tcigar")

		var total, matched uint64
		timeStart1 := time.Now()

		printResult := func(q *sequence.Sequence, cands []*index.Candidate) {
			total++
			if len(cands) == 0 {
				return
			}
			matched++

			for _, c := range cands {
				fmt.Fprintf(outfh, "%s\t%d\t%d\t%s\t%d\t%c\t%d\t%d",
					q.ID, len(q.Seq), len(cands),
					c.Target.ID, len(c.Target.Seq), c.Strand,
					c.Score, len(c.Chain))
				if c.Alignment != nil {
					fmt.Fprintf(outfh, "\t%d\t%.4f\t%s\n", c.Alignment.Score, c.Alignment.Identity(), c.Alignment.Cigar)
				} else {
					fmt.Fprintf(outfh, "\tNA\tNA\t*\n")
				}
			}
			index.RecycleCandidates(cands)
		}

		// one result slot for each query in a batch
		queries := make([]*sequence.Sequence, 0, batchSize)
		results := make([][]*index.Candidate, batchSize)
		errs := make([]error, batchSize)

		queue := workqueue.New(opt.NumCPUs, func(i int) {
			results[i], errs[i] = idx.Search(queries[i], sopt)
		})

		flush := func() {
			for i := range queries {
				queue.Enqueue(i)
			}
			queue.WaitTillDone()

			for i, q := range queries {
				checkError(errs[i])
				printResult(q, results[i])
				results[i] = nil
			}
			outfh.Flush()
			queries = queries[:0]

			if opt.Verbose {
				fmt.Fprintf(os.Stderr, "processed queries: %d, speed: %.3f queries per minute\r",
					total, float64(total)/time.Since(timeStart1).Minutes())
			}
		}

		var record *fastx.Record
		var s *sequence.Sequence
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

				s, err = sequence.FromRecord(record)
				checkError(errors.Wrap(err, file))

				queries = append(queries, s)
				if len(queries) == batchSize {
					flush()
				}
			}
			fastxReader.Close()
		}
		flush()
		queue.Close()

		if outputLog {
			if opt.Verbose {
				fmt.Fprintf(os.Stderr, "\n")
			}
			log.Info()
			log.Infof("processed queries: %d, speed: %.3f queries per minute",
				total, float64(total)/time.Since(timeStart1).Minutes())
			if total > 0 {
				log.Infof("%.4f%% (%d/%d) queries matched", float64(matched)/float64(total)*100, matched, total)
			}
			log.Infof("done searching")
			if !isStdin(outFile) {
				log.Infof("search results saved to: %s", outFile)
			}
		}
	},
}

// alignFlags are flags of alignment scores, which can also be set in the
// [align] section of a config file.
var alignFlags = []string{
	"match", "mismatch",
	"gap-open", "gap-ext",
	"terminal-gap-open", "terminal-gap-ext",
	"band",
}

// alignOptionsFromFlagsAndConfig reads alignment scores from flags and an
// optional TOML config file. Values of explicitly given flags win over those
// in the file, which win over flag defaults.
func alignOptionsFromFlagsAndConfig(cmd *cobra.Command, file string) (*align.AlignOptions, error) {
	v := viper.New()
	for _, flag := range alignFlags {
		if err := v.BindPFlag("align."+flag, cmd.Flags().Lookup(flag)); err != nil {
			return nil, err
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file: %s", file)
		}
	}

	return &align.AlignOptions{
		MatchScore:    v.GetInt("align.match"),
		MisMatchScore: v.GetInt("align.mismatch"),

		InteriorGapOpen:   v.GetInt("align.gap-open"),
		InteriorGapExtend: v.GetInt("align.gap-ext"),
		TerminalGapOpen:   v.GetInt("align.terminal-gap-open"),
		TerminalGapExtend: v.GetInt("align.terminal-gap-ext"),

		Band: v.GetInt("align.band"),
	}, nil
}

func init() {
	RootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("index", "d", "",
		formatFlagUsage(`Index directory created by "nsearch index".`))

	searchCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports a ".gz" suffix ("-" for stdout).`))

	searchCmd.Flags().StringP("infile-list", "X", "",
		formatFlagUsage(`File of input file list (one file per line). If given, they are appended to files from CLI arguments.`))

	searchCmd.Flags().IntP("batch-size", "b", 1024,
		formatFlagUsage(`Number of queries searched concurrently in a batch.`))

	// ------------------------------------------------------------------

	searchCmd.Flags().IntP("max-hits", "n", index.DefaultSearchOptions.MaxHits,
		formatFlagUsage(`Maximum number of target sequences for a query, 0 for all.`))

	searchCmd.Flags().StringP("strand", "", "plus",
		formatFlagUsage(`Query strand to search, "plus" or "both".`))

	searchCmd.Flags().IntP("min-chain-score", "c", 0,
		formatFlagUsage(`Minimum chain score of a target sequence.`))

	searchCmd.Flags().BoolP("no-align", "", false,
		formatFlagUsage(`Do not align query with target sequences.`))

	// ------------------------------------------------------------------

	searchCmd.Flags().StringP("config", "", "",
		formatFlagUsage(`TOML file of alignment scores, in the section [align] with keys same as flag names.`))

	dopt := align.DefaultAlignOptions

	searchCmd.Flags().IntP("match", "", dopt.MatchScore,
		formatFlagUsage(`Score of a match.`))
	searchCmd.Flags().IntP("mismatch", "", dopt.MisMatchScore,
		formatFlagUsage(`Score of a mismatch.`))
	searchCmd.Flags().IntP("gap-open", "", dopt.InteriorGapOpen,
		formatFlagUsage(`Penalty of opening an interior gap.`))
	searchCmd.Flags().IntP("gap-ext", "", dopt.InteriorGapExtend,
		formatFlagUsage(`Penalty of extending an interior gap by one base.`))
	searchCmd.Flags().IntP("terminal-gap-open", "", dopt.TerminalGapOpen,
		formatFlagUsage(`Penalty of opening a gap at the start or end of either sequence.`))
	searchCmd.Flags().IntP("terminal-gap-ext", "", dopt.TerminalGapExtend,
		formatFlagUsage(`Penalty of extending a terminal gap by one base.`))
	searchCmd.Flags().IntP("band", "", dopt.Band,
		formatFlagUsage(`Band width of the guided alignment, < 0 for no band.`))

	searchCmd.SetUsageTemplate(usageTemplate("-d <index path> [query.fasta.gz ...] [-o query.tsv.gz]"))
}
