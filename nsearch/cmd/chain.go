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
	"image/color"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/manutamminen/nsearch/nsearch/index"
	"github.com/manutamminen/nsearch/nsearch/index/chain"
	"github.com/manutamminen/nsearch/nsearch/sequence"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Show seeds and optimal chains of queries",
	Long: `Show seeds and optimal chains of queries

This command helps to inspect the seeding and chaining steps of "nsearch search".
With --plot-dir, a dot plot of seeds (grey) and the chain (red) is drawn
for each query and target pair.

Output format:
  Tab-delimited format with 10 columns, with 0-based positions and exclusive ends.

    1.  query,        Query sequence ID.
    2.  target,       Target sequence ID.
    3.  strand,       Query strand.
    4.  chain_score,  Score of the optimal chain.
    5.  type,         "seed" or "chain".
    6.  qstart,       Start of the seed in the query.
    7.  qend,         End of the seed in the query.
    8.  tstart,       Start of the seed in the target.
    9.  tend,         End of the seed in the target.
    10. len,          Length of the seed.

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

		dbDir := expandPath(getFlagString(cmd, "index"))
		if dbDir == "" {
			checkError(fmt.Errorf("flag -d/--index needed"))
		}
		outFile := expandPath(getFlagString(cmd, "out-file"))
		plotDir := expandPath(getFlagString(cmd, "plot-dir"))
		maxHits := getFlagNonNegativeInt(cmd, "max-hits")
		strand := strings.ToLower(getFlagString(cmd, "strand"))
		if strand != "plus" && strand != "both" {
			checkError(fmt.Errorf("invalid value of flag --strand: %s, available: plus, both", strand))
		}

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)

		if plotDir != "" {
			checkError(os.MkdirAll(plotDir, 0777))
		}

		idx, err := index.NewFromPath(dbDir, opt.NumCPUs)
		checkError(err)

		sopt := &index.SearchOptions{
			MaxHits:     maxHits,
			BothStrands: strand == "both",
			KeepSeeds:   true,
		}

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		fmt.Fprintln(outfh, "query\ttarget\tstrand\tchain_score\ttype\tqstart\tqend\ttstart\ttend\tlen")

		printSeeds := func(q *sequence.Sequence, c *index.Candidate, _type string, seeds []chain.Seed) {
			for _, s := range seeds {
				fmt.Fprintf(outfh, "%s\t%s\t%c\t%d\t%s\t%d\t%d\t%d\t%d\t%d\n",
					q.ID, c.Target.ID, c.Strand, c.Score, _type,
					s.QBegin, s.QEnd(), s.TBegin, s.TEnd(), s.Len)
			}
		}

		var record *fastx.Record
		var q *sequence.Sequence
		var cands []*index.Candidate
		var nPlots int
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

				q, err = sequence.FromRecord(record)
				checkError(errors.Wrap(err, file))

				cands, err = idx.Search(q, sopt)
				checkError(err)

				for _, c := range cands {
					printSeeds(q, c, "seed", c.Seeds)
					printSeeds(q, c, "chain", c.Chain)

					if plotDir != "" {
						plotFile := filepath.Join(plotDir, fmt.Sprintf("%s__%s__%c.png",
							safeFileName(q.ID), safeFileName(c.Target.ID), c.Strand))
						checkError(plotChain(q, c, plotFile))
						nPlots++
					}
				}
				outfh.Flush()
			}
			fastxReader.Close()
		}

		if outputLog && plotDir != "" {
			log.Infof("%d plots saved to %s", nPlots, plotDir)
		}
	},
}

var reUnsafeFileName = regexp.MustCompile(`[^\w\.\-]+`)

func safeFileName(id []byte) string {
	return reUnsafeFileName.ReplaceAllString(string(id), "_")
}

// plotChain draws a dot plot of seeds and the chain of a candidate.
func plotChain(q *sequence.Sequence, c *index.Candidate, file string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs %s (%c), chain score: %d", q.ID, c.Target.ID, c.Strand, c.Score)
	p.X.Label.Text = "query"
	p.Y.Label.Text = "target"
	p.X.Min, p.X.Max = 0, float64(len(q.Seq))
	p.Y.Min, p.Y.Max = 0, float64(len(c.Target.Seq))

	add := func(seeds []chain.Seed, clr color.Color, width vg.Length) error {
		for _, s := range seeds {
			l, err := plotter.NewLine(plotter.XYs{
				{X: float64(s.QBegin), Y: float64(s.TBegin)},
				{X: float64(s.QEnd()), Y: float64(s.TEnd())},
			})
			if err != nil {
				return err
			}
			l.LineStyle.Color = clr
			l.LineStyle.Width = width
			p.Add(l)
		}
		return nil
	}

	if err := add(c.Seeds, color.Gray{Y: 160}, vg.Points(1)); err != nil {
		return err
	}
	if err := add(c.Chain, color.RGBA{R: 220, A: 255}, vg.Points(2)); err != nil {
		return err
	}

	return errors.Wrapf(p.Save(5*vg.Inch, 5*vg.Inch, file), "saving plot: %s", file)
}

func init() {
	utilsCmd.AddCommand(chainCmd)

	chainCmd.Flags().StringP("index", "d", "",
		formatFlagUsage(`Index directory created by "nsearch index".`))

	chainCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports a ".gz" suffix ("-" for stdout).`))

	chainCmd.Flags().StringP("infile-list", "X", "",
		formatFlagUsage(`File of input file list (one file per line). If given, they are appended to files from CLI arguments.`))

	chainCmd.Flags().StringP("plot-dir", "p", "",
		formatFlagUsage(`Directory for saving dot plots of seeds and chains in PNG format.`))

	chainCmd.Flags().IntP("max-hits", "n", index.DefaultSearchOptions.MaxHits,
		formatFlagUsage(`Maximum number of target sequences for a query, 0 for all.`))

	chainCmd.Flags().StringP("strand", "", "plus",
		formatFlagUsage(`Query strand to search, "plus" or "both".`))

	chainCmd.SetUsageTemplate(usageTemplate("-d <index path> [query.fasta ...] [-p <plot dir>]"))
}
