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
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/manutamminen/nsearch/nsearch/index"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show information of an index",
	Long: `Show information of an index

With -s/--stats, the whole index is loaded to compute statistics of
sequence lengths and postings lists, i.e., occurrences of each word.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		dbDir := expandPath(getFlagString(cmd, "index"))
		if dbDir == "" {
			checkError(fmt.Errorf("flag -d/--index needed"))
		}
		showStats := getFlagBool(cmd, "stats")

		info, err := index.ReadInfo(dbDir)
		checkError(err)

		outfh, _, w, err := outStream("-", false, opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			w.Close()
		}()

		fmt.Fprintf(outfh, "index directory:  %s\n", dbDir)
		fmt.Fprintf(outfh, "format version:   %d.%d\n", info.MainVersion, info.MinorVersion)
		fmt.Fprintf(outfh, "created at:       %s\n", info.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(outfh, "word length:      %d\n", info.WordLength)
		fmt.Fprintf(outfh, "sequences:        %s\n", humanize.Comma(int64(info.Sequences)))
		fmt.Fprintf(outfh, "bases:            %s\n", humanize.Comma(int64(info.Bases)))
		fmt.Fprintf(outfh, "distinct words:   %s\n", humanize.Comma(int64(info.Words)))
		fmt.Fprintf(outfh, "word occurrences: %s\n", humanize.Comma(int64(info.Occurrences)))
		fmt.Fprintf(outfh, "input files:      %d\n", len(info.InputFiles))

		fmt.Fprintf(outfh, "\nfiles:\n")
		var fi os.FileInfo
		var total uint64
		for _, name := range []string{index.InfoFile, index.SeqsFile, index.WordsFile} {
			fi, err = os.Stat(filepath.Join(dbDir, name))
			checkError(err)
			total += uint64(fi.Size())
			fmt.Fprintf(outfh, "  %-16s %s\n", name, humanize.Bytes(uint64(fi.Size())))
		}
		fmt.Fprintf(outfh, "  %-16s %s\n", "total", humanize.Bytes(total))

		if !showStats {
			return
		}

		idx, err := index.NewFromPath(dbDir, opt.NumCPUs)
		checkError(err)

		lens := make([]float64, idx.NumSequences())
		for i := range lens {
			lens[i] = float64(idx.Sequence(i).Len())
		}

		occs := make([]float64, 0, idx.NumWords())
		idx.Keys(func(key uint64, _occs []index.Occurrence) {
			occs = append(occs, float64(len(_occs)))
		})

		fmt.Fprintf(outfh, "\nstatistics:\n")
		fmt.Fprintf(outfh, "  %-20s %s\n", "", strings.Join([]string{
			fmt.Sprintf("%12s", "min"), fmt.Sprintf("%12s", "mean"), fmt.Sprintf("%12s", "stdev"),
			fmt.Sprintf("%12s", "median"), fmt.Sprintf("%12s", "max"),
		}, " "))
		fmt.Fprintf(outfh, "  %-20s %s\n", "sequence length", summary(lens))
		fmt.Fprintf(outfh, "  %-20s %s\n", "word occurrences", summary(occs))
	},
}

// summary returns min, mean, standard deviation, median and max of values.
func summary(values []float64) string {
	if len(values) == 0 {
		return fmt.Sprintf("%12s %12s %12s %12s %12s", "NA", "NA", "NA", "NA", "NA")
	}
	sort.Float64s(values)
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	return fmt.Sprintf("%12.0f %12.2f %12.2f %12.1f %12.0f",
		floats.Min(values), mean, std,
		stat.Quantile(0.5, stat.Empirical, values, nil),
		floats.Max(values))
}

func init() {
	RootCmd.AddCommand(infoCmd)

	infoCmd.Flags().StringP("index", "d", "",
		formatFlagUsage(`Index directory created by "nsearch index".`))

	infoCmd.Flags().BoolP("stats", "s", false,
		formatFlagUsage(`Load the index and compute statistics of sequence lengths and postings lists.`))

	infoCmd.SetUsageTemplate(usageTemplate("-d <index path>"))
}
