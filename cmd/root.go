// Copyright © 2024 pepsa contributors
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
	"runtime"

	"github.com/spf13/cobra"

	"github.com/bio-ngs/pepsa/internal/pepsalog"
)

var log = pepsalog.Log

// Options holds the persistent flags shared by every subcommand.
type Options struct {
	NumCPUs  int
	Verbose  bool
	Log2File bool
	LogFile  string
}

var rootCmd = &cobra.Command{
	Use:   "pepsa",
	Short: "Peptide suffix-array search engine with LCA* taxonomic aggregation",
	Long: `pepsa builds a sampled suffix array over a concatenated protein
database and answers peptide existence, bound, enumeration, and
lowest-common-ancestor queries against it.`,
}

// Execute runs the root command; called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntP("threads", "j", runtime.NumCPU(), "number of worker threads")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print verbose progress information")
	rootCmd.PersistentFlags().Bool("log2file", false, "also write the log to a file alongside stderr")
	rootCmd.PersistentFlags().String("log-file", "", "log file path (used with --log2file)")
}

func getOptions(cmd *cobra.Command) *Options {
	return &Options{
		NumCPUs:  getFlagPositiveInt(cmd, "threads"),
		Verbose:  getFlagBool(cmd, "verbose"),
		Log2File: getFlagBool(cmd, "log2file"),
		LogFile:  getFlagString(cmd, "log-file"),
	}
}

// checkError aborts the process with a logged message. Build and load
// failures are unrecoverable for the whole run, unlike a single query's
// failure, which is reported and skipped instead.
func checkError(err error) {
	if err == nil {
		return
	}
	log.Error(err)
	os.Exit(1)
}

func addLog(logFile string, verbose bool) *os.File {
	fh, err := pepsalog.Init(verbose, logFile)
	checkError(err)
	return fh
}
