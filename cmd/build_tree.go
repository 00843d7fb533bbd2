package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bio-ngs/pepsa/internal/protmap"
	"github.com/bio-ngs/pepsa/internal/sufftree"
)

// buildTreeCmd drives the legacy generalized-suffix-tree path: it
// exists alongside `build`/`search` as a collaborator-grade
// alternative, not the focus of testing effort, kept because it can
// answer substring-containment queries directly against a FASTA file
// with no taxonomy and no sampled-SA densification step.
var buildTreeCmd = &cobra.Command{
	Use:   "build-tree [flags] <fasta file(s)>",
	Short: "Build a generalized suffix tree from FASTA files and search it (legacy path)",
	Long: `Build a generalized suffix tree from FASTA files and search it

This is the legacy alternative to the suffix-array index: no sampling,
no LCA* aggregation, no taxonomy, just substring containment over
protein sequences read from FASTA files given as positional arguments
or via --infile-list.
`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		logFile := ""
		if opt.Log2File {
			logFile = opt.LogFile
		}
		fhLog := addLog(logFile, opt.Verbose)
		outputLog := opt.Verbose || opt.Log2File

		timeStart := time.Now()
		defer func() {
			if outputLog {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
			}
			if fhLog != nil {
				fhLog.Close()
			}
		}()

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", false)
		searchFile := getFlagString(cmd, "search-file")

		if outputLog {
			log.Infof("reading %d FASTA file(s)", len(files))
		}
		txt, err := sufftree.LoadFASTA(files...)
		checkError(err)
		if outputLog {
			log.Infof("read %d records, %d bytes", len(txt.Proteins), txt.Len())
			log.Info("building suffix tree...")
		}

		tree := sufftree.Build(txt.Bytes)
		loc := protmap.BuildSparse(txt)

		peptides, err := readPeptides(searchFile)
		checkError(err)

		w := bufio.NewWriter(os.Stdout)
		defer w.Flush()

		for _, peptide := range peptides {
			hits := tree.Search([]byte(strings.ToUpper(peptide)), txt, loc)
			if len(hits) == 0 {
				fmt.Fprintln(w, "/")
				continue
			}
			ids := make([]string, len(hits))
			for i, h := range hits {
				ids[i] = h.UniProtID
			}
			fmt.Fprintln(w, strings.Join(ids, ","))
		}
	},
}

func init() {
	rootCmd.AddCommand(buildTreeCmd)

	buildTreeCmd.Flags().String("infile-list", "", "file holding protein FASTA paths, one per line")
	buildTreeCmd.Flags().String("search-file", "", "peptide file, one per line (else interactive stdin)")
}
