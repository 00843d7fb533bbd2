package cmd

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"

	"github.com/bio-ngs/pepsa/internal/dispatch"
	"github.com/bio-ngs/pepsa/internal/ingest"
	"github.com/bio-ngs/pepsa/internal/protmap"
	"github.com/bio-ngs/pepsa/internal/sacodec"
	"github.com/bio-ngs/pepsa/internal/searcher"
	"github.com/bio-ngs/pepsa/internal/suffixarray"
	"github.com/bio-ngs/pepsa/internal/taxonomy"
	"github.com/bio-ngs/pepsa/internal/text"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search peptides against a suffix-array index",
	Long: `Search peptides against a suffix-array index

Either builds the index from --database-file/--taxonomy, or loads a
previously built one via --load-index (which overrides --sample-rate).
Peptides are read one per line from --search-file, or interactively
from stdin if omitted, and dispatched across a worker pool; output
ordering matches input ordering regardless of completion order.
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

		modeStr := getFlagString(cmd, "mode")
		mode, err := parseMode(modeStr)
		checkError(err)

		dbFile := expandPath(getFlagString(cmd, "database-file"))
		taxonomyFile := expandPath(getFlagString(cmd, "taxonomy"))
		if taxonomyFile == "" {
			checkError(fmt.Errorf("flag --taxonomy is required"))
		}
		loadIndex := expandPath(getFlagString(cmd, "load-index"))
		sampleRate := getFlagInt(cmd, "sample-rate")
		mappingKind := getFlagString(cmd, "suffix-to-protein-mapping")
		algorithm := getFlagString(cmd, "construction-algorithm")
		cutoff := getFlagPositiveInt(cmd, "cutoff")
		equalizeIL := getFlagBool(cmd, "equalize-i-and-l")
		searchFile := expandPath(getFlagString(cmd, "search-file"))
		outFile := expandPath(getFlagString(cmd, "out-file"))

		if outputLog {
			log.Infof("loading taxonomy: %s", taxonomyFile)
		}
		tax, err := taxonomy.Load(taxonomyFile)
		checkError(err)
		snapper := tax.NewSnapper("")

		if dbFile == "" {
			checkError(fmt.Errorf("flag --database-file is required"))
		}
		if outputLog {
			log.Infof("ingesting database: %s", dbFile)
		}
		txt, stats, err := ingest.Load(dbFile, tax)
		checkError(err)
		if outputLog {
			log.Infof("accepted %d proteins, skipped %d rows with unknown taxon ids", stats.Accepted, stats.Skipped)
		}

		// The SA must be built over, and compared against, the same byte
		// sequence; with I/L equivalence that is a canonicalized copy of
		// the text, the raw text staying around for residue reporting.
		searchBytes := txt.Bytes
		if equalizeIL {
			searchBytes = text.CanonicalizeIL(txt.Bytes)
		}

		var sa []int64
		var k uint8
		if loadIndex != "" {
			if outputLog {
				log.Infof("loading index: %s", loadIndex)
			}
			k, sa, err = sacodec.Read(loadIndex)
			checkError(err)
		} else {
			if sampleRate < 1 || sampleRate > 255 {
				checkError(fmt.Errorf("--sample-rate must be in [1,255]"))
			}
			k = uint8(sampleRate)
			if outputLog {
				log.Infof("building suffix array (algorithm=%s)...", algorithm)
			}
			full, err := suffixarray.Build(searchBytes, algorithm)
			checkError(err)
			sa = suffixarray.Sample(full, k)
		}
		if outputLog {
			log.Infof("sampled suffix array has %d entries (k=%d)", len(sa), k)
		}

		var locator protmap.Locator
		switch mappingKind {
		case "dense":
			locator = protmap.BuildDense(txt)
		case "sparse", "":
			locator = protmap.BuildSparse(txt)
		default:
			checkError(fmt.Errorf("invalid --suffix-to-protein-mapping: %s", mappingKind))
		}

		s := &searcher.Searcher{
			Text:        txt,
			SearchBytes: searchBytes,
			SA:          sa,
			K:           k,
			Locator:     locator,
			Taxonomy:    tax,
			Snapper:     snapper,
			EqualizeIL:  equalizeIL,
			CutoffLimit: cutoff,
		}

		peptides, err := readPeptides(searchFile)
		checkError(err)
		if outputLog {
			log.Infof("searching %d peptides with %d workers", len(peptides), opt.NumCPUs)
		}

		w, gw, fh, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), -1)
		checkError(err)
		defer func() {
			w.Flush()
			if gw != nil {
				gw.Close()
			}
			fh.Close()
		}()

		err = dispatch.Run(s, peptides, mode, opt.NumCPUs, func(line string) {
			w.WriteString(line)
			w.WriteByte('\n')
		})
		checkError(err)
	},
}

func parseMode(s string) (dispatch.Mode, error) {
	switch s {
	case "match":
		return dispatch.ModeMatch, nil
	case "min-max-bound":
		return dispatch.ModeMinMaxBound, nil
	case "all-occurrences":
		return dispatch.ModeAllOccurrences, nil
	case "taxon-id":
		return dispatch.ModeTaxonID, nil
	case "analyses":
		return dispatch.ModeAnalyses, nil
	case "":
		return 0, fmt.Errorf("mode missing: pass --mode")
	default:
		return 0, fmt.Errorf("unknown mode: %s", s)
	}
}

// readPeptides reads one peptide per line from path (xopen-transparent
// gzip/plain), or interactively from stdin if path is empty.
func readPeptides(path string) ([]string, error) {
	var fh *xopen.Reader
	var err error
	if path == "" {
		fh, err = xopen.Ropen("-")
	} else {
		fh, err = xopen.Ropen(path)
	}
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var peptides []string
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		peptides = append(peptides, line)
	}
	return peptides, scanner.Err()
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("database-file", "", "protein database TSV (required)")
	searchCmd.Flags().String("taxonomy", "", "taxonomy TSV (required)")
	searchCmd.Flags().String("search-file", "", "peptide file, one per line (else interactive stdin)")
	searchCmd.Flags().StringP("out-file", "o", "-", `result file ("-" for stdout, .gz suffix enables gzip)`)
	searchCmd.Flags().String("mode", "", "match|min-max-bound|all-occurrences|taxon-id|analyses")
	searchCmd.Flags().String("load-index", "", "load a previously built index instead of building one")
	searchCmd.Flags().Int("sample-rate", 1, "suffix array sample rate k (ignored if --load-index is set)")
	searchCmd.Flags().String("suffix-to-protein-mapping", "sparse", "dense|sparse")
	searchCmd.Flags().String("construction-algorithm", suffixArrayDefaultAlgorithm, "lib-sais|naive")
	searchCmd.Flags().Int("cutoff", 10000, "maximum matches before TaxonId collapses to the taxonomy root")
	searchCmd.Flags().Bool("equalize-i-and-l", false, "treat I and L as equivalent during matching (a loaded index must have been built with the same flag)")
}
