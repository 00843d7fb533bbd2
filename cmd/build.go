package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"

	"github.com/bio-ngs/pepsa/internal/ingest"
	"github.com/bio-ngs/pepsa/internal/sacodec"
	"github.com/bio-ngs/pepsa/internal/suffixarray"
	"github.com/bio-ngs/pepsa/internal/taxonomy"
	"github.com/bio-ngs/pepsa/internal/text"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a suffix-array index from a protein database and taxonomy",
	Long: `Build a suffix-array index from a protein database and taxonomy

Reads the protein database TSV (uniprot_id, taxon_id, sequence) and the
taxonomy TSV, constructs the concatenated text, builds and samples the
full suffix array, and writes the index file per --output.
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

		dbFile := expandPath(getFlagString(cmd, "database-file"))
		if dbFile == "" {
			checkError(fmt.Errorf("flag --database-file is required"))
		}
		taxonomyFile := expandPath(getFlagString(cmd, "taxonomy"))
		if taxonomyFile == "" {
			checkError(fmt.Errorf("flag --taxonomy is required"))
		}
		outFile := expandPath(getFlagString(cmd, "output"))
		outTextFile := expandPath(getFlagString(cmd, "output-text"))
		sampleRate := getFlagInt(cmd, "sample-rate")
		if sampleRate < 1 || sampleRate > 255 {
			checkError(fmt.Errorf("--sample-rate must be in [1,255]"))
		}
		algorithm := getFlagString(cmd, "construction-algorithm")
		buildOnly := getFlagBool(cmd, "build-only")
		equalizeIL := getFlagBool(cmd, "equalize-i-and-l")
		chunkSize, err := ParseByteSize(getFlagString(cmd, "chunk-size"))
		checkError(err)
		if chunkSize < 8 {
			checkError(fmt.Errorf("--chunk-size too small: %s", getFlagString(cmd, "chunk-size")))
		}

		if outFile != "" {
			exists, err := pathutil.Exists(outFile)
			checkError(err)
			if exists && !getFlagBool(cmd, "force") {
				checkError(fmt.Errorf("output file already exists: %s (use --force to overwrite)", outFile))
			}
		}

		if outputLog {
			log.Infof("loading taxonomy: %s", taxonomyFile)
		}
		tax, err := taxonomy.Load(taxonomyFile)
		checkError(err)

		if outputLog {
			log.Infof("ingesting database: %s", dbFile)
		}
		txt, stats, err := ingest.Load(dbFile, tax)
		checkError(err)
		if outputLog {
			log.Infof("accepted %d proteins, skipped %d rows with unknown taxon ids", stats.Accepted, stats.Skipped)
			log.Infof("text size: %s", humanize.Bytes(uint64(txt.Len())))
		}

		// An index built over I/L-canonicalized text can only be searched
		// with the same flag: the serialized form carries no marker, the
		// pairing is the caller's contract, like text/index consistency.
		searchBytes := txt.Bytes
		if equalizeIL {
			searchBytes = text.CanonicalizeIL(txt.Bytes)
		}

		if outputLog {
			log.Infof("building suffix array (algorithm=%s)...", algorithm)
		}
		sa, err := suffixarray.Build(searchBytes, algorithm)
		checkError(err)

		sampled := suffixarray.Sample(sa, uint8(sampleRate))
		if outputLog {
			log.Infof("sampled suffix array: %d of %d entries (k=%d)", len(sampled), len(sa), sampleRate)
		}

		if buildOnly {
			if outputLog {
				log.Info("--build-only given, not writing an index file")
			}
			return
		}

		if outFile == "" {
			checkError(fmt.Errorf("flag --output is required unless --build-only is given"))
		}
		if err := sacodec.Write(outFile, uint8(sampleRate), sampled, int(chunkSize), opt.Verbose); err != nil {
			checkError(err)
		}
		if outputLog {
			log.Infof("wrote index: %s", outFile)
		}

		if outTextFile != "" {
			checkError(sacodec.WriteText(outTextFile, txt.Bytes, int(chunkSize)))
			if outputLog {
				log.Infof("wrote text image: %s", outTextFile)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().String("database-file", "", "protein database TSV (required)")
	buildCmd.Flags().String("taxonomy", "", "taxonomy TSV (required)")
	buildCmd.Flags().String("output", "", "write the built index to this path")
	buildCmd.Flags().String("output-text", "", "also write the raw text image to this path (legacy sibling file)")
	buildCmd.Flags().Int("sample-rate", 1, "suffix array sample rate k")
	buildCmd.Flags().String("construction-algorithm", suffixArrayDefaultAlgorithm, "lib-sais|naive")
	buildCmd.Flags().Bool("equalize-i-and-l", false, "build the index over I/L-equalized text (search must pass the same flag)")
	buildCmd.Flags().Bool("build-only", false, "build the index in memory but do not write it")
	buildCmd.Flags().Bool("force", false, "overwrite an existing output file")
	buildCmd.Flags().String("chunk-size", "1G", "index write chunk size, with K/M/G suffix")
}

const suffixArrayDefaultAlgorithm = "lib-sais"
