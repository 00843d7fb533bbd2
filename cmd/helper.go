package cmd

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

func getFlagString(cmd *cobra.Command, flag string) string {
	s, err := cmd.Flags().GetString(flag)
	checkError(err)
	return s
}

func getFlagBool(cmd *cobra.Command, flag string) bool {
	b, err := cmd.Flags().GetBool(flag)
	checkError(err)
	return b
}

func getFlagInt(cmd *cobra.Command, flag string) int {
	i, err := cmd.Flags().GetInt(flag)
	checkError(err)
	return i
}

func getFlagPositiveInt(cmd *cobra.Command, flag string) int {
	i := getFlagInt(cmd, flag)
	if i <= 0 {
		checkError(fmt.Errorf("value of flag --%s should be positive", flag))
	}
	return i
}

// expandPath resolves a leading ~ the way flags elsewhere in this CLI
// accept home-relative paths.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

func isStdin(path string) bool {
	return path == "-"
}

// getFileListFromArgsAndFile assembles the input file list from
// positional args and an optional --infile-list flag, falling back to
// stdin ("-") when nothing is given and allowEmpty is true.
func getFileListFromArgsAndFile(cmd *cobra.Command, args []string, checkFile bool, listFlag string, allowEmpty bool) []string {
	files := make([]string, 0, len(args))
	for _, a := range args {
		files = append(files, expandPath(a))
	}

	if listFlag != "" {
		listFile := getFlagString(cmd, listFlag)
		if listFile != "" {
			fh, err := os.Open(listFile)
			checkError(err)
			scanner := bufio.NewScanner(fh)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				files = append(files, expandPath(line))
			}
			checkError(scanner.Err())
			checkError(fh.Close())
		}
	}

	if len(files) == 0 {
		if allowEmpty {
			return []string{"-"}
		}
		checkError(fmt.Errorf("no input files given"))
	}

	if checkFile {
		for _, f := range files {
			if isStdin(f) {
				continue
			}
			if _, err := os.Stat(f); err != nil {
				checkError(fmt.Errorf("file not found: %s", f))
			}
		}
	}

	return files
}

// outStream opens outFile ("-" for stdout) for writing, optionally
// gzip-compressed.
func outStream(outFile string, gzipped bool, level int) (*bufio.Writer, *gzip.Writer, io.WriteCloser, error) {
	var w io.WriteCloser
	if outFile == "-" || outFile == "" {
		w = nopCloser{os.Stdout}
	} else {
		f, err := os.Create(outFile)
		if err != nil {
			return nil, nil, nil, err
		}
		w = f
	}

	if gzipped {
		gw, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, nil, nil, err
		}
		return bufio.NewWriter(gw), gw, w, nil
	}
	return bufio.NewWriter(w), nil, w, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// ParseByteSize parses human-friendly byte sizes with K/M/G suffixes,
// used by flags that accept a buffer-size string.
func ParseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}
	re := regexp.MustCompile(`(?i)^([0-9.]+)\s*([KMGT]?)B?$`)
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size: %s", s)
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, err
	}
	mult := 1.0
	switch strings.ToUpper(m[2]) {
	case "K":
		mult = 1 << 10
	case "M":
		mult = 1 << 20
	case "G":
		mult = 1 << 30
	case "T":
		mult = 1 << 40
	}
	return int64(val * mult), nil
}
