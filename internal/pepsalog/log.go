// Package pepsalog wires a single shenwei356/go-logging backend used by
// every command and internal package, following the package-level `log`
// var convention used throughout the shenwei356 tool family.
package pepsalog

import (
	"os"

	"github.com/mattn/go-colorable"
	logging "github.com/shenwei356/go-logging"
)

// Log is the shared logger instance. It is configured once by Init and
// is safe to call concurrently from worker goroutines thereafter.
var Log = logging.MustGetLogger("pepsa")

var format = logging.MustStringFormatter(
	`%{color}[%{level:.4s}]%{color:reset} %{message}`,
)

func init() {
	backend := logging.NewLogBackend(colorable.NewColorableStderr(), "", 0)
	backendFormatter := logging.NewBackendFormatter(backend, format)
	logging.SetBackend(backendFormatter)
	logging.SetLevel(logging.NOTICE, "pepsa")
}

// Init adjusts verbosity and optionally tees logging to a file.
func Init(verbose bool, logFile string) (*os.File, error) {
	if verbose {
		logging.SetLevel(logging.INFO, "pepsa")
	} else {
		logging.SetLevel(logging.NOTICE, "pepsa")
	}

	if logFile == "" {
		return nil, nil
	}

	fh, err := os.Create(logFile)
	if err != nil {
		return nil, err
	}

	fileBackend := logging.NewLogBackend(fh, "", 0)
	fileFormatter := logging.NewBackendFormatter(fileBackend, format)
	stderrBackend := logging.NewLogBackend(colorable.NewColorableStderr(), "", 0)
	stderrFormatter := logging.NewBackendFormatter(stderrBackend, format)
	logging.SetBackend(stderrFormatter, fileFormatter)

	if verbose {
		logging.SetLevel(logging.INFO, "pepsa")
	} else {
		logging.SetLevel(logging.NOTICE, "pepsa")
	}

	return fh, nil
}
