// Package dispatch is the parallel query driver: given the queries the
// caller has read, it runs a search mode per query on a bounded worker
// pool, and emits
// results in input order even though workers race ahead out of order.
//
// A single writer goroutine drains a channel of index-tagged results
// while worker goroutines produce them out of order; short-lived
// result envelopes are reused via sync.Pool for high query-rate
// workloads.
package dispatch

import (
	"sync"

	"github.com/bio-ngs/pepsa/internal/pepsaerr"
	"github.com/bio-ngs/pepsa/internal/searcher"
)

// Mode selects which Searcher operation a query is run through.
type Mode int

const (
	ModeMatch Mode = iota
	ModeMinMaxBound
	ModeAllOccurrences
	ModeTaxonID
	ModeAnalyses
)

// jobResult pairs a query's input line index with its rendered output
// line, so the writer goroutine can re-establish input order.
type jobResult struct {
	idx  int
	line string
}

var poolResult = sync.Pool{New: func() interface{} { return new(jobResult) }}

// Run executes mode over every peptide in peptides using a pool of
// nWorkers goroutines, calling emit(line) once per input peptide, in
// input order. render turns one query's outcome into its output line;
// it must be safe to call concurrently (it only reads s and its
// arguments).
//
// A fatal error (anything but KindPeptideTooShort, see pepsaerr.IsFatal)
// aborts the whole run: remaining jobs are drained without being
// rendered, and the first fatal error observed is returned so the
// caller can abort the process instead of treating it as just another
// output line.
func Run(s *searcher.Searcher, peptides []string, mode Mode, nWorkers int, emit func(line string)) error {
	if nWorkers < 1 {
		nWorkers = 1
	}

	jobs := make(chan int, nWorkers*4)
	results := make(chan *jobResult, nWorkers*4)

	var mu sync.Mutex
	var fatalErr error
	setFatal := func(err error) {
		mu.Lock()
		if fatalErr == nil {
			fatalErr = err
		}
		mu.Unlock()
	}
	getFatal := func() error {
		mu.Lock()
		defer mu.Unlock()
		return fatalErr
	}

	var wg sync.WaitGroup
	wg.Add(nWorkers)
	for w := 0; w < nWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if getFatal() != nil {
					continue
				}
				line, err := render(s, peptides[idx], mode)
				if err != nil {
					setFatal(err)
					continue
				}
				r := poolResult.Get().(*jobResult)
				r.idx = idx
				r.line = line
				results <- r
			}
		}()
	}

	go func() {
		for i := range peptides {
			jobs <- i
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Re-order results into input order, holding out-of-order arrivals
	// in a small pending buffer keyed by index, without forcing workers
	// to run in lockstep.
	pending := make(map[int]string)
	next := 0
	for r := range results {
		pending[r.idx] = r.line
		poolResult.Put(r)
		for {
			l, ok := pending[next]
			if !ok {
				break
			}
			emit(l)
			delete(pending, next)
			next++
		}
	}

	return getFatal()
}

// render runs one query through the selected mode and formats its
// result line. A non-fatal per-query error (KindPeptideTooShort) becomes
// an output line; a fatal error is returned instead so Run can abort.
func render(s *searcher.Searcher, peptide string, mode Mode) (string, error) {
	q := []byte(peptide)
	switch mode {
	case ModeMatch:
		ok, err := s.Match(q)
		if err != nil {
			if pepsaerr.IsFatal(err) {
				return "", err
			}
			return formatErr(err), nil
		}
		if ok {
			return "true", nil
		}
		return "false", nil

	case ModeMinMaxBound:
		found, b, err := s.MinMaxBound(q)
		if err != nil {
			if pepsaerr.IsFatal(err) {
				return "", err
			}
			return formatErr(err), nil
		}
		if !found {
			return "/", nil
		}
		return formatBounds(b.Lo, b.Hi), nil

	case ModeAllOccurrences:
		hits, err := s.AllOccurrences(q)
		if err != nil {
			if pepsaerr.IsFatal(err) {
				return "", err
			}
			return formatErr(err), nil
		}
		if len(hits) == 0 {
			return "/", nil
		}
		return formatHits(hits), nil

	case ModeTaxonID:
		id, found, err := s.TaxonID(q)
		if err != nil {
			if pepsaerr.IsFatal(err) {
				return "", err
			}
			return formatErr(err), nil
		}
		if !found {
			return "/", nil
		}
		return formatTaxon(id), nil

	case ModeAnalyses:
		id, found, hits, err := s.Analyses(q)
		if err != nil {
			if pepsaerr.IsFatal(err) {
				return "", err
			}
			return formatErr(err), nil
		}
		return formatAnalyses(found, id, hits), nil

	default:
		return "/", nil
	}
}
