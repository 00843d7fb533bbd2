// Package suffixarray constructs the full suffix array of a delimited
// protein text and sub-samples it by a factor k.
//
// Any induced-sorting suffix-array algorithm (e.g. libsais / DivSufSort)
// is an acceptable construction backend; this module ships a pure-Go
// comparator-based sort as the default "naive" algorithm (see DESIGN.md
// for why no third-party induced-sort library could serve the
// induced-sort step itself) and leaves the --construction-algorithm
// namespace open for a future cgo libsais binding without committing
// the CLI surface to one implementation.
package suffixarray

import (
	"github.com/twotwotwo/sorts"

	"github.com/bio-ngs/pepsa/internal/pepsaerr"
)

// Algorithm names accepted by --construction-algorithm.
const (
	AlgorithmNaive   = "naive"
	AlgorithmLibsais = "lib-sais"
)

// Build constructs the full suffix array of text (length N), returning
// a slice of N suffix-start offsets in ascending lexicographic order of
// the suffixes they name. algorithm selects the construction strategy;
// unrecognized values fall back to AlgorithmNaive.
func Build(text []byte, algorithm string) ([]int64, error) {
	n := len(text)
	if n == 0 {
		return nil, pepsaerr.New(pepsaerr.KindBuildFailure, "cannot build a suffix array of an empty text")
	}

	switch algorithm {
	case AlgorithmLibsais:
		// No cgo libsais binding is vendored in this module; fall
		// through to the reference comparator sort so --construction-algorithm
		// lib-sais still produces a correct (if slower) result.
		fallthrough
	default:
		return buildNaive(text), nil
	}
}

// buildNaive sorts suffix start offsets directly by byte-wise
// comparison of the suffixes they name. O(N^2 log N) worst case; kept
// simple and obviously correct since it is the baseline every sampled
// and densified search result is checked against. Sorting runs through
// sorts.Quicksort rather than sort.Slice so the comparator sort spreads
// across GOMAXPROCS.
func buildNaive(text []byte) []int64 {
	n := len(text)
	sa := make([]int64, n)
	for i := range sa {
		sa[i] = int64(i)
	}
	sorts.Quicksort(bySuffix{sa: sa, text: text})
	return sa
}

// bySuffix adapts a candidate suffix array to sort.Interface so it can
// be sorted by lessSuffix via sorts.Quicksort.
type bySuffix struct {
	sa   []int64
	text []byte
}

func (b bySuffix) Len() int      { return len(b.sa) }
func (b bySuffix) Swap(i, j int) { b.sa[i], b.sa[j] = b.sa[j], b.sa[i] }
func (b bySuffix) Less(i, j int) bool {
	return lessSuffix(b.text, int(b.sa[i]), int(b.sa[j]))
}

// lessSuffix reports whether the suffix starting at a sorts strictly
// before the suffix starting at b.
func lessSuffix(text []byte, a, b int) bool {
	n := len(text)
	for a < n && b < n {
		ca, cb := text[a], text[b]
		if ca != cb {
			return ca < cb
		}
		a++
		b++
	}
	return a == n && b != n
}
