package dispatch

import (
	"strconv"
	"strings"

	"github.com/bio-ngs/pepsa/internal/searcher"
	"github.com/bio-ngs/pepsa/internal/text"
)

// formatErr renders a non-fatal per-query error (a too-short peptide) as
// a diagnostic in that query's output line rather than killing the
// worker pool. An empty result is not an error and renders as "/".
func formatErr(err error) string {
	return "/ (" + err.Error() + ")"
}

func formatBounds(lo, hi int) string {
	return "[" + strconv.Itoa(lo) + "," + strconv.Itoa(hi) + "]"
}

func formatHits(hits []searcher.ProteinHit) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.UniProtID + ":" + string(h.Sequence)
	}
	return strings.Join(parts, ",")
}

func formatTaxon(id text.TaxonID) string {
	return strconv.FormatUint(uint64(id), 10)
}

func formatAnalyses(found bool, id text.TaxonID, hits []searcher.ProteinHit) string {
	taxonPart := "/"
	if found {
		taxonPart = formatTaxon(id)
	}
	if len(hits) == 0 {
		return taxonPart + "\t/"
	}
	return taxonPart + "\t" + formatHits(hits)
}
