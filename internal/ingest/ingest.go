// Package ingest reads the protein database TSV (uniprot_id,
// ncbi_taxon_id, sequence[, ...]) into a text.Text.
package ingest

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/breader"

	"github.com/bio-ngs/pepsa/internal/pepsaerr"
	"github.com/bio-ngs/pepsa/internal/text"
)

func init() {
	// The database is trusted, pre-generated bulk input; skip biogo's
	// per-residue alphabet validation on the hot ingestion path.
	seq.ValidateSeq = false
}

// TaxonValidator answers "is this taxon id known", letting ingest skip
// rows with an unrecognized taxon without importing the taxonomy
// package directly (keeping the dependency direction one-way).
type TaxonValidator interface {
	Valid(id text.TaxonID) bool
}

// Stats reports ingestion outcomes for diagnostics.
type Stats struct {
	Accepted int
	Skipped  int // rows dropped for an unknown taxon id
}

// row mirrors one parsed database TSV line: uniprot_id, taxon_id,
// sequence. Validity against the taxonomy is checked after parsing,
// not inside parseFunc, since breader's chunks are produced by
// multiple worker goroutines and Stats must only ever be touched from
// the single reader.Ch consumer loop below.
type row struct {
	uniProtID string
	taxonID   text.TaxonID
	sequence  string
}

// Load reads the TSV at path, skipping rows whose taxon id the
// validator rejects (silently; Stats.Skipped counts them for
// diagnostics), and returns the assembled Text. A malformed row is
// fatal for the whole load: no Text is returned, partial or otherwise.
func Load(path string, validator TaxonValidator) (*text.Text, Stats, error) {
	parseFunc := func(line string) (interface{}, bool, error) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return nil, false, nil
		}
		fields := strings.SplitN(line, "\t", 4)
		if len(fields) < 3 {
			return nil, false, pepsaerr.New(pepsaerr.KindDatabaseFormat,
				"expected 3 tab-separated fields, got "+strconv.Itoa(len(fields))+": "+line)
		}
		taxonIDVal, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, false, pepsaerr.New(pepsaerr.KindDatabaseFormat, "bad taxon id: "+fields[1])
		}
		return row{uniProtID: fields[0], taxonID: text.TaxonID(taxonIDVal), sequence: fields[2]}, true, nil
	}

	reader, err := breader.NewBufferedReader(path, 4, 100, parseFunc)
	if err != nil {
		return nil, Stats{}, errors.Wrap(err, "ingest: open "+path)
	}

	b := text.NewBuilder(4096, 4096*300)
	var stats Stats

	// breader's parser goroutines may deliver chunks out of file order.
	// The concatenated text is positional (an index built in one process
	// must line up with the text rebuilt in another), so chunks are
	// re-ordered by their ID before any row reaches the builder.
	var nextID uint64
	pending := make(map[uint64][]interface{})
	for chunk := range reader.Ch {
		if chunk.Err != nil {
			return nil, Stats{}, errors.Wrap(chunk.Err, "ingest: parse "+path)
		}
		pending[chunk.ID] = chunk.Data
		for {
			data, ok := pending[nextID]
			if !ok {
				break
			}
			delete(pending, nextID)
			nextID++
			for _, d := range data {
				r := d.(row)
				if !validator.Valid(r.taxonID) {
					stats.Skipped++
					continue
				}
				b.Add(r.uniProtID, []byte(strings.ToUpper(r.sequence)), r.taxonID)
				stats.Accepted++
			}
		}
	}

	return b.Build(), stats, nil
}
