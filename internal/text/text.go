// Package text owns the concatenated protein text and per-protein
// metadata that every other component in the search engine indexes
// against.
package text

// TaxonID identifies a node in the NCBI taxonomy tree. Zero means "no
// taxon" / unknown.
type TaxonID uint32

const (
	// Separation delimits consecutive proteins in the concatenated text.
	Separation byte = '-'
	// Termination marks the single end of the text.
	Termination byte = '$'
)

// Protein describes one ingested protein's placement inside Text.
type Protein struct {
	UniProtID string
	Start     int
	Length    uint32
	TaxonID   TaxonID
}

// Sequence returns the protein's raw bytes out of t.
func (p *Protein) Sequence(t []byte) []byte {
	return t[p.Start : p.Start+int(p.Length)]
}

// CanonicalizeIL returns a copy of b with every 'L' rewritten to 'I',
// the equivalence class applied when isoleucine and leucine are treated
// as indistinguishable during search.
func CanonicalizeIL(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c == 'L' {
			out[i] = 'I'
		} else {
			out[i] = c
		}
	}
	return out
}

// Text is the immutable concatenated corpus plus its protein table.
// Once built it is shared read-only across all search goroutines.
type Text struct {
	Bytes    []byte
	Proteins []Protein
}

// Len returns len(t.Bytes), i.e. N including the terminator.
func (t *Text) Len() int {
	return len(t.Bytes)
}

// Builder accumulates protein rows into a single delimited buffer with
// a single-pass accept-or-skip loop.
type Builder struct {
	buf      []byte
	proteins []Protein
	first    bool
}

// NewBuilder returns a Builder with capacity hints for a corpus of
// approximately n proteins totaling approxBytes residues.
func NewBuilder(n int, approxBytes int) *Builder {
	return &Builder{
		buf:      make([]byte, 0, approxBytes+n+1),
		proteins: make([]Protein, 0, n),
		first:    true,
	}
}

// Add appends one accepted protein row. seq must already be uppercased.
func (b *Builder) Add(uniProtID string, seq []byte, taxonID TaxonID) {
	if !b.first {
		b.buf = append(b.buf, Separation)
	}
	b.first = false

	start := len(b.buf)
	b.buf = append(b.buf, seq...)

	b.proteins = append(b.proteins, Protein{
		UniProtID: uniProtID,
		Start:     start,
		Length:    uint32(len(seq)),
		TaxonID:   taxonID,
	})
}

// Build finalizes the buffer with the termination byte and shrinks it
// to fit, returning the immutable Text.
func (b *Builder) Build() *Text {
	b.buf = append(b.buf, Termination)

	shrunk := make([]byte, len(b.buf))
	copy(shrunk, b.buf)

	return &Text{Bytes: shrunk, Proteins: b.proteins}
}

// NumProteins returns the number of accepted rows so far.
func (b *Builder) NumProteins() int {
	return len(b.proteins)
}
