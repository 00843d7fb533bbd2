// Package searcher implements binary-search location of the SA
// interval matching a peptide, sampled-SA densification, protein
// resolution, and LCA* invocation.
package searcher

import (
	"sort"

	"github.com/bio-ngs/pepsa/internal/pepsaerr"
	"github.com/bio-ngs/pepsa/internal/protmap"
	"github.com/bio-ngs/pepsa/internal/taxonomy"
	"github.com/bio-ngs/pepsa/internal/text"
)

// Searcher holds read-only references to the immutable index and
// answers peptide queries. It is safe for concurrent use by many
// goroutines: all of its fields are shared, read-only borrows.
type Searcher struct {
	Text *text.Text
	// SearchBytes is the byte sequence the suffix array was built over
	// and the one every comparison runs against: Text.Bytes itself, or
	// an I/L-canonicalized copy when EqualizeIL is set (a canonicalizing
	// comparator over a raw-sorted SA is not monotonic, so the SA order
	// and the comparator must see the same bytes). Nil falls back to
	// Text.Bytes. The raw Text is kept for reporting the real matched
	// residues.
	SearchBytes []byte
	SA          []int64 // sampled SA, SA[i] always divisible by K
	K           uint8
	Locator     protmap.Locator
	Taxonomy    *taxonomy.Taxonomy
	Snapper     *taxonomy.Snapper
	EqualizeIL  bool
	CutoffLimit int
}

func (s *Searcher) searchText() []byte {
	if s.SearchBytes != nil {
		return s.SearchBytes
	}
	return s.Text.Bytes
}

// Bounds is an inclusive [Lo, Hi] interval into Searcher.SA.
type Bounds struct {
	Lo, Hi int // Hi < Lo means "not found"
}

// Found reports whether b names a non-empty interval.
func (b Bounds) Found() bool {
	return b.Lo <= b.Hi
}

// canonicalizePeptide rewrites L->I across q when I/L equivalence is on,
// matching the canonicalization SearchBytes received at construction.
func (s *Searcher) canonicalizePeptide(q []byte) []byte {
	if !s.EqualizeIL {
		return q
	}
	return text.CanonicalizeIL(q)
}

// compareSuffix compares peptide q (length m, already canonicalized)
// against SearchBytes[offset..], bounded by m. Returns <0, 0, or >0 as
// q is less than, a prefix-match of, or greater than the suffix. Plain
// byte comparison keeps the predicate monotonic over the SA, which was
// built over these same bytes.
func (s *Searcher) compareSuffix(q []byte, offset int) int {
	t := s.searchText()
	n := len(t)
	for i, qb := range q {
		pos := offset + i
		if pos >= n {
			return 1 // q extends past the text; suffix is a proper prefix of q
		}
		tb := t[pos]
		if qb != tb {
			if qb < tb {
				return -1
			}
			return 1
		}
	}
	return 0
}

// hasPrefixAt reports whether SearchBytes[offset..offset+len(q)] equals
// the canonicalized q exactly, i.e. a true occurrence, not merely
// "q <= suffix".
func (s *Searcher) hasPrefixAt(q []byte, offset int) bool {
	t := s.searchText()
	if offset < 0 || offset+len(q) > len(t) {
		return false
	}
	for i, qb := range q {
		if qb != t[offset+i] {
			return false
		}
	}
	return true
}

// locate performs the two binary searches over sa, returning the
// inclusive bounds of entries whose suffix begins with q.
func (s *Searcher) locate(sa []int64, q []byte) Bounds {
	n := len(sa)
	// leftmost j with suffix(j) >= q
	lo := sort.Search(n, func(j int) bool {
		return s.compareSuffix(q, int(sa[j])) <= 0
	})
	if lo >= n || !s.hasPrefixAt(q, int(sa[lo])) {
		return Bounds{Lo: 0, Hi: -1}
	}
	// leftmost j with suffix(j) > q
	hi := sort.Search(n, func(j int) bool {
		return s.compareSuffix(q, int(sa[j])) < 0
	})
	return Bounds{Lo: lo, Hi: hi - 1}
}

// Locate finds the SA interval for peptide q, validating the
// minimum-length contract against the sample rate.
func (s *Searcher) Locate(q []byte) (Bounds, error) {
	if len(q) < int(s.K) {
		return Bounds{}, pepsaerr.New(pepsaerr.KindPeptideTooShort, "peptide shorter than sample rate")
	}
	q = s.canonicalizePeptide(q)
	return s.locate(s.SA, q), nil
}

// densify recovers every true occurrence of q, including the k-1 shifted
// matches that a sampled SA drops. It stops enumerating with
// cutoffHit=true the moment the union would exceed the configured
// cutoff, short-circuiting before materialising the full protein list;
// the offsets collected so far are still returned so callers that
// report annotations on a cutoff hit have the partial set.
func (s *Searcher) densify(q []byte) (offsets []int, cutoffHit bool) {
	seen := make(map[int]struct{})

	add := func(o int) bool {
		if _, ok := seen[o]; ok {
			return true
		}
		if len(seen) >= s.CutoffLimit {
			return false
		}
		seen[o] = struct{}{}
		return true
	}

	collect := func() []int {
		out := make([]int, 0, len(seen))
		for o := range seen {
			out = append(out, o)
		}
		sort.Ints(out)
		return out
	}

	b := s.locate(s.SA, q)
	if b.Found() {
		for j := b.Lo; j <= b.Hi; j++ {
			if !add(int(s.SA[j])) {
				return collect(), true
			}
		}
	}

	// For each residue class delta in [1, k), a true occurrence at
	// offset p = p' - delta (p' sampled, i.e. p' mod k == 0) has suffix
	// T[p..] = q[0:delta] + T[p'..]. So searching SA_s for q[delta:]
	// (dropping the first delta query bytes, which the sampled entries
	// cannot themselves anchor) and then verifying the dropped prefix
	// directly against the text recovers every shifted match. This does
	// one independent lookup per delta rather than a single comparator
	// that understands all k residue classes at once.
	k := int(s.K)
	for delta := 1; delta < k; delta++ {
		shiftedQ := q[delta:]
		b := s.locate(s.SA, shiftedQ)
		if !b.Found() {
			continue
		}
		for j := b.Lo; j <= b.Hi; j++ {
			cand := int(s.SA[j]) - delta
			if cand < 0 {
				continue
			}
			if !s.hasPrefixAt(q, cand) {
				continue
			}
			if !add(cand) {
				return collect(), true
			}
		}
	}

	return collect(), false
}

// Result is the outcome of a full densify+resolve pass.
type Result struct {
	CutoffHit bool
	Proteins  []int32 // protein indices, duplicates preserved (multiplicity)
}

// resolve runs densification then maps offsets to protein indices,
// discarding NULL (delimiter) hits. On a cutoff hit Proteins holds the
// proteins of the partial suffix set.
func (s *Searcher) resolve(q []byte) Result {
	offsets, cutoffHit := s.densify(q)
	proteins := make([]int32, 0, len(offsets))
	for _, o := range offsets {
		idx := s.Locator.ProteinAt(o)
		if idx == protmap.NullProtein {
			continue
		}
		proteins = append(proteins, idx)
	}
	return Result{CutoffHit: cutoffHit, Proteins: proteins}
}

// Match implements the Match search mode. With K > 1 an occurrence at an
// offset not divisible by K has no sampled SA entry of its own, so a miss
// in the sampled interval falls back to the shifted sub-searches of
// densify.
func (s *Searcher) Match(q []byte) (bool, error) {
	b, err := s.Locate(q)
	if err != nil {
		return false, err
	}
	if b.Found() || s.K <= 1 {
		return b.Found(), nil
	}
	offsets, cutoffHit := s.densify(s.canonicalizePeptide(q))
	return cutoffHit || len(offsets) > 0, nil
}

// MinMaxBound implements the MinMaxBound search mode.
func (s *Searcher) MinMaxBound(q []byte) (bool, Bounds, error) {
	b, err := s.Locate(q)
	if err != nil {
		return false, Bounds{}, err
	}
	return b.Found(), b, nil
}

// ProteinHit is one matched protein's identifying information, as
// returned by AllOccurrences/Analyses.
type ProteinHit struct {
	UniProtID string
	Sequence  []byte
	TaxonID   text.TaxonID
}

// AllOccurrences implements the AllOccurrences search mode.
func (s *Searcher) AllOccurrences(q []byte) ([]ProteinHit, error) {
	if len(q) < int(s.K) {
		return nil, pepsaerr.New(pepsaerr.KindPeptideTooShort, "peptide shorter than sample rate")
	}
	q = s.canonicalizePeptide(q)
	res := s.resolve(q)
	if res.CutoffHit {
		return nil, nil
	}
	out := make([]ProteinHit, 0, len(res.Proteins))
	for _, idx := range res.Proteins {
		p := &s.Text.Proteins[idx]
		out = append(out, ProteinHit{UniProtID: p.UniProtID, Sequence: p.Sequence(s.Text.Bytes), TaxonID: p.TaxonID})
	}
	return out, nil
}

// TaxonID implements the TaxonId search mode: LCA* over the taxa of the
// matched proteins. Cutoff hits collapse to the taxonomy root, id 1,
// regardless of the suffixes collected.
func (s *Searcher) TaxonID(q []byte) (text.TaxonID, bool, error) {
	if len(q) < int(s.K) {
		return 0, false, pepsaerr.New(pepsaerr.KindPeptideTooShort, "peptide shorter than sample rate")
	}
	cq := s.canonicalizePeptide(q)
	res := s.resolve(cq)
	if res.CutoffHit {
		return taxonomy.RootTaxonID, true, nil
	}
	if len(res.Proteins) == 0 {
		return 0, false, nil
	}
	ids := make([]text.TaxonID, len(res.Proteins))
	for i, idx := range res.Proteins {
		ids[i] = s.Text.Proteins[idx].TaxonID
	}
	agg, err := s.Taxonomy.Aggregate(ids)
	if err != nil {
		return 0, false, err
	}
	if agg == 0 {
		return 0, false, nil
	}
	snapped, err := s.Snapper.Snap(agg)
	if err != nil {
		return 0, false, err
	}
	return snapped, true, nil
}

// Analyses implements the Analyses search mode: the aggregate taxon id
// plus every matched protein's annotations. A cutoff hit collapses the
// taxon to the root but still reports the annotations of the partial
// protein set collected before the cutoff.
func (s *Searcher) Analyses(q []byte) (text.TaxonID, bool, []ProteinHit, error) {
	if len(q) < int(s.K) {
		return 0, false, nil, pepsaerr.New(pepsaerr.KindPeptideTooShort, "peptide shorter than sample rate")
	}
	cq := s.canonicalizePeptide(q)
	res := s.resolve(cq)

	hits := make([]ProteinHit, 0, len(res.Proteins))
	ids := make([]text.TaxonID, 0, len(res.Proteins))
	for _, idx := range res.Proteins {
		p := &s.Text.Proteins[idx]
		hits = append(hits, ProteinHit{UniProtID: p.UniProtID, Sequence: p.Sequence(s.Text.Bytes), TaxonID: p.TaxonID})
		ids = append(ids, p.TaxonID)
	}
	if res.CutoffHit {
		return taxonomy.RootTaxonID, true, hits, nil
	}
	if len(ids) == 0 {
		return 0, false, hits, nil
	}
	agg, err := s.Taxonomy.Aggregate(ids)
	if err != nil {
		return 0, false, hits, err
	}
	if agg == 0 {
		return 0, false, hits, nil
	}
	snapped, err := s.Snapper.Snap(agg)
	if err != nil {
		return 0, false, hits, err
	}
	return snapped, true, hits, nil
}
