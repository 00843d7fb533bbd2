package taxonomy

import (
	"github.com/bio-ngs/pepsa/internal/arena"
	"github.com/bio-ngs/pepsa/internal/pepsaerr"
	"github.com/bio-ngs/pepsa/internal/text"
)

// LCA returns the lowest common ancestor of a and b, or 0 if either id
// is unknown. LCA(a, a) == a.
func (t *Taxonomy) LCA(a, b text.TaxonID) text.TaxonID {
	if a == 0 || b == 0 {
		return 0
	}
	ia, ok := t.byID[a]
	if !ok {
		return 0
	}
	ib, ok := t.byID[b]
	if !ok {
		return 0
	}
	return t.arenaNodes[t.lcaArenaIndex(ia, ib)].id
}

// weighted is one (taxon id, occurrence count) pair.
type weighted struct {
	id    text.TaxonID
	count int
}

// count turns a multiset of taxon ids into weighted (id, count) pairs,
// discarding id 0.
func count(ids []text.TaxonID) []weighted {
	tally := make(map[text.TaxonID]int, len(ids))
	order := make([]text.TaxonID, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := tally[id]; !ok {
			order = append(order, id)
		}
		tally[id]++
	}
	out := make([]weighted, 0, len(order))
	for _, id := range order {
		out = append(out, weighted{id: id, count: tally[id]})
	}
	return out
}

// Aggregate folds the multiset of taxon ids (one per matched protein)
// pairwise via RMQ-LCA into a single taxon id. Returns (0, nil) for an
// empty input. An id not present in the taxonomy is a fatal
// KindUnknownTaxon error.
func (t *Taxonomy) Aggregate(ids []text.TaxonID) (text.TaxonID, error) {
	weights := count(ids)
	if len(weights) == 0 {
		return 0, nil
	}

	result := weights[0].id
	if _, ok := t.byID[result]; !ok {
		return 0, pepsaerr.New(pepsaerr.KindUnknownTaxon, "unknown taxon id in aggregate input")
	}
	for _, w := range weights[1:] {
		if _, ok := t.byID[w.id]; !ok {
			return 0, pepsaerr.New(pepsaerr.KindUnknownTaxon, "unknown taxon id in aggregate input")
		}
		result = t.LCA(result, w.id)
	}
	return result, nil
}

// Snapper maps every valid taxon id to its nearest ancestor (or itself)
// at a configured rank. An empty target rank means "unchanged".
type Snapper struct {
	targetRank string
	table      map[text.TaxonID]text.TaxonID
}

// NewSnapper builds the snapping table S[id] = id' for the given target
// rank, computed once and shared read-only. Only the forward-walk
// variant is needed here; the inverted lookup has no caller.
func (t *Taxonomy) NewSnapper(targetRank string) *Snapper {
	s := &Snapper{targetRank: targetRank, table: make(map[text.TaxonID]text.TaxonID, len(t.arenaNodes))}
	if targetRank == "" {
		for _, n := range t.arenaNodes {
			s.table[n.id] = n.id
		}
		return s
	}

	for _, n := range t.arenaNodes {
		s.table[n.id] = t.ancestorAtRank(n.idx, targetRank)
	}
	return s
}

// ancestorAtRank walks up from idx until it finds a node at rank, or
// returns the root's id if none matches.
func (t *Taxonomy) ancestorAtRank(idx arena.Index, rank string) text.TaxonID {
	cur := idx
	for {
		n := t.arenaNodes[cur]
		if n.rank == rank {
			return n.id
		}
		if cur == t.root {
			return n.id
		}
		parentIdx, ok := t.byID[n.parent]
		if !ok || parentIdx == cur {
			return n.id
		}
		cur = parentIdx
	}
}

// Snap rewrites id to its snapped value. A missing id is a fatal error.
func (s *Snapper) Snap(id text.TaxonID) (text.TaxonID, error) {
	v, ok := s.table[id]
	if !ok {
		return 0, pepsaerr.New(pepsaerr.KindUnknownTaxon, "could not snap taxon id")
	}
	return v, nil
}
