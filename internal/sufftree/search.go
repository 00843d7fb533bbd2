package sufftree

import (
	"sort"

	"github.com/bio-ngs/pepsa/internal/arena"
	"github.com/bio-ngs/pepsa/internal/protmap"
	"github.com/bio-ngs/pepsa/internal/text"
)

// findEndNode walks query from the root, matching byte by byte against
// edge labels. It reports whether the full query matched some prefix
// of the tree and, if so, the arena index of the deepest node reached
// (either a mid-edge position's owning child, or the node the query
// lands exactly on).
func (t *Tree) findEndNode(query []byte) (bool, arena.Index) {
	if len(query) == 0 {
		return true, t.root
	}

	cur := t.root
	pos := 0
	for pos < len(query) {
		ci := charIndex(query[pos])
		if ci < 0 || ci >= MaxChildren {
			return false, arena.Null
		}
		childIdx := t.arena[cur].children[ci]
		if childIdx == arena.Null {
			return false, arena.Null
		}

		rng := t.arena[childIdx].rng
		j := 0
		for j < rng.Length() && pos+j < len(query) {
			if t.text[rng.Start+j] != query[pos+j] {
				return false, arena.Null
			}
			j++
		}

		if pos+j >= len(query) {
			return true, childIdx
		}
		cur = childIdx
		pos += j
	}
	return true, cur
}

// leavesUnder collects every leaf's suffix offset in the subtree
// rooted at idx via an explicit stack, matching search_protein's
// iterative descent.
func (t *Tree) leavesUnder(idx arena.Index) []int {
	var offsets []int
	stack := []arena.Index{idx}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.arena[cur]
		if n.suffixIndex != arena.Null {
			offsets = append(offsets, int(n.suffixIndex))
			continue
		}
		for _, c := range n.children {
			if c != arena.Null {
				stack = append(stack, c)
			}
		}
	}
	return offsets
}

// Hit is one matched protein, resolved via the same Locator the
// primary suffix-array searcher uses.
type Hit struct {
	UniProtID string
	Sequence  []byte
	TaxonID   text.TaxonID
}

// Search returns every protein containing query as a substring, using
// loc to resolve matched text offsets back to protein rows in txt.
func (t *Tree) Search(query []byte, txt *text.Text, loc protmap.Locator) []Hit {
	ok, end := t.findEndNode(query)
	if !ok {
		return nil
	}

	offsets := t.leavesUnder(end)
	seen := make(map[int32]struct{}, len(offsets))
	var indices []int32
	for _, o := range offsets {
		idx := loc.ProteinAt(o)
		if idx == protmap.NullProtein {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	hits := make([]Hit, 0, len(indices))
	for _, idx := range indices {
		p := &txt.Proteins[idx]
		hits = append(hits, Hit{UniProtID: p.UniProtID, Sequence: p.Sequence(txt.Bytes), TaxonID: p.TaxonID})
	}
	return hits
}
