package sufftree

import "github.com/bio-ngs/pepsa/internal/arena"

// Build constructs a generalized suffix tree over txt by inserting
// every suffix one at a time, splitting edges as needed. This is the
// textbook O(n^2) insertion construction rather than Ukkonen's linear
// algorithm; correctness, not speed, is the point of keeping this path
// alive alongside the suffix array.
func Build(txt []byte) *Tree {
	t := newTree(txt)
	n := len(txt)
	for i := 0; i < n; i++ {
		t.insertSuffix(i)
	}
	return t
}

// insertSuffix walks from the root following the bytes of text[i:],
// matching as far as possible, then either attaches a new leaf or
// splits an existing edge at the point of divergence.
func (t *Tree) insertSuffix(i int) {
	cur := t.root
	pos := i
	n := len(t.text)

	for pos < n {
		c := t.text[pos]
		ci := charIndex(c)
		childIdx := t.arena[cur].children[ci]

		if childIdx == arena.Null {
			leaf := t.newNode(Range{pos, n}, cur)
			t.arena[leaf].suffixIndex = arena.Index(i)
			t.arena[cur].children[ci] = leaf
			return
		}

		rng := t.arena[childIdx].rng
		j := 0
		for j < rng.Length() && pos+j < n && t.text[rng.Start+j] == t.text[pos+j] {
			j++
		}

		if j == rng.Length() {
			// Consumed the whole edge; descend and continue matching
			// the remainder of this suffix from the child.
			cur = childIdx
			pos += j
			continue
		}

		// Diverges partway through the edge: split it at the point of
		// divergence, inserting an internal node that carries both the
		// existing subtree (now starting mid-edge) and a fresh leaf for
		// the new suffix.
		splitPos := rng.Start + j
		mid := t.newNode(Range{rng.Start, splitPos}, cur)
		t.arena[cur].children[ci] = mid

		t.arena[childIdx].rng = Range{splitPos, rng.End}
		t.arena[childIdx].parent = mid
		t.arena[mid].children[charIndex(t.text[splitPos])] = childIdx

		leaf := t.newNode(Range{pos + j, n}, mid)
		t.arena[leaf].suffixIndex = arena.Index(i)
		t.arena[mid].children[charIndex(t.text[pos+j])] = leaf
		return
	}
}
