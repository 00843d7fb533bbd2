package taxonomy

import (
	"math/bits"

	"github.com/bio-ngs/pepsa/internal/arena"
)

// build performs the Euler tour of the taxon tree rooted at t.root and
// constructs a sparse table over the tour's depth sequence, giving O(1)
// LCA queries after O(V log V) preprocessing.
func (t *Taxonomy) build() error {
	kids := t.children()

	n := len(t.arenaNodes)
	t.euler = make([]arena.Index, 0, 2*n-1)
	t.depth = make([]int32, 0, 2*n-1)
	t.first = make([]int32, n)
	for i := range t.first {
		t.first[i] = -1
	}

	// iterative DFS to avoid recursion-depth issues on deep taxonomies.
	type frame struct {
		node  arena.Index
		depth int32
		kidIx int
	}
	stack := make([]frame, 0, 64)
	stack = append(stack, frame{node: t.root, depth: 0, kidIx: 0})
	t.visit(t.root, 0)

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		childList := kids[top.node]
		if top.kidIx >= len(childList) {
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				parent := &stack[len(stack)-1]
				t.visit(parent.node, parent.depth)
			}
			continue
		}
		child := childList[top.kidIx]
		top.kidIx++
		stack = append(stack, frame{node: child, depth: top.depth + 1, kidIx: 0})
		t.visit(child, top.depth+1)
	}

	t.sparse = buildSparseTable(t.depth)
	return nil
}

// visit appends one Euler-tour occurrence of idx at the given depth.
func (t *Taxonomy) visit(idx arena.Index, depth int32) {
	if t.first[idx] == -1 {
		t.first[idx] = int32(len(t.euler))
	}
	t.euler = append(t.euler, idx)
	t.depth = append(t.depth, depth)
}

// buildSparseTable builds a sparse table over depth returning, for each
// (i, 2^k) window, the Euler-tour position of the minimum-depth entry.
func buildSparseTable(depth []int32) [][]int32 {
	n := len(depth)
	if n == 0 {
		return nil
	}
	logn := bits.Len(uint(n)) // ceil-ish, safe upper bound
	table := make([][]int32, logn)
	table[0] = make([]int32, n)
	for i := 0; i < n; i++ {
		table[0][i] = int32(i)
	}
	for k := 1; k < logn; k++ {
		half := 1 << (k - 1)
		size := n - (1 << k) + 1
		if size <= 0 {
			table[k] = []int32{}
			continue
		}
		table[k] = make([]int32, size)
		for i := 0; i < size; i++ {
			left := table[k-1][i]
			right := table[k-1][i+half]
			if depth[left] <= depth[right] {
				table[k][i] = left
			} else {
				table[k][i] = right
			}
		}
	}
	return table
}

// rangeMinPos returns the Euler-tour position holding the minimum depth
// in the inclusive range [l, r].
func (t *Taxonomy) rangeMinPos(l, r int32) int32 {
	if l > r {
		l, r = r, l
	}
	length := r - l + 1
	k := bits.Len(uint(length)) - 1
	half := int32(1) << uint(k)
	left := t.sparse[k][l]
	right := t.sparse[k][r-half+1]
	if t.depth[left] <= t.depth[right] {
		return left
	}
	return right
}

// lcaArenaIndex returns the arena index of the LCA of arena indices a, b.
func (t *Taxonomy) lcaArenaIndex(a, b arena.Index) arena.Index {
	if a == b {
		return a
	}
	fa, fb := t.first[a], t.first[b]
	pos := t.rangeMinPos(fa, fb)
	return t.euler[pos]
}
