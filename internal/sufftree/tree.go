// Package sufftree implements the generalized-suffix-tree alternative
// build path kept alongside the primary suffix-array index: an arena
// of nodes with per-byte child edges, searched by walking
// child-index-by-byte. It is not the focus of testing effort (the
// suffix array is) but is fully wired: `pepsa build-tree` drives it
// end to end against a FASTA input.
package sufftree

import (
	"github.com/bio-ngs/pepsa/internal/arena"
	"github.com/bio-ngs/pepsa/internal/text"
)

// MaxChildren is the per-node fan-out: 26 letters plus the two
// delimiter bytes (text.Separation, text.Termination).
const MaxChildren = 28

// Range is a half-open [Start, End) byte range into the tree's backing
// text, i.e. one edge label.
type Range struct {
	Start, End int
}

// Length returns End - Start.
func (r Range) Length() int {
	return r.End - r.Start
}

// node is one arena entry: an edge (Range) arriving from its parent,
// its per-byte children, and (for leaves) the suffix offset it names.
type node struct {
	rng         Range
	children    [MaxChildren]arena.Index
	parent      arena.Index
	suffixIndex arena.Index // arena.Null unless this is a leaf
}

// Tree is an immutable-after-Build generalized suffix tree over a
// text.Text's concatenated bytes.
type Tree struct {
	text  []byte
	arena []node
	root  arena.Index
}

func newTree(text []byte) *Tree {
	t := &Tree{text: text, arena: make([]node, 0, len(text))}
	t.root = t.newNode(Range{0, 0}, arena.Null)
	return t
}

func (t *Tree) newNode(rng Range, parent arena.Index) arena.Index {
	idx := arena.Index(len(t.arena))
	n := node{rng: rng, parent: parent, suffixIndex: arena.Null}
	for i := range n.children {
		n.children[i] = arena.Null
	}
	t.arena = append(t.arena, n)
	return idx
}

// charIndex maps a text byte to its slot in node.children: A-Z -> 0-25,
// Separation -> 26, Termination -> 27.
//
// TODO: bytes outside A-Z/Separation/Termination index out of bounds.
func charIndex(b byte) int {
	switch b {
	case text.Separation:
		return 26
	case text.Termination:
		return 27
	default:
		return int(b) - int('A')
	}
}
