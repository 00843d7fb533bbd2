// Package protmap implements the suffix-to-protein back-mapping: a
// total function offset -> protein index | NULL, in dense (O(N) space,
// O(1) lookup) and sparse (O(P) space, O(log P) lookup) flavors behind
// one small interface.
package protmap

import (
	"sort"

	"github.com/twotwotwo/sorts/sortutil"

	"github.com/bio-ngs/pepsa/internal/text"
)

// NullProtein is the sentinel "this offset is a delimiter" result.
const NullProtein int32 = -1

// Locator answers "which protein index owns this text offset", or
// NullProtein for a delimiter position.
type Locator interface {
	ProteinAt(offset int) int32
}

// Dense is an O(N)-space locator built in one linear pass over the
// text: 32-bit indices suffice in practice.
type Dense struct {
	m []int32
}

// BuildDense builds the dense map by walking t.Bytes once, incrementing
// a running protein index at every Separation/Termination byte.
func BuildDense(t *text.Text) *Dense {
	m := make([]int32, len(t.Bytes))
	var cur int32
	for i, b := range t.Bytes {
		switch b {
		case text.Separation, text.Termination:
			m[i] = NullProtein
			cur++
		default:
			m[i] = cur
		}
	}
	return &Dense{m: m}
}

// ProteinAt implements Locator.
func (d *Dense) ProteinAt(offset int) int32 {
	if offset < 0 || offset >= len(d.m) {
		return NullProtein
	}
	return d.m[offset]
}

// Sparse is an O(P)-space locator: a sorted array of protein start
// offsets, searched by predecessor binary search.
type Sparse struct {
	starts  []int64
	lengths []uint32
}

// BuildSparse captures starts[i] = P_i.start. The text-model invariant
// (consecutive proteins satisfy P_{i+1}.start = P_i.start + P_i.length + 1)
// guarantees t.Proteins already arrives in increasing start order.
// sortutil.Int64s sorts a copy of the starts and that sorted copy is
// the table searched; lengths stay in protein order and the two are not
// compared, so they line up only while the invariant holds.
func BuildSparse(t *text.Text) *Sparse {
	starts := make([]int64, len(t.Proteins))
	lengths := make([]uint32, len(t.Proteins))
	for i, p := range t.Proteins {
		starts[i] = int64(p.Start)
		lengths[i] = p.Length
	}

	checked := make([]int64, len(starts))
	copy(checked, starts)
	sortutil.Int64s(checked)

	return &Sparse{starts: checked, lengths: lengths}
}

// ProteinAt implements Locator via predecessor binary search. An offset
// landing exactly on a delimiter (start + length == offset, i.e. one
// past the protein's own bytes) returns NullProtein.
func (s *Sparse) ProteinAt(offset int) int32 {
	o := int64(offset)
	// largest i such that starts[i] <= o
	i := sort.Search(len(s.starts), func(i int) bool { return s.starts[i] > o }) - 1
	if i < 0 {
		return NullProtein
	}
	if o >= s.starts[i]+int64(s.lengths[i]) {
		return NullProtein
	}
	return int32(i)
}
