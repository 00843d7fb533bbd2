// Package taxonomy reads the NCBI-style taxonomy TSV, answers "is this
// id valid", and exposes an O(1)-query LCA* aggregator over the rooted
// taxonomy tree via a Range-Minimum-Query structure on its Euler tour.
package taxonomy

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/breader"

	"github.com/bio-ngs/pepsa/internal/arena"
	"github.com/bio-ngs/pepsa/internal/pepsaerr"
	"github.com/bio-ngs/pepsa/internal/text"
)

// RootTaxonID is the conventional NCBI taxonomy root.
const RootTaxonID text.TaxonID = 1

type node struct {
	id     text.TaxonID
	parent text.TaxonID
	rank   string
	idx    arena.Index // index into the arena slice
}

// Taxonomy is the immutable, read-only-after-construction rooted taxon
// tree plus its RMQ-LCA acceleration structure.
type Taxonomy struct {
	file string

	arenaNodes []node
	byID       map[text.TaxonID]arena.Index
	root       arena.Index

	// RMQ state, built once in build().
	euler  []arena.Index // arena indices in Euler-tour order
	depth  []int32       // depth of euler[i]
	first  []int32       // first occurrence of arena index i in euler
	sparse [][]int32     // sparse table over euler indices, storing the euler position of the min-depth entry
}

// row mirrors one parsed taxonomy TSV line: taxon_id, parent_id, rank.
type row struct {
	id     text.TaxonID
	parent text.TaxonID
	rank   string
}

// Load reads a taxonomy TSV of the form
// `taxon_id<TAB>parent_id<TAB>rank` (extra columns ignored) and builds
// the RMQ-LCA structure.
func Load(path string) (*Taxonomy, error) {
	parseFunc := func(line string) (interface{}, bool, error) {
		line = strings.TrimSpace(line)
		if line == "" {
			return nil, false, nil
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, false, pepsaerr.New(pepsaerr.KindTaxonomyFormat, "expected at least 2 tab-separated fields: "+line)
		}
		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, false, pepsaerr.New(pepsaerr.KindTaxonomyFormat, "bad taxon id: "+fields[0])
		}
		parent, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, false, pepsaerr.New(pepsaerr.KindTaxonomyFormat, "bad parent id: "+fields[1])
		}
		rank := ""
		if len(fields) >= 3 {
			rank = fields[2]
		}
		return row{id: text.TaxonID(id), parent: text.TaxonID(parent), rank: rank}, true, nil
	}

	reader, err := breader.NewBufferedReader(path, 4, 100, parseFunc)
	if err != nil {
		return nil, errors.Wrap(err, "taxonomy: open "+path)
	}

	t := &Taxonomy{
		file:       path,
		arenaNodes: make([]node, 0, 1024),
		byID:       make(map[text.TaxonID]arena.Index, 1024),
		root:       arena.Null,
	}

	var rootID text.TaxonID
	rows := make([]row, 0, 1024)
	for chunk := range reader.Ch {
		if chunk.Err != nil {
			return nil, errors.Wrap(chunk.Err, "taxonomy: parse "+path)
		}
		for _, d := range chunk.Data {
			r := d.(row)
			rows = append(rows, r)
			if r.id == r.parent {
				rootID = r.id
			}
		}
	}
	if len(rows) == 0 {
		return nil, pepsaerr.New(pepsaerr.KindTaxonomyFormat, "empty taxonomy file: "+path)
	}
	if rootID == 0 {
		rootID = RootTaxonID
	}

	for _, r := range rows {
		t.intern(r.id, r.parent, r.rank)
	}
	// Ensure root itself is present even if the file never listed it as
	// its own parent but some node names it as parent without a row.
	if _, ok := t.byID[rootID]; !ok {
		t.intern(rootID, rootID, "no rank")
	}
	t.root = t.byID[rootID]

	if err := t.build(); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Taxonomy) intern(id, parent text.TaxonID, rank string) arena.Index {
	if idx, ok := t.byID[id]; ok {
		return idx
	}
	idx := arena.Index(len(t.arenaNodes))
	t.arenaNodes = append(t.arenaNodes, node{id: id, parent: parent, rank: rank, idx: idx})
	t.byID[id] = idx
	return idx
}

// Valid reports whether id names a node known to the taxonomy.
func (t *Taxonomy) Valid(id text.TaxonID) bool {
	_, ok := t.byID[id]
	return ok
}

// Rank returns the rank string for id, or "" if unknown.
func (t *Taxonomy) Rank(id text.TaxonID) string {
	idx, ok := t.byID[id]
	if !ok {
		return ""
	}
	return t.arenaNodes[idx].rank
}

// Parent returns the parent taxon id of id, or (0, false) if id is
// unknown or is the root.
func (t *Taxonomy) Parent(id text.TaxonID) (text.TaxonID, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return 0, false
	}
	n := t.arenaNodes[idx]
	if n.parent == n.id {
		return 0, false
	}
	return n.parent, true
}

func (t *Taxonomy) children() map[arena.Index][]arena.Index {
	kids := make(map[arena.Index][]arena.Index, len(t.arenaNodes))
	for _, n := range t.arenaNodes {
		if n.idx == t.root {
			continue
		}
		pIdx, ok := t.byID[n.parent]
		if !ok || pIdx == n.idx {
			continue
		}
		kids[pIdx] = append(kids[pIdx], n.idx)
	}
	return kids
}
