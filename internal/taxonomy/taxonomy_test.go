package taxonomy

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bio-ngs/pepsa/internal/text"
)

// writeTaxonomy writes a minimal taxon_id<TAB>parent_id<TAB>rank TSV
// and returns its path.
func writeTaxonomy(t *testing.T, rows string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "taxonomy-*.tsv")
	require.NoError(t, err)
	_, err = f.WriteString(rows)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

// The fixture below exercises taxon ids 10, 9, 20, 2 under a tree
// rooted at 1, with 9 and 10's lineage snapping up to 6.
//
//	1
//	└─ 5
//	   ├─ 6
//	   │  ├─ 9
//	   │  └─ 10
//	   └─ 20
//	2 is unrelated, hanging directly off the root.
func fixtureTaxonomyPath(t *testing.T) string {
	return writeTaxonomy(t, ""+
		"1\t1\tno rank\n"+
		"5\t1\tno rank\n"+
		"6\t5\tno rank\n"+
		"9\t6\tspecies\n"+
		"10\t6\tspecies\n"+
		"20\t5\tspecies\n"+
		"2\t1\tspecies\n",
	)
}

func TestAggregateExactFixture(t *testing.T) {
	tax, err := Load(fixtureTaxonomyPath(t))
	require.NoError(t, err)

	id, err := tax.Aggregate([]text.TaxonID{10, 9})
	require.NoError(t, err)
	assert.Equal(t, text.TaxonID(6), id)

	id, err = tax.Aggregate([]text.TaxonID{10, 9, 20, 2})
	require.NoError(t, err)
	assert.Equal(t, text.TaxonID(1), id)
}

func TestAggregateEmptyIsZero(t *testing.T) {
	tax, err := Load(fixtureTaxonomyPath(t))
	require.NoError(t, err)

	id, err := tax.Aggregate(nil)
	require.NoError(t, err)
	assert.Equal(t, text.TaxonID(0), id)
}

func TestAggregateUnknownTaxonIsFatal(t *testing.T) {
	tax, err := Load(fixtureTaxonomyPath(t))
	require.NoError(t, err)

	_, err = tax.Aggregate([]text.TaxonID{10, 999})
	require.Error(t, err)
}

func TestLCASameIDReturnsItself(t *testing.T) {
	tax, err := Load(fixtureTaxonomyPath(t))
	require.NoError(t, err)

	assert.Equal(t, text.TaxonID(9), tax.LCA(9, 9))
}

func TestValidAndParent(t *testing.T) {
	tax, err := Load(fixtureTaxonomyPath(t))
	require.NoError(t, err)

	assert.True(t, tax.Valid(9))
	assert.False(t, tax.Valid(999))

	parent, ok := tax.Parent(9)
	assert.True(t, ok)
	assert.Equal(t, text.TaxonID(6), parent)

	_, ok = tax.Parent(RootTaxonID)
	assert.False(t, ok)
}

func TestSnapperIdentityWhenNoTargetRank(t *testing.T) {
	tax, err := Load(fixtureTaxonomyPath(t))
	require.NoError(t, err)

	snapper := tax.NewSnapper("")
	snapped, err := snapper.Snap(9)
	require.NoError(t, err)
	assert.Equal(t, text.TaxonID(9), snapped)
}

func TestSnapperWalksUpToTargetRank(t *testing.T) {
	tax, err := Load(fixtureTaxonomyPath(t))
	require.NoError(t, err)

	snapper := tax.NewSnapper("species")
	snapped, err := snapper.Snap(9)
	require.NoError(t, err)
	assert.Equal(t, text.TaxonID(9), snapped)

	// 6 is "no rank"; its nearest descendant of rank "species" doesn't
	// apply here since snapping walks toward the root, so 6 has no
	// species-rank ancestor and falls back to the root's id.
	snapped, err = snapper.Snap(6)
	require.NoError(t, err)
	assert.Equal(t, RootTaxonID, snapped)
}
