package searcher

import (
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bio-ngs/pepsa/internal/protmap"
	"github.com/bio-ngs/pepsa/internal/suffixarray"
	"github.com/bio-ngs/pepsa/internal/taxonomy"
	"github.com/bio-ngs/pepsa/internal/text"
)

func smallTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "tax-*.tsv")
	require.NoError(t, err)
	_, err = f.WriteString("1\t1\tno rank\n7\t1\tspecies\n8\t1\tspecies\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	tax, err := taxonomy.Load(f.Name())
	require.NoError(t, err)
	return tax
}

func buildSearcher(t *testing.T, k uint8, cutoff int, equalizeIL bool, entries ...[3]interface{}) *Searcher {
	t.Helper()
	b := text.NewBuilder(len(entries), 64)
	for _, e := range entries {
		b.Add(e[0].(string), []byte(e[1].(string)), text.TaxonID(e[2].(int)))
	}
	txt := b.Build()

	searchBytes := txt.Bytes
	if equalizeIL {
		searchBytes = text.CanonicalizeIL(txt.Bytes)
	}
	full, err := suffixarray.Build(searchBytes, suffixarray.AlgorithmNaive)
	require.NoError(t, err)
	sampled := suffixarray.Sample(full, k)

	tax := smallTaxonomy(t)
	return &Searcher{
		Text:        txt,
		SearchBytes: searchBytes,
		SA:          sampled,
		K:           k,
		Locator:     protmap.BuildSparse(txt),
		Taxonomy:    tax,
		Snapper:     tax.NewSnapper(""),
		EqualizeIL:  equalizeIL,
		CutoffLimit: cutoff,
	}
}

func TestMatchK1Basic(t *testing.T) {
	s := buildSearcher(t, 1, 10000, false,
		[3]interface{}{"P1", "ABCD", 7},
		[3]interface{}{"P2", "EFGH", 8},
	)

	ok, err := s.Match([]byte("BCD"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Match([]byte("XYZ"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchFalseAcrossDelimiter(t *testing.T) {
	s := buildSearcher(t, 1, 10000, false,
		[3]interface{}{"P1", "ABCD", 7},
		[3]interface{}{"P2", "EFGH", 8},
	)

	// "DEF" would span the delimiter between P1 ("...D") and P2 ("E...")
	// and must not match even though D and E are adjacent residues of
	// their own proteins.
	ok, err := s.Match([]byte("DEF"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllOccurrencesK1(t *testing.T) {
	s := buildSearcher(t, 1, 10000, false,
		[3]interface{}{"P1", "ABCDAB", 7},
		[3]interface{}{"P2", "ABXY", 8},
	)

	hits, err := s.AllOccurrences([]byte("AB"))
	require.NoError(t, err)
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.UniProtID
	}
	sort.Strings(ids)
	// "AB" occurs twice in P1, and each occurrence yields its own hit.
	assert.Equal(t, []string{"P1", "P1", "P2"}, ids)
}

// Densification: with k=2, a true occurrence landing at an odd offset
// has no sampled SA entry of its own and must be recovered via the
// delta=1 shifted sub-search.
func TestDensificationRecoversOddOffsets(t *testing.T) {
	s := buildSearcher(t, 2, 10000, false,
		[3]interface{}{"P1", "ABCDEFGH", 7},
	)

	// "BCD" begins at offset 1 (odd), only reachable via densification.
	ok, err := s.Match([]byte("BCD"))
	require.NoError(t, err)
	assert.True(t, ok)

	hits, err := s.AllOccurrences([]byte("BCD"))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "P1", hits[0].UniProtID)
}

func TestDensificationAcrossMultipleK(t *testing.T) {
	for _, k := range []uint8{1, 2, 3, 5} {
		k := k
		t.Run("", func(t *testing.T) {
			s := buildSearcher(t, k, 10000, false,
				[3]interface{}{"P1", "THEQUICKBROWNFOX", 7},
			)
			// every needle is at least 5 bytes long, so none is shorter
			// than the largest sample rate
			for _, needle := range []string{"THEQU", "QUICK", "BROWN", "WNFOX", "EQUICKB"} {
				ok, err := s.Match([]byte(needle))
				require.NoError(t, err)
				assert.True(t, ok, "k=%d needle=%s", k, needle)
			}
			ok, err := s.Match([]byte("ZZZZZ"))
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestEqualizeILTreatsThemAsEquivalent(t *testing.T) {
	s := buildSearcher(t, 1, 10000, true,
		[3]interface{}{"P1", "ABLCD", 7},
	)
	ok, err := s.Match([]byte("ABIC"))
	require.NoError(t, err)
	assert.True(t, ok)

	s2 := buildSearcher(t, 1, 10000, false,
		[3]interface{}{"P1", "ABLCD", 7},
	)
	ok, err = s2.Match([]byte("ABIC"))
	require.NoError(t, err)
	assert.False(t, ok)
}

// "LAAI" with I/L equivalence must hit both the protein spelled IAAL
// and the one spelled LAAI; without the flag only the exact spelling
// matches.
func TestEqualizeILReportsBothSpellings(t *testing.T) {
	entries := [][3]interface{}{
		{"P1", "IAAL", 7},
		{"P2", "LAAI", 8},
	}

	s := buildSearcher(t, 1, 10000, true, entries[0], entries[1])
	hits, err := s.AllOccurrences([]byte("LAAI"))
	require.NoError(t, err)
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.UniProtID
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"P1", "P2"}, ids)

	s2 := buildSearcher(t, 1, 10000, false, entries[0], entries[1])
	hits, err = s2.AllOccurrences([]byte("LAAI"))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "P2", hits[0].UniProtID)
}

func TestMinMaxBoundCoversAllMatchingSuffixes(t *testing.T) {
	s := buildSearcher(t, 1, 10000, false,
		[3]interface{}{"P1", "ABCD", 7},
		[3]interface{}{"P2", "EFGH", 8},
	)

	found, b, err := s.MinMaxBound([]byte("ABCD"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, b.Lo, b.Hi) // exactly one suffix begins with ABCD
	assert.True(t, s.Text.Bytes[s.SA[b.Lo]] == 'A')

	found, _, err = s.MinMaxBound([]byte("BCDE"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCutoffCollapsesTaxonIDToRoot(t *testing.T) {
	s := buildSearcher(t, 1, 1, false,
		[3]interface{}{"P1", "AAAA", 7},
		[3]interface{}{"P2", "AAAA", 8},
	)

	id, found, err := s.TaxonID([]byte("AA"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, taxonomy.RootTaxonID, id)
}

// A cutoff hit in Analyses mode collapses the taxon to the root but
// still carries the annotations of the proteins resolved from the
// partial suffix set.
func TestAnalysesCutoffKeepsPartialAnnotations(t *testing.T) {
	s := buildSearcher(t, 1, 1, false,
		[3]interface{}{"P1", "AAAA", 7},
		[3]interface{}{"P2", "AAAA", 8},
	)

	id, found, hits, err := s.Analyses([]byte("AAAA"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, taxonomy.RootTaxonID, id)
	require.Len(t, hits, 1)
}

func TestTaxonIDAggregatesMatchedProteins(t *testing.T) {
	s := buildSearcher(t, 1, 10000, false,
		[3]interface{}{"P1", "AAAA", 7},
		[3]interface{}{"P2", "AAAA", 7},
	)

	id, found, err := s.TaxonID([]byte("AAAA"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, text.TaxonID(7), id)
}

func TestLocateRejectsPeptideShorterThanK(t *testing.T) {
	s := buildSearcher(t, 3, 10000, false,
		[3]interface{}{"P1", "ABCDEF", 7},
	)
	_, err := s.Match([]byte("AB"))
	assert.Error(t, err)
}
