package sufftree

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bio-ngs/pepsa/internal/protmap"
	"github.com/bio-ngs/pepsa/internal/text"
)

func buildText(t *testing.T, entries ...[2]string) *text.Text {
	t.Helper()
	b := text.NewBuilder(len(entries), 64)
	for _, e := range entries {
		b.Add(e[0], []byte(e[1]), 0)
	}
	return b.Build()
}

func TestSearchFindsContainingProteins(t *testing.T) {
	txt := buildText(t, [2]string{"P1", "ABCDEF"}, [2]string{"P2", "XYZCDEQ"}, [2]string{"P3", "MNOP"})
	tree := Build(txt.Bytes)
	loc := protmap.BuildSparse(txt)

	hits := tree.Search([]byte("CDE"), txt, loc)
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.UniProtID
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"P1", "P2"}, ids)
}

func TestSearchMissingSubstring(t *testing.T) {
	txt := buildText(t, [2]string{"P1", "ABCDEF"})
	tree := Build(txt.Bytes)
	loc := protmap.BuildSparse(txt)

	hits := tree.Search([]byte("ZZZ"), txt, loc)
	assert.Empty(t, hits)
}

func TestSearchFullProteinMatch(t *testing.T) {
	txt := buildText(t, [2]string{"P1", "ABCDEF"})
	tree := Build(txt.Bytes)
	loc := protmap.BuildSparse(txt)

	hits := tree.Search([]byte("ABCDEF"), txt, loc)
	assert.Len(t, hits, 1)
	assert.Equal(t, "P1", hits[0].UniProtID)
}

func TestSearchEmptyQueryMatchesEverything(t *testing.T) {
	txt := buildText(t, [2]string{"P1", "AAA"}, [2]string{"P2", "BBB"})
	tree := Build(txt.Bytes)
	loc := protmap.BuildSparse(txt)

	hits := tree.Search([]byte{}, txt, loc)
	assert.Len(t, hits, 2)
}
