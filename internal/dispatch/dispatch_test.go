package dispatch

import (
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bio-ngs/pepsa/internal/protmap"
	"github.com/bio-ngs/pepsa/internal/searcher"
	"github.com/bio-ngs/pepsa/internal/suffixarray"
	"github.com/bio-ngs/pepsa/internal/taxonomy"
	"github.com/bio-ngs/pepsa/internal/text"
)

func buildTestSearcher(t *testing.T) *searcher.Searcher {
	t.Helper()
	b := text.NewBuilder(2, 32)
	b.Add("P1", []byte("ABCDEFGH"), 7)
	b.Add("P2", []byte("WXYZQRST"), 8)
	txt := b.Build()

	full, err := suffixarray.Build(txt.Bytes, suffixarray.AlgorithmNaive)
	require.NoError(t, err)

	f, err := os.CreateTemp(t.TempDir(), "tax-*.tsv")
	require.NoError(t, err)
	_, err = f.WriteString("1\t1\tno rank\n7\t1\tspecies\n8\t1\tspecies\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	tax, err := taxonomy.Load(f.Name())
	require.NoError(t, err)

	return &searcher.Searcher{
		Text:        txt,
		SA:          full,
		K:           1,
		Locator:     protmap.BuildSparse(txt),
		Taxonomy:    tax,
		Snapper:     tax.NewSnapper(""),
		CutoffLimit: 10000,
	}
}

func TestRunPreservesInputOrder(t *testing.T) {
	s := buildTestSearcher(t)
	peptides := make([]string, 200)
	for i := range peptides {
		// alternate between a hit and a miss so render latencies vary
		if i%2 == 0 {
			peptides[i] = "ABC"
		} else {
			peptides[i] = fmt.Sprintf("ZZZ%d", i)
		}
	}

	var mu sync.Mutex
	var out []string
	err := Run(s, peptides, ModeMatch, 8, func(line string) {
		mu.Lock()
		out = append(out, line)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Len(t, out, len(peptides))
	for i, line := range out {
		if i%2 == 0 {
			assert.Equal(t, "true", line)
		} else {
			assert.Equal(t, "false", line)
		}
	}
}

func TestRunSingleWorker(t *testing.T) {
	s := buildTestSearcher(t)
	var out []string
	err := Run(s, []string{"ABC", "ZZZ"}, ModeMatch, 1, func(line string) {
		out = append(out, line)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"true", "false"}, out)
}

func TestRunEmptyInput(t *testing.T) {
	s := buildTestSearcher(t)
	var out []string
	err := Run(s, nil, ModeMatch, 4, func(line string) {
		out = append(out, line)
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

// TestRunAbortsOnFatalError confirms that a fatal error (an unknown
// taxon id reaching Aggregate, here forced by a searcher pointed at a
// taxonomy that doesn't recognize the protein's own taxon id) aborts
// the run instead of being rendered as a per-query output line.
func TestRunAbortsOnFatalError(t *testing.T) {
	b := text.NewBuilder(1, 32)
	b.Add("P1", []byte("ABCDEFGH"), 99)
	txt := b.Build()

	full, err := suffixarray.Build(txt.Bytes, suffixarray.AlgorithmNaive)
	require.NoError(t, err)

	f, err := os.CreateTemp(t.TempDir(), "tax-*.tsv")
	require.NoError(t, err)
	_, err = f.WriteString("1\t1\tno rank\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	tax, err := taxonomy.Load(f.Name())
	require.NoError(t, err)

	s := &searcher.Searcher{
		Text:        txt,
		SA:          full,
		K:           1,
		Locator:     protmap.BuildSparse(txt),
		Taxonomy:    tax,
		Snapper:     tax.NewSnapper(""),
		CutoffLimit: 10000,
	}

	var out []string
	runErr := Run(s, []string{"ABC"}, ModeTaxonID, 1, func(line string) {
		out = append(out, line)
	})
	assert.Error(t, runErr)
	assert.Empty(t, out)
}
