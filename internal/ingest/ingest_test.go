package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bio-ngs/pepsa/internal/text"
)

type fakeValidator map[text.TaxonID]bool

func (f fakeValidator) Valid(id text.TaxonID) bool { return f[id] }

func writeDB(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.tsv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAcceptsKnownTaxa(t *testing.T) {
	path := writeDB(t, "P1\t7\tabcd\nP2\t8\tefgh\n")
	txt, stats, err := Load(path, fakeValidator{7: true, 8: true})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Accepted)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, []byte("ABCD-EFGH$"), txt.Bytes)
}

func TestLoadSkipsUnknownTaxa(t *testing.T) {
	path := writeDB(t, "P1\t7\tabcd\nP2\t999\tefgh\n")
	txt, stats, err := Load(path, fakeValidator{7: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, []byte("ABCD$"), txt.Bytes)
}

func TestLoadRejectsMalformedRow(t *testing.T) {
	path := writeDB(t, "P1\t7\n")
	_, _, err := Load(path, fakeValidator{7: true})
	assert.Error(t, err)
}

func TestLoadRejectsBadTaxonID(t *testing.T) {
	path := writeDB(t, "P1\tnotanumber\tabcd\n")
	_, _, err := Load(path, fakeValidator{7: true})
	assert.Error(t, err)
}

func TestLoadUppercasesSequence(t *testing.T) {
	path := writeDB(t, "P1\t7\tabCd\n")
	txt, _, err := Load(path, fakeValidator{7: true})
	require.NoError(t, err)
	assert.Equal(t, []byte("ABCD$"), txt.Bytes)
}
