package sufftree

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"

	"github.com/bio-ngs/pepsa/internal/text"
)

func init() {
	seq.ValidateSeq = false
}

// LoadFASTA reads protein records from one or more FASTA files into a
// single text.Text, the input format the legacy tree path accepts in
// place of the primary path's TSV database (FASTA headers carry no
// taxon annotation, so every ingested protein gets TaxonID 0).
func LoadFASTA(paths ...string) (*text.Text, error) {
	b := text.NewBuilder(1024, 1024*300)
	for _, path := range paths {
		if err := readFASTAInto(b, path); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func readFASTAInto(b *text.Builder, path string) error {
	reader, err := fastx.NewReader(nil, path, "")
	if err != nil {
		return errors.Wrap(err, "sufftree: open "+path)
	}
	defer reader.Close()

	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(err, "sufftree: read "+path)
		}
		id := string(record.ID)
		seqBytes := []byte(strings.ToUpper(string(record.Seq.Seq)))
		b.Add(id, seqBytes, 0)
	}
}
