// Package sacodec serializes and deserializes a sampled suffix array
// to a fixed binary layout:
//
//	offset 0   : u8     sample_rate k
//	offset 1.. : i64[]  sampled SA values, back-to-back, little-endian
//
// Reads and writes proceed in bounded chunks to cap peak auxiliary
// memory.
package sacodec

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/bio-ngs/pepsa/internal/pepsaerr"
)

// ChunkBytes is the default read/write buffer bound.
const ChunkBytes = 1 << 30 // 1 GiB

const int64Size = 8

// Write serializes k and sa to path in the exact layout above, writing
// at most chunkBytes of payload per chunk (ChunkBytes when <= 0). When
// verbose is set a chunk-granularity progress bar is printed to stderr.
func Write(path string, k uint8, sa []int64, chunkBytes int, verbose bool) error {
	if chunkBytes <= 0 {
		chunkBytes = ChunkBytes
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "sacodec: create "+path)
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 1<<20)
	if err := w.WriteByte(k); err != nil {
		return errors.Wrap(err, "sacodec: write sample rate")
	}

	maxEntriesPerChunk := chunkBytes / int64Size
	if maxEntriesPerChunk < 1 {
		maxEntriesPerChunk = 1
	}
	bufEntries := len(sa)
	if bufEntries > maxEntriesPerChunk {
		bufEntries = maxEntriesPerChunk
	}
	buf := make([]byte, 0, bufEntries*int64Size)
	nChunks := (len(sa) + maxEntriesPerChunk - 1) / maxEntriesPerChunk

	var pbs *mpb.Progress
	var bar *mpb.Bar
	if verbose && nChunks > 0 {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(int64(nChunks),
			mpb.PrependDecorators(
				decor.Name("writing index chunks: "),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
	}

	for start := 0; start < len(sa); start += maxEntriesPerChunk {
		end := start + maxEntriesPerChunk
		if end > len(sa) {
			end = len(sa)
		}
		buf = buf[:0]
		for _, v := range sa[start:end] {
			var tmp [int64Size]byte
			binary.LittleEndian.PutUint64(tmp[:], uint64(v))
			buf = append(buf, tmp[:]...)
		}
		if _, err := w.Write(buf); err != nil {
			return errors.Wrap(err, "sacodec: write chunk")
		}
		if bar != nil {
			bar.Increment()
		}
	}
	if pbs != nil {
		pbs.Wait()
	}

	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "sacodec: flush")
	}
	return nil
}

// WriteText emits the legacy sibling text image (<name>_text.bin): the
// raw concatenated text, written in bounded chunks like the index
// itself. Nothing in this module reads it back; older loaders expect
// the index/text pair on disk.
func WriteText(path string, data []byte, chunkBytes int) error {
	if chunkBytes <= 0 {
		chunkBytes = ChunkBytes
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "sacodec: create "+path)
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 1<<20)
	for start := 0; start < len(data); start += chunkBytes {
		end := start + chunkBytes
		if end > len(data) {
			end = len(data)
		}
		if _, err := w.Write(data[start:end]); err != nil {
			return errors.Wrap(err, "sacodec: write text chunk")
		}
	}
	return errors.Wrap(w.Flush(), "sacodec: flush text")
}

// Read deserializes a sampled suffix array from path, returning the
// sample rate and values. Fails loudly (KindIndexFormat) if the
// remaining byte count after the header is not a multiple of 8.
func Read(path string) (uint8, []int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, errors.Wrap(err, "sacodec: open "+path)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 1<<20)
	k, err := r.ReadByte()
	if err != nil {
		return 0, nil, errors.Wrap(err, "sacodec: read sample rate")
	}

	fi, err := f.Stat()
	if err != nil {
		return 0, nil, errors.Wrap(err, "sacodec: stat "+path)
	}
	remaining := fi.Size() - 1
	if remaining%int64Size != 0 {
		return 0, nil, pepsaerr.New(pepsaerr.KindIndexFormat,
			"index file "+path+" has "+humanize.Bytes(uint64(remaining))+" of payload, not a multiple of 8 bytes")
	}

	n := remaining / int64Size
	sa := make([]int64, 0, n)

	var chunk []byte
	maxEntriesPerChunk := ChunkBytes / int64Size

	for int64(len(sa)) < n {
		want := maxEntriesPerChunk
		if remainingEntries := n - int64(len(sa)); int64(want) > remainingEntries {
			want = int(remainingEntries)
		}
		need := want * int64Size
		if cap(chunk) < need {
			chunk = make([]byte, need)
		} else {
			chunk = chunk[:need]
		}
		if _, err := io.ReadFull(r, chunk); err != nil {
			return 0, nil, errors.Wrap(err, "sacodec: read payload")
		}
		for i := 0; i < want; i++ {
			v := binary.LittleEndian.Uint64(chunk[i*int64Size : (i+1)*int64Size])
			sa = append(sa, int64(v))
		}
	}

	return k, sa, nil
}
