// Package bifurcation implements the Bifurcation Writer and Storage Builder of
// spec.md 4.7: scan the OccurrenceSet once, spill every confirmed junction's
// canonical k-mer (compressed) to a temp file, then build a dense
// kmer -> id lookup from that stream, written once after all rounds. spec.md 9
// requires sorting by canonical k-mer before id assignment so that the same
// input always yields the same ids regardless of goroutine scheduling order.
package bifurcation

import (
	"bufio"
	"encoding/binary"
	"io"
	"sort"

	"github.com/google/brotli/go/cbrotli"

	"dbgjunc/kmer"
	"dbgjunc/occset"
)

// WriteSet scans set and appends every confirmed bifurcation's canonical k-mer to
// w (brotli-compressed, the teacher's format for bulk temp state). It returns the
// count of true and false positives observed, per spec.md 4.7.
func WriteSet(w io.Writer, set *occset.Set) (truePositives, falsePositives int, err error) {
	bw := cbrotli.NewWriter(w, cbrotli.WriterOptions{Quality: 1})
	defer bw.Close()
	buf := bufio.NewWriterSize(bw, 1<<20)

	var kmers []kmer.Packed
	set.Range(func(r *occset.Record) {
		if r.IsBifurcation() {
			kmers = append(kmers, r.Canon)
		} else {
			falsePositives++
		}
	})
	sort.Slice(kmers, func(i, j int) bool { return kmers[i].Less(kmers[j]) })
	truePositives = len(kmers)

	for _, km := range kmers {
		for _, w64 := range km.Seq {
			if err := binary.Write(buf, binary.LittleEndian, w64); err != nil {
				return truePositives, falsePositives, err
			}
		}
	}
	if err := buf.Flush(); err != nil {
		return truePositives, falsePositives, err
	}
	if err := bw.Flush(); err != nil {
		return truePositives, falsePositives, err
	}
	return truePositives, falsePositives, nil
}

// ReadSorted reads back one stream written by WriteSet as packed k-mers of the
// given word width; it opens a single brotli stream per call.
func ReadSorted(r io.Reader, wordsPerKmer, k int) ([]kmer.Packed, error) {
	br := cbrotli.NewReader(r)
	defer br.Close()
	buf := bufio.NewReaderSize(br, 1<<20)
	var out []kmer.Packed
	for {
		seq := make([]uint64, wordsPerKmer)
		var eof bool
		for i := range seq {
			if err := binary.Read(buf, binary.LittleEndian, &seq[i]); err != nil {
				if err == io.EOF && i == 0 {
					eof = true
					break
				}
				if err == io.EOF || err == io.ErrUnexpectedEOF {
					return out, nil
				}
				return out, err
			}
		}
		if eof {
			break
		}
		out = append(out, kmer.Packed{Seq: seq, Len: k})
	}
	return out, nil
}
