// Package fasta is a minimal FASTA record reader. It is the "Sequence Reader"
// external collaborator named out of scope by spec.md 1; this implementation is
// kept intentionally thin (header + concatenated sequence bytes, verbatim, no
// normalization) so the pipeline in this repo is runnable end-to-end. Grounded on
// the teacher's GetReadFileRecord (constructcf/constructcf.go) but adapted to
// FASTA's multi-line-per-record layout instead of one-line-per-record FASTQ/FASTA.
package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// Record is one FASTA entry: a header line (without the leading '>') and the
// sequence lines concatenated, each line's leading and trailing whitespace
// stripped (whitespace inside a line is kept), returned verbatim (non-ACGT
// bytes are NOT normalized here; that is the Task Distributor's job per spec.md 4.3).
type Record struct {
	Header string
	Seq    []byte
}

// Reader reads sequential records from a single FASTA file.
type Reader struct {
	r       *bufio.Reader
	nextHdr string
	pending bool
	err     error
}

// NewReader wraps an io.Reader already positioned at the start of a FASTA stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 1<<20)}
}

// Open opens fn and returns a Reader over it plus the underlying file, whose
// Close the caller owns.
func Open(fn string) (*Reader, *os.File, error) {
	fp, err := os.Open(fn)
	if err != nil {
		return nil, nil, fmt.Errorf("fasta: open %s: %w", fn, err)
	}
	return NewReader(fp), fp, nil
}

// Next returns the next record, or io.EOF when the file is exhausted.
func (r *Reader) Next() (Record, error) {
	if r.err != nil {
		return Record{}, r.err
	}
	var rec Record
	if r.pending {
		rec.Header = r.nextHdr
		r.pending = false
	} else {
		line, err := r.readLine()
		if err != nil {
			return Record{}, err
		}
		if len(line) == 0 || line[0] != '>' {
			return Record{}, fmt.Errorf("fasta: expected header, got %q", line)
		}
		rec.Header = string(bytes.TrimSpace(line[1:]))
	}

	var buf bytes.Buffer
	for {
		line, err := r.readLine()
		if err != nil {
			if err == io.EOF {
				r.err = io.EOF
				break
			}
			return Record{}, err
		}
		if len(line) > 0 && line[0] == '>' {
			r.nextHdr = string(bytes.TrimSpace(line[1:]))
			r.pending = true
			break
		}
		buf.Write(bytes.TrimSpace(line))
	}
	rec.Seq = buf.Bytes()
	return rec, nil
}

func (r *Reader) readLine() ([]byte, error) {
	line, err := r.r.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("fasta: read error: %w", err)
	}
	if len(line) == 0 && err == io.EOF {
		return nil, io.EOF
	}
	return line, nil
}
