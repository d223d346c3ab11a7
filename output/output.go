// Package output implements the Junction output file format of spec.md 6: a
// stream of fixed (pos:u32, bifId:u64) little-endian records per chromosome, with
// an all-ones sentinel record marking a chromosome separator. Grounded directly
// on the original's JunctionPositionReader/Writer (common/junctionpositionapi.h)
// named in spec.md's original_source material.
package output

import (
	"bufio"
	"encoding/binary"
	"io"
)

const (
	sepPos   = 0xFFFFFFFF
	sepBifID = 0xFFFFFFFFFFFFFFFF
)

// JunctionPosition is one emitted tuple, already resolved to its chromosome index.
type JunctionPosition struct {
	Chr   uint32
	Pos   uint32
	BifID uint64
}

// Writer emits JunctionPositions in increasing chromosome order, padding with
// separator records so the reader can infer chr purely from stream position.
type Writer struct {
	w      *bufio.Writer
	nowChr uint32
}

// NewWriter wraps w for writing.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 1<<20)}
}

// WriteJunction appends pos, emitting any separators needed to advance nowChr up
// to pos.Chr first.
func (jw *Writer) WriteJunction(p JunctionPosition) error {
	for p.Chr > jw.nowChr {
		if err := jw.writeRaw(sepPos, sepBifID); err != nil {
			return err
		}
		jw.nowChr++
	}
	return jw.writeRaw(p.Pos, p.BifID)
}

// Skip advances past the current chromosome without emitting any position
// record, for a record that produced no junctions (spec.md 8's boundary case:
// "a record shorter than k yields no junctions and no stubs"). Without this,
// an empty chromosome would leave no trace in the stream and every later
// chromosome's separator count would be off by one.
func (jw *Writer) Skip() error {
	if err := jw.writeRaw(sepPos, sepBifID); err != nil {
		return err
	}
	jw.nowChr++
	return nil
}

func (jw *Writer) writeRaw(pos uint32, bifID uint64) error {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:4], pos)
	binary.LittleEndian.PutUint64(buf[4:12], bifID)
	_, err := jw.w.Write(buf[:])
	return err
}

// Flush flushes buffered output.
func (jw *Writer) Flush() error {
	return jw.w.Flush()
}

// Reader reads back a stream written by Writer, skipping separators and
// tracking the implicit chromosome counter.
type Reader struct {
	r      *bufio.Reader
	nowChr uint32
}

// NewReader wraps r for reading.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 1<<20)}
}

// Next returns the next non-separator JunctionPosition, or io.EOF at end of
// stream.
func (jr *Reader) Next() (JunctionPosition, error) {
	var buf [12]byte
	for {
		if _, err := io.ReadFull(jr.r, buf[:]); err != nil {
			if err == io.ErrUnexpectedEOF {
				return JunctionPosition{}, io.EOF
			}
			return JunctionPosition{}, err
		}
		pos := binary.LittleEndian.Uint32(buf[0:4])
		bifID := binary.LittleEndian.Uint64(buf[4:12])
		if pos == sepPos && bifID == sepBifID {
			jr.nowChr++
			continue
		}
		return JunctionPosition{Chr: jr.nowChr, Pos: pos, BifID: bifID}, nil
	}
}
