// Package candidatemask implements the per-chunk CandidateMask of spec.md 3 and
// 4.5: the set of positions within one chunk whose k-mer passed the Pass 1b
// probabilistic degree check. Positions are produced by Pass 1b in strictly
// increasing order (it scans the chunk left to right), so the set is stored as a
// sorted slice rather than a hash or bitmap — compact, exact, and trivially
// reloadable, satisfying spec.md 9's "exact-set shim" capability alongside the
// probabilistic F_edge/candidate filters.
package candidatemask

import (
	"bufio"
	"encoding/binary"
	"io"
	"sort"

	"github.com/klauspost/compress/zstd"
)

// Mask is the exact set of candidate positions within a single chunk.
type Mask struct {
	SeqID       uint32
	StartOffset int
	Round       int
	positions   []uint32
}

// New creates an empty Mask for the given chunk coordinates.
func New(seqID uint32, startOffset, round int) *Mask {
	return &Mask{SeqID: seqID, StartOffset: startOffset, Round: round}
}

// Add records a candidate position. Callers (Pass 1b) must call Add in strictly
// increasing order of pos, per spec.md 4.5's left-to-right chunk scan.
func (m *Mask) Add(pos uint32) {
	m.positions = append(m.positions, pos)
}

// Contains reports whether pos was recorded as a candidate.
func (m *Mask) Contains(pos uint32) bool {
	i := sort.Search(len(m.positions), func(i int) bool { return m.positions[i] >= pos })
	return i < len(m.positions) && m.positions[i] == pos
}

// Positions returns the sorted candidate positions.
func (m *Mask) Positions() []uint32 {
	return m.positions
}

// Len returns the number of candidate positions.
func (m *Mask) Len() int {
	return len(m.positions)
}

// Union merges other's positions into m, keeping the result sorted and
// deduplicated; used by the Emission pass to combine masks across R rounds
// (spec.md 4.8: "reload the union of CandidateMasks across all R rounds").
func (m *Mask) Union(other *Mask) {
	if other == nil || len(other.positions) == 0 {
		return
	}
	merged := make([]uint32, 0, len(m.positions)+len(other.positions))
	i, j := 0, 0
	for i < len(m.positions) || j < len(other.positions) {
		switch {
		case j >= len(other.positions) || (i < len(m.positions) && m.positions[i] < other.positions[j]):
			merged = append(merged, m.positions[i])
			i++
		case i >= len(m.positions) || other.positions[j] < m.positions[i]:
			merged = append(merged, other.positions[j])
			j++
		default:
			merged = append(merged, m.positions[i])
			i++
			j++
		}
	}
	m.positions = merged
}

// WriteTo serializes the mask to w as delta-encoded varints, zstd-compressed —
// the temp-file format named by spec.md 4.5
// (`<tmp>/<seqId>_<startOffset>_<round>.tmp`).
func (m *Mask) WriteTo(w io.Writer) (int64, error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return 0, err
	}
	defer zw.Close()
	bw := bufio.NewWriter(zw)

	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(m.positions)))
	n, err := bw.Write(hdr[:])
	if err != nil {
		return int64(n), err
	}
	total := int64(n)
	var prev uint32
	var tmp [binary.MaxVarintLen32]byte
	for _, p := range m.positions {
		delta := p - prev
		prev = p
		vn := binary.PutUvarint(tmp[:], uint64(delta))
		wn, err := bw.Write(tmp[:vn])
		total += int64(wn)
		if err != nil {
			return total, err
		}
	}
	if err := bw.Flush(); err != nil {
		return total, err
	}
	return total, zw.Flush()
}

// ReadFrom reloads a mask written by WriteTo.
func (m *Mask) ReadFrom(r io.Reader) (int64, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return 0, err
	}
	defer zr.Close()
	br := bufio.NewReader(zr)

	var hdr [4]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return 0, err
	}
	count := binary.LittleEndian.Uint32(hdr[:])
	m.positions = make([]uint32, 0, count)
	var prev uint32
	for i := uint32(0); i < count; i++ {
		delta, err := binary.ReadUvarint(br)
		if err != nil {
			return 0, err
		}
		prev += uint32(delta)
		m.positions = append(m.positions, prev)
	}
	return int64(len(m.positions)), nil
}
