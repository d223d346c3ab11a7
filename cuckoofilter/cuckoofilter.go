// Package cuckoofilter implements a concurrent, insert-mostly approximate
// membership filter, adapted from the teacher's bucketized fingerprint design
// (cuckoofilter.go / cuckoofilter/cuckoofilter.go): each bucket holds BucketSize
// slots, each packing a fingerprint and a saturating count into 16 bits of a
// uint32 word, updated with lock-free compare-and-swap so concurrent Insert
// calls never need a mutex.
//
// This generalizes the teacher's byte-slice-keyed filter to a uint64-keyed one,
// since every caller in this repo (edge filter, candidate-position filter) already
// has its key packed into a uint64 (kmer.Key / a chunk-local position).
package cuckoofilter

import (
	"bufio"
	"encoding/binary"
	"encoding/gob"
	"io"
	"math/rand"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/google/brotli/go/cbrotli"
)

const (
	numFPBits = 13
	numCBits  = 3
	fpMask    = (1 << numFPBits) - 1
	maxCount  = (1 << numCBits) - 1

	BucketSize = 4
	maxKicks   = 500
)

// item packs a fingerprint (high bits) and a saturating insertion count (low bits)
// into the low 16 bits, matching the teacher's CFItem layout. The slot itself is a
// uint32 because sync/atomic has no 16-bit operations.
type item uint32

func combine(fp uint16, count uint16) item {
	return item(fp)<<numCBits | item(count&maxCount)
}

func (it item) finger() uint16 { return uint16(it) >> numCBits }
func (it item) count() uint16  { return uint16(it) & maxCount }

type bucket struct {
	Slots [BucketSize]item
}

// Filter is a concurrent Cuckoo filter over uint64 keys.
type Filter struct {
	Buckets []bucket
	NumBkt  uint64
	Kmerlen int
}

func upperPower2(x uint64) uint64 {
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	x++
	return x
}

// New builds a Filter with maxNumKeys rounded up to a power of two slots (in
// buckets of BucketSize), so it is full once that many distinct fingerprints are
// stored; no extra headroom is added. kmerlen is carried along only as metadata for downstream
// serialization (the teacher's MakeCuckooFilter does the same).
func New(maxNumKeys uint64, kmerlen int) *Filter {
	numBkt := upperPower2(maxNumKeys) / BucketSize
	if numBkt == 0 {
		numBkt = 1
	}
	return &Filter{Buckets: make([]bucket, numBkt), NumBkt: numBkt, Kmerlen: kmerlen}
}

func (f *Filter) indexHash(h uint64) uint64 {
	return h % f.NumBkt
}

func (f *Filter) altIndex(index uint64, fp uint16) uint64 {
	var b [2]byte
	b[0], b[1] = byte(fp>>8), byte(fp)
	h := xxhash.Sum64(b[:])
	return (index ^ h) % f.NumBkt
}

func keyBytes(key uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], key)
	return b[:]
}

func fingerprint(key uint64) uint16 {
	h := xxhash.Sum64(keyBytes(key))
	return uint16(h%fpMask) + 1
}

func indices(f *Filter, key uint64) (i1, i2 uint64, fp uint16) {
	h := xxhash.Sum64(keyBytes(key))
	fp = fingerprint(key)
	i1 = f.indexHash(h)
	i2 = f.altIndex(i1, fp)
	return
}

func casItem(addr *item, old, new item) bool {
	return atomic.CompareAndSwapUint32((*uint32)(addr), uint32(old), uint32(new))
}

func (b *bucket) contains(fp uint16) bool {
	for i := range b.Slots {
		s := item(atomic.LoadUint32((*uint32)(&b.Slots[i])))
		if s.count() > 0 && s.finger() == fp {
			return true
		}
	}
	return false
}

// insertInto tries to add it to bucket bIdx without eviction; it either lands in an
// empty slot, merges into a matching fingerprint's count, or fails with ok=false.
func (f *Filter) insertInto(bIdx uint64, it item) (count int, ok bool) {
	b := &f.Buckets[bIdx]
	for i := range b.Slots {
		for {
			old := item(atomic.LoadUint32((*uint32)(&b.Slots[i])))
			if old.count() == 0 {
				if casItem(&b.Slots[i], old, it) {
					return 0, true
				}
				continue
			}
			if old.finger() == it.finger() {
				for {
					oc := item(atomic.LoadUint32((*uint32)(&b.Slots[i])))
					if oc.count() >= maxCount {
						return int(oc.count()), true
					}
					nc := combine(oc.finger(), oc.count()+1)
					if casItem(&b.Slots[i], oc, nc) {
						return int(oc.count()), true
					}
				}
			}
			break
		}
	}
	return 0, false
}

func (f *Filter) evictFrom(bIdx uint64, it item) (evicted item, from uint64) {
	j := rand.Intn(BucketSize)
	b := &f.Buckets[bIdx]
	for {
		old := item(atomic.LoadUint32((*uint32)(&b.Slots[j])))
		if casItem(&b.Slots[j], old, it) {
			return old, bIdx
		}
	}
}

// Insert adds key to the filter, returning the fingerprint's count *before* this
// insertion and whether the insertion succeeded. Callers in this repo (the Edge
// Filter Builder, the Candidate Marker) only check filter membership via
// Contains; priorCount mirrors the teacher's CFItem count return and is not
// otherwise consumed here.
func (f *Filter) Insert(key uint64) (priorCount int, ok bool) {
	i1, i2, fp := indices(f, key)
	it := combine(fp, 1)
	if c, ok := f.insertInto(i1, it); ok {
		return c, true
	}
	if c, ok := f.insertInto(i2, it); ok {
		return c, true
	}
	idx := i1
	if rand.Intn(2) == 1 {
		idx = i2
	}
	kicked, from := f.evictFrom(idx, it)
	for k := 0; k < maxKicks; k++ {
		if kicked.count() == 0 {
			return 0, true
		}
		alt := f.altIndex(from, kicked.finger())
		if c, ok := f.insertInto(alt, kicked); ok {
			return c, true
		}
		kicked, from = f.evictFrom(alt, kicked)
	}
	return 0, false
}

// Contains reports whether key was (probably) inserted.
func (f *Filter) Contains(key uint64) bool {
	i1, i2, fp := indices(f, key)
	if f.Buckets[i1].contains(fp) {
		return true
	}
	return f.Buckets[i2].contains(fp)
}

// Count returns the saturating insertion count for key, or 0 if absent.
func (f *Filter) Count(key uint64) uint16 {
	i1, i2, fp := indices(f, key)
	for _, s := range f.Buckets[i1].Slots {
		if s.count() > 0 && s.finger() == fp {
			return s.count()
		}
	}
	for _, s := range f.Buckets[i2].Slots {
		if s.count() > 0 && s.finger() == fp {
			return s.count()
		}
	}
	return 0
}

// Size returns the number of buckets (NumBkt * BucketSize slots total).
func (f *Filter) Size() uint64 {
	return f.NumBkt
}

// Stat reports occupancy per count bucket and the overall load factor, mirroring
// the teacher's GetStat diagnostic.
func (f *Filter) Stat() (countHist [maxCount + 1]int, load float64) {
	for _, b := range f.Buckets {
		for _, s := range b.Slots {
			countHist[s.count()]++
		}
	}
	var total int
	for i := 1; i <= maxCount; i++ {
		total += countHist[i]
	}
	load = float64(total) / float64(f.NumBkt*BucketSize)
	return
}

// Serialize writes the filter (the "filter.bin" dump of spec.md 6) compressed with
// brotli, the teacher's on-disk format for bulk binary state.
func (f *Filter) Serialize(w io.Writer) error {
	bw := cbrotli.NewWriter(w, cbrotli.WriterOptions{Quality: 1})
	defer bw.Close()
	bufw := bufio.NewWriterSize(bw, 1<<20)
	enc := gob.NewEncoder(bufw)
	if err := enc.Encode(f); err != nil {
		return err
	}
	if err := bufw.Flush(); err != nil {
		return err
	}
	return bw.Flush()
}

// Deserialize reads back a filter written by Serialize.
func Deserialize(r io.Reader) (*Filter, error) {
	br := cbrotli.NewReader(r)
	defer br.Close()
	dec := gob.NewDecoder(bufio.NewReaderSize(br, 1<<20))
	f := &Filter{}
	if err := dec.Decode(f); err != nil && err != io.EOF {
		return nil, err
	}
	return f, nil
}
