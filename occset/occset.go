// Package occset implements the concurrent OccurrenceSet of spec.md 4.6: Pass 2
// workers insert one OccurrenceRecord per candidate k-mer; coincident insertions
// of the same canonical k-mer merge flank evidence and atomically promote the
// entry to a confirmed bifurcation once flanks disagree. No library in the
// retrieval pack offers a ready concurrent map with in-place atomic field
// updates on existing values (sync.Map doesn't expose that), so this is built on
// the standard library's sync.Mutex-sharded map plus atomic.Uint32 per record —
// the same "lock where you must, atomic where you can" discipline the teacher's
// own cuckoofilter.go uses for its buckets.
package occset

import (
	"sync"
	"sync/atomic"

	"dbgjunc/kmer"
)

const (
	leftBitsShift  = 0
	rightBitsShift = 4
	bifurcationBit = 1 << 8
	baseBitsMask   = 0xF
)

// Record is the Pass 2 evidence for one canonical k-mer.
type Record struct {
	Canon kmer.Packed
	flags atomic.Uint32 // bits 0-3 left flank bases seen, 4-7 right flank, bit 8 isBifurcation
}

func baseBit(b byte) uint32 {
	if b > 3 {
		return 0
	}
	return 1 << uint32(b)
}

func popcount4(v uint32) int {
	n := 0
	for i := 0; i < 4; i++ {
		if v&(1<<i) != 0 {
			n++
		}
	}
	return n
}

// IsBifurcation reports whether this k-mer has been confirmed as a junction.
func (r *Record) IsBifurcation() bool {
	return r.flags.Load()&bifurcationBit != 0
}

// merge ORs newLeft/newRight into the record's flank-base bitsets, returning
// true if this call is the one that flips isBifurcation from false to true.
// Diversity on either side (two distinct definite bases seen for the same
// canonical k-mer, across one or more occurrences) is the only thing that
// promotes a k-mer to a confirmed junction.
func (r *Record) merge(newLeft, newRight byte) (becameBifurcation bool) {
	for {
		old := r.flags.Load()
		left := (old >> leftBitsShift) & baseBitsMask
		right := (old >> rightBitsShift) & baseBitsMask
		nl := left | baseBit(newLeft)
		nr := right | baseBit(newRight)
		bifurcating := old&bifurcationBit != 0
		if popcount4(nl) >= 2 || popcount4(nr) >= 2 {
			bifurcating = true
		}
		next := (nl << leftBitsShift) | (nr << rightBitsShift)
		if bifurcating {
			next |= bifurcationBit
		}
		if next == old {
			return false
		}
		if r.flags.CompareAndSwap(old, next) {
			return bifurcating && old&bifurcationBit == 0
		}
	}
}

type shard struct {
	mu sync.Mutex
	m  map[uint64][]*Record
}

// Set is the concurrent, insert-and-merge OccurrenceSet.
type Set struct {
	shards []shard
}

// New builds a Set with the given shard count (higher reduces lock contention).
func New(shardCount int) *Set {
	if shardCount < 1 {
		shardCount = 1
	}
	s := &Set{shards: make([]shard, shardCount)}
	for i := range s.shards {
		s.shards[i].m = make(map[uint64][]*Record)
	}
	return s
}

func (s *Set) shardFor(key uint64) *shard {
	return &s.shards[key%uint64(len(s.shards))]
}

// key derives the shard/bucket key for a canonical k-mer; it need not be
// collision-free across distinct k-mers (chaining + Canon.Equal resolves ties).
func key(canon kmer.Packed) uint64 {
	if len(canon.Seq) == 0 {
		return 0
	}
	h := uint64(0xcbf29ce484222325)
	for _, w := range canon.Seq {
		h ^= w
		h *= 0x100000001b3
	}
	return h
}

// Insert records an occurrence of canon with the given observed flank bases
// (already oriented to canon's strand; see pipeline.confirmOccurrences). It
// returns the Record (new or merged) and whether this call created it.
func (s *Set) Insert(canon kmer.Packed, leftFlank, rightFlank byte) (*Record, bool) {
	k := key(canon)
	sh := s.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	for _, r := range sh.m[k] {
		if r.Canon.Equal(canon) {
			r.merge(leftFlank, rightFlank)
			return r, false
		}
	}
	r := &Record{Canon: canon}
	r.merge(leftFlank, rightFlank)
	sh.m[k] = append(sh.m[k], r)
	return r, true
}

// Range calls fn for every record currently in the set, in no particular order.
// Used by the Bifurcation Writer (spec.md 4.7) to scan once for confirmed
// junctions.
func (s *Set) Range(fn func(*Record)) {
	for i := range s.shards {
		s.shards[i].mu.Lock()
		for _, recs := range s.shards[i].m {
			for _, r := range recs {
				fn(r)
			}
		}
		s.shards[i].mu.Unlock()
	}
}

// Len returns the total number of distinct canonical k-mers recorded.
func (s *Set) Len() int {
	n := 0
	for i := range s.shards {
		s.shards[i].mu.Lock()
		for _, recs := range s.shards[i].m {
			n += len(recs)
		}
		s.shards[i].mu.Unlock()
	}
	return n
}
