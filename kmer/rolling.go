package kmer

// RollingHash maintains independent forward ("positive") and reverse-complement
// ("negative") Karp-Rabin polynomial hashes over a sliding window of length k, each
// under a distinct multiplicative seed. Update cost is O(#seeds) per step, per
// spec.md 4.2.
type RollingHash struct {
	k     int
	seeds []uint64
	bK1   []uint64 // seed^(k-1) mod 2^64, precomputed per seed
	pos   []uint64 // forward hash per seed
	neg   []uint64 // reverse-complement hash per seed
}

// DefaultSeeds are the odd multiplicative constants used when the caller does not
// supply its own. Oddness keeps each seed coprime with 2^64 so multiplication stays
// well-mixed under unsigned wraparound.
var DefaultSeeds = []uint64{
	0x9E3779B97F4A7C15,
	0xC2B2AE3D27D4EB4F,
	0x165667B19E3779F9,
	0x27D4EB2F165667C5,
}

// Seeds returns n odd multiplicative seeds for a RollingHash (all of
// DefaultSeeds when n <= 0). It returns a prefix of DefaultSeeds when that
// covers n, and otherwise extends it with further splitmix64-derived odd
// constants so any n works. The pipeline does not call it.
func Seeds(n int) []uint64 {
	if n <= 0 {
		return DefaultSeeds
	}
	if n <= len(DefaultSeeds) {
		return DefaultSeeds[:n]
	}
	out := append([]uint64(nil), DefaultSeeds...)
	state := DefaultSeeds[len(DefaultSeeds)-1]
	for len(out) < n {
		state += 0x9E3779B97F4A7C15
		z := state
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		z = z ^ (z >> 31)
		out = append(out, z|1)
	}
	return out
}

// NewRollingHash builds a RollingHash for window length k using the given seeds
// (DefaultSeeds if nil).
func NewRollingHash(k int, seeds []uint64) *RollingHash {
	if seeds == nil {
		seeds = DefaultSeeds
	}
	rh := &RollingHash{
		k:     k,
		seeds: append([]uint64(nil), seeds...),
		bK1:   make([]uint64, len(seeds)),
		pos:   make([]uint64, len(seeds)),
		neg:   make([]uint64, len(seeds)),
	}
	for i, s := range rh.seeds {
		p := uint64(1)
		for j := 0; j < k-1; j++ {
			p *= s
		}
		rh.bK1[i] = p
	}
	return rh
}

// Reset seeds the hash from an initial definite-base window (codes, len==k).
func (rh *RollingHash) Reset(codes []byte, rcCodes []byte) {
	for i, s := range rh.seeds {
		var ph, nh uint64
		for _, c := range codes {
			ph = ph*s + uint64(c)
		}
		for _, c := range rcCodes {
			nh = nh*s + uint64(c)
		}
		rh.pos[i] = ph
		rh.neg[i] = nh
	}
}

// Slide advances the window by one base: dropped is the base leaving the forward
// window at the low end, added is the base entering at the high end (both as 2-bit
// codes); droppedComp/addedComp are their complements, used to keep the negative
// (reverse-complement) hash in sync without rescanning the window.
func (rh *RollingHash) Slide(dropped, added, droppedComp, addedComp byte) {
	for i, s := range rh.seeds {
		// The negative hash holds the dropped base's complement at s^0, so every
		// remaining term shifts down one power: divide by s via its inverse
		// mod 2^64 (s is odd; five Newton steps give all 64 bits).
		inv := s
		for j := 0; j < 5; j++ {
			inv *= 2 - s*inv
		}
		rh.pos[i] = (rh.pos[i]-uint64(dropped)*rh.bK1[i])*s + uint64(added)
		rh.neg[i] = (rh.neg[i]-uint64(droppedComp))*inv + uint64(addedComp)*rh.bK1[i]
	}
}

// Positive returns the forward-strand hash values, one per seed.
func (rh *RollingHash) Positive() []uint64 {
	return rh.pos
}

// Negative returns the reverse-complement-strand hash values, one per seed.
func (rh *RollingHash) Negative() []uint64 {
	return rh.neg
}

// Composite folds the positive and negative seed hashes into one deterministic
// 64-bit value. It is not strand-symmetric: pos/neg swap between a sequence and
// its reverse complement and the fold is order-dependent. The occurrence set
// (occset) does not use it; it keys records by the canonical k-mer's packed bits.
func (rh *RollingHash) Composite() uint64 {
	h := uint64(0xcbf29ce484222325)
	for _, v := range rh.pos {
		h ^= v
		h *= 0x100000001b3
	}
	for _, v := range rh.neg {
		h ^= v
		h *= 0x100000001b3
	}
	return h
}
