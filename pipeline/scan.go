// Package pipeline orchestrates the multi-pass, two-filter junction-detection
// pipeline of spec.md 2: Task Distributor -> Edge Filter Builder -> Candidate
// Marker -> Final Confirmer -> Bifurcation Writer/Storage -> Emission, repeated
// over R rounds.
package pipeline

import (
	"dbgjunc/bnt"
	"dbgjunc/kmer"
)

func allDefinite(codes []byte) bool {
	for _, c := range codes {
		if !bnt.IsDefinite(c) {
			return false
		}
	}
	return true
}

// domain maps a canonical filter key onto the round-partitioning value space
// [0, realSize), per spec.md 4.9.
func domain(key, realSize uint64) uint64 {
	if realSize == 0 {
		return 0
	}
	return key % realSize
}

// canonicalKey packs codes and returns its canonical form and filter key. Used
// for both k-mer vertex windows and k+1-mer edge windows; the packing itself is
// agnostic to which.
func canonicalKey(codes []byte) (kmer.Packed, uint64) {
	p := kmer.FromCodes(codes)
	canon := p.Canonical()
	return canon, kmer.Key(canon)
}

// edgeCanonKey is canonicalKey, named for the Edge Filter Builder's (k+1)-mer
// case (spec.md 4.1, 4.4).
func edgeCanonKey(codes []byte) (kmer.Packed, uint64) {
	return canonicalKey(codes)
}

// canonicalWithOrientation is canonicalKey plus whether the canonical form is
// the reverse complement of codes rather than codes itself; callers that track
// per-strand flank evidence (the Final Confirmer) need to know when to flip.
func canonicalWithOrientation(codes []byte) (canon kmer.Packed, flipped bool) {
	p := kmer.FromCodes(codes)
	rc := p.ReverseComplement()
	if rc.Less(p) {
		return rc, true
	}
	return p, false
}

// complementBase complements a single definite base, passing indefinite codes
// through unchanged (an N flank has no complement to track).
func complementBase(b byte) byte {
	if bnt.IsDefinite(b) {
		return bnt.BntRev[b]
	}
	return b
}

// combineEdge builds a (k+1)-mer's code slice from a k-mer window plus one
// flanking base, on the left (predecessor) or right (successor) side.
func combineEdge(flank byte, window []byte, isLeft bool) []byte {
	codes := make([]byte, len(window)+1)
	if isLeft {
		codes[0] = flank
		copy(codes[1:], window)
	} else {
		copy(codes, window)
		codes[len(codes)-1] = flank
	}
	return codes
}
