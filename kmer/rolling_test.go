package kmer

import (
	"testing"

	"dbgjunc/bnt"
)

// naiveHash recomputes the same Karp-Rabin polynomial RollingHash.Reset would,
// used as an oracle for Slide.
func naiveHash(seed uint64, codes []byte) uint64 {
	var h uint64
	for _, c := range codes {
		h = h*seed + uint64(c)
	}
	return h
}

func TestRollingHashSlideMatchesNaive(t *testing.T) {
	seq := codes("ACGTACGTAC")
	k := 4
	seeds := []uint64{DefaultSeeds[0]}
	rh := NewRollingHash(k, seeds)

	rc := make([]byte, k)
	for i, c := range seq[:k] {
		rc[k-1-i] = bnt.BntRev[c]
	}
	rh.Reset(seq[:k], rc)

	for p := 1; p+k <= len(seq); p++ {
		dropped, added := seq[p-1], seq[p+k-1]
		rh.Slide(dropped, added, bnt.BntRev[dropped], bnt.BntRev[added])

		want := naiveHash(seeds[0], seq[p:p+k])
		if got := rh.Positive()[0]; got != want {
			t.Fatalf("p=%d: Positive()[0] = %d, want %d", p, got, want)
		}

		wantRC := make([]byte, k)
		for i, c := range seq[p : p+k] {
			wantRC[k-1-i] = bnt.BntRev[c]
		}
		wantNeg := naiveHash(seeds[0], wantRC)
		if got := rh.Negative()[0]; got != wantNeg {
			t.Fatalf("p=%d: Negative()[0] = %d, want %d", p, got, wantNeg)
		}
	}
}

func TestRollingHashCompositeDeterministic(t *testing.T) {
	seq := codes("ACGTACGT")
	rh1 := NewRollingHash(4, nil)
	rh2 := NewRollingHash(4, nil)
	rc := make([]byte, 4)
	for i, c := range seq[:4] {
		rc[3-i] = bnt.BntRev[c]
	}
	rh1.Reset(seq[:4], rc)
	rh2.Reset(seq[:4], rc)
	if rh1.Composite() != rh2.Composite() {
		t.Fatalf("Composite() not deterministic for identical state")
	}
}
