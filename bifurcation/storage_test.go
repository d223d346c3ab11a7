package bifurcation

import (
	"sort"
	"testing"

	"dbgjunc/kmer"
)

func TestBuildLookupAssignsDenseIds(t *testing.T) {
	var kmers []kmer.Packed
	for _, seq := range []string{"AAA", "CCC", "GGG", "TTT"} {
		kmers = append(kmers, packed(seq))
	}
	sort.Slice(kmers, func(i, j int) bool { return kmers[i].Less(kmers[j]) })

	st := Build(kmers)
	if st.Len() != uint64(len(kmers)) {
		t.Fatalf("Len() = %d, want %d", st.Len(), len(kmers))
	}
	seen := make(map[uint64]bool)
	for _, km := range kmers {
		id := st.Lookup(km)
		if id == Invalid {
			t.Fatalf("Lookup(%v) = Invalid, want a valid id", km.Bytes())
		}
		if id >= st.Len() {
			t.Fatalf("Lookup(%v) = %d, out of dense range [0,%d)", km.Bytes(), id, st.Len())
		}
		if seen[id] {
			t.Fatalf("duplicate id %d assigned", id)
		}
		seen[id] = true
	}
}

func TestLookupUnknownIsInvalid(t *testing.T) {
	st := Build([]kmer.Packed{packed("AAA")})
	if id := st.Lookup(packed("TTT")); id != Invalid {
		t.Fatalf("Lookup on unbuilt kmer = %d, want Invalid", id)
	}
}

func TestBuildEmpty(t *testing.T) {
	st := Build(nil)
	if st.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 for empty Build", st.Len())
	}
	if id := st.Lookup(packed("AAA")); id != Invalid {
		t.Fatalf("Lookup on empty storage = %d, want Invalid", id)
	}
}
