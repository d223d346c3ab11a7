package candidatemask

import (
	"bytes"
	"testing"
)

func TestAddContains(t *testing.T) {
	m := New(1, 0, 0)
	for _, p := range []uint32{5, 10, 100, 101} {
		m.Add(p)
	}
	for _, p := range []uint32{5, 10, 100, 101} {
		if !m.Contains(p) {
			t.Errorf("Contains(%d) = false, want true", p)
		}
	}
	for _, p := range []uint32{0, 6, 99, 102} {
		if m.Contains(p) {
			t.Errorf("Contains(%d) = true, want false", p)
		}
	}
	if m.Len() != 4 {
		t.Errorf("Len() = %d, want 4", m.Len())
	}
}

func TestUnionMergesSortedDedup(t *testing.T) {
	a := New(1, 0, 0)
	a.Add(1)
	a.Add(5)
	a.Add(9)
	b := New(1, 0, 1)
	b.Add(5)
	b.Add(7)

	a.Union(b)
	want := []uint32{1, 5, 7, 9}
	got := a.Positions()
	if len(got) != len(want) {
		t.Fatalf("Positions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Positions() = %v, want %v", got, want)
		}
	}
}

func TestWriteToReadFromRoundTrip(t *testing.T) {
	m := New(3, 64, 2)
	for _, p := range []uint32{2, 4, 8, 16, 1000, 1000000} {
		m.Add(p)
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	m2 := New(3, 64, 2)
	if _, err := m2.ReadFrom(&buf); err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if m2.Len() != m.Len() {
		t.Fatalf("round-tripped Len() = %d, want %d", m2.Len(), m.Len())
	}
	for _, p := range m.Positions() {
		if !m2.Contains(p) {
			t.Errorf("round-tripped mask missing position %d", p)
		}
	}
}

func TestUnionWithEmptyIsNoop(t *testing.T) {
	a := New(1, 0, 0)
	a.Add(3)
	a.Union(New(1, 0, 0))
	if a.Len() != 1 {
		t.Fatalf("Union with empty mask changed Len() to %d", a.Len())
	}
	a.Union(nil)
	if a.Len() != 1 {
		t.Fatalf("Union with nil changed Len() to %d", a.Len())
	}
}
