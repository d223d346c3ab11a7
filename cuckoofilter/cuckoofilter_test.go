package cuckoofilter

import (
	"bytes"
	"testing"
)

func TestInsertContains(t *testing.T) {
	f := New(1024, 21)
	keys := []uint64{1, 2, 3, 1000000, 0xdeadbeef}
	for _, k := range keys {
		if _, ok := f.Insert(k); !ok {
			t.Fatalf("Insert(%d) failed", k)
		}
	}
	for _, k := range keys {
		if !f.Contains(k) {
			t.Errorf("Contains(%d) = false, want true after insert", k)
		}
	}
}

func TestInsertTwiceReturnsPriorCount(t *testing.T) {
	f := New(1024, 21)
	if _, ok := f.Insert(42); !ok {
		t.Fatalf("first insert failed")
	}
	count, ok := f.Insert(42)
	if !ok {
		t.Fatalf("second insert failed")
	}
	if count < 1 {
		t.Errorf("second Insert(42) prior count = %d, want >= 1", count)
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	f := New(256, 21)
	for i := uint64(0); i < 100; i++ {
		f.Insert(i * 7)
	}
	var buf bytes.Buffer
	if err := f.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	f2, err := Deserialize(&buf)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	for i := uint64(0); i < 100; i++ {
		if !f2.Contains(i * 7) {
			t.Errorf("round-tripped filter missing key %d", i*7)
		}
	}
}

func TestStatLoadFactor(t *testing.T) {
	f := New(1024, 21)
	for i := uint64(0); i < 200; i++ {
		f.Insert(i)
	}
	_, load := f.Stat()
	if load <= 0 || load > 1 {
		t.Errorf("load factor %f out of (0,1]", load)
	}
}
