package config

import "testing"

func TestValidateRejectsBadVertexLength(t *testing.T) {
	o := Options{VertexLength: 0, FilterSizeLog: 10, HashFunctions: 2, Rounds: 1, Threads: 1, TmpDir: "/tmp", OutFile: "out", Inputs: []string{"a.fa"}}
	if err := o.Validate(); err == nil {
		t.Fatalf("Validate() should reject VertexLength=0")
	}
}

func TestValidateRejectsMissingInputs(t *testing.T) {
	o := Options{VertexLength: 21, FilterSizeLog: 10, HashFunctions: 2, Rounds: 1, Threads: 1, TmpDir: "/tmp", OutFile: "out"}
	if err := o.Validate(); err == nil {
		t.Fatalf("Validate() should reject an empty Inputs list")
	}
}

func TestValidateAcceptsWellFormedOptions(t *testing.T) {
	o := Options{VertexLength: 21, FilterSizeLog: 30, HashFunctions: 4, Rounds: 1, Threads: 4, TmpDir: "/tmp", OutFile: "out", Inputs: []string{"a.fa"}}
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil for well-formed Options", err)
	}
}

func TestFilterSizeIsPowerOfTwo(t *testing.T) {
	o := Options{FilterSizeLog: 10}
	if got, want := o.FilterSize(), uint64(1024); got != want {
		t.Fatalf("FilterSize() = %d, want %d", got, want)
	}
}
