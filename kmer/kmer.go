// Package kmer implements bit-packed k-mers, their canonical form, and the rolling
// hash used to scan a chunk without re-hashing the whole window at every position.
// The packing scheme (2 bits/base, most significant base first: in a word holding
// n bases, base i occupies bits 2(n-1-i)..2(n-1-i)+1, not bits 2i..2i+1) mirrors
// the teacher's KmerBnt/ReadBnt shape in constructcf.go.
package kmer

import (
	"github.com/cespare/xxhash/v2"

	"dbgjunc/bnt"
)

// Packed is a bit-packed sequence of 2-bit base codes.
type Packed struct {
	Seq []uint64
	Len int
}

func wordsFor(n int) int {
	return (n + bnt.NumBaseInUint64 - 1) / bnt.NumBaseInUint64
}

// WordsFor returns the number of uint64 words a Packed k-mer of length n occupies.
func WordsFor(n int) int {
	return wordsFor(n)
}

// FromCodes packs a slice of definite 2-bit base codes (as produced by bnt.Base2Bnt)
// into a Packed k-mer. Callers must ensure every code is < bnt.BaseTypeNum.
func FromCodes(codes []byte) Packed {
	p := Packed{Len: len(codes), Seq: make([]uint64, wordsFor(len(codes)))}
	for i, c := range codes {
		w := i / bnt.NumBaseInUint64
		p.Seq[w] <<= bnt.NumBitsInBase
		p.Seq[w] |= uint64(c)
	}
	return p
}

// Bytes unpacks the k-mer back into 2-bit base codes, most significant base first.
func (p Packed) Bytes() []byte {
	out := make([]byte, p.Len)
	tmp := make([]uint64, len(p.Seq))
	copy(tmp, p.Seq)
	for i := p.Len - 1; i >= 0; i-- {
		w := i / bnt.NumBaseInUint64
		out[i] = byte(tmp[w] & bnt.BaseMask)
		tmp[w] >>= bnt.NumBitsInBase
	}
	return out
}

// ReverseComplement returns the reverse-complement of p under the same packing.
func (p Packed) ReverseComplement() Packed {
	rc := Packed{Len: p.Len, Seq: make([]uint64, len(p.Seq))}
	tmp := make([]uint64, len(p.Seq))
	copy(tmp, p.Seq)
	for i := p.Len - 1; i >= 0; i-- {
		w := i / bnt.NumBaseInUint64
		base := tmp[w] & bnt.BaseMask
		tmp[w] >>= bnt.NumBitsInBase
		j := p.Len - i - 1
		ow := j / bnt.NumBaseInUint64
		rc.Seq[ow] <<= bnt.NumBitsInBase
		rc.Seq[ow] |= uint64(bnt.BntRev[base])
	}
	return rc
}

// Less compares two equal-length packed k-mers as if they were their unpacked base
// strings: because every 2-bit code preserves the ordering of its ASCII letter
// (A<C<G<T), comparing the packed words word-by-word, most significant first, is
// equivalent to lexicographic string comparison.
func (p Packed) Less(q Packed) bool {
	if p.Len != q.Len {
		return p.Len < q.Len
	}
	for i := 0; i < len(p.Seq); i++ {
		if p.Seq[i] != q.Seq[i] {
			return p.Seq[i] < q.Seq[i]
		}
	}
	return false
}

// Equal reports whether p and q encode the same k-mer.
func (p Packed) Equal(q Packed) bool {
	if p.Len != q.Len || len(p.Seq) != len(q.Seq) {
		return false
	}
	for i := range p.Seq {
		if p.Seq[i] != q.Seq[i] {
			return false
		}
	}
	return true
}

// Canonical returns the lexicographically smaller of p and its reverse complement.
func (p Packed) Canonical() Packed {
	rc := p.ReverseComplement()
	if rc.Less(p) {
		return rc
	}
	return p
}

// Key encodes a canonical packed k-mer (or (k+1)-mer edge) as a single uint64
// filter key: when it fits in one 64-bit word (k <= 32) the packed bits are the
// key exactly; otherwise (spec.md 4.1's "for larger k" case) an xxhash
// fingerprint of the unpacked bytes stands in for it.
func Key(canon Packed) uint64 {
	if len(canon.Seq) == 0 {
		return 0
	}
	if len(canon.Seq) == 1 {
		return canon.Seq[0]
	}
	return Fingerprint64(canon.Bytes())
}

// Fingerprint64 hashes an arbitrary byte buffer (the unpacked canonical k-mer) with
// xxhash, used by Key as the filter key when k+1 > 32 and a single uint64
// can no longer hold the packed bits exactly.
func Fingerprint64(data []byte) uint64 {
	return xxhash.Sum64(data)
}
