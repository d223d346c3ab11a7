// Package bnt defines the 2-bit nucleotide encoding shared by the kmer, cuckoofilter
// and pipeline packages: A=0, C=1, G=2, T=3, with N (and any other byte) folded to the
// sentinel value used at record boundaries and ambiguous positions.
package bnt

const (
	NumBitsInBase   = 2
	NumBaseInUint64 = 64 / NumBitsInBase
	NumBaseInByte   = 8 / NumBitsInBase
	BaseMask        = uint64(1<<NumBitsInBase) - 1
	BaseTypeNum     = 4 // A, C, G, T

	A byte = 0
	C byte = 1
	G byte = 2
	T byte = 3
	N byte = 4
)

// Base2Bnt maps an ASCII base letter to its 2-bit code. Non-ACGT bytes (including 'N')
// map to N, matching the Task Distributor's sentinel-normalization contract.
var Base2Bnt [256]byte

// BntRev is the complement table over 2-bit codes: BntRev[A]=T, BntRev[C]=G, etc.
var BntRev [BaseTypeNum]byte

// BitNtCharUp maps a 2-bit code back to its upper-case ASCII letter.
var BitNtCharUp [BaseTypeNum]byte

func init() {
	for i := range Base2Bnt {
		Base2Bnt[i] = N
	}
	Base2Bnt['A'], Base2Bnt['a'] = A, A
	Base2Bnt['C'], Base2Bnt['c'] = C, C
	Base2Bnt['G'], Base2Bnt['g'] = G, G
	Base2Bnt['T'], Base2Bnt['t'] = T, T

	BntRev[A], BntRev[C], BntRev[G], BntRev[T] = T, G, C, A
	BitNtCharUp[A], BitNtCharUp[C], BitNtCharUp[G], BitNtCharUp[T] = 'A', 'C', 'G', 'T'
}

// IsDefinite reports whether b is one of the four definite bases (not the N sentinel).
func IsDefinite(b byte) bool {
	return b < BaseTypeNum
}
