package smap

import "fmt"

// Family is one of the per-stripe pixel grammars.
type Family uint8

const (
	// FamilyC is the signed-increment grammar visited column by column.
	FamilyC Family = iota
	// FamilyB is the signed-increment grammar visited row by row.
	FamilyB
	// FamilyA6 is FamilyA without the run-length escape.
	FamilyA6
	// FamilyA is the raster delta grammar with run-length escape.
	FamilyA
	numFamilies
)

// families lists the encoders in selection order. On equal size the earlier
// entry wins.
var families = [numFamilies]Family{FamilyC, FamilyB, FamilyA6, FamilyA}

func (f Family) String() string {
	switch f {
	case FamilyA:
		return "A"
	case FamilyA6:
		return "A6"
	case FamilyB:
		return "B"
	case FamilyC:
		return "C"
	}
	return fmt.Sprintf("Family(%d)", uint8(f))
}

// Type byte layout: base + shr, base a multiple of 10.
const (
	minShr = 4
	maxShr = 8
)

var opaqueBase = [numFamilies]byte{
	FamilyC:  10,
	FamilyB:  20,
	FamilyA6: 60,
	FamilyA:  100,
}

var transparentBase = [numFamilies]byte{
	FamilyC:  30,
	FamilyB:  40,
	FamilyA6: 80,
	FamilyA:  120,
}

// base returns the type byte base for the family.
func (f Family) base(transparent bool) byte {
	if transparent {
		return transparentBase[f]
	}
	return opaqueBase[f]
}

// typeByte composes a stripe type byte.
func typeByte(f Family, transparent bool, shr uint8) byte {
	return f.base(transparent) + shr
}

type typeEntry struct {
	family      Family
	transparent bool
	known       bool
}

// typeTable maps base/10 to its family. 25 is the largest base/10 a type byte
// can produce.
var typeTable = func() (t [26]typeEntry) {
	for f := Family(0); f < numFamilies; f++ {
		t[opaqueBase[f]/10] = typeEntry{family: f, known: true}
		t[transparentBase[f]/10] = typeEntry{family: f, transparent: true, known: true}
	}
	return
}()

// ParseType splits a stripe type byte. ok is false for bytes outside the
// table or with a shift width outside 4..8.
func ParseType(t byte) (f Family, transparent bool, shr uint8, ok bool) {
	e := typeTable[t/10]
	shr = t % 10
	if !e.known || shr < minShr || shr > maxShr {
		return 0, false, shr, false
	}
	return e.family, e.transparent, shr, true
}

func (f Family) columnMajor() bool { return f == FamilyC }

// encode appends the stripe's bitstream (literal first byte included) to bw.
func (f Family) encode(bw *bitWriter, s stripe, shr uint8) {
	s = s.columnMajor(f.columnMajor())
	switch f {
	case FamilyA:
		encodeA(bw, s, shr, true)
	case FamilyA6:
		encodeA(bw, s, shr, false)
	case FamilyB, FamilyC:
		encodeB(bw, s, shr)
	default:
		panic("smap: bad family " + f.String())
	}
	bw.flush()
}

// decode replays a bitstream into d. A6 streams are read by the A decoder:
// they never contain the run-length escape but are otherwise identical.
func (f Family) decode(br *bitReader, d *sink, shr uint8) error {
	d.stripe = d.stripe.columnMajor(f.columnMajor())
	switch f {
	case FamilyA, FamilyA6:
		decodeA(br, d, shr)
	case FamilyB, FamilyC:
		decodeB(br, d, shr)
	default:
		panic("smap: bad family " + f.String())
	}
	return br.err
}
