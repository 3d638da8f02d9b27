package smap

// bitWriter packs codes into bytes lsb-first: the first bit written lands in
// bit 0 of the first byte. A value written with writeBits is stored low bit
// first, so a reader pulling the same width gets it back unchanged.
type bitWriter struct {
	buf []byte
	acc uint32
	n   uint8 // number of pending bits in acc (0..7 between calls)
}

func (bw *bitWriter) reset(buf []byte) {
	bw.buf = buf[:0]
	bw.acc = 0
	bw.n = 0
}

// writeBit writes a single bit.
func (bw *bitWriter) writeBit(bit bool) {
	if bit {
		bw.acc |= 1 << bw.n
	}
	bw.n++
	if bw.n == 8 {
		bw.buf = append(bw.buf, byte(bw.acc))
		bw.acc = 0
		bw.n = 0
	}
}

// writeBits writes the low n bits of v, n in 1..8.
func (bw *bitWriter) writeBits(v uint32, n uint8) {
	bw.acc |= (v & (1<<n - 1)) << bw.n
	bw.n += n
	for bw.n >= 8 {
		bw.buf = append(bw.buf, byte(bw.acc))
		bw.acc >>= 8
		bw.n -= 8
	}
}

func (bw *bitWriter) writeByte(b byte) {
	bw.writeBits(uint32(b), 8)
}

// flush emits the trailing partial byte, zero padded.
func (bw *bitWriter) flush() {
	if bw.n > 0 {
		bw.buf = append(bw.buf, byte(bw.acc))
		bw.acc = 0
		bw.n = 0
	}
}

func (bw *bitWriter) bytes() []byte { return bw.buf }

// bitReader mirrors bitWriter. Running out of input sets a sticky
// ErrTruncated; reads after that return zero bits.
type bitReader struct {
	data []byte
	idx  int
	acc  uint32
	n    uint8
	err  error
}

func newBitReader(data []byte) bitReader {
	return bitReader{data: data}
}

// fill pulls the next source byte above the buffered bits.
func (br *bitReader) fill() bool {
	if br.idx >= len(br.data) {
		br.err = ErrTruncated
		return false
	}
	br.acc |= uint32(br.data[br.idx]) << br.n
	br.idx++
	br.n += 8
	return true
}

// readBits returns the next n bits (1..8). Source bytes are only consumed
// when the buffered bits run short, so a stream is never read past the last
// byte the encoder produced for it.
func (br *bitReader) readBits(n uint8) uint8 {
	for br.n < n {
		if !br.fill() {
			return 0
		}
	}
	v := uint8(br.acc & (1<<n - 1))
	br.acc >>= n
	br.n -= n
	return v
}

func (br *bitReader) readBit() bool {
	return br.readBits(1) != 0
}

func (br *bitReader) readByte() byte {
	return br.readBits(8)
}

// consumed is the number of source bytes pulled so far.
func (br *bitReader) consumed() int { return br.idx }
