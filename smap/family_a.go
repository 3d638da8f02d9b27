package smap

// Codes shared by every family, in bit order. writeBits stores the low bit
// first, so "1,0" is 0b01.
const (
	codeLiteral = 0b01  // 1,0 + shr bit colour
	codeDelta   = 0b11  // 1,1 + 3 bit delta (family A)
	codeStep    = 0b011 // 1,1,0 (family B/C)
	codeFlip    = 0b111 // 1,1,1 (family B/C)
)

const (
	deltaBias = 4
	// minRun is the shortest repeat worth the 13 bit escape.
	minRun = 13
	maxRun = 255
)

func encodeA(bw *bitWriter, s stripe, shr uint8, runs bool) {
	n := s.len()
	color := s.pixel(0)
	bw.writeByte(color)

	for k := 1; k < n; {
		c := s.pixel(k)
		if c == color {
			if runs {
				r := 1
				for k+r < n && r < maxRun && s.pixel(k+r) == color {
					r++
				}
				if r >= minRun {
					bw.writeBits(codeDelta, 2)
					bw.writeBits(deltaBias, 3)
					bw.writeByte(byte(r))
					k += r
					continue
				}
			}
			bw.writeBit(false)
			k++
			continue
		}

		if d := int8(c - color); d >= -deltaBias && d < deltaBias {
			bw.writeBits(codeDelta, 2)
			bw.writeBits(uint32(int(d)+deltaBias), 3)
		} else {
			bw.writeBits(codeLiteral, 2)
			bw.writeBits(uint32(c), shr)
		}
		color = c
		k++
	}
}

func decodeA(br *bitReader, d *sink, shr uint8) {
	n := d.len()
	color := br.readByte()
	d.put(0, color)

	for k := 1; k < n && br.err == nil; {
		switch {
		case !br.readBit():
		case !br.readBit():
			color = br.readBits(shr)
		default:
			delta := int(br.readBits(3)) - deltaBias
			if delta == 0 {
				reps := int(br.readByte())
				if reps == 0 {
					reps = 256
				}
				for ; reps > 0 && k < n; reps-- {
					d.put(k, color)
					k++
				}
				continue
			}
			color += byte(delta)
		}
		d.put(k, color)
		k++
	}
}
