package smap

func encodeB(bw *bitWriter, s stripe, shr uint8) {
	n := s.len()
	color := s.pixel(0)
	bw.writeByte(color)
	inc := int8(-1)

	for k := 1; k < n; k++ {
		c := s.pixel(k)
		switch {
		case c == color:
			bw.writeBit(false)
		case c == color+byte(inc):
			bw.writeBits(codeStep, 3)
		case c == color-byte(inc):
			bw.writeBits(codeFlip, 3)
			inc = -inc
		default:
			bw.writeBits(codeLiteral, 2)
			bw.writeBits(uint32(c), shr)
			inc = -1
		}
		color = c
	}
}

func decodeB(br *bitReader, d *sink, shr uint8) {
	n := d.len()
	color := br.readByte()
	d.put(0, color)
	inc := int8(-1)

	for k := 1; k < n && br.err == nil; k++ {
		switch {
		case !br.readBit():
		case !br.readBit():
			color = br.readBits(shr)
			inc = -1
		case !br.readBit():
			color += byte(inc)
		default:
			inc = -inc
			color += byte(inc)
		}
		d.put(k, color)
	}
}
