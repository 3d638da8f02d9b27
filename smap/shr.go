package smap

// computeShr returns the literal width for a stripe: the smallest width in
// 4..8 holding every pixel except the first, which is always stored as a
// whole byte.
func computeShr(s stripe) uint8 {
	shr := uint8(minShr)
	mask := byte(1<<shr - 1)
	for k := 1; k < s.len(); k++ {
		for s.pixel(k)&^mask != 0 {
			shr++
			if shr >= maxShr {
				return maxShr
			}
			mask = byte(1<<shr - 1)
		}
	}
	return shr
}
