package smap

// StripeWidth is the pixel width of one stripe.
const StripeWidth = 8

// stripe is an 8 pixel wide view into a strided pixel buffer. Pixels are
// numbered 0..8*height-1 in visiting order: row-major, or column-major when
// col is set.
type stripe struct {
	pix    []byte
	stride int
	x0     int
	height int
	col    bool
}

func newStripe(pix []byte, stride, index, height int) stripe {
	return stripe{pix: pix, stride: stride, x0: index * StripeWidth, height: height}
}

func (s stripe) columnMajor(col bool) stripe {
	s.col = col
	return s
}

func (s stripe) len() int { return StripeWidth * s.height }

// at returns the buffer offset of the k-th visited pixel.
func (s stripe) at(k int) int {
	if s.col {
		return (k%s.height)*s.stride + s.x0 + k/s.height
	}
	return (k/StripeWidth)*s.stride + s.x0 + k%StripeWidth
}

func (s stripe) pixel(k int) byte { return s.pix[s.at(k)] }

// sink receives decoded pixels. Pixels equal to the transparent colour are
// dropped, leaving the destination untouched; the rest are stored with mod
// added.
type sink struct {
	stripe
	transparent int // -1 for none
	mod         byte
}

func (d *sink) put(k int, c byte) {
	if int(c) == d.transparent {
		return
	}
	d.pix[d.at(k)] = c + d.mod
}
