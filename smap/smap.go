// Package smap implements the stripe image codec used for room backgrounds
// and object images.
//
// An image is cut into 8 pixel wide stripes. Every stripe is encoded with
// each pixel grammar (families A, A6, B and C), the shortest output is kept
// and tagged with a type byte naming family, transparency capability and
// literal bit width. The blob is a table of little-endian uint32 offsets, one
// per stripe, followed by the stripe records:
//
//	offset[0] ... offset[n-1] | type bits... | type bits... | ...
//
// Offsets include the size of the container chunk header the blob is stored
// under (Encoder.HeaderSize), so they point directly at the records when
// counted from the chunk start.
package smap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"

	"stripecodec/logx"
)

const logSection = "smap"

// NoTransparency disables transparent colour handling.
const NoTransparency = -1

const offsetSize = 4

// Errors returned by the encoder and decoder; wrapped with stripe context.
var (
	ErrWidth       = errors.New("smap: width is not a multiple of 8")
	ErrDimensions  = errors.New("smap: invalid dimensions")
	ErrShortBuffer = errors.New("smap: pixel buffer too small")
	ErrTransparent = errors.New("smap: transparent colour out of range")
	ErrAccounting  = errors.New("smap: encoded size does not match computed size")
	ErrTruncated   = errors.New("smap: truncated data")
	ErrCorrupt     = errors.New("smap: corrupt offset table")
	ErrTooLarge    = errors.New("smap: blob too large")
)

// checkGeometry validates a strided buffer of width x height pixels.
func checkGeometry(pix []byte, stride, width, height int) error {
	if width%StripeWidth != 0 {
		return ErrWidth
	}
	if width < 0 || height <= 0 || stride < width {
		return fmt.Errorf("%w: %dx%d stride %d", ErrDimensions, width, height, stride)
	}
	if width > 0 && len(pix) < (height-1)*stride+width {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(pix), (height-1)*stride+width)
	}
	return nil
}

func checkTransparent(transparent int) error {
	if transparent < NoTransparency || transparent > 255 {
		return fmt.Errorf("%w: %d", ErrTransparent, transparent)
	}
	return nil
}

// Encoder keeps scratch buffers between calls. It is not safe for
// concurrent use; use one Encoder per goroutine.
type Encoder struct {
	// HeaderSize is added to every stored offset.
	HeaderSize int

	bw      bitWriter
	scratch [numFamilies][]byte
	records [][]byte
}

// NewEncoder returns an Encoder with empty scratch buffers.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode compresses a width x height image stored with the given stride.
// transparent is a palette index in 0..255, or NoTransparency.
func Encode(src []byte, stride, width, height, transparent int) ([]byte, error) {
	return NewEncoder().Encode(src, stride, width, height, transparent)
}

// EncodePaletted encodes img with its own stride and bounds.
func EncodePaletted(img *image.Paletted, transparent int) ([]byte, error) {
	b := img.Bounds()
	return Encode(img.Pix, img.Stride, b.Dx(), b.Dy(), transparent)
}

// encodeStripe runs every family on s and returns the winning record,
// type byte first. The returned slice aliases encoder scratch.
func (e *Encoder) encodeStripe(s stripe, transparent bool) ([]byte, Family) {
	shr := computeShr(s)
	best := -1
	for _, f := range families {
		e.bw.reset(e.scratch[f])
		e.bw.writeByte(typeByte(f, transparent, shr))
		f.encode(&e.bw, s, shr)
		e.scratch[f] = e.bw.bytes()
		if best < 0 || len(e.scratch[f]) < len(e.scratch[best]) {
			best = int(f)
		}
	}
	return e.scratch[best], Family(best)
}

// Encode is the package-level Encode reusing e's scratch buffers and
// biasing offsets by e.HeaderSize.
func (e *Encoder) Encode(src []byte, stride, width, height, transparent int) ([]byte, error) {
	if err := checkGeometry(src, stride, width, height); err != nil {
		return nil, err
	}
	if err := checkTransparent(transparent); err != nil {
		return nil, err
	}

	stripes := width / StripeWidth
	tableSize := stripes * offsetSize

	// Records are kept until the total is known so the blob is allocated once.
	if cap(e.records) < stripes {
		e.records = make([][]byte, stripes)
	}
	e.records = e.records[:stripes]

	total := tableSize
	for i := 0; i < stripes; i++ {
		rec, f := e.encodeStripe(newStripe(src, stride, i, height), transparent >= 0)
		logx.Debugf(logSection, "stripe %d: family %s type %d, %d bytes", i, f, rec[0], len(rec))
		e.records[i] = append(e.records[i][:0], rec...)
		total += len(rec)
	}
	if int64(total)+int64(e.HeaderSize) > 0xffffffff {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, total)
	}

	blob := make([]byte, total)
	pos := tableSize
	for i, rec := range e.records {
		if pos+len(rec) > len(blob) {
			return nil, fmt.Errorf("%w: stripe %d ends at %d, blob is %d bytes", ErrAccounting, i, pos+len(rec), len(blob))
		}
		binary.LittleEndian.PutUint32(blob[i*offsetSize:], uint32(pos+e.HeaderSize))
		pos += copy(blob[pos:], rec)
	}
	if pos != len(blob) {
		return nil, fmt.Errorf("%w: wrote %d of %d bytes", ErrAccounting, pos, len(blob))
	}
	return blob, nil
}

// Decoder holds the decode-time settings shared by a set of blobs.
type Decoder struct {
	// HeaderSize is subtracted from every stored offset.
	HeaderSize int
	// PaletteMod is added to every pixel written by a transparent decode.
	PaletteMod byte
}

// Decode expands blob into dst. Pixels equal to transparent in stripes of
// a transparency-capable type are not written. Stripes with an unknown type
// byte are skipped. The result reports whether any stripe was of a
// transparency-capable type, in which case dst should have been prepared
// with the background beforehand.
func Decode(dst []byte, stride, width, height int, blob []byte, transparent int) (bool, error) {
	var d Decoder
	return d.Decode(dst, stride, width, height, blob, transparent)
}

// DecodePaletted decodes into img using its own stride and bounds.
func DecodePaletted(img *image.Paletted, blob []byte, transparent int) (bool, error) {
	b := img.Bounds()
	return Decode(img.Pix, img.Stride, b.Dx(), b.Dy(), blob, transparent)
}

// offset returns the blob position of stripe i's record.
func (d *Decoder) offset(blob []byte, i, stripes int) (int, error) {
	off := int(binary.LittleEndian.Uint32(blob[i*offsetSize:])) - d.HeaderSize
	if off < stripes*offsetSize {
		return 0, fmt.Errorf("%w: stripe %d offset %d", ErrCorrupt, i, off+d.HeaderSize)
	}
	if off >= len(blob) {
		return 0, fmt.Errorf("%w: stripe %d offset %d past end of %d byte blob", ErrTruncated, i, off+d.HeaderSize, len(blob))
	}
	return off, nil
}

// Decode is the package-level Decode honouring d's HeaderSize and PaletteMod.
func (d *Decoder) Decode(dst []byte, stride, width, height int, blob []byte, transparent int) (bool, error) {
	if err := checkGeometry(dst, stride, width, height); err != nil {
		return false, err
	}
	if err := checkTransparent(transparent); err != nil {
		return false, err
	}

	stripes := width / StripeWidth
	if len(blob) < stripes*offsetSize {
		return false, fmt.Errorf("%w: offset table needs %d bytes, have %d", ErrTruncated, stripes*offsetSize, len(blob))
	}

	hasTransparency := false
	for i := 0; i < stripes; i++ {
		off, err := d.offset(blob, i, stripes)
		if err != nil {
			return hasTransparency, err
		}
		t := blob[off]
		f, trans, shr, ok := ParseType(t)
		if !ok {
			logx.Warnf(logSection, "stripe %d: unknown type %d, skipped", i, t)
			continue
		}

		out := sink{stripe: newStripe(dst, stride, i, height), transparent: NoTransparency}
		if trans {
			hasTransparency = true
			if transparent != NoTransparency {
				out.transparent = transparent
				out.mod = d.PaletteMod
			}
		}
		br := newBitReader(blob[off+1:])
		if err := f.decode(&br, &out, shr); err != nil {
			return hasTransparency, fmt.Errorf("stripe %d (type %d): %w", i, t, err)
		}
	}
	return hasTransparency, nil
}
