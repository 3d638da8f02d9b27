// Package zmap implements the run-length codec for 1 bit mask planes
// (z-planes). A plane stores 8 pixels per byte, so a stripe of a plane is a
// single byte column. The blob is a table of little-endian uint16 offsets, one
// per stripe, followed by the column records. An offset of 0 marks a column
// that is entirely zero and has no record.
//
// A record is a sequence of runs:
//
//	0x80|n v      n copies of v (n in 1..127)
//	n b1 ... bn   n literal bytes (n in 1..127)
package zmap

import (
	"encoding/binary"
	"errors"
	"fmt"

	"stripecodec/logx"
)

const logSection = "zmap"

const (
	// StripeWidth is the pixel width covered by one column byte.
	StripeWidth = 8

	repeatFlag = 0x80
	maxRun     = 0x7f
	// minRepeat is the shortest run stored as a repeat.
	minRepeat = 3

	offsetSize = 2
)

// Mode selects how decoded bytes reach the destination.
type Mode int

const (
	// Overwrite stores decoded bytes and zero-fills empty columns.
	Overwrite Mode = iota
	// Or merges decoded bytes into the destination and leaves empty
	// columns untouched.
	Or
)

func (m Mode) String() string {
	switch m {
	case Overwrite:
		return "overwrite"
	case Or:
		return "or"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Errors returned by the mask codec.
var (
	ErrWidth       = errors.New("zmap: width is not a multiple of 8")
	ErrDimensions  = errors.New("zmap: invalid dimensions")
	ErrShortBuffer = errors.New("zmap: plane buffer too small")
	ErrTruncated   = errors.New("zmap: truncated data")
	ErrCorrupt     = errors.New("zmap: corrupt offset table")
	ErrTooLarge    = errors.New("zmap: blob too large for 16 bit offsets")
)

// checkGeometry validates a plane of width pixels (width/8 bytes per row).
func checkGeometry(plane []byte, stride, width, height int) error {
	if width%StripeWidth != 0 {
		return ErrWidth
	}
	cols := width / StripeWidth
	if width < 0 || height <= 0 || stride < cols {
		return fmt.Errorf("%w: %dx%d stride %d", ErrDimensions, width, height, stride)
	}
	if cols > 0 && len(plane) < (height-1)*stride+cols {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(plane), (height-1)*stride+cols)
	}
	return nil
}

// AppendColumn appends the record for the height bytes of a column starting
// at src[0] and spaced stride apart.
func AppendColumn(dst, src []byte, stride, height int) []byte {
	at := func(y int) byte { return src[y*stride] }

	litStart, litLen := 0, 0
	flush := func() {
		if litLen == 0 {
			return
		}
		dst = append(dst, byte(litLen))
		for y := litStart; y < litStart+litLen; y++ {
			dst = append(dst, at(y))
		}
		litLen = 0
	}

	for y := 0; y < height; {
		v := at(y)
		run := 1
		for y+run < height && run < maxRun && at(y+run) == v {
			run++
		}
		if run >= minRepeat {
			flush()
			dst = append(dst, repeatFlag|byte(run), v)
			y += run
			continue
		}
		if litLen == 0 {
			litStart = y
		}
		litLen++
		y++
		if litLen == maxRun {
			flush()
		}
	}
	flush()
	return dst
}

// EncodeColumn returns the record for one column.
func EncodeColumn(src []byte, stride, height int) []byte {
	return AppendColumn(nil, src, stride, height)
}

// DecodeColumn replays rec into the height bytes of a column starting at
// dst[0] and spaced stride apart. It returns the number of record bytes
// consumed. Runs reaching past the bottom of the column are cut.
func DecodeColumn(dst []byte, stride, height int, rec []byte, mode Mode) (int, error) {
	put := func(y int, v byte) { dst[y*stride] = v }
	if mode == Or {
		put = func(y int, v byte) { dst[y*stride] |= v }
	}

	i := 0
	for y := 0; y < height; {
		if i >= len(rec) {
			return i, fmt.Errorf("%w: record ends at row %d of %d", ErrTruncated, y, height)
		}
		c := rec[i]
		i++
		n := int(c & maxRun)
		if c&repeatFlag != 0 {
			if i >= len(rec) {
				return i, fmt.Errorf("%w: repeat run without value", ErrTruncated)
			}
			v := rec[i]
			i++
			for ; n > 0 && y < height; n-- {
				put(y, v)
				y++
			}
			continue
		}
		if i+n > len(rec) {
			return len(rec), fmt.Errorf("%w: literal run of %d with %d bytes left", ErrTruncated, n, len(rec)-i)
		}
		for j := 0; j < n && y < height; j++ {
			put(y, rec[i+j])
			y++
		}
		i += n
	}
	return i, nil
}

func zeroColumn(col []byte, stride, height int) bool {
	for y := 0; y < height; y++ {
		if col[y*stride] != 0 {
			return false
		}
	}
	return true
}

// Encode compresses a mask plane of width x height pixels, stride bytes per
// row. headerSize is added to every stored offset.
func Encode(plane []byte, stride, width, height, headerSize int) ([]byte, error) {
	if err := checkGeometry(plane, stride, width, height); err != nil {
		return nil, err
	}
	cols := width / StripeWidth
	blob := make([]byte, cols*offsetSize)

	for i := 0; i < cols; i++ {
		col := plane[i:]
		if zeroColumn(col, stride, height) {
			logx.Debugf(logSection, "stripe %d: empty", i)
			continue
		}
		off := len(blob) + headerSize
		if off > 0xffff {
			return nil, fmt.Errorf("%w: stripe %d at offset %d", ErrTooLarge, i, off)
		}
		binary.LittleEndian.PutUint16(blob[i*offsetSize:], uint16(off))
		blob = AppendColumn(blob, col, stride, height)
	}
	return blob, nil
}

// Decode expands blob into a plane laid out like the one given to Encode.
// headerSize is subtracted from every stored offset.
func Decode(dst []byte, stride, width, height int, blob []byte, headerSize int, mode Mode) error {
	if err := checkGeometry(dst, stride, width, height); err != nil {
		return err
	}
	cols := width / StripeWidth
	if len(blob) < cols*offsetSize {
		return fmt.Errorf("%w: offset table needs %d bytes, have %d", ErrTruncated, cols*offsetSize, len(blob))
	}

	for i := 0; i < cols; i++ {
		col := dst[i:]
		stored := int(binary.LittleEndian.Uint16(blob[i*offsetSize:]))
		if stored == 0 {
			if mode == Overwrite {
				for y := 0; y < height; y++ {
					col[y*stride] = 0
				}
			}
			continue
		}
		off := stored - headerSize
		if off < cols*offsetSize {
			return fmt.Errorf("%w: stripe %d offset %d", ErrCorrupt, i, stored)
		}
		if off >= len(blob) {
			return fmt.Errorf("%w: stripe %d offset %d past end of %d byte blob", ErrTruncated, i, stored, len(blob))
		}
		if _, err := DecodeColumn(col, stride, height, blob[off:], mode); err != nil {
			return fmt.Errorf("stripe %d: %w", i, err)
		}
	}
	return nil
}
