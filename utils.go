package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/klauspost/compress/zstd"
)

const (
	magicResource = "SMP1"
	resourceExt   = ".smp"

	flagZstd = 1 << 0
)

var (
	ErrInvalidMagic = errors.New("smp: invalid magic")
	ErrCorrupt      = errors.New("smp: corrupt payload")
)

// Resource is one encoded room image with its mask planes, as stored in a
// .smp file.
type Resource struct {
	Width, Height int
	Transparent   int
	HeaderSize    int
	Palette       color.Palette
	Smap          []byte
	ZPlanes       [][]byte
}

func WriteHeader(b *bytes.Buffer, r *Resource, flags byte) error {
	// Header: magic(4) + width(uint16) + height(uint16) + transparent(int16)
	// + header size(uint8) + flags(uint8) + palette length(uint16)
	if r.Width > 0xffff || r.Height > 0xffff {
		return fmt.Errorf("smp: %dx%d image too large", r.Width, r.Height)
	}
	if len(r.Palette) > 256 {
		return fmt.Errorf("smp: palette has %d entries", len(r.Palette))
	}
	if _, err := b.WriteString(magicResource); err != nil {
		return err
	}
	hdr := struct {
		W, H        uint16
		Transparent int16
		HeaderSize  uint8
		Flags       uint8
		PaletteLen  uint16
	}{uint16(r.Width), uint16(r.Height), int16(r.Transparent), uint8(r.HeaderSize), flags, uint16(len(r.Palette))}
	return binary.Write(b, binary.BigEndian, &hdr)
}

func ReadHeader(rd *bytes.Reader) (r *Resource, flags byte, paletteLen int, err error) {
	magic := make([]byte, len(magicResource))
	if _, err = io.ReadFull(rd, magic); err != nil {
		return nil, 0, 0, ErrInvalidMagic
	}
	if string(magic) != magicResource {
		return nil, 0, 0, ErrInvalidMagic
	}

	var hdr struct {
		W, H        uint16
		Transparent int16
		HeaderSize  uint8
		Flags       uint8
		PaletteLen  uint16
	}
	if err = binary.Read(rd, binary.BigEndian, &hdr); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	r = &Resource{
		Width:       int(hdr.W),
		Height:      int(hdr.H),
		Transparent: int(hdr.Transparent),
		HeaderSize:  int(hdr.HeaderSize),
	}
	return r, hdr.Flags, int(hdr.PaletteLen), nil
}

func writeBlob(b *bytes.Buffer, blob []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(blob)))
	b.Write(n[:])
	b.Write(blob)
}

func readBlob(rd *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(rd, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	if int64(n) > int64(rd.Len()) {
		return nil, io.ErrUnexpectedEOF
	}
	blob := make([]byte, n)
	_, err := io.ReadFull(rd, blob)
	return blob, err
}

// MarshalResource serialises r, compressing the payload with zstd when
// compress is set.
func MarshalResource(r *Resource, compress bool) ([]byte, error) {
	if len(r.ZPlanes) > 255 {
		return nil, fmt.Errorf("smp: %d z-planes", len(r.ZPlanes))
	}
	var flags byte
	if compress {
		flags |= flagZstd
	}

	var out bytes.Buffer
	if err := WriteHeader(&out, r, flags); err != nil {
		return nil, err
	}

	var raw bytes.Buffer
	for _, c := range r.Palette {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		raw.Write([]byte{n.R, n.G, n.B})
	}
	writeBlob(&raw, r.Smap)
	raw.WriteByte(byte(len(r.ZPlanes)))
	for _, z := range r.ZPlanes {
		writeBlob(&raw, z)
	}

	if !compress {
		out.Write(raw.Bytes())
		return out.Bytes(), nil
	}
	if err := EncodeZstd(&out, &raw); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func UnmarshalResource(data []byte) (*Resource, error) {
	rd := bytes.NewReader(data)
	r, flags, paletteLen, err := ReadHeader(rd)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if flags&flagZstd != 0 {
		if payload, err = DecodeZstd(rd); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	} else {
		payload = data[len(data)-rd.Len():]
	}

	pr := bytes.NewReader(payload)
	rgb := make([]byte, 3*paletteLen)
	if _, err := io.ReadFull(pr, rgb); err != nil {
		return nil, fmt.Errorf("%w: palette: %v", ErrCorrupt, err)
	}
	if paletteLen > 0 {
		r.Palette = make(color.Palette, paletteLen)
		for i := range r.Palette {
			r.Palette[i] = color.RGBA{R: rgb[3*i], G: rgb[3*i+1], B: rgb[3*i+2], A: 0xff}
		}
	}

	if r.Smap, err = readBlob(pr); err != nil {
		return nil, fmt.Errorf("%w: smap: %v", ErrCorrupt, err)
	}
	n, err := pr.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: z-plane count: %v", ErrCorrupt, err)
	}
	for i := 0; i < int(n); i++ {
		z, err := readBlob(pr)
		if err != nil {
			return nil, fmt.Errorf("%w: z-plane %d: %v", ErrCorrupt, i+1, err)
		}
		r.ZPlanes = append(r.ZPlanes, z)
	}
	if pr.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, pr.Len())
	}
	return r, nil
}

func EncodeZstd(b io.Writer, raw *bytes.Buffer) error {
	enc, err := zstd.NewWriter(b, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return err
	}
	if _, err := enc.Write(raw.Bytes()); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func DecodeZstd(r io.Reader) ([]byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return io.ReadAll(dec)
}
