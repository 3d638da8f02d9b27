package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"stripecodec/smap"
)

// -----------------------------
// Unit tests
// -----------------------------

func testPalette() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.RGBA{R: uint8(i), G: uint8(255 - i), B: uint8(i * 7), A: 255}
	}
	return p
}

func makeTestImage(w, h int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, w, h), testPalette())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v uint8
			switch {
			case y < h/2:
				v = uint8(32 + y/3)
			case x%16 < 4:
				v = 0
			default:
				v = uint8((x * 17) ^ (y * 31))
			}
			img.SetColorIndex(x, y, v)
		}
	}
	return img
}

func makeTestMask(w, h int, fn func(x, y int) bool) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, w, h), maskPalette)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if fn(x, y) {
				img.SetColorIndex(x, y, 1)
			}
		}
	}
	return img
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	src := makeTestImage(64, 48)
	masks := []*image.Paletted{
		makeTestMask(64, 48, func(x, y int) bool { return y > 30 && x < 20 }),
		makeTestMask(64, 48, func(x, y int) bool { return y > 40 && x >= 44 }),
	}

	for _, tc := range []struct {
		name string
		cfg  Config
	}{
		{name: "zstd_opaque", cfg: DefaultConfig},
		{name: "raw_opaque", cfg: Config{Transparent: -1, HeaderSize: 0, MaxZPlanes: 4}},
		{name: "zstd_transparent", cfg: Config{Transparent: 0, HeaderSize: 8, Zstd: true, MaxZPlanes: 4}},
		{name: "masks_disabled", cfg: Config{Transparent: -1, HeaderSize: 8, Zstd: true, MaxZPlanes: 0}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			base := filepath.Join(dir, "room")
			if err := savePNG(base+".png", src); err != nil {
				t.Fatal(err)
			}
			for i, m := range masks {
				if err := savePNG(zplaneName(base, i+1), m); err != nil {
					t.Fatal(err)
				}
			}

			if err := processFile(base+".png", tc.cfg, false); err != nil {
				t.Fatalf("encode: %v", err)
			}
			res, err := readResource(base + resourceExt)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			wantPlanes := len(masks)
			if tc.cfg.MaxZPlanes == 0 {
				wantPlanes = 0
			}
			if len(res.ZPlanes) != wantPlanes {
				t.Fatalf("got %d z-planes, want %d", len(res.ZPlanes), wantPlanes)
			}

			out := filepath.Join(dir, "out")
			if err := decodeResource(base+resourceExt, out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			dec, err := loadImage(out + ".png")
			if err != nil {
				t.Fatal(err)
			}
			pm, ok := dec.(*image.Paletted)
			if !ok {
				t.Fatalf("decoded %T, want paletted", dec)
			}
			if !bytes.Equal(pm.Pix, src.Pix) {
				t.Fatalf("pixels differ")
			}
			if len(pm.Palette) != len(src.Palette) {
				t.Fatalf("palette has %d entries", len(pm.Palette))
			}

			if wantPlanes == 0 {
				if _, err := os.Stat(out + ".zall.png"); !errors.Is(err, os.ErrNotExist) {
					t.Fatalf("unexpected merged mask: %v", err)
				}
				return
			}
			for i, m := range masks {
				got, err := loadImage(zplaneName(out, i+1))
				if err != nil {
					t.Fatal(err)
				}
				gp, _ := packPlane(got)
				wp, _ := packPlane(m)
				if !bytes.Equal(gp, wp) {
					t.Fatalf("z-plane %d differs", i+1)
				}
			}
			all, err := loadImage(out + ".zall.png")
			if err != nil {
				t.Fatal(err)
			}
			for y := 0; y < 48; y++ {
				for x := 0; x < 64; x++ {
					want := masks[0].ColorIndexAt(x, y) != 0 || masks[1].ColorIndexAt(x, y) != 0
					if pixelSet(all, x, y) != want {
						t.Fatalf("merged mask at %d,%d: got %v want %v", x, y, !want, want)
					}
				}
			}
		})
	}
}

func TestEncode_BadWidth(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "odd.png")
	if err := savePNG(path, makeTestImage(12, 4)); err != nil {
		t.Fatal(err)
	}
	err := processFile(path, DefaultConfig, false)
	if !errors.Is(err, smap.ErrWidth) {
		t.Fatalf("err = %v, want ErrWidth", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "odd"+resourceExt)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("output written for a rejected image")
	}
}

func TestEncode_RGBARejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rgba.png")
	if err := savePNG(path, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	// A zero RGBA image is fully transparent, so png stores it as RGBA and
	// it decodes as NRGBA.
	if err := processFile(path, DefaultConfig, false); !errors.Is(err, ErrNotPaletted) {
		t.Fatalf("err = %v, want ErrNotPaletted", err)
	}
}

func TestProcessFile_Unsupported(t *testing.T) {
	if err := processFile("notes.txt", DefaultConfig, false); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
	// Mask files are picked up by their image, not encoded on their own.
	if err := processFile("room.z1.png", DefaultConfig, false); err != nil {
		t.Fatalf("mask file: %v", err)
	}
}

func TestPrintInfo(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "room")
	if err := savePNG(base+".png", makeTestImage(32, 16)); err != nil {
		t.Fatal(err)
	}
	if err := processFile(base+".png", DefaultConfig, false); err != nil {
		t.Fatal(err)
	}
	if err := processFile(base+resourceExt, DefaultConfig, true); err != nil {
		t.Fatalf("info: %v", err)
	}
	if _, err := os.Stat(base + ".zall.png"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("info mode must not decode")
	}
}

func TestIsZPlaneFile(t *testing.T) {
	for base, want := range map[string]bool{
		"room.z1":   true,
		"room.z12":  true,
		"room.zall": true,
		"room":      false,
		"room.zip":  false,
		"room.z":    false,
		"z1":        false,
	} {
		if got := isZPlaneFile(base); got != want {
			t.Errorf("isZPlaneFile(%q) = %v", base, got)
		}
	}
}
