package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"
)

var ErrNotPaletted = errors.New("image is not paletted or 8-bit grey")

var maskPalette = color.Palette{color.Black, color.White}

func grayPalette() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

func savePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// indexedPixels returns the palette indices of img as a strided buffer
// starting at its top-left pixel.
func indexedPixels(img image.Image) (pix []byte, stride int, pal color.Palette, err error) {
	b := img.Bounds()
	switch m := img.(type) {
	case *image.Paletted:
		return m.Pix[m.PixOffset(b.Min.X, b.Min.Y):], m.Stride, m.Palette, nil
	case *image.Gray:
		return m.Pix[m.PixOffset(b.Min.X, b.Min.Y):], m.Stride, grayPalette(), nil
	}
	return nil, 0, nil, fmt.Errorf("%w: %T", ErrNotPaletted, img)
}

func pixelSet(img image.Image, x, y int) bool {
	switch m := img.(type) {
	case *image.Paletted:
		return m.ColorIndexAt(x, y) != 0
	case *image.Gray:
		return m.GrayAt(x, y).Y != 0
	}
	r, g, b, _ := img.At(x, y).RGBA()
	return r|g|b != 0
}

// packPlane converts a mask image to a 1 bit plane, 8 pixels per byte with
// the leftmost pixel in the high bit.
func packPlane(img image.Image) (plane []byte, stride int) {
	b := img.Bounds()
	stride = (b.Dx() + 7) / 8
	plane = make([]byte, stride*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if pixelSet(img, b.Min.X+x, b.Min.Y+y) {
				plane[y*stride+x/8] |= 0x80 >> (x % 8)
			}
		}
	}
	return plane, stride
}

func unpackPlane(plane []byte, stride, w, h int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, w, h), maskPalette)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if plane[y*stride+x/8]&(0x80>>(x%8)) != 0 {
				img.SetColorIndex(x, y, 1)
			}
		}
	}
	return img
}
