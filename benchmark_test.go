package main

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"stripecodec/smap"
	"stripecodec/zmap"
)

func loadBenchImage(b *testing.B) *image.Paletted {
	b.Helper()
	return makeTestImage(320, 144)
}

func BenchmarkPNG(b *testing.B) {
	img := loadBenchImage(b)

	buf := &bytes.Buffer{}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := png.Encode(buf, img); err != nil {
			b.Fatalf("png encode failed: %v", err)
		}
	}
	b.ReportMetric(float64(buf.Len()), "bytes")
}

func BenchmarkSmap(b *testing.B) {
	img := loadBenchImage(b)
	enc := smap.NewEncoder()

	var blob []byte
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		var err error
		if blob, err = enc.Encode(img.Pix, img.Stride, 320, 144, smap.NoTransparency); err != nil {
			b.Fatalf("smap encode failed: %v", err)
		}
	}
	b.ReportMetric(float64(len(blob)), "bytes")
}

func BenchmarkResource(b *testing.B) {
	img := loadBenchImage(b)
	mask := makeTestMask(320, 144, func(x, y int) bool { return y > 100 && x%64 < 40 })
	plane, stride := packPlane(mask)

	var data []byte
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		blob, err := smap.Encode(img.Pix, img.Stride, 320, 144, smap.NoTransparency)
		if err != nil {
			b.Fatal(err)
		}
		z, err := zmap.Encode(plane, stride, 320, 144, 0)
		if err != nil {
			b.Fatal(err)
		}
		res := &Resource{Width: 320, Height: 144, Transparent: -1, Palette: img.Palette, Smap: blob, ZPlanes: [][]byte{z}}
		if data, err = MarshalResource(res, true); err != nil {
			b.Fatal(err)
		}
	}
	b.ReportMetric(float64(len(data)), "bytes")
}
