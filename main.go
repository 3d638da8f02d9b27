package main

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/remeh/sizedwaitgroup"

	"stripecodec/logx"
	"stripecodec/smap"
	"stripecodec/zmap"
)

const logSection = "main"

const usage = `Encode: stripecodec <image.png|.gif|.bmp>...  (masks: <image>.z1.png ... <image>.zN.png)
Decode: stripecodec <file.smp>...
Info:   stripecodec -i <file.smp>...
`

// stdout serialises report lines from parallel workers.
var stdout sync.Mutex

func report(format string, v ...interface{}) {
	stdout.Lock()
	defer stdout.Unlock()
	fmt.Printf(format, v...)
}

func main() {
	args := os.Args[1:]
	info := false
	if len(args) > 0 && args[0] == "-i" {
		info = true
		args = args[1:]
	}
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	cfg.apply()

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	var failed atomic.Bool
	wg := sizedwaitgroup.New(workers)
	for _, path := range args {
		wg.Add()
		go func(path string) {
			defer wg.Done()
			if err := processFile(path, cfg, info); err != nil {
				logx.Errorf(logSection, "%s: %v", path, err)
				failed.Store(true)
			}
		}(path)
	}
	wg.Wait()

	if failed.Load() {
		os.Exit(1)
	}
}

// zplaneName returns the n-th mask file name for an image base name.
func zplaneName(base string, n int) string {
	return fmt.Sprintf("%s.z%d.png", base, n)
}

func isZPlaneFile(base string) bool {
	ext := filepath.Ext(base)
	if len(ext) < 3 || ext[1] != 'z' {
		return false
	}
	for _, c := range ext[2:] {
		if c < '0' || c > '9' {
			return ext[2:] == "all"
		}
	}
	return true
}

func processFile(path string, cfg Config, info bool) error {
	ext := strings.ToLower(filepath.Ext(path))
	base := strings.TrimSuffix(path, filepath.Ext(path))

	switch ext {
	case resourceExt:
		if info {
			return printInfo(path)
		}
		return decodeResource(path, base)
	case ".png", ".gif", ".bmp":
		if isZPlaneFile(base) {
			logx.Infof(logSection, "%s: mask plane, encoded with its image", path)
			return nil
		}
		return encodeImage(path, base, cfg)
	}
	return fmt.Errorf("unsupported file type %q", ext)
}

func encodeImage(inPath, base string, cfg Config) error {
	img, err := loadImage(inPath)
	if err != nil {
		return err
	}
	pix, stride, pal, err := indexedPixels(img)
	if err != nil {
		return err
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	enc := smap.NewEncoder()
	enc.HeaderSize = cfg.HeaderSize
	smapBlob, err := enc.Encode(pix, stride, w, h, cfg.Transparent)
	if err != nil {
		return err
	}

	res := &Resource{
		Width:       w,
		Height:      h,
		Transparent: cfg.Transparent,
		HeaderSize:  cfg.HeaderSize,
		Palette:     pal,
		Smap:        smapBlob,
	}

	for n := 1; n <= cfg.MaxZPlanes; n++ {
		zpath := zplaneName(base, n)
		mask, err := loadImage(zpath)
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: %w", zpath, err)
		}
		if mask.Bounds().Size() != b.Size() {
			return fmt.Errorf("%s: size %v does not match image %v", zpath, mask.Bounds().Size(), b.Size())
		}
		plane, pstride := packPlane(mask)
		zblob, err := zmap.Encode(plane, pstride, w, h, cfg.HeaderSize)
		if err != nil {
			return fmt.Errorf("%s: %w", zpath, err)
		}
		res.ZPlanes = append(res.ZPlanes, zblob)
	}

	data, err := MarshalResource(res, cfg.Zstd)
	if err != nil {
		return err
	}
	outPath := base + resourceExt
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return err
	}
	report("Encoded %s (%dx%d, %d z-planes, %s raw) → %s (%s)\n",
		inPath, w, h, len(res.ZPlanes), humanize.Bytes(uint64(w*h)), outPath, humanize.Bytes(uint64(len(data))))
	return nil
}

func readResource(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalResource(data)
}

func decodeResource(inPath, base string) error {
	res, err := readResource(inPath)
	if err != nil {
		return err
	}
	pal := res.Palette
	if len(pal) == 0 {
		pal = grayPalette()
	}

	rect := image.Rect(0, 0, res.Width, res.Height)
	img := image.NewPaletted(rect, pal)
	if res.Transparent >= 0 {
		// Transparent pixels are skipped by the decoder.
		for i := range img.Pix {
			img.Pix[i] = byte(res.Transparent)
		}
	}
	dec := smap.Decoder{HeaderSize: res.HeaderSize}
	trans, err := dec.Decode(img.Pix, img.Stride, res.Width, res.Height, res.Smap, res.Transparent)
	if err != nil {
		return err
	}
	logx.Debugf(logSection, "%s: transparent stripes: %v", inPath, trans)
	outputs := []string{base + ".png"}
	if err := savePNG(outputs[0], img); err != nil {
		return err
	}

	if len(res.ZPlanes) > 0 {
		stride := res.Width / zmap.StripeWidth
		merged := make([]byte, stride*res.Height)
		for i, z := range res.ZPlanes {
			plane := make([]byte, stride*res.Height)
			if err := zmap.Decode(plane, stride, res.Width, res.Height, z, res.HeaderSize, zmap.Overwrite); err != nil {
				return fmt.Errorf("z-plane %d: %w", i+1, err)
			}
			if err := zmap.Decode(merged, stride, res.Width, res.Height, z, res.HeaderSize, zmap.Or); err != nil {
				return fmt.Errorf("z-plane %d: %w", i+1, err)
			}
			name := zplaneName(base, i+1)
			if err := savePNG(name, unpackPlane(plane, stride, res.Width, res.Height)); err != nil {
				return err
			}
			outputs = append(outputs, name)
		}
		name := base + ".zall.png"
		if err := savePNG(name, unpackPlane(merged, stride, res.Width, res.Height)); err != nil {
			return err
		}
		outputs = append(outputs, name)
	}

	report("Decoded %s → %s\n", inPath, strings.Join(outputs, ", "))
	return nil
}

func printInfo(path string) error {
	res, err := readResource(path)
	if err != nil {
		return err
	}
	dec := smap.Decoder{HeaderSize: res.HeaderSize}
	infos, err := dec.Stripes(res.Smap, res.Width)
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %dx%d, transparent %d, smap %s, %d z-planes\n",
		path, res.Width, res.Height, res.Transparent, humanize.Bytes(uint64(len(res.Smap))), len(res.ZPlanes))
	counts := map[string]int{}
	for i, si := range infos {
		fmt.Fprintf(&sb, "  stripe %3d: %v\n", i, si)
		if si.Known {
			counts[si.Family.String()]++
		}
	}
	for _, f := range []smap.Family{smap.FamilyA, smap.FamilyA6, smap.FamilyB, smap.FamilyC} {
		fmt.Fprintf(&sb, "  family %-2s: %d stripes\n", f, counts[f.String()])
	}
	for i, z := range res.ZPlanes {
		fmt.Fprintf(&sb, "  z-plane %d: %s\n", i+1, humanize.Bytes(uint64(len(z))))
	}
	report("%s", sb.String())
	return nil
}
