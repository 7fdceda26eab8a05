package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// Half blocks used to draw a sprite image as one cell.
const (
	upperHalf = '▀'
	lowerHalf = '▄'
)

// opaque reports whether a pixel is drawn. Alpha below one half and pure
// magenta are transparent.
func opaque(r, g, b, a uint32) bool {
	return a >= 0x8000 && !(r>>8 == 0xFF && g>>8 == 0x00 && b>>8 == 0xFF)
}

type average struct {
	r, g, b, n uint64
}

func (s *average) add(r, g, b uint32) {
	s.r += uint64(r >> 8)
	s.g += uint64(g >> 8)
	s.b += uint64(b >> 8)
	s.n++
}

func (s average) rgb() RGB {
	return RGB{uint8(s.r / s.n), uint8(s.g / s.n), uint8(s.b / s.n)}
}

// ImageGlyph reduces a sprite image to one cell: an upper half block in
// the average colour of the top half over the average of the bottom
// half. A half with no opaque pixels leaves the background showing. ok
// is false for a fully transparent image.
func ImageGlyph(img image.Image) (Glyph, bool) {
	b := img.Bounds()
	mid := b.Min.Y + b.Dy()/2
	var top, bottom average
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if !opaque(r, g, bl, a) {
				continue
			}
			if y < mid {
				top.add(r, g, bl)
			} else {
				bottom.add(r, g, bl)
			}
		}
	}

	switch {
	case top.n == 0 && bottom.n == 0:
		return Glyph{}, false
	case bottom.n == 0:
		return Glyph{Ch: upperHalf, Fg: top.rgb()}, true
	case top.n == 0:
		return Glyph{Ch: lowerHalf, Fg: bottom.rgb()}, true
	}
	bg := bottom.rgb()
	return Glyph{Ch: upperHalf, Fg: top.rgb(), Bg: &bg}, true
}

// LoadImages defines a glyph for every PNG in dir. The file name without
// extension is the sprite tag, e.g. wall_1010.png. Fully transparent
// images are skipped. Returns the number of glyphs defined.
func (a *Atlas) LoadImages(dir string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, path := range paths {
		img, err := loadPNG(path)
		if err != nil {
			return n, err
		}
		g, ok := ImageGlyph(img)
		if !ok {
			continue
		}
		a.Define(strings.TrimSuffix(filepath.Base(path), ".png"), g)
		n++
	}
	return n, nil
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
