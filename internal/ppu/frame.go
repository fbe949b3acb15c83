package ppu

import (
	"fmt"
	"image"

	"github.com/cespare/xxhash"
	"golang.org/x/image/draw"
)

// Screen dimensions of the DMG LCD.
const (
	ScreenWidth  = 160
	ScreenHeight = 144
)

// Frame is one rendered background map together with the scroll registers
// sampled at the same time.
type Frame struct {
	Image    *image.RGBA
	SCX, SCY byte
}

// Fingerprint hashes the pixel data. Equal frames have equal fingerprints.
func (f Frame) Fingerprint() uint64 {
	if f.Image == nil {
		return 0
	}
	return xxhash.Sum64(f.Image.Pix)
}

// FingerprintHex formats Fingerprint the way the CLI prints and parses it.
func (f Frame) FingerprintHex() string {
	return fmt.Sprintf("%016x", f.Fingerprint())
}

// Viewport crops the 160x144 window at (SCX, SCY), wrapping around the
// background map edges.
func (f Frame) Viewport() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight))
	if f.Image == nil {
		return out
	}
	for y := 0; y < ScreenHeight; y++ {
		sy := (y + int(f.SCY)) % BackgroundSize
		for x := 0; x < ScreenWidth; x++ {
			sx := (x + int(f.SCX)) % BackgroundSize
			src := f.Image.PixOffset(sx, sy)
			dst := out.PixOffset(x, y)
			copy(out.Pix[dst:dst+4], f.Image.Pix[src:src+4])
		}
	}
	return out
}

// Scale returns img enlarged by factor with nearest-neighbour sampling.
// A factor below 2 returns img unchanged.
func Scale(img *image.RGBA, factor int) *image.RGBA {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}
