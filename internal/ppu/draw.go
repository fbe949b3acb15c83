package ppu

import (
	"image"
	"image/color"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/memory"
)

// BackgroundSize is the width and height of the background map in pixels.
const BackgroundSize = mapTiles * 8

// Shades maps a color index to a gray level, lightest first as on the DMG
// LCD with the boot palette: index 0 is white and 3 is black. BGP is not
// consulted.
var Shades = [4]color.RGBA{
	{0xFF, 0xFF, 0xFF, 0xFF},
	{0xAA, 0xAA, 0xAA, 0xFF},
	{0x55, 0x55, 0x55, 0xFF},
	{0x00, 0x00, 0x00, 0xFF},
}

// Draw renders the whole background map selected by LCDC into a new
// 256x256 frame. It only reads memory.
func (p *PPU) Draw() Frame {
	return Draw(p.mem)
}

// Draw renders the background map of mem. SCX and SCY are recorded in the
// frame but not applied.
func Draw(mem VRAMReader) Frame {
	lcdc := mem.Read(memory.LCDC)
	unsigned := lcdc&lcdcTileData8000 != 0
	var mapBase uint16 = mapBase9800
	if lcdc&lcdcBGMap9C00 != 0 {
		mapBase = mapBase9C00
	}

	img := image.NewRGBA(image.Rect(0, 0, BackgroundSize, BackgroundSize))
	for ty := 0; ty < mapTiles; ty++ {
		for tx := 0; tx < mapTiles; tx++ {
			mapAddr := mapBase + uint16(ty*mapTiles+tx)
			for fineY := 0; fineY < 8; fineY++ {
				row := fetchRow(mem, mapAddr, unsigned, byte(fineY))
				off := img.PixOffset(tx*8, ty*8+fineY)
				for _, ci := range row {
					s := Shades[ci]
					img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = s.R, s.G, s.B, s.A
					off += 4
				}
			}
		}
	}

	return Frame{
		Image: img,
		SCX:   mem.Read(memory.SCX),
		SCY:   mem.Read(memory.SCY),
	}
}
