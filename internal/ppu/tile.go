package ppu

// LCDC bits read by the background renderer.
const (
	lcdcTileData8000 = 1 << 4
	lcdcBGMap9C00    = 1 << 3
)

const (
	tileBytes   = 16
	mapTiles    = 32
	mapBase9800 = 0x9800
	mapBase9C00 = 0x9C00
)

// VRAMReader provides read access to video RAM.
type VRAMReader interface {
	Read(addr uint16) byte
}

// tileRowAddr returns the address of row fineY of tile tileNum. With
// unsigned addressing tile 0 is at 0x8000; otherwise the index is signed
// and tile 0 is at 0x9000.
func tileRowAddr(tileNum byte, unsigned bool, fineY byte) uint16 {
	row := uint16(fineY&7) * 2
	if unsigned {
		return 0x8000 + uint16(tileNum)*tileBytes + row
	}
	return uint16(0x9000+int(int8(tileNum))*tileBytes) + row
}

// decodeRow expands one 2bpp tile row into eight color indices, leftmost
// pixel first. lo supplies bit 0 and hi bit 1 of each index.
func decodeRow(lo, hi byte) [8]byte {
	var px [8]byte
	for i := 0; i < 8; i++ {
		bit := 7 - byte(i)
		px[i] = ((hi>>bit)&1)<<1 | (lo>>bit)&1
	}
	return px
}

// fetchRow reads and decodes row fineY of the tile referenced at mapAddr.
func fetchRow(mem VRAMReader, mapAddr uint16, unsigned bool, fineY byte) [8]byte {
	addr := tileRowAddr(mem.Read(mapAddr), unsigned, fineY)
	return decodeRow(mem.Read(addr), mem.Read(addr+1))
}
