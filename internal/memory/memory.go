// Package memory implements the DMG 16-bit address space: a flat 64KB store
// for video RAM, work RAM, OAM, I/O and high RAM, with the cartridge mapped
// over 0x0000–0x7FFF and 0xA000–0xBFFF.
//
// Memory map:
//
//	0x0000 - 0x3FFF	ROM bank 0
//	0x4000 - 0x7FFF	switchable ROM bank
//	0x8000 - 0x9FFF	video RAM
//	0xA000 - 0xBFFF	cartridge RAM
//	0xC000 - 0xDFFF	work RAM
//	0xE000 - 0xFDFF	echo of 0xC000 - 0xDDFF
//	0xFE00 - 0xFE9F	sprite attribute table
//	0xFEA0 - 0xFEFF	unusable
//	0xFF00 - 0xFF7F	I/O registers
//	0xFF80 - 0xFFFE	high RAM
//	0xFFFF			interrupt enable
package memory

import (
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cart"
)

// I/O register addresses used by the core.
const (
	P1   uint16 = 0xFF00
	IF   uint16 = 0xFF0F
	LCDC uint16 = 0xFF40
	STAT uint16 = 0xFF41
	SCY  uint16 = 0xFF42
	SCX  uint16 = 0xFF43
	LY   uint16 = 0xFF44
	LYC  uint16 = 0xFF45
	BGP  uint16 = 0xFF47
	OBP0 uint16 = 0xFF48
	OBP1 uint16 = 0xFF49
	WY   uint16 = 0xFF4A
	WX   uint16 = 0xFF4B
	IE   uint16 = 0xFFFF
)

const (
	echoStart     = 0xE000
	echoEnd       = 0xFDFF
	echoOffset    = 0x2000
	unusableStart = 0xFEA0
	unusableEnd   = 0xFEFF

	// statPPUBits are the STAT bits owned by the PPU (mode and coincidence).
	statPPUBits = 0x07
	ifUnused    = 0xE0
)

// Memory is the single source of truth shared by the CPU and the PPU.
type Memory struct {
	data [0x10000]byte
	cart cart.Cartridge
}

// New maps c into a zeroed address space.
func New(c cart.Cartridge) *Memory {
	return &Memory{cart: c}
}

// Cartridge returns the mapped cartridge.
func (m *Memory) Cartridge() cart.Cartridge { return m.cart }

func translate(addr uint16) uint16 {
	if addr >= echoStart && addr <= echoEnd {
		return addr - echoOffset
	}
	return addr
}

func isCartridge(addr uint16) bool {
	return addr < 0x8000 || (addr >= 0xA000 && addr <= 0xBFFF)
}

// Read returns the byte the CPU observes at addr.
func (m *Memory) Read(addr uint16) byte {
	switch {
	case isCartridge(addr):
		if m.cart == nil {
			return 0xFF
		}
		return m.cart.Read(addr)
	case addr >= unusableStart && addr <= unusableEnd:
		return 0xFF
	case addr == IF:
		return m.data[IF] | ifUnused
	}
	return m.data[translate(addr)]
}

// Write stores value at addr as the CPU would.
func (m *Memory) Write(addr uint16, value byte) {
	switch {
	case isCartridge(addr):
		if m.cart != nil {
			m.cart.Write(addr, value)
		}
		return
	case addr == STAT:
		m.data[STAT] = m.data[STAT]&statPPUBits | value&^statPPUBits
		return
	}
	m.data[translate(addr)] = value
}

// Poke stores value without the CPU-side masking. Hardware that owns a
// register (the PPU for STAT and LY) uses it to publish state.
func (m *Memory) Poke(addr uint16, value byte) {
	if isCartridge(addr) {
		m.Write(addr, value)
		return
	}
	m.data[translate(addr)] = value
}

// Read16 reads a little-endian word. The high byte address wraps at 0xFFFF.
func (m *Memory) Read16(addr uint16) uint16 {
	lo := uint16(m.Read(addr))
	hi := uint16(m.Read(addr + 1))
	return hi<<8 | lo
}

// Write16 writes a little-endian word. The high byte address wraps at 0xFFFF.
func (m *Memory) Write16(addr uint16, value uint16) {
	m.Write(addr, byte(value))
	m.Write(addr+1, byte(value>>8))
}

// ReadSigned reads a two's complement displacement.
func (m *Memory) ReadSigned(addr uint16) int8 {
	return int8(m.Read(addr))
}

// ApplyPostBootIO sets the I/O registers to the values the DMG boot ROM
// leaves behind.
func (m *Memory) ApplyPostBootIO() {
	m.Write(P1, 0xCF)
	m.Write(LCDC, 0x91)
	m.Write(SCY, 0x00)
	m.Write(SCX, 0x00)
	m.Write(LYC, 0x00)
	m.Write(BGP, 0xFC)
	m.Write(OBP0, 0xFF)
	m.Write(OBP1, 0xFF)
	m.Write(WY, 0x00)
	m.Write(WX, 0x00)
	m.Write(IE, 0x00)
}
