// Package ppu implements the DMG pixel pipeline as a four-state scanline
// machine driven by the caller's cycle budget, plus a background renderer
// that samples video RAM into a 256x256 image.
//
// The PPU shares nothing with the CPU but memory: it publishes LY and the
// STAT mode bits through Poke and raises interrupts through IF.
package ppu

import (
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/interrupts"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/memory"
)

// Mode is the PPU state. The values match the STAT mode bits.
type Mode byte

const (
	HBlank        Mode = 0
	VBlank        Mode = 1
	OAMSearch     Mode = 2
	PixelTransfer Mode = 3
)

func (m Mode) String() string {
	switch m {
	case HBlank:
		return "HBlank"
	case VBlank:
		return "VBlank"
	case OAMSearch:
		return "OAMSearch"
	case PixelTransfer:
		return "PixelTransfer"
	}
	return "Mode(?)"
}

// Cycle cost of each state. PixelTransfer is fixed here; on hardware it
// grows with the number of sprites on the line.
const (
	OAMSearchCycles     = 80
	PixelTransferCycles = 172
	HBlankCycles        = 204
	VBlankCycles        = 456

	// LineCycles is the length of one scanline.
	LineCycles = OAMSearchCycles + PixelTransferCycles + HBlankCycles
	// FrameCycles is the length of one full frame, VBlank included.
	FrameCycles = LineCycles * (LastLine + 1)

	// VisibleLines is the first line of VBlank.
	VisibleLines = 144
	// LastLine is the highest value LY takes.
	LastLine = 153
)

// STAT bits.
const (
	statMode        = 0x03
	statCoincidence = 1 << 2
	statHBlankIRQ   = 1 << 3
	statVBlankIRQ   = 1 << 4
	statOAMIRQ      = 1 << 5
	statLYCIRQ      = 1 << 6
)

// Bus is the memory view the PPU needs: CPU-visible reads and writes plus a
// raw store for the registers it owns.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
	Poke(addr uint16, value byte)
}

// PPU is the scanline state machine.
type PPU struct {
	mem  Bus
	mode Mode
	line byte
}

// New returns a PPU at the start of line 0 in OAMSearch and publishes that
// state to LY and STAT.
func New(mem Bus) *PPU {
	p := &PPU{mem: mem}
	p.Reset()
	return p
}

// Reset returns the PPU to line 0, OAMSearch.
func (p *PPU) Reset() {
	p.line = 0
	p.mode = OAMSearch
	p.publishLine()
	p.publishMode()
}

func (p *PPU) Mode() Mode { return p.mode }
func (p *PPU) Line() byte { return p.line }

// Step performs one state transition and returns the cycle cost of the
// state entered.
func (p *PPU) Step() int {
	switch p.mode {
	case OAMSearch:
		p.enter(PixelTransfer)
		return PixelTransferCycles

	case PixelTransfer:
		p.line++
		p.publishLine()
		p.enter(HBlank)
		return HBlankCycles

	case HBlank:
		if p.line < VisibleLines {
			p.enter(OAMSearch)
			return OAMSearchCycles
		}
		p.enter(VBlank)
		interrupts.Request(p.mem, interrupts.VBlank)
		return VBlankCycles

	default: // VBlank
		if p.line >= LastLine {
			p.line = 0
			p.publishLine()
			interrupts.Clear(p.mem, interrupts.VBlank)
			p.enter(OAMSearch)
			return OAMSearchCycles
		}
		p.line++
		p.publishLine()
		return VBlankCycles
	}
}

func (p *PPU) enter(m Mode) {
	p.mode = m
	p.publishMode()

	var src byte
	switch m {
	case HBlank:
		src = statHBlankIRQ
	case VBlank:
		src = statVBlankIRQ
	case OAMSearch:
		src = statOAMIRQ
	}
	if src != 0 && p.mem.Read(memory.STAT)&src != 0 {
		interrupts.Request(p.mem, interrupts.LCDStat)
	}
}

func (p *PPU) publishMode() {
	stat := p.mem.Read(memory.STAT)
	p.mem.Poke(memory.STAT, stat&^statMode|byte(p.mode))
}

// publishLine mirrors the line into LY and refreshes the coincidence flag.
func (p *PPU) publishLine() {
	p.mem.Poke(memory.LY, p.line)

	stat := p.mem.Read(memory.STAT)
	if p.line == p.mem.Read(memory.LYC) {
		p.mem.Poke(memory.STAT, stat|statCoincidence)
		if stat&statLYCIRQ != 0 {
			interrupts.Request(p.mem, interrupts.LCDStat)
		}
		return
	}
	p.mem.Poke(memory.STAT, stat&^statCoincidence)
}
