// Package interrupts describes the five DMG interrupt sources and operates on
// the IF (0xFF0F) and IE (0xFFFF) registers of a memory view.
//
// An interrupt is dispatched when its bit is set in both IF and IE and the
// CPU's master enable is set. Sources are scanned in Priority order; the first
// match wins.
package interrupts

// Flag is a single bit of IF/IE.
type Flag = byte

const (
	// VBlank is requested when the PPU enters VBlank.
	VBlank Flag = 1 << iota
	// LCDStat is requested by the enabled STAT sources.
	LCDStat
	// Timer is requested when TIMA overflows.
	Timer
	// Serial is requested when a serial transfer completes.
	Serial
	// Joypad is requested on a high-to-low transition of P1.
	Joypad
)

const (
	ifAddr uint16 = 0xFF0F
	ieAddr uint16 = 0xFFFF

	// Mask covers the five defined bits.
	Mask byte = 0x1F
)

// Source pairs a request bit with its fixed dispatch vector.
type Source struct {
	Flag   Flag
	Vector uint16
	Name   string
}

// Priority lists the sources from highest to lowest priority.
var Priority = [...]Source{
	{VBlank, 0x0040, "VBlank"},
	{LCDStat, 0x0048, "LCD STAT"},
	{Timer, 0x0050, "Timer"},
	{Serial, 0x0058, "Serial"},
	{Joypad, 0x0060, "Joypad"},
}

// Bus is the memory view the helpers operate on.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// Request sets flag in IF.
func Request(b Bus, flag Flag) {
	b.Write(ifAddr, (b.Read(ifAddr)|flag)&Mask)
}

// Clear resets flag in IF.
func Clear(b Bus, flag Flag) {
	b.Write(ifAddr, b.Read(ifAddr)&^flag&Mask)
}

// Pending returns the requested and enabled bits.
func Pending(b Bus) byte {
	return b.Read(ifAddr) & b.Read(ieAddr) & Mask
}

// Next returns the highest-priority pending source, if any. It does not
// acknowledge it.
func Next(b Bus) (Source, bool) {
	pending := Pending(b)
	if pending == 0 {
		return Source{}, false
	}
	for _, s := range Priority {
		if pending&s.Flag != 0 {
			return s, true
		}
	}
	return Source{}, false
}
