package cart

// ROMOnly implements a cartridge without a mapper or external RAM: a fixed
// bank 0 at 0x0000–0x3FFF and a single 16KB window at 0x4000–0x7FFF.
type ROMOnly struct {
	rom [2 * romBankSize]byte
}

// NewROMOnly copies the first 32KB of the image. Missing bytes read as 0xFF.
func NewROMOnly(rom []byte) *ROMOnly {
	c := &ROMOnly{}
	for i := range c.rom {
		c.rom[i] = 0xFF
	}
	copy(c.rom[:romBankSize], rom)
	if len(rom) > romBankSize {
		copy(c.rom[romBankSize:], rom[romBankSize:])
	}
	return c
}

func (c *ROMOnly) Read(addr uint16) byte {
	if addr < 0x8000 {
		return c.rom[addr]
	}
	// no external RAM
	return 0xFF
}

// Write ignores everything, including 0x0000–0x7FFF and 0xA000–0xBFFF.
func (c *ROMOnly) Write(addr uint16, value byte) {}
