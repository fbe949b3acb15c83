package cart

const (
	mbc1MaxROM   = 2 * 1024 * 1024
	mbc1RAMBanks = 4
)

// BankingMode selects what the 2-bit register at 0x4000–0x5FFF means.
type BankingMode byte

const (
	// ROMBanking uses the 2-bit register as bits 5–6 of the ROM bank number.
	ROMBanking BankingMode = iota
	// RAMBanking uses the 2-bit register as the external RAM bank number.
	RAMBanking
)

func (m BankingMode) String() string {
	if m == RAMBanking {
		return "RAM"
	}
	return "ROM"
}

// MBC1 implements MBC1 ROM/RAM banking for images up to 2MB with 32KB of RAM.
type MBC1 struct {
	rom   []byte
	banks int
	ram   [mbc1RAMBanks * ramBankSize]byte

	bankLow    byte // lower 5 bits of the ROM bank number (0 written -> 1)
	bankHigh   byte // ROM bank bits 5-6 or RAM bank, depending on mode
	ramEnabled bool
	mode       BankingMode
}

// NewMBC1 copies rom, padding it with 0xFF to a whole number of 16KB banks.
func NewMBC1(rom []byte) *MBC1 {
	banks := (len(rom) + romBankSize - 1) / romBankSize
	if banks < 2 {
		banks = 2
	}
	m := &MBC1{rom: make([]byte, banks*romBankSize), banks: banks, bankLow: 1}
	n := copy(m.rom, rom)
	for i := n; i < len(m.rom); i++ {
		m.rom[i] = 0xFF
	}
	return m
}

func (m *MBC1) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.rom[addr]
	case addr < 0x8000:
		off := m.ROMBank()*romBankSize + int(addr-0x4000)
		return m.rom[off]
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.ram[m.RAMBank()*ramBankSize+int(addr-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		m.bankLow = value & 0x1F
		if m.bankLow == 0 {
			m.bankLow = 1
		}
	case addr < 0x6000:
		m.bankHigh = value & 0x03
	case addr < 0x8000:
		m.mode = BankingMode(value & 0x01)
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		m.ram[m.RAMBank()*ramBankSize+int(addr-0xA000)] = value
	}
}

// ROMBank returns the bank mapped at 0x4000–0x7FFF. Bank numbers beyond the
// image wrap, as the unused upper address lines do on real boards.
func (m *MBC1) ROMBank() int {
	bank := int(m.bankLow)
	if m.mode == ROMBanking {
		bank |= int(m.bankHigh) << 5
	}
	return bank % m.banks
}

// RAMBank returns the bank mapped at 0xA000–0xBFFF.
func (m *MBC1) RAMBank() int {
	if m.mode == RAMBanking {
		return int(m.bankHigh)
	}
	return 0
}

// Mode reports the current banking mode.
func (m *MBC1) Mode() BankingMode { return m.mode }

// RAMEnabled reports whether 0xA000–0xBFFF is currently gated open.
func (m *MBC1) RAMEnabled() bool { return m.ramEnabled }
