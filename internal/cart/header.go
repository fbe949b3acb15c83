package cart

import (
	"fmt"
	"strings"
)

const (
	titleStart    = 0x0134
	titleEnd      = 0x0144
	headerLastReq = 0x014D
)

// Header holds the cartridge header fields the core reports on. None of them
// except CartType influences emulation.
type Header struct {
	Title          string // 0x0134-0x0143, trailing NULs trimmed
	CartType       byte   // 0x0147
	ROMSizeCode    byte   // 0x0148
	RAMSizeCode    byte   // 0x0149
	HeaderChecksum byte   // 0x014D

	ROMSizeBytes int
	ROMBanks     int
	RAMSizeBytes int
	CartTypeStr  string
}

// ParseHeader decodes the header without validating it.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) <= headerLastReq {
		return nil, ErrROMTooSmall
	}
	title := strings.TrimRight(string(rom[titleStart:titleEnd]), "\x00")
	title = strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7E {
			return -1
		}
		return r
	}, title)

	h := &Header{
		Title:          title,
		CartType:       rom[0x0147],
		ROMSizeCode:    rom[0x0148],
		RAMSizeCode:    rom[0x0149],
		HeaderChecksum: rom[0x014D],
	}
	h.ROMSizeBytes, h.ROMBanks = decodeROMSize(h.ROMSizeCode)
	h.RAMSizeBytes = decodeRAMSize(h.RAMSizeCode)
	h.CartTypeStr = cartTypeString(h.CartType)
	return h, nil
}

// Supported reports whether New accepts this cartridge type.
func (h *Header) Supported() bool {
	return h.CartType == TypeROMOnly || h.CartType == TypeMBC1
}

func (h *Header) String() string {
	return fmt.Sprintf("%q type=%s rom=%dKB/%d banks ram=%dKB",
		h.Title, h.CartTypeStr, h.ROMSizeBytes/1024, h.ROMBanks, h.RAMSizeBytes/1024)
}

// HeaderChecksumOK runs the boot ROM's checksum over 0x0134–0x014C.
func HeaderChecksumOK(rom []byte) bool {
	if len(rom) <= headerLastReq {
		return false
	}
	var sum byte
	for addr := titleStart; addr < headerLastReq; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum == rom[headerLastReq]
}

func decodeROMSize(code byte) (size, banks int) {
	if code <= 0x08 {
		banks = 2 << code
		return banks * romBankSize, banks
	}
	switch code {
	case 0x52:
		return 72 * romBankSize, 72
	case 0x53:
		return 80 * romBankSize, 80
	case 0x54:
		return 96 * romBankSize, 96
	}
	return 0, 0
}

// ramSizes maps the 0x0149 code to external RAM size in KB.
var ramSizes = map[byte]int{0x02: 8, 0x03: 32, 0x04: 128, 0x05: 64}

func decodeRAMSize(code byte) int { return ramSizes[code] * 1024 }

var cartTypeNames = map[byte]string{
	0x00: "ROM ONLY",
	0x01: "MBC1",
	0x02: "MBC1+RAM",
	0x03: "MBC1+RAM+BATTERY",
	0x05: "MBC2",
	0x06: "MBC2+BATTERY",
	0x0F: "MBC3+TIMER+BATTERY",
	0x10: "MBC3+TIMER+RAM+BATTERY",
	0x11: "MBC3",
	0x12: "MBC3+RAM",
	0x13: "MBC3+RAM+BATTERY",
	0x19: "MBC5",
	0x1A: "MBC5+RAM",
	0x1B: "MBC5+RAM+BATTERY",
	0x1C: "MBC5+RUMBLE",
	0x1D: "MBC5+RUMBLE+RAM",
	0x1E: "MBC5+RUMBLE+RAM+BATTERY",
}

func cartTypeString(code byte) string {
	if name, ok := cartTypeNames[code]; ok {
		return name
	}
	return "unknown"
}
