package cart

import (
	"errors"
	"fmt"
)

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000

	// Cartridge type codes at 0x0147 that this core understands.
	TypeROMOnly byte = 0x00
	TypeMBC1    byte = 0x01
)

var (
	// ErrUnsupportedMapper is wrapped by every UnsupportedMapperError.
	ErrUnsupportedMapper = errors.New("cartridge not supported")
	ErrROMTooSmall       = errors.New("ROM too small to contain header")
	ErrROMTooLarge       = errors.New("ROM larger than mapper address space")
)

// UnsupportedMapperError reports the mapper-type byte that could not be handled.
type UnsupportedMapperError struct {
	Code byte
}

func (e *UnsupportedMapperError) Error() string {
	return fmt.Sprintf("cartridge type %#02x (%s) not supported", e.Code, cartTypeString(e.Code))
}

func (e *UnsupportedMapperError) Unwrap() error { return ErrUnsupportedMapper }

// Cartridge defines the minimal interface the memory map needs for ROM/RAM banking.
// Addresses are CPU addresses.
type Cartridge interface {
	// Read returns a byte for ROM (0x0000–0x7FFF) and external RAM (0xA000–0xBFFF).
	Read(addr uint16) byte
	// Write handles mapper control writes (0x0000–0x7FFF) and external RAM writes (0xA000–0xBFFF).
	Write(addr uint16, value byte)
}

// New picks an implementation based on the mapper byte at 0x0147.
// It never retains a partially built cartridge: on error the result is nil.
func New(rom []byte) (Cartridge, error) {
	if len(rom) <= 0x0147 {
		return nil, ErrROMTooSmall
	}
	switch code := rom[0x0147]; code {
	case TypeROMOnly:
		return NewROMOnly(rom), nil
	case TypeMBC1:
		if len(rom) > mbc1MaxROM {
			return nil, fmt.Errorf("mbc1: %d bytes: %w", len(rom), ErrROMTooLarge)
		}
		return NewMBC1(rom), nil
	default:
		return nil, &UnsupportedMapperError{Code: code}
	}
}
