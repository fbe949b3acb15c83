// Package cpu implements the SM83 interpreter: a register file, the ALU and
// two 256-entry dispatch tables (primary and CB-prefixed).
package cpu

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/interrupts"
)

const (
	// ClockSpeed is the DMG master clock in Hz.
	ClockSpeed = 4194304

	// DefaultInterruptCycles is the cost charged for an interrupt dispatch.
	// Hardware takes 20.
	DefaultInterruptCycles = 80
)

// Bus is the memory the CPU executes against.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// OpcodeError is returned by Step when it fetches an opcode with no handler.
// It is fatal: the interpreter state is left just past the offending byte.
type OpcodeError struct {
	PC       uint16
	Opcode   byte
	Prefixed bool
}

func (e *OpcodeError) Error() string {
	if e.Prefixed {
		return fmt.Sprintf("unimplemented opcode CB %02X at PC=%04X", e.Opcode, e.PC)
	}
	return fmt.Sprintf("unimplemented opcode %02X at PC=%04X", e.Opcode, e.PC)
}

// CPU holds the register file and interrupt state.
type CPU struct {
	Registers

	IME    bool
	halted bool
	// EI enables IME after the following instruction
	eiPending bool

	// InterruptCycles is returned by Step for an interrupt dispatch.
	InterruptCycles int
	// Trace logs every executed instruction through glog.
	Trace bool

	bus Bus
}

// New creates a CPU in the DMG post-boot state.
func New(b Bus) *CPU {
	c := &CPU{bus: b, InterruptCycles: DefaultInterruptCycles}
	c.Reset()
	return c
}

// Reset sets registers to the DMG post-boot state, as left by the boot ROM.
func (c *CPU) Reset() {
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP = 0xFFFE
	c.PC = 0x0100
	c.IME = false
	c.halted = false
	c.eiPending = false
}

// Halted reports whether the CPU is waiting in HALT.
func (c *CPU) Halted() bool { return c.halted }

// EIPending reports whether an EI is waiting for the next instruction.
func (c *CPU) EIPending() bool { return c.eiPending }

// Step services one pending interrupt or executes one instruction and
// returns the cycles consumed.
func (c *CPU) Step() (int, error) {
	if c.IME {
		if src, ok := interrupts.Next(c.bus); ok {
			return c.dispatch(src), nil
		}
	}

	if c.halted {
		if interrupts.Pending(c.bus) == 0 {
			return 4, nil
		}
		c.halted = false
	}

	if c.eiPending {
		c.eiPending = false
		c.IME = true
	}

	pc := c.PC
	op := c.fetch8()
	in := &instructions[op]
	if op == prefixCB {
		cb := c.fetch8()
		in = &instructionsCB[cb]
		if in.exec == nil {
			return 0, &OpcodeError{PC: pc, Opcode: cb, Prefixed: true}
		}
	}
	if in.exec == nil {
		return 0, &OpcodeError{PC: pc, Opcode: op}
	}
	if c.Trace {
		c.trace(pc, in)
	}
	return in.exec(c), nil
}

func (c *CPU) trace(pc uint16, in *instruction) {
	glog.Infof("%04X %-14s A=%02X F=%02X BC=%04X DE=%04X HL=%04X SP=%04X IME=%t",
		pc, in.name, c.A, c.F, c.BC().Get(), c.DE().Get(), c.HL().Get(), c.SP, c.IME)
}

func (c *CPU) dispatch(src interrupts.Source) int {
	interrupts.Clear(c.bus, src.Flag)
	c.halted = false
	c.IME = false
	c.push16(c.PC)
	c.PC = src.Vector
	if c.Trace {
		glog.Infof("interrupt %s -> %04X", src.Name, src.Vector)
	}
	return c.InterruptCycles
}

func (c *CPU) read8(addr uint16) byte     { return c.bus.Read(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.bus.Write(addr, v) }

func (c *CPU) fetch8() byte {
	b := c.read8(c.PC)
	c.PC++
	return b
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | hi<<8
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read8(addr))
	hi := uint16(c.read8(addr + 1))
	return lo | hi<<8
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write8(addr, byte(v))
	c.write8(addr+1, byte(v>>8))
}

// push16 writes the high byte first, pre-decrementing SP for each byte.
func (c *CPU) push16(v uint16) {
	c.SP--
	c.write8(c.SP, byte(v>>8))
	c.SP--
	c.write8(c.SP, byte(v))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.read8(c.SP))
	c.SP++
	hi := uint16(c.read8(c.SP))
	c.SP++
	return lo | hi<<8
}

// operand reads the register selected by a 3-bit field, (HL) included.
func (c *CPU) operand(i byte) byte {
	if i == 6 {
		return c.read8(c.HL().Get())
	}
	return *c.reg8(i)
}

func (c *CPU) setOperand(i byte, v byte) {
	if i == 6 {
		c.write8(c.HL().Get(), v)
		return
	}
	*c.reg8(i) = v
}
