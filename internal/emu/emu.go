// Package emu wires the cartridge, memory, CPU and PPU into a machine and
// drives them from wall-clock time.
package emu

import (
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/memory"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/ppu"
)

// Frame is a rendered background map.
type Frame = ppu.Frame

// ErrNoCartridge is returned by Advance before a cartridge is loaded.
var ErrNoCartridge = errors.New("no cartridge loaded")

// Machine owns one memory instance shared by the CPU and the PPU. It is not
// safe for concurrent use.
type Machine struct {
	cfg Config

	rom    []byte
	header *cart.Header
	mem    *memory.Memory
	cpu    *cpu.CPU
	ppu    *ppu.PPU

	// wall-clock time owed to each component; drained in whole steps and
	// allowed to go negative by less than one step
	cpuBudget time.Duration
	ppuBudget time.Duration

	cycles uint64
	frames uint64
	err    error
}

func New(cfg Config) *Machine {
	return &Machine{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (m *Machine) Config() Config { return m.cfg }

// LoadCartridge builds a mapper for rom and resets the machine onto it. On
// error the previously loaded cartridge, if any, stays in place.
func (m *Machine) LoadCartridge(rom []byte) error {
	if _, err := cart.New(rom); err != nil {
		return err
	}

	h, err := cart.ParseHeader(rom)
	switch {
	case err != nil:
		glog.Warningf("cartridge header: %v", err)
	case !cart.HeaderChecksumOK(rom):
		glog.Warningf("cartridge %q: header checksum mismatch", h.Title)
	}
	if h != nil {
		glog.Infof("cartridge %s", h)
		if h.ROMSizeBytes != len(rom) {
			glog.Warningf("cartridge %q: header declares %d bytes, image has %d", h.Title, h.ROMSizeBytes, len(rom))
		}
	}

	m.rom = append([]byte(nil), rom...)
	m.header = h
	m.Reset()
	return nil
}

// Header returns the decoded header of the loaded cartridge, or nil.
func (m *Machine) Header() *cart.Header { return m.header }

// Reset restarts the loaded cartridge from the post-boot state with a fresh
// mapper and zeroed RAM.
func (m *Machine) Reset() {
	if m.rom == nil {
		return
	}
	c, err := cart.New(m.rom)
	if err != nil {
		// rom was accepted by LoadCartridge
		panic(err)
	}
	m.mem = memory.New(c)
	m.mem.ApplyPostBootIO()
	m.cpu = cpu.New(m.mem)
	m.cpu.InterruptCycles = m.cfg.InterruptCycles
	m.cpu.Trace = m.cfg.Trace
	m.ppu = ppu.New(m.mem)

	m.cpuBudget, m.ppuBudget = 0, 0
	m.cycles, m.frames = 0, 0
	m.err = nil
}

// Advance emulates elapsed wall-clock time. The CPU budget is drained
// completely before the PPU budget. An execution error is fatal: it is
// latched and returned by every later call.
func (m *Machine) Advance(elapsed time.Duration) error {
	if m.err != nil {
		return m.err
	}
	if m.cpu == nil {
		return ErrNoCartridge
	}
	if elapsed > m.cfg.MaxCatchUp {
		glog.V(2).Infof("advance: clamping %v to %v", elapsed, m.cfg.MaxCatchUp)
		elapsed = m.cfg.MaxCatchUp
	}
	if elapsed < 0 {
		elapsed = 0
	}
	m.cpuBudget += elapsed
	m.ppuBudget += elapsed

	step := m.cfg.CycleDuration
	for m.cpuBudget >= step {
		n, err := m.cpu.Step()
		if err != nil {
			m.err = err
			glog.Errorf("cpu: %v", err)
			return err
		}
		m.cpuBudget -= time.Duration(n) * step
		m.cycles += uint64(n)
	}
	for m.ppuBudget >= step {
		line := m.ppu.Line()
		m.ppuBudget -= time.Duration(m.ppu.Step()) * step
		if line != 0 && m.ppu.Line() == 0 {
			m.frames++
		}
	}
	return nil
}

// StepFrame emulates one frame of machine time in scanline-sized slices so
// that code polling LY sees it change.
func (m *Machine) StepFrame() error {
	slice := time.Duration(ppu.LineCycles) * m.cfg.CycleDuration
	for i := 0; i <= ppu.LastLine; i++ {
		if err := m.Advance(slice); err != nil {
			return err
		}
	}
	glog.V(2).Infof("frame %d: %d cycles, PC=%04X LY=%d", m.frames, m.cycles, m.cpu.PC, m.ppu.Line())
	return nil
}

// Frame renders the current background map.
func (m *Machine) Frame() Frame {
	if m.mem == nil {
		return ppu.Draw(memory.New(nil))
	}
	return m.ppu.Draw()
}

// Err returns the latched execution error, if any.
func (m *Machine) Err() error { return m.err }

// Cycles returns the number of CPU cycles executed since the last reset.
func (m *Machine) Cycles() uint64 { return m.cycles }

// Frames returns the number of completed PPU frames since the last reset.
func (m *Machine) Frames() uint64 { return m.frames }

// CPU exposes the processor for inspection.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// PPU exposes the pixel pipeline for inspection.
func (m *Machine) PPU() *ppu.PPU { return m.ppu }

// Memory exposes the address space for inspection.
func (m *Machine) Memory() *memory.Memory { return m.mem }
