package emu

import (
	"time"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cpu"
)

// Config contains settings that affect emulation behavior.
type Config struct {
	Trace bool // log CPU instructions

	// CycleDuration converts one CPU cycle to wall-clock time.
	CycleDuration time.Duration
	// MaxCatchUp bounds the elapsed time a single Advance will emulate.
	MaxCatchUp time.Duration
	// InterruptCycles is the cost charged for an interrupt dispatch.
	InterruptCycles int
}

// Defaults returns the configuration used when a field is left zero.
func Defaults() Config {
	return Config{
		CycleDuration:   238 * time.Nanosecond,
		MaxCatchUp:      250 * time.Millisecond,
		InterruptCycles: cpu.DefaultInterruptCycles,
	}
}

func (c Config) withDefaults() Config {
	d := Defaults()
	if c.CycleDuration <= 0 {
		c.CycleDuration = d.CycleDuration
	}
	if c.MaxCatchUp <= 0 {
		c.MaxCatchUp = d.MaxCatchUp
	}
	if c.InterruptCycles <= 0 {
		c.InterruptCycles = d.InterruptCycles
	}
	return c
}
