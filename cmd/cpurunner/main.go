package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/memory"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/romfile"
)

type traceEntry struct {
	pc                     uint16
	op                     byte
	cyc                    int
	a, f, b, c, d, e, h, l byte
	sp                     uint16
	ime                    bool
	ifreg                  byte
	ie                     byte
}

func (te traceEntry) String() string {
	return fmt.Sprintf("PC=%04X OP=%02X cyc=%d A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X IME=%t IF=%02X IE=%02X",
		te.pc, te.op, te.cyc, te.a, te.f, te.b, te.c, te.d, te.e, te.h, te.l, te.sp, te.ime, te.ifreg, te.ie)
}

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb, .zip, .7z, .gz, .xz)")
	steps := flag.Int("steps", 5_000_000, "max CPU steps to run")
	startPC := flag.Int("pc", 0x0100, "initial PC value")
	untilPC := flag.Int("untilpc", -1, "stop when PC reaches this address; -1 disables")
	trace := flag.Bool("trace", false, "print every instruction")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	traceWindow := flag.Int("traceWindow", 200, "number of recent instructions to dump when execution fails")
	intCycles := flag.Int("intcycles", cpu.DefaultInterruptCycles, "cycles charged per interrupt dispatch")
	flag.Parse()
	defer glog.Flush()

	if *romPath == "" {
		glog.Exit("-rom is required")
	}
	rom, err := romfile.Load(*romPath)
	if err != nil {
		glog.Exitf("read rom: %v", err)
	}
	c0, err := cart.New(rom)
	if err != nil {
		glog.Exitf("load cart: %v", err)
	}

	b := memory.New(c0)
	b.ApplyPostBootIO()
	glog.V(1).Infof("mapper %T", b.Cartridge())

	c := cpu.New(b)
	c.PC = uint16(*startPC)
	c.InterruptCycles = *intCycles

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}

	// ring buffer for recent traces
	window := *traceWindow
	if window < 1 {
		window = 1
	}
	ring := make([]traceEntry, window)
	ringIdx, ringFill := 0, 0
	var cycles int

	done := func(steps int) {
		fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", steps, cycles, time.Since(start).Truncate(time.Millisecond))
	}

	for i := 0; i < *steps; i++ {
		pc := c.PC
		op := b.Read(pc)
		cyc, err := c.Step()
		if err != nil {
			var oe *cpu.OpcodeError
			if errors.As(err, &oe) && ringFill > 0 {
				fmt.Printf("\n--- recent trace (last %d instructions) ---\n", ringFill)
				first := (ringIdx - ringFill + window) % window
				for j := 0; j < ringFill; j++ {
					fmt.Println(ring[(first+j)%window])
				}
				fmt.Printf("--- end trace ---\n")
			}
			fmt.Printf("\nExecution stopped: %v\n", err)
			done(i)
			exit(1)
		}
		cycles += cyc

		te := traceEntry{
			pc:  pc,
			op:  op,
			cyc: cyc,
			a:   c.A, f: c.F, b: c.B, c: c.C, d: c.D, e: c.E, h: c.H, l: c.L,
			sp: c.SP, ime: c.IME, ifreg: b.Read(memory.IF), ie: b.Read(memory.IE),
		}
		if *trace {
			fmt.Println(te)
		}
		ring[ringIdx] = te
		ringIdx = (ringIdx + 1) % window
		if ringFill < window {
			ringFill++
		}

		if *untilPC >= 0 && c.PC == uint16(*untilPC) {
			fmt.Printf("\nReached PC=%04X.\n", c.PC)
			done(i + 1)
			return
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			done(i + 1)
			exit(2)
		}
	}
	done(*steps)
}

// exit flushes the log before terminating; os.Exit skips deferred calls.
func exit(code int) {
	glog.Flush()
	os.Exit(code)
}
