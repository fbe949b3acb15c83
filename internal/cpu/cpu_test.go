package cpu

import (
	"errors"
	"testing"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/interrupts"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/memory"
)

// flatBus is 64KB of plain RAM; IF reads back with its upper bits set like
// the real register.
type flatBus struct {
	mem [0x10000]byte
}

func (b *flatBus) Read(addr uint16) byte {
	if addr == 0xFF0F {
		return b.mem[addr] | 0xE0
	}
	return b.mem[addr]
}

func (b *flatBus) Write(addr uint16, v byte) { b.mem[addr] = v }

// newCPUWithProgram places code at the post-boot entry point 0x0100.
func newCPUWithProgram(code ...byte) (*CPU, *flatBus) {
	b := &flatBus{}
	copy(b.mem[0x0100:], code)
	return New(b), b
}

func step(t *testing.T, c *CPU) int {
	t.Helper()
	cycles, err := c.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	return cycles
}

func TestCPU_PostBootState(t *testing.T) {
	c, _ := newCPUWithProgram()
	if c.AF().Get() != 0x01B0 || c.BC().Get() != 0x0013 || c.DE().Get() != 0x00D8 || c.HL().Get() != 0x014D {
		t.Fatalf("pairs got AF=%04X BC=%04X DE=%04X HL=%04X", c.AF().Get(), c.BC().Get(), c.DE().Get(), c.HL().Get())
	}
	if c.SP != 0xFFFE || c.PC != 0x0100 {
		t.Fatalf("SP/PC got %04X/%04X want FFFE/0100", c.SP, c.PC)
	}
	if c.IME || c.Halted() {
		t.Fatalf("IME or halted set after reset")
	}
}

func TestCPU_TablesComplete(t *testing.T) {
	illegal := map[byte]bool{0xD3: true, 0xDB: true, 0xDD: true, 0xE3: true, 0xE4: true, 0xEB: true, 0xEC: true, 0xED: true, 0xF4: true, 0xFC: true, 0xFD: true}
	for op := 0; op < 256; op++ {
		defined := instructions[op].exec != nil
		if op == prefixCB {
			if defined {
				t.Fatalf("prefix CB must not have a primary handler")
			}
			continue
		}
		if defined == illegal[byte(op)] {
			t.Fatalf("opcode %02X defined=%t", op, defined)
		}
	}
	for op := 0; op < 256; op++ {
		if instructionsCB[op].exec == nil {
			t.Fatalf("CB %02X has no handler", op)
		}
	}
}

func TestCPU_NopAndPC(t *testing.T) {
	c, _ := newCPUWithProgram(0x00)
	if cycles := step(t, c); cycles != 4 {
		t.Fatalf("NOP cycles got %d want 4", cycles)
	}
	if c.PC != 0x0101 {
		t.Fatalf("PC after NOP got %04X want 0101", c.PC)
	}
}

func TestCPU_LD_A_d8_And_XOR_A(t *testing.T) {
	c, _ := newCPUWithProgram(0x3E, 0x12, 0xAF) // LD A,12; XOR A
	step(t, c)
	if c.A != 0x12 {
		t.Fatalf("A after LD got %02X want 12", c.A)
	}
	step(t, c)
	if c.A != 0 || c.F != FlagZ {
		t.Fatalf("after XOR A got A=%02X F=%02X want 00/80", c.A, c.F)
	}
}

func TestCPU_LD_a16_A_and_LD_A_a16(t *testing.T) {
	c, b := newCPUWithProgram(0x3E, 0x77, 0xEA, 0x00, 0xC0, 0x3E, 0x00, 0xFA, 0x00, 0xC0)
	step(t, c)
	if cycles := step(t, c); cycles != 16 {
		t.Fatalf("LD (a16),A cycles got %d want 16", cycles)
	}
	if b.mem[0xC000] != 0x77 {
		t.Fatalf("C000 got %02X want 77", b.mem[0xC000])
	}
	step(t, c)
	step(t, c)
	if c.A != 0x77 {
		t.Fatalf("A after LD A,(C000) got %02X want 77", c.A)
	}
}

func TestCPU_INC_DEC_Boundaries(t *testing.T) {
	for _, r := range []byte{0, 1, 2, 3, 4, 5, 7} {
		t.Run(reg8Names[r], func(t *testing.T) {
			inc, dec := 0x04|r<<3, 0x05|r<<3
			c, _ := newCPUWithProgram(inc, dec, dec) // INC r; DEC r; DEC r
			reg := c.reg8(r)
			*reg = 0xFF
			c.F = FlagC
			step(t, c)
			if *reg != 0x00 || c.F != FlagZ|FlagH|FlagC {
				t.Fatalf("INC FF got %02X F=%02X want 00/B0", *reg, c.F)
			}
			step(t, c)
			if *reg != 0xFF || c.F != FlagN|FlagH|FlagC {
				t.Fatalf("DEC 00 got %02X F=%02X want FF/70", *reg, c.F)
			}
			*reg = 0x01
			step(t, c)
			if *reg != 0x00 || c.F != FlagZ|FlagN|FlagC {
				t.Fatalf("DEC 01 got %02X F=%02X want 00/D0", *reg, c.F)
			}
		})
	}
}

func TestCPU_INC_HL_Memory(t *testing.T) {
	c, b := newCPUWithProgram(0x34) // INC (HL)
	c.HL().Set(0xC010)
	b.mem[0xC010] = 0x0F
	if cycles := step(t, c); cycles != 12 {
		t.Fatalf("INC (HL) cycles got %d want 12", cycles)
	}
	if b.mem[0xC010] != 0x10 || !c.flag(FlagH) {
		t.Fatalf("INC (HL) got %02X H=%t", b.mem[0xC010], c.flag(FlagH))
	}
}

func TestCPU_PushPopIdentity(t *testing.T) {
	// PUSH rr; POP rr for BC, DE, HL, AF
	c, b := newCPUWithProgram(0xC5, 0xC1, 0xD5, 0xD1, 0xE5, 0xE1, 0xF5, 0xF1)
	c.BC().Set(0x1234)
	c.DE().Set(0x5678)
	c.HL().Set(0x9ABC)
	c.AF().Set(0xDEF0)
	want := []uint16{0x1234, 0x5678, 0x9ABC, 0xDEF0}
	pairs := []func() Pair{c.BC, c.DE, c.HL, c.AF}
	for i, p := range pairs {
		if cycles := step(t, c); cycles != 16 {
			t.Fatalf("PUSH cycles got %d want 16", cycles)
		}
		if b.mem[0xFFFD] != byte(want[i]>>8) || b.mem[0xFFFC] != byte(want[i]) {
			t.Fatalf("stack bytes got %02X %02X", b.mem[0xFFFD], b.mem[0xFFFC])
		}
		p().Set(0)
		if cycles := step(t, c); cycles != 12 {
			t.Fatalf("POP cycles got %d want 12", cycles)
		}
		if got := p().Get(); got != want[i] {
			t.Fatalf("pair %d after POP got %04X want %04X", i, got, want[i])
		}
		if c.SP != 0xFFFE {
			t.Fatalf("SP got %04X want FFFE", c.SP)
		}
	}
}

func TestCPU_PopAFMasksFlags(t *testing.T) {
	c, b := newCPUWithProgram(0xF1) // POP AF
	c.SP = 0xC000
	b.mem[0xC000] = 0xFF
	b.mem[0xC001] = 0x12
	step(t, c)
	if c.A != 0x12 || c.F != 0xF0 {
		t.Fatalf("POP AF got A=%02X F=%02X want 12/F0", c.A, c.F)
	}
}

func TestCPU_InterruptDispatch(t *testing.T) {
	c, b := newCPUWithProgram(0x00)
	c.PC = 0x1234
	c.IME = true
	b.mem[0xFFFF] = byte(interrupts.VBlank | interrupts.Timer)
	b.mem[0xFF0F] = byte(interrupts.VBlank | interrupts.Timer)

	if cycles := step(t, c); cycles != DefaultInterruptCycles {
		t.Fatalf("dispatch cycles got %d want %d", cycles, DefaultInterruptCycles)
	}
	if c.PC != 0x0040 {
		t.Fatalf("PC got %04X want 0040", c.PC)
	}
	if c.IME {
		t.Fatalf("IME still set after dispatch")
	}
	if b.mem[0xFF0F] != byte(interrupts.Timer) {
		t.Fatalf("IF got %02X want only timer bit", b.mem[0xFF0F])
	}
	if c.SP != 0xFFFC || b.mem[0xFFFD] != 0x12 || b.mem[0xFFFC] != 0x34 {
		t.Fatalf("stack got SP=%04X [FFFD]=%02X [FFFC]=%02X", c.SP, b.mem[0xFFFD], b.mem[0xFFFC])
	}
}

func TestCPU_InterruptNeedsIME(t *testing.T) {
	c, b := newCPUWithProgram(0x00)
	b.mem[0xFFFF] = 0x1F
	b.mem[0xFF0F] = 0x01
	step(t, c)
	if c.PC != 0x0101 {
		t.Fatalf("PC got %04X want 0101, interrupt taken with IME off", c.PC)
	}
}

func TestCPU_InterruptCyclesConfigurable(t *testing.T) {
	c, b := newCPUWithProgram()
	c.InterruptCycles = 20
	c.IME = true
	b.mem[0xFFFF] = 0x04
	b.mem[0xFF0F] = 0x04
	if cycles := step(t, c); cycles != 20 || c.PC != 0x0050 {
		t.Fatalf("got cycles=%d PC=%04X want 20/0050", cycles, c.PC)
	}
}

func TestCPU_EILatency(t *testing.T) {
	c, b := newCPUWithProgram(0xFB, 0x00, 0x00) // EI; NOP; NOP
	b.mem[0xFFFF] = 0x01
	b.mem[0xFF0F] = 0x01

	step(t, c)
	if c.IME || !c.EIPending() {
		t.Fatalf("IME must not be set directly by EI")
	}
	step(t, c) // NOP runs before any interrupt
	if c.PC != 0x0102 || !c.IME {
		t.Fatalf("after NOP got PC=%04X IME=%t", c.PC, c.IME)
	}
	step(t, c)
	if c.PC != 0x0040 {
		t.Fatalf("interrupt not taken, PC=%04X", c.PC)
	}
}

func TestCPU_DICancelsPendingEI(t *testing.T) {
	c, _ := newCPUWithProgram(0xFB, 0xF3, 0x00) // EI; DI; NOP
	step(t, c)
	step(t, c)
	step(t, c)
	if c.IME || c.EIPending() {
		t.Fatalf("IME=%t pending=%t after EI;DI", c.IME, c.EIPending())
	}
}

func TestCPU_RETIEnablesImmediately(t *testing.T) {
	c, b := newCPUWithProgram(0xD9) // RETI
	c.SP = 0xC000
	b.mem[0xC000] = 0x00
	b.mem[0xC001] = 0x20
	if cycles := step(t, c); cycles != 16 {
		t.Fatalf("RETI cycles got %d want 16", cycles)
	}
	if !c.IME || c.PC != 0x2000 {
		t.Fatalf("RETI got IME=%t PC=%04X", c.IME, c.PC)
	}
}

func TestCPU_HaltWakesOnPending(t *testing.T) {
	c, b := newCPUWithProgram(0x76, 0x3C) // HALT; INC A
	c.A = 0
	step(t, c)
	if !c.Halted() {
		t.Fatalf("not halted")
	}
	if cycles := step(t, c); cycles != 4 || c.PC != 0x0101 {
		t.Fatalf("halted step got cycles=%d PC=%04X", cycles, c.PC)
	}
	// IF alone is not enough
	b.mem[0xFF0F] = 0x01
	step(t, c)
	if !c.Halted() {
		t.Fatalf("woke without IE")
	}
	b.mem[0xFFFF] = 0x01
	step(t, c)
	if c.Halted() || c.A != 1 {
		t.Fatalf("did not resume with IME off: halted=%t A=%02X", c.Halted(), c.A)
	}
}

func TestCPU_IllegalOpcode(t *testing.T) {
	c, _ := newCPUWithProgram(0xD3)
	_, err := c.Step()
	var oe *OpcodeError
	if !errors.As(err, &oe) {
		t.Fatalf("got %v want *OpcodeError", err)
	}
	if oe.Opcode != 0xD3 || oe.PC != 0x0100 || oe.Prefixed {
		t.Fatalf("error fields got %+v", *oe)
	}
}

func TestCPU_ADD_HL_Flags(t *testing.T) {
	c, _ := newCPUWithProgram(0x09, 0x29) // ADD HL,BC; ADD HL,HL
	c.F = FlagZ | FlagN
	c.HL().Set(0x0FFF)
	c.BC().Set(0x0001)
	if cycles := step(t, c); cycles != 8 {
		t.Fatalf("ADD HL cycles got %d want 8", cycles)
	}
	if c.HL().Get() != 0x1000 || c.F != FlagZ|FlagH {
		t.Fatalf("ADD HL,BC got HL=%04X F=%02X want 1000/A0", c.HL().Get(), c.F)
	}
	c.HL().Set(0x8000)
	step(t, c)
	if c.HL().Get() != 0x0000 || c.F != FlagZ|FlagC {
		t.Fatalf("ADD HL,HL got HL=%04X F=%02X want 0000/90", c.HL().Get(), c.F)
	}
}

func TestCPU_ADD_SP_Signed(t *testing.T) {
	c, _ := newCPUWithProgram(0xE8, 0x01, 0xF8, 0xFF) // ADD SP,1; LD HL,SP-1
	c.SP = 0x00FF
	c.F = FlagZ | FlagN
	if cycles := step(t, c); cycles != 16 {
		t.Fatalf("ADD SP cycles got %d want 16", cycles)
	}
	if c.SP != 0x0100 || c.F != FlagH|FlagC {
		t.Fatalf("ADD SP,1 got SP=%04X F=%02X want 0100/30", c.SP, c.F)
	}
	if cycles := step(t, c); cycles != 12 {
		t.Fatalf("LD HL,SP+r8 cycles got %d want 12", cycles)
	}
	if c.HL().Get() != 0x00FF || c.F != 0 {
		t.Fatalf("LD HL,SP-1 got HL=%04X F=%02X want 00FF/00", c.HL().Get(), c.F)
	}
}

func TestCPU_ALUFlags(t *testing.T) {
	tests := []struct {
		name  string
		op    byte
		a, v  byte
		carry bool
		wantA byte
		wantF byte
	}{
		{"ADD half", 0xC6, 0x0F, 0x01, false, 0x10, FlagH},
		{"ADD carry", 0xC6, 0xFF, 0x01, false, 0x00, FlagZ | FlagH | FlagC},
		{"ADC carry in", 0xCE, 0x0E, 0x01, true, 0x10, FlagH},
		{"SUB borrow", 0xD6, 0x10, 0x01, false, 0x0F, FlagN | FlagH},
		{"SUB equal", 0xD6, 0x42, 0x42, false, 0x00, FlagZ | FlagN},
		{"SUB underflow", 0xD6, 0x00, 0x01, false, 0xFF, FlagN | FlagH | FlagC},
		{"SBC carry in", 0xDE, 0x10, 0x0F, true, 0x00, FlagZ | FlagN | FlagH},
		{"AND", 0xE6, 0xF0, 0x0F, true, 0x00, FlagZ | FlagH},
		{"XOR", 0xEE, 0xFF, 0x0F, true, 0xF0, 0},
		{"OR", 0xF6, 0x00, 0x00, true, 0x00, FlagZ},
		{"CP keeps A", 0xFE, 0x20, 0x30, false, 0x20, FlagN | FlagC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newCPUWithProgram(tt.op, tt.v)
			c.A = tt.a
			c.F = 0
			if tt.carry {
				c.F = FlagC
			}
			step(t, c)
			if c.A != tt.wantA || c.F != tt.wantF {
				t.Fatalf("got A=%02X F=%02X want %02X/%02X", c.A, c.F, tt.wantA, tt.wantF)
			}
		})
	}
}

func TestCPU_DAA(t *testing.T) {
	c, _ := newCPUWithProgram(0xC6, 0x27, 0x27, 0x27, 0xD6, 0x05, 0x27) // ADD A,27; DAA; DAA(no-op); SUB 05; DAA
	c.A = 0x15
	step(t, c)
	step(t, c)
	if c.A != 0x42 {
		t.Fatalf("15+27 DAA got %02X want 42", c.A)
	}
	step(t, c)
	if c.A != 0x42 {
		t.Fatalf("second DAA changed A to %02X", c.A)
	}
	step(t, c)
	step(t, c)
	if c.A != 0x37 {
		t.Fatalf("42-05 DAA got %02X want 37", c.A)
	}
}

func TestCPU_RotateAccumulatorClearsZ(t *testing.T) {
	c, _ := newCPUWithProgram(0x07, 0xCB, 0x07) // RLCA; RLC A
	c.A = 0x00
	step(t, c)
	if c.F != 0 {
		t.Fatalf("RLCA of 0 got F=%02X want 00", c.F)
	}
	if cycles := step(t, c); cycles != 8 {
		t.Fatalf("CB RLC cycles got %d want 8", cycles)
	}
	if c.F != FlagZ {
		t.Fatalf("RLC A of 0 got F=%02X want 80", c.F)
	}
}

func TestCPU_CBOps(t *testing.T) {
	tests := []struct {
		name   string
		cb     byte
		in     byte
		carry  bool
		want   byte
		wantF  byte
		cycles int
	}{
		{"RLC B", 0x00, 0x85, false, 0x0B, FlagC, 8},
		{"RRC C", 0x09, 0x01, false, 0x80, FlagC, 8},
		{"RL D", 0x12, 0x80, true, 0x01, FlagC, 8},
		{"RR E", 0x1B, 0x01, false, 0x00, FlagZ | FlagC, 8},
		{"SLA H", 0x24, 0xC0, false, 0x80, FlagC, 8},
		{"SRA L", 0x2D, 0x81, false, 0xC0, FlagC, 8},
		{"SWAP A", 0x37, 0xF1, true, 0x1F, 0, 8},
		{"SRL B", 0x38, 0x01, false, 0x00, FlagZ | FlagC, 8},
		{"RES 7,A", 0xBF, 0xFF, true, 0x7F, FlagC, 8},
		{"SET 0,B", 0xC0, 0x00, false, 0x01, 0, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newCPUWithProgram(0xCB, tt.cb)
			r := tt.cb & 7
			*c.reg8(r) = tt.in
			c.F = 0
			if tt.carry {
				c.F = FlagC
			}
			if cycles := step(t, c); cycles != tt.cycles {
				t.Fatalf("cycles got %d want %d", cycles, tt.cycles)
			}
			if got := *c.reg8(r); got != tt.want || c.F != tt.wantF {
				t.Fatalf("got %02X F=%02X want %02X/%02X", got, c.F, tt.want, tt.wantF)
			}
		})
	}
}

func TestCPU_CBMemoryTiming(t *testing.T) {
	c, b := newCPUWithProgram(0xCB, 0x46, 0xCB, 0xC6) // BIT 0,(HL); SET 0,(HL)
	c.HL().Set(0xC000)
	c.F = FlagC
	if cycles := step(t, c); cycles != 12 {
		t.Fatalf("BIT (HL) cycles got %d want 12", cycles)
	}
	if c.F != FlagZ|FlagH|FlagC {
		t.Fatalf("BIT 0 of 00 got F=%02X want B0", c.F)
	}
	if cycles := step(t, c); cycles != 16 {
		t.Fatalf("SET (HL) cycles got %d want 16", cycles)
	}
	if b.mem[0xC000] != 0x01 {
		t.Fatalf("(HL) got %02X want 01", b.mem[0xC000])
	}
}

func TestCPU_ConditionalTiming(t *testing.T) {
	tests := []struct {
		name   string
		code   []byte
		f      byte
		cycles int
		pc     uint16
	}{
		{"JR NZ taken", []byte{0x20, 0x05}, 0, 12, 0x0107},
		{"JR NZ not taken", []byte{0x20, 0x05}, FlagZ, 8, 0x0102},
		{"JR back", []byte{0x18, 0xFE}, 0, 12, 0x0100},
		{"JP C taken", []byte{0xDA, 0x00, 0x20}, FlagC, 16, 0x2000},
		{"JP C not taken", []byte{0xDA, 0x00, 0x20}, 0, 12, 0x0103},
		{"CALL Z taken", []byte{0xCC, 0x00, 0x30}, FlagZ, 24, 0x3000},
		{"CALL Z not taken", []byte{0xCC, 0x00, 0x30}, 0, 12, 0x0103},
		{"RET NC not taken", []byte{0xD0}, FlagC, 8, 0x0101},
		{"RST 38", []byte{0xFF}, 0, 16, 0x0038},
		{"JP (HL)", []byte{0xE9}, 0, 4, 0x014D},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newCPUWithProgram(tt.code...)
			c.F = tt.f
			if cycles := step(t, c); cycles != tt.cycles {
				t.Fatalf("cycles got %d want %d", cycles, tt.cycles)
			}
			if c.PC != tt.pc {
				t.Fatalf("PC got %04X want %04X", c.PC, tt.pc)
			}
		})
	}
}

func TestCPU_CallRet(t *testing.T) {
	c, b := newCPUWithProgram(0xCD, 0x00, 0x02) // CALL 0200
	b.mem[0x0200] = 0xC8                        // RET Z
	c.F = FlagZ
	step(t, c)
	if c.SP != 0xFFFC || b.mem[0xFFFD] != 0x01 || b.mem[0xFFFC] != 0x03 {
		t.Fatalf("CALL pushed SP=%04X %02X%02X", c.SP, b.mem[0xFFFD], b.mem[0xFFFC])
	}
	if cycles := step(t, c); cycles != 20 {
		t.Fatalf("RET Z taken cycles got %d want 20", cycles)
	}
	if c.PC != 0x0103 || c.SP != 0xFFFE {
		t.Fatalf("after RET PC=%04X SP=%04X", c.PC, c.SP)
	}
}

func TestCPU_HLIncDec(t *testing.T) {
	c, b := newCPUWithProgram(0x22, 0x3A) // LD (HL+),A; LD A,(HL-)
	c.HL().Set(0xC000)
	c.A = 0x99
	step(t, c)
	if b.mem[0xC000] != 0x99 || c.HL().Get() != 0xC001 {
		t.Fatalf("LD (HL+),A got [C000]=%02X HL=%04X", b.mem[0xC000], c.HL().Get())
	}
	b.mem[0xC001] = 0x55
	step(t, c)
	if c.A != 0x55 || c.HL().Get() != 0xC000 {
		t.Fatalf("LD A,(HL-) got A=%02X HL=%04X", c.A, c.HL().Get())
	}
}

func TestCPU_StopIsTwoBytes(t *testing.T) {
	c, _ := newCPUWithProgram(0x10, 0x00, 0x3C)
	step(t, c)
	if c.PC != 0x0102 {
		t.Fatalf("PC after STOP got %04X want 0102", c.PC)
	}
}

func TestCPU_OnMemoryMap(t *testing.T) {
	rom := make([]byte, 0x8000)
	// LD A,42; LD (E000),A (echo of C000); LD A,(C000)
	copy(rom[0x0100:], []byte{0x3E, 0x42, 0xEA, 0x00, 0xE0, 0x3E, 0x00, 0xFA, 0x00, 0xC0})
	c2, err := cart.New(rom)
	if err != nil {
		t.Fatalf("cart.New: %v", err)
	}
	c := New(memory.New(c2))
	for i := 0; i < 4; i++ {
		step(t, c)
	}
	if c.A != 0x42 {
		t.Fatalf("A via echo RAM got %02X want 42", c.A)
	}
}
