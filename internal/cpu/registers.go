package cpu

// Flag bits in F. The low nibble of F always reads as zero.
const (
	FlagZ byte = 1 << 7
	FlagN byte = 1 << 6
	FlagH byte = 1 << 5
	FlagC byte = 1 << 4

	flagMask byte = 0xF0
)

// Registers is the SM83 register file.
type Registers struct {
	A, F byte
	B, C byte
	D, E byte
	H, L byte

	SP uint16
	PC uint16
}

// Pair is a 16-bit view over two 8-bit registers. Instructions that address
// one half keep using the byte fields; only 16-bit opcodes go through a Pair.
type Pair struct {
	hi, lo *byte
	loMask byte
}

// Get combines the two halves, high byte first.
func (p Pair) Get() uint16 { return uint16(*p.hi)<<8 | uint16(*p.lo) }

// Set splits v over the two halves.
func (p Pair) Set(v uint16) {
	*p.hi = byte(v >> 8)
	*p.lo = byte(v) & p.loMask
}

func (r *Registers) BC() Pair { return Pair{&r.B, &r.C, 0xFF} }
func (r *Registers) DE() Pair { return Pair{&r.D, &r.E, 0xFF} }
func (r *Registers) HL() Pair { return Pair{&r.H, &r.L, 0xFF} }

// AF masks the flag nibble on writes so POP AF cannot set the low bits.
func (r *Registers) AF() Pair { return Pair{&r.A, &r.F, flagMask} }

func (r *Registers) flag(f byte) bool { return r.F&f != 0 }

func (r *Registers) setFlag(f byte, on bool) {
	if on {
		r.F |= f
	} else {
		r.F &^= f
	}
	r.F &= flagMask
}

// setZNHC overwrites all four flags.
func (r *Registers) setZNHC(z, n, h, c bool) {
	var f byte
	if z {
		f |= FlagZ
	}
	if n {
		f |= FlagN
	}
	if h {
		f |= FlagH
	}
	if c {
		f |= FlagC
	}
	r.F = f
}

// reg8 resolves the 3-bit register field used by the opcode encoding.
// Index 6 is (HL) and is handled by the CPU, not here.
func (r *Registers) reg8(i byte) *byte {
	switch i {
	case 0:
		return &r.B
	case 1:
		return &r.C
	case 2:
		return &r.D
	case 3:
		return &r.E
	case 4:
		return &r.H
	case 5:
		return &r.L
	case 7:
		return &r.A
	}
	return nil
}

var reg8Names = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
