package cpu

// Half-carry is derived from the XOR of both operands and the result: bit 4
// of (a ^ b ^ r) is the carry (or borrow) that crossed from bit 3. The same
// identity at bit 12 gives the 16-bit half-carry out of bit 11.

func halfCarry8(a, b, r byte) bool { return (a^b^r)&0x10 == 0x10 }

func halfCarry16(a, b, r uint16) bool { return (a^b^r)&0x1000 == 0x1000 }

func (c *CPU) carryIn() byte {
	if c.flag(FlagC) {
		return 1
	}
	return 0
}

func (c *CPU) add8(v byte, withCarry bool) {
	var ci byte
	if withCarry {
		ci = c.carryIn()
	}
	a := c.A
	r := uint16(a) + uint16(v) + uint16(ci)
	res := byte(r)
	c.setZNHC(res == 0, false, halfCarry8(a, v, res), r > 0xFF)
	c.A = res
}

// sub8 computes A - v (- carry) and returns the result without storing it,
// so CP can share it.
func (c *CPU) sub8(v byte, withCarry bool) byte {
	var ci byte
	if withCarry {
		ci = c.carryIn()
	}
	a := c.A
	r := int(a) - int(v) - int(ci)
	res := byte(r)
	c.setZNHC(res == 0, true, halfCarry8(a, v, res), r < 0)
	return res
}

func (c *CPU) and8(v byte) {
	c.A &= v
	c.setZNHC(c.A == 0, false, true, false)
}

func (c *CPU) xor8(v byte) {
	c.A ^= v
	c.setZNHC(c.A == 0, false, false, false)
}

func (c *CPU) or8(v byte) {
	c.A |= v
	c.setZNHC(c.A == 0, false, false, false)
}

// alu dispatches the eight accumulator operations in opcode order:
// ADD ADC SUB SBC AND XOR OR CP.
func (c *CPU) alu(op byte, v byte) {
	switch op {
	case 0:
		c.add8(v, false)
	case 1:
		c.add8(v, true)
	case 2:
		c.A = c.sub8(v, false)
	case 3:
		c.A = c.sub8(v, true)
	case 4:
		c.and8(v)
	case 5:
		c.xor8(v)
	case 6:
		c.or8(v)
	case 7:
		c.sub8(v, false)
	}
}

var aluNames = [8]string{"ADD A,", "ADC A,", "SUB ", "SBC A,", "AND ", "XOR ", "OR ", "CP "}

// inc8 leaves carry untouched.
func (c *CPU) inc8(v byte) byte {
	r := v + 1
	c.setFlag(FlagZ, r == 0)
	c.setFlag(FlagN, false)
	c.setFlag(FlagH, halfCarry8(v, 1, r))
	return r
}

// dec8 leaves carry untouched.
func (c *CPU) dec8(v byte) byte {
	r := v - 1
	c.setFlag(FlagZ, r == 0)
	c.setFlag(FlagN, true)
	c.setFlag(FlagH, halfCarry8(v, 1, r))
	return r
}

// addHL leaves zero untouched.
func (c *CPU) addHL(v uint16) {
	hl := c.HL().Get()
	r := uint32(hl) + uint32(v)
	res := uint16(r)
	c.setFlag(FlagN, false)
	c.setFlag(FlagH, halfCarry16(hl, v, res))
	c.setFlag(FlagC, r > 0xFFFF)
	c.HL().Set(res)
}

// addSPSigned returns SP + off. Half-carry and carry come from the unsigned
// addition of the low bytes; zero and subtract are cleared.
func (c *CPU) addSPSigned(off int8) uint16 {
	sp := c.SP
	u := uint16(int16(off))
	res := sp + u
	x := sp ^ u ^ res
	c.setZNHC(false, false, x&0x10 != 0, x&0x100 != 0)
	return res
}

func (c *CPU) daa() {
	a := c.A
	carry := c.flag(FlagC)
	if !c.flag(FlagN) {
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if c.flag(FlagH) || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if carry {
			a -= 0x60
		}
		if c.flag(FlagH) {
			a -= 0x06
		}
	}
	c.A = a
	c.setZNHC(a == 0, c.flag(FlagN), false, carry)
}

// Rotates and shifts. The CB forms set Z from the result; the accumulator
// forms (RLCA, RRCA, RLA, RRA) always clear it.

func (c *CPU) rlc(v byte) byte {
	out := v >> 7
	r := v<<1 | out
	c.setZNHC(r == 0, false, false, out == 1)
	return r
}

func (c *CPU) rrc(v byte) byte {
	out := v & 1
	r := v>>1 | out<<7
	c.setZNHC(r == 0, false, false, out == 1)
	return r
}

func (c *CPU) rl(v byte) byte {
	out := v >> 7
	r := v<<1 | c.carryIn()
	c.setZNHC(r == 0, false, false, out == 1)
	return r
}

func (c *CPU) rr(v byte) byte {
	out := v & 1
	r := v>>1 | c.carryIn()<<7
	c.setZNHC(r == 0, false, false, out == 1)
	return r
}

func (c *CPU) sla(v byte) byte {
	r := v << 1
	c.setZNHC(r == 0, false, false, v&0x80 != 0)
	return r
}

func (c *CPU) sra(v byte) byte {
	r := v>>1 | v&0x80
	c.setZNHC(r == 0, false, false, v&1 != 0)
	return r
}

func (c *CPU) swap(v byte) byte {
	r := v<<4 | v>>4
	c.setZNHC(r == 0, false, false, false)
	return r
}

func (c *CPU) srl(v byte) byte {
	r := v >> 1
	c.setZNHC(r == 0, false, false, v&1 != 0)
	return r
}

// bit leaves carry untouched.
func (c *CPU) bit(n byte, v byte) {
	c.setFlag(FlagZ, v&(1<<n) == 0)
	c.setFlag(FlagN, false)
	c.setFlag(FlagH, true)
}
