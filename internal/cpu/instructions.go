package cpu

import "fmt"

const prefixCB = 0xCB

type instruction struct {
	name string
	// exec runs the instruction with PC already past its operands and
	// returns its cost in T-cycles.
	exec func(*CPU) int
}

var (
	instructions   [256]instruction
	instructionsCB [256]instruction
)

func define(op byte, name string, exec func(*CPU) int) {
	instructions[op] = instruction{name: name, exec: exec}
}

func defineCB(op byte, name string, exec func(*CPU) int) {
	instructionsCB[op] = instruction{name: name, exec: exec}
}

var (
	rpNames   = [4]string{"BC", "DE", "HL", "SP"}
	rp2Names  = [4]string{"BC", "DE", "HL", "AF"}
	condNames = [4]string{"NZ", "Z", "NC", "C"}
)

// rp reads the 16-bit register selected by the two-bit field used by
// LD/INC/DEC/ADD HL, where 3 means SP.
func (c *CPU) rp(i byte) uint16 {
	switch i {
	case 0:
		return c.BC().Get()
	case 1:
		return c.DE().Get()
	case 2:
		return c.HL().Get()
	}
	return c.SP
}

func (c *CPU) setRP(i byte, v uint16) {
	switch i {
	case 0:
		c.BC().Set(v)
	case 1:
		c.DE().Set(v)
	case 2:
		c.HL().Set(v)
	default:
		c.SP = v
	}
}

// rp2 is the PUSH/POP variant, where 3 means AF.
func (c *CPU) rp2(i byte) Pair {
	switch i {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	}
	return c.AF()
}

func (c *CPU) cond(i byte) bool {
	switch i {
	case 0:
		return !c.flag(FlagZ)
	case 1:
		return c.flag(FlagZ)
	case 2:
		return !c.flag(FlagC)
	}
	return c.flag(FlagC)
}

func (c *CPU) jr(off int8) {
	c.PC = uint16(int32(c.PC) + int32(off))
}

func (c *CPU) call(addr uint16) {
	c.push16(c.PC)
	c.PC = addr
}

// The following opcodes have no function on the SM83 and stay undefined:
// D3 DB DD E3 E4 EB EC ED F4 FC FD.
func init() {
	define(0x00, "NOP", func(c *CPU) int { return 4 })
	define(0x10, "STOP", func(c *CPU) int {
		// two bytes long; the operand is ignored
		c.fetch8()
		return 4
	})
	define(0x76, "HALT", func(c *CPU) int {
		c.halted = true
		return 4
	})
	define(0xF3, "DI", func(c *CPU) int {
		c.IME = false
		c.eiPending = false
		return 4
	})
	define(0xFB, "EI", func(c *CPU) int {
		c.eiPending = true
		return 4
	})

	for i := byte(0); i < 4; i++ {
		define(0x01|i<<4, "LD "+rpNames[i]+",d16", func(c *CPU) int {
			c.setRP(i, c.fetch16())
			return 12
		})
		define(0x03|i<<4, "INC "+rpNames[i], func(c *CPU) int {
			c.setRP(i, c.rp(i)+1)
			return 8
		})
		define(0x0B|i<<4, "DEC "+rpNames[i], func(c *CPU) int {
			c.setRP(i, c.rp(i)-1)
			return 8
		})
		define(0x09|i<<4, "ADD HL,"+rpNames[i], func(c *CPU) int {
			c.addHL(c.rp(i))
			return 8
		})
		define(0xC1|i<<4, "POP "+rp2Names[i], func(c *CPU) int {
			c.rp2(i).Set(c.pop16())
			return 12
		})
		define(0xC5|i<<4, "PUSH "+rp2Names[i], func(c *CPU) int {
			c.push16(c.rp2(i).Get())
			return 16
		})
	}

	define(0x02, "LD (BC),A", func(c *CPU) int {
		c.write8(c.BC().Get(), c.A)
		return 8
	})
	define(0x12, "LD (DE),A", func(c *CPU) int {
		c.write8(c.DE().Get(), c.A)
		return 8
	})
	define(0x22, "LD (HL+),A", func(c *CPU) int {
		hl := c.HL().Get()
		c.write8(hl, c.A)
		c.HL().Set(hl + 1)
		return 8
	})
	define(0x32, "LD (HL-),A", func(c *CPU) int {
		hl := c.HL().Get()
		c.write8(hl, c.A)
		c.HL().Set(hl - 1)
		return 8
	})
	define(0x0A, "LD A,(BC)", func(c *CPU) int {
		c.A = c.read8(c.BC().Get())
		return 8
	})
	define(0x1A, "LD A,(DE)", func(c *CPU) int {
		c.A = c.read8(c.DE().Get())
		return 8
	})
	define(0x2A, "LD A,(HL+)", func(c *CPU) int {
		hl := c.HL().Get()
		c.A = c.read8(hl)
		c.HL().Set(hl + 1)
		return 8
	})
	define(0x3A, "LD A,(HL-)", func(c *CPU) int {
		hl := c.HL().Get()
		c.A = c.read8(hl)
		c.HL().Set(hl - 1)
		return 8
	})
	define(0x08, "LD (a16),SP", func(c *CPU) int {
		c.write16(c.fetch16(), c.SP)
		return 20
	})

	for r := byte(0); r < 8; r++ {
		cost, costLD := 4, 8
		if r == 6 {
			cost, costLD = 12, 12
		}
		define(0x04|r<<3, "INC "+reg8Names[r], func(c *CPU) int {
			c.setOperand(r, c.inc8(c.operand(r)))
			return cost
		})
		define(0x05|r<<3, "DEC "+reg8Names[r], func(c *CPU) int {
			c.setOperand(r, c.dec8(c.operand(r)))
			return cost
		})
		define(0x06|r<<3, "LD "+reg8Names[r]+",d8", func(c *CPU) int {
			c.setOperand(r, c.fetch8())
			return costLD
		})
	}

	define(0x07, "RLCA", func(c *CPU) int {
		c.A = c.rlc(c.A)
		c.setFlag(FlagZ, false)
		return 4
	})
	define(0x0F, "RRCA", func(c *CPU) int {
		c.A = c.rrc(c.A)
		c.setFlag(FlagZ, false)
		return 4
	})
	define(0x17, "RLA", func(c *CPU) int {
		c.A = c.rl(c.A)
		c.setFlag(FlagZ, false)
		return 4
	})
	define(0x1F, "RRA", func(c *CPU) int {
		c.A = c.rr(c.A)
		c.setFlag(FlagZ, false)
		return 4
	})
	define(0x27, "DAA", func(c *CPU) int {
		c.daa()
		return 4
	})
	define(0x2F, "CPL", func(c *CPU) int {
		c.A = ^c.A
		c.setFlag(FlagN, true)
		c.setFlag(FlagH, true)
		return 4
	})
	define(0x37, "SCF", func(c *CPU) int {
		c.setFlag(FlagN, false)
		c.setFlag(FlagH, false)
		c.setFlag(FlagC, true)
		return 4
	})
	define(0x3F, "CCF", func(c *CPU) int {
		c.setFlag(FlagN, false)
		c.setFlag(FlagH, false)
		c.setFlag(FlagC, !c.flag(FlagC))
		return 4
	})

	define(0x18, "JR r8", func(c *CPU) int {
		c.jr(int8(c.fetch8()))
		return 12
	})
	define(0xC3, "JP a16", func(c *CPU) int {
		c.PC = c.fetch16()
		return 16
	})
	define(0xE9, "JP (HL)", func(c *CPU) int {
		c.PC = c.HL().Get()
		return 4
	})
	define(0xCD, "CALL a16", func(c *CPU) int {
		c.call(c.fetch16())
		return 24
	})
	define(0xC9, "RET", func(c *CPU) int {
		c.PC = c.pop16()
		return 16
	})
	define(0xD9, "RETI", func(c *CPU) int {
		c.PC = c.pop16()
		c.IME = true
		return 16
	})

	for cc := byte(0); cc < 4; cc++ {
		define(0x20|cc<<3, "JR "+condNames[cc]+",r8", func(c *CPU) int {
			off := int8(c.fetch8())
			if !c.cond(cc) {
				return 8
			}
			c.jr(off)
			return 12
		})
		define(0xC2|cc<<3, "JP "+condNames[cc]+",a16", func(c *CPU) int {
			addr := c.fetch16()
			if !c.cond(cc) {
				return 12
			}
			c.PC = addr
			return 16
		})
		define(0xC4|cc<<3, "CALL "+condNames[cc]+",a16", func(c *CPU) int {
			addr := c.fetch16()
			if !c.cond(cc) {
				return 12
			}
			c.call(addr)
			return 24
		})
		define(0xC0|cc<<3, "RET "+condNames[cc], func(c *CPU) int {
			if !c.cond(cc) {
				return 8
			}
			c.PC = c.pop16()
			return 20
		})
	}

	for n := byte(0); n < 8; n++ {
		vec := uint16(n) << 3
		define(0xC7|n<<3, fmt.Sprintf("RST %02XH", vec), func(c *CPU) int {
			c.call(vec)
			return 16
		})
	}

	for dst := byte(0); dst < 8; dst++ {
		for src := byte(0); src < 8; src++ {
			if dst == 6 && src == 6 {
				continue
			}
			cost := 4
			if dst == 6 || src == 6 {
				cost = 8
			}
			define(0x40|dst<<3|src, "LD "+reg8Names[dst]+","+reg8Names[src], func(c *CPU) int {
				c.setOperand(dst, c.operand(src))
				return cost
			})
		}
	}

	for op := byte(0); op < 8; op++ {
		for src := byte(0); src < 8; src++ {
			cost := 4
			if src == 6 {
				cost = 8
			}
			define(0x80|op<<3|src, aluNames[op]+reg8Names[src], func(c *CPU) int {
				c.alu(op, c.operand(src))
				return cost
			})
		}
		define(0xC6|op<<3, aluNames[op]+"d8", func(c *CPU) int {
			c.alu(op, c.fetch8())
			return 8
		})
	}

	define(0xE0, "LDH (a8),A", func(c *CPU) int {
		c.write8(0xFF00|uint16(c.fetch8()), c.A)
		return 12
	})
	define(0xF0, "LDH A,(a8)", func(c *CPU) int {
		c.A = c.read8(0xFF00 | uint16(c.fetch8()))
		return 12
	})
	define(0xE2, "LD (C),A", func(c *CPU) int {
		c.write8(0xFF00|uint16(c.C), c.A)
		return 8
	})
	define(0xF2, "LD A,(C)", func(c *CPU) int {
		c.A = c.read8(0xFF00 | uint16(c.C))
		return 8
	})
	define(0xEA, "LD (a16),A", func(c *CPU) int {
		c.write8(c.fetch16(), c.A)
		return 16
	})
	define(0xFA, "LD A,(a16)", func(c *CPU) int {
		c.A = c.read8(c.fetch16())
		return 16
	})
	define(0xE8, "ADD SP,r8", func(c *CPU) int {
		c.SP = c.addSPSigned(int8(c.fetch8()))
		return 16
	})
	define(0xF8, "LD HL,SP+r8", func(c *CPU) int {
		c.HL().Set(c.addSPSigned(int8(c.fetch8())))
		return 12
	})
	define(0xF9, "LD SP,HL", func(c *CPU) int {
		c.SP = c.HL().Get()
		return 8
	})

	initCB()
}
