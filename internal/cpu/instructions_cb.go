package cpu

import "fmt"

var cbShiftNames = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}

func (c *CPU) shift(op byte, v byte) byte {
	switch op {
	case 0:
		return c.rlc(v)
	case 1:
		return c.rrc(v)
	case 2:
		return c.rl(v)
	case 3:
		return c.rr(v)
	case 4:
		return c.sla(v)
	case 5:
		return c.sra(v)
	case 6:
		return c.swap(v)
	}
	return c.srl(v)
}

// initCB fills all 256 CB-prefixed entries. Costs include the prefix fetch.
func initCB() {
	for r := byte(0); r < 8; r++ {
		rmw, bitCost := 8, 8
		if r == 6 {
			rmw, bitCost = 16, 12
		}

		for op := byte(0); op < 8; op++ {
			defineCB(op<<3|r, cbShiftNames[op]+" "+reg8Names[r], func(c *CPU) int {
				c.setOperand(r, c.shift(op, c.operand(r)))
				return rmw
			})
		}

		for n := byte(0); n < 8; n++ {
			suffix := fmt.Sprintf(" %d,%s", n, reg8Names[r])
			defineCB(0x40|n<<3|r, "BIT"+suffix, func(c *CPU) int {
				c.bit(n, c.operand(r))
				return bitCost
			})
			defineCB(0x80|n<<3|r, "RES"+suffix, func(c *CPU) int {
				c.setOperand(r, c.operand(r)&^(1<<n))
				return rmw
			})
			defineCB(0xC0|n<<3|r, "SET"+suffix, func(c *CPU) int {
				c.setOperand(r, c.operand(r)|1<<n)
				return rmw
			})
		}
	}
}
