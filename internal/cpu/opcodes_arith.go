/*
 * vm32 - Integer and floating point arithmetic opcodes.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package cpu

// Every integer arithmetic opcode comes in three forms: register (A
// op B), immediate (A op the sign-extended immediate), and local (A op
// a frame slot, via the same fast/slow split LL uses). These helpers
// factor that three-way split out so each opcode is one line.

func arithReg(c *CPU, op func(a, b uint32) uint32) continuation {
	c.A = op(c.A, c.B)
	return contContinue
}

func arithImm(c *CPU, raw uint32, op func(a, b uint32) uint32) continuation {
	c.A = op(c.A, uint32(immSigned(raw)))
	return contContinue
}

func arithLocal(c *CPU, raw uint32, op func(a, b uint32) uint32) continuation {
	v, cont := c.loadLocalInt(raw, maskWord, c.readWord)
	if cont != contContinue {
		return cont
	}
	c.A = op(c.A, v)
	return contContinue
}

func divReg(c *CPU, div func(a, b uint32) uint32) continuation {
	if c.B == 0 {
		return c.raiseSync(FArith)
	}
	c.A = div(c.A, c.B)
	return contContinue
}

func divImm(c *CPU, raw uint32, div func(a, b uint32) uint32) continuation {
	d := uint32(immSigned(raw))
	if d == 0 {
		return c.raiseSync(FArith)
	}
	c.A = div(c.A, d)
	return contContinue
}

func divLocal(c *CPU, raw uint32, div func(a, b uint32) uint32) continuation {
	v, cont := c.loadLocalInt(raw, maskWord, c.readWord)
	if cont != contContinue {
		return cont
	}
	if v == 0 {
		return c.raiseSync(FArith)
	}
	c.A = div(c.A, v)
	return contContinue
}

func addOp(a, b uint32) uint32 { return a + b }
func subOp(a, b uint32) uint32 { return a - b }
func mulOp(a, b uint32) uint32 { return uint32(int32(a) * int32(b)) }
func sdivOp(a, b uint32) uint32 { return uint32(int32(a) / int32(b)) }
func udivOp(a, b uint32) uint32 { return a / b }
func smodOp(a, b uint32) uint32 { return uint32(int32(a) % int32(b)) }
func umodOp(a, b uint32) uint32 { return a % b }
func andOp(a, b uint32) uint32 { return a & b }
func orOp(a, b uint32) uint32  { return a | b }
func xorOp(a, b uint32) uint32 { return a ^ b }
func shlOp(a, b uint32) uint32 { return a << (b & 31) }
func ashrOp(a, b uint32) uint32 { return uint32(int32(a) >> (b & 31)) }
func lshrOp(a, b uint32) uint32 { return a >> (b & 31) }

func opAddf(c *CPU, imm int32, raw uint32) continuation { c.F += c.G; return contContinue }
func opSubf(c *CPU, imm int32, raw uint32) continuation { c.F -= c.G; return contContinue }
func opMulf(c *CPU, imm int32, raw uint32) continuation { c.F *= c.G; return contContinue }

func opDivf(c *CPU, imm int32, raw uint32) continuation {
	if c.G == 0.0 {
		return c.raiseSync(FArith)
	}
	c.F /= c.G
	return contContinue
}

func opAdd(c *CPU, imm int32, raw uint32) continuation  { return arithReg(c, addOp) }
func opAddi(c *CPU, imm int32, raw uint32) continuation { return arithImm(c, raw, addOp) }
func opAddl(c *CPU, imm int32, raw uint32) continuation { return arithLocal(c, raw, addOp) }

func opSub(c *CPU, imm int32, raw uint32) continuation  { return arithReg(c, subOp) }
func opSubi(c *CPU, imm int32, raw uint32) continuation { return arithImm(c, raw, subOp) }
func opSubl(c *CPU, imm int32, raw uint32) continuation { return arithLocal(c, raw, subOp) }

func opMul(c *CPU, imm int32, raw uint32) continuation  { return arithReg(c, mulOp) }
func opMuli(c *CPU, imm int32, raw uint32) continuation { return arithImm(c, raw, mulOp) }
func opMull(c *CPU, imm int32, raw uint32) continuation { return arithLocal(c, raw, mulOp) }

func opDiv(c *CPU, imm int32, raw uint32) continuation  { return divReg(c, sdivOp) }
func opDivi(c *CPU, imm int32, raw uint32) continuation { return divImm(c, raw, sdivOp) }
func opDivl(c *CPU, imm int32, raw uint32) continuation { return divLocal(c, raw, sdivOp) }

func opDvu(c *CPU, imm int32, raw uint32) continuation  { return divReg(c, udivOp) }
func opDvui(c *CPU, imm int32, raw uint32) continuation { return divImm(c, raw, udivOp) }
func opDvul(c *CPU, imm int32, raw uint32) continuation { return divLocal(c, raw, udivOp) }

func opMod(c *CPU, imm int32, raw uint32) continuation  { return divReg(c, smodOp) }
func opModi(c *CPU, imm int32, raw uint32) continuation { return divImm(c, raw, smodOp) }
func opModl(c *CPU, imm int32, raw uint32) continuation { return divLocal(c, raw, smodOp) }

func opMdu(c *CPU, imm int32, raw uint32) continuation  { return divReg(c, umodOp) }
func opMdui(c *CPU, imm int32, raw uint32) continuation { return divImm(c, raw, umodOp) }
func opMdul(c *CPU, imm int32, raw uint32) continuation { return divLocal(c, raw, umodOp) }

func opAnd(c *CPU, imm int32, raw uint32) continuation  { return arithReg(c, andOp) }
func opAndi(c *CPU, imm int32, raw uint32) continuation { return arithImm(c, raw, andOp) }
func opAndl(c *CPU, imm int32, raw uint32) continuation { return arithLocal(c, raw, andOp) }

func opOr(c *CPU, imm int32, raw uint32) continuation  { return arithReg(c, orOp) }
func opOri(c *CPU, imm int32, raw uint32) continuation { return arithImm(c, raw, orOp) }
func opOrl(c *CPU, imm int32, raw uint32) continuation { return arithLocal(c, raw, orOp) }

func opXor(c *CPU, imm int32, raw uint32) continuation  { return arithReg(c, xorOp) }
func opXori(c *CPU, imm int32, raw uint32) continuation { return arithImm(c, raw, xorOp) }
func opXorl(c *CPU, imm int32, raw uint32) continuation { return arithLocal(c, raw, xorOp) }

func opShl(c *CPU, imm int32, raw uint32) continuation  { return arithReg(c, shlOp) }
func opShli(c *CPU, imm int32, raw uint32) continuation { return arithImm(c, raw, shlOp) }
func opShll(c *CPU, imm int32, raw uint32) continuation { return arithLocal(c, raw, shlOp) }

func opShr(c *CPU, imm int32, raw uint32) continuation  { return arithReg(c, ashrOp) }
func opShri(c *CPU, imm int32, raw uint32) continuation { return arithImm(c, raw, ashrOp) }
func opShrl(c *CPU, imm int32, raw uint32) continuation { return arithLocal(c, raw, ashrOp) }

func opSru(c *CPU, imm int32, raw uint32) continuation  { return arithReg(c, lshrOp) }
func opSrui(c *CPU, imm int32, raw uint32) continuation { return arithImm(c, raw, lshrOp) }
func opSrul(c *CPU, imm int32, raw uint32) continuation { return arithLocal(c, raw, lshrOp) }

func boolU32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

func opEq(c *CPU, imm int32, raw uint32) continuation  { c.A = boolU32(c.A == c.B); return contContinue }
func opEqf(c *CPU, imm int32, raw uint32) continuation { c.A = boolU32(c.F == c.G); return contContinue }
func opNe(c *CPU, imm int32, raw uint32) continuation  { c.A = boolU32(c.A != c.B); return contContinue }
func opNef(c *CPU, imm int32, raw uint32) continuation { c.A = boolU32(c.F != c.G); return contContinue }
func opLt(c *CPU, imm int32, raw uint32) continuation {
	c.A = boolU32(int32(c.A) < int32(c.B))
	return contContinue
}
func opLtu(c *CPU, imm int32, raw uint32) continuation { c.A = boolU32(c.A < c.B); return contContinue }
func opLtf(c *CPU, imm int32, raw uint32) continuation { c.A = boolU32(c.F < c.G); return contContinue }
func opGe(c *CPU, imm int32, raw uint32) continuation {
	c.A = boolU32(int32(c.A) >= int32(c.B))
	return contContinue
}
func opGeu(c *CPU, imm int32, raw uint32) continuation { c.A = boolU32(c.A >= c.B); return contContinue }
func opGef(c *CPU, imm int32, raw uint32) continuation { c.A = boolU32(c.F >= c.G); return contContinue }

func opCid(c *CPU, imm int32, raw uint32) continuation { c.F = float64(int32(c.A)); return contContinue }
func opCud(c *CPU, imm int32, raw uint32) continuation { c.F = float64(c.A); return contContinue }
func opCdi(c *CPU, imm int32, raw uint32) continuation { c.A = uint32(int32(c.F)); return contContinue }
func opCdu(c *CPU, imm int32, raw uint32) continuation { c.A = uint32(c.F); return contContinue }
