/*
 * vm32 - Load opcodes for the A, B and C registers.
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

// Local (LL*, LBL*, LCL), global (LG*, LBG*) and indexed (LX*, LBX*)
// loads each come in seven width flavors: word, signed/unsigned half,
// signed/unsigned byte, and double/float into the F or G register.

func opLl(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadLocalInt(raw, maskWord, c.readWord)
	if cont == contContinue {
		c.A = v
	}
	return cont
}

func opLls(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadLocalInt(raw, maskHalf, c.readHalfSigned)
	if cont == contContinue {
		c.A = v
	}
	return cont
}

func opLlh(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadLocalInt(raw, maskHalf, c.readHalfUnsigned)
	if cont == contContinue {
		c.A = v
	}
	return cont
}

func opLlc(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadLocalInt(raw, maskByte, c.readByteSigned)
	if cont == contContinue {
		c.A = v
	}
	return cont
}

func opLlb(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadLocalInt(raw, maskByte, c.readByteUnsigned)
	if cont == contContinue {
		c.A = v
	}
	return cont
}

func opLld(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadLocalFloat(raw, maskDouble, c.readDoubleF)
	if cont == contContinue {
		c.F = v
	}
	return cont
}

func opLlf(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadLocalFloat(raw, maskWord, c.readFloatF)
	if cont == contContinue {
		c.F = v
	}
	return cont
}

func opLg(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadGlobalInt(raw, maskWord, c.readWord)
	if cont == contContinue {
		c.A = v
	}
	return cont
}

func opLgs(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadGlobalInt(raw, maskHalf, c.readHalfSigned)
	if cont == contContinue {
		c.A = v
	}
	return cont
}

func opLgh(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadGlobalInt(raw, maskHalf, c.readHalfUnsigned)
	if cont == contContinue {
		c.A = v
	}
	return cont
}

func opLgc(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadGlobalInt(raw, maskByte, c.readByteSigned)
	if cont == contContinue {
		c.A = v
	}
	return cont
}

func opLgb(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadGlobalInt(raw, maskByte, c.readByteUnsigned)
	if cont == contContinue {
		c.A = v
	}
	return cont
}

func opLgd(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadGlobalFloat(raw, maskDouble, c.readDoubleF)
	if cont == contContinue {
		c.F = v
	}
	return cont
}

func opLgf(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadGlobalFloat(raw, maskWord, c.readFloatF)
	if cont == contContinue {
		c.F = v
	}
	return cont
}

func opLx(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadIndexedInt(c.A, raw, maskWord, c.readWord)
	if cont == contContinue {
		c.A = v
	}
	return cont
}

func opLxs(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadIndexedInt(c.A, raw, maskHalf, c.readHalfSigned)
	if cont == contContinue {
		c.A = v
	}
	return cont
}

func opLxh(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadIndexedInt(c.A, raw, maskHalf, c.readHalfUnsigned)
	if cont == contContinue {
		c.A = v
	}
	return cont
}

func opLxc(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadIndexedInt(c.A, raw, maskByte, c.readByteSigned)
	if cont == contContinue {
		c.A = v
	}
	return cont
}

func opLxb(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadIndexedInt(c.A, raw, maskByte, c.readByteUnsigned)
	if cont == contContinue {
		c.A = v
	}
	return cont
}

func opLxd(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadIndexedFloat(c.A, raw, maskDouble, c.readDoubleF)
	if cont == contContinue {
		c.F = v
	}
	return cont
}

func opLxf(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadIndexedFloat(c.A, raw, maskWord, c.readFloatF)
	if cont == contContinue {
		c.F = v
	}
	return cont
}

// opLi, opLhi and opLif load the immediate field directly. LHI builds
// a 32-bit constant across a pair of instructions by shifting the
// running value up and ORing in the next unsigned chunk; LIF treats
// the immediate as a fixed-point value scaled by 256.
func opLi(c *CPU, imm int32, raw uint32) continuation {
	c.A = uint32(immSigned(raw))
	return contContinue
}

func opLhi(c *CPU, imm int32, raw uint32) continuation {
	c.A = c.A<<24 | immUnsigned(raw)
	return contContinue
}

func opLif(c *CPU, imm int32, raw uint32) continuation {
	c.F = float64(immSigned(raw)) / 256.0
	return contContinue
}

func opLbl(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadLocalInt(raw, maskWord, c.readWord)
	if cont == contContinue {
		c.B = v
	}
	return cont
}

func opLbls(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadLocalInt(raw, maskHalf, c.readHalfSigned)
	if cont == contContinue {
		c.B = v
	}
	return cont
}

func opLblh(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadLocalInt(raw, maskHalf, c.readHalfUnsigned)
	if cont == contContinue {
		c.B = v
	}
	return cont
}

func opLblc(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadLocalInt(raw, maskByte, c.readByteSigned)
	if cont == contContinue {
		c.B = v
	}
	return cont
}

func opLblb(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadLocalInt(raw, maskByte, c.readByteUnsigned)
	if cont == contContinue {
		c.B = v
	}
	return cont
}

func opLbld(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadLocalFloat(raw, maskDouble, c.readDoubleF)
	if cont == contContinue {
		c.G = v
	}
	return cont
}

func opLblf(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadLocalFloat(raw, maskWord, c.readFloatF)
	if cont == contContinue {
		c.G = v
	}
	return cont
}

func opLbg(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadGlobalInt(raw, maskWord, c.readWord)
	if cont == contContinue {
		c.B = v
	}
	return cont
}

func opLbgs(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadGlobalInt(raw, maskHalf, c.readHalfSigned)
	if cont == contContinue {
		c.B = v
	}
	return cont
}

func opLbgh(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadGlobalInt(raw, maskHalf, c.readHalfUnsigned)
	if cont == contContinue {
		c.B = v
	}
	return cont
}

func opLbgc(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadGlobalInt(raw, maskByte, c.readByteSigned)
	if cont == contContinue {
		c.B = v
	}
	return cont
}

func opLbgb(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadGlobalInt(raw, maskByte, c.readByteUnsigned)
	if cont == contContinue {
		c.B = v
	}
	return cont
}

func opLbgd(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadGlobalFloat(raw, maskDouble, c.readDoubleF)
	if cont == contContinue {
		c.G = v
	}
	return cont
}

func opLbgf(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadGlobalFloat(raw, maskWord, c.readFloatF)
	if cont == contContinue {
		c.G = v
	}
	return cont
}

func opLbx(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadIndexedInt(c.B, raw, maskWord, c.readWord)
	if cont == contContinue {
		c.B = v
	}
	return cont
}

func opLbxs(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadIndexedInt(c.B, raw, maskHalf, c.readHalfSigned)
	if cont == contContinue {
		c.B = v
	}
	return cont
}

func opLbxh(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadIndexedInt(c.B, raw, maskHalf, c.readHalfUnsigned)
	if cont == contContinue {
		c.B = v
	}
	return cont
}

func opLbxc(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadIndexedInt(c.B, raw, maskByte, c.readByteSigned)
	if cont == contContinue {
		c.B = v
	}
	return cont
}

func opLbxb(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadIndexedInt(c.B, raw, maskByte, c.readByteUnsigned)
	if cont == contContinue {
		c.B = v
	}
	return cont
}

func opLbxd(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadIndexedFloat(c.B, raw, maskDouble, c.readDoubleF)
	if cont == contContinue {
		c.G = v
	}
	return cont
}

func opLbxf(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadIndexedFloat(c.B, raw, maskWord, c.readFloatF)
	if cont == contContinue {
		c.G = v
	}
	return cont
}

func opLbi(c *CPU, imm int32, raw uint32) continuation {
	c.B = uint32(immSigned(raw))
	return contContinue
}

func opLbhi(c *CPU, imm int32, raw uint32) continuation {
	c.B = c.B<<24 | immUnsigned(raw)
	return contContinue
}

func opLbif(c *CPU, imm int32, raw uint32) continuation {
	c.G = float64(immSigned(raw)) / 256.0
	return contContinue
}

// opLcl is the lone local-variable load into C; there is no global or
// indexed counterpart.
func opLcl(c *CPU, imm int32, raw uint32) continuation {
	v, cont := c.loadLocalInt(raw, maskWord, c.readWord)
	if cont == contContinue {
		c.C = v
	}
	return cont
}

func opLba(c *CPU, imm int32, raw uint32) continuation  { c.B = c.A; return contContinue }
func opLca(c *CPU, imm int32, raw uint32) continuation  { c.C = c.A; return contContinue }
func opLbad(c *CPU, imm int32, raw uint32) continuation { c.G = c.F; return contContinue }
