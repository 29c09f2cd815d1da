/*
 * vm32 - Store opcodes.
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

// Stores always write the A/F registers; there is no B-register store
// family, only the B register's use as the indexed-store base.

func opSl(c *CPU, imm int32, raw uint32) continuation {
	return c.storeLocalInt(raw, maskWord, c.A, c.writeWord)
}

func opSlh(c *CPU, imm int32, raw uint32) continuation {
	return c.storeLocalInt(raw, maskHalf, c.A, c.writeHalf)
}

func opSlb(c *CPU, imm int32, raw uint32) continuation {
	return c.storeLocalInt(raw, maskByte, c.A, c.writeByte)
}

func opSld(c *CPU, imm int32, raw uint32) continuation {
	return c.storeLocalFloat(raw, maskDouble, c.F, c.writeDoubleF)
}

func opSlf(c *CPU, imm int32, raw uint32) continuation {
	return c.storeLocalFloat(raw, maskWord, c.F, c.writeFloatF)
}

func opSg(c *CPU, imm int32, raw uint32) continuation {
	return c.storeGlobalInt(raw, maskWord, c.A, c.writeWord)
}

func opSgh(c *CPU, imm int32, raw uint32) continuation {
	return c.storeGlobalInt(raw, maskHalf, c.A, c.writeHalf)
}

func opSgb(c *CPU, imm int32, raw uint32) continuation {
	return c.storeGlobalInt(raw, maskByte, c.A, c.writeByte)
}

func opSgd(c *CPU, imm int32, raw uint32) continuation {
	return c.storeGlobalFloat(raw, maskDouble, c.F, c.writeDoubleF)
}

func opSgf(c *CPU, imm int32, raw uint32) continuation {
	return c.storeGlobalFloat(raw, maskWord, c.F, c.writeFloatF)
}

func opSx(c *CPU, imm int32, raw uint32) continuation {
	return c.storeIndexedInt(c.B, raw, maskWord, c.A, c.writeWord)
}

func opSxh(c *CPU, imm int32, raw uint32) continuation {
	return c.storeIndexedInt(c.B, raw, maskHalf, c.A, c.writeHalf)
}

func opSxb(c *CPU, imm int32, raw uint32) continuation {
	return c.storeIndexedInt(c.B, raw, maskByte, c.A, c.writeByte)
}

func opSxd(c *CPU, imm int32, raw uint32) continuation {
	return c.storeIndexedFloat(c.B, raw, maskDouble, c.F, c.writeDoubleF)
}

func opSxf(c *CPU, imm int32, raw uint32) continuation {
	return c.storeIndexedFloat(c.B, raw, maskWord, c.F, c.writeFloatF)
}
