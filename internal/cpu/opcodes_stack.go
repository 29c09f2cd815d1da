/*
 * vm32 - Stack frame, call and jump opcodes.
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

// Stack slots (the frame built by ENT/LEV, JSR's return address, and
// PSH/POP) are always 8 bytes wide regardless of the value's natural
// size, so every raw access here uses the double-word alignment mask.
const slotMask = 7

// opEnt adjusts the stack pointer by a frame size encoded in the
// instruction's immediate. It never touches memory, so it can never
// fault; it only maintains the fast-path budget.
func opEnt(c *CPU, imm int32, raw uint32) continuation {
	if c.fsp != 0 {
		c.fsp -= raw &^ 0xFF
		if c.fsp > (4096 << 8) {
			c.fsp = 0
		}
	}
	c.xsp += uint32(immSigned(raw))
	if c.fsp != 0 {
		return contContinue
	}
	c.fastSPLookup(c.xsp - c.tsp)
	return contContinue
}

// opLev pops a frame and returns to the address stacked by the
// matching JSR/JSRA, consuming the fast-path budget if the stored
// return slot is still within it.
func opLev(c *CPU, imm int32, raw uint32) continuation {
	var target uint32
	if raw < c.fsp {
		target = c.mem.ReadWord(c.xsp + uint32(immSigned(raw)))
		c.fsp -= (raw + 0x800) &^ 0xFF
	} else {
		v := c.GuestSP() + uint32(immSigned(raw))
		host, ok := c.translateRead(v, slotMask)
		if !ok {
			return contDeliverTrap
		}
		target = c.mem.ReadWord(host)
		c.fsp = 0
	}
	c.xsp += uint32(immSigned(raw)) + 8
	if !c.gotoPC(target) {
		return contDeliverTrap
	}
	return contContinue
}

func opJsr(c *CPU, imm int32, raw uint32) continuation {
	ret := c.GuestPC()
	if c.fsp != 0 {
		c.xsp -= 8
		c.fsp += 8 << 8
		c.mem.WriteWord(c.xsp, ret)
	} else {
		v := c.GuestSP() - 8
		host, ok := c.translateWrite(v, slotMask)
		if !ok {
			return contDeliverTrap
		}
		c.mem.WriteWord(host, ret)
		c.xsp, c.tsp = v, 0
	}
	delta := (int32(raw) >> 10) * 4
	target := uint32(int32(c.GuestPC()) + delta)
	if !c.gotoPC(target) {
		return contDeliverTrap
	}
	return contContinue
}

func opJsra(c *CPU, imm int32, raw uint32) continuation {
	ret := c.GuestPC()
	if c.fsp != 0 {
		c.xsp -= 8
		c.fsp += 8 << 8
		c.mem.WriteWord(c.xsp, ret)
	} else {
		v := c.GuestSP() - 8
		host, ok := c.translateWrite(v, slotMask)
		if !ok {
			return contDeliverTrap
		}
		c.mem.WriteWord(host, ret)
		c.xsp, c.tsp = v, 0
	}
	if !c.gotoPC(c.A) {
		return contDeliverTrap
	}
	return contContinue
}

func opJmp(c *CPU, imm int32, raw uint32) continuation {
	delta := (int32(raw) >> 10) * 4
	target := uint32(int32(c.GuestPC()) + delta)
	if !c.gotoPC(target) {
		return contDeliverTrap
	}
	return contContinue
}

// opJmpi reads a byte-displacement from a jump table indexed by A and
// jumps relative to the current PC by that displacement.
func opJmpi(c *CPU, imm int32, raw uint32) continuation {
	v := c.GuestPC() + uint32(immSigned(raw)) + c.A*4
	host, ok := c.translateRead(v, 3)
	if !ok {
		return contDeliverTrap
	}
	delta := c.mem.ReadWord(host)
	target := c.GuestPC() + delta
	if !c.gotoPC(target) {
		return contDeliverTrap
	}
	return contContinue
}

func pushFast(c *CPU, write func(host uint32)) {
	c.xsp -= 8
	c.fsp += 8 << 8
	write(c.xsp)
}

func pushSlow(c *CPU, write func(host uint32)) continuation {
	v := c.GuestSP() - 8
	host, ok := c.translateWrite(v, slotMask)
	if !ok {
		return contDeliverTrap
	}
	write(host)
	c.xsp, c.tsp, c.fsp = v, 0, 0
	c.fastSPLookup(v)
	return contContinue
}

func opPsha(c *CPU, imm int32, raw uint32) continuation {
	if c.fsp != 0 {
		pushFast(c, func(h uint32) { c.mem.WriteWord(h, c.A) })
		return contContinue
	}
	return pushSlow(c, func(h uint32) { c.mem.WriteWord(h, c.A) })
}

func opPshb(c *CPU, imm int32, raw uint32) continuation {
	if c.fsp != 0 {
		pushFast(c, func(h uint32) { c.mem.WriteWord(h, c.B) })
		return contContinue
	}
	return pushSlow(c, func(h uint32) { c.mem.WriteWord(h, c.B) })
}

func opPshc(c *CPU, imm int32, raw uint32) continuation {
	if c.fsp != 0 {
		pushFast(c, func(h uint32) { c.mem.WriteWord(h, c.C) })
		return contContinue
	}
	return pushSlow(c, func(h uint32) { c.mem.WriteWord(h, c.C) })
}

func opPshf(c *CPU, imm int32, raw uint32) continuation {
	if c.fsp != 0 {
		pushFast(c, func(h uint32) { c.mem.WriteDouble(h, floatBits(c.F)) })
		return contContinue
	}
	return pushSlow(c, func(h uint32) { c.mem.WriteDouble(h, floatBits(c.F)) })
}

func opPshg(c *CPU, imm int32, raw uint32) continuation {
	if c.fsp != 0 {
		pushFast(c, func(h uint32) { c.mem.WriteDouble(h, floatBits(c.G)) })
		return contContinue
	}
	return pushSlow(c, func(h uint32) { c.mem.WriteDouble(h, floatBits(c.G)) })
}

func opPshi(c *CPU, imm int32, raw uint32) continuation {
	v := uint32(immSigned(raw))
	if c.fsp != 0 {
		pushFast(c, func(h uint32) { c.mem.WriteWord(h, v) })
		return contContinue
	}
	return pushSlow(c, func(h uint32) { c.mem.WriteWord(h, v) })
}

func popFast(c *CPU, read func(host uint32)) {
	read(c.xsp)
	c.xsp += 8
	c.fsp -= 8 << 8
}

func popSlow(c *CPU, read func(host uint32)) continuation {
	v := c.GuestSP()
	host, ok := c.translateRead(v, slotMask)
	if !ok {
		return contDeliverTrap
	}
	read(host)
	c.xsp, c.tsp = v+8, 0
	c.fastSPLookup(c.xsp)
	return contContinue
}

func opPopa(c *CPU, imm int32, raw uint32) continuation {
	if c.fsp != 0 {
		popFast(c, func(h uint32) { c.A = c.mem.ReadWord(h) })
		return contContinue
	}
	return popSlow(c, func(h uint32) { c.A = c.mem.ReadWord(h) })
}

func opPopb(c *CPU, imm int32, raw uint32) continuation {
	if c.fsp != 0 {
		popFast(c, func(h uint32) { c.B = c.mem.ReadWord(h) })
		return contContinue
	}
	return popSlow(c, func(h uint32) { c.B = c.mem.ReadWord(h) })
}

func opPopc(c *CPU, imm int32, raw uint32) continuation {
	if c.fsp != 0 {
		popFast(c, func(h uint32) { c.C = c.mem.ReadWord(h) })
		return contContinue
	}
	return popSlow(c, func(h uint32) { c.C = c.mem.ReadWord(h) })
}

func opPopf(c *CPU, imm int32, raw uint32) continuation {
	if c.fsp != 0 {
		popFast(c, func(h uint32) { c.F = bitsFloat(c.mem.ReadDouble(h)) })
		return contContinue
	}
	return popSlow(c, func(h uint32) { c.F = bitsFloat(c.mem.ReadDouble(h)) })
}

func opPopg(c *CPU, imm int32, raw uint32) continuation {
	if c.fsp != 0 {
		popFast(c, func(h uint32) { c.G = bitsFloat(c.mem.ReadDouble(h)) })
		return contContinue
	}
	return popSlow(c, func(h uint32) { c.G = bitsFloat(c.mem.ReadDouble(h)) })
}

func opLea(c *CPU, imm int32, raw uint32) continuation {
	c.A = c.GuestSP() + uint32(immSigned(raw))
	return contContinue
}

func opLeag(c *CPU, imm int32, raw uint32) continuation {
	c.A = c.GuestPC() + uint32(immSigned(raw))
	return contContinue
}
