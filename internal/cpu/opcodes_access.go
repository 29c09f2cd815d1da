/*
 * vm32 - Shared local-global-indexed addressing helpers.
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

import "github.com/rcornwell/vm32/internal/mmu"

// localEA, globalEA and indexedEA compute the guest effective address
// for the three addressing modes every load/store family shares: an
// offset from the current frame, an offset from the current
// instruction (for position-independent constant pools), and an
// offset from a base register.
func (c *CPU) localEA(raw uint32) uint32    { return c.GuestSP() + uint32(immSigned(raw)) }
func (c *CPU) globalEA(raw uint32) uint32   { return c.GuestPC() + uint32(immSigned(raw)) }
func (c *CPU) indexedEA(base uint32, raw uint32) uint32 { return base + uint32(immSigned(raw)) }

// rearmLocal opportunistically re-arms the stack fast path after a
// local-variable slow path, but only when the access that just missed
// was on the same page the stack pointer already lives on — reaching
// off-page, as LL/SL do for a parameter passed by reference, must not
// pull a stranger page into the fast path.
func (c *CPU) rearmLocal(v uint32) {
	if c.fsp == 0 && (v^c.GuestSP())&^0xFFF == 0 {
		c.fastSPLookup(c.GuestSP())
	}
}

// localFastAddr attempts the zero-translation local read/write: valid only
// while raw, the untouched instruction word, still falls inside the
// budget latched in fsp.
func (c *CPU) localFastAddr(raw uint32) (uint32, bool) {
	if raw < c.fsp {
		return c.xsp + uint32(immSigned(raw)), true
	}
	return 0, false
}

func (c *CPU) readWord(host uint32) uint32        { return c.mem.ReadWord(host) }
func (c *CPU) readHalfSigned(host uint32) uint32   { return uint32(int32(int16(c.mem.ReadHalf(host)))) }
func (c *CPU) readHalfUnsigned(host uint32) uint32 { return uint32(c.mem.ReadHalf(host)) }
func (c *CPU) readByteSigned(host uint32) uint32   { return uint32(int32(int8(c.mem.ReadByte(host)))) }
func (c *CPU) readByteUnsigned(host uint32) uint32 { return uint32(c.mem.ReadByte(host)) }

func (c *CPU) readDoubleF(host uint32) float64 { return bitsFloat(c.mem.ReadDouble(host)) }
func (c *CPU) readFloatF(host uint32) float64  { return float64(c.mem.ReadFloat(host)) }

func (c *CPU) writeWord(host, v uint32)        { c.mem.WriteWord(host, v) }
func (c *CPU) writeHalf(host, v uint32)        { c.mem.WriteHalf(host, uint16(v)) }
func (c *CPU) writeByte(host, v uint32)        { c.mem.WriteByte(host, byte(v)) }
func (c *CPU) writeDoubleF(host uint32, f float64) { c.mem.WriteDouble(host, floatBits(f)) }
func (c *CPU) writeFloatF(host uint32, f float64)  { c.mem.WriteFloat(host, float32(f)) }

// loadLocalInt implements the LL/LBL/LCL family's fast/slow split for
// an integer-valued width: fast path reads directly off xsp, slow path
// translates, reads, and opportunistically re-arms.
func (c *CPU) loadLocalInt(raw uint32, mask uint32, read func(host uint32) uint32) (uint32, continuation) {
	if host, ok := c.localFastAddr(raw); ok {
		return read(host), contContinue
	}
	v := c.localEA(raw)
	host, ok := c.translateRead(v, mask)
	if !ok {
		return 0, contDeliverTrap
	}
	val := read(host)
	c.rearmLocal(v)
	return val, contContinue
}

// loadLocalFloat is loadLocalInt's counterpart for the F/G registers.
func (c *CPU) loadLocalFloat(raw uint32, mask uint32, read func(host uint32) float64) (float64, continuation) {
	if host, ok := c.localFastAddr(raw); ok {
		return read(host), contContinue
	}
	v := c.localEA(raw)
	host, ok := c.translateRead(v, mask)
	if !ok {
		return 0, contDeliverTrap
	}
	val := read(host)
	c.rearmLocal(v)
	return val, contContinue
}

func (c *CPU) storeLocalInt(raw uint32, mask uint32, val uint32, write func(host, v uint32)) continuation {
	if host, ok := c.localFastAddr(raw); ok {
		write(host, val)
		return contContinue
	}
	v := c.localEA(raw)
	host, ok := c.translateWrite(v, mask)
	if !ok {
		return contDeliverTrap
	}
	write(host, val)
	c.rearmLocal(v)
	return contContinue
}

func (c *CPU) storeLocalFloat(raw uint32, mask uint32, val float64, write func(host uint32, f float64)) continuation {
	if host, ok := c.localFastAddr(raw); ok {
		write(host, val)
		return contContinue
	}
	v := c.localEA(raw)
	host, ok := c.translateWrite(v, mask)
	if !ok {
		return contDeliverTrap
	}
	write(host, val)
	c.rearmLocal(v)
	return contContinue
}

func (c *CPU) loadGlobalInt(raw uint32, mask uint32, read func(host uint32) uint32) (uint32, continuation) {
	host, ok := c.translateRead(c.globalEA(raw), mask)
	if !ok {
		return 0, contDeliverTrap
	}
	return read(host), contContinue
}

func (c *CPU) loadGlobalFloat(raw uint32, mask uint32, read func(host uint32) float64) (float64, continuation) {
	host, ok := c.translateRead(c.globalEA(raw), mask)
	if !ok {
		return 0, contDeliverTrap
	}
	return read(host), contContinue
}

func (c *CPU) storeGlobalInt(raw uint32, mask uint32, val uint32, write func(host, v uint32)) continuation {
	host, ok := c.translateWrite(c.globalEA(raw), mask)
	if !ok {
		return contDeliverTrap
	}
	write(host, val)
	return contContinue
}

func (c *CPU) storeGlobalFloat(raw uint32, mask uint32, val float64, write func(host uint32, f float64)) continuation {
	host, ok := c.translateWrite(c.globalEA(raw), mask)
	if !ok {
		return contDeliverTrap
	}
	write(host, val)
	return contContinue
}

func (c *CPU) loadIndexedInt(base, raw uint32, mask uint32, read func(host uint32) uint32) (uint32, continuation) {
	host, ok := c.translateRead(c.indexedEA(base, raw), mask)
	if !ok {
		return 0, contDeliverTrap
	}
	return read(host), contContinue
}

func (c *CPU) loadIndexedFloat(base, raw uint32, mask uint32, read func(host uint32) float64) (float64, continuation) {
	host, ok := c.translateRead(c.indexedEA(base, raw), mask)
	if !ok {
		return 0, contDeliverTrap
	}
	return read(host), contContinue
}

func (c *CPU) storeIndexedInt(base, raw uint32, mask uint32, val uint32, write func(host, v uint32)) continuation {
	host, ok := c.translateWrite(c.indexedEA(base, raw), mask)
	if !ok {
		return contDeliverTrap
	}
	write(host, val)
	return contContinue
}

func (c *CPU) storeIndexedFloat(base, raw uint32, mask uint32, val float64, write func(host uint32, f float64)) continuation {
	host, ok := c.translateWrite(c.indexedEA(base, raw), mask)
	if !ok {
		return contDeliverTrap
	}
	write(host, val)
	return contContinue
}

var (
	maskByte   = mmu.MaskByte
	maskHalf   = mmu.MaskHalf
	maskWord   = mmu.MaskWord
	maskDouble = mmu.MaskDouble
)
