/*
 * vm32 - Trap and interrupt delivery, return from interrupt.
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

// deliverTrap implements the trap/interrupt delivery protocol: quench
// the fast stack window, switch to kernel ring if not already there,
// push a two-word kernel-stack frame (PC, trap code with the origin
// ring latched via UserOrigin), and jump to the vector. A fault while
// pushing the frame is unrecoverable — there is no ring left to trap
// into.
func (c *CPU) deliverTrap() continuation {
	trap := c.Trap
	c.Trap = 0
	pc := c.GuestPC()

	guestSP := c.xsp - c.tsp
	c.tsp, c.fsp = 0, 0
	c.xsp = guestSP

	if c.User {
		c.USP = c.xsp
		c.xsp = c.SSP
		c.User = false
		trap |= UserOrigin
	}

	host, ok := c.translateWrite(c.xsp-8, mmuMaskWord)
	if !ok {
		return c.fatal("kernel stack fault delivering trap")
	}
	c.mem.WriteWord(host, pc)
	c.xsp -= 8

	host, ok = c.translateWrite(c.xsp-8, mmuMaskWord)
	if !ok {
		return c.fatal("kernel stack fault delivering trap")
	}
	c.mem.WriteWord(host, trap)
	c.xsp -= 8

	if !c.refetchPC(c.IVec) {
		return c.fatal("page fault fetching interrupt vector")
	}
	return contContinue
}

// mmuMaskWord is the word alignment mask (mmu.MaskWord, duplicated
// here as a plain constant so trap.go need not import mmu just for
// it).
const mmuMaskWord = 3

func (c *CPU) fatal(msg string) continuation {
	c.fatalErr = errTrap(msg)
	return contFatal
}

// raiseInterrupt latches a pending asynchronous interrupt. Only
// FTimer (1) and FKeybd (2) ever participate here, and both values
// already double as single-bit masks, so the lowest-set-bit trick in
// takePendingInterrupt recovers the trap code directly from the
// bitset without a separate encoding.
func (c *CPU) raiseInterrupt(code uint32) {
	c.IPend |= code
}

// takePendingInterrupt extracts and clears the lowest-numbered
// pending interrupt, returning (code, true), or (0, false) if none is
// pending or interrupts are disabled.
func (c *CPU) takePendingInterrupt() (uint32, bool) {
	if !c.IEna || c.IPend == 0 {
		return 0, false
	}
	lowest := c.IPend & (^c.IPend + 1)
	c.IPend ^= lowest
	return lowest, true
}

// rti restores the PC and ring saved by the most recent trap
// delivery, and tail-chains another pending interrupt if interrupts
// are still disabled once the saved flags are restored (mirroring
// STI's own immediate-delivery behavior).
func (c *CPU) rti() continuation {
	guestSP := c.xsp - c.tsp
	c.tsp, c.fsp = 0, 0
	c.xsp = guestSP

	host, ok := c.translateRead(c.xsp, mmuMaskWord)
	if !ok {
		return c.fatal("RTI kernel stack fault")
	}
	trap := c.mem.ReadWord(host)
	c.xsp += 8

	host, ok = c.translateRead(c.xsp, mmuMaskWord)
	if !ok {
		return c.fatal("RTI kernel stack fault")
	}
	pc := c.mem.ReadWord(host)
	c.xsp += 8

	if trap&UserOrigin != 0 {
		c.SSP = c.xsp
		c.xsp = c.USP
		c.User = true
	}

	if !c.refetchPC(pc) {
		return contDeliverTrap
	}

	if !c.IEna {
		if c.IPend != 0 {
			code := c.IPend & (^c.IPend + 1)
			c.IPend ^= code
			c.Trap = code
			return c.deliverTrap()
		}
		c.IEna = true
	}
	return contContinue
}

type errTrap string

func (e errTrap) Error() string { return string(e) }
