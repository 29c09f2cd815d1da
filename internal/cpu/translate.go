/*
 * vm32 - Address translation and fast-path re-arm helpers.
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

import (
	"github.com/rcornwell/vm32/internal/memory"
	"github.com/rcornwell/vm32/internal/mmu"
)

func (c *CPU) readQuadrant() mmu.Quadrant {
	if c.User {
		return mmu.UserRead
	}
	return mmu.KernelRead
}

func (c *CPU) writeQuadrant() mmu.Quadrant {
	if c.User {
		return mmu.UserWrite
	}
	return mmu.KernelWrite
}

// latchFault records a translation failure as a guest trap, choosing
// FMem for a bad physical address and pageFault (caller-supplied,
// context-specific) for a page-table miss or permission failure.
func (c *CPU) latchFault(fault mmu.FaultKind, v uint32, pageFault uint32) {
	c.VAdr = v
	if fault == mmu.FaultMem {
		c.Trap = FMem
	} else {
		c.Trap = pageFault
	}
	if c.User {
		c.Trap |= UserOrigin
	}
}

// translate resolves guest address v for an access of the given
// alignment mask, consulting the cache first and falling back to a
// full page-table walk. ok is false if a fault was latched.
func (c *CPU) translate(v uint32, alignMask uint32, forWrite bool, pageFault uint32) (uint32, bool) {
	q := c.readQuadrant()
	if forWrite {
		q = c.writeQuadrant()
	}
	entry := c.tc.Lookup(v, q)
	if entry == 0 {
		var fault mmu.FaultKind
		entry, fault = c.walker.Walk(v, forWrite, c.VMem, c.PDir, c.User)
		if fault != mmu.FaultNone {
			c.latchFault(fault, v, pageFault)
			return 0, false
		}
	}
	return mmu.Translate(v, entry, alignMask), true
}

func (c *CPU) translateRead(v, alignMask uint32) (uint32, bool) {
	return c.translate(v, alignMask, false, FRPage)
}

func (c *CPU) translateWrite(v, alignMask uint32) (uint32, bool) {
	return c.translate(v, alignMask, true, FWPage)
}

func (c *CPU) translateFetch(v uint32) (uint32, bool) {
	return c.translate(v, 0, false, FIPage)
}

// refetchPC reinstalls the code-page fast path for guestPC: a full
// translate-or-walk, since the fetch path has no opportunistic
// cache-only fallback — it is always the critical path that must
// make forward progress.
func (c *CPU) refetchPC(guestPC uint32) bool {
	host, ok := c.translateFetch(guestPC)
	if !ok {
		return false
	}
	c.xpc = host
	c.tpc = host - guestPC
	c.fpc = (host &^ (memory.PageSize - 1)) + memory.PageSize
	return true
}

func (c *CPU) setGuestPC(guestPC uint32) bool {
	return c.refetchPC(guestPC)
}

// gotoPC moves the live PC to guestTarget, reusing the current page's
// fast path when the target still lies within it.
func (c *CPU) gotoPC(guestTarget uint32) bool {
	newXpc := guestTarget + c.tpc
	if c.fpc != 0 && newXpc < c.fpc && newXpc >= c.fpc-memory.PageSize {
		c.xpc = newXpc
		return true
	}
	return c.refetchPC(guestTarget)
}

// PeekByte performs a debugger-only read of guest address v: a normal
// translation through the current read quadrant, but never latching a
// fault on a miss (the debugger reports its own "invalid address").
func (c *CPU) PeekByte(v uint32) (byte, bool) {
	entry := c.tc.Lookup(v, c.readQuadrant())
	if entry == 0 {
		var fault mmu.FaultKind
		entry, fault = c.walker.Walk(v, false, c.VMem, c.PDir, c.User)
		if fault != mmu.FaultNone {
			return 0, false
		}
	}
	host := mmu.Translate(v, entry, mmu.MaskByte)
	return c.mem.ReadByte(host), true
}

// fastSPLookup opportunistically re-arms the stack fast path from
// whatever is already cached for guestSP, without forcing a
// page-table walk and without ever latching a fault: the live stack
// page is always actually established by a prior PSH/POP/ENT/local
// access falling through to a full translateWrite, and this just
// picks that installed mapping back up. Unlike the original
// interpreter's narrower heuristic (only re-arm when the slow-path
// address shares a page with the current SP) this always re-arms
// after any successful slow-path stack access; xsp/tsp/fsp are pure
// performance state never visible to guest code, so the relaxation is
// behaviorally transparent.
func (c *CPU) fastSPLookup(guestSP uint32) {
	entry := c.tc.Lookup(guestSP, c.writeQuadrant())
	if entry == 0 {
		c.fsp = 0
		return
	}
	host := mmu.Translate(guestSP, entry, 0)
	c.xsp = host
	c.tsp = host - guestSP
	c.fsp = (memory.PageSize - (host & (memory.PageSize - 1))) << 8
}
