/*
 * vm32 - HALT, IDLE and the privileged system-control opcodes.
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

// opHalt stops the machine. The guest's exit status is left in A for
// the caller to inspect; bug-for-bug with the reference emulator,
// this is not actually restricted to the kernel ring.
func opHalt(c *CPU, imm int32, raw uint32) continuation {
	return contHalt
}

// opIdle spins, polling the keyboard and interval timer, until an
// asynchronous interrupt arrives or the backtick quit sentinel is
// read. Only legal in the kernel ring with interrupts enabled.
func opIdle(c *CPU, imm int32, raw uint32) continuation {
	if c.User {
		return c.raiseSync(FPriv)
	}
	if !c.IEna {
		return c.raiseSync(FInst)
	}
	for {
		if c.keyboard != nil {
			if b, quit, ok := c.keyboard.Poll(); ok {
				if quit {
					return contQuit
				}
				c.kbChar = int32(b)
				c.Trap = FKeybd
				c.IEna = false
				return contDeliverTrap
			}
		}
		if c.timeout != 0 {
			c.timer += pollDelta
			if c.timer >= c.timeout {
				c.timer = 0
				c.Trap = FTimer
				c.IEna = false
				return contDeliverTrap
			}
		}
	}
}

func opNop(c *CPU, imm int32, raw uint32) continuation {
	return contContinue
}

// opCyc returns the retired-instruction count, usable by guest
// software for coarse profiling.
func opCyc(c *CPU, imm int32, raw uint32) continuation {
	c.A = uint32(c.cycles)
	return contContinue
}

func opMsiz(c *CPU, imm int32, raw uint32) continuation {
	if c.User {
		return c.raiseSync(FPriv)
	}
	c.A = c.mem.Size()
	return contContinue
}

// opBin reads the single latched keyboard byte, or all-ones if none
// is pending.
func opBin(c *CPU, imm int32, raw uint32) continuation {
	if c.User {
		return c.raiseSync(FPriv)
	}
	c.A = uint32(c.kbChar)
	c.kbChar = -1
	return contContinue
}

// opBout writes one byte (the low byte of B) to the console. Only
// A==1 (stdout) is accepted; any other descriptor is a host-fatal
// diagnostic abort, bug-for-bug with the reference emulator.
func opBout(c *CPU, imm int32, raw uint32) continuation {
	if c.User {
		return c.raiseSync(FPriv)
	}
	if c.A != 1 {
		return c.fatal("BOUT: bad file descriptor")
	}
	if c.console == nil {
		return c.fatal("BOUT: no console attached")
	}
	if err := c.console.WriteByte(byte(c.B)); err != nil {
		return c.fatal("BOUT: " + err.Error())
	}
	c.A = 1
	return contContinue
}

// opSsp loads the stack pointer directly from A, re-arming the fast
// path opportunistically if the target page is already cached.
func opSsp(c *CPU, imm int32, raw uint32) continuation {
	c.xsp = c.A
	c.tsp = 0
	c.fastSPLookup(c.A)
	return contContinue
}

func opCli(c *CPU, imm int32, raw uint32) continuation {
	if c.User {
		return c.raiseSync(FPriv)
	}
	if c.IEna {
		c.A = 1
	} else {
		c.A = 0
	}
	c.IEna = false
	return contContinue
}

// opSti re-enables interrupts, delivering the lowest-numbered pending
// one immediately if any is already latched.
func opSti(c *CPU, imm int32, raw uint32) continuation {
	if c.User {
		return c.raiseSync(FPriv)
	}
	if c.IPend != 0 {
		trap := c.IPend & (^c.IPend + 1)
		c.IPend ^= trap
		c.IEna = false
		c.Trap = trap
		return contDeliverTrap
	}
	c.IEna = true
	return contContinue
}

func opRti(c *CPU, imm int32, raw uint32) continuation {
	if c.User {
		return c.raiseSync(FPriv)
	}
	return c.rti()
}

func opIvec(c *CPU, imm int32, raw uint32) continuation {
	if c.User {
		return c.raiseSync(FPriv)
	}
	c.IVec = c.A
	return contContinue
}

// opPdir installs a new page directory and flushes every cached
// translation.
func opPdir(c *CPU, imm int32, raw uint32) continuation {
	if c.User {
		return c.raiseSync(FPriv)
	}
	if c.A > c.mem.Size() {
		return c.raiseSync(FMem)
	}
	c.PDir = c.A &^ 0xFFF
	c.tc.Flush()
	c.fsp = 0
	if !c.refetchPC(c.GuestPC()) {
		return contDeliverTrap
	}
	return contContinue
}

// opSpag enables or disables paging, flushing every cached translation.
func opSpag(c *CPU, imm int32, raw uint32) continuation {
	if c.User {
		return c.raiseSync(FPriv)
	}
	if c.A != 0 && c.PDir == 0 {
		return c.raiseSync(FMem)
	}
	c.VMem = c.A != 0
	c.tc.Flush()
	c.fsp = 0
	if !c.refetchPC(c.GuestPC()) {
		return contDeliverTrap
	}
	return contContinue
}

// opTime sets the interval timer's timeout from A, or — with a
// nonzero immediate — dumps the current timer/timeout pair as a
// diagnostic instead of arming anything.
func opTime(c *CPU, imm int32, raw uint32) continuation {
	if c.User {
		return c.raiseSync(FPriv)
	}
	if immSigned(raw) != 0 {
		c.dumpTimer(immSigned(raw))
		return contContinue
	}
	c.timeout = c.A
	return contContinue
}

func (c *CPU) dumpTimer(channel int32) {
	if c.logger == nil {
		return
	}
	c.logger.Debugf("timer%d=%d timeout=%d", channel, c.timer, c.timeout)
}

func opLvad(c *CPU, imm int32, raw uint32) continuation {
	if c.User {
		return c.raiseSync(FPriv)
	}
	c.A = c.VAdr
	return contContinue
}

func opTrapOpcode(c *CPU, imm int32, raw uint32) continuation {
	return c.raiseSync(FSys)
}

func opLusp(c *CPU, imm int32, raw uint32) continuation {
	if c.User {
		return c.raiseSync(FPriv)
	}
	c.A = c.USP
	return contContinue
}

func opSusp(c *CPU, imm int32, raw uint32) continuation {
	if c.User {
		return c.raiseSync(FPriv)
	}
	c.USP = c.A
	return contContinue
}
