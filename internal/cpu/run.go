/*
 * vm32 - Fetch-dispatch loop and keyboard-timer poll.
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

// Run executes instructions until the guest halts, a host-fatal
// condition occurs, or the backtick quit sentinel is read from the
// keyboard. It returns the reason Run stopped; callers inspect
// HaltReason/FatalErr/A for the exit status.
func (c *CPU) Run() HaltReason {
	c.running = true
	for c.running {
		if c.debugStep != nil {
			switch c.debugStep(c) {
			case DebugQuit:
				c.haltReason = HaltQuit
				return c.haltReason
			case DebugStep:
				c.step()
			case DebugContinue:
				c.debugStep = nil
				continue
			}
			continue
		}
		c.step()
	}
	return c.haltReason
}

// Step executes exactly one instruction (or delivers one pending
// trap), for the -g debugger's single-step command.
func (c *CPU) Step() {
	c.step()
}

func (c *CPU) step() {
	c.sinceIO++
	if c.sinceIO >= pollDelta {
		c.sinceIO = 0
		c.poll()
		if !c.running {
			return
		}
	}

	if c.Trap != 0 {
		c.handleContinuation(c.deliverTrap())
		return
	}

	if c.xpc >= c.fpc {
		if !c.refetchPC(c.GuestPC()) {
			c.handleContinuation(contDeliverTrap)
			return
		}
	}

	raw := c.mem.ReadWord(c.xpc)
	c.xpc += 4
	c.cycles++

	op := raw & 0xFF
	imm := int32(raw) >> 8 // arithmetic shift sign-extends the 24-bit immediate

	handler := c.table[op]
	cont := handler(c, imm, raw)
	c.handleContinuation(cont)
}

func (c *CPU) handleContinuation(cont continuation) {
	switch cont {
	case contContinue:
	case contDeliverTrap:
		// Trap is already latched; deliver it now. FMem is code 0, so a
		// kernel-ring FMem would never pass the Trap != 0 check in step.
		c.handleContinuation(c.deliverTrap())
	case contHalt:
		c.haltReason = HaltInstruction
		c.running = false
	case contQuit:
		c.haltReason = HaltQuit
		c.running = false
	case contFatal:
		c.haltReason = HaltFatal
		c.running = false
	}
}

// poll checks the keyboard for a latched byte or the quit sentinel,
// and ticks the interval timer, raising FKeybd/FTimer as pending
// interrupts.
func (c *CPU) poll() {
	if c.keyboard != nil && c.kbChar < 0 {
		if b, quit, ok := c.keyboard.Poll(); ok {
			if quit {
				c.haltReason = HaltQuit
				c.running = false
				return
			}
			c.kbChar = int32(b)
			c.raiseInterrupt(FKeybd)
		}
	}
	if c.timeout != 0 {
		if c.timer >= c.timeout {
			c.timer = 0
			c.raiseInterrupt(FTimer)
		} else {
			c.timer += pollDelta
		}
	}
	if code, ok := c.takePendingInterrupt(); ok {
		c.Trap = code
	}
}
