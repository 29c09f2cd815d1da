/*
 * vm32 - Restartable block memory opcodes.
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

// Block-memory opcodes operate per-page chunk so a fault partway
// through leaves A/B/C holding exactly the remaining work: a trap
// handler that backs the saved PC up by one instruction and resumes
// will pick the copy back up correctly.

func chunkLen(a, b, remaining uint32) uint32 {
	n := pageRemain(a)
	if r := pageRemain(b); r < n {
		n = r
	}
	if remaining < n {
		n = remaining
	}
	return n
}

func pageRemain(v uint32) uint32 {
	return 4096 - (v & 4095)
}

func opMcpy(c *CPU, imm int32, raw uint32) continuation {
	for c.C != 0 {
		bHost, ok := c.translateRead(c.B, maskByte)
		if !ok {
			return contDeliverTrap
		}
		aHost, ok := c.translateWrite(c.A, maskByte)
		if !ok {
			return contDeliverTrap
		}
		n := chunkLen(c.A, c.B, c.C)
		c.mem.CopyWithin(aHost, bHost, n)
		c.A += n
		c.B += n
		c.C -= n
	}
	return contContinue
}

func opMcmp(c *CPU, imm int32, raw uint32) continuation {
	for {
		if c.C == 0 {
			c.A = 0
			return contContinue
		}
		bHost, ok := c.translateRead(c.B, maskByte)
		if !ok {
			return contDeliverTrap
		}
		aHost, ok := c.translateRead(c.A, maskByte)
		if !ok {
			return contDeliverTrap
		}
		n := chunkLen(c.A, c.B, c.C)
		if off, diff := c.mem.Compare(aHost, bHost, n); diff {
			c.A = off
			c.B += c.C
			c.C = 0
			return contContinue
		}
		c.A += n
		c.B += n
		c.C -= n
	}
}

func opMchr(c *CPU, imm int32, raw uint32) continuation {
	for {
		if c.C == 0 {
			c.A = 0
			return contContinue
		}
		aHost, ok := c.translateRead(c.A, maskByte)
		if !ok {
			return contDeliverTrap
		}
		n := pageRemain(c.A)
		if c.C < n {
			n = c.C
		}
		if off, found := c.mem.IndexByte(aHost, n, byte(c.B)); found {
			c.A += off
			c.C = 0
			return contContinue
		}
		c.A += n
		c.C -= n
	}
}

func opMset(c *CPU, imm int32, raw uint32) continuation {
	for c.C != 0 {
		aHost, ok := c.translateWrite(c.A, maskByte)
		if !ok {
			return contDeliverTrap
		}
		n := pageRemain(c.A)
		if c.C < n {
			n = c.C
		}
		c.mem.Fill(aHost, n, byte(c.B))
		c.A += n
		c.C -= n
	}
	return contContinue
}
