/*
 * vm32 - Conditional branch opcodes.
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

// branchIf takes the word-scaled, PC-relative branch when cond is
// true; otherwise it is a no-op. The displacement field is a word
// count, not a byte count, so it is scaled by 4 before being added to
// the guest PC.
func branchIf(c *CPU, raw uint32, cond bool) continuation {
	if !cond {
		return contContinue
	}
	delta := (int32(raw) >> 10) * 4
	target := uint32(int32(c.GuestPC()) + delta)
	if !c.gotoPC(target) {
		return contDeliverTrap
	}
	return contContinue
}

func opBz(c *CPU, imm int32, raw uint32) continuation   { return branchIf(c, raw, c.A == 0) }
func opBzf(c *CPU, imm int32, raw uint32) continuation  { return branchIf(c, raw, c.F == 0) }
func opBnz(c *CPU, imm int32, raw uint32) continuation  { return branchIf(c, raw, c.A != 0) }
func opBnzf(c *CPU, imm int32, raw uint32) continuation { return branchIf(c, raw, c.F != 0) }
func opBe(c *CPU, imm int32, raw uint32) continuation   { return branchIf(c, raw, c.A == c.B) }
func opBef(c *CPU, imm int32, raw uint32) continuation  { return branchIf(c, raw, c.F == c.G) }
func opBne(c *CPU, imm int32, raw uint32) continuation  { return branchIf(c, raw, c.A != c.B) }
func opBnef(c *CPU, imm int32, raw uint32) continuation { return branchIf(c, raw, c.F != c.G) }
func opBlt(c *CPU, imm int32, raw uint32) continuation {
	return branchIf(c, raw, int32(c.A) < int32(c.B))
}
func opBltu(c *CPU, imm int32, raw uint32) continuation { return branchIf(c, raw, c.A < c.B) }
func opBltf(c *CPU, imm int32, raw uint32) continuation { return branchIf(c, raw, c.F < c.G) }
func opBge(c *CPU, imm int32, raw uint32) continuation {
	return branchIf(c, raw, int32(c.A) >= int32(c.B))
}
func opBgeu(c *CPU, imm int32, raw uint32) continuation { return branchIf(c, raw, c.A >= c.B) }
func opBgef(c *CPU, imm int32, raw uint32) continuation { return branchIf(c, raw, c.F >= c.G) }
