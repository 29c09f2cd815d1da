/*
 * vm32 - CPU test harness.
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

// newTestCPU builds a CPU over a small flat (non-paged) memory, with
// PC and SP both parked well clear of each other so tests can use
// either as a scratch data area without colliding with fetched code.
func newTestCPU(memSize uint32) *CPU {
	c := New(Config{
		MemSize:   memSize,
		EntryPC:   0,
		InitialSP: memSize - 4096,
	})
	return c
}

// raw packs an opcode and a signed 24-bit immediate into an
// instruction word, the same layout run.go's fetch step decodes.
func raw(op uint8, imm int32) uint32 {
	return uint32(op) | (uint32(imm) << 8)
}
