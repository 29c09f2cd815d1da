/*
 * vm32 - Stack frame and call opcode tests.
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

import "testing"

func TestEntGrowsFrame(t *testing.T) {
	c := newTestCPU(1 << 16)
	startSP := c.GuestSP()
	if cont := opEnt(c, 0, raw(0, -32)); cont != contContinue {
		t.Fatalf("opEnt: continuation %v", cont)
	}
	if c.GuestSP() != startSP-32 {
		t.Errorf("opEnt: SP = %#x, want %#x", c.GuestSP(), startSP-32)
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.A = 0xDEADBEEF
	if cont := opPsha(c, 0, 0); cont != contContinue {
		t.Fatalf("opPsha: continuation %v", cont)
	}
	c.A = 0
	if cont := opPopa(c, 0, 0); cont != contContinue {
		t.Fatalf("opPopa: continuation %v", cont)
	}
	if c.A != 0xDEADBEEF {
		t.Errorf("push/pop A round trip: got %#x, want 0xDEADBEEF", c.A)
	}
}

func TestPushPopFloatRoundTrip(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.F = 3.14159
	if cont := opPshf(c, 0, 0); cont != contContinue {
		t.Fatalf("opPshf: continuation %v", cont)
	}
	c.F = 0
	if cont := opPopf(c, 0, 0); cont != contContinue {
		t.Fatalf("opPopf: continuation %v", cont)
	}
	if c.F != 3.14159 {
		t.Errorf("push/pop F round trip: got %v, want 3.14159", c.F)
	}
}

func TestJsrLevRoundTrip(t *testing.T) {
	c := newTestCPU(1 << 16)
	startPC := c.GuestPC()
	// JSR's displacement is byte-scaled the same way JMP's is: the
	// raw field's value divided by 4 via raw>>10.
	if cont := opJsr(c, 0, raw(0, 64)); cont != contContinue {
		t.Fatalf("opJsr: continuation %v", cont)
	}
	calleePC := c.GuestPC()
	if calleePC != startPC+64 {
		t.Errorf("opJsr: PC = %#x, want %#x", calleePC, startPC+64)
	}
	if cont := opLev(c, 0, 0); cont != contContinue {
		t.Fatalf("opLev: continuation %v", cont)
	}
	if c.GuestPC() != startPC {
		t.Errorf("opLev: PC = %#x, want return to %#x", c.GuestPC(), startPC)
	}
}

func TestLeaAndLeag(t *testing.T) {
	c := newTestCPU(1 << 16)
	sp := c.GuestSP()
	opLea(c, 0, raw(0, -8))
	if c.A != sp-8 {
		t.Errorf("opLea: A = %#x, want %#x", c.A, sp-8)
	}

	pc := c.GuestPC()
	opLeag(c, 0, raw(0, 16))
	if c.A != pc+16 {
		t.Errorf("opLeag: A = %#x, want %#x", c.A, pc+16)
	}
}
