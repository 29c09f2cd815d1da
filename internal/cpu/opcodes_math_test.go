/*
 * vm32 - Floating point math library opcode tests.
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
	"math"
	"testing"
)

func TestMathOpsOnF(t *testing.T) {
	tests := []struct {
		name string
		op   func(c *CPU, imm int32, raw uint32) continuation
		f, g float64
		want float64
	}{
		{"pow", opPow, 2, 10, 1024},
		{"atn2", opAtn2, 1, 1, math.Atan2(1, 1)},
		{"fabs", opFabs, -3.5, 0, 3.5},
		{"atan", opAtan, 1, 0, math.Atan(1)},
		{"exp", opExp, 1, 0, math.E},
		{"flor", opFlor, 3.7, 0, 3},
		{"ceil", opCeil, 3.2, 0, 4},
		{"hypo", opHypo, 3, 4, 5},
		{"sin", opSin, 0, 0, 0},
		{"cos", opCos, 0, 0, 1},
		{"sqrt", opSqrt, 16, 0, 4},
		{"fmod", opFmod, 10, 3, 1},
	}
	for _, tc := range tests {
		c := newTestCPU(1 << 16)
		c.F, c.G = tc.f, tc.g
		if cont := tc.op(c, 0, 0); cont != contContinue {
			t.Fatalf("%s: continuation %v", tc.name, cont)
		}
		if c.F != tc.want {
			t.Errorf("%s: F = %v, want %v", tc.name, c.F, tc.want)
		}
	}
}

func TestLogOfZeroLeavesFUnchanged(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.F = 0
	if cont := opLog(c, 0, 0); cont != contContinue {
		t.Fatalf("opLog: continuation %v", cont)
	}
	if c.F != 0 {
		t.Errorf("opLog(0): F = %v, want 0 (guarded against -Inf)", c.F)
	}

	c.F = math.E
	opLog(c, 0, 0)
	if c.F != 1 {
		t.Errorf("opLog(e): F = %v, want 1", c.F)
	}
}

func TestLogtOfZeroLeavesFUnchanged(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.F = 0
	opLogt(c, 0, 0)
	if c.F != 0 {
		t.Errorf("opLogt(0): F = %v, want 0", c.F)
	}

	c.F = 100
	opLogt(c, 0, 0)
	if c.F != 2 {
		t.Errorf("opLogt(100): F = %v, want 2", c.F)
	}
}
