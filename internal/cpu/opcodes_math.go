/*
 * vm32 - Floating point math library opcodes.
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

import "math"

func opPow(c *CPU, imm int32, raw uint32) continuation  { c.F = math.Pow(c.F, c.G); return contContinue }
func opAtn2(c *CPU, imm int32, raw uint32) continuation { c.F = math.Atan2(c.F, c.G); return contContinue }
func opFabs(c *CPU, imm int32, raw uint32) continuation { c.F = math.Abs(c.F); return contContinue }
func opAtan(c *CPU, imm int32, raw uint32) continuation { c.F = math.Atan(c.F); return contContinue }

func opLog(c *CPU, imm int32, raw uint32) continuation {
	if c.F != 0 {
		c.F = math.Log(c.F)
	}
	return contContinue
}

func opLogt(c *CPU, imm int32, raw uint32) continuation {
	if c.F != 0 {
		c.F = math.Log10(c.F)
	}
	return contContinue
}

func opExp(c *CPU, imm int32, raw uint32) continuation  { c.F = math.Exp(c.F); return contContinue }
func opFlor(c *CPU, imm int32, raw uint32) continuation { c.F = math.Floor(c.F); return contContinue }
func opCeil(c *CPU, imm int32, raw uint32) continuation { c.F = math.Ceil(c.F); return contContinue }
func opHypo(c *CPU, imm int32, raw uint32) continuation { c.F = math.Hypot(c.F, c.G); return contContinue }
func opSin(c *CPU, imm int32, raw uint32) continuation  { c.F = math.Sin(c.F); return contContinue }
func opCos(c *CPU, imm int32, raw uint32) continuation  { c.F = math.Cos(c.F); return contContinue }
func opTan(c *CPU, imm int32, raw uint32) continuation  { c.F = math.Tan(c.F); return contContinue }
func opAsin(c *CPU, imm int32, raw uint32) continuation { c.F = math.Asin(c.F); return contContinue }
func opAcos(c *CPU, imm int32, raw uint32) continuation { c.F = math.Acos(c.F); return contContinue }
func opSinh(c *CPU, imm int32, raw uint32) continuation { c.F = math.Sinh(c.F); return contContinue }
func opCosh(c *CPU, imm int32, raw uint32) continuation { c.F = math.Cosh(c.F); return contContinue }
func opTanh(c *CPU, imm int32, raw uint32) continuation { c.F = math.Tanh(c.F); return contContinue }
func opSqrt(c *CPU, imm int32, raw uint32) continuation { c.F = math.Sqrt(c.F); return contContinue }
func opFmod(c *CPU, imm int32, raw uint32) continuation { c.F = math.Mod(c.F, c.G); return contContinue }
