/*
 * vm32 - Physical memory tests.
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

package memory

import "testing"

func TestNewRoundsUpToPageBoundary(t *testing.T) {
	m := New(1)
	if m.Size() != PageSize {
		t.Errorf("Size = %d, want %d", m.Size(), PageSize)
	}
}

func TestByteHalfWordDoubleFloatRoundTrips(t *testing.T) {
	m := New(PageSize)

	m.WriteByte(0, 0xAB)
	if got := m.ReadByte(0); got != 0xAB {
		t.Errorf("ReadByte: got %#x, want 0xAB", got)
	}

	m.WriteHalf(4, 0xCAFE)
	if got := m.ReadHalf(4); got != 0xCAFE {
		t.Errorf("ReadHalf: got %#x, want 0xCAFE", got)
	}

	m.WriteWord(8, 0xDEADBEEF)
	if got := m.ReadWord(8); got != 0xDEADBEEF {
		t.Errorf("ReadWord: got %#x, want 0xDEADBEEF", got)
	}

	m.WriteDouble(16, 0x0123456789ABCDEF)
	if got := m.ReadDouble(16); got != 0x0123456789ABCDEF {
		t.Errorf("ReadDouble: got %#x, want 0x0123456789ABCDEF", got)
	}

	m.WriteFloat(24, 3.5)
	if got := m.ReadFloat(24); got != 3.5 {
		t.Errorf("ReadFloat: got %v, want 3.5", got)
	}
}

func TestInBounds(t *testing.T) {
	m := New(PageSize)
	if !m.InBounds(PageSize-4, 4) {
		t.Errorf("InBounds: last word should fit")
	}
	if m.InBounds(PageSize-3, 4) {
		t.Errorf("InBounds: should reject a 4-byte access straddling the end")
	}
	if !m.InBounds(PageSize-1, 0) {
		t.Errorf("InBounds: width 0 at the last valid byte should fit")
	}
	if m.InBounds(PageSize, 0) {
		t.Errorf("InBounds: width 0 at size should not fit")
	}
}

func TestCopyWithin(t *testing.T) {
	m := New(PageSize)
	for i := uint32(0); i < 8; i++ {
		m.WriteByte(i, byte(i+1))
	}
	m.CopyWithin(100, 0, 8)
	for i := uint32(0); i < 8; i++ {
		if got := m.ReadByte(100 + i); got != byte(i+1) {
			t.Errorf("CopyWithin: [%d] = %d, want %d", i, got, i+1)
		}
	}
}

func TestCompare(t *testing.T) {
	m := New(PageSize)
	for i := uint32(0); i < 8; i++ {
		m.WriteByte(i, byte(i))
		m.WriteByte(100+i, byte(i))
	}
	if off, diff := m.Compare(0, 100, 8); diff {
		t.Errorf("Compare equal ranges: off=%d diff=%v, want diff=false", off, diff)
	}

	m.WriteByte(103, 0xFF)
	off, diff := m.Compare(0, 100, 8)
	if !diff || off != 3 {
		t.Errorf("Compare mismatched ranges: off=%d diff=%v, want off=3 diff=true", off, diff)
	}
}

func TestIndexByte(t *testing.T) {
	m := New(PageSize)
	data := []byte("needle in haystack")
	for i, b := range data {
		m.WriteByte(uint32(i), b)
	}
	off, found := m.IndexByte(0, uint32(len(data)), 'h')
	if !found || off != uint32(len("needle in ")) {
		t.Errorf("IndexByte: off=%d found=%v, want off=%d found=true", off, found, len("needle in "))
	}

	if _, found := m.IndexByte(0, uint32(len(data)), 'z'); found {
		t.Errorf("IndexByte: found 'z' which is not present")
	}
}

func TestFill(t *testing.T) {
	m := New(PageSize)
	m.Fill(10, 5, 0x7F)
	for i := uint32(10); i < 15; i++ {
		if got := m.ReadByte(i); got != 0x7F {
			t.Errorf("Fill: [%d] = %#x, want 0x7F", i, got)
		}
	}
	if got := m.ReadByte(9); got != 0 {
		t.Errorf("Fill: byte before range touched, got %#x", got)
	}
	if got := m.ReadByte(15); got != 0 {
		t.Errorf("Fill: byte after range touched, got %#x", got)
	}
}
