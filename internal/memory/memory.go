/*
 * vm32 - Physical memory.
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

// Package memory implements the emulator's physical memory: a single
// contiguous host-allocated byte buffer addressed by guest physical
// address.
package memory

import (
	"encoding/binary"
	"math"
)

// PageSize is the guest page size in bytes.
const PageSize = 4096

// Memory is a flat, page-aligned byte buffer standing in for the
// virtual machine's physical RAM. It is exclusively owned by the CPU
// that created it; nothing else touches it concurrently.
type Memory struct {
	buf []byte
}

// New allocates a zeroed physical memory region of size bytes, rounded
// up to a page boundary.
func New(size uint32) *Memory {
	size = (size + PageSize - 1) &^ (PageSize - 1)
	return &Memory{buf: make([]byte, size)}
}

// Size returns the memory size in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.buf))
}

// InBounds reports whether a width-byte access at phys fits entirely
// within the buffer.
func (m *Memory) InBounds(phys uint32, width uint32) bool {
	if width == 0 {
		return phys < uint32(len(m.buf))
	}
	end := uint64(phys) + uint64(width)
	return end <= uint64(len(m.buf))
}

// Bytes exposes the raw buffer, for the loader and for block-memory
// opcodes that copy between two physical ranges directly.
func (m *Memory) Bytes() []byte {
	return m.buf
}

// ReadByte reads one byte at phys without a bounds check; callers must
// have validated the address (via InBounds or a successful MMU lookup).
func (m *Memory) ReadByte(phys uint32) uint8 {
	return m.buf[phys]
}

// WriteByte writes one byte at phys without a bounds check.
func (m *Memory) WriteByte(phys uint32, v uint8) {
	m.buf[phys] = v
}

// ReadHalf reads a little-endian 16-bit half-word at phys.
func (m *Memory) ReadHalf(phys uint32) uint16 {
	return binary.LittleEndian.Uint16(m.buf[phys:])
}

// WriteHalf writes a little-endian 16-bit half-word at phys.
func (m *Memory) WriteHalf(phys uint32, v uint16) {
	binary.LittleEndian.PutUint16(m.buf[phys:], v)
}

// ReadWord reads a little-endian 32-bit word at phys.
func (m *Memory) ReadWord(phys uint32) uint32 {
	return binary.LittleEndian.Uint32(m.buf[phys:])
}

// WriteWord writes a little-endian 32-bit word at phys.
func (m *Memory) WriteWord(phys uint32, v uint32) {
	binary.LittleEndian.PutUint32(m.buf[phys:], v)
}

// ReadDouble reads the little-endian 64 raw bits of a double at phys.
func (m *Memory) ReadDouble(phys uint32) uint64 {
	return binary.LittleEndian.Uint64(m.buf[phys:])
}

// WriteDouble writes the little-endian 64 raw bits of a double at phys.
func (m *Memory) WriteDouble(phys uint32, v uint64) {
	binary.LittleEndian.PutUint64(m.buf[phys:], v)
}

// ReadFloat reads a little-endian 32-bit IEEE-754 single-precision
// value at phys, as used by the F/G-suffixed single-precision opcodes.
func (m *Memory) ReadFloat(phys uint32) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(m.buf[phys:]))
}

// WriteFloat writes a little-endian 32-bit IEEE-754 single-precision
// value at phys.
func (m *Memory) WriteFloat(phys uint32, v float32) {
	binary.LittleEndian.PutUint32(m.buf[phys:], math.Float32bits(v))
}

// CopyWithin performs a raw host-side copy, used by the restartable
// block-memory opcodes once both ends of a chunk have been translated.
func (m *Memory) CopyWithin(dst, src uint32, n uint32) {
	copy(m.buf[dst:dst+n], m.buf[src:src+n])
}

// Compare performs a raw host-side byte-for-byte comparison, returning
// the index of the first mismatch and true, or (0, false) if equal.
func (m *Memory) Compare(a, b uint32, n uint32) (uint32, bool) {
	for i := uint32(0); i < n; i++ {
		if m.buf[a+i] != m.buf[b+i] {
			return i, true
		}
	}
	return 0, false
}

// IndexByte searches [phys, phys+n) for the byte b, returning the
// offset from phys and true, or (0, false) if not found.
func (m *Memory) IndexByte(phys uint32, n uint32, b byte) (uint32, bool) {
	for i := uint32(0); i < n; i++ {
		if m.buf[phys+i] == b {
			return i, true
		}
	}
	return 0, false
}

// Fill sets n bytes starting at phys to b.
func (m *Memory) Fill(phys uint32, n uint32, b byte) {
	chunk := m.buf[phys : phys+n]
	for i := range chunk {
		chunk[i] = b
	}
}
