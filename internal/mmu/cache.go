/*
 * vm32 - Translation cache.
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

// Package mmu implements the translation cache and the two-level
// guest page-table walker that backs it.
//
// The translation cache never stores a real host pointer — Go does
// not allow the pointer arithmetic the original C emulator used, and
// exposing one would defeat the garbage collector and bounds
// checking. Instead each entry stores, per the abstract contract in
// the design notes, ((guestPageBase XOR hostPageOffset) &^ 0xFFF) | 1:
// XORing a cached entry with any guest address in its page yields the
// host byte offset into physical memory for that address, after
// masking off the low bits the validity flag and sub-word alignment
// don't belong in.
package mmu

import "github.com/rcornwell/vm32/internal/memory"

// Quadrant identifies one of the four parallel translation tables.
type Quadrant uint8

const (
	KernelRead Quadrant = iota
	KernelWrite
	UserRead
	UserWrite
	numQuadrants
)

// Alignment masks applied after the XOR step, per access width.
// Translate already clears the entry's validity bit before the XOR, so
// byte accesses, which have no alignment requirement, mask nothing.
const (
	MaskByte   uint32 = 0
	MaskHalf   uint32 = 1
	MaskWord   uint32 = 3
	MaskDouble uint32 = 7
)

const vpnBits = 20 // 32-bit address space / 4096-byte pages
const vpnCount = 1 << vpnBits

const pageMask = memory.PageSize - 1

// defaultMaxPopulated is the bound on the populated-VPN side list
// before a bulk flush is forced.
const defaultMaxPopulated = 4096

// Cache is the MMU's translation cache: four parallel arrays indexed
// by virtual page number, plus a bounded side list of VPNs with any
// non-zero quadrant so a flush need not scan the full 2^20-entry
// tables.
type Cache struct {
	entries      [numQuadrants][]uint32
	populated    []uint32
	maxPopulated int
}

// NewCache allocates a translation cache. maxPopulated <= 0 selects
// the default capacity of 4096 populated VPNs.
func NewCache(maxPopulated int) *Cache {
	if maxPopulated <= 0 {
		maxPopulated = defaultMaxPopulated
	}
	c := &Cache{maxPopulated: maxPopulated}
	for q := range c.entries {
		c.entries[q] = make([]uint32, vpnCount)
	}
	c.populated = make([]uint32, 0, maxPopulated)
	return c
}

// Lookup returns the raw cache entry for the page containing v in the
// given quadrant, or 0 if no mapping is cached.
func (c *Cache) Lookup(v uint32, q Quadrant) uint32 {
	return c.entries[q][v>>12]
}

// Translate decodes a cached entry into a host byte offset for guest
// address v. The validity bit Install packs into entry's bit 0 must be
// stripped before the XOR, not after: entry's page-aligned bits are
// what map v's page offset through unchanged, and masking the result
// instead only happens to agree with this for even v. alignMask then
// strips the low bits an unaligned access of that width doesn't need.
func Translate(v, entry, alignMask uint32) uint32 {
	return (v ^ (entry &^ 1)) &^ alignMask
}

// Flush zeroes every populated VPN's four quadrants and empties the
// populated list. Idempotent.
func (c *Cache) Flush() {
	for _, v := range c.populated {
		c.entries[KernelRead][v] = 0
		c.entries[KernelWrite][v] = 0
		c.entries[UserRead][v] = 0
		c.entries[UserWrite][v] = 0
	}
	c.populated = c.populated[:0]
}

// Install records a translation for the page containing v, mapping it
// to the page-aligned physical offset physPage. It returns the
// kernel-read entry and true, or (0, false) if physPage lies beyond
// mem's bounds (the guest fault is FMEM; the caller latches vadr).
func (c *Cache) Install(mem *memory.Memory, v, physPage uint32, writable, userable bool) (uint32, bool) {
	if physPage >= mem.Size() {
		return 0, false
	}

	vpn := v >> 12
	entry := (((v &^ pageMask) ^ physPage) &^ pageMask) | 1

	if c.entries[KernelRead][vpn] == 0 {
		if len(c.populated) >= c.maxPopulated {
			c.Flush()
		}
		c.populated = append(c.populated, vpn)
	}

	c.entries[KernelRead][vpn] = entry
	if writable {
		c.entries[KernelWrite][vpn] = entry
	} else {
		c.entries[KernelWrite][vpn] = 0
	}
	if userable {
		c.entries[UserRead][vpn] = entry
	} else {
		c.entries[UserRead][vpn] = 0
	}
	if userable && writable {
		c.entries[UserWrite][vpn] = entry
	} else {
		c.entries[UserWrite][vpn] = 0
	}
	return entry, true
}
