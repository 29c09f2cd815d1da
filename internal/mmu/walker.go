/*
 * vm32 - Page table walker.
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

package mmu

import "github.com/rcornwell/vm32/internal/memory"

// Page-table entry flag bits, identical for page-directory and
// page-table entries.
const (
	PteP uint32 = 1 << 0 // present
	PteW uint32 = 1 << 1 // writeable
	PteU uint32 = 1 << 2 // user-accessible
	PteA uint32 = 1 << 5 // accessed
	PteD uint32 = 1 << 6 // dirty
)

// pteAddrMask extracts the physical page base from a PDE/PTE.
const pteAddrMask = ^uint32(0xFFF)

// FaultKind classifies a Walk failure. The caller picks the exact
// guest trap code: a bad physical address is always FMEM; a
// permission/presence miss is FRPAGE, FWPAGE, or FIPAGE depending on
// whether the walk was for a read, a write, or an instruction fetch.
type FaultKind int

const (
	FaultNone FaultKind = iota
	FaultMem
	FaultPage
)

// Walker resolves guest virtual addresses against the two-level guest
// page tables living in physical memory, installing resulting
// translations into a Cache.
type Walker struct {
	cache *Cache
	mem   *memory.Memory
}

// NewWalker builds a walker over mem, installing translations into cache.
func NewWalker(cache *Cache, mem *memory.Memory) *Walker {
	return &Walker{cache: cache, mem: mem}
}

// Walk resolves v, installs the resulting translation, and returns
// the raw cache entry. vmem, pdir, and user reflect the CPU's current
// paging state at the time of the walk.
func (w *Walker) Walk(v uint32, forWrite, vmem bool, pdir uint32, user bool) (uint32, FaultKind) {
	if !vmem {
		entry, ok := w.cache.Install(w.mem, v, v, true, true)
		if !ok {
			return 0, FaultMem
		}
		return entry, FaultNone
	}

	pdeAddr := pdir + (v>>22)*4
	if !w.mem.InBounds(pdeAddr, 4) {
		return 0, FaultMem
	}
	pde := w.mem.ReadWord(pdeAddr)
	if pde&PteP == 0 {
		return 0, FaultPage
	}
	if pde&PteA == 0 {
		w.mem.WriteWord(pdeAddr, pde|PteA)
	}

	ptTable := pde & pteAddrMask
	if ptTable >= w.mem.Size() {
		return 0, FaultMem
	}

	pteAddr := ptTable + ((v >> 10) & 0xFFC)
	if !w.mem.InBounds(pteAddr, 4) {
		return 0, FaultMem
	}
	pte := w.mem.ReadWord(pteAddr)

	q := pde & pte
	userable := q&PteU != 0

	if pte&PteP == 0 || (!userable && user) {
		return 0, FaultPage
	}

	if forWrite && q&PteW == 0 {
		return 0, FaultPage
	}

	if forWrite {
		if pte&(PteD|PteA) != (PteD | PteA) {
			w.mem.WriteWord(pteAddr, pte|PteD|PteA)
		}
	} else if pte&PteA == 0 {
		w.mem.WriteWord(pteAddr, pte|PteA)
	}

	physPage := pte & pteAddrMask
	var writable bool
	if forWrite {
		writable = q&PteW != 0
	} else {
		writable = pte&PteD != 0 && q&PteW != 0
	}

	entry, ok := w.cache.Install(w.mem, v, physPage, writable, userable)
	if !ok {
		return 0, FaultMem
	}
	return entry, FaultNone
}
