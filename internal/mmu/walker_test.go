/*
 * vm32 - Page table walker tests.
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

import (
	"testing"

	"github.com/rcornwell/vm32/internal/memory"
)

func TestWalkIdentityMapsWhenPagingDisabled(t *testing.T) {
	mem := memory.New(1 << 16)
	cache := NewCache(0)
	w := NewWalker(cache, mem)

	entry, fault := w.Walk(0x4567, false, false, 0, false)
	if fault != FaultNone {
		t.Fatalf("Walk: fault = %v, want FaultNone", fault)
	}
	if host := Translate(0x4567, entry, MaskByte); host != 0x4567 {
		t.Errorf("Walk identity map: host = %#x, want 0x4567", host)
	}
}

// buildPageTable installs a single present, writable, user-accessible
// mapping from guest page 0 to physical page physPage, at page
// directory pdir and page table ptPage, both given as physical page
// bases.
func buildPageTable(mem *memory.Memory, pdir, ptPage, physPage uint32) {
	mem.WriteWord(pdir, ptPage|PteP|PteW|PteU)
	mem.WriteWord(ptPage, physPage|PteP|PteW|PteU)
}

func TestWalkResolvesTwoLevelPageTable(t *testing.T) {
	mem := memory.New(1 << 20)
	cache := NewCache(0)
	w := NewWalker(cache, mem)

	const pdir, ptPage, physPage = 0x1000, 0x2000, 0x3000
	buildPageTable(mem, pdir, ptPage, physPage)

	entry, fault := w.Walk(0x10, false, true, pdir, false)
	if fault != FaultNone {
		t.Fatalf("Walk: fault = %v, want FaultNone", fault)
	}
	if host := Translate(0x10, entry, MaskByte); host != physPage+0x10 {
		t.Errorf("Walk: host = %#x, want %#x", host, physPage+0x10)
	}
}

func TestWalkFaultsOnMissingPageDirectoryEntry(t *testing.T) {
	mem := memory.New(1 << 20)
	cache := NewCache(0)
	w := NewWalker(cache, mem)

	const pdir = 0x1000
	mem.WriteWord(pdir, 0) // not present

	_, fault := w.Walk(0x10, false, true, pdir, false)
	if fault != FaultPage {
		t.Errorf("Walk with absent PDE: fault = %v, want FaultPage", fault)
	}
}

func TestWalkFaultsOnMissingPageTableEntry(t *testing.T) {
	mem := memory.New(1 << 20)
	cache := NewCache(0)
	w := NewWalker(cache, mem)

	const pdir, ptPage = 0x1000, 0x2000
	mem.WriteWord(pdir, ptPage|PteP|PteW|PteU)
	mem.WriteWord(ptPage, 0) // PTE not present

	_, fault := w.Walk(0x10, false, true, pdir, false)
	if fault != FaultPage {
		t.Errorf("Walk with absent PTE: fault = %v, want FaultPage", fault)
	}
}

func TestWalkDeniesUserAccessToKernelOnlyPage(t *testing.T) {
	mem := memory.New(1 << 20)
	cache := NewCache(0)
	w := NewWalker(cache, mem)

	const pdir, ptPage, physPage = 0x1000, 0x2000, 0x3000
	mem.WriteWord(pdir, ptPage|PteP|PteW|PteU)
	mem.WriteWord(ptPage, physPage|PteP|PteW) // no PteU

	_, fault := w.Walk(0x10, false, true, pdir, true)
	if fault != FaultPage {
		t.Errorf("Walk user access to kernel page: fault = %v, want FaultPage", fault)
	}
}

func TestWalkDeniesWriteToReadOnlyPage(t *testing.T) {
	mem := memory.New(1 << 20)
	cache := NewCache(0)
	w := NewWalker(cache, mem)

	const pdir, ptPage, physPage = 0x1000, 0x2000, 0x3000
	mem.WriteWord(pdir, ptPage|PteP|PteW|PteU)
	mem.WriteWord(ptPage, physPage|PteP|PteU) // no PteW

	_, fault := w.Walk(0x10, true, true, pdir, false)
	if fault != FaultPage {
		t.Errorf("Walk write to read-only page: fault = %v, want FaultPage", fault)
	}
}

func TestWalkFaultsOnOutOfBoundsPageDirectory(t *testing.T) {
	mem := memory.New(1 << 16)
	cache := NewCache(0)
	w := NewWalker(cache, mem)

	_, fault := w.Walk(0x10, false, true, mem.Size(), false)
	if fault != FaultMem {
		t.Errorf("Walk with out-of-bounds pdir: fault = %v, want FaultMem", fault)
	}
}

func TestWalkSetsAccessedBit(t *testing.T) {
	mem := memory.New(1 << 20)
	cache := NewCache(0)
	w := NewWalker(cache, mem)

	const pdir, ptPage, physPage = 0x1000, 0x2000, 0x3000
	buildPageTable(mem, pdir, ptPage, physPage)

	if _, fault := w.Walk(0x10, false, true, pdir, false); fault != FaultNone {
		t.Fatalf("Walk: fault = %v", fault)
	}
	if pde := mem.ReadWord(pdir); pde&PteA == 0 {
		t.Errorf("Walk: PDE accessed bit not set")
	}
	if pte := mem.ReadWord(ptPage); pte&PteA == 0 {
		t.Errorf("Walk: PTE accessed bit not set")
	}
}
