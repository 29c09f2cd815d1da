/*
 * vm32 - CPU register file and construction.
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

// Package cpu implements the interpreter: registers, the fetch fast
// path, the opcode dispatch table, and the trap/interrupt controller.
package cpu

import (
	"github.com/rcornwell/vm32/internal/memory"
	"github.com/rcornwell/vm32/internal/mmu"
)

// Fault codes, classified per the original emulator's enum. USER is
// ORed into Trap (not a bit index) to mark that a fault originated in
// user ring; RTI inspects it to restore the correct ring.
const (
	FMem   uint32 = 0 // bad physical address
	FTimer uint32 = 1 // timer interrupt
	FKeybd uint32 = 2 // keyboard interrupt
	FPriv  uint32 = 3 // privileged instruction in user ring
	FInst  uint32 = 4 // illegal instruction
	FSys   uint32 = 5 // software trap (TRAP opcode)
	FArith uint32 = 6 // integer/float divide or modulo by zero
	FIPage uint32 = 7 // page fault on instruction fetch
	FWPage uint32 = 8 // page fault on write
	FRPage uint32 = 9 // page fault on read

	UserOrigin uint32 = 16 // ORed into Trap: fault originated in user ring
)

// pollDelta is the instruction-count granularity of the keyboard/timer
// poll, per spec.md's "coarse cycle boundaries".
const pollDelta = 4096

// Keyboard is the non-blocking keyboard source the host I/O bridge
// polls between instructions and inside IDLE.
type Keyboard interface {
	// Poll performs a single non-blocking check for an available
	// byte. quit reports the diagnostic backtick-quit sentinel.
	Poll() (b byte, quit bool, ok bool)
}

// Console is the blocking single-byte console sink BOUT writes to.
type Console interface {
	WriteByte(b byte) error
}

// Logger receives the interpreter's verbose diagnostics (TIME's
// undocumented dump mode, startup banners). A nil Logger silently
// drops them.
type Logger interface {
	Debugf(format string, args ...any)
}

// HaltReason distinguishes why Run returned.
type HaltReason int

const (
	HaltNone HaltReason = iota
	HaltInstruction      // guest executed HALT
	HaltQuit             // backtick typed at the keyboard
	HaltFatal            // an unrecoverable host-side condition
)

// opFunc implements one opcode. raw is the full 32-bit instruction
// word (low byte already consumed as the opcode); imm is the signed
// 24-bit immediate, already shifted down (raw>>8, sign-extended).
type opFunc func(c *CPU, imm int32, raw uint32) continuation

// continuation is what the dispatch loop does after an opcode handler
// returns, per the design notes' suggested state machine.
type continuation int

const (
	contContinue    continuation = iota
	contDeliverTrap              // c.Trap is set; deliver it
	contHalt                     // guest halted
	contQuit                     // backtick read from keyboard while idling
	contFatal                    // host-fatal; c.fatalErr is set
)

// CPU holds the entire architectural and fast-path state of the
// virtual machine. It is created once per emulator instance and is
// never accessed from more than one goroutine.
type CPU struct {
	// Architectural integer/float registers.
	A, B, C uint32
	F, G    float64

	// Stack pointers; exactly one is "live" as the fast-path xsp/tsp/fsp
	// shadow at any time, selected by User.
	SSP, USP uint32

	User bool
	IEna bool

	IPend uint32
	Trap  uint32
	IVec  uint32

	PDir uint32
	VMem bool
	VAdr uint32

	// Fast-path shadow registers (see spec.md data model).
	xpc, tpc, fpc uint32
	xsp, tsp, fsp uint32

	entryPC uint32 // initial guest PC, used only at reset

	cycles  uint64 // total retired instructions, for CYC
	sinceIO uint32 // instructions since the last poll
	timer   uint32
	timeout uint32

	kbChar  int32 // latched keyboard byte, -1 if none
	running bool

	mem    *memory.Memory
	tc     *mmu.Cache
	walker *mmu.Walker

	keyboard Keyboard
	console  Console
	logger   Logger

	table [256]opFunc

	haltReason HaltReason
	fatalErr   error

	// debugStep, when non-nil, is invoked before every instruction and
	// may block for interactive input (the -g debugger).
	debugStep func(c *CPU) DebugAction
}

// DebugAction is returned by the -g debugger's step hook.
type DebugAction int

const (
	DebugContinue DebugAction = iota // run normally, no more prompts
	DebugStep                        // execute exactly one instruction, prompt again
	DebugQuit                        // terminate the emulator immediately
)

// Config bundles the construction-time parameters for a CPU.
type Config struct {
	MemSize        uint32
	EntryPC        uint32
	InitialSP      uint32
	MaxTLBEntries  int
	Keyboard       Keyboard
	Console        Console
	Logger         Logger
}

// New builds a CPU over a freshly allocated physical memory of
// cfg.MemSize bytes and resets it to its initial state.
func New(cfg Config) *CPU {
	mem := memory.New(cfg.MemSize)
	tc := mmu.NewCache(cfg.MaxTLBEntries)
	c := &CPU{
		mem:      mem,
		tc:       tc,
		walker:   mmu.NewWalker(tc, mem),
		keyboard: cfg.Keyboard,
		console:  cfg.Console,
		logger:   cfg.Logger,
		entryPC:  cfg.EntryPC,
	}
	c.buildTable()
	c.Reset(cfg.InitialSP)
	return c
}

// Memory exposes the physical memory, for the loader.
func (c *CPU) Memory() *memory.Memory { return c.mem }

// Reset restores the CPU to its power-on state: all registers zero
// except PC (entry point) and SP (initialSP), paging disabled,
// interrupts disabled.
func (c *CPU) Reset(initialSP uint32) {
	c.A, c.B, c.C = 0, 0, 0
	c.F, c.G = 0, 0
	c.SSP, c.USP = initialSP, 0
	c.User = false
	c.IEna = false
	c.IPend = 0
	c.Trap = 0
	c.IVec = 0
	c.PDir = 0
	c.VMem = false
	c.VAdr = 0
	c.timer = 0
	c.timeout = 0
	c.kbChar = -1
	c.cycles = 0
	c.sinceIO = 0
	c.tc.Flush()
	c.xsp, c.tsp, c.fsp = initialSP, 0, 0
	c.setGuestPC(c.entryPC)
}

// SetEntry overrides the guest program counter Reset installs; the
// loader calls this once it has parsed the executable header, before
// the Reset that starts the program (New has already run one Reset).
func (c *CPU) SetEntry(pc uint32) {
	c.entryPC = pc
}

// GuestPC returns the architectural program counter. The fast path
// keeps it implicit as xpc-tpc; this reconstructs it on demand.
func (c *CPU) GuestPC() uint32 {
	return c.xpc - c.tpc
}

// GuestSP returns the architectural, currently-live stack pointer.
func (c *CPU) GuestSP() uint32 {
	return c.xsp - c.tsp
}

// HaltReason reports why Run last returned.
func (c *CPU) HaltReason() HaltReason { return c.haltReason }

// FatalErr returns the host-fatal diagnostic, if HaltReason is HaltFatal.
func (c *CPU) FatalErr() error { return c.fatalErr }

// Cycles returns the retired-instruction count (CYC's value).
func (c *CPU) Cycles() uint64 { return c.cycles }

// SetDebugHook installs the -g debugger's step callback.
func (c *CPU) SetDebugHook(fn func(c *CPU) DebugAction) {
	c.debugStep = fn
}
