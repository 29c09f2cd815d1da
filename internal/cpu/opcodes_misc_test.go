/*
 * vm32 - HALT, IDLE and system-control opcode tests.
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

// fakeKeyboard reports no data until afterPolls polls have gone by,
// then delivers one byte (and optionally the quit sentinel).
type fakeKeyboard struct {
	polls      int
	afterPolls int
	b          byte
	quit       bool
}

func (k *fakeKeyboard) Poll() (byte, bool, bool) {
	k.polls++
	if k.polls <= k.afterPolls {
		return 0, false, false
	}
	return k.b, k.quit, true
}

type fakeConsole struct {
	written []byte
}

func (w *fakeConsole) WriteByte(b byte) error {
	w.written = append(w.written, b)
	return nil
}

func TestHaltReturnsContHalt(t *testing.T) {
	c := newTestCPU(1 << 16)
	if cont := opHalt(c, 0, 0); cont != contHalt {
		t.Errorf("opHalt: continuation %v, want contHalt", cont)
	}
}

func TestNopLeavesStateUnchanged(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.A = 0x42
	if cont := opNop(c, 0, 0); cont != contContinue {
		t.Fatalf("opNop: continuation %v", cont)
	}
	if c.A != 0x42 {
		t.Errorf("opNop: A changed to %#x", c.A)
	}
}

func TestIdleRequiresKernelRing(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.User = true
	if cont := opIdle(c, 0, 0); cont != contDeliverTrap || c.Trap != FPriv|UserOrigin {
		t.Errorf("opIdle in user ring: cont=%v trap=%d, want contDeliverTrap/FPriv|UserOrigin", cont, c.Trap)
	}
}

func TestIdleRequiresInterruptsEnabled(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.IEna = false
	if cont := opIdle(c, 0, 0); cont != contDeliverTrap || c.Trap != FInst {
		t.Errorf("opIdle with interrupts disabled: cont=%v trap=%d, want contDeliverTrap/FInst", cont, c.Trap)
	}
}

func TestIdleDeliversKeyboardTrap(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.IEna = true
	c.keyboard = &fakeKeyboard{afterPolls: 3, b: 'x'}
	cont := opIdle(c, 0, 0)
	if cont != contDeliverTrap {
		t.Fatalf("opIdle: continuation %v, want contDeliverTrap", cont)
	}
	if c.Trap != FKeybd {
		t.Errorf("opIdle: Trap = %d, want FKeybd", c.Trap)
	}
	if c.kbChar != 'x' {
		t.Errorf("opIdle: kbChar = %d, want 'x'", c.kbChar)
	}
	if c.IEna {
		t.Errorf("opIdle: IEna left set after delivering a trap")
	}
}

func TestIdleQuitsOnSentinel(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.IEna = true
	c.keyboard = &fakeKeyboard{quit: true}
	if cont := opIdle(c, 0, 0); cont != contQuit {
		t.Errorf("opIdle with quit sentinel: continuation %v, want contQuit", cont)
	}
}

func TestIdleDeliversTimerTrap(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.IEna = true
	c.keyboard = &fakeKeyboard{afterPolls: 1 << 20} // never fires
	c.timeout = 1
	cont := opIdle(c, 0, 0)
	if cont != contDeliverTrap || c.Trap != FTimer {
		t.Errorf("opIdle timer: cont=%v trap=%d, want contDeliverTrap/FTimer", cont, c.Trap)
	}
}

func TestMsizPrivilegedAndReadsSize(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.User = true
	if cont := opMsiz(c, 0, 0); cont != contDeliverTrap || c.Trap != FPriv|UserOrigin {
		t.Errorf("opMsiz user ring: cont=%v trap=%d, want contDeliverTrap/FPriv|UserOrigin", cont, c.Trap)
	}

	c.User = false
	if cont := opMsiz(c, 0, 0); cont != contContinue {
		t.Fatalf("opMsiz: continuation %v", cont)
	}
	if c.A != c.mem.Size() {
		t.Errorf("opMsiz: A = %d, want %d", c.A, c.mem.Size())
	}
}

func TestBinReadsAndClearsLatchedByte(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.kbChar = 'Q'
	if cont := opBin(c, 0, 0); cont != contContinue {
		t.Fatalf("opBin: continuation %v", cont)
	}
	if c.A != 'Q' {
		t.Errorf("opBin: A = %d, want 'Q'", c.A)
	}
	if c.kbChar != -1 {
		t.Errorf("opBin: kbChar not cleared, got %d", c.kbChar)
	}
}

func TestBoutWritesStdoutOnly(t *testing.T) {
	c := newTestCPU(1 << 16)
	con := &fakeConsole{}
	c.console = con
	c.A, c.B = 1, 'Z'
	if cont := opBout(c, 0, 0); cont != contContinue {
		t.Fatalf("opBout: continuation %v", cont)
	}
	if len(con.written) != 1 || con.written[0] != 'Z' {
		t.Errorf("opBout: wrote %v, want ['Z']", con.written)
	}

	c.A = 2
	if cont := opBout(c, 0, 0); cont != contFatal {
		t.Errorf("opBout bad descriptor: continuation %v, want contFatal", cont)
	}
	if c.FatalErr() == nil {
		t.Errorf("opBout bad descriptor: FatalErr() is nil")
	}
}

func TestCliReportsPriorStateAndDisablesInterrupts(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.IEna = true
	if cont := opCli(c, 0, 0); cont != contContinue {
		t.Fatalf("opCli: continuation %v", cont)
	}
	if c.A != 1 {
		t.Errorf("opCli: A = %d, want 1 (interrupts were enabled)", c.A)
	}
	if c.IEna {
		t.Errorf("opCli: IEna left set")
	}
}

func TestStiEnablesInterrupts(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.IEna = false
	c.IPend = 0
	if cont := opSti(c, 0, 0); cont != contContinue {
		t.Fatalf("opSti: continuation %v", cont)
	}
	if !c.IEna {
		t.Errorf("opSti: IEna not set")
	}
}

func TestStiDeliversPendingInterrupt(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.IPend = FTimer
	cont := opSti(c, 0, 0)
	if cont != contDeliverTrap {
		t.Fatalf("opSti with pending interrupt: continuation %v", cont)
	}
	if c.Trap != FTimer {
		t.Errorf("opSti: Trap = %d, want %d", c.Trap, FTimer)
	}
	if c.IPend != 0 {
		t.Errorf("opSti: IPend not cleared, got %d", c.IPend)
	}
}

func TestPdirRejectsUserRingAndOutOfRangeAddress(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.User = true
	if cont := opPdir(c, 0, 0); cont != contDeliverTrap || c.Trap != FPriv|UserOrigin {
		t.Errorf("opPdir user ring: cont=%v trap=%d, want contDeliverTrap/FPriv|UserOrigin", cont, c.Trap)
	}

	c.User = false
	c.A = c.mem.Size() + 1
	if cont := opPdir(c, 0, 0); cont != contDeliverTrap || c.Trap != FMem {
		t.Errorf("opPdir out of range: cont=%v trap=%d, want contDeliverTrap/FMem", cont, c.Trap)
	}
}

func TestSpagRejectsEnablingWithoutPageDirectory(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.PDir = 0
	c.A = 1
	if cont := opSpag(c, 0, 0); cont != contDeliverTrap || c.Trap != FMem {
		t.Errorf("opSpag without PDir: cont=%v trap=%d, want contDeliverTrap/FMem", cont, c.Trap)
	}
}

func TestTimeArmsTimeout(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.A = 5000
	if cont := opTime(c, 0, raw(0, 0)); cont != contContinue {
		t.Fatalf("opTime: continuation %v", cont)
	}
	if c.timeout != 5000 {
		t.Errorf("opTime: timeout = %d, want 5000", c.timeout)
	}
}

func TestLuspSuspRoundTrip(t *testing.T) {
	c := newTestCPU(1 << 16)
	c.A = 0xABCD
	if cont := opSusp(c, 0, 0); cont != contContinue {
		t.Fatalf("opSusp: continuation %v", cont)
	}
	c.A = 0
	if cont := opLusp(c, 0, 0); cont != contContinue {
		t.Fatalf("opLusp: continuation %v", cont)
	}
	if c.A != 0xABCD {
		t.Errorf("SUSP/LUSP round trip: got %#x, want 0xABCD", c.A)
	}
}

func TestTrapOpcodeRaisesFSys(t *testing.T) {
	c := newTestCPU(1 << 16)
	cont := opTrapOpcode(c, 0, 0)
	if cont != contDeliverTrap || c.Trap != FSys {
		t.Errorf("opTrapOpcode: cont=%v trap=%d, want contDeliverTrap/FSys", cont, c.Trap)
	}
}
