/*
 * vm32 - Interactive line debugger.
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

// Package debugger implements the -g line debugger: a liner-backed
// read-eval loop offering help (h), quit (q), continue (c), single
// step (s), register dump (i) and memory dump (x) commands, driven
// from the interpreter's per-instruction debug hook.
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/rcornwell/vm32/internal/cpu"
	"github.com/rcornwell/vm32/util/hexfmt"
)

const helpText = `
h:	print help commands.
q:	quit.
c:	continue.
s:	single step for one instruction.
i:	display registers.
x:	display memory, the input address is a hex number (e.g. x 10000)
`

// Debugger owns the liner session and is installed as the CPU's debug
// hook via Attach.
type Debugger struct {
	line *liner.State
}

// New starts a liner session reading from the controlling terminal.
func New() *Debugger {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(in string) []string {
		var out []string
		for _, c := range []string{"h", "q", "c", "s", "i", "x"} {
			if strings.HasPrefix(c, in) {
				out = append(out, c)
			}
		}
		return out
	})
	return &Debugger{line: line}
}

// Close releases the underlying terminal state.
func (d *Debugger) Close() {
	d.line.Close()
}

// Attach installs this debugger as c's per-instruction step hook.
func (d *Debugger) Attach(c *cpu.CPU) {
	c.SetDebugHook(d.step)
}

func (d *Debugger) step(c *cpu.CPU) cpu.DebugAction {
	for {
		input, err := d.line.Prompt("dbg => ")
		if err != nil {
			return cpu.DebugQuit
		}
		d.line.AppendHistory(input)

		fields := strings.Fields(input)
		if len(fields) == 0 {
			fmt.Print(helpText)
			continue
		}

		switch fields[0] {
		case "c":
			return cpu.DebugContinue
		case "s":
			pc := c.GuestPC()
			var word uint32
			for i := uint32(0); i < 4; i++ {
				b, _ := c.PeekByte(pc + i)
				word |= uint32(b) << (8 * i)
			}
			fmt.Printf("[%s] %s\n", hexfmt.Word(pc), hexfmt.Word(word))
			return cpu.DebugStep
		case "q":
			return cpu.DebugQuit
		case "i":
			printRegisters(c)
		case "x":
			if len(fields) != 2 {
				fmt.Println("invalid address.")
				continue
			}
			u, err := strconv.ParseUint(fields[1], 16, 32)
			if err != nil {
				fmt.Printf("invalid address: %s.\n", fields[1])
				continue
			}
			addr := uint32(u)
			b, ok := c.PeekByte(addr)
			if !ok {
				fmt.Printf("invalid address: %s.\n", fields[1])
				continue
			}
			fmt.Printf("[%s]: %02x\n", hexfmt.Word(addr), b)
		case "h":
			fallthrough
		default:
			fmt.Print(helpText)
		}
	}
}

func printRegisters(c *cpu.CPU) {
	fmt.Printf(
		"ra:\t%x\nrb:\t%x\nrc:\t%x\nrd:\t%s\t[cur sp]\nre:\t%s\t[next pc]\n"+
			"ff:\t%f\nfg:\t%f\n\nuser:\t%v\t\t[user mode or not]\n"+
			"iena:\t%v\t\t[interrupt flag]\ntrap:\t%x\t\t[current trap]\n\n",
		c.A, c.B, c.C, hexfmt.Word(c.GuestSP()), hexfmt.Word(c.GuestPC()),
		c.F, c.G, c.User, c.IEna, c.Trap,
	)
}
