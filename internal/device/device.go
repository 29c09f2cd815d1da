/*
 * vm32 - Keyboard and console host I/O bridge.
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

// Package device implements the two fixed-function host I/O devices
// the machine exposes to the guest: a non-blocking keyboard (BIN, and
// the keyboard interrupt) and a blocking single-byte console (BOUT).
// Neither models a channel or a controller; the guest talks to them
// directly through the two privileged opcodes.
package device

import (
	"bufio"
	"io"
)

// quitByte is the backtick sentinel: typed at the keyboard, it
// terminates the emulator immediately rather than being delivered to
// the guest as a keyboard interrupt.
const quitByte = '`'

// Keyboard reads single bytes from an underlying reader (stdin, put in
// raw/non-canonical mode by the caller) on a background goroutine and
// makes them available to the interpreter's non-blocking poll.
type Keyboard struct {
	ch   chan byte
	errc chan error
}

// NewKeyboard starts the background reader over r. r should already be
// in raw mode (see cmd/vm32) so bytes arrive one at a time without
// waiting for a newline.
func NewKeyboard(r io.Reader) *Keyboard {
	k := &Keyboard{
		ch:   make(chan byte, 16),
		errc: make(chan error, 1),
	}
	go k.readLoop(bufio.NewReader(r))
	return k
}

func (k *Keyboard) readLoop(r *bufio.Reader) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			k.errc <- err
			return
		}
		k.ch <- b
	}
}

// Poll implements cpu.Keyboard: a non-blocking check for a byte
// already buffered by the background reader.
func (k *Keyboard) Poll() (b byte, quit bool, ok bool) {
	select {
	case b = <-k.ch:
		return b, b == quitByte, true
	case <-k.errc:
		// stdin closed (EOF/error): treat exactly like the quit
		// sentinel so a piped-in session still terminates cleanly.
		return 0, true, true
	default:
		return 0, false, false
	}
}

// Console is the blocking single-byte console sink BOUT writes to.
type Console struct {
	w io.Writer
}

// NewConsole wraps w (stdout) as a cpu.Console.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) WriteByte(b byte) error {
	_, err := c.w.Write([]byte{b})
	return err
}
