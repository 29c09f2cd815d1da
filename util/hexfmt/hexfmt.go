/*
 * vm32 - Hex formatting helpers.
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

// Package hexfmt formats words and byte ranges as hex text for the
// debugger's x command and register dumps.
package hexfmt

import "strings"

var hexMap = "0123456789ABCDEF"

// FormatWord writes each of words as an 8-digit uppercase hex field
// followed by a space.
func FormatWord(str *strings.Builder, words []uint32) {
	for _, full := range words {
		shift := 28
		for range 8 {
			str.WriteByte(hexMap[(full>>shift)&0xf])
			shift -= 4
		}
		str.WriteByte(' ')
	}
}

// Word formats a single 32-bit value as an 8-digit hex string with no
// trailing space, for inline use in log lines and prompts.
func Word(v uint32) string {
	var b strings.Builder
	shift := 28
	for range 8 {
		b.WriteByte(hexMap[(v>>shift)&0xf])
		shift -= 4
	}
	return b.String()
}

// FormatBytes writes data as two-digit hex pairs, space-separated when
// space is true.
func FormatBytes(str *strings.Builder, space bool, data []byte) {
	for _, by := range data {
		str.WriteByte(hexMap[(by>>4)&0xf])
		str.WriteByte(hexMap[by&0xf])
		if space {
			str.WriteByte(' ')
		}
	}
}

// Dump renders a contiguous memory range as an address-prefixed hex
// dump, sixteen bytes per line. The debugger's x command prints a
// single byte and does not use it.
func Dump(base uint32, data []byte) string {
	var b strings.Builder
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		b.WriteString(Word(base + uint32(off)))
		b.WriteString(": ")
		FormatBytes(&b, true, data[off:end])
		b.WriteByte('\n')
	}
	return b.String()
}
