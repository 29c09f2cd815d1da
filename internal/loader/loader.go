/*
 * vm32 - Executable header and RAM filesystem loader.
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

// Package loader reads the 16-byte executable header the guest binary
// is prefixed with, loads its image at guest physical address zero,
// and optionally loads a RAM-filesystem image at the top of memory.
package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rcornwell/vm32/internal/memory"
)

// Magic is the executable header's required first word.
const Magic uint32 = 0xC0DEF00D

// headerSize is the four-uint32 on-disk header: magic, bss, entry, flags.
const headerSize = 16

// FSSize is the fixed RAM-filesystem region size, reserved at the top
// of guest memory.
const FSSize = 4 * 1024 * 1024

// Header is the executable image's 16-byte prefix.
type Header struct {
	Magic uint32
	BSS   uint32
	Entry uint32
	Flags uint32
}

// ErrBadMagic is returned when a program image's header magic does not
// match Magic.
var ErrBadMagic = errors.New("loader: bad executable magic")

// LoadProgram reads path's header, validates its magic, and copies the
// remainder of the file into mem starting at physical address 0. It
// returns the parsed header, whose Entry field is the guest's initial
// program counter.
func LoadProgram(mem *memory.Memory, path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()

	var raw [headerSize]byte
	if _, err := io.ReadFull(f, raw[:]); err != nil {
		return Header{}, fmt.Errorf("loader: read header of %s: %w", path, err)
	}
	hdr := Header{
		Magic: binary.LittleEndian.Uint32(raw[0:4]),
		BSS:   binary.LittleEndian.Uint32(raw[4:8]),
		Entry: binary.LittleEndian.Uint32(raw[8:12]),
		Flags: binary.LittleEndian.Uint32(raw[12:16]),
	}
	if hdr.Magic != Magic {
		return Header{}, fmt.Errorf("%w: %s", ErrBadMagic, path)
	}

	image, err := io.ReadAll(f)
	if err != nil {
		return Header{}, fmt.Errorf("loader: read image %s: %w", path, err)
	}
	if !mem.InBounds(0, uint32(len(image))) {
		return Header{}, fmt.Errorf("loader: image %s (%d bytes) larger than memory", path, len(image))
	}
	copy(mem.Bytes(), image)
	return hdr, nil
}

// LoadFilesystem reads path in full and copies it to the RAM-filesystem
// region at the top of mem (mem.Size()-FSSize). It is a no-op returning
// nil when path is empty, matching the -f flag's optional nature.
func LoadFilesystem(mem *memory.Memory, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("loader: read filesystem %s: %w", path, err)
	}
	if uint32(len(data)) > FSSize {
		return fmt.Errorf("loader: filesystem %s (%d bytes) exceeds reserved %d bytes", path, len(data), FSSize)
	}
	base := mem.Size() - FSSize
	copy(mem.Bytes()[base:], data)
	return nil
}
