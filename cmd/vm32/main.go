/*
 * vm32 - Main process.
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

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	getopt "github.com/pborman/getopt/v2"
	"golang.org/x/term"

	"github.com/rcornwell/vm32/internal/cpu"
	"github.com/rcornwell/vm32/internal/debugger"
	"github.com/rcornwell/vm32/internal/device"
	"github.com/rcornwell/vm32/internal/loader"
	"github.com/rcornwell/vm32/internal/vmlog"
)

// defaultMemSize matches the reference emulator's default 128MB machine.
const defaultMemSize = 128 * 1024 * 1024

func main() {
	optVerbose := getopt.BoolLong("verbose", 'v', "Verbose startup diagnostics")
	optDebug := getopt.BoolLong("debug", 'g', "Start in the interactive line debugger")
	optMemMB := getopt.IntLong("mem", 'm', 128, "Memory size in megabytes")
	optFS := getopt.StringLong("filesys", 'f', "", "RAM filesystem image to load")
	optLog := getopt.StringLong("log", 'l', "", "Log file")
	getopt.SetParameters("file")
	getopt.Parse()

	args := getopt.Args()
	if len(args) != 1 {
		getopt.Usage()
		os.Exit(1)
	}
	file := args[0]

	var logFile *os.File
	if *optLog != "" {
		var err error
		logFile, err = os.Create(*optLog)
		if err != nil {
			os.Stderr.WriteString("vm32: " + err.Error() + "\n")
			os.Exit(1)
		}
		defer logFile.Close()
	}
	handler := vmlog.NewHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug}, *optVerbose)
	logger := slog.New(handler)
	slog.SetDefault(logger)

	memSize := uint32(*optMemMB) * 1024 * 1024
	if memSize == 0 {
		memSize = defaultMemSize
	}

	if *optVerbose {
		logger.Debug("mem size", "bytes", memSize)
	}

	var oldState *term.State
	if term.IsTerminal(int(os.Stdin.Fd())) {
		var err error
		oldState, err = term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			logger.Error("enable raw mode", "error", err)
			os.Exit(1)
		}
		defer term.Restore(int(os.Stdin.Fd()), oldState)
	}

	keyboard := device.NewKeyboard(os.Stdin)
	console := device.NewConsole(os.Stdout)

	c := cpu.New(cpu.Config{
		MemSize:  memSize,
		Keyboard: keyboard,
		Console:  console,
		Logger:   vmlog.CPULogger{Log: logger},
	})

	if *optFS != "" {
		if *optVerbose {
			logger.Debug("loading ram filesystem", "path", *optFS)
		}
		if err := loader.LoadFilesystem(c.Memory(), *optFS); err != nil {
			logger.Error(err.Error())
			restoreAndExit(oldState, 1)
		}
	}

	hdr, err := loader.LoadProgram(c.Memory(), file)
	if err != nil {
		logger.Error(err.Error())
		restoreAndExit(oldState, 1)
	}
	c.SetEntry(hdr.Entry)
	initialSP := c.Memory().Size() - loader.FSSize
	c.Reset(initialSP)

	if *optDebug {
		if *optVerbose {
			logger.Debug("in debugger mode")
		}
		dbg := debugger.New()
		defer dbg.Close()
		dbg.Attach(c)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		restoreAndExit(oldState, 1)
	}()

	if *optVerbose {
		logger.Debug("emulating", "file", file)
	}

	reason := c.Run()
	switch reason {
	case cpu.HaltFatal:
		logger.Error("fatal", "error", c.FatalErr())
		restoreAndExit(oldState, 1)
	case cpu.HaltInstruction:
		if *optVerbose {
			logger.Debug("halt", "a", c.A, "cycles", c.Cycles())
		}
	case cpu.HaltQuit:
		os.Stderr.WriteString("ungraceful exit. cycle = " + strconv.FormatUint(c.Cycles(), 10) + "\n")
	}
	if reason != cpu.HaltInstruction || c.A != 0 {
		restoreAndExit(oldState, 1)
	}
	restoreTerm(oldState)
}

func restoreTerm(oldState *term.State) {
	if oldState != nil {
		term.Restore(int(os.Stdin.Fd()), oldState)
	}
}

func restoreAndExit(oldState *term.State, code int) {
	restoreTerm(oldState)
	os.Exit(code)
}
