/*
 * cryptocore - main command-dispatch loop.
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

// Package mainloop drives the command engine forward. It owns the
// external READY signal: asserted while idle, deasserted for the
// duration of a dispatch. This mirrors the teacher's emu/core event
// loop, which selects on a done channel and a wake channel and shuts
// down cooperatively via a WaitGroup and a timeout.
package mainloop

import (
	"context"
	"log/slog"
	"time"

	"github.com/rcornwell/cryptocore/internal/byteport"
	"github.com/rcornwell/cryptocore/internal/command"
	"github.com/rcornwell/cryptocore/internal/platform"
)

// StopTimeout is how long the daemon waits, through Wait, for the loop
// goroutine to exit at shutdown.
const StopTimeout = 2 * time.Second

// Loop runs the command engine's fetch-dispatch cycle on its own
// goroutine.
type Loop struct {
	port *byteport.Port
	eng  *command.Engine
	plat platform.Platform
	log  *slog.Logger

	done chan struct{}
}

// New constructs a Loop over the given byte-port, command engine, and
// platform.
func New(port *byteport.Port, eng *command.Engine, plat platform.Platform, log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{port: port, eng: eng, plat: plat, log: log, done: make(chan struct{})}
}

// Run blocks, driving the loop until ctx is canceled. It recovers a
// platform.HaltError panic from a dispatch and returns after logging it,
// matching the specification's "halt and spin" path translated into a
// clean goroutine exit on a hosted target.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	l.plat.SetReadyPin(true)
	l.log.Info("main loop started")

	for {
		l.plat.Idle()

		select {
		case <-ctx.Done():
			l.log.Info("main loop stopping")
			return
		case <-l.port.Wake():
		}

		l.plat.SetReadyPin(false)
		if l.dispatchSafely() {
			return
		}
		l.plat.SetReadyPin(true)
	}
}

// dispatchSafely runs one dispatch and reports whether it halted.
func (l *Loop) dispatchSafely() (halted bool) {
	defer func() {
		if r := recover(); r != nil {
			if he, ok := r.(*platform.HaltError); ok {
				l.log.Error("dispatch halted", "reason", he.Reason)
				halted = true
				return
			}
			panic(r)
		}
	}()
	l.eng.Dispatch()
	return false
}

// Wait blocks until Run has returned or timeout has elapsed, and reports
// whether Run returned. Run stops once the context it was given is
// canceled, so callers cancel that context first.
func (l *Loop) Wait(timeout time.Duration) bool {
	select {
	case <-l.done:
		return true
	case <-time.After(timeout):
		return false
	}
}
