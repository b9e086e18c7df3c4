/*
 * cryptocore - silicon/platform collaborator interface.
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

// Package platform isolates the core from everything the specification
// calls a silicon-specific external collaborator: device identity, NV
// programming, bootloader re-entry, clock switching, idle/halt, and the
// ready pin. Transport start/stop is not part of it; that lives on
// internal/transport's Transport. internal/command and internal/mainloop
// only ever see the Platform interface.
package platform

import "github.com/rcornwell/cryptocore/internal/nvstore"

// Page identifies which of the two NV pages a write targets.
type Page int

const (
	Page0 Page = iota
	Page1
)

// Platform is every capability the core imports from its environment.
type Platform interface {
	// ReadDeviceUID latches the 16-byte device identity. Called once at
	// init by the caller that owns window setup. Implementations fill
	// the returned value with 0xFF and report a non-nil error if
	// latching fails, matching the original firmware's contract; the
	// caller copies the returned bytes into the window either way.
	ReadDeviceUID() ([16]byte, error)

	// NVWritePage erases and programs one 64-byte NV page, and on
	// success updates the shared *nvstore.Store this Platform was
	// constructed with. It reports false on any erase/program failure.
	NVWritePage(page Page, contents [nvstore.PageSize]byte) bool

	// EnterBootloader is non-returning on success; returning at all
	// means it failed.
	EnterBootloader() error

	// SwitchToExternalClock reconfigures the system clock source.
	SwitchToExternalClock() error

	// Idle is a cheap, non-blocking per-iteration hook the main loop
	// calls just before it blocks on the wake channel - a spot for a
	// power-management courtesy call. It must never block.
	Idle()

	// Halt is the non-recoverable panic path for an internal
	// impossible state. It does not return.
	Halt(reason string)

	// SetReadyPin asserts or deasserts the external READY signal.
	SetReadyPin(asserted bool)
}

// StoreProvider is implemented by platforms that expose, through Store, the
// NV store backing their NVWritePage calls (NV is read as ordinary memory;
// only writes are mediated).
type StoreProvider interface {
	Store() *nvstore.Store
}
