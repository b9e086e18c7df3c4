/*
 * cryptocore - byte-port state machine.
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

// Package byteport implements the transport-facing side of the core: the
// ReadByte/WriteByte pair a transport calls once per wire byte, from what
// the device's original firmware called interrupt context. It owns the
// busy-mask visibility rule, the monotone volatile-locks policy, and the
// wake signal that hands a command off to the main loop.
//
// ReadByte and WriteByte may be called concurrently with the command
// dispatcher that eventually calls Complete; the only state shared across
// that boundary is commandActive (an atomic.Bool) and the 4-byte
// VolatileBits/VolatileLocks pair, which is guarded by a mutex so Quote can
// sample it coherently (see internal/command).
package byteport

import (
	"sync"
	"sync/atomic"

	"github.com/rcornwell/cryptocore/internal/iowindow"
)

// Port mediates host access to a Window across the interrupt-context /
// main-context boundary described in the device's concurrency model.
type Port struct {
	win *iowindow.Window

	commandActive atomic.Bool

	// volMu guards VOLATILE_BITS and VOLATILE_LOCKS so that a coherent
	// 4+4 byte pair can be sampled (by Quote) without an intervening
	// host write, matching the "interrupt-masked critical section"
	// rule.
	volMu sync.Mutex

	// wake is the main-loop's event-wait channel. A successful CMD
	// write sends a single token; the main loop drains it with select.
	wake chan struct{}
}

// New creates a Port over win. The wake channel holds one token: at most
// one pending command can ever be outstanding because CMD writes are
// rejected while commandActive is set.
func New(win *iowindow.Window) *Port {
	return &Port{
		win:  win,
		wake: make(chan struct{}, 1),
	}
}

// Wake returns the channel the main loop selects on to learn a command has
// been posted.
func (p *Port) Wake() <-chan struct{} {
	return p.wake
}

// CommandActive reports whether a command is currently being dispatched.
func (p *Port) CommandActive() bool {
	return p.commandActive.Load()
}

// ReadByte implements the host's read side of the wire contract. Called
// from interrupt context.
func (p *Port) ReadByte(addr uint8) uint8 {
	if p.commandActive.Load() && int(addr) <= iowindow.OffStat {
		return iowindow.StatBusy
	}
	return p.win.Byte(int(addr))
}

// WriteByte implements the host's write side of the wire contract. Called
// from interrupt context.
func (p *Port) WriteByte(addr uint8, data uint8) {
	a := int(addr)

	switch {
	case a == iowindow.OffCmd:
		if p.commandActive.Load() {
			return
		}
		p.win.SetByte(iowindow.OffCmd, data)
		p.win.SetByte(iowindow.OffStat, iowindow.StatBusy)
		p.win.SetByte(iowindow.OffRet0, 0)
		p.win.SetByte(iowindow.OffRet1, 0)
		p.win.SetByte(iowindow.OffRet2, 0)
		p.commandActive.Store(true)
		select {
		case p.wake <- struct{}{}:
		default:
		}

	case a >= iowindow.OffVolatileLocks && a < iowindow.OffVolatileLocks+iowindow.SizeVolatileLocks:
		p.volMu.Lock()
		locks := p.win.VolatileLocks()
		locks[a-iowindow.OffVolatileLocks] |= data
		p.volMu.Unlock()

	case a >= iowindow.OffVolatileBits && a < iowindow.OffVolatileBits+iowindow.SizeVolatileBits:
		p.volMu.Lock()
		i := a - iowindow.OffVolatileBits
		m := p.win.VolatileLocks()[i]
		bits := p.win.VolatileBits()
		bits[i] = (bits[i] & m) | (data &^ m)
		p.volMu.Unlock()

	case a < iowindow.OffStat && !p.commandActive.Load():
		p.win.SetByte(a, data)

	default:
		// All other writes (including to STAT, RET_x, or anywhere
		// while a command is active) are silently ignored.
	}
}

// SampleVolatile returns a coherent snapshot of VOLATILE_BITS and
// VOLATILE_LOCKS, used by the Quote handler.
func (p *Port) SampleVolatile() (bits, locks [4]byte) {
	p.volMu.Lock()
	copy(bits[:], p.win.VolatileBits())
	copy(locks[:], p.win.VolatileLocks())
	p.volMu.Unlock()
	return
}

// Complete runs the dispatcher's post-amble: it is called by the main loop
// once a handler has produced its result, in the window at the given
// response length and status. arg2 is the ARG_2 value sampled at command
// entry (RET_2 must mirror it).
func (p *Port) Complete(status byte, responseLen int, arg2 byte) {
	data := p.win.Data()
	for i := responseLen; i < len(data); i++ {
		data[i] = 0
	}
	p.win.SetByte(iowindow.OffCmd, 0)
	p.win.SetByte(iowindow.OffRet0, status)
	p.win.SetByte(iowindow.OffRet1, 0)
	p.win.SetByte(iowindow.OffRet2, arg2)
	p.win.SetByte(iowindow.OffArg0, 0)
	p.win.SetByte(iowindow.OffArg1, 0)
	p.win.SetByte(iowindow.OffArg2, 0)

	p.win.SetByte(iowindow.OffStat, iowindow.StatReady)
	p.commandActive.Store(false)
}
