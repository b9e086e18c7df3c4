/*
 * cryptocore - command engine.
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

// Package command implements the dispatch table and the seven command
// handlers that make up the bulk of the core: NOP, Extend-PCR, Quote,
// HMAC-KDF, Increment-Counter, Switch-Clock, and NV-Write. Every handler
// is a pure transformation over the I/O window, the NV store, the hash
// engine and (for external effects) the platform collaborator; it reports
// back a status and a response length rather than a Go error, so that a
// failed handler is guaranteed to have made either its whole mutation or
// none of it.
package command

import (
	"encoding/binary"
	"log/slog"

	"github.com/rcornwell/cryptocore/internal/byteport"
	"github.com/rcornwell/cryptocore/internal/hash"
	"github.com/rcornwell/cryptocore/internal/iowindow"
	"github.com/rcornwell/cryptocore/internal/nvstore"
	"github.com/rcornwell/cryptocore/internal/platform"
)

// Engine dispatches CMD codes to handlers over a shared Window, Store,
// hash Engine, and Platform. It is owned exclusively by the main loop
// goroutine; it is not safe for concurrent use.
type Engine struct {
	win   *iowindow.Window
	port  *byteport.Port
	store *nvstore.Store
	plat  platform.Platform
	h     hash.Engine
	log   *slog.Logger
}

// New constructs a command Engine over the given collaborators.
func New(win *iowindow.Window, port *byteport.Port, store *nvstore.Store, plat platform.Platform, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{win: win, port: port, store: store, plat: plat, log: log}
}

// Dispatch reads CMD and the current ARG registers, runs the matching
// handler to completion, and drives the byte-port's post-amble. It is
// called once per wake from internal/mainloop.
func (e *Engine) Dispatch() {
	cmd := e.win.Cmd()
	arg0 := e.win.Arg0()
	arg1 := e.win.Arg1()
	arg2 := e.win.Arg2()

	status, respLen := e.dispatchOne(cmd, arg0, arg1)

	e.log.Debug("command dispatched", "cmd", cmd, "status", byte(status), "resp_len", respLen)
	e.port.Complete(byte(status), respLen, arg2)
}

func (e *Engine) dispatchOne(cmd, arg0, arg1 byte) (Status, int) {
	switch cmd {
	case CmdNOP:
		return StatusOK, 0
	case CmdExtendPCR:
		return e.handleExtendPCR(arg0, arg1)
	case CmdQuote:
		return e.handleQuote(arg0, arg1)
	case CmdHMACKDF:
		return e.handleHMACKDF(arg0)
	case CmdIncrementCtr:
		return e.handleIncrementCounter(arg0, arg1)
	case CmdNVWrite:
		return e.handleNVWrite(arg0)
	case CmdSwitchClock:
		return e.handleSwitchClock()
	default:
		return StatusUnknownCommand, 0
	}
}

// handleExtendPCR implements PCR := SHA256(PCR || DATA[0..arg1]).
func (e *Engine) handleExtendPCR(arg0, arg1 byte) (Status, int) {
	if arg0&0xF0 != 0 || arg0 > 2 {
		return StatusParamError, 0
	}
	if arg1 > iowindow.SizeData {
		return StatusParamError, 0
	}

	pcr := e.win.PCR(int(arg0))
	e.h.Reset()
	e.h.Update(pcr)
	e.h.Update(e.win.Data()[:arg1])
	var out [hash.DigestSize]byte
	e.h.Final(&out)
	copy(pcr, out[:])

	return StatusOK, 0
}

// Quote mask bits, per the canonical (bit-3-is-USER_DATA) resolution.
const (
	quoteBitPCR0      = 1 << 0
	quoteBitPCR1      = 1 << 1
	quoteBitPCR2      = 1 << 2
	quoteBitUserData  = 1 << 3
	quoteBitCounter0  = 1 << 4
	quoteBitCounter1  = 1 << 5
	quoteBitVolatile  = 1 << 6
	quoteBitDeviceUID = 1 << 7
)

func (e *Engine) handleQuote(arg0, arg1 byte) (Status, int) {
	if arg1 > iowindow.SizeData {
		return StatusParamError, 0
	}

	key := e.deriveKey(e.store.Page0.QuoteSeed, [4]byte{'Q', 'U', 'O', 'T'})
	e.h.HMACReset(key[:])
	for i := range key {
		key[i] = 0
	}

	e.h.HMACUpdate([]byte("QUOT"))

	var maskWord [4]byte
	maskWord[0] = arg0
	e.h.HMACUpdate(maskWord[:])

	if arg0&quoteBitDeviceUID != 0 {
		e.h.HMACUpdate(e.win.DeviceUID())
	}
	if arg0&quoteBitVolatile != 0 {
		bits, locks := e.port.SampleVolatile()
		e.h.HMACUpdate(bits[:])
		e.h.HMACUpdate(locks[:])
	}
	if arg0&quoteBitCounter1 != 0 {
		e.h.HMACUpdate(e.win.Counter(1))
	}
	if arg0&quoteBitCounter0 != 0 {
		e.h.HMACUpdate(e.win.Counter(0))
	}
	if arg0&quoteBitUserData != 0 {
		e.h.HMACUpdate(e.win.UserData())
	}
	for i := 0; i < 3; i++ {
		if arg0&(1<<i) != 0 {
			e.h.HMACUpdate(e.win.PCR(i))
		}
	}
	e.h.HMACUpdate(e.win.Data()[:arg1])

	var tag [hash.DigestSize]byte
	e.h.HMACFinal(&tag)
	copy(e.win.Data(), tag[:])

	return StatusOK, hash.DigestSize
}

func (e *Engine) handleHMACKDF(arg0 byte) (Status, int) {
	if arg0 > iowindow.SizeData {
		return StatusParamError, 0
	}

	key := e.deriveKey(e.store.Page0.HKDFSeed, [4]byte{'H', 'K', 'D', 'F'})
	e.h.HMACReset(key[:])
	for i := range key {
		key[i] = 0
	}
	e.h.HMACUpdate(e.win.Data()[:arg0])

	var tag [hash.DigestSize]byte
	e.h.HMACFinal(&tag)
	copy(e.win.Data(), tag[:])

	return StatusOK, hash.DigestSize
}

func (e *Engine) handleIncrementCounter(arg0, arg1 byte) (Status, int) {
	if arg0 > 1 {
		return StatusParamError, 0
	}

	buf := e.win.Counter(int(arg0))
	cur := binary.LittleEndian.Uint32(buf)
	inc := uint32(arg1)

	if 0xFFFFFFFF-cur < inc {
		return StatusCounterFailure, 0
	}
	binary.LittleEndian.PutUint32(buf, cur+inc)

	return StatusOK, 0
}

func (e *Engine) handleSwitchClock() (Status, int) {
	if err := e.plat.SwitchToExternalClock(); err != nil {
		return StatusExecFailure, 0
	}
	return StatusOK, 0
}

func (e *Engine) handleNVWrite(arg0 byte) (Status, int) {
	switch arg0 {
	case NVSlotPage0Maintenance:
		if !e.store.Unlocked() {
			return StatusNotPermitted, 0
		}
		var contents [nvstore.PageSize]byte
		copy(contents[:], e.win.Data()[:nvstore.PageSize])
		if !e.plat.NVWritePage(platform.Page0, contents) {
			return StatusExecFailure, 0
		}
		return StatusOK, 0

	case NVSlotUserData:
		data := e.win.Data()
		pw := data[32:64]
		h := hash.Sum256(pw)
		copy(pw, h[:])

		if h != e.store.Page1.UserAuth {
			return StatusNotPermitted, 0
		}

		var contents [nvstore.PageSize]byte
		copy(contents[:], data[:nvstore.PageSize])
		if !e.plat.NVWritePage(platform.Page1, contents) {
			return StatusExecFailure, 0
		}
		copy(e.win.UserData(), e.store.Page1.UserData[:])
		return StatusOK, 0

	case NVSlotISPEntry:
		if !e.store.Unlocked() {
			return StatusNotPermitted, 0
		}
		if err := e.plat.EnterBootloader(); err != nil {
			return StatusExecFailure, 0
		}
		return StatusExecFailure, 0

	default:
		return StatusParamError, 0
	}
}

// deriveKey computes HMAC_root_key(seed || tag), the device-key derivation
// every keyed operation uses.
func (e *Engine) deriveKey(seed [8]byte, tag [4]byte) [32]byte {
	var msg [12]byte
	copy(msg[0:8], seed[:])
	copy(msg[8:12], tag[:])
	return hash.SumHMAC256(e.store.Page0.RootKey[:], msg[:])
}
