/*
 * cryptocore - 256-byte memory-mapped I/O window.
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

// Package iowindow defines the device's 256-byte host-visible register
// file and the byte offsets of every named field within it. It holds no
// policy of its own - busy-masking and lock semantics live in
// internal/byteport, which drives a Window through these accessors.
package iowindow

// Size is the total size in bytes of the I/O window.
const Size = 256

// Field offsets and sizes, exactly as laid out in the device's register map.
const (
	OffData             = 0x00
	SizeData            = 80
	OffArg0             = 0x50
	OffArg1             = 0x51
	OffArg2             = 0x52
	OffCmd              = 0x53
	OffStat             = 0x54
	OffRet0             = 0x55
	OffRet1             = 0x56
	OffRet2             = 0x57
	OffVolatileBits     = 0x58
	SizeVolatileBits    = 4
	OffVolatileLocks    = 0x5C
	SizeVolatileLocks   = 4
	OffVolatileCounter0 = 0x60
	OffVolatileCounter1 = 0x64
	SizeVolatileCounter = 4
	OffRFU              = 0x68
	SizeRFU             = 8
	OffUserData         = 0x70
	SizeUserData        = 32
	OffPCR0             = 0x90
	OffPCR1             = 0xB0
	OffPCR2             = 0xD0
	SizePCR             = 32
	OffDeviceUID        = 0xF0
	SizeDeviceUID       = 16
)

// StatReady and StatBusy are the only two values the host ever observes in
// the STAT register.
const (
	StatReady = 0xC3
	StatBusy  = 0xFF
)

// Window is the raw 256-byte register file with typed sub-slice accessors.
// Accessors alias the backing array; they do not copy.
type Window struct {
	raw [Size]byte
}

// Raw returns the entire backing array for bulk read access (e.g. by a
// transport performing sequential/auto-increment reads outside the
// busy-mask policy, which belongs to byteport).
func (w *Window) Raw() *[Size]byte {
	return &w.raw
}

// Data returns the 80-byte DATA scratch area.
func (w *Window) Data() []byte {
	return w.raw[OffData : OffData+SizeData]
}

func (w *Window) Arg0() byte  { return w.raw[OffArg0] }
func (w *Window) Arg1() byte  { return w.raw[OffArg1] }
func (w *Window) Arg2() byte  { return w.raw[OffArg2] }
func (w *Window) Cmd() byte   { return w.raw[OffCmd] }
func (w *Window) Stat() byte  { return w.raw[OffStat] }

// VolatileBits returns the 4-byte lockable bitfield.
func (w *Window) VolatileBits() []byte {
	return w.raw[OffVolatileBits : OffVolatileBits+SizeVolatileBits]
}

// VolatileLocks returns the 4-byte monotone lock mask for VolatileBits.
func (w *Window) VolatileLocks() []byte {
	return w.raw[OffVolatileLocks : OffVolatileLocks+SizeVolatileLocks]
}

// Counter returns the i-th (0 or 1) saturating 32-bit counter as a 4-byte
// little-endian slice.
func (w *Window) Counter(i int) []byte {
	off := OffVolatileCounter0 + i*SizeVolatileCounter
	return w.raw[off : off+SizeVolatileCounter]
}

// UserData returns the 32-byte RAM mirror of NV page-1 user data.
func (w *Window) UserData() []byte {
	return w.raw[OffUserData : OffUserData+SizeUserData]
}

// PCR returns the i-th (0, 1, or 2) platform configuration register.
func (w *Window) PCR(i int) []byte {
	off := OffPCR0 + i*SizePCR
	return w.raw[off : off+SizePCR]
}

// DeviceUID returns the 16-byte device identity field.
func (w *Window) DeviceUID() []byte {
	return w.raw[OffDeviceUID : OffDeviceUID+SizeDeviceUID]
}

// SetByte writes a single byte at the given offset without any policy
// check; callers that must honor busy-mask/lock rules go through
// internal/byteport instead.
func (w *Window) SetByte(off int, v byte) {
	w.raw[off] = v
}

// Byte reads a single raw byte with no policy applied.
func (w *Window) Byte(off int) byte {
	return w.raw[off]
}
