/*
 * cryptocore - non-volatile configuration store.
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

// Package nvstore models the device's two 64-byte non-volatile pages: page 0
// carries the unlock marker, system configuration, and volatile-state seeds
// plus the root key; page 1 carries the RAM-mirrored user data and its
// password hash. The store itself is pure state - mutation only ever
// happens through a platform NVWritePage capability, never directly.
package nvstore

import "encoding/binary"

// PageSize is the size in bytes of one NV page.
const PageSize = 64

// UnlockMarker is the magic value that, when present in Page0.UnlockMarker,
// indicates the device lifecycle is "unlocked" and maintenance operations
// (page-0 rewrite, ISP entry) are permitted.
const UnlockMarker = 0xAACCEE55

// Page0 holds the device's system configuration and key material.
type Page0 struct {
	UnlockMarker      uint32
	SysConfig         uint32
	VolatileBitsInit  uint32
	VolatileLocksInit uint32
	HKDFSeed          [8]byte
	QuoteSeed         [8]byte
	RootKey           [32]byte
}

// Page1 holds the device's user data and the password hash gating writes
// to it.
type Page1 struct {
	UserData [32]byte
	UserAuth [32]byte
}

// Store is the in-memory view of both NV pages. It is read freely by the
// command engine; all writes are staged by a handler and committed through
// platform.Platform.NVWritePage, which is responsible for updating the
// fields here once the underlying page write succeeds.
type Store struct {
	Page0 Page0
	Page1 Page1
}

// Unlocked reports whether the device lifecycle currently permits
// maintenance operations.
func (s *Store) Unlocked() bool {
	return s.Page0.UnlockMarker == UnlockMarker
}

// EncodePage0 serializes Page0 into its 64-byte on-flash representation.
func EncodePage0(p *Page0) [PageSize]byte {
	var buf [PageSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], p.UnlockMarker)
	binary.LittleEndian.PutUint32(buf[4:8], p.SysConfig)
	binary.LittleEndian.PutUint32(buf[8:12], p.VolatileBitsInit)
	binary.LittleEndian.PutUint32(buf[12:16], p.VolatileLocksInit)
	copy(buf[16:24], p.HKDFSeed[:])
	copy(buf[24:32], p.QuoteSeed[:])
	copy(buf[32:64], p.RootKey[:])
	return buf
}

// DecodePage0 parses a 64-byte on-flash page into Page0 fields.
func DecodePage0(buf [PageSize]byte) Page0 {
	var p Page0
	p.UnlockMarker = binary.LittleEndian.Uint32(buf[0:4])
	p.SysConfig = binary.LittleEndian.Uint32(buf[4:8])
	p.VolatileBitsInit = binary.LittleEndian.Uint32(buf[8:12])
	p.VolatileLocksInit = binary.LittleEndian.Uint32(buf[12:16])
	copy(p.HKDFSeed[:], buf[16:24])
	copy(p.QuoteSeed[:], buf[24:32])
	copy(p.RootKey[:], buf[32:64])
	return p
}

// EncodePage1 serializes Page1 into its 64-byte on-flash representation.
func EncodePage1(p *Page1) [PageSize]byte {
	var buf [PageSize]byte
	copy(buf[0:32], p.UserData[:])
	copy(buf[32:64], p.UserAuth[:])
	return buf
}

// DecodePage1 parses a 64-byte on-flash page into Page1 fields.
func DecodePage1(buf [PageSize]byte) Page1 {
	var p Page1
	copy(p.UserData[:], buf[0:32])
	copy(p.UserAuth[:], buf[32:64])
	return p
}

// I2CAddr extracts the 7-bit I2C slave address from SysConfig (bits 0..6).
func (p *Page0) I2CAddr() byte {
	return byte(p.SysConfig & 0x7f)
}
