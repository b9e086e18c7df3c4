/*
 * cryptocore - SHA-256 / HMAC-SHA-256 compute engine.
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

// Package hash implements the device's SHA-256 and HMAC-SHA-256 compute
// engine, bit-exact with FIPS 180-4. The message schedule is kept as a
// 16-word ring rather than the usual 64-word table, mirroring the
// memory-constrained firmware this core is modeled on.
package hash

import "encoding/binary"

// DigestSize is the length of a SHA-256 digest in bytes.
const DigestSize = 32

const blockSize = 64

var iv = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

var k = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5,
	0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3,
	0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc,
	0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7,
	0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13,
	0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3,
	0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5,
	0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208,
	0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

// Engine is a SHA-256 / HMAC-SHA-256 calculation context. The zero value is
// not ready for use; call Reset (or HMACReset) first. An Engine is meant to
// be owned by a single command dispatcher and is not safe for concurrent
// use, matching the single-threaded main-context contract this core runs
// under.
type Engine struct {
	h    [8]uint32
	buf  [blockSize]byte
	nbuf int
	len  uint64 // message length in bytes, accumulated since Reset

	// opad/ipad holding area for HMAC: the key-dependent first 32 bytes of
	// the 64-byte pad block (the remaining 32 bytes are the constant pad
	// byte). Populated by HMACReset and consumed (then zeroed) by
	// HMACFinal; untouched by Reset so it survives the inner-hash Final()
	// call that HMACFinal drives internally.
	pad [DigestSize]byte
}

// Reset reinitializes the engine for a fresh SHA-256 computation.
func (e *Engine) Reset() {
	e.h = iv
	e.nbuf = 0
	e.len = 0
}

// Update appends message bytes to the running hash.
func (e *Engine) Update(data []byte) {
	for len(data) > 0 {
		n := copy(e.buf[e.nbuf:], data)
		e.nbuf += n
		e.len += uint64(n)
		data = data[n:]
		if e.nbuf == blockSize {
			e.compress()
			e.nbuf = 0
		}
	}
}

// Final appends the padding and length fields, produces the 32-byte digest
// in out, and reinitializes the engine (Reset) for the next computation.
func (e *Engine) Final(out *[DigestSize]byte) {
	msgLen := e.len

	e.buf[e.nbuf] = 0x80
	e.nbuf++
	if e.nbuf > blockSize-8 {
		for i := e.nbuf; i < blockSize; i++ {
			e.buf[i] = 0
		}
		e.compress()
		e.nbuf = 0
	}
	for i := e.nbuf; i < blockSize-8; i++ {
		e.buf[i] = 0
	}
	binary.BigEndian.PutUint64(e.buf[blockSize-8:], msgLen*8)
	e.compress()

	for i := 0; i < 8; i++ {
		binary.BigEndian.PutUint32(out[i*4:], e.h[i])
	}
	e.Reset()
}

func rotr(v uint32, n uint) uint32 {
	return (v >> n) | (v << (32 - n))
}

// compress runs the 64-round compression function over e.buf, using a
// 16-word schedule ring: rounds 0-15 load directly from the block, rounds
// 16-63 recompute word i%16 in place from the words still live in the ring.
func (e *Engine) compress() {
	var w [16]uint32
	for i := 0; i < 16; i++ {
		w[i] = binary.BigEndian.Uint32(e.buf[i*4:])
	}

	a, b, c, d, f0, f1, g, h := e.h[0], e.h[1], e.h[2], e.h[3], e.h[4], e.h[5], e.h[6], e.h[7]

	for i := 0; i < 64; i++ {
		var wi uint32
		if i < 16 {
			wi = w[i]
		} else {
			wm15 := w[(i+1)%16]
			s0 := rotr(wm15, 7) ^ rotr(wm15, 18) ^ (wm15 >> 3)
			wm2 := w[(i+14)%16]
			s1 := rotr(wm2, 17) ^ rotr(wm2, 19) ^ (wm2 >> 10)
			wi = w[i%16] + s0 + w[(i+9)%16] + s1
			w[i%16] = wi
		}

		s1 := rotr(f0, 6) ^ rotr(f0, 11) ^ rotr(f0, 25)
		ch := (f0 & f1) ^ (^f0 & g)
		t1 := h + s1 + ch + k[i] + wi
		s0 := rotr(a, 2) ^ rotr(a, 13) ^ rotr(a, 22)
		maj := (a & b) ^ (a & c) ^ (b & c)
		t2 := s0 + maj

		h = g
		g = f1
		f1 = f0
		f0 = d + t1
		d = c
		c = b
		b = a
		a = t1 + t2
	}

	e.h[0] += a
	e.h[1] += b
	e.h[2] += c
	e.h[3] += d
	e.h[4] += f0
	e.h[5] += f1
	e.h[6] += g
	e.h[7] += h
}

// HMACReset initializes the engine to compute HMAC-SHA-256 with the given
// key, leaving the inner hash already primed with the ipad block. Follow
// with HMACUpdate for the message and HMACFinal for the tag. The key is
// zero-padded to the 64-byte block; a key longer than 32 bytes is first
// replaced by its SHA-256 digest, so for keys of 33 to 64 bytes the tag
// differs from RFC 2104, which hashes only keys longer than the block.
func (e *Engine) HMACReset(key []byte) {
	var pad [DigestSize]byte
	if len(key) > DigestSize {
		var tmp Engine
		tmp.Reset()
		tmp.Update(key)
		tmp.Final(&pad)
	} else {
		copy(pad[:], key)
	}

	for i := range pad {
		pad[i] ^= 0x36
	}
	e.Reset()
	e.Update(pad[:])
	var tail [blockSize - DigestSize]byte
	for i := range tail {
		tail[i] = 0x36
	}
	e.Update(tail[:])

	for i := range pad {
		pad[i] ^= 0x36 ^ 0x5c
	}
	e.pad = pad
}

// HMACUpdate appends message bytes to the running HMAC computation.
func (e *Engine) HMACUpdate(data []byte) {
	e.Update(data)
}

// HMACFinal produces the HMAC tag in out and zeroes the retained key
// material.
func (e *Engine) HMACFinal(out *[DigestSize]byte) {
	e.Final(out)
	e.Update(e.pad[:])
	var tail [blockSize - DigestSize]byte
	for i := range tail {
		tail[i] = 0x5c
	}
	e.Update(tail[:])
	e.Update(out[:])
	e.Final(out)

	for i := range e.pad {
		e.pad[i] = 0
	}
}

// Sum256 is a convenience one-shot SHA-256 helper used by code that does
// not otherwise hold a long-lived Engine (e.g. provisioning tools hashing a
// password).
func Sum256(data []byte) [DigestSize]byte {
	var e Engine
	var out [DigestSize]byte
	e.Reset()
	e.Update(data)
	e.Final(&out)
	return out
}

// SumHMAC256 is a convenience one-shot HMAC-SHA-256 helper.
func SumHMAC256(key, data []byte) [DigestSize]byte {
	var e Engine
	var out [DigestSize]byte
	e.HMACReset(key)
	e.HMACUpdate(data)
	e.HMACFinal(&out)
	return out
}
