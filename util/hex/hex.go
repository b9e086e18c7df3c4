/*
 * cryptocore - Convert bytes to hex strings.
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

// Package hex formats raw bytes the way cmd/hostctl needs: plain
// byte/nibble runs rather than a CPU's instruction-field layout.
package hex

import "strings"

var hexMap = "0123456789ABCDEF"

// FormatBytes appends the hex encoding of data to str, optionally
// space-separating each byte pair.
func FormatBytes(str *strings.Builder, space bool, data []uint8) {
	for _, by := range data {
		str.WriteByte(hexMap[(by>>4)&0xf])
		str.WriteByte(hexMap[by&0xf])
		if space {
			str.WriteByte(' ')
		}
	}
}

// FormatByte appends the two-digit hex encoding of a single byte.
func FormatByte(str *strings.Builder, data byte) {
	str.WriteByte(hexMap[(data>>4)&0xf])
	str.WriteByte(hexMap[data&0xf])
}

// FormatDigit appends a single hex nibble.
func FormatDigit(str *strings.Builder, data byte) {
	str.WriteByte(hexMap[data&0xf])
}

// FormatDecimal appends the base-10 digits of num (0..255).
func FormatDecimal(str *strings.Builder, num byte) {
	if num >= 100 {
		str.WriteByte(hexMap[num/100])
		num %= 100
	}
	if num >= 10 {
		str.WriteByte(hexMap[num/10])
		num %= 10
	}
	str.WriteByte(hexMap[num])
}

// Dump renders data as space-separated two-digit hex pairs, 16 bytes per
// line, each line prefixed with its address (baseAddr plus the line's
// offset into data) as four hex digits. Used by cmd/hostctl to print
// window contents.
func Dump(data []byte, baseAddr int) string {
	var b strings.Builder
	for i := 0; i < len(data); i += 16 {
		FormatBytes(&b, false, []byte{byte((baseAddr + i) >> 8), byte(baseAddr + i)})
		b.WriteByte(' ')
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		FormatBytes(&b, true, data[i:end])
		b.WriteByte('\n')
	}
	return b.String()
}
