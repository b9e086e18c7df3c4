/*
 * cryptocore - host console tool.
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
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rcornwell/cryptocore/internal/iowindow"
)

// Client is a thin SimpleSerial host-side client: every register access
// dials out one W/R hex line and reads back the device's reply, exactly
// as a real host driver would talk to the wire protocol in
// internal/transport.SimpleSerial.
type Client struct {
	conn net.Conn
	rd   *bufio.Reader
}

// Dial connects to a device's SimpleSerial transport listen address.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn, rd: bufio.NewReader(conn)}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// ReadByte reads a single byte from the I/O window at addr.
func (c *Client) ReadByte(addr byte) (byte, error) {
	if _, err := fmt.Fprintf(c.conn, "R%02x\n", addr); err != nil {
		return 0, err
	}
	line, err := c.rd.ReadString('\n')
	if err != nil {
		return 0, fmt.Errorf("read reply: %w", err)
	}
	line = strings.TrimSuffix(strings.TrimSpace(line), "z")
	var v byte
	if _, err := fmt.Sscanf(line, "%02x", &v); err != nil {
		return 0, fmt.Errorf("malformed reply %q: %w", line, err)
	}
	return v, nil
}

// WriteByte writes a single byte to the I/O window at addr.
func (c *Client) WriteByte(addr, data byte) error {
	if _, err := fmt.Fprintf(c.conn, "W%02x%02x\n", addr, data); err != nil {
		return err
	}
	line, err := c.rd.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read ack: %w", err)
	}
	if strings.TrimSpace(line) != "z" {
		return fmt.Errorf("unexpected ack %q", line)
	}
	return nil
}

// ReadBlock reads a contiguous run of n bytes starting at addr.
func (c *Client) ReadBlock(addr byte, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		v, err := c.ReadByte(addr + byte(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// WriteBlock writes data starting at addr, one byte at a time.
func (c *Client) WriteBlock(addr byte, data []byte) error {
	for i, b := range data {
		if err := c.WriteByte(addr+byte(i), b); err != nil {
			return err
		}
	}
	return nil
}

// IssueCommand posts cmd/arg0/arg1/arg2 and polls STAT until the device
// is no longer busy, returning the RET0/RET1/RET2 triple.
func (c *Client) IssueCommand(cmd, arg0, arg1, arg2 byte) (ret0, ret1, ret2 byte, err error) {
	if err = c.WriteByte(iowindow.OffArg0, arg0); err != nil {
		return
	}
	if err = c.WriteByte(iowindow.OffArg1, arg1); err != nil {
		return
	}
	if err = c.WriteByte(iowindow.OffArg2, arg2); err != nil {
		return
	}
	if err = c.WriteByte(iowindow.OffCmd, cmd); err != nil {
		return
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		stat, serr := c.ReadByte(iowindow.OffStat)
		if serr != nil {
			err = serr
			return
		}
		if stat == iowindow.StatReady {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	ret0, err = c.ReadByte(iowindow.OffRet0)
	if err != nil {
		return
	}
	ret1, err = c.ReadByte(iowindow.OffRet1)
	if err != nil {
		return
	}
	ret2, err = c.ReadByte(iowindow.OffRet2)
	return
}
