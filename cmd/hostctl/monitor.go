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
	"encoding/binary"
	"fmt"
	"os"

	"github.com/eiannone/keyboard"
	"golang.org/x/term"

	"github.com/rcornwell/cryptocore/internal/iowindow"
)

// runMonitor puts the controlling terminal into raw mode and refreshes a
// one-screen register dashboard on every keypress, until 'q' or Ctrl-C is
// pressed. It polls STAT, the counters, and the volatile bits on demand
// rather than continuously, since the remote device has no push channel.
func runMonitor(c *Client) error {
	state, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), state)

	if err := keyboard.Open(); err != nil {
		return fmt.Errorf("open keyboard: %w", err)
	}
	defer keyboard.Close()

	fmt.Print("\r\n-- monitor: any key refreshes, q quits --\r\n")

	for {
		if err := renderOnce(c); err != nil {
			return err
		}

		r, key, err := keyboard.GetSingleKey()
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		if key == keyboard.KeyCtrlC || r == 'q' {
			return nil
		}
	}
}

func renderOnce(c *Client) error {
	stat, err := c.ReadByte(iowindow.OffStat)
	if err != nil {
		return err
	}
	bits, err := c.ReadBlock(iowindow.OffVolatileBits, 4)
	if err != nil {
		return err
	}
	locks, err := c.ReadBlock(iowindow.OffVolatileLocks, 4)
	if err != nil {
		return err
	}
	ctr0, err := c.ReadBlock(iowindow.OffVolatileCounter0, 4)
	if err != nil {
		return err
	}
	ctr1, err := c.ReadBlock(iowindow.OffVolatileCounter1, 4)
	if err != nil {
		return err
	}

	fmt.Printf("\rstat=%02x bits=%08x locks=%08x counter0=%d counter1=%d\r\n",
		stat,
		binary.LittleEndian.Uint32(bits),
		binary.LittleEndian.Uint32(locks),
		binary.LittleEndian.Uint32(ctr0),
		binary.LittleEndian.Uint32(ctr1))
	return nil
}
