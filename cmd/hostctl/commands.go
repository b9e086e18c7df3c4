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
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rcornwell/cryptocore/internal/command"
	"github.com/rcornwell/cryptocore/internal/iowindow"
	ownhex "github.com/rcornwell/cryptocore/util/hex"
)

type cmd struct {
	name    string // Command name.
	min     int    // Minimum match size.
	process func(args []string, c *Client) (bool, error)
}

var cmdList []cmd

func init() {
	cmdList = []cmd{
		{name: "read", min: 1, process: cmdRead},
		{name: "write", min: 2, process: cmdWrite},
		{name: "dump", min: 2, process: cmdDump},
		{name: "nop", min: 3, process: cmdNOP},
		{name: "extend", min: 2, process: cmdExtend},
		{name: "quote", min: 2, process: cmdQuote},
		{name: "hkdf", min: 1, process: cmdHKDF},
		{name: "counter", min: 3, process: cmdCounter},
		{name: "monitor", min: 3, process: cmdMonitor},
		{name: "help", min: 1, process: cmdHelp},
		{name: "quit", min: 4, process: cmdQuit},
	}
}

// matchList finds every command whose name is prefixed by name and whose
// minimum unique-match length is satisfied, mirroring the abbreviation
// rules of a traditional console command table.
func matchList(name string) []cmd {
	if name == "" {
		return nil
	}
	var match []cmd
	for _, m := range cmdList {
		if len(name) >= m.min && strings.HasPrefix(m.name, name) {
			match = append(match, m)
		}
	}
	return match
}

// completeCmd supplies liner's tab-completion candidates.
func completeCmd(line string) []string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		var out []string
		for _, m := range cmdList {
			out = append(out, m.name+" ")
		}
		return out
	}
	if len(fields) > 1 || strings.HasSuffix(line, " ") {
		return nil
	}
	var out []string
	for _, m := range matchList(fields[0]) {
		out = append(out, m.name+" ")
	}
	return out
}

// processCommand parses and executes one line of console input.
func processCommand(line string, c *Client) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	match := matchList(fields[0])
	if len(match) == 0 {
		return false, errors.New("command not found: " + fields[0])
	}
	if len(match) > 1 {
		return false, errors.New("ambiguous command: " + fields[0])
	}
	return match[0].process(fields[1:], c)
}

func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("expected hex byte, got %q", s)
	}
	return byte(v), nil
}

func cmdRead(args []string, c *Client) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("usage: read <addr-hex>")
	}
	addr, err := parseByte(args[0])
	if err != nil {
		return false, err
	}
	v, err := c.ReadByte(addr)
	if err != nil {
		return false, err
	}
	fmt.Printf("[%02x] = %02x\n", addr, v)
	return false, nil
}

func cmdWrite(args []string, c *Client) (bool, error) {
	if len(args) != 2 {
		return false, errors.New("usage: write <addr-hex> <data-hex>")
	}
	addr, err := parseByte(args[0])
	if err != nil {
		return false, err
	}
	data, err := parseByte(args[1])
	if err != nil {
		return false, err
	}
	return false, c.WriteByte(addr, data)
}

func cmdDump(args []string, c *Client) (bool, error) {
	if len(args) != 2 {
		return false, errors.New("usage: dump <addr-hex> <count-dec>")
	}
	addr, err := parseByte(args[0])
	if err != nil {
		return false, err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return false, fmt.Errorf("expected decimal count, got %q", args[1])
	}
	block, err := c.ReadBlock(addr, n)
	if err != nil {
		return false, err
	}
	fmt.Println(ownhex.Dump(block, int(addr)))
	return false, nil
}

func cmdNOP(_ []string, c *Client) (bool, error) {
	_, _, _, err := c.IssueCommand(command.CmdNOP, 0, 0, 0)
	return false, err
}

func cmdExtend(args []string, c *Client) (bool, error) {
	if len(args) != 2 {
		return false, errors.New("usage: extend <pcr-index 0-2> <32-byte-hex>")
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 0 || idx > 2 {
		return false, errors.New("pcr index must be 0, 1, or 2")
	}
	data, err := hex.DecodeString(args[1])
	if err != nil || len(data) != 32 {
		return false, errors.New("extend data must be 32 bytes of hex")
	}
	if err := c.WriteBlock(iowindow.OffData, data); err != nil {
		return false, err
	}
	_, _, _, err = c.IssueCommand(command.CmdExtendPCR, byte(idx), 32, 0)
	return false, err
}

func cmdQuote(args []string, c *Client) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("usage: quote <mask-hex>")
	}
	mask, err := parseByte(args[0])
	if err != nil {
		return false, err
	}
	_, ret1, _, err := c.IssueCommand(command.CmdQuote, mask, 0, 0)
	if err != nil {
		return false, err
	}
	n := int(ret1)
	if ret1 == 0 {
		n = 32
	}
	digest, err := c.ReadBlock(iowindow.OffData, n)
	if err != nil {
		return false, err
	}
	fmt.Println(hex.EncodeToString(digest))
	return false, nil
}

func cmdHKDF(args []string, c *Client) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("usage: hkdf <context-len>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return false, err
	}
	_, _, _, err = c.IssueCommand(command.CmdHMACKDF, byte(n), 0, 0)
	if err != nil {
		return false, err
	}
	digest, err := c.ReadBlock(iowindow.OffData, 32)
	if err != nil {
		return false, err
	}
	fmt.Println(hex.EncodeToString(digest))
	return false, nil
}

func cmdCounter(args []string, c *Client) (bool, error) {
	if len(args) != 2 {
		return false, errors.New("usage: counter <index 0-1> <increment-dec>")
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 0 || idx > 1 {
		return false, errors.New("counter index must be 0 or 1")
	}
	inc, err := strconv.Atoi(args[1])
	if err != nil {
		return false, err
	}
	ret0, ret1, ret2, err := c.IssueCommand(command.CmdIncrementCtr, byte(idx), byte(inc), byte(inc>>8))
	if err != nil {
		return false, err
	}
	fmt.Printf("status ret0=%02x ret1=%02x ret2=%02x\n", ret0, ret1, ret2)
	return false, nil
}

func cmdMonitor(_ []string, c *Client) (bool, error) {
	return false, runMonitor(c)
}

func cmdHelp(_ []string, _ *Client) (bool, error) {
	for _, m := range cmdList {
		fmt.Println(" ", m.name)
	}
	return false, nil
}

func cmdQuit(_ []string, _ *Client) (bool, error) {
	return true, nil
}
