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

// Command hostctl is the operator-facing console for a running cryptocore
// device: it dials the SimpleSerial transport and lets a human read and
// write I/O window registers, issue commands, and watch device state
// live, the same way an engineer would talk to a real part on a bench.
package main

import (
	"fmt"
	"os"

	getopt "github.com/pborman/getopt/v2"
)

func main() {
	optAddr := getopt.StringLong("connect", 'c', "127.0.0.1:8093", "Device SimpleSerial address")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	client, err := Dial(*optAddr)
	if err != nil {
		fmt.Println("Error: " + err.Error())
		os.Exit(1)
	}
	defer client.Close()

	fmt.Println("connected to " + *optAddr)
	consoleReader(client)
}
