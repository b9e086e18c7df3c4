//go:build linux

package main

import (
	"io"

	"github.com/rcornwell/cryptocore/internal/transport"
)

// openUART opens a real UART device node and configures it for SimpleSerial
// framing, the Linux-only path transport.OpenSerialPort implements via
// direct termios ioctls.
func openUART(path string, baud uint32) (io.ReadWriteCloser, error) {
	return transport.OpenSerialPort(path, baud)
}
