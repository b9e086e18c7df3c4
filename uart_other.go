//go:build !linux

package main

import (
	"fmt"
	"io"
)

// openUART is unavailable outside Linux: transport.OpenSerialPort needs
// the termios ioctls internal/transport/serial_unix.go gates to linux.
func openUART(path string, baud uint32) (io.ReadWriteCloser, error) {
	return nil, fmt.Errorf("uart: device node transport requires linux, cannot open %s", path)
}
