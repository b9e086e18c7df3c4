package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
)

// I2C implements an AT24Cxx-EEPROM-style framing over a stream socket: a
// one-byte opcode, optionally followed by a one-byte address, drives a
// "current address" register that auto-increments on every access exactly
// as a real I2C EEPROM slave does for sequential reads and page writes.
// Auto-increment is performed here, by the transport, never by the core.
//
// Wire opcodes (one byte, then payload):
//
//	'S' addr        - set current address (random-address-read setup)
//	'R' count(1B)   - sequential read: returns count bytes from current
//	                  address, incrementing after each one
//	'W' len(1B) data - page write: writes len bytes starting at current
//	                  address, incrementing after each one
type I2C struct {
	base *baseServer
	log  *slog.Logger
}

// NewI2C listens on addr (host:port) and serves dev over the I2C-style
// framing.
func NewI2C(addr string, dev ByteDevice, log *slog.Logger) (*I2C, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("i2c: listen %s: %w", addr, err)
	}
	if log == nil {
		log = slog.Default()
	}
	t := &I2C{log: log}
	t.base = &baseServer{listener: ln, dev: dev, handle: t.handleConn}
	return t, nil
}

func (t *I2C) Serve(ctx context.Context) error {
	return t.base.serve(ctx)
}

func (t *I2C) Close() error {
	return t.base.Close()
}

func (t *I2C) handleConn(conn net.Conn) {
	var cur uint8
	hdr := make([]byte, 2)

	for {
		if _, err := io.ReadFull(conn, hdr[:1]); err != nil {
			return
		}
		switch hdr[0] {
		case 'S':
			if _, err := io.ReadFull(conn, hdr[:1]); err != nil {
				return
			}
			cur = hdr[0]

		case 'R':
			if _, err := io.ReadFull(conn, hdr[:1]); err != nil {
				return
			}
			count := int(hdr[0])
			out := make([]byte, count)
			for i := 0; i < count; i++ {
				out[i] = t.base.dev.ReadByte(cur)
				cur++
			}
			if _, err := conn.Write(out); err != nil {
				return
			}

		case 'W':
			if _, err := io.ReadFull(conn, hdr[:1]); err != nil {
				return
			}
			count := int(hdr[0])
			data := make([]byte, count)
			if _, err := io.ReadFull(conn, data); err != nil {
				return
			}
			for i := 0; i < count; i++ {
				t.base.dev.WriteByte(cur, data[i])
				cur++
			}
			conn.Write([]byte{0x00})

		default:
			t.log.Warn("i2c: unknown opcode", "opcode", hdr[0])
			return
		}
	}
}
