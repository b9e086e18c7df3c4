package transport

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
)

// SimpleSerial implements a ChipWhisperer SimpleSerial-v1.1-style hex-line
// framing: a line `W<addr-hex><data-hex>\n` writes one byte, a line
// `R<addr-hex>\n` reads one byte back as a two hex digit line followed by
// 'z' (the protocol's end-of-reply marker). Auto-increment sequential
// access is not part of SimpleSerial; every access names its address.
type SimpleSerial struct {
	base *baseServer
	log  *slog.Logger
}

// NewSimpleSerial listens on addr (host:port) and serves dev over the
// SimpleSerial hex-line framing.
func NewSimpleSerial(addr string, dev ByteDevice, log *slog.Logger) (*SimpleSerial, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("simpleserial: listen %s: %w", addr, err)
	}
	if log == nil {
		log = slog.Default()
	}
	s := &SimpleSerial{log: log}
	s.base = &baseServer{listener: ln, dev: dev, handle: s.handleConn}
	return s, nil
}

func (s *SimpleSerial) Serve(ctx context.Context) error {
	return s.base.serve(ctx)
}

func (s *SimpleSerial) Close() error {
	return s.base.Close()
}

func (s *SimpleSerial) handleConn(conn net.Conn) {
	s.serveLines(conn, conn)
}

// ServeDevice drives dev directly from an already-open duplex stream -
// the entry point used for a real UART device node opened via
// OpenSerialPort, which has no listener/accept-loop of its own.
func ServeDevice(rw io.ReadWriter, dev ByteDevice, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	s := &SimpleSerial{log: log, base: &baseServer{dev: dev}}
	s.serveLines(rw, rw)
}

func (s *SimpleSerial) serveLines(r io.Reader, w io.Writer) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) < 1 {
			continue
		}
		switch line[0] {
		case 'W':
			addr, data, ok := parseWrite(line[1:])
			if !ok {
				s.log.Warn("simpleserial: malformed write", "line", line)
				continue
			}
			s.base.dev.WriteByte(addr, data)
			w.Write([]byte("z\n"))

		case 'R':
			addr, ok := parseAddr(line[1:])
			if !ok {
				s.log.Warn("simpleserial: malformed read", "line", line)
				continue
			}
			v := s.base.dev.ReadByte(addr)
			w.Write([]byte(hex.EncodeToString([]byte{v}) + "z\n"))

		default:
			s.log.Warn("simpleserial: unknown command", "line", line)
		}
	}
}

func parseAddr(s string) (uint8, bool) {
	if len(s) != 2 {
		return 0, false
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return 0, false
	}
	return b[0], true
}

func parseWrite(s string) (addr, data uint8, ok bool) {
	if len(s) != 4 {
		return 0, 0, false
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return 0, 0, false
	}
	return b[0], b[1], true
}
