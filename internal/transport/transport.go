/*
 * cryptocore - wire transports.
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

// Package transport adapts wire-level byte streams into the core's
// read_byte/write_byte callback contract. Two framings are provided,
// both of which the specification treats as external collaborators that
// must drive the core identically: an AT24Cxx-style I2C-over-socket
// framing with an auto-incrementing current-address register, and a
// SimpleSerial-v1.1-style hex-line UART framing. Both run one accept-loop
// goroutine per listener and one read-loop goroutine per connection, the
// same structure the teacher's telnet package uses for its console
// server.
package transport

import (
	"context"
	"net"
	"sync"
)

// ByteDevice is the core's transport-facing contract - satisfied by
// *byteport.Port.
type ByteDevice interface {
	ReadByte(addr uint8) uint8
	WriteByte(addr uint8, data uint8)
}

// Transport owns a listener's lifecycle. This is where
// start_transport(config)/stop_transport() from the specification's
// external-interfaces section live in this port, rather than on
// platform.Platform: here the wire transport is a fully implemented
// component, not an opaque silicon collaborator.
type Transport interface {
	// Serve blocks accepting and handling connections until ctx is
	// canceled or Close is called.
	Serve(ctx context.Context) error
	// Close stops accepting new connections and unblocks Serve.
	Close() error
}

// baseServer is the common accept-loop skeleton both transports embed,
// grounded on the teacher's telnet.Server.
type baseServer struct {
	listener net.Listener
	dev      ByteDevice
	wg       sync.WaitGroup

	handle func(net.Conn)
}

func (b *baseServer) serve(ctx context.Context) error {
	b.wg.Add(1)
	defer b.wg.Done()

	go func() {
		<-ctx.Done()
		b.listener.Close()
	}()

	for {
		conn, err := b.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer conn.Close()
			b.handle(conn)
		}()
	}
}

func (b *baseServer) Close() error {
	err := b.listener.Close()
	b.wg.Wait()
	return err
}
