package transport

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	mem [256]byte
}

func (f *fakeDevice) ReadByte(addr uint8) uint8 {
	return f.mem[addr]
}

func (f *fakeDevice) WriteByte(addr uint8, data uint8) {
	f.mem[addr] = data
}

func TestSimpleSerialWriteAndRead(t *testing.T) {
	dev := &fakeDevice{}
	s, err := NewSimpleSerial("127.0.0.1:0", dev, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Serve(ctx)
	defer func() {
		cancel()
		s.Close()
	}()

	conn, err := net.Dial("tcp", s.base.listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("W5042\n"))
	require.NoError(t, err)

	rd := bufio.NewReader(conn)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := rd.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "z\n", line)
	assert.Equal(t, byte(0x42), dev.mem[0x50])

	_, err = conn.Write([]byte("R50\n"))
	require.NoError(t, err)
	line, err = rd.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "42z\n", line)
}

func TestI2CSequentialReadAutoIncrements(t *testing.T) {
	dev := &fakeDevice{}
	for i := range dev.mem {
		dev.mem[i] = byte(i)
	}

	i2c, err := NewI2C("127.0.0.1:0", dev, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go i2c.Serve(ctx)
	defer func() {
		cancel()
		i2c.Close()
	}()

	conn, err := net.Dial("tcp", i2c.base.listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{'S', 0x10})
	require.NoError(t, err)
	_, err = conn.Write([]byte{'R', 4})
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	assert.Equal(t, []byte{0x10, 0x11, 0x12, 0x13}, buf)
}

func TestI2CPageWrite(t *testing.T) {
	dev := &fakeDevice{}
	i2c, err := NewI2C("127.0.0.1:0", dev, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go i2c.Serve(ctx)
	defer func() {
		cancel()
		i2c.Close()
	}()

	conn, err := net.Dial("tcp", i2c.base.listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{'S', 0x00})
	require.NoError(t, err)
	_, err = conn.Write(append([]byte{'W', 3}, 0xAA, 0xBB, 0xCC))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	ack := make([]byte, 1)
	_, err = conn.Read(ack)
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), ack[0])
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, dev.mem[0:3])
}
