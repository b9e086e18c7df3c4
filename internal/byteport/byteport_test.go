package byteport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcornwell/cryptocore/internal/iowindow"
)

func TestCmdWriteSetsBusyAndWakes(t *testing.T) {
	win := &iowindow.Window{}
	p := New(win)

	p.WriteByte(iowindow.OffCmd, 0xE0)

	assert.True(t, p.CommandActive())
	assert.Equal(t, byte(iowindow.StatBusy), p.ReadByte(iowindow.OffStat))
	assert.Equal(t, byte(iowindow.StatBusy), p.ReadByte(0))

	select {
	case <-p.Wake():
	default:
		t.Fatal("expected a pending wake token")
	}
}

func TestCmdWriteIgnoredWhileBusy(t *testing.T) {
	win := &iowindow.Window{}
	p := New(win)

	p.WriteByte(iowindow.OffCmd, 0xE0)
	<-p.Wake()
	p.WriteByte(iowindow.OffCmd, 0xA0)

	assert.Equal(t, byte(0xE0), win.Byte(iowindow.OffCmd))
	assert.Equal(t, byte(iowindow.StatBusy), p.ReadByte(iowindow.OffCmd))
}

func TestWritesBelowStatIgnoredWhileBusy(t *testing.T) {
	win := &iowindow.Window{}
	p := New(win)

	p.WriteByte(iowindow.OffArg0, 0x42)
	require.Equal(t, byte(0x42), win.Byte(iowindow.OffArg0))

	p.WriteByte(iowindow.OffCmd, 0xE0)
	p.WriteByte(iowindow.OffArg0, 0x99)
	assert.Equal(t, byte(0x42), win.Byte(iowindow.OffArg0))
}

func TestVolatileLocksAreMonotone(t *testing.T) {
	win := &iowindow.Window{}
	p := New(win)

	p.WriteByte(iowindow.OffVolatileLocks, 0x0F)
	p.WriteByte(iowindow.OffVolatileLocks, 0x00)

	assert.Equal(t, byte(0x0F), p.ReadByte(iowindow.OffVolatileLocks))
}

func TestVolatileLocksAcceptedWhileBusy(t *testing.T) {
	win := &iowindow.Window{}
	p := New(win)

	p.WriteByte(iowindow.OffCmd, 0xE0)
	p.WriteByte(iowindow.OffVolatileLocks, 0x0F)

	_, locks := p.SampleVolatile()
	assert.Equal(t, byte(0x0F), locks[0])
}

func TestVolatileBitsHonorLocks(t *testing.T) {
	win := &iowindow.Window{}
	p := New(win)

	p.WriteByte(iowindow.OffVolatileLocks, 0x0F)
	p.WriteByte(iowindow.OffVolatileBits, 0xFF)

	bits, _ := p.SampleVolatile()
	assert.Equal(t, byte(0xF0), bits[0])
}

func TestCompleteRestoresReadyAndMirrorsArg2(t *testing.T) {
	win := &iowindow.Window{}
	p := New(win)

	copy(win.Data(), []byte{1, 2, 3, 4})
	p.WriteByte(iowindow.OffCmd, 0xE0)
	<-p.Wake()

	p.Complete(0x00, 0, 0x77)

	assert.False(t, p.CommandActive())
	assert.Equal(t, byte(iowindow.StatReady), p.ReadByte(iowindow.OffStat))
	assert.Equal(t, byte(0x00), win.Byte(iowindow.OffRet0))
	assert.Equal(t, byte(0x77), win.Byte(iowindow.OffRet2))
	assert.Equal(t, byte(0), win.Byte(iowindow.OffArg0))
	assert.Equal(t, byte(0), win.Byte(iowindow.OffCmd))
	for _, b := range win.Data() {
		assert.Equal(t, byte(0), b)
	}
}
