package command

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcornwell/cryptocore/internal/byteport"
	"github.com/rcornwell/cryptocore/internal/hash"
	"github.com/rcornwell/cryptocore/internal/iowindow"
	"github.com/rcornwell/cryptocore/internal/nvstore"
	"github.com/rcornwell/cryptocore/internal/platform"
)

func newTestEngine(t *testing.T) (*Engine, *iowindow.Window, *byteport.Port, *nvstore.Store) {
	t.Helper()
	win := &iowindow.Window{}
	port := byteport.New(win)
	store := &nvstore.Store{}
	store.Page0.UnlockMarker = nvstore.UnlockMarker
	plat := platform.NewSimulatedWithUID(store, [16]byte{1, 2, 3, 4}, nil)
	eng := New(win, port, store, plat, nil)
	return eng, win, port, store
}

func issue(win *iowindow.Window, port *byteport.Port, eng *Engine, cmd, arg0, arg1, arg2 byte) {
	port.WriteByte(iowindow.OffArg0, arg0)
	port.WriteByte(iowindow.OffArg1, arg1)
	port.WriteByte(iowindow.OffArg2, arg2)
	port.WriteByte(iowindow.OffCmd, cmd)
	<-port.Wake()
	eng.Dispatch()
}

func TestNOP(t *testing.T) {
	eng, win, port, _ := newTestEngine(t)
	copy(win.Data(), []byte{1, 2, 3})

	issue(win, port, eng, CmdNOP, 0, 0, 0)

	assert.Equal(t, byte(0x00), win.Byte(iowindow.OffRet0))
	assert.Equal(t, byte(iowindow.StatReady), win.Byte(iowindow.OffStat))
	for _, b := range win.Data() {
		assert.Equal(t, byte(0), b)
	}
}

func TestExtendPCRKnownVector(t *testing.T) {
	eng, win, port, _ := newTestEngine(t)
	copy(win.Data(), []byte("abcd"))

	issue(win, port, eng, CmdExtendPCR, 1, 4, 0)

	want, err := hex.DecodeString("15582372c1e0b91c0409f82354ca31aca7ad7f6d91b0af43bc8a3693cb4d51bb")
	require.NoError(t, err)

	assert.Equal(t, want, win.PCR(1))
	assert.Equal(t, byte(0x00), win.Byte(iowindow.OffRet0))
}

func TestExtendPCRParamErrors(t *testing.T) {
	eng, win, port, _ := newTestEngine(t)

	issue(win, port, eng, CmdExtendPCR, 3, 0, 0)
	assert.Equal(t, byte(StatusParamError), win.Byte(iowindow.OffRet0))

	issue(win, port, eng, CmdExtendPCR, 0, 81, 0)
	assert.Equal(t, byte(StatusParamError), win.Byte(iowindow.OffRet0))

	issue(win, port, eng, CmdExtendPCR, 0, 80, 0)
	assert.Equal(t, byte(StatusOK), win.Byte(iowindow.OffRet0))
}

func TestExtendIsAssociative(t *testing.T) {
	eng, win, port, _ := newTestEngine(t)

	copy(win.Data(), []byte("A"))
	issue(win, port, eng, CmdExtendPCR, 0, 1, 0)
	copy(win.Data(), []byte("B"))
	issue(win, port, eng, CmdExtendPCR, 0, 1, 0)
	got := append([]byte{}, win.PCR(0)...)

	var zero [32]byte
	first := hash.Sum256(append(append([]byte{}, zero[:]...), 'A'))
	want := hash.Sum256(append(append([]byte{}, first[:]...), 'B'))

	assert.Equal(t, want[:], got)
}

func TestCounterSaturation(t *testing.T) {
	eng, win, port, _ := newTestEngine(t)

	for i := 0; i < 16843008; i++ {
		issue(win, port, eng, CmdIncrementCtr, 0, 0xFF, 0)
		require.Equal(t, byte(StatusOK), win.Byte(iowindow.OffRet0))
	}
	assert.Equal(t, uint32(0xFFFFFF00), binary.LittleEndian.Uint32(win.Counter(0)))

	issue(win, port, eng, CmdIncrementCtr, 0, 0xFF, 0)
	assert.Equal(t, byte(StatusOK), win.Byte(iowindow.OffRet0))
	assert.Equal(t, uint32(0xFFFFFFFF), binary.LittleEndian.Uint32(win.Counter(0)))

	issue(win, port, eng, CmdIncrementCtr, 0, 0x01, 0)
	assert.Equal(t, byte(StatusCounterFailure), win.Byte(iowindow.OffRet0))
	assert.Equal(t, uint32(0xFFFFFFFF), binary.LittleEndian.Uint32(win.Counter(0)))
}

func TestRet2MirrorsArg2(t *testing.T) {
	eng, win, port, _ := newTestEngine(t)

	issue(win, port, eng, CmdNOP, 0, 0, 0x55)

	assert.Equal(t, byte(0x55), win.Byte(iowindow.OffRet2))
	assert.Equal(t, byte(0), win.Byte(iowindow.OffArg2))
}

func TestUnknownCommand(t *testing.T) {
	eng, win, port, _ := newTestEngine(t)

	issue(win, port, eng, 0x99, 0, 0, 0)

	assert.Equal(t, byte(StatusUnknownCommand), win.Byte(iowindow.OffRet0))
}

func TestQuoteIsDeterministic(t *testing.T) {
	eng, win, port, _ := newTestEngine(t)

	issue(win, port, eng, CmdQuote, 0x87, 0, 0)
	first := append([]byte{}, win.Data()[:32]...)
	assert.Equal(t, byte(StatusOK), win.Byte(iowindow.OffRet0))

	issue(win, port, eng, CmdQuote, 0x87, 0, 0)
	second := append([]byte{}, win.Data()[:32]...)

	assert.Equal(t, first, second)
}

func TestQuoteParamError(t *testing.T) {
	eng, win, port, _ := newTestEngine(t)

	issue(win, port, eng, CmdQuote, 0, 81, 0)
	assert.Equal(t, byte(StatusParamError), win.Byte(iowindow.OffRet0))
}

func TestHMACKDFProducesDigest(t *testing.T) {
	eng, win, port, _ := newTestEngine(t)
	copy(win.Data(), []byte("some seed material"))

	issue(win, port, eng, CmdHMACKDF, 18, 0, 0)

	assert.Equal(t, byte(StatusOK), win.Byte(iowindow.OffRet0))
	allZero := true
	for _, b := range win.Data()[:32] {
		if b != 0 {
			allZero = false
		}
	}
	assert.False(t, allZero)
}

func TestNVWriteUserDataRequiresPassword(t *testing.T) {
	eng, win, port, store := newTestEngine(t)

	var newData [32]byte
	copy(newData[:], []byte("new user data"))

	var wrongPw, rightPw [32]byte
	copy(wrongPw[:], []byte("wrong password"))
	copy(rightPw[:], []byte("correct horse battery staple"))
	store.Page1.UserAuth = hash.Sum256(rightPw[:])

	data := win.Data()
	copy(data[0:32], newData[:])
	copy(data[32:64], wrongPw[:])
	issue(win, port, eng, CmdNVWrite, NVSlotUserData, 0, 0)
	assert.Equal(t, byte(StatusNotPermitted), win.Byte(iowindow.OffRet0))

	copy(win.Data()[0:32], newData[:])
	copy(win.Data()[32:64], rightPw[:])
	issue(win, port, eng, CmdNVWrite, NVSlotUserData, 0, 0)
	assert.Equal(t, byte(StatusOK), win.Byte(iowindow.OffRet0))
	assert.Equal(t, newData[:], win.UserData())
}

func TestNVWritePage0RequiresUnlocked(t *testing.T) {
	eng, win, port, store := newTestEngine(t)
	store.Page0.UnlockMarker = 0

	issue(win, port, eng, CmdNVWrite, NVSlotPage0Maintenance, 0, 0)
	assert.Equal(t, byte(StatusNotPermitted), win.Byte(iowindow.OffRet0))
}

func TestNVWriteUnknownSlot(t *testing.T) {
	eng, win, port, _ := newTestEngine(t)

	issue(win, port, eng, CmdNVWrite, 0x11, 0, 0)
	assert.Equal(t, byte(StatusParamError), win.Byte(iowindow.OffRet0))
}
