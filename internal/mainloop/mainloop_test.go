package mainloop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rcornwell/cryptocore/internal/byteport"
	"github.com/rcornwell/cryptocore/internal/command"
	"github.com/rcornwell/cryptocore/internal/iowindow"
	"github.com/rcornwell/cryptocore/internal/nvstore"
	"github.com/rcornwell/cryptocore/internal/platform"
)

func TestLoopDispatchesPostedCommand(t *testing.T) {
	win := &iowindow.Window{}
	port := byteport.New(win)
	store := &nvstore.Store{}
	plat := platform.NewSimulated(store, nil)
	eng := command.New(win, port, store, plat, nil)
	loop := New(port, eng, plat, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	port.WriteByte(iowindow.OffCmd, command.CmdNOP)

	require := func(cond bool) {
		if !cond {
			t.Fatal("command was not dispatched in time")
		}
	}
	deadline := time.After(time.Second)
	for {
		if win.Byte(iowindow.OffStat) == iowindow.StatReady && win.Byte(iowindow.OffCmd) == 0 {
			break
		}
		select {
		case <-deadline:
			require(false)
		case <-time.After(time.Millisecond):
		}
	}

	assert.Equal(t, byte(0x00), win.Byte(iowindow.OffRet0))

	cancel()
	assert.True(t, loop.Wait(time.Second))
}
