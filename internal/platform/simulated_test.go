package platform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcornwell/cryptocore/internal/nvstore"
)

func TestReadDeviceUIDLatchesOnFirstCall(t *testing.T) {
	s := NewSimulated(&nvstore.Store{}, nil)

	first, err := s.ReadDeviceUID()
	require.NoError(t, err)

	second, err := s.ReadDeviceUID()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReadDeviceUIDWithUIDSkipsGeneration(t *testing.T) {
	old := randRead
	defer func() { randRead = old }()
	randRead = func([]byte) (int, error) {
		t.Fatal("randRead should not be called when a UID was pre-latched")
		return 0, nil
	}

	want := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	s := NewSimulatedWithUID(&nvstore.Store{}, want, nil)

	got, err := s.ReadDeviceUID()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadDeviceUIDFallsBackTo0xFFOnFailure(t *testing.T) {
	old := randRead
	defer func() { randRead = old }()
	randRead = func([]byte) (int, error) {
		return 0, errors.New("entropy source unavailable")
	}

	s := NewSimulated(&nvstore.Store{}, nil)

	got, err := s.ReadDeviceUID()
	require.Error(t, err)

	var want [16]byte
	for i := range want {
		want[i] = 0xFF
	}
	assert.Equal(t, want, got)

	// The failed latch still sticks - a later successful randRead must
	// not overwrite the fallback identity.
	randRead = old
	again, err := s.ReadDeviceUID()
	require.NoError(t, err)
	assert.Equal(t, want, again)
}

func TestNVWritePageUpdatesStore(t *testing.T) {
	store := &nvstore.Store{}
	s := NewSimulated(store, nil)

	var page0 nvstore.Page0
	page0.UnlockMarker = nvstore.UnlockMarker
	page0.RootKey = [32]byte{9, 9, 9}

	ok := s.NVWritePage(Page0, nvstore.EncodePage0(&page0))
	require.True(t, ok)
	assert.True(t, store.Unlocked())
	assert.Equal(t, page0.RootKey, store.Page0.RootKey)
}

func TestHaltPanicsWithHaltError(t *testing.T) {
	s := NewSimulated(&nvstore.Store{}, nil)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		he, ok := r.(*HaltError)
		require.True(t, ok)
		assert.Equal(t, "impossible byte-port state", he.Reason)
	}()
	s.Halt("impossible byte-port state")
}
