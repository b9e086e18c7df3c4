package provision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcornwell/cryptocore/internal/nvstore"
)

func TestLoadDefaultManifest(t *testing.T) {
	m, err := Load("testdata/default.yaml")
	require.NoError(t, err)

	store, err := m.Store()
	require.NoError(t, err)

	assert.Equal(t, uint32(nvstore.UnlockMarker), store.Page0.UnlockMarker)
	assert.True(t, store.Unlocked())
	assert.Equal(t, byte(0x20), store.Page0.I2CAddr())
	assert.Equal(t, [8]byte{0xc3, 0xc3, 0xc3, 0xc3, 0xc3, 0xc3, 0xc3, 0xc3}, store.Page0.HKDFSeed)
	assert.Equal(t, [8]byte{0x3c, 0x3c, 0x3c, 0x3c, 0x3c, 0x3c, 0x3c, 0x3c}, store.Page0.QuoteSeed)
	assert.Equal(t, store.Page0.RootKey[:], store.Page1.UserAuth[:])

	want := []byte("don't feed the bugs!")
	assert.Equal(t, want, store.Page1.UserData[:len(want)])
	for _, b := range store.Page1.UserData[len(want):] {
		assert.Equal(t, byte(0), b)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}

func TestStoreRejectsBadHexLength(t *testing.T) {
	m := &Manifest{
		UnlockMarker: "00000000",
		RootKey:      "abcd",
	}
	_, err := m.Store()
	assert.Error(t, err)
}
