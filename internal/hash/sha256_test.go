package hash

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestSum256KnownVectors(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		want string
	}{
		{"empty", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"abc", "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{
			"two-block",
			"abcdbcdecdefdefgefghfghighijhijkijkljklmklmnlmnomnopnopq",
			"248d6a61d20638b8e5c026930c3e6039a33ce45964ff2167f6ecedd419db06c1",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Sum256([]byte(c.msg))
			assert.Equal(t, mustHex(t, c.want), got[:])
		})
	}
}

func TestEngineReusableAfterFinal(t *testing.T) {
	var e Engine
	e.Reset()
	e.Update([]byte("abc"))
	var first [DigestSize]byte
	e.Final(&first)

	e.Reset()
	e.Update([]byte("abc"))
	var second [DigestSize]byte
	e.Final(&second)

	assert.Equal(t, first, second)
	assert.Equal(t, Sum256([]byte("abc")), first)
}

func TestUpdateByteAtATimeMatchesOneShot(t *testing.T) {
	msg := []byte("the quick brown fox jumps over the lazy dog, twice over for good measure")

	var e Engine
	e.Reset()
	for _, b := range msg {
		e.Update([]byte{b})
	}
	var got [DigestSize]byte
	e.Final(&got)

	assert.Equal(t, Sum256(msg), got)
}

// hmacReference computes HMAC-SHA-256 directly from its RFC 2104 definition
// using only the already-verified Sum256, independently of HMACReset's
// ipad/opad bookkeeping.
func hmacReference(key, msg []byte) [DigestSize]byte {
	var blockKey [blockSize]byte
	if len(key) > blockSize {
		k := Sum256(key)
		copy(blockKey[:], k[:])
	} else {
		copy(blockKey[:], key)
	}

	var ipad, opad [blockSize]byte
	for i := 0; i < blockSize; i++ {
		ipad[i] = blockKey[i] ^ 0x36
		opad[i] = blockKey[i] ^ 0x5c
	}

	inner := Sum256(append(append([]byte{}, ipad[:]...), msg...))
	return Sum256(append(append([]byte{}, opad[:]...), inner[:]...))
}

func TestHMACMatchesReferenceConstruction(t *testing.T) {
	cases := []struct {
		name string
		key  []byte
		msg  []byte
	}{
		{"short key", []byte("key"), []byte("The quick brown fox jumps over the lazy dog")},
		{"jefe", []byte("Jefe"), []byte("what do ya want for nothing?")},
		{"block-length key", make([]byte, blockSize), []byte("exact block size key")},
		{"oversized key", make([]byte, 200), []byte("Test Using Larger Than Block-Size Key - Hash Key First")},
	}

	for i := range cases[2].key {
		cases[2].key[i] = byte(i)
	}
	for i := range cases[3].key {
		cases[3].key[i] = 0xaa
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			want := hmacReference(c.key, c.msg)
			got := SumHMAC256(c.key, c.msg)
			assert.Equal(t, want, got)
		})
	}
}

func TestHMACIncrementalUpdateMatchesOneShot(t *testing.T) {
	key := []byte("key")
	msg := []byte("this message is split into several pieces for incremental update")

	var e Engine
	e.HMACReset(key)
	e.HMACUpdate(msg[:10])
	e.HMACUpdate(msg[10:])
	var got [DigestSize]byte
	e.HMACFinal(&got)

	assert.Equal(t, SumHMAC256(key, msg), got)
}

func TestHMACKeyMaterialZeroedAfterFinal(t *testing.T) {
	var e Engine
	e.HMACReset([]byte("secret"))
	e.HMACUpdate([]byte("msg"))
	var out [DigestSize]byte
	e.HMACFinal(&out)

	var zero [DigestSize]byte
	assert.Equal(t, zero, e.pad)
}
