/*
 * cryptocore - device provisioning / NV seed loader.
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

// Package provision turns a YAML manifest into the seed values the
// firmware's original source built in as compile-time constants: the
// initial NV page contents a fresh or factory-reset device starts from.
package provision

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/rcornwell/cryptocore/internal/hash"
	"github.com/rcornwell/cryptocore/internal/nvstore"
)

// Manifest is the on-disk YAML shape for a device's initial NV contents.
// All byte-string fields are hex-encoded.
type Manifest struct {
	UnlockMarker      string `yaml:"unlock_marker"`
	SysConfig         uint32 `yaml:"sys_config"`
	VolatileBitsInit  uint32 `yaml:"volatile_bits_init"`
	VolatileLocksInit uint32 `yaml:"volatile_locks_init"`
	HKDFSeed          string `yaml:"hkdf_seed"`
	QuoteSeed         string `yaml:"quote_seed"`
	RootKey           string `yaml:"root_key"`
	UserData          string `yaml:"user_data"`

	// UserPassword is zero-padded (or cut) to the 32-byte password field
	// of an NV-Write and hashed into Page1.UserAuth, so a freshly
	// provisioned device accepts that password, sent zero-padded, on its
	// first NV-Write to the user-data slot. UserAuthHex takes precedence when
	// set, for manifests (like the factory-default fixture) that need to
	// reproduce a specific stored hash rather than a human password.
	UserPassword string `yaml:"user_password"`
	UserAuthHex  string `yaml:"user_auth"`
}

// Load reads and parses a manifest file at path.
func Load(path string) (*Manifest, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(buf, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

func decodeFixed(field, s string, out []byte) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%s: invalid hex: %w", field, err)
	}
	if len(b) != len(out) {
		return fmt.Errorf("%s: want %d bytes, got %d", field, len(out), len(b))
	}
	copy(out, b)
	return nil
}

// Store builds an *nvstore.Store from the manifest, hashing UserPassword,
// zero-padded to 32 bytes, into Page1.UserAuth so a freshly provisioned
// device accepts that password on its first NV-Write to the user-data slot.
func (m *Manifest) Store() (*nvstore.Store, error) {
	var s nvstore.Store

	marker, err := hex.DecodeString(m.UnlockMarker)
	if err != nil || len(marker) != 4 {
		return nil, fmt.Errorf("unlock_marker: want 4-byte hex, got %q", m.UnlockMarker)
	}
	s.Page0.UnlockMarker = uint32(marker[0]) | uint32(marker[1])<<8 | uint32(marker[2])<<16 | uint32(marker[3])<<24

	s.Page0.SysConfig = m.SysConfig
	s.Page0.VolatileBitsInit = m.VolatileBitsInit
	s.Page0.VolatileLocksInit = m.VolatileLocksInit

	if err := decodeFixed("hkdf_seed", m.HKDFSeed, s.Page0.HKDFSeed[:]); err != nil {
		return nil, err
	}
	if err := decodeFixed("quote_seed", m.QuoteSeed, s.Page0.QuoteSeed[:]); err != nil {
		return nil, err
	}
	if err := decodeFixed("root_key", m.RootKey, s.Page0.RootKey[:]); err != nil {
		return nil, err
	}
	if err := decodeFixed("user_data", m.UserData, s.Page1.UserData[:]); err != nil {
		return nil, err
	}

	if m.UserAuthHex != "" {
		if err := decodeFixed("user_auth", m.UserAuthHex, s.Page1.UserAuth[:]); err != nil {
			return nil, err
		}
	} else {
		var pw [32]byte
		copy(pw[:], m.UserPassword)
		s.Page1.UserAuth = hash.Sum256(pw[:])
	}

	return &s, nil
}
