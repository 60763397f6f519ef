// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	keyFileType        = "SigningKey_secp256k1"
	keyFileDescription = "LangJourney Account Signing Key"
)

type keyFileEnvelope struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Address     string `json:"address"`
	KeyHex      string `json:"keyHex"`
}

// LoadKeyFile reads a key file. Files readable by anyone but the owner are
// rejected with ErrInsecureFileMode.
//
// Permissions are checked on the open handle so the file can't be swapped
// between the check and the read.
func LoadKeyFile(path string) (*Key, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file %q: %w", path, err)
	}
	defer f.Close()

	if err := checkOpenFilePermissions(f); err != nil {
		return nil, err
	}

	// Valid key files are a few hundred bytes
	const maxKeyFileSize = 1 << 16
	data, err := io.ReadAll(io.LimitReader(f, maxKeyFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %q: %w", path, err)
	}
	key, err := parseKeyEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key file %q: %w", path, err)
	}
	return key, nil
}

// SaveKeyFile writes key to a new owner-only file. Existing files are never
// overwritten.
func SaveKeyFile(path string, key *Key) error {
	if key == nil {
		return ErrKeyNotLoaded
	}
	data, err := json.MarshalIndent(keyFileEnvelope{
		Type:        keyFileType,
		Description: keyFileDescription,
		Address:     key.Address().Hex(),
		KeyHex:      hexutil.Encode(key.bytes()),
	}, "", "    ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create key directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrKeyFileExists, path)
		}
		return fmt.Errorf("failed to create key file %q: %w", path, err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write key file %q: %w", path, err)
	}
	return f.Close()
}

func parseKeyEnvelope(fileBytes []byte) (*Key, error) {
	var env keyFileEnvelope
	if err := json.Unmarshal(fileBytes, &env); err != nil {
		return nil, fmt.Errorf("could not parse key file envelope: %w", err)
	}
	if env.Type != keyFileType {
		return nil, fmt.Errorf("unknown key type: %s", env.Type)
	}
	keyBytes, err := hexutil.Decode(env.KeyHex)
	if err != nil {
		return nil, fmt.Errorf("could not decode key from hex: %w", err)
	}
	privateKey, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid secp256k1 key: %w", err)
	}
	key, err := NewKey(privateKey)
	if err != nil {
		return nil, err
	}
	// The address is informational, but a mismatch means the file was edited
	if env.Address != "" && !strings.EqualFold(env.Address, key.Address().Hex()) {
		return nil, fmt.Errorf(
			"key file address %s does not match key address %s",
			env.Address,
			key.Address().Hex(),
		)
	}
	return key, nil
}
