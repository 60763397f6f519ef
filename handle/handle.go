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

// Package handle implements the encrypted value handle: an opaque 32-byte
// reference to a ciphertext held by the coprocessor.
package handle

import (
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Size is the length of a handle in bytes
const Size = 32

// Byte offsets within a handle
const (
	digestLen     = 21
	indexOffset   = 21
	chainIdOffset = 22
	typeOffset    = 30
	versionOffset = 31
)

// Version is the handle layout version produced by this package
const Version uint8 = 0

// Handle is an opaque reference to a ciphertext. It carries no plaintext.
//
// Layout: digest (21 bytes) | input index (1) | chain id (8, big-endian) |
// FHE type (1) | version (1)
type Handle [Size]byte

// Zero is the unset handle
var Zero Handle

// Build assembles a handle from a digest and the layout fields. Only the
// first 21 bytes of digest are used.
func Build(
	digest []byte,
	index uint8,
	chainId uint64,
	fheType Type,
) Handle {
	var h Handle
	copy(h[:digestLen], digest)
	h[indexOffset] = index
	binary.BigEndian.PutUint64(h[chainIdOffset:typeOffset], chainId)
	h[typeOffset] = byte(fheType)
	h[versionOffset] = Version
	return h
}

// Type returns the FHE type encoded in the handle
func (h Handle) Type() Type {
	return Type(h[typeOffset])
}

// Index returns the position of the handle within its input batch
func (h Handle) Index() uint8 {
	return h[indexOffset]
}

// ChainId returns the chain id the handle was produced for
func (h Handle) ChainId() uint64 {
	return binary.BigEndian.Uint64(h[chainIdOffset:typeOffset])
}

// Version returns the layout version byte
func (h Handle) Version() uint8 {
	return h[versionOffset]
}

func (h Handle) IsZero() bool {
	return h == Zero
}

func (h Handle) Bytes() []byte {
	ret := make([]byte, Size)
	copy(ret, h[:])
	return ret
}

// Hex returns the 0x-prefixed hex encoding of the handle
func (h Handle) Hex() string {
	return hexutil.Encode(h[:])
}

func (h Handle) String() string {
	return h.Hex()
}

// Hash returns the handle as a go-ethereum hash
func (h Handle) Hash() common.Hash {
	return common.Hash(h)
}

func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

func (h *Handle) UnmarshalText(data []byte) error {
	tmp, err := New(string(data))
	if err != nil {
		return err
	}
	*h = tmp
	return nil
}

// Value implements driver.Valuer so handles can be stored in gorm models
func (h Handle) Value() (driver.Value, error) {
	return h.Bytes(), nil
}

// Scan implements sql.Scanner
func (h *Handle) Scan(val any) error {
	switch v := val.(type) {
	case []byte:
		if len(v) != Size {
			return fmt.Errorf(
				"invalid handle length %d, expected %d",
				len(v),
				Size,
			)
		}
		copy(h[:], v)
		return nil
	case string:
		tmp, err := New(v)
		if err != nil {
			return err
		}
		*h = tmp
		return nil
	case nil:
		*h = Zero
		return nil
	default:
		return fmt.Errorf(
			"value was not expected type, wanted []byte, got %T",
			val,
		)
	}
}

// New builds a handle from any of the supported source encodings:
//   - Handle, common.Hash, [32]byte
//   - []byte, left-padded with zeros to 32 bytes
//   - []int, []uint, []any of integers in the range 0-255 (decoded JSON arrays)
//   - hex string, with or without 0x prefix, left-padded with zeros to 32 bytes
//
// Any other input yields a *FormatError
func New(src any) (Handle, error) {
	switch v := src.(type) {
	case Handle:
		return v, nil
	case *Handle:
		if v == nil {
			return Zero, newFormatError(src, "nil handle")
		}
		return *v, nil
	case common.Hash:
		return Handle(v), nil
	case [Size]byte:
		return Handle(v), nil
	case []byte:
		return fromBytes(src, v)
	case []int:
		return fromInts(src, len(v), func(i int) (int64, bool) {
			return int64(v[i]), true
		})
	case []uint:
		return fromInts(src, len(v), func(i int) (int64, bool) {
			if v[i] > 255 {
				return 0, false
			}
			return int64(v[i]), true
		})
	case []any:
		return fromInts(src, len(v), func(i int) (int64, bool) {
			return anyToInt(v[i])
		})
	case string:
		return fromHex(src, v)
	case nil:
		return Zero, newFormatError(src, "nil input")
	default:
		return Zero, newFormatError(
			src,
			fmt.Sprintf("unsupported source type %T", src),
		)
	}
}

// MustNew is like New but panics on error. It's intended for constants and
// tests.
func MustNew(src any) Handle {
	h, err := New(src)
	if err != nil {
		panic(err)
	}
	return h
}

func fromBytes(src any, data []byte) (Handle, error) {
	if len(data) > Size {
		return Zero, newFormatError(
			src,
			fmt.Sprintf("length %d exceeds %d bytes", len(data), Size),
		)
	}
	var h Handle
	copy(h[Size-len(data):], data)
	return h, nil
}

func fromInts(
	src any,
	count int,
	elem func(int) (int64, bool),
) (Handle, error) {
	if count > Size {
		return Zero, newFormatError(
			src,
			fmt.Sprintf("length %d exceeds %d bytes", count, Size),
		)
	}
	buf := make([]byte, count)
	for i := range count {
		val, ok := elem(i)
		if !ok || val < 0 || val > 255 {
			return Zero, newFormatError(
				src,
				fmt.Sprintf("element %d is not a byte value", i),
			)
		}
		buf[i] = byte(val)
	}
	return fromBytes(src, buf)
}

func fromHex(src any, s string) (Handle, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if s == "" {
		return Zero, newFormatError(src, "empty hex string")
	}
	if len(s)%2 != 0 {
		return Zero, newFormatError(src, "odd length hex string")
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return Zero, newFormatError(src, err.Error())
	}
	return fromBytes(src, data)
}

func anyToInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > 255 {
			return 0, false
		}
		return int64(n), true
	case float64:
		// encoding/json decodes numbers into float64
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
