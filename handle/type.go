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

package handle

import (
	"errors"
	"fmt"
)

// Type identifies the encrypted integer type behind a handle
type Type uint8

const (
	TypeEBool   Type = 0
	TypeEUint8  Type = 2
	TypeEUint16 Type = 3
	TypeEUint32 Type = 4
	TypeEUint64 Type = 5
)

var ErrUnknownType = errors.New("unknown encrypted type")

func (t Type) String() string {
	switch t {
	case TypeEBool:
		return "ebool"
	case TypeEUint8:
		return "euint8"
	case TypeEUint16:
		return "euint16"
	case TypeEUint32:
		return "euint32"
	case TypeEUint64:
		return "euint64"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// BitWidth returns the number of plaintext bits the type can hold
func (t Type) BitWidth() int {
	switch t {
	case TypeEBool:
		return 1
	case TypeEUint8:
		return 8
	case TypeEUint16:
		return 16
	case TypeEUint32:
		return 32
	case TypeEUint64:
		return 64
	default:
		return 0
	}
}

func (t Type) Validate() error {
	if t.BitWidth() == 0 {
		return fmt.Errorf("%w: %d", ErrUnknownType, uint8(t))
	}
	return nil
}

// Fits reports whether the plaintext value can be represented by the type
func (t Type) Fits(value uint64) bool {
	bits := t.BitWidth()
	switch {
	case bits == 0:
		return false
	case bits == 64:
		return true
	default:
		return value < (uint64(1) << bits)
	}
}
