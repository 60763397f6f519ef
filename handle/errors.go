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

// ErrFormat is the class of all handle decoding failures
var ErrFormat = errors.New("invalid handle format")

// FormatError describes a source value that could not be normalized into a
// handle
type FormatError struct {
	Source any
	Reason string
}

func newFormatError(src any, reason string) *FormatError {
	return &FormatError{Source: src, Reason: reason}
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s (%T)", ErrFormat, e.Reason, e.Source)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}
