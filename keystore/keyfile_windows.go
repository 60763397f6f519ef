//go:build windows

// Copyright 2026 Blink Labs Software
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
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/windows"
)

// Trustees that must hold no allow entry on a key file, by SDDL alias and
// by SID string
var insecureSIDs = map[string]string{
	"WD":           "Everyone",
	"S-1-1-0":      "Everyone",
	"BU":           "BUILTIN\\Users",
	"S-1-5-32-545": "BUILTIN\\Users",
	"AU":           "Authenticated Users",
	"S-1-5-11":     "Authenticated Users",
}

// checkFilePermissions reads the DACL of a key file as SDDL and rejects
// files readable by any of insecureSIDs. It stays clear of the unsafe
// package (see https://go.dev/issue/73199).
func checkFilePermissions(path string) error {
	sd, err := windows.GetNamedSecurityInfo(
		path,
		windows.SE_FILE_OBJECT,
		windows.DACL_SECURITY_INFORMATION,
	)
	if err != nil {
		return fmt.Errorf(
			"failed to get security info for %q: %w",
			path,
			err,
		)
	}
	// sd is never freed, as that needs unsafe.Pointer. Key files are
	// loaded once per command.
	sddl := sd.String()
	if sddl == "" {
		return fmt.Errorf(
			"failed to read security descriptor for %q",
			path,
		)
	}

	return checkSDDL(path, sddl)
}

// checkOpenFilePermissions checks by path. NTFS won't replace a file that is
// held open.
func checkOpenFilePermissions(f *os.File) error {
	return checkFilePermissions(f.Name())
}

// checkSDDL rejects a security descriptor whose DACL is missing or allows
// access to a broad group
func checkSDDL(path, sddl string) error {
	_, dacl, found := strings.Cut(sddl, "D:")
	if !found {
		return fmt.Errorf(
			"key file %q has no DACL: %w",
			path,
			ErrInsecureFileMode,
		)
	}
	// SACL follows the DACL when present
	dacl, _, _ = strings.Cut(dacl, "S:")
	for _, ace := range aceStrings(dacl) {
		// type;flags;rights;object_guid;inherit_object_guid;trustee
		fields := strings.Split(ace, ";")
		if len(fields) < 6 || fields[0] != "A" {
			continue
		}
		if name, ok := insecureSIDs[fields[5]]; ok {
			return fmt.Errorf(
				"key file %q is readable by %s: %w",
				path,
				name,
				ErrInsecureFileMode,
			)
		}
	}
	return nil
}

// aceStrings returns the parenthesized entries of a DACL string without
// their parentheses
func aceStrings(dacl string) []string {
	var ret []string
	for {
		_, rest, ok := strings.Cut(dacl, "(")
		if !ok {
			return ret
		}
		ace, tail, ok := strings.Cut(rest, ")")
		if !ok {
			return ret
		}
		ret = append(ret, ace)
		dacl = tail
	}
}
