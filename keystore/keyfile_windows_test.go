//go:build windows

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
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

func currentUserSIDString(t *testing.T) string {
	t.Helper()
	var token windows.Token
	err := windows.OpenProcessToken(
		windows.CurrentProcess(),
		windows.TOKEN_QUERY,
		&token,
	)
	require.NoError(t, err)
	defer token.Close()
	tokenUser, err := token.GetTokenUser()
	require.NoError(t, err)
	return tokenUser.User.Sid.String()
}

// setDACL replaces the DACL of path with the one in sddl
func setDACL(t *testing.T, path string, sddl string, protected bool) {
	t.Helper()
	sd, err := windows.SecurityDescriptorFromString(sddl)
	require.NoError(t, err)
	dacl, _, err := sd.DACL()
	require.NoError(t, err)
	info := windows.SECURITY_INFORMATION(windows.DACL_SECURITY_INFORMATION)
	if protected {
		info |= windows.PROTECTED_DACL_SECURITY_INFORMATION
	}
	err = windows.SetNamedSecurityInfo(
		path,
		windows.SE_FILE_OBJECT,
		info,
		nil, nil, dacl, nil,
	)
	require.NoError(t, err)
}

func TestCheckSDDL(t *testing.T) {
	tests := []struct {
		sddl   string
		denied string
	}{
		{sddl: "D:(A;;GR;;;WD)", denied: "Everyone"},
		{sddl: "D:(A;;GR;;;BU)", denied: "BUILTIN\\Users"},
		{sddl: "D:(A;;GR;;;S-1-5-11)", denied: "Authenticated Users"},
		{sddl: "O:BA"},
		{sddl: "D:P(A;;GA;;;SY)(D;;GR;;;WD)"},
	}
	for _, tc := range tests {
		err := checkSDDL("owner.key", tc.sddl)
		if tc.sddl == "O:BA" {
			require.ErrorIs(t, err, ErrInsecureFileMode, tc.sddl)
			continue
		}
		if tc.denied == "" {
			require.NoError(t, err, tc.sddl)
			continue
		}
		require.ErrorIs(t, err, ErrInsecureFileMode, tc.sddl)
		assert.Contains(t, err.Error(), tc.denied)
	}
}

func TestAceStrings(t *testing.T) {
	assert.Equal(
		t,
		[]string{"A;;GA;;;SY", "D;;GR;;;WD"},
		aceStrings("P(A;;GA;;;SY)(D;;GR;;;WD)(broken"),
	)
	assert.Empty(t, aceStrings("P"))
}

func TestKeyFilePermissionsWindows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "owner.key")
	require.NoError(t, os.WriteFile(path, []byte(testKeyJSON), 0o600))

	setDACL(t, path, "D:(A;;GR;;;WD)", false)
	_, err := LoadKeyFile(path)
	require.ErrorIs(t, err, ErrInsecureFileMode)

	setDACL(t, path, fmt.Sprintf("D:P(A;;GA;;;%s)", currentUserSIDString(t)), true)
	key, err := LoadKeyFile(path)
	require.NoError(t, err)
	assert.Equal(t, testAddress, key.Address().Hex())
}
