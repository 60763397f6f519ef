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


package main

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliEnv struct {
	t       *testing.T
	dataDir string
	keyDir  string
}

func newCliEnv(t *testing.T) *cliEnv {
	t.Helper()
	// Keep the user's config files out of the test
	t.Setenv("HOME", t.TempDir())
	return &cliEnv{
		t:       t,
		dataDir: t.TempDir(),
		keyDir:  t.TempDir(),
	}
}

func (e *cliEnv) exec(args ...string) (string, error) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *cliEnv) run(v any, args ...string) {
	e.t.Helper()
	out, err := e.exec(args...)
	require.NoError(e.t, err, "args: %v", args)
	if v != nil {
		require.NoError(e.t, json.Unmarshal([]byte(out), v), "output: %s", out)
	}
}

func (e *cliEnv) keyFile(name string) string {
	return filepath.Join(e.keyDir, name+".key")
}

func (e *cliEnv) newKey(name string) string {
	e.t.Helper()
	var res keyResult
	e.run(&res, "--key", e.keyFile(name), "key", "generate")
	return res.Address
}

func TestVersionCommand(t *testing.T) {
	env := newCliEnv(t)
	out, err := env.exec("version")
	require.NoError(t, err)
	assert.Contains(t, out, programName)
}

func TestKeyCommands(t *testing.T) {
	env := newCliEnv(t)
	addr := env.newKey("alice")
	var shown keyResult
	env.run(&shown, "--key", env.keyFile("alice"), "key", "show")
	assert.Equal(t, addr, shown.Address)
	// Existing key files are never overwritten
	_, err := env.exec("--key", env.keyFile("alice"), "key", "generate")
	require.Error(t, err)
}

func TestSessionRequiresOwnerAndKey(t *testing.T) {
	env := newCliEnv(t)
	_, err := env.exec("path", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no owner configured")

	t.Setenv("LANGJOURNEY_OWNER", env.newKey("owner"))
	t.Setenv("LANGJOURNEY_KEY_FILE", "")
	_, err = env.exec("path", "create", "QmPath", "--tasks", "3")
	require.ErrorIs(t, err, errNoKeyFile)
}

func TestLearningFlow(t *testing.T) {
	env := newCliEnv(t)
	owner := env.newKey("owner")
	t.Setenv("LANGJOURNEY_OWNER", owner)
	env.newKey("creator")
	learner := env.newKey("learner")
	teacher := env.newKey("teacher")

	var created idResult
	env.run(&created, "--key", env.keyFile("creator"), "path", "create", "QmPath", "--tasks", "3")
	require.Equal(t, uint64(1), created.ID)
	pathID := strconv.FormatUint(created.ID, 10)

	var path pathDetail
	env.run(&path, "path", "get", pathID)
	assert.Equal(t, "QmPath", path.ContentRef)
	assert.True(t, path.Active)

	var decrypted []decryptResult
	env.run(&decrypted, "--key", env.keyFile("creator"), "decrypt", path.TaskCount.Handle)
	require.Len(t, decrypted, 1)
	assert.Equal(t, uint64(3), decrypted[0].Value)

	env.run(&created, "--key", env.keyFile("learner"), "task", "submit", pathID, "1", "QmWork", "--score", "85")
	subID := strconv.FormatUint(created.ID, 10)

	var pending []json.RawMessage
	env.run(&pending, "submission", "list", "--status", "pending")
	assert.Len(t, pending, 1)

	// Only authorized teachers may review
	_, err := env.exec("--key", env.keyFile("teacher"), "submission", "verify", subID, "--score", "90")
	require.Error(t, err)
	_, err = env.exec("--key", env.keyFile("learner"), "teacher", "authorize", teacher)
	require.Error(t, err)

	env.run(nil, "--key", env.keyFile("owner"), "teacher", "authorize", teacher)
	var check struct {
		Authorized bool `json:"authorized"`
	}
	env.run(&check, "teacher", "check", teacher)
	assert.True(t, check.Authorized)

	var reviewed struct {
		Status string `json:"status"`
	}
	env.run(&reviewed, "--key", env.keyFile("teacher"), "submission", "verify", subID, "--score", "90")
	assert.Equal(t, "approved", reviewed.Status)

	var sub submissionDetail
	env.run(&sub, "submission", "get", subID)
	env.run(&decrypted, "--key", env.keyFile("learner"), "decrypt", sub.Score.Handle)
	require.Len(t, decrypted, 1)
	assert.Equal(t, uint64(90), decrypted[0].Value)

	env.run(&created, "--key", env.keyFile("learner"), "cert", "mint", pathID, "QmCert", "--score", "90")
	var certs []json.RawMessage
	env.run(&certs, "cert", "list", "--learner", learner)
	assert.Len(t, certs, 1)

	env.run(nil, "--key", env.keyFile("creator"), "path", "deactivate", pathID)
	_, err = env.exec("--key", env.keyFile("learner"), "task", "submit", pathID, "2", "QmMore", "--score", "70")
	require.Error(t, err)

	env.run(nil, "--key", env.keyFile("owner"), "teacher", "revoke", teacher)
	var teachers []json.RawMessage
	env.run(&teachers, "teacher", "list")
	assert.Empty(t, teachers)
}

func TestArgumentErrors(t *testing.T) {
	env := newCliEnv(t)
	t.Setenv("LANGJOURNEY_OWNER", env.newKey("owner"))
	tests := [][]string{
		{"path", "get", "0"},
		{"path", "get", "abc"},
		{"teacher", "check", "not-an-address"},
		{"submission", "list", "--status", "approved"},
		{"path", "get", "7"},
	}
	for _, args := range tests {
		_, err := env.exec(args...)
		assert.Error(t, err, "args: %v", args)
	}
	_, err := parseDecision("maybe")
	require.Error(t, err)
}
