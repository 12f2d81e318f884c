// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	shared := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(local, []byte("UI2CODE_TEST_A=local\n"), 0o600))
	require.NoError(t, os.WriteFile(shared, []byte("UI2CODE_TEST_A=shared\nUI2CODE_TEST_B=shared\nUI2CODE_TEST_C=shared\n"), 0o600))
	t.Setenv("UI2CODE_TEST_C", "process")
	t.Cleanup(func() {
		_ = os.Unsetenv("UI2CODE_TEST_A")
		_ = os.Unsetenv("UI2CODE_TEST_B")
	})

	require.NoError(t, loadEnv(local, shared, filepath.Join(dir, "missing.env")))

	assert.Equal(t, "local", os.Getenv("UI2CODE_TEST_A"))
	assert.Equal(t, "shared", os.Getenv("UI2CODE_TEST_B"))
	assert.Equal(t, "process", os.Getenv("UI2CODE_TEST_C"))
}

func TestLoadEnv_Malformed(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("UI2CODE_TEST_D='unterminated\n"), 0o600))

	assert.Error(t, loadEnv(file))
}
