package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateCommand_DryRunOnEmptyCatalog(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("BLOB_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--dry", "--env-file", filepath.Join(t.TempDir(), "none.env")})

	assert.NoError(t, cmd.Execute())
}

func TestMigrateCommand_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")})

	assert.Error(t, cmd.Execute())
}
