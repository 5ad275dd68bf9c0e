package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirUsesXDGRuntimeDirWhenSet(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	got, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, td, got)
}

func TestDirFallsBackWhenXDGRuntimeDirMissing(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	got, err := Dir()
	require.NoError(t, err)
	wantRun := fmt.Sprintf("/run/user/%d", os.Getuid())
	wantTmp := fmt.Sprintf("/tmp/swish-runtime-%d", os.Getuid())
	assert.Contains(t, []string{wantRun, wantTmp}, got)
}

func TestRuntimeFiles(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	for name, fn := range map[string]func() (string, error){
		"swish.sock": SocketPath,
		"swish.pid":  PIDFilePath,
		"swish.log":  LogFilePath,
	} {
		got, err := fn()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(td, name), got)
	}
}
