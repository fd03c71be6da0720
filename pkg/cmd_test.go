package pkg

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommandLine(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()

	out, err := RunCommandLine(context.Background(), dir, []string{"AOT_TEST_VALUE=42"},
		"sh", "-c", `echo "$AOT_TEST_VALUE $(pwd)"`)
	require.NoError(t, err)
	assert.Contains(t, string(out.Stdout), "42 ")
	assert.Empty(t, out.Stderr)

	out, err = RunCommandLine(context.Background(), dir, nil, "sh", "-c", "echo broken >&2; exit 3")
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())
	assert.Equal(t, "broken\n", string(out.Stderr))
}

func TestRunCommandLineMissingBinary(t *testing.T) {
	_, err := RunCommandLine(context.Background(), t.TempDir(), nil, "aot-binary-that-does-not-exist")
	require.Error(t, err)
	var exitErr *exec.ExitError
	assert.False(t, errors.As(err, &exitErr))
}
