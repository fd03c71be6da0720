package pkg

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// CommandOutput is what a finished command wrote
type CommandOutput struct {
	Stdout []byte
	Stderr []byte
}

// RunCommandLine runs name in dir with env appended to the current
// environment and returns its captured output. A non-zero exit status is
// returned as an *exec.ExitError together with the output.
func RunCommandLine(ctx context.Context, dir string, env []string, name string, args ...string) (CommandOutput, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return CommandOutput{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
}
