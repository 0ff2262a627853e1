package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrMissingDependency is returned when yt-dlp or ffmpeg cannot be run.
var ErrMissingDependency = errors.New("missing dependency")

// Runner runs an external command and returns its output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(err, exec.ErrNotFound) {
		err = fmt.Errorf("%s: %w", name, ErrMissingDependency)
	}
	return stdout.Bytes(), stderr.Bytes(), err
}
