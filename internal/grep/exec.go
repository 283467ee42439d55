package grep

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	fserrors "github.com/Aman-CERP/fsearch/internal/errors"
)

// exitNoMatch is the status both utilities use for "no lines selected".
const exitNoMatch = 1

// waitDelay bounds how long Wait waits for output pipes after a kill.
const waitDelay = 2 * time.Second

// execute runs the utility and returns its stdout. A nil env inherits the
// current environment.
//
// In stream mode stdout is copied chunk by chunk while the process runs;
// either way the output is returned only once the process has exited. An
// exit status of 1 yields empty output. A cancelled ctx kills the process
// and returns ctx.Err().
func execute(ctx context.Context, name string, args, env []string, stream bool, logger *slog.Logger) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stderr = &stderr

	var pipe io.ReadCloser
	if stream {
		p, err := cmd.StdoutPipe()
		if err != nil {
			return nil, spawnError(name, err)
		}
		pipe = p
	} else {
		cmd.Stdout = &stdout
	}

	if err := cmd.Start(); err != nil {
		return nil, spawnError(name, err)
	}
	logger.Debug("grep_spawned", slog.String("command", name), slog.Any("args", args), slog.Int("pid", cmd.Process.Pid))

	var copyErr error
	if pipe != nil {
		copyErr = copyChunks(&stdout, pipe)
	}
	err := cmd.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		code := exitCode(err)
		if code == exitNoMatch {
			return nil, nil
		}
		return nil, fserrors.New(fserrors.ErrCodeBackendFailed,
			fmt.Sprintf("%s exited with status %d", name, code), err).
			WithDetail("command", name).
			WithDetail("stderr", strings.TrimSpace(stderr.String()))
	}
	if copyErr != nil {
		return nil, fserrors.New(fserrors.ErrCodeBackendFailed, "cannot read "+name+" output", copyErr).
			WithDetail("command", name)
	}
	return stdout.Bytes(), nil
}

// copyChunks drains r into dst as data arrives.
func copyChunks(dst *bytes.Buffer, r io.Reader) error {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			dst.Write(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func spawnError(name string, err error) error {
	return fserrors.New(fserrors.ErrCodeBackendSpawn, "cannot start "+name, err).
		WithDetail("command", name).
		WithSuggestion("install " + name + " or set grep.command in the configuration")
}

// exitCode extracts the exit status of a finished process, or -1.
func exitCode(err error) int {
	type exitCoder interface {
		ExitCode() int
	}
	if ec, ok := err.(exitCoder); ok {
		return ec.ExitCode()
	}
	return -1
}
