// Package generator locates and runs the vendored project generator (Premake).
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/epoch-engine/epoch-setup/internal/project"
	"github.com/epoch-engine/epoch-setup/internal/version"
)

// DefaultPath is where the generator lives relative to the workspace root.
var DefaultPath = filepath.Join("vendor", "Premake", "premake5.exe")

// Sentinel errors
var (
	ErrNotFound = errors.New("could not find generator executable")
)

// LaunchError reports that the generator process could not be started at all.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch generator %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ExitError reports that the generator ran and exited with a non-zero status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("generator exited with status %d", e.Code)
}

// ExitCode returns the generator's exit status.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// Generator runs one generator executable.
type Generator struct {
	path   string
	runner CommandRunner
	logger *slog.Logger
}

// New creates a Generator for the executable at path.
func New(path string, runner CommandRunner, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{
		path:   path,
		runner: runner,
		logger: logger,
	}
}

// Path returns the executable path.
func (g *Generator) Path() string {
	return g.path
}

// Locate checks that the executable exists as a regular file.
func (g *Generator) Locate() error {
	return Locate(g.path)
}

// Locate checks that path names an existing regular file.
func Locate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w at: %s", ErrNotFound, path)
		}
		return fmt.Errorf("%w at: %s: %v", ErrNotFound, path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w at: %s (not a regular file)", ErrNotFound, path)
	}
	return nil
}

// Invoke runs the generator for inv and waits for it.
// A non-zero exit is returned as *ExitError, a failure to start as *LaunchError.
func (g *Generator) Invoke(ctx context.Context, inv project.Invocation) error {
	if err := inv.Validate(); err != nil {
		return fmt.Errorf("invalid invocation: %w", err)
	}

	start := time.Now()
	g.logger.Info("invoking generator",
		"path", g.path,
		"args", inv.Args())

	err := g.runner.Run(ctx, g.path, inv.Args()...)
	if err == nil {
		g.logger.Info("generator finished",
			"exit_code", 0,
			"duration_ms", time.Since(start).Milliseconds())
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		g.logger.Warn("generator interrupted", "error", ctxErr)
		return fmt.Errorf("generator interrupted: %w", ctxErr)
	}

	code := extractExitCode(err)
	if code < 0 {
		g.logger.Error("generator failed to start", "path", g.path, "error", err)
		return &LaunchError{Path: g.path, Err: err}
	}

	g.logger.Warn("generator exited with non-zero status",
		"exit_code", code,
		"duration_ms", time.Since(start).Milliseconds())
	return &ExitError{Code: code}
}

// Version runs "<generator> --version" and parses the reported version.
func (g *Generator) Version(ctx context.Context) (*semver.Version, error) {
	output, err := g.runner.Output(ctx, g.path, "--version")
	if err != nil {
		if extractExitCode(err) < 0 {
			return nil, &LaunchError{Path: g.path, Err: err}
		}
		return nil, fmt.Errorf("failed to query generator version: %w", err)
	}

	v, err := version.FromOutput(string(output))
	if err != nil {
		return nil, err
	}
	g.logger.Debug("detected generator version", "version", v.String())
	return v, nil
}

// extractExitCode attempts to extract an exit code from an error.
// Returns -1 if the process never started. A child killed by a signal
// reports 128+signal, or 1 when the signal is unknown.
func extractExitCode(err error) int {
	// Try exec.ExitError first (real commands)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		return 1
	}

	// Try interface with ExitCode() method (mocks)
	type exitCoder interface {
		ExitCode() int
	}
	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}

	return -1
}
