package generator

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
)

// CommandRunner executes external commands.
// This interface enables testing without actual command execution.
type CommandRunner interface {
	// Run executes a command attached to the runner's standard streams and waits for it.
	Run(ctx context.Context, name string, args ...string) error

	// Output executes a command and returns its combined stdout/stderr output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RealCommandRunner executes actual system commands.
type RealCommandRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewRealCommandRunner creates a command runner wired to the process's own standard streams.
func NewRealCommandRunner() *RealCommandRunner {
	return &RealCommandRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run starts the command and waits for it to exit.
func (r *RealCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd.Run()
}

// Output executes a command and returns combined stdout/stderr output.
func (r *RealCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// MockCommandRunner is a test double for CommandRunner.
type MockCommandRunner struct {
	RunErr    error
	Out       []byte
	OutputErr error
	Calls     [][]string // Track calls for assertions
}

// Run records the call and returns the configured error.
func (m *MockCommandRunner) Run(_ context.Context, name string, args ...string) error {
	m.record(name, args)
	return m.RunErr
}

// Output records the call and returns the configured output and error.
func (m *MockCommandRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	m.record(name, args)
	return m.Out, m.OutputErr
}

func (m *MockCommandRunner) record(name string, args []string) {
	call := append([]string{name}, args...)
	m.Calls = append(m.Calls, call)
}

// MockExitError mimics *exec.ExitError for mocks.
type MockExitError struct {
	Code int
}

func (e MockExitError) Error() string {
	return "exit status " + strconv.Itoa(e.Code)
}

// ExitCode returns the simulated exit code.
func (e MockExitError) ExitCode() int {
	return e.Code
}
