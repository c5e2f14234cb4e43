package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"testing"

	"github.com/epoch-engine/epoch-setup/internal/project"
	"github.com/epoch-engine/epoch-setup/internal/version"
)

func writeExecutable(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "premake5.exe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("failed to write fake generator: %v", err)
	}
	return path
}

func testInvocation(exe string) project.Invocation {
	return project.Invocation{
		Executable: exe,
		Action:     project.DefaultAction,
		API:        "dx12",
		Target:     project.TargetEditor,
	}
}

func TestDefaultPath(t *testing.T) {
	want := "vendor" + string(filepath.Separator) + "Premake" + string(filepath.Separator) + "premake5.exe"
	if DefaultPath != want {
		t.Errorf("DefaultPath = %q, want %q", DefaultPath, want)
	}
}

func TestLocate(t *testing.T) {
	exe := writeExecutable(t)

	if err := Locate(exe); err != nil {
		t.Errorf("Locate(%q) unexpected error: %v", exe, err)
	}

	missing := filepath.Join(t.TempDir(), "vendor", "Premake", "premake5.exe")
	err := Locate(missing)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Locate(missing) error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), missing) {
		t.Errorf("Locate(missing) error = %q, want it to name %q", err, missing)
	}

	dir := t.TempDir()
	if err := Locate(dir); !errors.Is(err, ErrNotFound) {
		t.Errorf("Locate(dir) error = %v, want ErrNotFound", err)
	}
}

func TestGenerator_Invoke_Success(t *testing.T) {
	runner := &MockCommandRunner{}
	g := New("premake5.exe", runner, nil)

	if err := g.Invoke(context.Background(), testInvocation("premake5.exe")); err != nil {
		t.Fatalf("Invoke() unexpected error: %v", err)
	}

	if len(runner.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(runner.Calls))
	}
	want := []string{"premake5.exe", "vs2022", "--render-api=dx12", "--target=editor"}
	got := runner.Calls[0]
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("call = %v, want %v", got, want)
	}
}

func TestGenerator_Invoke_NonZeroExit(t *testing.T) {
	runner := &MockCommandRunner{RunErr: MockExitError{Code: 3}}
	g := New("premake5.exe", runner, nil)

	err := g.Invoke(context.Background(), testInvocation("premake5.exe"))

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Invoke() error = %v, want *ExitError", err)
	}
	if exitErr.ExitCode() != 3 {
		t.Errorf("ExitCode() = %d, want 3", exitErr.ExitCode())
	}
}

func TestGenerator_Invoke_LaunchFailure(t *testing.T) {
	runner := &MockCommandRunner{RunErr: fmt.Errorf("permission denied")}
	g := New("premake5.exe", runner, nil)

	err := g.Invoke(context.Background(), testInvocation("premake5.exe"))

	var launchErr *LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("Invoke() error = %v, want *LaunchError", err)
	}
	if launchErr.Path != "premake5.exe" {
		t.Errorf("LaunchError.Path = %q, want premake5.exe", launchErr.Path)
	}
	if !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("error = %q, want cause in message", err)
	}
}

func TestGenerator_Invoke_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &MockCommandRunner{RunErr: fmt.Errorf("signal: killed")}
	g := New("premake5.exe", runner, nil)

	err := g.Invoke(ctx, testInvocation("premake5.exe"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Invoke() error = %v, want context.Canceled", err)
	}
}

func TestGenerator_Invoke_InvalidInvocation(t *testing.T) {
	runner := &MockCommandRunner{}
	g := New("premake5.exe", runner, nil)

	inv := testInvocation("premake5.exe")
	inv.API = ""

	if err := g.Invoke(context.Background(), inv); !errors.Is(err, project.ErrEmptyAPI) {
		t.Errorf("Invoke() error = %v, want ErrEmptyAPI", err)
	}
	if len(runner.Calls) != 0 {
		t.Errorf("expected no calls for invalid invocation, got %v", runner.Calls)
	}
}

func TestRealCommandRunner_LaunchFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	g := New(missing, NewRealCommandRunner(), nil)

	err := g.Invoke(context.Background(), testInvocation(missing))

	var launchErr *LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("Invoke() error = %v, want *LaunchError", err)
	}
}

func TestRealCommandRunner_SignalKilled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	exe := filepath.Join(t.TempDir(), "premake5")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\nkill -KILL $$\n"), 0755); err != nil {
		t.Fatalf("failed to write fake generator: %v", err)
	}
	runner := NewRealCommandRunner()
	runner.Stdin = strings.NewReader("")
	g := New(exe, runner, nil)

	err := g.Invoke(context.Background(), testInvocation(exe))

	var launchErr *LaunchError
	if errors.As(err, &launchErr) {
		t.Fatalf("Invoke() error = %v, a started generator is not a launch failure", err)
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Invoke() error = %v, want *ExitError", err)
	}
	if want := 128 + int(syscall.SIGKILL); exitErr.Code != want {
		t.Errorf("ExitError.Code = %d, want %d", exitErr.Code, want)
	}
}

func TestGenerator_Version(t *testing.T) {
	tests := []struct {
		name    string
		runner  *MockCommandRunner
		want    string
		wantErr bool
	}{
		{
			name:   "premake beta",
			runner: &MockCommandRunner{Out: []byte("premake5 (Premake 5.0.0-beta2)\n")},
			want:   "5.0.0-beta2",
		},
		{
			name:    "unparseable output",
			runner:  &MockCommandRunner{Out: []byte("usage: premake5 [options] action")},
			wantErr: true,
		},
		{
			name:    "non-zero exit",
			runner:  &MockCommandRunner{OutputErr: MockExitError{Code: 1}},
			wantErr: true,
		},
		{
			name:    "launch failure",
			runner:  &MockCommandRunner{OutputErr: fmt.Errorf("exec format error")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New("premake5.exe", tt.runner, nil)
			v, err := g.Version(context.Background())

			if tt.wantErr {
				if err == nil {
					t.Errorf("Version() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Version() unexpected error: %v", err)
			}
			if v.String() != tt.want {
				t.Errorf("Version() = %s, want %s", v, tt.want)
			}
			if got := tt.runner.Calls[0]; len(got) != 2 || got[1] != "--version" {
				t.Errorf("call = %v, want [premake5.exe --version]", got)
			}
		})
	}
}

func TestGenerator_Version_NoVersionFound(t *testing.T) {
	g := New("premake5.exe", &MockCommandRunner{Out: []byte("nothing here")}, nil)
	_, err := g.Version(context.Background())
	if !errors.Is(err, version.ErrNoVersionFound) {
		t.Errorf("Version() error = %v, want ErrNoVersionFound", err)
	}
}

func TestExtractExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"mock exit error", MockExitError{Code: 2}, 2},
		{"wrapped mock exit error", fmt.Errorf("run: %w", MockExitError{Code: 7}), 7},
		{"plain error", errors.New("boom"), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractExitCode(tt.err); got != tt.want {
				t.Errorf("extractExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
