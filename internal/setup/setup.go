// Package setup runs the interactive project generation flow: pick a
// rendering API for the host platform, then hand it to the generator.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/epoch-engine/epoch-setup/internal/generator"
	"github.com/epoch-engine/epoch-setup/internal/menu"
	"github.com/epoch-engine/epoch-setup/internal/platform"
	"github.com/epoch-engine/epoch-setup/internal/project"
	"github.com/epoch-engine/epoch-setup/internal/storage"
	"github.com/epoch-engine/epoch-setup/internal/version"
)

// Recorder persists one generation record. *storage.DB satisfies it.
type Recorder interface {
	RecordGeneration(*storage.Generation) error
}

// Verifier checks the generator executable before it is run.
type Verifier interface {
	Verify(executable string) error
}

// Options describes one run.
type Options struct {
	Target        project.Target
	Platform      platform.Platform
	GeneratorPath string
	Action        string
	ExtraArgs     []string
	API           string // preselected API; skips the prompt when set
	MinVersion    string // semver constraint the generator must satisfy
	DryRun        bool
}

// Result reports what a run did.
type Result struct {
	API        string
	Invocation project.Invocation
	ExitCode   int
	Spawned    bool
}

// Pipeline wires user I/O and the generator runner together.
type Pipeline struct {
	in       io.Reader
	out      io.Writer
	runner   generator.CommandRunner
	logger   *slog.Logger
	locate   func(path string) error
	recorder Recorder
	verifier Verifier
	now      func() time.Time
}

// New creates a pipeline reading the choice from in and writing the menu to out.
func New(in io.Reader, out io.Writer, runner generator.CommandRunner, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		in:     in,
		out:    out,
		runner: runner,
		logger: logger,
		locate: generator.Locate,
		now:    time.Now,
	}
}

// SetRecorder enables generation history.
func (p *Pipeline) SetRecorder(r Recorder) {
	p.recorder = r
}

// SetVerifier enables executable verification before invocation.
func (p *Pipeline) SetVerifier(v Verifier) {
	p.verifier = v
}

// SetLocator replaces the executable existence check.
func (p *Pipeline) SetLocator(locate func(path string) error) {
	p.locate = locate
}

// Run executes the flow once. A generator that exits non-zero yields a
// *generator.ExitError alongside a Result carrying the same code.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Result, error) {
	target, err := project.ParseTarget(string(opts.Target))
	if err != nil {
		return Result{}, err
	}

	table, err := menu.For(opts.Platform.Kind)
	if err != nil {
		return Result{}, fmt.Errorf("%w (host: %s)", err, opts.Platform)
	}

	api, err := p.chooseAPI(table, opts.API)
	if err != nil {
		return Result{}, err
	}
	fmt.Fprintf(p.out, "\nGenerating project for API: %s\n\n", cases.Upper(language.Und).String(api))

	action := opts.Action
	if action == "" {
		action = project.DefaultAction
	}
	path := opts.GeneratorPath
	if path == "" {
		path = generator.DefaultPath
	}
	inv := project.Invocation{
		Executable: path,
		Action:     action,
		API:        api,
		Target:     target,
		ExtraArgs:  opts.ExtraArgs,
	}
	result := Result{API: api, Invocation: inv}

	if err := p.locate(path); err != nil {
		p.logger.Error("generator not found", "path", path, "error", err)
		return result, err
	}

	if p.verifier != nil {
		if err := p.verifier.Verify(path); err != nil {
			p.logger.Error("generator verification failed", "path", path, "error", err)
			return result, fmt.Errorf("generator verification failed: %w", err)
		}
		p.logger.Info("generator signature verified", "path", path)
	}

	gen := generator.New(path, p.runner, p.logger)

	if opts.MinVersion != "" {
		v, err := gen.Version(ctx)
		if err != nil {
			return result, fmt.Errorf("failed to determine generator version: %w", err)
		}
		if err := version.Check(v, opts.MinVersion); err != nil {
			return result, err
		}
	}

	if opts.DryRun {
		fmt.Fprintln(p.out, inv.String())
		return result, nil
	}

	start := p.now()
	runErr := gen.Invoke(ctx, inv)
	result.Spawned = true
	result.ExitCode = exitCodeOf(runErr)

	p.record(opts.Platform, inv, result.ExitCode, runErr, p.now().Sub(start))
	return result, runErr
}

// chooseAPI returns the preselected API when given, otherwise prompts for one.
func (p *Pipeline) chooseAPI(table menu.Table, preselected string) (string, error) {
	if preselected != "" {
		entry, err := table.Lookup(preselected)
		if err != nil {
			return "", err
		}
		return entry.API, nil
	}

	if err := menu.Render(p.out, table); err != nil {
		return "", fmt.Errorf("failed to write menu: %w", err)
	}
	fmt.Fprint(p.out, table.Prompt())

	line, err := readLine(p.in)
	if err != nil {
		return "", fmt.Errorf("failed to read choice: %w", err)
	}

	api := menu.Resolve(line, table)
	p.logger.Debug("resolved rendering API", "input", strings.TrimSpace(line), "api", api)
	return api, nil
}

func (p *Pipeline) record(plat platform.Platform, inv project.Invocation, code int, runErr error, elapsed time.Duration) {
	if p.recorder == nil {
		return
	}

	g := &storage.Generation{
		Target:     string(inv.Target),
		API:        inv.API,
		Platform:   string(plat.Kind),
		Arch:       plat.Arch,
		Action:     inv.Action,
		Executable: inv.Executable,
		ExitCode:   code,
		DurationMs: elapsed.Milliseconds(),
	}
	var exitErr *generator.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		g.ErrorMessage = runErr.Error()
	}

	// History is best effort.
	if err := p.recorder.RecordGeneration(g); err != nil {
		p.logger.Warn("failed to record generation", "error", err)
	}
}

// readLine consumes input through the first newline, one byte at a time,
// so input after the choice is left for the generator. EOF ends the line.
func readLine(r io.Reader) (string, error) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return string(line), nil
			}
			line = append(line, buf[0])
		}
		if errors.Is(err, io.EOF) {
			return string(line), nil
		}
		if err != nil {
			return "", err
		}
	}
}

// exitCodeOf maps an Invoke error onto a process exit status.
func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *generator.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}
