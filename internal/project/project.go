// Package project describes what the generator is asked to produce.
package project

import (
	"errors"
	"fmt"
	"strings"
)

// Target is the build configuration variant forwarded to the generator.
type Target string

const (
	TargetEditor  Target = "editor"
	TargetRuntime Target = "runtime"
)

// DefaultAction is the generator action producing Visual Studio 2022 solutions.
const DefaultAction = "vs2022"

var (
	ErrInvalidTarget = errors.New("target must be one of: editor, runtime")
	ErrEmptyAction   = errors.New("generator action cannot be empty")
	ErrEmptyAPI      = errors.New("render API cannot be empty")
)

// Targets returns every valid target in display order.
func Targets() []Target {
	return []Target{TargetEditor, TargetRuntime}
}

// ParseTarget accepts a target name in any case and returns its lowercase form.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Targets() {
		if t == valid {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidTarget, s)
}

// Invocation is a fully resolved generator command line.
type Invocation struct {
	Executable string
	Action     string
	API        string
	Target     Target
	ExtraArgs  []string
}

// Validate checks that every required part is present.
func (i Invocation) Validate() error {
	if i.Action == "" {
		return ErrEmptyAction
	}
	if i.API == "" {
		return ErrEmptyAPI
	}
	if _, err := ParseTarget(string(i.Target)); err != nil {
		return err
	}
	return nil
}

// Args returns the generator arguments, excluding the executable.
func (i Invocation) Args() []string {
	args := []string{
		i.Action,
		"--render-api=" + i.API,
		"--target=" + string(i.Target),
	}
	return append(args, i.ExtraArgs...)
}

// String renders the command line for display. Arguments are not quoted.
func (i Invocation) String() string {
	return strings.Join(append([]string{i.Executable}, i.Args()...), " ")
}
