// Package version parses and compares project generator versions
package version

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// String constants for operations (used in ErrVersionParseFailed)
const (
	OpParseOutput     = "parse_output"
	OpParseTag        = "parse_tag"
	OpParseConstraint = "parse_constraint"
)

var (
	ErrNoVersionFound = errors.New("no version found in generator output")
	ErrNilVersion     = errors.New("version cannot be nil")
)

// versionPattern matches the first major.minor.patch[-prerelease] in free text,
// e.g. "premake5 (Premake 5.0.0-beta2)".
var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+(?:-[0-9A-Za-z]+(?:\.[0-9A-Za-z]+)*)?`)

// ErrVersionParseFailed represents a version parsing error
type ErrVersionParseFailed struct {
	Version string
	Op      string
	Cause   error
}

func (e ErrVersionParseFailed) Error() string {
	return fmt.Sprintf("failed to parse version %s in operation %s: %v", e.Version, e.Op, e.Cause)
}

func (e ErrVersionParseFailed) Unwrap() error {
	return e.Cause
}

func (e ErrVersionParseFailed) Is(target error) bool {
	var parseErr ErrVersionParseFailed
	return errors.As(target, &parseErr)
}

// ErrConstraintNotMet is returned when a generator is older than required.
type ErrConstraintNotMet struct {
	Version    string
	Constraint string
}

func (e ErrConstraintNotMet) Error() string {
	return fmt.Sprintf("generator version %s does not satisfy %q", e.Version, e.Constraint)
}

func (e ErrConstraintNotMet) Is(target error) bool {
	var notMet ErrConstraintNotMet
	return errors.As(target, &notMet)
}

// FromOutput extracts the generator version from its --version output.
func FromOutput(output string) (*semver.Version, error) {
	raw := versionPattern.FindString(output)
	if raw == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoVersionFound, strings.TrimSpace(output))
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, ErrVersionParseFailed{Version: raw, Op: OpParseOutput, Cause: err}
	}
	return v, nil
}

// FromTag parses a release tag such as "v5.0.0-beta2".
func FromTag(tag string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimSpace(tag))
	if err != nil {
		return nil, ErrVersionParseFailed{Version: tag, Op: OpParseTag, Cause: err}
	}
	return v, nil
}

// ValidateConstraint checks that a constraint expression parses.
func ValidateConstraint(constraint string) error {
	if _, err := semver.NewConstraint(constraint); err != nil {
		return ErrVersionParseFailed{Version: constraint, Op: OpParseConstraint, Cause: err}
	}
	return nil
}

// Check reports whether v satisfies constraint. An empty constraint accepts everything.
func Check(v *semver.Version, constraint string) error {
	if strings.TrimSpace(constraint) == "" {
		return nil
	}
	if v == nil {
		return ErrNilVersion
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return ErrVersionParseFailed{Version: constraint, Op: OpParseConstraint, Cause: err}
	}
	if !c.Check(v) {
		return ErrConstraintNotMet{Version: v.Original(), Constraint: constraint}
	}
	return nil
}

// IsNewer reports whether latest is strictly greater than current.
func IsNewer(current, latest *semver.Version) bool {
	if current == nil || latest == nil {
		return false
	}
	return latest.GreaterThan(current)
}
