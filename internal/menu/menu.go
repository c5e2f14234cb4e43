// Package menu holds the per-platform rendering API choices offered to the user.
package menu

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/epoch-engine/epoch-setup/internal/platform"
)

// Canonical rendering API identifiers understood by the project generator.
const (
	APIDirectX11 = "dx11"
	APIDirectX12 = "dx12"
	APIVulkan    = "vulkan"
)

// Heading is printed above the menu entries.
const Heading = "Select rendering API for project generation:"

var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrUnknownAPI          = errors.New("rendering API not available on this platform")
)

// Entry is one user-facing menu line.
type Entry struct {
	Key   string // what the user types
	Label string // what the user reads
	API   string // what the generator receives
}

// Table is the ordered menu for one platform. It is never empty.
type Table struct {
	Platform platform.Kind
	Entries  []Entry
}

// For returns the menu for the given platform kind.
func For(kind platform.Kind) (Table, error) {
	switch kind {
	case platform.Windows:
		return Table{
			Platform: kind,
			Entries: []Entry{
				{Key: "1", Label: "DirectX 11", API: APIDirectX11},
				{Key: "2", Label: "DirectX 12", API: APIDirectX12},
				{Key: "3", Label: "Vulkan", API: APIVulkan},
			},
		}, nil
	case platform.Linux:
		// DirectX is Windows only.
		return Table{
			Platform: kind,
			Entries: []Entry{
				{Key: "1", Label: "Vulkan", API: APIVulkan},
			},
		}, nil
	case platform.Unsupported:
		return Table{}, ErrUnsupportedPlatform
	default:
		return Table{}, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, string(kind))
	}
}

// APIMap returns the key to API identifier lookup for the table.
func (t Table) APIMap() map[string]string {
	m := make(map[string]string, len(t.Entries))
	for _, e := range t.Entries {
		m[e.Key] = e.API
	}
	return m
}

// Default returns the API of the first entry.
func (t Table) Default() string {
	if len(t.Entries) == 0 {
		return ""
	}
	return t.Entries[0].API
}

// Lookup finds the entry offering the given API identifier, ignoring case.
func (t Table) Lookup(api string) (Entry, error) {
	api = strings.ToLower(strings.TrimSpace(api))
	for _, e := range t.Entries {
		if e.API == api {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %q (platform %s)", ErrUnknownAPI, api, t.Platform)
}

// Prompt returns the input prompt, e.g. "Enter choice [1-3]: ".
func (t Table) Prompt() string {
	if len(t.Entries) == 0 {
		return "Enter choice: "
	}
	first := t.Entries[0].Key
	last := t.Entries[len(t.Entries)-1].Key
	return fmt.Sprintf("Enter choice [%s-%s]: ", first, last)
}

// Resolve maps raw user input to an API identifier.
// Input that is not a menu key selects the first entry; this is not an error.
func Resolve(input string, t Table) string {
	if api, ok := t.APIMap()[strings.TrimSpace(input)]; ok {
		return api
	}
	return t.Default()
}

// Render writes the heading and one line per entry to w.
// The heading is bold when w is a terminal.
func Render(w io.Writer, t Table) error {
	heading := lipgloss.NewRenderer(w).NewStyle().Bold(true)

	var b strings.Builder
	b.WriteString(heading.Render(Heading))
	b.WriteString("\n")
	for _, e := range t.Entries {
		fmt.Fprintf(&b, "  %s) %s\n", e.Key, e.Label)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
