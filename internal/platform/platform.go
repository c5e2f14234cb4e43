package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Kind identifies a host operating system family the setup tool knows about.
type Kind string

const (
	Windows     Kind = "windows"
	Linux       Kind = "linux"
	Unsupported Kind = ""
)

// Platform represents the host OS/Architecture combination
type Platform struct {
	Kind Kind   // windows, linux, or Unsupported
	OS   string // raw GOOS value, kept for diagnostics
	Arch string // x64, aarch64
}

// Supported reports whether menus exist for this platform.
func (p Platform) Supported() bool {
	return p.Kind != Unsupported
}

// String returns the OS-Arch classifier, e.g. "windows-x64".
func (p Platform) String() string {
	return fmt.Sprintf("%s-%s", p.OS, p.Arch)
}

// SupportedKinds returns every platform kind that has a menu.
func SupportedKinds() []Kind {
	return []Kind{Windows, Linux}
}

// Current returns the platform for the current system
func Current() Platform {
	return Detect(runtime.GOOS, runtime.GOARCH)
}

// Detect builds a Platform from GOOS/GOARCH style values.
func Detect(goos, goarch string) Platform {
	goos = strings.ToLower(goos)
	return Platform{
		Kind: mapOS(goos),
		OS:   goos,
		Arch: mapArch(goarch),
	}
}

// ParseKind converts a user supplied OS name to a Kind.
func ParseKind(name string) (Kind, error) {
	kind := mapOS(strings.ToLower(strings.TrimSpace(name)))
	if kind == Unsupported {
		return Unsupported, fmt.Errorf("unsupported platform: %s", name)
	}
	return kind, nil
}

// mapOS converts Go's GOOS to a Kind. Anything but windows and linux is unsupported.
func mapOS(goos string) Kind {
	switch goos {
	case "windows":
		return Windows
	case "linux":
		return Linux
	default:
		return Unsupported
	}
}

// mapArch converts Go's GOARCH to our platform architecture naming
func mapArch(goarch string) string {
	switch goarch {
	case "arm64":
		return "aarch64"
	default:
		return "x64"
	}
}
