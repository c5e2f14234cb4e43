// Package config provides configuration management for the workspace setup tool.
// It handles the optional YAML file that overrides generator location and behaviour.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-shellwords"
	"gopkg.in/yaml.v3"

	"github.com/epoch-engine/epoch-setup/internal/generator"
	"github.com/epoch-engine/epoch-setup/internal/project"
	"github.com/epoch-engine/epoch-setup/internal/version"
)

// DefaultFile is the config file looked up when --config is not given.
const DefaultFile = "epoch-setup.yaml"

// DefaultRepository is where upstream generator releases are published.
const DefaultRepository = "premake/premake-core"

// Sentinel errors for configuration validation
var (
	ErrVersionRequired       = errors.New("version is required")
	ErrGeneratorPathRequired = errors.New("generator.path is required")
	ErrActionRequired        = errors.New("generator.action is required")
	ErrKeysDirRequired       = errors.New("generator.keys_dir is required when generator.signature is set")
	ErrInvalidRepository     = errors.New("generator.repository must be in format 'owner/repo'")
)

// Config represents the top-level configuration structure.
type Config struct {
	Version   string          `yaml:"version"`
	Generator GeneratorConfig `yaml:"generator"`
	History   HistoryConfig   `yaml:"history"`
}

// GeneratorConfig describes the vendored project generator.
type GeneratorConfig struct {
	Path       string `yaml:"path"`
	Action     string `yaml:"action"`
	ExtraArgs  string `yaml:"extra_args"`  // shell-style, split before use
	MinVersion string `yaml:"min_version"` // semver constraint, e.g. ">= 5.0.0-beta2"
	Signature  string `yaml:"signature"`   // detached signature of the executable
	KeysDir    string `yaml:"keys_dir"`    // directory of armored public keys
	Repository string `yaml:"repository"`  // upstream releases, "owner/repo"
}

// HistoryConfig controls the optional generation history database.
type HistoryConfig struct {
	DatabasePath string `yaml:"database_path"` // empty disables history
}

// Enabled reports whether history should be recorded.
func (h HistoryConfig) Enabled() bool {
	return strings.TrimSpace(h.DatabasePath) != ""
}

// Args splits ExtraArgs with shell quoting rules.
func (g GeneratorConfig) Args() ([]string, error) {
	if strings.TrimSpace(g.ExtraArgs) == "" {
		return nil, nil
	}
	args, err := shellwords.Parse(g.ExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generator.extra_args %q: %w", g.ExtraArgs, err)
	}
	return args, nil
}

// VerifiesSignature reports whether the executable must be signature-checked before use.
func (g GeneratorConfig) VerifiesSignature() bool {
	return g.Signature != ""
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Generator: GeneratorConfig{
			Path:       generator.DefaultPath,
			Action:     project.DefaultAction,
			Repository: DefaultRepository,
		},
	}
}

// LoadConfig loads and parses the configuration from a YAML file.
// Fields missing from the file keep their default values.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// LoadOrDefault loads filePath, falling back to DefaultConfig when the file
// does not exist and was not explicitly requested.
func LoadOrDefault(filePath string, explicit bool) (*Config, error) {
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) && !explicit {
		return DefaultConfig(), nil
	}
	return LoadConfig(filePath)
}

// Validate validates the configuration structure and required fields.
func (c *Config) Validate() error {
	if c.Version == "" {
		return ErrVersionRequired
	}
	if err := c.Generator.Validate(); err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	return nil
}

// Validate validates generator configuration.
func (g *GeneratorConfig) Validate() error {
	if g.Path == "" {
		return ErrGeneratorPathRequired
	}
	if g.Action == "" {
		return ErrActionRequired
	}
	if _, err := g.Args(); err != nil {
		return err
	}
	if g.MinVersion != "" {
		if err := version.ValidateConstraint(g.MinVersion); err != nil {
			return fmt.Errorf("min_version: %w", err)
		}
	}
	if g.VerifiesSignature() && g.KeysDir == "" {
		return ErrKeysDirRequired
	}
	if g.Repository != "" {
		parts := strings.Split(g.Repository, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("%w: got %s", ErrInvalidRepository, g.Repository)
		}
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filePath, err)
	}
	return nil
}
