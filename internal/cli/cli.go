// Package cli provides the command-line interface of the workspace setup tool.
// It wires flags, the optional YAML configuration and the setup pipeline together.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/epoch-engine/epoch-setup/internal/config"
	"github.com/epoch-engine/epoch-setup/internal/generator"
	"github.com/epoch-engine/epoch-setup/internal/menu"
	"github.com/epoch-engine/epoch-setup/internal/platform"
	"github.com/epoch-engine/epoch-setup/internal/project"
	"github.com/epoch-engine/epoch-setup/internal/setup"
	"github.com/epoch-engine/epoch-setup/internal/storage"
	"github.com/epoch-engine/epoch-setup/internal/version"
)

// Exit statuses besides the generator's own.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// NewApp creates and configures the main CLI application.
func NewApp() *cli.App {
	return newApp(defaultEnvironment())
}

func newApp(env environment) *cli.App {
	return &cli.App{
		Name:     "epoch-setup",
		Usage:    "Generate Epoch engine project files for a rendering API",
		Version:  "1.0.0",
		Compiled: time.Now(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "project target (editor, runtime)",
			},
			&cli.StringFlag{
				Name:  "render-api",
				Usage: "rendering API to generate for (dx11, dx12, vulkan); skips the prompt",
			},
			&cli.StringFlag{
				Name:    "generator",
				Usage:   "path to the project generator executable",
				EnvVars: []string{"EPOCH_SETUP_GENERATOR"},
			},
			&cli.StringFlag{
				Name:  "action",
				Usage: "generator action (project format), e.g. vs2022",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "print the generator command line instead of running it",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultFile,
				Usage:   "path to setup configuration file",
				EnvVars: []string{"EPOCH_SETUP_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "log level for structured JSON output on stderr (debug, info, warn, error)",
				EnvVars: []string{"EPOCH_SETUP_LOG_LEVEL"},
			},
		},
		OnUsageError: func(c *cli.Context, err error, isSubcommand bool) error {
			return cli.Exit("Error: "+err.Error(), ExitUsage)
		},
		Action: func(c *cli.Context) error {
			return generate(c, env)
		},
		Commands: []*cli.Command{
			{
				Name:  "apis",
				Usage: "List the rendering APIs offered on a platform",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "os",
						Usage: "platform to list (windows, linux); defaults to the host",
					},
				},
				Action: func(c *cli.Context) error {
					return listAPIs(c, env)
				},
			},
			{
				Name:  "history",
				Usage: "Show recent project generations",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Value:   10,
						Usage:   "number of generations to show (0 for all)",
					},
					&cli.StringFlag{
						Name:  "target",
						Usage: "only show the last generation for this target",
					},
					&cli.BoolFlag{
						Name:  "stats",
						Usage: "show how often each rendering API was generated",
					},
				},
				Action: func(c *cli.Context) error {
					return showHistory(c, env)
				},
			},
			{
				Name:  "check-update",
				Usage: "Compare the vendored generator with the latest upstream release",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "prerelease",
						Usage: "consider pre-releases",
					},
					&cli.StringFlag{
						Name:    "github-token",
						Usage:   "GitHub token for higher API rate limits",
						EnvVars: []string{"GITHUB_TOKEN"},
						Hidden:  true,
					},
				},
				Action: func(c *cli.Context) error {
					return checkUpdate(c, env)
				},
			},
		},
	}
}

// newLogger builds the command logger from the global --log-level flag.
func newLogger(c *cli.Context) *slog.Logger {
	return NewLogger(c.App.ErrWriter, ParseLogLevelOrDefault(c.String("log-level")))
}

// loadConfig loads the configuration file. A missing default file is not an error.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.String("config"), c.IsSet("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// generatorPath returns the --generator override or the configured path.
func generatorPath(c *cli.Context, cfg *config.Config) string {
	if c.IsSet("generator") && c.String("generator") != "" {
		return c.String("generator")
	}
	return cfg.Generator.Path
}

// generate implements the default action: prompt, then run the generator.
func generate(c *cli.Context, env environment) error {
	logger := newLogger(c)

	if c.String("target") == "" {
		return cli.Exit(`Error: Required flag "target" not set`, ExitUsage)
	}
	target, err := project.ParseTarget(c.String("target"))
	if err != nil {
		return exitError(err)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		logger.Error("failed to load config", "path", c.String("config"), "error", err)
		return exitError(err)
	}
	extraArgs, err := cfg.Generator.Args()
	if err != nil {
		return exitError(err)
	}

	action := cfg.Generator.Action
	if c.String("action") != "" {
		action = c.String("action")
	}

	logger.Info("starting setup",
		"target", target,
		"platform", env.platform.String(),
		"config", c.String("config"))

	pipeline := setup.New(c.App.Reader, c.App.Writer, env.runner, logger)

	if cfg.Generator.VerifiesSignature() {
		pipeline.SetVerifier(setup.SignatureVerifier{
			Signature: cfg.Generator.Signature,
			KeysDir:   cfg.Generator.KeysDir,
		})
	}

	if cfg.History.Enabled() {
		store, err := env.openHistory(cfg.History.DatabasePath)
		if err != nil {
			// History is optional; the run proceeds without it.
			logger.Warn("history disabled", "database_path", cfg.History.DatabasePath, "error", err)
		} else {
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					logger.Warn("failed to close history database", "error", closeErr)
				}
			}()
			pipeline.SetRecorder(store)
		}
	}

	_, err = pipeline.Run(c.Context, setup.Options{
		Target:        target,
		Platform:      env.platform,
		GeneratorPath: generatorPath(c, cfg),
		Action:        action,
		ExtraArgs:     extraArgs,
		API:           c.String("render-api"),
		MinVersion:    cfg.Generator.MinVersion,
		DryRun:        c.Bool("dry-run"),
	})
	return exitError(err)
}

// listAPIs implements the apis command.
func listAPIs(c *cli.Context, env environment) error {
	kind := env.platform.Kind
	if name := c.String("os"); name != "" {
		parsed, err := platform.ParseKind(name)
		if err != nil {
			return cli.Exit("Error: "+err.Error(), ExitUsage)
		}
		kind = parsed
	}

	table, err := menu.For(kind)
	if err != nil {
		return exitError(err)
	}

	w := c.App.Writer
	if err := menu.Render(w, table); err != nil {
		return exitError(err)
	}
	for _, e := range table.Entries {
		fmt.Fprintf(w, "  %s => --render-api=%s\n", e.Key, e.API)
	}
	return nil
}

// showHistory implements the history command.
func showHistory(c *cli.Context, env environment) error {
	logger := newLogger(c)

	cfg, err := loadConfig(c)
	if err != nil {
		return exitError(err)
	}
	if !cfg.History.Enabled() {
		return cli.Exit("Error: history is disabled; set history.database_path in "+c.String("config"), ExitFailure)
	}

	store, err := env.openHistory(cfg.History.DatabasePath)
	if err != nil {
		logger.Error("failed to open history database", "database_path", cfg.History.DatabasePath, "error", err)
		return exitError(fmt.Errorf("failed to open history database: %w", err))
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("failed to close history database", "error", closeErr)
		}
	}()

	w := c.App.Writer

	if c.Bool("stats") {
		counts, err := store.CountByAPI()
		if err != nil {
			return exitError(err)
		}
		for _, api := range []string{menu.APIDirectX11, menu.APIDirectX12, menu.APIVulkan} {
			fmt.Fprintf(w, "%-8s %d\n", api, counts[api])
		}
		return nil
	}

	var generations []*storage.Generation
	if name := c.String("target"); name != "" {
		target, err := project.ParseTarget(name)
		if err != nil {
			return exitError(err)
		}
		last, err := store.LastGeneration(string(target))
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(w, "No generations recorded for %s\n", target)
			return nil
		}
		if err != nil {
			return exitError(err)
		}
		generations = append(generations, last)
	} else {
		generations, err = store.ListRecent(c.Int("limit"))
		if err != nil {
			return exitError(err)
		}
	}

	if len(generations) == 0 {
		fmt.Fprintln(w, "No generations recorded")
		return nil
	}
	for _, g := range generations {
		fmt.Fprintln(w, formatGeneration(g))
	}
	return nil
}

func formatGeneration(g *storage.Generation) string {
	status := fmt.Sprintf("exit %d", g.ExitCode)
	if g.ErrorMessage != "" {
		status = "failed: " + g.ErrorMessage
	}
	return fmt.Sprintf("%s  %-8s %-7s %-8s %-7s %5dms  %s",
		g.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		g.Target, g.API, g.Action, g.Platform, g.DurationMs, status)
}

// checkUpdate implements the check-update command.
func checkUpdate(c *cli.Context, env environment) error {
	logger := newLogger(c)

	cfg, err := loadConfig(c)
	if err != nil {
		return exitError(err)
	}

	path := generatorPath(c, cfg)
	if err := generator.Locate(path); err != nil {
		return exitError(err)
	}
	installed, err := generator.New(path, env.runner, logger).Version(c.Context)
	if err != nil {
		return exitError(fmt.Errorf("failed to determine generator version: %w", err))
	}

	releases, err := env.newReleases(c.String("github-token"), cfg.Generator.Repository)
	if err != nil {
		return exitError(err)
	}
	latest, err := releases.LatestRelease(c.Context, c.Bool("prerelease"))
	if err != nil {
		logger.Error("release lookup failed", "repository", cfg.Generator.Repository, "error", err)
		return exitError(err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Installed generator: %s\n", installed.Original())
	fmt.Fprintf(w, "Latest release:      %s (%s)\n", latest.Tag, latest.URL)
	if version.IsNewer(installed, latest.Version) {
		fmt.Fprintln(w, "An update is available")
	} else {
		fmt.Fprintln(w, "Generator is up to date")
	}
	return nil
}

// exitError converts pipeline errors to process exit statuses.
// A generator's own non-zero status passes through unchanged and silently.
func exitError(err error) error {
	if err == nil {
		return nil
	}

	var genExit *generator.ExitError
	if errors.As(err, &genExit) {
		return cli.Exit("", genExit.Code)
	}

	code := ExitFailure
	if errors.Is(err, project.ErrInvalidTarget) || errors.Is(err, menu.ErrUnknownAPI) {
		code = ExitUsage
	}
	return cli.Exit("Error: "+err.Error(), code)
}
