package cli

import (
	"context"

	"github.com/epoch-engine/epoch-setup/internal/generator"
	gh "github.com/epoch-engine/epoch-setup/internal/github"
	"github.com/epoch-engine/epoch-setup/internal/platform"
	"github.com/epoch-engine/epoch-setup/internal/storage"
)

// ReleaseFinder abstracts upstream release lookups for testing.
type ReleaseFinder interface {
	// LatestRelease returns the newest versioned release.
	LatestRelease(ctx context.Context, includePrerelease bool) (*gh.Release, error)
}

// environment collects the process-level collaborators of the commands.
type environment struct {
	platform    platform.Platform
	runner      generator.CommandRunner
	openHistory func(path string) (storage.Store, error)
	newReleases func(token, repository string) (ReleaseFinder, error)
}

func defaultEnvironment() environment {
	return environment{
		platform: platform.Current(),
		runner:   generator.NewRealCommandRunner(),
		openHistory: func(path string) (storage.Store, error) {
			db, err := storage.InitDB(storage.Config{DatabasePath: path, LogLevel: "silent"})
			if err != nil {
				return nil, err
			}
			return db, nil
		},
		newReleases: func(token, repository string) (ReleaseFinder, error) {
			client, err := gh.NewClient(token, repository)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}
