// Package github looks up upstream generator releases through the GitHub Releases API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v57/github"

	"github.com/epoch-engine/epoch-setup/internal/version"
)

// Sentinel errors for GitHub operations.
var (
	ErrInvalidRepo     = errors.New("repository must be in format 'owner/repo'")
	ErrReleaseNotFound = errors.New("release not found")
)

// releasesPerPage bounds the single page of releases inspected.
const releasesPerPage = 30

// Release is the subset of a GitHub release the setup tool cares about.
type Release struct {
	Tag        string
	Name       string
	URL        string
	Prerelease bool
	Version    *semver.Version
}

// Client wraps the GitHub API client for release lookups.
type Client struct {
	client *github.Client
	owner  string
	repo   string
}

// NewClient creates a client for the specified repository ("owner/repo").
// The token is optional; anonymous requests are subject to lower rate limits.
func NewClient(token, repository string) (*Client, error) {
	owner, repo, err := parseRepository(repository)
	if err != nil {
		return nil, err
	}

	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Client{
		client: client,
		owner:  owner,
		repo:   repo,
	}, nil
}

// Repository returns the "owner/repo" the client reads from.
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// LatestRelease returns the highest semver-tagged, non-draft release.
// Pre-releases are considered only when includePrerelease is set.
func (c *Client) LatestRelease(ctx context.Context, includePrerelease bool) (*Release, error) {
	if c.client == nil || c.owner == "" || c.repo == "" {
		return nil, fmt.Errorf("client not initialized: use NewClient to create instances")
	}

	releases, resp, err := c.client.Repositories.ListReleases(ctx, c.owner, c.repo, &github.ListOptions{PerPage: releasesPerPage})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: repository %s", ErrReleaseNotFound, c.Repository())
		}
		return nil, fmt.Errorf("failed to list releases for %s: %w", c.Repository(), err)
	}

	var best *Release
	for _, r := range releases {
		if r.GetDraft() {
			continue
		}
		if r.GetPrerelease() && !includePrerelease {
			continue
		}
		v, err := version.FromTag(r.GetTagName())
		if err != nil {
			continue // tags like "nightly" carry no version
		}
		if best == nil || v.GreaterThan(best.Version) {
			best = &Release{
				Tag:        r.GetTagName(),
				Name:       r.GetName(),
				URL:        r.GetHTMLURL(),
				Prerelease: r.GetPrerelease(),
				Version:    v,
			}
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: no versioned releases in %s", ErrReleaseNotFound, c.Repository())
	}
	return best, nil
}

// parseRepository splits a repository string into owner and repo.
// Returns an error if the format is invalid.
func parseRepository(repository string) (owner, repo string, err error) {
	if repository == "" {
		return "", "", ErrInvalidRepo
	}

	parts := strings.Split(repository, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: got %s", ErrInvalidRepo, repository)
	}

	owner = strings.TrimSpace(parts[0])
	repo = strings.TrimSpace(parts[1])

	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("%w: owner or repo is empty", ErrInvalidRepo)
	}

	return owner, repo, nil
}
