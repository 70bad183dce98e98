// Copyright 2024 userdb authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package github provides a GitHub organization API client with a shared file cache.
package github

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"

	"github.com/userdbkit/userdb/internal/util/lazyerrors"
)

// Client represents a GitHub API client with a shared file cache.
type Client struct {
	c             *github.Client
	cacheFilePath string
	l             *zap.Logger
}

// NewClient creates a new client for the given cache file path.
//
// The HTTP client may be nil; a non-empty baseURL overrides the GitHub API
// endpoint (used by tests).
// GITHUB_TOKEN is picked up from the environment when set.
func NewClient(httpClient *http.Client, baseURL, cacheFilePath string, l *zap.Logger) (*Client, error) {
	c := github.NewClient(httpClient)

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		c = c.WithAuthToken(token)
	}

	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, lazyerrors.Error(err)
		}

		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}

		c.BaseURL = u
	}

	if err := os.MkdirAll(filepath.Dir(cacheFilePath), 0o777); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return &Client{
		c:             c,
		cacheFilePath: cacheFilePath,
		l:             l.Named("github"),
	}, nil
}

// Org returns organization metadata.
// It does not use the cache.
func (c *Client) Org(ctx context.Context, name string) (*github.Organization, error) {
	org, _, err := c.c.Organizations.Get(ctx, name)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return org, nil
}

// HasLicense reports whether the repository has the given license key.
func HasLicense(repo *github.Repository, key string) bool {
	return repo.GetLicense().GetKey() == key
}

// listRepos fetches all repositories of the organization via the API.
// It does not use the cache.
func (c *Client) listRepos(ctx context.Context, org string) ([]Repo, error) {
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var res []Repo

	for {
		repos, resp, err := c.c.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, lazyerrors.Error(err)
		}

		for _, r := range repos {
			res = append(res, Repo{
				Name:    r.GetName(),
				License: r.GetLicense().GetKey(),
			})
		}

		if resp.NextPage == 0 {
			return res, nil
		}

		opts.Page = resp.NextPage
	}
}
