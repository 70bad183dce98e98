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

package github

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/rogpeppe/go-internal/lockedfile"
	"go.uber.org/zap"

	"github.com/userdbkit/userdb/internal/util/lazyerrors"
)

// Repo is a single cached repository.
type Repo struct {
	Name    string `json:"name"`
	License string `json:"license,omitempty"`
}

// orgRepos is the cached repository list of one organization.
type orgRepos struct {
	RefreshedAt time.Time `json:"refreshedAt"`
	Repos       []Repo    `json:"repos"`
}

// cacheFile stores cached repository lists keyed by organization name.
//
// The file is shared between concurrent invocations and guarded by a file lock.
type cacheFile struct {
	Orgs map[string]orgRepos `json:"orgs"`
}

// PublicRepos returns the names of the organization's public repositories,
// optionally filtered by license key (empty string means all).
// It uses the cache.
func (c *Client) PublicRepos(ctx context.Context, org, license string) ([]string, error) {
	start := time.Now()

	cache := &cacheFile{
		Orgs: make(map[string]orgRepos),
	}
	cacheRes := "miss"

	var repos []Repo
	var found bool

	// fast path without any locks

	if data, err := os.ReadFile(c.cacheFilePath); err == nil {
		_ = json.Unmarshal(data, cache)
		repos, found = reposFromCache(cache, org)
	}

	if found {
		cacheRes = "fast hit"
	} else {
		// slow path

		noUpdate := errors.New("no need to update the cache file")

		err := lockedfile.Transform(c.cacheFilePath, func(data []byte) ([]byte, error) {
			cache.Orgs = make(map[string]orgRepos)

			if len(data) != 0 {
				if err := json.Unmarshal(data, cache); err != nil {
					return nil, err
				}
			}

			if repos, found = reposFromCache(cache, org); found {
				return nil, noUpdate
			}

			var err error
			if repos, err = c.listRepos(ctx, org); err != nil {
				return nil, err
			}

			cache.Orgs[org] = orgRepos{
				RefreshedAt: time.Now(),
				Repos:       repos,
			}

			return json.MarshalIndent(cache, "", "  ")
		})

		if errors.Is(err, noUpdate) {
			cacheRes = "slow hit"
			err = nil
		}

		if err != nil {
			return nil, lazyerrors.Error(err)
		}
	}

	c.l.Debug(
		"Fetched public repos.",
		zap.String("org", org), zap.Int("repos", len(repos)),
		zap.String("cache", cacheRes), zap.Duration("time", time.Since(start)),
	)

	names := make([]string, 0, len(repos))

	for _, r := range repos {
		if license != "" && r.License != license {
			continue
		}

		names = append(names, r.Name)
	}

	return names, nil
}

// reposFromCache returns the cached repository list for the organization.
func reposFromCache(cache *cacheFile, org string) ([]Repo, bool) {
	res, ok := cache.Orgs[org]
	return res.Repos, ok
}
