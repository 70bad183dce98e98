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
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userdbkit/userdb/internal/util/testutil"
)

// orgPayload is the fixture returned for /orgs/{org}.
const orgPayload = `{"login": "test", "id": 12345, "repos_url": "https://api.github.com/orgs/test/repos"}`

// reposPayload is the fixture returned for /orgs/{org}/repos.
const reposPayload = `[
	{"name": "repo1", "license": {"key": "apache-2.0"}},
	{"name": "repo2", "license": {"key": "mit"}},
	{"name": "repo3"}
]`

// fixtureServer returns a test server that serves canned GitHub API payloads
// and counts requests per path.
func fixtureServer(t *testing.T) (*httptest.Server, map[string]int) {
	t.Helper()

	calls := map[string]int{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls[r.URL.Path]++

		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/orgs/test":
			_, _ = io.WriteString(w, orgPayload)
		case "/orgs/test/repos":
			_, _ = io.WriteString(w, reposPayload)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, calls
}

// testClient returns a client pointed at the fixture server
// with a temporary cache file.
func testClient(t *testing.T) (*Client, map[string]int) {
	t.Helper()

	srv, calls := fixtureServer(t)

	cachePath := filepath.Join(t.TempDir(), "githubcache", "cache.json")

	c, err := NewClient(nil, srv.URL, cachePath, testutil.Logger(t))
	require.NoError(t, err)

	return c, calls
}

func TestOrg(t *testing.T) {
	t.Parallel()

	ctx := testutil.Ctx(t)
	c, calls := testClient(t)

	org, err := c.Org(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, "test", org.GetLogin())
	assert.Equal(t, int64(12345), org.GetID())
	assert.Equal(t, 1, calls["/orgs/test"])

	_, err = c.Org(ctx, "missing")
	assert.Error(t, err)
}

func TestPublicRepos(t *testing.T) {
	t.Parallel()

	ctx := testutil.Ctx(t)
	c, calls := testClient(t)

	repos, err := c.PublicRepos(ctx, "test", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"repo1", "repo2", "repo3"}, repos)
	assert.Equal(t, 1, calls["/orgs/test/repos"])

	// second call must be served from the file cache
	repos, err = c.PublicRepos(ctx, "test", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"repo1", "repo2", "repo3"}, repos)
	assert.Equal(t, 1, calls["/orgs/test/repos"])
}

func TestPublicReposLicenseFilter(t *testing.T) {
	t.Parallel()

	ctx := testutil.Ctx(t)
	c, _ := testClient(t)

	repos, err := c.PublicRepos(ctx, "test", "apache-2.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"repo1"}, repos)

	repos, err = c.PublicRepos(ctx, "test", "bsd-3-clause")
	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestHasLicense(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		repo     *github.Repository
		key      string
		expected bool
	}{
		"Match": {
			repo:     &github.Repository{License: &github.License{Key: github.String("my_license")}},
			key:      "my_license",
			expected: true,
		},
		"Mismatch": {
			repo:     &github.Repository{License: &github.License{Key: github.String("other_license")}},
			key:      "my_license",
			expected: false,
		},
		"NoLicense": {
			repo:     &github.Repository{},
			key:      "my_license",
			expected: false,
		},
	} {
		tc := tc

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, HasLicense(tc.repo, tc.key))
		})
	}
}
