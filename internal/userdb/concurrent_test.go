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

package userdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userdbkit/userdb/internal/querycache"
	"github.com/userdbkit/userdb/internal/util/testutil"
)

func TestFetchConcurrently(t *testing.T) {
	t.Parallel()

	ctx := testutil.Ctx(t)

	// a non-nil cache must be bypassed by concurrent branches
	s := setupStore(t, querycache.New(testutil.Logger(t)))

	res, err := s.FetchConcurrently(ctx, 40, 30)
	require.NoError(t, err)

	assert.Len(t, res.All, 4)

	require.Len(t, res.Older, 2)
	assert.Equal(t, "Grace Older", res.Older[0].Name)
	assert.Equal(t, "Paul Senior", res.Older[1].Name)

	require.Len(t, res.Younger, 1)
	assert.Equal(t, "John Doe", res.Younger[0].Name)
}

func TestFetchConcurrentlyFault(t *testing.T) {
	t.Parallel()

	ctx := testutil.Ctx(t)
	s := setupStore(t, nil)

	// break one branch only; the join must still wait for all of them
	_, err := s.DB().ExecContext(ctx, "ALTER TABLE users RENAME COLUMN email TO contact")
	require.NoError(t, err)

	_, err = s.FetchConcurrently(ctx, 40, 30)
	assert.Error(t, err)
}
