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

	"github.com/userdbkit/userdb/internal/util/iterator"
	"github.com/userdbkit/userdb/internal/util/testutil"
)

func TestStreamUsers(t *testing.T) {
	t.Parallel()

	ctx := testutil.Ctx(t)
	s := setupStore(t, nil)

	iter, err := s.StreamUsers(ctx)
	require.NoError(t, err)
	defer iter.Close()

	n, u, err := iter.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, "John Doe", u.Name)

	users, err := iterator.ConsumeValues(iter)
	require.NoError(t, err)
	assert.Len(t, users, 3, "remaining users after the first")

	// closed iterator stays done
	_, _, err = iter.Next()
	assert.ErrorIs(t, err, iterator.ErrIteratorDone)
}

func TestStreamBatches(t *testing.T) {
	t.Parallel()

	ctx := testutil.Ctx(t)
	s := setupStore(t, nil)

	t.Run("UnevenBatches", func(t *testing.T) {
		iter, err := s.StreamBatches(ctx, 3)
		require.NoError(t, err)

		batches, err := iterator.ConsumeValues(iter)
		require.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Len(t, batches[0], 3)
		assert.Len(t, batches[1], 1)
	})

	t.Run("InvalidSize", func(t *testing.T) {
		_, err := s.StreamBatches(ctx, 0)
		assert.Error(t, err)
	})
}

func TestPages(t *testing.T) {
	t.Parallel()

	ctx := testutil.Ctx(t)
	s := setupStore(t, nil)

	iter, err := s.Pages(ctx, 2)
	require.NoError(t, err)

	pages, err := iterator.ConsumeValues(iter)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, "John Doe", pages[0][0].Name)
	assert.Equal(t, "Jane Doe", pages[0][1].Name)
	assert.Equal(t, "Grace Older", pages[1][0].Name)
	assert.Equal(t, "Paul Senior", pages[1][1].Name)
}
