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

package iterator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForSlice(t *testing.T) {
	t.Parallel()

	iter := ForSlice([]string{"a", "b"})
	defer iter.Close()

	k, v, err := iter.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, k)
	assert.Equal(t, "a", v)

	k, v, err = iter.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, k)
	assert.Equal(t, "b", v)

	_, _, err = iter.Next()
	assert.ErrorIs(t, err, ErrIteratorDone)

	// still done after Close
	iter.Close()
	_, _, err = iter.Next()
	assert.ErrorIs(t, err, ErrIteratorDone)
}

func TestConsumeValues(t *testing.T) {
	t.Parallel()

	res, err := ConsumeValues(ForSlice([]int{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, res)

	res, err = ConsumeValues(ForSlice[int](nil))
	require.NoError(t, err)
	assert.Nil(t, res)
}
