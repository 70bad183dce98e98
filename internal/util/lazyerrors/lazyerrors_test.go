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

package lazyerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Parallel()

	err := New("err")
	assert.Contains(t, err.Error(), "lazyerrors_test.go")
	assert.Contains(t, err.Error(), "err")

	wrapped := Error(err)
	assert.Equal(t, err, errors.Unwrap(wrapped))

	formatted := Errorf("fmt: %w", err)
	assert.ErrorIs(t, formatted, err)
}

func TestUnwrapAll(t *testing.T) {
	t.Parallel()

	assert.Nil(t, UnwrapAll(nil))

	base := errors.New("base")
	err := Error(fmt.Errorf("outer: %w", Error(base)))
	assert.Equal(t, base, UnwrapAll(err))
}
