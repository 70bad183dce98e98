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

package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSleep(t *testing.T) {
	t.Parallel()

	t.Run("Canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		Sleep(ctx, time.Minute)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("Elapsed", func(t *testing.T) {
		t.Parallel()

		start := time.Now()
		Sleep(context.Background(), 10*time.Millisecond)
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})
}

func TestDurationWithJitter(t *testing.T) {
	t.Parallel()

	t.Run("LargerOrEqual1ms", func(t *testing.T) {
		sleep := DurationWithJitter(time.Second, 1)
		assert.GreaterOrEqual(t, sleep, time.Millisecond)
	})

	t.Run("LessOrEqualCap", func(t *testing.T) {
		sleep := DurationWithJitter(time.Second, 100000)
		assert.LessOrEqual(t, sleep, time.Second)
	})

	t.Run("InvalidAttempt", func(t *testing.T) {
		assert.Panics(t, func() {
			DurationWithJitter(time.Second, 0)
		})
	})
}
