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

// Package ctxutil provides context helpers.
package ctxutil

import (
	"context"
	"math/rand"
	"time"
)

// Sleep pauses the current goroutine until d has passed or ctx is canceled.
func Sleep(ctx context.Context, d time.Duration) {
	sleepCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	<-sleepCtx.Done()
}

// SleepWithJitter pauses the current goroutine until jittered d has passed or ctx is canceled.
func SleepWithJitter(ctx context.Context, d time.Duration, attempt int64) {
	Sleep(ctx, DurationWithJitter(d, attempt))
}

// DurationWithJitter returns a random duration between 1ms and cap
// to space out concurrent retries (decorrelated jitter).
//
// The attempt number must be larger than 0.
func DurationWithJitter(cap time.Duration, attempt int64) time.Duration {
	if attempt < 1 {
		panic("attempt must be larger than 0")
	}

	maxMs := cap.Milliseconds()
	if maxMs < 2 {
		maxMs = 2
	}

	spread := attempt * 100
	if spread > maxMs {
		spread = maxMs
	}

	return time.Duration(1+rand.Int63n(spread)) * time.Millisecond
}
