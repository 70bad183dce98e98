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

// Package dbscope provides scoped database handles and transactional retries.
//
// WithDB opens a handle, passes it to the operation, and guarantees that
// the handle is released exactly once on every exit path.
// Transact runs an operation inside a transaction and retries the whole
// transaction on failure according to a Policy.
package dbscope

import (
	"context"

	"go.uber.org/zap"

	"github.com/userdbkit/userdb/internal/util/ctxutil"
	"github.com/userdbkit/userdb/internal/util/fsql"
	"github.com/userdbkit/userdb/internal/util/lazyerrors"
)

// Handle is an open database session released by WithDB.
type Handle interface {
	Close() error
}

// WithDB opens a handle via open, runs op with it, and closes the handle.
//
// If open fails, the error is returned immediately and op does not run.
// The handle is closed exactly once whether op returns normally or not.
// If both op and Close fail, op's error is returned and the close error is logged.
func WithDB[H Handle](ctx context.Context, l *zap.Logger, open func(context.Context) (H, error), op func(context.Context, H) error) error {
	h, err := open(ctx)
	if err != nil {
		return lazyerrors.Error(err)
	}

	opErr := op(ctx, h)

	if closeErr := h.Close(); closeErr != nil {
		if opErr != nil {
			l.Warn("Failed to close database handle.", zap.Error(closeErr))
			return opErr
		}

		return lazyerrors.Error(closeErr)
	}

	return opErr
}

// Transact runs f inside a transaction on db, retrying per policy.
//
// Each attempt begins a new transaction that is committed if f succeeds
// and rolled back if it fails; a commit failure counts as a failed attempt.
// Between attempts Transact sleeps for policy.Delay (context-aware).
// When the attempt budget is exhausted, the returned error is a *RetryError
// wrapping the last attempt's error.
func Transact(ctx context.Context, db *fsql.DB, policy Policy, l *zap.Logger, f func(*fsql.Tx) error) error {
	if err := policy.Validate(); err != nil {
		return lazyerrors.Error(err)
	}

	var last error
	var attempts int

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		attempts = attempt

		err := db.InTransaction(ctx, f)
		if err == nil {
			l.Debug("Transaction committed.", zap.Int("attempt", attempt))
			return nil
		}

		last = err

		l.Warn(
			"Transaction attempt failed, rolled back.",
			zap.Int("attempt", attempt), zap.Int("max_attempts", policy.MaxAttempts), zap.Error(err),
		)

		if ctxErr := context.Cause(ctx); ctxErr != nil {
			break
		}

		if attempt < policy.MaxAttempts && policy.Delay > 0 {
			ctxutil.Sleep(ctx, policy.Delay)
		}
	}

	return &RetryError{
		Attempts: attempts,
		last:     last,
	}
}
