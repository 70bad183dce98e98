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

package dbscope

import (
	"fmt"
	"time"

	"github.com/userdbkit/userdb/internal/util/lazyerrors"
)

// Policy is a fixed-delay retry policy.
//
// Delay does not grow between attempts.
// The zero value is invalid; use DefaultPolicy or construct explicitly.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultPolicy returns the policy used by CLI demonstrations.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Delay:       time.Second,
	}
}

// Validate checks that at least one attempt is allowed and the delay is not negative.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return lazyerrors.Errorf("max attempts must be positive, got %d", p.MaxAttempts)
	}

	if p.Delay < 0 {
		return lazyerrors.Errorf("delay must not be negative, got %s", p.Delay)
	}

	return nil
}

// RetryError is returned by Transact when the attempt budget is exhausted.
// It wraps the last attempt's error.
type RetryError struct {
	Attempts int
	last     error
}

// Error implements error.
func (e *RetryError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %s", e.Attempts, e.last)
}

// Unwrap returns the last attempt's error.
func (e *RetryError) Unwrap() error {
	return e.last
}
