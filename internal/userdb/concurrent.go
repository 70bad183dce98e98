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
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/userdbkit/userdb/internal/util/lazyerrors"
)

// ConcurrentUsers holds the results of FetchConcurrently.
type ConcurrentUsers struct {
	All     []User
	Older   []User
	Younger []User
}

// FetchConcurrently runs three independent read queries concurrently
// and joins the results.
//
// All branches run to completion before the first fault, if any, is surfaced;
// a fault in one branch does not cancel the others.
func (s *Store) FetchConcurrently(ctx context.Context, olderThan, youngerThan int32) (*ConcurrentUsers, error) {
	// the query cache is not safe for concurrent use
	u := s.Uncached()

	var res ConcurrentUsers

	// deliberately not errgroup.WithContext: the join must wait for all branches
	var eg errgroup.Group

	eg.Go(func() error {
		var err error
		res.All, err = u.AllUsers(ctx)
		return err
	})

	eg.Go(func() error {
		var err error
		res.Older, err = u.UsersOlderThan(ctx, olderThan)
		return err
	})

	eg.Go(func() error {
		var err error
		res.Younger, err = u.UsersYoungerThan(ctx, youngerThan)
		return err
	})

	if err := eg.Wait(); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return &res, nil
}
