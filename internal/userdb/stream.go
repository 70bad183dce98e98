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
	"errors"
	"sync"

	"github.com/userdbkit/userdb/internal/util/fsql"
	"github.com/userdbkit/userdb/internal/util/iterator"
	"github.com/userdbkit/userdb/internal/util/lazyerrors"
	"github.com/userdbkit/userdb/internal/util/resource"
)

// StreamUsers returns an iterator that fetches users one by one, ordered by id.
//
// The caller must close the iterator.
func (s *Store) StreamUsers(ctx context.Context) (iterator.Interface[int, User], error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, email, age FROM users ORDER BY id")
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return newQueryIterator(ctx, rows), nil
}

// queryIterator implements iterator.Interface to fetch users from the database.
type queryIterator struct {
	ctx context.Context

	m    sync.Mutex
	rows *fsql.Rows
	n    int

	token *resource.Token
}

// newQueryIterator returns a new queryIterator for the given rows.
//
// Iterator's Close method closes rows.
func newQueryIterator(ctx context.Context, rows *fsql.Rows) iterator.Interface[int, User] {
	iter := &queryIterator{
		ctx:   ctx,
		rows:  rows,
		token: resource.NewToken(),
	}
	resource.Track(iter, iter.token)

	return iter
}

// Next implements iterator.Interface.
//
// Errors (possibly wrapped) are:
//   - iterator.ErrIteratorDone;
//   - context.Canceled;
//   - context.DeadlineExceeded;
//   - something else.
func (iter *queryIterator) Next() (int, User, error) {
	iter.m.Lock()
	defer iter.m.Unlock()

	var zero User

	// ignore context error, if any, if iterator is already closed
	if iter.rows == nil {
		return 0, zero, iterator.ErrIteratorDone
	}

	if err := context.Cause(iter.ctx); err != nil {
		return 0, zero, lazyerrors.Error(err)
	}

	if !iter.rows.Next() {
		if err := iter.rows.Err(); err != nil {
			return 0, zero, lazyerrors.Error(err)
		}

		// to avoid context cancellation changing the next `Next()` error
		// from `iterator.ErrIteratorDone` to `context.Canceled`
		iter.close()

		return 0, zero, iterator.ErrIteratorDone
	}

	var u User
	if err := iter.rows.Scan(&u.ID, &u.Name, &u.Email, &u.Age); err != nil {
		return 0, zero, lazyerrors.Error(err)
	}

	n := iter.n
	iter.n++

	return n, u, nil
}

// Close implements iterator.Interface.
func (iter *queryIterator) Close() {
	iter.m.Lock()
	defer iter.m.Unlock()

	iter.close()
}

// close closes the iterator without holding the mutex.
//
// It should be called only when the caller already holds the mutex.
func (iter *queryIterator) close() {
	if iter.rows != nil {
		_ = iter.rows.Close()
		iter.rows = nil

		resource.Untrack(iter, iter.token)
	}
}

// StreamBatches returns an iterator over fixed-size batches of users.
//
// The last batch may be shorter; empty batches are never returned.
// The caller must close the iterator.
func (s *Store) StreamBatches(ctx context.Context, size int) (iterator.Interface[int, []User], error) {
	if size < 1 {
		return nil, lazyerrors.Errorf("batch size must be positive, got %d", size)
	}

	users, err := s.StreamUsers(ctx)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return &batchIterator{
		users: users,
		size:  size,
	}, nil
}

// batchIterator groups an underlying user iterator into batches.
type batchIterator struct {
	m     sync.Mutex
	users iterator.Interface[int, User]
	size  int
	n     int
}

// Next implements iterator.Interface.
func (iter *batchIterator) Next() (int, []User, error) {
	iter.m.Lock()
	defer iter.m.Unlock()

	batch := make([]User, 0, iter.size)

	for len(batch) < iter.size {
		_, u, err := iter.users.Next()
		if err != nil {
			if errors.Is(err, iterator.ErrIteratorDone) {
				break
			}

			return 0, nil, lazyerrors.Error(err)
		}

		batch = append(batch, u)
	}

	if len(batch) == 0 {
		return 0, nil, iterator.ErrIteratorDone
	}

	n := iter.n
	iter.n++

	return n, batch, nil
}

// Close implements iterator.Interface.
func (iter *batchIterator) Close() {
	iter.m.Lock()
	defer iter.m.Unlock()

	iter.users.Close()
}

// Pages returns an iterator that lazily fetches pages of users
// with LIMIT/OFFSET queries, one query per page.
//
// Iteration stops at the first empty page.
// The caller must close the iterator.
func (s *Store) Pages(ctx context.Context, size int) (iterator.Interface[int, []User], error) {
	if size < 1 {
		return nil, lazyerrors.Errorf("page size must be positive, got %d", size)
	}

	return &pageIterator{
		ctx:   ctx,
		store: s,
		size:  size,
	}, nil
}

// pageIterator implements lazy pagination over the users table.
type pageIterator struct {
	ctx   context.Context
	store *Store

	m      sync.Mutex
	size   int
	offset int
	n      int
	done   bool
}

// Next implements iterator.Interface.
func (iter *pageIterator) Next() (int, []User, error) {
	iter.m.Lock()
	defer iter.m.Unlock()

	if iter.done {
		return 0, nil, iterator.ErrIteratorDone
	}

	page, err := iter.store.selectUsers(
		iter.ctx,
		"SELECT id, name, email, age FROM users ORDER BY id LIMIT ? OFFSET ?",
		iter.size, iter.offset,
	)
	if err != nil {
		return 0, nil, lazyerrors.Error(err)
	}

	if len(page) == 0 {
		iter.done = true
		return 0, nil, iterator.ErrIteratorDone
	}

	iter.offset += iter.size

	n := iter.n
	iter.n++

	return n, page, nil
}

// Close implements iterator.Interface.
func (iter *pageIterator) Close() {
	iter.m.Lock()
	defer iter.m.Unlock()

	iter.done = true
}

// AverageAge streams ages row by row and computes the average without SQL AVG.
//
// It returns 0 for an empty table.
func (s *Store) AverageAge(ctx context.Context) (float64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT age FROM users")
	if err != nil {
		return 0, lazyerrors.Error(err)
	}
	defer rows.Close() //nolint:errcheck // read-only query

	var sum, count int64

	for rows.Next() {
		var age int64
		if err = rows.Scan(&age); err != nil {
			return 0, lazyerrors.Error(err)
		}

		sum += age
		count++
	}

	if err = rows.Err(); err != nil {
		return 0, lazyerrors.Error(err)
	}

	if count == 0 {
		return 0, nil
	}

	return float64(sum) / float64(count), nil
}
