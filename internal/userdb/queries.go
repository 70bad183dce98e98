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
	"database/sql"
	"errors"

	"github.com/userdbkit/userdb/internal/dbscope"
	"github.com/userdbkit/userdb/internal/querycache"
	"github.com/userdbkit/userdb/internal/util/fsql"
	"github.com/userdbkit/userdb/internal/util/lazyerrors"
)

// Uncached returns a copy of the store that bypasses the query cache.
//
// The cache is not safe for concurrent use,
// so concurrent readers must go through Uncached.
func (s *Store) Uncached() *Store {
	res := *s
	res.cache = nil

	return &res
}

// UserByID returns a single user by id.
//
// It returns ErrUserNotFound if there is no such user.
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, email, age FROM users WHERE id = ?", id)

	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Age); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, lazyerrors.Error(err)
	}

	return &u, nil
}

// AllUsers returns all users ordered by id.
func (s *Store) AllUsers(ctx context.Context) ([]User, error) {
	return s.selectUsers(ctx, "SELECT id, name, email, age FROM users ORDER BY id")
}

// UsersOlderThan returns users strictly older than the given age, ordered by id.
func (s *Store) UsersOlderThan(ctx context.Context, age int32) ([]User, error) {
	return s.selectUsers(ctx, "SELECT id, name, email, age FROM users WHERE age > ? ORDER BY id", age)
}

// UsersYoungerThan returns users strictly younger than the given age, ordered by id.
func (s *Store) UsersYoungerThan(ctx context.Context, age int32) ([]User, error) {
	return s.selectUsers(ctx, "SELECT id, name, email, age FROM users WHERE age < ? ORDER BY id", age)
}

// selectUsers runs the given query and scans all rows,
// consulting the cache first if one is set.
func (s *Store) selectUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	key := querycache.Key(query, args...)

	if s.cache != nil {
		if res, ok := s.cache.Get(key); ok {
			return res.([]User), nil
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}
	defer rows.Close() //nolint:errcheck // read-only query

	var res []User

	for rows.Next() {
		var u User
		if err = rows.Scan(&u.ID, &u.Name, &u.Email, &u.Age); err != nil {
			return nil, lazyerrors.Error(err)
		}

		res = append(res, u)
	}

	if err = rows.Err(); err != nil {
		return nil, lazyerrors.Error(err)
	}

	if s.cache != nil {
		s.cache.Set(key, res)
	}

	return res, nil
}

// InsertUser adds a new user inside a transaction and returns its id.
func (s *Store) InsertUser(ctx context.Context, name, email string, age int32) (int64, error) {
	var id int64

	err := s.db.InTransaction(ctx, func(tx *fsql.Tx) error {
		res, err := tx.ExecContext(ctx, "INSERT INTO users (name, email, age) VALUES (?, ?, ?)", name, email, age)
		if err != nil {
			return lazyerrors.Error(err)
		}

		if id, err = res.LastInsertId(); err != nil {
			return lazyerrors.Error(err)
		}

		return nil
	})
	if err != nil {
		return 0, lazyerrors.Error(err)
	}

	return id, nil
}

// UpdateEmail sets the user's email inside a transaction, retrying per policy.
//
// It returns ErrUserNotFound if there is no such user.
func (s *Store) UpdateEmail(ctx context.Context, policy dbscope.Policy, id int64, email string) error {
	return dbscope.Transact(ctx, s.db, policy, s.l, func(tx *fsql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE users SET email = ? WHERE id = ?", email, id)
		if err != nil {
			return lazyerrors.Error(err)
		}

		ra, err := res.RowsAffected()
		if err != nil {
			return lazyerrors.Error(err)
		}

		if ra == 0 {
			return ErrUserNotFound
		}

		return nil
	})
}
