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

	"github.com/userdbkit/userdb/internal/util/fsql"
	"github.com/userdbkit/userdb/internal/util/lazyerrors"
)

// createTable is the users table schema.
const createTable = `
CREATE TABLE IF NOT EXISTS users (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	name  TEXT NOT NULL,
	email TEXT NOT NULL,
	age   INTEGER NOT NULL
)
`

// seedUsers are the fixed rows inserted by Seed.
var seedUsers = []User{
	{Name: "John Doe", Email: "john@example.com", Age: 28},
	{Name: "Jane Doe", Email: "jane@example.com", Age: 35},
	{Name: "Grace Older", Email: "grace@ex.com", Age: 41},
	{Name: "Paul Senior", Email: "paul@ex.com", Age: 52},
}

// CreateSchema creates the users table if it does not exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return lazyerrors.Error(err)
	}

	return nil
}

// Seed replaces the table contents with the fixed sample users.
// It is idempotent.
func (s *Store) Seed(ctx context.Context) error {
	if err := s.CreateSchema(ctx); err != nil {
		return lazyerrors.Error(err)
	}

	err := s.db.InTransaction(ctx, func(tx *fsql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM users"); err != nil {
			return lazyerrors.Error(err)
		}

		for _, u := range seedUsers {
			_, err := tx.ExecContext(ctx, "INSERT INTO users (name, email, age) VALUES (?, ?, ?)", u.Name, u.Email, u.Age)
			if err != nil {
				return lazyerrors.Error(err)
			}
		}

		return nil
	})
	if err != nil {
		return lazyerrors.Error(err)
	}

	s.l.Info("Seeded users database.")

	return nil
}
