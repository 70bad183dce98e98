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

// Package userdb provides access to the users SQLite database.
package userdb

import (
	"context"
	"database/sql"
	"net/url"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // register database/sql driver

	"github.com/userdbkit/userdb/internal/querycache"
	"github.com/userdbkit/userdb/internal/util/fsql"
	"github.com/userdbkit/userdb/internal/util/lazyerrors"
)

// User is a single row of the users table.
type User struct {
	ID    int64
	Name  string
	Email string
	Age   int32
}

// ErrUserNotFound is returned when the requested user does not exist.
var ErrUserNotFound = lazyerrors.New("user not found")

// Store provides queries over the users database.
//
// The cache is optional; a nil cache disables query caching.
type Store struct {
	db    *fsql.DB
	l     *zap.Logger
	cache *querycache.Cache
}

// Open opens the users database by SQLite URI and pings it.
//
// The in-memory database is limited to a single connection;
// see https://www.sqlite.org/inmemorydb.html.
func Open(ctx context.Context, uri string, l *zap.Logger, cache *querycache.Cache) (*Store, error) {
	u, err := parseURI(uri)
	if err != nil {
		return nil, lazyerrors.Errorf("failed to parse SQLite URI %q: %w", uri, err)
	}

	sqlDB, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	sqlDB.SetConnMaxIdleTime(0)
	sqlDB.SetConnMaxLifetime(0)

	if u.Query().Get("mode") == "memory" {
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetMaxOpenConns(1)
	}

	if err = sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, lazyerrors.Error(err)
	}

	return &Store{
		db:    fsql.WrapDB(sqlDB, "users", l),
		l:     l.Named("userdb"),
		cache: cache,
	}, nil
}

// parseURI checks the given SQLite URI.
func parseURI(uri string) (*url.URL, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}

	if u.Scheme != "file" {
		return nil, lazyerrors.Errorf("expected file: scheme, got %q", u.Scheme)
	}

	return u, nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *fsql.DB {
	return s.db
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
