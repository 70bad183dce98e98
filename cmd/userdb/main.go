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

// Package main runs the userdb demonstration commands.
package main

import (
	"context"
	"log"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/userdbkit/userdb/internal/dbscope"
	"github.com/userdbkit/userdb/internal/querycache"
	"github.com/userdbkit/userdb/internal/userdb"
	"github.com/userdbkit/userdb/internal/util/logging"
)

// The cli struct represents all command-line commands, fields and flags.
// It's used for parsing the user input.
var cli struct {
	DBURI string `name:"db-uri" default:"file:users.db" help:"SQLite URI of the users database."`

	Log struct {
		Level string `default:"info"  help:"Log level: debug, info, warn, error."`
		UUID  bool   `default:"false" help:"Add instance UUID to all log messages." negatable:""`
	} `embed:"" prefix:"log-"`

	Seed       seedCmd       `cmd:"" help:"Create the schema and load the sample users."`
	Query      queryCmd      `cmd:"" help:"Print all users with query logging."`
	Get        getCmd        `cmd:"" help:"Print a single user by id."`
	Update     updateCmd     `cmd:"" help:"Update a user's email inside a retried transaction."`
	Cache      cacheCmd      `cmd:"" help:"Run the same query twice through the result cache."`
	Concurrent concurrentCmd `cmd:"" help:"Fetch user sets concurrently and join the results."`
	Stream     streamCmd     `cmd:"" help:"Stream users one by one."`
	Batch      batchCmd      `cmd:"" help:"Stream users in fixed-size batches."`
	Pages      pagesCmd      `cmd:"" help:"Page through users lazily."`
	Ages       agesCmd       `cmd:"" help:"Compute the average age by streaming rows."`
	Repos      reposCmd      `cmd:"" help:"List public repositories of a GitHub organization."`
}

// app holds dependencies shared by all commands.
type app struct {
	l        *zap.Logger
	registry *prometheus.Registry
}

// withStore opens the users store, runs f with it, and guarantees the store is closed.
func (a *app) withStore(cache *querycache.Cache, f func(context.Context, *userdb.Store) error) error {
	open := func(ctx context.Context) (*userdb.Store, error) {
		s, err := userdb.Open(ctx, cli.DBURI, a.l, cache)
		if err != nil {
			return nil, err
		}

		a.registry.MustRegister(s.DB())

		return s, nil
	}

	return dbscope.WithDB(context.Background(), a.l, open, f)
}

func main() {
	kongCtx := kong.Parse(
		&cli,
		kong.Name("userdb"),
		kong.Description("SQLite data access demonstrations."),
		kong.DefaultEnvars("USERDB"),
	)

	level, err := zapcore.ParseLevel(cli.Log.Level)
	if err != nil {
		log.Fatal(err)
	}

	var instanceUUID string
	if cli.Log.UUID {
		instanceUUID = uuid.NewString()
	}

	logging.Setup(level, instanceUUID)
	l := zap.L()

	if _, err := maxprocs.Set(maxprocs.Logger(l.Sugar().Debugf)); err != nil {
		l.Sugar().Warnf("Failed to set GOMAXPROCS: %s.", err)
	}

	a := &app{
		l:        l,
		registry: prometheus.NewRegistry(),
	}

	kongCtx.FatalIfErrorf(kongCtx.Run(a))
}
