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

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/userdbkit/userdb/internal/dbscope"
	"github.com/userdbkit/userdb/internal/github"
	"github.com/userdbkit/userdb/internal/querycache"
	"github.com/userdbkit/userdb/internal/userdb"
	"github.com/userdbkit/userdb/internal/util/iterator"
)

// printUser writes one user to stdout.
func printUser(u userdb.User) {
	fmt.Printf("  ID: %d, Name: %s, Email: %s, Age: %d\n", u.ID, u.Name, u.Email, u.Age)
}

// printUsers writes a titled user list to stdout.
func printUsers(title string, users []userdb.User) {
	fmt.Printf("%s (%d):\n", title, len(users))

	for _, u := range users {
		printUser(u)
	}
}

// seedCmd implements the `seed` command.
type seedCmd struct{}

func (*seedCmd) Run(a *app) error {
	return a.withStore(nil, func(ctx context.Context, s *userdb.Store) error {
		if err := s.Seed(ctx); err != nil {
			return err
		}

		fmt.Printf("Seeded %s with sample users.\n", cli.DBURI)

		return nil
	})
}

// queryCmd implements the `query` command.
type queryCmd struct{}

func (*queryCmd) Run(a *app) error {
	return a.withStore(nil, func(ctx context.Context, s *userdb.Store) error {
		users, err := s.AllUsers(ctx)
		if err != nil {
			return err
		}

		printUsers("All users", users)

		return nil
	})
}

// getCmd implements the `get` command.
type getCmd struct {
	ID int64 `default:"1" help:"User id."`
}

func (c *getCmd) Run(a *app) error {
	return a.withStore(nil, func(ctx context.Context, s *userdb.Store) error {
		u, err := s.UserByID(ctx, c.ID)

		switch {
		case err == nil:
			fmt.Println("Found:")
			printUser(*u)
		case errors.Is(err, userdb.ErrUserNotFound):
			fmt.Printf("User %d not found.\n", c.ID)
		default:
			return err
		}

		return nil
	})
}

// updateCmd implements the `update` command.
type updateCmd struct {
	ID          int64         `required:"" help:"User id."`
	Email       string        `required:"" help:"New email address."`
	MaxAttempts int           `default:"3"  help:"Retry attempt budget."`
	Delay       time.Duration `default:"1s" help:"Fixed delay between attempts."`
}

func (c *updateCmd) Run(a *app) error {
	return a.withStore(nil, func(ctx context.Context, s *userdb.Store) error {
		policy := dbscope.Policy{
			MaxAttempts: c.MaxAttempts,
			Delay:       c.Delay,
		}

		if err := s.UpdateEmail(ctx, policy, c.ID, c.Email); err != nil {
			return err
		}

		fmt.Printf("Updated user %d email to %s.\n", c.ID, c.Email)

		return nil
	})
}

// cacheCmd implements the `cache` command.
type cacheCmd struct{}

func (*cacheCmd) Run(a *app) error {
	cache := querycache.New(a.l)
	a.registry.MustRegister(cache)

	return a.withStore(cache, func(ctx context.Context, s *userdb.Store) error {
		first, err := s.AllUsers(ctx)
		if err != nil {
			return err
		}

		printUsers("First fetch (cache miss)", first)

		second, err := s.AllUsers(ctx)
		if err != nil {
			return err
		}

		printUsers("Second fetch (cache hit)", second)
		fmt.Printf("Cached entries: %d\n", cache.Len())

		return nil
	})
}

// concurrentCmd implements the `concurrent` command.
type concurrentCmd struct {
	OlderThan   int32 `default:"40" help:"Age bound for the older query."`
	YoungerThan int32 `default:"30" help:"Age bound for the younger query."`
}

func (c *concurrentCmd) Run(a *app) error {
	return a.withStore(nil, func(ctx context.Context, s *userdb.Store) error {
		res, err := s.FetchConcurrently(ctx, c.OlderThan, c.YoungerThan)
		if err != nil {
			return err
		}

		printUsers("All users", res.All)
		printUsers(fmt.Sprintf("Users older than %d", c.OlderThan), res.Older)
		printUsers(fmt.Sprintf("Users younger than %d", c.YoungerThan), res.Younger)

		return nil
	})
}

// streamCmd implements the `stream` command.
type streamCmd struct{}

func (*streamCmd) Run(a *app) error {
	return a.withStore(nil, func(ctx context.Context, s *userdb.Store) error {
		iter, err := s.StreamUsers(ctx)
		if err != nil {
			return err
		}
		defer iter.Close()

		for {
			_, u, err := iter.Next()
			if err != nil {
				if errors.Is(err, iterator.ErrIteratorDone) {
					return nil
				}

				return err
			}

			printUser(u)
		}
	})
}

// batchCmd implements the `batch` command.
type batchCmd struct {
	Size int `default:"2" help:"Batch size."`
}

func (c *batchCmd) Run(a *app) error {
	return a.withStore(nil, func(ctx context.Context, s *userdb.Store) error {
		iter, err := s.StreamBatches(ctx, c.Size)
		if err != nil {
			return err
		}
		defer iter.Close()

		for {
			n, batch, err := iter.Next()
			if err != nil {
				if errors.Is(err, iterator.ErrIteratorDone) {
					return nil
				}

				return err
			}

			printUsers(fmt.Sprintf("Batch %d", n+1), batch)
		}
	})
}

// pagesCmd implements the `pages` command.
type pagesCmd struct {
	Size int `default:"2" help:"Page size."`
}

func (c *pagesCmd) Run(a *app) error {
	return a.withStore(nil, func(ctx context.Context, s *userdb.Store) error {
		iter, err := s.Pages(ctx, c.Size)
		if err != nil {
			return err
		}
		defer iter.Close()

		for {
			n, page, err := iter.Next()
			if err != nil {
				if errors.Is(err, iterator.ErrIteratorDone) {
					return nil
				}

				return err
			}

			printUsers(fmt.Sprintf("Page %d", n+1), page)
		}
	})
}

// agesCmd implements the `ages` command.
type agesCmd struct{}

func (*agesCmd) Run(a *app) error {
	return a.withStore(nil, func(ctx context.Context, s *userdb.Store) error {
		avg, err := s.AverageAge(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Average age of users: %.2f\n", avg)

		return nil
	})
}

// reposCmd implements the `repos` command.
type reposCmd struct {
	Org       string `default:"golang" help:"GitHub organization name."`
	License   string `default:""       help:"Filter repositories by license key."`
	CacheFile string `default:"tmp/githubcache/cache.json" help:"Shared cache file path."`
}

func (c *reposCmd) Run(a *app) error {
	client, err := github.NewClient(nil, "", c.CacheFile, a.l)
	if err != nil {
		return err
	}

	repos, err := client.PublicRepos(context.Background(), c.Org, c.License)
	if err != nil {
		return err
	}

	fmt.Printf("Public repos of %s (%d):\n", c.Org, len(repos))

	for _, name := range repos {
		fmt.Printf("  %s\n", name)
	}

	return nil
}
