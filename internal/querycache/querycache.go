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

// Package querycache provides an explicit query-result cache.
//
// The cache is injected into the store rather than being process-wide state,
// so callers can swap or disable it.
// Entries are never evicted.
// The cache is not safe for concurrent use.
package querycache

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Parts of Prometheus metric names.
const (
	namespace = "userdb"
	subsystem = "querycache"
)

// Cache maps query keys to previously fetched results.
type Cache struct {
	l       *zap.Logger
	entries map[string]any
	hits    int
	misses  int
}

// New creates a new empty cache.
func New(l *zap.Logger) *Cache {
	return &Cache{
		l:       l.Named("querycache"),
		entries: map[string]any{},
	}
}

// Key builds the cache key for a query and its arguments.
func Key(query string, args ...any) string {
	b := new(strings.Builder)
	b.WriteString(query)

	for _, arg := range args {
		fmt.Fprintf(b, "|%v", arg)
	}

	return b.String()
}

// Get returns the cached result for the given key.
func (c *Cache) Get(key string) (any, bool) {
	res, ok := c.entries[key]
	if ok {
		c.hits++
		c.l.Debug("Cache hit.", zap.String("key", key))
	} else {
		c.misses++
		c.l.Debug("Cache miss.", zap.String("key", key))
	}

	return res, ok
}

// Set stores the result for the given key, replacing any previous entry.
func (c *Cache) Set(key string, res any) {
	c.entries[key] = res
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Describe implements prometheus.Collector.
func (c *Cache) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

// Collect implements prometheus.Collector.
func (c *Cache) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(
		prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "entries"),
			"The current number of cached query results.",
			nil, nil,
		),
		prometheus.GaugeValue,
		float64(len(c.entries)),
	)

	ch <- prometheus.MustNewConstMetric(
		prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "hits_total"),
			"The total number of cache hits.",
			nil, nil,
		),
		prometheus.CounterValue,
		float64(c.hits),
	)

	ch <- prometheus.MustNewConstMetric(
		prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "misses_total"),
			"The total number of cache misses.",
			nil, nil,
		),
		prometheus.CounterValue,
		float64(c.misses),
	)
}

// check interfaces
var (
	_ prometheus.Collector = (*Cache)(nil)
)
