// Copyright © 2023 Meroxa, Inc. & Yalantis
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

// Package stats collects write statistics reported by the sync engine.
// A [Collector] is passed explicitly to whatever reports, there is no process-wide client.
package stats

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector receives counter increments.
type Collector interface {
	Incr(name string, delta int64)
}

// Discard is a [Collector] that drops every increment.
var Discard Collector = discard{}

type discard struct{}

func (discard) Incr(string, int64) {}

// WithPrefix returns a [Collector] that reports to c with every name prefixed,
// e.g.: "node.AWSUser." + "nodes_created".
func WithPrefix(c Collector, prefix string) Collector {
	if c == nil {
		return Discard
	}

	return prefixed{collector: c, prefix: prefix}
}

type prefixed struct {
	collector Collector
	prefix    string
}

func (p prefixed) Incr(name string, delta int64) {
	p.collector.Incr(p.prefix+name, delta)
}

const (
	namespace = "graphsync"
	labelName = "name"
)

// Counter is a [Collector] backed by a Prometheus counter vector with one series per name.
// It is safe for concurrent use. Negative deltas are dropped, counters only go up.
type Counter struct {
	registry *prometheus.Registry
	counters *prometheus.CounterVec
}

// NewCounter creates a [Counter] registered on its own registry.
func NewCounter() *Counter {
	counters := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "writes_total",
		Help:      "Graph store write statistics reported by the sync engine.",
	}, []string{labelName})

	registry := prometheus.NewRegistry()
	registry.MustRegister(counters)

	return &Counter{registry: registry, counters: counters}
}

// Incr adds delta to the named counter.
func (c *Counter) Incr(name string, delta int64) {
	if delta < 0 {
		return
	}

	c.counters.WithLabelValues(name).Add(float64(delta))
}

// Gatherer returns the registry holding the counters, e.g. to serve or push them.
func (c *Counter) Gatherer() prometheus.Gatherer {
	return c.registry
}

// Get returns the value of the named counter.
func (c *Counter) Get(name string) int64 {
	return c.Snapshot()[name]
}

// Snapshot returns the current value of every counter.
func (c *Counter) Snapshot() map[string]int64 {
	snapshot := make(map[string]int64)

	families, err := c.registry.Gather()
	if err != nil {
		return snapshot
	}

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == labelName {
					snapshot[label.GetValue()] = int64(metric.GetCounter().GetValue())
				}
			}
		}
	}

	return snapshot
}

// Names returns the counter names, sorted.
func (c *Counter) Names() []string {
	snapshot := c.Snapshot()

	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
