// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics provides process-wide meters backed by a pluggable
// implementation. The default implementation is a no-op; callers opt in
// to Prometheus via InitializePrometheusMetrics.
package metrics

import "net/http"

var backend Backend = noop{}

// Backend creates meters by name. Implementations must return the same
// meter for repeated calls with the same name.
type Backend interface {
	CounterMeter(name string) Counter
	CounterVecMeter(name string, labels []string) CounterVec
	GaugeMeter(name string) Gauge
	GaugeVecMeter(name string, labels []string) GaugeVec
	HistogramMeter(name string, buckets []int64) Histogram
	Handler() http.Handler
}

// Counter is a monotonically increasing meter.
type Counter interface {
	Add(int64)
}

// CounterVec is a counter partitioned by labels.
type CounterVec interface {
	AddWithLabel(int64, map[string]string)
}

// Gauge is a meter whose value can go up and down.
type Gauge interface {
	Add(int64)
	Set(int64)
}

// GaugeVec is a gauge partitioned by labels.
type GaugeVec interface {
	AddWithLabel(int64, map[string]string)
	SetWithLabel(int64, map[string]string)
}

// Histogram aggregates reported measurements into buckets.
type Histogram interface {
	Observe(int64)
}

// BucketDuration10s suits millisecond durations up to ten seconds.
var BucketDuration10s = []int64{0, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10_000}

func CounterMeter(name string) Counter { return backend.CounterMeter(name) }

func CounterVecMeter(name string, labels []string) CounterVec {
	return backend.CounterVecMeter(name, labels)
}

func GaugeMeter(name string) Gauge { return backend.GaugeMeter(name) }

func GaugeVecMeter(name string, labels []string) GaugeVec {
	return backend.GaugeVecMeter(name, labels)
}

func HistogramMeter(name string, buckets []int64) Histogram {
	return backend.HistogramMeter(name, buckets)
}

// HTTPHandler returns the scrape handler of the active backend, or nil
// if the backend has none.
func HTTPHandler() http.Handler { return backend.Handler() }
