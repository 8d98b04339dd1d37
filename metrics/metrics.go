// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics exposes lazily-bound meters. All meters are no-ops
// until InitializePrometheusMetrics is called, so importing packages
// can instrument unconditionally.
package metrics

import (
	"net/http"
)

const namespace = "alephium_metrics"

// metrics is the singleton meter factory, noop by default.
var metrics Metrics = defaultNoopMetrics()

// Metrics defines the interface of the meter factory.
type Metrics interface {
	GetOrCreateCountMeter(name string) CountMeter
	GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter
	GetOrCreateGaugeMeter(name string) GaugeMeter
	GetOrCreateGaugeVecMeter(name string, labels []string) GaugeVecMeter
	GetOrCreateHistogramMeter(name string, buckets []int64) HistogramMeter
	GetOrCreateHistogramVecMeter(name string, labels []string, buckets []int64) HistogramVecMeter
	GetOrCreateHandler() http.Handler
}

// HistogramMeter represents the type of metric that is calculated by aggregating
// as a Histogram of all reported measurements over a time interval.
type HistogramMeter interface {
	Observe(int64)
}

// Histogram returns a histogram meter with the given name.
func Histogram(name string, buckets []int64) HistogramMeter {
	return metrics.GetOrCreateHistogramMeter(name, buckets)
}

// HistogramVecMeter is a histogram meter with labels.
type HistogramVecMeter interface {
	ObserveWithLabels(int64, map[string]string)
}

// HistogramVec returns a labeled histogram meter with the given name.
func HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return metrics.GetOrCreateHistogramVecMeter(name, labels, buckets)
}

// CountMeter is a cumulative metric that represents a single monotonically increasing counter.
type CountMeter interface {
	Add(int64)
}

// Counter returns a count meter with the given name.
func Counter(name string) CountMeter {
	return metrics.GetOrCreateCountMeter(name)
}

// CountVecMeter is a count meter with labels.
type CountVecMeter interface {
	AddWithLabel(int64, map[string]string)
}

// CounterVec returns a labeled count meter with the given name.
func CounterVec(name string, labels []string) CountVecMeter {
	return metrics.GetOrCreateCountVecMeter(name, labels)
}

// GaugeMeter is a metric that represents a single value that can go up and down.
type GaugeMeter interface {
	Add(int64)
	Set(int64)
}

// Gauge returns a gauge meter with the given name.
func Gauge(name string) GaugeMeter {
	return metrics.GetOrCreateGaugeMeter(name)
}

// GaugeVecMeter is a gauge meter with labels.
type GaugeVecMeter interface {
	AddWithLabel(int64, map[string]string)
	SetWithLabel(int64, map[string]string)
}

// GaugeVec returns a labeled gauge meter with the given name.
func GaugeVec(name string, labels []string) GaugeVecMeter {
	return metrics.GetOrCreateGaugeVecMeter(name, labels)
}

// HTTPHandler returns the handler exposing the gathered metrics.
func HTTPHandler() http.Handler {
	return metrics.GetOrCreateHandler()
}

// LazyLoad allows to defer the instantiation of the metric while allowing its definition. More clearly:
// - it allow metrics to be defined and used package wide (using var)
// - lazy loading allows the usage of those metrics only when the library is initialized
func LazyLoad[T any](f func() T) func() T {
	var result T
	var loaded bool
	return func() T {
		if !loaded {
			result = f()
			loaded = true
		}
		return result
	}
}

// LazyLoadHistogram defers the creation of the histogram meter until first use.
func LazyLoadHistogram(name string, buckets []int64) func() HistogramMeter {
	return LazyLoad(func() HistogramMeter { return Histogram(name, buckets) })
}

// LazyLoadHistogramVec defers the creation of the labeled histogram meter until first use.
func LazyLoadHistogramVec(name string, labels []string, buckets []int64) func() HistogramVecMeter {
	return LazyLoad(func() HistogramVecMeter { return HistogramVec(name, labels, buckets) })
}

// LazyLoadCounter defers the creation of the count meter until first use.
func LazyLoadCounter(name string) func() CountMeter {
	return LazyLoad(func() CountMeter { return Counter(name) })
}

// LazyLoadCounterVec defers the creation of the labeled count meter until first use.
func LazyLoadCounterVec(name string, labels []string) func() CountVecMeter {
	return LazyLoad(func() CountVecMeter { return CounterVec(name, labels) })
}

// LazyLoadGauge defers the creation of the gauge meter until first use.
func LazyLoadGauge(name string) func() GaugeMeter {
	return LazyLoad(func() GaugeMeter { return Gauge(name) })
}

// LazyLoadGaugeVec defers the creation of the labeled gauge meter until first use.
func LazyLoadGaugeVec(name string, labels []string) func() GaugeVecMeter {
	return LazyLoad(func() GaugeVecMeter { return GaugeVec(name, labels) })
}

// InitializePrometheusMetrics creates a new instance of the Prometheus service and
// sets the implementation as the default metrics services
func InitializePrometheusMetrics() {
	// don't allow for reset
	if _, ok := metrics.(*prometheusMetrics); !ok {
		metrics = newPrometheusMetrics()
	}
}
