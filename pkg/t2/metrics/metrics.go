/*
Copyright 2026 Boyle Software, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const component = "thymes2"

// Actor cache lookup outcomes.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheJoin   = "join"
	CacheBypass = "bypass"
	CacheError  = "error"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: component,
			Name:      "request_total",
			Help:      "Counter of dispatched endpoint calls broken out by HTTP method.",
		},
		[]string{"method"},
	)

	requestErrCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: component,
			Name:      "request_error_total",
			Help:      "Counter of endpoint call errors broken out by HTTP method and canonical error code.",
		},
		[]string{"method", "error_code"},
	)

	requestLatencies = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: component,
			Name:      "request_duration_seconds",
			Help:      "Endpoint call duration distribution broken out by HTTP method and response status.",
			Buckets: []float64{
				0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2,
				0.5, 1, 2, 5, 10, 30, 60,
			},
		},
		[]string{"method", "status"},
	)

	runningRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Subsystem: component,
			Name:      "running_requests",
			Help:      "Number of endpoint calls currently in flight.",
		},
	)

	actorCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: component,
			Name:      "actor_cache_lookup_total",
			Help:      "Counter of actor cache lookups broken out by outcome (hit, miss, join, bypass, error).",
		},
		[]string{"outcome"},
	)
)

var registerMetrics sync.Once

// Register registers all metrics with the default Prometheus registerer.
func Register() {
	registerMetrics.Do(func() {
		prometheus.MustRegister(requestCounter)
		prometheus.MustRegister(requestErrCounter)
		prometheus.MustRegister(requestLatencies)
		prometheus.MustRegister(runningRequests)
		prometheus.MustRegister(actorCacheLookups)
	})
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest counts one dispatched endpoint call.
func RecordRequest(method string) {
	requestCounter.WithLabelValues(method).Inc()
}

// RecordRequestErr counts one endpoint call that terminated with an error
// response, labeled with its canonical error code.
func RecordRequestErr(method, errorCode string) {
	requestErrCounter.WithLabelValues(method, errorCode).Inc()
}

// RecordRequestLatency observes one endpoint call's total duration.
func RecordRequestLatency(method, status string, elapsed time.Duration) {
	requestLatencies.WithLabelValues(method, status).Observe(elapsed.Seconds())
}

// IncRunningRequests increments the in-flight call gauge.
func IncRunningRequests() {
	runningRequests.Inc()
}

// DecRunningRequests decrements the in-flight call gauge.
func DecRunningRequests() {
	runningRequests.Dec()
}

// RecordActorCacheLookup counts one actor cache lookup by outcome.
func RecordActorCacheLookup(outcome string) {
	actorCacheLookups.WithLabelValues(outcome).Inc()
}
