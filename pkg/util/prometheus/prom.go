// Copyright 2025 Ant Group Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package prom

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const MetricsPath = "/metrics"

const ResponseStatusKey = "response_code"

var (
	defaultDuration = []float64{0.005, 0.05, 0.5, 5, 30}
	// scheduling decisions are expected to take micro to milliseconds
	scheduleDuration = []float64{1e-5, 1e-4, 1e-3, 1e-2, 1e-1, 1}
	once             sync.Once
	monitor          *Monitor
)

type Monitor struct {
	RequestTotal    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	DecisionTotal    *prometheus.CounterVec
	PhaseDuration    *prometheus.HistogramVec
	RejectionTotal   *prometheus.CounterVec
	SelectCacheTotal *prometheus.CounterVec
}

func GetMonitor() *Monitor {
	once.Do(initMonitor)
	return monitor
}

func (m *Monitor) Middleware(ctx *gin.Context) {
	if ctx.Request.URL.Path == MetricsPath {
		ctx.Next()
		return
	}
	startTime := time.Now()

	// execute normal process.
	ctx.Next()

	// after request
	r := ctx.Request
	code := strconv.Itoa(ctx.Writer.Status())
	status := ctx.GetString(ResponseStatusKey)

	m.RequestTotal.WithLabelValues(ctx.FullPath(), r.Method, code, status).Inc()

	latency := time.Since(startTime)
	m.RequestDuration.WithLabelValues(ctx.FullPath(), r.Method, code, status).Observe(latency.Seconds())
}

// ObserveDecision counts a finished dispatch; heuristic is "none" when
// selection failed.
func (m *Monitor) ObserveDecision(heuristic string, code string) {
	m.DecisionTotal.WithLabelValues(heuristic, code).Inc()
}

func (m *Monitor) ObservePhase(phase string, cost time.Duration) {
	m.PhaseDuration.WithLabelValues(phase).Observe(cost.Seconds())
}

func (m *Monitor) ObserveSelectCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.SelectCacheTotal.WithLabelValues(result).Inc()
}

func initMonitor() {
	monitor = &Monitor{}

	monitor.RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "all the server received request num.",
		},
		[]string{"uri", "method", "code", "status"})
	prometheus.MustRegister(monitor.RequestTotal)

	monitor.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "the time server took to handle the request.",
			Buckets: defaultDuration,
		},
		[]string{"uri", "method", "code", "status"})
	prometheus.MustRegister(monitor.RequestDuration)

	monitor.DecisionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuser_schedule_decision_total",
			Help: "scheduling decisions by chosen heuristic and status code.",
		},
		[]string{"heuristic", "code"})
	prometheus.MustRegister(monitor.DecisionTotal)

	monitor.PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fuser_schedule_phase_duration_seconds",
			Help:    "the time spent in each scheduling phase.",
			Buckets: scheduleDuration,
		},
		[]string{"phase"})
	prometheus.MustRegister(monitor.PhaseDuration)

	monitor.RejectionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuser_heuristic_rejection_total",
			Help: "rejections reported per heuristic.",
		},
		[]string{"heuristic"})
	prometheus.MustRegister(monitor.RejectionTotal)

	monitor.SelectCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuser_select_cache_total",
			Help: "compile-time selection cache lookups by result.",
		},
		[]string{"result"})
	prometheus.MustRegister(monitor.SelectCacheTotal)
}
