package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/codevault/worker/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsNamespace = "codevault_worker"
)

var (
	// 10ms -> 30s
	requestBuckets = []float64{
		0.010, 0.025, 0.050, 0.1, 0.25, 0.5, 0.75, 1.0, 1.5, 2, 3, 5, 10, 20, 30,
	}

	executionCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "executions_total",
		Help:      "Number of executions sent to a backend, by backend and resulting status",
	}, []string{"backend", "status"})

	executionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "execution_duration_seconds",
		Help:      "Wall clock duration of a backend execution including polling",
		Buckets:   requestBuckets,
	}, []string{"backend"})

	pollAttempts = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "poll_attempts",
		Help:      "Number of polls needed before a terminal status was observed",
		Buckets:   prometheus.LinearBuckets(1, 1, 20),
	})

	testCaseCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "test_cases_total",
		Help:      "Number of evaluated test cases, by language and verdict",
	}, []string{"language", "verdict"})

	messageCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "queue_messages_total",
		Help:      "Number of queue messages consumed, by type",
	}, []string{"type"})

	busyWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "busy_workers",
		Help:      "Number of workers currently processing a message",
	})
)

func init() {
	prometheus.MustRegister(executionCount, executionDuration, pollAttempts)
	prometheus.MustRegister(testCaseCount, messageCount, busyWorkers)
}

func ObserveExecution(backend, status string, d time.Duration) {
	executionCount.WithLabelValues(backend, status).Inc()
	executionDuration.WithLabelValues(backend).Observe(d.Seconds())
}

func ObservePollAttempts(n int) {
	pollAttempts.Observe(float64(n))
}

func ObserveTestCase(language string, passed bool) {
	verdict := "failed"
	if passed {
		verdict = "passed"
	}
	testCaseCount.WithLabelValues(language, verdict).Inc()
}

func ObserveMessage(messageType string) {
	messageCount.WithLabelValues(messageType).Inc()
}

func SetBusyWorkers(n int) {
	busyWorkers.Set(float64(n))
}

// Serve exposes the default registry on addr until ctx is done. An empty addr
// disables the listener.
func Serve(ctx context.Context, addr string) {
	logger := logger.NewNamedLogger("metrics")
	if addr == "" {
		logger.Info("Metrics listener disabled")
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Failed to shut down metrics listener: %s", err)
		}
	}()

	logger.Infof("Serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("Metrics listener stopped: %s", err)
	}
}
