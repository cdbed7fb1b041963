// Package metrics exposes Prometheus counters for the file service.
package metrics

import (
	"net/http"
	"time"

	cs "github.com/AnishMulay/sizefs/internal/content_service"
	"github.com/AnishMulay/sizefs/internal/log_service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sizefs"

const (
	opLabelKey     = "op"
	resultLabelKey = "result"
)

// Metrics is safe to use through a nil pointer, in which case nothing is
// recorded.
type Metrics struct {
	registry *prometheus.Registry

	operations   *prometheus.CounterVec
	opDuration   *prometheus.HistogramVec
	bytesRead    prometheus.Counter
	filesCreated prometheus.Counter
	sizeWarnings prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "file_service",
			Name:      "operations_total",
			Help:      "File service operations by type and result",
		}, []string{opLabelKey, resultLabelKey}),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "file_service",
			Name:      "operation_duration_seconds",
			Help:      "File service operation handling time",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{opLabelKey}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "content",
			Name:      "bytes_read_total",
			Help:      "Generated bytes returned to readers",
		}),
		filesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "files_created_total",
			Help:      "Generated files created",
		}),
		sizeWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "content",
			Name:      "size_insufficient_total",
			Help:      "Plans whose size could not hold their patterns",
		}),
	}

	m.registry.MustRegister(
		m.operations,
		m.opDuration,
		m.bytesRead,
		m.filesCreated,
		m.sizeWarnings,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveOp records one operation that started at start.
func (m *Metrics) ObserveOp(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
	m.opDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) AddBytesRead(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesRead.Add(float64(n))
}

func (m *Metrics) IncFilesCreated() {
	if m == nil {
		return
	}
	m.filesCreated.Inc()
}

type warnCounter struct {
	log_service.LogService
	m *Metrics
}

func (w warnCounter) Warn(event log_service.LogEvent) {
	if event.Message == cs.SizeInsufficientWarning {
		w.m.sizeWarnings.Inc()
	}
	w.LogService.Warn(event)
}

// CountWarnings wraps ls so that size warnings are also counted.
func (m *Metrics) CountWarnings(ls log_service.LogService) log_service.LogService {
	if m == nil {
		return ls
	}
	return warnCounter{LogService: ls, m: m}
}
