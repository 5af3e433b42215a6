package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	registry        *prom.Registry
	stageDuration   *prom.HistogramVec
	buildDuration   prom.Histogram
	documentResults *prom.CounterVec
	artifactsOK     *prom.CounterVec
	artifactsFailed *prom.CounterVec
	buildOutcome    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "contentsync",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "contentsync",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.documentResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "contentsync",
			Name:      "document_results_total",
			Help:      "Source document load outcomes",
		}, []string{"result"})
		pr.artifactsOK = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "contentsync",
			Name:      "artifacts_written_total",
			Help:      "Artifacts written by collection group",
		}, []string{"group"})
		pr.artifactsFailed = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "contentsync",
			Name:      "artifact_write_failures_total",
			Help:      "Artifact write failures by collection group",
		}, []string{"group"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "contentsync",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.documentResults, pr.artifactsOK, pr.artifactsFailed, pr.buildOutcome)
	})
	return pr
}

func (pr *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	pr.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	pr.buildDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncDocumentResult(result ResultLabel) {
	pr.documentResults.WithLabelValues(string(result)).Inc()
}

func (pr *PrometheusRecorder) IncArtifactWritten(group string) {
	pr.artifactsOK.WithLabelValues(group).Inc()
}

func (pr *PrometheusRecorder) IncArtifactWriteFailure(group string) {
	pr.artifactsFailed.WithLabelValues(group).Inc()
}

func (pr *PrometheusRecorder) IncBuildOutcome(outcome string) {
	pr.buildOutcome.WithLabelValues(outcome).Inc()
}

// Handler returns an HTTP handler exposing the recorder's registry.
func (pr *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(pr.registry, promhttp.HandlerOpts{})
}
