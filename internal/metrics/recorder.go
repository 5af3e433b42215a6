// Package metrics defines observability hooks for the content pipeline.
package metrics

import "time"

// ResultLabel enumerates per-document outcome categories for counters.
type ResultLabel string

const (
	ResultParsed     ResultLabel = "parsed"
	ResultNotFound   ResultLabel = "not_found"
	ResultParseError ResultLabel = "parse_error"
)

// Recorder defines observability hooks for build and stage metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. The
// NoopRecorder is the default when metrics are not configured.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncDocumentResult(result ResultLabel)
	IncArtifactWritten(group string)
	IncArtifactWriteFailure(group string)
	IncBuildOutcome(outcome string) // outcome: success|warning|failed
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncDocumentResult(ResultLabel)              {}
func (NoopRecorder) IncArtifactWritten(string)                  {}
func (NoopRecorder) IncArtifactWriteFailure(string)             {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
