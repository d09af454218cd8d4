// Package metrics defines observability hooks for request handling and
// publication outcomes, with a Prometheus-backed implementation.
package metrics

import "time"

// OutcomeLabel enumerates terminal round outcomes for counters.
type OutcomeLabel string

const (
	OutcomeSuccess OutcomeLabel = "success"
	OutcomeFailed  OutcomeLabel = "failed"
	OutcomeDenied  OutcomeLabel = "denied"
)

// Recorder defines the metric hooks the orchestrator emits. Implementations
// may forward to Prometheus or elsewhere. All methods must tolerate nil
// receivers so injection stays optional.
type Recorder interface {
	IncRequestReceived(round int)
	IncRoundOutcome(round int, outcome OutcomeLabel)
	ObserveRoundDuration(round int, d time.Duration)
	ObservePublishDuration(d time.Duration)
	IncNotifyResult(success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) IncRequestReceived(int)                  {}
func (NoopRecorder) IncRoundOutcome(int, OutcomeLabel)       {}
func (NoopRecorder) ObserveRoundDuration(int, time.Duration) {}
func (NoopRecorder) ObservePublishDuration(time.Duration)    {}
func (NoopRecorder) IncNotifyResult(bool)                    {}
