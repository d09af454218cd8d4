package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncRequestReceived(1)
	pr.IncRoundOutcome(1, OutcomeSuccess)
	pr.ObserveRoundDuration(1, 500*time.Millisecond)
	pr.ObservePublishDuration(150 * time.Millisecond)
	pr.IncNotifyResult(true)
	pr.IncNotifyResult(false)
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncRequestReceived(2)
	pr.IncRoundOutcome(2, OutcomeFailed)
	pr.ObserveRoundDuration(2, time.Second)
	pr.ObservePublishDuration(time.Second)
	pr.IncNotifyResult(false)
}

func TestNoopRecorderImplementsRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncRequestReceived(1)
	r.IncRoundOutcome(1, OutcomeDenied)
}
