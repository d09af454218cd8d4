package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	requests        *prom.CounterVec
	roundOutcomes   *prom.CounterVec
	roundDuration   *prom.HistogramVec
	publishDuration prom.Histogram
	notifyResults   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.requests = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "appforge",
			Name:      "requests_received_total",
			Help:      "Submissions received by round",
		}, []string{"round"})
		pr.roundOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "appforge",
			Name:      "round_outcomes_total",
			Help:      "Round outcomes by final status",
		}, []string{"round", "outcome"})
		pr.roundDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "appforge",
			Name:      "round_duration_seconds",
			Help:      "End-to-end duration of a round",
			Buckets:   prom.DefBuckets,
		}, []string{"round"})
		pr.publishDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "appforge",
			Name:      "publish_duration_seconds",
			Help:      "Duration of git publish operations",
			Buckets:   prom.DefBuckets,
		})
		pr.notifyResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "appforge",
			Name:      "notify_results_total",
			Help:      "Evaluator notification results by success/failure",
		}, []string{"result"})
		reg.MustRegister(pr.requests, pr.roundOutcomes, pr.roundDuration, pr.publishDuration, pr.notifyResults)
	})
	return pr
}

func (p *PrometheusRecorder) IncRequestReceived(round int) {
	if p == nil || p.requests == nil {
		return
	}
	p.requests.WithLabelValues(strconv.Itoa(round)).Inc()
}

func (p *PrometheusRecorder) IncRoundOutcome(round int, outcome OutcomeLabel) {
	if p == nil || p.roundOutcomes == nil {
		return
	}
	p.roundOutcomes.WithLabelValues(strconv.Itoa(round), string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveRoundDuration(round int, d time.Duration) {
	if p == nil || p.roundDuration == nil {
		return
	}
	p.roundDuration.WithLabelValues(strconv.Itoa(round)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePublishDuration(d time.Duration) {
	if p == nil || p.publishDuration == nil {
		return
	}
	p.publishDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncNotifyResult(success bool) {
	if p == nil || p.notifyResults == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.notifyResults.WithLabelValues(res).Inc()
}

// HTTPHandler returns an http.Handler serving Prometheus metrics for the
// provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
