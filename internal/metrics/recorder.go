package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ai-docsearch-be/pkg/rag/executor"
	"ai-docsearch-be/pkg/rag/router"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ executor.Observer = (*Recorder)(nil)

// Recorder exports stage and turn metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	stageTotal        *prometheus.CounterVec
	stageDuration     *prometheus.HistogramVec
	turnsTotal        *prometheus.CounterVec
	retrievalsPerTurn prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rag_stage_total",
				Help: "Total number of pipeline stage executions",
			},
			[]string{"stage", "outcome"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rag_stage_duration_seconds",
				Help:    "Duration of pipeline stages",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		turnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rag_turns_total",
				Help: "Total number of answered or failed turns",
			},
			[]string{"outcome"},
		),
		retrievalsPerTurn: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rag_retrievals_per_turn",
				Help:    "Retrieval passes used to answer one question",
				Buckets: []float64{0, 1, 2, 3, 4, 5, 10},
			},
		),
	}

	r.registry.MustRegister(r.stageTotal, r.stageDuration, r.turnsTotal, r.retrievalsPerTurn)
	return r
}

func (r *Recorder) ObserveStage(stage router.Stage, elapsed time.Duration, err error) {
	r.stageTotal.WithLabelValues(stage.String(), outcome(err)).Inc()
	r.stageDuration.WithLabelValues(stage.String()).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveTurn(retrievals int, elapsed time.Duration, err error) {
	r.turnsTotal.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		r.retrievalsPerTurn.Observe(float64(retrievals))
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
