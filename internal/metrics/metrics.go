// Package metrics exposes translation counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives events from a translation run.
type Recorder interface {
	// BackendRequest is called once per backend call with the size of the
	// request, its duration and its error, if any.
	BackendRequest(backend string, chars int, d time.Duration, err error)
	// Bisection is called every time a chunk is split for repair.
	Bisection()
	// Leaves is called once per chunk with the number of leaves written back
	// and the number left in the source language.
	Leaves(translated, untranslated int)
}

// Nop discards everything.
type Nop struct{}

func (Nop) BackendRequest(string, int, time.Duration, error) {}
func (Nop) Bisection()                                       {}
func (Nop) Leaves(int, int)                                  {}

// Prometheus implements Recorder with collectors registered on a registry.
type Prometheus struct {
	requests   *prometheus.CounterVec
	chars      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	bisections prometheus.Counter
	leaves     *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them on reg. A nil reg
// means the default registerer.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &Prometheus{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "translatex_backend_requests_total",
				Help: "Total number of backend translation requests",
			},
			[]string{"backend", "status"},
		),
		chars: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "translatex_backend_chars_total",
				Help: "Characters sent to translation backends",
			},
			[]string{"backend"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "translatex_backend_request_duration_seconds",
				Help:    "Duration of backend translation requests",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"backend"},
		),
		bisections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "translatex_bisections_total",
			Help: "Chunks split after a marker alignment mismatch",
		}),
		leaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "translatex_leaves_total",
				Help: "Character runs processed, by outcome",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(p.requests, p.chars, p.duration, p.bisections, p.leaves)
	return p
}

func (p *Prometheus) BackendRequest(backend string, chars int, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.requests.WithLabelValues(backend, status).Inc()
	p.chars.WithLabelValues(backend).Add(float64(chars))
	p.duration.WithLabelValues(backend).Observe(d.Seconds())
}

func (p *Prometheus) Bisection() {
	p.bisections.Inc()
}

func (p *Prometheus) Leaves(translated, untranslated int) {
	p.leaves.WithLabelValues("translated").Add(float64(translated))
	p.leaves.WithLabelValues("untranslated").Add(float64(untranslated))
}
