// Package telemetry holds the prometheus metrics and the tracer used by the
// simulation engine.
package telemetry

import (
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
	"go.opentelemetry.io/otel"
)

const namespace = "wallsim"

// Tracer is used for per-run and per-day spans. Without an SDK installed it
// is a no-op.
var Tracer = otel.Tracer("github.com/san-kum/wallsim/internal/sim")

var (
	// DaysTotal counts committed days by simulation mode.
	DaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "days_total",
		Help:      "Committed simulation days by mode",
	}, []string{"mode"})

	// UnitsTotal counts units of work by execution strategy and result.
	UnitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "units_total",
		Help:      "Units of work by strategy and result",
	}, []string{"strategy", "result"})

	// DayDuration tracks the time from dispatch to barrier.
	DayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "day_duration_seconds",
		Help:      "Time from day dispatch to day barrier",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 10),
	}, []string{"mode"})

	// RunsTotal counts finished runs by result.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Simulation runs by result",
	}, []string{"result"})

	// ActiveCrews is the number of working crews of the most recent day.
	ActiveCrews = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_crews",
		Help:      "Working crews in the most recently dispatched day",
	})
)

func ObserveDay(mode string, d time.Duration) {
	DaysTotal.WithLabelValues(mode).Inc()
	DayDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// WriteText writes the wallsim metric families in the prometheus text
// exposition format.
func WriteText(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), namespace+"_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
