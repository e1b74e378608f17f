// Package metrics holds the prometheus collectors of a climacomp run.
package metrics

import (
	"time"

	"github.com/huangsam/climacomp/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every climacomp collector and nothing else, so a textfile
// export carries no Go runtime series.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	StationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climacomp_stations_total",
			Help: "Stations processed, by command and outcome",
		},
		[]string{"command", "status"},
	)

	StationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "climacomp_station_duration_seconds",
			Help:    "Time spent on one station",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	NullRecords = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climacomp_null_records_total",
			Help: "Aligned records with a null D or I mean",
		},
		[]string{"lag"},
	)

	GatedCells = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "climacomp_gated_cells_total",
			Help: "Contingency cells excluded by significance gating",
		},
	)

	CacheLookups = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climacomp_cache_lookups_total",
			Help: "Series cache lookups, by result",
		},
		[]string{"result"},
	)
)

// ObserveStation records the outcome and duration of one station.
func ObserveStation(command string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	StationsTotal.WithLabelValues(command, status).Inc()
	StationDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

// CountNullRecords adds the null records of every lag in series.
func CountNullRecords(series schema.LagSeries) {
	for _, l := range schema.AllLags {
		n := 0
		for _, r := range series[l] {
			if !r.MeanD.Valid || !r.MeanI.Valid {
				n++
			}
		}
		if n > 0 {
			NullRecords.WithLabelValues(l.String()).Add(float64(n))
		}
	}
}

// CacheResult records a cache hit or miss.
func CacheResult(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
