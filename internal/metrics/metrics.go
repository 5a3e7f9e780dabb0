package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters
var (
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleartone_commands_total",
		Help: "Dispatched commands by command name and outcome",
	}, []string{"command", "outcome"})
	SamplesGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cleartone_samples_generated_total",
		Help: "Stereo frames synthesized for tone playback",
	})
	TransportErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleartone_transport_errors_total",
		Help: "Malformed or undeliverable transport messages",
	}, []string{"transport"})
)

// Histograms
var (
	CommandLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cleartone_command_duration_ms",
		Help:    "Command dispatch duration in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 1000},
	}, []string{"command"})
)
