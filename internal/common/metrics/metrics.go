package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_generation_requests_total",
			Help: "Total number of generation requests received",
		},
		[]string{"status"},
	)

	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_provider_attempts_total",
			Help: "Total number of provider calls by outcome",
		},
		[]string{"channel", "provider", "outcome"},
	)

	ChannelDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studio_channel_duration_seconds",
			Help:    "Wall time spent resolving a channel, fallback included",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 15, 30, 60, 120},
		},
		[]string{"channel"},
	)

	FallbackDepth = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studio_fallback_depth",
			Help:    "Number of providers tried before a channel resolved",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
		[]string{"channel"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_cache_hits_total",
			Help: "Result cache hits and misses by channel",
		},
		[]string{"channel", "result"},
	)
)
