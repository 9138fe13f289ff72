// Package metrics exposes Prometheus collectors for the protocol layer
// and the engine client. Everything is registered on the default
// registry and served via promhttp when METRICS_PORT is configured.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts completed conversation turns.
	TurnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "harmony",
		Name:      "turns_total",
		Help:      "Total number of completed conversation turns",
	})

	// SegmentsParsed counts segments recovered from model output, by channel.
	// The channel label is "none" for segments without a channel sentinel.
	SegmentsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harmony",
		Name:      "segments_parsed_total",
		Help:      "Total number of Harmony segments parsed from model output",
	}, []string{"channel"})

	// ReplyFallbacks counts turns where no final-channel segment was found
	// and the raw text was used as the reply.
	ReplyFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "harmony",
		Name:      "reply_fallback_total",
		Help:      "Turns that fell back to raw output because no final segment was parsed",
	})

	// EngineRequests counts inference requests by outcome.
	EngineRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "engine",
		Name:      "requests_total",
		Help:      "Total number of inference engine requests",
	}, []string{"status"})

	// EngineRequestDuration observes inference round-trip latency.
	EngineRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "engine",
		Name:      "request_duration_seconds",
		Help:      "Inference engine request duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

// ChannelLabel maps an optional segment channel onto a metric label.
func ChannelLabel(channel *string) string {
	if channel == nil {
		return "none"
	}
	if *channel == "" {
		return "empty"
	}
	return *channel
}

// ObserveSegments records per-channel counts for one parsed completion.
func ObserveSegments(channels []*string) {
	for _, ch := range channels {
		SegmentsParsed.WithLabelValues(ChannelLabel(ch)).Inc()
	}
}
