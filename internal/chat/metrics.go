package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn results recorded in TurnsTotal.
const (
	resultOK              = "ok"
	resultNoop            = "noop"
	resultNotFound        = "not_found"
	resultInvalid         = "invalid"
	resultCompletionError = "completion_error"
	resultStorageError    = "storage_error"
)

var (
	// TurnsTotal counts conversation turns.
	// Labels: result (ok, noop, not_found, invalid, completion_error, storage_error)
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "projectchat",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total number of conversation turns by result",
		},
		[]string{"result"},
	)

	// TurnDuration tracks end-to-end turn latency, completion call included.
	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "projectchat",
			Subsystem: "chat",
			Name:      "turn_duration_seconds",
			Help:      "Duration of conversation turns in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// FallbackRepliesTotal counts turns answered with the fallback text.
	FallbackRepliesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "projectchat",
			Subsystem: "chat",
			Name:      "fallback_replies_total",
			Help:      "Total number of turns where the completion service returned no content",
		},
	)

	// FlushesTotal counts transcript flushes.
	// Labels: result (ok, noop, not_found, invalid, error)
	FlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "projectchat",
			Subsystem: "chat",
			Name:      "flushes_total",
			Help:      "Total number of transcript flushes by result",
		},
		[]string{"result"},
	)
)
