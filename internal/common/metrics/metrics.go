// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChannelSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_channel_sends_total",
			Help: "Total per-channel delivery attempts by outcome",
		},
		[]string{"kind", "channel", "status"},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "notification_dispatch_duration_seconds",
			Help: "Duration of a full dispatch (all channels settled) in seconds",
		},
		[]string{"kind"},
	)

	InAppUnreadReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_unread_count_reads_total",
			Help: "Unread count reads by cache outcome",
		},
		[]string{"source"},
	)
)
