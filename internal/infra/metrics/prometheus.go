package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "converter_conversions_total",
		Help: "Total number of conversions finished, by outcome",
	}, []string{"outcome"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "converter_stage_duration_seconds",
		Help:    "Duration of each conversion pipeline stage",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	InvalidMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "converter_invalid_messages_total",
		Help: "Messages discarded because their body failed validation",
	})

	MessagesReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "converter_messages_received_total",
		Help: "Messages received from the work queue",
	})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "converter_frames_extracted_total",
		Help: "Total number of frames extracted across all conversions",
	})

	ActiveConversions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "converter_active_conversions",
		Help: "Number of conversions currently in flight",
	})

	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "converter_notification_failures_total",
		Help: "Status notifications that could not be delivered, by status",
	}, []string{"status"})
)
