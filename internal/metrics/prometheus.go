package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MeasurementsIngested counts accepted readings per measurement type.
	MeasurementsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "track_measurements_ingested_total",
			Help: "Total number of measurements accepted by the ingestion pipeline",
		},
		[]string{"type"},
	)

	// MeasurementsRejected counts readings rejected by validation.
	MeasurementsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "track_measurements_rejected_total",
			Help: "Total number of measurements rejected by validation",
		},
	)

	// DefectsDetected counts defect events by type and severity.
	DefectsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "track_defects_detected_total",
			Help: "Total number of defects produced by the threshold evaluator",
		},
		[]string{"defect_type", "severity"},
	)

	// PersistFailures counts storage writes that failed (broadcast still happens).
	PersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "track_persist_failures_total",
			Help: "Total number of failed persistence attempts",
		},
	)

	// WSConnections tracks currently connected observers.
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "track_ws_connections",
			Help: "Number of live WebSocket observer connections",
		},
	)

	// BroadcastsTotal counts published events per category.
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "track_broadcasts_total",
			Help: "Total number of events published to the broadcast hub",
		},
		[]string{"category"},
	)

	// WSSendFailures counts per-connection delivery failures.
	WSSendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "track_ws_send_failures_total",
			Help: "Total number of failed deliveries to observer connections",
		},
	)
)
