// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PacketsTotal counts datagrams received by the collector, by
	// packet type ("signaling"/"audio") and direction ("RX"/"TX").
	PacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkstream_collector_packets_total",
			Help: "Total number of protocol packets received",
		},
		[]string{"type", "direction"},
	)

	// AudioBytesTotal counts raw mirrored media bytes by direction.
	AudioBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkstream_collector_audio_bytes_total",
			Help: "Total number of raw media payload bytes received",
		},
		[]string{"direction"},
	)

	// DecodeErrorsTotal counts datagrams the wire decoder rejected.
	DecodeErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forkstream_collector_decode_errors_total",
			Help: "Total number of malformed datagrams dropped",
		},
	)

	// SequenceGapsTotal counts missing audio sequence numbers, a proxy
	// for packets lost between tap and collector.
	SequenceGapsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkstream_collector_sequence_gaps_total",
			Help: "Total number of audio packets missing from sequence",
		},
		[]string{"direction"},
	)

	// ActiveStreams tracks streams currently known to the collector.
	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forkstream_collector_active_streams",
			Help: "Number of streams currently tracked",
		},
	)

	// SinkErrorsTotal counts packets a sink failed to consume.
	SinkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkstream_collector_sink_errors_total",
			Help: "Total number of sink write failures",
		},
		[]string{"sink"},
	)
)
