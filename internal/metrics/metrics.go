// Package metrics exposes Prometheus counters for the feed pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BytesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gnssfeed_bytes_read_total",
		Help: "Total bytes read from the NMEA source",
	})
	CleanSentences = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gnssfeed_sentences_clean_total",
		Help: "Sentences received with a valid checksum",
	})
	DecodedSentences = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gnssfeed_sentences_decoded_total",
		Help: "Sentences successfully decoded into fix state",
	})
	ChecksumFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gnssfeed_checksum_failures_total",
		Help: "Sentences dropped on checksum mismatch",
	})
	ForwardErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gnssfeed_forward_errors_total",
		Help: "Errors re-emitting sentences to the UDP destination",
	})
	MQTTPublishes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gnssfeed_mqtt_publishes_total",
		Help: "Fix snapshots published to MQTT",
	})
	MQTTPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gnssfeed_mqtt_publish_errors_total",
		Help: "Failed MQTT publish attempts",
	})
	PPSPulses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gnssfeed_pps_pulses_total",
		Help: "PPS pulses observed on the GPIO line",
	})
)
