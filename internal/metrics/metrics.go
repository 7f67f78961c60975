package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the ingest path and the
// spot store.
type Metrics struct {
	MessagesSeen  prometheus.Counter
	SpotsIngested prometheus.Counter
	Dropped       *prometheus.CounterVec // label: reason
	StoreSize     prometheus.Gauge
	SpotsPruned   prometheus.Counter
	BrokerUp      prometheus.Gauge
	DecodeLatency prometheus.Histogram
}

// New creates and registers all instruments with the given registerer; nil
// uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		MessagesSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pskprop",
			Name:      "messages_seen_total",
			Help:      "Total messages received from the spot feed.",
		}),
		SpotsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pskprop",
			Name:      "spots_ingested_total",
			Help:      "Total spot records upserted into the store.",
		}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pskprop",
			Name:      "messages_dropped_total",
			Help:      "Feed messages dropped during decode, by reason.",
		}, []string{"reason"}),
		StoreSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pskprop",
			Name:      "store_spots",
			Help:      "Spots currently held in the live store.",
		}),
		SpotsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pskprop",
			Name:      "spots_pruned_total",
			Help:      "Spots evicted by the age sweeper.",
		}),
		BrokerUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pskprop",
			Name:      "broker_connected",
			Help:      "1 when the broker link is up, 0 while degraded.",
		}),
		DecodeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pskprop",
			Name:      "decode_duration_seconds",
			Help:      "Duration of decode plus store upsert per message.",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}),
	}

	reg.MustRegister(
		m.MessagesSeen,
		m.SpotsIngested,
		m.Dropped,
		m.StoreSize,
		m.SpotsPruned,
		m.BrokerUp,
		m.DecodeLatency,
	)
	return m
}
