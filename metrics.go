package main

import (
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	activeRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "remainder",
		Name:      "rooms_active",
		Help:      "Number of rooms currently held in memory",
	})

	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "remainder",
		Name:      "connections_active",
		Help:      "Number of open websocket connections",
	})

	roundsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "remainder",
		Name:      "rounds_started_total",
		Help:      "Total number of rounds started",
	})

	roundsRevealed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remainder",
		Name:      "rounds_revealed_total",
		Help:      "Total number of rounds revealed",
	}, []string{"forced"})

	kicks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "remainder",
		Name:      "kicks_total",
		Help:      "Total number of participants kicked by a host",
	})

	messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remainder",
		Name:      "messages_received_total",
		Help:      "Inbound client messages by event type",
	}, []string{"type"})

	messagesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remainder",
		Name:      "messages_rejected_total",
		Help:      "Inbound client messages answered with an error, by event type",
	}, []string{"type"})
)

func registerMetrics(cfg *Config, mux *httprouter.Router) {
	mux.Handler("GET", cfg.prefix+"/metrics", promhttp.Handler())
}
