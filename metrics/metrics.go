// Package metrics provides Prometheus metrics for the player and catalog
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VideosPlayedTotal counts playVideo commands by cause (user, autoplay, deeplink)
	VideosPlayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dinoplay_videos_played_total",
		Help: "Total number of videos bound to the player, by cause.",
	}, []string{"cause"})

	// AutoplayTotal counts countdown outcomes (advanced, cancelled, reset)
	AutoplayTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dinoplay_autoplay_total",
		Help: "Total number of autoplay countdown outcomes, by outcome.",
	}, []string{"outcome"})

	// ModeTransitionsTotal counts presentation mode changes by target mode
	ModeTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dinoplay_mode_transitions_total",
		Help: "Total number of presentation mode transitions, by target mode.",
	}, []string{"to"})

	// CatalogRequestsTotal counts catalog lookups by operation and source (api, fallback)
	CatalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dinoplay_catalog_requests_total",
		Help: "Total number of catalog requests, by operation and source.",
	}, []string{"op", "source"})

	// StaleResultsTotal counts fetch results discarded because a newer request superseded them
	StaleResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dinoplay_stale_results_total",
		Help: "Total number of discarded stale fetch results, by consumer.",
	}, []string{"consumer"})

	// EventClients tracks connected snapshot feed clients
	EventClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dinoplay_event_clients",
		Help: "Current number of connected snapshot feed clients.",
	})
)
