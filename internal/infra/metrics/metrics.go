package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "commitdating_live_sessions",
		Help: "Number of users with a live realtime channel on this node",
	})

	PushResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commitdating_push_results_total",
		Help: "Realtime push attempts by outcome",
	}, []string{"outcome"})

	MatchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commitdating_matches_created_total",
		Help: "Matches created by mutual likes",
	})

	MessagesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commitdating_messages_recorded_total",
		Help: "Chat messages stored in the ledger",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
