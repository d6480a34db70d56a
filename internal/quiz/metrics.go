package quiz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quiz",
		Name:      "sessions_started_total",
		Help:      "Quiz sessions started, by whether they replaced a running one.",
	}, []string{"replaced"})
	sessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiz",
		Name:      "sessions_completed_total",
		Help:      "Quiz sessions that reached the final result.",
	})
	resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quiz",
		Name:      "resolutions_total",
		Help:      "Question resolutions by outcome. stale counts rejected late events.",
	}, []string{"outcome"})
	parseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiz",
		Name:      "parse_empty_total",
		Help:      "Quiz texts in which no question was recognized.",
	})
)
