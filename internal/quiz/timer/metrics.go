package timer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	timersArmed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiz",
		Subsystem: "timer",
		Name:      "armed_total",
		Help:      "Question timers armed.",
	})
	timersFired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiz",
		Subsystem: "timer",
		Name:      "fired_total",
		Help:      "Question timers whose callback ran.",
	})
	timerPanics = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiz",
		Subsystem: "timer",
		Name:      "panics_total",
		Help:      "Timer callbacks that panicked.",
	})
	timersWaiting = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "quiz",
		Subsystem: "timer",
		Name:      "waiting",
		Help:      "Expired timers waiting for a pool slot.",
	})
)
