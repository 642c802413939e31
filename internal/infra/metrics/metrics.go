package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialog_events_total",
			Help: "Inbound user events by current state and event kind.",
		},
		[]string{"state", "kind"},
	)

	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialog_transitions_total",
			Help: "Completed state transitions by edge.",
		},
		[]string{"from", "to"},
	)

	handlerFaultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dialog_handler_faults_total",
			Help: "Handler faults swallowed at the dispatch boundary.",
		},
	)

	backendCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_calls_total",
			Help: "Commerce backend calls by operation and outcome.",
		},
		[]string{"op", "success"},
	)

	storeFlushSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "store_flush_seconds",
			Help:    "Snapshot store write latency distribution.",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	menuRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_refresh_total",
			Help: "Scheduled menu cache refreshes by outcome.",
		},
		[]string{"success"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			eventsTotal, transitionsTotal, handlerFaultsTotal,
			backendCallsTotal, storeFlushSeconds, menuRefreshTotal,
		)
	})
}

func EventHandled(state, kind string) {
	eventsTotal.WithLabelValues(state, kind).Inc()
}

func Transition(from, to string) {
	transitionsTotal.WithLabelValues(from, to).Inc()
}

func HandlerFault() { handlerFaultsTotal.Inc() }

func BackendCall(op string, success bool) {
	backendCallsTotal.WithLabelValues(op, strconv.FormatBool(success)).Inc()
}

func ObserveStoreFlush(seconds float64) { storeFlushSeconds.Observe(seconds) }

func MenuRefresh(success bool) {
	menuRefreshTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}
