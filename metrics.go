package eventproxy

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects counters for proxies created with [WithMetrics]. A nil
// *Metrics is valid, and records nothing.
type Metrics struct {
	events    *prometheus.CounterVec
	chainRuns *prometheus.CounterVec
	dropped   *prometheus.CounterVec
	listening prometheus.Gauge
}

// NewMetrics creates the collectors, registering them with reg, if non-nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	x := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: `eventproxy`,
			Name:      `events_total`,
			Help:      `Events received by bound delegated listeners.`,
		}, []string{`event`}),
		chainRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: `eventproxy`,
			Name:      `chain_runs_total`,
			Help:      `Middleware chain runs, one per element matching a target selector.`,
		}, []string{`event`}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: `eventproxy`,
			Name:      `dropped_total`,
			Help:      `Events dropped or superseded by rate limiting middleware.`,
		}, []string{`middleware`}),
		listening: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: `eventproxy`,
			Name:      `listening`,
			Help:      `Proxies with a bound listener.`,
		}),
	}
	if reg != nil {
		for _, c := range x.Collectors() {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("eventproxy: register metrics: %w", err)
			}
		}
	}
	return x, nil
}

// Collectors returns the underlying collectors.
func (x *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{x.events, x.chainRuns, x.dropped, x.listening}
}

func (x *Metrics) observeEvent(eventName string) {
	if x != nil {
		x.events.WithLabelValues(eventName).Inc()
	}
}

func (x *Metrics) observeChainRun(eventName string) {
	if x != nil {
		x.chainRuns.WithLabelValues(eventName).Inc()
	}
}

func (x *Metrics) observeDropped(middleware string) {
	if x != nil {
		x.dropped.WithLabelValues(middleware).Inc()
	}
}

func (x *Metrics) addListening(delta float64) {
	if x != nil {
		x.listening.Add(delta)
	}
}
