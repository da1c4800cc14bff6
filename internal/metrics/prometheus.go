// Package metrics holds the Prometheus instrumentation of the detector, the
// coordinator and the discard sink.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Rincaro/cascading.utils/pkg/cluster"
)

const Namespace = "cascading"

func registerer(reg prometheus.Registerer) prometheus.Registerer {
	if reg == nil {
		return prometheus.DefaultRegisterer
	}
	return reg
}

// register registers c, reusing an identical collector that is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Detector implements cluster.Metrics.
type Detector struct {
	polls         *prometheus.CounterVec
	changes       prometheus.Counter
	stableWorkers prometheus.Gauge
	stableReduce  prometheus.Gauge
	pollsToStable prometheus.Histogram
}

var _ cluster.Metrics = (*Detector)(nil)

// NewDetector registers the detector collectors with reg, or with the default
// registerer when reg is nil.
func NewDetector(reg prometheus.Registerer) *Detector {
	reg = registerer(reg)

	return &Detector{
		polls: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "detector",
			Name:      "polls_total",
			Help:      "Cluster status polls by controller state and result (ok, error). Failed polls have state \"unknown\".",
		}, []string{"state", "result"})),
		changes: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "detector",
			Name:      "worker_count_changes_total",
			Help:      "Worker count changes seen between consecutive polls.",
		})),
		stableWorkers: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "detector",
			Name:      "stable_worker_count",
			Help:      "Worker count of the last stabilized cluster status.",
		})),
		stableReduce: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "detector",
			Name:      "stable_reduce_slots",
			Help:      "Reduce slots of the last stabilized cluster status.",
		})),
		pollsToStable: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "detector",
			Name:      "polls_to_stable",
			Help:      "Polls needed before the worker count stabilized.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		})),
	}
}

// unknownState labels failed polls, which carry no controller state.
const unknownState = "unknown"

func (d *Detector) PollCompleted(state cluster.ControllerState, err error) {
	if err != nil {
		d.polls.WithLabelValues(unknownState, "error").Inc()
		return
	}
	d.polls.WithLabelValues(state.String(), "ok").Inc()
}

func (d *Detector) WorkerCountChanged(from, to int) {
	d.changes.Inc()
}

func (d *Detector) Stabilized(status cluster.Status, polls int) {
	d.stableWorkers.Set(float64(status.WorkerCount))
	d.stableReduce.Set(float64(status.MaxReduceTasks))
	d.pollsToStable.Observe(float64(polls))
}

// Coordinator tracks worker membership and the controller state.
type Coordinator struct {
	activeWorkers   prometheus.Gauge
	reduceSlots     prometheus.Gauge
	registrations   prometheus.Counter
	heartbeats      *prometheus.CounterVec
	evictions       prometheus.Counter
	controllerState *prometheus.GaugeVec
}

func NewCoordinator(reg prometheus.Registerer) *Coordinator {
	reg = registerer(reg)

	return &Coordinator{
		activeWorkers: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "coordinator",
			Name:      "active_workers",
			Help:      "Workers currently reporting heartbeats.",
		})),
		reduceSlots: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "coordinator",
			Name:      "reduce_slots",
			Help:      "Reduce slots summed over active workers.",
		})),
		registrations: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "coordinator",
			Name:      "worker_registrations_total",
			Help:      "Worker registrations accepted.",
		})),
		heartbeats: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "coordinator",
			Name:      "heartbeats_total",
			Help:      "Worker heartbeats by result (ok, unknown_worker).",
		}, []string{"result"})),
		evictions: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "coordinator",
			Name:      "worker_evictions_total",
			Help:      "Workers marked inactive after missing heartbeats.",
		})),
		controllerState: register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "coordinator",
			Name:      "controller_state",
			Help:      "Controller state (1 for the current state, 0 otherwise).",
		}, []string{"state"})),
	}
}

func (c *Coordinator) WorkerRegistered() {
	c.registrations.Inc()
}

func (c *Coordinator) Heartbeat(known bool) {
	if known {
		c.heartbeats.WithLabelValues("ok").Inc()
		return
	}
	c.heartbeats.WithLabelValues("unknown_worker").Inc()
}

func (c *Coordinator) WorkersEvicted(n int) {
	c.evictions.Add(float64(n))
}

// ClusterStatus records the membership and controller state of status.
func (c *Coordinator) ClusterStatus(status cluster.Status) {
	c.activeWorkers.Set(float64(status.WorkerCount))
	c.reduceSlots.Set(float64(status.MaxReduceTasks))
	for _, state := range []cluster.ControllerState{
		cluster.ControllerStarting,
		cluster.ControllerRunning,
		cluster.ControllerStopped,
	} {
		value := 0.0
		if state == status.ControllerState {
			value = 1
		}
		c.controllerState.WithLabelValues(state.String()).Set(value)
	}
}

// NewDiscardedRecords returns the counter fed by tap.Discard.
func NewDiscardedRecords(reg prometheus.Registerer) prometheus.Counter {
	return register(registerer(reg), prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "tap",
		Name:      "discarded_records_total",
		Help:      "Records accepted and dropped by discard sinks.",
	}))
}
