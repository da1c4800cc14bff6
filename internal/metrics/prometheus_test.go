package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rincaro/cascading.utils/pkg/cluster"
	"github.com/Rincaro/cascading.utils/pkg/core"
	"github.com/Rincaro/cascading.utils/pkg/tap"
)

func TestDetector_RecordsPollsAndStableStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDetector(reg)

	m.PollCompleted(cluster.ControllerStarting, nil)
	m.PollCompleted(cluster.ControllerRunning, nil)
	m.PollCompleted(cluster.ControllerRunning, nil)
	m.PollCompleted(cluster.ControllerStarting, errors.New("unreachable"))
	m.WorkerCountChanged(3, 5)
	m.Stabilized(cluster.Status{ControllerState: cluster.ControllerRunning, WorkerCount: 5, MaxReduceTasks: 10}, 3)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.polls.WithLabelValues("RUNNING", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.polls.WithLabelValues("unknown", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.polls.WithLabelValues("STARTING", "ok")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.polls.WithLabelValues("STARTING", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.changes))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.stableWorkers))
	assert.Equal(t, float64(10), testutil.ToFloat64(m.stableReduce))
	assert.Equal(t, 1, testutil.CollectAndCount(m.pollsToStable))
}

func TestDetector_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewDetector(reg)
	second := NewDetector(reg)

	second.WorkerCountChanged(1, 2)

	assert.Equal(t, float64(1), testutil.ToFloat64(first.changes))
}

func TestCoordinator_ClusterStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCoordinator(reg)

	m.WorkerRegistered()
	m.Heartbeat(true)
	m.Heartbeat(false)
	m.WorkersEvicted(2)
	m.ClusterStatus(cluster.Status{ControllerState: cluster.ControllerRunning, WorkerCount: 4, MaxReduceTasks: 8})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.registrations))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.heartbeats.WithLabelValues("unknown_worker")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.evictions))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.activeWorkers))
	assert.Equal(t, float64(8), testutil.ToFloat64(m.reduceSlots))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.controllerState.WithLabelValues("RUNNING")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.controllerState.WithLabelValues("STARTING")))

	expected := `
# HELP cascading_coordinator_controller_state Controller state (1 for the current state, 0 otherwise).
# TYPE cascading_coordinator_controller_state gauge
cascading_coordinator_controller_state{state="RUNNING"} 1
cascading_coordinator_controller_state{state="STARTING"} 0
cascading_coordinator_controller_state{state="STOPPED"} 0
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "cascading_coordinator_controller_state"))
}

func TestDiscardedRecords_CountsDiscardSinkWrites(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := NewDiscardedRecords(reg)
	sink := tap.NewDiscard(tap.WithRecordCounter(counter))

	collector, err := sink.OpenForWrite(0)
	require.NoError(t, err)
	for range 25 {
		require.NoError(t, collector.Collect(core.KeyValue{Key: "k", Value: "v"}))
	}
	require.NoError(t, collector.Close())

	assert.Equal(t, float64(25), testutil.ToFloat64(counter))
}
