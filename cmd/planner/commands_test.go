package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	coordinator "github.com/Rincaro/cascading.utils/internal/coordinator/api/rest"
	"github.com/Rincaro/cascading.utils/pkg/cluster"
	"github.com/Rincaro/cascading.utils/pkg/core"
	"github.com/Rincaro/cascading.utils/pkg/logging"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestPartitionCmd(t *testing.T) {
	out, err := run(t, "partition", "-n", "7", "alpha", "beta")
	require.NoError(t, err)

	alpha, err := core.NewPartitionKey("alpha", 7)
	require.NoError(t, err)
	beta, err := core.NewPartitionKey("beta", 7)
	require.NoError(t, err)

	require.Equal(t, []string{
		"alpha\t" + strconv.Itoa(alpha.Value()),
		"beta\t" + strconv.Itoa(beta.Value()),
	}, strings.Split(strings.TrimSpace(out), "\n"))
}

func TestPartitionCmd_Errors(t *testing.T) {
	_, err := run(t, "partition", "-n", "0", "alpha")
	require.ErrorIs(t, err, core.ErrInvalidPartitionCount)

	_, err = run(t, "partition", "--hash", "md5", "alpha")
	require.Error(t, err)

	_, err = run(t, "partition")
	require.Error(t, err)
}

func TestJobconfCmd_Local(t *testing.T) {
	out, err := run(t, "jobconf", "--tracker", "local", "--stack-size", "1024")
	require.NoError(t, err)

	require.Equal(t, strings.Join([]string{
		"map.tasks=1",
		"reduce.tasks=1",
		"job.child.opts=-server -Xmx512m -Xss1024k",
		"job.child.ulimit.stack=1024",
		"job.tracker=local",
		"logging.levels=framework=INFO,app=INFO",
	}, "\n")+"\n", out)
}

func TestJobconfCmd_ClusterOverREST(t *testing.T) {
	status := cluster.Status{ControllerState: cluster.ControllerRunning, WorkerCount: 2, MaxReduceTasks: 8}
	api := coordinator.NewAPI(cluster.StatusProviderFunc(func(context.Context) (cluster.Status, error) {
		return status, nil
	}), nil, logging.NewNop())
	srv := httptest.NewServer(coordinator.NewHandler(api, prometheus.NewRegistry(), logging.NewNop()))
	t.Cleanup(srv.Close)

	t.Setenv("CASCADING_PLANNER_COORDINATOR_TRANSPORT", "rest")
	t.Setenv("CASCADING_PLANNER_COORDINATOR_REST_URL", srv.URL)
	t.Setenv("CASCADING_PLANNER_DETECTOR_POLL_INTERVAL", "1ms")
	t.Setenv("CASCADING_PLANNER_LOGGING_LEVEL", "error")

	out, err := run(t, "jobconf", "--tracker", "cluster", "--debug")
	require.NoError(t, err)
	require.Contains(t, out, "reduce.tasks=8\n")
	require.Contains(t, out, "logging.levels=framework=DEBUG,app=TRACE\n")

	t.Setenv("CASCADING_PLANNER_JOB_TRACKER", "cluster")
	out, err = run(t, "detect")
	require.NoError(t, err)
	require.Equal(t, "state=RUNNING workers=2 reduce_slots=8\n", out)
}

func TestDetectCmd_LocalTrackerDoesNotWait(t *testing.T) {
	t.Setenv("CASCADING_PLANNER_DETECTOR_POLL_INTERVAL", "1h")
	t.Setenv("CASCADING_PLANNER_DETECTOR_TIMEOUT", "2s")

	out, err := run(t, "detect")
	require.NoError(t, err)
	require.Equal(t, "state=RUNNING workers=1 reduce_slots=1\n", out)
}

func TestDetectCmd_ClusterTrackerWaitsForStability(t *testing.T) {
	var (
		mu    sync.Mutex
		polls int
	)
	counts := []int{1, 3, 3}
	api := coordinator.NewAPI(cluster.StatusProviderFunc(func(context.Context) (cluster.Status, error) {
		mu.Lock()
		defer mu.Unlock()
		n := counts[min(polls, len(counts)-1)]
		polls++
		return cluster.Status{ControllerState: cluster.ControllerRunning, WorkerCount: n, MaxReduceTasks: 2 * n}, nil
	}), nil, logging.NewNop())
	srv := httptest.NewServer(coordinator.NewHandler(api, prometheus.NewRegistry(), logging.NewNop()))
	t.Cleanup(srv.Close)

	t.Setenv("CASCADING_PLANNER_COORDINATOR_TRANSPORT", "rest")
	t.Setenv("CASCADING_PLANNER_COORDINATOR_REST_URL", srv.URL)
	t.Setenv("CASCADING_PLANNER_DETECTOR_POLL_INTERVAL", "1ms")
	t.Setenv("CASCADING_PLANNER_JOB_TRACKER", "cluster")

	out, err := run(t, "detect")
	require.NoError(t, err)
	require.Equal(t, "state=RUNNING workers=3 reduce_slots=6\n", out)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 3, polls)
}

func TestDetectCmd_PushesMetrics(t *testing.T) {
	var (
		mu     sync.Mutex
		path   string
		pushed string
	)
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		path, pushed = r.URL.Path, string(body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gateway.Close)

	t.Setenv("CASCADING_PLANNER_METRICS_PUSH_URL", gateway.URL)

	_, err := run(t, "detect")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "/metrics/job/cascading_planner", path)
	require.Contains(t, pushed, "cascading_detector_polls_total")
	require.Contains(t, pushed, "cascading_detector_stable_worker_count")
}

func TestJobconfCmd_UnknownTransport(t *testing.T) {
	t.Setenv("CASCADING_PLANNER_COORDINATOR_TRANSPORT", "carrier-pigeon")
	t.Setenv("CASCADING_PLANNER_JOB_TRACKER", "cluster")

	_, err := run(t, "jobconf")
	require.ErrorContains(t, err, "unknown coordinator transport")
}
