package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	coordinator "github.com/Rincaro/cascading.utils/internal/coordinator/api/rest"
	"github.com/Rincaro/cascading.utils/pkg/cluster"
	"github.com/Rincaro/cascading.utils/pkg/logging"
)

func newCoordinatorServer(t *testing.T, provider cluster.StatusProvider) *httptest.Server {
	t.Helper()
	api := coordinator.NewAPI(provider, nil, logging.NewNop())
	srv := httptest.NewServer(coordinator.NewHandler(api, prometheus.NewRegistry(), logging.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusClient_Status(t *testing.T) {
	want := cluster.Status{ControllerState: cluster.ControllerRunning, WorkerCount: 2, MaxReduceTasks: 5}
	srv := newCoordinatorServer(t, cluster.StatusProviderFunc(func(context.Context) (cluster.Status, error) {
		return want, nil
	}))

	client, err := NewStatusClient(srv.URL, srv.Client())
	require.NoError(t, err)

	got, err := client.Status(t.Context())
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestStatusClient_ServerError(t *testing.T) {
	srv := newCoordinatorServer(t, cluster.StatusProviderFunc(func(context.Context) (cluster.Status, error) {
		return cluster.Status{}, errors.New("store offline")
	}))

	client, err := NewStatusClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = client.Status(t.Context())
	require.ErrorContains(t, err, "503")
	require.ErrorContains(t, err, "store offline")
}

func TestStatusClient_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"controllerState": "RUNNING", "workerCount": "many"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewStatusClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = client.Status(t.Context())
	require.ErrorIs(t, err, cluster.ErrInvalidStatus)
}

func TestNewStatusClient_InvalidURL(t *testing.T) {
	_, err := NewStatusClient("coordinator:8080", nil)
	require.Error(t, err)

	_, err = NewStatusClient("://", nil)
	require.Error(t, err)
}
