package rest

import (
	"time"

	"github.com/Rincaro/cascading.utils/internal/coordinator/core"
	"github.com/Rincaro/cascading.utils/pkg/cluster"
)

type ClusterStatusResponse struct {
	ControllerState string `json:"controllerState"`
	WorkerCount     int    `json:"workerCount"`
	MaxReduceTasks  int    `json:"maxReduceTasks"`
}

type WorkerResponse struct {
	WorkerID        string    `json:"workerId"`
	Address         string    `json:"address"`
	ReduceSlots     int       `json:"reduceSlots"`
	Status          string    `json:"status"`
	RegisteredAt    time.Time `json:"registeredAt"`
	LastHeartbeatAt time.Time `json:"lastHeartbeatAt"`
}

type ListWorkersResponse struct {
	Workers []WorkerResponse `json:"workers"`
	Total   int              `json:"total"`
}

type HealthResponse struct {
	Status          string `json:"status"`
	ControllerState string `json:"controllerState"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

func ToClusterStatusResponse(s cluster.Status) ClusterStatusResponse {
	return ClusterStatusResponse{
		ControllerState: s.ControllerState.String(),
		WorkerCount:     s.WorkerCount,
		MaxReduceTasks:  s.MaxReduceTasks,
	}
}

// Status converts the response back, rejecting unknown states and negative counts.
func (r ClusterStatusResponse) Status() (cluster.Status, error) {
	state, err := cluster.ParseControllerState(r.ControllerState)
	if err != nil {
		return cluster.Status{}, err
	}
	if r.WorkerCount < 0 || r.MaxReduceTasks < 0 {
		return cluster.Status{}, cluster.ErrInvalidStatus
	}
	return cluster.Status{
		ControllerState: state,
		WorkerCount:     r.WorkerCount,
		MaxReduceTasks:  r.MaxReduceTasks,
	}, nil
}

func ToWorkerResponse(w *core.Worker) WorkerResponse {
	return WorkerResponse{
		WorkerID:        w.ID.String(),
		Address:         w.Address,
		ReduceSlots:     w.ReduceSlots,
		Status:          string(w.Status),
		RegisteredAt:    w.RegisteredAt,
		LastHeartbeatAt: w.LastHeartbeatAt,
	}
}
