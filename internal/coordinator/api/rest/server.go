package rest

import (
	"cmp"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Rincaro/cascading.utils/internal/coordinator/core"
	"github.com/Rincaro/cascading.utils/internal/shared/config"
	"github.com/Rincaro/cascading.utils/pkg/cluster"
	"github.com/Rincaro/cascading.utils/pkg/logging"
)

const (
	StatusPath  = "/api/cluster/status"
	WorkersPath = "/api/workers"
	HealthPath  = "/healthz"
	MetricsPath = "/metrics"
)

type API struct {
	statusProvider cluster.StatusProvider
	workerService  core.WorkerService
	logger         logging.Logger
}

func NewAPI(statusProvider cluster.StatusProvider, workerService core.WorkerService, logger logging.Logger) *API {
	return &API{
		statusProvider: statusProvider,
		workerService:  workerService,
		logger:         logger,
	}
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+StatusPath, a.getClusterStatus)
	mux.HandleFunc("GET "+WorkersPath, a.listWorkers)
	mux.HandleFunc("GET "+HealthPath, a.health)
}

// getClusterStatus handles GET /api/cluster/status
func (a *API) getClusterStatus(w http.ResponseWriter, r *http.Request) {
	status, err := a.statusProvider.Status(r.Context())
	if err != nil {
		a.logger.Error("Failed to compute cluster status", "error", err)
		a.respondError(w, http.StatusServiceUnavailable, "cluster status unavailable", err.Error())
		return
	}
	a.respondJSON(w, http.StatusOK, ToClusterStatusResponse(status))
}

// listWorkers handles GET /api/workers
func (a *API) listWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := a.workerService.GetActiveWorkers()
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, "failed to list workers", err.Error())
		return
	}

	resp := ListWorkersResponse{Workers: make([]WorkerResponse, 0, len(workers)), Total: len(workers)}
	for _, worker := range workers {
		resp.Workers = append(resp.Workers, ToWorkerResponse(worker))
	}
	slices.SortFunc(resp.Workers, func(left, right WorkerResponse) int {
		return cmp.Compare(left.WorkerID, right.WorkerID)
	})

	a.respondJSON(w, http.StatusOK, resp)
}

// health reports 200 while the controller is RUNNING and 503 otherwise.
func (a *API) health(w http.ResponseWriter, r *http.Request) {
	status, err := a.statusProvider.Status(r.Context())
	if err != nil {
		a.respondError(w, http.StatusServiceUnavailable, "cluster status unavailable", err.Error())
		return
	}

	code, text := http.StatusOK, "ok"
	if status.ControllerState != cluster.ControllerRunning {
		code, text = http.StatusServiceUnavailable, "not ready"
	}
	a.respondJSON(w, code, HealthResponse{Status: text, ControllerState: status.ControllerState.String()})
}

func (a *API) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Warn("Failed to write response", "error", err)
	}
}

func (a *API) respondError(w http.ResponseWriter, statusCode int, error string, message string) {
	resp := ErrorResponse{
		Error:   error,
		Message: message,
		Code:    statusCode,
	}
	a.respondJSON(w, statusCode, resp)
}

// NewHandler wires the API and the metrics endpoint behind the request ID,
// logging and recovery middleware. A nil gatherer serves the default registry.
func NewHandler(api *API, gatherer prometheus.Gatherer, logger logging.Logger) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	mux.Handle("GET "+MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return ChainMiddleware(
		mux,
		RequestIDMiddleware,
		LoggingMiddleware(logger),
		RecoveryMiddleware(logger),
	)
}

func NewServer(cfg config.RESTConfig, api *API, gatherer prometheus.Gatherer, logger logging.Logger) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewHandler(api, gatherer, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
