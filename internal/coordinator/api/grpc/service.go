package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Rincaro/cascading.utils/internal/coordinator/core"
	"github.com/Rincaro/cascading.utils/internal/shared/wire"
	"github.com/Rincaro/cascading.utils/pkg/cluster"
	"github.com/Rincaro/cascading.utils/pkg/logging"
)

const DefaultHeartbeatInterval = 15 * time.Second

type CoordinatorService struct {
	heartbeatInterval time.Duration
	workerService     core.WorkerService
	statusProvider    cluster.StatusProvider

	logger logging.Logger
}

var _ wire.CoordinatorServer = (*CoordinatorService)(nil)

func NewCoordinatorService(
	heartbeatInterval time.Duration,
	workerService core.WorkerService,
	statusProvider cluster.StatusProvider,
	logger logging.Logger,
) *CoordinatorService {
	if heartbeatInterval <= 0 {
		heartbeatInterval = DefaultHeartbeatInterval
	}
	return &CoordinatorService{
		heartbeatInterval: heartbeatInterval,
		workerService:     workerService,
		statusProvider:    statusProvider,
		logger:            logger,
	}
}

func (s *CoordinatorService) RegisterWorker(
	ctx context.Context,
	req *structpb.Struct,
) (*durationpb.Duration, error) {
	reg, err := wire.RegistrationFromStruct(req)
	if err != nil {
		s.logger.Error("Invalid worker registration", "error", err)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	worker := &core.Worker{
		ID:          reg.WorkerID,
		Address:     reg.Address,
		ReduceSlots: reg.ReduceSlots,
	}

	s.logger.Debug("Received worker registration",
		"worker_id", worker.ID.String(),
		"address", worker.Address,
		"reduce_slots", worker.ReduceSlots,
	)

	if err := s.workerService.RegisterWorker(worker); err != nil {
		s.logger.Error("Failed to register worker", "worker_id", worker.ID.String(), "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}

	s.logger.Info("Worker registered successfully", "worker_id", worker.ID.String())

	return durationpb.New(s.heartbeatInterval), nil
}

func (s *CoordinatorService) Heartbeat(
	ctx context.Context,
	req *wrapperspb.StringValue,
) (*emptypb.Empty, error) {
	workerID, err := uuid.Parse(req.GetValue())
	if err != nil {
		s.logger.Error("Invalid worker ID in heartbeat", "worker_id", req.GetValue(), "error", err)
		return nil, status.Error(codes.InvalidArgument, "invalid worker ID format, expected UUID")
	}

	if err := s.workerService.RecordHeartbeat(workerID); err != nil {
		s.logger.Warn("Failed to record heartbeat", "worker_id", workerID, "error", err)
		if errors.Is(err, core.ErrWorkerNotFound) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	s.logger.Trace("Heartbeat received", "worker_id", workerID)
	return &emptypb.Empty{}, nil
}

func (s *CoordinatorService) GetClusterStatus(
	ctx context.Context,
	_ *emptypb.Empty,
) (*structpb.Struct, error) {
	st, err := s.statusProvider.Status(ctx)
	if err != nil {
		s.logger.Error("Failed to compute cluster status", "error", err)
		return nil, status.FromContextError(err).Err()
	}
	return wire.StatusToStruct(st)
}
