package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Rincaro/cascading.utils/internal/shared/config"
	"github.com/Rincaro/cascading.utils/internal/shared/wire"
	"github.com/Rincaro/cascading.utils/internal/worker/core"
)

type CoordinatorClient struct {
	conn   *grpc.ClientConn
	client *wire.CoordinatorClient

	workerID        uuid.UUID
	coordinatorAddr string
}

var _ core.CoordinatorClient = (*CoordinatorClient)(nil)

func NewCoordinatorClient(
	coordinatorAddr string,
	cfg config.ClientGRPCConfig,
	workerID uuid.UUID,
	opts ...grpc.DialOption,
) (*CoordinatorClient, error) {
	conn, err := wire.Dial(coordinatorAddr, cfg.KeepaliveTime, cfg.KeepaliveTimeout, opts...)
	if err != nil {
		return nil, err
	}

	return &CoordinatorClient{
		conn:            conn,
		client:          wire.NewCoordinatorClient(conn),
		workerID:        workerID,
		coordinatorAddr: coordinatorAddr,
	}, nil
}

func (c *CoordinatorClient) WorkerID() uuid.UUID {
	return c.workerID
}

// RegisterWorker announces the worker and returns the heartbeat interval
// the coordinator expects.
func (c *CoordinatorClient) RegisterWorker(ctx context.Context, addr string, reduceSlots int) (time.Duration, error) {
	req, err := wire.RegistrationToStruct(wire.Registration{
		WorkerID:    c.workerID,
		Address:     addr,
		ReduceSlots: reduceSlots,
	})
	if err != nil {
		return 0, err
	}

	resp, err := c.client.RegisterWorker(ctx, req)
	if err != nil {
		if status.Code(err) == codes.InvalidArgument {
			return 0, fmt.Errorf("bad request: %s", status.Convert(err).Message())
		}
		return 0, fmt.Errorf("failed to register worker: %w", err)
	}
	if err := resp.CheckValid(); err != nil {
		return 0, fmt.Errorf("coordinator returned an invalid heartbeat interval: %w", err)
	}
	return resp.AsDuration(), nil
}

func (c *CoordinatorClient) SendHeartbeat(ctx context.Context) error {
	_, err := c.client.Heartbeat(ctx, wrapperspb.String(c.workerID.String()))
	if status.Code(err) == codes.NotFound {
		return core.ErrNotRegistered
	}
	if err != nil {
		return fmt.Errorf("failed to send heartbeat: %w", err)
	}
	return nil
}

func (c *CoordinatorClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
