// Package grpc reads the cluster status from the coordinator's gRPC API.
package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/Rincaro/cascading.utils/internal/shared/config"
	"github.com/Rincaro/cascading.utils/internal/shared/wire"
	"github.com/Rincaro/cascading.utils/pkg/cluster"
)

type StatusClient struct {
	conn   *grpc.ClientConn
	client *wire.CoordinatorClient
}

var _ cluster.StatusProvider = (*StatusClient)(nil)

func NewStatusClient(coordinatorAddr string, cfg config.ClientGRPCConfig, opts ...grpc.DialOption) (*StatusClient, error) {
	conn, err := wire.Dial(coordinatorAddr, cfg.KeepaliveTime, cfg.KeepaliveTimeout, opts...)
	if err != nil {
		return nil, err
	}
	return &StatusClient{conn: conn, client: wire.NewCoordinatorClient(conn)}, nil
}

// Status performs one GetClusterStatus call.
func (c *StatusClient) Status(ctx context.Context) (cluster.Status, error) {
	resp, err := c.client.GetClusterStatus(ctx, &emptypb.Empty{})
	if err != nil {
		return cluster.Status{}, fmt.Errorf("failed to get cluster status: %w", err)
	}
	return wire.StatusFromStruct(resp)
}

func (c *StatusClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
