package wire

import (
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// Dial opens a lazy client connection to the coordinator. Extra options are
// applied after the defaults.
func Dial(addr string, keepaliveTime, keepaliveTimeout time.Duration, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	if keepaliveTime <= 0 {
		keepaliveTime = 10 * time.Second
	}
	if keepaliveTimeout <= 0 {
		keepaliveTimeout = 5 * time.Second
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(
			keepalive.ClientParameters{
				Time:                keepaliveTime,
				Timeout:             keepaliveTimeout,
				PermitWithoutStream: true,
			},
		),
	}, opts...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to coordinator: %w", err)
	}
	return conn, nil
}
