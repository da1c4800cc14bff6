package wire

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "cascading.coordinator.v1.Coordinator"

	RegisterWorkerMethod   = "/" + ServiceName + "/RegisterWorker"
	HeartbeatMethod        = "/" + ServiceName + "/Heartbeat"
	GetClusterStatusMethod = "/" + ServiceName + "/GetClusterStatus"
)

// CoordinatorServer is implemented by the coordinator.
//
// RegisterWorker takes a Registration struct and returns the heartbeat
// interval. Heartbeat takes the worker ID. GetClusterStatus returns a status
// struct.
type CoordinatorServer interface {
	RegisterWorker(ctx context.Context, req *structpb.Struct) (*durationpb.Duration, error)
	Heartbeat(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error)
	GetClusterStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterCoordinatorServer(s grpc.ServiceRegistrar, srv CoordinatorServer) {
	s.RegisterService(&CoordinatorServiceDesc, srv)
}

var CoordinatorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CoordinatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RegisterWorker", Handler: registerWorkerHandler},
		{MethodName: "Heartbeat", Handler: heartbeatHandler},
		{MethodName: "GetClusterStatus", Handler: getClusterStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cascading/coordinator/v1/coordinator.proto",
}

func registerWorkerHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).RegisterWorker(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RegisterWorkerMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CoordinatorServer).RegisterWorker(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func heartbeatHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).Heartbeat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HeartbeatMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CoordinatorServer).Heartbeat(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getClusterStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).GetClusterStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetClusterStatusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CoordinatorServer).GetClusterStatus(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// CoordinatorClient is the client side of CoordinatorServiceDesc.
type CoordinatorClient struct {
	cc grpc.ClientConnInterface
}

func NewCoordinatorClient(cc grpc.ClientConnInterface) *CoordinatorClient {
	return &CoordinatorClient{cc: cc}
}

func (c *CoordinatorClient) RegisterWorker(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*durationpb.Duration, error) {
	out := new(durationpb.Duration)
	if err := c.cc.Invoke(ctx, RegisterWorkerMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CoordinatorClient) Heartbeat(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, HeartbeatMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CoordinatorClient) GetClusterStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetClusterStatusMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
