package relayerpb

import (
	"context"

	"google.golang.org/grpc"
)

// RegisterRelayerServiceServer wires srv into s the same way
// protoc-gen-go-grpc's generated RegisterXServer function would, had
// this package's messages come from a .proto file and codegen step.
func RegisterRelayerServiceServer(s grpc.ServiceRegistrar, srv RelayerServiceServer) {
	s.RegisterService(&relayerServiceDesc, srv)
}

var relayerServiceDesc = grpc.ServiceDesc{
	ServiceName: "relayer.RelayerService",
	HandlerType: (*RelayerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateClient", Handler: relayerCreateClientHandler},
		{MethodName: "RelayByTx", Handler: relayerRelayByTxHandler},
		{MethodName: "Info", Handler: relayerInfoHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "relayer.proto",
}

func relayerCreateClientHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CreateClientRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RelayerServiceServer).CreateClient(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCreateClient}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RelayerServiceServer).CreateClient(ctx, req.(*CreateClientRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func relayerRelayByTxHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RelayByTxRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RelayerServiceServer).RelayByTx(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodRelayByTx}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RelayerServiceServer).RelayByTx(ctx, req.(*RelayByTxRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func relayerInfoHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(InfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RelayerServiceServer).Info(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodInfo}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RelayerServiceServer).Info(ctx, req.(*InfoRequest))
	}
	return interceptor(ctx, in, info, handler)
}
