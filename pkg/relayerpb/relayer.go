// Package relayerpb is the optional gRPC surface spec.md §6.1 allows
// the engine to expose/consume alongside (or instead of) its operator
// command queue: a RelayerService offering CreateClient/RelayByTx/Info,
// hand-written against the wire shapes the teacher's generated
// relayer.pb.go and packages/go-relayer-api/container.go client usage
// show, since the pack's own `*_grpc.pb.go` service stubs were not
// part of the retrieval pack (only the message-type file was).
package relayerpb

import (
	"context"

	"google.golang.org/grpc"
)

// Chain mirrors relayer.pb.go's Chain message.
type Chain struct {
	ChainID     string
	IBCVersion  string
	IBCContract string
}

// CreateClientRequest/-Response mirror the container client's usage in
// GetCreateClientTx.
type CreateClientRequest struct {
	SrcChain string
	DstChain string
}

type CreateClientResponse struct {
	Tx      []byte
	Address string
}

// RelayByTxRequest/-Response mirror relayer.pb.go's message shape.
type RelayByTxRequest struct {
	SrcChain           string
	DstChain           string
	SourceTxIds        [][]byte
	TimeoutTxIds       [][]byte
	SrcClientId        string
	DstClientId        string
	SrcPacketSequences []uint64
	DstPacketSequences []uint64
}

type RelayByTxResponse struct {
	Tx      []byte
	Address string
}

// InfoRequest/-Response mirror relayer.pb.go's Info rpc.
type InfoRequest struct {
	SrcChain string
	DstChain string
}

type InfoResponse struct {
	TargetChain *Chain
	SourceChain *Chain
}

// RelayerServiceClient is the client surface
// packages/go-relayer-api/container.go drives.
type RelayerServiceClient interface {
	CreateClient(ctx context.Context, in *CreateClientRequest, opts ...grpc.CallOption) (*CreateClientResponse, error)
	RelayByTx(ctx context.Context, in *RelayByTxRequest, opts ...grpc.CallOption) (*RelayByTxResponse, error)
	Info(ctx context.Context, in *InfoRequest, opts ...grpc.CallOption) (*InfoResponse, error)
}

type relayerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRelayerServiceClient wraps a dialed *grpc.ClientConn the same way
// protoc-gen-go-grpc's generated constructor would, without requiring
// the .proto file and codegen step this module doesn't run.
func NewRelayerServiceClient(cc grpc.ClientConnInterface) RelayerServiceClient {
	return &relayerServiceClient{cc: cc}
}

const (
	methodCreateClient = "/relayer.RelayerService/CreateClient"
	methodRelayByTx    = "/relayer.RelayerService/RelayByTx"
	methodInfo         = "/relayer.RelayerService/Info"
)

// callOpts pins every call to the gob codec registered in codec.go,
// since none of this package's request/response structs implement
// proto.Message.
func callOpts(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype("gob")}, opts...)
}

func (c *relayerServiceClient) CreateClient(ctx context.Context, in *CreateClientRequest, opts ...grpc.CallOption) (*CreateClientResponse, error) {
	out := new(CreateClientResponse)
	if err := c.cc.Invoke(ctx, methodCreateClient, in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *relayerServiceClient) RelayByTx(ctx context.Context, in *RelayByTxRequest, opts ...grpc.CallOption) (*RelayByTxResponse, error) {
	out := new(RelayByTxResponse)
	if err := c.cc.Invoke(ctx, methodRelayByTx, in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *relayerServiceClient) Info(ctx context.Context, in *InfoRequest, opts ...grpc.CallOption) (*InfoResponse, error) {
	out := new(InfoResponse)
	if err := c.cc.Invoke(ctx, methodInfo, in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// RelayerServiceServer is the server-side surface an engine exposing
// this optional RPC would implement, mirroring the client one-for-one.
type RelayerServiceServer interface {
	CreateClient(ctx context.Context, in *CreateClientRequest) (*CreateClientResponse, error)
	RelayByTx(ctx context.Context, in *RelayByTxRequest) (*RelayByTxResponse, error)
	Info(ctx context.Context, in *InfoRequest) (*InfoResponse, error)
}
