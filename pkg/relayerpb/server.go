package relayerpb

import (
	"context"
	"fmt"
)

// UpdateClientRequest is the translated command Server.CreateClient
// emits: an UpdateClient trigger for the client this engine already
// tracks between srcChain and dstChain. This engine's two-chain model
// (spec.md's EVM<->Union topology) runs exactly one client pair per
// chain, created during chain registration rather than from this RPC,
// so CreateClient here re-triggers an update of that existing client
// instead of installing a new one.
type UpdateClientRequest struct {
	DstChain             string
	ClientID             string
	CounterpartyClientID string
}

// ResolveClientPair looks up the client_id/counterparty_client_id this
// engine tracks for (srcChain, dstChain), so this package doesn't need
// to import internal/config or internal/chain itself.
type ResolveClientPair func(srcChain, dstChain string) (clientID, counterpartyClientID string, ok bool)

// LookupChain resolves a chain_id to the Chain summary Info reports,
// mirroring chain.Registry.Get without importing internal/chain.
type LookupChain func(chainID string) (Chain, bool)

// Server implements RelayerServiceServer over this engine's operator
// command stream. CreateClient enqueues an UpdateClient trigger for
// the already-registered client between srcChain and dstChain; Info
// answers from the chain registry. RelayByTx has no counterpart in
// this engine's dispatch model: spec.md §4 always derives msgs itself
// from reducer-tracked Data fetched through an Adapter, never from a
// caller-supplied transaction id list, so there is no tx-bytes-in,
// tx-bytes-out path to wire it to.
type Server struct {
	Requests chan<- UpdateClientRequest
	Resolve  ResolveClientPair
	Lookup   LookupChain
}

func (s *Server) CreateClient(ctx context.Context, in *CreateClientRequest) (*CreateClientResponse, error) {
	clientID, counterpartyClientID, ok := s.Resolve(in.SrcChain, in.DstChain)
	if !ok {
		return nil, fmt.Errorf("relayerpb: no registered client between %q and %q", in.SrcChain, in.DstChain)
	}
	req := UpdateClientRequest{DstChain: in.DstChain, ClientID: clientID, CounterpartyClientID: counterpartyClientID}
	select {
	case s.Requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &CreateClientResponse{}, nil
}

func (s *Server) RelayByTx(ctx context.Context, in *RelayByTxRequest) (*RelayByTxResponse, error) {
	return nil, fmt.Errorf("relayerpb: RelayByTx is not supported by this engine's fetch-then-submit dispatch model")
}

func (s *Server) Info(ctx context.Context, in *InfoRequest) (*InfoResponse, error) {
	src, ok := s.Lookup(in.SrcChain)
	if !ok {
		return nil, fmt.Errorf("relayerpb: unknown chain %q", in.SrcChain)
	}
	dst, ok := s.Lookup(in.DstChain)
	if !ok {
		return nil, fmt.Errorf("relayerpb: unknown chain %q", in.DstChain)
	}
	return &InfoResponse{SourceChain: &src, TargetChain: &dst}, nil
}
