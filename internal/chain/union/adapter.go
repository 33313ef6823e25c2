// Package union implements chain.Adapter for the Cosmos/Union side of
// the relay: a CometBFT chain secured, from the EVM side, by a
// CometBLS light client, and itself running an Ethereum light client
// over the counterparty.
//
// Grounded on e2e/interchaintestv8/cosmos/utils.go's
// cmtservice.Header/abcitypes.Event handling, generalized from
// e2esuite's test-only GRPCQuery helper into a long-lived gRPC
// connection, in the manner of the teacher's container package reusing
// one long-lived client per chain.
package union

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	cmtservice "github.com/cosmos/cosmos-sdk/client/grpc/cmtservice"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	rpchttp "github.com/cometbft/cometbft/rpc/client/http"

	clienttypes "github.com/cosmos/ibc-go/v11/modules/core/02-client/types"
	connectiontypes "github.com/cosmos/ibc-go/v11/modules/core/03-connection/types"
	channeltypes "github.com/cosmos/ibc-go/v11/modules/core/04-channel/types"

	"github.com/cosmos/voyager-eureka/internal/chain"
	"github.com/cosmos/voyager-eureka/internal/message"
)

// Config configures one Union/Cosmos chain adapter instance.
type Config struct {
	ChainID              message.ChainID
	RPC                  string
	GRPC                 string
	CounterpartyKind     message.LightClientKind
	CounterpartyChainID  message.ChainID
	CounterpartyClientID message.ClientID
	SignerMnemonic       string
}

// Adapter is the union-side chain.Adapter implementation.
type Adapter struct {
	cfg    Config
	rpc    *rpchttp.HTTP
	conn   *grpc.ClientConn
	cdc    *codec.ProtoCodec
	signer *signer
	log    *zap.Logger
}

// Dial connects the CometBFT RPC client used for event subscription and
// block queries, and a plain gRPC connection used for ibc-go/bank
// query clients, mirroring e2esuite.GRPCQuery's pattern of a reusable
// *grpc.ClientConn per chain. SignerMnemonic, if set, derives the
// account this adapter broadcasts transactions from.
func Dial(ctx context.Context, cfg Config, log *zap.Logger) (*Adapter, error) {
	rpcClient, err := rpchttp.New(cfg.RPC, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("union: dial rpc: %w", err)
	}
	if err := rpcClient.Start(); err != nil {
		return nil, fmt.Errorf("union: start rpc client: %w", err)
	}

	conn, err := grpc.NewClient(cfg.GRPC, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("union: dial grpc: %w", err)
	}

	registry := codectypes.NewInterfaceRegistry()
	authtypes.RegisterInterfaces(registry)
	cdc := codec.NewProtoCodec(registry)

	var sig *signer
	if cfg.SignerMnemonic != "" {
		sig, err = newSigner(cfg.SignerMnemonic)
		if err != nil {
			return nil, fmt.Errorf("union: %w", err)
		}
	}

	return &Adapter{cfg: cfg, rpc: rpcClient, conn: conn, cdc: cdc, signer: sig, log: log}, nil
}

func (a *Adapter) ChainID() message.ChainID { return a.cfg.ChainID }

func (a *Adapter) LightClient() message.LightClientKind { return a.cfg.CounterpartyKind }

func (a *Adapter) LatestHeight(ctx context.Context) (message.Height, error) {
	status, err := a.rpc.Status(ctx)
	if err != nil {
		return message.Height{}, fmt.Errorf("union: status: %w", err)
	}
	return message.Height{RevisionNumber: 0, RevisionHeight: uint64(status.SyncInfo.LatestBlockHeight)}, nil
}

func (a *Adapter) LatestTimestamp(ctx context.Context) (time.Time, error) {
	status, err := a.rpc.Status(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("union: status: %w", err)
	}
	return status.SyncInfo.LatestBlockTime, nil
}

func (a *Adapter) header(ctx context.Context, height message.Height) (*cmtservice.Header, error) {
	client := cmtservice.NewServiceClient(a.conn)
	h := int64(height.RevisionHeight)
	resp, err := client.GetBlockByHeight(ctx, &cmtservice.GetBlockByHeightRequest{Height: h})
	if err != nil {
		return nil, fmt.Errorf("union: get block by height: %w", err)
	}
	return &resp.SdkBlock.Header, nil
}

func (a *Adapter) SelfClientState(ctx context.Context, height message.Height) (message.Data, error) {
	h, err := a.header(ctx, height)
	if err != nil {
		return nil, err
	}
	return message.SelfClientState{
		Base:   message.Base{Chain: a.cfg.ChainID},
		Height: height,
		Bytes:  []byte(fmt.Sprintf(`{"chain_id":%q,"validators_hash":%q}`, h.ChainID, h.ValidatorsHash.String())),
	}, nil
}

func (a *Adapter) SelfConsensusState(ctx context.Context, height message.Height) (message.Data, error) {
	h, err := a.header(ctx, height)
	if err != nil {
		return nil, err
	}
	return message.SelfConsensusState{
		Base:   message.Base{Chain: a.cfg.ChainID},
		Height: height,
		Bytes:  []byte(fmt.Sprintf(`{"root":%q,"time":%q}`, h.AppHash.String(), h.Time.Format(time.RFC3339))),
	}, nil
}

func (a *Adapter) ClientState(ctx context.Context, clientID message.ClientID) (message.Data, error) {
	qc := clienttypes.NewQueryClient(a.conn)
	stateResp, err := qc.ClientState(ctx, &clienttypes.QueryClientStateRequest{ClientId: string(clientID)})
	if err != nil {
		return nil, fmt.Errorf("union: query client state: %w", err)
	}
	heightsResp, err := qc.ConsensusStateHeights(ctx, &clienttypes.QueryConsensusStateHeightsRequest{ClientId: string(clientID)})
	if err != nil {
		return nil, fmt.Errorf("union: query consensus state heights: %w", err)
	}

	var trusted message.Height
	for _, h := range heightsResp.ConsensusStateHeights {
		if h.RevisionHeight > trusted.RevisionHeight {
			trusted = message.Height{RevisionNumber: h.RevisionNumber, RevisionHeight: h.RevisionHeight}
		}
	}

	return message.TrustedClientState{
		Base:                 message.Base{Chain: a.cfg.ChainID},
		ClientID:             clientID,
		CounterpartyChainID:  a.cfg.CounterpartyChainID,
		CounterpartyClientID: a.cfg.CounterpartyClientID,
		TrustedHeight:        trusted,
		Bytes:                stateResp.ClientState.Value,
	}, nil
}

// ConnectionEnd reads the decoded connection handshake state via
// ibc-go v11's 03-connection query service, the same QueryConnection
// RPC the module's own CLI/relayer clients use.
func (a *Adapter) ConnectionEnd(ctx context.Context, connectionID message.ConnectionID, height message.Height) (message.Data, error) {
	qc := connectiontypes.NewQueryClient(a.conn)
	resp, err := qc.Connection(ctx, &connectiontypes.QueryConnectionRequest{ConnectionId: string(connectionID)})
	if err != nil {
		return nil, fmt.Errorf("union: query connection %s: %w", connectionID, err)
	}
	conn := resp.Connection
	return message.ConnectionEnd{
		Base:                 message.Base{Chain: a.cfg.ChainID},
		ConnectionID:         connectionID,
		ClientID:             message.ClientID(conn.ClientId),
		CounterpartyID:       message.ConnectionID(conn.Counterparty.ConnectionId),
		CounterpartyClientID: message.ClientID(conn.Counterparty.ClientId),
		State:                conn.State.String(),
	}, nil
}

// ChannelEnd reads the decoded channel handshake state via ibc-go
// v11's 04-channel query service.
func (a *Adapter) ChannelEnd(ctx context.Context, portID message.PortID, channelID message.ChannelID, height message.Height) (message.Data, error) {
	qc := channeltypes.NewQueryClient(a.conn)
	resp, err := qc.Channel(ctx, &channeltypes.QueryChannelRequest{PortId: string(portID), ChannelId: string(channelID)})
	if err != nil {
		return nil, fmt.Errorf("union: query channel %s/%s: %w", portID, channelID, err)
	}
	ch := resp.Channel
	hops := make([]message.ConnectionID, len(ch.ConnectionHops))
	for i, h := range ch.ConnectionHops {
		hops[i] = message.ConnectionID(h)
	}
	return message.ChannelEnd{
		Base:             message.Base{Chain: a.cfg.ChainID},
		PortID:           portID,
		ChannelID:        channelID,
		ConnectionHops:   hops,
		CounterpartyPort: message.PortID(ch.Counterparty.PortId),
		CounterpartyChan: message.ChannelID(ch.Counterparty.ChannelId),
		State:            ch.State.String(),
		Version:          ch.Version,
	}, nil
}

func (a *Adapter) StateProof(ctx context.Context, path message.Path, height message.Height) (chain.StateProofResult, error) {
	storeKey := ibcStoreKeyForPath(path)
	h := int64(height.RevisionHeight)
	result, err := a.rpc.ABCIQueryWithOptions(ctx, storeKey.path, storeKey.data, abciProveOpts(h))
	if err != nil {
		return chain.StateProofResult{}, fmt.Errorf("union: abci query: %w", err)
	}
	if result.Response.Code != 0 {
		return chain.StateProofResult{}, fmt.Errorf("union: abci query returned code %d: %s", result.Response.Code, result.Response.Log)
	}
	proofBz, err := result.Response.ProofOps.Marshal()
	if err != nil {
		return chain.StateProofResult{}, fmt.Errorf("union: marshal proof ops: %w", err)
	}
	return chain.StateProofResult{
		Height: height,
		Proof:  proofBz,
		Value:  result.Response.Value,
	}, nil
}

func (a *Adapter) ReadAck(ctx context.Context, portID message.PortID, channelID message.ChannelID, sequence message.PacketSequence) ([]byte, bool, error) {
	path := message.AcknowledgementPath{PortID: portID, ChannelID: channelID, Sequence: sequence}
	store := ibcStoreKeyForPath(path)
	h, err := a.LatestHeight(ctx)
	if err != nil {
		return nil, false, err
	}
	result, err := a.rpc.ABCIQueryWithOptions(ctx, store.path, store.data, abciProveOpts(int64(h.RevisionHeight)))
	if err != nil {
		return nil, false, fmt.Errorf("union: abci query ack: %w", err)
	}
	if result.Response.Code != 0 || len(result.Response.Value) == 0 {
		return nil, false, nil
	}
	return result.Response.Value, true, nil
}

func (a *Adapter) Events(ctx context.Context, lc message.LightClientKind, fromHeight message.Height) (<-chan chain.ChainEvent, error) {
	out := make(chan chain.ChainEvent)
	go a.pollEvents(ctx, lc, fromHeight, out)
	return out, nil
}

func (a *Adapter) pollEvents(ctx context.Context, lc message.LightClientKind, from message.Height, out chan<- chain.ChainEvent) {
	defer close(out)
	ticker := time.NewTicker(1500 * time.Millisecond)
	defer ticker.Stop()
	next := int64(from.RevisionHeight)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, err := a.rpc.Status(ctx)
			if err != nil {
				a.log.Warn("union: poll status failed", zap.Error(err))
				continue
			}
			for h := next; h <= status.SyncInfo.LatestBlockHeight; h++ {
				results, err := a.rpc.BlockResults(ctx, &h)
				if err != nil {
					a.log.Warn("union: block results failed", zap.Int64("height", h), zap.Error(err))
					break
				}
				for _, ev := range decodeIBCEvents(results) {
					select {
					case out <- chain.ChainEvent{
						ChainID:     a.cfg.ChainID,
						LightClient: lc,
						Height:      message.Height{RevisionHeight: uint64(h)},
						Event:       ev,
					}:
					case <-ctx.Done():
						return
					}
				}
				next = h + 1
			}
		}
	}
}

// GenerateCounterpartyUpdates builds a CometBLS header update for the
// EVM counterparty's light client out of the signed header and
// validator set at targetHeight, the same commit+validator-set pair
// e2e/interchaintestv8/cosmos's test fixtures assemble a header from,
// gogoproto-marshaled and JSON-wrapped the way the rest of this
// package leaves Data.Bytes as an opaque blob for the destination
// chain's light client module to interpret.
func (a *Adapter) GenerateCounterpartyUpdates(ctx context.Context, lc message.LightClientKind, trustedHeight, targetHeight message.Height) ([]message.Data, error) {
	h := int64(targetHeight.RevisionHeight)

	commit, err := a.rpc.Commit(ctx, &h)
	if err != nil {
		return nil, fmt.Errorf("union: commit at height %d: %w", h, err)
	}

	page, perPage := 1, 10_000
	vals, err := a.rpc.Validators(ctx, &h, &page, &perPage)
	if err != nil {
		return nil, fmt.Errorf("union: validators at height %d: %w", h, err)
	}
	valSet := cmttypes.NewValidatorSet(vals.Validators)

	headerProto, err := commit.SignedHeader.Header.ToProto()
	if err != nil {
		return nil, fmt.Errorf("union: header to proto: %w", err)
	}
	headerBz, err := headerProto.Marshal()
	if err != nil {
		return nil, fmt.Errorf("union: marshal header: %w", err)
	}
	commitBz, err := commit.SignedHeader.Commit.ToProto().Marshal()
	if err != nil {
		return nil, fmt.Errorf("union: marshal commit: %w", err)
	}
	valSetProto, err := valSet.ToProto()
	if err != nil {
		return nil, fmt.Errorf("union: validator set to proto: %w", err)
	}
	valSetBz, err := valSetProto.Marshal()
	if err != nil {
		return nil, fmt.Errorf("union: marshal validator set: %w", err)
	}

	payload := struct {
		Header     []byte `json:"header"`
		Commit     []byte `json:"commit"`
		Validators []byte `json:"validator_set"`
	}{Header: headerBz, Commit: commitBz, Validators: valSetBz}
	bz, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("union: marshal header update: %w", err)
	}

	return []message.Data{message.BeaconLightClientUpdate{
		Base:   message.Base{Chain: a.cfg.ChainID},
		Period: targetHeight.RevisionHeight,
		Bytes:  bz,
	}}, nil
}

// variantHolder recovers the concrete message.MsgVariant a
// chain.IBCMsg wraps, without this package importing the reducer
// package that defines the concrete ibcMsg type. Mirrors the evm
// adapter's identically-named, independently-defined interface.
type variantHolder interface {
	Variant() message.MsgVariant
}

func (a *Adapter) SubmitMsg(ctx context.Context, msg chain.IBCMsg) chain.SubmitResult {
	holder, ok := msg.(variantHolder)
	if !ok {
		return chain.SubmitResult{Err: fmt.Errorf("union: msg %s: not a variant holder", msg.Kind())}
	}
	sdkMsg, err := a.buildMsg(holder.Variant())
	if err != nil {
		return chain.SubmitResult{Err: fmt.Errorf("union: build msg %s: %w", msg.Kind(), err)}
	}
	height, err := a.broadcast(ctx, sdkMsg)
	if err != nil {
		return chain.SubmitResult{Err: fmt.Errorf("union: submit %s: %w", msg.Kind(), err)}
	}
	return chain.SubmitResult{Height: message.Height{RevisionHeight: height}}
}
