// Package chain defines the boundary between the reducer's pure
// dispatch and the two concrete chains it relays between (spec.md
// §4.2): an EVM chain verified by a CometBLS light client, and a
// Cosmos/Union chain verified by an Ethereum light client. Each side
// implements Adapter; the reducer never imports evm or union directly.
package chain

import (
	"context"
	"time"

	"github.com/cosmos/voyager-eureka/internal/message"
)

// ChainEvent is what an Adapter's event subscription yields: one IBC
// event at one height on one chain, still tagged with the light client
// kind that secures the counterparty.
type ChainEvent struct {
	ChainID     message.ChainID
	LightClient message.LightClientKind
	Height      message.Height
	Event       message.Event
}

// StateProofResult is the uniform shape every *Proof fetch resolves
// to: raw proof bytes plus the height they were taken at, wrapped by
// the caller into the specific message.Data variant (spec.md §4.2's
// StateProof return value).
type StateProofResult struct {
	Height message.Height
	Proof  []byte
	Value  []byte
}

// SubmitResult reports what happened after broadcasting msgs: either a
// height the effect landed at, or the submission error as the adapter
// saw it. The reducer's classifySubmitError sorts that error into a
// recoverable or fatal submit error by its text ("already exists"-style
// reverts become recoverable).
type SubmitResult struct {
	Height message.Height
	Err    error
}

// IBCMsg is the adapter-facing counterpart of message.MsgVariant: a
// fully resolved protobuf/ABI-ready payload, built by the reducer from
// a MsgVariant plus whatever Data it has accumulated, and handed to
// Adapter.SubmitMsg for broadcast. Concrete shapes live in the evm and
// union packages; this interface only carries enough to log and route.
type IBCMsg interface {
	Kind() string
	DestinationChain() message.ChainID
}

// Adapter is the per-chain capability surface the reducer dispatches
// Fetch/Msg/Wait bodies through (spec.md §4.2). Events and
// GenerateCounterpartyUpdates take the LightClientKind they act on
// behalf of, since a single chain adapter instance may back more than
// one counterparty light client variant (e.g. a Union chain backing
// both CometblsMainnet and CometblsMinimal on its EVM side); the other
// methods are chain-scoped and take no LightClientKind.
type Adapter interface {
	ChainID() message.ChainID

	// LightClient reports the light-client kind this adapter instance
	// watches on behalf of (the client instance deployed on this chain
	// tracking its counterparty), so the ingress fan-in can start one
	// Events subscription per registered adapter without a chain-
	// specific type switch.
	LightClient() message.LightClientKind

	// LatestHeight returns the chain's current tip.
	LatestHeight(ctx context.Context) (message.Height, error)

	// LatestTimestamp returns the block time of the chain's tip,
	// used to resolve WaitForTimestamp.
	LatestTimestamp(ctx context.Context) (time.Time, error)

	// SelfClientState builds this chain's own client state/consensus
	// state as seen at height, for use by the counterparty's
	// CreateClient/UpdateClient (spec.md's SelfClientState/
	// SelfConsensusState Data variants).
	SelfClientState(ctx context.Context, height message.Height) (message.Data, error)
	SelfConsensusState(ctx context.Context, height message.Height) (message.Data, error)

	// ClientState reads back a counterparty light client's state as
	// currently tracked on this chain (TrustedClientState).
	ClientState(ctx context.Context, clientID message.ClientID) (message.Data, error)

	// ConnectionEnd and ChannelEnd read back the decoded connection/
	// channel handshake state itself (not a proof of it), used by
	// FetchConnectionEnd/FetchChannelEnd to resolve e.g.
	// connection_hops[0] during handshake continuation.
	ConnectionEnd(ctx context.Context, connectionID message.ConnectionID, height message.Height) (message.Data, error)
	ChannelEnd(ctx context.Context, portID message.PortID, channelID message.ChannelID, height message.Height) (message.Data, error)

	// StateProof produces a Merkle proof for one of the standard IBC
	// store paths at height (ClientState/Consensus/Connection/Channel/
	// Commitment/Acknowledgement), per spec.md's ProofHeightOffset
	// convention -- callers add the offset before calling in, this
	// method proves exactly the height it is given.
	StateProof(ctx context.Context, path message.Path, height message.Height) (StateProofResult, error)

	// ReadAck fetches a packet acknowledgement already written on this
	// chain, if present.
	ReadAck(ctx context.Context, portID message.PortID, channelID message.ChannelID, sequence message.PacketSequence) ([]byte, bool, error)

	// Events streams chain events from fromHeight onward until ctx is
	// cancelled. Implementations poll or subscribe as fits the
	// underlying client and emit strictly increasing heights.
	Events(ctx context.Context, lc message.LightClientKind, fromHeight message.Height) (<-chan ChainEvent, error)

	// GenerateCounterpartyUpdates produces the chain-specific update
	// headers a counterparty light client needs to advance from
	// trustedHeight to targetHeight (spec.md's FetchUpdateHeaders /
	// BeaconLightClientUpdate, BeaconFinalityUpdate families).
	GenerateCounterpartyUpdates(ctx context.Context, lc message.LightClientKind, trustedHeight, targetHeight message.Height) ([]message.Data, error)

	// SubmitMsg broadcasts one IBCMsg and reports where/how it landed.
	SubmitMsg(ctx context.Context, msg IBCMsg) SubmitResult
}
