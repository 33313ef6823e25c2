package reducer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cosmos/voyager-eureka/internal/chain"
	"github.com/cosmos/voyager-eureka/internal/message"
	"github.com/cosmos/voyager-eureka/internal/reducer"
)

// fakeAdapter is a minimal chain.Adapter double, just enough to drive
// the choreography rows this file exercises: the TrustedClientState/
// BeaconLightClientUpdate/StateProof fetches the connection-handshake
// path needs, plus SubmitMsg recording what finally got submitted.
type fakeAdapter struct {
	chainID    message.ChainID
	lc         message.LightClientKind
	latest     message.Height
	clientStates map[message.ClientID]message.TrustedClientState
	submitted  []chain.IBCMsg
}

func (a *fakeAdapter) ChainID() message.ChainID                 { return a.chainID }
func (a *fakeAdapter) LightClient() message.LightClientKind     { return a.lc }
func (a *fakeAdapter) LatestHeight(ctx context.Context) (message.Height, error) {
	return a.latest, nil
}
func (a *fakeAdapter) LatestTimestamp(ctx context.Context) (time.Time, error) {
	return time.Unix(0, 0), nil
}
func (a *fakeAdapter) SelfClientState(ctx context.Context, height message.Height) (message.Data, error) {
	return message.SelfClientState{Base: message.Base{Chain: a.chainID}, Height: height}, nil
}
func (a *fakeAdapter) SelfConsensusState(ctx context.Context, height message.Height) (message.Data, error) {
	return message.SelfConsensusState{Base: message.Base{Chain: a.chainID}, Height: height}, nil
}
func (a *fakeAdapter) ClientState(ctx context.Context, clientID message.ClientID) (message.Data, error) {
	trusted, ok := a.clientStates[clientID]
	if !ok {
		return nil, errNoSuchClient(clientID)
	}
	return trusted, nil
}
func (a *fakeAdapter) ConnectionEnd(ctx context.Context, connectionID message.ConnectionID, height message.Height) (message.Data, error) {
	return nil, nil
}
func (a *fakeAdapter) ChannelEnd(ctx context.Context, portID message.PortID, channelID message.ChannelID, height message.Height) (message.Data, error) {
	return nil, nil
}
func (a *fakeAdapter) StateProof(ctx context.Context, path message.Path, height message.Height) (chain.StateProofResult, error) {
	return chain.StateProofResult{Height: height, Proof: []byte("proof:" + path.Kind()), Value: []byte("value")}, nil
}
func (a *fakeAdapter) ReadAck(ctx context.Context, portID message.PortID, channelID message.ChannelID, seq message.PacketSequence) ([]byte, bool, error) {
	return nil, false, nil
}
func (a *fakeAdapter) Events(ctx context.Context, lc message.LightClientKind, fromHeight message.Height) (<-chan chain.ChainEvent, error) {
	return nil, nil
}
func (a *fakeAdapter) GenerateCounterpartyUpdates(ctx context.Context, lc message.LightClientKind, trustedHeight, targetHeight message.Height) ([]message.Data, error) {
	return []message.Data{message.BeaconLightClientUpdate{Base: message.Base{Chain: a.chainID}, Period: targetHeight.RevisionHeight, Bytes: []byte("header")}}, nil
}
func (a *fakeAdapter) SubmitMsg(ctx context.Context, msg chain.IBCMsg) chain.SubmitResult {
	a.submitted = append(a.submitted, msg)
	return chain.SubmitResult{Height: a.latest}
}

type noSuchClientErr struct{ clientID message.ClientID }

func (e *noSuchClientErr) Error() string { return "no such client: " + string(e.clientID) }
func errNoSuchClient(id message.ClientID) error { return &noSuchClientErr{clientID: id} }

// runToCompletion drives Dispatch as a FIFO queue the way internal/engine
// would, popping one message at a time and enqueuing its successors,
// until the queue is empty or maxSteps is exceeded.
//
// Submissions themselves never surface as a bare top-level message here:
// an Aggregate's final Msg successor is produced and re-dispatched
// entirely within the recursive Dispatch call that unwraps its parent
// Sequence, so SubmitMsg fires as a side effect several stack frames
// below whatever this loop popped as head. Callers assert against the
// adapter's recorded submissions, not against anything this returns.
func runToCompletion(t *testing.T, reg *chain.Registry, start message.Message, maxSteps int) {
	t.Helper()
	log := zap.NewNop()
	queue := []message.Message{start}

	for step := 0; len(queue) > 0; step++ {
		require.Lessf(t, step, maxSteps, "did not converge within %d steps", maxSteps)
		head, tail := queue[0], queue[1:]
		queue = tail

		successors, err := reducer.Dispatch(t.Context(), reg, log, head)
		require.NoError(t, err)
		queue = append(queue, successors...)
	}
}

// variantHolder matches the unexported ibcMsg type reducer/msg.go hands
// back from SubmitMsg: chain.IBCMsg only exposes Kind/DestinationChain,
// but ibcMsg also carries the assembled MsgVariant via this exported
// accessor, reachable from outside the package by structural interface
// satisfaction.
type variantHolder interface {
	Variant() message.MsgVariant
}

func TestConnectionOpenInitChoreographyProducesConnectionOpenTry(t *testing.T) {
	const (
		chainA = message.ChainID("evm-1")
		chainB = message.ChainID("union-1")
	)
	trustedHeightOnA := message.Height{RevisionNumber: 0, RevisionHeight: 100}
	trustedHeightOnB := message.Height{RevisionNumber: 1, RevisionHeight: 50}

	a := &fakeAdapter{
		chainID: chainA,
		lc:      message.CometblsMainnet,
		latest:  message.Height{RevisionNumber: 0, RevisionHeight: 999},
		clientStates: map[message.ClientID]message.TrustedClientState{
			"07-tendermint-0": {
				Base: message.Base{Chain: chainA}, ClientID: "07-tendermint-0",
				CounterpartyChainID: chainB, CounterpartyClientID: "08-wasm-0",
				TrustedHeight: trustedHeightOnA,
			},
		},
	}
	b := &fakeAdapter{
		chainID: chainB,
		lc:      message.EthereumMainnet,
		latest:  message.Height{RevisionNumber: 1, RevisionHeight: 999},
		clientStates: map[message.ClientID]message.TrustedClientState{
			"08-wasm-0": {
				Base: message.Base{Chain: chainB}, ClientID: "08-wasm-0",
				CounterpartyChainID: chainA, CounterpartyClientID: "07-tendermint-0",
				TrustedHeight: trustedHeightOnB,
			},
		},
	}

	reg := chain.NewRegistry()
	reg.Register(a)
	reg.Register(b)

	ev := message.Event{
		Height:       message.Height{RevisionNumber: 0, RevisionHeight: 998},
		Event:        message.EventConnectionOpenInit,
		ClientID:     "07-tendermint-0",
		ConnectionID: "connection-0",
	}

	log := zap.NewNop()
	start, err := reducer.Dispatch(t.Context(), reg, log, message.NewEvent(chainA, message.CometblsMainnet, ev))
	require.NoError(t, err)
	require.Len(t, start, 1)

	runToCompletion(t, reg, start[0], 200)

	// Both the UpdateClient and the ConnectionOpenTry it unblocks must
	// land on chainB, the counterparty of the chain the OpenInit event
	// fired on: spec.md §4.4 requires the assembled message be addressed
	// to the counterparty chain, not echoed back to the origin.
	require.Empty(t, a.submitted)
	require.Len(t, b.submitted, 2)

	updateVH, ok := b.submitted[0].(variantHolder)
	require.True(t, ok)
	updateVariant, ok := updateVH.Variant().(message.MsgUpdateClient)
	require.True(t, ok)
	require.Equal(t, message.ClientID("08-wasm-0"), updateVariant.ClientID)
	require.Equal(t, chainB, b.submitted[0].DestinationChain())

	tryVH, ok := b.submitted[1].(variantHolder)
	require.True(t, ok)
	tryVariant, ok := tryVH.Variant().(message.MsgConnectionOpenTry)
	require.True(t, ok)
	require.Equal(t, message.ClientID("07-tendermint-0"), tryVariant.Counterparty.ClientID)
	require.Equal(t, message.ConnectionID("connection-0"), tryVariant.Counterparty.ConnectionID)
	require.Equal(t, ev.Height.Increment(), tryVariant.ProofHeight)
	require.Equal(t, chainB, b.submitted[1].DestinationChain())
}

// TestDispatchRetryPassesInnerSuccessorsThroughOnSuccess covers
// Retry's non-error path: once Inner succeeds, Retry itself is
// discarded and Inner's own successors pass through unwrapped.
func TestDispatchRetryPassesInnerSuccessorsThroughOnSuccess(t *testing.T) {
	reg := chain.NewRegistry()
	log := zap.NewNop()

	inner := message.DeferUntil{UnixSeconds: 0} // already due, resolves with no successors
	r := message.Retry{AttemptsLeft: 3, Backoff: time.Second, Inner: inner}

	successors, err := reducer.Dispatch(t.Context(), reg, log, r)
	require.NoError(t, err)
	require.Empty(t, successors)
}

// TestDispatchRetryBacksOffOnError covers spec.md §7's bounded-retry
// rule: a ChainQueryError (an unregistered chain, here) re-emits Retry
// with one fewer attempt and a doubled backoff, wrapped behind a
// DeferUntil rather than propagating as a fatal error.
func TestDispatchRetryBacksOffOnError(t *testing.T) {
	reg := chain.NewRegistry() // no chains registered, so any Fetch errors
	log := zap.NewNop()

	inner := message.NewFetch("missing-chain", message.CometblsMainnet, message.FetchSelfClientState{At: message.Latest()})
	r := message.Retry{AttemptsLeft: 2, Backoff: time.Second, Inner: inner}

	successors, err := reducer.Dispatch(t.Context(), reg, log, r)
	require.NoError(t, err)
	require.Len(t, successors, 1)

	seq, ok := successors[0].(message.Sequence)
	require.True(t, ok)
	require.Len(t, seq.Messages, 2)
	require.IsType(t, message.DeferUntil{}, seq.Messages[0])

	retried, ok := seq.Messages[1].(message.Retry)
	require.True(t, ok)
	require.Equal(t, 1, retried.AttemptsLeft)
	require.Equal(t, 2*time.Second, retried.Backoff)
}

// TestDispatchRetryFailsOnExhaustion covers the AttemptsLeft == 0 edge
// case: no further Retry is emitted and the last error is returned, so
// the engine stops instead of retrying forever.
func TestDispatchRetryFailsOnExhaustion(t *testing.T) {
	reg := chain.NewRegistry()
	log := zap.NewNop()

	inner := message.NewFetch("missing-chain", message.CometblsMainnet, message.FetchSelfClientState{At: message.Latest()})
	r := message.Retry{AttemptsLeft: 0, Backoff: time.Second, Inner: inner}

	successors, err := reducer.Dispatch(t.Context(), reg, log, r)
	require.Error(t, err)
	require.Empty(t, successors)
}
