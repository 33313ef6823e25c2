package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cosmos/voyager-eureka/internal/chain"
	"github.com/cosmos/voyager-eureka/internal/message"
	"github.com/cosmos/voyager-eureka/internal/queue"
	"github.com/cosmos/voyager-eureka/internal/reducer"
)

func newTestEngine() *Engine {
	return &Engine{
		Queue:    queue.NewInMemory(),
		Registry: chain.NewRegistry(),
		Log:      zap.NewNop(),
	}
}

// TestEngineRunStopsOnContextCancel covers the idle-tick path: an empty
// queue just waits for either work or ctx.Done, never busy-loops.
func TestEngineRunStopsOnContextCancel(t *testing.T) {
	e := newTestEngine()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := e.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestClassifyRecoverableSubmitErrorDropsSilently covers spec.md §7's
// ChainSubmitRecoverableError branch: logged and dropped, never
// propagated or retried.
func TestClassifyRecoverableSubmitErrorDropsSilently(t *testing.T) {
	e := newTestEngine()
	m := message.NewMsg("evm-1", message.CometblsMainnet, message.MsgUpdateClient{ClientID: "07-tendermint-0"})

	result := e.classify(m, &reducer.ChainSubmitRecoverableError{Err: errors.New("connection already exists")})
	require.Equal(t, queue.FlowSuccess, result.Flow)
	require.Empty(t, result.Messages)
}

// TestClassifyChainQueryErrorConvertsToBoundedRetry covers spec.md §7's
// explicit redesign: a ChainQueryError becomes Sequence[DeferUntil,
// Retry{AttemptsLeft: queryRetryAttempts}] rather than propagating.
func TestClassifyChainQueryErrorConvertsToBoundedRetry(t *testing.T) {
	e := newTestEngine()
	m := message.NewFetch("no-such-chain", message.CometblsMainnet, message.FetchSelfClientState{At: message.Latest()})

	result := e.classify(m, &reducer.ChainQueryError{Err: errors.New("rpc timeout")})
	require.Equal(t, queue.FlowSuccess, result.Flow)
	require.Len(t, result.Messages, 1)

	seq, ok := result.Messages[0].(message.Sequence)
	require.True(t, ok)
	require.Len(t, seq.Messages, 2)
	require.IsType(t, message.DeferUntil{}, seq.Messages[0])

	retry, ok := seq.Messages[1].(message.Retry)
	require.True(t, ok)
	require.Equal(t, queryRetryAttempts, retry.AttemptsLeft)
	require.Equal(t, queryRetryBackoff, retry.Backoff)
	require.Equal(t, m, retry.Inner)
}

// TestClassifyOtherErrorsAreFatal covers the default branch of the
// policy table: anything not explicitly named recoverable or a query
// error propagates as FlowFail.
func TestClassifyOtherErrorsAreFatal(t *testing.T) {
	e := newTestEngine()
	m := message.NewMsg("evm-1", message.CometblsMainnet, message.MsgUpdateClient{ClientID: "07-tendermint-0"})

	result := e.classify(m, &reducer.ChainSubmitFatalError{Err: errors.New("boom")})
	require.Equal(t, queue.FlowFail, result.Flow)
	require.Error(t, result.Err)
}

// TestEngineHandleRunsDispatchAndWrapsSuccessors covers handle's plain
// passthrough: a successful Dispatch call's successors become a
// FlowSuccess result unchanged.
func TestEngineHandleRunsDispatchAndWrapsSuccessors(t *testing.T) {
	e := newTestEngine()

	result := e.handle(context.Background(), message.DeferUntil{UnixSeconds: 0})
	require.Equal(t, queue.FlowSuccess, result.Flow)
	require.Empty(t, result.Messages)
}

// TestEngineHandleClassifiesDispatchErrors covers handle's error path
// end to end: dispatching against an unregistered chain surfaces
// reducer's ChainQueryError, which handle must route through classify
// rather than returning raw.
func TestEngineHandleClassifiesDispatchErrors(t *testing.T) {
	e := newTestEngine()
	m := message.NewFetch("no-such-chain", message.CometblsMainnet, message.FetchSelfClientState{At: message.Latest()})

	result := e.handle(context.Background(), m)
	require.Equal(t, queue.FlowSuccess, result.Flow)
	require.Len(t, result.Messages, 1)
	require.IsType(t, message.Sequence{}, result.Messages[0])
}

// TestEngineRunStopsOnFatalDispatchError drives Run end to end: a
// submit failure classifySubmitError treats as fatal must surface as
// Run's returned error, matching spec.md §5's expectation that a
// FlowFail return is treated as fatal and restarted by a supervisor.
type fatalAdapter struct{ chain.Adapter }

func (fatalAdapter) ChainID() message.ChainID             { return "evm-1" }
func (fatalAdapter) LightClient() message.LightClientKind { return message.CometblsMainnet }
func (fatalAdapter) SubmitMsg(ctx context.Context, msg chain.IBCMsg) chain.SubmitResult {
	return chain.SubmitResult{Err: errors.New("boom: rpc unavailable")}
}

func TestEngineRunStopsOnFatalDispatchError(t *testing.T) {
	e := newTestEngine()
	e.Registry.Register(fatalAdapter{})

	msg := message.NewMsg("evm-1", message.CometblsMainnet, message.MsgUpdateClient{ClientID: "07-tendermint-0"})
	require.NoError(t, e.Queue.Enqueue(context.Background(), msg))

	err := e.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom: rpc unavailable")
}
