package ingress_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cosmos/voyager-eureka/internal/chain"
	"github.com/cosmos/voyager-eureka/internal/ingress"
	"github.com/cosmos/voyager-eureka/internal/message"
	"github.com/cosmos/voyager-eureka/internal/queue"
)

// fakeAdapter streams a fixed slice of ChainEvent over Events and never
// submits anything; only the methods ingress.Run actually calls are
// implemented beyond the embedded nil Adapter.
type fakeAdapter struct {
	chain.Adapter
	chainID message.ChainID
	lc      message.LightClientKind
	events  chan chain.ChainEvent
}

func (a *fakeAdapter) ChainID() message.ChainID             { return a.chainID }
func (a *fakeAdapter) LightClient() message.LightClientKind { return a.lc }
func (a *fakeAdapter) Events(ctx context.Context, lc message.LightClientKind, from message.Height) (<-chan chain.ChainEvent, error) {
	return a.events, nil
}

// fakeQueue records every Enqueue call under a mutex so the test
// goroutine can inspect it safely once ingress.Run's goroutines quiesce.
type fakeQueue struct {
	mu   sync.Mutex
	msgs []message.Message
}

func (q *fakeQueue) Enqueue(_ context.Context, msgs ...message.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msgs...)
	return nil
}
func (q *fakeQueue) Process(ctx context.Context, h queue.Handler) error { return nil }
func (q *fakeQueue) Close() error                                      { return nil }

func (q *fakeQueue) snapshot() []message.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]message.Message, len(q.msgs))
	copy(out, q.msgs)
	return out
}

func TestIngressRunEnqueuesChainEventsAsLightClientMessages(t *testing.T) {
	reg := chain.NewRegistry()
	events := make(chan chain.ChainEvent, 1)
	a := &fakeAdapter{chainID: "evm-1", lc: message.CometblsMainnet, events: events}
	reg.Register(a)

	q := &fakeQueue{}
	in := &ingress.Ingress{Registry: reg, Queue: q, Log: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	commands := make(chan ingress.Command)

	done := make(chan error, 1)
	go func() { done <- in.Run(ctx, ingress.StartHeights{}, commands) }()

	ev := chain.ChainEvent{
		ChainID:     "evm-1",
		LightClient: message.CometblsMainnet,
		Height:      message.Height{RevisionHeight: 10},
		Event:       message.Event{Event: message.EventConnectionOpenInit},
	}
	events <- ev

	require.Eventually(t, func() bool { return len(q.snapshot()) == 1 }, time.Second, time.Millisecond)

	cancel()
	err := <-done
	require.ErrorIs(t, err, context.Canceled)

	got := q.snapshot()
	require.Len(t, got, 1)
	lcm, ok := got[0].(message.LightClientMessage)
	require.True(t, ok)
	require.Equal(t, message.ChainID("evm-1"), lcm.ChainID)
	require.Equal(t, message.CometblsMainnet, lcm.LightClient)
	require.Equal(t, message.EventConnectionOpenInit, lcm.Body.(message.Event).Event)
}

func TestIngressRunEnqueuesOperatorCommand(t *testing.T) {
	reg := chain.NewRegistry()
	q := &fakeQueue{}
	in := &ingress.Ingress{Registry: reg, Queue: q, Log: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	commands := make(chan ingress.Command, 1)

	done := make(chan error, 1)
	go func() { done <- in.Run(ctx, ingress.StartHeights{}, commands) }()

	commands <- ingress.Command{UpdateClient: &ingress.UpdateClientCommand{
		ChainID: "evm-1", LightClient: message.CometblsMainnet,
		ClientID: "07-tendermint-0", CounterpartyClientID: "08-wasm-0",
	}}

	require.Eventually(t, func() bool { return len(q.snapshot()) == 1 }, time.Second, time.Millisecond)

	cancel()
	<-done

	got := q.snapshot()
	require.Len(t, got, 1)
	_, ok := got[0].(message.Aggregate)
	require.True(t, ok, "CommandUpdateClient builds an Aggregate wrapping the trusted-state fetch")
}

func TestIngressRunIgnoresEmptyCommand(t *testing.T) {
	reg := chain.NewRegistry()
	q := &fakeQueue{}
	in := &ingress.Ingress{Registry: reg, Queue: q, Log: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	commands := make(chan ingress.Command, 1)

	done := make(chan error, 1)
	go func() { done <- in.Run(ctx, ingress.StartHeights{}, commands) }()

	commands <- ingress.Command{}
	time.Sleep(20 * time.Millisecond)

	cancel()
	<-done

	require.Empty(t, q.snapshot())
}
