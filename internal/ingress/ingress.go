// Package ingress is the concurrent producer side of the engine: one
// goroutine per registered chain adapter's event subscription, plus the
// operator command stream, merged into a single Enqueue call per item
// so the single-writer queue never sees concurrent writers racing each
// other (spec.md §5). Modeled directly on the teacher's
// eventloop.Start select-loop, generalized from two fixed channels
// (MonitorEvent/AttastatorEvent) to an arbitrary number of chain event
// channels plus one command channel.
package ingress

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/cosmos/voyager-eureka/internal/chain"
	"github.com/cosmos/voyager-eureka/internal/message"
	"github.com/cosmos/voyager-eureka/internal/queue"
	"github.com/cosmos/voyager-eureka/internal/reducer"
)

// UpdateClientCommand is the operator-triggered counterpart of
// spec.md §6.1's Command::UpdateClient.
type UpdateClientCommand struct {
	ChainID              message.ChainID
	LightClient          message.LightClientKind
	ClientID             message.ClientID
	CounterpartyClientID message.ClientID
}

// Command is the closed set the operator command stream carries.
type Command struct {
	UpdateClient *UpdateClientCommand
}

// StartHeights supplies the height each adapter's Events subscription
// should resume from (e.g. the chain's current tip on a cold start, or
// a persisted watermark on restart).
type StartHeights map[message.ChainID]message.Height

// Ingress fans chain events and operator commands into one Queue.
type Ingress struct {
	Registry *chain.Registry
	Queue    queue.Queue
	Log      *zap.Logger
}

// Run starts one Events subscription per registered adapter and merges
// them with commands into Enqueue calls, until ctx is canceled.
func (in *Ingress) Run(ctx context.Context, from StartHeights, commands <-chan Command) error {
	adapters := in.Registry.All()
	merged := make(chan message.Message)

	var wg sync.WaitGroup
	for _, a := range adapters {
		a := a
		start := from[a.ChainID()]
		events, err := a.Events(ctx, a.LightClient(), start)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			in.pumpEvents(ctx, events, merged)
		}()
	}

	go func() {
		wg.Wait()
		close(merged)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-merged:
			if !ok {
				merged = nil
				continue
			}
			if err := in.Queue.Enqueue(ctx, m); err != nil {
				in.Log.Error("ingress: enqueue chain event failed", zap.Error(err))
			}
		case cmd, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			in.handleCommand(ctx, cmd)
		}
	}
}

func (in *Ingress) pumpEvents(ctx context.Context, events <-chan chain.ChainEvent, out chan<- message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m := message.LightClientMessage{ChainID: ev.ChainID, LightClient: ev.LightClient, Body: ev.Event}
			select {
			case out <- m:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (in *Ingress) handleCommand(ctx context.Context, cmd Command) {
	if cmd.UpdateClient == nil {
		in.Log.Warn("ingress: empty command received, ignoring")
		return
	}
	c := cmd.UpdateClient
	m := reducer.CommandUpdateClient(c.ChainID, c.LightClient, c.ClientID, c.CounterpartyClientID)
	if err := in.Queue.Enqueue(ctx, m); err != nil {
		in.Log.Error("ingress: enqueue command failed", zap.Error(err))
	}
}
