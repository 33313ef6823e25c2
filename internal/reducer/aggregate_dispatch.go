package reducer

import (
	"context"

	"go.uber.org/zap"

	"github.com/cosmos/voyager-eureka/internal/chain"
	"github.com/cosmos/voyager-eureka/internal/message"
)

// dispatchAggregate implements spec.md §4.3's Aggregate rule: pop one
// message off Queue, dispatch it one step, partition its successors
// into Data that matches the receiver's schema (moved into Data) and
// everything else (pushed back onto the tail of Queue), then re-emit
// the updated Aggregate. A nil schema accepts every Data kind. Once
// Queue is empty, Receiver.Aggregate(Data) runs.
func dispatchAggregate(ctx context.Context, reg *chain.Registry, log *zap.Logger, a message.Aggregate) ([]message.Message, error) {
	if len(a.Queue) == 0 {
		if err := checkSchema(a.Receiver.Schema(), a.Data); err != nil {
			return nil, err
		}
		result, err := a.Receiver.Aggregate(a.Data)
		if err != nil {
			return nil, err
		}
		return []message.Message{result}, nil
	}

	head, tail := a.Queue[0], a.Queue[1:]
	successors, err := Dispatch(ctx, reg, log, head)
	if err != nil {
		return nil, err
	}

	expected := a.Receiver.Schema()
	newData := append([]message.Data{}, a.Data...)
	newQueue := append([]message.Message{}, tail...)
	for _, s := range successors {
		if d, ok := extractData(s); ok {
			matches := expected == nil
			for _, k := range expected {
				matches = matches || k == d.Kind()
			}
			if matches {
				newData = append(newData, d)
				continue
			}
		}
		newQueue = append(newQueue, s)
	}

	return []message.Message{message.Aggregate{Queue: newQueue, Data: newData, Receiver: a.Receiver}}, nil
}

// extractData unwraps a LightClientMessage{Body: DataMsg{...}} produced
// by dispatchFetch back into its raw Data, the form Aggregate.Data
// accumulates.
func extractData(m message.Message) (message.Data, bool) {
	lcm, ok := m.(message.LightClientMessage)
	if !ok {
		return nil, false
	}
	dm, ok := lcm.Body.(message.DataMsg)
	if !ok {
		return nil, false
	}
	return dm.Payload, true
}

// checkSchema enforces spec.md §3's invariant: "Aggregate.data contains
// only payloads matching the types declared by receiver's aggregation
// schema; excess or missing items are a fatal bug." Matching is by
// type, not position (spec.md §5, "aggregation is commutative over its
// inputs").
func checkSchema(expected []message.DataKind, data []message.Data) error {
	if expected == nil {
		// Some terminal receivers (buildOutboundMsgReceiver) accept
		// whatever proof fetches its own Aggregate() call planned, rather
		// than declaring a schema up front; nothing to check.
		return nil
	}
	if len(expected) != len(data) {
		return ErrAggregateSchemaMismatch
	}
	remaining := make(map[message.DataKind]int, len(expected))
	for _, k := range expected {
		remaining[k]++
	}
	for _, d := range data {
		if remaining[d.Kind()] == 0 {
			return ErrAggregateSchemaMismatch
		}
		remaining[d.Kind()]--
	}
	return nil
}
