package reducer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cosmos/voyager-eureka/internal/chain"
	"github.com/cosmos/voyager-eureka/internal/message"
)

// deferTick bounds how long DeferUntil/WaitFor* sleep before re-emitting
// themselves, per spec.md §4.3 ("sleep a bounded tick (<=1s)").
const deferTick = 1 * time.Second

// Dispatch is the total function over the message algebra: one call
// handles exactly one message, returning its successors. All I/O goes
// through reg; Dispatch never touches the queue directly (that's
// internal/engine's job, wiring this into a queue.Handler).
func Dispatch(ctx context.Context, reg *chain.Registry, log *zap.Logger, m message.Message) ([]message.Message, error) {
	switch v := m.(type) {
	case message.LightClientMessage:
		return dispatchLightClient(ctx, reg, log, v)
	case message.DeferUntil:
		return dispatchDeferUntil(ctx, v)
	case message.Timeout:
		return dispatchTimeout(ctx, reg, log, v)
	case message.Sequence:
		return dispatchSequence(ctx, reg, log, v)
	case message.Retry:
		return dispatchRetry(ctx, reg, log, v)
	case message.Aggregate:
		return dispatchAggregate(ctx, reg, log, v)
	default:
		return nil, ErrUnknownMessage
	}
}

func dispatchDeferUntil(ctx context.Context, d message.DeferUntil) ([]message.Message, error) {
	if d.Due(time.Now()) {
		return nil, nil
	}
	sleepBounded(ctx, deferTick)
	return []message.Message{d}, nil
}

func dispatchTimeout(ctx context.Context, reg *chain.Registry, log *zap.Logger, t message.Timeout) ([]message.Message, error) {
	if t.Expired(time.Now()) {
		log.Info("reducer: timeout expired, dropping", zap.Int64("deadline", t.TimeoutUnixSeconds))
		return nil, nil
	}
	successors, err := Dispatch(ctx, reg, log, t.Inner)
	if err != nil {
		return nil, err
	}
	if len(successors) == 0 {
		return nil, nil
	}
	// Wrap every successor back under the same deadline, so progress
	// keeps being timed against the original wall-clock bound rather
	// than resetting it each step.
	out := make([]message.Message, len(successors))
	for i, s := range successors {
		out[i] = message.Timeout{TimeoutUnixSeconds: t.TimeoutUnixSeconds, Inner: s}
	}
	return out, nil
}

func dispatchSequence(ctx context.Context, reg *chain.Registry, log *zap.Logger, s message.Sequence) ([]message.Message, error) {
	if len(s.Messages) == 0 {
		return nil, nil
	}
	head, tail := s.Messages[0], s.Messages[1:]
	successors, err := Dispatch(ctx, reg, log, head)
	if err != nil {
		return nil, err
	}
	combined := append(append([]message.Message{}, successors...), tail...)
	if len(combined) == 0 {
		return nil, nil
	}
	return []message.Message{message.NewSequence(combined...)}, nil
}

func dispatchLightClient(ctx context.Context, reg *chain.Registry, log *zap.Logger, m message.LightClientMessage) ([]message.Message, error) {
	adapter, ok := reg.Get(m.ChainID)
	if !ok {
		return nil, &ChainQueryError{Err: errUnknownChain(m.ChainID)}
	}

	switch body := m.Body.(type) {
	case message.Event:
		return dispatchEvent(ctx, reg, adapter, m.ChainID, m.LightClient, body)
	case message.Fetch:
		return dispatchFetch(ctx, adapter, m.ChainID, m.LightClient, body)
	case message.Wait:
		return dispatchWait(ctx, reg, adapter, m.ChainID, m.LightClient, body)
	case message.Msg:
		return dispatchMsg(ctx, adapter, m.ChainID, body)
	case message.DataMsg:
		log.Warn("reducer: data message outside aggregate, dropping",
			zap.String("chain", string(m.ChainID)), zap.String("kind", body.Payload.Kind().String()))
		return nil, nil
	default:
		return nil, ErrUnknownMessage
	}
}

func dispatchFetch(ctx context.Context, adapter chain.Adapter, chainID message.ChainID, lc message.LightClientKind, f message.Fetch) ([]message.Message, error) {
	if v, ok := f.Variant.(message.FetchUpdateHeaders); ok {
		return dispatchFetchUpdateHeaders(ctx, adapter, chainID, lc, v)
	}
	d, err := resolveFetch(ctx, adapter, chainID, lc, f.Variant)
	if err != nil {
		return nil, &ChainQueryError{Err: err}
	}
	if d == nil {
		return nil, nil
	}
	return []message.Message{message.NewData(chainID, lc, d)}, nil
}

// dispatchFetchUpdateHeaders handles FetchUpdateHeaders separately from
// the rest of resolveFetch's one-Data-in one-Data-out variants: per its
// own doc comment, GenerateCounterpartyUpdates may return more than one
// header (e.g. a beacon finality update alongside a light client
// update), each surfacing as its own Data successor rather than being
// collapsed into one.
func dispatchFetchUpdateHeaders(ctx context.Context, adapter chain.Adapter, chainID message.ChainID, lc message.LightClientKind, v message.FetchUpdateHeaders) ([]message.Message, error) {
	updates, err := adapter.GenerateCounterpartyUpdates(ctx, lc, v.FromHeight, v.ToHeight)
	if err != nil {
		return nil, &ChainQueryError{Err: err}
	}
	out := make([]message.Message, len(updates))
	for i, d := range updates {
		out[i] = message.NewData(chainID, lc, d)
	}
	return out, nil
}

func dispatchMsg(ctx context.Context, adapter chain.Adapter, chainID message.ChainID, m message.Msg) ([]message.Message, error) {
	ibcMsg, err := buildIBCMsg(chainID, m.Variant)
	if err != nil {
		return nil, &EncodingError{Err: err}
	}
	result := adapter.SubmitMsg(ctx, ibcMsg)
	if result.Err != nil {
		return nil, classifySubmitError(result.Err)
	}
	return nil, nil
}

func sleepBounded(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

type unknownChainErr struct{ chainID message.ChainID }

func (e *unknownChainErr) Error() string { return "reducer: no adapter registered for chain " + string(e.chainID) }

func errUnknownChain(id message.ChainID) error { return &unknownChainErr{chainID: id} }
