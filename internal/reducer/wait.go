package reducer

import (
	"context"
	"time"

	"github.com/cosmos/voyager-eureka/internal/chain"
	"github.com/cosmos/voyager-eureka/internal/message"
)

// dispatchWait resolves a Wait body, per spec.md §4.3's three rules:
// WaitForBlock, WaitForTimestamp resolve against the adapter's own
// chain tip; WaitForTrustedHeight resolves against our client of the
// counterparty.
func dispatchWait(ctx context.Context, reg *chain.Registry, adapter chain.Adapter, chainID message.ChainID, lc message.LightClientKind, w message.Wait) ([]message.Message, error) {
	switch v := w.Variant.(type) {
	case message.WaitForBlock:
		latest, err := adapter.LatestHeight(ctx)
		if err != nil {
			return nil, &ChainQueryError{Err: err}
		}
		gte, err := latest.GTE(v.Height)
		if err != nil {
			return nil, err
		}
		if gte {
			return nil, nil
		}
		sleepBounded(ctx, deferTick)
		return []message.Message{message.NewSequence(
			message.DeferUntil{UnixSeconds: time.Now().Unix() + 1},
			message.NewWait(chainID, lc, v),
		)}, nil

	case message.WaitForTimestamp:
		ts, err := adapter.LatestTimestamp(ctx)
		if err != nil {
			return nil, &ChainQueryError{Err: err}
		}
		if ts.Unix() >= v.UnixSeconds {
			return nil, nil
		}
		sleepBounded(ctx, deferTick)
		return []message.Message{message.NewSequence(
			message.DeferUntil{UnixSeconds: time.Now().Unix() + 1},
			message.NewWait(chainID, lc, v),
		)}, nil

	case message.WaitForTrustedHeight:
		return dispatchWaitForTrustedHeight(ctx, reg, adapter, chainID, lc, v)

	default:
		return nil, ErrUnknownMessage
	}
}

// dispatchWaitForTrustedHeight queries chainID's client of
// CounterpartyChainID; once its trusted height is >= the requested
// height, it emits a single Fetch(TrustedClientState) against the
// counterparty client id, exactly as spec.md §4.3 describes.
func dispatchWaitForTrustedHeight(ctx context.Context, reg *chain.Registry, adapter chain.Adapter, chainID message.ChainID, lc message.LightClientKind, v message.WaitForTrustedHeight) ([]message.Message, error) {
	data, err := adapter.ClientState(ctx, v.ClientID)
	if err != nil {
		return nil, &ChainQueryError{Err: err}
	}
	trusted, ok := data.(message.TrustedClientState)
	if !ok {
		return nil, &EncodingError{Err: errUnexpectedDataKind(data)}
	}
	gte, err := trusted.TrustedHeight.GTE(v.Height)
	if err != nil {
		return nil, err
	}
	if !gte {
		sleepBounded(ctx, deferTick)
		return []message.Message{message.NewSequence(
			message.DeferUntil{UnixSeconds: time.Now().Unix() + 1},
			message.NewWait(chainID, lc, v),
		)}, nil
	}
	counterpartyLC := lc.Counterparty()
	fetchCounterparty := message.NewFetch(v.CounterpartyChainID, counterpartyLC, message.FetchTrustedClientState{
		At:       message.At(v.Height),
		ClientID: v.CounterpartyClientID,
	})
	return []message.Message{fetchCounterparty}, nil
}

type unexpectedDataKindErr struct{ kind string }

func (e *unexpectedDataKindErr) Error() string { return "reducer: unexpected data kind " + e.kind }

func errUnexpectedDataKind(d message.Data) error {
	return &unexpectedDataKindErr{kind: d.Kind().String()}
}
