package reducer

import (
	"encoding/json"
	"fmt"

	"github.com/cosmos/voyager-eureka/internal/message"
)

func init() {
	message.RegisterReceiverKind("update_client_from_client_id", func(body []byte) (message.AggregateReceiver, error) {
		var r UpdateClientFromClientIDReceiver
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, err
		}
		return &r, nil
	})
	message.RegisterReceiverKind("update_client", func(body []byte) (message.AggregateReceiver, error) {
		var r UpdateClientReceiver
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, err
		}
		return &r, nil
	})
	message.RegisterReceiverKind("update_client_with_counterparty_chain_id", func(body []byte) (message.AggregateReceiver, error) {
		var r UpdateClientWithCounterpartyChainIDReceiver
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, err
		}
		return &r, nil
	})
}

// newUpdateClientAggregate builds the first stage of the three-Aggregate
// pipeline in spec.md §4.6: fetch our trusted view of the counterparty
// (it reveals counterparty_chain_id and our current trusted height).
func newUpdateClientAggregate(chainID message.ChainID, lc message.LightClientKind, clientID message.ClientID, updateTo message.Height) message.Message {
	fetchTrusted := message.NewFetch(chainID, lc, message.FetchTrustedClientState{
		At: message.Latest(), ClientID: clientID,
	})
	return message.NewAggregate(
		[]message.Message{fetchTrusted},
		&UpdateClientFromClientIDReceiver{ChainID: chainID, LightClient: lc, ClientID: clientID, UpdateTo: updateTo},
	)
}

// UpdateClientFromClientIDReceiver is step 1: once our TrustedClientState
// of the counterparty is known, step 2 fetches the counterparty's
// trusted view of us.
type UpdateClientFromClientIDReceiver struct {
	ChainID              message.ChainID
	LightClient          message.LightClientKind
	ClientID             message.ClientID
	CounterpartyClientID message.ClientID
	UpdateTo             message.Height
}

func (r *UpdateClientFromClientIDReceiver) Name() string { return "update_client_from_client_id" }
func (r *UpdateClientFromClientIDReceiver) Schema() []message.DataKind {
	return []message.DataKind{message.KindTrustedClientState}
}
func (r *UpdateClientFromClientIDReceiver) MarshalJSON() ([]byte, error) {
	type wire UpdateClientFromClientIDReceiver
	return json.Marshal((*wire)(r))
}

func (r *UpdateClientFromClientIDReceiver) Aggregate(data []message.Data) (message.Message, error) {
	trusted, err := expectTrustedClientState(data)
	if err != nil {
		return nil, err
	}
	counterpartyClientID := r.CounterpartyClientID
	if counterpartyClientID == "" {
		counterpartyClientID = trusted.CounterpartyClientID
	}
	fetchCounterpartyTrusted := message.NewFetch(trusted.CounterpartyChainID, r.LightClient.Counterparty(), message.FetchTrustedClientState{
		At: message.Latest(), ClientID: counterpartyClientID,
	})
	updateTo := r.UpdateTo
	if (updateTo == message.Height{}) {
		updateTo = trusted.TrustedHeight
	}
	return message.NewAggregate(
		[]message.Message{fetchCounterpartyTrusted},
		&UpdateClientReceiver{
			ChainID:              r.ChainID,
			LightClient:          r.LightClient,
			ClientID:             r.ClientID,
			CounterpartyChainID:  trusted.CounterpartyChainID,
			CounterpartyClientID: counterpartyClientID,
			UpdateTo:             updateTo,
		},
	), nil
}

// UpdateClientReceiver is step 2: once the counterparty's trusted view
// of us is known (it reveals update_from), step 3 fetches the update
// headers themselves.
type UpdateClientReceiver struct {
	ChainID              message.ChainID
	LightClient          message.LightClientKind
	ClientID             message.ClientID
	CounterpartyChainID  message.ChainID
	CounterpartyClientID message.ClientID
	UpdateTo             message.Height
}

func (r *UpdateClientReceiver) Name() string { return "update_client" }
func (r *UpdateClientReceiver) Schema() []message.DataKind {
	return []message.DataKind{message.KindTrustedClientState}
}
func (r *UpdateClientReceiver) MarshalJSON() ([]byte, error) {
	type wire UpdateClientReceiver
	return json.Marshal((*wire)(r))
}

func (r *UpdateClientReceiver) Aggregate(data []message.Data) (message.Message, error) {
	counterpartyTrusted, err := expectTrustedClientState(data)
	if err != nil {
		return nil, err
	}
	fetchHeaders := message.NewFetch(r.ChainID, r.LightClient, message.FetchUpdateHeaders{
		FromHeight:           counterpartyTrusted.TrustedHeight,
		ToHeight:             r.UpdateTo,
		ClientID:             r.ClientID,
		CounterpartyClientID: r.CounterpartyClientID,
		CounterpartyChainID:  r.CounterpartyChainID,
	})
	return message.NewAggregate(
		[]message.Message{fetchHeaders},
		&UpdateClientWithCounterpartyChainIDReceiver{
			ClientID:    r.CounterpartyClientID,
			LightClient: r.LightClient.Counterparty(),
			ChainID:     r.CounterpartyChainID,
		},
	), nil
}

// UpdateClientWithCounterpartyChainIDReceiver is step 3: turn the
// fetched update headers into an outbound MsgUpdateClient addressed to
// the counterparty chain.
type UpdateClientWithCounterpartyChainIDReceiver struct {
	ChainID     message.ChainID
	LightClient message.LightClientKind
	ClientID    message.ClientID
}

func (r *UpdateClientWithCounterpartyChainIDReceiver) Name() string {
	return "update_client_with_counterparty_chain_id"
}
func (r *UpdateClientWithCounterpartyChainIDReceiver) Schema() []message.DataKind {
	return []message.DataKind{message.KindBeaconLightClientUpdate}
}
func (r *UpdateClientWithCounterpartyChainIDReceiver) MarshalJSON() ([]byte, error) {
	type wire UpdateClientWithCounterpartyChainIDReceiver
	return json.Marshal((*wire)(r))
}

func (r *UpdateClientWithCounterpartyChainIDReceiver) Aggregate(data []message.Data) (message.Message, error) {
	if len(data) == 0 {
		return nil, ErrAggregateSchemaMismatch
	}
	headerBytes, err := headerBytesFromData(data[0])
	if err != nil {
		return nil, err
	}
	return message.NewMsg(r.ChainID, r.LightClient, message.MsgUpdateClient{
		ClientID:      r.ClientID,
		ClientMessage: headerBytes,
	}), nil
}

func expectTrustedClientState(data []message.Data) (message.TrustedClientState, error) {
	if len(data) != 1 {
		return message.TrustedClientState{}, ErrAggregateSchemaMismatch
	}
	trusted, ok := data[0].(message.TrustedClientState)
	if !ok {
		return message.TrustedClientState{}, ErrAggregateSchemaMismatch
	}
	return trusted, nil
}

func headerBytesFromData(d message.Data) ([]byte, error) {
	switch v := d.(type) {
	case message.BeaconLightClientUpdate:
		return v.Bytes, nil
	case message.BeaconFinalityUpdate:
		return v.Bytes, nil
	default:
		return nil, fmt.Errorf("%w: got %s", ErrAggregateSchemaMismatch, d.Kind())
	}
}
