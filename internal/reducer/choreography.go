package reducer

import (
	"context"

	"github.com/cosmos/voyager-eureka/internal/chain"
	"github.com/cosmos/voyager-eureka/internal/message"
)

// ProofHeightOffset names the "+1" rule: IBC proofs on Tendermint-family
// chains are valid at the next block (spec.md §4.5). The rows below
// compute successor heights with message.Height.Increment, which adds
// the same offset of one; they do not reference this constant.
const ProofHeightOffset = 1

// dispatchEvent implements the choreography table in spec.md §4.5, one
// row per IBCEvent.
func dispatchEvent(ctx context.Context, reg *chain.Registry, adapter chain.Adapter, chainID message.ChainID, lc message.LightClientKind, ev message.Event) ([]message.Message, error) {
	switch ev.Event {
	case message.EventCreateClient, message.EventConnectionOpenConfirm, message.EventChannelOpenConfirm,
		message.EventAcknowledgePacket, message.EventTimeoutPacket, message.EventWriteAcknowledgement,
		message.EventUpdateClient:
		return nil, nil

	case message.EventConnectionOpenInit:
		return connectionHandshakeSuccessor(reg, chainID, lc, ev, AggregateMsgConnectionOpenTry)
	case message.EventConnectionOpenTry:
		return connectionHandshakeSuccessor(reg, chainID, lc, ev, AggregateMsgConnectionOpenAck)
	case message.EventConnectionOpenAck:
		return connectionHandshakeSuccessor(reg, chainID, lc, ev, AggregateMsgConnectionOpenConfirm)

	case message.EventChannelOpenInit:
		return channelHandshakeSuccessor(reg, chainID, lc, ev, AggregateMsgChannelOpenTry)
	case message.EventChannelOpenTry:
		return channelHandshakeSuccessor(reg, chainID, lc, ev, AggregateMsgChannelOpenAck)
	case message.EventChannelOpenAck:
		return channelHandshakeSuccessor(reg, chainID, lc, ev, AggregateMsgChannelOpenConfirm)

	case message.EventSendPacket:
		return sendPacketSuccessor(reg, chainID, lc, ev)

	case message.EventRecvPacket:
		// spec.md §9 open question: the source has this path disabled to
		// avoid duplicate relays if both sides observe the same packet.
		// Left as a documented no-op rather than guessed at.
		return nil, nil

	default:
		return nil, ErrUnknownMessage
	}
}

// connectionHandshakeSuccessor implements the ConnectionOpenInit/Try/Ack
// rows: Sequence[WaitForBlock(height+1), Aggregate(UpdateClient(L,
// height+1), then AggregateMsgAfterUpdate::<outboundKind>)].
func connectionHandshakeSuccessor(reg *chain.Registry, chainID message.ChainID, lc message.LightClientKind, ev message.Event, outbound outboundMsgKind) ([]message.Message, error) {
	destChainID, ok := reg.ChainForLightClient(lc.Counterparty())
	if !ok {
		return nil, &ChainQueryError{Err: errUnknownCounterpartyChain(lc.Counterparty())}
	}
	targetHeight := ev.Height.Increment()
	updateClient := newUpdateClientAggregate(chainID, lc, ev.ClientID, targetHeight)
	afterUpdate := message.NewAggregate(
		[]message.Message{updateClient},
		&AggregateMsgAfterUpdateReceiver{
			Outbound:     outbound,
			ChainID:      chainID,
			LightClient:  lc,
			DestChainID:  destChainID,
			Event:        ev,
			TargetHeight: targetHeight,
		},
	)
	return []message.Message{message.NewSequence(
		message.NewWait(chainID, lc, message.WaitForBlock{Height: targetHeight}),
		afterUpdate,
	)}, nil
}

// channelHandshakeSuccessor implements the ChannelOpenInit/Try/Ack rows:
// fetch the channel end and its connection at height+1, then update the
// counterparty client to height+1, then emit the outbound message.
func channelHandshakeSuccessor(reg *chain.Registry, chainID message.ChainID, lc message.LightClientKind, ev message.Event, outbound outboundMsgKind) ([]message.Message, error) {
	destChainID, ok := reg.ChainForLightClient(lc.Counterparty())
	if !ok {
		return nil, &ChainQueryError{Err: errUnknownCounterpartyChain(lc.Counterparty())}
	}
	targetHeight := ev.Height.Increment()
	fetchChannelEnd := message.NewFetch(chainID, lc, message.FetchChannelEnd{
		PortID: ev.PortID, ChannelID: ev.ChannelID, Height: targetHeight,
	})
	connFromChannel := message.NewAggregate(
		[]message.Message{fetchChannelEnd},
		&ConnectionFetchFromChannelEndReceiver{ChainID: chainID, LightClient: lc, Height: targetHeight},
	)
	updateClient := newUpdateClientAggregate(chainID, lc, ev.ClientID, targetHeight)
	afterUpdate := message.NewAggregate(
		[]message.Message{connFromChannel, updateClient},
		&AggregateMsgAfterUpdateReceiver{
			Outbound:     outbound,
			ChainID:      chainID,
			LightClient:  lc,
			DestChainID:  destChainID,
			Event:        ev,
			TargetHeight: targetHeight,
		},
	)
	return []message.Message{message.NewSequence(
		message.NewWait(chainID, lc, message.WaitForBlock{Height: targetHeight}),
		afterUpdate,
	)}, nil
}

// sendPacketSuccessor implements the SendPacket row: fetch the
// connection end at the event height, update the counterparty client
// to height+1, then emit MsgRecvPacket. No WaitForTrustedHeight step is
// emitted: the commitment-proof fetch starts once the UpdateClient
// submission has returned, without reading back the counterparty
// client's trusted height.
func sendPacketSuccessor(reg *chain.Registry, chainID message.ChainID, lc message.LightClientKind, ev message.Event) ([]message.Message, error) {
	destChainID, ok := reg.ChainForLightClient(lc.Counterparty())
	if !ok {
		return nil, &ChainQueryError{Err: errUnknownCounterpartyChain(lc.Counterparty())}
	}
	targetHeight := ev.Height.Increment()
	fetchConn := message.NewFetch(chainID, lc, message.FetchConnectionEnd{Height: ev.Height})
	updateClient := newUpdateClientAggregate(chainID, lc, ev.ClientID, targetHeight)
	afterUpdate := message.NewAggregate(
		[]message.Message{fetchConn, updateClient},
		&AggregateMsgAfterUpdateReceiver{
			Outbound:     AggregateMsgRecvPacket,
			ChainID:      chainID,
			LightClient:  lc,
			DestChainID:  destChainID,
			Event:        ev,
			TargetHeight: targetHeight,
		},
	)
	return []message.Message{message.NewSequence(
		message.NewWait(chainID, lc, message.WaitForBlock{Height: targetHeight}),
		afterUpdate,
	)}, nil
}

// CommandUpdateClient is the entry point for the operator command
// stream's Command::UpdateClient (spec.md §6.1): Aggregate(Fetch
// TrustedClientState(Latest), UpdateClientFromClientID). Exported so
// internal/ingress can turn an operator Command into a queued Message
// without reaching into reducer's otherwise-private receiver types.
func CommandUpdateClient(chainID message.ChainID, lc message.LightClientKind, clientID, counterpartyClientID message.ClientID) message.Message {
	fetchTrusted := message.NewFetch(chainID, lc, message.FetchTrustedClientState{
		At: message.Latest(), ClientID: clientID,
	})
	return message.NewAggregate(
		[]message.Message{fetchTrusted},
		&UpdateClientFromClientIDReceiver{ChainID: chainID, LightClient: lc, ClientID: clientID, CounterpartyClientID: counterpartyClientID},
	)
}

type unknownCounterpartyChainErr struct{ lc message.LightClientKind }

func (e *unknownCounterpartyChainErr) Error() string {
	return "reducer: no adapter registered backing light client " + e.lc.String()
}

func errUnknownCounterpartyChain(lc message.LightClientKind) error {
	return &unknownCounterpartyChainErr{lc: lc}
}
