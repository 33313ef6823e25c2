package reducer

import (
	"encoding/json"
	"fmt"

	"github.com/cosmos/voyager-eureka/internal/message"
	"github.com/cosmos/voyager-eureka/internal/tokentransfer"
)

func init() {
	message.RegisterReceiverKind("connection_fetch_from_channel_end", func(body []byte) (message.AggregateReceiver, error) {
		var r ConnectionFetchFromChannelEndReceiver
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, err
		}
		return &r, nil
	})
	message.RegisterReceiverKind("aggregate_msg_after_update", func(body []byte) (message.AggregateReceiver, error) {
		var r AggregateMsgAfterUpdateReceiver
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, err
		}
		return &r, nil
	})
	message.RegisterReceiverKind("build_outbound_msg", func(body []byte) (message.AggregateReceiver, error) {
		var r buildOutboundMsgReceiver
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, err
		}
		return &r, nil
	})
}

// outboundMsgKind is the closed set of IBC messages
// AggregateMsgAfterUpdateReceiver can be parameterized by (spec.md
// §4.4's AggregateMsgAfterUpdate family).
type outboundMsgKind int

const (
	AggregateMsgConnectionOpenTry outboundMsgKind = iota
	AggregateMsgConnectionOpenAck
	AggregateMsgConnectionOpenConfirm
	AggregateMsgChannelOpenTry
	AggregateMsgChannelOpenAck
	AggregateMsgChannelOpenConfirm
	AggregateMsgRecvPacket
	AggregateMsgAckPacket
)

// ConnectionFetchFromChannelEndReceiver implements spec.md §4.4's
// ConnectionFetchFromChannelEnd: from a fetched channel end, extract
// connection_hops[0] and emit Fetch(ConnectionEnd).
type ConnectionFetchFromChannelEndReceiver struct {
	ChainID     message.ChainID
	LightClient message.LightClientKind
	Height      message.Height
}

func (r *ConnectionFetchFromChannelEndReceiver) Name() string { return "connection_fetch_from_channel_end" }
func (r *ConnectionFetchFromChannelEndReceiver) Schema() []message.DataKind {
	return []message.DataKind{message.KindChannelEnd}
}
func (r *ConnectionFetchFromChannelEndReceiver) MarshalJSON() ([]byte, error) {
	type wire ConnectionFetchFromChannelEndReceiver
	return json.Marshal((*wire)(r))
}

func (r *ConnectionFetchFromChannelEndReceiver) Aggregate(data []message.Data) (message.Message, error) {
	if len(data) != 1 {
		return nil, ErrAggregateSchemaMismatch
	}
	channelEnd, ok := data[0].(message.ChannelEnd)
	if !ok {
		return nil, ErrAggregateSchemaMismatch
	}
	if len(channelEnd.ConnectionHops) == 0 {
		return nil, fmt.Errorf("reducer: channel end %s/%s has no connection hops", channelEnd.PortID, channelEnd.ChannelID)
	}
	return message.NewFetch(r.ChainID, r.LightClient, message.FetchConnectionEnd{
		ConnectionID: channelEnd.ConnectionHops[0],
		Height:       r.Height,
	}), nil
}

// AggregateMsgAfterUpdateReceiver implements spec.md §4.4's
// AggregateMsgAfterUpdate family: once the counterparty client has
// advanced to the target height, fan out the proofs needed for
// Outbound's specific IBC message, all at TargetHeight, and produce
// that single message.
//
// This receiver's own Schema() only names what the *previous* stage
// (an UpdateClient-family Aggregate, or a connection fetch) produces;
// the proof-fetch fan-out it performs is emitted as new Aggregate
// Queue entries in its Aggregate() call itself, which is why its
// return value is one more Aggregate layer rather than a final Msg --
// mirroring spec.md's description of proofs being fetched "at the
// updated height" only once the update is known to have landed.
type AggregateMsgAfterUpdateReceiver struct {
	Outbound    outboundMsgKind
	ChainID     message.ChainID
	LightClient message.LightClientKind
	// DestChainID is the counterparty chain the assembled message is
	// addressed to (spec.md §4.4: "produce the single IBC message ...
	// addressed to the counterparty chain"), resolved once up front by
	// the choreography row that constructs this receiver rather than
	// re-derived here.
	DestChainID  message.ChainID
	Event        message.Event
	TargetHeight message.Height
}

func (r *AggregateMsgAfterUpdateReceiver) Name() string { return "aggregate_msg_after_update" }

// Schema names only what this receiver's own Queue (not the proof fan-out
// it plans in Aggregate) actually produces as Data. UpdateClient's Queue
// entry resolves to a Msg with no successors and contributes nothing;
// only the channel/packet rows carry a connection-end fetch ahead of it.
func (r *AggregateMsgAfterUpdateReceiver) Schema() []message.DataKind {
	switch r.Outbound {
	case AggregateMsgChannelOpenTry, AggregateMsgChannelOpenAck, AggregateMsgChannelOpenConfirm, AggregateMsgRecvPacket:
		return []message.DataKind{message.KindConnectionEnd}
	default:
		return nil
	}
}

func (r *AggregateMsgAfterUpdateReceiver) MarshalJSON() ([]byte, error) {
	type wire AggregateMsgAfterUpdateReceiver
	return json.Marshal((*wire)(r))
}

// Aggregate runs once the Queue's prerequisite Data is in hand (for
// channel/packet rows, the connection end reached via
// ConnectionFetchFromChannelEnd or fetched directly; UpdateClient's own
// Queue entry resolves to a side-effecting Msg and contributes nothing
// to Data). It re-plans itself as one more Aggregate whose Queue holds
// the state/consensus/connection/channel/commitment proof fetches named
// by Outbound, all pinned at TargetHeight, joined by a finisher that
// builds the actual outbound Msg.
func (r *AggregateMsgAfterUpdateReceiver) Aggregate(data []message.Data) (message.Message, error) {
	proofFetches := proofFetchesFor(r.Outbound, r.ChainID, r.LightClient, r.Event, r.TargetHeight)
	finisher := &buildOutboundMsgReceiver{
		Outbound:     r.Outbound,
		ChainID:      r.ChainID,
		LightClient:  r.LightClient,
		DestChainID:  r.DestChainID,
		Event:        r.Event,
		TargetHeight: r.TargetHeight,
		Prior:        data,
	}
	return message.NewAggregate(proofFetches, finisher), nil
}

func proofFetchesFor(kind outboundMsgKind, chainID message.ChainID, lc message.LightClientKind, ev message.Event, height message.Height) []message.Message {
	fetch := func(path message.Path) message.Message {
		return message.NewFetch(chainID, lc, message.FetchStateProof{Path: path, Height: height})
	}
	switch kind {
	case AggregateMsgConnectionOpenTry, AggregateMsgConnectionOpenAck:
		return []message.Message{
			fetch(message.ClientStatePath{ClientID: ev.ClientID}),
			fetch(message.ClientConsensusStatePath{ClientID: ev.ClientID, Height: height}),
			fetch(message.ConnectionPath{ConnectionID: ev.ConnectionID}),
		}
	case AggregateMsgConnectionOpenConfirm:
		return []message.Message{fetch(message.ConnectionPath{ConnectionID: ev.ConnectionID})}
	case AggregateMsgChannelOpenTry, AggregateMsgChannelOpenAck, AggregateMsgChannelOpenConfirm:
		return []message.Message{fetch(message.ChannelEndPath{PortID: ev.PortID, ChannelID: ev.ChannelID})}
	case AggregateMsgRecvPacket:
		return []message.Message{fetch(message.CommitmentPath{PortID: ev.PortID, ChannelID: ev.ChannelID, Sequence: ev.Sequence})}
	case AggregateMsgAckPacket:
		return []message.Message{fetch(message.AcknowledgementPath{PortID: ev.PortID, ChannelID: ev.ChannelID, Sequence: ev.Sequence})}
	default:
		return nil
	}
}

// buildOutboundMsgReceiver is the terminal receiver of the
// AggregateMsgAfterUpdate pipeline: once every proof named by
// proofFetchesFor has landed, it assembles the single outbound
// message.Msg that the choreography table names for this event.
type buildOutboundMsgReceiver struct {
	Outbound     outboundMsgKind
	ChainID      message.ChainID
	LightClient  message.LightClientKind
	DestChainID  message.ChainID
	Event        message.Event
	TargetHeight message.Height
	Prior        []message.Data
}

func (r *buildOutboundMsgReceiver) Name() string { return "build_outbound_msg" }
func (r *buildOutboundMsgReceiver) Schema() []message.DataKind {
	// No declared schema: the Data this receiver consumes is whatever
	// proofFetchesFor planned, checked by count in
	// buildOutboundMsgVariant.
	return nil
}
func (r *buildOutboundMsgReceiver) MarshalJSON() ([]byte, error) {
	type wire buildOutboundMsgReceiver
	return json.Marshal((*wire)(r))
}

func (r *buildOutboundMsgReceiver) Aggregate(data []message.Data) (message.Message, error) {
	variant, err := buildOutboundMsgVariant(r.Outbound, r.Event, r.TargetHeight, r.Prior, data)
	if err != nil {
		return nil, err
	}
	return message.NewMsg(r.DestChainID, r.LightClient.Counterparty(), variant), nil
}

func buildOutboundMsgVariant(kind outboundMsgKind, ev message.Event, targetHeight message.Height, prior, fetched []message.Data) (message.MsgVariant, error) {
	proofs, err := proofBytes(fetched)
	if err != nil {
		return nil, err
	}
	// The consensus state being proven is the one read at targetHeight
	// (FetchStateProof was pinned there), so the height relayed in the
	// message is targetHeight itself, not a separately fetched trusted
	// height.
	consensusHeight := targetHeight
	connHops := connectionHopsFrom(prior, ev)
	// ChannelOpenTry always proposes the ICS20 reference version; a
	// channel wanting UCS01 instead negotiates that explicitly via its
	// own ChannelOpenInit, which this layer does not originate.
	version := tokentransfer.ICS20Version

	switch kind {
	case AggregateMsgConnectionOpenTry:
		if len(proofs) < 3 {
			return nil, ErrAggregateSchemaMismatch
		}
		return message.MsgConnectionOpenTry{
			Counterparty:    message.ConnectionCounterparty{ClientID: ev.ClientID, ConnectionID: ev.ConnectionID, Prefix: "ibc"},
			ClientID:        ev.CounterpartyClientID,
			ProofClient:     proofs[0],
			ProofConsensus:  proofs[1],
			ProofInit:       proofs[2],
			ProofHeight:     targetHeight,
			ConsensusHeight: consensusHeight,
		}, nil
	case AggregateMsgConnectionOpenAck:
		if len(proofs) < 3 {
			return nil, ErrAggregateSchemaMismatch
		}
		return message.MsgConnectionOpenAck{
			ConnectionID:    ev.CounterpartyConnID,
			CounterpartyID:  ev.ConnectionID,
			ProofClient:     proofs[0],
			ProofConsensus:  proofs[1],
			ProofTry:        proofs[2],
			ProofHeight:     targetHeight,
			ConsensusHeight: consensusHeight,
		}, nil
	case AggregateMsgConnectionOpenConfirm:
		if len(proofs) < 1 {
			return nil, ErrAggregateSchemaMismatch
		}
		return message.MsgConnectionOpenConfirm{ConnectionID: ev.CounterpartyConnID, ProofAck: proofs[0], ProofHeight: targetHeight}, nil
	case AggregateMsgChannelOpenTry:
		if len(proofs) < 1 {
			return nil, ErrAggregateSchemaMismatch
		}
		return message.MsgChannelOpenTry{
			PortID:         ev.CounterpartyPortID,
			Counterparty:   message.ChannelCounterparty{PortID: ev.PortID, ChannelID: ev.ChannelID},
			ConnectionHops: connHops,
			Version:        version,
			ProofInit:      proofs[0],
			ProofHeight:    targetHeight,
		}, nil
	case AggregateMsgChannelOpenAck:
		if len(proofs) < 1 {
			return nil, ErrAggregateSchemaMismatch
		}
		return message.MsgChannelOpenAck{
			PortID: ev.CounterpartyPortID, ChannelID: ev.CounterpartyChanID,
			ProofTry: proofs[0], ProofHeight: targetHeight,
		}, nil
	case AggregateMsgChannelOpenConfirm:
		if len(proofs) < 1 {
			return nil, ErrAggregateSchemaMismatch
		}
		return message.MsgChannelOpenConfirm{
			PortID: ev.CounterpartyPortID, ChannelID: ev.CounterpartyChanID,
			ProofAck: proofs[0], ProofHeight: targetHeight,
		}, nil
	case AggregateMsgRecvPacket:
		if len(proofs) < 1 {
			return nil, ErrAggregateSchemaMismatch
		}
		return message.MsgRecvPacket{
			Packet: message.Packet{
				Sequence: ev.Sequence, SourcePort: ev.PortID, SourceChannel: ev.ChannelID,
				DestPort: ev.CounterpartyPortID, DestChannel: ev.CounterpartyChanID,
			},
			ProofCommit: proofs[0], ProofHeight: targetHeight,
		}, nil
	case AggregateMsgAckPacket:
		if len(proofs) < 1 {
			return nil, ErrAggregateSchemaMismatch
		}
		return message.MsgAcknowledgement{
			Packet:      message.Packet{Sequence: ev.Sequence, SourcePort: ev.PortID, SourceChannel: ev.ChannelID},
			ProofAck:    proofs[0],
			ProofHeight: targetHeight,
		}, nil
	default:
		return nil, ErrUnknownMessage
	}
}

func proofBytes(data []message.Data) ([][]byte, error) {
	out := make([][]byte, 0, len(data))
	for _, d := range data {
		switch v := d.(type) {
		case message.ClientStateProof:
			out = append(out, v.Proof)
		case message.ClientConsensusStateProof:
			out = append(out, v.Proof)
		case message.ConnectionProof:
			out = append(out, v.Proof)
		case message.ChannelEndProof:
			out = append(out, v.Proof)
		case message.CommitmentProof:
			out = append(out, v.Proof)
		case message.AcknowledgementProof:
			out = append(out, v.Proof)
		default:
			return nil, fmt.Errorf("%w: unexpected %s among proof fetches", ErrAggregateSchemaMismatch, d.Kind())
		}
	}
	return out, nil
}

// connectionHopsFrom prefers the connection end reached via
// ConnectionFetchFromChannelEnd; falling back to the event's own
// connection id covers rows where no connection-end fetch precedes
// this one (e.g. a channel opened directly against a known connection).
func connectionHopsFrom(prior []message.Data, ev message.Event) []message.ConnectionID {
	for _, d := range prior {
		if conn, ok := d.(message.ConnectionEnd); ok {
			return []message.ConnectionID{conn.ConnectionID}
		}
	}
	if ev.ConnectionID != "" {
		return []message.ConnectionID{ev.ConnectionID}
	}
	return nil
}
