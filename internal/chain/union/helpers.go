package union

import (
	"fmt"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	rpcclient "github.com/cometbft/cometbft/rpc/client"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"

	"github.com/cosmos/voyager-eureka/internal/message"
)

// ibcStoreKey is the ABCI query path/data pair that reads one IBC
// store path out of the ibc-go "store/ibc/key" prefix.
type ibcStoreKey struct {
	path string
	data []byte
}

// ibcStoreKeyForPath maps a message.Path onto the ibc-go KVStore key
// under the "ibc" store, following ibc-go/v11's host.FullClientStatePath-
// style key construction: every path becomes a literal key under the
// ibc store, proved with the standard store/{key} ABCI query.
func ibcStoreKeyForPath(p message.Path) ibcStoreKey {
	var key string
	switch path := p.(type) {
	case message.ClientStatePath:
		key = fmt.Sprintf("clients/%s/clientState", path.ClientID)
	case message.ClientConsensusStatePath:
		key = fmt.Sprintf("clients/%s/consensusStates/%s", path.ClientID, path.Height)
	case message.ConnectionPath:
		key = fmt.Sprintf("connections/%s", path.ConnectionID)
	case message.ChannelEndPath:
		key = fmt.Sprintf("channelEnds/ports/%s/channels/%s", path.PortID, path.ChannelID)
	case message.CommitmentPath:
		key = fmt.Sprintf("commitments/ports/%s/channels/%s/sequences/%d", path.PortID, path.ChannelID, path.Sequence)
	case message.AcknowledgementPath:
		key = fmt.Sprintf("acks/ports/%s/channels/%s/sequences/%d", path.PortID, path.ChannelID, path.Sequence)
	default:
		key = p.Kind()
	}
	return ibcStoreKey{path: "store/ibc/key", data: []byte(key)}
}

func abciProveOpts(height int64) rpcclient.ABCIQueryOptions {
	return rpcclient.ABCIQueryOptions{Height: height, Prove: true}
}

// decodeIBCEvents turns one block's ABCI results into the closed
// message.Event algebra, matching attribute keys the way
// cosmos.GetEventValue in the e2e harness scans abcitypes.Event.
func decodeIBCEvents(results *coretypes.ResultBlockResults) []message.Event {
	var out []message.Event
	for _, txResult := range results.TxsResults {
		out = append(out, eventsFromABCI(txResult.Events)...)
	}
	out = append(out, eventsFromABCI(results.FinalizeBlockEvents)...)
	return out
}

func eventsFromABCI(events []abcitypes.Event) []message.Event {
	var out []message.Event
	for _, ev := range events {
		kind, ok := ibcEventKind(ev.Type)
		if !ok {
			continue
		}
		parsed := message.Event{Event: kind}
		for _, attr := range ev.Attributes {
			applyEventAttr(&parsed, attr.Key, attr.Value)
		}
		out = append(out, parsed)
	}
	return out
}

func ibcEventKind(eventType string) (message.IBCEvent, bool) {
	switch eventType {
	case "create_client":
		return message.EventCreateClient, true
	case "update_client":
		return message.EventUpdateClient, true
	case "connection_open_init":
		return message.EventConnectionOpenInit, true
	case "connection_open_try":
		return message.EventConnectionOpenTry, true
	case "connection_open_ack":
		return message.EventConnectionOpenAck, true
	case "connection_open_confirm":
		return message.EventConnectionOpenConfirm, true
	case "channel_open_init":
		return message.EventChannelOpenInit, true
	case "channel_open_try":
		return message.EventChannelOpenTry, true
	case "channel_open_ack":
		return message.EventChannelOpenAck, true
	case "channel_open_confirm":
		return message.EventChannelOpenConfirm, true
	case "send_packet":
		return message.EventSendPacket, true
	case "recv_packet":
		return message.EventRecvPacket, true
	case "write_acknowledgement":
		return message.EventWriteAcknowledgement, true
	case "acknowledge_packet":
		return message.EventAcknowledgePacket, true
	case "timeout_packet":
		return message.EventTimeoutPacket, true
	default:
		return 0, false
	}
}

func applyEventAttr(ev *message.Event, key, value string) {
	switch key {
	case "connection_id":
		ev.ConnectionID = message.ConnectionID(value)
	case "counterparty_connection_id":
		ev.CounterpartyConnID = message.ConnectionID(value)
	case "port_id":
		ev.PortID = message.PortID(value)
	case "channel_id":
		ev.ChannelID = message.ChannelID(value)
	case "counterparty_port_id":
		ev.CounterpartyPortID = message.PortID(value)
	case "counterparty_channel_id":
		ev.CounterpartyChanID = message.ChannelID(value)
	case "client_id":
		ev.ClientID = message.ClientID(value)
	case "packet_sequence":
		var seq uint64
		fmt.Sscanf(value, "%d", &seq)
		ev.Sequence = message.PacketSequence(seq)
	}
}

func errNotImplemented(what string) error {
	return fmt.Errorf("union: %s not implemented", what)
}
