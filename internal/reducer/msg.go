package reducer

import (
	"strings"

	"github.com/cosmos/voyager-eureka/internal/chain"
	"github.com/cosmos/voyager-eureka/internal/message"
)

// ibcMsg wraps a message.MsgVariant as a chain.IBCMsg, giving adapters
// a concrete payload to switch on while keeping the wire encoding
// (protobuf for union, ABI for evm) entirely inside each adapter
// package.
type ibcMsg struct {
	variant message.MsgVariant
	dest    message.ChainID
}

func (m ibcMsg) Kind() string {
	switch m.variant.(type) {
	case message.MsgCreateClient:
		return "create_client"
	case message.MsgConnectionOpenTry:
		return "connection_open_try"
	case message.MsgConnectionOpenAck:
		return "connection_open_ack"
	case message.MsgConnectionOpenConfirm:
		return "connection_open_confirm"
	case message.MsgChannelOpenTry:
		return "channel_open_try"
	case message.MsgChannelOpenAck:
		return "channel_open_ack"
	case message.MsgChannelOpenConfirm:
		return "channel_open_confirm"
	case message.MsgRecvPacket:
		return "recv_packet"
	case message.MsgAcknowledgement:
		return "acknowledgement"
	case message.MsgTimeout:
		return "timeout"
	case message.MsgUpdateClient:
		return "update_client"
	default:
		return "unknown"
	}
}

func (m ibcMsg) DestinationChain() message.ChainID { return m.dest }

// Variant exposes the underlying MsgVariant for adapters that need to
// switch on its concrete fields to build a wire payload.
func (m ibcMsg) Variant() message.MsgVariant { return m.variant }

func buildIBCMsg(dest message.ChainID, variant message.MsgVariant) (chain.IBCMsg, error) {
	return ibcMsg{variant: variant, dest: dest}, nil
}

func classifySubmitError(err error) error {
	if isRecoverableRevert(err) {
		return &ChainSubmitRecoverableError{Err: err}
	}
	return &ChainSubmitFatalError{Err: err}
}

// isRecoverableRevert treats "already exists/registered" style reverts
// as recoverable (spec.md §7): the choreography that produced this Msg
// will be re-triggered by a fresh on-chain event, so submitting it
// again is wasted work rather than a real problem.
func isRecoverableRevert(err error) bool {
	msg := err.Error()
	for _, needle := range []string{"already exists", "already registered", "already initialized"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
