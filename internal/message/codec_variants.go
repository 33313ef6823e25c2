package message

import (
	"encoding/json"
	"fmt"
	"time"
)

func timeDuration(nanos int64) time.Duration { return time.Duration(nanos) }

// --- FetchVariant ---

func marshalFetchVariant(v FetchVariant) (json.RawMessage, error) {
	switch fv := v.(type) {
	case FetchTrustedClientState:
		return encode("trusted_client_state", fv)
	case FetchSelfClientState:
		return encode("self_client_state", fv)
	case FetchSelfConsensusState:
		return encode("self_consensus_state", fv)
	case FetchStateProof:
		pathEnv, err := marshalPath(fv.Path)
		if err != nil {
			return nil, err
		}
		return encode("state_proof", fetchStateProofWire{Path: pathEnv, Height: fv.Height})
	case FetchConnectionEnd:
		return encode("connection_end", fv)
	case FetchChannelEnd:
		return encode("channel_end", fv)
	case FetchPacketAcknowledgement:
		return encode("packet_acknowledgement", fv)
	case FetchUpdateHeaders:
		return encode("update_headers", fv)
	default:
		return nil, fmt.Errorf("message: unknown FetchVariant %T", v)
	}
}

type fetchStateProofWire struct {
	Path   json.RawMessage `json:"path"`
	Height Height          `json:"height"`
}

func unmarshalFetchVariant(env envelope) (FetchVariant, error) {
	switch env.Kind {
	case "trusted_client_state":
		var v FetchTrustedClientState
		return v, json.Unmarshal(env.Body, &v)
	case "self_client_state":
		var v FetchSelfClientState
		return v, json.Unmarshal(env.Body, &v)
	case "self_consensus_state":
		var v FetchSelfConsensusState
		return v, json.Unmarshal(env.Body, &v)
	case "state_proof":
		var w fetchStateProofWire
		if err := json.Unmarshal(env.Body, &w); err != nil {
			return nil, err
		}
		p, err := unmarshalPath(w.Path)
		if err != nil {
			return nil, err
		}
		return FetchStateProof{Path: p, Height: w.Height}, nil
	case "connection_end":
		var v FetchConnectionEnd
		return v, json.Unmarshal(env.Body, &v)
	case "channel_end":
		var v FetchChannelEnd
		return v, json.Unmarshal(env.Body, &v)
	case "packet_acknowledgement":
		var v FetchPacketAcknowledgement
		return v, json.Unmarshal(env.Body, &v)
	case "update_headers":
		var v FetchUpdateHeaders
		return v, json.Unmarshal(env.Body, &v)
	default:
		return nil, fmt.Errorf("message: unknown FetchVariant kind %q", env.Kind)
	}
}

// --- WaitVariant ---

func marshalWaitVariant(v WaitVariant) (json.RawMessage, error) {
	switch wv := v.(type) {
	case WaitForBlock:
		return encode("block", wv)
	case WaitForTimestamp:
		return encode("timestamp", wv)
	case WaitForTrustedHeight:
		return encode("trusted_height", wv)
	default:
		return nil, fmt.Errorf("message: unknown WaitVariant %T", v)
	}
}

func unmarshalWaitVariant(env envelope) (WaitVariant, error) {
	switch env.Kind {
	case "block":
		var v WaitForBlock
		return v, json.Unmarshal(env.Body, &v)
	case "timestamp":
		var v WaitForTimestamp
		return v, json.Unmarshal(env.Body, &v)
	case "trusted_height":
		var v WaitForTrustedHeight
		return v, json.Unmarshal(env.Body, &v)
	default:
		return nil, fmt.Errorf("message: unknown WaitVariant kind %q", env.Kind)
	}
}

// --- MsgVariant ---

func marshalMsgVariant(v MsgVariant) (json.RawMessage, error) {
	switch mv := v.(type) {
	case MsgCreateClient:
		return encode("create_client", mv)
	case MsgConnectionOpenTry:
		return encode("connection_open_try", mv)
	case MsgConnectionOpenAck:
		return encode("connection_open_ack", mv)
	case MsgConnectionOpenConfirm:
		return encode("connection_open_confirm", mv)
	case MsgChannelOpenTry:
		return encode("channel_open_try", mv)
	case MsgChannelOpenAck:
		return encode("channel_open_ack", mv)
	case MsgChannelOpenConfirm:
		return encode("channel_open_confirm", mv)
	case MsgRecvPacket:
		return encode("recv_packet", mv)
	case MsgAcknowledgement:
		return encode("acknowledgement", mv)
	case MsgTimeout:
		return encode("timeout_packet", mv)
	case MsgUpdateClient:
		return encode("update_client", mv)
	default:
		return nil, fmt.Errorf("message: unknown MsgVariant %T", v)
	}
}

func unmarshalMsgVariant(env envelope) (MsgVariant, error) {
	switch env.Kind {
	case "create_client":
		var v MsgCreateClient
		return v, json.Unmarshal(env.Body, &v)
	case "connection_open_try":
		var v MsgConnectionOpenTry
		return v, json.Unmarshal(env.Body, &v)
	case "connection_open_ack":
		var v MsgConnectionOpenAck
		return v, json.Unmarshal(env.Body, &v)
	case "connection_open_confirm":
		var v MsgConnectionOpenConfirm
		return v, json.Unmarshal(env.Body, &v)
	case "channel_open_try":
		var v MsgChannelOpenTry
		return v, json.Unmarshal(env.Body, &v)
	case "channel_open_ack":
		var v MsgChannelOpenAck
		return v, json.Unmarshal(env.Body, &v)
	case "channel_open_confirm":
		var v MsgChannelOpenConfirm
		return v, json.Unmarshal(env.Body, &v)
	case "recv_packet":
		var v MsgRecvPacket
		return v, json.Unmarshal(env.Body, &v)
	case "acknowledgement":
		var v MsgAcknowledgement
		return v, json.Unmarshal(env.Body, &v)
	case "timeout_packet":
		var v MsgTimeout
		return v, json.Unmarshal(env.Body, &v)
	case "update_client":
		var v MsgUpdateClient
		return v, json.Unmarshal(env.Body, &v)
	default:
		return nil, fmt.Errorf("message: unknown MsgVariant kind %q", env.Kind)
	}
}

// --- Path ---

func marshalPath(p Path) (json.RawMessage, error) {
	switch pv := p.(type) {
	case ClientStatePath:
		return encode("client_state", pv)
	case ClientConsensusStatePath:
		return encode("client_consensus_state", pv)
	case ConnectionPath:
		return encode("connection", pv)
	case ChannelEndPath:
		return encode("channel_end", pv)
	case CommitmentPath:
		return encode("commitment", pv)
	case AcknowledgementPath:
		return encode("acknowledgement", pv)
	default:
		return nil, fmt.Errorf("message: unknown Path %T", p)
	}
}

func unmarshalPath(b json.RawMessage) (Path, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case "client_state":
		var v ClientStatePath
		return v, json.Unmarshal(env.Body, &v)
	case "client_consensus_state":
		var v ClientConsensusStatePath
		return v, json.Unmarshal(env.Body, &v)
	case "connection":
		var v ConnectionPath
		return v, json.Unmarshal(env.Body, &v)
	case "channel_end":
		var v ChannelEndPath
		return v, json.Unmarshal(env.Body, &v)
	case "commitment":
		var v CommitmentPath
		return v, json.Unmarshal(env.Body, &v)
	case "acknowledgement":
		var v AcknowledgementPath
		return v, json.Unmarshal(env.Body, &v)
	default:
		return nil, fmt.Errorf("message: unknown Path kind %q", env.Kind)
	}
}
