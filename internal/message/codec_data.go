package message

import (
	"encoding/json"
	"fmt"
)

// MarshalData serializes a Data payload. Exported because Aggregate.Data
// needs it directly (see codec.go) and because the Hasura archive sink
// re-uses it to POST dequeued Fetch results.
func MarshalData(d Data) ([]byte, error) {
	switch v := d.(type) {
	case TrustedClientState:
		return encode(v.Kind().String(), v)
	case SelfClientState:
		return encode(v.Kind().String(), v)
	case SelfConsensusState:
		return encode(v.Kind().String(), v)
	case ClientStateProof:
		return encode(v.Kind().String(), v)
	case ClientConsensusStateProof:
		return encode(v.Kind().String(), v)
	case ConnectionProof:
		return encode(v.Kind().String(), v)
	case ChannelEndProof:
		return encode(v.Kind().String(), v)
	case CommitmentProof:
		return encode(v.Kind().String(), v)
	case AcknowledgementProof:
		return encode(v.Kind().String(), v)
	case ConnectionEnd:
		return encode(v.Kind().String(), v)
	case ChannelEnd:
		return encode(v.Kind().String(), v)
	case PacketAcknowledgement:
		return encode(v.Kind().String(), v)
	case BeaconFinalityUpdate:
		return encode(v.Kind().String(), v)
	case BeaconLightClientUpdate:
		return encode(v.Kind().String(), v)
	case BeaconBootstrap:
		return encode(v.Kind().String(), v)
	case AccountUpdate:
		return encode(v.Kind().String(), v)
	case BeaconGenesis:
		return encode(v.Kind().String(), v)
	default:
		return nil, fmt.Errorf("message: unknown Data type %T", d)
	}
}

// UnmarshalData is the inverse of MarshalData: it decodes the
// {kind, body} envelope MarshalData produces.
func UnmarshalData(b json.RawMessage) (Data, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case KindTrustedClientState.String():
		var v TrustedClientState
		return v, json.Unmarshal(env.Body, &v)
	case KindSelfClientState.String():
		var v SelfClientState
		return v, json.Unmarshal(env.Body, &v)
	case KindSelfConsensusState.String():
		var v SelfConsensusState
		return v, json.Unmarshal(env.Body, &v)
	case KindClientStateProof.String():
		var v ClientStateProof
		return v, json.Unmarshal(env.Body, &v)
	case KindClientConsensusStateProof.String():
		var v ClientConsensusStateProof
		return v, json.Unmarshal(env.Body, &v)
	case KindConnectionProof.String():
		var v ConnectionProof
		return v, json.Unmarshal(env.Body, &v)
	case KindChannelEndProof.String():
		var v ChannelEndProof
		return v, json.Unmarshal(env.Body, &v)
	case KindCommitmentProof.String():
		var v CommitmentProof
		return v, json.Unmarshal(env.Body, &v)
	case KindAcknowledgementProof.String():
		var v AcknowledgementProof
		return v, json.Unmarshal(env.Body, &v)
	case KindConnectionEnd.String():
		var v ConnectionEnd
		return v, json.Unmarshal(env.Body, &v)
	case KindChannelEnd.String():
		var v ChannelEnd
		return v, json.Unmarshal(env.Body, &v)
	case KindPacketAcknowledgement.String():
		var v PacketAcknowledgement
		return v, json.Unmarshal(env.Body, &v)
	case KindBeaconFinalityUpdate.String():
		var v BeaconFinalityUpdate
		return v, json.Unmarshal(env.Body, &v)
	case KindBeaconLightClientUpdate.String():
		var v BeaconLightClientUpdate
		return v, json.Unmarshal(env.Body, &v)
	case KindBeaconBootstrap.String():
		var v BeaconBootstrap
		return v, json.Unmarshal(env.Body, &v)
	case KindAccountUpdate.String():
		var v AccountUpdate
		return v, json.Unmarshal(env.Body, &v)
	case KindBeaconGenesis.String():
		var v BeaconGenesis
		return v, json.Unmarshal(env.Body, &v)
	default:
		return nil, fmt.Errorf("message: unknown Data kind %q", env.Kind)
	}
}
