package reducer

import (
	"context"

	"github.com/cosmos/voyager-eureka/internal/chain"
	"github.com/cosmos/voyager-eureka/internal/message"
)

// resolveFetch invokes the adapter method matching variant and wraps
// the result as the corresponding message.Data, per spec.md §4.3
// "invoke the corresponding adapter query; wrap the result as a Data
// message tagged with the same chain."
func resolveFetch(ctx context.Context, adapter chain.Adapter, chainID message.ChainID, lc message.LightClientKind, variant message.FetchVariant) (message.Data, error) {
	switch v := variant.(type) {
	case message.FetchTrustedClientState:
		return fetchTrustedClientState(ctx, adapter, v)
	case message.FetchSelfClientState:
		h, err := resolveHeight(ctx, adapter, v.At)
		if err != nil {
			return nil, err
		}
		return adapter.SelfClientState(ctx, h)
	case message.FetchSelfConsensusState:
		h, err := resolveHeight(ctx, adapter, v.At)
		if err != nil {
			return nil, err
		}
		return adapter.SelfConsensusState(ctx, h)
	case message.FetchStateProof:
		return fetchStateProof(ctx, adapter, chainID, v)
	case message.FetchConnectionEnd:
		return adapter.ConnectionEnd(ctx, v.ConnectionID, v.Height)
	case message.FetchChannelEnd:
		return adapter.ChannelEnd(ctx, v.PortID, v.ChannelID, v.Height)
	case message.FetchPacketAcknowledgement:
		ack, found, err := adapter.ReadAck(ctx, v.PortID, v.ChannelID, v.Sequence)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return message.PacketAcknowledgement{
			Base:      message.Base{Chain: chainID},
			PortID:    v.PortID,
			ChannelID: v.ChannelID,
			Sequence:  v.Sequence,
			Ack:       ack,
		}, nil
	default:
		return nil, ErrUnknownMessage
	}
}

func resolveHeight(ctx context.Context, adapter chain.Adapter, sel message.HeightSelector) (message.Height, error) {
	if sel.Latest {
		return adapter.LatestHeight(ctx)
	}
	return sel.Height, nil
}

// fetchTrustedClientState reads the counterparty client we track via
// adapter.ClientState. ClientState takes no height, so v.At is not
// applied: the result is the client state the adapter reads now,
// whatever height At names.
func fetchTrustedClientState(ctx context.Context, adapter chain.Adapter, v message.FetchTrustedClientState) (message.Data, error) {
	return adapter.ClientState(ctx, v.ClientID)
}

// fetchStateProof resolves one of the six proof Data variants from a
// single adapter.StateProof call, keyed by the Path's concrete type.
func fetchStateProof(ctx context.Context, adapter chain.Adapter, chainID message.ChainID, v message.FetchStateProof) (message.Data, error) {
	result, err := adapter.StateProof(ctx, v.Path, v.Height)
	if err != nil {
		return nil, err
	}
	common := message.ProofCommon{
		Base:        message.Base{Chain: chainID},
		State:       result.Value,
		Proof:       result.Proof,
		ProofHeight: result.Height,
	}
	switch v.Path.(type) {
	case message.ClientStatePath:
		return message.ClientStateProof{ProofCommon: common}, nil
	case message.ClientConsensusStatePath:
		return message.ClientConsensusStateProof{ProofCommon: common}, nil
	case message.ConnectionPath:
		return message.ConnectionProof{ProofCommon: common}, nil
	case message.ChannelEndPath:
		return message.ChannelEndProof{ProofCommon: common}, nil
	case message.CommitmentPath:
		return message.CommitmentProof{ProofCommon: common}, nil
	case message.AcknowledgementPath:
		return message.AcknowledgementProof{ProofCommon: common}, nil
	default:
		return nil, ErrUnknownMessage
	}
}
