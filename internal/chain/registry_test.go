package chain_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cosmos/voyager-eureka/internal/chain"
	"github.com/cosmos/voyager-eureka/internal/message"
)

// stubAdapter is the minimal chain.Adapter double registry_test needs:
// just enough identity (ChainID, LightClient) to exercise lookups.
type stubAdapter struct {
	chainID message.ChainID
	lc      message.LightClientKind
}

func (a stubAdapter) ChainID() message.ChainID             { return a.chainID }
func (a stubAdapter) LightClient() message.LightClientKind { return a.lc }
func (a stubAdapter) LatestHeight(ctx context.Context) (message.Height, error) {
	return message.Height{}, nil
}
func (a stubAdapter) LatestTimestamp(ctx context.Context) (time.Time, error) {
	return time.Time{}, nil
}
func (a stubAdapter) SelfClientState(ctx context.Context, height message.Height) (message.Data, error) {
	return nil, nil
}
func (a stubAdapter) SelfConsensusState(ctx context.Context, height message.Height) (message.Data, error) {
	return nil, nil
}
func (a stubAdapter) ClientState(ctx context.Context, clientID message.ClientID) (message.Data, error) {
	return nil, nil
}
func (a stubAdapter) ConnectionEnd(ctx context.Context, connectionID message.ConnectionID, height message.Height) (message.Data, error) {
	return nil, nil
}
func (a stubAdapter) ChannelEnd(ctx context.Context, portID message.PortID, channelID message.ChannelID, height message.Height) (message.Data, error) {
	return nil, nil
}
func (a stubAdapter) StateProof(ctx context.Context, path message.Path, height message.Height) (chain.StateProofResult, error) {
	return chain.StateProofResult{}, nil
}
func (a stubAdapter) ReadAck(ctx context.Context, portID message.PortID, channelID message.ChannelID, sequence message.PacketSequence) ([]byte, bool, error) {
	return nil, false, nil
}
func (a stubAdapter) Events(ctx context.Context, lc message.LightClientKind, fromHeight message.Height) (<-chan chain.ChainEvent, error) {
	return nil, nil
}
func (a stubAdapter) GenerateCounterpartyUpdates(ctx context.Context, lc message.LightClientKind, trustedHeight, targetHeight message.Height) ([]message.Data, error) {
	return nil, nil
}
func (a stubAdapter) SubmitMsg(ctx context.Context, msg chain.IBCMsg) chain.SubmitResult {
	return chain.SubmitResult{}
}

func TestRegistryGetReturnsRegisteredAdapter(t *testing.T) {
	reg := chain.NewRegistry()
	a := stubAdapter{chainID: "evm-1", lc: message.CometblsMainnet}
	reg.Register(a)

	got, ok := reg.Get("evm-1")
	require.True(t, ok)
	require.Equal(t, message.ChainID("evm-1"), got.ChainID())

	_, ok = reg.Get("no-such-chain")
	require.False(t, ok)
}

func TestRegistryRegisterPanicsOnDuplicateChainID(t *testing.T) {
	reg := chain.NewRegistry()
	reg.Register(stubAdapter{chainID: "evm-1", lc: message.CometblsMainnet})

	require.Panics(t, func() {
		reg.Register(stubAdapter{chainID: "evm-1", lc: message.CometblsMinimal})
	})
}

func TestRegistryChainForLightClientResolvesCounterparty(t *testing.T) {
	reg := chain.NewRegistry()
	reg.Register(stubAdapter{chainID: "evm-1", lc: message.CometblsMainnet})
	reg.Register(stubAdapter{chainID: "union-1", lc: message.EthereumMainnet})

	id, ok := reg.ChainForLightClient(message.CometblsMainnet.Counterparty())
	require.True(t, ok)
	require.Equal(t, message.ChainID("union-1"), id)

	_, ok = reg.ChainForLightClient(message.CometblsMinimal)
	require.False(t, ok)
}

func TestRegistryAllReturnsEverythingRegistered(t *testing.T) {
	reg := chain.NewRegistry()
	reg.Register(stubAdapter{chainID: "evm-1", lc: message.CometblsMainnet})
	reg.Register(stubAdapter{chainID: "union-1", lc: message.EthereumMainnet})

	all := reg.All()
	require.Len(t, all, 2)

	ids := map[message.ChainID]bool{}
	for _, a := range all {
		ids[a.ChainID()] = true
	}
	require.True(t, ids["evm-1"])
	require.True(t, ids["union-1"])
}
