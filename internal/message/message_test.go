package message_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cosmos/voyager-eureka/internal/message"
)

// TestSequenceFlattening covers spec.md §8.1: handling
// Sequence[Sequence[a,b],c] must yield the same successor stream as
// Sequence[a,b,c].
func TestSequenceFlattening(t *testing.T) {
	a := message.DeferUntil{UnixSeconds: 1}
	b := message.DeferUntil{UnixSeconds: 2}
	c := message.DeferUntil{UnixSeconds: 3}

	nested := message.NewSequence(message.NewSequence(a, b), c)
	flat := message.NewSequence(a, b, c)

	require.Equal(t, flat.Messages, nested.Messages)
	require.Len(t, nested.Messages, 3)
}

func TestSequenceFlatteningDeeplyNested(t *testing.T) {
	a := message.DeferUntil{UnixSeconds: 1}
	b := message.DeferUntil{UnixSeconds: 2}

	nested := message.NewSequence(message.NewSequence(message.NewSequence(a), b))
	require.Equal(t, []message.Message{a, b}, nested.Messages)
}

func TestDeferUntilDue(t *testing.T) {
	d := message.DeferUntil{UnixSeconds: 1000}
	require.False(t, d.Due(time.Unix(999, 0)))
	require.True(t, d.Due(time.Unix(1000, 0)))
	require.True(t, d.Due(time.Unix(1001, 0)))
}

func TestTimeoutExpired(t *testing.T) {
	inner := message.DeferUntil{UnixSeconds: 1}
	to := message.Timeout{TimeoutUnixSeconds: 1000, Inner: inner}
	require.False(t, to.Expired(time.Unix(1000, 0)))
	require.True(t, to.Expired(time.Unix(1001, 0)))
}

func TestHeightIncrementAndOffset(t *testing.T) {
	h := message.Height{RevisionNumber: 3, RevisionHeight: 10}
	next := h.Increment()
	require.Equal(t, uint64(11), next.RevisionHeight)
	require.Equal(t, uint64(3), next.RevisionNumber)
}

// TestLightClientCounterpartyIsInvolution covers the closed
// (light-client, chain) enumeration: Counterparty is its own inverse,
// and IsEVM distinguishes the two families.
func TestLightClientCounterpartyIsInvolution(t *testing.T) {
	for _, k := range []message.LightClientKind{
		message.EthereumMainnet, message.EthereumMinimal,
		message.CometblsMainnet, message.CometblsMinimal,
	} {
		require.Equal(t, k, k.Counterparty().Counterparty())
		require.NotEqual(t, k.IsEVM(), k.Counterparty().IsEVM())
	}
}

func TestMarshalUnmarshalRoundTripsSequenceAndRetry(t *testing.T) {
	original := message.NewSequence(
		message.DeferUntil{UnixSeconds: 42},
		message.Retry{AttemptsLeft: 3, Backoff: time.Second, Inner: message.DeferUntil{UnixSeconds: 7}},
	)

	raw, err := message.Marshal(original)
	require.NoError(t, err)

	decoded, err := message.Unmarshal(raw)
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}
