package tokentransfer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cosmos/voyager-eureka/internal/tokentransfer"
)

// fakeBank is an in-memory ledger used only to exercise Protocol
// implementations; it keeps one balance map per (holder, denom) and
// one escrow-amount map per (channel, denom), mirroring the minimal
// surface tokentransfer.Bank requires.
type fakeBank struct {
	balances map[string]string
	escrowed map[string]string
}

func newFakeBank() *fakeBank {
	return &fakeBank{balances: map[string]string{}, escrowed: map[string]string{}}
}

func key(holder, denom string) string { return holder + "|" + denom }
func ekey(ch tokentransfer.Endpoint, denom string) string { return ch.Port + "/" + ch.Channel + "|" + denom }

func (b *fakeBank) Escrow(ctx context.Context, ch tokentransfer.Endpoint, denom, amount string) error {
	b.escrowed[ekey(ch, denom)] = amount
	return nil
}

func (b *fakeBank) Unescrow(ctx context.Context, ch tokentransfer.Endpoint, denom, amount string) error {
	delete(b.escrowed, ekey(ch, denom))
	b.balances[key("receiver-credit", denom)] = amount
	return nil
}

func (b *fakeBank) Mint(ctx context.Context, receiver, denom, amount string) error {
	b.balances[key(receiver, denom)] = amount
	return nil
}

func (b *fakeBank) Burn(ctx context.Context, holder, denom, amount string) error {
	delete(b.balances, key(holder, denom))
	return nil
}

func (b *fakeBank) IsEscrowed(ctx context.Context, ch tokentransfer.Endpoint, denom string) bool {
	_, ok := b.escrowed[ekey(ch, denom)]
	return ok
}

// TestUCS01RoundTrip mirrors spec.md's S2 scenario: alice on A sends
// 10 muno to bob over ch-0; the packet carries the bare denom; B
// credits bob with the prefixed voucher.
func TestUCS01RoundTrip(t *testing.T) {
	ctx := context.Background()
	bankA := newFakeBank()
	a := tokentransfer.NewUCS01(bankA)
	chA := tokentransfer.Endpoint{Port: "port-A", Channel: "ch-0"}

	packetData, events, err := a.Send(ctx, chA, "alice", tokentransfer.TransferInput{
		Now: time.Unix(0, 0), TimeoutDelta: time.Minute,
		Sender: "alice", Receiver: "bob",
		Tokens: []tokentransfer.TransferToken{{Denom: "muno", Amount: "10"}},
	})
	require.NoError(t, err)
	require.Equal(t, "10", bankA.escrowed[ekey(chA, "muno")])

	packet, err := a.DecodePacket(packetData)
	require.NoError(t, err)
	require.Equal(t, "muno", packet.Tokens[0].Denom)
	require.Equal(t, "", packet.Memo)

	foundTransferEvent := false
	for _, ev := range events {
		if ev.Name == "ibc_transfer" {
			foundTransferEvent = true
			require.Contains(t, ev.Attrs, tokentransfer.Attr{Key: "denom:muno", Value: "10"})
		}
	}
	require.True(t, foundTransferEvent)

	bankB := newFakeBank()
	b := tokentransfer.NewUCS01(bankB)
	chB := tokentransfer.Endpoint{Port: "port-B", Channel: "ch-0"}

	ackData, _ := b.Receive(ctx, chB, "contract-b", "contract-b", packetData)
	require.Equal(t, "10", bankB.balances[key("bob", "port-B/ch-0/muno")])
	ack, err := b.DecodeAck(ackData)
	require.NoError(t, err)
	require.True(t, ack.Success)
}

func TestUCS01OnTimeoutRefundsEscrow(t *testing.T) {
	ctx := context.Background()
	bank := newFakeBank()
	p := tokentransfer.NewUCS01(bank)
	ch := tokentransfer.Endpoint{Port: "port-A", Channel: "ch-0"}

	packetData, _, err := p.Send(ctx, ch, "alice", tokentransfer.TransferInput{
		Sender: "alice", Receiver: "bob",
		Tokens: []tokentransfer.TransferToken{{Denom: "muno", Amount: "10"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, bank.escrowed)

	require.NoError(t, p.OnTimeout(ctx, ch, packetData))
	require.Equal(t, "10", bank.balances[key("receiver-credit", "muno")])
}

func TestUCS01ReceiveUnauthorizedCaller(t *testing.T) {
	ctx := context.Background()
	bank := newFakeBank()
	p := tokentransfer.NewUCS01(bank)
	ch := tokentransfer.Endpoint{Port: "port-B", Channel: "ch-0"}

	packetData, err := p.EncodePacket(tokentransfer.TransferPacket{
		Sender: "alice", Receiver: "bob",
		Tokens: []tokentransfer.TransferToken{{Denom: "muno", Amount: "10"}},
	})
	require.NoError(t, err)

	ackData, _ := p.Receive(ctx, ch, "someone-else", "contract-b", packetData)
	ack, err := p.DecodeAck(ackData)
	require.NoError(t, err)
	require.False(t, ack.Success)
}

func TestICS20AckEncoding(t *testing.T) {
	p := tokentransfer.NewICS20(newFakeBank())

	successAck, err := p.EncodeAck(tokentransfer.Ack{Success: true, Result: "eyJvayI6dHJ1ZX0="})
	require.NoError(t, err)
	decoded, err := p.DecodeAck(successAck)
	require.NoError(t, err)
	require.True(t, decoded.Success)
	require.Equal(t, "eyJvayI6dHJ1ZX0=", decoded.Result)

	failureAck, err := p.EncodeAck(tokentransfer.Ack{Success: false, Error: "boom"})
	require.NoError(t, err)
	decoded, err = p.DecodeAck(failureAck)
	require.NoError(t, err)
	require.False(t, decoded.Success)
	require.Equal(t, "boom", decoded.Error)
}

// TestICS20SendThreadsMemo confirms ICS20 carries TransferInput.Memo
// through to the wire packet, unlike UCS01 which always fixes it to ""
// (spec.md §6.4's ICS20 packet shape).
func TestICS20SendThreadsMemo(t *testing.T) {
	ctx := context.Background()
	bank := newFakeBank()
	p := tokentransfer.NewICS20(bank)
	ch := tokentransfer.Endpoint{Port: "port-A", Channel: "ch-0"}

	packetData, events, err := p.Send(ctx, ch, "alice", tokentransfer.TransferInput{
		Now: time.Unix(0, 0), TimeoutDelta: time.Minute,
		Sender: "alice", Receiver: "bob",
		Tokens: []tokentransfer.TransferToken{{Denom: "muno", Amount: "10"}},
		Memo:   "hello",
	})
	require.NoError(t, err)

	packet, err := p.DecodePacket(packetData)
	require.NoError(t, err)
	require.Equal(t, "hello", packet.Memo)

	foundTransferEvent := false
	for _, ev := range events {
		if ev.Name == "ibc_transfer" {
			foundTransferEvent = true
			require.Contains(t, ev.Attrs, tokentransfer.Attr{Key: "memo", Value: "hello"})
		}
	}
	require.True(t, foundTransferEvent)
}

func TestLookupUnknownProtocol(t *testing.T) {
	_, err := tokentransfer.Lookup("bogus-version", newFakeBank())
	require.Error(t, err)
}

func TestVoucherReturnHomeBurnsRatherThanEscrows(t *testing.T) {
	ctx := context.Background()
	bank := newFakeBank()
	p := tokentransfer.NewUCS01(bank)
	ch := tokentransfer.Endpoint{Port: "port-B", Channel: "ch-0"}

	// bob on B holds a voucher previously minted for a transfer coming
	// from A; sending it back should strip the prefix and burn, not
	// escrow.
	bank.balances[key("bob", "port-B/ch-0/muno")] = "10"

	packetData, _, err := p.Send(ctx, ch, "bob", tokentransfer.TransferInput{
		Sender: "bob", Receiver: "alice",
		Tokens: []tokentransfer.TransferToken{{Denom: "port-B/ch-0/muno", Amount: "10"}},
	})
	require.NoError(t, err)
	require.Empty(t, bank.escrowed)

	packet, err := p.DecodePacket(packetData)
	require.NoError(t, err)
	require.Equal(t, "muno", packet.Tokens[0].Denom)
}
