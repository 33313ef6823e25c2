// Package tokentransfer implements the two fungible-token-transfer
// on-chain protocol variants the relayer drives end to end (spec.md
// §6.4): ICS20 (reference transfer module compatible) and UCS01
// (multi-token extension). Both are pure Go state machines over an
// injected Bank ledger, ported from
// original_source/cosmwasm/ucs01-relay-api/src/protocol.rs's
// TransferProtocol trait into a Go interface, generalized from a
// CosmWasm contract's Response/SubMsg/Event builder style into plain
// return values since nothing here executes inside a contract VM.
package tokentransfer

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Endpoint is one side of a channel, in the same (port, channel) shape
// as internal/message.ChannelEnd, kept independent of that package so
// tokentransfer has no dependency on the engine's message algebra.
type Endpoint struct {
	Port    string
	Channel string
}

func (e Endpoint) prefix() string { return e.Port + "/" + e.Channel + "/" }

// TransferToken is one (denom, amount) pair of a transfer. Amount is
// carried as a decimal string throughout; tokentransfer never does
// arithmetic on it, only passes it to Bank verbatim.
type TransferToken struct {
	Denom  string
	Amount string
}

// TransferInput is the operator-facing request to send(): spec.md
// §6.4's TransferInput{now, timeout_delta, sender, receiver, tokens}.
type TransferInput struct {
	Now          time.Time
	TimeoutDelta time.Duration
	Sender       string
	Receiver     string
	Tokens       []TransferToken
	Memo         string
}

// TransferPacket is the wire packet both protocol variants exchange;
// Memo is fixed to "" by UCS01 and opaque-passthrough for ICS20.
type TransferPacket struct {
	Sender   string
	Receiver string
	Tokens   []TransferToken
	Memo     string
}

// Ack is the decoded acknowledgement, independent of each variant's
// wire encoding (JSON for ICS20, a single byte for UCS01).
type Ack struct {
	Success bool
	Result  string // base64 payload on success, ICS20 only
	Error   string // error text on failure
}

// Attr is one event attribute.
type Attr struct{ Key, Value string }

// Event is a CosmWasm-style event, kept as plain data instead of the
// original's cosmwasm_std.Event builder since nothing here needs to
// return a contract Response.
type Event struct {
	Name  string
	Attrs []Attr
}

func denomAttrs(tokens []TransferToken) []Attr {
	attrs := make([]Attr, 0, len(tokens))
	for _, t := range tokens {
		attrs = append(attrs, Attr{Key: "denom:" + t.Denom, Value: t.Amount})
	}
	return attrs
}

// Bank is the injected ledger surface both protocol variants drive.
// IsEscrowed answers the receive-side question "did I, the receiving
// chain, escrow this exact denom for this exact channel on some
// earlier outbound transfer" -- the decision between unescrowing a
// returning native asset and minting a fresh voucher for a foreign
// one, since the wire packet itself carries the bare denom in both
// cases (spec.md §6.4's S2 scenario: a native send's packet denom is
// unprefixed; only the receiving side's credit is prefixed).
type Bank interface {
	Escrow(ctx context.Context, channel Endpoint, denom, amount string) error
	Unescrow(ctx context.Context, channel Endpoint, denom, amount string) error
	Mint(ctx context.Context, receiver, denom, amount string) error
	Burn(ctx context.Context, holder, denom, amount string) error
	IsEscrowed(ctx context.Context, channel Endpoint, denom string) bool
}

// Protocol is the common surface both ICS20 and UCS01 implement
// (protocol.rs's TransferProtocol trait).
type Protocol interface {
	// Version is the channel version string that selects this variant
	// (spec.md §6.4: "protocol version string dispatches which variant
	// runs on a channel").
	Version() string

	EncodePacket(TransferPacket) ([]byte, error)
	DecodePacket([]byte) (TransferPacket, error)
	EncodeAck(Ack) ([]byte, error)
	DecodeAck([]byte) (Ack, error)

	// Send normalizes tokens for egress, escrows/burns as appropriate,
	// and returns the packet bytes to relay plus the events it emits.
	Send(ctx context.Context, self Endpoint, caller string, input TransferInput) ([]byte, []Event, error)

	// Receive runs the receive-side sub-transaction: mints/unescrows to
	// the receiver. caller must be self for authorization, mirroring
	// the original's "only the contract may invoke its own receive
	// phase" self-caller check.
	Receive(ctx context.Context, self Endpoint, caller, selfAddr string, packetData []byte) (ackData []byte, events []Event)

	// OnAck finalizes a success (no-op on the sender) or refunds on
	// failure, parsing ackData with this variant's own ack codec.
	OnAck(ctx context.Context, self Endpoint, packetData, ackData []byte) error

	// OnTimeout refunds the sender unconditionally.
	OnTimeout(ctx context.Context, self Endpoint, packetData []byte) error
}

// base holds the Bank-driven logic shared by both variants; ICS20 and
// UCS01 embed it and only override wire encoding.
type base struct {
	Bank Bank
}

// normalize classifies each token as foreign (a voucher this side
// itself minted for an earlier inbound transfer over this exact
// channel, recognized by its own port/channel prefix) or native, and
// returns the denom to place in the outbound packet: foreign tokens
// have their prefix stripped, native tokens are left bare (spec.md
// §6.4's egress normalization rule; S2 confirms the native case stays
// unprefixed in the packet).
func (b base) normalize(self Endpoint, tokens []TransferToken) []TransferToken {
	out := make([]TransferToken, len(tokens))
	prefix := self.prefix()
	for i, t := range tokens {
		if strings.HasPrefix(t.Denom, prefix) {
			out[i] = TransferToken{Denom: strings.TrimPrefix(t.Denom, prefix), Amount: t.Amount}
		} else {
			out[i] = t
		}
	}
	return out
}

// settleOutbound escrows native tokens and burns vouchers being sent
// back home, per the same foreign/native classification as normalize.
func (b base) settleOutbound(ctx context.Context, self Endpoint, holder string, raw []TransferToken) error {
	prefix := self.prefix()
	for _, t := range raw {
		if strings.HasPrefix(t.Denom, prefix) {
			if err := b.Bank.Burn(ctx, holder, t.Denom, t.Amount); err != nil {
				return fmt.Errorf("tokentransfer: burn %s: %w", t.Denom, err)
			}
		} else {
			if err := b.Bank.Escrow(ctx, self, t.Denom, t.Amount); err != nil {
				return fmt.Errorf("tokentransfer: escrow %s: %w", t.Denom, err)
			}
		}
	}
	return nil
}

// settleInbound credits the receiver: unescrow if this side previously
// escrowed that exact denom for this channel (the asset is coming
// home), otherwise mint a fresh voucher prefixed with this side's own
// endpoint (spec.md §6.4's S2: "on B the recipient is credited 10 of
// port-B/ch-0/muno").
func (b base) settleInbound(ctx context.Context, self Endpoint, receiver string, tokens []TransferToken) error {
	for _, t := range tokens {
		if b.Bank.IsEscrowed(ctx, self, t.Denom) {
			if err := b.Bank.Unescrow(ctx, self, t.Denom, t.Amount); err != nil {
				return fmt.Errorf("tokentransfer: unescrow %s: %w", t.Denom, err)
			}
			continue
		}
		voucher := self.prefix() + t.Denom
		if err := b.Bank.Mint(ctx, receiver, voucher, t.Amount); err != nil {
			return fmt.Errorf("tokentransfer: mint %s: %w", voucher, err)
		}
	}
	return nil
}

// refund mints back burned vouchers or unescrows locked natives,
// mirroring on_timeout's "same branch as failure ack" comment in the
// original: OnAck's failure path and OnTimeout share this logic.
func (b base) refund(ctx context.Context, self Endpoint, sender string, raw []TransferToken) error {
	prefix := self.prefix()
	for _, t := range raw {
		if strings.HasPrefix(t.Denom, prefix) {
			if err := b.Bank.Mint(ctx, sender, t.Denom, t.Amount); err != nil {
				return fmt.Errorf("tokentransfer: refund mint %s: %w", t.Denom, err)
			}
		} else {
			if err := b.Bank.Unescrow(ctx, self, t.Denom, t.Amount); err != nil {
				return fmt.Errorf("tokentransfer: refund unescrow %s: %w", t.Denom, err)
			}
		}
	}
	return nil
}

func transferEvent(input TransferInput, normalized []TransferToken) Event {
	attrs := []Attr{
		{Key: "sender", Value: input.Sender},
		{Key: "receiver", Value: input.Receiver},
		{Key: "memo", Value: input.Memo},
	}
	attrs = append(attrs, denomAttrs(normalized)...)
	return Event{Name: "ibc_transfer", Attrs: attrs}
}

func moduleEvent() Event {
	return Event{Name: "message", Attrs: []Attr{{Key: "module", Value: "transfer"}}}
}

func packetEvent(success bool, p TransferPacket) Event {
	attrs := []Attr{
		{Key: "module", Value: "transfer"},
		{Key: "sender", Value: p.Sender},
		{Key: "receiver", Value: p.Receiver},
		{Key: "memo", Value: p.Memo},
		{Key: "success", Value: fmt.Sprintf("%t", success)},
	}
	attrs = append(attrs, denomAttrs(p.Tokens)...)
	return Event{Name: "fungible_token_packet", Attrs: attrs}
}

func timeoutEvent(p TransferPacket) Event {
	attrs := []Attr{
		{Key: "module", Value: "transfer"},
		{Key: "refund_receiver", Value: p.Sender},
		{Key: "memo", Value: p.Memo},
	}
	attrs = append(attrs, denomAttrs(p.Tokens)...)
	return Event{Name: "timeout", Attrs: attrs}
}
