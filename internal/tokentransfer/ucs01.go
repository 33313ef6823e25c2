package tokentransfer

import (
	"context"
	"encoding/json"
	"fmt"
)

// UCS01Version is the channel version string that selects the UCS01
// variant.
const UCS01Version = "ucs01-1"

// UCS01 is the multi-token extension: memo is fixed to "" and the
// acknowledgement is a single byte tag (1 success, 0 failure) instead
// of ICS20's JSON envelope (spec.md §6.4).
type UCS01 struct {
	base
}

// NewUCS01 constructs the UCS01 protocol over bank.
func NewUCS01(bank Bank) *UCS01 {
	return &UCS01{base: base{Bank: bank}}
}

func (p *UCS01) Version() string { return UCS01Version }

type ucs01WirePacket struct {
	Sender   string          `json:"sender"`
	Receiver string          `json:"receiver"`
	Tokens   []TransferToken `json:"tokens"`
	Memo     string          `json:"memo"`
}

func (p *UCS01) EncodePacket(t TransferPacket) ([]byte, error) {
	return json.Marshal(ucs01WirePacket{Sender: t.Sender, Receiver: t.Receiver, Tokens: t.Tokens, Memo: ""})
}

func (p *UCS01) DecodePacket(raw []byte) (TransferPacket, error) {
	var w ucs01WirePacket
	if err := json.Unmarshal(raw, &w); err != nil {
		return TransferPacket{}, fmt.Errorf("tokentransfer: decode ucs01 packet: %w", err)
	}
	return TransferPacket{Sender: w.Sender, Receiver: w.Receiver, Tokens: w.Tokens, Memo: ""}, nil
}

func (p *UCS01) EncodeAck(a Ack) ([]byte, error) {
	if a.Success {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func (p *UCS01) DecodeAck(raw []byte) (Ack, error) {
	if len(raw) != 1 {
		return Ack{}, fmt.Errorf("tokentransfer: ucs01 ack must be one byte, got %d", len(raw))
	}
	return Ack{Success: raw[0] == 1}, nil
}

func (p *UCS01) Send(ctx context.Context, self Endpoint, caller string, input TransferInput) ([]byte, []Event, error) {
	normalized := p.normalize(self, input.Tokens)
	if err := p.settleOutbound(ctx, self, caller, input.Tokens); err != nil {
		return nil, nil, err
	}
	packet := TransferPacket{Sender: input.Sender, Receiver: input.Receiver, Tokens: normalized, Memo: ""}
	data, err := p.EncodePacket(packet)
	if err != nil {
		return nil, nil, err
	}
	return data, []Event{transferEvent(input, normalized), moduleEvent()}, nil
}

func (p *UCS01) Receive(ctx context.Context, self Endpoint, caller, selfAddr string, packetData []byte) ([]byte, []Event) {
	packet, err := p.DecodePacket(packetData)
	if err != nil {
		return p.errorAck(err)
	}
	if caller != selfAddr {
		return p.errorAck(ErrUnauthorized)
	}
	if err := p.settleInbound(ctx, self, packet.Receiver, packet.Tokens); err != nil {
		return p.errorAck(err)
	}
	ackData, _ := p.EncodeAck(Ack{Success: true})
	return ackData, []Event{packetEvent(true, packet)}
}

func (p *UCS01) errorAck(cause error) ([]byte, []Event) {
	ackData, _ := p.EncodeAck(Ack{Success: false})
	return ackData, []Event{{Name: "fungible_token_packet", Attrs: []Attr{
		{Key: "module", Value: "transfer"},
		{Key: "success", Value: "false"},
		{Key: "error", Value: cause.Error()},
	}}}
}

func (p *UCS01) OnAck(ctx context.Context, self Endpoint, packetData, ackData []byte) error {
	packet, err := p.DecodePacket(packetData)
	if err != nil {
		return err
	}
	ack, err := p.DecodeAck(ackData)
	if err != nil {
		return err
	}
	if ack.Success {
		return nil
	}
	return p.refund(ctx, self, packet.Sender, packet.Tokens)
}

func (p *UCS01) OnTimeout(ctx context.Context, self Endpoint, packetData []byte) error {
	packet, err := p.DecodePacket(packetData)
	if err != nil {
		return err
	}
	return p.refund(ctx, self, packet.Sender, packet.Tokens)
}
