package tokentransfer

import (
	"context"
	"encoding/json"
	"fmt"
)

// ICS20Version is the channel version string that selects the ICS20
// variant.
const ICS20Version = "ics20-1"

// ICS20 is the reference-transfer-module-compatible variant: packet
// memo is an opaque passthrough string, acknowledgement is JSON
// `{result: base64} | {error: string}` (spec.md §6.4).
type ICS20 struct {
	base
}

// NewICS20 constructs the ICS20 protocol over bank.
func NewICS20(bank Bank) *ICS20 {
	return &ICS20{base: base{Bank: bank}}
}

func (p *ICS20) Version() string { return ICS20Version }

type ics20WirePacket struct {
	Sender   string          `json:"sender"`
	Receiver string          `json:"receiver"`
	Tokens   []TransferToken `json:"tokens"`
	Memo     string          `json:"memo"`
}

type ics20WireAck struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (p *ICS20) EncodePacket(t TransferPacket) ([]byte, error) {
	return json.Marshal(ics20WirePacket{Sender: t.Sender, Receiver: t.Receiver, Tokens: t.Tokens, Memo: t.Memo})
}

func (p *ICS20) DecodePacket(raw []byte) (TransferPacket, error) {
	var w ics20WirePacket
	if err := json.Unmarshal(raw, &w); err != nil {
		return TransferPacket{}, fmt.Errorf("tokentransfer: decode ics20 packet: %w", err)
	}
	return TransferPacket{Sender: w.Sender, Receiver: w.Receiver, Tokens: w.Tokens, Memo: w.Memo}, nil
}

func (p *ICS20) EncodeAck(a Ack) ([]byte, error) {
	if a.Success {
		return json.Marshal(ics20WireAck{Result: a.Result})
	}
	return json.Marshal(ics20WireAck{Error: a.Error})
}

func (p *ICS20) DecodeAck(raw []byte) (Ack, error) {
	var w ics20WireAck
	if err := json.Unmarshal(raw, &w); err != nil {
		return Ack{}, fmt.Errorf("tokentransfer: decode ics20 ack: %w", err)
	}
	if w.Error != "" {
		return Ack{Success: false, Error: w.Error}, nil
	}
	return Ack{Success: true, Result: w.Result}, nil
}

func (p *ICS20) Send(ctx context.Context, self Endpoint, caller string, input TransferInput) ([]byte, []Event, error) {
	normalized := p.normalize(self, input.Tokens)
	if err := p.settleOutbound(ctx, self, caller, input.Tokens); err != nil {
		return nil, nil, err
	}
	packet := TransferPacket{Sender: input.Sender, Receiver: input.Receiver, Tokens: normalized, Memo: input.Memo}
	data, err := p.EncodePacket(packet)
	if err != nil {
		return nil, nil, err
	}
	return data, []Event{transferEvent(input, normalized), moduleEvent()}, nil
}

func (p *ICS20) Receive(ctx context.Context, self Endpoint, caller, selfAddr string, packetData []byte) ([]byte, []Event) {
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
	// "AQ==" is base64 of the single byte 0x01, the reference transfer
	// module's success result.
	ackData, err := p.EncodeAck(Ack{Success: true, Result: "AQ=="})
	if err != nil {
		return p.errorAck(err)
	}
	return ackData, []Event{packetEvent(true, packet)}
}

func (p *ICS20) errorAck(cause error) ([]byte, []Event) {
	ackData, _ := p.EncodeAck(Ack{Success: false, Error: cause.Error()})
	return ackData, []Event{{Name: "fungible_token_packet", Attrs: []Attr{
		{Key: "module", Value: "transfer"},
		{Key: "success", Value: "false"},
		{Key: "error", Value: cause.Error()},
	}}}
}

func (p *ICS20) OnAck(ctx context.Context, self Endpoint, packetData, ackData []byte) error {
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

func (p *ICS20) OnTimeout(ctx context.Context, self Endpoint, packetData []byte) error {
	packet, err := p.DecodePacket(packetData)
	if err != nil {
		return err
	}
	return p.refund(ctx, self, packet.Sender, packet.Tokens)
}
