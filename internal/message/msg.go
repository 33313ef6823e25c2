package message

// Msg is the LightClientBody that submits one IBC message to a chain;
// it has no successors (spec.md §4.3: "invoke adapter.msg(m). No
// successors.").
type Msg struct {
	Variant MsgVariant
}

func (Msg) bodyKind() string { return "msg" }

// MsgVariant is the closed set of outbound IBC transactions the
// reducer can produce.
type MsgVariant interface {
	msgVariant()
}

type MsgCreateClient struct {
	ClientState    []byte
	ConsensusState []byte
	Config         map[string]string
}

func (MsgCreateClient) msgVariant() {}

type ConnectionCounterparty struct {
	ClientID     ClientID
	ConnectionID ConnectionID
	Prefix       string
}

type MsgConnectionOpenTry struct {
	Counterparty     ConnectionCounterparty
	ClientID         ClientID
	ProofInit        []byte
	ProofClient      []byte
	ProofConsensus   []byte
	ProofHeight      Height
	ConsensusHeight  Height
}

func (MsgConnectionOpenTry) msgVariant() {}

type MsgConnectionOpenAck struct {
	ConnectionID    ConnectionID
	CounterpartyID  ConnectionID
	ProofTry        []byte
	ProofClient     []byte
	ProofConsensus  []byte
	ProofHeight     Height
	ConsensusHeight Height
}

func (MsgConnectionOpenAck) msgVariant() {}

type MsgConnectionOpenConfirm struct {
	ConnectionID ConnectionID
	ProofAck     []byte
	ProofHeight  Height
}

func (MsgConnectionOpenConfirm) msgVariant() {}

type ChannelCounterparty struct {
	PortID    PortID
	ChannelID ChannelID
}

type MsgChannelOpenTry struct {
	PortID           PortID
	Counterparty     ChannelCounterparty
	ConnectionHops   []ConnectionID
	Version          string
	ProofInit        []byte
	ProofHeight      Height
}

func (MsgChannelOpenTry) msgVariant() {}

type MsgChannelOpenAck struct {
	PortID              PortID
	ChannelID           ChannelID
	CounterpartyVersion string
	ProofTry            []byte
	ProofHeight         Height
}

func (MsgChannelOpenAck) msgVariant() {}

type MsgChannelOpenConfirm struct {
	PortID      PortID
	ChannelID   ChannelID
	ProofAck    []byte
	ProofHeight Height
}

func (MsgChannelOpenConfirm) msgVariant() {}

type Packet struct {
	Sequence           PacketSequence
	SourcePort         PortID
	SourceChannel      ChannelID
	DestPort           PortID
	DestChannel        ChannelID
	Data               []byte
	TimeoutHeight      Height
	TimeoutTimestamp   int64
}

type MsgRecvPacket struct {
	Packet      Packet
	ProofCommit []byte
	ProofHeight Height
}

func (MsgRecvPacket) msgVariant() {}

type MsgAcknowledgement struct {
	Packet          Packet
	Acknowledgement []byte
	ProofAck        []byte
	ProofHeight     Height
}

func (MsgAcknowledgement) msgVariant() {}

type MsgTimeout struct {
	Packet           Packet
	ProofUnreceived  []byte
	ProofHeight      Height
	NextSequenceRecv PacketSequence
}

func (MsgTimeout) msgVariant() {}

// MsgUpdateClient is the counterparty-update transaction produced by
// the light-client-specific header builder (spec.md §4.6 step 3).
type MsgUpdateClient struct {
	ClientID      ClientID
	ClientMessage []byte
}

func (MsgUpdateClient) msgVariant() {}
