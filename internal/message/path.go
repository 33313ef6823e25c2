package message

// Path is the tagged union over the IBC state paths the relayer can
// request a proof for.
type Path interface {
	isPath()
	Kind() string
}

type ClientStatePath struct {
	ClientID ClientID
}

func (ClientStatePath) isPath()        {}
func (ClientStatePath) Kind() string   { return "client_state" }

type ClientConsensusStatePath struct {
	ClientID ClientID
	Height   Height
}

func (ClientConsensusStatePath) isPath()      {}
func (ClientConsensusStatePath) Kind() string { return "client_consensus_state" }

type ConnectionPath struct {
	ConnectionID ConnectionID
}

func (ConnectionPath) isPath()      {}
func (ConnectionPath) Kind() string { return "connection" }

type ChannelEndPath struct {
	PortID    PortID
	ChannelID ChannelID
}

func (ChannelEndPath) isPath()      {}
func (ChannelEndPath) Kind() string { return "channel_end" }

type CommitmentPath struct {
	PortID    PortID
	ChannelID ChannelID
	Sequence  PacketSequence
}

func (CommitmentPath) isPath()      {}
func (CommitmentPath) Kind() string { return "commitment" }

type AcknowledgementPath struct {
	PortID    PortID
	ChannelID ChannelID
	Sequence  PacketSequence
}

func (AcknowledgementPath) isPath()      {}
func (AcknowledgementPath) Kind() string { return "acknowledgement" }
