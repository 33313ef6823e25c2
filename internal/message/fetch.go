package message

// Fetch is the LightClientBody that asks the chain adapter for remote
// state: a proof, a trusted client state, self state to hand to the
// counterparty, or a chain of update headers.
type Fetch struct {
	Variant FetchVariant
}

func (Fetch) bodyKind() string { return "fetch" }

// FetchVariant discriminates the concrete fetch request.
type FetchVariant interface {
	fetchVariant()
}

// HeightSelector picks a height: either "whatever is latest right now"
// or an explicit height.
type HeightSelector struct {
	Latest  bool
	Height  Height
}

type FetchTrustedClientState struct {
	At       HeightSelector
	ClientID ClientID
}

func (FetchTrustedClientState) fetchVariant() {}

type FetchSelfClientState struct {
	At HeightSelector
}

func (FetchSelfClientState) fetchVariant() {}

type FetchSelfConsensusState struct {
	At HeightSelector
}

func (FetchSelfConsensusState) fetchVariant() {}

type FetchStateProof struct {
	Path   Path
	Height Height
}

func (FetchStateProof) fetchVariant() {}

type FetchConnectionEnd struct {
	ConnectionID ConnectionID
	Height       Height
}

func (FetchConnectionEnd) fetchVariant() {}

type FetchChannelEnd struct {
	PortID    PortID
	ChannelID ChannelID
	Height    Height
}

func (FetchChannelEnd) fetchVariant() {}

type FetchPacketAcknowledgement struct {
	PortID    PortID
	ChannelID ChannelID
	Sequence  PacketSequence
	Height    Height
}

func (FetchPacketAcknowledgement) fetchVariant() {}

// FetchUpdateHeaders delegates to the adapter's
// GenerateCounterpartyUpdates, which may return multiple successor
// messages (spec.md §4.2).
type FetchUpdateHeaders struct {
	FromHeight              Height
	ToHeight                Height
	ClientID                ClientID
	CounterpartyClientID    ClientID
	CounterpartyChainID     ChainID
}

func (FetchUpdateHeaders) fetchVariant() {}
