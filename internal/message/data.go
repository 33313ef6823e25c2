package message

// Data is the tagged union of payloads aggregations consume. Every
// variant is Identified by the chain_id it pertains to; aggregations
// check chain_id agreement at join (spec.md §3 invariant).
type Data interface {
	isData()
	Kind() DataKind
	ChainID() ChainID
}

// DataKind is the closed enum over Data variants, used by
// AggregateReceiver.Schema() to describe the shape it expects without
// needing a compile-time heterogeneous list (spec.md §9 "Aggregate
// schema checking").
type DataKind int

const (
	KindTrustedClientState DataKind = iota
	KindSelfClientState
	KindSelfConsensusState
	KindClientStateProof
	KindClientConsensusStateProof
	KindConnectionProof
	KindChannelEndProof
	KindCommitmentProof
	KindAcknowledgementProof
	KindConnectionEnd
	KindChannelEnd
	KindPacketAcknowledgement
	KindBeaconFinalityUpdate
	KindBeaconLightClientUpdate
	KindBeaconBootstrap
	KindAccountUpdate
	KindBeaconGenesis
)

func (k DataKind) String() string {
	names := [...]string{
		"trusted_client_state", "self_client_state", "self_consensus_state",
		"client_state_proof", "client_consensus_state_proof", "connection_proof",
		"channel_end_proof", "commitment_proof", "acknowledgement_proof",
		"connection_end", "channel_end", "packet_acknowledgement",
		"beacon_finality_update", "beacon_light_client_update", "beacon_bootstrap",
		"account_update", "beacon_genesis",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "unknown"
	}
	return names[k]
}

// Base embeds the chain_id every Data payload must carry.
type Base struct {
	Chain ChainID
}

func (b Base) ChainID() ChainID { return b.Chain }

// TrustedClientState is our trusted view of a counterparty client: it
// reveals the counterparty's chain id and our currently trusted height
// of them. Produced by fetching Path ClientStatePath against our own
// chain (the client we keep of the counterparty).
type TrustedClientState struct {
	Base
	ClientID             ClientID
	CounterpartyChainID  ChainID
	CounterpartyClientID ClientID
	TrustedHeight        Height
	Bytes                []byte
}

func (TrustedClientState) isData()        {}
func (TrustedClientState) Kind() DataKind { return KindTrustedClientState }

// SelfClientState is a client state the counterparty will install to
// track us, produced by adapter.SelfClientState.
type SelfClientState struct {
	Base
	Height Height
	Bytes  []byte
}

func (SelfClientState) isData()        {}
func (SelfClientState) Kind() DataKind { return KindSelfClientState }

type SelfConsensusState struct {
	Base
	Height Height
	Bytes  []byte
}

func (SelfConsensusState) isData()        {}
func (SelfConsensusState) Kind() DataKind { return KindSelfConsensusState }

// ProofCommon is the common shape for every {state, proof, proof_height}
// Data variant in spec.md §4.2.
type ProofCommon struct {
	Base
	State       []byte
	Proof       []byte
	ProofHeight Height
}

type ClientStateProof struct{ ProofCommon }

func (ClientStateProof) isData()        {}
func (ClientStateProof) Kind() DataKind { return KindClientStateProof }

type ClientConsensusStateProof struct{ ProofCommon }

func (ClientConsensusStateProof) isData()        {}
func (ClientConsensusStateProof) Kind() DataKind { return KindClientConsensusStateProof }

type ConnectionProof struct{ ProofCommon }

func (ConnectionProof) isData()        {}
func (ConnectionProof) Kind() DataKind { return KindConnectionProof }

type ChannelEndProof struct{ ProofCommon }

func (ChannelEndProof) isData()        {}
func (ChannelEndProof) Kind() DataKind { return KindChannelEndProof }

type CommitmentProof struct{ ProofCommon }

func (CommitmentProof) isData()        {}
func (CommitmentProof) Kind() DataKind { return KindCommitmentProof }

type AcknowledgementProof struct{ ProofCommon }

func (AcknowledgementProof) isData()        {}
func (AcknowledgementProof) Kind() DataKind { return KindAcknowledgementProof }

// ConnectionEnd / ChannelEnd are the decoded IBC state (not proofs of
// it), used by e.g. ConnectionFetchFromChannelEnd to read
// connection_hops[0].
type ConnectionEnd struct {
	Base
	ConnectionID     ConnectionID
	ClientID         ClientID
	CounterpartyID   ConnectionID
	CounterpartyClientID ClientID
	State            string
}

func (ConnectionEnd) isData()        {}
func (ConnectionEnd) Kind() DataKind { return KindConnectionEnd }

type ChannelEnd struct {
	Base
	PortID           PortID
	ChannelID        ChannelID
	ConnectionHops   []ConnectionID
	CounterpartyPort PortID
	CounterpartyChan ChannelID
	State            string
	Version          string
}

func (ChannelEnd) isData()        {}
func (ChannelEnd) Kind() DataKind { return KindChannelEnd }

type PacketAcknowledgement struct {
	Base
	PortID    PortID
	ChannelID ChannelID
	Sequence  PacketSequence
	Ack       []byte
}

func (PacketAcknowledgement) isData()        {}
func (PacketAcknowledgement) Kind() DataKind { return KindPacketAcknowledgement }

// --- EVM / beacon-chain specific payloads, consumed by the
// MakeCreateUpdates family of aggregates (spec.md §4.4). ---

type BeaconFinalityUpdate struct {
	Base
	AttestedSlot  uint64
	FinalizedSlot uint64
	SignatureSlot uint64
	Bytes         []byte
}

func (BeaconFinalityUpdate) isData()        {}
func (BeaconFinalityUpdate) Kind() DataKind { return KindBeaconFinalityUpdate }

type BeaconLightClientUpdate struct {
	Base
	Period uint64
	Bytes  []byte
}

func (BeaconLightClientUpdate) isData()        {}
func (BeaconLightClientUpdate) Kind() DataKind { return KindBeaconLightClientUpdate }

type BeaconBootstrap struct {
	Base
	Slot  uint64
	Bytes []byte
}

func (BeaconBootstrap) isData()        {}
func (BeaconBootstrap) Kind() DataKind { return KindBeaconBootstrap }

// AccountUpdate is the eth_getProof result at the IBC contract address
// for a given attested slot.
type AccountUpdate struct {
	Base
	Slot            uint64
	ContractAddress string
	Proof           []byte
}

func (AccountUpdate) isData()        {}
func (AccountUpdate) Kind() DataKind { return KindAccountUpdate }

type BeaconGenesis struct {
	Base
	GenesisTime      int64
	SecondsPerSlot   int64
	SlotsPerPeriod   uint64
}

func (BeaconGenesis) isData()        {}
func (BeaconGenesis) Kind() DataKind { return KindBeaconGenesis }
