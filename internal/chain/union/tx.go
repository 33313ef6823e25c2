package union

import (
	"context"
	"fmt"

	"github.com/cosmos/cosmos-sdk/client/tx"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	cryptokeyring "github.com/cosmos/cosmos-sdk/crypto/keyring"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	authtx "github.com/cosmos/cosmos-sdk/x/auth/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	clienttypes "github.com/cosmos/ibc-go/v11/modules/core/02-client/types"
	connectiontypes "github.com/cosmos/ibc-go/v11/modules/core/03-connection/types"
	channeltypes "github.com/cosmos/ibc-go/v11/modules/core/04-channel/types"
	commitmenttypes "github.com/cosmos/ibc-go/v11/modules/core/23-commitment/types"

	"github.com/cosmos/voyager-eureka/internal/message"
)

// signer holds the broadcasting account, derived from the configured
// mnemonic when newSigner constructs it, mirroring the e2esuite's "one user per chain, derived from
// a mnemonic" pattern rather than a pre-funded raw key.
type signer struct {
	kr      cryptokeyring.Keyring
	keyName string
	addr    sdk.AccAddress
}

const signerKeyName = "voyager-relayer"

func newSigner(mnemonic string) (*signer, error) {
	if mnemonic == "" {
		return nil, errNotImplemented("signing: no signer_mnemonic configured")
	}
	kr := cryptokeyring.NewInMemory(nil)
	rec, err := kr.NewAccount(signerKeyName, mnemonic, "", sdk.FullFundraiserPath, cryptokeyring.Secp256k1)
	if err != nil {
		return nil, fmt.Errorf("union: derive signer account: %w", err)
	}
	addr, err := rec.GetAddress()
	if err != nil {
		return nil, fmt.Errorf("union: signer address: %w", err)
	}
	return &signer{kr: kr, keyName: signerKeyName, addr: addr}, nil
}

// broadcast signs msg with the configured signer and broadcasts it
// through the raw tx service client, the same
// txtypes.NewServiceClient(conn).BroadcastTx the teacher's container
// client dials against rather than a full client.Context.
func (a *Adapter) broadcast(ctx context.Context, msg sdk.Msg) (uint64, error) {
	if a.signer == nil {
		return 0, errNotImplemented("signing: no signer_mnemonic configured")
	}

	authClient := authtypes.NewQueryClient(a.conn)
	accResp, err := authClient.Account(ctx, &authtypes.QueryAccountRequest{Address: a.signer.addr.String()})
	if err != nil {
		return 0, fmt.Errorf("union: query signer account: %w", err)
	}
	var acc authtypes.AccountI
	if err := a.cdc.UnpackAny(accResp.Account, &acc); err != nil {
		return 0, fmt.Errorf("union: unpack signer account: %w", err)
	}

	txConfig := authtx.NewTxConfig(a.cdc, authtx.DefaultSignModes)
	builder := txConfig.NewTxBuilder()
	if err := builder.SetMsgs(msg); err != nil {
		return 0, fmt.Errorf("union: set msgs: %w", err)
	}
	builder.SetGasLimit(defaultGasLimit)

	factory := tx.Factory{}.
		WithChainID(string(a.cfg.ChainID)).
		WithTxConfig(txConfig).
		WithKeybase(a.signer.kr).
		WithAccountNumber(acc.GetAccountNumber()).
		WithSequence(acc.GetSequence()).
		WithGas(defaultGasLimit)

	if err := tx.Sign(ctx, factory, a.signer.keyName, builder, true); err != nil {
		return 0, fmt.Errorf("union: sign tx: %w", err)
	}

	bz, err := txConfig.TxEncoder()(builder.GetTx())
	if err != nil {
		return 0, fmt.Errorf("union: encode tx: %w", err)
	}

	svcClient := txtypes.NewServiceClient(a.conn)
	resp, err := svcClient.BroadcastTx(ctx, &txtypes.BroadcastTxRequest{
		TxBytes: bz,
		Mode:    txtypes.BroadcastMode_BROADCAST_MODE_SYNC,
	})
	if err != nil {
		return 0, fmt.Errorf("union: broadcast tx: %w", err)
	}
	if resp.TxResponse.Code != 0 {
		return 0, fmt.Errorf("union: broadcast tx: code %d: %s", resp.TxResponse.Code, resp.TxResponse.RawLog)
	}
	return uint64(resp.TxResponse.Height), nil
}

const defaultGasLimit = 300_000

// opaqueAny wraps already-serialized bytes in a real codectypes.Any
// envelope for a light client type whose concrete Go proto struct
// isn't part of this engine's dependency set (a custom/foreign light
// client's wire format, opaque to this relayer the same way
// TrustedClientState.Bytes is left as an opaque JSON/proto blob
// everywhere else in this package). typeURL is whatever the chain's
// registered light client module expects.
func opaqueAny(typeURL string, value []byte) *codectypes.Any {
	return &codectypes.Any{TypeUrl: typeURL, Value: value}
}

// buildMsg maps one message.MsgVariant onto the matching ibc-go v11
// proto Msg, addressed from this adapter's own signer.
func (a *Adapter) buildMsg(v message.MsgVariant) (sdk.Msg, error) {
	signerAddr := ""
	if a.signer != nil {
		signerAddr = a.signer.addr.String()
	}
	switch m := v.(type) {
	case message.MsgCreateClient:
		return &clienttypes.MsgCreateClient{
			ClientState:    opaqueAny(m.Config["client_state_type_url"], m.ClientState),
			ConsensusState: opaqueAny(m.Config["consensus_state_type_url"], m.ConsensusState),
			Signer:         signerAddr,
		}, nil
	case message.MsgUpdateClient:
		return &clienttypes.MsgUpdateClient{
			ClientId:      string(m.ClientID),
			ClientMessage: opaqueAny(lightClientTypeURL(a.cfg.CounterpartyKind), m.ClientMessage),
			Signer:        signerAddr,
		}, nil
	case message.MsgConnectionOpenTry:
		return &connectiontypes.MsgConnectionOpenTry{
			ClientId: string(m.ClientID),
			Counterparty: connectiontypes.Counterparty{
				ClientId:     string(m.Counterparty.ClientID),
				ConnectionId: string(m.Counterparty.ConnectionID),
				Prefix:       committypesMerklePrefix(m.Counterparty.Prefix),
			},
			DelayPeriod:      0,
			CounterpartyVersions: []*connectiontypes.Version{connectiontypes.DefaultIBCVersion},
			ProofHeight:      routerHeightUnion(m.ProofHeight),
			ProofInit:        m.ProofInit,
			ProofClient:      m.ProofClient,
			ProofConsensus:   m.ProofConsensus,
			ConsensusHeight:  routerHeightUnion(m.ConsensusHeight),
			Signer:           signerAddr,
		}, nil
	case message.MsgConnectionOpenAck:
		return &connectiontypes.MsgConnectionOpenAck{
			ConnectionId:             string(m.ConnectionID),
			CounterpartyConnectionId: string(m.CounterpartyID),
			Version:                  connectiontypes.DefaultIBCVersion,
			ProofHeight:              routerHeightUnion(m.ProofHeight),
			ProofTry:                 m.ProofTry,
			ProofClient:              m.ProofClient,
			ProofConsensus:           m.ProofConsensus,
			ConsensusHeight:          routerHeightUnion(m.ConsensusHeight),
			Signer:                   signerAddr,
		}, nil
	case message.MsgConnectionOpenConfirm:
		return &connectiontypes.MsgConnectionOpenConfirm{
			ConnectionId: string(m.ConnectionID),
			ProofAck:     m.ProofAck,
			ProofHeight:  routerHeightUnion(m.ProofHeight),
			Signer:       signerAddr,
		}, nil
	case message.MsgChannelOpenTry:
		return &channeltypes.MsgChannelOpenTry{
			PortId: string(m.PortID),
			Channel: channeltypes.Channel{
				State:          channeltypes.TRYOPEN,
				Ordering:       channeltypes.UNORDERED,
				Counterparty:   channeltypes.Counterparty{PortId: string(m.Counterparty.PortID), ChannelId: string(m.Counterparty.ChannelID)},
				ConnectionHops: connectionIDStrings(m.ConnectionHops),
				Version:        m.Version,
			},
			CounterpartyVersion: m.Version,
			ProofInit:           m.ProofInit,
			ProofHeight:         routerHeightUnion(m.ProofHeight),
			Signer:              signerAddr,
		}, nil
	case message.MsgChannelOpenAck:
		return &channeltypes.MsgChannelOpenAck{
			PortId:                string(m.PortID),
			ChannelId:             string(m.ChannelID),
			CounterpartyVersion:   m.CounterpartyVersion,
			ProofTry:              m.ProofTry,
			ProofHeight:           routerHeightUnion(m.ProofHeight),
			Signer:                signerAddr,
		}, nil
	case message.MsgChannelOpenConfirm:
		return &channeltypes.MsgChannelOpenConfirm{
			PortId:      string(m.PortID),
			ChannelId:   string(m.ChannelID),
			ProofAck:    m.ProofAck,
			ProofHeight: routerHeightUnion(m.ProofHeight),
			Signer:      signerAddr,
		}, nil
	case message.MsgRecvPacket:
		return &channeltypes.MsgRecvPacket{
			Packet:          unionPacket(m.Packet),
			ProofCommitment: m.ProofCommit,
			ProofHeight:     routerHeightUnion(m.ProofHeight),
			Signer:          signerAddr,
		}, nil
	case message.MsgAcknowledgement:
		return &channeltypes.MsgAcknowledgement{
			Packet:          unionPacket(m.Packet),
			Acknowledgement: m.Acknowledgement,
			ProofAcked:      m.ProofAck,
			ProofHeight:     routerHeightUnion(m.ProofHeight),
			Signer:          signerAddr,
		}, nil
	case message.MsgTimeout:
		return &channeltypes.MsgTimeout{
			Packet:           unionPacket(m.Packet),
			ProofUnreceived:  m.ProofUnreceived,
			ProofHeight:      routerHeightUnion(m.ProofHeight),
			NextSequenceRecv: uint64(m.NextSequenceRecv),
			Signer:           signerAddr,
		}, nil
	default:
		return nil, fmt.Errorf("union: %T: unrecognized MsgVariant", v)
	}
}

func routerHeightUnion(h message.Height) clienttypes.Height {
	return clienttypes.Height{RevisionNumber: h.RevisionNumber, RevisionHeight: h.RevisionHeight}
}

func unionPacket(p message.Packet) channeltypes.Packet {
	return channeltypes.Packet{
		Sequence:           uint64(p.Sequence),
		SourcePort:         string(p.SourcePort),
		SourceChannel:      string(p.SourceChannel),
		DestinationPort:    string(p.DestPort),
		DestinationChannel: string(p.DestChannel),
		Data:               p.Data,
		TimeoutHeight:      routerHeightUnion(p.TimeoutHeight),
		TimeoutTimestamp:   uint64(p.TimeoutTimestamp),
	}
}

func connectionIDStrings(ids []message.ConnectionID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func committypesMerklePrefix(prefix string) commitmenttypes.MerklePrefix {
	return commitmenttypes.NewMerklePrefix([]byte(prefix))
}

// lightClientTypeURL picks the Any type URL to tag an opaque client
// message/state with, keyed by the light client kind this adapter was
// configured to track on behalf of its counterparty.
func lightClientTypeURL(kind message.LightClientKind) string {
	switch kind {
	case message.EthereumMainnet, message.EthereumMinimal:
		return "/ibc.lightclients.ethereum.v1.Header"
	default:
		return "/ibc.lightclients.cometbls.v1.Header"
	}
}
