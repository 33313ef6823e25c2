package message

// Wait is the LightClientBody that blocks progress on a chain- or
// wall-clock condition.
type Wait struct {
	Variant WaitVariant
}

func (Wait) bodyKind() string { return "wait" }

type WaitVariant interface {
	waitVariant()
}

type WaitForBlock struct {
	Height Height
}

func (WaitForBlock) waitVariant() {}

type WaitForTimestamp struct {
	UnixSeconds int64
}

func (WaitForTimestamp) waitVariant() {}

// WaitForTrustedHeight resolves once chain_id's client of
// counterparty_chain_id has trusted_height >= Height.
type WaitForTrustedHeight struct {
	ClientID             ClientID
	Height               Height
	CounterpartyClientID ClientID
	CounterpartyChainID  ChainID
}

func (WaitForTrustedHeight) waitVariant() {}
