package message

// The constructors below exist so reducer code reads as "what" rather
// than "how to wrap it" -- every one of them just builds the
// corresponding LightClientMessage{ChainID, LightClient, Body}.

func NewEvent(chainID ChainID, lc LightClientKind, ev Event) LightClientMessage {
	return LightClientMessage{ChainID: chainID, LightClient: lc, Body: ev}
}

func NewFetch(chainID ChainID, lc LightClientKind, variant FetchVariant) LightClientMessage {
	return LightClientMessage{ChainID: chainID, LightClient: lc, Body: Fetch{Variant: variant}}
}

func NewWait(chainID ChainID, lc LightClientKind, variant WaitVariant) LightClientMessage {
	return LightClientMessage{ChainID: chainID, LightClient: lc, Body: Wait{Variant: variant}}
}

func NewMsg(chainID ChainID, lc LightClientKind, variant MsgVariant) LightClientMessage {
	return LightClientMessage{ChainID: chainID, LightClient: lc, Body: Msg{Variant: variant}}
}

func NewData(chainID ChainID, lc LightClientKind, d Data) LightClientMessage {
	return LightClientMessage{ChainID: chainID, LightClient: lc, Body: DataMsg{Payload: d}}
}

func NewAggregate(queue []Message, receiver AggregateReceiver) Aggregate {
	return Aggregate{Queue: queue, Data: nil, Receiver: receiver}
}

// At builds a HeightSelector pointing at an explicit height.
func At(h Height) HeightSelector { return HeightSelector{Height: h} }

// Latest builds a HeightSelector meaning "whatever the chain's tip is
// right now".
func Latest() HeightSelector { return HeightSelector{Latest: true} }
