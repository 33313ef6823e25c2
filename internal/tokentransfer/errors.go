package tokentransfer

import "fmt"

// ProtocolError is the on-chain module's own error family (spec.md
// §6.4), distinct from internal/reducer's chain-dispatch error
// taxonomy: these happen inside Send/Receive, never at the adapter
// boundary.
type ProtocolError struct {
	kind      string
	channelID string
	version   string
}

func (e *ProtocolError) Error() string {
	switch e.kind {
	case "no_such_channel":
		return fmt.Sprintf("tokentransfer: channel doesn't exist: %s", e.channelID)
	case "unauthorized":
		return "tokentransfer: protocol must be caller"
	case "unknown_protocol":
		return fmt.Sprintf("tokentransfer: unknown protocol version: %s", e.version)
	default:
		return "tokentransfer: protocol error"
	}
}

// ErrUnauthorized fires when Receive is called with a caller other
// than the protocol's own self address (selfAddr).
var ErrUnauthorized = &ProtocolError{kind: "unauthorized"}

// ErrNoSuchChannel reports a channel id with no known protocol bound
// to it.
func ErrNoSuchChannel(channelID string) error {
	return &ProtocolError{kind: "no_such_channel", channelID: channelID}
}

// ErrUnknownProtocol reports a channel version string that matches
// neither ICS20 nor UCS01.
func ErrUnknownProtocol(version string) error {
	return &ProtocolError{kind: "unknown_protocol", version: version}
}

// Lookup selects the Protocol bound to a channel's version string, or
// ErrUnknownProtocol.
func Lookup(version string, bank Bank) (Protocol, error) {
	switch version {
	case ICS20Version:
		return NewICS20(bank), nil
	case UCS01Version:
		return NewUCS01(bank), nil
	default:
		return nil, ErrUnknownProtocol(version)
	}
}
