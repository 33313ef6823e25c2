// Package message defines the closed message and data algebra the queue
// carries: Height/ChainID/identifiers, Path, Message and Data tagged unions.
package message

import (
	"errors"
	"fmt"
)

// ErrIncomparableRevisions is returned by Height.Compare when the two
// heights belong to different chain revisions; spec.md leaves
// cross-revision comparison undefined, so we refuse to guess.
var ErrIncomparableRevisions = errors.New("message: heights belong to different revisions")

// Height is (revision_number, revision_height), totally ordered
// lexicographically within a revision.
type Height struct {
	RevisionNumber uint64
	RevisionHeight uint64
}

func (h Height) String() string {
	return fmt.Sprintf("%d-%d", h.RevisionNumber, h.RevisionHeight)
}

// Compare returns -1, 0, 1 the way sort comparators expect. It errors if
// the revisions differ.
func (h Height) Compare(o Height) (int, error) {
	if h.RevisionNumber != o.RevisionNumber {
		return 0, fmt.Errorf("%w: %d != %d", ErrIncomparableRevisions, h.RevisionNumber, o.RevisionNumber)
	}
	switch {
	case h.RevisionHeight < o.RevisionHeight:
		return -1, nil
	case h.RevisionHeight > o.RevisionHeight:
		return 1, nil
	default:
		return 0, nil
	}
}

// Increment returns the height with RevisionHeight bumped by one. This is
// the "+1" rule from the IBC choreography table: proofs on Tendermint-family
// chains are valid at the next block.
func (h Height) Increment() Height {
	return Height{RevisionNumber: h.RevisionNumber, RevisionHeight: h.RevisionHeight + 1}
}

// GTE reports whether h is greater-than-or-equal to o. Like Compare, it
// returns an error wrapping ErrIncomparableRevisions when the two
// heights belong to different revisions.
func (h Height) GTE(o Height) (bool, error) {
	c, err := h.Compare(o)
	if err != nil {
		return false, err
	}
	return c >= 0, nil
}
