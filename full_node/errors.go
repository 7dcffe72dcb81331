package full_node

import (
	"errors"
	"fmt"
)

var (
	// The record cannot be sealed into a block.
	ErrInvalidRecord = errors.New("invalid record")
	// The pending pool was empty when mining was triggered.
	ErrNothingToMine = errors.New("no transactions to mine")
	// Another search is already running on this node.
	ErrMiningInProgress = errors.New("mining already in progress")
	// The search was abandoned before a proof was found.
	ErrMiningCancelled = errors.New("mining cancelled")
	// Cancellation cause used when the tail moved under a running search.
	ErrTailChanged = errors.New("tail changed")

	// The block does not extend the current tail.
	ErrStaleBlock = errors.New("block does not extend the tail")
	// The claimed hash is not a valid proof for the block.
	ErrInvalidProof = errors.New("invalid proof of work")
	// A candidate chain failed validation.
	ErrInvalidChain = errors.New("invalid chain")
	// A peer supplied chain dump failed re-validation during reconstruction.
	ErrTamperedDump = errors.New("the chain dump is tampered")
)

var errPeerRemoved = errors.New("peer was removed")

// PeerUnavailableError is any failure talking to a peer. It is logged and the peer is
// skipped, it never fails the operation that contacted the peer.
type PeerUnavailableError struct {
	Addr string
	Op   string
	Err  error
}

func (e *PeerUnavailableError) Error() string {
	return fmt.Sprintf("peer %s unavailable during %s: %v", e.Addr, e.Op, e.Err)
}

func (e *PeerUnavailableError) Unwrap() error {
	return e.Err
}
