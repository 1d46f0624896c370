package ledger

import (
	"context"
	"time"
)

// Kind identifies one of the ledgers a vote can be recorded on. The absence
// of a configured client for a kind is a configuration state, not a runtime
// type check.
type Kind string

const (
	// Immutable is the append-only contract ledger, first-time votes only.
	Immutable Kind = "immutable"
	// Mutable is the update-capable contract ledger, tracks current vote per voter.
	Mutable Kind = "mutable"
	// Chaincode is the channel/chaincode ledger.
	Chaincode Kind = "chaincode"
)

// BindingRef addresses a deployed contract instance or chaincode channel
// association. Native identifiers are only meaningful for the binding they
// were assigned under.
type BindingRef struct {
	Kind       Kind
	Address    string //contract address or channel/chaincode pair
	DeployedAt time.Time
}

// CandidateResult is one row of a ledger tally, in the ledger's native
// candidate numbering.
type CandidateResult struct {
	NativeID  uint64
	Name      string
	VoteCount uint64
}

// Results is a full per-election tally as reported by a ledger.
type Results struct {
	Candidates []CandidateResult
	TotalVotes uint64
}

// Client is the uniform capability over a ledger. State-changing calls block
// until the remote transaction is confirmed or the configured bound elapses;
// callers pass a context and get a Timeout error rather than a hang.
//
// localID is the relational surrogate key of the election; bindings that
// derive their ledger keys from it (chaincode) use it, bindings with their
// own counters (contract ledgers) ignore it.
type Client interface {
	Kind() Kind

	// EnsureBinding returns the active binding for this client, deploying a
	// fresh one if none is cached.
	EnsureBinding(ctx context.Context) (*BindingRef, error)

	// CreateElection provisions an election and returns its native identifier.
	// Returns an AlreadyExists error carrying the existing identifier when the
	// ledger already holds this election.
	CreateElection(ctx context.Context, localID uint, title string, description string) (uint64, error)

	// AddCandidate registers a candidate under the election and returns the
	// native identifier the ledger assigned. position is the candidate's
	// 1-based provisioning position; callers must add candidates sequentially,
	// in a deterministic order, so positions stay stable across calls.
	// Bindings whose identifiers are positional return an AlreadyExists error
	// carrying the identifier when the position is already occupied.
	AddCandidate(ctx context.Context, nativeElectionID uint64, position uint, identity string, name string) (uint64, error)

	// CastVote submits a first-time vote and returns a transaction reference.
	// A cast refused because the voter already has a vote recorded surfaces
	// an AlreadyVoted error.
	CastVote(ctx context.Context, nativeElectionID uint64, nativeCandidateID uint64, voter string) (string, error)

	// UpdateVote changes the voter's current vote and returns the transaction
	// reference plus the native identifier of the candidate voted for
	// previously. Clients without update capability return ErrUpdateUnsupported.
	UpdateVote(ctx context.Context, nativeElectionID uint64, nativeCandidateID uint64, voter string) (string, uint64, error)

	// HasVoted reports whether the voter has a vote recorded for the election.
	HasVoted(ctx context.Context, nativeElectionID uint64, voter string) (bool, error)

	// GetResults returns the tally for the election. A NotFound error means
	// the election was never provisioned on this binding.
	GetResults(ctx context.Context, nativeElectionID uint64) (*Results, error)
}
