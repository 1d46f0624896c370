package ledgertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/votebridge/VoteBridge/internal/ledger"
)

type candidateState struct {
	name     string
	identity string
	votes    uint64
}

type electionState struct {
	title      string
	candidates []*candidateState
	votes      map[string]uint64 //voter identity to native candidate id
}

// Client is an in-memory ledger.Client for tests. It hands out
// sequential native identifiers the way the real ledgers do and keeps
// one vote per voter. Error fields, when set, are returned instead of
// touching state.
type Client struct {
	LedgerKind      ledger.Kind
	UpdateSupported bool
	TxRefPrefix     string

	EnsureBindingErr  error
	CreateElectionErr error
	AddCandidateErr   error
	CastVoteErr       error
	UpdateVoteErr     error
	HasVotedErr       error
	GetResultsErr     error

	mu            sync.Mutex
	binding       *ledger.BindingRef
	nextElection  uint64
	nextTx        uint64
	elections     map[uint64]*electionState
	DeployCount   int
	CastVoteCalls int
}

func NewClient(kind ledger.Kind) *Client {
	return &Client{
		LedgerKind:  kind,
		TxRefPrefix: "0xtx",
		elections:   make(map[uint64]*electionState),
	}
}

func (client *Client) Kind() ledger.Kind {
	return client.LedgerKind
}

func (client *Client) EnsureBinding(ctx context.Context) (*ledger.BindingRef, error) {
	if client.EnsureBindingErr != nil {
		return nil, client.EnsureBindingErr
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	if client.binding == nil {
		client.DeployCount++
		client.binding = &ledger.BindingRef{
			Kind:       client.LedgerKind,
			Address:    fmt.Sprintf("%s-binding-%d", client.LedgerKind, client.DeployCount),
			DeployedAt: time.Now(),
		}
	}

	return client.binding, nil
}

// Rebind drops the current binding. Native identifiers handed out
// before a Rebind are stale, like after a contract redeploy.
func (client *Client) Rebind() {
	client.mu.Lock()
	defer client.mu.Unlock()

	client.binding = nil
	client.elections = make(map[uint64]*electionState)
	client.nextElection = 0
}

func (client *Client) CreateElection(ctx context.Context, localID uint, title string, description string) (uint64, error) {
	if client.CreateElectionErr != nil {
		return 0, client.CreateElectionErr
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	client.nextElection++
	client.elections[client.nextElection] = &electionState{
		title: title,
		votes: make(map[string]uint64),
	}

	return client.nextElection, nil
}

func (client *Client) AddCandidate(ctx context.Context, nativeElectionID uint64, position uint, identity string, name string) (uint64, error) {
	if client.AddCandidateErr != nil {
		return 0, client.AddCandidateErr
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	election, ok := client.elections[nativeElectionID]
	if !ok {
		return 0, ledger.NewError(ledger.NotFound, "AddCandidate", fmt.Errorf("election %d", nativeElectionID))
	}

	if position >= 1 && uint64(position) <= uint64(len(election.candidates)) {
		return 0, ledger.NewAlreadyExists("AddCandidate", uint64(position))
	}

	election.candidates = append(election.candidates, &candidateState{name: name, identity: identity})
	return uint64(len(election.candidates)), nil
}

func (client *Client) CastVote(ctx context.Context, nativeElectionID uint64, nativeCandidateID uint64, voter string) (string, error) {
	client.mu.Lock()
	client.CastVoteCalls++
	client.mu.Unlock()

	if client.CastVoteErr != nil {
		return "", client.CastVoteErr
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	election, ok := client.elections[nativeElectionID]
	if !ok {
		return "", ledger.NewError(ledger.NotFound, "CastVote", fmt.Errorf("election %d", nativeElectionID))
	}

	if _, voted := election.votes[voter]; voted {
		return "", ledger.NewError(ledger.AlreadyVoted, "CastVote", errors.New("voter has already voted"))
	}

	if nativeCandidateID == 0 || nativeCandidateID > uint64(len(election.candidates)) {
		return "", ledger.NewError(ledger.Rejected, "CastVote", fmt.Errorf("candidate %d", nativeCandidateID))
	}

	election.votes[voter] = nativeCandidateID
	election.candidates[nativeCandidateID-1].votes++

	client.nextTx++
	return fmt.Sprintf("%s%d", client.TxRefPrefix, client.nextTx), nil
}

func (client *Client) UpdateVote(ctx context.Context, nativeElectionID uint64, nativeCandidateID uint64, voter string) (string, uint64, error) {
	if !client.UpdateSupported {
		return "", 0, ledger.ErrUpdateUnsupported
	}

	if client.UpdateVoteErr != nil {
		return "", 0, client.UpdateVoteErr
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	election, ok := client.elections[nativeElectionID]
	if !ok {
		return "", 0, ledger.NewError(ledger.NotFound, "UpdateVote", fmt.Errorf("election %d", nativeElectionID))
	}

	previous, voted := election.votes[voter]
	if !voted {
		return "", 0, ledger.NewError(ledger.Rejected, "UpdateVote", errors.New("no vote to update"))
	}

	election.candidates[previous-1].votes--
	election.votes[voter] = nativeCandidateID
	election.candidates[nativeCandidateID-1].votes++

	client.nextTx++
	return fmt.Sprintf("%s%d", client.TxRefPrefix, client.nextTx), previous, nil
}

func (client *Client) HasVoted(ctx context.Context, nativeElectionID uint64, voter string) (bool, error) {
	if client.HasVotedErr != nil {
		return false, client.HasVotedErr
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	election, ok := client.elections[nativeElectionID]
	if !ok {
		return false, nil
	}

	_, voted := election.votes[voter]
	return voted, nil
}

func (client *Client) GetResults(ctx context.Context, nativeElectionID uint64) (*ledger.Results, error) {
	if client.GetResultsErr != nil {
		return nil, client.GetResultsErr
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	election, ok := client.elections[nativeElectionID]
	if !ok {
		return nil, ledger.NewError(ledger.NotFound, "GetResults", fmt.Errorf("election %d", nativeElectionID))
	}

	results := &ledger.Results{
		Candidates: make([]ledger.CandidateResult, len(election.candidates)),
	}

	for i, candidate := range election.candidates {
		results.Candidates[i] = ledger.CandidateResult{
			NativeID:  uint64(i) + 1,
			Name:      candidate.name,
			VoteCount: candidate.votes,
		}
		results.TotalVotes += candidate.votes
	}

	return results, nil
}

// Vote records a vote directly, bypassing the Client surface. Tests use
// it to put the ledger ahead of the relational store.
func (client *Client) Vote(nativeElectionID uint64, nativeCandidateID uint64, voter string) {
	client.mu.Lock()
	defer client.mu.Unlock()

	election, ok := client.elections[nativeElectionID]
	if !ok {
		return
	}

	election.votes[voter] = nativeCandidateID
	if nativeCandidateID >= 1 && nativeCandidateID <= uint64(len(election.candidates)) {
		election.candidates[nativeCandidateID-1].votes++
	}
}
