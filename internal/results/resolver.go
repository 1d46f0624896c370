package results

import (
	"context"

	"go.uber.org/zap"

	repositories "github.com/votebridge/VoteBridge/internal/database/repositories"
	"github.com/votebridge/VoteBridge/internal/identity"
	"github.com/votebridge/VoteBridge/internal/ledger"
	"github.com/votebridge/VoteBridge/internal/log"
	models "github.com/votebridge/VoteBridge/internal/models"
)

// Source names where a tally came from.
type Source string

const (
	SourceMutable    Source = "mutable"
	SourceRelational Source = "relational"
	SourceImmutable  Source = "immutable"
	SourceNone       Source = "none"
)

type CandidateTally struct {
	CandidateId uint   //local candidate key, 0 when the ledger row has no local match
	NativeId    uint64 //ledger native identifier, 0 for purely relational tallies
	Name        string
	VoteCount   uint64
}

// Tally distinguishes "no data yet" (SourceNone) from a source that
// reports zero votes.
type Tally struct {
	Results    []CandidateTally
	TotalVotes uint64
	Source     Source
}

// Resolver assembles election results from the first source that has
// data: the mutable ledger reflects updates, the relational ballots
// come next, the immutable ledger is the last resort.
type Resolver struct {
	elections  repositories.ElectionRepository
	candidates repositories.CandidateRepository
	ballots    repositories.BallotRepository
	mapper     *identity.Mapper
	mutable    ledger.Client
	immutable  ledger.Client
}

func NewResolver(
	elections repositories.ElectionRepository,
	candidates repositories.CandidateRepository,
	ballots repositories.BallotRepository,
	mapper *identity.Mapper,
	mutable ledger.Client,
	immutable ledger.Client,
) *Resolver {
	return &Resolver{
		elections:  elections,
		candidates: candidates,
		ballots:    ballots,
		mapper:     mapper,
		mutable:    mutable,
		immutable:  immutable,
	}
}

func (resolver *Resolver) Resolve(ctx context.Context, electionId uint) (*Tally, error) {
	election, err := resolver.elections.GetElection(electionId)
	if err != nil {
		return nil, err
	}

	if tally := resolver.fromLedger(ctx, resolver.mutable, electionId, election.Ledgers, SourceMutable); tally != nil {
		return tally, nil
	}

	tally, err := resolver.fromBallots(electionId)
	if err != nil {
		return nil, err
	}

	if tally != nil {
		return tally, nil
	}

	if tally := resolver.fromLedger(ctx, resolver.immutable, electionId, election.Ledgers, SourceImmutable); tally != nil {
		return tally, nil
	}

	return &Tally{Source: SourceNone}, nil
}

// fromLedger tries one ledger source. Any failure or absence of data
// falls through to the next source rather than failing the resolve.
func (resolver *Resolver) fromLedger(ctx context.Context, client ledger.Client, electionId uint, records map[ledger.Kind]models.LedgerRecord, source Source) *Tally {
	if client == nil {
		return nil
	}

	record, ok := records[client.Kind()]
	if !ok {
		return nil
	}

	// The native id is only meaningful under the binding it was minted
	// on. After a redeploy the same id may belong to another election.
	ref, err := client.EnsureBinding(ctx)
	if err != nil {
		log.Warn("ledger binding unavailable",
			zap.Uint("electionId", electionId),
			zap.String("source", string(source)),
			zap.Error(err))
		return nil
	}

	if record.Binding != ref.Address {
		log.Warn("skipping ledger source with stale binding",
			zap.Uint("electionId", electionId),
			zap.String("source", string(source)),
			zap.String("recorded", record.Binding),
			zap.String("current", ref.Address))
		return nil
	}

	ledgerResults, err := client.GetResults(ctx, record.NativeId)
	if err != nil {
		log.Warn("ledger result source unavailable",
			zap.Uint("electionId", electionId),
			zap.String("source", string(source)),
			zap.Error(err))
		return nil
	}

	if ledgerResults.TotalVotes == 0 && len(ledgerResults.Candidates) == 0 {
		return nil
	}

	tally := &Tally{
		TotalVotes: ledgerResults.TotalVotes,
		Source:     source,
		Results:    make([]CandidateTally, 0, len(ledgerResults.Candidates)),
	}

	for _, candidateResult := range ledgerResults.Candidates {
		entry := CandidateTally{
			NativeId:  candidateResult.NativeID,
			Name:      candidateResult.Name,
			VoteCount: candidateResult.VoteCount,
		}

		candidate, err := resolver.mapper.ResolveCandidate(electionId, client.Kind(), candidateResult.NativeID)
		if err == nil {
			entry.CandidateId = candidate.Id
			entry.Name = candidate.Name
		}

		tally.Results = append(tally.Results, entry)
	}

	return tally
}

// fromBallots counts relational ballots grouped by candidate within
// the requested election. A ballot pointing at a candidate of another
// election is structurally broken and discarded.
func (resolver *Resolver) fromBallots(electionId uint) (*Tally, error) {
	ballots, err := resolver.ballots.GetBallotsByElection(electionId)
	if err != nil {
		return nil, err
	}

	if len(ballots) == 0 {
		return nil, nil
	}

	candidates, err := resolver.candidates.GetCandidates(electionId)
	if err != nil {
		return nil, err
	}

	byCandidate := make(map[uint]*CandidateTally, len(candidates))
	order := make([]uint, 0, len(candidates))

	for _, candidate := range candidates {
		byCandidate[candidate.Id] = &CandidateTally{
			CandidateId: candidate.Id,
			Name:        candidate.Name,
		}
		order = append(order, candidate.Id)
	}

	tally := &Tally{Source: SourceRelational}

	for _, ballot := range ballots {
		if ballot.ElectionId != electionId {
			continue
		}

		entry, ok := byCandidate[ballot.CandidateId]
		if !ok {
			log.Warn("discarding ballot for candidate outside election",
				zap.Uint("ballotId", ballot.Id),
				zap.Uint("electionId", electionId),
				zap.Uint("candidateId", ballot.CandidateId))
			continue
		}

		entry.VoteCount++
		tally.TotalVotes++
	}

	if tally.TotalVotes == 0 {
		return nil, nil
	}

	for _, candidateId := range order {
		tally.Results = append(tally.Results, *byCandidate[candidateId])
	}

	return tally, nil
}
