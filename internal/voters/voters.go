package voters

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	repositories "github.com/votebridge/VoteBridge/internal/database/repositories"
	"github.com/votebridge/VoteBridge/internal/ledger"
	ethereum "github.com/votebridge/VoteBridge/internal/ledger/ethereum"
	"github.com/votebridge/VoteBridge/internal/log"
)

// ErrNoFreeWallet is returned when every node account is already
// assigned to a voter or candidate.
var ErrNoFreeWallet = errors.New("no unassigned node account available")

// Service assigns wallet addresses to voters and reports their
// current votes across ledgers.
type Service struct {
	voters     repositories.VoterRepository
	ballots    repositories.BallotRepository
	candidates repositories.CandidateRepository
	caller     ethereum.ContractCaller
}

func NewService(
	voters repositories.VoterRepository,
	ballots repositories.BallotRepository,
	candidates repositories.CandidateRepository,
	caller ethereum.ContractCaller,
) *Service {
	return &Service{
		voters:     voters,
		ballots:    ballots,
		candidates: candidates,
		caller:     caller,
	}
}

// AssignWallet gives the voter an unlocked node account. An address is
// handed out at most once, assigned addresses stay with their owner.
func (service *Service) AssignWallet(ctx context.Context, voterId uint) (string, error) {
	voter, err := service.voters.GetVoter(voterId)
	if err != nil {
		return "", err
	}

	if voter.Wallet != "" {
		return voter.Wallet, nil
	}

	accounts, err := service.caller.Accounts(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to list node accounts")
	}

	usedWallets, err := service.voters.GetUsedWallets()
	if err != nil {
		return "", err
	}

	used := make(map[string]bool, len(usedWallets))
	for _, wallet := range usedWallets {
		used[wallet] = true
	}

	// The first account funds deployments and votes, never hand it to
	// a voter. A node with no accounts has nothing to assign either.
	if len(accounts) < 2 {
		return "", ErrNoFreeWallet
	}

	for _, account := range accounts[1:] {
		address := account.Hex()

		if used[address] {
			continue
		}

		if err := service.voters.SetWallet(voterId, address); err != nil {
			return "", err
		}

		log.Info("wallet assigned",
			zap.Uint("voterId", voterId),
			zap.String("wallet", address))

		return address, nil
	}

	return "", ErrNoFreeWallet
}

// CurrentVote is one voter's standing vote on one ledger family.
type CurrentVote struct {
	Kind          ledger.Kind
	ElectionId    uint
	CandidateId   uint
	CandidateName string
	TxRef         string
}

// CurrentVotes reports the voter's ballot in an election, split by the
// ledger family that carries it. Chaincode ballots are recognized by
// their transaction reference prefix.
func (service *Service) CurrentVotes(electionId uint, voterId uint) ([]CurrentVote, error) {
	ballot, err := service.ballots.GetBallot(electionId, voterId)

	if errors.Is(err, repositories.ErrBallotNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	candidate, err := service.candidates.GetCandidate(ballot.CandidateId)
	if err != nil {
		return nil, err
	}

	kind := ledger.Immutable
	if ballot.OnChaincode() {
		kind = ledger.Chaincode
	}

	return []CurrentVote{{
		Kind:          kind,
		ElectionId:    ballot.ElectionId,
		CandidateId:   candidate.Id,
		CandidateName: candidate.Name,
		TxRef:         ballot.TxRef,
	}}, nil
}
