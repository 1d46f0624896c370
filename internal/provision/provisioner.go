package provision

import (
	"context"

	"go.uber.org/zap"

	repositories "github.com/votebridge/VoteBridge/internal/database/repositories"
	"github.com/votebridge/VoteBridge/internal/ledger"
	"github.com/votebridge/VoteBridge/internal/log"
	models "github.com/votebridge/VoteBridge/internal/models"
)

// Provisioner mirrors local elections onto a ledger. Provisioning is
// idempotent, an election or candidate that already exists on the
// ledger is adopted rather than treated as a failure. A partial
// failure leaves the finished pieces persisted, the next call picks up
// the rest.
type Provisioner struct {
	elections  repositories.ElectionRepository
	candidates repositories.CandidateRepository
}

func NewProvisioner(elections repositories.ElectionRepository, candidates repositories.CandidateRepository) *Provisioner {
	return &Provisioner{
		elections:  elections,
		candidates: candidates,
	}
}

// EnsureProvisioned makes sure the election and all of its candidates
// exist on the client's ledger under the current binding, and returns
// the election with its ledger records up to date.
func (provisioner *Provisioner) EnsureProvisioned(ctx context.Context, client ledger.Client, electionId uint) (*models.Election, error) {
	election, err := provisioner.elections.GetElection(electionId)
	if err != nil {
		return nil, err
	}

	ref, err := client.EnsureBinding(ctx)
	if err != nil {
		return nil, err
	}

	kind := client.Kind()

	nativeElectionId, provisioned := election.NativeId(kind, ref.Address)
	if !provisioned {
		nativeElectionId, err = provisioner.provisionElection(ctx, client, election, ref)
		if err != nil {
			return nil, err
		}

		election.SetLedgerRecord(kind, nativeElectionId, ref.Address)
	}

	err = provisioner.provisionCandidates(ctx, client, election, nativeElectionId)
	if err != nil {
		return nil, err
	}

	return election, nil
}

func (provisioner *Provisioner) provisionElection(ctx context.Context, client ledger.Client, election *models.Election, ref *ledger.BindingRef) (uint64, error) {
	kind := client.Kind()

	nativeId, err := client.CreateElection(ctx, election.Id, election.Title, election.Description)

	if err != nil {
		existingId, exists := ledger.ExistingNativeID(err)
		if !exists {
			return 0, err
		}

		nativeId = existingId
		log.Info("election already on ledger",
			zap.Uint("electionId", election.Id),
			zap.String("kind", string(kind)),
			zap.Uint64("nativeId", nativeId))
	}

	err = provisioner.elections.SetNativeId(election.Id, kind, nativeId, ref.Address)
	if err != nil {
		return 0, err
	}

	return nativeId, nil
}

// provisionCandidates adds missing candidates in ascending local key
// order, recording the position each one was provisioned at. Positions
// stay stable across ledger redeploys, which is what positional
// identity recovery relies on.
func (provisioner *Provisioner) provisionCandidates(ctx context.Context, client ledger.Client, election *models.Election, nativeElectionId uint64) error {
	candidates, err := provisioner.candidates.GetCandidates(election.Id)
	if err != nil {
		return err
	}

	kind := client.Kind()

	for i, candidate := range candidates {
		if _, ok := candidate.NativeId(kind); ok {
			continue
		}

		order := candidate.ProvisionOrder
		if order == 0 {
			order = uint(i) + 1
		}

		nativeId, err := client.AddCandidate(ctx, nativeElectionId, order, candidate.Wallet, candidate.Name)

		if err != nil {
			existingId, exists := ledger.ExistingNativeID(err)
			if !exists {
				return err
			}

			nativeId = existingId
		}

		err = provisioner.candidates.SetNativeId(candidate.Id, kind, nativeId, order)
		if err != nil {
			return err
		}

		candidate.SetNativeId(kind, nativeId)
		candidate.ProvisionOrder = order

		log.Info("candidate provisioned",
			zap.Uint("electionId", election.Id),
			zap.Uint("candidateId", candidate.Id),
			zap.String("kind", string(kind)),
			zap.Uint64("nativeId", nativeId),
			zap.Uint("order", order))
	}

	return nil
}
