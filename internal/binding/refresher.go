package binding

import (
	"context"

	"go.uber.org/zap"

	repositories "github.com/votebridge/VoteBridge/internal/database/repositories"
	"github.com/votebridge/VoteBridge/internal/ledger"
	"github.com/votebridge/VoteBridge/internal/log"
	"github.com/votebridge/VoteBridge/internal/provision"
)

// Refresher forces fresh ledger bindings. Every native identifier
// minted under the old bindings is dropped, then the active elections
// are provisioned again from scratch.
type Refresher struct {
	cache       *Cache
	elections   repositories.ElectionRepository
	candidates  repositories.CandidateRepository
	provisioner *provision.Provisioner
	clients     []ledger.Client
}

func NewRefresher(
	cache *Cache,
	elections repositories.ElectionRepository,
	candidates repositories.CandidateRepository,
	provisioner *provision.Provisioner,
	clients []ledger.Client,
) *Refresher {
	return &Refresher{
		cache:       cache,
		elections:   elections,
		candidates:  candidates,
		provisioner: provisioner,
		clients:     clients,
	}
}

func (refresher *Refresher) Refresh(ctx context.Context) error {
	for _, client := range refresher.clients {
		kind := client.Kind()

		refresher.cache.Invalidate(kind)

		if err := refresher.elections.ClearNativeIds(kind); err != nil {
			return err
		}

		if err := refresher.candidates.ClearNativeIds(kind); err != nil {
			return err
		}

		log.Info("ledger identities cleared", zap.String("kind", string(kind)))
	}

	elections, err := refresher.elections.GetActiveElections()
	if err != nil {
		return err
	}

	for _, election := range elections {
		for _, client := range refresher.clients {
			_, err := refresher.provisioner.EnsureProvisioned(ctx, client, election.Id)

			if err != nil {
				// Provisioning is idempotent, a later cast retries
				// whatever is still missing.
				log.Warn("re-provisioning failed after refresh",
					zap.Uint("electionId", election.Id),
					zap.String("kind", string(client.Kind())),
					zap.Error(err))
			}
		}
	}

	return nil
}
