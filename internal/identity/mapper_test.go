package identity_test

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	connection "github.com/votebridge/VoteBridge/internal/database/connection"
	repositories "github.com/votebridge/VoteBridge/internal/database/repositories"
	identity "github.com/votebridge/VoteBridge/internal/identity"
	"github.com/votebridge/VoteBridge/internal/ledger"
	models "github.com/votebridge/VoteBridge/internal/models"
)

func newMapperFixture(t *testing.T) (repositories.CandidateRepository, *identity.Mapper, *models.Election, []*models.Candidate) {
	t.Helper()

	db, err := connection.GetDatabaseConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = connection.CloseDatabaseConnection(db)
	})

	elections := repositories.NewElectionRepositoryImpl(db)
	candidates := repositories.NewCandidateRepositoryImpl(db)

	election := &models.Election{Title: "City Council 2026", Active: true}
	if err := elections.CreateElection(election); err != nil {
		t.Fatalf("failed to create election: %v", err)
	}

	names := []string{"Ada", "Grace", "Edsger"}
	created := make([]*models.Candidate, len(names))

	for i, name := range names {
		created[i] = &models.Candidate{ElectionId: election.Id, Name: name}
		if err := candidates.CreateCandidate(created[i]); err != nil {
			t.Fatalf("failed to create candidate %s: %v", name, err)
		}
	}

	return candidates, identity.NewMapper(candidates), election, created
}

func TestResolveCandidateExactMatch(t *testing.T) {
	candidates, mapper, election, created := newMapperFixture(t)

	if err := candidates.SetNativeId(created[1].Id, ledger.Immutable, 2, 2); err != nil {
		t.Fatalf("failed to set native id: %v", err)
	}

	resolved, err := mapper.ResolveCandidate(election.Id, ledger.Immutable, 2)
	if err != nil {
		t.Fatalf("failed to resolve candidate: %v", err)
	}

	if resolved.Id != created[1].Id {
		t.Fatalf("resolved wrong candidate: %d", resolved.Id)
	}
}

func TestResolveCandidateRepairsDriftedIdentity(t *testing.T) {
	candidates, mapper, election, created := newMapperFixture(t)

	// Provisioned once, then the ledger was redeployed and the stored
	// native identifiers cleared. Provision order survives.
	for i, candidate := range created {
		if err := candidates.SetNativeId(candidate.Id, ledger.Immutable, uint64(i)+1, uint(i)+1); err != nil {
			t.Fatalf("failed to set native id: %v", err)
		}
	}

	if err := candidates.ClearNativeIds(ledger.Immutable); err != nil {
		t.Fatalf("failed to clear native ids: %v", err)
	}

	resolved, err := mapper.ResolveCandidate(election.Id, ledger.Immutable, 2)
	if err != nil {
		t.Fatalf("failed to resolve by position: %v", err)
	}

	if resolved.Id != created[1].Id {
		t.Fatalf("positional resolution picked wrong candidate: %d", resolved.Id)
	}

	// The repaired identifier is persisted, the next lookup is exact.
	stored, err := candidates.GetCandidateByNativeId(election.Id, ledger.Immutable, 2)
	if err != nil {
		t.Fatalf("repaired identity not persisted: %v", err)
	}

	if stored.Id != created[1].Id {
		t.Fatalf("repair wrote the wrong candidate: %d", stored.Id)
	}
}

func TestResolveCandidateNeverProvisioned(t *testing.T) {
	_, mapper, election, created := newMapperFixture(t)

	// No provisioning ever happened. Positions default to local key
	// order, native identifier 1 lines up with the first candidate.
	resolved, err := mapper.ResolveCandidate(election.Id, ledger.Immutable, 1)
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}

	if resolved.Id != created[0].Id {
		t.Fatalf("resolved wrong candidate: %d", resolved.Id)
	}
}

func TestResolveCandidateOutOfRange(t *testing.T) {
	_, mapper, election, _ := newMapperFixture(t)

	_, err := mapper.ResolveCandidate(election.Id, ledger.Immutable, 9)
	if !errors.Is(err, identity.ErrIdentityMappingBroken) {
		t.Fatalf("expected broken mapping error, got %v", err)
	}

	_, err = mapper.ResolveCandidate(election.Id, ledger.Immutable, 0)
	if !errors.Is(err, identity.ErrIdentityMappingBroken) {
		t.Fatalf("expected broken mapping error for id 0, got %v", err)
	}
}

func TestResolveCandidateScopedToElection(t *testing.T) {
	candidates, mapper, election, created := newMapperFixture(t)

	if err := candidates.SetNativeId(created[0].Id, ledger.Chaincode, 1, 1); err != nil {
		t.Fatalf("failed to set native id: %v", err)
	}

	// The same native identifier on another election must not resolve
	// to this election's candidate.
	_, err := mapper.ResolveCandidate(election.Id+1, ledger.Chaincode, 1)
	if !errors.Is(err, identity.ErrIdentityMappingBroken) {
		t.Fatalf("expected broken mapping for foreign election, got %v", err)
	}
}
