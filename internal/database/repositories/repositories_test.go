package repositories_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"

	connection "github.com/votebridge/VoteBridge/internal/database/connection"
	repositories "github.com/votebridge/VoteBridge/internal/database/repositories"
	"github.com/votebridge/VoteBridge/internal/ledger"
	models "github.com/votebridge/VoteBridge/internal/models"
)

type testRepos struct {
	elections  repositories.ElectionRepository
	candidates repositories.CandidateRepository
	ballots    repositories.BallotRepository
	voters     repositories.VoterRepository
}

func newTestRepos(t *testing.T) *testRepos {
	t.Helper()

	db, err := connection.GetDatabaseConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = connection.CloseDatabaseConnection(db)
	})

	return &testRepos{
		elections:  repositories.NewElectionRepositoryImpl(db),
		candidates: repositories.NewCandidateRepositoryImpl(db),
		ballots:    repositories.NewBallotRepositoryImpl(db),
		voters:     repositories.NewVoterRepositoryImpl(db),
	}
}

func seedElection(t *testing.T, repos *testRepos, candidateNames ...string) (*models.Election, []*models.Candidate) {
	t.Helper()

	election := &models.Election{Title: "City Council 2026", Active: true}
	if err := repos.elections.CreateElection(election); err != nil {
		t.Fatalf("failed to create election: %v", err)
	}

	candidates := make([]*models.Candidate, len(candidateNames))
	for i, name := range candidateNames {
		candidates[i] = &models.Candidate{ElectionId: election.Id, Name: name}
		if err := repos.candidates.CreateCandidate(candidates[i]); err != nil {
			t.Fatalf("failed to create candidate %s: %v", name, err)
		}
	}

	return election, candidates
}

func seedVoter(t *testing.T, repos *testRepos, username string) *models.Voter {
	t.Helper()

	voter := &models.Voter{
		Username:  username,
		IsElector: true,
		Approved:  true,
		Wallet:    "0x" + username,
	}

	if err := repos.voters.CreateVoter(voter); err != nil {
		t.Fatalf("failed to create voter %s: %v", username, err)
	}

	return voter
}

func TestInsertBallotRejectsDuplicate(t *testing.T) {
	repos := newTestRepos(t)
	election, candidates := seedElection(t, repos, "Ada", "Grace")
	voter := seedVoter(t, repos, "alice")

	ballot := &models.Ballot{
		ElectionId:  election.Id,
		CandidateId: candidates[0].Id,
		VoterId:     voter.Id,
		TxRef:       "0xabc",
		Status:      models.BallotApproved,
		CastAt:      time.Now(),
	}

	if err := repos.ballots.InsertBallot(ballot); err != nil {
		t.Fatalf("failed to insert first ballot: %v", err)
	}

	duplicate := &models.Ballot{
		ElectionId:  election.Id,
		CandidateId: candidates[1].Id,
		VoterId:     voter.Id,
		TxRef:       "0xdef",
		Status:      models.BallotApproved,
		CastAt:      time.Now(),
	}

	err := repos.ballots.InsertBallot(duplicate)
	if !errors.Is(err, repositories.ErrDuplicateBallot) {
		t.Fatalf("expected duplicate ballot error, got %v", err)
	}
}

func TestGetChaincodeBallots(t *testing.T) {
	repos := newTestRepos(t)
	election, candidates := seedElection(t, repos, "Ada", "Grace")
	alice := seedVoter(t, repos, "alice")
	bob := seedVoter(t, repos, "bob")

	ballots := []*models.Ballot{
		{ElectionId: election.Id, CandidateId: candidates[0].Id, VoterId: alice.Id, TxRef: "0xabc", Status: models.BallotApproved, CastAt: time.Now()},
		{ElectionId: election.Id, CandidateId: candidates[1].Id, VoterId: bob.Id, TxRef: models.ChaincodeTxPrefix + "f81d4fae", Status: models.BallotApproved, CastAt: time.Now()},
	}

	for _, ballot := range ballots {
		if err := repos.ballots.InsertBallot(ballot); err != nil {
			t.Fatalf("failed to insert ballot: %v", err)
		}
	}

	chaincodeBallots, err := repos.ballots.GetChaincodeBallots(election.Id)
	if err != nil {
		t.Fatalf("failed to get chaincode ballots: %v", err)
	}

	if len(chaincodeBallots) != 1 {
		t.Fatalf("expected 1 chaincode ballot, got %d", len(chaincodeBallots))
	}

	if chaincodeBallots[0].VoterId != bob.Id {
		t.Fatalf("wrong ballot returned: voter %d", chaincodeBallots[0].VoterId)
	}
}

func TestUpdateBallotCandidate(t *testing.T) {
	repos := newTestRepos(t)
	election, candidates := seedElection(t, repos, "Ada", "Grace")
	voter := seedVoter(t, repos, "alice")

	ballot := &models.Ballot{
		ElectionId:  election.Id,
		CandidateId: candidates[0].Id,
		VoterId:     voter.Id,
		TxRef:       "0xabc",
		Status:      models.BallotApproved,
		CastAt:      time.Now().Add(-time.Hour),
	}

	if err := repos.ballots.InsertBallot(ballot); err != nil {
		t.Fatalf("failed to insert ballot: %v", err)
	}

	castAt := time.Now()
	err := repos.ballots.UpdateBallotCandidate(ballot.Id, candidates[1].Id, "0xdef", castAt)
	if err != nil {
		t.Fatalf("failed to update ballot: %v", err)
	}

	updated, err := repos.ballots.GetBallot(election.Id, voter.Id)
	if err != nil {
		t.Fatalf("failed to get updated ballot: %v", err)
	}

	if updated.CandidateId != candidates[1].Id {
		t.Fatalf("ballot candidate not updated: %d", updated.CandidateId)
	}

	if updated.TxRef != "0xdef" {
		t.Fatalf("ballot tx ref not updated: %s", updated.TxRef)
	}

	err = repos.ballots.UpdateBallotCandidate(9999, candidates[1].Id, "0xdef", castAt)
	if !errors.Is(err, repositories.ErrBallotNotFound) {
		t.Fatalf("expected ballot not found, got %v", err)
	}
}

func TestReviewBallot(t *testing.T) {
	repos := newTestRepos(t)
	election, candidates := seedElection(t, repos, "Ada")
	voter := seedVoter(t, repos, "alice")
	admin := seedVoter(t, repos, "admin")

	ballot := &models.Ballot{
		ElectionId:  election.Id,
		CandidateId: candidates[0].Id,
		VoterId:     voter.Id,
		TxRef:       "0xabc",
		Status:      models.BallotPending,
		CastAt:      time.Now(),
	}

	if err := repos.ballots.InsertBallot(ballot); err != nil {
		t.Fatalf("failed to insert ballot: %v", err)
	}

	err := repos.ballots.ReviewBallot(ballot.Id, models.BallotApproved, admin.Id, time.Now())
	if err != nil {
		t.Fatalf("failed to review ballot: %v", err)
	}

	reviewed, err := repos.ballots.GetBallot(election.Id, voter.Id)
	if err != nil {
		t.Fatalf("failed to get reviewed ballot: %v", err)
	}

	if reviewed.Status != models.BallotApproved {
		t.Fatalf("ballot status not updated: %s", reviewed.Status)
	}

	if reviewed.ReviewedBy == nil || *reviewed.ReviewedBy != admin.Id {
		t.Fatalf("reviewer not recorded")
	}
}

func TestDeleteElectionRefusesWithBallots(t *testing.T) {
	repos := newTestRepos(t)
	election, candidates := seedElection(t, repos, "Ada")
	voter := seedVoter(t, repos, "alice")

	ballot := &models.Ballot{
		ElectionId:  election.Id,
		CandidateId: candidates[0].Id,
		VoterId:     voter.Id,
		TxRef:       "0xabc",
		Status:      models.BallotApproved,
		CastAt:      time.Now(),
	}

	if err := repos.ballots.InsertBallot(ballot); err != nil {
		t.Fatalf("failed to insert ballot: %v", err)
	}

	err := repos.elections.DeleteElection(election.Id)
	if !errors.Is(err, repositories.ErrElectionHasBallots) {
		t.Fatalf("expected refusal to delete election with ballots, got %v", err)
	}

	if _, err := repos.elections.GetElection(election.Id); err != nil {
		t.Fatalf("election should survive a refused delete: %v", err)
	}
}

func TestDeleteElectionRemovesCandidates(t *testing.T) {
	repos := newTestRepos(t)
	election, _ := seedElection(t, repos, "Ada", "Grace")

	if err := repos.elections.DeleteElection(election.Id); err != nil {
		t.Fatalf("failed to delete election: %v", err)
	}

	_, err := repos.elections.GetElection(election.Id)
	if !errors.Is(err, repositories.ErrElectionNotFound) {
		t.Fatalf("expected election not found, got %v", err)
	}

	candidates, err := repos.candidates.GetCandidates(election.Id)
	if err != nil {
		t.Fatalf("failed to list candidates: %v", err)
	}

	if len(candidates) != 0 {
		t.Fatalf("expected candidates removed with election, got %d", len(candidates))
	}
}

func TestElectionNativeIds(t *testing.T) {
	repos := newTestRepos(t)
	election, _ := seedElection(t, repos, "Ada")

	err := repos.elections.SetNativeId(election.Id, ledger.Immutable, 3, "0xcontract")
	if err != nil {
		t.Fatalf("failed to set native id: %v", err)
	}

	stored, err := repos.elections.GetElection(election.Id)
	if err != nil {
		t.Fatalf("failed to get election: %v", err)
	}

	nativeId, ok := stored.NativeId(ledger.Immutable, "0xcontract")
	if !ok || nativeId != 3 {
		t.Fatalf("expected native id 3 under current binding, got %d %v", nativeId, ok)
	}

	if _, ok := stored.NativeId(ledger.Immutable, "0xother"); ok {
		t.Fatalf("native id should not be valid under another binding")
	}

	if _, ok := stored.NativeId(ledger.Mutable, "0xcontract"); ok {
		t.Fatalf("native id should not leak across ledger kinds")
	}

	if err := repos.elections.ClearNativeIds(ledger.Immutable); err != nil {
		t.Fatalf("failed to clear native ids: %v", err)
	}

	cleared, err := repos.elections.GetElection(election.Id)
	if err != nil {
		t.Fatalf("failed to get election after clear: %v", err)
	}

	if _, ok := cleared.NativeId(ledger.Immutable, "0xcontract"); ok {
		t.Fatalf("native id should be gone after clear")
	}
}

func TestGetCandidatesByProvisionOrder(t *testing.T) {
	repos := newTestRepos(t)
	election, candidates := seedElection(t, repos, "Ada", "Grace", "Edsger")

	// Provision the last candidate first, the first one second, leave
	// the middle one unprovisioned.
	if err := repos.candidates.SetNativeId(candidates[2].Id, ledger.Immutable, 1, 1); err != nil {
		t.Fatalf("failed to set native id: %v", err)
	}

	if err := repos.candidates.SetNativeId(candidates[0].Id, ledger.Immutable, 2, 2); err != nil {
		t.Fatalf("failed to set native id: %v", err)
	}

	ordered, err := repos.candidates.GetCandidatesByProvisionOrder(election.Id)
	if err != nil {
		t.Fatalf("failed to get candidates by provision order: %v", err)
	}

	if len(ordered) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(ordered))
	}

	if ordered[0].Id != candidates[2].Id || ordered[1].Id != candidates[0].Id || ordered[2].Id != candidates[1].Id {
		t.Fatalf("unexpected provision order: %d %d %d", ordered[0].Id, ordered[1].Id, ordered[2].Id)
	}
}

func TestGetCandidateByNativeId(t *testing.T) {
	repos := newTestRepos(t)
	election, candidates := seedElection(t, repos, "Ada", "Grace")

	if err := repos.candidates.SetNativeId(candidates[1].Id, ledger.Chaincode, 2, 2); err != nil {
		t.Fatalf("failed to set native id: %v", err)
	}

	found, err := repos.candidates.GetCandidateByNativeId(election.Id, ledger.Chaincode, 2)
	if err != nil {
		t.Fatalf("failed to get candidate by native id: %v", err)
	}

	if found.Id != candidates[1].Id {
		t.Fatalf("wrong candidate resolved: %d", found.Id)
	}

	_, err = repos.candidates.GetCandidateByNativeId(election.Id, ledger.Immutable, 2)
	if !errors.Is(err, repositories.ErrCandidateNotFound) {
		t.Fatalf("expected candidate not found on other kind, got %v", err)
	}
}

func TestGetUsedWallets(t *testing.T) {
	repos := newTestRepos(t)

	election := &models.Election{Title: "City Council 2026", Active: true}
	if err := repos.elections.CreateElection(election); err != nil {
		t.Fatalf("failed to create election: %v", err)
	}

	candidate := &models.Candidate{ElectionId: election.Id, Name: "Ada", Wallet: "0xcandidate"}
	if err := repos.candidates.CreateCandidate(candidate); err != nil {
		t.Fatalf("failed to create candidate: %v", err)
	}

	voter := seedVoter(t, repos, "alice")

	unfunded := &models.Voter{Username: "bob", IsElector: true, Approved: true}
	if err := repos.voters.CreateVoter(unfunded); err != nil {
		t.Fatalf("failed to create voter: %v", err)
	}

	wallets, err := repos.voters.GetUsedWallets()
	if err != nil {
		t.Fatalf("failed to get used wallets: %v", err)
	}

	if len(wallets) != 2 {
		t.Fatalf("expected 2 used wallets, got %d: %v", len(wallets), wallets)
	}

	seen := map[string]bool{}
	for _, wallet := range wallets {
		seen[wallet] = true
	}

	if !seen[voter.Wallet] || !seen["0xcandidate"] {
		t.Fatalf("missing wallets in %v", wallets)
	}
}

func TestSetWallet(t *testing.T) {
	repos := newTestRepos(t)

	voter := &models.Voter{Username: "carol", IsElector: true, Approved: true}
	if err := repos.voters.CreateVoter(voter); err != nil {
		t.Fatalf("failed to create voter: %v", err)
	}

	if err := repos.voters.SetWallet(voter.Id, "0xcarol"); err != nil {
		t.Fatalf("failed to set wallet: %v", err)
	}

	stored, err := repos.voters.GetVoter(voter.Id)
	if err != nil {
		t.Fatalf("failed to get voter: %v", err)
	}

	if stored.Wallet != "0xcarol" {
		t.Fatalf("wallet not persisted: %s", stored.Wallet)
	}

	err = repos.voters.SetWallet(9999, "0xnobody")
	if !errors.Is(err, repositories.ErrVoterNotFound) {
		t.Fatalf("expected voter not found, got %v", err)
	}
}
