package coordinator

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	repositories "github.com/votebridge/VoteBridge/internal/database/repositories"
	"github.com/votebridge/VoteBridge/internal/identity"
	"github.com/votebridge/VoteBridge/internal/ledger"
	"github.com/votebridge/VoteBridge/internal/log"
	models "github.com/votebridge/VoteBridge/internal/models"
	"github.com/votebridge/VoteBridge/internal/provision"
)

var ErrAlreadyVoted = errors.New("voter has already voted in this election")

var ErrVoterNotEligible = errors.New("voter is not an approved elector")

var ErrNoWallet = errors.New("voter has no wallet address")

var ErrElectionInactive = errors.New("election is not accepting ballots")

var ErrCandidateMismatch = errors.New("candidate does not belong to this election")

var ErrNoBallotToUpdate = errors.New("no matching ballot to update")

// Coordinator drives the voting protocols across the relational store
// and the ledgers. The relational store keeps the audit trail, the
// ledger is authoritative for whether a voter has voted.
type Coordinator struct {
	elections   repositories.ElectionRepository
	candidates  repositories.CandidateRepository
	ballots     repositories.BallotRepository
	voters      repositories.VoterRepository
	provisioner *provision.Provisioner
	mapper      *identity.Mapper
}

func NewCoordinator(
	elections repositories.ElectionRepository,
	candidates repositories.CandidateRepository,
	ballots repositories.BallotRepository,
	voters repositories.VoterRepository,
	provisioner *provision.Provisioner,
	mapper *identity.Mapper,
) *Coordinator {
	return &Coordinator{
		elections:   elections,
		candidates:  candidates,
		ballots:     ballots,
		voters:      voters,
		provisioner: provisioner,
		mapper:      mapper,
	}
}

// CastVote casts a first time ballot through client's ledger and
// records it in the relational store. The relational uniqueness check
// runs first, but the ledger has the final say on double voting.
func (coordinator *Coordinator) CastVote(ctx context.Context, client ledger.Client, electionId uint, candidateId uint, voterId uint) (*models.Ballot, error) {
	voter, err := coordinator.eligibleVoter(voterId, client.Kind())
	if err != nil {
		return nil, err
	}

	candidate, err := coordinator.electionCandidate(electionId, candidateId)
	if err != nil {
		return nil, err
	}

	_, err = coordinator.ballots.GetBallot(electionId, voterId)
	if err == nil {
		return nil, ErrAlreadyVoted
	}

	if !errors.Is(err, repositories.ErrBallotNotFound) {
		return nil, err
	}

	// Check activity before touching the ledger, a refused cast must not
	// provision the election as a side effect.
	stored, err := coordinator.elections.GetElection(electionId)
	if err != nil {
		return nil, err
	}

	if !stored.Active {
		return nil, ErrElectionInactive
	}

	election, err := coordinator.provisioner.EnsureProvisioned(ctx, client, electionId)
	if err != nil {
		return nil, err
	}

	kind := client.Kind()
	record := election.Ledgers[kind]

	nativeCandidateId, err := coordinator.nativeCandidateId(candidate, kind)
	if err != nil {
		return nil, err
	}

	voterIdentity := coordinator.voterIdentity(voter, kind)

	voted, err := client.HasVoted(ctx, record.NativeId, voterIdentity)
	if err != nil {
		return nil, err
	}

	if voted {
		return nil, ErrAlreadyVoted
	}

	txRef, err := client.CastVote(ctx, record.NativeId, nativeCandidateId, voterIdentity)

	if ledger.IsAlreadyVoted(err) {
		// A concurrent cast landed between the HasVoted check and this
		// submission. The ledger kept the first vote.
		return nil, ErrAlreadyVoted
	}

	if err != nil {
		return nil, err
	}

	ballot := &models.Ballot{
		ElectionId:  electionId,
		CandidateId: candidate.Id,
		VoterId:     voterId,
		TxRef:       txRef,
		Status:      models.BallotApproved,
		CastAt:      time.Now(),
	}

	err = coordinator.ballots.InsertBallot(ballot)

	if errors.Is(err, repositories.ErrDuplicateBallot) {
		// A concurrent cast won the insert race. The ledger rejected
		// or absorbed the duplicate submission on its side.
		return nil, ErrAlreadyVoted
	}

	if err != nil {
		// The vote is already on the ledger, the missing audit row
		// can be backfilled from it.
		log.Error("ballot recorded on ledger but not in store",
			zap.Uint("electionId", electionId),
			zap.Uint("voterId", voterId),
			zap.String("txRef", txRef),
			zap.Error(err))
	}

	log.Info("ballot cast",
		zap.Uint("electionId", electionId),
		zap.Uint("candidateId", candidate.Id),
		zap.Uint("voterId", voterId),
		zap.String("kind", string(kind)),
		zap.String("txRef", txRef))

	return ballot, nil
}

// UpdateVote changes an existing ballot to a new candidate through a
// ledger that supports vote updates. The mutable ledger runs its own
// numbering, so the election is provisioned there independently. When
// the voter has no vote on the mutable ledger yet, a baseline vote for
// the current candidate is cast first so the update has something to
// move.
func (coordinator *Coordinator) UpdateVote(ctx context.Context, client ledger.Client, electionId uint, newCandidateId uint, voterId uint) (*models.Ballot, error) {
	voter, err := coordinator.eligibleVoter(voterId, client.Kind())
	if err != nil {
		return nil, err
	}

	existing, err := coordinator.ballots.GetBallot(electionId, voterId)
	if err != nil {
		if errors.Is(err, repositories.ErrBallotNotFound) {
			return nil, ErrNoBallotToUpdate
		}
		return nil, err
	}

	if existing.OnChaincode() {
		return nil, ErrNoBallotToUpdate
	}

	newCandidate, err := coordinator.electionCandidate(electionId, newCandidateId)
	if err != nil {
		return nil, err
	}

	if existing.CandidateId == newCandidate.Id {
		return coordinator.confirmBallot(existing)
	}

	election, err := coordinator.provisioner.EnsureProvisioned(ctx, client, electionId)
	if err != nil {
		return nil, err
	}

	kind := client.Kind()
	record := election.Ledgers[kind]
	voterIdentity := coordinator.voterIdentity(voter, kind)

	voted, err := client.HasVoted(ctx, record.NativeId, voterIdentity)
	if err != nil {
		return nil, err
	}

	if !voted {
		err = coordinator.castBaseline(ctx, client, record.NativeId, existing, voterIdentity)
		if err != nil {
			return nil, err
		}
	}

	nativeNewCandidateId, err := coordinator.nativeCandidateId(newCandidate, kind)
	if err != nil {
		return nil, err
	}

	txRef, previousId, err := client.UpdateVote(ctx, record.NativeId, nativeNewCandidateId, voterIdentity)
	if err != nil {
		return nil, err
	}

	castAt := time.Now()
	err = coordinator.ballots.UpdateBallotCandidate(existing.Id, newCandidate.Id, txRef, castAt)

	if err != nil {
		return nil, err
	}

	log.Info("ballot updated",
		zap.Uint("electionId", electionId),
		zap.Uint("oldCandidateId", existing.CandidateId),
		zap.Uint("newCandidateId", newCandidate.Id),
		zap.Uint64("previousNativeId", previousId),
		zap.Uint("voterId", voterId),
		zap.String("txRef", txRef))

	existing.CandidateId = newCandidate.Id
	existing.TxRef = txRef
	existing.CastAt = castAt

	return existing, nil
}

// UpdateChaincodeVote changes a chaincode backed ballot. The chaincode
// keeps one vote per voter and refuses a second cast, so a rejected
// re-cast is treated as the vote already being in place and only the
// relational ballot moves.
func (coordinator *Coordinator) UpdateChaincodeVote(ctx context.Context, client ledger.Client, electionId uint, newCandidateId uint, voterId uint) (*models.Ballot, error) {
	voter, err := coordinator.eligibleVoter(voterId, client.Kind())
	if err != nil {
		return nil, err
	}

	existing, err := coordinator.ballots.GetBallot(electionId, voterId)
	if err != nil {
		if errors.Is(err, repositories.ErrBallotNotFound) {
			return nil, ErrNoBallotToUpdate
		}
		return nil, err
	}

	if !existing.OnChaincode() {
		return nil, ErrNoBallotToUpdate
	}

	newCandidate, err := coordinator.electionCandidate(electionId, newCandidateId)
	if err != nil {
		return nil, err
	}

	if existing.CandidateId == newCandidate.Id {
		return coordinator.confirmBallot(existing)
	}

	election, err := coordinator.provisioner.EnsureProvisioned(ctx, client, electionId)
	if err != nil {
		return nil, err
	}

	kind := client.Kind()
	record := election.Ledgers[kind]

	nativeNewCandidateId, err := coordinator.nativeCandidateId(newCandidate, kind)
	if err != nil {
		return nil, err
	}

	txRef := existing.TxRef
	newTxRef, err := client.CastVote(ctx, record.NativeId, nativeNewCandidateId, coordinator.voterIdentity(voter, kind))

	switch {
	case err == nil:
		txRef = newTxRef
	case ledger.IsAlreadyVoted(err):
		log.Warn("chaincode retains the original vote, moving ballot only",
			zap.Uint("electionId", electionId),
			zap.Uint("voterId", voterId))
	default:
		return nil, err
	}

	castAt := time.Now()
	err = coordinator.ballots.UpdateBallotCandidate(existing.Id, newCandidate.Id, txRef, castAt)

	if err != nil {
		return nil, err
	}

	existing.CandidateId = newCandidate.Id
	existing.TxRef = txRef
	existing.CastAt = castAt

	return existing, nil
}

func (coordinator *Coordinator) confirmBallot(ballot *models.Ballot) (*models.Ballot, error) {
	castAt := time.Now()
	err := coordinator.ballots.UpdateBallotCandidate(ballot.Id, ballot.CandidateId, ballot.TxRef, castAt)

	if err != nil {
		return nil, err
	}

	ballot.CastAt = castAt
	return ballot, nil
}

func (coordinator *Coordinator) castBaseline(ctx context.Context, client ledger.Client, nativeElectionId uint64, existing *models.Ballot, voterIdentity string) error {
	currentCandidate, err := coordinator.candidates.GetCandidate(existing.CandidateId)
	if err != nil {
		return err
	}

	nativeCurrentId, err := coordinator.nativeCandidateId(currentCandidate, client.Kind())
	if err != nil {
		return err
	}

	_, err = client.CastVote(ctx, nativeElectionId, nativeCurrentId, voterIdentity)

	if err != nil {
		return errors.Wrap(err, "failed to cast baseline vote")
	}

	log.Info("baseline vote cast before update",
		zap.Uint("ballotId", existing.Id),
		zap.Uint64("nativeCandidateId", nativeCurrentId))

	return nil
}

func (coordinator *Coordinator) eligibleVoter(voterId uint, kind ledger.Kind) (*models.Voter, error) {
	voter, err := coordinator.voters.GetVoter(voterId)
	if err != nil {
		return nil, err
	}

	if !voter.IsElector || !voter.Approved {
		return nil, ErrVoterNotEligible
	}

	// Chaincode voters are identified by their local key, everyone
	// else signs from a wallet.
	if kind != ledger.Chaincode && voter.Wallet == "" {
		return nil, ErrNoWallet
	}

	return voter, nil
}

func (coordinator *Coordinator) electionCandidate(electionId uint, candidateId uint) (*models.Candidate, error) {
	candidate, err := coordinator.candidates.GetCandidate(candidateId)
	if err != nil {
		return nil, err
	}

	if candidate.ElectionId != electionId {
		return nil, ErrCandidateMismatch
	}

	return candidate, nil
}

// nativeCandidateId reads the candidate's native identifier fresh from
// the store, provisioning may have assigned it moments ago.
func (coordinator *Coordinator) nativeCandidateId(candidate *models.Candidate, kind ledger.Kind) (uint64, error) {
	if nativeId, ok := candidate.NativeId(kind); ok {
		return nativeId, nil
	}

	stored, err := coordinator.candidates.GetCandidate(candidate.Id)
	if err != nil {
		return 0, err
	}

	nativeId, ok := stored.NativeId(kind)
	if !ok {
		return 0, identity.ErrIdentityMappingBroken
	}

	candidate.SetNativeId(kind, nativeId)
	return nativeId, nil
}

func (coordinator *Coordinator) voterIdentity(voter *models.Voter, kind ledger.Kind) string {
	if kind == ledger.Chaincode {
		return strconv.FormatUint(uint64(voter.Id), 10)
	}

	return voter.Wallet
}
