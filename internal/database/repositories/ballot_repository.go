package repositories

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	db_models "github.com/votebridge/VoteBridge/internal/database/models"
	mapping "github.com/votebridge/VoteBridge/internal/mapping"
	models "github.com/votebridge/VoteBridge/internal/models"
)

// ErrDuplicateBallot is returned when inserting a second ballot for the
// same voter in the same election.
var ErrDuplicateBallot = errors.New("voter already has a ballot in this election")

var ErrBallotNotFound = errors.New("ballot not found")

type BallotRepository interface {
	InsertBallot(ballot *models.Ballot) error
	GetBallot(electionId uint, voterId uint) (*models.Ballot, error)
	GetBallotsByElection(electionId uint) ([]*models.Ballot, error)
	GetChaincodeBallots(electionId uint) ([]*models.Ballot, error)
	UpdateBallotCandidate(ballotId uint, candidateId uint, txRef string, castAt time.Time) error
	ReviewBallot(ballotId uint, status models.BallotStatus, reviewerId uint, reviewedAt time.Time) error
}

type BallotRepositoryImpl struct {
	db *gorm.DB
}

var GlobalBallotRepository BallotRepository

func InitializeGlobalBallotRepository(db *gorm.DB) error {
	if GlobalBallotRepository != nil {
		return nil
	}

	GlobalBallotRepository = NewBallotRepositoryImpl(db)
	return nil
}

func NewBallotRepositoryImpl(db *gorm.DB) *BallotRepositoryImpl {
	return &BallotRepositoryImpl{db: db}
}

func (repo *BallotRepositoryImpl) InsertBallot(ballot *models.Ballot) error {
	ballotDB := mapping.BallotToBallotDB(ballot)

	result := repo.db.Create(ballotDB)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrDuplicateBallot
		}
		return result.Error
	}

	ballot.Id = ballotDB.Id
	return nil
}

func (repo *BallotRepositoryImpl) GetBallot(electionId uint, voterId uint) (*models.Ballot, error) {
	ballotDB := &db_models.BallotDB{}
	result := repo.db.Where("election_id = ? AND voter_id = ?", electionId, voterId).Find(ballotDB)

	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, ErrBallotNotFound
	}

	return mapping.BallotDBToBallot(ballotDB), nil
}

func (repo *BallotRepositoryImpl) GetBallotsByElection(electionId uint) ([]*models.Ballot, error) {
	var ballotDBs []*db_models.BallotDB
	result := repo.db.Where("election_id = ?", electionId).Order("id ASC").Find(&ballotDBs)

	if result.Error != nil {
		return nil, result.Error
	}

	return ballotDBsToBallots(ballotDBs), nil
}

func (repo *BallotRepositoryImpl) GetChaincodeBallots(electionId uint) ([]*models.Ballot, error) {
	var ballotDBs []*db_models.BallotDB
	result := repo.db.Where("election_id = ? AND tx_ref LIKE ?", electionId, models.ChaincodeTxPrefix+"%").
		Order("id ASC").
		Find(&ballotDBs)

	if result.Error != nil {
		return nil, result.Error
	}

	return ballotDBsToBallots(ballotDBs), nil
}

// UpdateBallotCandidate rewrites a ballot after a vote change on a
// mutable ledger. The candidate, transaction reference and cast time
// change together so the row never mixes two votes.
func (repo *BallotRepositoryImpl) UpdateBallotCandidate(ballotId uint, candidateId uint, txRef string, castAt time.Time) error {
	result := repo.db.Model(&db_models.BallotDB{}).
		Where("id = ?", ballotId).
		Updates(map[string]any{
			"candidate_id": candidateId,
			"tx_ref":       txRef,
			"cast_at":      castAt,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrBallotNotFound
	}

	return nil
}

func (repo *BallotRepositoryImpl) ReviewBallot(ballotId uint, status models.BallotStatus, reviewerId uint, reviewedAt time.Time) error {
	result := repo.db.Model(&db_models.BallotDB{}).
		Where("id = ?", ballotId).
		Updates(map[string]any{
			"status":      string(status),
			"reviewed_by": reviewerId,
			"reviewed_at": reviewedAt,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrBallotNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func ballotDBsToBallots(ballotDBs []*db_models.BallotDB) []*models.Ballot {
	ballots := make([]*models.Ballot, len(ballotDBs))
	for i, ballotDB := range ballotDBs {
		ballots[i] = mapping.BallotDBToBallot(ballotDB)
	}

	return ballots
}
