package repositories

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	db_models "github.com/votebridge/VoteBridge/internal/database/models"
	"github.com/votebridge/VoteBridge/internal/ledger"
	mapping "github.com/votebridge/VoteBridge/internal/mapping"
	models "github.com/votebridge/VoteBridge/internal/models"
)

// ErrElectionHasBallots is returned when deleting an election that
// already has ballots recorded against it.
var ErrElectionHasBallots = errors.New("election has ballots and cannot be deleted")

var ErrElectionNotFound = errors.New("election not found")

type ElectionRepository interface {
	CreateElection(election *models.Election) error
	GetElection(id uint) (*models.Election, error)
	GetActiveElections() ([]*models.Election, error)
	SetNativeId(electionId uint, kind ledger.Kind, nativeId uint64, binding string) error
	ClearNativeIds(kind ledger.Kind) error
	SetActive(electionId uint, active bool) error
	DeleteElection(electionId uint) error
}

type ElectionRepositoryImpl struct {
	db *gorm.DB
}

var GlobalElectionRepository ElectionRepository

func InitializeGlobalElectionRepository(db *gorm.DB) error {
	if GlobalElectionRepository != nil {
		return nil
	}

	GlobalElectionRepository = NewElectionRepositoryImpl(db)
	return nil
}

func NewElectionRepositoryImpl(db *gorm.DB) *ElectionRepositoryImpl {
	return &ElectionRepositoryImpl{db: db}
}

func (repo *ElectionRepositoryImpl) CreateElection(election *models.Election) error {
	electionDB := mapping.ElectionToElectionDB(election)

	result := repo.db.Create(electionDB)
	if result.Error != nil {
		return result.Error
	}

	election.Id = electionDB.Id
	return nil
}

func (repo *ElectionRepositoryImpl) GetElection(id uint) (*models.Election, error) {
	electionDB := &db_models.ElectionDB{}
	result := repo.db.Where("id = ?", id).Find(electionDB)

	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, ErrElectionNotFound
	}

	return mapping.ElectionDBToElection(electionDB), nil
}

func (repo *ElectionRepositoryImpl) GetActiveElections() ([]*models.Election, error) {
	var electionDBs []*db_models.ElectionDB
	result := repo.db.Where("active = ?", true).Order("id ASC").Find(&electionDBs)

	if result.Error != nil {
		return nil, result.Error
	}

	elections := make([]*models.Election, len(electionDBs))
	for i, electionDB := range electionDBs {
		elections[i] = mapping.ElectionDBToElection(electionDB)
	}

	return elections, nil
}

func (repo *ElectionRepositoryImpl) SetNativeId(electionId uint, kind ledger.Kind, nativeId uint64, binding string) error {
	return repo.db.Model(&db_models.ElectionDB{}).
		Where("id = ?", electionId).
		Updates(map[string]any{
			nativeIdColumn(kind): nativeId,
			bindingColumn(kind):  binding,
		}).Error
}

func (repo *ElectionRepositoryImpl) ClearNativeIds(kind ledger.Kind) error {
	return repo.db.Model(&db_models.ElectionDB{}).
		Where("1 = 1").
		Updates(map[string]any{
			nativeIdColumn(kind): nil,
			bindingColumn(kind):  nil,
		}).Error
}

func (repo *ElectionRepositoryImpl) SetActive(electionId uint, active bool) error {
	return repo.db.Model(&db_models.ElectionDB{}).
		Where("id = ?", electionId).
		Update("active", active).Error
}

func (repo *ElectionRepositoryImpl) DeleteElection(electionId uint) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		var ballotCount int64
		result := tx.Model(&db_models.BallotDB{}).
			Where("election_id = ?", electionId).
			Count(&ballotCount)

		if result.Error != nil {
			return result.Error
		}

		if ballotCount > 0 {
			return ErrElectionHasBallots
		}

		err := tx.Where("election_id = ?", electionId).Delete(&db_models.CandidateDB{}).Error
		if err != nil {
			return err
		}

		return tx.Where("id = ?", electionId).Delete(&db_models.ElectionDB{}).Error
	})
}
