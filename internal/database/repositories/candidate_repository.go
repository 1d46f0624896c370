package repositories

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	db_models "github.com/votebridge/VoteBridge/internal/database/models"
	"github.com/votebridge/VoteBridge/internal/ledger"
	mapping "github.com/votebridge/VoteBridge/internal/mapping"
	models "github.com/votebridge/VoteBridge/internal/models"
)

var ErrCandidateNotFound = errors.New("candidate not found")

type CandidateRepository interface {
	CreateCandidate(candidate *models.Candidate) error
	GetCandidate(id uint) (*models.Candidate, error)
	GetCandidates(electionId uint) ([]*models.Candidate, error)
	GetCandidatesByProvisionOrder(electionId uint) ([]*models.Candidate, error)
	GetCandidateByNativeId(electionId uint, kind ledger.Kind, nativeId uint64) (*models.Candidate, error)
	SetNativeId(candidateId uint, kind ledger.Kind, nativeId uint64, provisionOrder uint) error
	ClearNativeIds(kind ledger.Kind) error
}

type CandidateRepositoryImpl struct {
	db *gorm.DB
}

var GlobalCandidateRepository CandidateRepository

func InitializeGlobalCandidateRepository(db *gorm.DB) error {
	if GlobalCandidateRepository != nil {
		return nil
	}

	GlobalCandidateRepository = NewCandidateRepositoryImpl(db)
	return nil
}

func NewCandidateRepositoryImpl(db *gorm.DB) *CandidateRepositoryImpl {
	return &CandidateRepositoryImpl{db: db}
}

func (repo *CandidateRepositoryImpl) CreateCandidate(candidate *models.Candidate) error {
	candidateDB := mapping.CandidateToCandidateDB(candidate)

	result := repo.db.Create(candidateDB)
	if result.Error != nil {
		return result.Error
	}

	candidate.Id = candidateDB.Id
	return nil
}

func (repo *CandidateRepositoryImpl) GetCandidate(id uint) (*models.Candidate, error) {
	candidateDB := &db_models.CandidateDB{}
	result := repo.db.Where("id = ?", id).Find(candidateDB)

	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, ErrCandidateNotFound
	}

	return mapping.CandidateDBToCandidate(candidateDB), nil
}

// GetCandidates returns the election candidates in ascending local key
// order, which is the order they are provisioned in.
func (repo *CandidateRepositoryImpl) GetCandidates(electionId uint) ([]*models.Candidate, error) {
	var candidateDBs []*db_models.CandidateDB
	result := repo.db.Where("election_id = ?", electionId).Order("id ASC").Find(&candidateDBs)

	if result.Error != nil {
		return nil, result.Error
	}

	return candidateDBsToCandidates(candidateDBs), nil
}

// GetCandidatesByProvisionOrder returns the election candidates ordered
// by the position they held when last written to a ledger. Candidates
// never provisioned sort last, by local key.
func (repo *CandidateRepositoryImpl) GetCandidatesByProvisionOrder(electionId uint) ([]*models.Candidate, error) {
	var candidateDBs []*db_models.CandidateDB
	result := repo.db.Where("election_id = ?", electionId).
		Order("CASE WHEN provision_order = 0 THEN 1 ELSE 0 END, provision_order ASC, id ASC").
		Find(&candidateDBs)

	if result.Error != nil {
		return nil, result.Error
	}

	return candidateDBsToCandidates(candidateDBs), nil
}

func (repo *CandidateRepositoryImpl) GetCandidateByNativeId(electionId uint, kind ledger.Kind, nativeId uint64) (*models.Candidate, error) {
	candidateDB := &db_models.CandidateDB{}
	result := repo.db.Where("election_id = ?", electionId).
		Where(nativeIdColumn(kind)+" = ?", nativeId).
		Find(candidateDB)

	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, ErrCandidateNotFound
	}

	return mapping.CandidateDBToCandidate(candidateDB), nil
}

func (repo *CandidateRepositoryImpl) SetNativeId(candidateId uint, kind ledger.Kind, nativeId uint64, provisionOrder uint) error {
	return repo.db.Model(&db_models.CandidateDB{}).
		Where("id = ?", candidateId).
		Updates(map[string]any{
			nativeIdColumn(kind): nativeId,
			"provision_order":    provisionOrder,
		}).Error
}

func (repo *CandidateRepositoryImpl) ClearNativeIds(kind ledger.Kind) error {
	return repo.db.Model(&db_models.CandidateDB{}).
		Where("1 = 1").
		Update(nativeIdColumn(kind), nil).Error
}

func candidateDBsToCandidates(candidateDBs []*db_models.CandidateDB) []*models.Candidate {
	candidates := make([]*models.Candidate, len(candidateDBs))
	for i, candidateDB := range candidateDBs {
		candidates[i] = mapping.CandidateDBToCandidate(candidateDB)
	}

	return candidates
}
