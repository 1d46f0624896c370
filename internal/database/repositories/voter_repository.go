package repositories

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	db_models "github.com/votebridge/VoteBridge/internal/database/models"
	mapping "github.com/votebridge/VoteBridge/internal/mapping"
	models "github.com/votebridge/VoteBridge/internal/models"
)

var ErrVoterNotFound = errors.New("voter not found")

type VoterRepository interface {
	CreateVoter(voter *models.Voter) error
	GetVoter(id uint) (*models.Voter, error)
	GetVoterByUsername(username string) (*models.Voter, error)
	GetVotersByElection(electionId uint) ([]*models.Voter, error)
	SetWallet(voterId uint, wallet string) error
	GetUsedWallets() ([]string, error)
}

type VoterRepositoryImpl struct {
	db *gorm.DB
}

var GlobalVoterRepository VoterRepository

func InitializeGlobalVoterRepository(db *gorm.DB) error {
	if GlobalVoterRepository != nil {
		return nil
	}

	GlobalVoterRepository = NewVoterRepositoryImpl(db)
	return nil
}

func NewVoterRepositoryImpl(db *gorm.DB) *VoterRepositoryImpl {
	return &VoterRepositoryImpl{db: db}
}

func (repo *VoterRepositoryImpl) CreateVoter(voter *models.Voter) error {
	voterDB := mapping.VoterToVoterDB(voter)

	result := repo.db.Create(voterDB)
	if result.Error != nil {
		return result.Error
	}

	voter.Id = voterDB.Id
	return nil
}

func (repo *VoterRepositoryImpl) GetVoter(id uint) (*models.Voter, error) {
	voterDB := &db_models.VoterDB{}
	result := repo.db.Where("id = ?", id).Find(voterDB)

	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, ErrVoterNotFound
	}

	return mapping.VoterDBToVoter(voterDB), nil
}

func (repo *VoterRepositoryImpl) GetVoterByUsername(username string) (*models.Voter, error) {
	voterDB := &db_models.VoterDB{}
	result := repo.db.Where("username = ?", username).Find(voterDB)

	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, ErrVoterNotFound
	}

	return mapping.VoterDBToVoter(voterDB), nil
}

func (repo *VoterRepositoryImpl) GetVotersByElection(electionId uint) ([]*models.Voter, error) {
	var voterDBs []*db_models.VoterDB
	result := repo.db.Where("election_id = ?", electionId).Order("id ASC").Find(&voterDBs)

	if result.Error != nil {
		return nil, result.Error
	}

	voters := make([]*models.Voter, len(voterDBs))
	for i, voterDB := range voterDBs {
		voters[i] = mapping.VoterDBToVoter(voterDB)
	}

	return voters, nil
}

func (repo *VoterRepositoryImpl) SetWallet(voterId uint, wallet string) error {
	result := repo.db.Model(&db_models.VoterDB{}).
		Where("id = ?", voterId).
		Update("wallet", wallet)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrVoterNotFound
	}

	return nil
}

// GetUsedWallets returns every wallet address already assigned to a
// voter or a candidate. Assigned addresses are never handed out again.
func (repo *VoterRepositoryImpl) GetUsedWallets() ([]string, error) {
	var voterWallets []string
	result := repo.db.Model(&db_models.VoterDB{}).
		Where("wallet != ''").
		Pluck("wallet", &voterWallets)

	if result.Error != nil {
		return nil, result.Error
	}

	var candidateWallets []string
	result = repo.db.Model(&db_models.CandidateDB{}).
		Where("wallet != ''").
		Pluck("wallet", &candidateWallets)

	if result.Error != nil {
		return nil, result.Error
	}

	return append(voterWallets, candidateWallets...), nil
}
