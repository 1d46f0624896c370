package db_models

import (
	"time"
)

type BallotDB struct {
	Id          uint       `gorm:"primaryKey;column:id;autoIncrement"`
	ElectionId  uint       `gorm:"column:election_id;not null;uniqueIndex:idx_ballots_election_voter"`
	VoterId     uint       `gorm:"column:voter_id;not null;uniqueIndex:idx_ballots_election_voter"`
	CandidateId uint       `gorm:"column:candidate_id;not null;index"`
	TxRef       string     `gorm:"column:tx_ref;not null"`
	Status      string     `gorm:"column:status;not null;default:pending"`
	CastAt      time.Time  `gorm:"column:cast_at;not null"`
	ReviewedBy  *uint      `gorm:"column:reviewed_by"`
	ReviewedAt  *time.Time `gorm:"column:reviewed_at"`

	Candidate *CandidateDB `gorm:"foreignKey:CandidateId;references:Id"`
}

func (BallotDB) TableName() string {
	return "ballots"
}
