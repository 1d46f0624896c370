package db_models

import (
	"time"
)

type VoterDB struct {
	Id          uint      `gorm:"primaryKey;column:id;autoIncrement"`
	Username    string    `gorm:"column:username;not null;uniqueIndex"`
	IsElector   bool      `gorm:"column:is_elector;not null;default:false"`
	IsCandidate bool      `gorm:"column:is_candidate;not null;default:false"`
	IsAdmin     bool      `gorm:"column:is_admin;not null;default:false"`
	Verified    bool      `gorm:"column:verified;not null;default:false"`
	Approved    bool      `gorm:"column:approved;not null;default:false"`
	Wallet      string    `gorm:"column:wallet"`
	ElectionId  *uint     `gorm:"column:election_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`

	Ballots []BallotDB `gorm:"foreignKey:VoterId;references:Id;constraint:OnDelete:RESTRICT,OnUpdate:RESTRICT"`
}

func (VoterDB) TableName() string {
	return "voters"
}
