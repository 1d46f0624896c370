package db_models

import (
	"time"
)

type ElectionDB struct {
	Id          uint      `gorm:"primaryKey;column:id;autoIncrement"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description"`
	Active      bool      `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at"`

	ImmutableId      *uint64 `gorm:"column:immutable_id"`
	ImmutableBinding *string `gorm:"column:immutable_binding"`
	MutableId        *uint64 `gorm:"column:mutable_id"`
	MutableBinding   *string `gorm:"column:mutable_binding"`
	ChaincodeId      *uint64 `gorm:"column:chaincode_id"`
	ChaincodeBinding *string `gorm:"column:chaincode_binding"`

	Candidates []CandidateDB `gorm:"foreignKey:ElectionId;references:Id;constraint:OnDelete:RESTRICT,OnUpdate:RESTRICT"`
	Ballots    []BallotDB    `gorm:"foreignKey:ElectionId;references:Id;constraint:OnDelete:RESTRICT,OnUpdate:RESTRICT"`
}

func (ElectionDB) TableName() string {
	return "elections"
}
