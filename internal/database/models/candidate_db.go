package db_models

type CandidateDB struct {
	Id         uint   `gorm:"primaryKey;column:id;autoIncrement"`
	ElectionId uint   `gorm:"column:election_id;not null;index"`
	Name       string `gorm:"column:name;not null"`
	Wallet     string `gorm:"column:wallet"`
	Manifesto  string `gorm:"column:manifesto"`

	ProvisionOrder uint    `gorm:"column:provision_order;not null;default:0"`
	ImmutableId    *uint64 `gorm:"column:immutable_id"`
	MutableId      *uint64 `gorm:"column:mutable_id"`
	ChaincodeId    *uint64 `gorm:"column:chaincode_id"`

	Ballots []BallotDB `gorm:"foreignKey:CandidateId;references:Id;constraint:OnDelete:RESTRICT,OnUpdate:RESTRICT"`
}

func (CandidateDB) TableName() string {
	return "candidates"
}
