package models

import (
	"strings"
	"time"
)

type BallotStatus string

const (
	BallotPending  BallotStatus = "pending"
	BallotApproved BallotStatus = "approved"
	BallotRejected BallotStatus = "rejected"
)

// ChaincodeTxPrefix marks transaction references produced by the
// chaincode ledger, which has no transaction hashes of its own.
const ChaincodeTxPrefix = "hlf-"

type Ballot struct {
	Id          uint   //local surrogate key, assigned by the relational store
	ElectionId  uint   //local key of the election voted in
	CandidateId uint   //local key of the candidate voted for
	VoterId     uint   //local key of the voter who cast the ballot
	TxRef       string //ledger transaction reference, hlf- prefixed for chaincode ballots
	Status      BallotStatus
	CastAt      time.Time
	ReviewedBy  *uint //local key of the reviewing admin, nil while unreviewed
	ReviewedAt  *time.Time
}

func (ballot *Ballot) OnChaincode() bool {
	return strings.HasPrefix(ballot.TxRef, ChaincodeTxPrefix)
}
