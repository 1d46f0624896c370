package models

import (
	"time"
)

type Voter struct {
	Id          uint   //local surrogate key, assigned by the relational store
	Username    string //unique login name
	IsElector   bool   //may cast ballots
	IsCandidate bool   //stands in an election
	IsAdmin     bool   //may review ballots and manage elections
	Verified    bool   //identity verified
	Approved    bool   //account approved by an admin
	Wallet      string //node account address assigned to the voter, empty until assigned
	ElectionId  *uint  //election the voter is registered for, nil when unregistered
	CreatedAt   time.Time
}
