package models

import (
	"github.com/votebridge/VoteBridge/internal/ledger"
)

type Candidate struct {
	Id         uint   //local surrogate key, assigned by the relational store
	ElectionId uint   //local key of the election the candidate runs in
	Name       string //candidate display name
	Wallet     string //node account address assigned to the candidate
	Manifesto  string //free form campaign text

	ProvisionOrder uint //1 based position in which the candidate was added to the ledger, 0 when never provisioned

	Ledgers map[ledger.Kind]uint64 //native candidate identifier per ledger kind
}

func (candidate *Candidate) NativeId(kind ledger.Kind) (uint64, bool) {
	nativeId, ok := candidate.Ledgers[kind]
	return nativeId, ok
}

func (candidate *Candidate) SetNativeId(kind ledger.Kind, nativeId uint64) {
	if candidate.Ledgers == nil {
		candidate.Ledgers = make(map[ledger.Kind]uint64)
	}

	candidate.Ledgers[kind] = nativeId
}

func (candidate *Candidate) ClearNativeId(kind ledger.Kind) {
	delete(candidate.Ledgers, kind)
}
