package models

import (
	"time"

	"github.com/votebridge/VoteBridge/internal/ledger"
)

type Election struct {
	Id          uint   //local surrogate key, assigned by the relational store
	Title       string //election title shown to voters
	Description string //free form description
	Active      bool   //whether the election currently accepts ballots
	CreatedAt   time.Time

	Ledgers map[ledger.Kind]LedgerRecord //per ledger provisioning state, keyed by ledger kind
}

type LedgerRecord struct {
	NativeId uint64 //sequential identifier assigned by the ledger
	Binding  string //binding address the native identifier was minted under
}

// NativeId returns the ledger native identifier for kind, valid only
// while the election remains bound to binding.
func (election *Election) NativeId(kind ledger.Kind, binding string) (uint64, bool) {
	record, ok := election.Ledgers[kind]

	if !ok || record.Binding != binding {
		return 0, false
	}

	return record.NativeId, true
}

func (election *Election) SetLedgerRecord(kind ledger.Kind, nativeId uint64, binding string) {
	if election.Ledgers == nil {
		election.Ledgers = make(map[ledger.Kind]LedgerRecord)
	}

	election.Ledgers[kind] = LedgerRecord{NativeId: nativeId, Binding: binding}
}

func (election *Election) ClearLedgerRecord(kind ledger.Kind) {
	delete(election.Ledgers, kind)
}
