package repositories

import (
	"gorm.io/gorm"

	"github.com/votebridge/VoteBridge/internal/ledger"
)

func InitializeGlobalRepositories(db *gorm.DB) error {
	err := InitializeGlobalElectionRepository(db)
	if err != nil {
		return err
	}

	err = InitializeGlobalCandidateRepository(db)
	if err != nil {
		return err
	}

	err = InitializeGlobalVoterRepository(db)
	if err != nil {
		return err
	}

	return InitializeGlobalBallotRepository(db)
}

func nativeIdColumn(kind ledger.Kind) string {
	switch kind {
	case ledger.Mutable:
		return "mutable_id"
	case ledger.Chaincode:
		return "chaincode_id"
	default:
		return "immutable_id"
	}
}

func bindingColumn(kind ledger.Kind) string {
	switch kind {
	case ledger.Mutable:
		return "mutable_binding"
	case ledger.Chaincode:
		return "chaincode_binding"
	default:
		return "immutable_binding"
	}
}
