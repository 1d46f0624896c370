package mapping

import (
	db_models "github.com/votebridge/VoteBridge/internal/database/models"
	"github.com/votebridge/VoteBridge/internal/ledger"
	models "github.com/votebridge/VoteBridge/internal/models"
)

func ElectionToElectionDB(election *models.Election) *db_models.ElectionDB {
	electionDB := &db_models.ElectionDB{
		Id:          election.Id,
		Title:       election.Title,
		Description: election.Description,
		Active:      election.Active,
		CreatedAt:   election.CreatedAt,
	}

	if record, ok := election.Ledgers[ledger.Immutable]; ok {
		electionDB.ImmutableId = &record.NativeId
		electionDB.ImmutableBinding = &record.Binding
	}

	if record, ok := election.Ledgers[ledger.Mutable]; ok {
		electionDB.MutableId = &record.NativeId
		electionDB.MutableBinding = &record.Binding
	}

	if record, ok := election.Ledgers[ledger.Chaincode]; ok {
		electionDB.ChaincodeId = &record.NativeId
		electionDB.ChaincodeBinding = &record.Binding
	}

	return electionDB
}

func ElectionDBToElection(electionDB *db_models.ElectionDB) *models.Election {
	election := &models.Election{
		Id:          electionDB.Id,
		Title:       electionDB.Title,
		Description: electionDB.Description,
		Active:      electionDB.Active,
		CreatedAt:   electionDB.CreatedAt,
		Ledgers:     make(map[ledger.Kind]models.LedgerRecord),
	}

	if electionDB.ImmutableId != nil && electionDB.ImmutableBinding != nil {
		election.Ledgers[ledger.Immutable] = models.LedgerRecord{
			NativeId: *electionDB.ImmutableId,
			Binding:  *electionDB.ImmutableBinding,
		}
	}

	if electionDB.MutableId != nil && electionDB.MutableBinding != nil {
		election.Ledgers[ledger.Mutable] = models.LedgerRecord{
			NativeId: *electionDB.MutableId,
			Binding:  *electionDB.MutableBinding,
		}
	}

	if electionDB.ChaincodeId != nil && electionDB.ChaincodeBinding != nil {
		election.Ledgers[ledger.Chaincode] = models.LedgerRecord{
			NativeId: *electionDB.ChaincodeId,
			Binding:  *electionDB.ChaincodeBinding,
		}
	}

	return election
}

func CandidateToCandidateDB(candidate *models.Candidate) *db_models.CandidateDB {
	candidateDB := &db_models.CandidateDB{
		Id:             candidate.Id,
		ElectionId:     candidate.ElectionId,
		Name:           candidate.Name,
		Wallet:         candidate.Wallet,
		Manifesto:      candidate.Manifesto,
		ProvisionOrder: candidate.ProvisionOrder,
	}

	if nativeId, ok := candidate.Ledgers[ledger.Immutable]; ok {
		candidateDB.ImmutableId = &nativeId
	}

	if nativeId, ok := candidate.Ledgers[ledger.Mutable]; ok {
		candidateDB.MutableId = &nativeId
	}

	if nativeId, ok := candidate.Ledgers[ledger.Chaincode]; ok {
		candidateDB.ChaincodeId = &nativeId
	}

	return candidateDB
}

func CandidateDBToCandidate(candidateDB *db_models.CandidateDB) *models.Candidate {
	candidate := &models.Candidate{
		Id:             candidateDB.Id,
		ElectionId:     candidateDB.ElectionId,
		Name:           candidateDB.Name,
		Wallet:         candidateDB.Wallet,
		Manifesto:      candidateDB.Manifesto,
		ProvisionOrder: candidateDB.ProvisionOrder,
		Ledgers:        make(map[ledger.Kind]uint64),
	}

	if candidateDB.ImmutableId != nil {
		candidate.Ledgers[ledger.Immutable] = *candidateDB.ImmutableId
	}

	if candidateDB.MutableId != nil {
		candidate.Ledgers[ledger.Mutable] = *candidateDB.MutableId
	}

	if candidateDB.ChaincodeId != nil {
		candidate.Ledgers[ledger.Chaincode] = *candidateDB.ChaincodeId
	}

	return candidate
}

func BallotToBallotDB(ballot *models.Ballot) *db_models.BallotDB {
	return &db_models.BallotDB{
		Id:          ballot.Id,
		ElectionId:  ballot.ElectionId,
		VoterId:     ballot.VoterId,
		CandidateId: ballot.CandidateId,
		TxRef:       ballot.TxRef,
		Status:      string(ballot.Status),
		CastAt:      ballot.CastAt,
		ReviewedBy:  ballot.ReviewedBy,
		ReviewedAt:  ballot.ReviewedAt,
	}
}

func BallotDBToBallot(ballotDB *db_models.BallotDB) *models.Ballot {
	return &models.Ballot{
		Id:          ballotDB.Id,
		ElectionId:  ballotDB.ElectionId,
		VoterId:     ballotDB.VoterId,
		CandidateId: ballotDB.CandidateId,
		TxRef:       ballotDB.TxRef,
		Status:      models.BallotStatus(ballotDB.Status),
		CastAt:      ballotDB.CastAt,
		ReviewedBy:  ballotDB.ReviewedBy,
		ReviewedAt:  ballotDB.ReviewedAt,
	}
}

func VoterToVoterDB(voter *models.Voter) *db_models.VoterDB {
	return &db_models.VoterDB{
		Id:          voter.Id,
		Username:    voter.Username,
		IsElector:   voter.IsElector,
		IsCandidate: voter.IsCandidate,
		IsAdmin:     voter.IsAdmin,
		Verified:    voter.Verified,
		Approved:    voter.Approved,
		Wallet:      voter.Wallet,
		ElectionId:  voter.ElectionId,
		CreatedAt:   voter.CreatedAt,
	}
}

func VoterDBToVoter(voterDB *db_models.VoterDB) *models.Voter {
	return &models.Voter{
		Id:          voterDB.Id,
		Username:    voterDB.Username,
		IsElector:   voterDB.IsElector,
		IsCandidate: voterDB.IsCandidate,
		IsAdmin:     voterDB.IsAdmin,
		Verified:    voterDB.Verified,
		Approved:    voterDB.Approved,
		Wallet:      voterDB.Wallet,
		ElectionId:  voterDB.ElectionId,
		CreatedAt:   voterDB.CreatedAt,
	}
}
