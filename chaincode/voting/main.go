package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// VotingContract keeps election state as pipe separated strings so a
// single malformed record never wedges the whole ledger.
//
// State keys:
//
//	election_<id>           electionId|title|description|creator|exists|totalVotes
//	candidate_<eid>_<cid>   candidateId|name|voteCount|exists
//	vote_<eid>_<voter>      electionId|candidateId|voterId|timestamp
type VotingContract struct {
	contractapi.Contract
}

// maxCandidates bounds the candidate scan in GetResults.
const maxCandidates = 10

func (vc *VotingContract) CreateElection(ctx contractapi.TransactionContextInterface, electionId string, title string, description string, startTime string, endTime string, creatorId string) error {
	electionKey := "election_" + electionId
	electionData := electionId + "|" + title + "|" + description + "|" + creatorId + "|true|0"

	return ctx.GetStub().PutState(electionKey, []byte(electionData))
}

func (vc *VotingContract) AddCandidate(ctx contractapi.TransactionContextInterface, electionId string, candidateId string, name string, callerId string) error {
	electionBytes, err := ctx.GetStub().GetState("election_" + electionId)
	if err != nil {
		return err
	}
	if electionBytes == nil {
		return fmt.Errorf("election does not exist: %s", electionId)
	}

	candidateKey := "candidate_" + electionId + "_" + candidateId
	candidateData := candidateId + "|" + name + "|0|true"

	return ctx.GetStub().PutState(candidateKey, []byte(candidateData))
}

func (vc *VotingContract) CastVote(ctx contractapi.TransactionContextInterface, electionId string, candidateId string, voterId string, timestamp string) error {
	electionKey := "election_" + electionId
	electionBytes, err := ctx.GetStub().GetState(electionKey)
	if err != nil {
		return err
	}
	if electionBytes == nil {
		return fmt.Errorf("election does not exist: %s", electionId)
	}

	voteKey := "vote_" + electionId + "_" + voterId
	existingVote, err := ctx.GetStub().GetState(voteKey)
	if err != nil {
		return err
	}
	if existingVote != nil {
		return fmt.Errorf("already voted")
	}

	candidateKey := "candidate_" + electionId + "_" + candidateId
	candidateBytes, err := ctx.GetStub().GetState(candidateKey)
	if err != nil {
		return err
	}
	if candidateBytes == nil {
		return fmt.Errorf("candidate does not exist")
	}

	candidateParts := strings.Split(string(candidateBytes), "|")
	if len(candidateParts) != 4 {
		return fmt.Errorf("invalid candidate data")
	}

	voteCount, err := strconv.Atoi(candidateParts[2])
	if err != nil {
		return fmt.Errorf("invalid vote count")
	}
	voteCount++

	updatedCandidate := candidateParts[0] + "|" + candidateParts[1] + "|" + strconv.Itoa(voteCount) + "|" + candidateParts[3]
	if err := ctx.GetStub().PutState(candidateKey, []byte(updatedCandidate)); err != nil {
		return err
	}

	electionParts := strings.Split(string(electionBytes), "|")
	if len(electionParts) != 6 {
		return fmt.Errorf("invalid election data")
	}

	totalVotes, err := strconv.Atoi(electionParts[5])
	if err != nil {
		return fmt.Errorf("invalid total votes")
	}
	totalVotes++

	updatedElection := strings.Join(electionParts[:5], "|") + "|" + strconv.Itoa(totalVotes)
	if err := ctx.GetStub().PutState(electionKey, []byte(updatedElection)); err != nil {
		return err
	}

	voteData := electionId + "|" + candidateId + "|" + voterId + "|" + timestamp
	return ctx.GetStub().PutState(voteKey, []byte(voteData))
}

func (vc *VotingContract) HasVoted(ctx contractapi.TransactionContextInterface, electionId string, voterId string) (bool, error) {
	voteBytes, err := ctx.GetStub().GetState("vote_" + electionId + "_" + voterId)
	if err != nil {
		return false, err
	}

	return voteBytes != nil, nil
}

func (vc *VotingContract) GetResults(ctx contractapi.TransactionContextInterface, electionId string) (string, error) {
	electionBytes, err := ctx.GetStub().GetState("election_" + electionId)
	if err != nil {
		return "", err
	}
	if electionBytes == nil {
		return `{"candidates":[],"totalVotes":0,"electionId":"` + electionId + `","message":"Election not found"}`, nil
	}

	electionParts := strings.Split(string(electionBytes), "|")
	if len(electionParts) != 6 {
		return `{"candidates":[],"totalVotes":0,"electionId":"` + electionId + `","message":"Invalid election data"}`, nil
	}

	totalVotes := electionParts[5]

	candidatesList := make([]string, 0, maxCandidates)
	for i := 1; i <= maxCandidates; i++ {
		candidateBytes, err := ctx.GetStub().GetState("candidate_" + electionId + "_" + strconv.Itoa(i))
		if err != nil || candidateBytes == nil {
			continue
		}

		candidateParts := strings.Split(string(candidateBytes), "|")
		if len(candidateParts) != 4 {
			continue
		}

		candidatesList = append(candidatesList,
			`{"id":"`+candidateParts[0]+`","name":"`+candidateParts[1]+`","votes":`+candidateParts[2]+`}`)
	}

	candidatesJSON := `[` + strings.Join(candidatesList, ",") + `]`

	return `{"candidates":` + candidatesJSON + `,"totalVotes":` + totalVotes + `,"electionId":"` + electionId + `"}`, nil
}

func main() {
	votingContract := new(VotingContract)

	cc, err := contractapi.NewChaincode(votingContract)
	if err != nil {
		panic(err.Error())
	}

	if err := cc.Start(); err != nil {
		panic(err.Error())
	}
}
