package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/votebridge/VoteBridge/internal/binding"
	"github.com/votebridge/VoteBridge/internal/config"
	"github.com/votebridge/VoteBridge/internal/ledger"
	"github.com/votebridge/VoteBridge/internal/log"
)

// Client talks to a voting contract on an Ethereum node. The immutable
// and mutable ledgers run the same client against different contracts,
// the mutable one additionally exposing updateVote.
type Client struct {
	kind           ledger.Kind
	caller         ContractCaller
	config         config.EthereumConfig
	bindings       *binding.Cache
	contractABI    abi.ABI
	supportsUpdate bool
}

func NewImmutableClient(cfg config.EthereumConfig, caller ContractCaller, bindings *binding.Cache) (*Client, error) {
	return newClient(ledger.Immutable, cfg, caller, bindings, votingABI, false)
}

func NewMutableClient(cfg config.EthereumConfig, caller ContractCaller, bindings *binding.Cache) (*Client, error) {
	return newClient(ledger.Mutable, cfg, caller, bindings, votingUpdateABI, true)
}

func newClient(kind ledger.Kind, cfg config.EthereumConfig, caller ContractCaller, bindings *binding.Cache, abiJSON string, supportsUpdate bool) (*Client, error) {
	contractABI, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse contract ABI")
	}

	return &Client{
		kind:           kind,
		caller:         caller,
		config:         cfg,
		bindings:       bindings,
		contractABI:    contractABI,
		supportsUpdate: supportsUpdate,
	}, nil
}

func (client *Client) Kind() ledger.Kind {
	return client.kind
}

func (client *Client) EnsureBinding(ctx context.Context) (*ledger.BindingRef, error) {
	return client.bindings.GetOrCreate(ctx, client.kind, client.deploy)
}

func (client *Client) deploy(ctx context.Context) (*ledger.BindingRef, error) {
	const op = "deploy"

	bytecodeHex, err := os.ReadFile(client.config.BytecodeFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read contract bytecode")
	}

	bytecode := common.FromHex(strings.TrimSpace(string(bytecodeHex)))

	ctx, cancel := context.WithTimeout(ctx, client.config.SubmitTimeout)
	defer cancel()

	deployer, err := client.deployerAccount(ctx, op)
	if err != nil {
		return nil, err
	}

	receipt, err := client.caller.Transact(ctx, deployer, nil, bytecode, client.config.DeployGas)
	if err != nil {
		return nil, client.wrapError(op, err)
	}

	if receipt.Status != 1 {
		return nil, ledger.NewError(ledger.Rejected, op, fmt.Errorf("deployment reverted, tx %s", receipt.TxHash))
	}

	log.Info("voting contract deployed",
		zap.String("kind", string(client.kind)),
		zap.String("address", receipt.ContractAddress),
		zap.Uint64("gasUsed", receipt.GasUsed))

	return &ledger.BindingRef{
		Kind:       client.kind,
		Address:    receipt.ContractAddress,
		DeployedAt: time.Now(),
	}, nil
}

func (client *Client) CreateElection(ctx context.Context, localID uint, title string, description string) (uint64, error) {
	const op = "createElection"

	ref, err := client.EnsureBinding(ctx)
	if err != nil {
		return 0, err
	}

	data, err := client.contractABI.Pack("createElection", title, description, big.NewInt(0), big.NewInt(0))
	if err != nil {
		return 0, errors.Wrap(err, "failed to pack createElection")
	}

	submitCtx, cancel := context.WithTimeout(ctx, client.config.SubmitTimeout)
	defer cancel()

	deployer, err := client.deployerAccount(submitCtx, op)
	if err != nil {
		return 0, err
	}

	contract := common.HexToAddress(ref.Address)
	receipt, err := client.caller.Transact(submitCtx, deployer, &contract, data, client.config.ElectionGas)

	if err != nil {
		return 0, client.wrapError(op, err)
	}

	if receipt.Status != 1 {
		return 0, ledger.NewError(ledger.Rejected, op, fmt.Errorf("createElection reverted, tx %s", receipt.TxHash))
	}

	// The contract assigns sequential identifiers, the freshly created
	// election is always the current one.
	nativeID, err := client.callUint(ctx, ref, op, "getCurrentElectionId")
	if err != nil {
		return 0, err
	}

	log.Info("election created on ledger",
		zap.String("kind", string(client.kind)),
		zap.Uint("electionId", localID),
		zap.Uint64("nativeId", nativeID))

	return nativeID, nil
}

// AddCandidate registers the candidate on the contract. The contract
// assigns identifiers by insertion order itself, so position is unused.
func (client *Client) AddCandidate(ctx context.Context, nativeElectionID uint64, position uint, identity string, name string) (uint64, error) {
	const op = "addCandidate"

	ref, err := client.EnsureBinding(ctx)
	if err != nil {
		return 0, err
	}

	data, err := client.contractABI.Pack("addCandidate",
		new(big.Int).SetUint64(nativeElectionID),
		common.HexToAddress(identity),
		name)
	if err != nil {
		return 0, errors.Wrap(err, "failed to pack addCandidate")
	}

	submitCtx, cancel := context.WithTimeout(ctx, client.config.SubmitTimeout)
	defer cancel()

	deployer, err := client.deployerAccount(submitCtx, op)
	if err != nil {
		return 0, err
	}

	contract := common.HexToAddress(ref.Address)
	receipt, err := client.caller.Transact(submitCtx, deployer, &contract, data, client.config.CandidateGas)

	if err != nil {
		return 0, client.wrapError(op, err)
	}

	if receipt.Status != 1 {
		return 0, ledger.NewError(ledger.Rejected, op, fmt.Errorf("addCandidate reverted, tx %s", receipt.TxHash))
	}

	// Candidates get sequential identifiers per election, the count
	// after insertion is the new candidate's identifier.
	return client.callUint(ctx, ref, op, "getCandidateCount", new(big.Int).SetUint64(nativeElectionID))
}

func (client *Client) CastVote(ctx context.Context, nativeElectionID uint64, nativeCandidateID uint64, voter string) (string, error) {
	const op = "vote"

	ref, err := client.EnsureBinding(ctx)
	if err != nil {
		return "", err
	}

	voterAddress := common.HexToAddress(voter)

	submitCtx, cancel := context.WithTimeout(ctx, client.config.SubmitTimeout)
	defer cancel()

	if err := client.fundVoter(submitCtx, voterAddress); err != nil {
		return "", client.wrapError(op, err)
	}

	data, err := client.contractABI.Pack("vote",
		new(big.Int).SetUint64(nativeElectionID),
		new(big.Int).SetUint64(nativeCandidateID),
		"")
	if err != nil {
		return "", errors.Wrap(err, "failed to pack vote")
	}

	contract := common.HexToAddress(ref.Address)
	receipt, err := client.caller.Transact(submitCtx, voterAddress, &contract, data, client.config.VoteGas)

	if err != nil {
		return "", client.wrapError(op, err)
	}

	if receipt.Status != 1 {
		return "", ledger.NewError(ledger.Rejected, op, fmt.Errorf("vote reverted, tx %s", receipt.TxHash))
	}

	return receipt.TxHash, nil
}

func (client *Client) UpdateVote(ctx context.Context, nativeElectionID uint64, nativeCandidateID uint64, voter string) (string, uint64, error) {
	const op = "updateVote"

	if !client.supportsUpdate {
		return "", 0, ledger.ErrUpdateUnsupported
	}

	ref, err := client.EnsureBinding(ctx)
	if err != nil {
		return "", 0, err
	}

	voterAddress := common.HexToAddress(voter)

	previousID, err := client.callUint(ctx, ref, op, "getUserVote",
		new(big.Int).SetUint64(nativeElectionID), voterAddress)
	if err != nil {
		return "", 0, err
	}

	data, err := client.contractABI.Pack("updateVote",
		new(big.Int).SetUint64(nativeElectionID),
		new(big.Int).SetUint64(nativeCandidateID))
	if err != nil {
		return "", 0, errors.Wrap(err, "failed to pack updateVote")
	}

	submitCtx, cancel := context.WithTimeout(ctx, client.config.SubmitTimeout)
	defer cancel()

	contract := common.HexToAddress(ref.Address)
	receipt, err := client.caller.Transact(submitCtx, voterAddress, &contract, data, client.config.VoteGas)

	if err != nil {
		return "", 0, client.wrapError(op, err)
	}

	if receipt.Status != 1 {
		return "", 0, ledger.NewError(ledger.Rejected, op, fmt.Errorf("updateVote reverted, tx %s", receipt.TxHash))
	}

	return receipt.TxHash, previousID, nil
}

func (client *Client) HasVoted(ctx context.Context, nativeElectionID uint64, voter string) (bool, error) {
	const op = "hasUserVoted"

	ref, err := client.EnsureBinding(ctx)
	if err != nil {
		return false, err
	}

	output, err := client.call(ctx, ref, op, "hasUserVoted",
		new(big.Int).SetUint64(nativeElectionID),
		common.HexToAddress(voter))
	if err != nil {
		return false, err
	}

	var voted bool
	err = client.contractABI.UnpackIntoInterface(&voted, "hasUserVoted", output)

	if err != nil {
		return false, errors.Wrap(err, "failed to unpack hasUserVoted")
	}

	return voted, nil
}

func (client *Client) GetResults(ctx context.Context, nativeElectionID uint64) (*ledger.Results, error) {
	const op = "getElectionResults"

	ref, err := client.EnsureBinding(ctx)
	if err != nil {
		return nil, err
	}

	output, err := client.call(ctx, ref, op, "getElectionResults", new(big.Int).SetUint64(nativeElectionID))
	if err != nil {
		return nil, err
	}

	unpacked, err := client.contractABI.Unpack("getElectionResults", output)
	if err != nil {
		return nil, errors.Wrap(err, "failed to unpack getElectionResults")
	}

	if len(unpacked) != 4 {
		return nil, ledger.NewError(ledger.Rejected, op, fmt.Errorf("unexpected output arity %d", len(unpacked)))
	}

	candidateIDs, ok1 := unpacked[0].([]*big.Int)
	names, ok2 := unpacked[1].([]string)
	voteCounts, ok3 := unpacked[2].([]*big.Int)
	totalVotes, ok4 := unpacked[3].(*big.Int)

	if !ok1 || !ok2 || !ok3 || !ok4 || len(candidateIDs) != len(names) || len(candidateIDs) != len(voteCounts) {
		return nil, ledger.NewError(ledger.Rejected, op, errors.New("malformed getElectionResults output"))
	}

	results := &ledger.Results{
		TotalVotes: totalVotes.Uint64(),
		Candidates: make([]ledger.CandidateResult, len(candidateIDs)),
	}

	for i := range candidateIDs {
		results.Candidates[i] = ledger.CandidateResult{
			NativeID:  candidateIDs[i].Uint64(),
			Name:      names[i],
			VoteCount: voteCounts[i].Uint64(),
		}
	}

	return results, nil
}

// fundVoter tops up a voter account so the vote transaction can pay
// for gas. The node's first account acts as the faucet.
func (client *Client) fundVoter(ctx context.Context, voter common.Address) error {
	balance, err := client.caller.BalanceAt(ctx, voter)
	if err != nil {
		return err
	}

	if balance.Sign() > 0 {
		return nil
	}

	accounts, err := client.caller.Accounts(ctx)
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		return errors.New("no funded accounts on node")
	}

	oneEther := new(big.Int).Mul(big.NewInt(1), big.NewInt(1e18))
	return client.caller.SendValue(ctx, accounts[0], voter, oneEther)
}

func (client *Client) deployerAccount(ctx context.Context, op string) (common.Address, error) {
	accounts, err := client.caller.Accounts(ctx)
	if err != nil {
		return common.Address{}, client.wrapError(op, err)
	}

	if len(accounts) == 0 {
		return common.Address{}, ledger.NewError(ledger.Unavailable, op, errors.New("no accounts on node"))
	}

	return accounts[0], nil
}

func (client *Client) call(ctx context.Context, ref *ledger.BindingRef, op string, method string, args ...any) ([]byte, error) {
	data, err := client.contractABI.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack %s", method)
	}

	callCtx, cancel := context.WithTimeout(ctx, client.config.CallTimeout)
	defer cancel()

	output, err := client.caller.Call(callCtx, common.HexToAddress(ref.Address), data)
	if err != nil {
		return nil, client.wrapReadError(op, err)
	}

	return output, nil
}

func (client *Client) callUint(ctx context.Context, ref *ledger.BindingRef, op string, method string, args ...any) (uint64, error) {
	output, err := client.call(ctx, ref, op, method, args...)
	if err != nil {
		return 0, err
	}

	var value *big.Int
	err = client.contractABI.UnpackIntoInterface(&value, method, output)

	if err != nil {
		return 0, errors.Wrapf(err, "failed to unpack %s", method)
	}

	return value.Uint64(), nil
}

func (client *Client) wrapError(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ledger.NewError(ledger.Timeout, op, err)
	case strings.Contains(err.Error(), "already voted"):
		return ledger.NewError(ledger.AlreadyVoted, op, err)
	case strings.Contains(err.Error(), "revert"):
		return ledger.NewError(ledger.Rejected, op, err)
	default:
		return ledger.NewError(ledger.Unavailable, op, err)
	}
}

// wrapReadError classifies view call failures. The view functions only
// take identifiers, so a revert means the queried entity does not exist
// on this contract rather than a refused state change.
func (client *Client) wrapReadError(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ledger.NewError(ledger.Timeout, op, err)
	case strings.Contains(err.Error(), "revert"):
		return ledger.NewError(ledger.NotFound, op, err)
	default:
		return ledger.NewError(ledger.Unavailable, op, err)
	}
}
