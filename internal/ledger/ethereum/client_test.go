package ethereum

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	binding "github.com/votebridge/VoteBridge/internal/binding"
	config "github.com/votebridge/VoteBridge/internal/config"
	"github.com/votebridge/VoteBridge/internal/ledger"
)

type transactRecord struct {
	from common.Address
	to   *common.Address
	gas  uint64
}

// fakeCaller answers contract calls by method selector and hands out
// scripted receipts for transactions.
type fakeCaller struct {
	contractABI abi.ABI
	accounts    []common.Address
	balances    map[common.Address]*big.Int
	outputs     map[string][]byte
	receipts    []*Receipt

	callErr     error
	transactErr error

	transacts []transactRecord
	funded    []common.Address
}

func newFakeCaller(t *testing.T, abiJSON string) *fakeCaller {
	t.Helper()

	contractABI, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		t.Fatalf("failed to parse ABI: %v", err)
	}

	return &fakeCaller{
		contractABI: contractABI,
		accounts:    []common.Address{common.BigToAddress(big.NewInt(1))},
		balances:    make(map[common.Address]*big.Int),
		outputs:     make(map[string][]byte),
	}
}

func (caller *fakeCaller) setOutput(t *testing.T, method string, values ...any) {
	t.Helper()

	packed, err := caller.contractABI.Methods[method].Outputs.Pack(values...)
	if err != nil {
		t.Fatalf("failed to pack %s output: %v", method, err)
	}

	caller.outputs[method] = packed
}

func (caller *fakeCaller) Accounts(ctx context.Context) ([]common.Address, error) {
	return caller.accounts, nil
}

func (caller *fakeCaller) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if caller.callErr != nil {
		return nil, caller.callErr
	}

	method, err := caller.contractABI.MethodById(data[:4])
	if err != nil {
		return nil, err
	}

	output, ok := caller.outputs[method.Name]
	if !ok {
		return nil, errors.Errorf("no scripted output for %s", method.Name)
	}

	return output, nil
}

func (caller *fakeCaller) Transact(ctx context.Context, from common.Address, to *common.Address, data []byte, gas uint64) (*Receipt, error) {
	caller.transacts = append(caller.transacts, transactRecord{from: from, to: to, gas: gas})

	if caller.transactErr != nil {
		return nil, caller.transactErr
	}

	if len(caller.receipts) > 0 {
		receipt := caller.receipts[0]
		caller.receipts = caller.receipts[1:]
		return receipt, nil
	}

	return &Receipt{
		TxHash:          "0xtxhash",
		Status:          1,
		GasUsed:         21000,
		ContractAddress: "0xDeployedContract",
	}, nil
}

func (caller *fakeCaller) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, ok := caller.balances[account]
	if !ok {
		return big.NewInt(0), nil
	}

	return balance, nil
}

func (caller *fakeCaller) SendValue(ctx context.Context, from common.Address, to common.Address, amount *big.Int) error {
	caller.funded = append(caller.funded, to)
	caller.balances[to] = amount
	return nil
}

func testConfig(t *testing.T) config.EthereumConfig {
	t.Helper()

	bytecodeFile := filepath.Join(t.TempDir(), "Voting.bin")
	if err := os.WriteFile(bytecodeFile, []byte("6060604052"), 0644); err != nil {
		t.Fatalf("failed to write bytecode file: %v", err)
	}

	return config.EthereumConfig{
		Enabled:       true,
		Endpoint:      "http://localhost:8545",
		BytecodeFile:  bytecodeFile,
		DeployGas:     3000000,
		ElectionGas:   500000,
		CandidateGas:  300000,
		VoteGas:       200000,
		CallTimeout:   5 * time.Second,
		SubmitTimeout: 5 * time.Second,
	}
}

func newImmutableFixture(t *testing.T) (*Client, *fakeCaller) {
	t.Helper()

	caller := newFakeCaller(t, votingABI)
	client, err := NewImmutableClient(testConfig(t), caller, binding.NewCache(8, time.Hour))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	return client, caller
}

func newMutableFixture(t *testing.T) (*Client, *fakeCaller) {
	t.Helper()

	caller := newFakeCaller(t, votingUpdateABI)
	client, err := NewMutableClient(testConfig(t), caller, binding.NewCache(8, time.Hour))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	return client, caller
}

func TestEnsureBindingDeploysOnce(t *testing.T) {
	client, caller := newImmutableFixture(t)

	first, err := client.EnsureBinding(context.Background())
	if err != nil {
		t.Fatalf("failed to deploy: %v", err)
	}

	if first.Address != "0xDeployedContract" {
		t.Fatalf("unexpected contract address: %s", first.Address)
	}

	second, err := client.EnsureBinding(context.Background())
	if err != nil {
		t.Fatalf("failed to get cached binding: %v", err)
	}

	if second.Address != first.Address {
		t.Fatalf("binding changed between calls")
	}

	if len(caller.transacts) != 1 {
		t.Fatalf("expected one deployment transaction, got %d", len(caller.transacts))
	}

	if caller.transacts[0].to != nil {
		t.Fatalf("deployment must have no recipient")
	}
}

func TestEnsureBindingDeployReverted(t *testing.T) {
	client, caller := newImmutableFixture(t)
	caller.receipts = []*Receipt{{TxHash: "0xdead", Status: 0}}

	_, err := client.EnsureBinding(context.Background())
	if !ledger.IsRejected(err) {
		t.Fatalf("expected rejected for reverted deploy, got %v", err)
	}
}

func TestCreateElection(t *testing.T) {
	client, caller := newImmutableFixture(t)
	caller.setOutput(t, "getCurrentElectionId", big.NewInt(3))

	nativeId, err := client.CreateElection(context.Background(), 12, "City Council 2026", "")
	if err != nil {
		t.Fatalf("failed to create election: %v", err)
	}

	if nativeId != 3 {
		t.Fatalf("expected native id 3, got %d", nativeId)
	}

	// One deployment plus one createElection transaction.
	if len(caller.transacts) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(caller.transacts))
	}

	if caller.transacts[1].gas != 500000 {
		t.Fatalf("createElection used wrong gas limit: %d", caller.transacts[1].gas)
	}
}

func TestCreateElectionReverted(t *testing.T) {
	client, caller := newImmutableFixture(t)
	caller.receipts = []*Receipt{
		{TxHash: "0xdeploy", Status: 1, ContractAddress: "0xDeployedContract"},
		{TxHash: "0xcreate", Status: 0},
	}

	_, err := client.CreateElection(context.Background(), 12, "City Council 2026", "")
	if !ledger.IsRejected(err) {
		t.Fatalf("expected rejected, got %v", err)
	}
}

func TestAddCandidate(t *testing.T) {
	client, caller := newImmutableFixture(t)
	caller.setOutput(t, "getCandidateCount", big.NewInt(2))

	nativeId, err := client.AddCandidate(context.Background(), 1, 2, common.BigToAddress(big.NewInt(7)).Hex(), "Ada")
	if err != nil {
		t.Fatalf("failed to add candidate: %v", err)
	}

	if nativeId != 2 {
		t.Fatalf("expected native id 2, got %d", nativeId)
	}
}

func TestCastVoteFundsEmptyWallet(t *testing.T) {
	client, caller := newImmutableFixture(t)
	voter := common.BigToAddress(big.NewInt(9))

	txRef, err := client.CastVote(context.Background(), 1, 2, voter.Hex())
	if err != nil {
		t.Fatalf("failed to cast vote: %v", err)
	}

	if txRef != "0xtxhash" {
		t.Fatalf("unexpected tx ref: %s", txRef)
	}

	if len(caller.funded) != 1 || caller.funded[0] != voter {
		t.Fatalf("voter wallet was not funded")
	}

	// The vote transaction comes from the voter's own wallet.
	last := caller.transacts[len(caller.transacts)-1]
	if last.from != voter {
		t.Fatalf("vote sent from wrong account: %s", last.from.Hex())
	}
}

func TestCastVoteSkipsFundedWallet(t *testing.T) {
	client, caller := newImmutableFixture(t)
	voter := common.BigToAddress(big.NewInt(9))
	caller.balances[voter] = big.NewInt(1e18)

	_, err := client.CastVote(context.Background(), 1, 2, voter.Hex())
	if err != nil {
		t.Fatalf("failed to cast vote: %v", err)
	}

	if len(caller.funded) != 0 {
		t.Fatalf("funded wallet should not be topped up")
	}
}

func TestHasVoted(t *testing.T) {
	client, caller := newImmutableFixture(t)
	caller.setOutput(t, "hasUserVoted", true)

	voted, err := client.HasVoted(context.Background(), 1, common.BigToAddress(big.NewInt(9)).Hex())
	if err != nil {
		t.Fatalf("failed to check vote: %v", err)
	}

	if !voted {
		t.Fatalf("expected voted true")
	}
}

func TestGetResults(t *testing.T) {
	client, caller := newImmutableFixture(t)
	caller.setOutput(t, "getElectionResults",
		[]*big.Int{big.NewInt(1), big.NewInt(2)},
		[]string{"Ada", "Grace"},
		[]*big.Int{big.NewInt(5), big.NewInt(3)},
		big.NewInt(8))

	results, err := client.GetResults(context.Background(), 1)
	if err != nil {
		t.Fatalf("failed to get results: %v", err)
	}

	if results.TotalVotes != 8 {
		t.Fatalf("expected 8 total votes, got %d", results.TotalVotes)
	}

	if len(results.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(results.Candidates))
	}

	if results.Candidates[0].NativeID != 1 || results.Candidates[0].Name != "Ada" || results.Candidates[0].VoteCount != 5 {
		t.Fatalf("unexpected first candidate: %+v", results.Candidates[0])
	}
}

func TestUpdateVoteUnsupportedOnImmutable(t *testing.T) {
	client, _ := newImmutableFixture(t)

	_, _, err := client.UpdateVote(context.Background(), 1, 2, common.BigToAddress(big.NewInt(9)).Hex())
	if !errors.Is(err, ledger.ErrUpdateUnsupported) {
		t.Fatalf("expected update unsupported, got %v", err)
	}
}

func TestUpdateVote(t *testing.T) {
	client, caller := newMutableFixture(t)
	caller.setOutput(t, "getUserVote", big.NewInt(1))
	voter := common.BigToAddress(big.NewInt(9))

	txRef, previousId, err := client.UpdateVote(context.Background(), 1, 2, voter.Hex())
	if err != nil {
		t.Fatalf("failed to update vote: %v", err)
	}

	if txRef != "0xtxhash" {
		t.Fatalf("unexpected tx ref: %s", txRef)
	}

	if previousId != 1 {
		t.Fatalf("expected previous candidate 1, got %d", previousId)
	}

	last := caller.transacts[len(caller.transacts)-1]
	if last.from != voter {
		t.Fatalf("update sent from wrong account: %s", last.from.Hex())
	}
}

func TestRevertClassifiedAsRejected(t *testing.T) {
	client, caller := newImmutableFixture(t)
	caller.transactErr = errors.New("execution reverted: election closed")

	// Deploy fails with the revert before any vote can go out.
	_, err := client.CastVote(context.Background(), 1, 2, common.BigToAddress(big.NewInt(9)).Hex())
	if !ledger.IsRejected(err) {
		t.Fatalf("expected rejected, got %v", err)
	}
}

func TestAlreadyVotedRevertClassified(t *testing.T) {
	client, caller := newImmutableFixture(t)

	_, err := client.EnsureBinding(context.Background())
	if err != nil {
		t.Fatalf("failed to deploy: %v", err)
	}

	caller.transactErr = errors.New("execution reverted: already voted")

	_, err = client.CastVote(context.Background(), 1, 2, common.BigToAddress(big.NewInt(9)).Hex())
	if !ledger.IsAlreadyVoted(err) {
		t.Fatalf("expected already voted, got %v", err)
	}
}

func TestReadRevertClassifiedAsNotFound(t *testing.T) {
	client, caller := newImmutableFixture(t)

	_, err := client.EnsureBinding(context.Background())
	if err != nil {
		t.Fatalf("failed to deploy: %v", err)
	}

	// A view call reverting means the queried election is not on this
	// contract, distinct from a refused state change.
	caller.callErr = errors.New("execution reverted: election does not exist")

	_, err = client.GetResults(context.Background(), 42)
	if !ledger.IsNotFound(err) {
		t.Fatalf("expected not found for a read revert, got %v", err)
	}
}

func TestTimeoutClassified(t *testing.T) {
	client, caller := newImmutableFixture(t)
	caller.callErr = context.DeadlineExceeded

	_, err := client.EnsureBinding(context.Background())
	if err != nil {
		t.Fatalf("failed to deploy: %v", err)
	}

	_, err = client.HasVoted(context.Background(), 1, common.BigToAddress(big.NewInt(9)).Hex())
	if !ledger.IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}
