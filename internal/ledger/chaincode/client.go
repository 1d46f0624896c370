package chaincode

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/votebridge/VoteBridge/internal/binding"
	"github.com/votebridge/VoteBridge/internal/config"
	"github.com/votebridge/VoteBridge/internal/ledger"
	"github.com/votebridge/VoteBridge/internal/models"
)

// Client runs the voting chaincode through an Invoker. The chaincode
// keys elections by the caller supplied identifier, so the local
// election key doubles as the native identifier. Candidates get
// 1 based positions.
type Client struct {
	invoker  Invoker
	config   config.ChaincodeConfig
	bindings *binding.Cache
}

func NewClient(cfg config.ChaincodeConfig, invoker Invoker, bindings *binding.Cache) *Client {
	return &Client{
		invoker:  invoker,
		config:   cfg,
		bindings: bindings,
	}
}

func (client *Client) Kind() ledger.Kind {
	return ledger.Chaincode
}

// EnsureBinding resolves the committed chaincode on the channel. The
// chaincode is installed by the network operator, there is nothing to
// deploy here.
func (client *Client) EnsureBinding(ctx context.Context) (*ledger.BindingRef, error) {
	return client.bindings.GetOrCreate(ctx, ledger.Chaincode, func(ctx context.Context) (*ledger.BindingRef, error) {
		return &ledger.BindingRef{
			Kind:       ledger.Chaincode,
			Address:    client.config.ChannelName + "/" + client.config.ChaincodeName,
			DeployedAt: time.Now(),
		}, nil
	})
}

func (client *Client) CreateElection(ctx context.Context, localID uint, title string, description string) (uint64, error) {
	const op = "CreateElection"

	if _, err := client.EnsureBinding(ctx); err != nil {
		return 0, err
	}

	nativeID := uint64(localID)
	electionKey := strconv.FormatUint(nativeID, 10)

	// The chaincode silently overwrites an existing election, wiping
	// its vote totals. Probe first and report the existing identifier.
	existing, err := client.queryResults(ctx, electionKey)
	if err == nil && existing != nil {
		return 0, ledger.NewAlreadyExists(op, nativeID)
	}

	invokeCtx, cancel := context.WithTimeout(ctx, client.config.InvokeTimeout)
	defer cancel()

	if description == "" {
		description = "Election"
	}

	_, err = client.invoker.Invoke(invokeCtx, op, []string{
		electionKey, title, description, "0", "999999999", "system",
	})

	if err != nil {
		return 0, client.wrapError(op, err)
	}

	return nativeID, nil
}

func (client *Client) AddCandidate(ctx context.Context, nativeElectionID uint64, position uint, identity string, name string) (uint64, error) {
	const op = "AddCandidate"

	if _, err := client.EnsureBinding(ctx); err != nil {
		return 0, err
	}

	electionKey := strconv.FormatUint(nativeElectionID, 10)

	results, err := client.queryResults(ctx, electionKey)
	if err != nil {
		return 0, err
	}

	// Candidate identifiers are provisioning positions. A position the
	// chaincode already holds means this candidate was added before;
	// names are display text and may repeat within an election.
	nativeID := uint64(position)
	if results != nil && nativeID <= uint64(len(results.Candidates)) {
		return 0, ledger.NewAlreadyExists(op, nativeID)
	}

	invokeCtx, cancel := context.WithTimeout(ctx, client.config.InvokeTimeout)
	defer cancel()

	_, err = client.invoker.Invoke(invokeCtx, op, []string{
		electionKey, strconv.FormatUint(nativeID, 10), name, "system",
	})

	if err != nil {
		return 0, client.wrapError(op, err)
	}

	return nativeID, nil
}

func (client *Client) CastVote(ctx context.Context, nativeElectionID uint64, nativeCandidateID uint64, voter string) (string, error) {
	const op = "CastVote"

	if _, err := client.EnsureBinding(ctx); err != nil {
		return "", err
	}

	invokeCtx, cancel := context.WithTimeout(ctx, client.config.InvokeTimeout)
	defer cancel()

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	_, err := client.invoker.Invoke(invokeCtx, op, []string{
		strconv.FormatUint(nativeElectionID, 10),
		strconv.FormatUint(nativeCandidateID, 10),
		voter,
		timestamp,
	})

	if err != nil {
		return "", client.wrapError(op, err)
	}

	// The peer CLI does not surface a transaction hash, mint a
	// reference that marks the ballot as chaincode backed.
	return models.ChaincodeTxPrefix + uuid.NewString(), nil
}

func (client *Client) UpdateVote(ctx context.Context, nativeElectionID uint64, nativeCandidateID uint64, voter string) (string, uint64, error) {
	return "", 0, ledger.ErrUpdateUnsupported
}

func (client *Client) HasVoted(ctx context.Context, nativeElectionID uint64, voter string) (bool, error) {
	const op = "HasVoted"

	if _, err := client.EnsureBinding(ctx); err != nil {
		return false, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, client.config.QueryTimeout)
	defer cancel()

	output, err := client.invoker.Query(queryCtx, op, []string{
		strconv.FormatUint(nativeElectionID, 10),
		voter,
	})

	if err != nil {
		return false, client.wrapError(op, err)
	}

	return strings.EqualFold(strings.TrimSpace(output), "true"), nil
}

func (client *Client) GetResults(ctx context.Context, nativeElectionID uint64) (*ledger.Results, error) {
	const op = "GetResults"

	if _, err := client.EnsureBinding(ctx); err != nil {
		return nil, err
	}

	results, err := client.queryResults(ctx, strconv.FormatUint(nativeElectionID, 10))
	if err != nil {
		return nil, err
	}

	if results == nil {
		return nil, ledger.NewError(ledger.NotFound, op,
			fmt.Errorf("election %d not found on chaincode", nativeElectionID))
	}

	return results, nil
}

type resultsPayload struct {
	Candidates []struct {
		Id    string `json:"id"`
		Name  string `json:"name"`
		Votes uint64 `json:"votes"`
	} `json:"candidates"`
	TotalVotes uint64 `json:"totalVotes"`
	ElectionId string `json:"electionId"`
	Message    string `json:"message"`
}

// queryResults fetches and decodes GetResults output. A nil result
// with nil error means the election does not exist on the chaincode.
func (client *Client) queryResults(ctx context.Context, electionKey string) (*ledger.Results, error) {
	const op = "GetResults"

	queryCtx, cancel := context.WithTimeout(ctx, client.config.QueryTimeout)
	defer cancel()

	output, err := client.invoker.Query(queryCtx, op, []string{electionKey})
	if err != nil {
		return nil, client.wrapError(op, err)
	}

	var payload resultsPayload
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		return nil, ledger.NewError(ledger.Rejected, op,
			errors.Wrap(err, "malformed GetResults output"))
	}

	if strings.Contains(payload.Message, "not found") {
		return nil, nil
	}

	results := &ledger.Results{
		TotalVotes: payload.TotalVotes,
		Candidates: make([]ledger.CandidateResult, 0, len(payload.Candidates)),
	}

	for _, candidate := range payload.Candidates {
		nativeID, err := strconv.ParseUint(candidate.Id, 10, 64)
		if err != nil {
			continue
		}

		results.Candidates = append(results.Candidates, ledger.CandidateResult{
			NativeID:  nativeID,
			Name:      candidate.Name,
			VoteCount: candidate.Votes,
		})
	}

	return results, nil
}

func (client *Client) wrapError(op string, err error) error {
	message := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(message, "timed out"):
		return ledger.NewError(ledger.Timeout, op, err)
	case strings.Contains(message, "already voted"):
		return ledger.NewError(ledger.AlreadyVoted, op, err)
	case strings.Contains(message, "does not exist"):
		return ledger.NewError(ledger.NotFound, op, err)
	case strings.Contains(message, "already exists"):
		return ledger.NewError(ledger.AlreadyExists, op, err)
	case strings.Contains(message, "executable file not found") || strings.Contains(message, "connection refused"):
		return ledger.NewError(ledger.Unavailable, op, err)
	default:
		return ledger.NewError(ledger.Rejected, op, err)
	}
}
