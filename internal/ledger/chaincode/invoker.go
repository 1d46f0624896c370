package chaincode

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/votebridge/VoteBridge/internal/config"
	"github.com/votebridge/VoteBridge/internal/log"
)

// Invoker executes chaincode functions against the Fabric network.
// Tests substitute a fake.
type Invoker interface {
	Invoke(ctx context.Context, function string, args []string) (string, error)
	Query(ctx context.Context, function string, args []string) (string, error)
}

// peerInvoker shells out to the peer CLI, the same way an operator
// would invoke the chaincode by hand.
type peerInvoker struct {
	config config.ChaincodeConfig
}

func NewPeerInvoker(cfg config.ChaincodeConfig) Invoker {
	return &peerInvoker{config: cfg}
}

type chaincodeCall struct {
	Function string   `json:"function"`
	Args     []string `json:"Args"`
}

func (invoker *peerInvoker) Invoke(ctx context.Context, function string, args []string) (string, error) {
	callJSON, err := marshalCall(function, args)
	if err != nil {
		return "", err
	}

	cmdArgs := []string{
		"chaincode", "invoke",
		"-o", invoker.config.OrdererAddress,
		"--tls",
		"--cafile", invoker.config.OrdererCACert,
		"-C", invoker.config.ChannelName,
		"-n", invoker.config.ChaincodeName,
	}

	for i, peerAddress := range invoker.config.PeerAddresses {
		cmdArgs = append(cmdArgs, "--peerAddresses", peerAddress)
		if i < len(invoker.config.PeerRootCerts) {
			cmdArgs = append(cmdArgs, "--tlsRootCertFiles", invoker.config.PeerRootCerts[i])
		}
	}

	cmdArgs = append(cmdArgs, "-c", callJSON)

	return invoker.run(ctx, function, cmdArgs)
}

func (invoker *peerInvoker) Query(ctx context.Context, function string, args []string) (string, error) {
	callJSON, err := marshalCall(function, args)
	if err != nil {
		return "", err
	}

	cmdArgs := []string{
		"chaincode", "query",
		"-C", invoker.config.ChannelName,
		"-n", invoker.config.ChaincodeName,
	}

	if len(invoker.config.PeerAddresses) > 0 {
		cmdArgs = append(cmdArgs, "--peerAddresses", invoker.config.PeerAddresses[0])
		if len(invoker.config.PeerRootCerts) > 0 {
			cmdArgs = append(cmdArgs, "--tlsRootCertFiles", invoker.config.PeerRootCerts[0])
		}
	}

	cmdArgs = append(cmdArgs, "-c", callJSON)

	return invoker.run(ctx, function, cmdArgs)
}

func (invoker *peerInvoker) run(ctx context.Context, function string, cmdArgs []string) (string, error) {
	cmd := exec.CommandContext(ctx, "peer", cmdArgs...)
	cmd.Dir = invoker.config.NetworkPath
	cmd.Env = invoker.environment()

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("executing chaincode function", zap.String("function", function))

	err := cmd.Run()

	if err != nil {
		message := stderr.String()
		if message == "" {
			message = stdout.String()
		}

		log.Warn("chaincode function failed",
			zap.String("function", function),
			zap.String("output", message))

		if extracted := extractEndorsementError(message); extracted != "" {
			return "", errors.New(extracted)
		}

		return "", errors.Wrapf(err, "chaincode %s failed: %s", function, strings.TrimSpace(message))
	}

	return strings.TrimSpace(stdout.String()), nil
}

func (invoker *peerInvoker) environment() []string {
	tlsEnabled := "true"
	if !invoker.config.TLSEnabled {
		tlsEnabled = "false"
	}

	return append(os.Environ(),
		"CORE_PEER_TLS_ENABLED="+tlsEnabled,
		"CORE_PEER_LOCALMSPID="+invoker.config.MSPID,
		"CORE_PEER_MSPCONFIGPATH="+invoker.config.MSPConfigPath,
	)
}

func marshalCall(function string, args []string) (string, error) {
	if args == nil {
		args = []string{}
	}

	callJSON, err := json.Marshal(chaincodeCall{Function: function, Args: args})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal chaincode call")
	}

	return string(callJSON), nil
}

// extractEndorsementError pulls the chaincode's own message out of an
// endorsement failure line, which otherwise buries it in CLI noise.
func extractEndorsementError(output string) string {
	if !strings.Contains(output, "endorsement failure") {
		return ""
	}

	start := strings.Index(output, `message:"`)
	if start < 0 {
		return ""
	}

	start += len(`message:"`)
	end := strings.Index(output[start:], `"`)

	if end <= 0 {
		return ""
	}

	return output[start : start+end]
}
