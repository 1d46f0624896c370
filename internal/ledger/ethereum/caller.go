package ethereum

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

// Receipt is the subset of a transaction receipt the client inspects.
type Receipt struct {
	TxHash          string
	Status          uint64
	GasUsed         uint64
	ContractAddress string
}

// ContractCaller abstracts the JSON-RPC surface of the node. The node
// holds unlocked accounts, so transactions are submitted unsigned with
// eth_sendTransaction. Tests substitute a fake.
type ContractCaller interface {
	Accounts(ctx context.Context) ([]common.Address, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	Transact(ctx context.Context, from common.Address, to *common.Address, data []byte, gas uint64) (*Receipt, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	SendValue(ctx context.Context, from common.Address, to common.Address, amount *big.Int) error
}

type rpcCaller struct {
	client *rpc.Client
}

func NewRPCCaller(endpoint string) (ContractCaller, error) {
	client, err := rpc.Dial(endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial node")
	}

	return &rpcCaller{client: client}, nil
}

func (caller *rpcCaller) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	err := caller.client.CallContext(ctx, &accounts, "eth_accounts")

	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (caller *rpcCaller) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := map[string]any{
		"to":   to,
		"data": hexutil.Bytes(data),
	}

	var result hexutil.Bytes
	err := caller.client.CallContext(ctx, &result, "eth_call", msg, "latest")

	if err != nil {
		return nil, err
	}

	return result, nil
}

func (caller *rpcCaller) Transact(ctx context.Context, from common.Address, to *common.Address, data []byte, gas uint64) (*Receipt, error) {
	msg := map[string]any{
		"from":     from,
		"data":     hexutil.Bytes(data),
		"gas":      hexutil.Uint64(gas),
		"gasPrice": (*hexutil.Big)(big.NewInt(1_000_000_000)),
	}

	if to != nil {
		msg["to"] = *to
	}

	var txHash common.Hash
	err := caller.client.CallContext(ctx, &txHash, "eth_sendTransaction", msg)

	if err != nil {
		return nil, err
	}

	return caller.waitForReceipt(ctx, txHash)
}

func (caller *rpcCaller) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance hexutil.Big
	err := caller.client.CallContext(ctx, &balance, "eth_getBalance", account, "latest")

	if err != nil {
		return nil, err
	}

	return (*big.Int)(&balance), nil
}

func (caller *rpcCaller) SendValue(ctx context.Context, from common.Address, to common.Address, amount *big.Int) error {
	msg := map[string]any{
		"from":  from,
		"to":    to,
		"value": (*hexutil.Big)(amount),
	}

	var txHash common.Hash
	return caller.client.CallContext(ctx, &txHash, "eth_sendTransaction", msg)
}

type rpcReceipt struct {
	TransactionHash common.Hash     `json:"transactionHash"`
	Status          hexutil.Uint64  `json:"status"`
	GasUsed         hexutil.Uint64  `json:"gasUsed"`
	ContractAddress *common.Address `json:"contractAddress"`
}

func (caller *rpcCaller) waitForReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		var receipt *rpcReceipt
		err := caller.client.CallContext(ctx, &receipt, "eth_getTransactionReceipt", txHash)

		if err != nil {
			return nil, err
		}

		if receipt != nil {
			result := &Receipt{
				TxHash:  receipt.TransactionHash.Hex(),
				Status:  uint64(receipt.Status),
				GasUsed: uint64(receipt.GasUsed),
			}

			if receipt.ContractAddress != nil {
				result.ContractAddress = receipt.ContractAddress.Hex()
			}

			return result, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
