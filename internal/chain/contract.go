package chain

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is the slice of the Ethereum RPC surface this service uses.
// *ethclient.Client satisfies it.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Pointer-store contract surface: a per-address CID registry. The
// relay path uses setProfileCIDFor (owner-only), the user path
// setProfileCID.
const profileABIJSON = `[
  {"inputs":[{"name":"_user","type":"address"}],"name":"getProfileCID","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"_cid","type":"string"}],"name":"setProfileCID","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_user","type":"address"},{"name":"_cid","type":"string"}],"name":"setProfileCIDFor","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var profileABI = mustABI(profileABIJSON)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("chain: parse profile abi: " + err.Error())
	}
	return parsed
}
