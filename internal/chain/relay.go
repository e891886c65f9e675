package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Gas ceiling for a setProfileCIDFor call; CIDs are short strings so
// the real usage sits well below this.
const relayGasLimit = 150_000

// BudgetLedger is the prepaid balance the sponsored path charges.
type BudgetLedger interface {
	Debit(ctx context.Context, identity string, amountWei *big.Int) (remaining *big.Int, ok bool, err error)
	Credit(ctx context.Context, identity string, amountWei *big.Int) (*big.Int, error)
	Balance(ctx context.Context, identity string) (*big.Int, error)
}

// SponsoredReceipt is the successful sponsored-commit outcome.
type SponsoredReceipt struct {
	TxHash       string
	RemainingWei *big.Int
}

// Relay registers content pointers on the user's behalf, paying gas
// from the operator wallet and charging the user's prepaid budget.
type Relay struct {
	backend  Backend
	ledger   BudgetLedger
	contract common.Address
	key      *ecdsa.PrivateKey
	operator common.Address
	chainID  *big.Int
}

func NewRelay(backend Backend, ledger BudgetLedger, contract, operatorKeyHex string, chainID int64) (*Relay, error) {
	key, err := crypto.HexToECDSA(operatorKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parse operator key: %w", err)
	}
	return &Relay{
		backend:  backend,
		ledger:   ledger,
		contract: common.HexToAddress(contract),
		key:      key,
		operator: crypto.PubkeyToAddress(key.PublicKey),
		chainID:  big.NewInt(chainID),
	}, nil
}

// Commit debits the identity's budget by the estimated gas cost and
// submits the pointer update from the operator wallet. Returns
// *InsufficientBudgetError when the balance cannot cover the estimate;
// any other failure is fatal to the sponsored path and not retried.
func (r *Relay) Commit(ctx context.Context, identity, cid string) (*SponsoredReceipt, error) {
	gasPrice, err := r.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	cost := new(big.Int).Mul(gasPrice, big.NewInt(relayGasLimit))

	remaining, ok, err := r.ledger.Debit(ctx, identity, cost)
	if err != nil {
		return nil, fmt.Errorf("debit budget: %w", err)
	}
	if !ok {
		balance, berr := r.ledger.Balance(ctx, identity)
		if berr != nil {
			balance = big.NewInt(0)
		}
		return nil, &InsufficientBudgetError{RequiredWei: cost, BalanceWei: balance}
	}

	hash, err := r.send(ctx, identity, cid, gasPrice)
	if err != nil {
		// The debit already happened; hand the charge back.
		if _, cerr := r.ledger.Credit(ctx, identity, cost); cerr != nil {
			log.Printf("Warning: refund after failed relay send for %s: %v", identity, cerr)
		}
		return nil, fmt.Errorf("relay send: %w", err)
	}

	return &SponsoredReceipt{TxHash: hash, RemainingWei: remaining}, nil
}

func (r *Relay) send(ctx context.Context, identity, cid string, gasPrice *big.Int) (string, error) {
	input, err := profileABI.Pack("setProfileCIDFor", common.HexToAddress(identity), cid)
	if err != nil {
		return "", fmt.Errorf("pack setProfileCIDFor: %w", err)
	}

	nonce, err := r.backend.PendingNonceAt(ctx, r.operator)
	if err != nil {
		return "", fmt.Errorf("pending nonce: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &r.contract,
		Gas:      relayGasLimit,
		GasPrice: gasPrice,
		Data:     input,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(r.chainID), r.key)
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}

	if err := r.backend.SendTransaction(ctx, signed); err != nil {
		return "", err
	}
	return signed.Hash().Hex(), nil
}
