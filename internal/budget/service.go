package budget

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"

	"github.com/devdash/profile-backend/internal/chain"
)

var (
	ErrDepositNotFound        = errors.New("deposit transaction not found")
	ErrDepositFailed          = errors.New("deposit transaction reverted")
	ErrWrongRecipient         = errors.New("deposit was not sent to the budget wallet")
	ErrAmountMismatch         = errors.New("deposit value does not match the claimed amount")
	ErrDepositUnsettled       = errors.New("deposit transaction is still pending")
	ErrForeignDeposit         = errors.New("deposit was sent from a different wallet")
	ErrDepositAlreadyCredited = errors.New("deposit has already been credited")
)

// Ledger is the persistence the service needs: balance reads and the
// replay-safe deposit credit. *Repo implements it.
type Ledger interface {
	Balance(ctx context.Context, identity string) (*big.Int, error)
	CreditDeposit(ctx context.Context, identity, txHash string, amountWei *big.Int) (*big.Int, error)
}

// Service confirms budget deposits against the chain and serves balance
// views with a USD estimate.
type Service struct {
	repo      Ledger
	backend   chain.Backend
	price     *SpotClient
	recipient common.Address
}

func NewService(repo Ledger, backend chain.Backend, price *SpotClient, recipientWallet string) *Service {
	return &Service{
		repo:      repo,
		backend:   backend,
		price:     price,
		recipient: common.HexToAddress(recipientWallet),
	}
}

// ConfirmDeposit verifies a value transfer to the budget wallet and
// credits the identity's ledger with its value. The chain is the
// authority: the claimed amount is checked against the transaction, not
// trusted.
func (s *Service) ConfirmDeposit(ctx context.Context, identity, txHash, amountEth string) (*big.Int, error) {
	hash := common.HexToHash(txHash)

	tx, pending, err := s.backend.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDepositNotFound, txHash)
	}
	if pending {
		return nil, ErrDepositUnsettled
	}
	if tx.To() == nil || *tx.To() != s.recipient {
		return nil, ErrWrongRecipient
	}

	receipt, err := s.backend.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("deposit receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, ErrDepositFailed
	}

	claimed, err := ParseEth(amountEth)
	if err != nil {
		return nil, err
	}
	if tx.Value().Cmp(claimed) < 0 {
		return nil, ErrAmountMismatch
	}

	// Only the wallet that funded the deposit may claim it.
	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return nil, fmt.Errorf("recover deposit sender: %w", err)
	}
	if sender != common.HexToAddress(identity) {
		return nil, ErrForeignDeposit
	}

	// CreditDeposit records the hash and rejects replays, so each
	// deposit credits exactly once.
	return s.repo.CreditDeposit(ctx, identity, hash.Hex(), tx.Value())
}

type BalanceView struct {
	BalanceEth  string      `json:"balanceEth"`
	BalanceUsd  string      `json:"balanceUsd"`
	PriceSource PriceSource `json:"priceSource"`
}

func (s *Service) BalanceView(ctx context.Context, identity string) (*BalanceView, error) {
	wei, err := s.repo.Balance(ctx, identity)
	if err != nil {
		return nil, err
	}
	quote := s.price.Get(ctx)

	eth := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether))
	usd := new(big.Float).Mul(eth, big.NewFloat(quote.UsdPerEth))

	return &BalanceView{
		BalanceEth:  eth.Text('f', 6),
		BalanceUsd:  usd.Text('f', 2),
		PriceSource: quote.Source,
	}, nil
}

// ParseEth converts a decimal ETH string to wei.
func ParseEth(amount string) (*big.Int, error) {
	f, ok := new(big.Float).SetString(strings.TrimSpace(amount))
	if !ok || f.Sign() <= 0 {
		return nil, fmt.Errorf("bad eth amount %q", amount)
	}
	wei, _ := new(big.Float).Mul(f, big.NewFloat(params.Ether)).Int(nil)
	return wei, nil
}
