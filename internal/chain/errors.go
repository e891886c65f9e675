package chain

import (
	"fmt"
	"math/big"
)

// InsufficientBudgetError is the distinguished sponsored-path outcome:
// not a fault, but a signal to offer the user-paid fallback.
type InsufficientBudgetError struct {
	RequiredWei *big.Int
	BalanceWei  *big.Int
}

func (e *InsufficientBudgetError) Error() string {
	return fmt.Sprintf("insufficient relay budget: need %s wei, have %s wei", e.RequiredWei, e.BalanceWei)
}

// TxFailureKind classifies user-path transaction failures so the UI can
// say something more useful than a generic string.
type TxFailureKind string

const (
	TxRejected        TxFailureKind = "user_rejected"
	TxReverted        TxFailureKind = "reverted"
	TxInsufficientGas TxFailureKind = "insufficient_gas"
	TxUnknown         TxFailureKind = "unknown"
)

type TxError struct {
	Kind    TxFailureKind
	Message string
}

func (e *TxError) Error() string {
	switch e.Kind {
	case TxRejected:
		return "transaction was rejected in the wallet"
	case TxReverted:
		return "transaction reverted on-chain: " + e.Message
	case TxInsufficientGas:
		return "wallet balance cannot cover the network fee"
	default:
		return "transaction failed: " + e.Message
	}
}
