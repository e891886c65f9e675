package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WalletBridge asks the user's wallet service to sign and submit the
// pointer update directly, paying fees from the user's own balance.
// This is the fallback path after an insufficient-budget outcome.
type WalletBridge struct {
	baseURL string
	client  *http.Client
}

func NewWalletBridge(baseURL string) *WalletBridge {
	return &WalletBridge{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

type walletCommitReq struct {
	Identity string `json:"identity"`
	CID      string `json:"cid"`
	Method   string `json:"method"`
}

type walletCommitResp struct {
	TxHash string `json:"txHash"`
	Error  string `json:"error"`
	Code   string `json:"code"`
}

// Commit submits setProfileCID through the wallet bridge. Failures are
// classified into TxError kinds so the caller can surface distinct
// messages for rejection, revert and gas shortfall.
func (w *WalletBridge) Commit(ctx context.Context, identity, cid string) (string, error) {
	body, err := json.Marshal(walletCommitReq{Identity: identity, CID: cid, Method: "setProfileCID"})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", &TxError{Kind: TxUnknown, Message: err.Error()}
	}
	defer resp.Body.Close()

	var out walletCommitResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &TxError{Kind: TxUnknown, Message: fmt.Sprintf("decode bridge response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyTxFailure(out.Code, out.Error)
	}
	if out.TxHash == "" {
		return "", &TxError{Kind: TxUnknown, Message: "bridge returned no transaction hash"}
	}
	return out.TxHash, nil
}

func classifyTxFailure(code, message string) *TxError {
	switch code {
	case "user_rejected":
		return &TxError{Kind: TxRejected, Message: message}
	case "reverted":
		return &TxError{Kind: TxReverted, Message: message}
	case "insufficient_gas":
		return &TxError{Kind: TxInsufficientGas, Message: message}
	}
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "user rejected"), strings.Contains(lower, "user denied"):
		return &TxError{Kind: TxRejected, Message: message}
	case strings.Contains(lower, "revert"):
		return &TxError{Kind: TxReverted, Message: message}
	case strings.Contains(lower, "insufficient funds"), strings.Contains(lower, "exceeds the balance"):
		return &TxError{Kind: TxInsufficientGas, Message: message}
	}
	return &TxError{Kind: TxUnknown, Message: message}
}
