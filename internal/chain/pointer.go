package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// PointerReader queries the content pointer registered on-chain for an
// identity. Empty string means unset.
type PointerReader struct {
	backend  Backend
	contract common.Address
}

func NewPointerReader(backend Backend, contract string) *PointerReader {
	return &PointerReader{
		backend:  backend,
		contract: common.HexToAddress(contract),
	}
}

func (r *PointerReader) GetPointer(ctx context.Context, identity string) (string, error) {
	input, err := profileABI.Pack("getProfileCID", common.HexToAddress(identity))
	if err != nil {
		return "", fmt.Errorf("pack getProfileCID: %w", err)
	}

	msg := ethereum.CallMsg{To: &r.contract, Data: input}

	// Pointer reads are idempotent; allow one retry.
	var out []byte
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		out, lastErr = r.backend.CallContract(ctx, msg, nil)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("call getProfileCID: %w", lastErr)
	}

	vals, err := profileABI.Unpack("getProfileCID", out)
	if err != nil {
		return "", fmt.Errorf("unpack getProfileCID: %w", err)
	}
	cid, _ := vals[0].(string)
	return cid, nil
}
