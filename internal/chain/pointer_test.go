package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend covers the Backend surface for pointer and relay tests.
type stubBackend struct {
	callResult []byte
	callErrs   []error
	callCount  int

	gasPrice *big.Int
	gasErr   error
	nonce    uint64
	nonceErr error

	sent    *types.Transaction
	sendErr error
}

func (b *stubBackend) CallContract(_ context.Context, _ ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	i := b.callCount
	b.callCount++
	if i < len(b.callErrs) && b.callErrs[i] != nil {
		return nil, b.callErrs[i]
	}
	return b.callResult, nil
}

func (b *stubBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	if b.gasErr != nil {
		return nil, b.gasErr
	}
	if b.gasPrice != nil {
		return b.gasPrice, nil
	}
	return big.NewInt(1), nil
}

func (b *stubBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return b.nonce, b.nonceErr
}

func (b *stubBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = tx
	return nil
}

func (b *stubBackend) TransactionByHash(context.Context, common.Hash) (*types.Transaction, bool, error) {
	return nil, false, errors.New("not implemented")
}

func (b *stubBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, errors.New("not implemented")
}

func packPointerResult(t *testing.T, cid string) []byte {
	t.Helper()
	out, err := profileABI.Methods["getProfileCID"].Outputs.Pack(cid)
	require.NoError(t, err)
	return out
}

const registry = "0x00000000000000000000000000000000000000C1"

func TestPointerReader_GetPointer(t *testing.T) {
	backend := &stubBackend{callResult: packPointerResult(t, "bafyalice")}
	reader := NewPointerReader(backend, registry)

	cid, err := reader.GetPointer(context.Background(), "0xAAA")
	require.NoError(t, err)
	assert.Equal(t, "bafyalice", cid)
}

func TestPointerReader_UnsetPointerIsEmpty(t *testing.T) {
	backend := &stubBackend{callResult: packPointerResult(t, "")}
	reader := NewPointerReader(backend, registry)

	cid, err := reader.GetPointer(context.Background(), "0xAAA")
	require.NoError(t, err)
	assert.Empty(t, cid)
}

func TestPointerReader_RetriesOnce(t *testing.T) {
	backend := &stubBackend{
		callResult: packPointerResult(t, "bafyalice"),
		callErrs:   []error{errors.New("rpc hiccup")},
	}
	reader := NewPointerReader(backend, registry)

	cid, err := reader.GetPointer(context.Background(), "0xAAA")
	require.NoError(t, err)
	assert.Equal(t, "bafyalice", cid)
	assert.Equal(t, 2, backend.callCount)
}

func TestPointerReader_GivesUpAfterRetry(t *testing.T) {
	backend := &stubBackend{
		callErrs: []error{errors.New("down"), errors.New("still down")},
	}
	reader := NewPointerReader(backend, registry)

	_, err := reader.GetPointer(context.Background(), "0xAAA")
	require.Error(t, err)
	assert.Equal(t, 2, backend.callCount)
}
