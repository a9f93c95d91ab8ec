package custody

import (
	"context"
	"testing"

	"swap_escrow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBankPullPush(t *testing.T) {
	ctx := context.Background()
	bank := NewMemoryBank()
	bank.Mint("alice", "TOKA", 1000)

	require.NoError(t, bank.Pull(ctx, "alice", "TOKA", 400))

	got, err := bank.Balance(ctx, "alice", "TOKA")
	require.NoError(t, err)
	assert.Equal(t, uint64(600), got)

	got, err = bank.Balance(ctx, LedgerAccount, "TOKA")
	require.NoError(t, err)
	assert.Equal(t, uint64(400), got)

	require.NoError(t, bank.Push(ctx, "bob", "TOKA", 150))

	got, err = bank.Balance(ctx, "bob", "TOKA")
	require.NoError(t, err)
	assert.Equal(t, uint64(150), got)

	got, err = bank.Balance(ctx, LedgerAccount, "TOKA")
	require.NoError(t, err)
	assert.Equal(t, uint64(250), got)
}

func TestMemoryBankInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	bank := NewMemoryBank()
	bank.Mint("alice", "TOKA", 10)

	err := bank.Pull(ctx, "alice", "TOKA", 11)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTransferFailed)

	// nothing moved
	got, err := bank.Balance(ctx, "alice", "TOKA")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got)

	got, err = bank.Balance(ctx, LedgerAccount, "TOKA")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)
}

func TestMemoryBankTokensIsolated(t *testing.T) {
	ctx := context.Background()
	bank := NewMemoryBank()
	bank.Mint("alice", "TOKA", 100)
	bank.Mint("alice", "TOKB", 5)

	err := bank.Pull(ctx, "alice", "TOKB", 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTransferFailed)

	require.NoError(t, bank.Pull(ctx, "alice", "TOKA", 50))
}

func TestMemoryBankUnknownAccount(t *testing.T) {
	ctx := context.Background()
	bank := NewMemoryBank()

	got, err := bank.Balance(ctx, "nobody", "TOKA")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)

	err = bank.Pull(ctx, "nobody", "TOKA", 1)
	assert.ErrorIs(t, err, model.ErrTransferFailed)
}
