package custody

import (
	"context"
	"fmt"
	"sync"

	"swap_escrow/internal/model"
)

// MemoryBank keeps balances in process memory. Used by tests and demo mode;
// the Redis bank is the production adapter.
type MemoryBank struct {
	mu       sync.Mutex
	balances map[string]map[string]uint64 // account -> token -> amount
}

var _ Adapter = (*MemoryBank)(nil)

func NewMemoryBank() *MemoryBank {
	return &MemoryBank{balances: make(map[string]map[string]uint64)}
}

// Mint credits an account out of thin air. Seeding only, not part of Adapter.
func (b *MemoryBank) Mint(account, token string, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(account, token, amount)
}

func (b *MemoryBank) Pull(_ context.Context, from, token string, amount uint64) error {
	return b.move(from, LedgerAccount, token, amount)
}

func (b *MemoryBank) Push(_ context.Context, to, token string, amount uint64) error {
	return b.move(LedgerAccount, to, token, amount)
}

func (b *MemoryBank) Balance(_ context.Context, account, token string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account][token], nil
}

func (b *MemoryBank) move(from, to, token string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	have := b.balances[from][token]
	if have < amount {
		return fmt.Errorf("%w: account %s holds %d %s, need %d", model.ErrTransferFailed, from, have, token, amount)
	}
	b.balances[from][token] = have - amount
	b.credit(to, token, amount)
	return nil
}

func (b *MemoryBank) credit(account, token string, amount uint64) {
	if b.balances[account] == nil {
		b.balances[account] = make(map[string]uint64)
	}
	b.balances[account][token] += amount
}
