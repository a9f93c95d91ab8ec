// Package custody is the value-transfer collaborator of the escrow ledger.
// The engine only sees the Adapter interface; this package also ships a
// Redis-backed bank for production wiring and an in-memory bank for tests
// and demo runs.
package custody

import "context"

// LedgerAccount holds all deposited value between creation and the
// terminal transition.
const LedgerAccount = "ledger"

// Adapter moves value between external accounts and ledger custody. Pull
// moves amount of token from an account into custody, Push moves it out.
// Both report failure explicitly and are never retried by the engine.
// Implementations must not call back into the lifecycle engine.
type Adapter interface {
	Pull(ctx context.Context, from, token string, amount uint64) error
	Push(ctx context.Context, to, token string, amount uint64) error
	Balance(ctx context.Context, account, token string) (uint64, error)
}
