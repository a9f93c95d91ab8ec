package engine

import (
	"context"
	"fmt"

	"swap_escrow/internal/custody"
	"swap_escrow/internal/model"

	"github.com/sirupsen/logrus"
)

type move struct {
	pull    bool
	account string
	token   string
	amount  uint64
}

// ledgerTx tracks the custody moves of one lifecycle operation so they can
// be reverted in reverse order when a later step fails. Zero-amount moves
// are skipped; they cannot fail and net to nothing.
type ledgerTx struct {
	bank custody.Adapter
	done []move
}

func newLedgerTx(bank custody.Adapter) *ledgerTx {
	return &ledgerTx{bank: bank}
}

func (tx *ledgerTx) pull(ctx context.Context, from, token string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if err := tx.bank.Pull(ctx, from, token, amount); err != nil {
		return wrapTransfer(err, "pull", from, token, amount)
	}
	tx.done = append(tx.done, move{pull: true, account: from, token: token, amount: amount})
	return nil
}

func (tx *ledgerTx) push(ctx context.Context, to, token string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if err := tx.bank.Push(ctx, to, token, amount); err != nil {
		return wrapTransfer(err, "push", to, token, amount)
	}
	tx.done = append(tx.done, move{account: to, token: token, amount: amount})
	return nil
}

// revert undoes the completed moves, newest first. A revert failure leaves
// funds parked in the wrong account; nothing to do but log it loudly.
func (tx *ledgerTx) revert(ctx context.Context, log *logrus.Entry) {
	for i := len(tx.done) - 1; i >= 0; i-- {
		m := tx.done[i]
		var err error
		if m.pull {
			err = tx.bank.Push(ctx, m.account, m.token, m.amount)
		} else {
			err = tx.bank.Pull(ctx, m.account, m.token, m.amount)
		}
		if err != nil {
			log.WithFields(logrus.Fields{
				"account": m.account,
				"token":   m.token,
				"amount":  m.amount,
			}).WithError(err).Error("failed to revert custody move")
		}
	}
	tx.done = nil
}

func wrapTransfer(err error, op, account, token string, amount uint64) error {
	return fmt.Errorf("%w: %s %d %s (%s): %v", model.ErrTransferFailed, op, amount, token, account, err)
}
