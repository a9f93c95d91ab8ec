package custody

import (
	"context"
	"fmt"
	"strconv"

	"swap_escrow/internal/model"

	"github.com/redis/go-redis/v9"

	_ "embed"
)

// moveScript performs the check-and-move as one atomic unit inside Redis.
//
//go:embed lua/move.lua
var moveScript string

// RedisBank keeps per-account, per-token balances in Redis. It usually
// shares the client with the request store so one instance backs both.
type RedisBank struct {
	cli    *redis.Client
	script string
}

var _ Adapter = (*RedisBank)(nil)

func NewRedisBank(cli *redis.Client) *RedisBank {
	return &RedisBank{cli: cli, script: moveScript}
}

func balanceKey(account, token string) string {
	return "balance:" + account + ":" + token
}

func (b *RedisBank) Pull(ctx context.Context, from, token string, amount uint64) error {
	return b.move(ctx, from, LedgerAccount, token, amount)
}

func (b *RedisBank) Push(ctx context.Context, to, token string, amount uint64) error {
	return b.move(ctx, LedgerAccount, to, token, amount)
}

func (b *RedisBank) Balance(ctx context.Context, account, token string) (uint64, error) {
	res, err := b.cli.Get(ctx, balanceKey(account, token)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(res, 10, 64)
}

// Mint credits an account directly. Seeding only, not part of Adapter.
func (b *RedisBank) Mint(ctx context.Context, account, token string, amount uint64) error {
	return b.cli.IncrBy(ctx, balanceKey(account, token), int64(amount)).Err()
}

func (b *RedisBank) move(ctx context.Context, from, to, token string, amount uint64) error {
	res, err := b.cli.Eval(ctx, b.script,
		[]string{balanceKey(from, token), balanceKey(to, token)},
		strconv.FormatUint(amount, 10)).Result()
	if err != nil {
		return fmt.Errorf("%w: move %d %s from %s: %v", model.ErrTransferFailed, amount, token, from, err)
	}

	var moved bool
	switch v := res.(type) {
	case int64:
		moved = v == 1
	case string:
		// some Redis libs return string
		moved = v == "1"
	default:
		return fmt.Errorf("unexpected result from redis: %v", res)
	}

	if !moved {
		return fmt.Errorf("%w: account %s short of %d %s", model.ErrTransferFailed, from, amount, token)
	}
	return nil
}
