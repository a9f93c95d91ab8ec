// Package redisStore is the durable request store: one hash per swap
// request, an INCR counter for id assignment and a Lua compare-and-set for
// the single permitted status transition. Records are never deleted.
package redisStore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"swap_escrow/internal/model"

	"github.com/redis/go-redis/v9"

	_ "embed"
)

// transitionScript guards the pending -> terminal move inside Redis so a
// terminal record can never be overwritten.
//
//go:embed lua/transition.lua
var transitionScript string

const counterKey = "request:next_id"

type Store struct {
	cli    *redis.Client
	script string
}

func NewStore(cli *redis.Client) *Store {
	return &Store{cli: cli, script: transitionScript}
}

func requestKey(id uint64) string {
	return "request:" + strconv.FormatUint(id, 10)
}

// NextID returns a fresh monotonically increasing identifier, starting at 1.
// Ids handed out for aborted creations are burned, never reused.
func (s *Store) NextID(ctx context.Context) (uint64, error) {
	id, err := s.cli.Incr(ctx, counterKey).Result()
	if err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	return uint64(id), nil
}

func (s *Store) Create(ctx context.Context, req model.SwapRequest) error {
	err := s.cli.HSet(ctx, requestKey(req.ID),
		"id", strconv.FormatUint(req.ID, 10),
		"sender", req.Sender,
		"receiver", req.Receiver,
		"token_in", req.TokenIn,
		"token_out", req.TokenOut,
		"amount_in", strconv.FormatUint(req.AmountIn, 10),
		"status", string(req.Status),
		"created_at", req.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at", req.UpdatedAt.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("create request %d: %w", req.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id uint64) (model.SwapRequest, error) {
	fields, err := s.cli.HGetAll(ctx, requestKey(id)).Result()
	if err != nil {
		return model.SwapRequest{}, fmt.Errorf("get request %d: %w", id, err)
	}
	if len(fields) == 0 {
		// HGetAll reports a missing key as an empty map; surface it as an
		// explicit not-found instead of a zero-valued record.
		return model.SwapRequest{}, fmt.Errorf("%w: id %d", model.ErrNotFound, id)
	}
	return parseRequest(fields)
}

// SetStatus applies the single pending -> terminal transition.
func (s *Store) SetStatus(ctx context.Context, id uint64, status model.Status, now time.Time) error {
	if !status.Terminal() {
		return fmt.Errorf("%w: cannot transition to %q", model.ErrValidation, status)
	}
	res, err := s.cli.Eval(ctx, s.script, []string{requestKey(id)},
		string(status), now.UTC().Format(time.RFC3339Nano)).Result()
	if err != nil {
		return fmt.Errorf("set status of %d: %w", id, err)
	}
	code, ok := res.(int64)
	if !ok {
		return fmt.Errorf("unexpected result from redis: %v", res)
	}
	switch code {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("%w: id %d", model.ErrNotFound, id)
	default:
		return fmt.Errorf("%w: request %d is already terminal", model.ErrValidation, id)
	}
}

func parseRequest(fields map[string]string) (model.SwapRequest, error) {
	id, err := strconv.ParseUint(fields["id"], 10, 64)
	if err != nil {
		return model.SwapRequest{}, fmt.Errorf("parse id: %w", err)
	}
	amount, err := strconv.ParseUint(fields["amount_in"], 10, 64)
	if err != nil {
		return model.SwapRequest{}, fmt.Errorf("parse amount_in: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return model.SwapRequest{}, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields["updated_at"])
	if err != nil {
		return model.SwapRequest{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return model.SwapRequest{
		ID:        id,
		Sender:    fields["sender"],
		Receiver:  fields["receiver"],
		TokenIn:   fields["token_in"],
		TokenOut:  fields["token_out"],
		AmountIn:  amount,
		Status:    model.Status(fields["status"]),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
