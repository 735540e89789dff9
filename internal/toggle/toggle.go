// Package toggle implements the reusable on/off protocol behind likes,
// favorites and follows. Each relation is a binary state per (actor, target)
// pair: an edge row in storage is ON, its absence is OFF, and the target
// carries a denormalized counter kept in step with the edges.
package toggle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-hq/inkwell/internal/model"
	"github.com/inkwell-hq/inkwell/internal/store"
)

// DefaultTimeout bounds a single toggle's storage transaction. On timeout the
// transaction rolls back whole; there is no partial edge-without-counter
// state to clean up.
const DefaultTimeout = 5 * time.Second

// Result is what a toggle reports back to its caller: the state after the
// call and the target's counter, so handlers can echo both to the client.
type Result struct {
	Active bool
	Count  int
}

type Service struct {
	store   store.InteractionStore
	timeout time.Duration
	logger  *zap.Logger
}

func NewService(st store.InteractionStore, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{store: st, timeout: timeout, logger: logger}
}

// TurnOn switches the relation ON. Turning on an already-ON relation is an
// idempotent no-op: the edge insert is skipped and the counter is not
// incremented, so double-clicks and client retries cannot cause drift.
func (s *Service) TurnOn(ctx context.Context, rel model.Relation, actorID, targetID int64) (Result, error) {
	if err := validate(rel, actorID, targetID); err != nil {
		return Result{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outcome, err := s.store.AttachEdge(ctx, rel, actorID, targetID)
	if err != nil {
		return Result{}, err
	}
	return Result{Active: true, Count: outcome.Count}, nil
}

// TurnOff switches the relation OFF. Turning off an already-OFF relation is
// an idempotent no-op. The counter decrement is clamped at zero; hitting the
// clamp means the counter had drifted and is logged, not surfaced.
func (s *Service) TurnOff(ctx context.Context, rel model.Relation, actorID, targetID int64) (Result, error) {
	if err := validate(rel, actorID, targetID); err != nil {
		return Result{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outcome, err := s.store.DetachEdge(ctx, rel, actorID, targetID)
	if err != nil {
		return Result{}, err
	}
	if outcome.Underflow {
		s.logger.Warn("counter underflow clamped to zero",
			zap.String("relation", string(rel)),
			zap.Int64("actor_id", actorID),
			zap.Int64("target_id", targetID))
	}
	return Result{Active: false, Count: outcome.Count}, nil
}

// Status reports whether the relation is ON. Pure read, no counter access.
func (s *Service) Status(ctx context.Context, rel model.Relation, actorID, targetID int64) (bool, error) {
	if err := validate(rel, actorID, targetID); err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.store.EdgeExists(ctx, rel, actorID, targetID)
}

func validate(rel model.Relation, actorID, targetID int64) error {
	if !rel.Valid() {
		return fmt.Errorf("unknown relation %q", rel)
	}
	if actorID <= 0 || targetID <= 0 {
		return fmt.Errorf("relation %s needs positive actor and target ids", rel)
	}
	return nil
}
