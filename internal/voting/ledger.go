// Package voting holds the authoritative vote model: the Ledger records who
// voted what, the Aggregator owns the displayed scores.
package voting

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/insight/backend/internal/models"
)

var log = logrus.WithField("package", "voting")

// VoteRepository persists at most one vote per (user, target).
type VoteRepository interface {
	// CurrentVote returns models.VoteNone when the user holds no vote.
	CurrentVote(ctx context.Context, userID int64, target models.Target) (models.VoteType, error)
	SetVote(ctx context.Context, userID int64, target models.Target, t models.VoteType) error
	DeleteVote(ctx context.Context, userID int64, target models.Target) error
}

// Outcome is the ledger's decision for one vote action.
type Outcome struct {
	Previous models.VoteType
	Current  models.VoteType
	Delta    int
}

// Decide applies toggle semantics: a new vote is recorded, the same vote is
// removed and the opposite vote replaces the held one.
func Decide(previous, requested models.VoteType) Outcome {
	next := requested
	if previous == requested {
		next = models.VoteNone
	}

	return Outcome{
		Previous: previous,
		Current:  next,
		Delta:    next.Value() - previous.Value(),
	}
}

// Ledger is the single implementation of vote toggling for posts and comments.
type Ledger struct {
	locks *keyedMutex
}

// NewLedger creates a ledger. Share one instance between all callers so the
// per (user, target) locks are effective.
func NewLedger() *Ledger {
	return &Ledger{locks: newKeyedMutex()}
}

// ApplyVote records requested for userID on target and returns the score
// delta the Aggregator must apply. The ledger never touches scores. Target
// existence is checked by the caller.
func (l *Ledger) ApplyVote(ctx context.Context, votes VoteRepository, userID int64, target models.Target, requested models.VoteType) (Outcome, error) {
	if userID == 0 {
		return Outcome{}, ErrUnauthorized
	}
	if !requested.Valid() {
		return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidVoteType, requested)
	}
	if !target.Type.Valid() {
		return Outcome{}, fmt.Errorf("%w: unknown target type %q", ErrTargetNotFound, target.Type)
	}

	unlock := l.locks.lock(lockKey{userID: userID, target: target})
	defer unlock()

	previous, err := votes.CurrentVote(ctx, userID, target)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to get current vote: %w", err)
	}

	out := Decide(previous, requested)

	if out.Current == models.VoteNone {
		if err := votes.DeleteVote(ctx, userID, target); err != nil {
			return Outcome{}, fmt.Errorf("failed to delete vote: %w", err)
		}
	} else {
		if err := votes.SetVote(ctx, userID, target, out.Current); err != nil {
			return Outcome{}, fmt.Errorf("failed to set vote: %w", err)
		}
	}

	log.WithFields(logrus.Fields{
		"user_id":  userID,
		"target":   target.String(),
		"previous": out.Previous,
		"current":  out.Current,
		"delta":    out.Delta,
	}).Debug("vote applied")

	return out, nil
}
