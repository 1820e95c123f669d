package voting

import (
	"context"
	"errors"
	"fmt"

	"github.com/emilythestrangee/insight/backend/internal/models"
	"github.com/emilythestrangee/insight/backend/internal/store"
)

// ScoreRepository stores additive integer scores.
type ScoreRepository interface {
	// AddTargetScore adds delta to the target's score and returns the new
	// score and the target's author. store.ErrNotFound if it does not exist.
	AddTargetScore(ctx context.Context, target models.Target, delta int) (score int, authorID int64, err error)
	AddUserScore(ctx context.Context, userID int64, delta int) error
}

// Aggregator applies ledger deltas to target scores and to the total score of
// the target's author. It must be called exactly once per ledger decision.
type Aggregator struct{}

// ApplyDelta returns the target's new score.
func (Aggregator) ApplyDelta(ctx context.Context, scores ScoreRepository, target models.Target, delta int) (int, error) {
	score, authorID, err := scores.AddTargetScore(ctx, target, delta)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
		}
		return 0, fmt.Errorf("failed to add target score: %w", err)
	}

	if delta != 0 {
		if err := scores.AddUserScore(ctx, authorID, delta); err != nil {
			return 0, fmt.Errorf("failed to add author score: %w", err)
		}
	}

	return score, nil
}

// Tally sums vote values per target: +1 per up vote, -1 per down vote.
func Tally(votes []*models.Vote) map[models.Target]int {
	out := make(map[models.Target]int)
	for _, v := range votes {
		out[v.Target()] += v.Type.Value()
	}
	return out
}
