package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/emilythestrangee/insight/backend/internal/models"
	"github.com/emilythestrangee/insight/backend/internal/store"
	"github.com/emilythestrangee/insight/backend/internal/voting"
)

// VoteResult is returned to the voter after a committed vote.
type VoteResult struct {
	Target models.Target   `json:"target"`
	Score  int             `json:"score"`
	Vote   models.VoteType `json:"vote"`
	Delta  int             `json:"delta"`
}

// SubmitVote casts voteType on target for the acting user.
func (s *Service) SubmitVote(ctx context.Context, actorID int64, target models.Target, voteType string) (*VoteResult, error) {
	if _, err := s.resolve(ctx, actorID); err != nil {
		return nil, err
	}

	requested, err := models.ParseVoteType(voteType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", voting.ErrInvalidVoteType, err.Error())
	}
	if !target.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown target type %q", voting.ErrTargetNotFound, target.Type)
	}

	var res VoteResult
	err = s.store.InTx(ctx, func(tx store.Store) error {
		if err := tx.LockTarget(ctx, target); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: %s", voting.ErrTargetNotFound, target)
			}
			return fmt.Errorf("failed to lock target: %w", err)
		}

		out, err := s.ledger.ApplyVote(ctx, tx, actorID, target, requested)
		if err != nil {
			return err
		}

		score, err := s.aggregator.ApplyDelta(ctx, tx, target, out.Delta)
		if err != nil {
			return err
		}

		res = VoteResult{Target: target, Score: score, Vote: out.Current, Delta: out.Delta}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithField("user_id", actorID).WithField("target", target.String()).
		WithField("vote", res.Vote).WithField("score", res.Score).Info("vote applied")

	// ranks are derived data, the vote stands even if this fails
	if res.Delta != 0 {
		if err := s.UpdateRanks(ctx); err != nil {
			log.WithError(err).Error("failed to update ranks")
		}
	}

	if s.publisher != nil {
		s.publisher.PublishScore(target, res.Score)
	}

	return &res, nil
}

// MyVotes returns the acting user's held votes on the given targets, keyed by
// target id. Targets without a vote are absent.
func (s *Service) MyVotes(ctx context.Context, actorID int64, targetType models.TargetType, ids []int64) (map[int64]models.VoteType, error) {
	if _, err := s.resolve(ctx, actorID); err != nil {
		return nil, err
	}
	if !targetType.Valid() {
		return nil, fmt.Errorf("%w: unknown target type %q", voting.ErrTargetNotFound, targetType)
	}

	out := make(map[int64]models.VoteType)
	if len(ids) == 0 {
		return out, nil
	}

	votes, err := s.store.ListVotes(ctx, store.ListVotesParams{
		UserID:     &actorID,
		TargetType: targetType,
		TargetIDs:  ids,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}

	for _, v := range votes {
		out[v.TargetID] = v.Type
	}

	return out, nil
}
