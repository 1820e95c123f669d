package service

import (
	"context"
	"fmt"

	"github.com/emilythestrangee/insight/backend/internal/models"
)

// Leaderboard returns users by total score, ties broken by id.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = s.leaderboardLimit
	}

	users, err := s.store.ListUsersByScore(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	out := make([]models.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		out = append(out, models.LeaderboardEntry{
			UserID:     u.ID,
			Username:   u.Username,
			Avatar:     u.Avatar,
			Score:      u.TotalScore,
			Rank:       i + 1,
			PostsCount: u.PostsCount,
		})
	}

	return out, nil
}

// DailyStats ...
func (s *Service) DailyStats(ctx context.Context) (*models.DailyStats, error) {
	users, err := s.Leaderboard(ctx, 0)
	if err != nil {
		return nil, err
	}

	posts, err := s.TopPosts(ctx, 0)
	if err != nil {
		return nil, err
	}

	totalPosts, err := s.store.CountPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	totalVotes, err := s.store.CountVotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	return &models.DailyStats{
		TopUsers:   users,
		TopPosts:   posts,
		TotalPosts: totalPosts,
		TotalVotes: totalVotes,
	}, nil
}

// UpdateRanks recomputes every user's 1-based rank. It runs outside vote
// transactions so that concurrent votes never wait on each other's authors.
func (s *Service) UpdateRanks(ctx context.Context) error {
	if err := s.store.UpdateRanks(ctx); err != nil {
		return fmt.Errorf("failed to update ranks: %w", err)
	}
	return nil
}

// DailyReset starts a new day: post votes are cleared, post scores zeroed and
// ranks recomputed, then achievements are awarded. User totals are kept.
func (s *Service) DailyReset(ctx context.Context) error {
	if err := s.store.ResetPostScores(ctx); err != nil {
		return fmt.Errorf("failed to reset post scores: %w", err)
	}
	if err := s.UpdateRanks(ctx); err != nil {
		return err
	}

	log.Info("daily reset completed")

	return s.AwardAchievements(ctx)
}
