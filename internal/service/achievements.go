package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/emilythestrangee/insight/backend/internal/models"
	"github.com/emilythestrangee/insight/backend/internal/store"
)

type achievement struct {
	name        string
	description string
	icon        string
	earned      func(u *models.User) bool
}

var achievements = []achievement{
	{"First Post", "Created your first post", "🎯", func(u *models.User) bool { return u.PostsCount >= 1 }},
	{"Century Club", "Reached 100 total score", "💯", func(u *models.User) bool { return u.TotalScore >= 100 }},
	{"High Scorer", "Reached 500 total score", "🌟", func(u *models.User) bool { return u.TotalScore >= 500 }},
	{"Score Master", "Reached 1000 total score", "👑", func(u *models.User) bool { return u.TotalScore >= 1000 }},
	{"Prolific Poster", "Created 10 posts", "📝", func(u *models.User) bool { return u.PostsCount >= 10 }},
	{"Post Master", "Created 50 posts", "📚", func(u *models.User) bool { return u.PostsCount >= 50 }},
	// rank 0 means unranked
	{"Top Performer", "Achieved top 3 rank", "🏆", func(u *models.User) bool { return u.Rank > 0 && u.Rank <= 3 }},
	{"Rank 1", "Achieved the #1 rank", "👑", func(u *models.User) bool { return u.Rank == 1 }},
}

// AwardAchievements grants every achievement each user has earned and not
// yet received.
func (s *Service) AwardAchievements(ctx context.Context) error {
	users, err := s.store.ListUsersByScore(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	for _, u := range users {
		if err := s.awardUser(ctx, u); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) awardUser(ctx context.Context, u *models.User) error {
	have, err := s.store.ListAchievements(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("failed to list achievements: %w", err)
	}

	owned := make(map[string]bool, len(have))
	for _, a := range have {
		owned[a.Name] = true
	}

	for _, a := range achievements {
		if owned[a.name] || !a.earned(u) {
			continue
		}

		err := s.store.AddAchievement(ctx, &models.Achievement{
			UserID:      u.ID,
			Name:        a.name,
			Description: a.description,
			Icon:        a.icon,
			UnlockedAt:  s.now().UTC(),
		})
		if err != nil && !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("failed to add achievement: %w", err)
		}
		if err == nil {
			log.WithField("user_id", u.ID).WithField("achievement", a.name).Info("achievement unlocked")
		}
	}

	return nil
}
