package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/emilythestrangee/insight/backend/internal/models"
	"github.com/emilythestrangee/insight/backend/internal/store"
)

// CreatePost publishes the acting user's insight of the day.
func (s *Service) CreatePost(ctx context.Context, actorID int64, req models.CreatePostRequest) (*models.Post, error) {
	author, err := s.resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return nil, ErrInvalidPost
	}

	now := s.now()
	p := &models.Post{
		Title:     title,
		Content:   content,
		AuthorID:  actorID,
		Tags:      uniqueTags(req.Tags),
		CreatedAt: now.UTC(),
	}

	err = s.store.InTx(ctx, func(tx store.Store) error {
		n, err := tx.CountPostsSince(ctx, actorID, s.startOfDay(now))
		if err != nil {
			return fmt.Errorf("failed to count posts: %w", err)
		}
		if n > 0 {
			return ErrAlreadyPostedToday
		}

		if err := tx.CreatePost(ctx, p); err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		if err := tx.IncrementPostsCount(ctx, actorID); err != nil {
			return fmt.Errorf("failed to increment posts count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	author.PostsCount++
	if err := s.awardUser(ctx, author); err != nil {
		log.WithField("user_id", actorID).WithError(err).Error("failed to award achievements")
	}

	p.Author = author
	p.Comments = []*models.Comment{}
	return p, nil
}

// ListPosts returns every post, highest score first, newest first on ties.
func (s *Service) ListPosts(ctx context.Context) ([]*models.Post, error) {
	return s.listPosts(ctx, store.ListPostsParams{SortBy: store.ScoreSortType})
}

// TopPosts ...
func (s *Service) TopPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = s.leaderboardLimit
	}
	return s.listPosts(ctx, store.ListPostsParams{SortBy: store.ScoreSortType, Limit: limit})
}

// PostsByUser returns a user's posts, newest first.
func (s *Service) PostsByUser(ctx context.Context, userID int64) ([]*models.Post, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return s.listPosts(ctx, store.ListPostsParams{SortBy: store.CreatedAtSortType, AuthorID: &userID})
}

// GetPost returns the post with its author and comment tree.
func (s *Service) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, targetErr(err, models.Target{Type: models.TargetPost, ID: id})
	}

	t, err := s.CommentTree(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Comments = t.Roots

	if err := s.attachAuthors(ctx, []*models.Post{p}); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) listPosts(ctx context.Context, params store.ListPostsParams) ([]*models.Post, error) {
	posts, err := s.store.ListPosts(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	if err := s.attachAuthors(ctx, posts); err != nil {
		return nil, err
	}

	return posts, nil
}

func (s *Service) attachAuthors(ctx context.Context, posts []*models.Post) error {
	authors := make(map[int64]*models.User)
	for _, p := range posts {
		u, ok := authors[p.AuthorID]
		if !ok {
			var err error
			u, err = s.store.GetUser(ctx, p.AuthorID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("failed to get author: %w", err)
			}
			authors[p.AuthorID] = u
		}
		p.Author = u
	}
	return nil
}

// uniqueTags trims tags and drops blanks and repeats, keeping first-seen order.
func uniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(t)]; ok {
			continue
		}
		seen[strings.ToLower(t)] = struct{}{}
		out = append(out, t)
	}
	return out
}
