package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/emilythestrangee/insight/backend/internal/models"
	"github.com/emilythestrangee/insight/backend/internal/store"
	"github.com/emilythestrangee/insight/backend/internal/threads"
	"github.com/emilythestrangee/insight/backend/internal/voting"
)

// SubmitComment adds a top level comment, or a reply when parentID is set.
// The parent must belong to the same post.
func (s *Service) SubmitComment(ctx context.Context, actorID, postID int64, content string, parentID *int64) (*models.Comment, error) {
	if _, err := s.resolve(ctx, actorID); err != nil {
		return nil, err
	}

	content, err := threads.NormalizeContent(content)
	if err != nil {
		return nil, err
	}

	c := &models.Comment{
		PostID:          postID,
		UserID:          actorID,
		Content:         content,
		ParentCommentID: parentID,
		Replies:         []*models.Comment{},
		CreatedAt:       s.now().UTC(),
	}

	err = s.store.InTx(ctx, func(tx store.Store) error {
		if _, err := tx.GetPost(ctx, postID); err != nil {
			return targetErr(err, models.Target{Type: models.TargetPost, ID: postID})
		}

		if parentID != nil {
			parent, err := tx.GetComment(ctx, *parentID)
			if err != nil {
				return targetErr(err, models.Target{Type: models.TargetComment, ID: *parentID})
			}
			if parent.PostID != postID {
				return fmt.Errorf("%w: comment %d is not on post %d", voting.ErrTargetNotFound, *parentID, postID)
			}
		}

		if err := tx.CreateComment(ctx, c); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// CommentTree loads a post's comments and assembles them into a thread.
// Orphaned replies are kept as roots and logged.
func (s *Service) CommentTree(ctx context.Context, postID int64) (*threads.Thread, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return nil, targetErr(err, models.Target{Type: models.TargetPost, ID: postID})
	}

	flat, err := s.store.ListComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	t := threads.Build(flat)
	for _, o := range t.Orphans {
		log.WithField("post_id", postID).WithError(o).Warn("orphan reply kept as top level comment")
	}

	return t, nil
}

// Replies returns the direct replies of a comment in order.
func (s *Service) Replies(ctx context.Context, commentID int64) ([]*models.Comment, error) {
	if _, err := s.store.GetComment(ctx, commentID); err != nil {
		return nil, targetErr(err, models.Target{Type: models.TargetComment, ID: commentID})
	}

	out, err := s.store.ListReplies(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	for _, c := range out {
		c.Replies = []*models.Comment{}
	}

	return out, nil
}

func targetErr(err error, target models.Target) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", voting.ErrTargetNotFound, target)
	}
	return fmt.Errorf("failed to get %s: %w", target, err)
}
