// Package store contains the persistence interface of the service.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/emilythestrangee/insight/backend/internal/models"
)

var (
	// ErrNotFound ...
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("conflict")
)

// Store provides methods for interacting with persistent state.
type Store interface {
	// InTx runs f atomically; f's error rolls back everything done through s.
	InTx(ctx context.Context, f func(s Store) error) error
	// LockTarget blocks concurrent transactions touching the same target
	// until the surrounding transaction ends. ErrNotFound if it does not exist.
	LockTarget(ctx context.Context, target models.Target) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// ListUsersByScore orders by total score desc, then id. limit <= 0 means all.
	ListUsersByScore(ctx context.Context, limit int) ([]*models.User, error)
	// UpdateRanks sets every user's rank to its 1-based position in
	// ListUsersByScore order. Calls are serialized against each other.
	UpdateRanks(ctx context.Context) error
	IncrementPostsCount(ctx context.Context, userID int64) error
	AddUserScore(ctx context.Context, userID int64, delta int) error

	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	ListPosts(ctx context.Context, p ListPostsParams) ([]*models.Post, error)
	CountPosts(ctx context.Context) (int64, error)
	CountPostsSince(ctx context.Context, authorID int64, since time.Time) (int64, error)
	// ResetPostScores removes every post vote and zeroes post scores.
	ResetPostScores(ctx context.Context) error

	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
	// ListComments returns a post's comments ordered by creation time, then id.
	ListComments(ctx context.Context, postID int64) ([]*models.Comment, error)
	ListReplies(ctx context.Context, parentID int64) ([]*models.Comment, error)

	// CurrentVote returns models.VoteNone when there is no vote.
	CurrentVote(ctx context.Context, userID int64, target models.Target) (models.VoteType, error)
	SetVote(ctx context.Context, userID int64, target models.Target, t models.VoteType) error
	DeleteVote(ctx context.Context, userID int64, target models.Target) error
	ListVotes(ctx context.Context, p ListVotesParams) ([]*models.Vote, error)
	CountVotes(ctx context.Context) (int64, error)
	AddTargetScore(ctx context.Context, target models.Target, delta int) (score int, authorID int64, err error)

	ListAchievements(ctx context.Context, userID int64) ([]*models.Achievement, error)
	// AddAchievement returns ErrConflict if the user already has it.
	AddAchievement(ctx context.Context, a *models.Achievement) error
}

// SortType ...
type SortType string

const (
	// ScoreSortType orders by score desc, newest first on ties.
	ScoreSortType SortType = "score"
	// CreatedAtSortType orders newest first.
	CreatedAtSortType SortType = "created_at"
)

// ListPostsParams ...
type ListPostsParams struct {
	SortBy   SortType
	AuthorID *int64
	Limit    int
}

// ListVotesParams ...
type ListVotesParams struct {
	UserID     *int64
	TargetType models.TargetType
	TargetIDs  []int64
}
