// Package postgres is implementation of store interface on gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/insight/backend/internal/models"
	"github.com/emilythestrangee/insight/backend/internal/store"
)

var log = logrus.WithField("layer", "storage").WithField("package", "postgres")

const (
	uniqueViolation = "23505"
	// ranksLockID is the pg_advisory_xact_lock key guarding UpdateRanks.
	ranksLockID = 7341
)

type pg struct {
	db *gorm.DB
}

// New creates new instance of pg.
func New(db *gorm.DB) store.Store {
	return pg{db: db}
}

func (s pg) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return fmt.Errorf("failed to query: %w", err)
}

func tableOf(t models.TargetType) (table, authorColumn string, err error) {
	switch t {
	case models.TargetPost:
		return "posts", "author_id", nil
	case models.TargetComment:
		return "comments", "user_id", nil
	default:
		return "", "", fmt.Errorf("%w: target type %q", store.ErrNotFound, t)
	}
}

func (s pg) InTx(ctx context.Context, f func(s store.Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return f(pg{db: tx})
	})
}

func (s pg) LockTarget(ctx context.Context, target models.Target) error {
	table, _, err := tableOf(target.Type)
	if err != nil {
		return err
	}

	var id int64
	res := s.conn(ctx).Table(table).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").Where("id = ?", target.ID).
		Limit(1).Scan(&id)
	if res.Error != nil {
		return fmt.Errorf("failed to lock %s: %w", target, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s pg) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.conn(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}

	return &u, nil
}

func (s pg) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err)
	}

	return &u, nil
}

func (s pg) ListUsersByScore(ctx context.Context, limit int) ([]*models.User, error) {
	q := s.conn(ctx).Order("total_score DESC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []*models.User
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return out, nil
}

// UpdateRanks rewrites ranks in one statement. The advisory lock makes
// concurrent recomputations queue up instead of locking user rows in
// conflicting orders.
func (s pg) UpdateRanks(ctx context.Context) error {
	return s.conn(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Exec("SELECT pg_advisory_xact_lock(?)", ranksLockID).Error; err != nil {
			return fmt.Errorf("failed to lock ranks: %w", err)
		}

		if err := db.Exec(`
			UPDATE users u SET rank = r.position
			FROM (SELECT id, ROW_NUMBER() OVER (ORDER BY total_score DESC, id ASC) AS position FROM users) r
			WHERE u.id = r.id AND u.rank <> r.position`,
		).Error; err != nil {
			return fmt.Errorf("failed to exec: %w", err)
		}

		return nil
	})
}

func (s pg) IncrementPostsCount(ctx context.Context, userID int64) error {
	return s.incrementUser(ctx, userID, "posts_count", 1)
}

func (s pg) AddUserScore(ctx context.Context, userID int64, delta int) error {
	return s.incrementUser(ctx, userID, "total_score", delta)
}

func (s pg) incrementUser(ctx context.Context, userID int64, column string, delta int) error {
	res := s.conn(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("failed to exec: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s pg) CreatePost(ctx context.Context, p *models.Post) error {
	if err := s.conn(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	var p models.Post
	if err := s.conn(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}

	return &p, nil
}

func (s pg) ListPosts(ctx context.Context, p store.ListPostsParams) ([]*models.Post, error) {
	q := s.conn(ctx).Model(&models.Post{})
	if p.AuthorID != nil {
		q = q.Where("author_id = ?", *p.AuthorID)
	}
	if p.SortBy == store.ScoreSortType {
		q = q.Order("score DESC")
	}
	q = q.Order("created_at DESC").Order("id DESC")
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}

	var out []*models.Post
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return out, nil
}

func (s pg) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&models.Post{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to query: %w", err)
	}

	return n, nil
}

func (s pg) CountPostsSince(ctx context.Context, authorID int64, since time.Time) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&models.Post{}).
		Where("author_id = ? AND created_at >= ?", authorID, since.UTC()).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to query: %w", err)
	}

	return n, nil
}

func (s pg) ResetPostScores(ctx context.Context) error {
	return s.conn(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Where("target_type = ?", models.TargetPost).Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("failed to delete post votes: %w", err)
		}
		if err := db.Model(&models.Post{}).Where("score <> 0").Update("score", 0).Error; err != nil {
			return fmt.Errorf("failed to reset scores: %w", err)
		}
		return nil
	})
}

func (s pg) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := s.conn(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	var c models.Comment
	if err := s.conn(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}

	return &c, nil
}

func (s pg) ListComments(ctx context.Context, postID int64) ([]*models.Comment, error) {
	return s.findComments(ctx, "post_id = ?", postID)
}

func (s pg) ListReplies(ctx context.Context, parentID int64) ([]*models.Comment, error) {
	return s.findComments(ctx, "parent_comment_id = ?", parentID)
}

func (s pg) findComments(ctx context.Context, cond string, arg int64) ([]*models.Comment, error) {
	out := []*models.Comment{}
	if err := s.conn(ctx).Where(cond, arg).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return out, nil
}

func (s pg) CurrentVote(ctx context.Context, userID int64, target models.Target) (models.VoteType, error) {
	var v models.Vote
	err := s.conn(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, target.Type, target.ID).
		Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.VoteNone, nil
	}
	if err != nil {
		return models.VoteNone, fmt.Errorf("failed to query: %w", err)
	}

	return v.Type, nil
}

func (s pg) SetVote(ctx context.Context, userID int64, target models.Target, t models.VoteType) error {
	v := models.Vote{
		UserID:     userID,
		TargetType: target.Type,
		TargetID:   target.ID,
		Type:       t,
	}

	if err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_type"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
	}).Create(&v).Error; err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) DeleteVote(ctx context.Context, userID int64, target models.Target) error {
	if err := s.conn(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, target.Type, target.ID).
		Delete(&models.Vote{}).Error; err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) ListVotes(ctx context.Context, p store.ListVotesParams) ([]*models.Vote, error) {
	q := s.conn(ctx).Model(&models.Vote{})
	if p.UserID != nil {
		q = q.Where("user_id = ?", *p.UserID)
	}
	if p.TargetType != "" {
		q = q.Where("target_type = ?", p.TargetType)
	}
	if len(p.TargetIDs) > 0 {
		q = q.Where("target_id IN ?", p.TargetIDs)
	}

	out := []*models.Vote{}
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return out, nil
}

func (s pg) CountVotes(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&models.Vote{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to query: %w", err)
	}

	return n, nil
}

func (s pg) AddTargetScore(ctx context.Context, target models.Target, delta int) (int, int64, error) {
	table, authorColumn, err := tableOf(target.Type)
	if err != nil {
		return 0, 0, err
	}

	var row struct {
		Score    int
		AuthorID int64
	}
	res := s.conn(ctx).Raw(
		fmt.Sprintf(`UPDATE %s SET score = score + ? WHERE id = ? RETURNING score, %s AS author_id`, table, authorColumn),
		delta, target.ID,
	).Scan(&row)
	if res.Error != nil {
		return 0, 0, fmt.Errorf("failed to exec: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, 0, store.ErrNotFound
	}

	return row.Score, row.AuthorID, nil
}

func (s pg) ListAchievements(ctx context.Context, userID int64) ([]*models.Achievement, error) {
	out := []*models.Achievement{}
	if err := s.conn(ctx).Where("user_id = ?", userID).
		Order("unlocked_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return out, nil
}

func (s pg) AddAchievement(ctx context.Context, a *models.Achievement) error {
	if err := s.conn(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			log.WithField("user_id", a.UserID).WithField("name", a.Name).Debug("achievement already awarded")
			return store.ErrConflict
		}
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}
