// Package service is the application layer: it resolves the acting user and
// runs voting, threading and post rules against the store in transactions.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/insight/backend/internal/identity"
	"github.com/emilythestrangee/insight/backend/internal/models"
	"github.com/emilythestrangee/insight/backend/internal/store"
	"github.com/emilythestrangee/insight/backend/internal/voting"
)

var log = logrus.WithField("package", "service")

var (
	// ErrAlreadyPostedToday is returned on a second post in the same calendar day.
	ErrAlreadyPostedToday = errors.New("already posted today")
	// ErrInvalidPost ...
	ErrInvalidPost = errors.New("title and content are required")
	// ErrUserExists is returned when username or email is taken.
	ErrUserExists = errors.New("username or email already exists")
	// ErrInvalidCredentials ...
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidUsername is returned for usernames that are blank after trimming.
	ErrInvalidUsername = errors.New("username is required")
)

// Publisher receives committed score changes.
type Publisher interface {
	PublishScore(target models.Target, score int)
}

// TokenIssuer signs access tokens for users.
type TokenIssuer interface {
	Issue(u *models.User) (string, error)
}

// Service ...
type Service struct {
	store      store.Store
	identity   identity.Identity
	tokens     TokenIssuer
	ledger     *voting.Ledger
	aggregator voting.Aggregator
	publisher  Publisher

	loc              *time.Location
	now              func() time.Time
	leaderboardLimit int
}

// Option configures Service.
type Option func(s *Service)

// WithPublisher sets the receiver of score changes.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithLocation sets the timezone calendar days are counted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.loc = loc
	}
}

// WithClock ...
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLeaderboardLimit sets the default leaderboard size.
func WithLeaderboardLimit(n int) Option {
	return func(s *Service) {
		s.leaderboardLimit = n
	}
}

// New creates a Service. One Service (and so one ledger) must serve all callers.
func New(st store.Store, id identity.Identity, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		store:            st,
		identity:         id,
		tokens:           tokens,
		ledger:           voting.NewLedger(),
		loc:              time.UTC,
		now:              time.Now,
		leaderboardLimit: 10,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// resolve fails closed: anything but a resolved user is ErrUnauthorized,
// except infrastructure errors.
func (s *Service) resolve(ctx context.Context, actorID int64) (*models.User, error) {
	if actorID <= 0 {
		return nil, voting.ErrUnauthorized
	}

	u, err := s.identity.Resolve(ctx, actorID)
	if err != nil {
		if errors.Is(err, identity.ErrUnknownUser) {
			return nil, voting.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if u == nil {
		return nil, voting.ErrUnauthorized
	}

	return u, nil
}

// startOfDay returns midnight of t's day in the service timezone.
func (s *Service) startOfDay(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}
