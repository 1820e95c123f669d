// Package memory is an in-process implementation of the store interface.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/emilythestrangee/insight/backend/internal/models"
	"github.com/emilythestrangee/insight/backend/internal/store"
)

type voteKey struct {
	userID int64
	target models.Target
}

type state struct {
	seq          int64
	users        map[int64]*models.User
	posts        map[int64]*models.Post
	comments     map[int64]*models.Comment
	votes        map[voteKey]*models.Vote
	achievements map[int64][]*models.Achievement
}

func newState() *state {
	return &state{
		users:        make(map[int64]*models.User),
		posts:        make(map[int64]*models.Post),
		comments:     make(map[int64]*models.Comment),
		votes:        make(map[voteKey]*models.Vote),
		achievements: make(map[int64][]*models.Achievement),
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *state) clone() *state {
	out := newState()
	out.seq = s.seq
	for k, v := range s.users {
		out.users[k] = copyUser(v)
	}
	for k, v := range s.posts {
		out.posts[k] = copyPost(v)
	}
	for k, v := range s.comments {
		out.comments[k] = copyComment(v)
	}
	for k, v := range s.votes {
		cp := *v
		out.votes[k] = &cp
	}
	for k, v := range s.achievements {
		list := make([]*models.Achievement, len(v))
		for i, a := range v {
			cp := *a
			list[i] = &cp
		}
		out.achievements[k] = list
	}
	return out
}

// Store keeps everything in maps. Writes and transactions are serialized;
// a transaction works on a copy that replaces the state on success.
type Store struct {
	mu   *sync.RWMutex
	txMu *sync.Mutex
	data *state
	tx   bool
	now  func() time.Time
}

// Option configures Store.
type Option func(s *Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		mu:   &sync.RWMutex{},
		txMu: &sync.Mutex{},
		data: newState(),
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var _ store.Store = (*Store)(nil)

func (s *Store) read(f func(d *state) error) error {
	if s.tx {
		return f(s.data)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return f(s.data)
}

func (s *Store) write(f func(d *state) error) error {
	if s.tx {
		return f(s.data)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(s.data)
}

// InTx ...
func (s *Store) InTx(ctx context.Context, f func(s store.Store) error) error {
	if s.tx {
		return f(s)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	data := s.data.clone()
	s.mu.RUnlock()

	tx := &Store{data: data, tx: true, now: s.now}
	if err := f(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()

	return nil
}

// LockTarget only checks existence: transactions are already serialized.
func (s *Store) LockTarget(_ context.Context, target models.Target) error {
	return s.read(func(d *state) error {
		if _, _, ok := d.target(target); !ok {
			return store.ErrNotFound
		}
		return nil
	})
}

func (d *state) target(t models.Target) (*int, int64, bool) {
	switch t.Type {
	case models.TargetPost:
		if p, ok := d.posts[t.ID]; ok {
			return &p.Score, p.AuthorID, true
		}
	case models.TargetComment:
		if c, ok := d.comments[t.ID]; ok {
			return &c.Score, c.UserID, true
		}
	}
	return nil, 0, false
}

// CreateUser ...
func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	return s.write(func(d *state) error {
		for _, v := range d.users {
			if v.Username == u.Username || v.Email == u.Email {
				return store.ErrConflict
			}
		}
		u.ID = d.nextID()
		u.JoinedAt = s.now()
		u.UpdatedAt = u.JoinedAt
		d.users[u.ID] = copyUser(u)
		return nil
	})
}

// GetUser ...
func (s *Store) GetUser(_ context.Context, id int64) (*models.User, error) {
	var out *models.User
	err := s.read(func(d *state) error {
		u, ok := d.users[id]
		if !ok {
			return store.ErrNotFound
		}
		out = copyUser(u)
		return nil
	})
	return out, err
}

// GetUserByUsername ...
func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	var out *models.User
	err := s.read(func(d *state) error {
		for _, u := range d.users {
			if u.Username == username {
				out = copyUser(u)
				return nil
			}
		}
		return store.ErrNotFound
	})
	return out, err
}

// ListUsersByScore ...
func (s *Store) ListUsersByScore(_ context.Context, limit int) ([]*models.User, error) {
	var out []*models.User
	err := s.read(func(d *state) error {
		out = make([]*models.User, 0, len(d.users))
		for _, u := range d.users {
			out = append(out, copyUser(u))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].ID < out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// UpdateRanks ...
func (s *Store) UpdateRanks(_ context.Context) error {
	return s.write(func(d *state) error {
		users := make([]*models.User, 0, len(d.users))
		for _, u := range d.users {
			users = append(users, u)
		}
		sort.Slice(users, func(i, j int) bool {
			if users[i].TotalScore != users[j].TotalScore {
				return users[i].TotalScore > users[j].TotalScore
			}
			return users[i].ID < users[j].ID
		})
		for i, u := range users {
			u.Rank = i + 1
		}
		return nil
	})
}

// IncrementPostsCount ...
func (s *Store) IncrementPostsCount(_ context.Context, userID int64) error {
	return s.write(func(d *state) error {
		u, ok := d.users[userID]
		if !ok {
			return store.ErrNotFound
		}
		u.PostsCount++
		return nil
	})
}

// AddUserScore ...
func (s *Store) AddUserScore(_ context.Context, userID int64, delta int) error {
	return s.write(func(d *state) error {
		u, ok := d.users[userID]
		if !ok {
			return store.ErrNotFound
		}
		u.TotalScore += delta
		return nil
	})
}

// CreatePost ...
func (s *Store) CreatePost(_ context.Context, p *models.Post) error {
	return s.write(func(d *state) error {
		if _, ok := d.users[p.AuthorID]; !ok {
			return store.ErrNotFound
		}
		p.ID = d.nextID()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = s.now()
		}
		p.UpdatedAt = p.CreatedAt
		d.posts[p.ID] = copyPost(p)
		return nil
	})
}

// GetPost ...
func (s *Store) GetPost(_ context.Context, id int64) (*models.Post, error) {
	var out *models.Post
	err := s.read(func(d *state) error {
		p, ok := d.posts[id]
		if !ok {
			return store.ErrNotFound
		}
		out = copyPost(p)
		return nil
	})
	return out, err
}

// ListPosts ...
func (s *Store) ListPosts(_ context.Context, p store.ListPostsParams) ([]*models.Post, error) {
	var out []*models.Post
	err := s.read(func(d *state) error {
		for _, v := range d.posts {
			if p.AuthorID != nil && v.AuthorID != *p.AuthorID {
				continue
			}
			out = append(out, copyPost(v))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	newer := func(a, b *models.Post) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	}

	sort.Slice(out, func(i, j int) bool {
		if p.SortBy == store.ScoreSortType && out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return newer(out[i], out[j])
	})

	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}

	return out, nil
}

// CountPosts ...
func (s *Store) CountPosts(_ context.Context) (int64, error) {
	var n int64
	err := s.read(func(d *state) error {
		n = int64(len(d.posts))
		return nil
	})
	return n, err
}

// CountPostsSince ...
func (s *Store) CountPostsSince(_ context.Context, authorID int64, since time.Time) (int64, error) {
	var n int64
	err := s.read(func(d *state) error {
		for _, p := range d.posts {
			if p.AuthorID == authorID && !p.CreatedAt.Before(since) {
				n++
			}
		}
		return nil
	})
	return n, err
}

// ResetPostScores ...
func (s *Store) ResetPostScores(_ context.Context) error {
	return s.write(func(d *state) error {
		for k := range d.votes {
			if k.target.Type == models.TargetPost {
				delete(d.votes, k)
			}
		}
		for _, p := range d.posts {
			p.Score = 0
		}
		return nil
	})
}

// CreateComment ...
func (s *Store) CreateComment(_ context.Context, c *models.Comment) error {
	return s.write(func(d *state) error {
		if _, ok := d.posts[c.PostID]; !ok {
			return store.ErrNotFound
		}
		if c.ParentCommentID != nil {
			if _, ok := d.comments[*c.ParentCommentID]; !ok {
				return store.ErrNotFound
			}
		}
		c.ID = d.nextID()
		if c.CreatedAt.IsZero() {
			c.CreatedAt = s.now()
		}
		d.comments[c.ID] = copyComment(c)
		return nil
	})
}

// GetComment ...
func (s *Store) GetComment(_ context.Context, id int64) (*models.Comment, error) {
	var out *models.Comment
	err := s.read(func(d *state) error {
		c, ok := d.comments[id]
		if !ok {
			return store.ErrNotFound
		}
		out = copyComment(c)
		return nil
	})
	return out, err
}

// ListComments ...
func (s *Store) ListComments(_ context.Context, postID int64) ([]*models.Comment, error) {
	return s.filterComments(func(c *models.Comment) bool {
		return c.PostID == postID
	})
}

// ListReplies ...
func (s *Store) ListReplies(_ context.Context, parentID int64) ([]*models.Comment, error) {
	return s.filterComments(func(c *models.Comment) bool {
		return c.ParentCommentID != nil && *c.ParentCommentID == parentID
	})
}

func (s *Store) filterComments(keep func(c *models.Comment) bool) ([]*models.Comment, error) {
	out := []*models.Comment{}
	err := s.read(func(d *state) error {
		for _, c := range d.comments {
			if keep(c) {
				out = append(out, copyComment(c))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

// CurrentVote ...
func (s *Store) CurrentVote(_ context.Context, userID int64, target models.Target) (models.VoteType, error) {
	vt := models.VoteNone
	err := s.read(func(d *state) error {
		if v, ok := d.votes[voteKey{userID: userID, target: target}]; ok {
			vt = v.Type
		}
		return nil
	})
	return vt, err
}

// SetVote ...
func (s *Store) SetVote(_ context.Context, userID int64, target models.Target, t models.VoteType) error {
	return s.write(func(d *state) error {
		k := voteKey{userID: userID, target: target}
		now := s.now()
		if v, ok := d.votes[k]; ok {
			v.Type = t
			v.UpdatedAt = now
			return nil
		}
		d.votes[k] = &models.Vote{
			ID:         d.nextID(),
			UserID:     userID,
			TargetType: target.Type,
			TargetID:   target.ID,
			Type:       t,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return nil
	})
}

// DeleteVote ...
func (s *Store) DeleteVote(_ context.Context, userID int64, target models.Target) error {
	return s.write(func(d *state) error {
		delete(d.votes, voteKey{userID: userID, target: target})
		return nil
	})
}

// ListVotes ...
func (s *Store) ListVotes(_ context.Context, p store.ListVotesParams) ([]*models.Vote, error) {
	ids := make(map[int64]struct{}, len(p.TargetIDs))
	for _, id := range p.TargetIDs {
		ids[id] = struct{}{}
	}

	out := []*models.Vote{}
	err := s.read(func(d *state) error {
		for k, v := range d.votes {
			if p.UserID != nil && k.userID != *p.UserID {
				continue
			}
			if p.TargetType != "" && k.target.Type != p.TargetType {
				continue
			}
			if len(ids) > 0 {
				if _, ok := ids[k.target.ID]; !ok {
					continue
				}
			}
			cp := *v
			out = append(out, &cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// CountVotes ...
func (s *Store) CountVotes(_ context.Context) (int64, error) {
	var n int64
	err := s.read(func(d *state) error {
		n = int64(len(d.votes))
		return nil
	})
	return n, err
}

// AddTargetScore ...
func (s *Store) AddTargetScore(_ context.Context, target models.Target, delta int) (int, int64, error) {
	var (
		score    int
		authorID int64
	)
	err := s.write(func(d *state) error {
		ptr, author, ok := d.target(target)
		if !ok {
			return store.ErrNotFound
		}
		*ptr += delta
		score, authorID = *ptr, author
		return nil
	})
	return score, authorID, err
}

// ListAchievements ...
func (s *Store) ListAchievements(_ context.Context, userID int64) ([]*models.Achievement, error) {
	out := []*models.Achievement{}
	err := s.read(func(d *state) error {
		for _, a := range d.achievements[userID] {
			cp := *a
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

// AddAchievement ...
func (s *Store) AddAchievement(_ context.Context, a *models.Achievement) error {
	return s.write(func(d *state) error {
		if _, ok := d.users[a.UserID]; !ok {
			return store.ErrNotFound
		}
		for _, v := range d.achievements[a.UserID] {
			if v.Name == a.Name {
				return store.ErrConflict
			}
		}
		a.ID = d.nextID()
		if a.UnlockedAt.IsZero() {
			a.UnlockedAt = s.now()
		}
		cp := *a
		d.achievements[a.UserID] = append(d.achievements[a.UserID], &cp)
		return nil
	})
}

func copyUser(u *models.User) *models.User {
	cp := *u
	cp.Achievements = nil
	return &cp
}

func copyPost(p *models.Post) *models.Post {
	cp := *p
	cp.Author = nil
	cp.Comments = nil
	if p.Tags != nil {
		cp.Tags = append([]string{}, p.Tags...)
	}
	return &cp
}

func copyComment(c *models.Comment) *models.Comment {
	cp := *c
	cp.Replies = nil
	if c.ParentCommentID != nil {
		id := *c.ParentCommentID
		cp.ParentCommentID = &id
	}
	return &cp
}
