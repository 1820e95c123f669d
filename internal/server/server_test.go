package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/insight/backend/internal/handlers"
	"github.com/emilythestrangee/insight/backend/internal/identity"
	"github.com/emilythestrangee/insight/backend/internal/live"
	"github.com/emilythestrangee/insight/backend/internal/models"
	"github.com/emilythestrangee/insight/backend/internal/service"
	"github.com/emilythestrangee/insight/backend/internal/store/memory"
)

type api struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T, health HealthChecker) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memory.New()
	tokens := identity.NewTokens("test-secret", time.Hour)
	hub := live.NewHub()
	svc := service.New(st, identity.New(st), tokens, service.WithPublisher(hub))

	s := &Server{
		handler: handlers.NewHandler(svc, hub),
		tokens:  tokens,
		health:  health,
		origins: []string{"*"},
	}
	return &api{t: t, router: s.RegisterRoutes()}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a *api) register(name string) models.AuthResponse {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Username: name,
		Email:    name + "@example.com",
		Password: "password",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.AuthResponse](a.t, w)
}

func (a *api) createPost(token string) models.Post {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/posts", token, models.CreatePostRequest{Title: "Today", Content: "I learned"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Post](a.t, w)
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func TestHealth(t *testing.T) {
	w := newAPI(t, nil).do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

type downChecker struct{}

func (downChecker) Health(context.Context) map[string]string {
	return map[string]string{"status": "down", "error": "db down"}
}

func TestHealth_Down(t *testing.T) {
	w := newAPI(t, downChecker{}).do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "down", decode[map[string]string](t, w)["status"])
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t, nil)
	reg := a.register("alice")
	require.NotEmpty(t, reg.Token)

	w := a.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Username: "alice", Email: "other@example.com", Password: "password",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "bob"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Username: "   ", Email: "blank@example.com", Password: "password",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: "alice", Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: "alice", Password: "password"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[models.AuthResponse](t, w)

	w = a.do(http.MethodGet, "/api/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "alice", decode[models.User](t, w).Username)

	w = a.do(http.MethodGet, "/api/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/me", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostsAndVotes(t *testing.T) {
	a := newAPI(t, nil)
	author := a.register("author")
	voter := a.register("voter")

	post := a.createPost(author.Token)
	assert.Equal(t, author.User.ID, post.AuthorID)

	w := a.do(http.MethodPost, "/api/posts", author.Token, models.CreatePostRequest{Title: "Again", Content: "Again"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/api/posts", voter.Token, models.CreatePostRequest{Title: " ", Content: "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	path := "/api/posts/" + id(post.ID) + "/vote"

	w = a.do(http.MethodPost, path, "", map[string]string{"type": "up"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, path, voter.Token, map[string]string{"type": "sideways"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/posts/9999/vote", voter.Token, map[string]string{"type": "up"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPost, "/api/posts/abc/vote", voter.Token, map[string]string{"type": "up"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	for _, step := range []struct {
		vote  string
		score int
		held  models.VoteType
	}{
		{"up", 1, models.VoteUp},
		{"down", -1, models.VoteDown},
		{"down", 0, models.VoteNone},
	} {
		w = a.do(http.MethodPost, path, voter.Token, map[string]string{"type": step.vote})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		res := decode[service.VoteResult](t, w)
		require.Equal(t, step.score, res.Score)
		require.Equal(t, step.held, res.Vote)
	}

	w = a.do(http.MethodPost, path, voter.Token, map[string]string{"type": "up"})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/votes?target_type=post&ids="+id(post.ID)+",12345", voter.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[struct {
		TargetType models.TargetType          `json:"target_type"`
		Votes      map[string]models.VoteType `json:"votes"`
	}](t, w)
	require.Equal(t, models.TargetPost, mine.TargetType)
	require.Equal(t, map[string]models.VoteType{id(post.ID): models.VoteUp}, mine.Votes)

	w = a.do(http.MethodGet, "/api/votes?target_type=user", voter.Token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	many := make([]string, 201)
	for i := range many {
		many[i] = strconv.Itoa(i + 1)
	}
	w = a.do(http.MethodGet, "/api/votes?ids="+strings.Join(many, ","), voter.Token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/api/votes?ids="+strings.Join(many[:200], ","), voter.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/posts/"+id(post.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.Post](t, w)
	require.Equal(t, 1, got.Score)
	require.Equal(t, "author", got.Author.Username)

	w = a.do(http.MethodGet, "/api/posts/9999", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, "/api/posts/top?limit=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]models.Post](t, w), 1)

	w = a.do(http.MethodGet, "/api/posts?author_id="+id(author.User.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]models.Post](t, w), 1)

	w = a.do(http.MethodGet, "/api/users/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	board := decode[[]models.LeaderboardEntry](t, w)
	require.Len(t, board, 2)
	require.Equal(t, author.User.ID, board[0].UserID)
	require.Equal(t, 1, board[0].Score)
	require.Equal(t, 1, board[0].Rank)

	w = a.do(http.MethodGet, "/api/users/"+id(author.User.ID)+"/profile", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/users/9999/profile", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, "/api/stats/daily", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[models.DailyStats](t, w)
	require.Equal(t, int64(1), stats.TotalPosts)
	require.Equal(t, int64(1), stats.TotalVotes)
}

func TestComments(t *testing.T) {
	a := newAPI(t, nil)
	u := a.register("alice")
	post := a.createPost(u.Token)
	path := "/api/posts/" + id(post.ID) + "/comments"

	w := a.do(http.MethodPost, path, u.Token, models.CreateCommentRequest{Content: "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, path, "", models.CreateCommentRequest{Content: "hi"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, path, u.Token, models.CreateCommentRequest{Content: "root"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	root := decode[models.Comment](t, w)

	w = a.do(http.MethodPost, path, u.Token, models.CreateCommentRequest{Content: "reply", ParentCommentID: &root.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	reply := decode[models.Comment](t, w)

	missing := int64(9999)
	w = a.do(http.MethodPost, path, u.Token, models.CreateCommentRequest{Content: "reply", ParentCommentID: &missing})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tree := decode[struct {
		Comments []*models.Comment `json:"comments"`
		Total    int               `json:"total"`
		Warnings []string          `json:"warnings"`
	}](t, w)
	require.Equal(t, 2, tree.Total)
	require.Empty(t, tree.Warnings)
	require.Len(t, tree.Comments, 1)
	require.Len(t, tree.Comments[0].Replies, 1)
	require.Equal(t, reply.ID, tree.Comments[0].Replies[0].ID)

	w = a.do(http.MethodGet, "/api/comments/"+id(root.ID)+"/replies", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]models.Comment](t, w), 1)

	w = a.do(http.MethodPost, "/api/comments/"+id(reply.ID)+"/vote", u.Token, map[string]string{"type": "down"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, -1, decode[service.VoteResult](t, w).Score)

	w = a.do(http.MethodGet, "/api/posts/9999/comments", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
