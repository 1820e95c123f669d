package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/insight/backend/internal/live"
	"github.com/emilythestrangee/insight/backend/internal/service"
	"github.com/emilythestrangee/insight/backend/internal/store"
	"github.com/emilythestrangee/insight/backend/internal/threads"
	"github.com/emilythestrangee/insight/backend/internal/voting"
)

var log = logrus.WithField("package", "handlers")

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Post    *PostHandler
	Comment *CommentHandler
	User    *UserHandler
	Live    *LiveHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(svc *service.Service, hub *live.Hub) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(svc),
		Post:    NewPostHandler(svc),
		Comment: NewCommentHandler(svc),
		User:    NewUserHandler(svc),
		Live:    NewLiveHandler(hub),
	}
}

// respondError maps domain errors to status codes.
func respondError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, voting.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, voting.ErrInvalidVoteType),
		errors.Is(err, threads.ErrEmptyContent),
		errors.Is(err, service.ErrInvalidPost),
		errors.Is(err, service.ErrInvalidUsername):
		status = http.StatusBadRequest
	case errors.Is(err, voting.ErrTargetNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyPostedToday), errors.Is(err, service.ErrUserExists):
		status = http.StatusConflict
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// paramID reads a positive int64 path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func queryLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
