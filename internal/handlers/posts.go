package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/insight/backend/internal/middleware"
	"github.com/emilythestrangee/insight/backend/internal/models"
	"github.com/emilythestrangee/insight/backend/internal/service"
)

type PostHandler struct {
	svc *service.Service
}

func NewPostHandler(svc *service.Service) *PostHandler {
	return &PostHandler{svc: svc}
}

type voteRequest struct {
	Type string `json:"type" binding:"required"`
}

// GetPosts returns all posts by score, or one author's posts with ?author_id=
func (h *PostHandler) GetPosts(c *gin.Context) {
	var (
		posts []*models.Post
		err   error
	)

	if raw := c.Query("author_id"); raw != "" {
		authorID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid author_id"})
			return
		}
		posts, err = h.svc.PostsByUser(c.Request.Context(), authorID)
	} else {
		posts, err = h.svc.ListPosts(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

// GetTopPosts returns the highest scored posts
func (h *PostHandler) GetTopPosts(c *gin.Context) {
	posts, err := h.svc.TopPosts(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post with its comment tree
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	post, err := h.svc.GetPost(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// CreatePost creates the user's post of the day
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.svc.CreatePost(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// VotePost casts, flips or removes the user's vote on a post
func (h *PostHandler) VotePost(c *gin.Context) {
	vote(c, h.svc, models.TargetPost)
}

func vote(c *gin.Context, svc *service.Service, targetType models.TargetType) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input voteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := svc.SubmitVote(c.Request.Context(), middleware.UserID(c), models.Target{Type: targetType, ID: id}, input.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
