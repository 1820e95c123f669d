package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/insight/backend/internal/middleware"
	"github.com/emilythestrangee/insight/backend/internal/models"
	"github.com/emilythestrangee/insight/backend/internal/service"
)

type CommentHandler struct {
	svc *service.Service
}

func NewCommentHandler(svc *service.Service) *CommentHandler {
	return &CommentHandler{svc: svc}
}

// GetComments returns a post's comment tree
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	t, err := h.svc.CommentTree(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err)
		return
	}

	warnings := make([]string, 0, len(t.Orphans))
	for _, o := range t.Orphans {
		warnings = append(warnings, o.Error())
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": t.Roots,
		"total":    t.Len(),
		"warnings": warnings,
	})
}

// CreateComment adds a comment or, with parent_comment_id, a reply
func (h *CommentHandler) CreateComment(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.svc.SubmitComment(c.Request.Context(), middleware.UserID(c), postID, input.Content, input.ParentCommentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// GetReplies returns the direct replies of a comment
func (h *CommentHandler) GetReplies(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	replies, err := h.svc.Replies(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, replies)
}

// VoteComment casts, flips or removes the user's vote on a comment
func (h *CommentHandler) VoteComment(c *gin.Context) {
	vote(c, h.svc, models.TargetComment)
}
