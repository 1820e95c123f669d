package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/insight/backend/internal/middleware"
	"github.com/emilythestrangee/insight/backend/internal/models"
	"github.com/emilythestrangee/insight/backend/internal/service"
)

// maxVoteIDs caps the ids accepted by GetMyVotes.
const maxVoteIDs = 200

type UserHandler struct {
	svc *service.Service
}

func NewUserHandler(svc *service.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// GetLeaderboard returns users ranked by total score
func (h *UserHandler) GetLeaderboard(c *gin.Context) {
	entries, err := h.svc.Leaderboard(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// GetUserProfile returns a user with achievements and posts
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	user, err := h.svc.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	posts, err := h.svc.PostsByUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"posts": posts,
	})
}

// GetDailyStats returns today's top users and posts
func (h *UserHandler) GetDailyStats(c *gin.Context) {
	stats, err := h.svc.DailyStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetMyVotes returns the caller's votes, e.g. ?target_type=post&ids=1,2,3
func (h *UserHandler) GetMyVotes(c *gin.Context) {
	targetType := models.TargetType(c.DefaultQuery("target_type", string(models.TargetPost)))
	if !targetType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target_type"})
		return
	}

	var ids []int64
	for _, raw := range strings.Split(c.Query("ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ids"})
			return
		}
		ids = append(ids, id)
		if len(ids) > maxVoteIDs {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("At most %d ids allowed", maxVoteIDs)})
			return
		}
	}

	votes, err := h.svc.MyVotes(c.Request.Context(), middleware.UserID(c), targetType, ids)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make(map[string]models.VoteType, len(votes))
	for id, v := range votes {
		out[strconv.FormatInt(id, 10)] = v
	}

	c.JSON(http.StatusOK, gin.H{"target_type": targetType, "votes": out})
}
