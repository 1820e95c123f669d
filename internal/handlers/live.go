package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/insight/backend/internal/live"
)

type LiveHandler struct {
	hub *live.Hub
}

func NewLiveHandler(hub *live.Hub) *LiveHandler {
	return &LiveHandler{hub: hub}
}

// Stream upgrades to a websocket carrying score updates
func (h *LiveHandler) Stream(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}
