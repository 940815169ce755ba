package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"mailgenie/pkg/outbox"
)

const defaultReplayLimit = 100

type EventHandler struct {
	replay *outbox.ReplayService
}

func NewEventHandler(replay *outbox.ReplayService) *EventHandler {
	return &EventHandler{
		replay: replay,
	}
}

// ReplayFailedEvents handles POST /events/replay
func (h *EventHandler) ReplayFailedEvents(c *gin.Context) {
	limit := defaultReplayLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	replayed, err := h.replay.ReplayFailedEvents(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to replay events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"replayed": replayed})
}
