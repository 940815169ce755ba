package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"mailgenie/internal/repository"
)

const defaultLogLimit = 50

type LogHandler struct {
	logRepo     *repository.LogRepository
	accountRepo *repository.AccountRepository
}

func NewLogHandler(logRepo *repository.LogRepository, accountRepo *repository.AccountRepository) *LogHandler {
	return &LogHandler{
		logRepo:     logRepo,
		accountRepo: accountRepo,
	}
}

// ListLogs handles GET /accounts/:id/logs
func (h *LogHandler) ListLogs(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	accountID := c.Param("id")
	if !h.ownsAccount(c, userID, accountID) {
		return
	}

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since timestamp"})
			return
		}
		logs, err := h.logRepo.ListSince(c.Request.Context(), accountID, since)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch logs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs})
		return
	}

	limit := defaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	logs, err := h.logRepo.ListByAccount(c.Request.Context(), accountID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// ownsAccount verifies the account belongs to the authenticated user.
func (h *LogHandler) ownsAccount(c *gin.Context, userID int, accountID string) bool {
	_, err := h.accountRepo.GetAccount(c.Request.Context(), userID, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch account"})
		return false
	}
	return true
}
