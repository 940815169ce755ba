package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"mailgenie/internal/repository"
)

type AccountHandler struct {
	accountRepo *repository.AccountRepository
}

func NewAccountHandler(accountRepo *repository.AccountRepository) *AccountHandler {
	return &AccountHandler{
		accountRepo: accountRepo,
	}
}

type accountResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	LastCheck *time.Time `json:"last_check,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ListAccounts handles GET /accounts. Tokens never leave the server.
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	accounts, err := h.accountRepo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch accounts"})
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse{
			ID:        a.ID,
			Email:     a.Email,
			LastCheck: a.LastCheck,
			CreatedAt: a.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"accounts": out})
}

// DeleteAccount handles DELETE /accounts/:id
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.accountRepo.DeleteAccount(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
