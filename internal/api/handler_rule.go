package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"mailgenie/internal/model"
	"mailgenie/internal/repository"
)

type RuleHandler struct {
	ruleRepo *repository.RuleRepository
}

func NewRuleHandler(ruleRepo *repository.RuleRepository) *RuleHandler {
	return &RuleHandler{
		ruleRepo: ruleRepo,
	}
}

type ruleRequest struct {
	AccountIDs []string              `json:"account_ids"`
	Name       string                `json:"name" binding:"required"`
	Type       string                `json:"type"`
	Conditions *model.RuleConditions `json:"conditions"`
	Actions    model.RuleActions     `json:"actions"`
	AIPrompt   string                `json:"ai_prompt"`
	Priority   int                   `json:"priority"`
	Enabled    *bool                 `json:"enabled"`
}

func (r *ruleRequest) toRule(userID int) (*model.Rule, error) {
	ruleType := model.RuleType(r.Type)
	if r.Type == "" {
		ruleType = model.RuleTypeHybrid
	}
	switch ruleType {
	case model.RuleTypeAI, model.RuleTypeCondition, model.RuleTypeHybrid:
	default:
		return nil, errors.New("unknown rule type")
	}

	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}

	accountIDs := r.AccountIDs
	if accountIDs == nil {
		accountIDs = []string{}
	}

	return &model.Rule{
		UserID:     userID,
		AccountIDs: accountIDs,
		Name:       r.Name,
		Type:       ruleType,
		Conditions: r.Conditions,
		Actions:    r.Actions,
		AIPrompt:   r.AIPrompt,
		Priority:   r.Priority,
		Enabled:    enabled,
	}, nil
}

// ListRules handles GET /rules
func (h *RuleHandler) ListRules(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	rules, err := h.ruleRepo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch rules"})
		return
	}

	if accountID := c.Query("account_id"); accountID != "" {
		filtered := make([]model.Rule, 0, len(rules))
		for _, rule := range rules {
			if rule.AppliesTo(accountID) {
				filtered = append(filtered, rule)
			}
		}
		rules = filtered
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// CreateRule handles POST /rules
func (h *RuleHandler) CreateRule(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	rule, err := req.toRule(userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule.ID = uuid.NewString()
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = rule.CreatedAt

	if err := h.ruleRepo.CreateRule(c.Request.Context(), rule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create rule"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

// UpdateRule handles PUT /rules/:id
func (h *RuleHandler) UpdateRule(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	rule, err := req.toRule(userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule.ID = c.Param("id")

	if err := h.ruleRepo.UpdateRule(c.Request.Context(), rule); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update rule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// DeleteRule handles DELETE /rules/:id
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.ruleRepo.DeleteRule(c.Request.Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete rule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
