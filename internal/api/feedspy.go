package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chefscript/backend/internal/middleware"
	"github.com/chefscript/backend/internal/service"
)

type FeedSpyHandler struct {
	llm    *service.LLMService
	ledger *service.TokenLedger
	auth   *service.AuthService
}

func NewFeedSpyHandler(llm *service.LLMService, ledger *service.TokenLedger, auth *service.AuthService) *FeedSpyHandler {
	return &FeedSpyHandler{llm: llm, ledger: ledger, auth: auth}
}

func (h *FeedSpyHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/feedspy", middleware.AuthMiddleware(h.auth), h.Extract)
}

type FeedSpyRequest struct {
	FeedData string `json:"feed_data" binding:"required"`
	Count    int    `json:"count"`
}

// Extract pulls recipe name ideas out of pasted competitor feed content.
// The token cost scales with the requested name count.
func (h *FeedSpyHandler) Extract(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if h.llm == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recipe idea provider is not configured"})
		return
	}

	var req FeedSpyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	count := req.Count
	if count <= 0 {
		count = 25
	}

	cost := service.FeedSpyTokenCost(count)
	if err := h.ledger.Require(c.Request.Context(), userID, cost); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	raw, err := h.llm.GenerateRecipeList(c.Request.Context(), req.FeedData, count)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	names := parseRecipeNames(raw, count)
	if len(names) == 0 {
		c.JSON(http.StatusBadGateway, gin.H{"error": "No recipe names could be extracted"})
		return
	}

	if err := h.ledger.Debit(c.Request.Context(), userID, cost); err != nil {
		log.Printf("[FeedSpyHandler] Failed to debit extraction for user %s: %v", userID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"names": names,
		"cost":  cost,
	})
}

// parseRecipeNames splits a model response into clean recipe names, one per
// line, stripping list numbering and bullets.
func parseRecipeNames(raw string, limit int) []string {
	var names []string
	for _, line := range strings.Split(raw, "\n") {
		name := strings.TrimSpace(line)
		name = strings.TrimLeft(name, "0123456789.)- ")
		name = strings.Trim(name, "\"*")
		if name == "" {
			continue
		}
		names = append(names, name)
		if len(names) == limit {
			break
		}
	}
	return names
}
