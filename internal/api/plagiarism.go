package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chefscript/backend/internal/middleware"
	"github.com/chefscript/backend/internal/service"
)

type PlagiarismHandler struct {
	winston *service.WinstonService
	auth    *service.AuthService
}

func NewPlagiarismHandler(winston *service.WinstonService, auth *service.AuthService) *PlagiarismHandler {
	return &PlagiarismHandler{winston: winston, auth: auth}
}

func (h *PlagiarismHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/plagiarism/check", middleware.AuthMiddleware(h.auth), h.Check)
}

type PlagiarismCheckRequest struct {
	Text         string   `json:"text" binding:"required"`
	ExcludedURLs []string `json:"excluded_urls"`
}

func (h *PlagiarismHandler) Check(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req PlagiarismCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.winston.CheckPlagiarism(c.Request.Context(), userID, req.Text, req.ExcludedURLs)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
