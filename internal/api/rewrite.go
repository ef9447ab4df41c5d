package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chefscript/backend/internal/middleware"
	"github.com/chefscript/backend/internal/service"
	"github.com/chefscript/backend/internal/types"
)

type RewriteHandler struct {
	rewriter *service.RewriterService
	auth     *service.AuthService
}

func NewRewriteHandler(rewriter *service.RewriterService, auth *service.AuthService) *RewriteHandler {
	return &RewriteHandler{rewriter: rewriter, auth: auth}
}

func (h *RewriteHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/rewrite", middleware.AuthMiddleware(h.auth), h.Rewrite)
}

type RewriteRequest struct {
	HTML        string                     `json:"html" binding:"required"`
	Plagiarized []types.PlagiarizedSection `json:"plagiarized_sections"`
	Backlinks   *types.BacklinkOptions     `json:"backlinks"`
}

func (h *RewriteHandler) Rewrite(c *gin.Context) {
	var req RewriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Backlinks != nil && req.Backlinks.WebsiteDomain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Backlink configuration requires a website domain"})
		return
	}

	rewritten, err := h.rewriter.Rewrite(c.Request.Context(), req.HTML, req.Plagiarized, req.Backlinks)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"html": rewritten})
}
