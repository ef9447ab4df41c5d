package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chefscript/backend/internal/middleware"
	"github.com/chefscript/backend/internal/service"
	"github.com/chefscript/backend/internal/types"
)

type RecipeHandler struct {
	generator *service.GeneratorService
	history   *service.HistoryService
	auth      *service.AuthService
}

func NewRecipeHandler(generator *service.GeneratorService, history *service.HistoryService, auth *service.AuthService) *RecipeHandler {
	return &RecipeHandler{generator: generator, history: history, auth: auth}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes", middleware.AuthMiddleware(h.auth))
	{
		recipes.POST("/generate", h.Generate)
		recipes.GET("/history", h.History)
		recipes.DELETE("/history", h.ClearHistory)
		recipes.GET("/:id/download", h.Download)
	}
}

type GenerateRequest struct {
	Names         []string `json:"names" binding:"required,min=1,dive,required"`
	Style         string   `json:"style"`
	ApplyTemplate bool     `json:"apply_template"`
}

func (h *RecipeHandler) Generate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	style := req.Style
	if style == "" {
		style = "flux"
	}

	recipes, err := h.generator.GenerateBatch(c.Request.Context(), userID, req.Names, style, req.ApplyTemplate)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) History(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	recipes, err := h.history.Load(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) ClearHistory(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.history.Clear(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear history"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Download returns a recipe's parsed content as a plain text attachment.
func (h *RecipeHandler) Download(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	recipes, err := h.history.Load(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	id := c.Param("id")
	for _, rec := range recipes {
		if rec.ID != id {
			continue
		}
		if rec.Status != types.RecipeStatusCompleted || rec.ParsedContent == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Recipe is not completed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="recipe.txt"`)
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(service.DownloadableText(rec.ParsedContent)))
		return
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
}
