package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chefscript/backend/internal/middleware"
	"github.com/chefscript/backend/internal/service"
)

type TemplateHandler struct {
	templates *service.TemplateService
	auth      *service.AuthService
}

func NewTemplateHandler(templates *service.TemplateService, auth *service.AuthService) *TemplateHandler {
	return &TemplateHandler{templates: templates, auth: auth}
}

func (h *TemplateHandler) RegisterRoutes(router *gin.RouterGroup) {
	templates := router.Group("/templates", middleware.AuthMiddleware(h.auth))
	{
		templates.GET("", h.ListTemplates)
		templates.POST("", h.CreateTemplate)
		templates.GET("/:id", h.GetTemplate)
		templates.PUT("/:id", h.UpdateTemplate)
		templates.DELETE("/:id", h.DeleteTemplate)
		templates.POST("/:id/activate", h.ActivateTemplate)
		templates.POST("/deactivate", h.DeactivateTemplates)
		templates.POST("/:id/apply", h.ApplyTemplate)
	}
}

type TemplateRequest struct {
	Name       string          `json:"name" binding:"required"`
	CanvasData json.RawMessage `json:"canvas_data" binding:"required"`
}

type ApplyTemplateRequest struct {
	ImageURL string `json:"image_url" binding:"required,url"`
	Title    string `json:"title"`
}

func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	templates, err := h.templates.List(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch templates"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.templates.Save(userID, req.Name, req.CanvasData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, template)
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	userID, templateID, ok := h.templateIDs(c)
	if !ok {
		return
	}

	template, err := h.templates.Get(userID, templateID)
	if err != nil {
		h.templateError(c, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	userID, templateID, ok := h.templateIDs(c)
	if !ok {
		return
	}

	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.templates.Update(userID, templateID, req.Name, req.CanvasData)
	if err != nil {
		h.templateError(c, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	userID, templateID, ok := h.templateIDs(c)
	if !ok {
		return
	}

	if err := h.templates.Delete(userID, templateID); err != nil {
		h.templateError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TemplateHandler) ActivateTemplate(c *gin.Context) {
	userID, templateID, ok := h.templateIDs(c)
	if !ok {
		return
	}

	if err := h.templates.SetActive(userID, templateID); err != nil {
		h.templateError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"active_template_id": templateID})
}

func (h *TemplateHandler) DeactivateTemplates(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.templates.ClearActive(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate templates"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ApplyTemplate composes the template over an arbitrary image URL. The
// dashboard uses this to re-render history entries after editing a template.
func (h *TemplateHandler) ApplyTemplate(c *gin.Context) {
	userID, templateID, ok := h.templateIDs(c)
	if !ok {
		return
	}

	var req ApplyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.templates.Get(userID, templateID)
	if err != nil {
		h.templateError(c, err)
		return
	}

	composedURL, err := h.templates.Apply(c.Request.Context(), template, req.ImageURL, req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": composedURL})
}

func (h *TemplateHandler) templateIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return uuid.Nil, uuid.Nil, false
	}
	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template id"})
		return uuid.Nil, uuid.Nil, false
	}
	return userID, templateID, true
}

func (h *TemplateHandler) templateError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrTemplateNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
