package api

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chefscript/backend/internal/middleware"
	"github.com/chefscript/backend/internal/models"
	"github.com/chefscript/backend/internal/service"
)

const maxStyleImages = 5

type StyleHandler struct {
	db      *gorm.DB
	recraft *service.RecraftService
	ledger  *service.TokenLedger
	images  *service.ImageStore
	auth    *service.AuthService
}

func NewStyleHandler(db *gorm.DB, recraft *service.RecraftService, ledger *service.TokenLedger, images *service.ImageStore, auth *service.AuthService) *StyleHandler {
	return &StyleHandler{db: db, recraft: recraft, ledger: ledger, images: images, auth: auth}
}

func (h *StyleHandler) RegisterRoutes(router *gin.RouterGroup) {
	styles := router.Group("/styles", middleware.AuthMiddleware(h.auth))
	{
		styles.GET("", h.ListStyles)
		styles.POST("", h.CreateStyle)
		styles.DELETE("/:id", h.DeleteStyle)
	}
}

func (h *StyleHandler) ListStyles(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var styles []models.Style
	if err := h.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&styles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch styles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"styles": styles})
}

// CreateStyle registers a custom image style from uploaded reference images.
// The form carries "name", "base_style" and up to five "images" files. The
// flat style creation fee is checked up front and debited only after the
// provider accepts the style.
func (h *StyleHandler) CreateStyle(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	if h.recraft == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Style provider is not configured"})
		return
	}

	name := c.PostForm("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Style name is required"})
		return
	}
	baseStyle := c.PostForm("base_style")
	if baseStyle == "" {
		baseStyle = "realistic_image"
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data"})
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one reference image is required"})
		return
	}
	if len(files) > maxStyleImages {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("At most %d reference images are allowed", maxStyleImages)})
		return
	}

	if err := h.ledger.Require(c.Request.Context(), userID, service.StyleCreationCost); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	var refs []service.StyleImage
	for _, file := range files {
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded image"})
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded image"})
			return
		}
		refs = append(refs, service.StyleImage{Name: file.Filename, Data: data})
	}

	styleID, err := h.recraft.CreateStyle(c.Request.Context(), baseStyle, refs)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	// First reference image doubles as the style thumbnail.
	var thumbnailURL string
	if h.images != nil {
		thumbnailURL, err = h.images.Upload(c.Request.Context(), refs[0].Data, fmt.Sprintf("style-thumbnails/%s.png", uuid.New().String()), "image/png")
		if err != nil {
			log.Printf("[StyleHandler] Failed to upload thumbnail: %v", err)
			thumbnailURL = ""
		}
	}

	style := models.Style{
		UserID:       userID,
		Name:         name,
		BaseStyle:    baseStyle,
		StyleID:      styleID,
		ThumbnailURL: thumbnailURL,
	}
	if err := h.db.Create(&style).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save style"})
		return
	}

	if err := h.ledger.Debit(c.Request.Context(), userID, service.StyleCreationCost); err != nil {
		log.Printf("[StyleHandler] Failed to debit style creation for user %s: %v", userID, err)
	}

	c.JSON(http.StatusCreated, style)
}

func (h *StyleHandler) DeleteStyle(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	result := h.db.Where("id = ? AND user_id = ?", c.Param("id"), userID).Delete(&models.Style{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete style"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Style not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
