package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chefscript/backend/internal/canvas"
	"github.com/chefscript/backend/internal/models"
)

// ErrTemplateNotFound is returned when a template id does not exist or is
// owned by another user.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateService manages a user's canvas templates and applies the active
// one to finished recipe images.
type TemplateService struct {
	db         *gorm.DB
	compositor *canvas.Compositor
	images     *ImageStore
}

// NewTemplateService creates a new template service.
func NewTemplateService(db *gorm.DB, compositor *canvas.Compositor, images *ImageStore) *TemplateService {
	return &TemplateService{db: db, compositor: compositor, images: images}
}

// List returns the user's templates, newest first.
func (s *TemplateService) List(userID uuid.UUID) ([]models.Template, error) {
	var templates []models.Template
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// Get returns a single template owned by the user.
func (s *TemplateService) Get(userID, templateID uuid.UUID) (*models.Template, error) {
	var template models.Template
	err := s.db.Where("id = ? AND user_id = ?", templateID, userID).First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return &template, nil
}

// Save validates the scene document and stores it as a new template.
func (s *TemplateService) Save(userID uuid.UUID, name string, canvasData []byte) (*models.Template, error) {
	if _, err := canvas.Deserialize(canvasData); err != nil {
		return nil, fmt.Errorf("invalid canvas data: %w", err)
	}
	template := models.Template{
		UserID:     userID,
		Name:       name,
		CanvasData: models.JSONDocument(canvasData),
	}
	if err := s.db.Create(&template).Error; err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}
	return &template, nil
}

// Update replaces the scene document of an existing template.
func (s *TemplateService) Update(userID, templateID uuid.UUID, name string, canvasData []byte) (*models.Template, error) {
	template, err := s.Get(userID, templateID)
	if err != nil {
		return nil, err
	}
	if _, err := canvas.Deserialize(canvasData); err != nil {
		return nil, fmt.Errorf("invalid canvas data: %w", err)
	}
	updates := map[string]interface{}{"canvas_data": models.JSONDocument(canvasData)}
	if name != "" {
		updates["name"] = name
	}
	if err := s.db.Model(template).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return template, nil
}

// Delete removes a template owned by the user.
func (s *TemplateService) Delete(userID, templateID uuid.UUID) error {
	result := s.db.Where("id = ? AND user_id = ?", templateID, userID).Delete(&models.Template{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// SetActive marks one template as the user's active template. The flag is
// cleared from every other template in the same transaction so that at most
// one template is active per user.
func (s *TemplateService) SetActive(userID, templateID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Template{}).
			Where("id = ? AND user_id = ?", templateID, userID).
			Update("is_active", true)
		if result.Error != nil {
			return fmt.Errorf("failed to activate template: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTemplateNotFound
		}
		if err := tx.Model(&models.Template{}).
			Where("user_id = ? AND id != ?", userID, templateID).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate templates: %w", err)
		}
		return nil
	})
}

// ClearActive removes the active flag from all of the user's templates.
func (s *TemplateService) ClearActive(userID uuid.UUID) error {
	if err := s.db.Model(&models.Template{}).
		Where("user_id = ?", userID).
		Update("is_active", false).Error; err != nil {
		return fmt.Errorf("failed to clear active template: %w", err)
	}
	return nil
}

// Active returns the user's active template, or nil if none is set.
func (s *TemplateService) Active(userID uuid.UUID) (*models.Template, error) {
	var template models.Template
	err := s.db.Where("user_id = ? AND is_active = ?", userID, true).First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active template: %w", err)
	}
	return &template, nil
}

// Apply renders the template over the recipe image, substituting the recipe
// title into the placeholder layer, and uploads the result. It returns the
// URL of the composed image.
func (s *TemplateService) Apply(ctx context.Context, template *models.Template, imageURL, title string) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("image storage: %w", ErrNotConfigured)
	}
	scene, err := canvas.Deserialize(template.CanvasData)
	if err != nil {
		return "", fmt.Errorf("invalid canvas data: %w", err)
	}
	rendered, err := s.compositor.Compose(ctx, scene, imageURL, title)
	if err != nil {
		return "", fmt.Errorf("failed to compose template: %w", err)
	}
	key := fmt.Sprintf("composed-images/%s.jpg", uuid.New().String())
	composedURL, err := s.images.Upload(ctx, rendered, key, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload composed image: %w", err)
	}
	log.Printf("[TemplateService] Applied template %s to image, result at %s", template.ID, composedURL)
	return composedURL, nil
}
