package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONDocument stores an arbitrary JSON document in a jsonb column.
type JSONDocument json.RawMessage

// Value implements the driver.Valuer interface
func (d JSONDocument) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "{}", nil
	}
	return string(d), nil
}

// Scan implements the sql.Scanner interface
func (d *JSONDocument) Scan(value interface{}) error {
	if value == nil {
		*d = JSONDocument("{}")
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*d = JSONDocument(append([]byte(nil), v...))
	case string:
		*d = JSONDocument(v)
	default:
		return errors.New("unsupported type for JSONDocument")
	}
	return nil
}

// MarshalJSON returns d as the JSON encoding of d.
func (d JSONDocument) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON sets *d to a copy of data.
func (d *JSONDocument) UnmarshalJSON(data []byte) error {
	*d = JSONDocument(append([]byte(nil), data...))
	return nil
}

type User struct {
	ID           uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Tokens       int            `gorm:"not null;default:0;check:tokens >= 0" json:"tokens"`
}

// BeforeCreate assigns an ID when one wasn't set by the caller
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Style is a reusable image-generation style created from reference photos.
// StyleID is the identifier assigned by the image provider.
type Style struct {
	ID           uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	UserID       uuid.UUID      `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Name         string         `gorm:"size:100;not null" json:"name"`
	BaseStyle    string         `gorm:"size:50;not null;default:'realistic_image'" json:"base_style"`
	StyleID      string         `gorm:"size:100;not null" json:"custom_style_id"`
	ThumbnailURL string         `gorm:"size:512" json:"thumbnail_url"`
}

func (s *Style) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Template is a saved canvas scene for overlaying onto recipe photos.
// At most one template per user has IsActive set; the template service
// maintains that invariant with an atomic set-active operation.
type Template struct {
	ID         uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	UserID     uuid.UUID      `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Name       string         `gorm:"size:100;not null" json:"name"`
	CanvasData JSONDocument   `gorm:"type:jsonb;not null;default:'{}'" json:"canvas_data"`
	IsActive   bool           `gorm:"not null;default:false;index" json:"is_active"`
}

func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TokenPurchase records a completed token package purchase. OrderID is the
// payment provider's order identifier, stored as an opaque string.
type TokenPurchase struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uuid.UUID `gorm:"type:varchar(36);not null;index" json:"user_id"`
	PackageID string    `gorm:"size:50;not null" json:"package_id"`
	OrderID   string    `gorm:"size:100;not null;uniqueIndex" json:"order_id"`
	Tokens    int       `gorm:"not null" json:"tokens"`
}

func (p *TokenPurchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
