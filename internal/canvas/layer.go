// Package canvas implements the template composition engine: an ordered
// scene of visual layers over a recipe photo, serialized to JSON for storage
// and rendered off-screen for export.
package canvas

import (
	"encoding/json"
	"fmt"
)

// LayerType discriminates the layer variants.
type LayerType string

const (
	LayerBackground LayerType = "background"
	LayerRect       LayerType = "rect"
	LayerCircle     LayerType = "circle"
	LayerText       LayerType = "text"
	LayerImage      LayerType = "image"
	LayerPath       LayerType = "path"
)

// Geometry holds a layer's placement. Angle is degrees in [0,360], Opacity
// is in [0,1] and an explicit 0 renders the layer fully transparent. Zero
// scale values are treated as 1 when rendering.
type Geometry struct {
	Left    float64 `json:"left"`
	Top     float64 `json:"top"`
	ScaleX  float64 `json:"scale_x,omitempty"`
	ScaleY  float64 `json:"scale_y,omitempty"`
	Angle   float64 `json:"angle,omitempty"`
	Opacity float64 `json:"opacity"`
}

// UnmarshalJSON defaults opacity to 1 when a stored document omits it, so
// an absent field is not confused with an explicit zero.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	type geometry Geometry
	aux := geometry{Opacity: 1}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*g = Geometry(aux)
	return nil
}

// Font holds text layer typography.
type Font struct {
	Family string  `json:"family,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Weight string  `json:"weight,omitempty"`
	Style  string  `json:"style,omitempty"`
	Align  string  `json:"align,omitempty"`
}

// Point is one vertex of a path layer.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layer is one element of a scene. The Type field selects which of the
// variant fields are meaningful; the placeholder flag is only legal on text
// layers and the scene keeps it exclusive.
type Layer struct {
	ID   string    `json:"id"`
	Type LayerType `json:"type"`

	Geometry Geometry `json:"geometry"`
	Fill     string   `json:"fill,omitempty"`

	// Rect, image and background layers
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// Circle layers
	Radius float64 `json:"radius,omitempty"`

	// Text layers
	Text          string `json:"text,omitempty"`
	Font          *Font  `json:"font,omitempty"`
	IsPlaceholder bool   `json:"is_placeholder,omitempty"`

	// Image and background layers
	URL string `json:"url,omitempty"`

	// Path layers
	Points []Point `json:"points,omitempty"`
}

// Validate checks the layer's geometry bounds and variant constraints.
func (l *Layer) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("layer id is required")
	}
	switch l.Type {
	case LayerBackground, LayerRect, LayerCircle, LayerText, LayerImage, LayerPath:
	default:
		return fmt.Errorf("unknown layer type %q", l.Type)
	}
	if l.Geometry.Angle < 0 || l.Geometry.Angle > 360 {
		return fmt.Errorf("layer %s: angle %v out of range [0,360]", l.ID, l.Geometry.Angle)
	}
	if l.Geometry.Opacity < 0 || l.Geometry.Opacity > 1 {
		return fmt.Errorf("layer %s: opacity %v out of range [0,1]", l.ID, l.Geometry.Opacity)
	}
	if l.IsPlaceholder && l.Type != LayerText {
		return fmt.Errorf("layer %s: only text layers can be the title placeholder", l.ID)
	}
	if l.Type == LayerPath && len(l.Points) < 2 {
		return fmt.Errorf("layer %s: path needs at least two points", l.ID)
	}
	return nil
}
