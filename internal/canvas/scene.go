package canvas

import (
	"encoding/json"
	"fmt"
)

const sceneVersion = 1

// Scene is an ordered stack of layers on a fixed-size canvas. Layer order is
// paint order: earlier layers render below later ones.
type Scene struct {
	Width      int
	Height     int
	Background string
	Layers     []*Layer
}

// sceneDocument is the serialization schema for a scene. Field order is
// fixed so serializing a deserialized scene reproduces the input bytes.
type sceneDocument struct {
	Version    int      `json:"version"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Background string   `json:"background,omitempty"`
	Layers     []*Layer `json:"layers"`
}

// NewScene returns an empty scene of the given pixel dimensions.
func NewScene(width, height int) *Scene {
	return &Scene{Width: width, Height: height, Layers: []*Layer{}}
}

// AddLayer validates the layer and appends it on top of the stack. Adding a
// placeholder text layer clears the flag from any existing layer.
func (s *Scene) AddLayer(l *Layer) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if s.Layer(l.ID) != nil {
		return fmt.Errorf("layer %s already exists", l.ID)
	}
	if l.IsPlaceholder {
		s.clearPlaceholder()
	}
	s.Layers = append(s.Layers, l)
	return nil
}

// RemoveLayer deletes the layer with the given id, reporting whether it was
// present.
func (s *Scene) RemoveLayer(id string) bool {
	for i, l := range s.Layers {
		if l.ID == id {
			s.Layers = append(s.Layers[:i], s.Layers[i+1:]...)
			return true
		}
	}
	return false
}

// Layer returns the layer with the given id, or nil.
func (s *Scene) Layer(id string) *Layer {
	for _, l := range s.Layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// SetPlaceholder marks the given text layer as the title placeholder and
// clears the flag everywhere else. At most one placeholder exists at a time.
func (s *Scene) SetPlaceholder(id string) error {
	target := s.Layer(id)
	if target == nil {
		return fmt.Errorf("layer %s not found", id)
	}
	if target.Type != LayerText {
		return fmt.Errorf("layer %s: only text layers can be the title placeholder", id)
	}
	s.clearPlaceholder()
	target.IsPlaceholder = true
	return nil
}

// Placeholder returns the placeholder text layer, or nil if none is set.
func (s *Scene) Placeholder() *Layer {
	for _, l := range s.Layers {
		if l.IsPlaceholder {
			return l
		}
	}
	return nil
}

func (s *Scene) clearPlaceholder() {
	for _, l := range s.Layers {
		l.IsPlaceholder = false
	}
}

// Serialize encodes the scene to its JSON document form.
func (s *Scene) Serialize() ([]byte, error) {
	layers := s.Layers
	if layers == nil {
		layers = []*Layer{}
	}
	return json.Marshal(sceneDocument{
		Version:    sceneVersion,
		Width:      s.Width,
		Height:     s.Height,
		Background: s.Background,
		Layers:     layers,
	})
}

// Deserialize decodes a scene document and validates every layer, rejecting
// documents with duplicate layer ids or more than one placeholder.
func Deserialize(data []byte) (*Scene, error) {
	var doc sceneDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode scene: %w", err)
	}
	if doc.Version != sceneVersion {
		return nil, fmt.Errorf("unsupported scene version %d", doc.Version)
	}
	if doc.Width <= 0 || doc.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", doc.Width, doc.Height)
	}
	scene := &Scene{
		Width:      doc.Width,
		Height:     doc.Height,
		Background: doc.Background,
		Layers:     []*Layer{},
	}
	placeholders := 0
	for _, l := range doc.Layers {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		if scene.Layer(l.ID) != nil {
			return nil, fmt.Errorf("duplicate layer id %s", l.ID)
		}
		if l.IsPlaceholder {
			placeholders++
		}
		scene.Layers = append(scene.Layers, l)
	}
	if placeholders > 1 {
		return nil, fmt.Errorf("scene has %d placeholder layers, at most one allowed", placeholders)
	}
	return scene, nil
}
