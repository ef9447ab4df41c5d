package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textLayer(id, text string) *Layer {
	return &Layer{
		ID:       id,
		Type:     LayerText,
		Geometry: Geometry{Left: 10, Top: 20, Opacity: 1},
		Fill:     "#ffffff",
		Text:     text,
		Font:     &Font{Family: "sans", Size: 32, Weight: "bold", Align: "center"},
	}
}

func buildScene(t *testing.T) *Scene {
	t.Helper()

	scene := NewScene(1080, 1080)
	scene.Background = "#1a1a1a"
	require.NoError(t, scene.AddLayer(&Layer{
		ID:       "bg",
		Type:     LayerRect,
		Geometry: Geometry{Left: 0, Top: 800, Opacity: 0.6},
		Fill:     "#000000",
		Width:    1080,
		Height:   280,
	}))
	require.NoError(t, scene.AddLayer(textLayer("title", "Recipe Name")))
	require.NoError(t, scene.AddLayer(&Layer{
		ID:       "badge",
		Type:     LayerCircle,
		Geometry: Geometry{Left: 900, Top: 40, Angle: 15, Opacity: 1},
		Fill:     "#e63946",
		Radius:   60,
	}))
	require.NoError(t, scene.SetPlaceholder("title"))
	return scene
}

func TestSceneSerializeRoundTrip(t *testing.T) {
	scene := buildScene(t)

	first, err := scene.Serialize()
	require.NoError(t, err)

	restored, err := Deserialize(first)
	require.NoError(t, err)

	second, err := restored.Serialize()
	require.NoError(t, err)

	// serialize -> deserialize -> serialize reproduces the same document.
	assert.Equal(t, string(first), string(second))

	assert.Equal(t, scene.Width, restored.Width)
	assert.Equal(t, scene.Height, restored.Height)
	require.Len(t, restored.Layers, 3)
	assert.Equal(t, "title", restored.Placeholder().ID)
}

func TestScenePlaceholderExclusivity(t *testing.T) {
	scene := NewScene(800, 600)
	require.NoError(t, scene.AddLayer(textLayer("one", "first")))
	require.NoError(t, scene.AddLayer(textLayer("two", "second")))

	require.NoError(t, scene.SetPlaceholder("one"))
	require.NoError(t, scene.SetPlaceholder("two"))

	// Moving the marker clears it from the previous holder.
	assert.False(t, scene.Layer("one").IsPlaceholder)
	assert.True(t, scene.Layer("two").IsPlaceholder)
	assert.Equal(t, "two", scene.Placeholder().ID)

	t.Run("only text layers can hold the marker", func(t *testing.T) {
		require.NoError(t, scene.AddLayer(&Layer{
			ID:       "shape",
			Type:     LayerRect,
			Geometry: Geometry{Opacity: 1},
			Width:    10,
			Height:   10,
		}))
		assert.Error(t, scene.SetPlaceholder("shape"))
		assert.Equal(t, "two", scene.Placeholder().ID)
	})

	t.Run("adding a flagged layer clears existing markers", func(t *testing.T) {
		flagged := textLayer("three", "third")
		flagged.IsPlaceholder = true
		require.NoError(t, scene.AddLayer(flagged))

		assert.False(t, scene.Layer("two").IsPlaceholder)
		assert.Equal(t, "three", scene.Placeholder().ID)
	})
}

func TestSceneLayerOperations(t *testing.T) {
	scene := NewScene(800, 600)
	require.NoError(t, scene.AddLayer(textLayer("a", "hello")))

	t.Run("duplicate ids are rejected", func(t *testing.T) {
		assert.Error(t, scene.AddLayer(textLayer("a", "again")))
	})

	t.Run("remove reports presence", func(t *testing.T) {
		assert.True(t, scene.RemoveLayer("a"))
		assert.False(t, scene.RemoveLayer("a"))
		assert.Nil(t, scene.Layer("a"))
	})
}

func TestLayerValidation(t *testing.T) {
	cases := []struct {
		name  string
		layer Layer
	}{
		{"missing id", Layer{Type: LayerText, Geometry: Geometry{Opacity: 1}}},
		{"unknown type", Layer{ID: "x", Type: "sticker", Geometry: Geometry{Opacity: 1}}},
		{"angle out of range", Layer{ID: "x", Type: LayerRect, Geometry: Geometry{Angle: 400, Opacity: 1}}},
		{"negative angle", Layer{ID: "x", Type: LayerRect, Geometry: Geometry{Angle: -5, Opacity: 1}}},
		{"opacity out of range", Layer{ID: "x", Type: LayerRect, Geometry: Geometry{Opacity: 1.5}}},
		{"placeholder on non-text layer", Layer{ID: "x", Type: LayerImage, Geometry: Geometry{Opacity: 1}, IsPlaceholder: true}},
		{"path with too few points", Layer{ID: "x", Type: LayerPath, Geometry: Geometry{Opacity: 1}, Points: []Point{{X: 1, Y: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.layer.Validate())
		})
	}
}

func TestDeserializeOpacityDefault(t *testing.T) {
	doc := `{"version":1,"width":100,"height":100,"layers":[
		{"id":"a","type":"text","geometry":{"left":0,"top":0},"text":"x"},
		{"id":"b","type":"rect","geometry":{"left":0,"top":0,"opacity":0},"width":10,"height":10}]}`

	scene, err := Deserialize([]byte(doc))
	require.NoError(t, err)

	// An omitted opacity means fully opaque; a stored zero stays zero.
	assert.Equal(t, 1.0, scene.Layer("a").Geometry.Opacity)
	assert.Equal(t, 0.0, scene.Layer("b").Geometry.Opacity)
}

func TestDeserializeRejectsInvalidDocuments(t *testing.T) {
	t.Run("garbage input", func(t *testing.T) {
		_, err := Deserialize([]byte("not json"))
		assert.Error(t, err)
	})

	t.Run("unsupported version", func(t *testing.T) {
		_, err := Deserialize([]byte(`{"version":9,"width":100,"height":100,"layers":[]}`))
		assert.ErrorContains(t, err, "version")
	})

	t.Run("invalid canvas size", func(t *testing.T) {
		_, err := Deserialize([]byte(`{"version":1,"width":0,"height":100,"layers":[]}`))
		assert.Error(t, err)
	})

	t.Run("duplicate layer ids", func(t *testing.T) {
		doc := `{"version":1,"width":100,"height":100,"layers":[
			{"id":"a","type":"text","geometry":{"left":0,"top":0,"opacity":1},"text":"x"},
			{"id":"a","type":"text","geometry":{"left":0,"top":0,"opacity":1},"text":"y"}]}`
		_, err := Deserialize([]byte(doc))
		assert.ErrorContains(t, err, "duplicate layer id")
	})

	t.Run("multiple placeholders", func(t *testing.T) {
		doc := `{"version":1,"width":100,"height":100,"layers":[
			{"id":"a","type":"text","geometry":{"left":0,"top":0,"opacity":1},"text":"x","is_placeholder":true},
			{"id":"b","type":"text","geometry":{"left":0,"top":0,"opacity":1},"text":"y","is_placeholder":true}]}`
		_, err := Deserialize([]byte(doc))
		assert.ErrorContains(t, err, "placeholder")
	})
}
