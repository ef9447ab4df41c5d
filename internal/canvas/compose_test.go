package canvas

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyImageURL(t *testing.T) {
	cases := []struct {
		in      string
		proxied bool
	}{
		{"https://delivery.bfl.ai/results/sample.png", true},
		{"https://bfl.ai/img.png", true},
		{"https://cdn.bfl.ml/img.png", true},
		{"https://images.recraft.ai/img.png", false},
		{"https://notbfl.ai.example.com/img.png", false},
		{"https://example.com/bfl.ai/img.png", false},
	}
	for _, tc := range cases {
		out := ProxyImageURL(tc.in)
		if tc.proxied {
			assert.Contains(t, out, "api.allorigins.win/raw?url=", "url=%s", tc.in)
			assert.NotContains(t, out, "url=https://", "url must be escaped: %s", tc.in)
		} else {
			assert.Equal(t, tc.in, out)
		}
	}
}

func servePhoto(t *testing.T, width, height int, fill color.RGBA) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(server.Close)
	return server.URL + "/photo.png"
}

func TestCompose(t *testing.T) {
	ctx := context.Background()

	t.Run("renders a scene over the photo as JPEG", func(t *testing.T) {
		// Photo is a different aspect ratio than the canvas; it stretches to
		// cover the whole output.
		photoURL := servePhoto(t, 200, 100, color.RGBA{R: 255, A: 255})

		scene := NewScene(300, 300)
		require.NoError(t, scene.AddLayer(textLayer("title", "Fallback Title")))
		require.NoError(t, scene.SetPlaceholder("title"))

		data, err := NewCompositor().Compose(ctx, scene, photoURL, "Greek Salad")
		require.NoError(t, err)

		decoded, format, err := image.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, 300, decoded.Bounds().Dx())
		assert.Equal(t, 300, decoded.Bounds().Dy())

		// A corner pixel comes from the stretched photo, not the blank canvas.
		r, _, _, _ := decoded.At(5, 5).RGBA()
		assert.Greater(t, r, uint32(0x8000))
	})

	t.Run("renders shape and path layers", func(t *testing.T) {
		scene := NewScene(100, 100)
		scene.Background = "#ffffff"
		require.NoError(t, scene.AddLayer(&Layer{
			ID:       "rect",
			Type:     LayerRect,
			Geometry: Geometry{Left: 10, Top: 10, Opacity: 1},
			Fill:     "#000000",
			Width:    30,
			Height:   30,
		}))
		require.NoError(t, scene.AddLayer(&Layer{
			ID:       "tri",
			Type:     LayerPath,
			Geometry: Geometry{Left: 50, Top: 50, Opacity: 1},
			Fill:     "#e63946",
			Points:   []Point{{X: 0, Y: 0}, {X: 40, Y: 0}, {X: 20, Y: 40}},
		}))

		data, err := NewCompositor().Compose(ctx, scene, "", "")
		require.NoError(t, err)

		decoded, err := jpeg.Decode(bytes.NewReader(data))
		require.NoError(t, err)

		// Inside the rect is dark, outside stays white.
		r, _, _, _ := decoded.At(25, 25).RGBA()
		assert.Less(t, r, uint32(0x4000))
		r, _, _, _ = decoded.At(95, 5).RGBA()
		assert.Greater(t, r, uint32(0xc000))
	})

	t.Run("a fully transparent layer leaves the background visible", func(t *testing.T) {
		scene := NewScene(100, 100)
		scene.Background = "#ffffff"
		require.NoError(t, scene.AddLayer(&Layer{
			ID:       "hidden",
			Type:     LayerRect,
			Geometry: Geometry{Left: 10, Top: 10, Opacity: 0},
			Fill:     "#000000",
			Width:    30,
			Height:   30,
		}))

		data, err := NewCompositor().Compose(ctx, scene, "", "")
		require.NoError(t, err)

		decoded, err := jpeg.Decode(bytes.NewReader(data))
		require.NoError(t, err)

		// The rect area stays white because the layer has opacity zero.
		r, _, _, _ := decoded.At(25, 25).RGBA()
		assert.Greater(t, r, uint32(0xc000))
	})

	t.Run("fails when the photo cannot be fetched", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		t.Cleanup(server.Close)

		scene := NewScene(100, 100)
		_, err := NewCompositor().Compose(ctx, scene, server.URL+"/missing.png", "")
		assert.ErrorContains(t, err, "failed to load recipe photo")
	})
}
