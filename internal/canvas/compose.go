package canvas

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	_ "image/png"
)

const (
	jpegQuality  = 90
	corsProxyURL = "https://api.allorigins.win/raw?url="
)

// restrictedHosts lists image hosts that reject direct cross-origin fetches.
// Downloads from these go through the CORS relay instead.
var restrictedHosts = []string{"bfl.ai", "bfl.ml"}

// ProxyImageURL rewrites URLs on restricted hosts to go through the relay.
// Other URLs pass through unchanged.
func ProxyImageURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	for _, host := range restrictedHosts {
		if parsed.Host == host || strings.HasSuffix(parsed.Host, "."+host) {
			return corsProxyURL + url.QueryEscape(rawURL)
		}
	}
	return rawURL
}

// Compositor renders scenes over recipe photos for export.
type Compositor struct {
	client *http.Client
}

// NewCompositor returns a compositor with a bounded download client.
func NewCompositor() *Compositor {
	return &Compositor{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Compose renders the scene over the recipe photo and returns the result as
// a JPEG. The photo is stretched to cover the full canvas. If the scene has
// a placeholder text layer and title is non-empty, the placeholder renders
// the title instead of its stored text.
func (c *Compositor) Compose(ctx context.Context, scene *Scene, photoURL, title string) ([]byte, error) {
	dc := gg.NewContext(scene.Width, scene.Height)

	if scene.Background != "" {
		dc.SetHexColor(scene.Background)
		dc.Clear()
	}

	if photoURL != "" {
		photo, err := c.fetchImage(ctx, photoURL)
		if err != nil {
			return nil, fmt.Errorf("failed to load recipe photo: %w", err)
		}
		drawStretched(dc, photo, 0, 0, float64(scene.Width), float64(scene.Height))
	}

	for _, l := range scene.Layers {
		if err := c.drawLayer(ctx, dc, l, title); err != nil {
			return nil, fmt.Errorf("failed to render layer %s: %w", l.ID, err)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode canvas: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Compositor) drawLayer(ctx context.Context, dc *gg.Context, l *Layer, title string) error {
	sx, sy := l.Geometry.ScaleX, l.Geometry.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	opacity := l.Geometry.Opacity

	dc.Push()
	defer dc.Pop()

	if l.Geometry.Angle != 0 {
		cx, cy := layerCenter(l, sx, sy)
		dc.RotateAbout(gg.Radians(l.Geometry.Angle), cx, cy)
	}

	switch l.Type {
	case LayerBackground:
		if l.URL != "" {
			img, err := c.fetchImage(ctx, l.URL)
			if err != nil {
				return err
			}
			drawStretched(dc, img, 0, 0, float64(dc.Width()), float64(dc.Height()))
			return nil
		}
		dc.SetHexColor(l.Fill)
		dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
		dc.Fill()

	case LayerRect:
		setFill(dc, l.Fill, opacity)
		dc.DrawRectangle(l.Geometry.Left, l.Geometry.Top, l.Width*sx, l.Height*sy)
		dc.Fill()

	case LayerCircle:
		setFill(dc, l.Fill, opacity)
		dc.DrawEllipse(
			l.Geometry.Left+l.Radius*sx,
			l.Geometry.Top+l.Radius*sy,
			l.Radius*sx,
			l.Radius*sy,
		)
		dc.Fill()

	case LayerText:
		text := l.Text
		if l.IsPlaceholder && title != "" {
			text = title
		}
		face, err := layerFontFace(l, sy)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		setFill(dc, l.Fill, opacity)
		ax := 0.0
		if l.Font != nil {
			switch l.Font.Align {
			case "center":
				ax = 0.5
			case "right":
				ax = 1.0
			}
		}
		dc.DrawStringAnchored(text, l.Geometry.Left, l.Geometry.Top, ax, 1)

	case LayerImage:
		img, err := c.fetchImage(ctx, l.URL)
		if err != nil {
			return err
		}
		w, h := l.Width*sx, l.Height*sy
		if w == 0 || h == 0 {
			bounds := img.Bounds()
			w = float64(bounds.Dx()) * sx
			h = float64(bounds.Dy()) * sy
		}
		drawStretched(dc, img, l.Geometry.Left, l.Geometry.Top, w, h)

	case LayerPath:
		setFill(dc, l.Fill, opacity)
		dc.MoveTo(l.Geometry.Left+l.Points[0].X*sx, l.Geometry.Top+l.Points[0].Y*sy)
		for _, p := range l.Points[1:] {
			dc.LineTo(l.Geometry.Left+p.X*sx, l.Geometry.Top+p.Y*sy)
		}
		dc.ClosePath()
		dc.Fill()
	}
	return nil
}

func (c *Compositor) fetchImage(ctx context.Context, rawURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ProxyImageURL(rawURL), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// drawStretched scales the image to exactly fill the target box, ignoring
// the source aspect ratio.
func drawStretched(dc *gg.Context, img image.Image, x, y, w, h float64) {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return
	}
	dc.Push()
	dc.Translate(x, y)
	dc.Scale(w/float64(bounds.Dx()), h/float64(bounds.Dy()))
	dc.DrawImage(img, 0, 0)
	dc.Pop()
}

func layerCenter(l *Layer, sx, sy float64) (float64, float64) {
	switch l.Type {
	case LayerCircle:
		return l.Geometry.Left + l.Radius*sx, l.Geometry.Top + l.Radius*sy
	default:
		return l.Geometry.Left + l.Width*sx/2, l.Geometry.Top + l.Height*sy/2
	}
}

func setFill(dc *gg.Context, hex string, opacity float64) {
	r, g, b := parseHexColor(hex)
	dc.SetRGBA(r, g, b, opacity)
}

func parseHexColor(hex string) (r, g, b float64) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}
	parse := func(s string) float64 {
		v, err := strconv.ParseUint(s, 16, 8)
		if err != nil {
			return 0
		}
		return float64(v) / 255
	}
	return parse(hex[0:2]), parse(hex[2:4]), parse(hex[4:6])
}

// layerFontFace builds a face from the bundled Go fonts. Template fonts are
// not fetched from the client, so weight and style map onto the Go family.
func layerFontFace(l *Layer, scale float64) (font.Face, error) {
	size := 24.0
	weight, style := "", ""
	if l.Font != nil {
		if l.Font.Size > 0 {
			size = l.Font.Size
		}
		weight = l.Font.Weight
		style = l.Font.Style
	}
	data := goregular.TTF
	switch {
	case weight == "bold" && style == "italic":
		data = gobolditalic.TTF
	case weight == "bold":
		data = gobold.TTF
	case style == "italic":
		data = goitalic.TTF
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size: size * scale,
		DPI:  72,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build font face: %w", err)
	}
	return face, nil
}
