package preview

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	_ "golang.org/x/image/webp"

	"invite-studio/internal/studio/assets"
	"invite-studio/internal/studio/models"
)

// Pages are portrait phone screens.
const (
	DefaultWidth = 540
	MaxWidth     = 1080
)

var (
	colorBackdrop = color.RGBA{R: 0x2b, G: 0x1d, B: 0x2e, A: 0xff}
	colorHotspot  = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0x66}
	colorSelected = color.RGBA{R: 0xf5, G: 0x9e, B: 0x0b, A: 0x88}
	colorInvalid  = color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0x88}
	colorLabel    = color.White
)

var (
	fontOnce sync.Once
	fontData *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		fontData, fontErr = truetype.Parse(gomono.TTF)
	})
	return fontData, fontErr
}

type Options struct {
	Width int
	// Selected outlines one hotspot the way the editor canvas does.
	Selected string
}

// Render draws a page thumbnail as PNG: the background (uploaded images are
// decoded and cropped to fill), then every hotspot rect with its name.
// Backgrounds that are remote URLs or videos are drawn as a flat backdrop.
func Render(ctx context.Context, w io.Writer, page models.Page, blobs assets.BlobSource, opts Options) error {
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	if width > MaxWidth {
		width = MaxWidth
	}
	height := width * 16 / 9

	dc := gg.NewContext(width, height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	if upload, ok := models.Pending(page.Background.Source); ok && page.Background.Kind == models.BackgroundImage {
		data, err := blobs.ReadBlob(ctx, upload)
		if err != nil {
			return fmt.Errorf("read background: %w", err)
		}
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return fmt.Errorf("decode background: %w", err)
		}
		dc.DrawImage(imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos), 0, 0)
	}

	ttf, err := loadFont()
	if err != nil {
		return fmt.Errorf("failed to parse font: %v", err)
	}
	fontSize := float64(width) / 30
	dc.SetFontFace(truetype.NewFace(ttf, &truetype.Options{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	sx := float64(width) / 100
	sy := float64(height) / 100
	for _, h := range page.Hotspots {
		x, y := h.Rect.X*sx, h.Rect.Y*sy
		rw, rh := h.Rect.Width*sx, h.Rect.Height*sy

		dc.SetColor(hotspotColor(h, opts.Selected))
		dc.DrawRectangle(x, y, rw, rh)
		dc.Fill()

		dc.SetLineWidth(2)
		dc.SetColor(colorLabel)
		dc.DrawRectangle(x, y, rw, rh)
		dc.Stroke()

		dc.DrawStringAnchored(h.Name, x+rw/2, y+rh/2, 0.5, 0.5)
	}

	return dc.EncodePNG(w)
}

func hotspotColor(h models.Hotspot, selected string) color.Color {
	if nav, ok := h.Action.(models.NavigateAction); ok && nav.Invalid {
		return colorInvalid
	}
	if h.ID == selected {
		return colorSelected
	}
	return colorHotspot
}
