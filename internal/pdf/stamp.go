package pdf

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/charmap"

	"github.com/a3tai/mcp-pdf-signer/internal/fields"
)

const (
	textFont        = "Helvetica"
	minTextPoints   = 6
	maxTextPoints   = 24
	textHeightRatio = 0.7
)

// Stamper composites overlays onto the pages of an existing PDF
type Stamper struct{}

// NewStamper creates a new Stamper
func NewStamper() *Stamper {
	return &Stamper{}
}

// Apply returns a new PDF with every overlay drawn on top of its page. Pages
// without overlays are not selected and keep their content streams.
func (s *Stamper) Apply(original []byte, pages []fields.PageBox, overlays []Overlay) ([]byte, error) {
	if len(overlays) == 0 {
		out := make([]byte, len(original))
		copy(out, original)
		return out, nil
	}

	byPage := make(map[int][]*model.Watermark)
	for i, o := range overlays {
		if o.Page < 1 || o.Page > len(pages) {
			return nil, fmt.Errorf("overlay %d targets page %d of %d", i, o.Page, len(pages))
		}
		wm, err := s.watermark(o, pages[o.Page-1])
		if err != nil {
			return nil, fmt.Errorf("overlay %d on page %d: %w", i, o.Page, err)
		}
		if wm == nil {
			continue
		}
		byPage[o.Page] = append(byPage[o.Page], wm)
	}

	if len(byPage) == 0 {
		out := make([]byte, len(original))
		copy(out, original)
		return out, nil
	}

	var buf bytes.Buffer
	if err := api.AddWatermarksSliceMap(bytes.NewReader(original), &buf, byPage, relaxedConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to stamp pages: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Stamper) watermark(o Overlay, page fields.PageBox) (*model.Watermark, error) {
	switch o.Kind {
	case OverlayImage:
		if o.Image == nil || len(o.Image.PNG) == 0 {
			return nil, fmt.Errorf("image overlay has no raster")
		}
		desc, ok := ImageDescription(o.Region, o.Image.Width, o.Image.Height, page.Height)
		if !ok {
			return nil, nil
		}
		return api.ImageWatermarkForReader(bytes.NewReader(o.Image.PNG), desc, true, false, types.POINTS)
	case OverlayText:
		text := sanitizeText(o.Text)
		if text == "" {
			return nil, nil
		}
		if err := CheckText(text); err != nil {
			return nil, err
		}
		fit := FitText(text, o.Region)
		if fit.Text == "" {
			return nil, nil
		}
		return api.TextWatermark(fit.Text, TextDescription(o.Region, fit, page.Height), true, false, types.POINTS)
	default:
		return nil, fmt.Errorf("unknown overlay kind %d", o.Kind)
	}
}

// ImageDescription builds the pdfcpu stamp description that scales a width x height
// raster to fit the region and anchors it at the region's top-left corner.
func ImageDescription(r fields.Region, width, height int, pageHeight float64) (string, bool) {
	fit := fields.FitWithin(float64(width), float64(height), r)
	if fit.Scale <= 0 {
		return "", false
	}
	x, y := fields.AnchorTopLeft(r, fit.Height, pageHeight)
	return fmt.Sprintf("position:bl, offset:%.2f %.2f, scalefactor:%.6f abs, rotation:0, opacity:1",
		x, y, fit.Scale), true
}

// TextFit is a single line of text sized to sit inside a region
type TextFit struct {
	Text   string
	Points int
	Width  float64
	Height float64
}

// FitText sizes text for the region. The size starts from the region height and
// shrinks until the line box fits both dimensions; text still too wide at the
// minimum size is truncated.
func FitText(text string, r fields.Region) TextFit {
	points := TextPoints(r.Height)
	for points > 1 && font.LineHeight(textFont, points) > r.Height {
		points--
	}
	for points > minTextPoints && font.TextWidth(text, textFont, points) > r.Width {
		points--
	}

	runes := []rune(text)
	for len(runes) > 0 && font.TextWidth(string(runes), textFont, points) > r.Width {
		runes = runes[:len(runes)-1]
	}
	text = strings.TrimSpace(string(runes))

	return TextFit{
		Text:   text,
		Points: points,
		Width:  font.TextWidth(text, textFont, points),
		Height: font.LineHeight(textFont, points),
	}
}

// TextDescription builds the pdfcpu stamp description for a fitted line of text
// whose box is anchored at the region's top-left corner.
func TextDescription(r fields.Region, fit TextFit, pageHeight float64) string {
	x, y := fields.AnchorTopLeft(r, fit.Height, pageHeight)
	return fmt.Sprintf("fontname:%s, points:%d, position:bl, offset:%.2f %.2f, scalefactor:1 abs, "+
		"rotation:0, opacity:1, fillcolor:#000000", textFont, fit.Points, x, y)
}

// TextPoints returns the starting font size for a region of the given height
func TextPoints(regionHeight float64) int {
	p := int(math.Floor(regionHeight * textHeightRatio))
	if p < minTextPoints {
		return minTextPoints
	}
	if p > maxTextPoints {
		return maxTextPoints
	}
	return p
}

// CheckText reports an error when s holds characters the stamp font has no
// glyphs for. Helvetica is drawn with WinAnsi encoding.
func CheckText(s string) error {
	if _, err := charmap.Windows1252.NewEncoder().String(s); err != nil {
		return fmt.Errorf("text contains characters %s cannot render", textFont)
	}
	return nil
}

// sanitizeText collapses the value to one printable line
func sanitizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
