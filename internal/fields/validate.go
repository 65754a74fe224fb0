// Package fields validates field regions against a document's page layout and
// converts them between the top-left field convention and PDF user space.
package fields

import (
	"math"
	"strconv"

	"github.com/a3tai/mcp-pdf-signer/internal/domain"
	"github.com/a3tai/mcp-pdf-signer/internal/errors"
)

// PageBox is the size of one page in points
type PageBox struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Layout describes the pages fields are validated against.
// Pages may be empty when only the page count is known; bounds are then left
// to the render-time check.
type Layout struct {
	PageCount int
	Pages     []PageBox
}

// LayoutFromPages builds a Layout with known page boxes
func LayoutFromPages(pages []PageBox) Layout {
	return Layout{PageCount: len(pages), Pages: pages}
}

// HasBoxes reports whether page dimensions are known
func (l Layout) HasBoxes() bool {
	return len(l.Pages) > 0 && len(l.Pages) == l.PageCount
}

// Validate checks every field against the layout and returns the first violation
// as a ValidationError naming the field's index in the set.
func Validate(layout Layout, fields []domain.Field) error {
	for i, f := range fields {
		if err := validateField(layout, f); err != nil {
			return err.WithContext(fieldContext(i, f))
		}
	}
	return nil
}

func validateField(layout Layout, f domain.Field) *errors.SigningError {
	if f.PageNumber < 1 || f.PageNumber > layout.PageCount {
		return errors.Validation("page %d is outside the document (1-%d)", f.PageNumber, layout.PageCount)
	}

	coords := []struct {
		name  string
		value float64
	}{{"x", f.X}, {"y", f.Y}, {"width", f.Width}, {"height", f.Height}}
	for _, c := range coords {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return errors.Validation("%s must be a finite number", c.name)
		}
	}

	if f.X < 0 || f.Y < 0 {
		return errors.Validation("region origin (%.2f, %.2f) must not be negative", f.X, f.Y)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return errors.Validation("region size %.2fx%.2f must be positive", f.Width, f.Height)
	}

	if !layout.HasBoxes() {
		return nil
	}

	page := layout.Pages[f.PageNumber-1]
	if f.X+f.Width > page.Width || f.Y+f.Height > page.Height {
		return errors.Validation("region (%.2f, %.2f, %.2fx%.2f) exceeds page %d bounds %.2fx%.2f",
			f.X, f.Y, f.Width, f.Height, f.PageNumber, page.Width, page.Height)
	}
	return nil
}

func fieldContext(i int, f domain.Field) string {
	if f.Label != "" {
		return "field " + strconv.Itoa(i) + " (" + f.Label + ")"
	}
	return "field " + strconv.Itoa(i)
}
