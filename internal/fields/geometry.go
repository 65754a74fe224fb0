package fields

import (
	"math"

	"github.com/a3tai/mcp-pdf-signer/internal/domain"
)

// Region is a rectangle in points
type Region struct {
	X, Y, Width, Height float64
}

// RegionOf returns the field's region in field coordinates (top-left origin)
func RegionOf(f domain.Field) Region {
	return Region{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height}
}

// ToUserSpace converts a top-left region to PDF user space, where the origin is
// the bottom-left corner of the page.
func (r Region) ToUserSpace(pageHeight float64) Region {
	return Region{
		X:      r.X,
		Y:      pageHeight - r.Y - r.Height,
		Width:  r.Width,
		Height: r.Height,
	}
}

// Fit is the outcome of scaling a source rectangle into a region
type Fit struct {
	Scale  float64
	Width  float64
	Height float64
}

// FitWithin scales a srcW x srcH rectangle proportionally so that it fits inside
// the region. Zero sized sources yield a zero Fit.
func FitWithin(srcW, srcH float64, r Region) Fit {
	if srcW <= 0 || srcH <= 0 || r.Width <= 0 || r.Height <= 0 {
		return Fit{}
	}
	scale := math.Min(r.Width/srcW, r.Height/srcH)
	return Fit{Scale: scale, Width: srcW * scale, Height: srcH * scale}
}

// AnchorTopLeft returns the bottom-left user space point at which content of the
// given height must be placed so that its top-left corner meets the region's
// top-left corner. The region is in field coordinates.
func AnchorTopLeft(r Region, contentHeight, pageHeight float64) (x, y float64) {
	return r.X, pageHeight - r.Y - contentHeight
}
