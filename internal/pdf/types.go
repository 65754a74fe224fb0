package pdf

import "github.com/a3tai/mcp-pdf-signer/internal/fields"

// DocumentInfo describes an inspected PDF
type DocumentInfo struct {
	PageCount int              `json:"page_count"`
	Pages     []fields.PageBox `json:"pages"`
	Version   string           `json:"version"`
	Size      int64            `json:"size"`
}

// Layout returns the field validation layout for the document
func (d *DocumentInfo) Layout() fields.Layout {
	return fields.LayoutFromPages(d.Pages)
}

// Raster is a normalised signature image ready to be stamped
type Raster struct {
	PNG      []byte `json:"-"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"` // format of the captured payload
	Original []byte `json:"-"`      // captured bytes after transfer decoding
}

// OverlayKind selects how an overlay is rendered
type OverlayKind int

const (
	OverlayImage OverlayKind = iota
	OverlayText
)

// Overlay is content composited into a field region on one page.
// Region is in field coordinates (top-left origin, points).
type Overlay struct {
	Page   int
	Kind   OverlayKind
	Region fields.Region
	Image  *Raster
	Text   string
}
