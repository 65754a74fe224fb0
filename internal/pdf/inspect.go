package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/a3tai/mcp-pdf-signer/internal/fields"
)

// relaxedConfiguration is the pdfcpu configuration used for every read and write
func relaxedConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Inspect reads the page count and media box size of every page
func Inspect(data []byte) (*DocumentInfo, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), relaxedConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	pages := make([]fields.PageBox, 0, len(dims))
	for _, d := range dims {
		pages = append(pages, fields.PageBox{Width: d.Width, Height: d.Height})
	}

	return &DocumentInfo{
		PageCount: ctx.PageCount,
		Pages:     pages,
		Version:   ctx.HeaderVersion.String(),
		Size:      int64(len(data)),
	}, nil
}
