package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-signer/internal/fields"
	"github.com/a3tai/mcp-pdf-signer/internal/testutil"
)

func TestInspect_PageBoxes(t *testing.T) {
	data := testutil.BuildPDF(
		testutil.Letter("first"),
		testutil.Page{Width: 300, Height: 200, Text: "second"},
	)

	info, err := Inspect(data)
	require.NoError(t, err)

	assert.Equal(t, 2, info.PageCount)
	require.Len(t, info.Pages, 2)
	assert.InDelta(t, 612, info.Pages[0].Width, 0.01)
	assert.InDelta(t, 792, info.Pages[0].Height, 0.01)
	assert.InDelta(t, 300, info.Pages[1].Width, 0.01)
	assert.InDelta(t, 200, info.Pages[1].Height, 0.01)
	assert.Equal(t, int64(len(data)), info.Size)

	layout := info.Layout()
	assert.True(t, layout.HasBoxes())
	assert.Equal(t, fields.PageBox{Width: info.Pages[1].Width, Height: info.Pages[1].Height}, layout.Pages[1])
}

func TestInspect_Garbage(t *testing.T) {
	_, err := Inspect([]byte("not a pdf"))
	assert.Error(t, err)
}
