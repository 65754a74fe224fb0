package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegion_ToUserSpace(t *testing.T) {
	r := Region{X: 10, Y: 10, Width: 100, Height: 20}
	got := r.ToUserSpace(792)

	assert.Equal(t, Region{X: 10, Y: 762, Width: 100, Height: 20}, got)
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH float64
		region     Region
		want       Fit
	}{
		{
			name:   "wide image limited by width",
			srcW:   400,
			srcH:   100,
			region: Region{Width: 200, Height: 100},
			want:   Fit{Scale: 0.5, Width: 200, Height: 50},
		},
		{
			name:   "tall image limited by height",
			srcW:   100,
			srcH:   400,
			region: Region{Width: 200, Height: 100},
			want:   Fit{Scale: 0.25, Width: 25, Height: 100},
		},
		{
			name:   "small image scaled up",
			srcW:   50,
			srcH:   25,
			region: Region{Width: 200, Height: 100},
			want:   Fit{Scale: 4, Width: 200, Height: 100},
		},
		{
			name:   "empty source",
			srcW:   0,
			srcH:   25,
			region: Region{Width: 200, Height: 100},
			want:   Fit{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitWithin(tt.srcW, tt.srcH, tt.region)
			assert.InDelta(t, tt.want.Scale, got.Scale, 1e-9)
			assert.InDelta(t, tt.want.Width, got.Width, 1e-9)
			assert.InDelta(t, tt.want.Height, got.Height, 1e-9)
			assert.LessOrEqual(t, got.Width, tt.region.Width+1e-9)
			assert.LessOrEqual(t, got.Height, tt.region.Height+1e-9)
		})
	}
}

func TestAnchorTopLeft(t *testing.T) {
	r := Region{X: 72, Y: 100, Width: 200, Height: 60}

	x, y := AnchorTopLeft(r, 30, 792)
	assert.Equal(t, 72.0, x)
	assert.Equal(t, 662.0, y)

	// content occupies [y, y+30] which lies inside the region's user space span
	us := r.ToUserSpace(792)
	assert.GreaterOrEqual(t, y, us.Y)
	assert.LessOrEqual(t, y+30, us.Y+us.Height)
}
