package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-cropper/pkg/types"
)

var conv = New(types.Size{Width: 400, Height: 300}, types.Size{Width: 1600, Height: 900})

func TestParseUnit(t *testing.T) {
	tests := map[string]Unit{
		"px":    Pixel,
		"raw":   Pixel,
		"%":     Percent,
		"RATIO": Ratio,
		" real": Real,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := ParseUnit(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := ParseUnit("em")
	assert.Error(t, err)
}

func TestConverter_ToPixel(t *testing.T) {
	tests := map[string]struct {
		in   types.Value
		unit Unit
		want types.Value
	}{
		"pixel passthrough": {types.Value{X: 1, Y: 2, Width: 3, Height: 4}, Pixel, types.Value{X: 1, Y: 2, Width: 3, Height: 4}},
		"ratio":             {types.Value{X: 0.25, Y: 0.5, Width: 0.5, Height: 0.5}, Ratio, types.Value{X: 100, Y: 150, Width: 200, Height: 150}},
		"percent":           {types.Value{X: 25, Y: 50, Width: 50, Height: 50}, Percent, types.Value{X: 100, Y: 150, Width: 200, Height: 150}},
		"real":              {types.Value{X: 400, Y: 450, Width: 800, Height: 450}, Real, types.Value{X: 100, Y: 150, Width: 200, Height: 150}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := conv.ToPixel(tc.in, tc.unit)
			assert.InDelta(t, tc.want.X, got.X, 1e-9)
			assert.InDelta(t, tc.want.Y, got.Y, 1e-9)
			assert.InDelta(t, tc.want.Width, got.Width, 1e-9)
			assert.InDelta(t, tc.want.Height, got.Height, 1e-9)
		})
	}
}

func TestConverter_RealRoundTrip(t *testing.T) {
	in := types.Value{X: 13.7, Y: 99.2, Width: 201.4, Height: 55.5}
	back := conv.RealToPixel(conv.PixelToReal(in))
	assert.InDelta(t, in.X, back.X, 1)
	assert.InDelta(t, in.Y, back.Y, 1)
	assert.InDelta(t, in.Width, back.Width, 1)
	assert.InDelta(t, in.Height, back.Height, 1)
}

func TestConverter_RatioAndPercentRoundTrip(t *testing.T) {
	boxes := []types.Value{
		{X: 13.7, Y: 99.2, Width: 201.4, Height: 55.5},
		{X: 0.3, Y: 0.6, Width: 399.1, Height: 299.2},
		{X: 133.33, Y: 66.67, Width: 1.25, Height: 0.75},
	}
	for _, in := range boxes {
		for _, unit := range []Unit{Ratio, Percent} {
			t.Run(unit.String(), func(t *testing.T) {
				back := conv.ToPixel(conv.FromPixel(in, unit), unit)
				assert.InDelta(t, in.X, back.X, 1)
				assert.InDelta(t, in.Y, back.Y, 1)
				assert.InDelta(t, in.Width, back.Width, 1)
				assert.InDelta(t, in.Height, back.Height, 1)
			})
		}
		back := conv.RatioToPixel(conv.PixelToRatio(in))
		assert.InDelta(t, in.Width, back.Width, 1)
		assert.InDelta(t, in.Height, back.Height, 1)
	}
}

func TestConverter_FromPixel(t *testing.T) {
	px := types.Value{X: 100, Y: 150, Width: 200, Height: 150}
	assert.Equal(t, types.Value{X: 25, Y: 50, Width: 50, Height: 50}, conv.FromPixel(px, Percent))
	assert.Equal(t, types.Value{X: 0.25, Y: 0.5, Width: 0.5, Height: 0.5}, conv.FromPixel(px, Ratio))
	assert.Equal(t, types.Value{X: 400, Y: 450, Width: 800, Height: 450}, conv.FromPixel(px, Real))
	assert.Equal(t, px, conv.FromPixel(px, Pixel))
}

func TestConverter_ZeroSizes(t *testing.T) {
	var zero Converter
	v := types.Value{X: 10, Y: 10, Width: 10, Height: 10}
	assert.Equal(t, types.Value{}, zero.PixelToRatio(v))
	assert.Equal(t, types.Value{}, zero.RealToPixel(v))
	assert.Equal(t, types.Value{}, zero.PixelToReal(v))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 11.0, Round(10.5))
	assert.Equal(t, 10.0, Round(10.4))
	assert.Equal(t, 0.0, Round(-0.5))
	assert.Equal(t,
		types.Value{X: 10, Y: 11, Width: 51, Height: 61},
		RoundValue(types.Value{X: 10.4, Y: 10.6, Width: 50.5, Height: 60.5}))
}
