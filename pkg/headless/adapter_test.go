package headless

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-cropper/pkg/interaction"
	"github.com/menta2k/image-cropper/pkg/types"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestAdapter_Display(t *testing.T) {
	tests := map[string]struct {
		natural  image.Point
		viewport types.Size
		want     types.Size
	}{
		"downscaled to width":  {image.Pt(1600, 1200), types.Size{Width: 800, Height: 800}, types.Size{Width: 800, Height: 600}},
		"downscaled to height": {image.Pt(1600, 1200), types.Size{Width: 2000, Height: 300}, types.Size{Width: 400, Height: 300}},
		"never upscaled":       {image.Pt(400, 300), types.Size{Width: 800, Height: 600}, types.Size{Width: 400, Height: 300}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			img := imaging.New(tc.natural.X, tc.natural.Y, color.NRGBA{A: 255})
			a := FromImage(img, tc.viewport, WithLogger(discardLogger), WithOffset(5, 7))
			assert.Equal(t, tc.want, a.Display())
			assert.Equal(t, types.Bounds{Left: 5, Top: 7, Width: tc.want.Width, Height: tc.want.Height}, a.Bounds())
		})
	}
}

func TestAdapter_LoadImage(t *testing.T) {
	img := imaging.New(10, 20, color.NRGBA{A: 255})
	a := New(types.Size{Width: 100, Height: 100},
		WithLogger(discardLogger),
		WithLoader(func(_ context.Context, src string) (image.Image, error) {
			if src == "bad" {
				return nil, errors.New("boom")
			}
			return img, nil
		}),
	)
	assert.True(t, a.NaturalSize().Empty())

	var done int
	a.LoadImage("good", func() { done++ })
	assert.Equal(t, 0, done, "done runs on flush")
	assert.Equal(t, 1, a.Flush())
	assert.Equal(t, 1, done)
	assert.Equal(t, types.Size{Width: 10, Height: 20}, a.NaturalSize())
	assert.Equal(t, "good", a.Source())

	a.LoadImage("bad", func() { done++ })
	a.Settle()
	assert.Equal(t, 1, done)
	assert.ErrorContains(t, a.LoadError(), "boom")
}

func TestAdapter_CapturePointer(t *testing.T) {
	a := New(types.Size{Width: 10, Height: 10}, WithLogger(discardLogger))
	release := a.CapturePointer()
	assert.True(t, a.Captured())
	release()
	release()
	assert.False(t, a.Captured())
}

func TestAdapter_Render(t *testing.T) {
	img := imaging.New(200, 100, color.NRGBA{R: 255, A: 255})
	a := FromImage(img, types.Size{Width: 100, Height: 100}, WithLogger(discardLogger))

	_, err := a.Render()
	assert.Error(t, err)

	a.Draw(interaction.Frame{Clip: interaction.Clip{Top: 10, Right: 60, Bottom: 40, Left: 10}})
	out, err := a.Render()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(100, 50), out.Bounds().Size())
	assert.Equal(t, 1, a.Frames())

	_, err = a.RenderPreview()
	assert.Error(t, err)

	a.Destroy()
	assert.True(t, a.Destroyed())
	assert.Nil(t, a.Image())
}
