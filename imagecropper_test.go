package imagecropper

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-cropper/pkg/convert"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/headless"
	"github.com/menta2k/image-cropper/pkg/interaction"
	"github.com/menta2k/image-cropper/pkg/options"
	"github.com/menta2k/image-cropper/pkg/types"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// createTestImage creates a flat image of the given size
func createTestImage(width, height int) image.Image {
	return imaging.New(width, height, color.NRGBA{R: 64, G: 64, B: 64, A: 255})
}

type events struct {
	names []string
}

func (e *events) install(o *options.Options) {
	o.OnCropStart = func(types.Value) { e.names = append(e.names, "start") }
	o.OnCropMove = func(types.Value) { e.names = append(e.names, "move") }
	o.OnCropEnd = func(types.Value) { e.names = append(e.names, "end") }
}

// newTestCropper binds a cropper to a 1600x1200 image shown at 800x600.
func newTestCropper(t *testing.T, o options.Options, opts ...headless.Option) (*Cropper, *headless.Adapter, *events) {
	t.Helper()
	ev := &events{}
	ev.install(&o)
	o.Logger = discardLogger

	opts = append([]headless.Option{headless.WithLogger(discardLogger)}, opts...)
	adapter := headless.FromImage(createTestImage(1600, 1200), types.Size{Width: 800, Height: 600}, opts...)
	c, err := New(adapter, o, interaction.WithResizeDelay(5*time.Millisecond))
	require.NoError(t, err)
	adapter.Settle()
	return c, adapter, ev
}

func TestNew_InitializesImmediately(t *testing.T) {
	var initial types.Value
	c, adapter, _ := newTestCropper(t, options.Options{
		OnInitialize: func(v types.Value) { initial = v },
	})

	assert.True(t, c.Initialized())
	assert.Equal(t, types.Value{Width: 1600, Height: 1200}, initial)

	f, ok := adapter.LastFrame()
	require.True(t, ok)
	assert.Equal(t, types.Value{Width: 800, Height: 600}, f.Region)
}

func TestNew_WaitsForImageLoad(t *testing.T) {
	img := createTestImage(1600, 1200)
	adapter := headless.New(types.Size{Width: 800, Height: 600},
		headless.WithLogger(discardLogger),
		headless.WithSource("photo.jpg"),
		headless.WithLoader(func(context.Context, string) (image.Image, error) { return img, nil }),
	)

	initialized := false
	c, err := New(adapter, options.Options{
		Logger:       discardLogger,
		OnInitialize: func(types.Value) { initialized = true },
	})
	require.NoError(t, err)

	_, err = c.GetValue()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, c.MoveTo(1, 1), ErrNotInitialized)

	adapter.Settle()
	assert.True(t, initialized)
	v, err := c.GetValue(options.ReturnRaw)
	require.NoError(t, err)
	assert.Equal(t, types.Value{Width: 800, Height: 600}, v)
}

func TestNew_ConfigurationErrors(t *testing.T) {
	viewport := types.Size{Width: 100, Height: 100}

	_, err := New(nil, options.Options{})
	assert.ErrorIs(t, err, ErrTargetNotFound)
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	_, err = New(headless.New(viewport, headless.WithLogger(discardLogger)), options.Options{Logger: discardLogger})
	assert.ErrorIs(t, err, ErrMissingSource)

	loads := 0
	adapter := headless.New(viewport,
		headless.WithLogger(discardLogger),
		headless.WithSource("photo.jpg"),
		headless.WithLoader(func(context.Context, string) (image.Image, error) {
			loads++
			return createTestImage(10, 10), nil
		}),
	)
	_, err = New(adapter, options.Options{ReturnMode: "pixels", Logger: discardLogger})
	assert.ErrorIs(t, err, ErrInvalidReturnMode)
	assert.Equal(t, 0, loads, "adapter untouched on configuration error")
}

func TestCropper_ResizeRespectsMinSize(t *testing.T) {
	c, _, _ := newTestCropper(t, options.Options{MinSize: options.NewTuple(50, 50, "px")})

	require.NoError(t, c.SetValue(types.Value{X: 100, Y: 100, Width: 300, Height: 300}, WithUnit(convert.Pixel)))
	require.NoError(t, c.ResizeTo(10, 10, WithOrigin(geometry.TopLeft)))

	v, err := c.GetValue(options.ReturnRaw)
	require.NoError(t, err)
	assert.Equal(t, 50.0, v.Width)
	assert.Equal(t, 50.0, v.Height)
}

func TestCropper_GetValueModes(t *testing.T) {
	c, _, _ := newTestCropper(t, options.Options{})
	require.NoError(t, c.SetValue(types.Value{X: 10.4, Y: 10.6, Width: 40.1, Height: 49.9},
		WithUnit(convert.Pixel), WithoutConstraint()))

	tests := map[string]struct {
		mode options.ReturnMode
		want types.Value
	}{
		"raw":  {options.ReturnRaw, types.Value{X: 10, Y: 11, Width: 40, Height: 50}},
		"real": {options.ReturnReal, types.Value{X: 21, Y: 21, Width: 80, Height: 100}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := c.GetValue(tc.mode)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v)
		})
	}

	v, err := c.GetValue(options.ReturnRatio)
	require.NoError(t, err)
	assert.InDelta(t, 10.4/800, v.X, 1e-9)
	assert.InDelta(t, 49.9/600, v.Height, 1e-9)

	v, err = c.GetValue()
	require.NoError(t, err)
	assert.Equal(t, types.Value{X: 21, Y: 21, Width: 80, Height: 100}, v, "configured mode is real")

	_, err = c.GetValue("pixels")
	assert.ErrorIs(t, err, ErrInvalidReturnMode)
}

func TestCropper_GetValueEmptyModeUsesConfigured(t *testing.T) {
	c, _, _ := newTestCropper(t, options.Options{ReturnMode: "ratio"})

	want, err := c.GetValue()
	require.NoError(t, err)
	got, err := c.GetValue("")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.LessOrEqual(t, got.Width, 1.0)
}

func TestCropper_ProgrammaticOps(t *testing.T) {
	c, _, ev := newTestCropper(t, options.Options{ReturnMode: "raw"})

	require.NoError(t, c.SetValue(types.Value{X: 10, Y: 10, Width: 50, Height: 50}))
	v, _ := c.GetValue()
	assert.Equal(t, types.Value{X: 80, Y: 60, Width: 400, Height: 300}, v)

	require.NoError(t, c.MoveTo(0.5, 0.5, WithUnit(convert.Ratio)))
	v, _ = c.GetValue()
	assert.Equal(t, types.Value{X: 400, Y: 300, Width: 400, Height: 300}, v)

	require.NoError(t, c.ScaleBy(0.5, WithOrigin(geometry.BottomRight)))
	v, _ = c.GetValue()
	assert.Equal(t, types.Value{X: 600, Y: 450, Width: 200, Height: 150}, v)

	require.NoError(t, c.ResizeTo(800, 600, WithUnit(convert.Real), WithOrigin(geometry.BottomRight)))
	v, _ = c.GetValue()
	assert.Equal(t, types.Value{X: 400, Y: 300, Width: 400, Height: 300}, v)

	require.NoError(t, c.Reset())
	v, _ = c.GetValue()
	assert.Equal(t, types.Value{Width: 800, Height: 600}, v)

	assert.Equal(t, []string{"end", "end", "end", "end", "end"}, ev.names)
}

func TestCropper_PointerGesture(t *testing.T) {
	c, adapter, ev := newTestCropper(t, options.Options{ReturnMode: "raw"}, headless.WithOffset(20, 10))

	require.True(t, c.PointerDown(interaction.HandleTarget(interaction.HandleSE), 820, 610))
	assert.True(t, adapter.Captured())
	c.PointerMove(420, 310)
	c.PointerUp(420, 310)
	assert.False(t, adapter.Captured())

	v, err := c.GetValue()
	require.NoError(t, err)
	assert.Equal(t, types.Value{Width: 400, Height: 300}, v)
	assert.Equal(t, []string{"start", "move", "end"}, ev.names)

	adapter.Settle()
	f, ok := adapter.LastFrame()
	require.True(t, ok)
	assert.Equal(t, v, f.Region)
}

func TestCropper_Wheel(t *testing.T) {
	c, _, ev := newTestCropper(t, options.Options{ReturnMode: "raw"})

	require.NoError(t, c.Wheel(-100))
	v, _ := c.GetValue()
	assert.Equal(t, types.Value{X: 20, Y: 15, Width: 760, Height: 570}, v)
	assert.Equal(t, []string{"end", "move", "start"}, ev.names)
}

func TestCropper_ResponsiveResize(t *testing.T) {
	c, adapter, ev := newTestCropper(t, options.Options{ReturnMode: "raw"})
	require.NoError(t, c.SetValue(types.Value{X: 25, Y: 25, Width: 50, Height: 50}))
	ev.names = nil

	adapter.Resize(types.Size{Width: 400, Height: 400})
	require.NoError(t, c.NotifyResize())

	want := types.Value{X: 100, Y: 75, Width: 200, Height: 150}
	require.Eventually(t, func() bool {
		adapter.Settle()
		v, err := c.GetValue()
		return err == nil && v == want
	}, time.Second, 2*time.Millisecond)
	assert.Empty(t, ev.names)
}

func TestCropper_Preview(t *testing.T) {
	c, adapter, _ := newTestCropper(t, options.Options{Preview: true},
		headless.WithPreview(types.Size{Width: 200, Height: 200}))

	f, err := c.Frame()
	require.NoError(t, err)
	require.NotNil(t, f.Preview)
	assert.InDelta(t, 200, f.Preview.Container.Width, 1e-9)
	assert.InDelta(t, 150, f.Preview.Container.Height, 1e-9)

	out, err := adapter.RenderPreview()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(200, 150), out.Bounds().Size())
}

func TestCropper_SetImage(t *testing.T) {
	var order []string
	o := options.Options{ReturnMode: "raw"}
	square := createTestImage(400, 400)
	c, adapter, ev := newTestCropper(t, o, headless.WithLoader(func(_ context.Context, src string) (image.Image, error) {
		if src == "missing.jpg" {
			return nil, errors.New("not found")
		}
		return square, nil
	}))
	c.opts.OnCropEnd = func(types.Value) { order = append(order, "end") }

	require.NoError(t, c.SetImage("square.jpg", func() { order = append(order, "callback") }))
	adapter.Settle()

	v, err := c.GetValue()
	require.NoError(t, err)
	assert.Equal(t, types.Value{Width: 400, Height: 400}, v)
	assert.Equal(t, []string{"end", "callback"}, order)
	assert.Empty(t, ev.names)

	called := false
	require.NoError(t, c.SetImage("missing.jpg", func() { called = true }))
	adapter.Settle()
	assert.False(t, called)
	assert.Error(t, adapter.LoadError())

	assert.ErrorIs(t, c.SetImage("", nil), ErrMissingSource)
}

func TestCropper_Destroy(t *testing.T) {
	c, adapter, _ := newTestCropper(t, options.Options{})
	c.Destroy()
	c.Destroy()

	assert.True(t, adapter.Destroyed())
	assert.ErrorIs(t, c.Reset(), ErrDestroyed)
	assert.ErrorIs(t, c.SetImage("x.jpg", nil), ErrDestroyed)
	_, err := c.GetValue()
	assert.ErrorIs(t, err, ErrDestroyed)
	assert.False(t, c.PointerDown(interaction.RegionTarget, 10, 10))
}
