// Package headless implements a cropper adapter that lays the image out in
// an in-memory viewport. Scheduled work runs when the owner calls Flush or
// Settle, which stands in for a browser's animation frame.
package headless

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/menta2k/image-cropper/pkg/interaction"
	"github.com/menta2k/image-cropper/pkg/processing"
	"github.com/menta2k/image-cropper/pkg/types"
)

// maxSettlePasses bounds Settle when scheduled work keeps rescheduling.
const maxSettlePasses = 64

// Loader fetches and decodes an image source.
type Loader func(ctx context.Context, src string) (image.Image, error)

// Adapter fits the image into a viewport without upscaling and records
// the frames the cropper draws.
type Adapter struct {
	processor *processing.Processor
	loader    Loader
	logger    *slog.Logger
	queue     interaction.FrameQueue

	viewport types.Size
	left     float64
	top      float64

	src     string
	img     image.Image
	natural types.Size
	loadErr error

	last    interaction.Frame
	frames  int
	preview types.Size

	captures  int
	destroyed bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLoader replaces the file/URL loader.
func WithLoader(l Loader) Option {
	return func(a *Adapter) { a.loader = l }
}

// WithOffset places the container at (left, top) in client coordinates.
func WithOffset(left, top float64) Option {
	return func(a *Adapter) { a.left, a.top = left, top }
}

// WithPreview enables a preview target of the given size.
func WithPreview(size types.Size) Option {
	return func(a *Adapter) { a.preview = size }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithSource sets the image source loaded on first use.
func WithSource(src string) Option {
	return func(a *Adapter) { a.src = src }
}

// New returns an adapter with no image loaded yet.
func New(viewport types.Size, opts ...Option) *Adapter {
	a := &Adapter{
		processor: processing.NewProcessor(),
		viewport:  viewport,
		logger:    slog.Default(),
	}
	a.loader = a.processor.Load
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FromImage returns an adapter already holding img.
func FromImage(img image.Image, viewport types.Size, opts ...Option) *Adapter {
	a := New(viewport, opts...)
	if a.src == "" {
		a.src = "memory:image"
	}
	a.setImage(img)
	return a
}

func (a *Adapter) setImage(img image.Image) {
	b := img.Bounds()
	a.img = img
	a.natural = types.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
	a.loadErr = nil
}

// Source returns the current image source.
func (a *Adapter) Source() string { return a.src }

// LoadImage loads src synchronously and schedules done. On failure done is
// not called and the error is kept for LoadError.
func (a *Adapter) LoadImage(src string, done func()) {
	a.src = src
	img, err := a.loader(context.Background(), src)
	if err != nil {
		a.loadErr = fmt.Errorf("failed to load %s: %w", src, err)
		a.logger.Error("image load failed", "src", src, "error", err)
		return
	}
	a.setImage(img)
	a.logger.Debug("image loaded", "src", src, "width", a.natural.Width, "height", a.natural.Height)
	a.queue.Schedule(done)
}

// LoadError returns the error of the last failed load.
func (a *Adapter) LoadError() error { return a.loadErr }

// NaturalSize returns the image's native size, empty until loaded.
func (a *Adapter) NaturalSize() types.Size { return a.natural }

// Display returns the size the image is rendered at.
func (a *Adapter) Display() types.Size {
	if a.natural.Empty() || a.viewport.Empty() {
		return types.Size{}
	}
	scale := math.Min(1, math.Min(a.viewport.Width/a.natural.Width, a.viewport.Height/a.natural.Height))
	return types.Size{
		Width:  math.Round(a.natural.Width * scale),
		Height: math.Round(a.natural.Height * scale),
	}
}

// Bounds reports the rendered container in client coordinates.
func (a *Adapter) Bounds() types.Bounds {
	d := a.Display()
	return types.Bounds{Left: a.left, Top: a.top, Width: d.Width, Height: d.Height}
}

// Resize changes the viewport. Callers follow up with NotifyResize on the
// cropper.
func (a *Adapter) Resize(viewport types.Size) {
	a.viewport = viewport
}

// Schedule queues fn for the next Flush. It is safe to call from any
// goroutine.
func (a *Adapter) Schedule(fn func()) {
	a.queue.Schedule(fn)
}

// Flush runs the work queued so far and returns how much ran.
func (a *Adapter) Flush() int {
	return a.queue.Flush()
}

// Settle flushes until nothing is queued.
func (a *Adapter) Settle() {
	for i := 0; i < maxSettlePasses && a.queue.Flush() > 0; i++ {
	}
}

// Draw records a frame.
func (a *Adapter) Draw(f interaction.Frame) {
	a.last = f
	a.frames++
}

// LastFrame returns the most recent frame and whether any was drawn.
func (a *Adapter) LastFrame() (interaction.Frame, bool) {
	return a.last, a.frames > 0
}

// Frames returns how many frames were drawn.
func (a *Adapter) Frames() int { return a.frames }

// CapturePointer marks the pointer as captured until the returned func runs.
func (a *Adapter) CapturePointer() func() {
	a.captures++
	released := false
	return func() {
		if !released {
			released = true
			a.captures--
		}
	}
}

// Captured reports whether a gesture holds the pointer.
func (a *Adapter) Captured() bool { return a.captures > 0 }

// PreviewSize returns the preview target size when one is configured.
func (a *Adapter) PreviewSize() (types.Size, bool) {
	return a.preview, !a.preview.Empty()
}

// Image returns the loaded image.
func (a *Adapter) Image() image.Image { return a.img }

// Render composites the last frame over the displayed image.
func (a *Adapter) Render() (image.Image, error) {
	if a.img == nil {
		return nil, fmt.Errorf("no image loaded")
	}
	if a.frames == 0 {
		return nil, fmt.Errorf("nothing drawn yet")
	}
	return a.processor.RenderFrame(a.img, a.Display(), a.last), nil
}

// RenderPreview renders the preview of the last frame.
func (a *Adapter) RenderPreview() (image.Image, error) {
	if a.img == nil {
		return nil, fmt.Errorf("no image loaded")
	}
	if a.last.Preview == nil {
		return nil, fmt.Errorf("no preview in last frame")
	}
	return a.processor.RenderPreview(a.img, *a.last.Preview), nil
}

// Destroy drops the image.
func (a *Adapter) Destroy() {
	a.destroyed = true
	a.img = nil
	a.logger.Debug("headless adapter destroyed", "src", a.src)
}

// Destroyed reports whether Destroy ran.
func (a *Adapter) Destroyed() bool { return a.destroyed }
