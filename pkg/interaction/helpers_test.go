package interaction

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/options"
	"github.com/menta2k/image-cropper/pkg/types"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeHost records everything the controller asks of it.
type fakeHost struct {
	bounds  types.Bounds
	natural types.Size
	queue   FrameQueue
	frames  []Frame

	captures, releases int
	reveals, restores  int

	preview    types.Size
	hasPreview bool
}

func newFakeHost(w, h float64) *fakeHost {
	return &fakeHost{
		bounds:  types.Bounds{Width: w, Height: h},
		natural: types.Size{Width: w * 2, Height: h * 2},
	}
}

func (h *fakeHost) Bounds() types.Bounds    { return h.bounds }
func (h *fakeHost) NaturalSize() types.Size { return h.natural }
func (h *fakeHost) Schedule(fn func())      { h.queue.Schedule(fn) }
func (h *fakeHost) Draw(f Frame)            { h.frames = append(h.frames, f) }

func (h *fakeHost) CapturePointer() func() {
	h.captures++
	return func() { h.releases++ }
}

func (h *fakeHost) Reveal() func() {
	h.reveals++
	return func() { h.restores++ }
}

func (h *fakeHost) PreviewSize() (types.Size, bool) {
	return h.preview, h.hasPreview
}

// recorder collects lifecycle callbacks in order.
type recorder struct {
	events []string
	values []types.Value
}

func (r *recorder) hook(name string) options.Callback {
	return func(v types.Value) {
		r.events = append(r.events, name)
		r.values = append(r.values, v)
	}
}

func (r *recorder) install(o *options.Options) {
	o.OnCropStart = r.hook("start")
	o.OnCropMove = r.hook("move")
	o.OnCropEnd = r.hook("end")
}

func (r *recorder) reset() {
	r.events = nil
	r.values = nil
}

func newTestController(t *testing.T, o options.Options, w, h float64) (*Controller, *fakeHost, *recorder) {
	t.Helper()
	rec := &recorder{}
	rec.install(&o)
	o.Logger = discardLogger
	cfg, err := options.Parse(o)
	require.NoError(t, err)

	host := newFakeHost(w, h)
	c := New(host, cfg)
	c.Initialize()
	host.queue.Flush()
	return c, host, rec
}

func assertBox(t *testing.T, want, got *geometry.Rect) {
	t.Helper()
	assert.InDelta(t, want.X1, got.X1, 1e-6, "x1")
	assert.InDelta(t, want.Y1, got.Y1, 1e-6, "y1")
	assert.InDelta(t, want.X2, got.X2, 1e-6, "x2")
	assert.InDelta(t, want.Y2, got.Y2, 1e-6, "y2")
}
