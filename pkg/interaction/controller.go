// Package interaction drives the crop box from pointer gestures and
// programmatic operations. The Controller owns the box, runs every change
// through the constraint pipeline and emits frames and lifecycle callbacks.
package interaction

import (
	"log/slog"
	"time"

	"github.com/menta2k/image-cropper/pkg/convert"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/options"
	"github.com/menta2k/image-cropper/pkg/types"
)

// ResizeDelay is the default quiet period before a container resize is
// applied.
const ResizeDelay = 100 * time.Millisecond

// State enumerates the gesture states.
type State int

const (
	Idle State = iota
	DraggingHandle
	DraggingRegion
	CreatingRegion
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case DraggingHandle:
		return "dragging-handle"
	case DraggingRegion:
		return "dragging-region"
	case CreatingRegion:
		return "creating-region"
	default:
		return "unknown"
	}
}

// TargetKind is the element a pointer went down on.
type TargetKind int

const (
	TargetHandle TargetKind = iota
	TargetRegion
	TargetOverlay
)

// Target identifies the pressed element. Handle is an index into Handles
// and is only read for TargetHandle.
type Target struct {
	Kind   TargetKind
	Handle int
}

// HandleTarget targets handle i.
func HandleTarget(i int) Target {
	return Target{Kind: TargetHandle, Handle: i}
}

var (
	// RegionTarget targets the crop region itself.
	RegionTarget = Target{Kind: TargetRegion}
	// OverlayTarget targets the dimmed area outside the region.
	OverlayTarget = Target{Kind: TargetOverlay}
)

type handleDrag struct {
	handle  int
	origin  geometry.Point
	originX float64
	originY float64
}

type regionDrag struct {
	offsetX float64
	offsetY float64
}

// Controller is the gesture state machine. It is not safe for concurrent
// use; see Host.
type Controller struct {
	host   Host
	cfg    options.Config
	logger *slog.Logger
	bus    *Bus

	conv     convert.Converter
	resolved options.Resolved
	box      *geometry.Rect

	state   State
	handle  handleDrag
	region  regionDrag
	stashed *geometry.Rect
	release func()

	modal         modalGuard
	debounce      *Debouncer
	redrawPending bool
	snapshot      types.Value
	initialized   bool
	destroyed     bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithResizeDelay overrides the responsive debounce period.
func WithResizeDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.debounce = NewDebouncer(d, c.host.Schedule)
	}
}

// New wires a controller to host. Call Initialize once the host reports
// a natural size.
func New(host Host, cfg options.Config, opts ...Option) *Controller {
	c := &Controller{
		host:   host,
		cfg:    cfg,
		logger: cfg.Logger,
		bus:    NewBus(),
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if cfg.Modal {
		if r, ok := host.(Revealer); ok {
			c.modal.revealer = r
		}
	}
	c.debounce = NewDebouncer(ResizeDelay, host.Schedule)
	for _, opt := range opts {
		opt(c)
	}

	c.bus.Subscribe(HandleStart, c.onHandleStart)
	c.bus.Subscribe(HandleMove, c.onHandleMove)
	c.bus.Subscribe(HandleEnd, c.onHandleEnd)
	c.bus.Subscribe(RegionStart, c.onRegionStart)
	c.bus.Subscribe(RegionMove, c.onRegionMove)
	c.bus.Subscribe(RegionEnd, c.onRegionEnd)
	return c
}

// Bus exposes the event bus so observers can follow gestures.
func (c *Controller) Bus() *Bus { return c.bus }

// State returns the current gesture state.
func (c *Controller) State() State { return c.state }

// Initialized reports whether Initialize has run.
func (c *Controller) Initialized() bool { return c.initialized }

// Config returns the active configuration.
func (c *Controller) Config() options.Config { return c.cfg }

// SetConfig replaces the configuration. The box is left untouched until
// the next Initialize or Reset.
func (c *Controller) SetConfig(cfg options.Config) {
	c.cfg = cfg
	if cfg.Logger != nil {
		c.logger = cfg.Logger
	}
}

// Converter returns the converter for the last measurement.
func (c *Controller) Converter() convert.Converter { return c.conv }

// Box returns a copy of the current crop box.
func (c *Controller) Box() *geometry.Rect {
	if c.box == nil {
		return nil
	}
	return c.box.Clone()
}

// Initialize measures the container, builds the start box, constrains it
// and requests the first frame. It may be called again after the image
// changes.
func (c *Controller) Initialize() {
	c.modal.run(func() {
		c.measure()
		c.box = c.resolved.StartRect()
		c.StrictlyConstrain(nil)
		c.requestRedraw()
	})
	c.initialized = true
	c.logger.Debug("cropper initialized",
		"container_w", c.conv.Container.Width, "container_h", c.conv.Container.Height,
		"natural_w", c.conv.Natural.Width, "natural_h", c.conv.Natural.Height)
}

// measure refreshes the converter and resolved configuration from the host.
func (c *Controller) measure() {
	c.modal.run(func() {
		bounds := c.host.Bounds()
		c.conv = convert.New(bounds.Size(), c.host.NaturalSize())
		c.resolved = c.cfg.Resolve(c.conv)
	})
}

func (c *Controller) bounds() types.Bounds {
	var b types.Bounds
	c.modal.run(func() { b = c.host.Bounds() })
	return b
}

// StrictlyConstrain runs the full pipeline: ratio, size, then boundary.
// With a nil origin ratio and size pivot on the center and the boundary is
// enforced from both the top-left and bottom-right corners.
func (c *Controller) StrictlyConstrain(origin *geometry.Point) {
	pivot := geometry.Center
	boundaryOrigins := []geometry.Point{geometry.TopLeft, geometry.BottomRight}
	if origin != nil {
		pivot = *origin
		boundaryOrigins = []geometry.Point{*origin}
	}
	c.constrain(c.box, pivot, geometry.GrowHeight, boundaryOrigins)
}

func (c *Controller) constrain(box *geometry.Rect, origin geometry.Point, grow geometry.Axis, boundaryOrigins []geometry.Point) {
	r := c.resolved
	if r.AspectRatio != 0 {
		box.ConstrainToRatio(r.AspectRatio, origin, grow, r.MaxAspectRatio)
	}
	box.ConstrainToSize(r.MaxSize.Width, r.MaxSize.Height, r.MinSize.Width, r.MinSize.Height,
		origin, r.AspectRatio, r.MaxAspectRatio)
	for _, o := range boundaryOrigins {
		box.ConstrainToBoundary(c.conv.Container.Width, c.conv.Container.Height, o)
	}
}

// Value reports the box in mode. Every read refreshes the ratio snapshot
// used by responsive re-sync.
func (c *Controller) Value(mode options.ReturnMode) types.Value {
	if c.box == nil {
		return types.Value{}
	}
	n := c.box.Normalized()
	px := types.Value{X: n.X1, Y: n.Y1, Width: n.Width(), Height: n.Height()}
	ratio := c.conv.PixelToRatio(px)
	if c.cfg.Responsive {
		c.snapshot = ratio
	}

	switch mode {
	case options.ReturnRatio:
		return ratio
	case options.ReturnRaw:
		return convert.RoundValue(px)
	default:
		return c.conv.PixelToReal(px)
	}
}

func (c *Controller) emit(cb options.Callback) {
	if cb != nil {
		cb(c.Value(c.cfg.ReturnMode))
	}
}

// EmitEnd fires OnCropEnd with the current value.
func (c *Controller) EmitEnd() {
	c.emit(c.cfg.OnCropEnd)
}

// requestRedraw coalesces frames: at most one is pending and it is built
// from the box as it is when the host runs it.
func (c *Controller) requestRedraw() {
	if c.cfg.Responsive {
		c.Value(options.ReturnRatio)
	}
	if c.redrawPending || c.destroyed {
		return
	}
	c.redrawPending = true
	c.host.Schedule(c.flushRedraw)
}

func (c *Controller) flushRedraw() {
	c.redrawPending = false
	if c.destroyed || c.box == nil {
		return
	}
	c.host.Draw(c.Frame())
}

// Frame builds the frame for the current box.
func (c *Controller) Frame() Frame {
	f := BuildFrame(c.box, c.conv.Container, c.resolved.MaxAspectRatio != 0)
	if !c.cfg.Preview {
		return f
	}
	if pt, ok := c.host.(PreviewTarget); ok {
		if size, ok := pt.PreviewSize(); ok {
			n := c.box.Normalized()
			ratio := c.conv.PixelToRatio(types.Value{X: n.X1, Y: n.Y1, Width: n.Width(), Height: n.Height()})
			if p, ok := BuildPreview(ratio, c.conv.Natural, size); ok {
				f.Preview = &p
			}
		}
	}
	return f
}

func (c *Controller) setState(next State) {
	if c.state == next {
		return
	}
	c.logger.Debug("crop gesture transition", "from", c.state.String(), "to", next.String())
	c.state = next
}

// Destroy stops the resize debounce and releases any pointer capture.
// The controller ignores input afterwards.
func (c *Controller) Destroy() {
	c.debounce.Stop()
	c.releaseCapture()
	c.state = Idle
	c.destroyed = true
}
