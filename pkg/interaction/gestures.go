package interaction

import (
	"math"

	"github.com/menta2k/image-cropper/pkg/geometry"
)

// PointerDown starts a gesture on target at client coordinates (x, y). It
// returns false when the press was ignored because a gesture is already
// active or the controller is not ready.
func (c *Controller) PointerDown(target Target, x, y float64) bool {
	if !c.initialized || c.destroyed || c.state != Idle {
		return false
	}

	switch target.Kind {
	case TargetHandle:
		if target.Handle < 0 || target.Handle >= len(Handles) {
			return false
		}
		c.setState(DraggingHandle)
		c.capture()
		c.bus.Publish(Event{Kind: HandleStart, Handle: target.Handle, X: x, Y: y})
	case TargetRegion:
		c.setState(DraggingRegion)
		c.capture()
		c.bus.Publish(Event{Kind: RegionStart, X: x, Y: y})
	case TargetOverlay:
		b := c.bounds()
		mx, my := x-b.Left, y-b.Top
		c.stashed = c.box.Clone()
		c.box = geometry.New(mx, my, mx+1, my+1)
		c.setState(CreatingRegion)
		c.capture()
		c.bus.Publish(Event{Kind: HandleStart, Handle: HandleSE, X: x, Y: y})
	default:
		return false
	}
	return true
}

// PointerMove advances the active gesture.
func (c *Controller) PointerMove(x, y float64) {
	switch c.state {
	case DraggingHandle, CreatingRegion:
		c.bus.Publish(Event{Kind: HandleMove, Handle: c.handle.handle, X: x, Y: y})
	case DraggingRegion:
		c.bus.Publish(Event{Kind: RegionMove, X: x, Y: y})
	}
}

// PointerUp ends the active gesture.
func (c *Controller) PointerUp(x, y float64) {
	switch c.state {
	case DraggingHandle:
		c.bus.Publish(Event{Kind: HandleEnd, Handle: c.handle.handle, X: x, Y: y})
	case DraggingRegion:
		c.bus.Publish(Event{Kind: RegionEnd, X: x, Y: y})
	case CreatingRegion:
		if isDegenerate(c.box) {
			c.box = c.stashed
			c.requestRedraw()
			c.logger.Debug("crop region creation discarded")
		} else {
			c.bus.Publish(Event{Kind: HandleEnd, Handle: c.handle.handle, X: x, Y: y})
		}
		c.stashed = nil
	default:
		return
	}
	c.releaseCapture()
	c.setState(Idle)
}

func isDegenerate(box *geometry.Rect) bool {
	return math.Abs(box.Width()-1) < 1e-9 && math.Abs(box.Height()-1) < 1e-9
}

func (c *Controller) capture() {
	if pc, ok := c.host.(PointerCapturer); ok {
		c.release = pc.CapturePointer()
	}
}

func (c *Controller) releaseCapture() {
	if c.release != nil {
		c.release()
		c.release = nil
	}
}

func (c *Controller) onHandleStart(ev Event) {
	origin := Handles[ev.Handle].Position.Mirror()
	ox, oy := c.box.AbsolutePoint(origin)
	c.handle = handleDrag{handle: ev.Handle, origin: origin, originX: ox, originY: oy}
	c.emit(c.cfg.OnCropStart)
}

func (c *Controller) onHandleMove(ev Event) {
	b := c.bounds()
	mx := clamp(ev.X-b.Left, 0, b.Width)
	my := clamp(ev.Y-b.Top, 0, b.Height)

	h := Handles[c.handle.handle]
	origin := c.handle.origin
	ox, oy := c.handle.originX, c.handle.originY

	x1, x2 := c.box.X1, c.box.X2
	y1, y2 := c.box.Y1, c.box.Y2
	if h.Horizontal() {
		x1, x2 = ox, ox
	}
	if h.Vertical() {
		y1, y2 = oy, oy
	}
	if h.Movable(EdgeLeft) {
		x1 = mx
	}
	if h.Movable(EdgeRight) {
		x2 = mx
	}
	if h.Movable(EdgeTop) {
		y1 = my
	}
	if h.Movable(EdgeBottom) {
		y2 = my
	}

	// Dragging past the pivot flips the box on that axis.
	if h.Horizontal() && (h.Movable(EdgeLeft) && mx > ox || !h.Movable(EdgeLeft) && mx < ox) {
		x1, x2 = x2, x1
		origin.X = 1 - origin.X
	}
	if h.Vertical() && (h.Movable(EdgeTop) && my > oy || !h.Movable(EdgeTop) && my < oy) {
		y1, y2 = y2, y1
		origin.Y = 1 - origin.Y
	}

	box := geometry.New(x1, y1, x2, y2)

	grow := geometry.GrowHeight
	if ratio := c.resolved.AspectRatio; ratio != 0 {
		vertical := false
		if h.Horizontal() && h.Vertical() {
			vertical = my > box.Y1+ratio*box.Width() || my < box.Y2-ratio*box.Width()
		} else if h.Vertical() {
			vertical = true
		}
		if vertical {
			grow = geometry.GrowWidth
		}
	}

	boundaryOrigins := []geometry.Point{origin}
	if c.resolved.MaxAspectRatio != 0 {
		boundaryOrigins = []geometry.Point{geometry.TopLeft, geometry.BottomRight}
	}
	c.constrain(box, origin, grow, boundaryOrigins)

	c.box = box
	c.requestRedraw()
	c.emit(c.cfg.OnCropMove)
}

func (c *Controller) onHandleEnd(Event) {
	c.emit(c.cfg.OnCropEnd)
}

func (c *Controller) onRegionStart(ev Event) {
	b := c.bounds()
	c.region = regionDrag{
		offsetX: ev.X - b.Left - c.box.X1,
		offsetY: ev.Y - b.Top - c.box.Y1,
	}
	c.emit(c.cfg.OnCropStart)
}

func (c *Controller) onRegionMove(ev Event) {
	b := c.bounds()
	mx, my := ev.X-b.Left, ev.Y-b.Top

	c.box.MoveTo(mx-c.region.offsetX, my-c.region.offsetY)
	c.clampTranslation(b.Width, b.Height)

	c.requestRedraw()
	c.emit(c.cfg.OnCropMove)
}

// clampTranslation moves the box back inside the container one side at a
// time without resizing it.
func (c *Controller) clampTranslation(width, height float64) {
	if c.box.X1 < 0 {
		c.box.MoveX(0)
	}
	if c.box.X2 > width {
		c.box.MoveX(width - c.box.Width())
	}
	if c.box.Y1 < 0 {
		c.box.MoveY(0)
	}
	if c.box.Y2 > height {
		c.box.MoveY(height - c.box.Height())
	}
}

func (c *Controller) onRegionEnd(Event) {
	c.emit(c.cfg.OnCropEnd)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
