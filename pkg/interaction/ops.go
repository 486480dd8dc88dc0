package interaction

import (
	"math"

	"github.com/menta2k/image-cropper/pkg/convert"
	"github.com/menta2k/image-cropper/pkg/geometry"
)

// Programmatic operations take container pixels, apply themselves as a
// single gesture and fire only OnCropEnd.

// MoveTo moves the top-left corner to (x, y). With constrain the box is
// pulled back inside the container at the top-left and then shrunk to fit,
// pivoting on its top-left corner.
func (c *Controller) MoveTo(x, y float64, constrain bool) {
	c.modal.run(func() {
		c.moveTo(x, y, constrain)
	})
	c.EmitEnd()
}

func (c *Controller) moveTo(x, y float64, constrain bool) {
	c.box.MoveTo(x, y)
	if constrain {
		if c.box.X1 < 0 {
			c.box.MoveX(0)
		}
		if c.box.Y1 < 0 {
			c.box.MoveY(0)
		}
		origin := geometry.TopLeft
		c.StrictlyConstrain(&origin)
	}
	c.requestRedraw()
}

// ResizeTo resizes the box around origin and, with constrain, runs the full
// pipeline.
func (c *Controller) ResizeTo(width, height float64, origin geometry.Point, constrain bool) {
	c.modal.run(func() {
		c.resizeTo(width, height, origin, constrain)
	})
	c.EmitEnd()
}

func (c *Controller) resizeTo(width, height float64, origin geometry.Point, constrain bool) {
	c.box.Resize(width, height, origin)
	if constrain {
		c.StrictlyConstrain(nil)
	}
	c.requestRedraw()
}

// ScaleBy scales the box around origin.
func (c *Controller) ScaleBy(factor float64, origin geometry.Point, constrain bool) {
	c.modal.run(func() {
		c.box.Scale(factor, origin)
		if constrain {
			c.StrictlyConstrain(nil)
		}
		c.requestRedraw()
	})
	c.EmitEnd()
}

// SetValue moves then resizes from the top-left corner so the resize sees
// the final position. It fires OnCropEnd once.
func (c *Controller) SetValue(x, y, width, height float64, constrain bool) {
	c.modal.run(func() {
		c.moveTo(x, y, false)
		c.resizeTo(width, height, geometry.TopLeft, constrain)
	})
	c.EmitEnd()
}

// Reset rebuilds the box from the start options.
func (c *Controller) Reset() {
	c.modal.run(func() {
		c.measure()
		c.box = c.resolved.StartRect()
		c.StrictlyConstrain(nil)
		c.requestRedraw()
	})
	c.EmitEnd()
}

// Wheel scales the box by a bounded step per scroll event: downward deltas
// grow it, upward deltas shrink it, by at most 5%. Callbacks fire as end,
// move, start.
func (c *Controller) Wheel(deltaY float64) {
	if !c.initialized || c.destroyed {
		return
	}
	coeff := -1.0
	if deltaY > 0 {
		coeff = 1
	}
	step := math.Min(math.Abs(deltaY)/100, 0.05)
	c.ScaleBy(1+coeff*step, geometry.Center, true)
	c.emit(c.cfg.OnCropMove)
	c.emit(c.cfg.OnCropStart)
}

// NotifyResize tells the controller the container changed size. Bursts
// collapse into one re-sync after the quiet period. It is a no-op when the
// configuration is not responsive.
func (c *Controller) NotifyResize() {
	if !c.cfg.Responsive || !c.initialized || c.destroyed {
		return
	}
	c.debounce.Trigger(c.resync)
}

// resync rebuilds the box in the new container from the last ratio
// snapshot. No callbacks fire.
func (c *Controller) resync() {
	if c.destroyed {
		return
	}
	s := c.snapshot
	next := c.cfg.WithStart(
		clamp(s.X, 0, 1), clamp(s.Y, 0, 1),
		clamp(s.Width, 0, 1), clamp(s.Height, 0, 1),
		convert.Ratio,
	)
	c.modal.run(func() {
		c.measure()
		c.box = next.Resolve(c.conv).StartRect()
		c.StrictlyConstrain(nil)
		c.requestRedraw()
	})
	c.logger.Debug("crop box re-synced to container",
		"container_w", c.conv.Container.Width, "container_h", c.conv.Container.Height)
}
