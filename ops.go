package imagecropper

import (
	"github.com/menta2k/image-cropper/pkg/convert"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/interaction"
	"github.com/menta2k/image-cropper/pkg/options"
	"github.com/menta2k/image-cropper/pkg/types"
)

type opConfig struct {
	origin    geometry.Point
	constrain bool
	unit      convert.Unit
}

// OpOption adjusts a single programmatic operation.
type OpOption func(*opConfig)

// WithOrigin sets the point of the box that stays fixed.
func WithOrigin(p geometry.Point) OpOption {
	return func(o *opConfig) { o.origin = p }
}

// WithoutConstraint skips the constraint pipeline.
func WithoutConstraint() OpOption {
	return func(o *opConfig) { o.constrain = false }
}

// WithUnit sets the unit of the operation's arguments.
func WithUnit(u convert.Unit) OpOption {
	return func(o *opConfig) { o.unit = u }
}

func newOpConfig(origin geometry.Point, unit convert.Unit, opts []OpOption) opConfig {
	o := opConfig{origin: origin, constrain: true, unit: unit}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// MoveTo moves the top-left corner of the box. Arguments are container
// pixels unless WithUnit says otherwise.
func (c *Cropper) MoveTo(x, y float64, opts ...OpOption) error {
	if err := c.ready(); err != nil {
		return err
	}
	o := newOpConfig(geometry.TopLeft, convert.Pixel, opts)
	px := c.ctrl.Converter().ToPixel(types.Value{X: x, Y: y}, o.unit)
	c.ctrl.MoveTo(px.X, px.Y, o.constrain)
	return nil
}

// ResizeTo resizes the box around its center unless WithOrigin is given.
func (c *Cropper) ResizeTo(width, height float64, opts ...OpOption) error {
	if err := c.ready(); err != nil {
		return err
	}
	o := newOpConfig(geometry.Center, convert.Pixel, opts)
	px := c.ctrl.Converter().ToPixel(types.Value{Width: width, Height: height}, o.unit)
	c.ctrl.ResizeTo(px.Width, px.Height, o.origin, o.constrain)
	return nil
}

// ScaleBy scales the box by factor around its center unless WithOrigin is
// given.
func (c *Cropper) ScaleBy(factor float64, opts ...OpOption) error {
	if err := c.ready(); err != nil {
		return err
	}
	o := newOpConfig(geometry.Center, convert.Pixel, opts)
	c.ctrl.ScaleBy(factor, o.origin, o.constrain)
	return nil
}

// SetValue places the box at v. The value is a percentage of the container
// unless WithUnit says otherwise.
func (c *Cropper) SetValue(v types.Value, opts ...OpOption) error {
	if err := c.ready(); err != nil {
		return err
	}
	o := newOpConfig(geometry.TopLeft, convert.Percent, opts)
	px := c.ctrl.Converter().ToPixel(v, o.unit)
	c.ctrl.SetValue(px.X, px.Y, px.Width, px.Height, o.constrain)
	return nil
}

// Reset rebuilds the box from the start options.
func (c *Cropper) Reset() error {
	if err := c.ready(); err != nil {
		return err
	}
	c.ctrl.Reset()
	return nil
}

// GetValue reports the box in the configured return mode, or in mode when
// a non-empty one is given.
func (c *Cropper) GetValue(mode ...options.ReturnMode) (types.Value, error) {
	if err := c.ready(); err != nil {
		return types.Value{}, err
	}
	m := c.ctrl.Config().ReturnMode
	if len(mode) > 0 && mode[0] != "" {
		parsed, err := options.ParseReturnMode(string(mode[0]))
		if err != nil {
			return types.Value{}, err
		}
		m = parsed
	}
	return c.ctrl.Value(m), nil
}

// SetImage loads src into the adapter. Once it is loaded the options are
// resolved against the new image, the box is rebuilt, OnCropEnd fires and
// then callback runs.
func (c *Cropper) SetImage(src string, callback func()) error {
	if c.destroyed {
		return ErrDestroyed
	}
	if src == "" {
		return &ConfigurationError{Field: "src", Err: ErrMissingSource}
	}

	c.adapter.LoadImage(src, func() {
		if c.destroyed {
			return
		}
		cfg, err := c.parser.Parse(c.opts)
		if err != nil {
			c.logger.Error("failed to re-parse options for new image", "src", src, "error", err)
			return
		}
		c.ctrl.SetConfig(cfg)
		c.ctrl.Initialize()
		c.ctrl.EmitEnd()
		if callback != nil {
			callback()
		}
	})
	return nil
}

// Wheel applies one scroll step.
func (c *Cropper) Wheel(deltaY float64) error {
	if err := c.ready(); err != nil {
		return err
	}
	c.ctrl.Wheel(deltaY)
	return nil
}

// NotifyResize reports that the container changed size.
func (c *Cropper) NotifyResize() error {
	if err := c.ready(); err != nil {
		return err
	}
	c.ctrl.NotifyResize()
	return nil
}

// PointerDown starts a gesture on target at client coordinates (x, y).
// It reports whether a gesture started.
func (c *Cropper) PointerDown(target interaction.Target, x, y float64) bool {
	if c.ready() != nil {
		return false
	}
	return c.ctrl.PointerDown(target, x, y)
}

// PointerMove continues the active gesture.
func (c *Cropper) PointerMove(x, y float64) {
	if c.ready() != nil {
		return
	}
	c.ctrl.PointerMove(x, y)
}

// PointerUp ends the active gesture.
func (c *Cropper) PointerUp(x, y float64) {
	if c.ready() != nil {
		return
	}
	c.ctrl.PointerUp(x, y)
}

// Frame builds the frame for the current box without waiting for a redraw.
func (c *Cropper) Frame() (interaction.Frame, error) {
	if err := c.ready(); err != nil {
		return interaction.Frame{}, err
	}
	return c.ctrl.Frame(), nil
}

// Box returns a copy of the box in container pixels, or nil before
// initialization.
func (c *Cropper) Box() *geometry.Rect {
	return c.ctrl.Box()
}
