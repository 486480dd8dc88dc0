// Package convert maps crop values between container pixels, ratios,
// percentages and natural image pixels.
package convert

import (
	"fmt"
	"math"
	"strings"

	"github.com/menta2k/image-cropper/pkg/types"
)

// Unit identifies the coordinate space of a value.
type Unit int

const (
	// Pixel is container (display) pixels.
	Pixel Unit = iota
	// Percent is 0..100 of the container.
	Percent
	// Ratio is 0..1 of the container.
	Ratio
	// Real is natural image pixels.
	Real
)

// String returns the tag accepted by ParseUnit.
func (u Unit) String() string {
	switch u {
	case Pixel:
		return "px"
	case Percent:
		return "%"
	case Ratio:
		return "ratio"
	case Real:
		return "real"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// ParseUnit accepts px (or raw), %, ratio and real, case insensitive.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "px", "raw":
		return Pixel, nil
	case "%", "percent":
		return Percent, nil
	case "ratio":
		return Ratio, nil
	case "real":
		return Real, nil
	}
	return Pixel, fmt.Errorf("unknown unit %q", s)
}

// Converter holds the two sizes every conversion depends on. It is a value
// type; build a new one whenever the container or the image changes.
type Converter struct {
	Container types.Size
	Natural   types.Size
}

// New returns a converter for the given container and natural image sizes.
func New(container, natural types.Size) Converter {
	return Converter{Container: container, Natural: natural}
}

// scaleX is natural pixels per container pixel along x.
func (c Converter) scaleX() float64 {
	return div(c.Natural.Width, c.Container.Width)
}

func (c Converter) scaleY() float64 {
	return div(c.Natural.Height, c.Container.Height)
}

// RatioToPixel multiplies by the container size.
func (c Converter) RatioToPixel(v types.Value) types.Value {
	return types.Value{
		X:      v.X * c.Container.Width,
		Y:      v.Y * c.Container.Height,
		Width:  v.Width * c.Container.Width,
		Height: v.Height * c.Container.Height,
	}
}

// PercentToPixel treats the value as 0..100 of the container.
func (c Converter) PercentToPixel(v types.Value) types.Value {
	return c.RatioToPixel(types.Value{
		X:      v.X / 100,
		Y:      v.Y / 100,
		Width:  v.Width / 100,
		Height: v.Height / 100,
	})
}

// RealToPixel divides natural pixels by the natural/container scale.
func (c Converter) RealToPixel(v types.Value) types.Value {
	sx, sy := c.scaleX(), c.scaleY()
	return types.Value{
		X:      div(v.X, sx),
		Y:      div(v.Y, sy),
		Width:  div(v.Width, sx),
		Height: div(v.Height, sy),
	}
}

// PixelToRatio divides by the container size.
func (c Converter) PixelToRatio(v types.Value) types.Value {
	return types.Value{
		X:      div(v.X, c.Container.Width),
		Y:      div(v.Y, c.Container.Height),
		Width:  div(v.Width, c.Container.Width),
		Height: div(v.Height, c.Container.Height),
	}
}

// PixelToReal scales container pixels to natural pixels and rounds.
func (c Converter) PixelToReal(v types.Value) types.Value {
	sx, sy := c.scaleX(), c.scaleY()
	return types.Value{
		X:      Round(v.X * sx),
		Y:      Round(v.Y * sy),
		Width:  Round(v.Width * sx),
		Height: Round(v.Height * sy),
	}
}

// ToPixel converts a value in unit to container pixels.
func (c Converter) ToPixel(v types.Value, unit Unit) types.Value {
	switch unit {
	case Percent:
		return c.PercentToPixel(v)
	case Ratio:
		return c.RatioToPixel(v)
	case Real:
		return c.RealToPixel(v)
	default:
		return v
	}
}

// FromPixel converts container pixels to unit. Real values are rounded.
func (c Converter) FromPixel(v types.Value, unit Unit) types.Value {
	switch unit {
	case Percent:
		r := c.PixelToRatio(v)
		return types.Value{X: r.X * 100, Y: r.Y * 100, Width: r.Width * 100, Height: r.Height * 100}
	case Ratio:
		return c.PixelToRatio(v)
	case Real:
		return c.PixelToReal(v)
	default:
		return v
	}
}

// Round rounds halves up: 10.5 becomes 11 and -0.5 becomes 0.
func Round(v float64) float64 {
	return math.Floor(v + 0.5)
}

// RoundValue rounds every field.
func RoundValue(v types.Value) types.Value {
	return types.Value{X: Round(v.X), Y: Round(v.Y), Width: Round(v.Width), Height: Round(v.Height)}
}

// div returns 0 for a zero divisor instead of Inf or NaN.
func div(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
