// Package geometry implements the crop rectangle and the constraint
// operations applied to it while the user drags handles or the region.
//
// A Rect lives in container pixel space. Its corners are not kept ordered:
// during a handle flip x1 may exceed x2 until the caller re-normalizes.
// Ratios are width/height; a zero ratio or bound means "unset".
package geometry

import "math"

// Point is a position inside a rectangle expressed as ratios of its width
// and height: {0,0} is the top-left corner, {1,1} the bottom-right.
type Point struct {
	X float64
	Y float64
}

// Common origin points.
var (
	TopLeft     = Point{0, 0}
	Center      = Point{0.5, 0.5}
	BottomRight = Point{1, 1}
)

// Mirror returns the point reflected through the rectangle center.
func (p Point) Mirror() Point {
	return Point{1 - p.X, 1 - p.Y}
}

// Axis selects the dimension that is recomputed to satisfy a ratio.
type Axis int

const (
	GrowHeight Axis = iota
	GrowWidth
)

// Rect is the crop region. Methods mutate the receiver and return it so
// calls can be chained.
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// New returns a rectangle with the given corners.
func New(x1, y1, x2, y2 float64) *Rect {
	return &Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// FromSize returns a rectangle with its top-left corner at (x, y).
func FromSize(x, y, width, height float64) *Rect {
	return &Rect{X1: x, Y1: y, X2: x + width, Y2: y + height}
}

// Clone returns an independent copy.
func (r *Rect) Clone() *Rect {
	c := *r
	return &c
}

// Set replaces all four coordinates.
func (r *Rect) Set(x1, y1, x2, y2 float64) *Rect {
	r.X1, r.Y1, r.X2, r.Y2 = x1, y1, x2, y2
	return r
}

// Width is the absolute horizontal extent.
func (r *Rect) Width() float64 {
	return math.Abs(r.X2 - r.X1)
}

// Height is the absolute vertical extent.
func (r *Rect) Height() float64 {
	return math.Abs(r.Y2 - r.Y1)
}

// Move places the top-left corner at (x, y) keeping the size. A nil
// coordinate keeps the current value for that axis.
func (r *Rect) Move(x, y *float64) *Rect {
	w, h := r.Width(), r.Height()
	nx, ny := r.X1, r.Y1
	if x != nil {
		nx = *x
	}
	if y != nil {
		ny = *y
	}
	r.X1, r.Y1 = nx, ny
	r.X2, r.Y2 = nx+w, ny+h
	return r
}

// MoveTo moves both axes.
func (r *Rect) MoveTo(x, y float64) *Rect {
	return r.Move(&x, &y)
}

// MoveX moves horizontally only.
func (r *Rect) MoveX(x float64) *Rect {
	return r.Move(&x, nil)
}

// MoveY moves vertically only.
func (r *Rect) MoveY(y float64) *Rect {
	return r.Move(nil, &y)
}

// Resize changes the size so that the point at origin stays fixed.
func (r *Rect) Resize(width, height float64, origin Point) *Rect {
	fromX := r.X1 + r.Width()*origin.X
	fromY := r.Y1 + r.Height()*origin.Y
	r.X1 = fromX - width*origin.X
	r.Y1 = fromY - height*origin.Y
	r.X2 = r.X1 + width
	r.Y2 = r.Y1 + height
	return r
}

// Scale multiplies both dimensions by factor around origin.
func (r *Rect) Scale(factor float64, origin Point) *Rect {
	return r.Resize(r.Width()*factor, r.Height()*factor, origin)
}

// RelativePoint maps a ratio point to box-local pixels.
func (r *Rect) RelativePoint(p Point) (float64, float64) {
	return r.Width() * p.X, r.Height() * p.Y
}

// AbsolutePoint maps a ratio point to container pixels.
func (r *Rect) AbsolutePoint(p Point) (float64, float64) {
	return r.X1 + r.Width()*p.X, r.Y1 + r.Height()*p.Y
}

// Normalized returns a copy whose corners are ordered.
func (r *Rect) Normalized() *Rect {
	return &Rect{
		X1: math.Min(r.X1, r.X2),
		Y1: math.Min(r.Y1, r.Y2),
		X2: math.Max(r.X1, r.X2),
		Y2: math.Max(r.Y1, r.Y2),
	}
}

// Ratio picks the single target ratio for a ratio constraint. It returns 0
// when minRatio is unset and minRatio when maxRatio is unset. With a band
// the current ratio is clamped into it; reversed bounds are swapped. An
// empty rectangle has no ratio and gets minRatio.
func (r *Rect) Ratio(minRatio, maxRatio float64) float64 {
	if minRatio == 0 {
		return 0
	}
	if maxRatio == 0 {
		return minRatio
	}
	if minRatio > maxRatio {
		minRatio, maxRatio = maxRatio, minRatio
	}
	current := r.Width() / r.Height()
	switch {
	case math.IsNaN(current):
		return minRatio
	case current > maxRatio:
		return maxRatio
	case current < minRatio:
		return minRatio
	default:
		return current
	}
}
