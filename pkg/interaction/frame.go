package interaction

import (
	"math"

	"github.com/menta2k/image-cropper/pkg/convert"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/types"
)

// Clip is the visible rectangle of the clipped image, in CSS rect() order.
type Clip struct {
	Top, Right, Bottom, Left float64
}

// HandleFrame places one handle.
type HandleFrame struct {
	X, Y    float64
	Z       int
	Visible bool
	Cursor  string
}

// Preview positions the full image inside a preview target so that only
// the crop region shows through a Container sized box.
type Preview struct {
	Container types.Size
	Image     types.Size
	Left      float64
	Top       float64
}

// Frame is everything an adapter needs to render the current box. All
// coordinates are container pixels rounded to whole numbers.
type Frame struct {
	Region     types.Value
	Clip       Clip
	Handles    [8]HandleFrame
	Foreground int
	Preview    *Preview
}

// BuildFrame computes the frame for box inside container. When
// hideMidpoints is set the edge midpoint handles are hidden, leaving only
// diagonal resizing.
func BuildFrame(box *geometry.Rect, container types.Size, hideMidpoints bool) Frame {
	n := box.Normalized()
	x1, y1 := convert.Round(n.X1), convert.Round(n.Y1)
	x2, y2 := convert.Round(n.X2), convert.Round(n.Y2)
	w, h := convert.Round(n.Width()), convert.Round(n.Height())

	f := Frame{
		Region: types.Value{X: x1, Y: y1, Width: w, Height: h},
		Clip:   Clip{Top: y1, Right: x2, Bottom: y2, Left: x1},
	}

	cx, cy := n.AbsolutePoint(geometry.Center)
	f.Foreground = foregroundHandle(cx-container.Width/2, cy-container.Height/2)

	for i, hd := range Handles {
		z := 4
		if i == f.Foreground {
			z = 5
		}
		f.Handles[i] = HandleFrame{
			X:       x1 + w*hd.Position.X,
			Y:       y1 + h*hd.Position.Y,
			Z:       z,
			Visible: !(hideMidpoints && (hd.Position.X == 0.5 || hd.Position.Y == 0.5)),
			Cursor:  hd.Cursor,
		}
	}
	return f
}

// foregroundHandle picks the corner handle diagonally opposite the quadrant
// holding the box center. dx and dy are offsets from the container center;
// offsets above -1 count as non-negative.
func foregroundHandle(dx, dy float64) int {
	sign := func(v float64) int {
		if math.Trunc(v) < 0 {
			return -1
		}
		return 0
	}
	xs, ys := sign(dx), sign(dy)
	quadrant := (xs ^ ys) + ys + ys + 4
	return -2*quadrant + 8
}

// BuildPreview fits the crop region, given in ratio units, into target and
// scales the natural image so the region fills it.
func BuildPreview(ratio types.Value, natural, target types.Size) (Preview, bool) {
	if ratio.Width == 0 || ratio.Height == 0 || target.Empty() || natural.Empty() {
		return Preview{}, false
	}
	cropW := natural.Width * ratio.Width
	cropH := natural.Height * ratio.Height
	cropRatio := cropW / cropH

	container := target
	if target.Width/target.Height > cropRatio {
		container.Width = container.Height * cropRatio
	} else {
		container.Height = container.Width / cropRatio
	}

	img := types.Size{
		Width:  natural.Width * container.Width / cropW,
		Height: natural.Height * container.Height / cropH,
	}
	return Preview{
		Container: container,
		Image:     img,
		Left:      -ratio.X * img.Width,
		Top:       -ratio.Y * img.Height,
	}, true
}
