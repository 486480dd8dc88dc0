package options

import (
	"github.com/menta2k/image-cropper/pkg/convert"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/types"
)

// Position is a resolved start position in container pixels.
type Position struct {
	X float64
	Y float64
}

// Resolved is the configuration in container pixels. Zero sizes are unset.
type Resolved struct {
	AspectRatio    float64
	MaxAspectRatio float64
	MaxSize        types.Size
	MinSize        types.Size
	StartSize      types.Size
	// StartPosition is nil when the start box should be centered.
	StartPosition *Position
	Container     types.Size
}

// Resolve converts every measure to container pixels using conv. It must
// be called after the container has been measured.
func (c Config) Resolve(conv convert.Converter) Resolved {
	r := Resolved{
		AspectRatio:    c.AspectRatio,
		MaxAspectRatio: c.MaxAspectRatio,
		Container:      conv.Container,
	}
	r.MaxSize = resolveSize(conv, c.MaxSize)
	r.MinSize = resolveSize(conv, c.MinSize)
	r.StartSize = resolveSize(conv, c.StartSize)

	if r.MinSize.Width > conv.Container.Width {
		r.MinSize.Width = conv.Container.Width
	}
	if r.MinSize.Height > conv.Container.Height {
		r.MinSize.Height = conv.Container.Height
	}

	if c.StartPosition != nil {
		v := conv.ToPixel(types.Value{X: c.StartPosition.A, Y: c.StartPosition.B}, c.StartPosition.Unit)
		pos := &Position{X: v.X, Y: v.Y}
		if end := pos.X + r.StartSize.Width; end > conv.Container.Width {
			pos.X -= end - conv.Container.Width
		}
		if end := pos.Y + r.StartSize.Height; end > conv.Container.Height {
			pos.Y -= end - conv.Container.Height
		}
		r.StartPosition = pos
	}
	return r
}

func resolveSize(conv convert.Converter, m *Measure) types.Size {
	if m == nil {
		return types.Size{}
	}
	v := conv.ToPixel(types.Value{Width: m.A, Height: m.B}, m.Unit)
	return types.Size{Width: v.Width, Height: v.Height}
}

// StartRect builds the initial crop box. Unset start dimensions fill the
// container, dimensions below the minimum are raised to it, and a missing
// start position centers the box.
func (r Resolved) StartRect() *geometry.Rect {
	w, h := r.StartSize.Width, r.StartSize.Height
	if w == 0 {
		w = r.Container.Width
	}
	if h == 0 {
		h = r.Container.Height
	}
	if w < r.MinSize.Width {
		w = r.MinSize.Width
	}
	if h < r.MinSize.Height {
		h = r.MinSize.Height
	}

	box := geometry.FromSize(0, 0, w, h)
	if r.StartPosition == nil {
		box.MoveTo(r.Container.Width/2-w/2, r.Container.Height/2-h/2)
	} else {
		box.MoveTo(r.StartPosition.X, r.StartPosition.Y)
	}
	return box
}
