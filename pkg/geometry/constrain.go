package geometry

import "math"

// ConstrainToRatio forces the rectangle to ratio by recomputing the grow
// axis around origin. When maxRatio is set, [ratio, maxRatio] is a band and
// the rectangle is only resized if it falls outside: height is recomputed
// when it is too wide, width when it is too tall.
func (r *Rect) ConstrainToRatio(ratio float64, origin Point, grow Axis, maxRatio float64) *Rect {
	if ratio == 0 {
		return r
	}
	width, height := r.Width(), r.Height()

	if maxRatio != 0 {
		minRatio := ratio
		if minRatio > maxRatio {
			minRatio, maxRatio = maxRatio, ratio
		}
		current := width / height
		if math.IsNaN(current) || current < minRatio || current > maxRatio {
			w, h := width, height
			if current > maxRatio {
				h = width / maxRatio
			} else {
				w = height * minRatio
			}
			r.Resize(w, h, origin)
		}
		return r
	}

	switch grow {
	case GrowWidth:
		r.Resize(height*ratio, height, origin)
	default:
		r.Resize(width, width/ratio, origin)
	}
	return r
}

// ConstrainToBoundary shrinks the rectangle around origin until it fits
// inside [0,boundaryWidth]x[0,boundaryHeight]. It never grows the rectangle.
func (r *Rect) ConstrainToBoundary(boundaryWidth, boundaryHeight float64, origin Point) *Rect {
	originX, originY := r.AbsolutePoint(origin)

	maxWidth := maxExtent(originX, boundaryWidth, origin.X)
	maxHeight := maxExtent(originY, boundaryHeight, origin.Y)

	if r.Width() > maxWidth {
		r.Scale(maxWidth/r.Width(), origin)
	}
	if r.Height() > maxHeight {
		r.Scale(maxHeight/r.Height(), origin)
	}
	return r
}

// maxExtent is the largest extent a box pivoted at pos (with pivot ratio o)
// may have without leaving [0, limit]. The direction -2o+1 is -1 for a
// pivot on the far side (grows toward 0), +1 for a pivot on the near side
// (grows toward limit) and 0 for a centered pivot (grows both ways).
func maxExtent(pos, limit, o float64) float64 {
	toNear := pos
	toFar := limit - pos
	switch -2*o + 1 {
	case -1:
		return toNear
	case 1:
		return toFar
	case 0:
		return math.Min(toNear, toFar) * 2
	}
	// Arbitrary pivots: the side each fraction of the box grows into bounds it.
	return math.Min(toNear/o, toFar/(1-o))
}

// ConstrainToSize applies max width, max height, min width and min height in
// that order. Each violated bound resizes that axis to the bound and
// recomputes the other one from the target ratio, if any. A later bound can
// undo an earlier one; the pass is priority ordered, not solved jointly.
func (r *Rect) ConstrainToSize(maxWidth, maxHeight, minWidth, minHeight float64, origin Point, minRatio, maxRatio float64) *Rect {
	ratio := r.Ratio(minRatio, maxRatio)

	if maxWidth != 0 && r.Width() > maxWidth {
		h := r.Height()
		if ratio != 0 {
			h = maxWidth / ratio
		}
		r.Resize(maxWidth, h, origin)
	}
	if maxHeight != 0 && r.Height() > maxHeight {
		w := r.Width()
		if ratio != 0 {
			w = maxHeight * ratio
		}
		r.Resize(w, maxHeight, origin)
	}
	if minWidth != 0 && r.Width() < minWidth {
		h := r.Height()
		if ratio != 0 {
			h = minWidth / ratio
		}
		r.Resize(minWidth, h, origin)
	}
	if minHeight != 0 && r.Height() < minHeight {
		w := r.Width()
		if ratio != 0 {
			w = minHeight * ratio
		}
		r.Resize(w, minHeight, origin)
	}
	return r
}
