package interaction

import "github.com/menta2k/image-cropper/pkg/geometry"

// Edge is a bit in a handle's constraint mask.
type Edge uint8

const (
	EdgeTop Edge = 1 << iota
	EdgeRight
	EdgeBottom
	EdgeLeft
)

// Handle describes one of the eight resize handles.
type Handle struct {
	Position geometry.Point
	Edges    Edge
	Cursor   string
}

// Movable reports whether the handle drags edge e.
func (h Handle) Movable(e Edge) bool {
	return h.Edges&e != 0
}

// Horizontal reports whether the handle moves the left or right edge.
func (h Handle) Horizontal() bool {
	return h.Movable(EdgeLeft) || h.Movable(EdgeRight)
}

// Vertical reports whether the handle moves the top or bottom edge.
func (h Handle) Vertical() bool {
	return h.Movable(EdgeTop) || h.Movable(EdgeBottom)
}

// Handle indices, clockwise from the top-left corner.
const (
	HandleNW = iota
	HandleN
	HandleNE
	HandleE
	HandleSE
	HandleS
	HandleSW
	HandleW
)

// Handles is the fixed handle table.
var Handles = [8]Handle{
	HandleNW: {geometry.Point{X: 0, Y: 0}, EdgeTop | EdgeLeft, "nw-resize"},
	HandleN:  {geometry.Point{X: 0.5, Y: 0}, EdgeTop, "n-resize"},
	HandleNE: {geometry.Point{X: 1, Y: 0}, EdgeTop | EdgeRight, "ne-resize"},
	HandleE:  {geometry.Point{X: 1, Y: 0.5}, EdgeRight, "e-resize"},
	HandleSE: {geometry.Point{X: 1, Y: 1}, EdgeRight | EdgeBottom, "se-resize"},
	HandleS:  {geometry.Point{X: 0.5, Y: 1}, EdgeBottom, "s-resize"},
	HandleSW: {geometry.Point{X: 0, Y: 1}, EdgeBottom | EdgeLeft, "sw-resize"},
	HandleW:  {geometry.Point{X: 0, Y: 0.5}, EdgeLeft, "w-resize"},
}
