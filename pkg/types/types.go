package types

// Value is a crop region reported to callers. Depending on the return mode
// the fields hold natural image pixels, container pixels or 0..1 ratios.
type Value struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether either dimension is not positive.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Bounds is the measured client rectangle of the rendered container.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size returns the dimensions of the bounds.
func (b Bounds) Size() Size {
	return Size{Width: b.Width, Height: b.Height}
}

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Value converts the box into a ratio-space Value.
func (b Box) Value() Value {
	return Value{X: b.X, Y: b.Y, Width: b.W, Height: b.H}
}

// Subject represents the primary subject reported by a vision model
type Subject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
	Cx         float64 `json:"cx"`
	Cy         float64 `json:"cy"`
}

// SubjectResult is the JSON document a vision model is asked to return
type SubjectResult struct {
	Primary     Subject  `json:"primary"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}
