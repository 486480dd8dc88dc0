// Package options turns the loosely typed cropper configuration into a
// validated Config and, once the container has been measured, into pixel
// values the constraint pipeline can consume.
package options

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/menta2k/image-cropper/pkg/types"
)

// Callback receives the crop value in the configured return mode.
type Callback func(types.Value)

// Ratio is a width/height aspect ratio. In JSON it may be a number or a
// [a, b] pair, which is stored as b/a.
type Ratio float64

// Pair builds a ratio the same way a JSON pair is decoded: b/a.
func Pair(a, b float64) Ratio {
	if a == 0 {
		return 0
	}
	return Ratio(b / a)
}

// UnmarshalJSON accepts a number, a two element array or null.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*r = 0
	case float64:
		*r = Ratio(v)
	case []interface{}:
		if len(v) != 2 {
			return fmt.Errorf("ratio pair needs 2 elements, got %d", len(v))
		}
		a, ok1 := v[0].(float64)
		b, ok2 := v[1].(float64)
		if !ok1 || !ok2 {
			return fmt.Errorf("ratio pair must be numeric")
		}
		*r = Pair(a, b)
	default:
		return fmt.Errorf("unsupported ratio value %s", string(data))
	}
	return nil
}

// Tuple is a [v1, v2, unit?, natural?] size or position. A zero value
// means the dimension is unset. Natural marks pixel values as natural
// image pixels.
type Tuple struct {
	A       float64
	B       float64
	Unit    string
	Natural bool
}

// NewTuple returns a tuple in the given unit; an empty unit takes the
// field default.
func NewTuple(a, b float64, unit string) *Tuple {
	return &Tuple{A: a, B: b, Unit: unit}
}

// UnmarshalJSON decodes the array form. Null elements are treated as zero.
func (t *Tuple) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("size tuple must be an array: %w", err)
	}
	if len(parts) < 2 || len(parts) > 4 {
		return fmt.Errorf("size tuple needs 2 to 4 elements, got %d", len(parts))
	}

	var out Tuple
	var a, b *float64
	if err := json.Unmarshal(parts[0], &a); err != nil {
		return fmt.Errorf("size tuple value: %w", err)
	}
	if err := json.Unmarshal(parts[1], &b); err != nil {
		return fmt.Errorf("size tuple value: %w", err)
	}
	if a != nil {
		out.A = *a
	}
	if b != nil {
		out.B = *b
	}
	if len(parts) > 2 {
		var unit *string
		if err := json.Unmarshal(parts[2], &unit); err != nil {
			return fmt.Errorf("size tuple unit: %w", err)
		}
		if unit != nil {
			out.Unit = *unit
		}
	}
	if len(parts) > 3 {
		var natural *bool
		if err := json.Unmarshal(parts[3], &natural); err != nil {
			return fmt.Errorf("size tuple natural flag: %w", err)
		}
		if natural != nil {
			out.Natural = *natural
		}
	}
	*t = out
	return nil
}

// MarshalJSON writes the shortest array form.
func (t Tuple) MarshalJSON() ([]byte, error) {
	parts := []interface{}{t.A, t.B}
	if t.Unit != "" || t.Natural {
		parts = append(parts, t.Unit)
	}
	if t.Natural {
		parts = append(parts, true)
	}
	return json.Marshal(parts)
}

// Options is the caller facing configuration.
type Options struct {
	AspectRatio    Ratio  `json:"aspectRatio,omitempty"`
	MaxAspectRatio Ratio  `json:"maxAspectRatio,omitempty"`
	MaxSize        *Tuple `json:"maxSize,omitempty"`
	MinSize        *Tuple `json:"minSize,omitempty"`
	StartSize      *Tuple `json:"startSize,omitempty"`
	StartPosition  *Tuple `json:"startPosition,omitempty"`
	ReturnMode     string `json:"returnMode,omitempty"`
	Responsive     *bool  `json:"responsive,omitempty"`

	// Preview asks the host for a preview target on every redraw.
	Preview bool `json:"preview,omitempty"`
	// Modal reveals the host's modal while measuring.
	Modal bool `json:"modal,omitempty"`

	OnInitialize Callback `json:"-"`
	OnCropStart  Callback `json:"-"`
	OnCropMove   Callback `json:"-"`
	OnCropEnd    Callback `json:"-"`

	// Deprecated: use OnCropMove.
	OnUpdate Callback `json:"-"`

	Logger *slog.Logger `json:"-"`
}

// Bool returns a pointer to b, for Responsive.
func Bool(b bool) *bool {
	return &b
}
