// Package suggest proposes a start region for the cropper, either from a
// local saliency pass or from a vision model asked for the primary subject.
package suggest

import (
	"context"
	"image"
	"math"
	"strings"

	"github.com/menta2k/image-cropper/pkg/convert"
	"github.com/menta2k/image-cropper/pkg/options"
	"github.com/menta2k/image-cropper/pkg/types"
)

// Suggestion is a proposed crop region as fractions of the image.
type Suggestion struct {
	Box         types.Box `json:"box"`
	Label       string    `json:"label"`
	Confidence  float64   `json:"confidence"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Source      string    `json:"source"`
}

// Suggester proposes a start region. A positive aspect (width/height) asks
// for a region of that shape.
type Suggester interface {
	Suggest(ctx context.Context, img image.Image, aspect float64) (Suggestion, error)
}

// Apply seeds the start size and position of o with the suggestion in
// ratio units.
func (s Suggestion) Apply(o *options.Options) {
	unit := convert.Ratio.String()
	o.StartSize = options.NewTuple(s.Box.W, s.Box.H, unit)
	o.StartPosition = options.NewTuple(s.Box.X, s.Box.Y, unit)
}

// fitAspect grows box around its center to width/height == aspect in image
// pixels, shrinking only when the image is too small, and shifts it back
// inside the image.
func fitAspect(box types.Box, aspect float64, imgW, imgH int) types.Box {
	box = normalizeBox(box)
	if aspect <= 0 || imgW <= 0 || imgH <= 0 {
		return box
	}
	w, h := float64(imgW), float64(imgH)
	pw, ph := box.W*w, box.H*h
	cx, cy := (box.X+box.W/2)*w, (box.Y+box.H/2)*h

	if ph == 0 || pw/ph < aspect {
		pw = ph * aspect
	} else {
		ph = pw / aspect
	}
	if pw > w {
		pw, ph = w, w/aspect
	}
	if ph > h {
		pw, ph = h*aspect, h
	}

	x := clamp(cx-pw/2, 0, w-pw)
	y := clamp(cy-ph/2, 0, h-ph)
	return types.Box{X: x / w, Y: y / h, W: pw / w, H: ph / h}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox clamps a box into the unit square.
func normalizeBox(b types.Box) types.Box {
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}

// normalizeTags lowercases, dedupes and keeps at most five tags.
func normalizeTags(tags []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 5)
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == 5 {
			break
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
