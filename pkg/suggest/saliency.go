package suggest

import (
	"context"
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/menta2k/image-cropper/pkg/types"
)

// SaliencyConfig tunes the saliency suggester.
type SaliencyConfig struct {
	EdgeThreshold   float64
	ContrastWeight  float64
	ColorWeight     float64
	MinSubjectRatio float64
	// Coverage is the share of the largest fitting region the suggestion takes.
	Coverage float64
	// MaxDimension bounds the working copy; larger images are downscaled.
	MaxDimension int
}

// DefaultSaliencyConfig returns the default tuning.
func DefaultSaliencyConfig() SaliencyConfig {
	return SaliencyConfig{
		EdgeThreshold:   0.01,
		ContrastWeight:  0.3,
		ColorWeight:     0.2,
		MinSubjectRatio: 0.05,
		Coverage:        0.8,
		MaxDimension:    256,
	}
}

// Saliency finds the region with the most edge and brightness energy.
type Saliency struct {
	config SaliencyConfig
}

// NewSaliency creates a saliency suggester with default tuning.
func NewSaliency() *Saliency {
	return &Saliency{config: DefaultSaliencyConfig()}
}

// NewSaliencyWithConfig creates a saliency suggester with custom tuning.
func NewSaliencyWithConfig(config SaliencyConfig) *Saliency {
	return &Saliency{config: config}
}

type region struct {
	x, y, w, h int
	score      float64
}

func (r region) area() int { return r.w * r.h }

// Suggest places a Coverage-sized window of the requested shape where it
// overlaps the most salient regions.
func (s *Saliency) Suggest(ctx context.Context, img image.Image, aspect float64) (Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return Suggestion{}, err
	}

	work := imaging.Clone(img)
	if m := s.config.MaxDimension; m > 0 && (work.Bounds().Dx() > m || work.Bounds().Dy() > m) {
		if work.Bounds().Dx() >= work.Bounds().Dy() {
			work = imaging.Resize(work, m, 0, imaging.Box)
		} else {
			work = imaging.Resize(work, 0, m, imaging.Box)
		}
	}
	width, height := work.Bounds().Dx(), work.Bounds().Dy()
	if width == 0 || height == 0 {
		return Suggestion{Box: types.Box{W: 1, H: 1}, Label: "empty", Source: "saliency"}, nil
	}

	saliency := s.saliencyMap(work)
	subjects := s.filter(s.windows(saliency, width, height), width, height)
	if len(subjects) > 10 {
		subjects = subjects[:10]
	}

	if aspect <= 0 {
		aspect = float64(width) / float64(height)
	}
	cropW, cropH := width, int(float64(width)/aspect)
	if cropH > height {
		cropW, cropH = int(float64(height)*aspect), height
	}
	coverage := s.config.Coverage
	if coverage <= 0 || coverage > 1 {
		coverage = 1
	}
	cropW = max(1, int(float64(cropW)*coverage))
	cropH = max(1, int(float64(cropH)*coverage))

	best := bestPlacement(subjects, cropW, cropH, width, height)
	w, h := float64(width), float64(height)
	return Suggestion{
		Box: types.Box{
			X: float64(best.x) / w,
			Y: float64(best.y) / h,
			W: float64(best.w) / w,
			H: float64(best.h) / h,
		},
		Label:      "salient region",
		Confidence: round2(math.Min(1, best.score)),
		Source:     "saliency",
	}, nil
}

func (s *Saliency) saliencyMap(img *image.NRGBA) [][]float64 {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	m := make([][]float64, height)
	for i := range m {
		m[i] = make([]float64, width)
	}

	at := func(x, y int) (float64, float64, float64) {
		i := img.PixOffset(x, y)
		return float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2])
	}
	neighbors := [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			r1, g1, b1 := at(x, y)
			var edge float64
			for _, o := range neighbors {
				r2, g2, b2 := at(x+o[0], y+o[1])
				dr, dg, db := r1-r2, g1-g2, b1-b2
				edge += math.Sqrt(dr*dr + dg*dg + db*db)
			}
			edge /= 8 * 255
			brightness := (r1 + g1 + b1) / (3 * 255)
			m[y][x] = s.config.ContrastWeight*edge + s.config.ColorWeight*brightness
		}
	}
	return m
}

// windows slides square windows of several sizes over the map.
func (s *Saliency) windows(m [][]float64, width, height int) []region {
	var out []region
	for _, size := range []int{width / 20, width / 16, width / 12, width / 8, width / 4} {
		if size < 10 || size > height {
			continue
		}
		step := max(1, size/8)
		for y := 0; y <= height-size; y += step {
			for x := 0; x <= width-size; x += step {
				if score := meanScore(m, x, y, size, size); score > s.config.EdgeThreshold {
					out = append(out, region{x: x, y: y, w: size, h: size, score: score})
				}
			}
		}
	}
	return out
}

func meanScore(m [][]float64, x, y, w, h int) float64 {
	var total float64
	count := 0
	for ry := y; ry < y+h && ry < len(m); ry++ {
		for rx := x; rx < x+w && rx < len(m[ry]); rx++ {
			total += m[ry][rx]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func (s *Saliency) filter(regions []region, width, height int) []region {
	minArea := int(float64(width*height) * s.config.MinSubjectRatio)
	var out []region
	for _, r := range regions {
		if r.area() >= minArea {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

// bestPlacement scans crop positions and keeps the first with the highest
// subject overlap. With no subjects the crop is centered.
func bestPlacement(subjects []region, cropW, cropH, width, height int) region {
	best := region{x: (width - cropW) / 2, y: (height - cropH) / 2, w: cropW, h: cropH}
	if len(subjects) == 0 {
		return best
	}

	step := max(1, max(cropW, cropH)/20)
	bestScore := 0.0
	for y := 0; y <= height-cropH; y += step {
		for x := 0; x <= width-cropW; x += step {
			if score := overlapScore(subjects, x, y, cropW, cropH); score > bestScore {
				bestScore = score
				best = region{x: x, y: y, w: cropW, h: cropH, score: score}
			}
		}
	}
	return best
}

func overlapScore(subjects []region, x, y, w, h int) float64 {
	score := 0.0
	for _, s := range subjects {
		ox1, oy1 := max(x, s.x), max(y, s.y)
		ox2, oy2 := min(x+w, s.x+s.w), min(y+h, s.y+s.h)
		if ox2 > ox1 && oy2 > oy1 {
			overlap := float64((ox2-ox1)*(oy2-oy1)) / float64(s.area())
			score += overlap * s.score
		}
	}
	return score
}
