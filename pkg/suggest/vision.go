package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/menta2k/image-cropper/pkg/processing"
	"github.com/menta2k/image-cropper/pkg/types"
)

// DefaultPrompt asks a vision model for the primary subject as JSON.
const DefaultPrompt = `You are an image subject locator.

Return JSON only:
{
  "primary": {
    "label": "string",
    "confidence": 0.0,
    "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0},
    "cx": 0.0,
    "cy": 0.0
  },
  "description": "short neutral sentence (≤ 20 words)",
  "tags": ["tag1", "tag2", "tag3", "tag4", "tag5"]
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- The box should tightly include the visually dominant subject (prefer people/vehicles/animals; else the most central salient object).
- Description must be brief and factual. Do not guess real identities.
- Tags: lowercase, concise, no punctuation or duplicates.
- If no subject is found, return:
  {
    "primary":{"label":"none","confidence":0.0,"box":{"x":0.25,"y":0.25,"w":0.50,"h":0.50},"cx":0.5,"cy":0.5},
    "description":"centered generic scene",
    "tags":["generic","center","subject","photo","scene"]
  }
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// VisionClient sends one image and prompt to a model and returns its text.
type VisionClient interface {
	Query(ctx context.Context, model, prompt, imgB64 string) (string, error)
}

// Vision asks a vision model where the primary subject is.
type Vision struct {
	client    VisionClient
	model     string
	prompt    string
	processor *processing.Processor
	logger    *slog.Logger
	maxDim    int
}

// VisionOption configures a Vision suggester.
type VisionOption func(*Vision)

// WithPrompt replaces DefaultPrompt.
func WithPrompt(prompt string) VisionOption {
	return func(v *Vision) { v.prompt = prompt }
}

// WithVisionLogger sets the logger.
func WithVisionLogger(l *slog.Logger) VisionOption {
	return func(v *Vision) { v.logger = l }
}

// WithMaxDimension bounds the image sent to the model.
func WithMaxDimension(px int) VisionOption {
	return func(v *Vision) { v.maxDim = px }
}

// NewVision creates a vision suggester for model.
func NewVision(client VisionClient, model string, opts ...VisionOption) *Vision {
	v := &Vision{
		client:    client,
		model:     model,
		prompt:    DefaultPrompt,
		processor: processing.NewProcessor(),
		logger:    slog.Default(),
		maxDim:    768,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Suggest returns the subject box, grown to aspect when one is given.
// Unparseable model output yields a centered fallback, not an error.
func (v *Vision) Suggest(ctx context.Context, img image.Image, aspect float64) (Suggestion, error) {
	imgB64, err := v.processor.PrepareImageForModel(img, "jpeg", v.maxDim, 85)
	if err != nil {
		return Suggestion{}, fmt.Errorf("failed to prepare image: %w", err)
	}

	raw, err := v.client.Query(ctx, v.model, v.prompt, imgB64)
	if err != nil {
		return Suggestion{}, fmt.Errorf("vision query failed: %w", err)
	}

	result := validate(parseSubjectResult(raw))
	v.logger.Debug("vision model located subject",
		"model", v.model, "label", result.Primary.Label, "confidence", result.Primary.Confidence)

	b := img.Bounds()
	return Suggestion{
		Box:         fitAspect(result.Primary.Box, aspect, b.Dx(), b.Dy()),
		Label:       result.Primary.Label,
		Confidence:  result.Primary.Confidence,
		Description: result.Description,
		Tags:        normalizeTags(result.Tags),
		Source:      "vision:" + v.model,
	}, nil
}

func fallbackResult(label, description string, tags ...string) types.SubjectResult {
	return types.SubjectResult{
		Primary: types.Subject{
			Label:      label,
			Confidence: 0.1,
			Box:        types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
			Cx:         0.5,
			Cy:         0.5,
		},
		Description: description,
		Tags:        append(tags, "fallback"),
	}
}

// parseSubjectResult decodes model output, falling back to a centered box.
func parseSubjectResult(raw string) types.SubjectResult {
	raw = sanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return fallbackResult("unclear image", "Model returned non-JSON response", "unclear", "non-json")
	}

	var result types.SubjectResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return fallbackResult("parse error", "Failed to parse model response", "parse-error")
	}

	if result.Primary.Label == "" && result.Primary.Confidence == 0 {
		if result.Primary.Cx == 0 && result.Primary.Cy == 0 {
			result.Primary.Cx, result.Primary.Cy = 0.5, 0.5
		}
		if result.Primary.Box.W == 0 && result.Primary.Box.H == 0 {
			result.Primary.Box = types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}
		}
	}
	return result
}

var fallbackIndicators = []string{"unclear", "empty", "parse", "error", "fallback", "non-json", "generic"}

// validate clamps the box and marks fallback answers as "none".
func validate(result types.SubjectResult) types.SubjectResult {
	p := &result.Primary
	p.Box = normalizeBox(p.Box)
	if p.Box.W == 0 || p.Box.H == 0 {
		p.Box = types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}
	}
	p.Confidence = clamp(p.Confidence, 0, 1)
	if math.IsNaN(p.Confidence) {
		p.Confidence = 0
	}

	if strings.EqualFold(p.Label, "none") {
		return result
	}
	label := strings.ToLower(p.Label)
	desc := strings.ToLower(result.Description)
	for _, indicator := range fallbackIndicators {
		if strings.Contains(label, indicator) || strings.Contains(desc, indicator) {
			p.Label = "none"
			p.Confidence = 0
			break
		}
	}
	return result
}

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reInlineComment = regexp.MustCompile(`(?m)//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON strips code fences, comments and trailing commas and
// keeps the outermost object.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reInlineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
