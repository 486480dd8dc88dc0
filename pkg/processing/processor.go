package processing

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/image-cropper/pkg/interaction"
	"github.com/menta2k/image-cropper/pkg/types"
)

// Processor loads, crops, renders and saves images for cropper adapters
type Processor struct {
	client *http.Client
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{client: &http.Client{Timeout: 30 * time.Second}}
}

// Load reads an image from either a file path or an http(s) URL
func (p *Processor) Load(ctx context.Context, source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadURL(ctx, source)
	}
	return p.LoadFile(source)
}

// LoadURL downloads and decodes an image
func (p *Processor) LoadURL(ctx context.Context, imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Image-Cropper/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", ct)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return p.Decode(data)
}

// LoadFile loads an image from a file path with WebP support
func (p *Processor) LoadFile(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	img, err := p.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Decode decodes image bytes, falling back to the cgo WebP decoder
func (p *Processor) Decode(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		return webp.Encode(f, img, &webp.Options{Lossless: lossless, Quality: float32(quality)})
	case "png":
		return imaging.Save(img, path)
	default:
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

// Crop cuts the region given in natural image pixels
func (p *Processor) Crop(img image.Image, v types.Value) (image.Image, error) {
	b := img.Bounds()
	rect := image.Rect(
		b.Min.X+round(v.X), b.Min.Y+round(v.Y),
		b.Min.X+round(v.X+v.Width), b.Min.Y+round(v.Y+v.Height),
	).Intersect(b)
	if rect.Empty() {
		return nil, fmt.Errorf("empty crop rectangle")
	}
	return imaging.Crop(img, rect), nil
}

// RenderPreview draws what a live preview shows: the image scaled to
// preview.Image, offset by Left/Top and clipped to preview.Container
func (p *Processor) RenderPreview(img image.Image, preview interaction.Preview) image.Image {
	cw, ch := round(preview.Container.Width), round(preview.Container.Height)
	iw, ih := round(preview.Image.Width), round(preview.Image.Height)
	if cw <= 0 || ch <= 0 || iw <= 0 || ih <= 0 {
		return imaging.New(1, 1, color.NRGBA{})
	}
	scaled := imaging.Resize(img, iw, ih, imaging.Lanczos)
	canvas := imaging.New(cw, ch, color.NRGBA{0, 0, 0, 255})
	return imaging.Paste(canvas, scaled, image.Pt(round(preview.Left), round(preview.Top)))
}

// RenderFrame composites a frame the way a browser adapter would show it:
// the image scaled to the container, dimmed outside the clip, with the
// region border and visible handles on top
func (p *Processor) RenderFrame(img image.Image, container types.Size, frame interaction.Frame) *image.NRGBA {
	w, h := round(container.Width), round(container.Height)
	if w <= 0 || h <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 1, 1))
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	clip := image.Rect(round(frame.Clip.Left), round(frame.Clip.Top), round(frame.Clip.Right), round(frame.Clip.Bottom))
	dimOutside(dst, clip)

	white := color.NRGBA{255, 255, 255, 255}
	stroke := int(math.Max(1, 0.003*float64(minInt(w, h))))
	drawRect(dst, clip, white, stroke)

	size := int(math.Max(4, 0.012*float64(minInt(w, h))))
	gold := color.NRGBA{255, 204, 0, 255}
	for i, hf := range frame.Handles {
		if !hf.Visible || i == frame.Foreground {
			continue
		}
		fillSquare(dst, round(hf.X), round(hf.Y), size, white)
	}
	if fg := frame.Handles[frame.Foreground]; fg.Visible {
		fillSquare(dst, round(fg.X), round(fg.Y), size, gold)
	}
	return dst
}

// PrepareImageForModel converts an image to base64 for sending to vision models
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		if w, h := b.Dx(), b.Dy(); w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// CreateDebugOverlay marks a suggested start region and the final crop,
// both as fractions of the image
func (p *Processor) CreateDebugOverlay(img image.Image, suggested, crop types.Box) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	green := color.NRGBA{0, 255, 0, 255}
	gold := color.NRGBA{255, 204, 0, 255}
	red := color.NRGBA{255, 0, 0, 255}
	blue := color.NRGBA{0, 170, 255, 255}
	stroke := int(math.Max(2, 0.004*float64(minInt(w, h))))
	cross := int(math.Max(4, 0.01*float64(minInt(w, h))))

	if suggested.W > 0 && suggested.H > 0 {
		drawRect(nrgba, boxToRect(suggested, w, h), green, stroke)
	}
	if crop.W > 0 && crop.H > 0 {
		drawRect(nrgba, boxToRect(crop, w, h), gold, stroke)

		px := int(clamp(crop.X+crop.W/2, 0, 1)*float64(w) + 0.5)
		py := int(clamp(crop.Y+crop.H/2, 0, 1)*float64(h) + 0.5)
		drawHLine(nrgba, py, px-cross, px+cross, red)
		drawVLine(nrgba, px, py-cross, py+cross, red)
	}

	ix, iy := w/2, h/2
	drawHLine(nrgba, iy, ix-6, ix+6, blue)
	drawVLine(nrgba, ix, iy-6, iy+6, blue)

	return nrgba
}
