package processing

import (
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-cropper/pkg/interaction"
	"github.com/menta2k/image-cropper/pkg/types"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

func TestProcessor_Crop(t *testing.T) {
	p := NewProcessor()
	img := solid(200, 100, color.NRGBA{10, 20, 30, 255})

	tests := map[string]struct {
		value types.Value
		want  image.Point
	}{
		"inside":          {types.Value{X: 10, Y: 10, Width: 50, Height: 40}, image.Pt(50, 40)},
		"rounds":          {types.Value{X: 0.4, Y: 0.6, Width: 49.5, Height: 20.2}, image.Pt(50, 20)},
		"clipped to edge": {types.Value{X: 150, Y: 50, Width: 100, Height: 100}, image.Pt(50, 50)},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			out, err := p.Crop(img, tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.Bounds().Size())
		})
	}

	_, err := p.Crop(img, types.Value{X: 300, Y: 300, Width: 10, Height: 10})
	assert.Error(t, err)
}

func TestProcessor_RenderFrame(t *testing.T) {
	p := NewProcessor()
	img := solid(400, 200, color.NRGBA{200, 200, 200, 255})

	frame := interaction.Frame{
		Region: types.Value{X: 50, Y: 25, Width: 100, Height: 50},
		Clip:   interaction.Clip{Top: 25, Right: 150, Bottom: 75, Left: 50},
	}
	out := p.RenderFrame(img, types.Size{Width: 200, Height: 100}, frame)
	require.Equal(t, image.Pt(200, 100), out.Bounds().Size())

	outside := out.NRGBAAt(10, 10)
	inside := out.NRGBAAt(100, 50)
	assert.InDelta(t, 100, int(outside.R), 1)
	assert.InDelta(t, 200, int(inside.R), 1)
}

func TestProcessor_RenderPreview(t *testing.T) {
	p := NewProcessor()
	img := solid(400, 300, color.NRGBA{0, 255, 0, 255})

	preview := interaction.Preview{
		Container: types.Size{Width: 100, Height: 75},
		Image:     types.Size{Width: 200, Height: 150},
		Left:      -50,
		Top:       -40,
	}
	out := p.RenderPreview(img, preview)
	assert.Equal(t, image.Pt(100, 75), out.Bounds().Size())
}

func TestProcessor_SaveAndLoad(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()
	img := solid(32, 16, color.NRGBA{255, 0, 0, 255})

	for _, format := range []string{"png", "jpg", "webp"} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(dir, "out."+format)
			require.NoError(t, p.SaveImage(img, path, format, 90, true))

			loaded, err := p.Load(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, image.Pt(32, 16), loaded.Bounds().Size())
		})
	}
}

func TestProcessor_LoadURL(t *testing.T) {
	p := NewProcessor()
	path := filepath.Join(t.TempDir(), "img.png")
	require.NoError(t, imaging.Save(solid(8, 4, color.NRGBA{A: 255}), path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/img.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	img, err := p.Load(context.Background(), srv.URL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, image.Pt(8, 4), img.Bounds().Size())

	_, err = p.Load(context.Background(), srv.URL+"/page")
	assert.ErrorContains(t, err, "does not point to an image")

	_, err = p.Load(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestProcessor_CreateDebugOverlay(t *testing.T) {
	p := NewProcessor()
	img := solid(100, 100, color.NRGBA{0, 0, 0, 255})

	out := p.CreateDebugOverlay(img,
		types.Box{X: 0.1, Y: 0.1, W: 0.5, H: 0.5},
		types.Box{X: 0.2, Y: 0.2, W: 0.6, H: 0.6},
	)
	nrgba := imaging.Clone(out)
	assert.Equal(t, color.NRGBA{0, 255, 0, 255}, nrgba.NRGBAAt(10, 30))
	assert.Equal(t, color.NRGBA{255, 204, 0, 255}, nrgba.NRGBAAt(20, 40))
}

func TestProcessor_PrepareImageForModel(t *testing.T) {
	p := NewProcessor()
	encoded, err := p.PrepareImageForModel(solid(64, 32, color.NRGBA{A: 255}), "jpeg", 16, 80)
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
}
