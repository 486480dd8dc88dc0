package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-cropper/pkg/convert"
	"github.com/menta2k/image-cropper/pkg/options"
	"github.com/menta2k/image-cropper/pkg/types"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// createTestImage draws a bright square subject on a dark background
func createTestImage(width, height int, subject image.Rectangle) image.Image {
	img := imaging.New(width, height, color.NRGBA{64, 64, 64, 255})
	for y := subject.Min.Y; y < subject.Max.Y; y++ {
		for x := subject.Min.X; x < subject.Max.X; x++ {
			img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	return img
}

func TestSuggestion_Apply(t *testing.T) {
	s := Suggestion{Box: types.Box{X: 0.1, Y: 0.2, W: 0.5, H: 0.4}}
	o := options.Options{Logger: discardLogger}
	s.Apply(&o)

	cfg, err := options.Parse(o)
	require.NoError(t, err)
	assert.Equal(t, &options.Measure{A: 0.5, B: 0.4, Unit: convert.Ratio}, cfg.StartSize)
	assert.Equal(t, &options.Measure{A: 0.1, B: 0.2, Unit: convert.Ratio}, cfg.StartPosition)
}

func TestFitAspect(t *testing.T) {
	tests := map[string]struct {
		box    types.Box
		aspect float64
		want   types.Box
	}{
		"no aspect": {
			box:  types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
			want: types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
		},
		"grows width": {
			box:    types.Box{X: 0.4, Y: 0.25, W: 0.2, H: 0.5},
			aspect: 1,
			want:   types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
		},
		"shifted inside": {
			box:    types.Box{X: 0.9, Y: 0.25, W: 0.1, H: 0.5},
			aspect: 1,
			want:   types.Box{X: 0.5, Y: 0.25, W: 0.5, H: 0.5},
		},
		"limited by image": {
			box:    types.Box{X: 0, Y: 0, W: 1, H: 1},
			aspect: 2,
			want:   types.Box{X: 0, Y: 0.25, W: 1, H: 0.5},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := fitAspect(tc.box, tc.aspect, 100, 100)
			assert.InDelta(t, tc.want.X, got.X, 1e-9, "x")
			assert.InDelta(t, tc.want.Y, got.Y, 1e-9, "y")
			assert.InDelta(t, tc.want.W, got.W, 1e-9, "w")
			assert.InDelta(t, tc.want.H, got.H, 1e-9, "h")
		})
	}
}

func TestSaliency_FindsSubject(t *testing.T) {
	img := createTestImage(200, 200, image.Rect(130, 130, 190, 190))
	cfg := DefaultSaliencyConfig()
	cfg.Coverage = 0.5
	s := NewSaliencyWithConfig(cfg)

	got, err := s.Suggest(context.Background(), img, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got.Box.W, 1e-9)
	assert.InDelta(t, 0.5, got.Box.H, 1e-9)
	assert.Greater(t, got.Box.X+got.Box.W/2, 0.5)
	assert.Greater(t, got.Box.Y+got.Box.H/2, 0.5)
	assert.Equal(t, "saliency", got.Source)
}

func TestSaliency_DownscalesLargeImages(t *testing.T) {
	img := createTestImage(1024, 512, image.Rect(100, 100, 300, 300))
	got, err := NewSaliency().Suggest(context.Background(), img, 0)
	require.NoError(t, err)

	assert.InDelta(t, 0.8, got.Box.W, 0.01)
	assert.InDelta(t, 0.8, got.Box.H, 0.01)
	assert.GreaterOrEqual(t, got.Box.X, 0.0)
	assert.LessOrEqual(t, got.Box.X+got.Box.W, 1.0+1e-9)
}

func TestSaliency_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSaliency().Suggest(ctx, createTestImage(10, 10, image.Rect(0, 0, 1, 1)), 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeModelJSON(t *testing.T) {
	tests := map[string]struct {
		raw  string
		want string
	}{
		"fenced":           {"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		"comments":         {"{\"a\": 1, /* x */ \"b\": 2 // y\n}", "{\"a\": 1,  \"b\": 2 \n}"},
		"trailing commas":  {`{"a": [1, 2,], }`, `{"a": [1, 2] }`},
		"surrounding text": {`Sure! {"a": 1} hope it helps`, `{"a": 1}`},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitizeModelJSON(tc.raw))
		})
	}
}

type fakeClient struct {
	reply  string
	err    error
	prompt string
	image  string
}

func (f *fakeClient) Query(_ context.Context, _, prompt, imgB64 string) (string, error) {
	f.prompt, f.image = prompt, imgB64
	return f.reply, f.err
}

func TestVision_Suggest(t *testing.T) {
	img := createTestImage(200, 100, image.Rect(0, 0, 1, 1))

	t.Run("subject", func(t *testing.T) {
		client := &fakeClient{reply: "```json\n" + `{
			"primary": {"label": "Dog", "confidence": 0.9, "box": {"x": 0.4, "y": 0.2, "w": 0.2, "h": 0.6}, "cx": 0.5, "cy": 0.5},
			"description": "a dog on grass",
			"tags": ["Dog", "dog", "grass"],
		}` + "\n```"}
		v := NewVision(client, "llava", WithVisionLogger(discardLogger))

		got, err := v.Suggest(context.Background(), img, 0)
		require.NoError(t, err)
		assert.Equal(t, "Dog", got.Label)
		assert.Equal(t, 0.9, got.Confidence)
		assert.Equal(t, []string{"dog", "grass"}, got.Tags)
		assert.Equal(t, "vision:llava", got.Source)
		assert.InDelta(t, 0.4, got.Box.X, 1e-9)
		assert.Equal(t, DefaultPrompt, client.prompt)
		assert.NotEmpty(t, client.image)

		// 40x60 px grown to 60x60 around its center.
		got, err = v.Suggest(context.Background(), img, 1)
		require.NoError(t, err)
		assert.InDelta(t, 0.3, got.Box.W, 1e-9)
		assert.InDelta(t, 0.35, got.Box.X, 1e-9)
	})

	t.Run("non json falls back", func(t *testing.T) {
		v := NewVision(&fakeClient{reply: "I see a dog."}, "llava", WithVisionLogger(discardLogger))
		got, err := v.Suggest(context.Background(), img, 0)
		require.NoError(t, err)
		assert.Equal(t, "none", got.Label)
		assert.Equal(t, types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}, got.Box)
	})

	t.Run("client error", func(t *testing.T) {
		v := NewVision(&fakeClient{err: errors.New("offline")}, "llava", WithVisionLogger(discardLogger))
		_, err := v.Suggest(context.Background(), img, 0)
		assert.ErrorContains(t, err, "offline")
	})
}

func TestOllama_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llava", req["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "llava",
			"message": map[string]any{"role": "assistant", "content": `{"primary":{"label":"cat"}}`},
			"done":    true,
		})
	}))
	defer srv.Close()

	client, err := NewOllama(srv.URL+"/api/chat", srv.Client())
	require.NoError(t, err)

	got, err := client.Query(context.Background(), "llava", "where?", "aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, `{"primary":{"label":"cat"}}`, got)

	_, err = client.Query(context.Background(), "llava", "where?", "not base64!")
	assert.Error(t, err)

	_, err = NewOllama("localhost", nil)
	assert.Error(t, err)
}

func TestLlamaCpp_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req chatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Model == "broken" {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{
				"message": map[string]any{
					"role":    "assistant",
					"content": []any{map[string]any{"type": "text", "text": "hello"}},
				},
			}},
		})
	}))
	defer srv.Close()

	client := NewLlamaCpp(srv.URL+"/", srv.Client())
	got, err := client.Query(context.Background(), "qwen", "hi", "aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = client.Query(context.Background(), "broken", "hi", "")
	assert.ErrorContains(t, err, "status 503")
}
