package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	imagecropper "github.com/menta2k/image-cropper"
	"github.com/menta2k/image-cropper/internal/config"
	"github.com/menta2k/image-cropper/internal/utils"
	"github.com/menta2k/image-cropper/pkg/convert"
	"github.com/menta2k/image-cropper/pkg/headless"
	"github.com/menta2k/image-cropper/pkg/options"
	"github.com/menta2k/image-cropper/pkg/processing"
	"github.com/menta2k/image-cropper/pkg/suggest"
	"github.com/menta2k/image-cropper/pkg/types"
)

const (
	defaultOllamaURL   = "http://localhost:11434/api/chat"
	defaultLlamaCppURL = "http://localhost:8080"
)

type cliFlags struct {
	in         string
	out        string
	configPath string
	display    string
	preview    string
	value      string
	unit       string
	mode       string
	aspect     string
	gesture    string
	backend    string
	model      string
	url        string
	format     string
	quality    int
	debug      bool
	frame      bool
	logLevel   string
	jsonLog    bool
}

// Result is written next to every crop.
type Result struct {
	Source     string              `json:"source"`
	Natural    types.Size          `json:"natural"`
	Display    types.Size          `json:"display"`
	Mode       options.ReturnMode  `json:"mode"`
	Value      types.Value         `json:"value"`
	Real       types.Value         `json:"real"`
	Suggestion *suggest.Suggestion `json:"suggestion,omitempty"`
	Output     string              `json:"output"`
	Size       string              `json:"size,omitempty"`
	Frame      string              `json:"frame,omitempty"`
	Preview    string              `json:"preview,omitempty"`
	Debug      string              `json:"debug,omitempty"`
}

func main() {
	var f cliFlags
	flag.StringVar(&f.in, "in", "", "input image path, URL or directory (jpg/png/webp)")
	flag.StringVar(&f.out, "out", "", "output directory")
	flag.StringVar(&f.configPath, "config", "", "config file (default "+config.GetConfigPath()+" when present)")
	flag.StringVar(&f.display, "display", "", "viewport the image is laid out in, WxH")
	flag.StringVar(&f.preview, "preview", "", "preview target size, WxH")
	flag.StringVar(&f.value, "value", "", `initial region as JSON, e.g. {"x":10,"y":10,"width":50,"height":50}`)
	flag.StringVar(&f.unit, "unit", "%", "unit of -value: px|%|ratio|real")
	flag.StringVar(&f.mode, "mode", "", "return mode reported in the result: real|ratio|raw")
	flag.StringVar(&f.aspect, "aspect", "", "aspect ratio as width/height number or W:H")
	flag.StringVar(&f.gesture, "gesture", "", "gesture script as JSON or @file")
	flag.StringVar(&f.backend, "suggest", "", "start region suggester: saliency|ollama|llamacpp")
	flag.StringVar(&f.model, "model", "", "vision model name")
	flag.StringVar(&f.url, "url", "", "vision server URL (defaults: ollama="+defaultOllamaURL+", llamacpp="+defaultLlamaCppURL+")")
	flag.StringVar(&f.format, "ext", "", "output format for crops: jpg|png|webp")
	flag.IntVar(&f.quality, "quality", 0, "JPEG/WebP output quality (1-100)")
	flag.BoolVar(&f.debug, "debug", false, "write a debug overlay with the suggestion and crop")
	flag.BoolVar(&f.frame, "frame", false, "write the rendered editor frame")
	flag.StringVar(&f.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	flag.BoolVar(&f.jsonLog, "json-log", false, "log as JSON")
	flag.Parse()

	logger, err := NewLogger(os.Stderr, f.logLevel, f.jsonLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if f.in == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -in input.jpg|URL|dir [-display 800x600] [-aspect 16:9] [-suggest saliency] [-gesture @script.json] [-out outdir]\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, f, logger); err != nil {
		logger.Error("image-cropper failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f cliFlags, logger *slog.Logger) error {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, f); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.Cropper.Logger = logger

	a := &app{
		cfg:    cfg,
		logger: logger,
		proc:   processing.NewProcessor(),
	}
	if a.script, err = LoadScript(f.gesture); err != nil {
		return err
	}
	if f.value != "" {
		var v types.Value
		if err := json.Unmarshal([]byte(f.value), &v); err != nil {
			return fmt.Errorf("invalid -value: %w", err)
		}
		if a.unit, err = convert.ParseUnit(f.unit); err != nil {
			return fmt.Errorf("invalid -unit: %w", err)
		}
		a.initial = &v
	}
	if a.suggester, err = newSuggester(cfg.Suggest, logger); err != nil {
		return err
	}

	inputs := []string{f.in}
	if utils.DirExists(f.in) {
		if inputs, err = utils.ListImageFiles(f.in); err != nil {
			return fmt.Errorf("failed to list %s: %w", f.in, err)
		}
		if len(inputs) == 0 {
			return fmt.Errorf("no images found in %s", f.in)
		}
	}
	if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var failed []error
	for _, src := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		res, err := a.process(ctx, src)
		if err != nil {
			logger.Error("failed to crop image", "src", src, "error", err)
			failed = append(failed, fmt.Errorf("%s: %w", src, err))
			continue
		}
		logger.Info("wrote crop",
			"src", src, "output", res.Output, "size", res.Size,
			"x", res.Real.X, "y", res.Real.Y, "width", res.Real.Width, "height", res.Real.Height,
			"took", time.Since(start).Round(time.Millisecond))
	}
	return errors.Join(failed...)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if p := config.GetConfigPath(); utils.FileExists(p) {
			path = p
		}
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(path)
}

func applyFlags(cfg *config.Config, f cliFlags) error {
	if f.out != "" {
		cfg.Output.OutputDir = f.out
	}
	if f.format != "" {
		cfg.Output.Format = f.format
	}
	if f.quality != 0 {
		cfg.Output.Quality = f.quality
	}
	cfg.Output.Debug = cfg.Output.Debug || f.debug
	cfg.Output.WriteFrame = cfg.Output.WriteFrame || f.frame

	if f.display != "" {
		s, err := parseSize(f.display)
		if err != nil {
			return fmt.Errorf("invalid -display: %w", err)
		}
		cfg.Display.Width, cfg.Display.Height = int(s.Width), int(s.Height)
	}
	if f.preview != "" {
		s, err := parseSize(f.preview)
		if err != nil {
			return fmt.Errorf("invalid -preview: %w", err)
		}
		cfg.Display.PreviewWidth, cfg.Display.PreviewHeight = int(s.Width), int(s.Height)
	}

	if f.mode != "" {
		cfg.Cropper.ReturnMode = f.mode
	}
	if f.aspect != "" {
		r, err := parseAspect(f.aspect)
		if err != nil {
			return fmt.Errorf("invalid -aspect: %w", err)
		}
		cfg.Cropper.AspectRatio = options.Ratio(r)
	}

	if f.backend != "" {
		cfg.Suggest.Backend = f.backend
	}
	if f.model != "" {
		cfg.Suggest.Model = f.model
	}
	if f.url != "" {
		cfg.Suggest.URL = f.url
	}
	return nil
}

// parseSize reads WxH.
func parseSize(s string) (types.Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return types.Size{}, fmt.Errorf("%q is not WxH", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return types.Size{}, fmt.Errorf("width: %w", err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return types.Size{}, fmt.Errorf("height: %w", err)
	}
	if width < 0 || height < 0 {
		return types.Size{}, fmt.Errorf("%q has a negative dimension", s)
	}
	return types.Size{Width: float64(width), Height: float64(height)}, nil
}

// parseAspect reads a width/height number or W:H.
func parseAspect(s string) (float64, error) {
	if w, h, ok := strings.Cut(s, ":"); ok {
		width, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return 0, err
		}
		height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err != nil {
			return 0, err
		}
		if width <= 0 || height <= 0 {
			return 0, fmt.Errorf("%q must be positive", s)
		}
		return width / height, nil
	}
	return strconv.ParseFloat(s, 64)
}

func newSuggester(c config.SuggestConfig, logger *slog.Logger) (suggest.Suggester, error) {
	visionOpts := []suggest.VisionOption{suggest.WithVisionLogger(logger)}
	if c.SendSize > 0 {
		visionOpts = append(visionOpts, suggest.WithMaxDimension(c.SendSize))
	}

	switch c.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendSaliency:
		sc := suggest.DefaultSaliencyConfig()
		if c.Coverage > 0 {
			sc.Coverage = c.Coverage
		}
		return suggest.NewSaliencyWithConfig(sc), nil
	case config.BackendOllama:
		url := c.URL
		if url == "" {
			url = defaultOllamaURL
		}
		client, err := suggest.NewOllama(url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return suggest.NewVision(client, c.Model, visionOpts...), nil
	case config.BackendLlamaCpp:
		url := c.URL
		if url == "" {
			url = defaultLlamaCppURL
		}
		return suggest.NewVision(suggest.NewLlamaCpp(url, nil), c.Model, visionOpts...), nil
	}
	return nil, fmt.Errorf("unknown suggest backend %q", c.Backend)
}

type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	proc      *processing.Processor
	suggester suggest.Suggester
	script    []Step
	initial   *types.Value
	unit      convert.Unit
}

// process runs one image through the editor and writes its outputs.
func (a *app) process(ctx context.Context, src string) (*Result, error) {
	img, err := a.proc.Load(ctx, src)
	if err != nil {
		return nil, err
	}

	opts := a.cfg.Cropper
	res := &Result{Source: src}
	if a.suggester != nil {
		s, err := a.suggester.Suggest(ctx, img, float64(opts.AspectRatio))
		if err != nil {
			a.logger.Warn("suggestion failed, using configured start region", "src", src, "error", err)
		} else {
			a.logger.Info("suggested start region", "src", src, "label", s.Label,
				"confidence", s.Confidence, "source", s.Source,
				"x", s.Box.X, "y", s.Box.Y, "w", s.Box.W, "h", s.Box.H)
			s.Apply(&opts)
			res.Suggestion = &s
		}
	}

	display := types.Size{Width: float64(a.cfg.Display.Width), Height: float64(a.cfg.Display.Height)}
	hopts := []headless.Option{headless.WithSource(src), headless.WithLogger(a.logger)}
	preview := types.Size{Width: float64(a.cfg.Display.PreviewWidth), Height: float64(a.cfg.Display.PreviewHeight)}
	if !preview.Empty() {
		hopts = append(hopts, headless.WithPreview(preview))
		opts.Preview = true
	}
	adapter := headless.FromImage(img, display, hopts...)

	c, err := imagecropper.New(adapter, opts)
	if err != nil {
		return nil, err
	}
	defer c.Destroy()
	adapter.Settle()

	if a.initial != nil {
		if err := c.SetValue(*a.initial, imagecropper.WithUnit(a.unit)); err != nil {
			return nil, err
		}
		adapter.Settle()
	}
	player := &Player{Cropper: c, Adapter: adapter, ResizeTimeout: 10 * time.Second}
	if err := player.Run(a.script); err != nil {
		return nil, err
	}

	if res.Value, err = c.GetValue(); err != nil {
		return nil, err
	}
	if res.Real, err = c.GetValue(options.ReturnReal); err != nil {
		return nil, err
	}
	res.Mode = c.Controller().Config().ReturnMode
	res.Natural = adapter.NaturalSize()
	res.Display = adapter.Display()

	if err := a.writeOutputs(res, img, adapter); err != nil {
		return nil, err
	}
	return res, nil
}

func (a *app) writeOutputs(res *Result, img image.Image, adapter *headless.Adapter) error {
	out := a.cfg.Output
	format := strings.ToLower(out.Format)

	cropped, err := a.proc.Crop(img, res.Real)
	if err != nil {
		return err
	}
	res.Output = utils.GenerateOutputFilename(res.Source, out.OutputDir, out.Prefix, out.Suffix, format)
	if err := a.proc.SaveImage(cropped, res.Output, format, out.Quality, out.Lossless); err != nil {
		return fmt.Errorf("failed to save crop: %w", err)
	}
	if info, err := os.Stat(res.Output); err == nil {
		res.Size = utils.FormatFileSize(info.Size())
	}

	if out.WriteFrame {
		frame, err := adapter.Render()
		if err != nil {
			return fmt.Errorf("failed to render frame: %w", err)
		}
		res.Frame = utils.GenerateOutputFilename(res.Source, out.OutputDir, out.Prefix, "_frame", "png")
		if err := a.proc.SaveImage(frame, res.Frame, "png", 0, false); err != nil {
			return fmt.Errorf("failed to save frame: %w", err)
		}
	}

	if _, ok := adapter.PreviewSize(); ok {
		preview, err := adapter.RenderPreview()
		if err != nil {
			return fmt.Errorf("failed to render preview: %w", err)
		}
		res.Preview = utils.GenerateOutputFilename(res.Source, out.OutputDir, out.Prefix, "_preview", "png")
		if err := a.proc.SaveImage(preview, res.Preview, "png", 0, false); err != nil {
			return fmt.Errorf("failed to save preview: %w", err)
		}
	}

	if out.Debug {
		var suggested types.Box
		if res.Suggestion != nil {
			suggested = res.Suggestion.Box
		}
		crop := types.Box{
			X: res.Real.X / res.Natural.Width, Y: res.Real.Y / res.Natural.Height,
			W: res.Real.Width / res.Natural.Width, H: res.Real.Height / res.Natural.Height,
		}
		res.Debug = utils.GenerateOutputFilename(res.Source, out.OutputDir, out.Prefix, "_debug", "png")
		if err := a.proc.SaveImage(a.proc.CreateDebugOverlay(img, suggested, crop), res.Debug, "png", 0, false); err != nil {
			return fmt.Errorf("failed to save debug overlay: %w", err)
		}
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	jsonPath := strings.TrimSuffix(res.Output, filepath.Ext(res.Output)) + ".json"
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
