package options

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/menta2k/image-cropper/pkg/convert"
)

// ReturnMode selects how values are reported to callers.
type ReturnMode string

const (
	// ReturnReal reports natural image pixels, rounded.
	ReturnReal ReturnMode = "real"
	// ReturnRatio reports fractions of the container.
	ReturnRatio ReturnMode = "ratio"
	// ReturnRaw reports container pixels, rounded.
	ReturnRaw ReturnMode = "raw"
)

// ParseReturnMode validates s case insensitively. An empty string is real.
func ParseReturnMode(s string) (ReturnMode, error) {
	if s == "" {
		return ReturnReal, nil
	}
	switch m := ReturnMode(strings.ToLower(s)); m {
	case ReturnReal, ReturnRatio, ReturnRaw:
		return m, nil
	}
	return "", &ConfigurationError{Field: "returnMode", Err: fmt.Errorf("%w: %q", ErrInvalidReturnMode, s)}
}

// Measure is a parsed tuple with its unit decided. Zero components are unset.
type Measure struct {
	A    float64
	B    float64
	Unit convert.Unit
}

// Config is the validated, still unit tagged configuration.
type Config struct {
	AspectRatio    float64
	MaxAspectRatio float64
	MaxSize        *Measure
	MinSize        *Measure
	StartSize      *Measure
	StartPosition  *Measure
	ReturnMode     ReturnMode
	Responsive     bool
	Preview        bool
	Modal          bool

	OnInitialize Callback
	OnCropStart  Callback
	OnCropMove   Callback
	OnCropEnd    Callback

	Logger *slog.Logger
}

// Parser validates Options. It remembers whether the deprecated OnUpdate
// warning was already emitted so a cropper re-parsing on image change warns
// only once.
type Parser struct {
	logger *slog.Logger
	warned bool
}

// NewParser returns a parser logging to logger, or slog.Default when nil.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse validates o with a fresh parser.
func Parse(o Options) (Config, error) {
	return NewParser(o.Logger).Parse(o)
}

// Parse validates o and fills in defaults.
func (p *Parser) Parse(o Options) (Config, error) {
	cfg := Config{
		Responsive: true,
		Preview:    o.Preview,
		Modal:      o.Modal,
		Logger:     o.Logger,
	}
	if cfg.Logger == nil {
		cfg.Logger = p.logger
	}
	if o.Responsive != nil {
		cfg.Responsive = *o.Responsive
	}

	var err error
	if cfg.AspectRatio, err = parseRatio("aspectRatio", o.AspectRatio); err != nil {
		return Config{}, err
	}
	if cfg.MaxAspectRatio, err = parseRatio("maxAspectRatio", o.MaxAspectRatio); err != nil {
		return Config{}, err
	}

	if cfg.MaxSize, err = parseTuple("maxSize", o.MaxSize, convert.Pixel); err != nil {
		return Config{}, err
	}
	if cfg.MinSize, err = parseTuple("minSize", o.MinSize, convert.Pixel); err != nil {
		return Config{}, err
	}
	if cfg.StartSize, err = parseTuple("startSize", o.StartSize, convert.Percent); err != nil {
		return Config{}, err
	}
	if cfg.StartSize == nil {
		cfg.StartSize = &Measure{A: 100, B: 100, Unit: convert.Percent}
	}
	if cfg.StartPosition, err = parseTuple("startPosition", o.StartPosition, convert.Percent); err != nil {
		return Config{}, err
	}

	if cfg.ReturnMode, err = ParseReturnMode(o.ReturnMode); err != nil {
		return Config{}, err
	}

	cfg.OnInitialize = o.OnInitialize
	cfg.OnCropStart = o.OnCropStart
	cfg.OnCropEnd = o.OnCropEnd
	if o.OnUpdate != nil {
		if !p.warned {
			p.warned = true
			cfg.Logger.Warn("OnUpdate is deprecated and will be removed, use OnCropMove or OnCropEnd instead")
		}
		cfg.OnCropMove = o.OnUpdate
	}
	if o.OnCropMove != nil {
		cfg.OnCropMove = o.OnCropMove
	}

	return cfg, nil
}

func parseRatio(field string, r Ratio) (float64, error) {
	v := float64(r)
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ConfigurationError{Field: field, Err: fmt.Errorf("%w: %v", ErrInvalidRatio, v)}
	}
	return v, nil
}

func parseTuple(field string, t *Tuple, def convert.Unit) (*Measure, error) {
	if t == nil {
		return nil, nil
	}
	unit := def
	if t.Unit != "" {
		u, err := convert.ParseUnit(t.Unit)
		if err != nil {
			return nil, &ConfigurationError{Field: field, Err: fmt.Errorf("%w: %v", ErrInvalidUnit, err)}
		}
		unit = u
	}
	if t.Natural && unit == convert.Pixel {
		unit = convert.Real
	}
	return &Measure{A: t.A, B: t.B, Unit: unit}, nil
}

// WithStart returns a copy whose start size and position are replaced.
// The receiver is not modified.
func (c Config) WithStart(x, y, width, height float64, unit convert.Unit) Config {
	c.StartPosition = &Measure{A: x, B: y, Unit: unit}
	c.StartSize = &Measure{A: width, B: height, Unit: unit}
	return c
}
