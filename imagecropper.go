// Package imagecropper provides an interactive crop region editor core.
//
// A Cropper owns one crop box laid over a rendered image. Pointer gestures
// and programmatic operations move and resize the box while aspect ratio,
// size and container bounds are enforced. The current region is reported in
// natural image pixels, container pixels or 0..1 ratios.
//
// Rendering and input are delegated to an Adapter. The headless adapter in
// pkg/headless renders into memory and is what the CLI uses.
//
// Basic usage:
//
//	package main
//
//	import (
//		"fmt"
//		"log"
//
//		imagecropper "github.com/menta2k/image-cropper"
//		"github.com/menta2k/image-cropper/pkg/headless"
//		"github.com/menta2k/image-cropper/pkg/options"
//		"github.com/menta2k/image-cropper/pkg/types"
//	)
//
//	func main() {
//		adapter := headless.New(types.Size{Width: 800, Height: 600}, headless.WithSource("photo.jpg"))
//
//		c, err := imagecropper.New(adapter, options.Options{
//			AspectRatio: 1,
//			OnCropEnd: func(v types.Value) {
//				fmt.Printf("crop: %+v\n", v)
//			},
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//		adapter.Settle()
//
//		if err := c.ScaleBy(0.5); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package is organized as:
//
//  1. Geometry (pkg/geometry): the crop rectangle and its constraint math
//  2. Convert (pkg/convert): unit conversion between container, natural and ratio space
//  3. Options (pkg/options): option parsing, validation and lazy resolution
//  4. Interaction (pkg/interaction): the gesture state machine and frame building
//  5. Headless (pkg/headless) and Processing (pkg/processing): an in-memory adapter and image IO
package imagecropper

import (
	"log/slog"

	"github.com/menta2k/image-cropper/pkg/interaction"
	"github.com/menta2k/image-cropper/pkg/options"
)

// Version of the image cropper library
const Version = "1.0.0"

// Cropper is one crop editor instance bound to an adapter. It is not safe
// for concurrent use; drive it from the goroutine that flushes the adapter.
type Cropper struct {
	adapter Adapter
	opts    options.Options
	parser  *options.Parser
	ctrl    *interaction.Controller
	logger  *slog.Logger

	destroyed bool
}

// New validates opts and binds a cropper to adapter. Configuration errors
// are returned before the adapter is touched. The box is initialized at
// once when the adapter already knows the natural image size, otherwise
// after the adapter finishes loading its source.
func New(adapter Adapter, opts options.Options, ctrlOpts ...interaction.Option) (*Cropper, error) {
	if adapter == nil {
		return nil, &ConfigurationError{Field: "target", Err: ErrTargetNotFound}
	}

	parser := options.NewParser(opts.Logger)
	cfg, err := parser.Parse(opts)
	if err != nil {
		return nil, err
	}

	src := adapter.Source()
	if src == "" {
		return nil, &ConfigurationError{Field: "src", Err: ErrMissingSource}
	}

	c := &Cropper{
		adapter: adapter,
		opts:    opts,
		parser:  parser,
		ctrl:    interaction.New(adapter, cfg, ctrlOpts...),
		logger:  cfg.Logger,
	}

	if adapter.NaturalSize().Empty() {
		c.logger.Debug("waiting for image load", "src", src)
		adapter.LoadImage(src, c.initialize)
	} else {
		c.initialize()
	}
	return c, nil
}

func (c *Cropper) initialize() {
	if c.destroyed {
		return
	}
	c.ctrl.Initialize()

	cfg := c.ctrl.Config()
	if cfg.OnInitialize != nil {
		cfg.OnInitialize(c.ctrl.Value(cfg.ReturnMode))
	}
}

// Controller exposes the underlying gesture controller.
func (c *Cropper) Controller() *interaction.Controller {
	return c.ctrl
}

// Initialized reports whether the box has been built.
func (c *Cropper) Initialized() bool {
	return c.ctrl.Initialized()
}

// Destroy stops pending work and releases the adapter. Further operations
// return ErrDestroyed.
func (c *Cropper) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.ctrl.Destroy()
	if d, ok := c.adapter.(Destroyer); ok {
		d.Destroy()
	}
	c.logger.Debug("cropper destroyed")
}

func (c *Cropper) ready() error {
	if c.destroyed {
		return ErrDestroyed
	}
	if !c.ctrl.Initialized() {
		return ErrNotInitialized
	}
	return nil
}
