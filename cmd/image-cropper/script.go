package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	imagecropper "github.com/menta2k/image-cropper"
	"github.com/menta2k/image-cropper/pkg/convert"
	"github.com/menta2k/image-cropper/pkg/headless"
	"github.com/menta2k/image-cropper/pkg/interaction"
	"github.com/menta2k/image-cropper/pkg/types"
)

// Step is one scripted input event. Pointer coordinates are client pixels.
type Step struct {
	Op     string  `json:"op"`
	Target string  `json:"target,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Delta  float64 `json:"delta,omitempty"`
	Factor float64 `json:"factor,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

var handleNames = map[string]int{
	"nw": interaction.HandleNW,
	"n":  interaction.HandleN,
	"ne": interaction.HandleNE,
	"e":  interaction.HandleE,
	"se": interaction.HandleSE,
	"s":  interaction.HandleS,
	"sw": interaction.HandleSW,
	"w":  interaction.HandleW,
}

// LoadScript reads steps from arg, which is either inline JSON or a path
// prefixed with @.
func LoadScript(arg string) ([]Step, error) {
	if arg == "" {
		return nil, nil
	}
	data := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read gesture script: %w", err)
		}
	}

	var steps []Step
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("failed to parse gesture script: %w", err)
	}
	return steps, nil
}

func parseTarget(name string) (interaction.Target, error) {
	switch name = strings.ToLower(name); name {
	case "region", "":
		return interaction.RegionTarget, nil
	case "overlay":
		return interaction.OverlayTarget, nil
	}
	if i, ok := handleNames[name]; ok {
		return interaction.HandleTarget(i), nil
	}
	return interaction.Target{}, fmt.Errorf("unknown pointer target %q", name)
}

func stepUnit(s Step, def convert.Unit) ([]imagecropper.OpOption, error) {
	if s.Unit == "" {
		return []imagecropper.OpOption{imagecropper.WithUnit(def)}, nil
	}
	u, err := convert.ParseUnit(s.Unit)
	if err != nil {
		return nil, err
	}
	return []imagecropper.OpOption{imagecropper.WithUnit(u)}, nil
}

// Player replays steps against a cropper bound to a headless adapter.
type Player struct {
	Cropper *imagecropper.Cropper
	Adapter *headless.Adapter
	// ResizeTimeout bounds the wait for a debounced resize to land.
	ResizeTimeout time.Duration
}

// Run applies steps in order, settling the adapter after each one.
func (p *Player) Run(steps []Step) error {
	for i, s := range steps {
		if err := p.step(s); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, s.Op, err)
		}
		p.Adapter.Settle()
	}
	return nil
}

func (p *Player) step(s Step) error {
	c := p.Cropper
	switch strings.ToLower(s.Op) {
	case "down":
		target, err := parseTarget(s.Target)
		if err != nil {
			return err
		}
		if !c.PointerDown(target, s.X, s.Y) {
			return fmt.Errorf("gesture did not start")
		}
	case "move":
		c.PointerMove(s.X, s.Y)
	case "up":
		c.PointerUp(s.X, s.Y)
	case "wheel":
		return c.Wheel(s.Delta)
	case "scale":
		return c.ScaleBy(s.Factor)
	case "move_to":
		opts, err := stepUnit(s, convert.Pixel)
		if err != nil {
			return err
		}
		return c.MoveTo(s.X, s.Y, opts...)
	case "resize_to":
		opts, err := stepUnit(s, convert.Pixel)
		if err != nil {
			return err
		}
		return c.ResizeTo(s.Width, s.Height, opts...)
	case "value":
		opts, err := stepUnit(s, convert.Percent)
		if err != nil {
			return err
		}
		return c.SetValue(types.Value{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}, opts...)
	case "reset":
		return c.Reset()
	case "resize":
		return p.resize(types.Size{Width: s.Width, Height: s.Height})
	default:
		return fmt.Errorf("unknown op")
	}
	return nil
}

// resize changes the viewport and waits for the debounced resync.
func (p *Player) resize(viewport types.Size) error {
	if viewport.Empty() {
		return fmt.Errorf("viewport must be positive, got %vx%v", viewport.Width, viewport.Height)
	}
	p.Adapter.Resize(viewport)
	if err := p.Cropper.NotifyResize(); err != nil {
		return err
	}
	if !p.Cropper.Controller().Config().Responsive {
		return nil
	}

	timeout := p.ResizeTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if p.Adapter.Flush() > 0 {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
	return fmt.Errorf("resize not applied within %s", timeout)
}
