package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/menta2k/image-cropper/pkg/options"
)

// Config holds the application configuration
type Config struct {
	Cropper options.Options `json:"cropper"`
	Display DisplayConfig   `json:"display"`
	Output  OutputConfig    `json:"output"`
	Suggest SuggestConfig   `json:"suggest"`
}

// DisplayConfig describes the viewport the image is laid out in
type DisplayConfig struct {
	Width         int `json:"width"`
	Height        int `json:"height"`
	PreviewWidth  int `json:"preview_width"`
	PreviewHeight int `json:"preview_height"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Format     string `json:"format"`
	Quality    int    `json:"quality"`
	Lossless   bool   `json:"lossless"`
	OutputDir  string `json:"output_dir"`
	Prefix     string `json:"prefix"`
	Suffix     string `json:"suffix"`
	WriteFrame bool   `json:"write_frame"`
	Debug      bool   `json:"debug"`
}

// SuggestConfig selects how the start region is proposed
type SuggestConfig struct {
	Backend  string  `json:"backend"`
	Model    string  `json:"model"`
	URL      string  `json:"url"`
	SendSize int     `json:"send_size"`
	Coverage float64 `json:"coverage"`
}

// Suggest backends
const (
	BackendNone     = ""
	BackendSaliency = "saliency"
	BackendOllama   = "ollama"
	BackendLlamaCpp = "llamacpp"
)

var (
	supportedFormats  = []string{"jpg", "jpeg", "png", "webp"}
	supportedBackends = []string{BackendNone, BackendSaliency, BackendOllama, BackendLlamaCpp}
)

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Cropper: options.Options{},
		Display: DisplayConfig{
			Width:  800,
			Height: 600,
		},
		Output: OutputConfig{
			Format:    "jpg",
			Quality:   90,
			OutputDir: "./output",
			Suffix:    "_cropped",
		},
		Suggest: SuggestConfig{
			Model:    "openbmb/minicpm-v4.5",
			SendSize: 768,
			Coverage: 0.8,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Fields missing from
// the file keep their defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := options.Parse(c.Cropper); err != nil {
		return fmt.Errorf("cropper: %w", err)
	}

	if c.Display.Width < 1 || c.Display.Height < 1 {
		return fmt.Errorf("display width and height must be positive")
	}
	if c.Display.PreviewWidth < 0 || c.Display.PreviewHeight < 0 {
		return fmt.Errorf("display preview size cannot be negative")
	}

	if !slices.Contains(supportedFormats, strings.ToLower(c.Output.Format)) {
		return fmt.Errorf("output.format must be one of %v", supportedFormats)
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if !slices.Contains(supportedBackends, c.Suggest.Backend) {
		return fmt.Errorf("suggest.backend %q is not one of saliency, ollama, llamacpp", c.Suggest.Backend)
	}
	if c.Suggest.Coverage < 0 || c.Suggest.Coverage > 1 {
		return fmt.Errorf("suggest.coverage must be between 0 and 1")
	}
	if c.Suggest.SendSize < 0 {
		return fmt.Errorf("suggest.send_size cannot be negative")
	}
	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-cropper", "config.json")
}
