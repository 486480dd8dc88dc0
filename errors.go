package imagecropper

import (
	"errors"

	"github.com/menta2k/image-cropper/pkg/options"
)

var (
	// ErrMissingSource is returned when the adapter has no image source.
	ErrMissingSource = errors.New("image source is missing")
	// ErrTargetNotFound is returned when no adapter is given.
	ErrTargetNotFound = errors.New("target element not found")
	// ErrNotInitialized is returned by operations issued before the image loaded.
	ErrNotInitialized = errors.New("cropper is not initialized")
	// ErrDestroyed is returned by operations issued after Destroy.
	ErrDestroyed = errors.New("cropper is destroyed")

	// ErrInvalidReturnMode is returned for a return mode outside real, ratio and raw.
	ErrInvalidReturnMode = options.ErrInvalidReturnMode
)

// ConfigurationError reports a setup problem. Nothing has been mutated
// when one is returned.
type ConfigurationError = options.ConfigurationError
