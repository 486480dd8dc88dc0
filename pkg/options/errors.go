package options

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidReturnMode is returned for a return mode outside real, ratio and raw.
	ErrInvalidReturnMode = errors.New("invalid return mode")
	// ErrInvalidRatio is returned for negative or non-finite aspect ratios.
	ErrInvalidRatio = errors.New("invalid aspect ratio")
	// ErrInvalidUnit is returned for an unknown tuple unit tag.
	ErrInvalidUnit = errors.New("invalid unit")
)

// ConfigurationError reports a setup problem. Nothing has been mutated
// when one is returned.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
