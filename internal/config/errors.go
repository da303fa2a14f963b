package config

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

func wrapInvalid(err error) error {
	return fmt.Errorf("%w, %w", ErrInvalidConfig, err)
}

func wrapLoad(err error) error {
	return fmt.Errorf("%w, %w", ErrLoadConfig, err)
}
