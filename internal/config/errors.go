package config

import "errors"

var (
	// ErrConfigNotFound is returned when a required configuration file is
	// missing.
	ErrConfigNotFound = errors.New("config not found")

	// ErrInvalidConfigShape is returned when a configuration section has a
	// type the generators cannot consume, e.g. a string where a mapping is
	// expected.
	ErrInvalidConfigShape = errors.New("invalid config shape")
)
