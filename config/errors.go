package config

import (
	"errors"
	"fmt"
)

// ErrMissing marks a required setting that was not provided.
var ErrMissing = errors.New("missing required value")

// ConfigError reports an invalid or missing setting. Field is the
// environment variable name when the setting has one.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
