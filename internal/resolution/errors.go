package resolution

import (
	"errors"
	"strings"
)

var (
	// ErrConfiguration marks resolution failures caused by invalid thresholds.
	ErrConfiguration = errors.New("invalid threshold configuration")
	ErrInvalidScale  = errors.New("scale must be a finite non-negative number")
)

// ConfigurationError is returned by Resolve when the active thresholds are
// not strictly increasing. The resolver state is left untouched.
type ConfigurationError struct {
	Violations []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrConfiguration.Error()
	}
	return ErrConfiguration.Error() + ": " + strings.Join(e.Violations, "; ")
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}
