package integrator

import (
	"errors"
	"strings"
)

// ConfigurationError reports input the integrator cannot act on: a missing
// workspace or project path, a missing project file, or an unknown target.
type ConfigurationError struct {
	Message     string
	Remediation string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Remediation == "" {
		return e.Message
	}
	return strings.TrimSuffix(e.Message, ".") + ". " + e.Remediation
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
