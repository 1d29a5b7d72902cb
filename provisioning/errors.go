package provisioning

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const TextCodeConfigurationInvalid = "PROVISIONING_CONFIGURATION_INVALID"

var ErrInvalidConfiguration = errors.New("provisioning: invalid configuration")

// ConfigurationError is raised before any platform call when the
// configuration cannot produce a provisioning plan.
type ConfigurationError struct {
	Field   string
	Message string
}

func newConfigurationError(field string, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return "provisioning: " + e.Message
	}
	return fmt.Sprintf("provisioning: %s: %s", e.Field, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

func (e *ConfigurationError) ErrorTextCode() string {
	return TextCodeConfigurationInvalid
}

func (e *ConfigurationError) ErrorCategory() goerrors.Category {
	return goerrors.CategoryBadInput
}
