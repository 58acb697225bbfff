package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is wrapped by every ConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError identifies the first field that failed validation.
type ConfigError struct {
	Field string
	Rule  string
	Value interface{}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: field '%s' failed validation: %s (value: '%v')",
		ErrInvalidConfig, e.Field, e.Rule, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Validator is a wrapper around go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator that reports fields by their JSON names
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{
		validate: v,
	}
}

// Validate validates a struct using validation tags
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return v.formatValidationError(err)
	}
	return nil
}

// Var validates a single value against a tag expression
func (v *Validator) Var(value interface{}, tag string) error {
	return v.validate.Var(value, tag)
}

// formatValidationError keeps only the first failing field so callers get one
// precise message instead of a list
func (v *Validator) formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		rule := e.Tag()
		if e.Param() != "" {
			rule += "=" + e.Param()
		}
		return &ConfigError{
			Field: e.Field(),
			Rule:  rule,
			Value: e.Value(),
		}
	}
	return err
}

// ValidateConfig validates a logging configuration
func ValidateConfig(cfg LoggingConfig) error {
	return defaultValidator.Validate(cfg)
}

var defaultValidator = NewValidator()
