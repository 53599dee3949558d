// Package nodes holds what the step handlers share: configuration
// validation and panic containment.
package nodes

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dukex/driveflow/pkg/models"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their stored names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}

		return name
	})

	return v
}

// ValidateConfig checks a step configuration struct and renders the first
// violation in plain words.
func ValidateConfig(config any) error {
	err := validate.Struct(config)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	field := validationErrors[0]

	switch field.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field.Field())
	case "min":
		return fmt.Errorf("%s needs at least %s entries", field.Field(), field.Param())
	case "url":
		return fmt.Errorf("%s is not a valid url", field.Field())
	default:
		return fmt.Errorf("%s failed %s validation", field.Field(), field.Tag())
	}
}

// Recover turns a panic inside a handler into a failed outcome. Use as
// `defer nodes.Recover(&outcome)` with a named result.
func Recover(outcome *models.StepOutcome) {
	if r := recover(); r != nil {
		*outcome = models.StepFailed("handler panicked: %v", r)
	}
}
