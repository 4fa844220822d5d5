package server

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/msalah0e/relmap/internal/graph"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// label: trimmed, non-empty and short enough to display in full.
	_ = v.RegisterValidation("label", func(fl validator.FieldLevel) bool {
		return graph.ValidLabel(fl.Field().String())
	})
	return v
}

// validateStruct validates a request body based on its validation tags.
func validateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		msgs := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			msgs = append(msgs, formatFieldError(e))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return err
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "label":
		return fmt.Sprintf("%s must be 1 to %d characters", field, graph.MaxLabelLength)
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, strings.ToLower(e.Param()))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
