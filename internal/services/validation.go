package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/isdelr/ender-catalog-be/internal/apperr"
)

// validate is safe for concurrent use and caches struct metadata, so one instance is shared.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so messages match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput checks v against its struct tags and reports the first violation as an
// apperr validation error.
func validateInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("failed to validate input: %w", err)
	}
	fe := verrs[0]
	return apperr.Validation(fe.Field(), describe(fe))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "url":
		return field + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte":
		return field + " must be " + bound(fe.Kind(), "at least", fe.Param())
	case "max", "lte":
		return field + " must be " + bound(fe.Kind(), "at most", fe.Param())
	default:
		return field + " is invalid"
	}
}

func bound(kind reflect.Kind, relation, param string) string {
	switch kind {
	case reflect.String:
		return fmt.Sprintf("%s %s characters long", relation, param)
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("%s %s items", relation, param)
	default:
		return fmt.Sprintf("%s %s", relation, param)
	}
}
