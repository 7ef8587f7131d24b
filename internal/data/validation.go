package data

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateStruct(v any) error {
	var validationErrors validator.ValidationErrors

	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if !errors.As(err, &validationErrors) {
		return err
	}
	fieldErrors := make([]FieldError, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   fieldError.Field(),
			Message: fieldErrorMessage(fieldError),
		})
	}
	return NewValidationError(sortFieldErrors(fieldErrors)...)
}

func fieldErrorMessage(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	default:
		return fmt.Sprintf("failed on the '%s' validation", fieldError.Tag())
	case "required":
		return "field required"
	case "min":
		if fieldError.Kind() == reflect.String {
			return fmt.Sprintf("ensure this value has at least %s characters", fieldError.Param())
		}
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fieldError.Param())
	case "max":
		if fieldError.Kind() == reflect.String {
			return fmt.Sprintf("ensure this value has at most %s characters", fieldError.Param())
		}
		return fmt.Sprintf("ensure this value is less than or equal to %s", fieldError.Param())
	case "email":
		return "value is not a valid email address"
	case "datetime":
		return "invalid date format, expected YYYY-MM-DD"
	case "oneof":
		return fmt.Sprintf("value is not a valid enumeration member; permitted: %s",
			strings.Join(strings.Fields(fieldError.Param()), ", "))
	}
}

func sortFieldErrors(fieldErrors []FieldError) []FieldError {
	sort.SliceStable(fieldErrors, func(i, j int) bool {
		return fieldErrors[i].Field < fieldErrors[j].Field
	})
	return fieldErrors
}
