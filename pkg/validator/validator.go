// Package validator wraps go-playground/validator for the request DTOs in
// internal/handlers. Failures are reported under the field's json name, so
// clients see "taskTitle", not "TaskTitle".
package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// FieldError is a single rule failure on one request field.
type FieldError struct {
	Name  string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// ValidationErrors is the full set of failures for one request payload.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Name + ": " + fe.Rule
		if fe.Param != "" {
			parts[i] += "=" + fe.Param
		}
	}
	if len(parts) == 0 {
		return "validation failed"
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct runs the struct's validate tags, returning ValidationErrors
// on rule failures and the raw error on anything else (bad tag, non-struct).
func ValidateStruct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		failures := make(ValidationErrors, len(ve))
		for i, fe := range ve {
			failures[i] = FieldError{Name: fe.Field(), Rule: fe.Tag(), Param: fe.Param()}
		}
		return failures
	}

	return err
}

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
	})
	return validate
}

// jsonFieldName reports the field's json tag name, falling back to the Go
// field name when the tag is absent or suppressed.
func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}
