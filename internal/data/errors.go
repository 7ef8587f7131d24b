package data

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type ErrorKind string

const (
	ErrorKindUnknown            ErrorKind = ""
	ErrorKindNotFound           ErrorKind = "not_found"
	ErrorKindConflict           ErrorKind = "conflict"
	ErrorKindInvalidReference   ErrorKind = "invalid_reference"
	ErrorKindValidation         ErrorKind = "validation"
	ErrorKindBackendUnavailable ErrorKind = "backend_unavailable"
	ErrorKindForbidden          ErrorKind = "forbidden"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    ErrorKind
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	fields := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		fields = append(fields, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return e.Message + " (" + strings.Join(fields, "; ") + ")"
}

var (
	ErrEmployeeNotFound   = &Error{Kind: ErrorKindNotFound, Message: "Employee not found"}
	ErrEmployeeReference  = &Error{Kind: ErrorKindInvalidReference, Message: "Employee not found"}
	ErrEmployeeIdExists   = &Error{Kind: ErrorKindConflict, Message: "Employee ID already exists"}
	ErrEmailExists        = &Error{Kind: ErrorKindConflict, Message: "Email already exists"}
	ErrAttendanceNotFound = &Error{Kind: ErrorKindNotFound, Message: "Attendance record not found"}
	ErrAttendanceExists   = &Error{Kind: ErrorKindConflict, Message: "Attendance already marked for this employee on this date"}
	ErrNotConnected       = &Error{Kind: ErrorKindBackendUnavailable, Message: "database not connected"}
	ErrMutateDisabled     = &Error{Kind: ErrorKindForbidden, Message: "mutation disabled"}
)

func NewValidationError(fields ...FieldError) *Error {
	return &Error{
		Kind:    ErrorKindValidation,
		Message: "Validation failed",
		Fields:  fields,
	}
}

// KindOf returns the kind of the first *Error found in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error

	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrorKindUnknown
}
