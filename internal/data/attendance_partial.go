package data

// AttendancePartial is the body of both create and update; only the status
// can be updated.
type AttendancePartial struct {
	EmployeeId *string           `json:"employee_id,omitempty" validate:"omitnil,min=1"`
	Date       *string           `json:"date,omitempty" validate:"omitnil,datetime=2006-01-02"`
	Status     *AttendanceStatus `json:"status,omitempty" validate:"omitnil,oneof=present absent"`
}

func (a *AttendancePartial) ValidateCreate() error {
	var fieldErrors []FieldError

	if a.EmployeeId == nil {
		fieldErrors = append(fieldErrors, FieldError{Field: "employee_id", Message: "field required"})
	}
	if a.Date == nil {
		fieldErrors = append(fieldErrors, FieldError{Field: "date", Message: "field required"})
	}
	if a.Status == nil {
		fieldErrors = append(fieldErrors, FieldError{Field: "status", Message: "field required"})
	}
	if len(fieldErrors) > 0 {
		return NewValidationError(fieldErrors...)
	}
	return validateStruct(a)
}

func (a *AttendancePartial) ValidateUpdate() error {
	return validateStruct(&AttendancePartial{Status: a.Status})
}
