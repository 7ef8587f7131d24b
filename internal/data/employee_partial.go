package data

// EmployeePartial is the body of both create and update; on update the
// employee_id is ignored since it's immutable.
type EmployeePartial struct {
	EmployeeId *string `json:"employee_id,omitempty" validate:"omitnil,min=1,max=50"`
	FullName   *string `json:"full_name,omitempty" validate:"omitnil,min=1,max=100"`
	Email      *string `json:"email,omitempty" validate:"omitnil,email"`
	Department *string `json:"department,omitempty" validate:"omitnil,min=1,max=50"`
}

func (e *EmployeePartial) ValidateCreate() error {
	var fieldErrors []FieldError

	for field, value := range map[string]*string{
		"employee_id": e.EmployeeId,
		"full_name":   e.FullName,
		"email":       e.Email,
		"department":  e.Department,
	} {
		if value == nil {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   field,
				Message: "field required",
			})
		}
	}
	if len(fieldErrors) > 0 {
		return NewValidationError(sortFieldErrors(fieldErrors)...)
	}
	return validateStruct(e)
}

func (e *EmployeePartial) ValidateUpdate() error {
	return validateStruct(&EmployeePartial{
		FullName:   e.FullName,
		Email:      e.Email,
		Department: e.Department,
	})
}

// Empty returns true if there's nothing to update.
func (e *EmployeePartial) Empty() bool {
	return e.FullName == nil && e.Email == nil && e.Department == nil
}
