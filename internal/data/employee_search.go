package data

import (
	"net/url"
	"strconv"
	"strings"
)

type EmployeeSearch struct {
	Skip  int `json:"skip" validate:"min=0"`
	Limit int `json:"limit" validate:"min=0"`
}

func NewEmployeeSearch() EmployeeSearch {
	return EmployeeSearch{
		Skip:  DefaultEmployeesSkip,
		Limit: DefaultEmployeesLimit,
	}
}

func (e *EmployeeSearch) ToParams() url.Values {
	params := make(url.Values)
	params.Set(ParameterSkip, strconv.Itoa(e.Skip))
	params.Set(ParameterLimit, strconv.Itoa(e.Limit))
	return params
}

func (e *EmployeeSearch) FromParams(params url.Values) error {
	var fieldErrors []FieldError

	for key, value := range params {
		if len(value) == 0 {
			continue
		}
		switch key = strings.ToLower(key); key {
		case ParameterSkip, ParameterLimit:
			i, err := strconv.Atoi(value[0])
			if err != nil {
				fieldErrors = append(fieldErrors, FieldError{
					Field:   key,
					Message: "value is not a valid integer",
				})
				continue
			}
			if key == ParameterSkip {
				e.Skip = i
			} else {
				e.Limit = i
			}
		}
	}
	if len(fieldErrors) > 0 {
		return NewValidationError(sortFieldErrors(fieldErrors)...)
	}
	return nil
}

func (e *EmployeeSearch) Validate() error {
	return validateStruct(e)
}
