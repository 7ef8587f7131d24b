package data

import (
	"net/url"
	"strings"
	"time"
)

type AttendanceSearch struct {
	EmployeeId string `json:"employee_id,omitempty"`
	DateFrom   string `json:"date_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo     string `json:"date_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (a *AttendanceSearch) ToParams() url.Values {
	params := make(url.Values)
	if a.EmployeeId != "" {
		params.Set(ParameterEmployeeId, a.EmployeeId)
	}
	if a.DateFrom != "" {
		params.Set(ParameterDateFrom, a.DateFrom)
	}
	if a.DateTo != "" {
		params.Set(ParameterDateTo, a.DateTo)
	}
	return params
}

func (a *AttendanceSearch) FromParams(params url.Values) {
	for key, value := range params {
		if len(value) == 0 {
			continue
		}
		switch strings.ToLower(key) {
		case ParameterEmployeeId:
			a.EmployeeId = value[0]
		case ParameterDateFrom:
			a.DateFrom = value[0]
		case ParameterDateTo:
			a.DateTo = value[0]
		}
	}
}

func (a *AttendanceSearch) Validate() error {
	return validateStruct(a)
}

// Range returns the inclusive bounds of the search, a nil bound is open.
func (a *AttendanceSearch) Range() (from, to *time.Time, err error) {
	if a.DateFrom != "" {
		t, err := ParseDate(a.DateFrom)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if a.DateTo != "" {
		t, err := ParseDate(a.DateTo)
		if err != nil {
			return nil, nil, err
		}
		to = &t
	}
	return from, to, nil
}
