package data

import "time"

// DateLayout is the wire format of attendance dates.
const DateLayout string = "2006-01-02"

type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
)

type Attendance struct {
	Id         string           `json:"id"`
	EmployeeId string           `json:"employee_id"`
	Date       string           `json:"date"`
	Status     AttendanceStatus `json:"status"`
}

// ParseDate normalizes a YYYY-MM-DD date to midnight UTC, the form attendance
// dates are stored in.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
