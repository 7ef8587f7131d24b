package store

import (
	"context"
	"time"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/data"
)

const (
	collectionEmployees  = "employees"
	collectionAttendance = "attendance"

	indexEmployeeId     = "employee_id_unique"
	indexEmail          = "email_unique"
	indexEmployeeIdDate = "employee_id_date_unique"
)

// Store is the connection provider shared by the employee and attendance
// managers. Missing records are reported with data.ErrEmployeeNotFound or
// data.ErrAttendanceNotFound, unique index violations with the matching
// conflict error and operations on a store that couldn't be initialized
// with data.ErrNotConnected.
type Store interface {
	EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeeRead(ctx context.Context, employeeId string) (*data.Employee, error)
	EmployeeReadByEmail(ctx context.Context, email string) (*data.Employee, error)
	EmployeesRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error)
	EmployeeUpdate(ctx context.Context, employeeId string, employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, employeeId string) error

	AttendanceCreate(ctx context.Context, attendancePartial data.AttendancePartial) (*data.Attendance, error)
	AttendanceRead(ctx context.Context, attendanceId string) (*data.Attendance, error)
	AttendanceReadByDate(ctx context.Context, employeeId string, date time.Time) (*data.Attendance, error)
	AttendancesSearch(ctx context.Context, search data.AttendanceSearch, limit int) ([]*data.Attendance, error)
	AttendanceUpdate(ctx context.Context, attendanceId string, attendancePartial data.AttendancePartial) (*data.Attendance, error)
	AttendanceDelete(ctx context.Context, attendanceId string) error

	internal.Pinger
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func statusValue(s *data.AttendanceStatus) data.AttendanceStatus {
	if s == nil {
		return ""
	}
	return *s
}
