package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/antonio-alexander/go-hrms-lite/internal/data"
)

func employeeScan(scanFx func(dest ...any) error) (*data.Employee, error) {
	employee := &data.Employee{}
	if err := scanFx(
		&employee.Id,
		&employee.EmployeeId,
		&employee.FullName,
		&employee.Email,
		&employee.Department,
	); err != nil {
		return nil, err
	}
	return employee, nil
}

func attendanceScan(scanFx func(dest ...any) error) (*data.Attendance, error) {
	var date time.Time
	var status string

	attendance := &data.Attendance{}
	if err := scanFx(
		&attendance.Id,
		&attendance.EmployeeId,
		&date,
		&status,
	); err != nil {
		return nil, err
	}
	attendance.Date = data.FormatDate(date)
	attendance.Status = data.AttendanceStatus(status)
	return attendance, nil
}

// employeePagination returns the LIMIT/OFFSET clause, mysql doesn't support
// an offset without a limit so the maximum row count is used instead
func employeePagination(search data.EmployeeSearch) string {
	switch {
	case search.Limit > 0:
		return fmt.Sprintf("LIMIT %d OFFSET %d", search.Limit, search.Skip)
	case search.Skip > 0:
		return fmt.Sprintf("LIMIT 18446744073709551615 OFFSET %d", search.Skip)
	default:
		return ""
	}
}

func attendanceCriteria(search data.AttendanceSearch) (string, []any, error) {
	var criteria []string
	var args []any

	from, to, err := search.Range()
	if err != nil {
		return "", nil, err
	}
	if search.EmployeeId != "" {
		criteria = append(criteria, "employee_id = ?")
		args = append(args, search.EmployeeId)
	}
	if from != nil {
		criteria = append(criteria, "date >= ?")
		args = append(args, *from)
	}
	if to != nil {
		criteria = append(criteria, "date <= ?")
		args = append(args, *to)
	}
	if len(criteria) == 0 {
		return "", nil, nil
	}
	return "WHERE " + strings.Join(criteria, " AND "), args, nil
}
