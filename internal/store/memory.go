package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/data"
	"github.com/antonio-alexander/go-hrms-lite/internal/utilities"

	"github.com/pkg/errors"
)

type attendanceRecord struct {
	id         string
	employeeId string
	date       time.Time
	status     data.AttendanceStatus
}

func (a *attendanceRecord) toAttendance() *data.Attendance {
	return &data.Attendance{
		Id:         a.id,
		EmployeeId: a.employeeId,
		Date:       data.FormatDate(a.date),
		Status:     a.status,
	}
}

type memoryStore struct {
	sync.RWMutex
	employees  []*data.Employee    //insertion order
	attendance []*attendanceRecord //insertion order
	config     struct {
		uniqueIndexes bool
	}
	opened bool
	utilities.Logger
}

// NewMemory creates a store that keeps everything in process memory; it
// behaves like a store whose client was never initialized until Open is
// called.
func NewMemory(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Store
} {
	m := &memoryStore{Logger: utilities.NewLogger()}
	m.config.uniqueIndexes = true
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case utilities.Logger:
			m.Logger = v
		}
	}
	return m
}

func copyEmployee(e *data.Employee) *data.Employee {
	employee := &data.Employee{}
	*employee = *e
	return employee
}

func (m *memoryStore) employeeIndex(match func(*data.Employee) bool) int {
	for i, employee := range m.employees {
		if match(employee) {
			return i
		}
	}
	return -1
}

func (m *memoryStore) attendanceIndex(match func(*attendanceRecord) bool) int {
	for i, record := range m.attendance {
		if match(record) {
			return i
		}
	}
	return -1
}

func (m *memoryStore) Configure(envs map[string]string) error {
	m.Lock()
	defer m.Unlock()

	if s := envs["DATABASE_UNIQUE_INDEXES"]; s != "" {
		if uniqueIndexes, err := strconv.ParseBool(s); err == nil {
			m.config.uniqueIndexes = uniqueIndexes
		}
	}
	return nil
}

func (m *memoryStore) Open(ctx context.Context) error {
	m.Lock()
	defer m.Unlock()

	m.opened = true
	return nil
}

func (m *memoryStore) Close(ctx context.Context) error {
	m.Lock()
	defer m.Unlock()

	m.opened = false
	return nil
}

func (m *memoryStore) Clear(ctx context.Context) error {
	m.Lock()
	defer m.Unlock()

	m.employees, m.attendance = nil, nil
	m.Trace(ctx, "cleared memory store")
	return nil
}

func (m *memoryStore) Ping(ctx context.Context) error {
	m.RLock()
	defer m.RUnlock()

	if !m.opened {
		return data.ErrNotConnected
	}
	return nil
}

func (m *memoryStore) EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error) {
	m.Lock()
	defer m.Unlock()

	if !m.opened {
		return nil, data.ErrNotConnected
	}
	employee := &data.Employee{
		Id:         internal.GenerateId(),
		EmployeeId: stringValue(employeePartial.EmployeeId),
		FullName:   stringValue(employeePartial.FullName),
		Email:      stringValue(employeePartial.Email),
		Department: stringValue(employeePartial.Department),
	}
	if m.config.uniqueIndexes {
		if m.employeeIndex(func(e *data.Employee) bool { return e.EmployeeId == employee.EmployeeId }) >= 0 {
			return nil, data.ErrEmployeeIdExists
		}
		if m.employeeIndex(func(e *data.Employee) bool { return e.Email == employee.Email }) >= 0 {
			return nil, data.ErrEmailExists
		}
	}
	m.employees = append(m.employees, employee)
	return copyEmployee(employee), nil
}

func (m *memoryStore) EmployeeRead(ctx context.Context, employeeId string) (*data.Employee, error) {
	m.RLock()
	defer m.RUnlock()

	if !m.opened {
		return nil, data.ErrNotConnected
	}
	i := m.employeeIndex(func(e *data.Employee) bool { return e.EmployeeId == employeeId })
	if i < 0 {
		return nil, data.ErrEmployeeNotFound
	}
	return copyEmployee(m.employees[i]), nil
}

func (m *memoryStore) EmployeeReadByEmail(ctx context.Context, email string) (*data.Employee, error) {
	m.RLock()
	defer m.RUnlock()

	if !m.opened {
		return nil, data.ErrNotConnected
	}
	i := m.employeeIndex(func(e *data.Employee) bool { return e.Email == email })
	if i < 0 {
		return nil, data.ErrEmployeeNotFound
	}
	return copyEmployee(m.employees[i]), nil
}

func (m *memoryStore) EmployeesRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	m.RLock()
	defer m.RUnlock()

	if !m.opened {
		return nil, data.ErrNotConnected
	}
	if search.Skip < 0 || search.Limit < 0 {
		return nil, errors.Errorf("invalid skip (%d) or limit (%d)", search.Skip, search.Limit)
	}
	employees := make([]*data.Employee, 0)
	for i := search.Skip; i < len(m.employees); i++ {
		//a limit of zero is no limit
		if search.Limit > 0 && len(employees) >= search.Limit {
			break
		}
		employees = append(employees, copyEmployee(m.employees[i]))
	}
	return employees, nil
}

func (m *memoryStore) EmployeeUpdate(ctx context.Context, employeeId string, employeePartial data.EmployeePartial) (*data.Employee, error) {
	m.Lock()
	defer m.Unlock()

	if !m.opened {
		return nil, data.ErrNotConnected
	}
	i := m.employeeIndex(func(e *data.Employee) bool { return e.EmployeeId == employeeId })
	if i < 0 {
		return nil, data.ErrEmployeeNotFound
	}
	employee := m.employees[i]
	if email := employeePartial.Email; email != nil && m.config.uniqueIndexes {
		if j := m.employeeIndex(func(e *data.Employee) bool { return e.Email == *email }); j >= 0 && j != i {
			return nil, data.ErrEmailExists
		}
	}
	if employeePartial.FullName != nil {
		employee.FullName = *employeePartial.FullName
	}
	if employeePartial.Email != nil {
		employee.Email = *employeePartial.Email
	}
	if employeePartial.Department != nil {
		employee.Department = *employeePartial.Department
	}
	return copyEmployee(employee), nil
}

func (m *memoryStore) EmployeeDelete(ctx context.Context, employeeId string) error {
	m.Lock()
	defer m.Unlock()

	if !m.opened {
		return data.ErrNotConnected
	}
	i := m.employeeIndex(func(e *data.Employee) bool { return e.EmployeeId == employeeId })
	if i < 0 {
		return data.ErrEmployeeNotFound
	}
	m.employees = append(m.employees[:i], m.employees[i+1:]...)
	return nil
}

func (m *memoryStore) AttendanceCreate(ctx context.Context, attendancePartial data.AttendancePartial) (*data.Attendance, error) {
	m.Lock()
	defer m.Unlock()

	if !m.opened {
		return nil, data.ErrNotConnected
	}
	date, err := data.ParseDate(stringValue(attendancePartial.Date))
	if err != nil {
		return nil, errors.Wrap(err, "parsing attendance date")
	}
	record := &attendanceRecord{
		id:         internal.GenerateId(),
		employeeId: stringValue(attendancePartial.EmployeeId),
		date:       date,
		status:     statusValue(attendancePartial.Status),
	}
	if m.config.uniqueIndexes {
		if m.attendanceIndex(func(a *attendanceRecord) bool {
			return a.employeeId == record.employeeId && a.date.Equal(record.date)
		}) >= 0 {
			return nil, data.ErrAttendanceExists
		}
	}
	m.attendance = append(m.attendance, record)
	return record.toAttendance(), nil
}

func (m *memoryStore) AttendanceRead(ctx context.Context, attendanceId string) (*data.Attendance, error) {
	m.RLock()
	defer m.RUnlock()

	if !m.opened {
		return nil, data.ErrNotConnected
	}
	i := m.attendanceIndex(func(a *attendanceRecord) bool { return a.id == attendanceId })
	if i < 0 {
		return nil, data.ErrAttendanceNotFound
	}
	return m.attendance[i].toAttendance(), nil
}

func (m *memoryStore) AttendanceReadByDate(ctx context.Context, employeeId string, date time.Time) (*data.Attendance, error) {
	m.RLock()
	defer m.RUnlock()

	if !m.opened {
		return nil, data.ErrNotConnected
	}
	i := m.attendanceIndex(func(a *attendanceRecord) bool {
		return a.employeeId == employeeId && a.date.Equal(date)
	})
	if i < 0 {
		return nil, data.ErrAttendanceNotFound
	}
	return m.attendance[i].toAttendance(), nil
}

func (m *memoryStore) AttendancesSearch(ctx context.Context, search data.AttendanceSearch, limit int) ([]*data.Attendance, error) {
	m.RLock()
	defer m.RUnlock()

	if !m.opened {
		return nil, data.ErrNotConnected
	}
	from, to, err := search.Range()
	if err != nil {
		return nil, err
	}
	var records []*attendanceRecord
	for _, record := range m.attendance {
		switch {
		case search.EmployeeId != "" && record.employeeId != search.EmployeeId:
			continue
		case from != nil && record.date.Before(*from):
			continue
		case to != nil && record.date.After(*to):
			continue
		}
		records = append(records, record)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].date.After(records[j].date)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	attendances := make([]*data.Attendance, 0, len(records))
	for _, record := range records {
		attendances = append(attendances, record.toAttendance())
	}
	return attendances, nil
}

func (m *memoryStore) AttendanceUpdate(ctx context.Context, attendanceId string, attendancePartial data.AttendancePartial) (*data.Attendance, error) {
	m.Lock()
	defer m.Unlock()

	if !m.opened {
		return nil, data.ErrNotConnected
	}
	i := m.attendanceIndex(func(a *attendanceRecord) bool { return a.id == attendanceId })
	if i < 0 {
		return nil, data.ErrAttendanceNotFound
	}
	if attendancePartial.Status != nil {
		m.attendance[i].status = *attendancePartial.Status
	}
	return m.attendance[i].toAttendance(), nil
}

func (m *memoryStore) AttendanceDelete(ctx context.Context, attendanceId string) error {
	m.Lock()
	defer m.Unlock()

	if !m.opened {
		return data.ErrNotConnected
	}
	i := m.attendanceIndex(func(a *attendanceRecord) bool { return a.id == attendanceId })
	if i < 0 {
		return data.ErrAttendanceNotFound
	}
	m.attendance = append(m.attendance[:i], m.attendance[i+1:]...)
	return nil
}
