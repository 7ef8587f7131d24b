package logic

import (
	"context"
	"strconv"
	"sync"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/cache"
	"github.com/antonio-alexander/go-hrms-lite/internal/data"
	"github.com/antonio-alexander/go-hrms-lite/internal/store"
	"github.com/antonio-alexander/go-hrms-lite/internal/utilities"

	"github.com/pkg/errors"
)

const counterEmployeeRead string = "employee_read"

// Logic is the employee and attendance manager; input is validated before
// any interaction with the store and uniqueness/existence is checked with
// sequential lookups.
type Logic interface {
	EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeesRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error)
	EmployeeRead(ctx context.Context, employeeId string) (*data.Employee, error)
	EmployeeUpdate(ctx context.Context, employeeId string, employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, employeeId string) error

	// AttendancesRead and AttendancesReadByEmployee return at most
	// data.AttendanceLimit records, truncated is true if more matched
	AttendanceCreate(ctx context.Context, attendancePartial data.AttendancePartial) (*data.Attendance, error)
	AttendancesRead(ctx context.Context, search data.AttendanceSearch) (attendances []*data.Attendance, truncated bool, err error)
	AttendancesReadByEmployee(ctx context.Context, employeeId string) (attendances []*data.Attendance, truncated bool, err error)
	AttendanceUpdate(ctx context.Context, attendanceId string, attendancePartial data.AttendancePartial) (*data.Attendance, error)
	AttendanceDelete(ctx context.Context, attendanceId string) error

	Health(ctx context.Context) *data.Health
}

type logic struct {
	sync.RWMutex
	cacheMutex      sync.Mutex
	cacheGeneration uint64
	store           store.Store
	cache           cache.Cache
	counter         utilities.Counter
	config          struct {
		cacheEnabled   bool
		mutateDisabled bool
	}
	utilities.Logger
}

func NewLogic(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Logic
} {
	l := &logic{Logger: utilities.NewLogger()}
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case store.Store:
			l.store = v
		case cache.Cache:
			l.cache = v
		case utilities.Counter:
			l.counter = v
		case utilities.Logger:
			l.Logger = v
		}
	}
	if l.counter == nil {
		l.counter = utilities.NewCounter()
	}
	return l
}

func (l *logic) Configure(envs map[string]string) error {
	l.Lock()
	defer l.Unlock()

	if cacheEnabled, ok := envs["LOGIC_CACHE_ENABLED"]; ok {
		l.config.cacheEnabled, _ = strconv.ParseBool(cacheEnabled)
	}
	if mutateDisabled, ok := envs["MUTATE_DISABLED"]; ok {
		l.config.mutateDisabled, _ = strconv.ParseBool(mutateDisabled)
	}
	return nil
}

func (l *logic) Open(ctx context.Context) error {
	l.Lock()
	defer l.Unlock()

	if l.store == nil {
		return errors.New("store not provided")
	}
	if l.config.cacheEnabled && l.cache == nil {
		l.Info(ctx, "cache enabled, but no cache provided; caching disabled")
		l.config.cacheEnabled = false
	}
	if l.config.cacheEnabled {
		l.Info(ctx, "cache enabled")
	}
	if l.config.mutateDisabled {
		l.Info(ctx, "mutation disabled")
	}
	return nil
}

func (l *logic) Close(ctx context.Context) error {
	return nil
}

func (l *logic) cacheEnabled() bool {
	l.RLock()
	defer l.RUnlock()
	return l.config.cacheEnabled
}

func (l *logic) mutateDisabled() bool {
	l.RLock()
	defer l.RUnlock()
	return l.config.mutateDisabled
}

// cacheSnapshot returns the current cache generation, it must be taken
// before reading from the store and handed to cacheWrite.
func (l *logic) cacheSnapshot() uint64 {
	l.cacheMutex.Lock()
	defer l.cacheMutex.Unlock()
	return l.cacheGeneration
}

// cacheWrite writes employees to the cache unless an employee was updated or
// deleted since generation was taken; the store read could be stale.
func (l *logic) cacheWrite(ctx context.Context, generation uint64, employees ...*data.Employee) {
	if !l.cacheEnabled() || len(employees) == 0 {
		return
	}
	l.cacheMutex.Lock()
	defer l.cacheMutex.Unlock()
	if generation != l.cacheGeneration {
		l.Debug(ctx, "employees modified while reading, skipping cache write")
		return
	}
	if err := l.cache.EmployeesWrite(ctx, employees...); err != nil {
		l.Error(ctx, "error while writing employees to cache: %s", err)
	}
}

func (l *logic) cacheDelete(ctx context.Context, employeeId string) {
	if !l.cacheEnabled() {
		return
	}
	l.cacheMutex.Lock()
	defer l.cacheMutex.Unlock()
	l.cacheGeneration++
	if err := l.cache.EmployeesDelete(ctx, employeeId); err != nil {
		l.Error(ctx, "error while deleting employee (%s) from cache: %s", employeeId, err)
	}
}

// employeeRead reads through the cache (if enabled); existence checks go
// to the store directly.
func (l *logic) employeeRead(ctx context.Context, employeeId string) (*data.Employee, error) {
	if l.cacheEnabled() {
		employee, err := l.cache.EmployeeRead(ctx, employeeId)
		if err == nil {
			l.counter.IncrementHit(counterEmployeeRead)
			return employee, nil
		}
		l.counter.IncrementMiss(counterEmployeeRead)
		if !errors.Is(err, cache.ErrEmployeeNotCached) {
			l.Error(ctx, "error while reading employee (%s) from cache: %s", employeeId, err)
		}
	}
	generation := l.cacheSnapshot()
	employee, err := l.store.EmployeeRead(ctx, employeeId)
	if err != nil {
		return nil, err
	}
	l.cacheWrite(ctx, generation, employee)
	return employee, nil
}

func (l *logic) EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error) {
	if l.mutateDisabled() {
		return nil, data.ErrMutateDisabled
	}
	if err := employeePartial.ValidateCreate(); err != nil {
		return nil, err
	}
	switch _, err := l.store.EmployeeRead(ctx, *employeePartial.EmployeeId); {
	case err == nil:
		return nil, data.ErrEmployeeIdExists
	case !errors.Is(err, data.ErrEmployeeNotFound):
		return nil, err
	}
	switch _, err := l.store.EmployeeReadByEmail(ctx, *employeePartial.Email); {
	case err == nil:
		return nil, data.ErrEmailExists
	case !errors.Is(err, data.ErrEmployeeNotFound):
		return nil, err
	}
	generation := l.cacheSnapshot()
	employee, err := l.store.EmployeeCreate(ctx, employeePartial)
	if err != nil {
		return nil, err
	}
	l.Debug(ctx, "created employee: %s", employee.EmployeeId)
	l.cacheWrite(ctx, generation, employee)
	return employee, nil
}

func (l *logic) EmployeesRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	if err := search.Validate(); err != nil {
		return nil, err
	}
	generation := l.cacheSnapshot()
	employees, err := l.store.EmployeesRead(ctx, search)
	if err != nil {
		return nil, err
	}
	l.cacheWrite(ctx, generation, employees...)
	return employees, nil
}

func (l *logic) EmployeeRead(ctx context.Context, employeeId string) (*data.Employee, error) {
	return l.employeeRead(ctx, employeeId)
}

func (l *logic) EmployeeUpdate(ctx context.Context, employeeId string, employeePartial data.EmployeePartial) (*data.Employee, error) {
	if l.mutateDisabled() {
		return nil, data.ErrMutateDisabled
	}
	if err := employeePartial.ValidateUpdate(); err != nil {
		return nil, err
	}
	employee, err := l.store.EmployeeRead(ctx, employeeId)
	if err != nil {
		return nil, err
	}
	if email := employeePartial.Email; email != nil && *email != employee.Email {
		switch _, err := l.store.EmployeeReadByEmail(ctx, *email); {
		case err == nil:
			return nil, data.ErrEmailExists
		case !errors.Is(err, data.ErrEmployeeNotFound):
			return nil, err
		}
	}
	//employee_id is immutable
	employeePartial.EmployeeId = nil
	l.cacheDelete(ctx, employeeId)
	employee, err = l.store.EmployeeUpdate(ctx, employeeId, employeePartial)
	if err != nil {
		return nil, err
	}
	l.Debug(ctx, "updated employee: %s", employeeId)
	l.cacheDelete(ctx, employeeId)
	return employee, nil
}

func (l *logic) EmployeeDelete(ctx context.Context, employeeId string) error {
	if l.mutateDisabled() {
		return data.ErrMutateDisabled
	}
	l.cacheDelete(ctx, employeeId)
	if err := l.store.EmployeeDelete(ctx, employeeId); err != nil {
		return err
	}
	l.Debug(ctx, "deleted employee: %s", employeeId)
	l.cacheDelete(ctx, employeeId)
	return nil
}

func (l *logic) AttendanceCreate(ctx context.Context, attendancePartial data.AttendancePartial) (*data.Attendance, error) {
	if l.mutateDisabled() {
		return nil, data.ErrMutateDisabled
	}
	if err := attendancePartial.ValidateCreate(); err != nil {
		return nil, err
	}
	if _, err := l.store.EmployeeRead(ctx, *attendancePartial.EmployeeId); err != nil {
		if errors.Is(err, data.ErrEmployeeNotFound) {
			return nil, data.ErrEmployeeReference
		}
		return nil, err
	}
	date, err := data.ParseDate(*attendancePartial.Date)
	if err != nil {
		return nil, errors.Wrap(err, "parsing attendance date")
	}
	switch _, err := l.store.AttendanceReadByDate(ctx, *attendancePartial.EmployeeId, date); {
	case err == nil:
		return nil, data.ErrAttendanceExists
	case !errors.Is(err, data.ErrAttendanceNotFound):
		return nil, err
	}
	attendance, err := l.store.AttendanceCreate(ctx, attendancePartial)
	if err != nil {
		return nil, err
	}
	l.Debug(ctx, "marked attendance (%s) for employee %s on %s",
		attendance.Status, attendance.EmployeeId, attendance.Date)
	return attendance, nil
}

func (l *logic) attendancesSearch(ctx context.Context, search data.AttendanceSearch) ([]*data.Attendance, bool, error) {
	attendances, err := l.store.AttendancesSearch(ctx, search, data.AttendanceLimit+1)
	if err != nil {
		return nil, false, err
	}
	if len(attendances) > data.AttendanceLimit {
		return attendances[:data.AttendanceLimit], true, nil
	}
	return attendances, false, nil
}

func (l *logic) AttendancesRead(ctx context.Context, search data.AttendanceSearch) ([]*data.Attendance, bool, error) {
	if err := search.Validate(); err != nil {
		return nil, false, err
	}
	if search.EmployeeId != "" {
		if _, err := l.store.EmployeeRead(ctx, search.EmployeeId); err != nil {
			if errors.Is(err, data.ErrEmployeeNotFound) {
				return nil, false, data.ErrEmployeeReference
			}
			return nil, false, err
		}
	}
	return l.attendancesSearch(ctx, search)
}

func (l *logic) AttendancesReadByEmployee(ctx context.Context, employeeId string) ([]*data.Attendance, bool, error) {
	if _, err := l.store.EmployeeRead(ctx, employeeId); err != nil {
		return nil, false, err
	}
	return l.attendancesSearch(ctx, data.AttendanceSearch{EmployeeId: employeeId})
}

func (l *logic) AttendanceUpdate(ctx context.Context, attendanceId string, attendancePartial data.AttendancePartial) (*data.Attendance, error) {
	if l.mutateDisabled() {
		return nil, data.ErrMutateDisabled
	}
	if err := attendancePartial.ValidateUpdate(); err != nil {
		return nil, err
	}
	//only the status can be updated
	attendance, err := l.store.AttendanceUpdate(ctx, attendanceId, data.AttendancePartial{
		Status: attendancePartial.Status,
	})
	if err != nil {
		return nil, err
	}
	l.Debug(ctx, "updated attendance: %s", attendanceId)
	return attendance, nil
}

func (l *logic) AttendanceDelete(ctx context.Context, attendanceId string) error {
	if l.mutateDisabled() {
		return data.ErrMutateDisabled
	}
	if err := l.store.AttendanceDelete(ctx, attendanceId); err != nil {
		return err
	}
	l.Debug(ctx, "deleted attendance: %s", attendanceId)
	return nil
}

func (l *logic) Health(ctx context.Context) *data.Health {
	switch err := l.store.Ping(ctx); {
	default:
		l.Error(ctx, "database ping failed: %s", err)
		return &data.Health{
			Status:   data.HealthStatusDegraded,
			Database: data.HealthDatabaseConnectionFailed,
			Error:    err.Error(),
		}
	case err == nil:
		return &data.Health{
			Status:   data.HealthStatusHealthy,
			Database: data.HealthDatabaseConnected,
		}
	case errors.Is(err, data.ErrNotConnected):
		return &data.Health{
			Status:   data.HealthStatusRunning,
			Database: data.HealthDatabaseDisconnected,
			Message:  "API is running but database connection failed",
		}
	}
}
