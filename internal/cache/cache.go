package cache

import (
	"context"

	"github.com/antonio-alexander/go-hrms-lite/internal/data"

	"github.com/pkg/errors"
)

var ErrEmployeeNotCached = errors.New("employee not cached")

// Cache is a read-through cache for employees keyed by employee_id, a miss
// is reported with ErrEmployeeNotCached.
type Cache interface {
	EmployeeRead(ctx context.Context, employeeId string) (*data.Employee, error)
	EmployeesWrite(ctx context.Context, employees ...*data.Employee) error
	EmployeesDelete(ctx context.Context, employeeIds ...string) error
}

func copyEmployee(e *data.Employee) *data.Employee {
	employee := &data.Employee{}
	*employee = *e
	return employee
}
