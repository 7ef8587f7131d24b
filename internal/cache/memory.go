package cache

import (
	"context"
	"sync"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/data"
	"github.com/antonio-alexander/go-hrms-lite/internal/utilities"
)

type memoryCache struct {
	sync.RWMutex
	employees map[string]*data.Employee //map[employee_id]employee
	utilities.Logger
}

func NewMemory(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &memoryCache{
		employees: make(map[string]*data.Employee),
		Logger:    utilities.NewLogger(),
	}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *memoryCache) Configure(envs map[string]string) error {
	return nil
}

func (c *memoryCache) Open(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.employees = make(map[string]*data.Employee)
	return nil
}

func (c *memoryCache) Close(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.employees = make(map[string]*data.Employee)
	return nil
}

func (c *memoryCache) Clear(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.employees = make(map[string]*data.Employee)
	c.Trace(ctx, "cleared memory cache")
	return nil
}

func (c *memoryCache) EmployeeRead(ctx context.Context, employeeId string) (*data.Employee, error) {
	c.RLock()
	defer c.RUnlock()

	employee, ok := c.employees[employeeId]
	if !ok {
		c.Trace(ctx, "cache miss for employee: %s", employeeId)
		return nil, ErrEmployeeNotCached
	}
	c.Trace(ctx, "cache hit for employee: %s", employeeId)
	return copyEmployee(employee), nil
}

func (c *memoryCache) EmployeesWrite(ctx context.Context, employees ...*data.Employee) error {
	c.Lock()
	defer c.Unlock()

	for _, e := range employees {
		c.employees[e.EmployeeId] = copyEmployee(e)
	}
	return nil
}

func (c *memoryCache) EmployeesDelete(ctx context.Context, employeeIds ...string) error {
	c.Lock()
	defer c.Unlock()

	for _, employeeId := range employeeIds {
		delete(c.employees, employeeId)
	}
	return nil
}
