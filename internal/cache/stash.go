package cache

import (
	"context"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/data"
	"github.com/antonio-alexander/go-hrms-lite/internal/utilities"

	"github.com/antonio-alexander/go-stash"
)

const stashKeyPrefix string = "employee_"

type stashCache struct {
	stash interface {
		stash.Configurer
		stash.Parameterizer
		stash.Initializer
		stash.Shutdowner
	}
	stash.Stasher
	utilities.Logger
}

// NewStash wraps a go-stash implementation (memory or redis) which must be
// provided as a parameter.
func NewStash(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &stashCache{Logger: utilities.NewLogger()}
	for _, p := range parameters {
		switch p := p.(type) {
		case utilities.Logger:
			c.Logger = p
		case interface {
			stash.Configurer
			stash.Parameterizer
			stash.Initializer
			stash.Shutdowner
			stash.Stasher
		}:
			c.stash = p
			c.Stasher = p
		}
	}
	if c.stash != nil {
		c.stash.SetParameters(parameters...)
	}
	return c
}

func stashKey(employeeId string) string {
	return stashKeyPrefix + employeeId
}

func (c *stashCache) Configure(envs map[string]string) error {
	if c.stash != nil {
		if err := c.stash.Configure(envs); err != nil {
			return err
		}
	}
	return nil
}

func (c *stashCache) Open(ctx context.Context) error {
	if c.stash != nil {
		return c.stash.Initialize()
	}
	return nil
}

func (c *stashCache) Close(ctx context.Context) error {
	if c.stash != nil {
		return c.stash.Shutdown()
	}
	return nil
}

func (c *stashCache) Clear(ctx context.Context) error {
	return c.Stasher.Clear()
}

func (c *stashCache) EmployeeRead(ctx context.Context, employeeId string) (*data.Employee, error) {
	employee := &data.Employee{}
	if err := c.Stasher.Read(stashKey(employeeId), employee); err != nil {
		c.Trace(ctx, "cache miss for employee (%s): %s", employeeId, err)
		return nil, ErrEmployeeNotCached
	}
	c.Trace(ctx, "cache hit for employee: %s", employeeId)
	return employee, nil
}

func (c *stashCache) EmployeesWrite(ctx context.Context, employees ...*data.Employee) error {
	for _, employee := range employees {
		if _, err := c.Stasher.Write(stashKey(employee.EmployeeId), employee); err != nil {
			// a failed write only makes the cache incomplete
			c.Error(ctx, "error while writing employee (%s): %s", employee.EmployeeId, err)
			continue
		}
		c.Trace(ctx, "cached employee: %s", employee.EmployeeId)
	}
	return nil
}

func (c *stashCache) EmployeesDelete(ctx context.Context, employeeIds ...string) error {
	for _, employeeId := range employeeIds {
		if err := c.Stasher.Delete(stashKey(employeeId)); err != nil {
			c.Trace(ctx, "unable to evict employee (%s): %s", employeeId, err)
			continue
		}
		c.Trace(ctx, "evicted cached employee: %s", employeeId)
	}
	return nil
}
