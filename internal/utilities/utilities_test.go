package utilities_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/utilities"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	buffer := &bytes.Buffer{}
	logger := utilities.NewLogger(buffer)

	t.Run("Level", func(t *testing.T) {
		buffer.Reset()
		err := logger.Configure(map[string]string{"LOG_LEVEL": "info"})
		assert.Nil(t, err)
		logger.Debug(context.TODO(), "not logged")
		assert.Empty(t, buffer.String())
		logger.Info(context.TODO(), "logged: %d", 1)
		assert.Contains(t, buffer.String(), "logged: 1")
	})
	t.Run("CorrelationId", func(t *testing.T) {
		var entry map[string]any

		buffer.Reset()
		err := logger.Configure(map[string]string{"LOG_LEVEL": "trace"})
		assert.Nil(t, err)
		correlationId := internal.GenerateId()
		ctx := internal.CtxWithCorrelationId(context.TODO(), correlationId)
		logger.Error(ctx, "failure")
		err = json.Unmarshal([]byte(strings.TrimSpace(buffer.String())), &entry)
		assert.Nil(t, err)
		assert.Equal(t, correlationId, entry["correlation_id"])
		assert.Equal(t, "error", entry["level"])
		assert.Equal(t, "failure", entry["message"])
	})
}

func TestCounter(t *testing.T) {
	counter := utilities.NewCounter()

	hit, miss := counter.Read("employee_read")
	assert.Equal(t, -1, hit)
	assert.Equal(t, -1, miss)
	assert.Equal(t, 1, counter.IncrementHit("employee_read"))
	assert.Equal(t, 2, counter.IncrementHit("employee_read"))
	assert.Equal(t, 1, counter.IncrementMiss("employee_read"))
	hit, miss = counter.Read("employee_read")
	assert.Equal(t, 2, hit)
	assert.Equal(t, 1, miss)
	counters := counter.ReadAll()
	assert.Equal(t, 2, counters.CounterHits["employee_read"])
	assert.Equal(t, 1, counters.CounterMisses["employee_read"])
	counter.Reset()
	assert.Empty(t, counter.ReadAll().CounterHits)
}

func TestTimers(t *testing.T) {
	timers := utilities.NewTimers()

	index := timers.Start("employee_read")
	assert.Equal(t, 0, index)
	_ = timers.Start("employee_read")
	assert.GreaterOrEqual(t, timers.Stop("employee_read", index), int64(0))
	assert.Equal(t, int64(-1), timers.Stop("employee_read", 5))
	assert.Equal(t, int64(-1), timers.Stop("employees_read", 0))
	readTimers := timers.ReadAll()
	assert.Contains(t, readTimers.Totals, "employee_read")
	assert.Contains(t, readTimers.Averages, "employee_read")
	timers.Clear()
	assert.Empty(t, timers.ReadAll().Totals)
}

func TestTimersWindow(t *testing.T) {
	timers := utilities.NewTimers()

	// a timer can only be stopped once
	index := timers.Start("employee_read")
	assert.GreaterOrEqual(t, timers.Stop("employee_read", index), int64(0))
	assert.Equal(t, int64(-1), timers.Stop("employee_read", index))

	// timers older than the window are discarded
	first := timers.Start("employee_read")
	for range utilities.TimerWindow {
		_ = timers.Start("employee_read")
	}
	assert.Equal(t, int64(-1), timers.Stop("employee_read", first))
	last := timers.Start("employee_read")
	assert.Equal(t, first+utilities.TimerWindow+1, last)
	assert.GreaterOrEqual(t, timers.Stop("employee_read", last), int64(0))

	// only stopped timers count towards the average
	readTimers := timers.ReadAll()
	assert.GreaterOrEqual(t, readTimers.Totals["employee_read"], int64(0))
	assert.Equal(t, readTimers.Totals["employee_read"]/2, readTimers.Averages["employee_read"])
}

func TestCounterConcurrent(t *testing.T) {
	const n int = 100

	var wg sync.WaitGroup

	counter := utilities.NewCounter()
	for range n {
		wg.Add(2)
		go func() {
			defer wg.Done()
			counter.IncrementHit("employee_read")
		}()
		go func() {
			defer wg.Done()
			counter.IncrementMiss("employee_read")
		}()
	}
	wg.Wait()
	hit, miss := counter.Read("employee_read")
	assert.Equal(t, n, hit)
	assert.Equal(t, n, miss)
}
