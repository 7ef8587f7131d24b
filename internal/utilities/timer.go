package utilities

import (
	"sync"
	"time"

	"github.com/antonio-alexander/go-hrms-lite/internal/data"
)

// TimerWindow is the number of started timers kept per group, a timer
// stopped after TimerWindow newer timers were started is discarded.
const TimerWindow int = 1024

type timerStart struct {
	index     int
	startTime int64
}

type timerGroup struct {
	starts [TimerWindow]timerStart
	next   int
	count  int64
	total  int64
}

type timers struct {
	sync.RWMutex
	groups map[string]*timerGroup
}

// Timers tracks the duration of requests by group (e.g. route and method)
// in nanoseconds; totals and averages cover every stopped timer.
type Timers interface {
	Start(group string) int
	Stop(group string, index int) int64
	ReadAll() *data.Timers
	Clear()
}

func NewTimers() Timers {
	return &timers{
		groups: make(map[string]*timerGroup),
	}
}

func (t *timers) Clear() {
	t.Lock()
	defer t.Unlock()

	t.groups = make(map[string]*timerGroup)
}

func (t *timers) Start(group string) int {
	t.Lock()
	defer t.Unlock()

	g, found := t.groups[group]
	if !found {
		g = &timerGroup{}
		t.groups[group] = g
	}
	index := g.next
	g.starts[index%TimerWindow] = timerStart{
		index:     index,
		startTime: time.Now().UnixNano(),
	}
	g.next++
	return index
}

func (t *timers) Stop(group string, index int) int64 {
	t.Lock()
	defer t.Unlock()

	g, found := t.groups[group]
	if !found || index < 0 || index >= g.next {
		return -1
	}
	start := &g.starts[index%TimerWindow]
	if start.index != index || start.startTime <= 0 {
		return -1
	}
	elapsed := time.Now().UnixNano() - start.startTime
	start.startTime = 0
	g.count++
	g.total += elapsed
	return elapsed
}

func (t *timers) ReadAll() *data.Timers {
	t.RLock()
	defer t.RUnlock()

	totals, averages := make(map[string]int64), make(map[string]int64)
	for group, g := range t.groups {
		totals[group] = g.total
		if g.count > 0 {
			averages[group] = g.total / g.count
		}
	}
	return &data.Timers{
		Totals:   totals,
		Averages: averages,
	}
}
