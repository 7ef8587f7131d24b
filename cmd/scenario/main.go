package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/cache"
	"github.com/antonio-alexander/go-hrms-lite/internal/client"
	"github.com/antonio-alexander/go-hrms-lite/internal/data"
	"github.com/antonio-alexander/go-hrms-lite/internal/utilities"

	"github.com/antonio-alexander/go-stash/memory"
	"github.com/antonio-alexander/go-stash/redis"
	"github.com/pkg/errors"
)

const defaultHealthTimeout time.Duration = 30 * time.Second

var (
	Version   string
	GitCommit string
	GitBranch string
)

func init() {
	if Version = data.Version; Version == "" {
		Version = "<no_version_provided>"
	}
	if GitCommit = data.GitCommit; GitCommit == "" {
		GitCommit = "<no_git_commit>"
	}
	if GitBranch = data.GitBranch; GitBranch == "" {
		GitBranch = "<no_git_branch>"
	}
}

func main() {
	args := os.Args[1:]
	envs := internal.Envs()
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	if err := Main(args, envs, osSignal); err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
}

func createCache(envs map[string]string, parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	cache.Cache
} {
	switch envs["CACHE_TYPE"] {
	default:
		return nil
	case "memory":
		return cache.NewMemory(parameters...)
	case "redis":
		return cache.NewRedis(parameters...)
	case "stash-memory":
		return cache.NewStash(append(parameters, memory.New())...)
	case "stash-redis":
		return cache.NewStash(append(parameters, redis.New())...)
	}
}

func createEmployee(ctx context.Context, c client.Client) (*data.Employee, error) {
	employeeId := "SCN-" + internal.GenerateId()[:8]
	fullName, department := "Scenario Employee", "Operations"
	email := employeeId + "@example.com"
	return c.EmployeeCreate(ctx, data.EmployeePartial{
		EmployeeId: &employeeId,
		FullName:   &fullName,
		Email:      &email,
		Department: &department,
	})
}

// deleteEmployee removes the attendance marked for the employee and then
// the employee itself
func deleteEmployee(ctx context.Context, logger utilities.Logger, c client.Client, employeeId string) {
	attendances, _, err := c.AttendancesReadByEmployee(ctx, employeeId)
	if err != nil {
		logger.Error(ctx, "error while reading attendance for %s: %s", employeeId, err)
	}
	for _, attendance := range attendances {
		if err := c.AttendanceDelete(ctx, attendance.Id); err != nil {
			logger.Error(ctx, "error while deleting attendance (%s): %s", attendance.Id, err)
		}
	}
	if err := c.EmployeeDelete(ctx, employeeId); err != nil {
		logger.Error(ctx, "error while deleting employee (%s): %s", employeeId, err)
		return
	}
	logger.Info(ctx, "deleted employee %s and %d attendance records", employeeId, len(attendances))
}

// scenarioDuplicateAttendance marks attendance for the same employee and
// date from every client at once; the existence check and the insert aren't
// atomic so only the unique index keeps more than one from succeeding
func scenarioDuplicateAttendance(ctx context.Context, envs map[string]string, logger utilities.Logger,
	clients ...client.Client) error {
	const correlationId string = "scenario_duplicate_attendance"
	const minClients int = 2

	var wg sync.WaitGroup
	var mu sync.Mutex

	if len(clients) < minClients {
		return errors.New("not enough clients provided")
	}
	ctx = internal.CtxWithCorrelationId(ctx, correlationId)
	employee, err := createEmployee(ctx, clients[0])
	if err != nil {
		return err
	}
	defer deleteEmployee(ctx, logger, clients[0], employee.EmployeeId)
	logger.Info(ctx, "created employee: %s", employee.EmployeeId)

	date := data.FormatDate(time.Now())
	if s := envs["SCENARIO_DATE"]; s != "" {
		date = s
	}
	status := data.AttendanceStatusPresent
	start := make(chan struct{})
	created, conflicts, failures := 0, 0, 0
	for i, c := range clients {
		wg.Add(1)
		go func(clientNumber int, c client.Client) {
			defer wg.Done()

			ctx := internal.CtxWithCorrelationId(ctx, fmt.Sprintf("%s_%d", correlationId, clientNumber))
			<-start
			attendance, err := c.AttendanceCreate(ctx, data.AttendancePartial{
				EmployeeId: &employee.EmployeeId,
				Date:       &date,
				Status:     &status,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
				logger.Debug(ctx, "marked attendance: %s", attendance.Id)
			case errors.Is(err, data.ErrAttendanceExists):
				conflicts++
			default:
				failures++
				logger.Error(ctx, "error while marking attendance: %s", err)
			}
		}(i, c)
	}
	close(start)
	wg.Wait()

	attendances, _, err := clients[0].AttendancesReadByEmployee(ctx, employee.EmployeeId)
	if err != nil {
		return err
	}
	logger.Info(ctx, "attendance marked %d times with %d conflicts and %d failures; %d records exist for %s",
		created, conflicts, failures, len(attendances), date)
	if len(attendances) > 1 {
		return errors.Errorf("duplicate attendance: %d records for %s on %s",
			len(attendances), employee.EmployeeId, date)
	}
	return nil
}

// scenarioStampedingHerd reads an employee from every client but the first
// while the first periodically updates it, invalidating the cache, then
// reports the server's hit/miss ratio
func scenarioStampedingHerd(ctx context.Context, envs map[string]string, logger utilities.Logger,
	clients ...client.Client) error {
	const correlationId string = "scenario_stampeding_herd"
	const minClients int = 2

	var readInterval time.Duration = time.Second
	var updateInterval time.Duration = 2 * time.Second
	var scenarioDuration time.Duration = 10 * time.Second
	var wg sync.WaitGroup

	if s := envs["SCENARIO_READ_INTERVAL"]; s != "" {
		i, _ := strconv.Atoi(s)
		readInterval = time.Duration(i) * time.Second
	}
	if s := envs["SCENARIO_UPDATE_INTERVAL"]; s != "" {
		i, _ := strconv.Atoi(s)
		updateInterval = time.Duration(i) * time.Second
	}
	if s := envs["SCENARIO_DURATION"]; s != "" {
		i, _ := strconv.Atoi(s)
		scenarioDuration = time.Duration(i) * time.Second
	}
	if len(clients) < minClients {
		return errors.New("not enough clients provided")
	}
	ctx = internal.CtxWithCorrelationId(ctx, correlationId)
	employee, err := createEmployee(ctx, clients[0])
	if err != nil {
		return err
	}
	employeeId := employee.EmployeeId
	defer deleteEmployee(ctx, logger, clients[0], employeeId)
	logger.Info(ctx, "created employee: %s", employeeId)

	start, stop := make(chan struct{}), make(chan struct{})

	//create writer go routine
	wg.Add(1)
	go func(ctx context.Context, c client.Client) {
		defer wg.Done()

		tUpdate := time.NewTicker(updateInterval)
		defer tUpdate.Stop()
		<-start
		for {
			select {
			case <-stop:
				return
			case <-tUpdate.C:
				department := "Operations " + internal.GenerateId()[:4]
				if _, err := c.EmployeeUpdate(ctx, employeeId, data.EmployeePartial{
					Department: &department,
				}); err != nil {
					logger.Error(ctx, "error while updating employee: %s", err)
				}
			}
		}
	}(ctx, clients[0])

	//create reader go routines
	for i := 1; i < len(clients); i++ {
		wg.Add(1)
		go func(clientNumber int, c client.Client) {
			defer wg.Done()

			ctx := internal.CtxWithCorrelationId(ctx, fmt.Sprintf("%s_%d", correlationId, clientNumber))
			tRead := time.NewTicker(readInterval)
			defer tRead.Stop()
			<-start
			for {
				select {
				case <-stop:
					return
				case <-tRead.C:
					if _, err := c.EmployeeRead(ctx, employeeId); err != nil {
						logger.Error(ctx, "error while reading employee: %s", err)
					}
				}
			}
		}(i, clients[i])
	}

	//clear cache counters and start the go routines
	if err := clients[0].CacheClear(ctx); err != nil {
		return err
	}
	if err := clients[0].CacheCountersClear(ctx); err != nil {
		return err
	}
	close(start)
	select {
	case <-ctx.Done():
	case <-time.After(scenarioDuration):
	}
	close(stop)
	wg.Wait()

	cacheCounters, err := clients[0].CacheCountersRead(ctx)
	if err != nil {
		return err
	}
	hit := cacheCounters.CounterHits["employee_read"]
	miss := cacheCounters.CounterMisses["employee_read"]
	if total := hit + miss; total > 0 {
		logger.Info(ctx, "cache hit miss ratio (%d/%d): %0.2f%%",
			hit, total, float64(hit)/float64(total)*100)
	}
	return nil
}

func Main(args []string, envs map[string]string, osSignal chan os.Signal) error {
	var clients []client.Client
	var wg sync.WaitGroup

	//create context
	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer cancel()

	// create logger
	logger := utilities.NewLogger()
	if err := logger.Configure(envs); err != nil {
		return err
	}

	//print version info
	logger.Info(ctx, "scenarios: hrms-lite v%s (%s) built from: %s",
		Version, GitCommit, GitBranch)

	nClients, _ := strconv.Atoi(envs["N_CLIENTS"])
	for range nClients {
		//create cache
		clientCache := createCache(envs, logger)
		if clientCache != nil {
			if err := clientCache.Configure(envs); err != nil {
				return err
			}
			if err := clientCache.Open(ctx); err != nil {
				return err
			}
			defer func() {
				if err := clientCache.Close(context.Background()); err != nil {
					logger.Error(ctx, "error while closing cache: %s", err)
				}
			}()
		}

		//create client
		c := client.NewClient(clientCache, logger)
		if err := c.Configure(envs); err != nil {
			return err
		}
		if err := c.Open(ctx); err != nil {
			return err
		}
		defer func() {
			if err := c.Close(context.Background()); err != nil {
				logger.Error(ctx, "error while closing client: %s", err)
			}
		}()
		clients = append(clients, c)
	}
	if len(clients) == 0 {
		return errors.New("N_CLIENTS must be at least one")
	}

	//wait for the service (and its database) to be reachable
	healthTimeout := defaultHealthTimeout
	if s := envs["SCENARIO_HEALTH_TIMEOUT"]; s != "" {
		if i, err := strconv.Atoi(s); err == nil && i > 0 {
			healthTimeout = time.Duration(i) * time.Second
		}
	}
	if _, err := clients[0].WaitHealthy(ctx, healthTimeout); err != nil {
		return errors.Wrap(err, "waiting for service")
	}

	// execute scenario
	switch scenario := envs["SCENARIO"]; scenario {
	default:
		return errors.Errorf("unsupported scenario: %s", scenario)
	case "duplicate_attendance":
		logger.Info(ctx, "executing %s scenario", scenario)
		if err := scenarioDuplicateAttendance(ctx, envs, logger, clients...); err != nil {
			logger.Error(ctx, "error while executing %s scenario: %s", scenario, err)
		}
	case "stampeding_herd":
		logger.Info(ctx, "executing %s scenario", scenario)
		if err := scenarioStampedingHerd(ctx, envs, logger, clients...); err != nil {
			logger.Error(ctx, "error while executing %s scenario: %s", scenario, err)
		}
	}
	cancel()
	wg.Wait()
	return nil
}
