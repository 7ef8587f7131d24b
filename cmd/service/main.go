package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/cache"
	"github.com/antonio-alexander/go-hrms-lite/internal/data"
	"github.com/antonio-alexander/go-hrms-lite/internal/logic"
	"github.com/antonio-alexander/go-hrms-lite/internal/service"
	"github.com/antonio-alexander/go-hrms-lite/internal/store"
	"github.com/antonio-alexander/go-hrms-lite/internal/utilities"

	"github.com/antonio-alexander/go-stash/memory"
	"github.com/antonio-alexander/go-stash/redis"
	"github.com/pkg/errors"
)

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

func createStore(envs map[string]string, parameters ...any) (interface {
	internal.Configurer
	internal.Opener
	store.Store
}, error) {
	switch storeType := envs["STORE_TYPE"]; storeType {
	default:
		return nil, errors.Errorf("unsupported store type: %s", storeType)
	case "", "mongo":
		return store.NewMongo(parameters...), nil
	case "mysql":
		return store.NewMySql(parameters...), nil
	case "memory":
		return store.NewMemory(parameters...), nil
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

func Main(args []string, envs map[string]string, osSignal chan os.Signal) error {
	var wg sync.WaitGroup

	//create context
	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer cancel()

	// create utilities
	logger := utilities.NewLogger()
	if err := logger.Configure(envs); err != nil {
		return err
	}
	timers := utilities.NewTimers()
	counter := utilities.NewCounter()

	//print version info
	logger.Info(ctx, "server: hrms-lite v%s (%s) built from: %s",
		Version, GitCommit, GitBranch)

	//create store, configure and open; the service starts even if the
	// database can't be reached and reports it through the health endpoint
	employeeStore, err := createStore(envs, logger)
	if err != nil {
		return err
	}
	if err := employeeStore.Configure(envs); err != nil {
		return err
	}
	if err := employeeStore.Open(ctx); err != nil {
		logger.Error(ctx, "error while opening store: %s", err)
	} else if err := employeeStore.Ping(ctx); err != nil {
		logger.Error(ctx, "error while connecting to database: %s", err)
	} else {
		logger.Info(ctx, "connected to database")
	}
	defer func() {
		if err := employeeStore.Close(context.Background()); err != nil {
			logger.Error(context.Background(), "error while closing store: %s", err)
		}
	}()

	// create cache
	employeeCache := createCache(envs, logger)
	if employeeCache != nil {
		if err := employeeCache.Configure(envs); err != nil {
			return err
		}
		if err := employeeCache.Open(ctx); err != nil {
			return err
		}
		defer func() {
			if err := employeeCache.Close(context.Background()); err != nil {
				logger.Error(context.Background(), "error while closing cache: %s", err)
			}
		}()
	}

	//create logic, configure and open
	logic := logic.NewLogic(employeeStore, logger, counter, employeeCache)
	if err := logic.Configure(envs); err != nil {
		return err
	}
	if err := logic.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := logic.Close(context.Background()); err != nil {
			logger.Error(context.Background(), "error while closing logic: %s", err)
		}
	}()

	//create service, configure and open
	service := service.NewService(logic, employeeCache, logger, counter, timers)
	if err := service.Configure(envs); err != nil {
		return err
	}
	if err := service.Open(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	wg.Wait()
	if err := service.Close(context.Background()); err != nil {
		logger.Error(context.Background(), "error while closing service: %s", err)
	}
	return nil
}
