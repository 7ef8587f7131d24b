package service

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/cache"
	"github.com/antonio-alexander/go-hrms-lite/internal/data"
	"github.com/antonio-alexander/go-hrms-lite/internal/logic"
	"github.com/antonio-alexander/go-hrms-lite/internal/utilities"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const (
	defaultServicePort     string        = "8000"
	defaultShutdownTimeout time.Duration = 10 * time.Second
)

type service struct {
	sync.RWMutex
	sync.WaitGroup
	config struct {
		address          string
		port             string
		shutdownTimeout  time.Duration
		allowedOrigins   []string
		allowedMethods   []string
		allowedHeaders   []string
		allowCredentials bool
		corsDisabled     bool
		corsDebug        bool
		timersEnabled    bool
	}
	ctx    context.Context
	cancel context.CancelFunc
	*mux.Router
	*http.Server
	cache internal.Clearer
	utilities.Logger
	utilities.Counter
	utilities.Timers
	logic.Logic
}

func NewService(parameters ...any) interface {
	internal.Configurer
	internal.Opener
} {
	router := mux.NewRouter()
	s := &service{
		Router: router,
		Server: &http.Server{
			Handler: router,
		},
	}
	s.config.port = defaultServicePort
	s.config.shutdownTimeout = defaultShutdownTimeout
	s.config.allowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	s.config.allowedMethods = []string{http.MethodGet, http.MethodPost,
		http.MethodPut, http.MethodDelete, http.MethodOptions}
	s.config.allowedHeaders = []string{"*"}
	s.config.allowCredentials = true
	for _, parameter := range parameters {
		//logic is checked before the logger since it embeds one
		switch p := parameter.(type) {
		case logic.Logic:
			s.Logic = p
		case interface {
			cache.Cache
			internal.Clearer
		}:
			s.cache = p
		case utilities.Counter:
			s.Counter = p
		case utilities.Timers:
			s.Timers = p
		case utilities.Logger:
			s.Logger = p
		}
	}
	if s.Logger == nil {
		s.Logger = utilities.NewLogger()
	}
	if s.Counter == nil {
		s.Counter = utilities.NewCounter()
	}
	if s.Timers == nil {
		s.Timers = utilities.NewTimers()
	}
	return s
}

func (s *service) launchServer() error {
	started := make(chan struct{})
	chErr := make(chan error, 1)
	s.Add(1)
	go func() {
		defer s.WaitGroup.Done()
		defer close(chErr)

		if !s.config.corsDisabled {
			s.Server.Handler = cors.New(cors.Options{
				AllowedOrigins:   s.config.allowedOrigins,
				AllowCredentials: s.config.allowCredentials,
				AllowedMethods:   s.config.allowedMethods,
				AllowedHeaders:   s.config.allowedHeaders,
				ExposedHeaders:   []string{internal.HeaderCorrelationId, data.HeaderResultTruncated},
				Debug:            s.config.corsDebug,
			}).Handler(s.Router)
		}
		close(started)
		if err := s.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			chErr <- err
		}
	}()
	<-started
	select {
	case err := <-chErr:
		//KIM: here we're accounting for a situation where the server closes unexpectedly
		// but quickly (within a second of starting); this allows us to respond to errors such as
		// the port being already used
		if err != nil {
			return err
		}
		return nil
	case <-time.After(time.Second):
		address := net.JoinHostPort(s.config.address, s.config.port)
		s.Info(s.ctx, "started server: %s", address)
		return nil
	}
}

// middlewareCorrelationId places the request's correlation id (or a new one)
// in its context and echoes it in the response.
func (s *service) middlewareCorrelationId(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		correlationId := getCorrelationId(request)
		writer.Header().Set(internal.HeaderCorrelationId, correlationId)
		ctx := internal.CtxWithCorrelationId(request.Context(), correlationId)
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// timed records the duration of each request against group when timers
// are enabled.
func (s *service) timed(group string, endpoint http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if s.config.timersEnabled {
			timerIndex := s.Start(group)
			defer func() {
				elapsedTime := s.Stop(group, timerIndex)
				s.Trace(request.Context(), "%s took %v", group,
					time.Duration(elapsedTime)*time.Nanosecond)
			}()
		}
		endpoint(writer, request)
	}
}

func (s *service) endpointRoot(writer http.ResponseWriter, request *http.Request) {
	s.handleResponse(request.Context(), writer, nil, &data.Message{
		Message: "HRMS Lite API is running",
	})
}

func (s *service) endpointHealth(writer http.ResponseWriter, request *http.Request) {
	s.handleResponse(request.Context(), writer, nil, s.Health(request.Context()))
}

func (s *service) endpointEmployeeCreate(writer http.ResponseWriter, request *http.Request) {
	var employeePartial data.EmployeePartial

	ctx := request.Context()
	if err := decodeBody(request, &employeePartial); err != nil {
		s.handleResponse(ctx, writer, err)
		return
	}
	employee, err := s.EmployeeCreate(ctx, employeePartial)
	if err != nil {
		s.handleResponse(ctx, writer, err)
		return
	}
	s.handleResponseStatus(ctx, writer, http.StatusCreated, nil, employee)
	s.Trace(ctx, "executed employee_create: %s", employee.EmployeeId)
}

func (s *service) endpointEmployeesRead(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	search := data.NewEmployeeSearch()
	if err := search.FromParams(request.URL.Query()); err != nil {
		s.handleResponse(ctx, writer, err)
		return
	}
	employees, err := s.EmployeesRead(ctx, search)
	if err != nil {
		s.handleResponse(ctx, writer, err)
		return
	}
	s.handleResponse(ctx, writer, nil, employees)
	s.Trace(ctx, "executed employees_read")
}

func (s *service) endpointEmployeeRead(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	employeeId := mux.Vars(request)[data.PathEmployeeId]
	employee, err := s.EmployeeRead(ctx, employeeId)
	if err != nil {
		s.handleResponse(ctx, writer, err)
		return
	}
	s.handleResponse(ctx, writer, nil, employee)
	s.Trace(ctx, "executed employee_read: %s", employeeId)
}

func (s *service) endpointEmployeeUpdate(writer http.ResponseWriter, request *http.Request) {
	var employeePartial data.EmployeePartial

	ctx := request.Context()
	employeeId := mux.Vars(request)[data.PathEmployeeId]
	if err := decodeBody(request, &employeePartial); err != nil {
		s.handleResponse(ctx, writer, err)
		return
	}
	employee, err := s.EmployeeUpdate(ctx, employeeId, employeePartial)
	if err != nil {
		s.handleResponse(ctx, writer, err)
		return
	}
	s.handleResponse(ctx, writer, nil, employee)
	s.Trace(ctx, "executed employee_update: %s", employeeId)
}

func (s *service) endpointEmployeeDelete(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	employeeId := mux.Vars(request)[data.PathEmployeeId]
	if err := s.EmployeeDelete(ctx, employeeId); err != nil {
		s.handleResponse(ctx, writer, err)
		return
	}
	s.handleResponse(ctx, writer, nil)
	s.Trace(ctx, "executed employee_delete: %s", employeeId)
}

func (s *service) endpointAttendanceCreate(writer http.ResponseWriter, request *http.Request) {
	var attendancePartial data.AttendancePartial

	ctx := request.Context()
	if err := decodeBody(request, &attendancePartial); err != nil {
		s.handleResponse(ctx, writer, err)
		return
	}
	attendance, err := s.AttendanceCreate(ctx, attendancePartial)
	if err != nil {
		s.handleResponse(ctx, writer, err)
		return
	}
	s.handleResponseStatus(ctx, writer, http.StatusCreated, nil, attendance)
	s.Trace(ctx, "executed attendance_create: %s", attendance.Id)
}

func (s *service) endpointAttendancesRead(writer http.ResponseWriter, request *http.Request) {
	var search data.AttendanceSearch

	ctx := request.Context()
	search.FromParams(request.URL.Query())
	attendances, truncated, err := s.AttendancesRead(ctx, search)
	if err != nil {
		s.handleResponse(ctx, writer, err)
		return
	}
	if truncated {
		writer.Header().Set(data.HeaderResultTruncated, "true")
	}
	s.handleResponse(ctx, writer, nil, attendances)
	s.Trace(ctx, "executed attendances_read")
}

func (s *service) endpointAttendancesReadByEmployee(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	employeeId := mux.Vars(request)[data.PathEmployeeId]
	attendances, truncated, err := s.AttendancesReadByEmployee(ctx, employeeId)
	if err != nil {
		s.handleResponse(ctx, writer, err)
		return
	}
	if truncated {
		writer.Header().Set(data.HeaderResultTruncated, "true")
	}
	s.handleResponse(ctx, writer, nil, attendances)
	s.Trace(ctx, "executed attendances_read_by_employee: %s", employeeId)
}

func (s *service) endpointAttendanceUpdate(writer http.ResponseWriter, request *http.Request) {
	var attendancePartial data.AttendancePartial

	ctx := request.Context()
	attendanceId := mux.Vars(request)[data.PathAttendanceId]
	if err := decodeBody(request, &attendancePartial); err != nil {
		s.handleResponse(ctx, writer, err)
		return
	}
	attendance, err := s.AttendanceUpdate(ctx, attendanceId, attendancePartial)
	if err != nil {
		s.handleResponse(ctx, writer, err)
		return
	}
	s.handleResponse(ctx, writer, nil, attendance)
	s.Trace(ctx, "executed attendance_update: %s", attendanceId)
}

func (s *service) endpointAttendanceDelete(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	attendanceId := mux.Vars(request)[data.PathAttendanceId]
	if err := s.AttendanceDelete(ctx, attendanceId); err != nil {
		s.handleResponse(ctx, writer, err)
		return
	}
	s.handleResponse(ctx, writer, nil)
	s.Trace(ctx, "executed attendance_delete: %s", attendanceId)
}

func (s *service) endpointCacheClear(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			s.handleResponse(ctx, writer, err)
			return
		}
		s.Trace(ctx, "executed cache_clear")
	}
	s.handleResponse(ctx, writer, nil)
}

func (s *service) endpointCacheCountersRead(writer http.ResponseWriter, request *http.Request) {
	s.handleResponse(request.Context(), writer, nil, s.Counter.ReadAll())
}

func (s *service) endpointCacheCountersClear(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	s.Counter.Reset()
	s.handleResponse(ctx, writer, nil)
	s.Trace(ctx, "executed cache_counters_clear")
}

func (s *service) endpointTimersRead(writer http.ResponseWriter, request *http.Request) {
	s.handleResponse(request.Context(), writer, nil, s.Timers.ReadAll())
}

func (s *service) endpointTimersClear(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	s.Timers.Clear()
	s.handleResponse(ctx, writer, nil)
	s.Trace(ctx, "executed timers_clear")
}

// handleFunc registers the route with and without a trailing slash
func (s *service) handleFunc(route string, f func(http.ResponseWriter, *http.Request)) {
	s.Router.HandleFunc(route, f)
	if route != "/" && !strings.HasSuffix(route, "/") {
		s.Router.HandleFunc(route+"/", f)
	}
}

func (s *service) buildRoutes() {
	s.Router.Use(s.middlewareCorrelationId)
	s.handleFunc(data.RouteRoot, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.endpointRoot(w, r)
		}
	})
	s.handleFunc(data.RouteHealth, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.timed("health", s.endpointHealth)(w, r)
		}
	})
	s.handleFunc(data.RouteEmployees, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodPost:
			s.timed("employee_create", s.endpointEmployeeCreate)(w, r)
		case http.MethodGet:
			s.timed("employees_read", s.endpointEmployeesRead)(w, r)
		}
	})
	s.handleFunc(data.RouteEmployeesEmployeeId, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.timed("employee_read", s.endpointEmployeeRead)(w, r)
		case http.MethodPut:
			s.timed("employee_update", s.endpointEmployeeUpdate)(w, r)
		case http.MethodDelete:
			s.timed("employee_delete", s.endpointEmployeeDelete)(w, r)
		}
	})
	s.handleFunc(data.RouteAttendance, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodPost:
			s.timed("attendance_create", s.endpointAttendanceCreate)(w, r)
		case http.MethodGet:
			s.timed("attendances_read", s.endpointAttendancesRead)(w, r)
		}
	})
	s.handleFunc(data.RouteAttendanceEmployee, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.timed("attendances_read_by_employee", s.endpointAttendancesReadByEmployee)(w, r)
		}
	})
	s.handleFunc(data.RouteAttendanceId, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodPut:
			s.timed("attendance_update", s.endpointAttendanceUpdate)(w, r)
		case http.MethodDelete:
			s.timed("attendance_delete", s.endpointAttendanceDelete)(w, r)
		}
	})
	s.handleFunc(data.RouteCacheCounters, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.endpointCacheCountersRead(w, r)
		case http.MethodDelete:
			s.endpointCacheCountersClear(w, r)
		}
	})
	s.handleFunc(data.RouteCache, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodDelete:
			s.endpointCacheClear(w, r)
		}
	})
	s.handleFunc(data.RouteTimers, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.endpointTimersRead(w, r)
		case http.MethodDelete:
			s.endpointTimersClear(w, r)
		}
	})
}

func (s *service) Configure(envs map[string]string) error {
	s.Lock()
	defer s.Unlock()

	if address, ok := envs["SERVICE_ADDRESS"]; ok {
		s.config.address = address
	}
	if port := envs["SERVICE_PORT"]; port != "" {
		s.config.port = port
	}
	if shutdownTimeoutString, ok := envs["SERVICE_SHUTDOWN_TIMEOUT"]; ok {
		if shutdownTimeoutInt, err := strconv.Atoi(shutdownTimeoutString); err == nil {
			if timeout := time.Duration(shutdownTimeoutInt) * time.Second; timeout > 0 {
				s.config.shutdownTimeout = timeout
			}
		}
	}
	if allowCredentialsString := envs["SERVICE_CORS_ALLOW_CREDENTIALS"]; allowCredentialsString != "" {
		if allowCredentials, err := strconv.ParseBool(allowCredentialsString); err == nil {
			s.config.allowCredentials = allowCredentials
		}
	}
	if allowedOrigins := envs["SERVICE_CORS_ALLOWED_ORIGINS"]; allowedOrigins != "" {
		s.config.allowedOrigins = strings.Split(allowedOrigins, ",")
	}
	if allowedMethods := envs["SERVICE_CORS_ALLOWED_METHODS"]; allowedMethods != "" {
		s.config.allowedMethods = strings.Split(allowedMethods, ",")
	}
	if allowedHeaders := envs["SERVICE_CORS_ALLOWED_HEADERS"]; allowedHeaders != "" {
		s.config.allowedHeaders = strings.Split(allowedHeaders, ",")
	}
	if corsDisabledString := envs["SERVICE_CORS_DISABLED"]; corsDisabledString != "" {
		if corsDisabled, err := strconv.ParseBool(corsDisabledString); err == nil {
			s.config.corsDisabled = corsDisabled
		}
	}
	if corsDebug := envs["SERVICE_CORS_DEBUG"]; corsDebug != "" {
		if corsDebug, err := strconv.ParseBool(corsDebug); err == nil {
			s.config.corsDebug = corsDebug
		}
	}
	if timersEnabled := envs["SERVICE_TIMERS_ENABLED"]; timersEnabled != "" {
		s.config.timersEnabled, _ = strconv.ParseBool(timersEnabled)
	}
	return nil
}

func (s *service) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if s.Logic == nil {
		return ErrLogicNotProvided
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.Server.Addr = net.JoinHostPort(s.config.address, s.config.port)
	s.buildRoutes()
	if err := s.launchServer(); err != nil {
		s.cancel()
		return err
	}
	return nil
}

func (s *service) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.config.shutdownTimeout)
	defer cancel()
	if err := s.Server.Shutdown(ctx); err != nil {
		s.Error(ctx, "error while shutting down the server: %s", err)
	}
	s.cancel()
	s.Wait()
	return nil
}
