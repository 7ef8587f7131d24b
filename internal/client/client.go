package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/cache"
	"github.com/antonio-alexander/go-hrms-lite/internal/data"
	"github.com/antonio-alexander/go-hrms-lite/internal/utilities"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
)

const (
	defaultProtocol string        = "http"
	defaultAddress  string        = "localhost"
	defaultPort     string        = "8000"
	defaultTimeout  time.Duration = 10 * time.Second
)

var ErrNotHealthy = errors.New("service not healthy")

type Client interface {
	Root(ctx context.Context) (*data.Message, error)
	Health(ctx context.Context) (*data.Health, error)
	WaitHealthy(ctx context.Context, maxElapsed time.Duration) (*data.Health, error)
	EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeesRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error)
	EmployeeRead(ctx context.Context, employeeId string) (*data.Employee, error)
	EmployeeUpdate(ctx context.Context, employeeId string,
		employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, employeeId string) error
	AttendanceCreate(ctx context.Context, attendancePartial data.AttendancePartial) (*data.Attendance, error)
	AttendancesRead(ctx context.Context, search data.AttendanceSearch) ([]*data.Attendance, bool, error)
	AttendancesReadByEmployee(ctx context.Context, employeeId string) ([]*data.Attendance, bool, error)
	AttendanceUpdate(ctx context.Context, attendanceId string,
		attendancePartial data.AttendancePartial) (*data.Attendance, error)
	AttendanceDelete(ctx context.Context, attendanceId string) error
	CacheClear(ctx context.Context) error
	CacheCountersRead(ctx context.Context) (*data.CacheCounters, error)
	CacheCountersClear(ctx context.Context) error
	TimersRead(ctx context.Context) (*data.Timers, error)
	TimersClear(ctx context.Context) error
}

type client struct {
	sync.RWMutex
	config struct {
		protocol      string
		address       string
		port          string
		timeout       time.Duration
		sslCaFile     string
		sslCrtFile    string
		sslKeyFile    string
		cacheDisabled bool
	}
	address string
	cache   cache.Cache
	utilities.Logger
	*http.Client
}

// NewClient creates a client of the hrms-lite api, when a cache.Cache is
// provided employees read by id are cached locally until they're updated
// or deleted through this client.
func NewClient(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Client
} {
	c := &client{Client: &http.Client{}}
	c.config.protocol = defaultProtocol
	c.config.address = defaultAddress
	c.config.port = defaultPort
	c.config.timeout = defaultTimeout
	for _, parameter := range parameters {
		//caches embed a logger so they're checked first
		switch p := parameter.(type) {
		case cache.Cache:
			c.cache = p
		case utilities.Logger:
			c.Logger = p
		}
	}
	if c.Logger == nil {
		c.Logger = utilities.NewLogger()
	}
	return c
}

func (c *client) cacheEnabled() bool {
	return c.cache != nil && !c.config.cacheDisabled
}

func (c *client) doRequest(ctx context.Context, uri, method string, item any) ([]byte, http.Header, error) {
	var body io.Reader

	switch d := item.(type) {
	case nil:
	case url.Values:
		if encoded := d.Encode(); encoded != "" {
			uri = uri + "?" + encoded
		}
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return nil, nil, err
		}
		body = bytes.NewReader(b)
	}
	request, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if correlationId := internal.CorrelationIdFromCtx(ctx); correlationId != "" {
		request.Header.Set(internal.HeaderCorrelationId, correlationId)
	}
	response, err := c.Do(request)
	if err != nil {
		return nil, nil, err
	}
	bytes, err := io.ReadAll(response.Body)
	defer response.Body.Close()
	if err != nil {
		return nil, nil, err
	}
	switch response.StatusCode {
	default:
		return nil, response.Header, errorFromResponse(response.StatusCode, bytes)
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return bytes, response.Header, nil
	}
}

func (c *client) doRequestItem(ctx context.Context, uri, method string, item, v any) error {
	bytes, _, err := c.doRequest(ctx, uri, method, item)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, v)
}

func (c *client) Configure(envs map[string]string) error {
	c.Lock()
	defer c.Unlock()

	if address := envs["CLIENT_ADDRESS"]; address != "" {
		c.config.address = address
	}
	if port := envs["CLIENT_PORT"]; port != "" {
		c.config.port = port
	}
	if protocol := envs["CLIENT_PROTOCOL"]; protocol != "" {
		c.config.protocol = protocol
	}
	if timeout := envs["CLIENT_TIMEOUT"]; timeout != "" {
		i, err := strconv.Atoi(timeout)
		if err != nil {
			return errors.Wrap(err, "parsing CLIENT_TIMEOUT")
		}
		c.config.timeout = time.Duration(i) * time.Second
	}
	if sslCaFile, ok := envs["SSL_CA_FILE"]; ok {
		c.config.sslCaFile = sslCaFile
	}
	if sslKeyFile, ok := envs["SSL_KEY_FILE"]; ok {
		c.config.sslKeyFile = sslKeyFile
	}
	if sslCrtFile, ok := envs["SSL_CRT_FILE"]; ok {
		c.config.sslCrtFile = sslCrtFile
	}
	if cacheDisabled := envs["CLIENT_CACHE_DISABLED"]; cacheDisabled != "" {
		c.config.cacheDisabled, _ = strconv.ParseBool(cacheDisabled)
	}
	return nil
}

func (c *client) Open(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	switch c.config.protocol {
	default:
		return errors.Errorf("unsupported protocol: %s", c.config.protocol)
	case "http", "https":
		c.address = fmt.Sprintf("%s://%s", c.config.protocol,
			net.JoinHostPort(c.config.address, c.config.port))
	}
	if !c.cacheEnabled() {
		c.Debug(ctx, "client: cache disabled")
	}
	transport, err := getTransport(c.config.sslCaFile, c.config.sslCrtFile,
		c.config.sslKeyFile)
	if err != nil {
		return err
	}
	c.Client.Timeout = c.config.timeout
	c.Client.Transport = transport
	return nil
}

func (c *client) Close(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.Client.CloseIdleConnections()
	return nil
}

func (c *client) Root(ctx context.Context) (*data.Message, error) {
	message := &data.Message{}
	if err := c.doRequestItem(ctx, c.address+data.RouteRoot, http.MethodGet, nil, message); err != nil {
		return nil, err
	}
	return message, nil
}

func (c *client) Health(ctx context.Context) (*data.Health, error) {
	health := &data.Health{}
	if err := c.doRequestItem(ctx, c.address+data.RouteHealth, http.MethodGet, nil, health); err != nil {
		return nil, err
	}
	return health, nil
}

// WaitHealthy polls the health endpoint with an exponential backoff until
// the service reports healthy or maxElapsed has passed.
func (c *client) WaitHealthy(ctx context.Context, maxElapsed time.Duration) (*data.Health, error) {
	return backoff.Retry(ctx, func() (*data.Health, error) {
		health, err := c.Health(ctx)
		if err != nil {
			c.Debug(ctx, "health check failed: %s", err)
			return nil, err
		}
		if health.Status != data.HealthStatusHealthy {
			c.Debug(ctx, "service %s (database %s)", health.Status, health.Database)
			return health, errors.Wrapf(ErrNotHealthy, "status: %s", health.Status)
		}
		return health, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed))
}

func (c *client) EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error) {
	employee := &data.Employee{}
	if err := c.doRequestItem(ctx, c.address+data.RouteEmployees,
		http.MethodPost, employeePartial, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

func (c *client) EmployeesRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	var employees []*data.Employee

	if err := c.doRequestItem(ctx, c.address+data.RouteEmployees,
		http.MethodGet, search.ToParams(), &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

func (c *client) EmployeeRead(ctx context.Context, employeeId string) (*data.Employee, error) {
	if c.cacheEnabled() {
		employee, err := c.cache.EmployeeRead(ctx, employeeId)
		if err == nil {
			return employee, nil
		}
		if !errors.Is(err, cache.ErrEmployeeNotCached) {
			c.Error(ctx, "error while reading employee (%s) from cache: %s", employeeId, err)
		}
	}
	employee := &data.Employee{}
	uri := fmt.Sprintf(c.address+data.RouteEmployeesEmployeeIdf, url.PathEscape(employeeId))
	if err := c.doRequestItem(ctx, uri, http.MethodGet, nil, employee); err != nil {
		return nil, err
	}
	if c.cacheEnabled() {
		if err := c.cache.EmployeesWrite(ctx, employee); err != nil {
			c.Error(ctx, "error while writing employee (%s) to cache: %s", employeeId, err)
		}
	}
	return employee, nil
}

func (c *client) evict(ctx context.Context, employeeId string) {
	if !c.cacheEnabled() {
		return
	}
	if err := c.cache.EmployeesDelete(ctx, employeeId); err != nil {
		c.Error(ctx, "error while deleting employee (%s) from cache: %s", employeeId, err)
	}
}

func (c *client) EmployeeUpdate(ctx context.Context, employeeId string, employeePartial data.EmployeePartial) (*data.Employee, error) {
	employee := &data.Employee{}
	uri := fmt.Sprintf(c.address+data.RouteEmployeesEmployeeIdf, url.PathEscape(employeeId))
	if err := c.doRequestItem(ctx, uri, http.MethodPut, employeePartial, employee); err != nil {
		return nil, err
	}
	c.evict(ctx, employeeId)
	return employee, nil
}

func (c *client) EmployeeDelete(ctx context.Context, employeeId string) error {
	uri := fmt.Sprintf(c.address+data.RouteEmployeesEmployeeIdf, url.PathEscape(employeeId))
	if _, _, err := c.doRequest(ctx, uri, http.MethodDelete, nil); err != nil {
		return err
	}
	c.evict(ctx, employeeId)
	return nil
}

func (c *client) AttendanceCreate(ctx context.Context, attendancePartial data.AttendancePartial) (*data.Attendance, error) {
	attendance := &data.Attendance{}
	if err := c.doRequestItem(ctx, c.address+data.RouteAttendance,
		http.MethodPost, attendancePartial, attendance); err != nil {
		return nil, err
	}
	return attendance, nil
}

func (c *client) attendancesRead(ctx context.Context, uri string, params url.Values) ([]*data.Attendance, bool, error) {
	var attendances []*data.Attendance

	bytes, header, err := c.doRequest(ctx, uri, http.MethodGet, params)
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal(bytes, &attendances); err != nil {
		return nil, false, err
	}
	truncated, _ := strconv.ParseBool(header.Get(data.HeaderResultTruncated))
	return attendances, truncated, nil
}

func (c *client) AttendancesRead(ctx context.Context, search data.AttendanceSearch) ([]*data.Attendance, bool, error) {
	return c.attendancesRead(ctx, c.address+data.RouteAttendance, search.ToParams())
}

func (c *client) AttendancesReadByEmployee(ctx context.Context, employeeId string) ([]*data.Attendance, bool, error) {
	uri := fmt.Sprintf(c.address+data.RouteAttendanceEmployeef, url.PathEscape(employeeId))
	return c.attendancesRead(ctx, uri, nil)
}

func (c *client) AttendanceUpdate(ctx context.Context, attendanceId string, attendancePartial data.AttendancePartial) (*data.Attendance, error) {
	attendance := &data.Attendance{}
	uri := fmt.Sprintf(c.address+data.RouteAttendanceIdf, url.PathEscape(attendanceId))
	if err := c.doRequestItem(ctx, uri, http.MethodPut, attendancePartial, attendance); err != nil {
		return nil, err
	}
	return attendance, nil
}

func (c *client) AttendanceDelete(ctx context.Context, attendanceId string) error {
	uri := fmt.Sprintf(c.address+data.RouteAttendanceIdf, url.PathEscape(attendanceId))
	_, _, err := c.doRequest(ctx, uri, http.MethodDelete, nil)
	return err
}

func (c *client) CacheClear(ctx context.Context) error {
	_, _, err := c.doRequest(ctx, c.address+data.RouteCache, http.MethodDelete, nil)
	return err
}

func (c *client) CacheCountersRead(ctx context.Context) (*data.CacheCounters, error) {
	cacheCounters := &data.CacheCounters{}
	if err := c.doRequestItem(ctx, c.address+data.RouteCacheCounters,
		http.MethodGet, nil, cacheCounters); err != nil {
		return nil, err
	}
	return cacheCounters, nil
}

func (c *client) CacheCountersClear(ctx context.Context) error {
	_, _, err := c.doRequest(ctx, c.address+data.RouteCacheCounters, http.MethodDelete, nil)
	return err
}

func (c *client) TimersRead(ctx context.Context) (*data.Timers, error) {
	timers := &data.Timers{}
	if err := c.doRequestItem(ctx, c.address+data.RouteTimers,
		http.MethodGet, nil, timers); err != nil {
		return nil, err
	}
	return timers, nil
}

func (c *client) TimersClear(ctx context.Context) error {
	_, _, err := c.doRequest(ctx, c.address+data.RouteTimers, http.MethodDelete, nil)
	return err
}
