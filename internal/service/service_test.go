package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/cache"
	"github.com/antonio-alexander/go-hrms-lite/internal/data"
	"github.com/antonio-alexander/go-hrms-lite/internal/logic"
	"github.com/antonio-alexander/go-hrms-lite/internal/service"
	"github.com/antonio-alexander/go-hrms-lite/internal/store"
	"github.com/antonio-alexander/go-hrms-lite/internal/utilities"

	"github.com/stretchr/testify/assert"
)

var (
	envs = map[string]string{
		//store
		"DATABASE_UNIQUE_INDEXES": "true",

		//logic
		"LOGIC_CACHE_ENABLED": "true",

		//service
		"SERVICE_ADDRESS":          "localhost",
		"SERVICE_PORT":             "8081",
		"SERVICE_SHUTDOWN_TIMEOUT": "10",
		"SERVICE_TIMERS_ENABLED":   "true",
	}
)

func init() {
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
	//the port is fixed so it doesn't collide with other test packages
	envs["SERVICE_PORT"] = "8081"
}

type serviceTest struct {
	store interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
		store.Store
	}
	cache interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
		cache.Cache
	}
	logic interface {
		internal.Configurer
		internal.Opener
	}
	service interface {
		internal.Configurer
		internal.Opener
	}
	counter utilities.Counter
	client  *http.Client
	address string
}

func newServiceTest() *serviceTest {
	s := store.NewMemory()
	c := cache.NewMemory()
	counter := utilities.NewCounter()
	l := logic.NewLogic(s, c, counter)
	return &serviceTest{
		store:   s,
		cache:   c,
		logic:   l,
		counter: counter,
		service: service.NewService(l, c, counter),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *serviceTest) Configure(envs map[string]string) error {
	if err := s.store.Configure(envs); err != nil {
		return err
	}
	if err := s.cache.Configure(envs); err != nil {
		return err
	}
	if err := s.logic.Configure(envs); err != nil {
		return err
	}
	if err := s.service.Configure(envs); err != nil {
		return err
	}
	s.address = "http://" + envs["SERVICE_ADDRESS"] + ":" + envs["SERVICE_PORT"]
	return nil
}

func (s *serviceTest) Open(ctx context.Context) error {
	if err := s.store.Open(ctx); err != nil {
		return err
	}
	if err := s.cache.Open(ctx); err != nil {
		return err
	}
	if err := s.logic.Open(ctx); err != nil {
		return err
	}
	return s.service.Open(ctx)
}

func (s *serviceTest) Close(ctx context.Context) error {
	if err := s.service.Close(ctx); err != nil {
		return err
	}
	if err := s.logic.Close(ctx); err != nil {
		return err
	}
	if err := s.cache.Close(ctx); err != nil {
		return err
	}
	return s.store.Close(ctx)
}

func (s *serviceTest) reset(t *testing.T) {
	ctx := context.TODO()
	assert.Nil(t, s.store.Clear(ctx))
	assert.Nil(t, s.cache.Clear(ctx))
}

type response struct {
	statusCode int
	header     http.Header
	body       []byte
}

func (s *serviceTest) doRequest(t *testing.T, method, route string, body any, headers ...string) *response {
	var reader io.Reader

	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		encoded, err := json.Marshal(b)
		if !assert.Nil(t, err) {
			assert.FailNow(t, "unable to marshal body")
		}
		reader = bytes.NewReader(encoded)
	}
	request, err := http.NewRequest(method, s.address+route, reader)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to create request")
	}
	if reader != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		request.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.client.Do(request)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to do request")
	}
	defer resp.Body.Close()
	responseBody, err := io.ReadAll(resp.Body)
	assert.Nil(t, err)
	return &response{
		statusCode: resp.StatusCode,
		header:     resp.Header,
		body:       responseBody,
	}
}

func employeeBody(employeeId, email string) map[string]string {
	return map[string]string{
		"employee_id": employeeId,
		"full_name":   "Jane Doe",
		"email":       email,
		"department":  "Engineering",
	}
}

func attendanceBody(employeeId, date, status string) map[string]string {
	return map[string]string{
		"employee_id": employeeId,
		"date":        date,
		"status":      status,
	}
}

func (s *serviceTest) TestRoot(t *testing.T) {
	var message data.Message

	resp := s.doRequest(t, http.MethodGet, data.RouteRoot, nil)
	assert.Equal(t, http.StatusOK, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, &message))
	assert.Equal(t, "HRMS Lite API is running", message.Message)

	resp = s.doRequest(t, http.MethodPost, data.RouteRoot, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.statusCode)
}

func (s *serviceTest) TestHealth(t *testing.T) {
	ctx := context.TODO()

	// connected
	health := &data.Health{}
	resp := s.doRequest(t, http.MethodGet, data.RouteHealth, nil)
	assert.Equal(t, http.StatusOK, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, health))
	assert.Equal(t, data.HealthStatusHealthy, health.Status)
	assert.Equal(t, data.HealthDatabaseConnected, health.Database)

	// disconnected, the api keeps running
	err := s.store.Close(ctx)
	assert.Nil(t, err)
	health = &data.Health{}
	resp = s.doRequest(t, http.MethodGet, data.RouteHealth+"/", nil)
	assert.Equal(t, http.StatusOK, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, health))
	assert.Equal(t, data.HealthStatusRunning, health.Status)
	assert.Equal(t, data.HealthDatabaseDisconnected, health.Database)
	assert.NotEmpty(t, health.Message)

	// requests needing the database fail with a 500
	resp = s.doRequest(t, http.MethodGet, data.RouteEmployees, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.statusCode)

	err = s.store.Open(ctx)
	assert.Nil(t, err)
}

func (s *serviceTest) TestEmployee(t *testing.T) {
	var errorResponse data.ErrorResponse
	var employees []*data.Employee

	s.reset(t)

	// create employee
	employeeCreated := &data.Employee{}
	resp := s.doRequest(t, http.MethodPost, data.RouteEmployees, employeeBody("E1", "e1@example.com"))
	assert.Equal(t, http.StatusCreated, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, employeeCreated))
	assert.NotEmpty(t, employeeCreated.Id)
	assert.Equal(t, "E1", employeeCreated.EmployeeId)

	// read employee, with and without a trailing slash
	for _, route := range []string{
		fmt.Sprintf(data.RouteEmployeesEmployeeIdf, "E1"),
		fmt.Sprintf(data.RouteEmployeesEmployeeIdf, "E1") + "/",
	} {
		employeeRead := &data.Employee{}
		resp = s.doRequest(t, http.MethodGet, route, nil)
		assert.Equal(t, http.StatusOK, resp.statusCode)
		assert.Nil(t, json.Unmarshal(resp.body, employeeRead))
		assert.Equal(t, employeeCreated, employeeRead)
	}

	// duplicates are a 400
	resp = s.doRequest(t, http.MethodPost, data.RouteEmployees+"/", employeeBody("E1", "other@example.com"))
	assert.Equal(t, http.StatusBadRequest, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, &errorResponse))
	assert.Equal(t, data.ErrEmployeeIdExists.Message, errorResponse.Detail)
	resp = s.doRequest(t, http.MethodPost, data.RouteEmployees, employeeBody("E2", "e1@example.com"))
	assert.Equal(t, http.StatusBadRequest, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, &errorResponse))
	assert.Equal(t, data.ErrEmailExists.Message, errorResponse.Detail)

	// list employees
	resp = s.doRequest(t, http.MethodPost, data.RouteEmployees, employeeBody("E2", "e2@example.com"))
	assert.Equal(t, http.StatusCreated, resp.statusCode)
	resp = s.doRequest(t, http.MethodGet, data.RouteEmployees, nil)
	assert.Equal(t, http.StatusOK, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, &employees))
	assert.Len(t, employees, 2)
	employees = nil
	resp = s.doRequest(t, http.MethodGet, data.RouteEmployees+"?skip=1&limit=1", nil)
	assert.Equal(t, http.StatusOK, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, &employees))
	if assert.Len(t, employees, 1) {
		assert.Equal(t, "E2", employees[0].EmployeeId)
	}
	resp = s.doRequest(t, http.MethodGet, data.RouteEmployees+"?skip=abc", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.statusCode)

	// update employee
	employeeUpdated := &data.Employee{}
	resp = s.doRequest(t, http.MethodPut, fmt.Sprintf(data.RouteEmployeesEmployeeIdf, "E1"),
		map[string]string{"department": "Sales"})
	assert.Equal(t, http.StatusOK, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, employeeUpdated))
	assert.Equal(t, "Sales", employeeUpdated.Department)
	assert.Equal(t, employeeCreated.Email, employeeUpdated.Email)
	resp = s.doRequest(t, http.MethodPut, fmt.Sprintf(data.RouteEmployeesEmployeeIdf, "E1"),
		map[string]string{"email": "e2@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.statusCode)
	resp = s.doRequest(t, http.MethodPut, fmt.Sprintf(data.RouteEmployeesEmployeeIdf, "E404"),
		map[string]string{"department": "Sales"})
	assert.Equal(t, http.StatusNotFound, resp.statusCode)

	// delete employee
	resp = s.doRequest(t, http.MethodDelete, fmt.Sprintf(data.RouteEmployeesEmployeeIdf, "E2"), nil)
	assert.Equal(t, http.StatusNoContent, resp.statusCode)
	assert.Empty(t, resp.body)
	resp = s.doRequest(t, http.MethodGet, fmt.Sprintf(data.RouteEmployeesEmployeeIdf, "E2"), nil)
	assert.Equal(t, http.StatusNotFound, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, &errorResponse))
	assert.Equal(t, data.ErrEmployeeNotFound.Message, errorResponse.Detail)
	resp = s.doRequest(t, http.MethodDelete, fmt.Sprintf(data.RouteEmployeesEmployeeIdf, "E2"), nil)
	assert.Equal(t, http.StatusNotFound, resp.statusCode)

	// unsupported method
	resp = s.doRequest(t, http.MethodPatch, data.RouteEmployees, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.statusCode)
}

func (s *serviceTest) TestValidation(t *testing.T) {
	var errorResponse data.ErrorResponse

	s.reset(t)

	// missing fields
	resp := s.doRequest(t, http.MethodPost, data.RouteEmployees, map[string]string{
		"employee_id": "E1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, &errorResponse))
	assert.NotEmpty(t, errorResponse.Detail)
	assert.Len(t, errorResponse.Errors, 3)

	// invalid email
	resp = s.doRequest(t, http.MethodPost, data.RouteEmployees, employeeBody("E1", "not-an-email"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.statusCode)

	// malformed or empty bodies
	resp = s.doRequest(t, http.MethodPost, data.RouteEmployees, "{")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.statusCode)
	resp = s.doRequest(t, http.MethodPost, data.RouteEmployees, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.statusCode)
	resp = s.doRequest(t, http.MethodPost, data.RouteEmployees, `{"employee_id": 1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.statusCode)

	// invalid attendance
	resp = s.doRequest(t, http.MethodPost, data.RouteAttendance, attendanceBody("E1", "2024-13-01", "present"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.statusCode)
	resp = s.doRequest(t, http.MethodPost, data.RouteAttendance, attendanceBody("E1", "2024-01-01", "late"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.statusCode)

	// nothing reached the store
	resp = s.doRequest(t, http.MethodGet, fmt.Sprintf(data.RouteEmployeesEmployeeIdf, "E1"), nil)
	assert.Equal(t, http.StatusNotFound, resp.statusCode)
}

func (s *serviceTest) TestAttendance(t *testing.T) {
	var attendances []*data.Attendance

	s.reset(t)

	resp := s.doRequest(t, http.MethodPost, data.RouteEmployees, employeeBody("E1", "e1@example.com"))
	assert.Equal(t, http.StatusCreated, resp.statusCode)

	// unknown employee is a 400 when marking
	resp = s.doRequest(t, http.MethodPost, data.RouteAttendance, attendanceBody("E404", "2024-01-01", "present"))
	assert.Equal(t, http.StatusBadRequest, resp.statusCode)

	// mark attendance
	attendanceCreated := &data.Attendance{}
	resp = s.doRequest(t, http.MethodPost, data.RouteAttendance, attendanceBody("E1", "2024-01-01", "present"))
	assert.Equal(t, http.StatusCreated, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, attendanceCreated))
	assert.NotEmpty(t, attendanceCreated.Id)
	assert.Equal(t, "2024-01-01", attendanceCreated.Date)
	assert.Equal(t, data.AttendanceStatusPresent, attendanceCreated.Status)

	// duplicate date is a 400
	resp = s.doRequest(t, http.MethodPost, data.RouteAttendance, attendanceBody("E1", "2024-01-01", "absent"))
	assert.Equal(t, http.StatusBadRequest, resp.statusCode)
	resp = s.doRequest(t, http.MethodPost, data.RouteAttendance, attendanceBody("E1", "2024-01-02", "absent"))
	assert.Equal(t, http.StatusCreated, resp.statusCode)

	// list attendance
	resp = s.doRequest(t, http.MethodGet, data.RouteAttendance, nil)
	assert.Equal(t, http.StatusOK, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, &attendances))
	assert.Len(t, attendances, 2)
	assert.Empty(t, resp.header.Get(data.HeaderResultTruncated))
	attendances = nil
	resp = s.doRequest(t, http.MethodGet, data.RouteAttendance+"?employee_id=E1&date_from=2024-01-02&date_to=2024-01-02", nil)
	assert.Equal(t, http.StatusOK, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, &attendances))
	if assert.Len(t, attendances, 1) {
		assert.Equal(t, "2024-01-02", attendances[0].Date)
	}
	resp = s.doRequest(t, http.MethodGet, data.RouteAttendance+"?employee_id=E404", nil)
	assert.Equal(t, http.StatusBadRequest, resp.statusCode)
	resp = s.doRequest(t, http.MethodGet, data.RouteAttendance+"?date_from=yesterday", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.statusCode)

	// list attendance by employee, unknown employee is a 404
	attendances = nil
	resp = s.doRequest(t, http.MethodGet, fmt.Sprintf(data.RouteAttendanceEmployeef, "E1"), nil)
	assert.Equal(t, http.StatusOK, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, &attendances))
	assert.Len(t, attendances, 2)
	resp = s.doRequest(t, http.MethodGet, fmt.Sprintf(data.RouteAttendanceEmployeef, "E404"), nil)
	assert.Equal(t, http.StatusNotFound, resp.statusCode)

	// update attendance status
	attendanceUpdated := &data.Attendance{}
	resp = s.doRequest(t, http.MethodPut, fmt.Sprintf(data.RouteAttendanceIdf, attendanceCreated.Id),
		map[string]string{"status": "absent"})
	assert.Equal(t, http.StatusOK, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, attendanceUpdated))
	assert.Equal(t, data.AttendanceStatusAbsent, attendanceUpdated.Status)
	assert.Equal(t, attendanceCreated.Date, attendanceUpdated.Date)
	resp = s.doRequest(t, http.MethodPut, fmt.Sprintf(data.RouteAttendanceIdf, "missing"),
		map[string]string{"status": "absent"})
	assert.Equal(t, http.StatusNotFound, resp.statusCode)

	// delete attendance
	resp = s.doRequest(t, http.MethodDelete, fmt.Sprintf(data.RouteAttendanceIdf, attendanceCreated.Id), nil)
	assert.Equal(t, http.StatusNoContent, resp.statusCode)
	resp = s.doRequest(t, http.MethodDelete, fmt.Sprintf(data.RouteAttendanceIdf, attendanceCreated.Id), nil)
	assert.Equal(t, http.StatusNotFound, resp.statusCode)
}

func (s *serviceTest) TestAttendanceTruncated(t *testing.T) {
	var attendances []*data.Attendance

	ctx := context.TODO()
	s.reset(t)

	resp := s.doRequest(t, http.MethodPost, data.RouteEmployees, employeeBody("E1", "e1@example.com"))
	assert.Equal(t, http.StatusCreated, resp.statusCode)
	employeeId, status := "E1", data.AttendanceStatusPresent
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i <= data.AttendanceLimit; i++ {
		date := data.FormatDate(start.AddDate(0, 0, i))
		_, err := s.store.AttendanceCreate(ctx, data.AttendancePartial{
			EmployeeId: &employeeId,
			Date:       &date,
			Status:     &status,
		})
		if !assert.Nil(t, err) {
			assert.FailNow(t, "unable to create attendance")
		}
	}
	resp = s.doRequest(t, http.MethodGet, data.RouteAttendance, nil)
	assert.Equal(t, http.StatusOK, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, &attendances))
	assert.Len(t, attendances, data.AttendanceLimit)
	assert.Equal(t, "true", resp.header.Get(data.HeaderResultTruncated))
}

func (s *serviceTest) TestCorrelationId(t *testing.T) {
	const correlationId string = "service_test_correlation_id"

	resp := s.doRequest(t, http.MethodGet, data.RouteHealth, nil,
		internal.HeaderCorrelationId, correlationId)
	assert.Equal(t, correlationId, resp.header.Get(internal.HeaderCorrelationId))
	resp = s.doRequest(t, http.MethodGet, data.RouteHealth, nil)
	assert.NotEmpty(t, resp.header.Get(internal.HeaderCorrelationId))
}

func (s *serviceTest) TestCache(t *testing.T) {
	s.reset(t)

	resp := s.doRequest(t, http.MethodDelete, data.RouteCacheCounters, nil)
	assert.Equal(t, http.StatusNoContent, resp.statusCode)
	resp = s.doRequest(t, http.MethodPost, data.RouteEmployees, employeeBody("E1", "e1@example.com"))
	assert.Equal(t, http.StatusCreated, resp.statusCode)
	resp = s.doRequest(t, http.MethodDelete, data.RouteCache, nil)
	assert.Equal(t, http.StatusNoContent, resp.statusCode)

	// first read misses, the second hits
	for range 2 {
		resp = s.doRequest(t, http.MethodGet, fmt.Sprintf(data.RouteEmployeesEmployeeIdf, "E1"), nil)
		assert.Equal(t, http.StatusOK, resp.statusCode)
	}
	cacheCounters := &data.CacheCounters{}
	resp = s.doRequest(t, http.MethodGet, data.RouteCacheCounters, nil)
	assert.Equal(t, http.StatusOK, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, cacheCounters))
	assert.GreaterOrEqual(t, cacheCounters.CounterHits["employee_read"], 1)
	assert.GreaterOrEqual(t, cacheCounters.CounterMisses["employee_read"], 1)

	// clear the cache and the counters
	resp = s.doRequest(t, http.MethodDelete, data.RouteCache, nil)
	assert.Equal(t, http.StatusNoContent, resp.statusCode)
	resp = s.doRequest(t, http.MethodDelete, data.RouteCacheCounters, nil)
	assert.Equal(t, http.StatusNoContent, resp.statusCode)
	cacheCounters = &data.CacheCounters{}
	resp = s.doRequest(t, http.MethodGet, data.RouteCacheCounters, nil)
	assert.Equal(t, http.StatusOK, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, cacheCounters))
	assert.Zero(t, cacheCounters.CounterHits["employee_read"])

	// timers
	timers := &data.Timers{}
	resp = s.doRequest(t, http.MethodGet, data.RouteTimers, nil)
	assert.Equal(t, http.StatusOK, resp.statusCode)
	assert.Nil(t, json.Unmarshal(resp.body, timers))
	assert.NotEmpty(t, timers.Totals)
	resp = s.doRequest(t, http.MethodDelete, data.RouteTimers, nil)
	assert.Equal(t, http.StatusNoContent, resp.statusCode)
}

func TestService(t *testing.T) {
	s := newServiceTest()

	ctx := context.TODO()
	err := s.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure service")
	}
	err = s.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open service")
	}
	defer func() {
		if err := s.Close(ctx); err != nil {
			t.Logf("error while closing service: %s", err)
		}
	}()
	t.Run("Root", s.TestRoot)
	t.Run("Health", s.TestHealth)
	t.Run("Employee", s.TestEmployee)
	t.Run("Validation", s.TestValidation)
	t.Run("Attendance", s.TestAttendance)
	t.Run("AttendanceTruncated", s.TestAttendanceTruncated)
	t.Run("CorrelationId", s.TestCorrelationId)
	t.Run("Cache", s.TestCache)
}

func TestServiceLogicNotProvided(t *testing.T) {
	s := service.NewService()
	err := s.Open(context.TODO())
	assert.ErrorIs(t, err, service.ErrLogicNotProvided)
}
