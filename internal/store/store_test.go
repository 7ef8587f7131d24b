package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/data"
	"github.com/antonio-alexander/go-hrms-lite/internal/store"

	"github.com/stretchr/testify/assert"
)

var (
	envs = map[string]string{
		"MONGODB_DATABASE":        "hrms_lite_test",
		"DATABASE_PORT":           "3306",
		"DATABASE_NAME":           "hrms_lite",
		"DATABASE_USER":           "mysql",
		"DATABASE_PASSWORD":       "mysql",
		"DATABASE_QUERY_TIMEOUT":  "10",
		"DATABASE_UNIQUE_INDEXES": "true",
	}
)

func init() {
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
}

type storeTest struct {
	store interface {
		internal.Opener
		internal.Configurer
	}
	store.Store
}

func newStoreTest(s interface {
	internal.Opener
	internal.Configurer
	store.Store
}) *storeTest {
	return &storeTest{
		store: s,
		Store: s,
	}
}

func newEmployeePartial() data.EmployeePartial {
	employeeId := "E" + internal.GenerateId()[:8]
	fullName := "Jane " + internal.GenerateId()[:8]
	email := internal.GenerateId()[:8] + "@example.com"
	department := "Engineering"
	return data.EmployeePartial{
		EmployeeId: &employeeId,
		FullName:   &fullName,
		Email:      &email,
		Department: &department,
	}
}

func newAttendancePartial(employeeId, date string, status data.AttendanceStatus) data.AttendancePartial {
	return data.AttendancePartial{
		EmployeeId: &employeeId,
		Date:       &date,
		Status:     &status,
	}
}

func (s *storeTest) TestEmployee(t *testing.T) {
	ctx := context.TODO()

	// create employee
	employeePartial := newEmployeePartial()
	employeeCreated, err := s.EmployeeCreate(ctx, employeePartial)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to create employee")
	}
	assert.NotEmpty(t, employeeCreated.Id)
	assert.Equal(t, *employeePartial.EmployeeId, employeeCreated.EmployeeId)
	assert.Equal(t, *employeePartial.FullName, employeeCreated.FullName)
	assert.Equal(t, *employeePartial.Email, employeeCreated.Email)
	assert.Equal(t, *employeePartial.Department, employeeCreated.Department)
	employeeId := employeeCreated.EmployeeId
	defer func() {
		_ = s.EmployeeDelete(ctx, employeeId)
	}()

	// read employee
	employeeRead, err := s.EmployeeRead(ctx, employeeId)
	assert.Nil(t, err)
	assert.Equal(t, employeeCreated, employeeRead)
	employeeRead, err = s.EmployeeReadByEmail(ctx, employeeCreated.Email)
	assert.Nil(t, err)
	assert.Equal(t, employeeCreated, employeeRead)

	// read employees
	employeesRead, err := s.EmployeesRead(ctx, data.EmployeeSearch{})
	assert.Nil(t, err)
	assert.Contains(t, employeesRead, employeeCreated)

	// create duplicate employee_id
	duplicatePartial := newEmployeePartial()
	duplicatePartial.EmployeeId = &employeeId
	_, err = s.EmployeeCreate(ctx, duplicatePartial)
	assert.Equal(t, data.ErrorKindConflict, data.KindOf(err))

	// create duplicate email
	duplicatePartial = newEmployeePartial()
	duplicatePartial.Email = &employeeCreated.Email
	_, err = s.EmployeeCreate(ctx, duplicatePartial)
	assert.Equal(t, data.ErrorKindConflict, data.KindOf(err))

	// update employee
	updatedFullName := "John " + internal.GenerateId()[:8]
	employeeUpdated, err := s.EmployeeUpdate(ctx, employeeId, data.EmployeePartial{
		FullName: &updatedFullName,
	})
	assert.Nil(t, err)
	if assert.NotNil(t, employeeUpdated) {
		assert.Equal(t, updatedFullName, employeeUpdated.FullName)
		assert.Equal(t, employeeCreated.Email, employeeUpdated.Email)
		assert.Equal(t, employeeCreated.Department, employeeUpdated.Department)
	}

	// update email to one in use
	otherCreated, err := s.EmployeeCreate(ctx, newEmployeePartial())
	if assert.Nil(t, err) {
		defer func() {
			_ = s.EmployeeDelete(ctx, otherCreated.EmployeeId)
		}()
		_, err = s.EmployeeUpdate(ctx, employeeId, data.EmployeePartial{
			Email: &otherCreated.Email,
		})
		assert.Equal(t, data.ErrorKindConflict, data.KindOf(err))
		employeeRead, err = s.EmployeeRead(ctx, employeeId)
		assert.Nil(t, err)
		assert.Equal(t, employeeUpdated, employeeRead)
	}

	// delete employee
	err = s.EmployeeDelete(ctx, employeeId)
	assert.Nil(t, err)
	_, err = s.EmployeeRead(ctx, employeeId)
	assert.ErrorIs(t, err, data.ErrEmployeeNotFound)
	err = s.EmployeeDelete(ctx, employeeId)
	assert.ErrorIs(t, err, data.ErrEmployeeNotFound)
	_, err = s.EmployeeUpdate(ctx, employeeId, data.EmployeePartial{FullName: &updatedFullName})
	assert.ErrorIs(t, err, data.ErrEmployeeNotFound)
}

func (s *storeTest) TestAttendance(t *testing.T) {
	ctx := context.TODO()
	employeeId := "E" + internal.GenerateId()[:8]

	// create attendance
	var attendanceIds []string
	defer func() {
		for _, attendanceId := range attendanceIds {
			_ = s.AttendanceDelete(ctx, attendanceId)
		}
	}()
	for _, date := range []string{"2024-01-01", "2024-01-05", "2024-01-10", "2024-01-15", "2024-01-20"} {
		attendanceCreated, err := s.AttendanceCreate(ctx,
			newAttendancePartial(employeeId, date, data.AttendanceStatusPresent))
		if !assert.Nil(t, err) {
			assert.FailNow(t, "unable to create attendance")
		}
		assert.NotEmpty(t, attendanceCreated.Id)
		assert.Equal(t, employeeId, attendanceCreated.EmployeeId)
		assert.Equal(t, date, attendanceCreated.Date)
		assert.Equal(t, data.AttendanceStatusPresent, attendanceCreated.Status)
		attendanceIds = append(attendanceIds, attendanceCreated.Id)
	}

	// create duplicate attendance
	_, err := s.AttendanceCreate(ctx,
		newAttendancePartial(employeeId, "2024-01-10", data.AttendanceStatusAbsent))
	assert.ErrorIs(t, err, data.ErrAttendanceExists)

	// read attendance
	attendanceRead, err := s.AttendanceRead(ctx, attendanceIds[2])
	assert.Nil(t, err)
	if assert.NotNil(t, attendanceRead) {
		assert.Equal(t, "2024-01-10", attendanceRead.Date)
	}
	date, err := data.ParseDate("2024-01-10")
	assert.Nil(t, err)
	attendanceRead, err = s.AttendanceReadByDate(ctx, employeeId, date)
	assert.Nil(t, err)
	if assert.NotNil(t, attendanceRead) {
		assert.Equal(t, attendanceIds[2], attendanceRead.Id)
	}

	// search attendance
	attendances, err := s.AttendancesSearch(ctx, data.AttendanceSearch{
		EmployeeId: employeeId,
		DateFrom:   "2024-01-05",
		DateTo:     "2024-01-15",
	}, 0)
	assert.Nil(t, err)
	if assert.Len(t, attendances, 3) {
		assert.Equal(t, "2024-01-15", attendances[0].Date)
		assert.Equal(t, "2024-01-10", attendances[1].Date)
		assert.Equal(t, "2024-01-05", attendances[2].Date)
	}
	attendances, err = s.AttendancesSearch(ctx, data.AttendanceSearch{
		EmployeeId: employeeId,
		DateFrom:   "2024-01-15",
	}, 0)
	assert.Nil(t, err)
	assert.Len(t, attendances, 2)
	attendances, err = s.AttendancesSearch(ctx, data.AttendanceSearch{
		EmployeeId: employeeId,
	}, 2)
	assert.Nil(t, err)
	if assert.Len(t, attendances, 2) {
		assert.Equal(t, "2024-01-20", attendances[0].Date)
	}

	// update attendance
	status := data.AttendanceStatusAbsent
	attendanceUpdated, err := s.AttendanceUpdate(ctx, attendanceIds[0],
		data.AttendancePartial{Status: &status})
	assert.Nil(t, err)
	if assert.NotNil(t, attendanceUpdated) {
		assert.Equal(t, data.AttendanceStatusAbsent, attendanceUpdated.Status)
		assert.Equal(t, "2024-01-01", attendanceUpdated.Date)
	}

	// delete attendance
	err = s.AttendanceDelete(ctx, attendanceIds[0])
	assert.Nil(t, err)
	_, err = s.AttendanceRead(ctx, attendanceIds[0])
	assert.ErrorIs(t, err, data.ErrAttendanceNotFound)
	err = s.AttendanceDelete(ctx, attendanceIds[0])
	assert.ErrorIs(t, err, data.ErrAttendanceNotFound)
	_, err = s.AttendanceUpdate(ctx, attendanceIds[0], data.AttendancePartial{Status: &status})
	assert.ErrorIs(t, err, data.ErrAttendanceNotFound)
}

func testStore(t *testing.T, s interface {
	internal.Opener
	internal.Configurer
	store.Store
}) {
	c := newStoreTest(s)

	ctx := context.TODO()
	err := c.store.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure store")
	}
	err = c.store.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open store")
	}
	defer func() {
		_ = c.store.Close(ctx)
	}()
	if err := c.Ping(ctx); err != nil {
		t.Skipf("store unreachable: %s", err)
	}
	t.Run("Employee", c.TestEmployee)
	t.Run("Attendance", c.TestAttendance)
}

func TestMemory(t *testing.T) {
	testStore(t, store.NewMemory())
}

func TestMemoryNotConnected(t *testing.T) {
	ctx := context.TODO()
	s := store.NewMemory()

	err := s.Ping(ctx)
	assert.ErrorIs(t, err, data.ErrNotConnected)
	_, err = s.EmployeeCreate(ctx, newEmployeePartial())
	assert.ErrorIs(t, err, data.ErrNotConnected)
	_, err = s.AttendancesSearch(ctx, data.AttendanceSearch{}, 0)
	assert.ErrorIs(t, err, data.ErrNotConnected)
}

func TestMongo(t *testing.T) {
	if envs["MONGODB_URI"] == "" {
		t.Skip("MONGODB_URI not set")
	}
	testStore(t, store.NewMongo())
}

func TestMySql(t *testing.T) {
	if envs["DATABASE_HOST"] == "" {
		t.Skip("DATABASE_HOST not set")
	}
	testStore(t, store.NewMySql())
}

func TestMySqlNotConnected(t *testing.T) {
	ctx := context.TODO()
	s := store.NewMySql()

	_, err := s.EmployeeRead(ctx, "E1")
	assert.ErrorIs(t, err, data.ErrNotConnected)
	err = s.AttendanceDelete(ctx, "A1")
	assert.ErrorIs(t, err, data.ErrNotConnected)
}

func TestMySqlWithoutPing(t *testing.T) {
	if envs["DATABASE_HOST"] == "" {
		t.Skip("DATABASE_HOST not set")
	}
	ctx := context.TODO()

	//drop the tables so they have to be created by the first operation
	db, err := sql.Open("mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s",
		envs["DATABASE_USER"], envs["DATABASE_PASSWORD"], envs["DATABASE_HOST"],
		envs["DATABASE_PORT"], envs["DATABASE_NAME"]))
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open database")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		t.Skipf("database unreachable: %s", err)
	}
	for _, table := range []string{"attendance", "employees"} {
		_, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+";")
		assert.Nil(t, err)
	}

	s := store.NewMySql()
	err = s.Configure(envs)
	assert.Nil(t, err)
	err = s.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open store")
	}
	defer func() {
		_ = s.Close(ctx)
	}()
	employee, err := s.EmployeeCreate(ctx, newEmployeePartial())
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to create employee")
	}
	employeeRead, err := s.EmployeeRead(ctx, employee.EmployeeId)
	assert.Nil(t, err)
	assert.Equal(t, employee, employeeRead)
	attendance, err := s.AttendanceCreate(ctx,
		newAttendancePartial(employee.EmployeeId, "2024-01-10", data.AttendanceStatusPresent))
	if assert.Nil(t, err) {
		assert.Nil(t, s.AttendanceDelete(ctx, attendance.Id))
	}
	assert.Nil(t, s.EmployeeDelete(ctx, employee.EmployeeId))
}
