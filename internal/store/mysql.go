package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/data"
	"github.com/antonio-alexander/go-hrms-lite/internal/utilities"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

const (
	tableEmployees  = "employees"
	tableAttendance = "attendance"
)

type mySql struct {
	sync.RWMutex
	config struct {
		Hostname      string        `json:"hostname"`
		Port          string        `json:"port"`
		Username      string        `json:"username"`
		Password      string        `json:"password"`
		Database      string        `json:"database"`
		QueryTimeout  time.Duration `json:"query_timeout"`
		UniqueIndexes bool          `json:"unique_indexes"`
	}
	*sql.DB
	tablesCreated bool
	utilities.Logger
}

// NewMySql creates a store backed by mysql, the tables are created on
// the first successful ping or operation if they don't already exist.
func NewMySql(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Store
} {
	m := &mySql{Logger: utilities.NewLogger()}
	m.config.QueryTimeout = 10 * time.Second
	m.config.UniqueIndexes = true
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case utilities.Logger:
			m.Logger = v
		}
	}
	return m
}

func (s *mySql) connection() (*sql.DB, time.Duration, bool, error) {
	s.RLock()
	defer s.RUnlock()

	if s.DB == nil {
		return nil, 0, false, data.ErrNotConnected
	}
	return s.DB, s.config.QueryTimeout, s.tablesCreated, nil
}

// connected returns the database with a query timeout applied to ctx, the
// tables are created the first time the database can be reached
func (s *mySql) connected(ctx context.Context) (context.Context, context.CancelFunc, *sql.DB, error) {
	db, queryTimeout, tablesCreated, err := s.connection()
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	if !tablesCreated {
		if err := s.createTables(ctx, db); err != nil {
			cancel()
			return nil, nil, nil, errors.Wrap(err, "creating tables")
		}
	}
	return ctx, cancel, db, nil
}

func (s *mySql) createTables(ctx context.Context, db *sql.DB) error {
	var employeeKeys, attendanceKeys string

	s.Lock()
	defer s.Unlock()

	if s.tablesCreated {
		return nil
	}
	if s.config.UniqueIndexes {
		employeeKeys = fmt.Sprintf(`,
			UNIQUE KEY %s (employee_id),
			UNIQUE KEY %s (email)`, indexEmployeeId, indexEmail)
		attendanceKeys = fmt.Sprintf(`,
			UNIQUE KEY %s (employee_id, date)`, indexEmployeeIdDate)
	}
	for _, query := range []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			row_id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			id CHAR(36) NOT NULL UNIQUE,
			employee_id VARCHAR(50) NOT NULL,
			full_name VARCHAR(100) NOT NULL,
			email VARCHAR(255) NOT NULL,
			department VARCHAR(50) NOT NULL%s
		);`, tableEmployees, employeeKeys),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			row_id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			id CHAR(36) NOT NULL UNIQUE,
			employee_id VARCHAR(50) NOT NULL,
			date DATE NOT NULL,
			status ENUM('present', 'absent') NOT NULL%s
		);`, tableAttendance, attendanceKeys),
	} {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	s.tablesCreated = true
	return nil
}

func (s *mySql) Configure(envs map[string]string) error {
	s.Lock()
	defer s.Unlock()

	if databaseHost := envs["DATABASE_HOST"]; databaseHost != "" {
		s.config.Hostname = databaseHost
	}
	if databasePort := envs["DATABASE_PORT"]; databasePort != "" {
		s.config.Port = databasePort
	}
	if database := envs["DATABASE_NAME"]; database != "" {
		s.config.Database = database
	}
	if username := envs["DATABASE_USER"]; username != "" {
		s.config.Username = username
	}
	if password := envs["DATABASE_PASSWORD"]; password != "" {
		s.config.Password = password
	}
	if _, ok := envs["DATABASE_QUERY_TIMEOUT"]; ok {
		if i, err := strconv.ParseInt(envs["DATABASE_QUERY_TIMEOUT"], 10, 64); err == nil && i > 0 {
			s.config.QueryTimeout = time.Duration(i) * time.Second
		}
	}
	if uniqueIndexes := envs["DATABASE_UNIQUE_INDEXES"]; uniqueIndexes != "" {
		if b, err := strconv.ParseBool(uniqueIndexes); err == nil {
			s.config.UniqueIndexes = b
		}
	}
	return nil
}

func (s *mySql) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	dataSourceName := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		s.config.Username, s.config.Password, s.config.Hostname,
		s.config.Port, s.config.Database)
	db, err := sql.Open("mysql", dataSourceName)
	if err != nil {
		return errors.Wrap(err, "initializing mysql client")
	}
	s.DB = db
	s.Info(ctx, "mysql client initialized for database: %s", s.config.Database)
	return nil
}

func (s *mySql) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if s.DB == nil {
		return nil
	}
	if err := s.DB.Close(); err != nil {
		s.Error(ctx, "error while closing sql: %s", err)
	}
	s.DB, s.tablesCreated = nil, false
	return nil
}

func (s *mySql) Ping(ctx context.Context) error {
	db, queryTimeout, _, err := s.connection()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if err := s.createTables(ctx, db); err != nil {
		s.Error(ctx, "error while creating tables: %s", err)
	}
	return nil
}

func (s *mySql) EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error) {
	ctx, cancel, db, err := s.connected(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	id := internal.GenerateId()
	query := fmt.Sprintf(`INSERT INTO %s (id, employee_id, full_name, email, department)
		VALUES (?, ?, ?, ?, ?);`, tableEmployees)
	if _, err := db.ExecContext(ctx, query, id,
		stringValue(employeePartial.EmployeeId),
		stringValue(employeePartial.FullName),
		stringValue(employeePartial.Email),
		stringValue(employeePartial.Department),
	); err != nil {
		return nil, mySqlDuplicateKeyError(err)
	}
	return s.employeeRead(ctx, db, "id", id)
}

func (s *mySql) employeeRead(ctx context.Context, db *sql.DB, column, value string) (*data.Employee, error) {
	query := fmt.Sprintf(`SELECT id, employee_id, full_name, email, department
		FROM %s WHERE %s = ? ORDER BY row_id LIMIT 1;`, tableEmployees, column)
	employee, err := employeeScan(db.QueryRowContext(ctx, query, value).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, data.ErrEmployeeNotFound
		}
		return nil, err
	}
	return employee, nil
}

func (s *mySql) EmployeeRead(ctx context.Context, employeeId string) (*data.Employee, error) {
	ctx, cancel, db, err := s.connected(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return s.employeeRead(ctx, db, "employee_id", employeeId)
}

func (s *mySql) EmployeeReadByEmail(ctx context.Context, email string) (*data.Employee, error) {
	ctx, cancel, db, err := s.connected(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return s.employeeRead(ctx, db, "email", email)
}

func (s *mySql) EmployeesRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	ctx, cancel, db, err := s.connected(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	query := fmt.Sprintf(`SELECT id, employee_id, full_name, email, department
		FROM %s ORDER BY row_id %s;`, tableEmployees, employeePagination(search))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	employees := make([]*data.Employee, 0)
	for rows.Next() {
		employee, err := employeeScan(rows.Scan)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	return employees, rows.Err()
}

func (s *mySql) EmployeeUpdate(ctx context.Context, employeeId string, employeePartial data.EmployeePartial) (*data.Employee, error) {
	var args []any
	var updates []string

	ctx, cancel, db, err := s.connected(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	if employeePartial.FullName != nil {
		args = append(args, *employeePartial.FullName)
		updates = append(updates, "full_name = ?")
	}
	if employeePartial.Email != nil {
		args = append(args, *employeePartial.Email)
		updates = append(updates, "email = ?")
	}
	if employeePartial.Department != nil {
		args = append(args, *employeePartial.Department)
		updates = append(updates, "department = ?")
	}
	if len(updates) > 0 {
		query := fmt.Sprintf("UPDATE %s SET %s WHERE employee_id = ?;", tableEmployees,
			strings.Join(updates, ", "))
		args = append(args, employeeId)
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return nil, mySqlDuplicateKeyError(err)
		}
	}
	return s.employeeRead(ctx, db, "employee_id", employeeId)
}

func (s *mySql) EmployeeDelete(ctx context.Context, employeeId string) error {
	ctx, cancel, db, err := s.connected(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	query := fmt.Sprintf(`DELETE FROM %s WHERE employee_id = ?;`, tableEmployees)
	result, err := db.ExecContext(ctx, query, employeeId)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return data.ErrEmployeeNotFound
	}
	return nil
}

func (s *mySql) AttendanceCreate(ctx context.Context, attendancePartial data.AttendancePartial) (*data.Attendance, error) {
	ctx, cancel, db, err := s.connected(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	date, err := data.ParseDate(stringValue(attendancePartial.Date))
	if err != nil {
		return nil, errors.Wrap(err, "parsing attendance date")
	}
	id := internal.GenerateId()
	query := fmt.Sprintf(`INSERT INTO %s (id, employee_id, date, status)
		VALUES (?, ?, ?, ?);`, tableAttendance)
	if _, err := db.ExecContext(ctx, query, id,
		stringValue(attendancePartial.EmployeeId), date,
		string(statusValue(attendancePartial.Status)),
	); err != nil {
		return nil, mySqlDuplicateKeyError(err)
	}
	return s.attendanceRead(ctx, db, "id = ?", id)
}

func (s *mySql) attendanceRead(ctx context.Context, db *sql.DB, criteria string, args ...any) (*data.Attendance, error) {
	query := fmt.Sprintf(`SELECT id, employee_id, date, status
		FROM %s WHERE %s ORDER BY row_id LIMIT 1;`, tableAttendance, criteria)
	attendance, err := attendanceScan(db.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, data.ErrAttendanceNotFound
		}
		return nil, err
	}
	return attendance, nil
}

func (s *mySql) AttendanceRead(ctx context.Context, attendanceId string) (*data.Attendance, error) {
	ctx, cancel, db, err := s.connected(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return s.attendanceRead(ctx, db, "id = ?", attendanceId)
}

func (s *mySql) AttendanceReadByDate(ctx context.Context, employeeId string, date time.Time) (*data.Attendance, error) {
	ctx, cancel, db, err := s.connected(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return s.attendanceRead(ctx, db, "employee_id = ? AND date = ?", employeeId, date)
}

func (s *mySql) AttendancesSearch(ctx context.Context, search data.AttendanceSearch, limit int) ([]*data.Attendance, error) {
	ctx, cancel, db, err := s.connected(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	criteria, args, err := attendanceCriteria(search)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, employee_id, date, status
		FROM %s %s ORDER BY date DESC, row_id`, tableAttendance, criteria)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := db.QueryContext(ctx, query+";", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	attendances := make([]*data.Attendance, 0)
	for rows.Next() {
		attendance, err := attendanceScan(rows.Scan)
		if err != nil {
			return nil, err
		}
		attendances = append(attendances, attendance)
	}
	return attendances, rows.Err()
}

func (s *mySql) AttendanceUpdate(ctx context.Context, attendanceId string, attendancePartial data.AttendancePartial) (*data.Attendance, error) {
	ctx, cancel, db, err := s.connected(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	if attendancePartial.Status != nil {
		query := fmt.Sprintf("UPDATE %s SET status = ? WHERE id = ?;", tableAttendance)
		if _, err := db.ExecContext(ctx, query, string(*attendancePartial.Status),
			attendanceId); err != nil {
			return nil, err
		}
	}
	return s.attendanceRead(ctx, db, "id = ?", attendanceId)
}

func (s *mySql) AttendanceDelete(ctx context.Context, attendanceId string) error {
	ctx, cancel, db, err := s.connected(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?;`, tableAttendance)
	result, err := db.ExecContext(ctx, query, attendanceId)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return data.ErrAttendanceNotFound
	}
	return nil
}

// mySqlDuplicateKeyError maps a unique key violation (1062) to the conflict
// it represents, the key name is part of the error message.
func mySqlDuplicateKeyError(err error) error {
	var mySqlError *mysql.MySQLError

	if !errors.As(err, &mySqlError) || mySqlError.Number != 1062 {
		return err
	}
	switch message := mySqlError.Message; {
	default:
		return err
	case strings.Contains(message, indexEmployeeIdDate):
		return data.ErrAttendanceExists
	case strings.Contains(message, indexEmail):
		return data.ErrEmailExists
	case strings.Contains(message, indexEmployeeId):
		return data.ErrEmployeeIdExists
	}
}
