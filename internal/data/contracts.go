package data

const (
	RouteRoot                 string = "/"
	RouteHealth               string = "/health"
	RouteApi                  string = "/api"
	RouteEmployees            string = RouteApi + "/employees"
	RouteEmployeesEmployeeId  string = RouteEmployees + "/{" + PathEmployeeId + "}"
	RouteEmployeesEmployeeIdf string = RouteEmployees + "/%s"
	RouteAttendance           string = RouteApi + "/attendance"
	RouteAttendanceEmployee   string = RouteAttendance + "/employee/{" + PathEmployeeId + "}"
	RouteAttendanceEmployeef  string = RouteAttendance + "/employee/%s"
	RouteAttendanceId         string = RouteAttendance + "/{" + PathAttendanceId + "}"
	RouteAttendanceIdf        string = RouteAttendance + "/%s"
	RouteCache                string = "/cache"
	RouteCacheCounters        string = RouteCache + "/counters"
	RouteTimers               string = "/timers"
)

const (
	PathEmployeeId   string = "employee_id"
	PathAttendanceId string = "attendance_id"
)

const (
	ParameterSkip       string = "skip"
	ParameterLimit      string = "limit"
	ParameterEmployeeId string = "employee_id"
	ParameterDateFrom   string = "date_from"
	ParameterDateTo     string = "date_to"
)

// HeaderResultTruncated is set on attendance listings when more records
// matched than AttendanceLimit.
const HeaderResultTruncated string = "X-Result-Truncated"

const (
	DefaultEmployeesSkip  int = 0
	DefaultEmployeesLimit int = 100
	AttendanceLimit       int = 1000
)

type Message struct {
	Message string `json:"message"`
}

const (
	HealthStatusRunning  string = "running"
	HealthStatusHealthy  string = "healthy"
	HealthStatusDegraded string = "degraded"

	HealthDatabaseDisconnected     string = "disconnected"
	HealthDatabaseConnected        string = "connected"
	HealthDatabaseConnectionFailed string = "connection failed"
)

type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Detail string       `json:"detail"`
	Errors []FieldError `json:"errors,omitempty"`
}
