package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/client"
	"github.com/antonio-alexander/go-hrms-lite/internal/data"
	"github.com/antonio-alexander/go-hrms-lite/internal/utilities"

	"github.com/spf13/cobra"
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

// flags
var (
	correlationId string
	waitTimeout   time.Duration
	skip          int
	limit         int
	employeeId    string
	fullName      string
	email         string
	department    string
	date          string
	dateFrom      string
	dateTo        string
	status        string
)

type clientCommand struct {
	envs   map[string]string
	ctx    context.Context
	logger interface {
		internal.Configurer
		utilities.Logger
	}
	client interface {
		internal.Configurer
		internal.Opener
		client.Client
	}
}

func main() {
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	if err := Main(os.Args[1:], internal.Envs(), osSignal); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func optional(cmd *cobra.Command, flag, value string) *string {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &value
}

func printJson(item any) error {
	bytes, err := json.MarshalIndent(item, "", " ")
	if err != nil {
		return err
	}
	fmt.Println(string(bytes))
	return nil
}

func printAttendances(attendances []*data.Attendance, truncated bool) error {
	if err := printJson(attendances); err != nil {
		return err
	}
	if truncated {
		fmt.Printf("results truncated to %d records\n", data.AttendanceLimit)
	}
	return nil
}

func (c *clientCommand) open(cmd *cobra.Command, args []string) error {
	if err := c.logger.Configure(c.envs); err != nil {
		return err
	}
	if err := c.client.Configure(c.envs); err != nil {
		return err
	}
	if correlationId != "" {
		c.ctx = internal.CtxWithCorrelationId(c.ctx, correlationId)
	}
	return c.client.Open(c.ctx)
}

func (c *clientCommand) close(cmd *cobra.Command, args []string) error {
	return c.client.Close(context.Background())
}

func (c *clientCommand) employeeCommands() *cobra.Command {
	employeeCmd := &cobra.Command{
		Use:   "employee",
		Short: "Create, read, update and delete employees",
	}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			employee, err := c.client.EmployeeCreate(c.ctx, data.EmployeePartial{
				EmployeeId: optional(cmd, "employee-id", employeeId),
				FullName:   optional(cmd, "full-name", fullName),
				Email:      optional(cmd, "email", email),
				Department: optional(cmd, "department", department),
			})
			if err != nil {
				return err
			}
			return printJson(employee)
		},
	}
	createCmd.Flags().StringVar(&employeeId, "employee-id", "", "unique employee id")
	createCmd.Flags().StringVar(&fullName, "full-name", "", "full name")
	createCmd.Flags().StringVar(&email, "email", "", "email address")
	createCmd.Flags().StringVar(&department, "department", "", "department")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			employees, err := c.client.EmployeesRead(c.ctx, data.EmployeeSearch{
				Skip:  skip,
				Limit: limit,
			})
			if err != nil {
				return err
			}
			return printJson(employees)
		},
	}
	listCmd.Flags().IntVar(&skip, "skip", data.DefaultEmployeesSkip, "number of employees to skip")
	listCmd.Flags().IntVar(&limit, "limit", data.DefaultEmployeesLimit, "maximum number of employees, zero is no limit")

	getCmd := &cobra.Command{
		Use:   "get <employee_id>",
		Short: "Read an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			employee, err := c.client.EmployeeRead(c.ctx, args[0])
			if err != nil {
				return err
			}
			return printJson(employee)
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update <employee_id>",
		Short: "Update the supplied fields of an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			employee, err := c.client.EmployeeUpdate(c.ctx, args[0], data.EmployeePartial{
				FullName:   optional(cmd, "full-name", fullName),
				Email:      optional(cmd, "email", email),
				Department: optional(cmd, "department", department),
			})
			if err != nil {
				return err
			}
			return printJson(employee)
		},
	}
	updateCmd.Flags().StringVar(&fullName, "full-name", "", "full name")
	updateCmd.Flags().StringVar(&email, "email", "", "email address")
	updateCmd.Flags().StringVar(&department, "department", "", "department")

	deleteCmd := &cobra.Command{
		Use:   "delete <employee_id>",
		Short: "Delete an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.client.EmployeeDelete(c.ctx, args[0])
		},
	}
	employeeCmd.AddCommand(createCmd, listCmd, getCmd, updateCmd, deleteCmd)
	return employeeCmd
}

func (c *clientCommand) attendanceCommands() *cobra.Command {
	attendanceCmd := &cobra.Command{
		Use:   "attendance",
		Short: "Mark, list, update and delete attendance",
	}
	markCmd := &cobra.Command{
		Use:   "mark",
		Short: "Mark attendance for an employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var attendanceStatus *data.AttendanceStatus

			if cmd.Flags().Changed("status") {
				s := data.AttendanceStatus(status)
				attendanceStatus = &s
			}
			attendance, err := c.client.AttendanceCreate(c.ctx, data.AttendancePartial{
				EmployeeId: optional(cmd, "employee-id", employeeId),
				Date:       optional(cmd, "date", date),
				Status:     attendanceStatus,
			})
			if err != nil {
				return err
			}
			return printJson(attendance)
		},
	}
	markCmd.Flags().StringVar(&employeeId, "employee-id", "", "employee id")
	markCmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD)")
	markCmd.Flags().StringVar(&status, "status", "", "present or absent")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List attendance, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			attendances, truncated, err := c.client.AttendancesRead(c.ctx, data.AttendanceSearch{
				EmployeeId: employeeId,
				DateFrom:   dateFrom,
				DateTo:     dateTo,
			})
			if err != nil {
				return err
			}
			return printAttendances(attendances, truncated)
		},
	}
	listCmd.Flags().StringVar(&employeeId, "employee-id", "", "filter by employee id")
	listCmd.Flags().StringVar(&dateFrom, "date-from", "", "inclusive lower bound (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&dateTo, "date-to", "", "inclusive upper bound (YYYY-MM-DD)")

	employeeCmd := &cobra.Command{
		Use:   "employee <employee_id>",
		Short: "List the attendance of an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attendances, truncated, err := c.client.AttendancesReadByEmployee(c.ctx, args[0])
			if err != nil {
				return err
			}
			return printAttendances(attendances, truncated)
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update <attendance_id>",
		Short: "Update the status of an attendance record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attendanceStatus := data.AttendanceStatus(status)
			attendance, err := c.client.AttendanceUpdate(c.ctx, args[0], data.AttendancePartial{
				Status: &attendanceStatus,
			})
			if err != nil {
				return err
			}
			return printJson(attendance)
		},
	}
	updateCmd.Flags().StringVar(&status, "status", "", "present or absent")
	_ = updateCmd.MarkFlagRequired("status")

	deleteCmd := &cobra.Command{
		Use:   "delete <attendance_id>",
		Short: "Delete an attendance record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.client.AttendanceDelete(c.ctx, args[0])
		},
	}
	attendanceCmd.AddCommand(markCmd, listCmd, employeeCmd, updateCmd, deleteCmd)
	return attendanceCmd
}

func (c *clientCommand) operationCommands() []*cobra.Command {
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Read the health of the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var health *data.Health
			var err error

			switch {
			default:
				health, err = c.client.Health(c.ctx)
			case waitTimeout > 0:
				health, err = c.client.WaitHealthy(c.ctx, waitTimeout)
			}
			if err != nil {
				return err
			}
			return printJson(health)
		},
	}
	healthCmd.Flags().DurationVar(&waitTimeout, "wait", 0, "wait up to this long for the service to be healthy")

	rootMessageCmd := &cobra.Command{
		Use:   "ping",
		Short: "Read the root message of the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := c.client.Root(c.ctx)
			if err != nil {
				return err
			}
			return printJson(message)
		},
	}

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Clear the service cache and read or clear its counters",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Clear the service cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.client.CacheClear(c.ctx)
		},
	}, &cobra.Command{
		Use:   "counters",
		Short: "Read the cache hit/miss counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cacheCounters, err := c.client.CacheCountersRead(c.ctx)
			if err != nil {
				return err
			}
			return printJson(cacheCounters)
		},
	}, &cobra.Command{
		Use:   "counters-clear",
		Short: "Reset the cache hit/miss counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.client.CacheCountersClear(c.ctx)
		},
	})

	timersCmd := &cobra.Command{
		Use:   "timers",
		Short: "Read or clear the request timers",
	}
	timersCmd.AddCommand(&cobra.Command{
		Use:   "read",
		Short: "Read the request timers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			timers, err := c.client.TimersRead(c.ctx)
			if err != nil {
				return err
			}
			return printJson(timers)
		},
	}, &cobra.Command{
		Use:   "clear",
		Short: "Clear the request timers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.client.TimersClear(c.ctx)
		},
	})
	return []*cobra.Command{healthCmd, rootMessageCmd, cacheCmd, timersCmd}
}

func Main(args []string, envs map[string]string, osSignal chan os.Signal) error {
	var wg sync.WaitGroup

	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer func() {
		cancel()
		wg.Wait()
	}()

	logger := utilities.NewLogger()
	c := &clientCommand{
		envs:   envs,
		ctx:    ctx,
		logger: logger,
		client: client.NewClient(logger),
	}
	rootCmd := &cobra.Command{
		Use:                "hrms-lite",
		Short:              "Client for the hrms-lite api",
		Long:               `Manages employees and their attendance through the hrms-lite api; the service is located with CLIENT_ADDRESS, CLIENT_PORT and CLIENT_PROTOCOL.`,
		SilenceUsage:       true,
		PersistentPreRunE:  c.open,
		PersistentPostRunE: c.close,
	}
	rootCmd.PersistentFlags().StringVar(&correlationId, "correlation-id", "", "correlation id sent with each request")
	rootCmd.AddCommand(c.employeeCommands(), c.attendanceCommands())
	rootCmd.AddCommand(c.operationCommands()...)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		//the version doesn't need a connection
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hrms-lite v%s (%s) built from: %s\n", Version, GitCommit, GitBranch)
		},
	})
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
