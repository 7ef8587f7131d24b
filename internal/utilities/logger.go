package utilities

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/antonio-alexander/go-hrms-lite/internal"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogMaxSizeMB  = 50
	defaultLogMaxBackups = 5
	defaultLogMaxAgeDays = 30
	logTimeFormat        = "2006-01-02 15:04:05"
)

type logger struct {
	sync.RWMutex
	log    zerolog.Logger
	out    io.Writer
	config struct {
		Level      Level
		File       string
		Format     string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
}

type Level int

const (
	Error Level = 1
	Info  Level = 2
	Debug Level = 3
	Trace Level = 4
)

func (l Level) String() string {
	switch l {
	default:
		return ""
	case Error:
		return "error"
	case Info:
		return "info"
	case Debug:
		return "debug"
	case Trace:
		return "trace"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	default:
		return zerolog.ErrorLevel
	case Info:
		return zerolog.InfoLevel
	case Debug:
		return zerolog.DebugLevel
	case Trace:
		return zerolog.TraceLevel
	}
}

type Logger interface {
	Error(ctx context.Context, format string, v ...any)
	Info(ctx context.Context, format string, v ...any)
	Debug(ctx context.Context, format string, v ...any)
	Trace(ctx context.Context, format string, v ...any)
}

func atoLogLevel(a string) Level {
	switch strings.ToLower(a) {
	default:
		return Error
	case "info":
		return Info
	case "debug":
		return Debug
	case "trace":
		return Trace
	}
}

// NewLogger creates a logger that writes to stdout, an io.Writer can be
// provided to write somewhere else instead (e.g. in tests).
func NewLogger(parameters ...any) interface {
	internal.Configurer
	Logger
} {
	l := &logger{}
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case io.Writer:
			l.out = v
		}
	}
	l.config.Level = Error
	l.config.MaxSizeMB = defaultLogMaxSizeMB
	l.config.MaxBackups = defaultLogMaxBackups
	l.config.MaxAgeDays = defaultLogMaxAgeDays
	l.log = zerolog.New(l.output()).Level(l.config.Level.zerolog()).
		With().Timestamp().Logger()
	return l
}

func (l *logger) output() io.Writer {
	switch {
	case l.out != nil:
		return l.out
	case l.config.Format == "json":
		return os.Stdout
	default:
		return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: logTimeFormat}
	}
}

func (l *logger) Configure(envs map[string]string) error {
	l.Lock()
	defer l.Unlock()

	l.config.Level = Error
	if logLevel, ok := envs["LOG_LEVEL"]; ok {
		l.config.Level = atoLogLevel(logLevel)
	}
	if logFile := envs["LOG_FILE"]; logFile != "" {
		l.config.File = logFile
	}
	if logFormat := envs["LOG_FORMAT"]; logFormat != "" {
		l.config.Format = strings.ToLower(logFormat)
	}
	if s := envs["LOG_MAX_SIZE_MB"]; s != "" {
		if i, err := strconv.Atoi(s); err == nil && i > 0 {
			l.config.MaxSizeMB = i
		}
	}
	if s := envs["LOG_MAX_BACKUPS"]; s != "" {
		if i, err := strconv.Atoi(s); err == nil && i >= 0 {
			l.config.MaxBackups = i
		}
	}
	if s := envs["LOG_MAX_AGE_DAYS"]; s != "" {
		if i, err := strconv.Atoi(s); err == nil && i >= 0 {
			l.config.MaxAgeDays = i
		}
	}
	out := l.output()
	if l.config.File != "" {
		if err := os.MkdirAll(filepath.Dir(l.config.File), 0o755); err != nil {
			return err
		}
		var fileOut io.Writer = &lumberjack.Logger{
			Filename:   l.config.File,
			MaxSize:    l.config.MaxSizeMB,
			MaxBackups: l.config.MaxBackups,
			MaxAge:     l.config.MaxAgeDays,
			Compress:   true,
		}
		if l.config.Format != "json" {
			fileOut = zerolog.ConsoleWriter{Out: fileOut, TimeFormat: logTimeFormat, NoColor: true}
		}
		out = zerolog.MultiLevelWriter(out, fileOut)
	}
	l.log = zerolog.New(out).Level(l.config.Level.zerolog()).
		With().Timestamp().Logger()
	return nil
}

func (l *logger) printf(ctx context.Context, level Level, format string, v ...any) {
	l.RLock()
	defer l.RUnlock()

	event := l.log.WithLevel(level.zerolog())
	if correlationId := internal.CorrelationIdFromCtx(ctx); correlationId != "" {
		event = event.Str("correlation_id", correlationId)
	}
	event.Msgf(format, v...)
}

func (l *logger) Error(ctx context.Context, format string, v ...any) {
	l.printf(ctx, Error, format, v...)
}

func (l *logger) Info(ctx context.Context, format string, v ...any) {
	l.printf(ctx, Info, format, v...)
}

func (l *logger) Debug(ctx context.Context, format string, v ...any) {
	l.printf(ctx, Debug, format, v...)
}

func (l *logger) Trace(ctx context.Context, format string, v ...any) {
	l.printf(ctx, Trace, format, v...)
}
