package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	}
	return "?"
}

func (l Level) color() string {
	switch l {
	case DEBUG:
		return "\033[36m"
	case INFO:
		return "\033[32m"
	case WARN:
		return "\033[33m"
	case ERROR:
		return "\033[31m"
	case FATAL:
		return "\033[35m"
	}
	return ""
}

const reset = "\033[0m"

// Logger is a minimal leveled logger with a per-component service tag.
// Level comes from LOG_LEVEL, colors can be disabled with LOG_COLORS=false.
type Logger struct {
	level     Level
	out       io.Writer
	service   string
	useColors bool
}

func New(service string) *Logger {
	level := INFO
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		level = DEBUG
	case "WARN":
		level = WARN
	case "ERROR":
		level = ERROR
	case "FATAL":
		level = FATAL
	}

	return &Logger{
		level:     level,
		out:       os.Stdout,
		service:   service,
		useColors: os.Getenv("LOG_COLORS") != "false",
	}
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	var buf strings.Builder
	buf.WriteString(time.Now().Format("15:04:05"))
	buf.WriteString(" ")

	if l.useColors {
		buf.WriteString(level.color())
	}
	fmt.Fprintf(&buf, "%-5s", level)
	if l.useColors {
		buf.WriteString(reset)
	}

	if l.service != "" {
		buf.WriteString(" [")
		buf.WriteString(l.service)
		buf.WriteString("]")
	}
	buf.WriteString(" ")
	fmt.Fprintf(&buf, format, args...)

	fmt.Fprintln(l.out, buf.String())

	if level == FATAL {
		os.Exit(1)
	}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }
func (l *Logger) Fatal(format string, args ...interface{}) { l.log(FATAL, format, args...) }
