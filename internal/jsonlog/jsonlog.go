package jsonlog

import (
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

// Level represents the severity level of a log entry.
type Level int8

const (
	LevelInfo Level = iota
	LevelError
	LevelFatal
	LevelOff
)

// String translates the level numbers into a human-readable representation.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return ""
	}
}

// ParseLevel maps a level name onto a Level, falling back to LevelInfo for unknown names.
func ParseLevel(name string) Level {
	for l := LevelInfo; l < LevelOff; l++ {
		if l.String() == name {
			return l
		}
	}
	if name == "OFF" {
		return LevelOff
	}
	return LevelInfo
}

// severity returns the logrus level an entry at l is written with.
func (l Level) severity() logrus.Level {
	switch l {
	case LevelError:
		return logrus.ErrorLevel
	case LevelFatal:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger writes one JSON object per entry. The underlying logrus logger serializes concurrent writes.
type Logger struct {
	entries  *logrus.Logger
	minLevel Level // Minimum severity level.
}

// New returns a Logger that writes to the given destination. Its logs will have a severity level at or above the given value.
func New(out io.Writer, minLevel Level) *Logger {
	entries := logrus.New()
	entries.SetOutput(out)
	entries.SetLevel(logrus.InfoLevel)
	entries.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg: "message",
		},
	})
	entries.ExitFunc = os.Exit

	return &Logger{
		entries:  entries,
		minLevel: minLevel,
	}
}

// Helper functions to print at the predefined levels. The properties argument allows for arbitrary data to be attached to the log.

func (l *Logger) PrintInfo(message string, properties map[string]string) {
	l.print(LevelInfo, message, properties)
}

func (l *Logger) PrintError(err error, properties map[string]string) {
	l.print(LevelError, err.Error(), properties)
}

func (l *Logger) PrintFatal(err error, properties map[string]string) {
	l.print(LevelFatal, err.Error(), properties)
	l.entries.Exit(1) // For entries at the FATAL level, we also terminate the application.
}

func (l *Logger) print(level Level, message string, properties map[string]string) {
	if level < l.minLevel {
		return
	}

	fields := logrus.Fields{}
	if len(properties) > 0 {
		fields["properties"] = properties
	}
	// Include a stack trace for entries at the ERROR and FATAL levels.
	if level >= LevelError {
		fields["trace"] = string(debug.Stack())
	}

	// Log never exits, even at fatal severity; PrintFatal handles the exit itself.
	l.entries.WithTime(time.Now().UTC()).WithFields(fields).Log(level.severity(), message)
}

// Write satisfies the io.Writer interface. Logs written with Write will always be at the ERROR level, and won't have any additional properties.
func (l *Logger) Write(message []byte) (n int, err error) {
	l.print(LevelError, string(message), nil)
	return len(message), nil
}
