package shuffle

import "fmt"
import "os"
import "strings"
import "time"

import golog "github.com/prataprc/golog"

// Logger is the logging contract used throughout this package. Embedders
// may supply their own implementation via SetLogger; the default
// implementation forwards to golog, the companion logging library this
// protocol's reference transport ships with.
//
//   - default sink is os.Stderr
//   - default level is logLevelInfo
type Logger interface {
	Fatalf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Verbosef(format string, v ...interface{})
	Debugf(format string, v ...interface{})
	Tracef(format string, v ...interface{})
}

type logLevel int

const (
	logLevelIgnore logLevel = iota + 1
	logLevelFatal
	logLevelError
	logLevelWarn
	logLevelInfo
	logLevelVerbose
	logLevelDebug
	logLevelTrace
)

func (l logLevel) String() string {
	switch l {
	case logLevelFatal:
		return "Fatal"
	case logLevelError:
		return "Error"
	case logLevelWarn:
		return "Warn"
	case logLevelInfo:
		return "Info"
	case logLevelVerbose:
		return "Verbose"
	case logLevelDebug:
		return "Debug"
	case logLevelTrace:
		return "Trace"
	}
	return "Ignore"
}

func string2logLevel(s string) logLevel {
	switch strings.ToLower(s) {
	case "ignore":
		return logLevelIgnore
	case "fatal":
		return logLevelFatal
	case "error":
		return logLevelError
	case "warn":
		return logLevelWarn
	case "info":
		return logLevelInfo
	case "verbose":
		return logLevelVerbose
	case "debug":
		return logLevelDebug
	case "trace":
		return logLevelTrace
	}
	return logLevelInfo
}

// DefaultLogger writes timestamped, leveled lines to a file. It is
// installed only through SetLogger (e.g. in tests that want
// deterministic, dependency-free output); the package default stays
// golog-backed.
type DefaultLogger struct {
	level logLevel
	file  *os.File
}

// NewDefaultLogger opens (or creates) path in append mode and returns a
// Logger writing to it at the given level. path of "" logs to os.Stderr.
func NewDefaultLogger(level, path string) *DefaultLogger {
	file := os.Stderr
	if path != "" {
		if fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0660); err == nil {
			file = fd
		}
	}
	return &DefaultLogger{level: string2logLevel(level), file: file}
}

func (l *DefaultLogger) Fatalf(format string, v ...interface{})   { l.printf(logLevelFatal, format, v...) }
func (l *DefaultLogger) Errorf(format string, v ...interface{})   { l.printf(logLevelError, format, v...) }
func (l *DefaultLogger) Warnf(format string, v ...interface{})    { l.printf(logLevelWarn, format, v...) }
func (l *DefaultLogger) Infof(format string, v ...interface{})    { l.printf(logLevelInfo, format, v...) }
func (l *DefaultLogger) Verbosef(format string, v ...interface{}) { l.printf(logLevelVerbose, format, v...) }
func (l *DefaultLogger) Debugf(format string, v ...interface{})   { l.printf(logLevelDebug, format, v...) }
func (l *DefaultLogger) Tracef(format string, v ...interface{})   { l.printf(logLevelTrace, format, v...) }

func (l *DefaultLogger) printf(level logLevel, format string, v ...interface{}) {
	if level > l.level {
		return
	}
	ts := time.Now().Format("2006-01-02T15:04:05.999Z-07:00")
	fmt.Fprintf(l.file, ts+" ["+level.String()+"] "+format, v...)
}

// gologLogger forwards every level to golog's package-level functions.
type gologLogger struct{}

func (gologLogger) Fatalf(format string, v ...interface{})   { golog.Fatalf(format, v...) }
func (gologLogger) Errorf(format string, v ...interface{})   { golog.Errorf(format, v...) }
func (gologLogger) Warnf(format string, v ...interface{})    { golog.Warnf(format, v...) }
func (gologLogger) Infof(format string, v ...interface{})    { golog.Infof(format, v...) }
func (gologLogger) Verbosef(format string, v ...interface{}) { golog.Verbosef(format, v...) }
func (gologLogger) Debugf(format string, v ...interface{})   { golog.Debugf(format, v...) }
func (gologLogger) Tracef(format string, v ...interface{})   { golog.Tracef(format, v...) }

// log is the package-wide sink. Every fatal-kind ProtocolError is
// logged through it at Error level when newProtoErr creates it.
var log Logger = gologLogger{}

// SetLogger overrides the package-wide logger. Passing nil restores the
// golog-backed default.
func SetLogger(l Logger) {
	if l == nil {
		log = gologLogger{}
		return
	}
	log = l
}
