// Package debug provides conditional debug logging for chronarc.
//
// Debug logging is enabled by setting the CHRONARC_DEBUG environment variable:
//
//	CHRONARC_DEBUG=1 chronarc segments
//
// When enabled, debug messages are written to stderr with timestamps.
// When disabled (default), all debug functions are no-ops.
//
// Usage:
//
//	func myFunc() {
//	    defer debug.LogEnterExit("myFunc")()
//	    debug.Log("processing %d events", count)
//	}
package debug

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// EnvVar enables debug output when set to any non-empty value.
const EnvVar = "CHRONARC_DEBUG"

var (
	enabled atomic.Bool
	logger  = newLogger(os.Stderr)
)

func init() {
	if os.Getenv(EnvVar) != "" {
		enabled.Store(true)
	}
}

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000000",
		DisableQuote:    true,
	})
	return l
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// SetOutput redirects debug output, mainly for tests.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Logger exposes the underlying logger for callers that want fields.
func Logger() *logrus.Logger {
	return logger
}

// Log writes a debug message if debug logging is enabled.
func Log(format string, args ...any) {
	if !Enabled() {
		return
	}
	logger.Debugf(format, args...)
}

// Warn always writes, regardless of the debug flag.
func Warn(format string, args ...any) {
	logger.Warnf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !Enabled() {
		return
	}
	logger.WithField("took", d).Debug(name)
}

// LogIf writes a debug message only if the condition is true.
func LogIf(cond bool, format string, args ...any) {
	if !Enabled() || !cond {
		return
	}
	logger.Debugf(format, args...)
}

// LogEnterExit logs function entry and exit with timing.
//
//	defer debug.LogEnterExit("myFunc")()
func LogEnterExit(name string) func() {
	if !Enabled() {
		return func() {}
	}
	logger.Debugf("-> %s", name)
	start := time.Now()
	return func() {
		logger.WithField("took", time.Since(start)).Debugf("<- %s", name)
	}
}

// Dump logs a value with its type for debugging complex structures.
func Dump(name string, v any) {
	if !Enabled() {
		return
	}
	logger.Debugf("%s: %T = %+v", name, v, v)
}

// Section logs a section header for visual organization in debug output.
func Section(name string) {
	if !Enabled() {
		return
	}
	logger.Debugf("=== %s ===", name)
}
