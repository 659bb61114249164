// Package logging provides prefixed, levelled loggers shared by all packages.
// Loggers are gommon loggers (the same implementation echo uses), so server
// request logs and component logs share one format.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"
)

// Header is the text header written before each message.
const Header = "${time_rfc3339} ${level} [${prefix}]"

var (
	mu      sync.Mutex
	loggers []*log.Logger
	level   = log.INFO
	output  io.Writer = os.Stdout
)

// New returns a logger tagged with prefix. Its level and output follow
// SetLevel and SetOutput, including calls made after creation.
func New(prefix string) *log.Logger {
	l := log.New(prefix)
	l.SetHeader(Header)

	mu.Lock()
	defer mu.Unlock()
	l.SetLevel(level)
	l.SetOutput(output)
	loggers = append(loggers, l)
	return l
}

// ParseLevel maps a config level name to a gommon level. Unknown names map to INFO.
func ParseLevel(name string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// SetLevel sets the level of every logger by name ("debug", "info", "warn", "error", "off").
func SetLevel(name string) {
	lvl := ParseLevel(name)

	mu.Lock()
	defer mu.Unlock()
	level = lvl
	for _, l := range loggers {
		l.SetLevel(lvl)
	}
}

// SetOutput redirects every logger to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	for _, l := range loggers {
		l.SetOutput(w)
	}
}

// Capture redirects all loggers to a buffer-like writer and returns a func
// restoring the previous output. Intended for tests.
func Capture(w io.Writer) (restore func()) {
	mu.Lock()
	prev := output
	mu.Unlock()

	SetOutput(w)
	return func() { SetOutput(prev) }
}
