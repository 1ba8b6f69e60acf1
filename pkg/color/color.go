// Package color provides terminal color output for the agentmon CLI.
// It respects the NO_COLOR environment variable (https://no-color.org/).
package color

import (
	"os"
	"sync"
	"sync/atomic"
)

var state struct {
	once       sync.Once
	enabled    atomic.Bool
	overridden atomic.Bool
}

// Init decides from the environment whether to color output. Colors are
// off when NO_COLOR is set, TERM is "dumb" or noColorFlag is true. Only
// the first call has an effect, and none after Enable or Disable.
func Init(noColorFlag bool) {
	state.once.Do(func() {
		if state.overridden.Load() {
			return
		}
		_, noColor := os.LookupEnv("NO_COLOR")
		disabled := noColor || os.Getenv("TERM") == "dumb" || noColorFlag
		state.enabled.Store(!disabled)
	})
}

// Enabled reports whether color output is enabled.
func Enabled() bool {
	Init(false)
	return state.enabled.Load()
}

// Disable turns off color output.
func Disable() {
	state.overridden.Store(true)
	state.enabled.Store(false)
}

// Enable turns on color output.
func Enable() {
	state.overridden.Store(true)
	state.enabled.Store(true)
}

// ANSI codes
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	DimCode = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Cyan    = "\033[36m"
)

func wrap(s string, codes string) string {
	if !Enabled() {
		return s
	}
	return codes + s + Reset
}

// Success formats a success message in green.
func Success(s string) string { return wrap(s, Green) }

// Error formats an error message in red.
func Error(s string) string { return wrap(s, Red) }

// Warning formats a warning message in yellow.
func Warning(s string) string { return wrap(s, Yellow) }

// Info formats an informational message in cyan.
func Info(s string) string { return wrap(s, Cyan) }

// Header formats a header in bold.
func Header(s string) string { return wrap(s, Bold) }

// Dim formats secondary information.
func Dim(s string) string { return wrap(s, DimCode) }

// Code formats command and variable names.
func Code(s string) string { return wrap(s, Bold+DimCode) }
