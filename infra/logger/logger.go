// Package logger adapts the core logging contract onto zerolog.
package logger

import corelogger "github.com/medrota/rosterd/core/logger"

// Logger re-exports the core contract so callers wire one import.
type Logger = corelogger.Logger

// Nop re-exports the discard logger for tests and optional wiring.
type Nop = corelogger.Nop

// New returns the production logger for the component. Output format follows
// APP_ENV, see NewZerologLogger.
func New(component string) Logger {
	return NewZerologLogger(component)
}
