package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger on rs/zerolog. Every line carries the
// service name and the component that emitted it.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a logger for the component. APP_ENV=dev switches
// to the human console writer, anything else emits JSON.
func NewZerologLogger(component string) Logger {
	z := zerolog.New(rosterWriter()).With().
		Timestamp().
		Str("service", "rosterd").
		Str("component", component).
		Logger()
	return &ZerologLogger{log: z}
}

func rosterWriter() zerolog.LevelWriter {
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		return zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return zerolog.MultiLevelWriter(os.Stdout)
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

// Debugw attaches structured fields, used for per-run solve diagnostics.
func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
