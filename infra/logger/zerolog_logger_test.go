package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("roster")
	require.NotNil(t, l)
	l.Debugf("debug %d", 1)
	l.Debugw("solve", map[string]any{"run_id": "r1"})
	l.Infof("info %s", "ok")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerJSONMode(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	l := NewZerologLogger("optimizer")
	require.NotNil(t, l)
	l.Infof("structured output")
}

func TestNop(t *testing.T) {
	var l Logger = Nop{}
	l.Debugf("debug")
	l.Debugw("debug", nil)
	l.Infof("info")
	l.Warnf("warn")
	l.Errorf("error")
}
