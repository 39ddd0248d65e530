package logger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func resetLogger() {
	global = nil
	once = sync.Once{}
}

func TestInit(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{"json info", "info", "json", zapcore.InfoLevel, false},
		{"console debug", "debug", "console", zapcore.DebugLevel, false},
		{"json warn", "warn", "json", zapcore.WarnLevel, false},
		{"invalid level", "loud", "json", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetLogger()
			err := Init(tt.level, tt.format)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantLevel, GetLevel())
		})
	}
}

func TestSetLevel(t *testing.T) {
	resetLogger()
	require.NoError(t, Init("info", "json"))

	require.NoError(t, SetLevel("error"))
	require.Equal(t, zapcore.ErrorLevel, GetLevel())

	require.Error(t, SetLevel("nope"))
}

func TestL_BeforeInitIsNoop(t *testing.T) {
	resetLogger()
	require.NotPanics(t, func() { Info("not initialized") })
	require.NoError(t, Sync())
}
