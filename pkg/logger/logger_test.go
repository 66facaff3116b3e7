package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLevels(t *testing.T) {
	t.Cleanup(func() { log = zap.NewNop().Sugar() })

	tests := []struct {
		name  string
		level string
		want  zapcore.Level
	}{
		{"debug", "debug", zapcore.DebugLevel},
		{"warn", "warn", zapcore.WarnLevel},
		{"unknown falls back to info", "loud", zapcore.InfoLevel},
		{"empty falls back to info", "", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Init(tt.level, "test")
			assert.True(t, Zap().Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, Zap().Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestWithKeepsFields(t *testing.T) {
	child := With("box_id", "b1")
	assert.NotNil(t, child)
	child.Infow("no-op before Init")
}
