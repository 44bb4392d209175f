package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brizzai/space/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		wantErr bool
	}{
		{name: "defaults", cfg: config.LoggingConfig{}},
		{name: "json", cfg: config.LoggingConfig{Level: "debug", Format: "json"}},
		{name: "bad level", cfg: config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: config.LoggingConfig{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "space.log")
	l, err := NewLogger(&config.LoggingConfig{
		Format:         "json",
		OutputPath:     path,
		DisableConsole: true,
	})
	require.NoError(t, err)

	l.Info("hello")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestReplaceGlobal(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := ReplaceGlobal(zap.New(core))

	Info("stored", zap.String("key", "a"))
	Debug("dropped")

	restore()
	Info("after restore")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "stored", entry.Message)
	assert.Equal(t, "a", entry.ContextMap()["key"])
}
