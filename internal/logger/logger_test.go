package logger

import (
	"os"
	"path/filepath"
	"testing"

	"induction-portal/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_BeforeInitializeIsUsable(t *testing.T) {
	assert.NotNil(t, Get())
	Get().Info("noop logger accepts writes")
}

func TestInitialize(t *testing.T) {
	t.Run("development console", func(t *testing.T) {
		require.NoError(t, Initialize(config.LoggerConfig{Level: "debug", Env: "development"}))
		assert.True(t, Get().Core().Enabled(-1))
	})

	t.Run("invalid level", func(t *testing.T) {
		assert.Error(t, Initialize(config.LoggerConfig{Level: "loud"}))
	})

	t.Run("rotating file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		require.NoError(t, Initialize(config.LoggerConfig{
			Level:      "info",
			Env:        "production",
			File:       path,
			MaxSizeMB:  1,
			MaxBackups: 1,
			MaxAgeDays: 1,
		}))
		Get().Info("written to file")
		_ = Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "written to file")
	})
}
