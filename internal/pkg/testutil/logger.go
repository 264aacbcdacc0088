package testutil

import (
	"testing"

	"github.com/MGTheTrain/crypto-providers/internal/pkg/config"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
	"github.com/stretchr/testify/require"
)

// SetupTestLogger returns a console logger scoped to the test. It does not initialize the process-wide logger.
func SetupTestLogger(t *testing.T) logger.Logger {
	t.Helper()

	log, err := logger.NewLogger(&config.LoggerSettings{
		LogLevel: config.LogLevelWarning,
		LogType:  config.LogTypeConsole,
	})
	require.NoError(t, err)

	return log
}
