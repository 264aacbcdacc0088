//go:build unit
// +build unit

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileLoggerSettings() *LoggerSettings {
	return &LoggerSettings{
		LogLevel:   LogLevelInfo,
		LogType:    LogTypeFile,
		FilePath:   "/var/log/crypto-providers/rest.log",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
}

func TestLoggerSettingsValidation(t *testing.T) {
	tests := []struct {
		name          string
		settings      func() *LoggerSettings
		expectedError string
	}{
		{
			name: "valid console logger",
			settings: func() *LoggerSettings {
				return &LoggerSettings{LogLevel: LogLevelInfo, LogType: LogTypeConsole}
			},
		},
		{
			name:     "valid file logger with rotation",
			settings: fileLoggerSettings,
		},
		{
			name: "critical level",
			settings: func() *LoggerSettings {
				return &LoggerSettings{LogLevel: LogLevelCritical, LogType: LogTypeConsole}
			},
		},
		{
			name: "warning level",
			settings: func() *LoggerSettings {
				return &LoggerSettings{LogLevel: LogLevelWarning, LogType: LogTypeConsole}
			},
		},
		{
			name: "warn is not an accepted spelling",
			settings: func() *LoggerSettings {
				return &LoggerSettings{LogLevel: "warn", LogType: LogTypeConsole}
			},
			expectedError: "validation failed for LoggerSettings",
		},
		{
			name: "missing log level",
			settings: func() *LoggerSettings {
				return &LoggerSettings{LogType: LogTypeConsole}
			},
			expectedError: "validation failed for LoggerSettings",
		},
		{
			name: "missing log type",
			settings: func() *LoggerSettings {
				return &LoggerSettings{LogLevel: LogLevelInfo}
			},
			expectedError: "validation failed for LoggerSettings",
		},
		{
			name: "invalid log type",
			settings: func() *LoggerSettings {
				return &LoggerSettings{LogLevel: LogLevelInfo, LogType: "syslog"}
			},
			expectedError: "validation failed for LoggerSettings",
		},
		{
			name: "file logger missing file path",
			settings: func() *LoggerSettings {
				s := fileLoggerSettings()
				s.FilePath = ""
				return s
			},
			expectedError: "file path is required",
		},
		{
			name: "file logger missing rotation settings",
			settings: func() *LoggerSettings {
				return &LoggerSettings{LogLevel: LogLevelInfo, LogType: LogTypeFile, FilePath: "/tmp/rest.log"}
			},
			expectedError: "max size must be between 1 and 100 MB",
		},
		{
			name: "file logger max size too large",
			settings: func() *LoggerSettings {
				s := fileLoggerSettings()
				s.MaxSize = MaxLogFileSizeMB + 1
				return s
			},
			expectedError: "max size must be between 1 and 100 MB",
		},
		{
			name: "file logger too many backups",
			settings: func() *LoggerSettings {
				s := fileLoggerSettings()
				s.MaxBackups = MaxLogBackups + 1
				return s
			},
			expectedError: "max backups must be between 1 and 10",
		},
		{
			name: "file logger max age too long",
			settings: func() *LoggerSettings {
				s := fileLoggerSettings()
				s.MaxAge = MaxLogAgeDays + 1
				return s
			},
			expectedError: "max age must be between 1 and 365 days",
		},
		{
			name: "file logger at rotation bounds",
			settings: func() *LoggerSettings {
				s := fileLoggerSettings()
				s.MaxSize, s.MaxBackups, s.MaxAge = MaxLogFileSizeMB, MaxLogBackups, MaxLogAgeDays
				return s
			},
		},
		{
			name: "console logger ignores rotation settings",
			settings: func() *LoggerSettings {
				s := fileLoggerSettings()
				s.LogType = LogTypeConsole
				s.MaxSize = 0
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings().Validate()

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoggerSettingsValidation_NormalizesCase(t *testing.T) {
	settings := &LoggerSettings{LogLevel: " DEBUG ", LogType: "Console"}

	require.NoError(t, settings.Validate())
	assert.Equal(t, LogLevelDebug, settings.LogLevel)
	assert.Equal(t, LogTypeConsole, settings.LogType)
}
