package config

// Log levels accepted in logger.log_level. critical is logged at error severity.
const (
	LogLevelInfo     = "info"
	LogLevelDebug    = "debug"
	LogLevelError    = "error"
	LogLevelWarning  = "warning"
	LogLevelCritical = "critical"
)

// Log type constants
const (
	LogTypeConsole = "console"
	LogTypeFile    = "file"
)

// Upper bounds of the file logger rotation settings
const (
	MaxLogFileSizeMB = 100
	MaxLogBackups    = 10
	MaxLogAgeDays    = 365
)
