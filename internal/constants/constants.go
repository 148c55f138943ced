package constants

import "time"

const (
	AppName            = "dayring"
	Version            = "v0.1.0"
	DefaultConfigDir   = "~/.config/dayring"
	DefaultEnvFileName = "dayring.env"
	EnvFileVar         = "DAYRING_ENV_FILE"

	// DateFormat is the calendar date format used for slot dates (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Keyring entries
	KeyringTokenUser      = "api-token"
	KeyringConnectionUser = "database-connection"

	// Device defaults
	DefaultHabit           = "meditation"
	DefaultCapacity        = 60
	DefaultSyncInterval    = 15 // minutes
	DefaultRolloverHour    = 3
	DefaultQuietStart      = 21
	DefaultQuietEnd        = 7
	DefaultQuietPause      = 30 // minutes
	DefaultTimezone        = "Local"
	DefaultRequestTimeout  = 10 * time.Second
	DefaultPresenceTimeout = 30 * time.Second

	// Backend defaults
	DefaultListenAddr  = ":8080"
	BackendDBName      = "backend.db"
	DefaultBackupHour  = 4
	StreakWindowDays   = 90
	MaxHistoryCount    = 366
	MaxDatesPerRequest = 366

	LockfileName = "dayring.lock"
)
