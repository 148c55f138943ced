package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/dayring/internal/constants"
	"github.com/julianstephens/dayring/internal/gateway"
	"github.com/julianstephens/dayring/internal/keyring"
	"github.com/julianstephens/dayring/internal/logger"
	"github.com/julianstephens/dayring/internal/utils"
)

// Context is handed to every command's Run method.
type Context struct {
	ConfigDir string
	EnvFile   string
	Debug     bool
}

func (c *Context) LockPath() string {
	return filepath.Join(c.ConfigDir, constants.LockfileName)
}

// Vars feeds the ${...} defaults in the command structs.
func Vars() kong.Vars {
	return kong.Vars{
		"version":       constants.Version,
		"config_dir":    constants.DefaultConfigDir,
		"habit":         constants.DefaultHabit,
		"capacity":      strconv.Itoa(constants.DefaultCapacity),
		"timezone":      constants.DefaultTimezone,
		"timeout":       constants.DefaultRequestTimeout.String(),
		"sync_interval": strconv.Itoa(constants.DefaultSyncInterval),
		"rollover_hour": strconv.Itoa(constants.DefaultRolloverHour),
		"quiet_start":   strconv.Itoa(constants.DefaultQuietStart),
		"quiet_end":     strconv.Itoa(constants.DefaultQuietEnd),
		"quiet_pause":   strconv.Itoa(constants.DefaultQuietPause),
		"presence":      constants.DefaultPresenceTimeout.String(),
		"listen_addr":   constants.DefaultListenAddr,
		"backup_hour":   strconv.Itoa(constants.DefaultBackupHour),
	}
}

// EnvFilePath returns $DAYRING_ENV_FILE or the default env file under the
// user's config dir.
func EnvFilePath() string {
	if p := os.Getenv(constants.EnvFileVar); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return constants.DefaultEnvFileName
	}
	return filepath.Join(home, ".config", constants.AppName, constants.DefaultEnvFileName)
}

// LoadEnvFile exports the file's variables without overriding ones that
// are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// DeviceFlags are shared by every command that talks to the backend as
// the device.
type DeviceFlags struct {
	URL      string        `name:"url" help:"Backend base URL." env:"DAYRING_URL"`
	Token    string        `help:"API token. Falls back to the OS keyring." env:"DAYRING_TOKEN"`
	Habit    string        `help:"Habit to track." default:"${habit}" env:"DAYRING_HABIT"`
	Capacity int           `help:"Days shown on the ring." default:"${capacity}" env:"DAYRING_CAPACITY"`
	Timezone string        `help:"IANA timezone that decides when a day starts." default:"${timezone}" env:"DAYRING_TIMEZONE"`
	Timeout  time.Duration `help:"Per-request timeout." default:"${timeout}" env:"DAYRING_TIMEOUT"`
	Insecure bool          `help:"Skip TLS verification for self-signed backends." env:"DAYRING_INSECURE"`
}

func (f DeviceFlags) check() error {
	if f.URL == "" {
		return errors.New("no backend URL configured; pass --url, set DAYRING_URL or run 'dayring init'")
	}
	if f.Habit == "" {
		return errors.New("habit name cannot be empty")
	}
	if f.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1, got %d", f.Capacity)
	}
	if f.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", f.Timeout)
	}
	if _, err := utils.LoadLocation(f.Timezone); err != nil {
		return err
	}
	return nil
}

func (f DeviceFlags) location() (*time.Location, error) {
	return utils.LoadLocation(f.Timezone)
}

// resolveToken prefers the flag/environment value and falls back to the
// keyring. No token at all is allowed for unauthenticated backends.
func (f DeviceFlags) resolveToken() string {
	if f.Token != "" {
		return f.Token
	}
	token, err := keyring.GetToken()
	switch {
	case err == nil:
		return token
	case errors.Is(err, keyring.ErrNotFound):
		logger.Debug("no API token in keyring")
	default:
		logger.Warn("could not read API token from keyring", "err", err)
	}
	return ""
}

func (f DeviceFlags) gateway() (*gateway.HTTPGateway, error) {
	return gateway.NewHTTP(gateway.HTTPConfig{
		BaseURL:            f.URL,
		Token:              f.resolveToken(),
		Timeout:            f.Timeout,
		InsecureSkipVerify: f.Insecure,
	})
}
