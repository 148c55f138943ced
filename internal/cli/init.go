package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"

	"github.com/julianstephens/dayring/internal/keyring"
	"github.com/julianstephens/dayring/internal/utils"
)

type InitCmd struct {
	Force   bool `help:"Overwrite an existing env file."`
	NoInput bool `help:"Write the env file from flags and defaults without prompting."`

	DeviceFlags `embed:""`
}

// settings is what the init form collects.
type settings struct {
	URL      string
	Habit    string
	Timezone string
	Capacity string
	Token    string
}

func (c *InitCmd) Run(ctx *Context) error {
	if _, err := os.Stat(ctx.EnvFile); err == nil && !c.Force {
		return fmt.Errorf("%s already exists; use --force to overwrite it", ctx.EnvFile)
	}

	s := settings{
		URL:      c.URL,
		Habit:    c.Habit,
		Timezone: c.Timezone,
		Capacity: strconv.Itoa(c.Capacity),
		Token:    c.Token,
	}
	if !c.NoInput {
		if err := settingsForm(&s).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("Aborted.")
				return nil
			}
			return err
		}
	}
	if err := s.validate(); err != nil {
		return err
	}

	values := s.envValues()
	if s.Token != "" {
		if err := keyring.SetToken(s.Token); err != nil {
			fmt.Println("⚠ OS keyring unavailable; the API token is written to the env file instead.")
			values["DAYRING_TOKEN"] = s.Token
		} else {
			fmt.Println("✓ API token stored in the OS keyring")
		}
	}

	if err := writeEnvFile(ctx.EnvFile, values); err != nil {
		return err
	}
	fmt.Printf("✓ Wrote configuration to %s\n", ctx.EnvFile)
	return nil
}

func settingsForm(s *settings) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Placeholder("https://habits.example.com").
				Value(&s.URL).
				Validate(validateURL),
			huh.NewInput().
				Title("Habit").
				Value(&s.Habit).
				Validate(validateHabit),
			huh.NewInput().
				Title("Timezone").
				Description("IANA name, or Local").
				Value(&s.Timezone).
				Validate(validateTimezone),
			huh.NewInput().
				Title("Days on the ring").
				Value(&s.Capacity).
				Validate(validateCapacity),
			huh.NewInput().
				Title("API token").
				Description("Leave empty for an unauthenticated backend").
				EchoMode(huh.EchoModePassword).
				Value(&s.Token),
		),
	)
}

func (s settings) validate() error {
	return errors.Join(
		validateURL(s.URL),
		validateHabit(s.Habit),
		validateTimezone(s.Timezone),
		validateCapacity(s.Capacity),
	)
}

// envValues holds everything but the token, which goes to the keyring.
func (s settings) envValues() map[string]string {
	return map[string]string{
		"DAYRING_URL":      strings.TrimSpace(s.URL),
		"DAYRING_HABIT":    strings.TrimSpace(s.Habit),
		"DAYRING_TIMEZONE": strings.TrimSpace(s.Timezone),
		"DAYRING_CAPACITY": strings.TrimSpace(s.Capacity),
	}
}

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend URL must look like https://host[:port]")
	}
	return nil
}

func validateHabit(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("habit name cannot be empty")
	}
	return nil
}

func validateTimezone(s string) error {
	if !utils.ValidateTimezone(strings.TrimSpace(s)) {
		return fmt.Errorf("unknown timezone %q", s)
	}
	return nil
}

func validateCapacity(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("days on the ring must be a positive number")
	}
	return nil
}

// writeEnvFile writes values in dotenv format, readable only by the owner.
func writeEnvFile(path string, values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}
