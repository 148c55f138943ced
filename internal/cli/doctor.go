package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/julianstephens/dayring/internal/gateway"
	"github.com/julianstephens/dayring/internal/lockfile"
	"github.com/julianstephens/dayring/internal/utils"
)

type DoctorCmd struct {
	DeviceFlags `embed:""`
}

type diagnostic struct {
	name string
	run  func() (string, error)
	// warnOnly failures are reported but do not fail the command
	warnOnly bool
}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	for _, c := range cmd.checks(ctx) {
		detail, err := c.run()
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
			if detail != "" {
				fmt.Printf("   %s\n", detail)
			}
		case c.warnOnly:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}
	fmt.Println("All diagnostics passed!")
	return nil
}

func (cmd *DoctorCmd) checks(ctx *Context) []diagnostic {
	return []diagnostic{
		{name: "Env file", warnOnly: true, run: func() (string, error) {
			return checkEnvFile(ctx.EnvFile)
		}},
		{name: "Timezone", run: func() (string, error) {
			loc, err := cmd.location()
			if err != nil {
				return "", err
			}
			return loc.String(), nil
		}},
		{name: "Configuration", run: func() (string, error) {
			return "", cmd.check()
		}},
		{name: "API token", warnOnly: true, run: func() (string, error) {
			if cmd.resolveToken() == "" {
				return "", errors.New("no token in DAYRING_TOKEN or the OS keyring; requests are sent unauthenticated")
			}
			return "", nil
		}},
		{name: "Backend reachable", run: cmd.checkBackend},
		{name: "Device process", warnOnly: true, run: func() (string, error) {
			if pid, err := lockfile.Owner(ctx.LockPath()); err == nil {
				return fmt.Sprintf("running as pid %d", pid), nil
			}
			return "not running", nil
		}},
	}
}

func checkEnvFile(path string) (string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s not found; run 'dayring init' to create it", path)
		}
		return "", fmt.Errorf("%s is unreadable: %w", path, err)
	}
	return fmt.Sprintf("%s (%d settings)", path, len(values)), nil
}

// checkBackend opens a session and asks for today's streak, which needs
// both connectivity and a valid token.
func (cmd *DoctorCmd) checkBackend() (string, error) {
	if cmd.URL == "" {
		return "", errors.New("no backend URL configured")
	}
	gw, err := cmd.gateway()
	if err != nil {
		return "", err
	}
	loc, err := cmd.location()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()
	if err := gw.Connect(ctx); err != nil {
		return "", err
	}
	defer gw.Disconnect()

	var res gateway.StreakResponse
	req := gateway.StreakRequest{StartDate: utils.DateOf(time.Now(), loc)}
	if err := gw.Request(ctx, http.MethodGet, gateway.StreakPath(cmd.Habit), req, &res); err != nil {
		return "", err
	}
	if err := res.Validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s streak is %d", cmd.Habit, *res.Streak), nil
}
