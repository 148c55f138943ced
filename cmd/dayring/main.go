package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/dayring/internal/cli"
	"github.com/julianstephens/dayring/internal/errors"
	"github.com/julianstephens/dayring/internal/logger"
)

var CLI struct {
	Version   kong.VersionFlag
	ConfigDir string `help:"Directory for logs, the lockfile and the backend database." type:"path" default:"${config_dir}" env:"DAYRING_CONFIG_DIR"`
	Debug     bool   `help:"Verbose logging, mirrored to stderr." env:"DAYRING_DEBUG"`

	Run    cli.RunCmd    `cmd:"" help:"Run the device with the terminal simulator." default:"withargs"`
	Sync   cli.SyncCmd   `cmd:"" help:"Pull the ring from the backend once and print it."`
	Serve  cli.ServeCmd  `cmd:"" help:"Run the habit backend."`
	Init   cli.InitCmd   `cmd:"" help:"Write the env config file."`
	Doctor cli.DoctorCmd `cmd:"" help:"Run health checks and diagnostics."`
	Token  struct {
		Set    cli.TokenSetCmd    `cmd:"" help:"Store the API token in the OS keyring."`
		Delete cli.TokenDeleteCmd `cmd:"" help:"Remove the API token from the OS keyring."`
	} `cmd:"" help:"Manage the device API token."`
	Backup struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Snapshot the backend SQLite database." default:"1"`
		List    cli.BackupListCmd    `cmd:"" help:"List snapshots."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore the backend database from a snapshot."`
	} `cmd:"" help:"Manage backend database snapshots."`
	DSN struct {
		Set    cli.DSNSetCmd    `cmd:"" help:"Store the backend's PostgreSQL connection string in the OS keyring."`
		Delete cli.DSNDeleteCmd `cmd:"" help:"Remove the connection string from the OS keyring."`
	} `cmd:"" name:"dsn" help:"Manage the backend's PostgreSQL connection string."`
}

func main() {
	envFile := cli.EnvFilePath()
	if err := cli.LoadEnvFile(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.Format(err))
	}

	ctx := kong.Parse(&CLI,
		kong.Name("dayring"),
		kong.Description("Habit tracker ring that syncs with a habit backend"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		cli.Vars(),
	)

	// the simulator owns the terminal, so only headless runs and the
	// server log to stderr
	cmd := ctx.Command()
	console := cmd == "serve" || (cmd == "run" && CLI.Run.Headless)
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: CLI.ConfigDir, Console: console}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	appCtx := &cli.Context{
		ConfigDir: CLI.ConfigDir,
		EnvFile:   envFile,
		Debug:     CLI.Debug,
	}
	errors.Fatal(ctx.Run(appCtx))
}
