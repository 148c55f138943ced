package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/julianstephens/dayring/internal/backup"
	"github.com/julianstephens/dayring/internal/constants"
	"github.com/julianstephens/dayring/internal/keyring"
	"github.com/julianstephens/dayring/internal/logger"
	"github.com/julianstephens/dayring/internal/scheduler"
	"github.com/julianstephens/dayring/internal/server"
	"github.com/julianstephens/dayring/internal/storage"
	"github.com/julianstephens/dayring/internal/storage/postgres"
	"github.com/julianstephens/dayring/internal/storage/sqlite"
)

type ServeCmd struct {
	Addr  string `help:"Listen address." default:"${listen_addr}" env:"DAYRING_LISTEN"`
	Store string `help:"SQLite path or PostgreSQL connection string without a password. Empty uses the keyring DSN, then <config-dir>/backend.db." env:"DAYRING_STORE"`
	Token string `help:"Bearer token clients must send. Empty disables auth." env:"DAYRING_SERVER_TOKEN"`

	BackupHour int  `help:"Hour of day (0-23) a SQLite snapshot is taken." default:"${backup_hour}" env:"DAYRING_BACKUP_HOUR"`
	NoBackup   bool `help:"Disable automatic SQLite snapshots." env:"DAYRING_NO_BACKUP"`
}

func (c *ServeCmd) Run(ctx *Context) error {
	store, err := openStore(c.Store, ctx.ConfigDir)
	if err != nil {
		return err
	}
	if err := store.Init(); err != nil {
		return err
	}
	defer store.Close()

	if c.Token == "" {
		logger.Warn("serving without authentication")
	}

	if db, ok := store.(*sqlite.Store); ok && !c.NoBackup {
		sched, err := scheduleBackups(db.GetConfigPath(), c.BackupHour)
		if err != nil {
			return err
		}
		defer sched.Shutdown()
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(store, server.Options{Token: c.Token}).ListenAndServe(runCtx, c.Addr)
}

// scheduleBackups snapshots the database now and then daily at hour.
func scheduleBackups(dbPath string, hour int) (*scheduler.Scheduler, error) {
	mgr := backup.NewManager(dbPath)
	snapshot := func() {
		if _, err := mgr.Create(); err != nil {
			logger.Error("automatic backup failed", "err", err)
		}
	}

	sched, err := scheduler.New(scheduler.Options{})
	if err != nil {
		return nil, err
	}
	if err := sched.OnNextDay(hour, snapshot); err != nil {
		return nil, fmt.Errorf("backup hour: %w", err)
	}
	snapshot()
	sched.Start()
	return sched, nil
}

// openStore picks the backend storage: an explicit location first, then a
// Postgres DSN saved in the keyring, then the SQLite file in configDir.
func openStore(location, configDir string) (storage.Provider, error) {
	fromKeyring := false
	if location == "" {
		dsn, err := keyring.GetConnectionString()
		switch {
		case err == nil:
			location, fromKeyring = dsn, true
		case errors.Is(err, keyring.ErrNotFound):
		default:
			logger.Warn("could not read connection string from keyring", "err", err)
		}
	}

	if location == "" {
		return sqlite.NewStore(filepath.Join(configDir, constants.BackendDBName)), nil
	}
	if !postgres.IsConnString(location) {
		return sqlite.NewStore(location), nil
	}

	if err := postgres.ValidateConnString(location); err != nil {
		// the keyring is encrypted, so a password stored there is accepted
		if !fromKeyring || !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, err
		}
	}
	return postgres.New(location), nil
}
