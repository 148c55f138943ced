package cli

import (
	"fmt"
	"path/filepath"

	"github.com/julianstephens/dayring/internal/backup"
	"github.com/julianstephens/dayring/internal/constants"
)

// BackupFlags locate the backend's SQLite file.
type BackupFlags struct {
	Store string `help:"Backend SQLite path. Defaults to <config-dir>/backend.db." env:"DAYRING_STORE"`
}

func (f BackupFlags) manager(ctx *Context) *backup.Manager {
	path := f.Store
	if path == "" {
		path = filepath.Join(ctx.ConfigDir, constants.BackendDBName)
	}
	return backup.NewManager(path)
}

type BackupCreateCmd struct {
	BackupFlags `embed:""`
}

func (cmd *BackupCreateCmd) Run(ctx *Context) error {
	snap, err := cmd.manager(ctx).Create()
	if err != nil {
		return err
	}
	fmt.Printf("✓ Backup created: %s (%d bytes)\n", snap.Path, snap.Size)
	return nil
}

type BackupListCmd struct {
	BackupFlags `embed:""`
}

func (cmd *BackupListCmd) Run(ctx *Context) error {
	mgr := cmd.manager(ctx)
	snaps, err := mgr.List()
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Printf("No backups in %s\n", mgr.Dir())
		return nil
	}
	for _, s := range snaps {
		fmt.Printf("%s  %8d  %s\n", s.Timestamp.Format("2006-01-02 15:04:05"), s.Size, filepath.Base(s.Path))
	}
	return nil
}

type BackupRestoreCmd struct {
	BackupFlags `embed:""`

	File string `arg:"" help:"Backup file to restore. A bare name is looked up in the backup directory."`
}

func (cmd *BackupRestoreCmd) Run(ctx *Context) error {
	mgr := cmd.manager(ctx)
	path := cmd.File
	if filepath.Base(path) == path {
		path = filepath.Join(mgr.Dir(), path)
	}
	if err := mgr.Restore(path); err != nil {
		return err
	}
	fmt.Printf("✓ Restored backend database from %s\n", path)
	fmt.Println("  Restart 'dayring serve' if it is running.")
	return nil
}
