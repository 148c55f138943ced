package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/dayring/internal/constants"
	"github.com/julianstephens/dayring/internal/logger"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

// ErrLocked is returned when another live dayring process owns the lock.
var ErrLocked = errors.New("another dayring device is already running")

// Lock is a pid file guarding a single device process per config dir.
type Lock struct {
	path string
	pid  int
}

// Acquire writes "pid|name" to path. A lockfile left behind by a process
// that is gone, or whose pid now belongs to something else, is replaced.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock dir: %w", err)
	}

	pid := getpidFunc()
	content := []byte(fmt.Sprintf("%d|%s", pid, constants.AppName))

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			_, werr := f.Write(content)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path, pid: pid}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to create lockfile: %w", err)
		}

		owner, err := Owner(path)
		if err == nil {
			return nil, fmt.Errorf("%w (pid %d)", ErrLocked, owner)
		}
		logger.Warn("removing stale lockfile", "path", path, "reason", err)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale lockfile: %w", err)
		}
	}
	return nil, fmt.Errorf("failed to acquire lockfile %s", path)
}

// Owner returns the pid recorded in the lockfile if that process is still
// a running dayring. Any error means the lock is not held.
func Owner(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.New("no lockfile")
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 2 {
		return 0, errors.New("lockfile is malformed")
	}
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return 0, errors.New("invalid process ID in lockfile")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return 0, fmt.Errorf("process %d not running", pid)
	}
	if !strings.HasPrefix(process.Executable(), parts[1]) {
		return 0, fmt.Errorf("process with PID %d is not %s (is %s)", pid, parts[1], process.Executable())
	}
	return pid, nil
}

func (l *Lock) Path() string {
	return l.path
}

// Release removes the lockfile if it still names this process.
func (l *Lock) Release() error {
	content, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !strings.HasPrefix(strings.TrimSpace(string(content)), strconv.Itoa(l.pid)+"|") {
		return nil
	}
	return os.Remove(l.path)
}
