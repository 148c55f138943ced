package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/dayring/internal/constants"
	"github.com/julianstephens/dayring/internal/device"
	"github.com/julianstephens/dayring/internal/keyring"
	"github.com/julianstephens/dayring/internal/scheduler"
	"github.com/julianstephens/dayring/internal/storage/postgres"
	"github.com/julianstephens/dayring/internal/storage/sqlite"
)

type testCLI struct {
	Run  RunCmd  `cmd:""`
	Sync SyncCmd `cmd:""`
}

func parse(t *testing.T, args ...string) *testCLI {
	t.Helper()
	var c testCLI
	parser, err := kong.New(&c, Vars())
	if err != nil {
		t.Fatalf("kong.New() error: %v", err)
	}
	if _, err := parser.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error: %v", args, err)
	}
	return &c
}

func TestRunDefaults(t *testing.T) {
	c := parse(t, "run", "--url", "http://localhost:8080")

	r := c.Run
	if r.Habit != constants.DefaultHabit || r.Capacity != constants.DefaultCapacity {
		t.Errorf("habit/capacity = %q/%d", r.Habit, r.Capacity)
	}
	if r.Timeout != constants.DefaultRequestTimeout || r.Presence != constants.DefaultPresenceTimeout {
		t.Errorf("timeout/presence = %s/%s", r.Timeout, r.Presence)
	}
	if r.SyncInterval != 15 || r.RolloverHour != 3 || r.QuietStart != 21 || r.QuietEnd != 7 || r.QuietPause != 30 {
		t.Errorf("schedule defaults = %+v", r)
	}
	if r.Timezone != "Local" || r.Headless {
		t.Errorf("timezone/headless = %q/%v", r.Timezone, r.Headless)
	}
}

func TestFlagsFromEnvironment(t *testing.T) {
	t.Setenv("DAYRING_URL", "https://habits.example.com")
	t.Setenv("DAYRING_HABIT", "water")
	t.Setenv("DAYRING_CAPACITY", "12")
	t.Setenv("DAYRING_TIMEOUT", "3s")

	c := parse(t, "sync")
	s := c.Sync
	if s.URL != "https://habits.example.com" || s.Habit != "water" || s.Capacity != 12 || s.Timeout != 3*time.Second {
		t.Errorf("flags = %+v", s.DeviceFlags)
	}
}

func TestDeviceFlagsCheck(t *testing.T) {
	valid := DeviceFlags{URL: "http://localhost", Habit: "meditation", Capacity: 5, Timezone: "UTC", Timeout: time.Second}

	tests := []struct {
		name    string
		mutate  func(*DeviceFlags)
		wantErr bool
	}{
		{"valid", func(*DeviceFlags) {}, false},
		{"missing url", func(f *DeviceFlags) { f.URL = "" }, true},
		{"empty habit", func(f *DeviceFlags) { f.Habit = "" }, true},
		{"zero capacity", func(f *DeviceFlags) { f.Capacity = 0 }, true},
		{"zero timeout", func(f *DeviceFlags) { f.Timeout = 0 }, true},
		{"bad timezone", func(f *DeviceFlags) { f.Timezone = "Mars/Olympus" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			if err := f.check(); (err != nil) != tt.wantErr {
				t.Errorf("check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveToken(t *testing.T) {
	gokeyring.MockInit()

	if got := (DeviceFlags{}).resolveToken(); got != "" {
		t.Errorf("empty keyring token = %q", got)
	}
	if err := keyring.SetToken("from-keyring"); err != nil {
		t.Fatal(err)
	}
	if got := (DeviceFlags{}).resolveToken(); got != "from-keyring" {
		t.Errorf("keyring token = %q", got)
	}
	if got := (DeviceFlags{Token: "from-flag"}).resolveToken(); got != "from-flag" {
		t.Errorf("flag token = %q, want flag to win", got)
	}
}

func TestLoadEnvFileKeepsExistingVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dayring.env")
	if err := os.WriteFile(path, []byte("DAYRING_TEST_A=file\nDAYRING_TEST_B=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DAYRING_TEST_A", "env")
	t.Setenv("DAYRING_TEST_B", "")
	os.Unsetenv("DAYRING_TEST_B")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error: %v", err)
	}
	if got := os.Getenv("DAYRING_TEST_A"); got != "env" {
		t.Errorf("DAYRING_TEST_A = %q, real environment should win", got)
	}
	if got := os.Getenv("DAYRING_TEST_B"); got != "file" {
		t.Errorf("DAYRING_TEST_B = %q, want value from file", got)
	}

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
}

func TestEnvFilePath(t *testing.T) {
	t.Setenv(constants.EnvFileVar, "/tmp/custom.env")
	if got := EnvFilePath(); got != "/tmp/custom.env" {
		t.Errorf("EnvFilePath() = %q", got)
	}
}

func TestWriteEnvFile(t *testing.T) {
	s := settings{URL: "https://habits.example.com", Habit: "meditation", Timezone: "UTC", Capacity: "60"}
	if err := s.validate(); err != nil {
		t.Fatalf("validate() error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "conf", "dayring.env")
	if err := writeEnvFile(path, s.envValues()); err != nil {
		t.Fatalf("writeEnvFile() error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("env file mode = %o, want 600", perm)
	}

	got, err := godotenv.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if got["DAYRING_URL"] != "https://habits.example.com" || got["DAYRING_CAPACITY"] != "60" || got["DAYRING_TIMEZONE"] != "UTC" {
		t.Errorf("env file = %v", got)
	}
	if _, ok := got["DAYRING_TOKEN"]; ok {
		t.Error("token should not be written by default")
	}
}

func TestSettingsValidate(t *testing.T) {
	bad := []settings{
		{URL: "habits.example.com", Habit: "m", Timezone: "UTC", Capacity: "60"},
		{URL: "https://h", Habit: " ", Timezone: "UTC", Capacity: "60"},
		{URL: "https://h", Habit: "m", Timezone: "Nowhere/City", Capacity: "60"},
		{URL: "https://h", Habit: "m", Timezone: "UTC", Capacity: "0"},
		{URL: "https://h", Habit: "m", Timezone: "UTC", Capacity: "lots"},
	}
	for _, s := range bad {
		if err := s.validate(); err == nil {
			t.Errorf("validate(%+v) should fail", s)
		}
	}
}

func TestOpenStore(t *testing.T) {
	gokeyring.MockInit()
	dir := t.TempDir()

	store, err := openStore("", dir)
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := store.(*sqlite.Store); !ok || s.GetConfigPath() != filepath.Join(dir, constants.BackendDBName) {
		t.Errorf("default store = %T %s", store, store.GetConfigPath())
	}

	path := filepath.Join(dir, "other.db")
	if store, err := openStore(path, dir); err != nil || store.GetConfigPath() != path {
		t.Errorf("explicit sqlite store = %v, %v", store, err)
	}

	if _, err := openStore("postgres://app:secret@db/habits", dir); !errors.Is(err, postgres.ErrEmbeddedCredentials) {
		t.Errorf("password in flag error = %v, want ErrEmbeddedCredentials", err)
	}

	if err := keyring.SetConnectionString("postgres://app:secret@db/habits"); err != nil {
		t.Fatal(err)
	}
	store, err = openStore("", dir)
	if err != nil {
		t.Fatalf("keyring DSN error: %v", err)
	}
	if _, ok := store.(*postgres.Store); !ok {
		t.Errorf("keyring DSN store = %T, want *postgres.Store", store)
	}
}

type recordingSubmitter struct {
	tasks []device.Task
}

func (r *recordingSubmitter) Submit(t device.Task) error {
	r.tasks = append(r.tasks, t)
	return nil
}

func TestScheduleWiring(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 5, 22, 0, 0, 0, time.UTC))
	sched, err := scheduler.New(scheduler.Options{Clock: clock, Location: time.UTC})
	if err != nil {
		t.Fatal(err)
	}
	defer sched.Shutdown()

	cmd := &RunCmd{SyncInterval: 15, RolloverHour: 3, QuietStart: 21, QuietEnd: 7}
	sub := &recordingSubmitter{}
	if err := cmd.schedule(sched, sub); err != nil {
		t.Fatalf("schedule() error: %v", err)
	}

	// quiet hours are evaluated immediately
	if len(sub.tasks) != 1 || sub.tasks[0].Kind != device.TaskQuiet || !sub.tasks[0].Quiet {
		t.Errorf("tasks = %+v, want one quiet-on task", sub.tasks)
	}

	bad := &RunCmd{SyncInterval: 0, RolloverHour: 3, QuietStart: 21, QuietEnd: 7}
	if err := bad.schedule(sched, sub); err == nil {
		t.Error("zero sync interval should be rejected")
	}
}
