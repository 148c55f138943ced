package device

type TaskKind int

const (
	TaskSync TaskKind = iota
	TaskRollover
	TaskToggle
	TaskMotion
	TaskQuiet
)

func (k TaskKind) String() string {
	switch k {
	case TaskSync:
		return "sync"
	case TaskRollover:
		return "rollover"
	case TaskToggle:
		return "toggle"
	case TaskMotion:
		return "motion"
	case TaskQuiet:
		return "quiet"
	default:
		return "unknown"
	}
}

// Task is one unit of work for the device loop.
type Task struct {
	Kind  TaskKind
	Quiet bool // TaskQuiet only
}

func Sync() Task { return Task{Kind: TaskSync} }
func Rollover() Task { return Task{Kind: TaskRollover} }
func Toggle() Task { return Task{Kind: TaskToggle} }
func Motion() Task { return Task{Kind: TaskMotion} }
func Quiet(on bool) Task { return Task{Kind: TaskQuiet, Quiet: on} }
