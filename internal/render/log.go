package render

import (
	"strings"
	"sync"

	"github.com/julianstephens/dayring/internal/logger"
	"github.com/julianstephens/dayring/internal/models"
)

var stateGlyph = map[models.SlotState]byte{
	models.SlotUndone:  '.',
	models.SlotPending: 'p',
	models.SlotDone:    'x',
	models.SlotTodo:    'T',
	models.SlotLoading: '~',
}

// LogRenderer is a headless renderer that writes each shown frame to the
// log as one character per slot, today first.
type LogRenderer struct {
	mu     sync.Mutex
	frame  []byte
	last   string
	awake  bool
	quiet  bool
	cursor int
}

func NewLogRenderer(slots int) *LogRenderer {
	return &LogRenderer{frame: []byte(strings.Repeat(".", slots)), awake: true}
}

func (l *LogRenderer) RenderSlot(i int, v models.SlotView) {
	if i < 0 || i >= len(l.frame) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frame[i] = stateGlyph[v.State]
}

func (l *LogRenderer) Show() {
	l.mu.Lock()
	frame := string(l.frame)
	changed := frame != l.last
	l.last = frame
	awake, quiet := l.awake, l.quiet
	l.mu.Unlock()

	if changed {
		logger.Info("ring", "frame", frame, "awake", awake, "quiet", quiet)
	}
}

func (l *LogRenderer) SetAwake(awake bool) {
	l.mu.Lock()
	l.awake = awake
	l.mu.Unlock()
}

func (l *LogRenderer) SetQuiet(quiet bool) {
	l.mu.Lock()
	l.quiet = quiet
	l.mu.Unlock()
}

func (l *LogRenderer) AdvanceLoading() {
	l.mu.Lock()
	l.cursor++
	n := l.cursor
	l.mu.Unlock()
	logger.Debug("syncing", "slot", n-1)
}

// Frame returns the last shown frame.
func (l *LogRenderer) Frame() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}
