package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/dayring/internal/models"
)

var offStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))

// Strip is a pixel buffer laid out like the LED ring: today sits on
// pixel 0 and older days fill the ring backwards from the last pixel.
type Strip struct {
	mu      sync.RWMutex
	frame   []Color
	shown   []Color
	awake   bool
	quiet   bool
	loading int
}

func NewStrip(pixels int) *Strip {
	return &Strip{
		frame: make([]Color, pixels),
		shown: make([]Color, pixels),
		awake: true,
	}
}

func (s *Strip) Len() int {
	return len(s.frame)
}

// PixelIndex maps a slot index to its pixel: 0 -> 0, i -> N-i.
func (s *Strip) PixelIndex(slot int) int {
	n := len(s.frame)
	i := slot % n
	if i < 0 {
		i += n
	}
	if i == 0 {
		return 0
	}
	return n - i
}

func (s *Strip) SetAwake(awake bool) {
	s.mu.Lock()
	s.awake = awake
	s.mu.Unlock()
}

func (s *Strip) SetQuiet(quiet bool) {
	s.mu.Lock()
	s.quiet = quiet
	s.mu.Unlock()
}

func (s *Strip) Awake() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.awake
}

func (s *Strip) Quiet() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quiet
}

func (s *Strip) RenderSlot(i int, v models.SlotView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame[s.PixelIndex(i)] = s.colorFor(v)
}

// colorFor must be called with s.mu held.
func (s *Strip) colorFor(v models.SlotView) Color {
	if !s.awake {
		return Off
	}
	// a day that still needs doing shows through quiet hours
	if v.State == models.SlotTodo {
		return Todo
	}
	if s.quiet {
		return Off
	}
	switch v.State {
	case models.SlotPending:
		return Pending
	case models.SlotDone:
		return DoneColor(v.Streak)
	case models.SlotLoading:
		return Loading
	default:
		return Off
	}
}

func (s *Strip) Show() {
	s.mu.Lock()
	copy(s.shown, s.frame)
	s.mu.Unlock()
}

func (s *Strip) AdvanceLoading() {
	s.mu.Lock()
	cur := s.loading
	s.loading++
	s.mu.Unlock()

	s.RenderSlot(cur, models.SlotView{Index: cur, State: models.SlotLoading})
	if cur > 0 {
		s.RenderSlot(cur-1, models.SlotView{Index: cur - 1, State: models.SlotUndone})
	}
	s.Show()
}

// ResetLoading puts the progress marker back on today.
func (s *Strip) ResetLoading() {
	s.mu.Lock()
	s.loading = 0
	s.mu.Unlock()
}

// Pixels returns the last shown frame by pixel position.
func (s *Strip) Pixels() []Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Color, len(s.shown))
	copy(out, s.shown)
	return out
}

// SlotColor returns the shown color of a slot.
func (s *Strip) SlotColor(slot int) Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shown[s.PixelIndex(slot)]
}

// View draws the shown frame in slot order, today on the left, wrapping
// every width pixels.
func (s *Strip) View(width int) string {
	pixels := s.Pixels()
	if width < 1 {
		width = len(pixels)
	}

	var b strings.Builder
	for slot := range pixels {
		if slot > 0 && slot%width == 0 {
			b.WriteByte('\n')
		}
		c := pixels[s.PixelIndex(slot)]
		if c.IsOff() {
			b.WriteString(offStyle.Render("○"))
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(brighten(c).Hex())).Render("●"))
	}
	return b.String()
}

// brighten scales a dim LED color up so it stays visible on a terminal.
func brighten(c Color) Color {
	m := max(c.R, c.G, c.B)
	if m == 0 {
		return c
	}
	scale := 255 / float64(m)
	return Color{
		R: uint8(float64(c.R)*scale + 0.5),
		G: uint8(float64(c.G)*scale + 0.5),
		B: uint8(float64(c.B)*scale + 0.5),
	}
}
