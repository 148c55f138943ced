package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/julianstephens/dayring/internal/logger"
	"github.com/julianstephens/dayring/internal/models"
)

func TestPixelIndex(t *testing.T) {
	s := NewStrip(60)
	tests := []struct{ slot, want int }{
		{0, 0},
		{1, 59},
		{2, 58},
		{3, 57},
		{59, 1},
		{60, 0},
	}
	for _, tt := range tests {
		if got := s.PixelIndex(tt.slot); got != tt.want {
			t.Errorf("PixelIndex(%d) = %d, want %d", tt.slot, got, tt.want)
		}
	}
}

func TestSlotColors(t *testing.T) {
	tests := []struct {
		name  string
		awake bool
		quiet bool
		view  models.SlotView
		want  Color
	}{
		{"pending", true, false, models.SlotView{State: models.SlotPending}, Pending},
		{"todo", true, false, models.SlotView{State: models.SlotTodo}, Todo},
		{"todo shows in quiet hours", true, true, models.SlotView{State: models.SlotTodo}, Todo},
		{"pending hidden in quiet hours", true, true, models.SlotView{State: models.SlotPending}, Off},
		{"done", true, false, models.SlotView{State: models.SlotDone, Streak: 3}, DoneColor(3)},
		{"undone is off", true, false, models.SlotView{State: models.SlotUndone}, Off},
		{"loading", true, false, models.SlotView{State: models.SlotLoading}, Loading},
		{"asleep hides todo", false, false, models.SlotView{State: models.SlotTodo}, Off},
		{"asleep hides done", false, false, models.SlotView{State: models.SlotDone, Streak: 3}, Off},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStrip(5)
			s.SetAwake(tt.awake)
			s.SetQuiet(tt.quiet)
			s.RenderSlot(2, tt.view)
			s.Show()
			if got := s.SlotColor(2); got != tt.want {
				t.Errorf("color = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestShowPublishesFrame(t *testing.T) {
	s := NewStrip(3)
	s.RenderSlot(0, models.SlotView{State: models.SlotTodo})
	if !s.SlotColor(0).IsOff() {
		t.Error("frame should not be visible before Show")
	}
	s.Show()
	if s.SlotColor(0) != Todo {
		t.Error("frame should be visible after Show")
	}
}

func TestDoneColor(t *testing.T) {
	if got, want := DoneColor(0), (Color{6, 30, 30}); got != want {
		t.Errorf("DoneColor(0) = %+v, want %+v", got, want)
	}
	if DoneColor(5) == DoneColor(6) {
		t.Error("streak should move the hue")
	}
	for _, n := range []int{1, 10, 100, 400} {
		c := DoneColor(n)
		if max(c.R, c.G, c.B) != 64 {
			t.Errorf("DoneColor(%d) = %+v, want brightness 64", n, c)
		}
	}
}

func TestAdvanceLoading(t *testing.T) {
	s := NewStrip(4)
	s.AdvanceLoading()
	if s.SlotColor(0) != Loading {
		t.Fatalf("slot 0 = %+v, want loading", s.SlotColor(0))
	}
	s.AdvanceLoading()
	if s.SlotColor(1) != Loading || !s.SlotColor(0).IsOff() {
		t.Errorf("marker should move to slot 1: %+v", s.Pixels())
	}
	s.ResetLoading()
	s.AdvanceLoading()
	if s.SlotColor(0) != Loading {
		t.Error("marker should restart at slot 0")
	}
}

func TestAll(t *testing.T) {
	s := NewStrip(3)
	All(s, []models.SlotView{
		{Index: 0, State: models.SlotTodo},
		{Index: 1, State: models.SlotDone, Streak: 1},
		{Index: 2, State: models.SlotPending},
	})
	px := s.Pixels()
	if px[0] != Todo || px[2] != DoneColor(1) || px[1] != Pending {
		t.Errorf("pixels = %+v", px)
	}
}

func TestView(t *testing.T) {
	s := NewStrip(6)
	All(s, []models.SlotView{
		{Index: 0, State: models.SlotTodo},
		{Index: 1, State: models.SlotDone, Streak: 1},
	})
	out := s.View(3)
	if got := strings.Count(out, "●"); got != 2 {
		t.Errorf("lit pixels = %d, want 2\n%s", got, out)
	}
	if got := strings.Count(out, "○"); got != 4 {
		t.Errorf("dark pixels = %d, want 4", got)
	}
	if got := strings.Count(out, "\n"); got != 1 {
		t.Errorf("rows = %d, want 2", got+1)
	}
}

func TestBrighten(t *testing.T) {
	if got := brighten(Pending); got != (Color{255, 255, 0}) {
		t.Errorf("brighten(Pending) = %+v", got)
	}
	if got := brighten(Off); got != Off {
		t.Errorf("brighten(Off) = %+v", got)
	}
}

func TestLogRenderer(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWriter(&buf, false)
	defer func() { logger.Logger = nil }()

	l := NewLogRenderer(4)
	All(l, []models.SlotView{
		{Index: 0, State: models.SlotTodo},
		{Index: 1, State: models.SlotDone},
		{Index: 2, State: models.SlotPending},
		{Index: 3, State: models.SlotUndone},
	})
	if l.Frame() != "Txp." {
		t.Errorf("Frame() = %q, want %q", l.Frame(), "Txp.")
	}
	if !strings.Contains(buf.String(), "Txp.") {
		t.Errorf("frame not logged: %s", buf.String())
	}

	buf.Reset()
	l.Show()
	if buf.Len() != 0 {
		t.Errorf("unchanged frame should not be logged again: %s", buf.String())
	}

	// out of range is ignored
	l.RenderSlot(9, models.SlotView{State: models.SlotDone})
}
