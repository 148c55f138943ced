package render

import (
	"fmt"

	"github.com/julianstephens/dayring/internal/models"
)

// Renderer draws slot states. Implementations must be safe for use from
// the device loop while a UI reads them.
type Renderer interface {
	RenderSlot(i int, v models.SlotView)
	Show()
	SetAwake(awake bool)
	SetQuiet(quiet bool)
	// AdvanceLoading moves the sync progress marker one slot on.
	AdvanceLoading()
}

// All renders every view and shows the frame.
func All(r Renderer, views []models.SlotView) {
	for _, v := range views {
		r.RenderSlot(v.Index, v)
	}
	r.Show()
}

type Color struct {
	R, G, B uint8
}

var (
	Off     = Color{}
	Pending = Color{64, 64, 0}
	Todo    = Color{230, 40, 0}
	Loading = Color{127, 0, 0}
)

func (c Color) IsOff() bool {
	return c == Off
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// DoneColor walks the hue wheel with the streak, starting at turquoise.
// A streak of 0 is drawn dimmer.
func DoneColor(streak int) Color {
	hue := (65536/2 + streak*180) % 65536
	value := uint8(64)
	if streak == 0 {
		value = 30
	}
	return hsv(uint16(hue), 200, value)
}

// hsv converts a 16-bit hue with 8-bit saturation and value to RGB.
func hsv(hue uint16, sat, val uint8) Color {
	h := float64(hue) / 65536 * 6
	s := float64(sat) / 255
	v := float64(val)

	sector := int(h)
	f := h - float64(sector)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch sector {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return Color{uint8(r + 0.5), uint8(g + 0.5), uint8(b + 0.5)}
}
