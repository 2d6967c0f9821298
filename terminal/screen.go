package terminal

import "math"

// Color is a 24 bit terminal color. The zero value is the terminal default.
type Color struct {
	R, G, B uint8
	Set     bool
}

// RGB creates a color from components in [0, 1].
func RGB(r, g, b float64) Color {
	return Color{R: channel(r), G: channel(g), B: channel(b), Set: true}
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// Cell is a single character cell of the back buffer.
type Cell struct {
	Ch     rune
	Fg, Bg Color
}

type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventMouse
	EventResize
	EventInterrupt
	EventClosed
)

type Key int

const (
	KeyRune Key = iota
	KeyEsc
	KeyCtrlC
	KeyOther
)

// Event is an input event translated from the terminal backend.
type Event struct {
	Type           EventType
	Key            Key
	Ch             rune
	MouseX, MouseY int
	Pressed        bool // left mouse button held
	Width, Height  int
}

// quit reports whether the event asks the viewer to stop.
func (ev Event) quit() bool {
	if ev.Type == EventClosed {
		return true
	}
	return ev.Type == EventKey && (ev.Key == KeyEsc || ev.Key == KeyCtrlC || (ev.Key == KeyRune && ev.Ch == 'q'))
}

// Screen is a terminal backend.
type Screen interface {
	Init() error
	Close()
	Size() (width, height int)
	Clear()
	SetCell(x, y int, ch rune, fg, bg Color)
	Flush() error
	// PollEvent blocks until the next input event.
	PollEvent() Event
	// Interrupt makes a blocked PollEvent return an EventInterrupt.
	Interrupt()
}
