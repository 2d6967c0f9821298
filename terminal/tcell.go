package terminal

import (
	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
)

// tcellScreen draws through a tcell screen with true colors.
type tcellScreen struct {
	s tcell.Screen
}

// NewTcell returns the tcell backend on the controlling terminal.
func NewTcell() (Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, errors.Wrap(err, "creating tcell screen")
	}
	return &tcellScreen{s: s}, nil
}

// NewTcellFrom wraps an existing tcell screen, e.g. a simulation screen.
func NewTcellFrom(s tcell.Screen) Screen {
	return &tcellScreen{s: s}
}

func (t *tcellScreen) Init() error {
	if err := t.s.Init(); err != nil {
		return errors.Wrap(err, "initializing tcell")
	}
	t.s.EnableMouse()
	t.s.HideCursor()
	return nil
}

func (t *tcellScreen) Close()           { t.s.Fini() }
func (t *tcellScreen) Size() (int, int) { return t.s.Size() }
func (t *tcellScreen) Clear()           { t.s.Clear() }

func (t *tcellScreen) Flush() error {
	t.s.Show()
	return nil
}

func (t *tcellScreen) SetCell(x, y int, ch rune, fg, bg Color) {
	style := tcell.StyleDefault.Foreground(color(fg)).Background(color(bg))
	t.s.SetContent(x, y, ch, nil, style)
}

func (t *tcellScreen) Interrupt() {
	t.s.PostEvent(tcell.NewEventInterrupt(nil))
}

func (t *tcellScreen) PollEvent() Event {
	return translate(t.s.PollEvent())
}

// translate converts a tcell event. A nil event means the screen was finalized.
func translate(ev tcell.Event) Event {
	switch ev := ev.(type) {
	case nil:
		return Event{Type: EventClosed}
	case *tcell.EventKey:
		e := Event{Type: EventKey, Key: KeyOther}
		switch ev.Key() {
		case tcell.KeyEscape:
			e.Key = KeyEsc
		case tcell.KeyCtrlC:
			e.Key = KeyCtrlC
		case tcell.KeyRune:
			e.Key, e.Ch = KeyRune, ev.Rune()
		}
		return e
	case *tcell.EventMouse:
		x, y := ev.Position()
		return Event{
			Type:    EventMouse,
			MouseX:  x,
			MouseY:  y,
			Pressed: ev.Buttons()&tcell.Button1 != 0,
		}
	case *tcell.EventResize:
		w, h := ev.Size()
		return Event{Type: EventResize, Width: w, Height: h}
	case *tcell.EventInterrupt:
		return Event{Type: EventInterrupt}
	}
	return Event{}
}

func color(c Color) tcell.Color {
	if !c.Set {
		return tcell.ColorDefault
	}
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
