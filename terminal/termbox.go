package terminal

import (
	"github.com/nsf/termbox-go"
	"github.com/pkg/errors"
)

// termboxScreen draws through termbox in 256 color mode.
type termboxScreen struct{}

// NewTermbox returns the termbox backend.
func NewTermbox() Screen {
	return termboxScreen{}
}

func (termboxScreen) Init() error {
	if err := termbox.Init(); err != nil {
		return errors.Wrap(err, "initializing termbox")
	}
	termbox.SetInputMode(termbox.InputEsc | termbox.InputMouse)
	termbox.SetOutputMode(termbox.Output256)
	return nil
}

func (termboxScreen) Close() { termbox.Close() }
func (termboxScreen) Size() (int, int) { return termbox.Size() }
func (termboxScreen) Interrupt() { termbox.Interrupt() }
func (termboxScreen) Flush() error { return termbox.Flush() }
func (termboxScreen) Clear() { termbox.Clear(termbox.ColorDefault, termbox.ColorDefault) }
func (termboxScreen) SetCell(x, y int, ch rune, fg, bg Color) {
	termbox.SetCell(x, y, ch, attribute(fg), attribute(bg))
}

func (termboxScreen) PollEvent() Event {
	switch ev := termbox.PollEvent(); ev.Type {
	case termbox.EventKey:
		e := Event{Type: EventKey, Key: KeyOther, Ch: ev.Ch}
		switch {
		case ev.Key == termbox.KeyEsc:
			e.Key = KeyEsc
		case ev.Key == termbox.KeyCtrlC:
			e.Key = KeyCtrlC
		case ev.Ch != 0:
			e.Key = KeyRune
		}
		return e
	case termbox.EventMouse:
		return Event{
			Type:    EventMouse,
			MouseX:  ev.MouseX,
			MouseY:  ev.MouseY,
			Pressed: ev.Key == termbox.MouseLeft,
		}
	case termbox.EventResize:
		return Event{Type: EventResize, Width: ev.Width, Height: ev.Height}
	case termbox.EventInterrupt:
		return Event{Type: EventInterrupt}
	case termbox.EventError:
		return Event{Type: EventClosed}
	}
	return Event{}
}

// attribute maps a color onto the 6x6x6 cube of the 256 color palette.
// termbox numbers palette entries from 1, 0 being the default color.
func attribute(c Color) termbox.Attribute {
	if !c.Set {
		return termbox.ColorDefault
	}
	cube := func(v uint8) int { return (int(v)*5 + 127) / 255 }
	return termbox.Attribute(16 + 36*cube(c.R) + 6*cube(c.G) + cube(c.B) + 1)
}
