package terminal

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	collision "github.com/esimov/ascii-particles/collision-box"
	"github.com/esimov/ascii-particles/frame"
	"github.com/pkg/errors"
)

// Terminal shows the frames of a running simulation and turns mouse input
// into obstacle targets.
type Terminal struct {
	screen  Screen
	canvas  *Canvas
	style   Style
	showFPS bool

	logfile *os.File
	fn      string

	last    *frame.Frame
	fps     float64
	frameAt time.Time
}

// New creates a viewer drawing on screen. Particles are drawn in particle
// color; the log is redirected to logFile while the viewer owns the terminal.
func New(screen Screen, particle Color, showFPS bool, logFile string) *Terminal {
	return &Terminal{
		screen: screen,
		style: Style{
			Particle: particle,
			Obstacle: RGB(0.9, 0.2, 0.2),
			Border:   Color{},
		},
		showFPS: showFPS,
		fn:      logFile,
	}
}

// Run draws every frame received until the user quits with ESC or q, or ctx
// is done. Left mouse clicks and drags are passed to target in box coordinates.
func (t *Terminal) Run(ctx context.Context, frames <-chan *frame.Frame, target func(collision.Point)) error {
	if t.fn != "" {
		f, err := os.OpenFile(t.fn, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return errors.Wrapf(err, "opening log file %s", t.fn)
		}
		t.logfile = f
		defer t.logfile.Close()

		prev := log.Writer()
		log.SetOutput(f)
		defer log.SetOutput(prev)
	}

	if err := t.screen.Init(); err != nil {
		return err
	}
	defer t.screen.Close()
	t.canvas = NewCanvas(t.screen.Size())

	done := make(chan struct{})
	events := make(chan Event)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			ev := t.screen.PollEvent()
			select {
			case events <- ev:
			case <-done:
				return
			}
			if ev.Type == EventClosed {
				return
			}
		}
	}()
	defer func() {
		close(done)
		t.screen.Interrupt()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if ev.quit() {
				return nil
			}
			t.handle(ev, target)
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			t.tick(f)
		}
		if err := t.redraw(); err != nil {
			return err
		}
	}
}

func (t *Terminal) handle(ev Event, target func(collision.Point)) {
	switch ev.Type {
	case EventMouse:
		if ev.Pressed && t.last != nil {
			p := t.canvas.ToBox(ev.MouseX, ev.MouseY)
			if t.logfile != nil {
				t.log(t.logfile, ev.MouseX, ev.MouseY, p)
			}
			target(p)
		}
	case EventResize:
		t.canvas.Resize(ev.Width, ev.Height)
	}
}

func (t *Terminal) tick(f *frame.Frame) {
	now := time.Now()
	if !t.frameAt.IsZero() {
		if dt := now.Sub(t.frameAt).Seconds(); dt > 0 {
			// Exponential moving average over a handful of frames
			t.fps = 0.9*t.fps + 0.1/dt
		}
	}
	t.frameAt = now
	t.last = f
}

// status builds the status line of the last frame.
func (t *Terminal) status() string {
	f := t.last
	s := fmt.Sprintf("particles %d  energy %.1f  events %d  ESC quits, drag the mouse to move the obstacle",
		len(f.Particles), f.Energy, f.Events)
	if t.showFPS {
		s = fmt.Sprintf("%.0f fps  ", t.fps) + s
	}
	return s
}

func (t *Terminal) redraw() error {
	if t.last == nil {
		return nil
	}
	t.canvas.Draw(t.last, t.style, t.status())

	t.screen.Clear()
	w, h := t.canvas.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := t.canvas.At(x, y)
			t.screen.SetCell(x, y, c.Ch, c.Fg, c.Bg)
		}
	}
	return t.screen.Flush()
}

func (t *Terminal) log(f io.Writer, x, y int, p collision.Point) {
	fmt.Fprintf(f, "X:%d \t Y:%d \t target:%.2f,%.2f\n", x, y, p[0], p[1])
}
