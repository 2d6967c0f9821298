package terminal

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	collision "github.com/esimov/ascii-particles/collision-box"
	"github.com/esimov/ascii-particles/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScreen replays a script of events once the first frame was flushed.
type fakeScreen struct {
	mu      sync.Mutex
	w, h    int
	cells   map[[2]int]rune
	flushes int
	closed  bool
	script  []Event

	ready     chan struct{}
	readyOnce sync.Once
	interrupt chan struct{}
	intOnce   sync.Once
}

func newFakeScreen(w, h int, script ...Event) *fakeScreen {
	return &fakeScreen{
		w:         w,
		h:         h,
		cells:     make(map[[2]int]rune),
		script:    script,
		ready:     make(chan struct{}),
		interrupt: make(chan struct{}),
	}
}

func (f *fakeScreen) Init() error      { return nil }
func (f *fakeScreen) Size() (int, int) { return f.w, f.h }

func (f *fakeScreen) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeScreen) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cells = make(map[[2]int]rune)
}

func (f *fakeScreen) SetCell(x, y int, ch rune, fg, bg Color) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cells[[2]int{x, y}] = ch
}

func (f *fakeScreen) Flush() error {
	f.mu.Lock()
	f.flushes++
	f.mu.Unlock()
	f.readyOnce.Do(func() { close(f.ready) })
	return nil
}

func (f *fakeScreen) PollEvent() Event {
	select {
	case <-f.ready:
	case <-f.interrupt:
		return Event{Type: EventInterrupt}
	}
	f.mu.Lock()
	if len(f.script) > 0 {
		ev := f.script[0]
		f.script = f.script[1:]
		f.mu.Unlock()
		return ev
	}
	f.mu.Unlock()
	<-f.interrupt
	return Event{Type: EventInterrupt}
}

func (f *fakeScreen) Interrupt() {
	f.intOnce.Do(func() { close(f.interrupt) })
}

func TestTerminalRunMovesObstacle(t *testing.T) {
	screen := newFakeScreen(22, 13,
		Event{Type: EventMouse, MouseX: 1, MouseY: 10, Pressed: true},
		Event{Type: EventKey, Key: KeyRune, Ch: 'q'},
	)
	fn := filepath.Join(t.TempDir(), "debug.log")
	term := New(screen, RGB(1, 1, 1), true, fn)

	frames := make(chan *frame.Frame, 1)
	frames <- testFrame([3]float64{10.2, 5.2, 0})

	var targets []collision.Point
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, term.Run(ctx, frames, func(p collision.Point) {
		targets = append(targets, p)
	}))
	require.NoError(t, ctx.Err(), "viewer should quit on q")

	require.Len(t, targets, 1)
	assert.InDelta(t, 0.5, targets[0][0], 1e-12)
	assert.InDelta(t, 0.5, targets[0][1], 1e-12)

	screen.mu.Lock()
	assert.True(t, screen.closed)
	assert.GreaterOrEqual(t, screen.flushes, 1)
	assert.Equal(t, '.', screen.cells[[2]int{11, 5}])
	assert.Equal(t, '┌', screen.cells[[2]int{0, 0}])
	screen.mu.Unlock()

	data, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.Contains(t, string(data), "X:1 \t Y:10 \t target:0.50,0.50")
}

func TestTerminalStopsOnContext(t *testing.T) {
	screen := newFakeScreen(22, 13)
	term := New(screen, Color{}, false, "")

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- term.Run(ctx, make(chan *frame.Frame), func(collision.Point) {
			t.Error("no target expected")
		})
	}()
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("viewer did not stop")
	}
}

func TestTerminalStopsOnClosedFrames(t *testing.T) {
	screen := newFakeScreen(22, 13)
	term := New(screen, Color{}, false, "")

	frames := make(chan *frame.Frame)
	close(frames)
	assert.NoError(t, term.Run(context.Background(), frames, func(collision.Point) {}))
}

func TestTerminalStatus(t *testing.T) {
	term := New(newFakeScreen(10, 10), Color{}, true, "")
	term.tick(&frame.Frame{Particles: make([][3]float64, 3), Energy: 1.5, Events: 7})

	s := term.status()
	assert.Contains(t, s, "0 fps")
	assert.Contains(t, s, "particles 3")
	assert.Contains(t, s, "energy 1.5")
	assert.Contains(t, s, "events 7")
}
