package detector

import (
	"os"
	"path/filepath"
	"testing"

	collision "github.com/esimov/ascii-particles/collision-box"
	"github.com/esimov/ascii-particles/config"
	pigo "github.com/esimov/pigo/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBoxMirrorsFrame(t *testing.T) {
	bounds := collision.NewBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{200, 100, 50})

	// Top left of the image is the top right of the box
	p := ToBox(pigo.Detection{Row: 0, Col: 0}, 480, 640, bounds)
	assert.Equal(t, collision.Point{200, 100, 25}, p)

	p = ToBox(pigo.Detection{Row: 240, Col: 160}, 480, 640, bounds)
	assert.InDelta(t, 150, p[0], 1e-12)
	assert.InDelta(t, 50, p[1], 1e-12)

	p = ToBox(pigo.Detection{Row: 480, Col: 640}, 480, 640, bounds)
	assert.InDelta(t, 0, p[0], 1e-12)
	assert.InDelta(t, 0, p[1], 1e-12)

	// Degenerate frames leave the target centered
	assert.Equal(t, bounds.Center(), ToBox(pigo.Detection{Row: 5, Col: 5}, 0, 0, bounds))
}

func TestBestDetection(t *testing.T) {
	dets := []pigo.Detection{
		{Row: 1, Col: 1, Scale: 10, Q: 3},
		{Row: 2, Col: 2, Scale: 20, Q: 9},
		{Row: 3, Col: 3, Scale: 30, Q: 7},
	}
	best, ok := Best(dets, 5)
	require.True(t, ok)
	assert.Equal(t, 2, best.Row)

	_, ok = Best(dets, 10)
	assert.False(t, ok)
	_, ok = Best(nil, 0)
	assert.False(t, ok)
}

func TestListFrames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.JPG", "c.jpeg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d.png"), 0755))

	frames, err := ListFrames(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.JPG"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "c.jpeg"),
	}, frames)

	_, err = ListFrames(t.TempDir())
	assert.Error(t, err)
	_, err = ListFrames(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestNewTrackerNeedsCascade(t *testing.T) {
	cfg := config.TrackerConfig{
		Cascade:  filepath.Join(t.TempDir(), "facefinder"),
		Frames:   t.TempDir(),
		Interval: 100,
	}
	_, err := NewTracker(cfg, collision.NewBox(mgl64.Vec3{}, mgl64.Vec3{10, 10, 0}))
	assert.Error(t, err)

	_, err = Load(cfg.Cascade)
	assert.Error(t, err)
}
