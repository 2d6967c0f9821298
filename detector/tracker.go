package detector

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	collision "github.com/esimov/ascii-particles/collision-box"
	"github.com/esimov/ascii-particles/config"
	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
)

// Tracker replays a directory of image frames through a detector and turns
// the best face of each frame into an obstacle target.
type Tracker struct {
	detector *Detector
	frames   []string
	interval time.Duration
	bounds   collision.Box
}

// NewTracker loads the cascade and lists the frames of cfg. Frames are
// played in file name order.
func NewTracker(cfg config.TrackerConfig, bounds collision.Box) (*Tracker, error) {
	d, err := Load(cfg.Cascade)
	if err != nil {
		return nil, err
	}
	frames, err := ListFrames(cfg.Frames)
	if err != nil {
		return nil, err
	}
	return &Tracker{
		detector: d,
		frames:   frames,
		interval: time.Duration(cfg.Interval) * time.Millisecond,
		bounds:   bounds,
	}, nil
}

// ListFrames returns the png and jpeg files of dir, sorted by name.
func ListFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing frames in %s", dir)
	}
	var frames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			frames = append(frames, filepath.Join(dir, e.Name()))
		}
	}
	if len(frames) == 0 {
		return nil, errors.Errorf("no image frames in %s", dir)
	}
	return frames, nil
}

// Locate detects the face in the image file fname and maps it onto the box.
func (t *Tracker) Locate(fname string) (collision.Point, bool, error) {
	src, err := pigo.GetImage(fname)
	if err != nil {
		return collision.Point{}, false, errors.Wrapf(err, "loading frame %s", fname)
	}
	pixels := pigo.RgbToGrayscale(src)
	rows, cols := src.Bounds().Max.Y, src.Bounds().Max.X

	det, ok := Best(t.detector.DetectFaces(pixels, rows, cols), t.detector.MinQuality)
	if !ok {
		return collision.Point{}, false, nil
	}
	return ToBox(det, rows, cols, t.bounds), true, nil
}

// Run loops over the frames until ctx is done, one frame per interval.
// Frames that fail to load are logged and skipped.
func (t *Tracker) Run(ctx context.Context, target func(collision.Point)) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for i := 0; ; i = (i + 1) % len(t.frames) {
		p, ok, err := t.Locate(t.frames[i])
		if err != nil {
			log.Println(err)
		} else if ok {
			target(p)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
