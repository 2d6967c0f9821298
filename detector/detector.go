// Package detector steers the obstacle with a face found by the pigo
// detector in a stream of image frames.
package detector

import (
	"os"

	collision "github.com/esimov/ascii-particles/collision-box"
	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
)

// Detector wraps an unpacked pigo face cascade.
type Detector struct {
	classifier *pigo.Pigo

	MinSize, MaxSize int
	ShiftFactor      float64
	ScaleFactor      float64
	// IoUThreshold is the overlap above which detections are merged.
	IoUThreshold float64
	// MinQuality discards weak detections.
	MinQuality float32
}

// New unpacks the binary cascade file. This will return the number of cascade
// trees, the tree depth, the threshold and the prediction from tree's leaf nodes.
func New(cascade []byte) (*Detector, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, errors.Wrap(err, "unpacking the facefinder cascade")
	}
	return &Detector{
		classifier:   classifier,
		MinSize:      20,
		MaxSize:      1000,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		IoUThreshold: 0.2,
		MinQuality:   5,
	}, nil
}

// Load reads and unpacks the cascade file fname.
func Load(fname string) (*Detector, error) {
	cascade, err := os.ReadFile(fname)
	if err != nil {
		return nil, errors.Wrapf(err, "reading cascade %s", fname)
	}
	return New(cascade)
}

// DetectFaces runs the cluster detection over a grayscale frame of rows x cols
// pixels and returns the detected faces.
func (d *Detector) DetectFaces(pixels []uint8, rows, cols int) []pigo.Detection {
	cParams := pigo.CascadeParams{
		MinSize:     d.MinSize,
		MaxSize:     d.MaxSize,
		ShiftFactor: d.ShiftFactor,
		ScaleFactor: d.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	// The result contains quadruplets representing the row, column, scale and detection score.
	dets := d.classifier.RunCascade(cParams, 0.0)
	return d.classifier.ClusterDetections(dets, d.IoUThreshold)
}

// Best returns the detection of highest quality, if any passes MinQuality.
func Best(dets []pigo.Detection, minQuality float32) (pigo.Detection, bool) {
	var best pigo.Detection
	found := false
	for _, det := range dets {
		if det.Q < minQuality {
			continue
		}
		if !found || det.Q > best.Q {
			best, found = det, true
		}
	}
	return best, found
}

// ToBox maps the center of a detection in a rows x cols frame onto the box.
// The frame is mirrored horizontally like a webcam preview, and image rows
// grow downwards while the box y axis points up. Unused axes stay centered.
func ToBox(det pigo.Detection, rows, cols int, bounds collision.Box) collision.Point {
	p := bounds.Center()
	if cols > 0 {
		p[0] = bounds.Max[0] - (float64(det.Col)/float64(cols))*bounds.Size(0)
	}
	if rows > 0 {
		p[1] = bounds.Max[1] - (float64(det.Row)/float64(rows))*bounds.Size(1)
	}
	return p
}
