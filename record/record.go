// Package record runs a collision box without a viewer and charts the
// evolution of its energy.
package record

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/esimov/ascii-particles/runner"
	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
)

// Sample is the state of the box after one step.
type Sample struct {
	Step   int
	Time   float64
	Energy float64
	Events int
	Stale  int
}

// Run advances r by steps fixed time steps of dt seconds.
func Run(r *runner.Runner, steps int, dt float64) ([]Sample, error) {
	samples := make([]Sample, 0, steps)
	for i := 0; i < steps; i++ {
		f, err := r.Step(dt)
		if err != nil {
			if f == nil {
				return samples, errors.Wrapf(err, "step %d", i+1)
			}
			log.Printf("step %d: %v", f.Seq, err)
		}
		samples = append(samples, Sample{
			Step:   int(f.Seq),
			Time:   f.Time,
			Energy: f.Energy,
			Events: f.Events,
			Stale:  f.Stale,
		})
	}
	return samples, nil
}

// WriteTable prints the samples as whitespace separated columns.
func WriteTable(w io.Writer, samples []Sample) error {
	if _, err := fmt.Fprintln(w, "# step time energy events stale"); err != nil {
		return err
	}
	for _, s := range samples {
		if _, err := fmt.Fprintf(w, "%d %.4f %.6f %d %d\n", s.Step, s.Time, s.Energy, s.Events, s.Stale); err != nil {
			return err
		}
	}
	return nil
}

// RenderChart draws the kinetic energy over time as a PNG image.
func RenderChart(w io.Writer, samples []Sample) error {
	if len(samples) < 2 {
		return errors.Errorf("not enough samples to chart: %d", len(samples))
	}
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i], ys[i] = s.Time, s.Energy
	}

	graph := chart.Chart{
		Width:  800,
		Height: 300,
		XAxis: chart.XAxis{
			Name:  "time",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.2f", v.(float64))
			},
		},
		YAxis: chart.YAxis{
			Name:  "kinetic energy",
			Style: chart.Style{FontSize: 10.0},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Kinetic energy",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2.0},
			},
		},
	}
	return errors.Wrap(graph.Render(chart.PNG, w), "rendering energy chart")
}

// SaveChart renders the energy chart into the file fname.
func SaveChart(fname string, samples []Sample) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrapf(err, "creating chart %s", fname)
	}
	if err := RenderChart(file, samples); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
