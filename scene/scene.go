// Package scene fills a collision box with its initial particles.
package scene

import (
	"math/rand"

	collision "github.com/esimov/ascii-particles/collision-box"
	"github.com/esimov/ascii-particles/config"
	"github.com/phil-mansfield/table"
	"github.com/pkg/errors"
)

// Populate adds up to cfg.Count particles at uniformly random positions,
// trying cfg.MaxTries placements per particle. Velocity components are drawn
// from [-SpeedRange, SpeedRange], or zero for stopped particles. It stops at
// the first particle that cannot be placed and returns the number added.
func Populate(w *collision.World, cfg config.ParticlesConfig, rng *rand.Rand) int {
	b := w.Bounds()
	dim := w.Dimension()

	for n := 0; n < cfg.Count; n++ {
		placed := false
		for try := 0; try < cfg.MaxTries && !placed; try++ {
			var p collision.Point
			var v collision.Vector
			for i := 0; i < dim; i++ {
				p[i] = b.Min[i] + rng.Float64()*b.Size(i)
				if !cfg.Stopped {
					v[i] = (2*rng.Float64() - 1) * cfg.SpeedRange
				}
			}
			placed = w.AddParticle(p, v)
		}
		if !placed {
			return n
		}
	}
	return cfg.Count
}

// LoadTable adds the particles listed in a whitespace separated text table.
// Each row holds the position followed by the velocity, dim columns each.
// It returns the number of rows whose particle did not fit.
func LoadTable(w *collision.World, fname string) (rejected int, err error) {
	dim := w.Dimension()
	colIdxs := make([]int, 2*dim)
	for i := range colIdxs {
		colIdxs[i] = i
	}
	cols, err := table.ReadTable(fname, colIdxs, nil)
	if err != nil {
		return 0, errors.Wrapf(err, "reading particle table %s", fname)
	}

	for row := range cols[0] {
		var p collision.Point
		var v collision.Vector
		for i := 0; i < dim; i++ {
			p[i] = cols[i][row]
			v[i] = cols[dim+i][row]
		}
		if !w.AddParticle(p, v) {
			rejected++
		}
	}
	return rejected, nil
}
