package collision

import "math"

// minCrossingSpeed is the smallest velocity component for which a wall or
// cell border crossing time is computed. Slower axes never cross.
const minCrossingSpeed = 1e-12

// sphereCollisionTime calculates the time at which two spheres moving along
// straight lines first touch, i.e. their centers come radiusSum apart. Each
// sphere's position is exact at its own time stamp. The collision is only
// reported if it happens after both time stamps and no later than timeStep.
func sphereCollisionTime(
	p1 Point, v1 Vector, ts1 float64,
	p2 Point, v2 Vector, ts2 float64,
	radiusSum, timeStep float64,
) (float64, bool) {
	// Relative position at the start of the step
	d := p1.Sub(v1.Mul(ts1)).Sub(p2.Sub(v2.Mul(ts2)))
	vd := v1.Sub(v2)
	vd2 := vd.Dot(vd)
	if vd2 == 0 {
		// Parallel motion never converges
		return 0, false
	}

	// Solve |d + vd*t|^2 = radiusSum^2 as t^2 + 2*ph*t + q = 0
	ph := d.Dot(vd) / vd2
	q := (d.Dot(d) - radiusSum*radiusSum) / vd2
	det := ph*ph - q
	if det < 0 {
		return 0, false
	}

	// Only the entry point can be a valid collision
	t := -ph - math.Sqrt(det)
	if t > ts1 && t > ts2 && t <= timeStep {
		return t, true
	}
	return 0, false
}

// crossingTime returns the time at which a coordinate x, exact at time stamp
// ts and moving with speed v, reaches bound.
func crossingTime(x, v, ts, bound float64) float64 {
	return ts + (bound-x)/v
}

// movingSlowly reports whether a velocity component is too small to compute
// a crossing time from.
func movingSlowly(v float64) bool {
	return v > -minCrossingSpeed && v < minCrossingSpeed
}

func clampTime(t, min, max float64) float64 {
	if t < min {
		return min
	} else if t > max {
		return max
	}
	return t
}

// reflect mirrors v at the plane with unit normal n.
func reflect(v, n Vector) Vector {
	return v.Sub(n.Mul(2 * n.Dot(v)))
}

// project returns the component of v along d, where dLen2 is |d|^2.
func project(v, d Vector, dLen2 float64) Vector {
	return d.Mul(v.Dot(d) / dLen2)
}
