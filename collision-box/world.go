package collision

import (
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidDimension is returned for dimensions outside [1, MaxDimension].
	ErrInvalidDimension = errors.New("collision: dimension must be between 1 and 3")
	// ErrInvalidRadius is returned for non-positive particle or negative obstacle radii.
	ErrInvalidRadius = errors.New("collision: invalid radius")
	// ErrBoxTooSmall is returned when the box cannot host a single grid cell along some axis.
	ErrBoxTooSmall = errors.New("collision: box too small")
	// ErrInvalidTimeStep is returned by Simulate for negative or non-finite time steps.
	ErrInvalidTimeStep = errors.New("collision: invalid time step")
	// ErrInvalidAttenuation is returned for attenuation factors outside (0, 1].
	ErrInvalidAttenuation = errors.New("collision: attenuation must be in (0, 1]")
	// ErrEventBudget is returned when a step needed more events than the configured budget.
	ErrEventBudget = errors.New("collision: event budget exhausted")
)

// Obstacle describes the externally scripted spherical obstacle.
type Obstacle struct {
	Position Point
	Velocity Vector
	Radius   float64
}

type obstacle struct {
	position  Point
	velocity  Vector
	radius    float64
	timeStamp float64
}

func (o *obstacle) positionAt(t float64) Point {
	return o.position.Add(o.velocity.Mul(t - o.timeStamp))
}

// Observer is notified of every event taken off the queue during Simulate.
// applied is false for stale events, which are dropped.
type Observer func(e Event, applied bool)

// Stats counts the events handled by the last call to Simulate.
type Stats struct {
	Queued             int
	Stale              int
	CellChanges        int
	WallCollisions     int
	SphereCollisions   int
	ParticleCollisions int
}

// Applied returns the number of valid events handled.
func (s Stats) Applied() int {
	return s.CellChanges + s.WallCollisions + s.SphereCollisions + s.ParticleCollisions
}

// World is a rectangular box containing spheres of a fixed radius which
// interact by fully elastic collisions with each other, the box walls and a
// single scripted spherical obstacle.
//
// A World is not safe for concurrent use. All mutation happens in
// AddParticle, MoveObstacle, the setters and Simulate, and the collision
// resolution order inside Simulate is part of its deterministic result.
type World struct {
	dim       int
	bounds    Box
	radius    float64
	grid      *grid
	particles []Particle
	obstacle  obstacle

	attenuation float64 // velocity factor per time unit; 1 means no slowdown
	latentForce Vector
	friction    float64
	gravitation bool
	pairs       []particlePair
	pairsBuilt  bool
	eventBudget int

	queue    eventQueue
	now      float64 // time of the event being resolved
	observer Observer
	stats    Stats
}

// New creates a collision box of the given dimension and boundaries for
// particles of the given radius, with an obstacle of radius obstacleRadius.
// The obstacle starts at rest, outside the box on the low side of the first axis.
func New(bounds Box, dim int, particleRadius, obstacleRadius float64) (*World, error) {
	if dim < 1 || dim > MaxDimension {
		return nil, errors.Wrapf(ErrInvalidDimension, "got %d", dim)
	}
	if !(particleRadius > 0) || math.IsInf(particleRadius, 0) {
		return nil, errors.Wrapf(ErrInvalidRadius, "particle radius %g", particleRadius)
	}
	if !(obstacleRadius >= 0) || math.IsInf(obstacleRadius, 0) {
		return nil, errors.Wrapf(ErrInvalidRadius, "obstacle radius %g", obstacleRadius)
	}
	if !isFinite(bounds.Min, dim) || !isFinite(bounds.Max, dim) {
		return nil, errors.Wrap(ErrBoxTooSmall, "box corners must be finite")
	}
	bounds = Box{Min: truncate(bounds.Min, dim), Max: truncate(bounds.Max, dim)}

	g, err := newGrid(bounds, dim, particleRadius)
	if err != nil {
		return nil, err
	}

	w := &World{
		dim:         dim,
		bounds:      bounds,
		radius:      particleRadius,
		grid:        g,
		attenuation: 1,
	}

	// Park the obstacle next to the box
	center := bounds.Center()
	w.obstacle.radius = obstacleRadius
	w.obstacle.position[0] = bounds.Min[0] - obstacleRadius - 10
	for i := 1; i < dim; i++ {
		w.obstacle.position[i] = center[i]
	}
	return w, nil
}

// Dimension returns the number of spatial dimensions of the box.
func (w *World) Dimension() int { return w.dim }

// Bounds returns the collision box boundaries.
func (w *World) Bounds() Box { return w.bounds }

// ParticleRadius returns the common radius of all particles.
func (w *World) ParticleRadius() float64 { return w.radius }

// NumParticles returns the number of particles in the box.
func (w *World) NumParticles() int { return len(w.particles) }

// Particle returns a copy of the i-th particle, in insertion order.
func (w *World) Particle(i int) Particle { return w.particles[i] }

// Each calls fn for every particle in insertion order.
func (w *World) Each(fn func(i int, p Particle)) {
	for i := range w.particles {
		fn(i, w.particles[i])
	}
}

// Obstacle returns the current state of the spherical obstacle.
func (w *World) Obstacle() Obstacle {
	return Obstacle{
		Position: w.obstacle.position,
		Velocity: w.obstacle.velocity,
		Radius:   w.obstacle.radius,
	}
}

// Stats returns the event counters of the last simulation step.
func (w *World) Stats() Stats { return w.stats }

// KineticEnergy returns the total kinetic energy of all particles, taking each to have unit mass.
func (w *World) KineticEnergy() float64 {
	var e float64
	for i := range w.particles {
		v := w.particles[i].velocity
		e += 0.5 * v.Dot(v)
	}
	return e
}

// SetAttenuation sets the factor by which particle velocities decay over one time unit.
func (w *World) SetAttenuation(attenuation float64) error {
	if !(attenuation > 0 && attenuation <= 1) {
		return errors.Wrapf(ErrInvalidAttenuation, "got %g", attenuation)
	}
	w.attenuation = attenuation
	return nil
}

// SetLatentForce sets the force, e.g. gravity, added to every particle velocity after each step.
func (w *World) SetLatentForce(force Vector) {
	w.latentForce = truncate(force, w.dim)
}

// SetFriction sets the fraction of its velocity every particle loses after each step.
func (w *World) SetFriction(friction float64) {
	w.friction = friction
}

// SetEventBudget limits the number of events handled in one step. Zero means no limit.
func (w *World) SetEventBudget(n int) {
	if n < 0 {
		n = 0
	}
	w.eventBudget = n
}

// SetObserver installs a function notified of every dequeued event; nil removes it.
func (w *World) SetObserver(o Observer) {
	w.observer = o
}

// AddParticle adds a new particle to the collision box. The position is
// clamped into the part of the box reachable by a particle center. It returns
// false, leaving the box unchanged, if the particle would overlap an existing
// particle or the obstacle.
func (w *World) AddParticle(position Point, velocity Vector) bool {
	if !isFinite(position, w.dim) || !isFinite(velocity, w.dim) {
		return false
	}
	p := w.bounds.Inset(w.radius, w.dim).Clamp(position, w.dim)
	c := w.grid.cellIndex(w.bounds, p)

	// Check if there is room for the new particle
	diameter2 := 4 * w.radius * w.radius
	for _, offset := range w.grid.neighborOffsets {
		for h := w.grid.cells[c+offset].head; h != nilIndex; h = w.particles[h].cellSucc {
			d := w.particles[h].position.Sub(p)
			if d.Dot(d) <= diameter2 {
				return false
			}
		}
	}
	rs := w.radius + w.obstacle.radius
	if d := w.obstacle.position.Sub(p); d.Dot(d) <= rs*rs {
		return false
	}

	h := len(w.particles)
	w.particles = append(w.particles, Particle{
		position: p,
		velocity: truncate(velocity, w.dim),
		cell:     nilIndex,
		cellPred: nilIndex,
		cellSucc: nilIndex,
	})
	w.grid.link(w.particles, h, c)
	w.addPairs(h)
	return true
}

// MoveObstacle scripts the obstacle to reach target after timeStep time
// units. The resulting velocity applies from the next step on.
func (w *World) MoveObstacle(target Point, timeStep float64) {
	if !(timeStep > 0) || !isFinite(target, w.dim) {
		return
	}
	w.obstacle.velocity = truncate(target.Sub(w.obstacle.position).Mul(1/timeStep), w.dim)
}
