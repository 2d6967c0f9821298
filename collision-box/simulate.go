package collision

import (
	"math"

	"github.com/pkg/errors"
)

// Simulate advances the collision box by timeStep time units, resolving every
// collision that happens within the step in chronological order.
//
// A zero time step is a no-op. If the event budget runs out, the step is
// still completed: all particles move to the end of the step on their current
// trajectories, are kept inside the box, and ErrEventBudget is returned.
func (w *World) Simulate(timeStep float64) error {
	if timeStep < 0 || math.IsNaN(timeStep) || math.IsInf(timeStep, 0) {
		return errors.Wrapf(ErrInvalidTimeStep, "got %g", timeStep)
	}
	w.stats = Stats{}
	if timeStep == 0 {
		return nil
	}

	w.queue.reset()
	w.now = 0
	for h := range w.particles {
		w.queueCollisions(h, timeStep, false, nilIndex)
	}

	aborted := false
	for w.queue.Len() > 0 {
		e := w.queue.removeSmallest()
		if !w.valid(e) {
			w.stats.Stale++
			if w.observer != nil {
				w.observer(e, false)
			}
			continue
		}
		if w.eventBudget > 0 && w.stats.Applied() >= w.eventBudget {
			aborted = true
			break
		}
		w.now = e.Time
		if w.observer != nil {
			w.observer(e, true)
		}

		switch p := e.Payload.(type) {
		case CellChange:
			w.stats.CellChanges++
			w.changeCell(e.Particle, p.Direction, timeStep)
		case WallCollision:
			w.stats.WallCollisions++
			w.bounceWall(e.Particle, e.Time, p.Normal, timeStep)
		case SphereCollision:
			w.stats.SphereCollisions++
			w.bounceObstacle(e.Particle, e.Time, timeStep)
		case ParticleCollision:
			w.stats.ParticleCollisions++
			w.collide(e.Particle, p.Other, e.Time, timeStep)
		}
	}
	w.queue.reset()

	w.finalize(timeStep, aborted)
	if aborted {
		return errors.Wrapf(ErrEventBudget, "%d events resolved", w.eventBudget)
	}
	return nil
}

// valid reports whether none of the entities involved in e has changed its
// trajectory since e was computed.
func (w *World) valid(e Event) bool {
	if w.particles[e.Particle].timeStamp != e.TimeStamp {
		return false
	}
	switch p := e.Payload.(type) {
	case SphereCollision:
		return w.obstacle.timeStamp == p.ObstacleTimeStamp
	case ParticleCollision:
		return w.particles[p.Other].timeStamp == p.OtherTimeStamp
	}
	return true
}

func (w *World) schedule(e Event) {
	// Rounding can place a follow-up event marginally before the one that caused it
	if e.Time < w.now {
		e.Time = w.now
	}
	w.stats.Queued++
	w.queue.insert(e)
}

// queueCollisions computes all upcoming events of particle h. With symmetric
// set, pairs are checked against every neighbor, otherwise only against those
// with a higher handle. The particle exclude is skipped entirely.
func (w *World) queueCollisions(h int, timeStep float64, symmetric bool, exclude int) {
	w.queueCellChange(h, timeStep)
	w.queueWallCollisions(h, timeStep)
	w.queueSphereCollision(h, timeStep)

	c := w.particles[h].cell
	for _, offset := range w.grid.neighborOffsets {
		w.queueCollisionsInCell(h, c+offset, timeStep, symmetric, exclude)
	}
}

// queueCellChange schedules the first crossing of a border of the cell
// containing h within the step. Particles never move into the ghost layer.
func (w *World) queueCellChange(h int, timeStep float64) {
	p := &w.particles[h]
	g := w.grid
	cell := g.cells[p.cell].bounds
	end := p.positionAt(timeStep)

	cellChangeTime := timeStep
	direction := -1
	for i := 0; i < w.dim; i++ {
		v := p.velocity[i]
		if movingSlowly(v) {
			continue
		}
		k := (p.cell / g.stride[i]) % g.outer[i]
		if v < 0 && end[i] < cell.Min[i] && k > 1 {
			if t := crossingTime(p.position[i], v, p.timeStamp, cell.Min[i]); t < cellChangeTime {
				cellChangeTime = t
				direction = 2*i + 0
			}
		} else if v > 0 && end[i] > cell.Max[i] && k < g.numCells[i] {
			if t := crossingTime(p.position[i], v, p.timeStamp, cell.Max[i]); t < cellChangeTime {
				cellChangeTime = t
				direction = 2*i + 1
			}
		}
	}
	if direction < 0 {
		return
	}
	w.schedule(Event{
		Time:      math.Max(cellChangeTime, p.timeStamp),
		Particle:  h,
		TimeStamp: p.timeStamp,
		Payload:   CellChange{Direction: direction},
	})
}

// queueWallCollisions schedules a bounce for every box face the particle
// would pass through by the end of the step.
func (w *World) queueWallCollisions(h int, timeStep float64) {
	p := &w.particles[h]
	inner := w.bounds.Inset(w.radius, w.dim)
	end := p.positionAt(timeStep)

	for i := 0; i < w.dim; i++ {
		v := p.velocity[i]
		if movingSlowly(v) {
			continue
		}
		var normal Vector
		var bound float64
		switch {
		case v < 0 && end[i] < inner.Min[i]:
			normal[i], bound = 1, inner.Min[i]
		case v > 0 && end[i] > inner.Max[i]:
			normal[i], bound = -1, inner.Max[i]
		default:
			continue
		}

		t := clampTime(crossingTime(p.position[i], v, p.timeStamp, bound), p.timeStamp, timeStep)
		if t == p.timeStamp && t < timeStep {
			// The bounce has to advance the time stamp to invalidate older events
			t = math.Nextafter(t, timeStep)
		}
		w.schedule(Event{
			Time:      t,
			Particle:  h,
			TimeStamp: p.timeStamp,
			Payload:   WallCollision{Normal: normal},
		})
	}
}

func (w *World) queueSphereCollision(h int, timeStep float64) {
	p := &w.particles[h]
	o := &w.obstacle
	t, ok := sphereCollisionTime(
		p.position, p.velocity, p.timeStamp,
		o.position, o.velocity, o.timeStamp,
		w.radius+o.radius, timeStep,
	)
	if !ok {
		return
	}
	w.schedule(Event{
		Time:      t,
		Particle:  h,
		TimeStamp: p.timeStamp,
		Payload:   SphereCollision{ObstacleTimeStamp: o.timeStamp},
	})
}

func (w *World) queueCollisionsInCell(h, c int, timeStep float64, symmetric bool, exclude int) {
	p := &w.particles[h]
	for o := w.grid.cells[c].head; o != nilIndex; o = w.particles[o].cellSucc {
		if o == h || o == exclude || (!symmetric && o < h) {
			continue
		}
		q := &w.particles[o]
		t, ok := sphereCollisionTime(
			p.position, p.velocity, p.timeStamp,
			q.position, q.velocity, q.timeStamp,
			2*w.radius, timeStep,
		)
		if !ok {
			continue
		}
		w.schedule(Event{
			Time:      t,
			Particle:  h,
			TimeStamp: p.timeStamp,
			Payload:   ParticleCollision{Other: o, OtherTimeStamp: q.timeStamp},
		})
	}
}

// queueCollisionsOnCellChange looks for the next cell change of h and for
// collisions with the particles that came into reach by entering the cell in
// the given direction.
func (w *World) queueCollisionsOnCellChange(h, direction int, timeStep float64) {
	w.queueCellChange(h, timeStep)

	c := w.particles[h].cell
	bit := 1 << uint(direction)
	for n, offset := range w.grid.neighborOffsets {
		if w.grid.cellChangeMasks[n]&bit != 0 {
			w.queueCollisionsInCell(h, c+offset, timeStep, true, nilIndex)
		}
	}
}

func (w *World) changeCell(h, direction int, timeStep float64) {
	c := w.particles[h].cell
	w.grid.unlink(w.particles, h)
	w.grid.link(w.particles, h, c+w.grid.directNeighborOffsets[direction])
	w.queueCollisionsOnCellChange(h, direction, timeStep)
}

func (w *World) bounceWall(h int, t float64, normal Vector, timeStep float64) {
	p := &w.particles[h]
	p.advance(t)
	p.velocity = reflect(p.velocity, normal)
	w.queueCollisions(h, timeStep, true, nilIndex)
}

// bounceObstacle reflects the particle off the obstacle surface. The obstacle
// keeps its scripted velocity.
func (w *World) bounceObstacle(h int, t float64, timeStep float64) {
	p := &w.particles[h]
	p.advance(t)

	d := w.obstacle.positionAt(t).Sub(p.position)
	dLen2 := d.Dot(d)
	pv := project(p.velocity, d, dLen2)
	ov := project(w.obstacle.velocity, d, dLen2)
	p.velocity = p.velocity.Add(ov.Sub(pv).Mul(2))

	w.queueCollisions(h, timeStep, true, nilIndex)
}

// collide exchanges the velocity components along the line of centers of two
// touching particles of equal mass.
func (w *World) collide(h1, h2 int, t float64, timeStep float64) {
	p1 := &w.particles[h1]
	p2 := &w.particles[h2]
	p1.advance(t)
	p2.advance(t)

	d := p2.position.Sub(p1.position)
	dLen2 := d.Dot(d)
	dv := project(p2.velocity, d, dLen2).Sub(project(p1.velocity, d, dLen2))
	p1.velocity = p1.velocity.Add(dv)
	p2.velocity = p2.velocity.Sub(dv)

	w.queueCollisions(h1, timeStep, true, h2)
	w.queueCollisions(h2, timeStep, true, h1)
}

// finalize moves everything to the end of the step, applies the global
// forces and resets all time stamps for the next step.
func (w *World) finalize(timeStep float64, aborted bool) {
	att := 1.0
	if w.attenuation != 1 {
		att = math.Pow(w.attenuation, timeStep)
	}

	for h := range w.particles {
		p := &w.particles[h]
		p.advance(timeStep)
		p.timeStamp = 0
		p.velocity = p.velocity.Mul(att)
		p.velocity = p.velocity.Add(w.latentForce)
		p.velocity = p.velocity.Sub(p.velocity.Mul(w.friction))
	}
	if aborted {
		w.rebin()
	}
	if w.gravitation {
		w.applyGravitation()
	}

	w.obstacle.position = w.obstacle.positionAt(timeStep)
	w.obstacle.timeStamp = 0
}

// rebin restores cell membership and containment from the particle
// positions after a step whose collisions were not fully resolved.
func (w *World) rebin() {
	inner := w.bounds.Inset(w.radius, w.dim)
	for h := range w.particles {
		p := &w.particles[h]
		p.position = inner.Clamp(p.position, w.dim)
		if c := w.grid.cellIndex(w.bounds, p.position); c != p.cell {
			w.grid.unlink(w.particles, h)
			w.grid.link(w.particles, h, c)
		}
	}
}
