// Package runner drives a collision box in real time. It owns the world:
// all other goroutines talk to it through obstacle targets and frames.
package runner

import (
	"context"
	"log"
	"time"

	collision "github.com/esimov/ascii-particles/collision-box"
	"github.com/esimov/ascii-particles/config"
	"github.com/esimov/ascii-particles/frame"
	"github.com/pkg/errors"
)

// targetBacklog is the number of obstacle targets buffered between two steps.
const targetBacklog = 64

// Runner advances a world once per frame by the real time elapsed since the
// previous frame.
type Runner struct {
	world   *collision.World
	physics config.PhysicsConfig
	period  time.Duration

	targets   chan collision.Point
	target    collision.Point
	hasTarget bool

	seq     uint64
	elapsed float64 // simulated time

	// Verbose enables a log line per step.
	Verbose bool
}

// New creates a runner stepping w frameRate times per second and applies the
// global forces of physics to w.
func New(w *collision.World, physics config.PhysicsConfig, frameRate int) *Runner {
	if frameRate < 1 {
		frameRate = 1
	}
	w.SetLatentForce(collision.Vector{0, physics.Gravity, 0})
	w.SetFriction(physics.Friction)
	w.SetGravitation(physics.Gravitation)
	w.SetEventBudget(physics.EventBudget)

	return &Runner{
		world:   w,
		physics: physics,
		period:  time.Second / time.Duration(frameRate),
		targets: make(chan collision.Point, targetBacklog),
	}
}

// SetTarget requests the obstacle to move towards p. It never blocks; when
// the backlog is full the oldest target is dropped.
func (r *Runner) SetTarget(p collision.Point) {
	for {
		select {
		case r.targets <- p:
			return
		default:
		}
		select {
		case <-r.targets:
		default:
		}
	}
}

// Step advances the world by dt seconds of real time and returns the new frame.
// Long frames are cut to the maximum time step and slowed down harder so the
// simulation catches up instead of exploding.
func (r *Runner) Step(dt float64) (*frame.Frame, error) {
	for done := false; !done; {
		select {
		case p := <-r.targets:
			r.target, r.hasTarget = p, true
		default:
			done = true
		}
	}
	if r.hasTarget {
		r.world.MoveObstacle(r.target, r.physics.ObstacleLag)
	}

	attenuation := r.physics.Attenuation
	if dt > r.physics.MaxTimeStep {
		dt = r.physics.MaxTimeStep
		attenuation = r.physics.CatchUpAttenuation
	}
	if err := r.world.SetAttenuation(attenuation); err != nil {
		return nil, err
	}

	err := r.world.Simulate(dt)
	if err != nil && errors.Cause(err) != collision.ErrEventBudget {
		return nil, err
	}
	r.elapsed += dt
	r.seq++

	f := frame.Capture(r.world, r.seq, r.elapsed)
	if r.Verbose {
		log.Printf("step %d: dt %.4f, %d events (%d stale), energy %.3f", f.Seq, dt, f.Events, f.Stale, f.Energy)
	}
	return f, err
}

// Run steps the world until ctx is done, handing every frame to publish.
// An exhausted event budget is logged and the run goes on.
func (r *Runner) Run(ctx context.Context, publish func(*frame.Frame)) error {
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			f, err := r.Step(now.Sub(last).Seconds())
			last = now
			if err != nil {
				if f == nil {
					return err
				}
				log.Printf("frame %d: %v", f.Seq, err)
			}
			publish(f)
		}
	}
}
