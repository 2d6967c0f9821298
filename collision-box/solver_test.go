package collision

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestSphereCollisionTime(t *testing.T) {
	cases := []struct {
		name     string
		p1, v1   mgl64.Vec3
		ts1      float64
		p2, v2   mgl64.Vec3
		ts2      float64
		timeStep float64
		want     float64
		ok       bool
	}{
		{"head on", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 0, mgl64.Vec3{4, 0, 0}, mgl64.Vec3{-1, 0, 0}, 0, 1, 1, true},
		{"too late", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 0, mgl64.Vec3{4, 0, 0}, mgl64.Vec3{-1, 0, 0}, 0, 0.5, 0, false},
		{"receding", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{-1, 0, 0}, 0, mgl64.Vec3{4, 0, 0}, mgl64.Vec3{1, 0, 0}, 0, 10, 0, false},
		{"parallel", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 0}, 0, mgl64.Vec3{4, 0, 0}, mgl64.Vec3{1, 1, 0}, 0, 10, 0, false},
		{"miss", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 0, mgl64.Vec3{4, 3, 0}, mgl64.Vec3{-1, 0, 0}, 0, 10, 0, false},
		{"glancing", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 0, mgl64.Vec3{4, 2, 0}, mgl64.Vec3{-1, 0, 0}, 0, 10, 2, true},
		{"stationary target", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 0, 0}, 0, mgl64.Vec3{5, 0, 0}, mgl64.Vec3{}, 0, 10, 1.5, true},
		// Positions are exact at their time stamps
		{"time stamps", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 0, 0}, 1, mgl64.Vec3{4, 0, 0}, mgl64.Vec3{}, 0.5, 10, 2, true},
		{"before time stamp", mgl64.Vec3{3, 0, 0}, mgl64.Vec3{1, 0, 0}, 3, mgl64.Vec3{4, 0, 0}, mgl64.Vec3{}, 0, 10, 0, false},
	}
	for _, c := range cases {
		got, ok := sphereCollisionTime(c.p1, c.v1, c.ts1, c.p2, c.v2, c.ts2, 2, c.timeStep)
		assert.Equal(t, c.ok, ok, c.name)
		if c.ok {
			assert.InDelta(t, c.want, got, 1e-12, c.name)
		}
	}
}

func TestCrossingTime(t *testing.T) {
	assert.InDelta(t, 3.0, crossingTime(2, 0.5, 1, 3), 1e-12)
	assert.InDelta(t, 1.5, crossingTime(2, -2, 0.5, 0), 1e-12)

	assert.True(t, movingSlowly(0))
	assert.True(t, movingSlowly(-1e-13))
	assert.False(t, movingSlowly(1e-9))
}

func TestReflect(t *testing.T) {
	assert.Equal(t, mgl64.Vec3{-1, 2, 0}, reflect(mgl64.Vec3{1, 2, 0}, mgl64.Vec3{-1, 0, 0}))
	assert.Equal(t, mgl64.Vec3{1, -2, 3}, reflect(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0, 1, 0}))
}

func TestProject(t *testing.T) {
	d := mgl64.Vec3{2, 0, 0}
	assert.Equal(t, mgl64.Vec3{3, 0, 0}, project(mgl64.Vec3{3, 4, 0}, d, d.Dot(d)))

	d = mgl64.Vec3{1, 1, 0}
	p := project(mgl64.Vec3{2, 0, 0}, d, d.Dot(d))
	assert.InDelta(t, 1.0, p[0], 1e-12)
	assert.InDelta(t, 1.0, p[1], 1e-12)
}

func TestEventQueueOrder(t *testing.T) {
	var q eventQueue
	for _, tm := range []float64{0.3, 0.1, 0.7, 0.2, 0.5} {
		q.insert(Event{Time: tm, Payload: CellChange{}})
	}

	var got []float64
	for q.Len() > 0 {
		got = append(got, q.removeSmallest().Time)
	}
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.5, 0.7}, got)

	q.insert(Event{Time: 1})
	q.reset()
	assert.Equal(t, 0, q.Len())
}

func TestEventString(t *testing.T) {
	e := Event{Time: 0.5, Particle: 3, Payload: ParticleCollision{Other: 7}}
	assert.Equal(t, "collision of 3 and 7 at 0.5", e.String())

	e = Event{Time: 1, Particle: 2, Payload: CellChange{Direction: 3}}
	assert.Equal(t, "cell change of 2 at 1 (direction 3)", e.String())
}
