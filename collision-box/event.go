package collision

import (
	"container/heap"
	"fmt"
)

// Payload is the kind specific part of a collision event.
// The implementations are CellChange, WallCollision, SphereCollision and ParticleCollision.
type Payload interface {
	payload()
}

// CellChange is a pseudo collision: the particle crosses into the adjacent grid cell.
// Direction is 2*axis for the lower cell border and 2*axis+1 for the upper one.
type CellChange struct {
	Direction int
}

// WallCollision bounces the particle off the box wall with the given inward normal.
type WallCollision struct {
	Normal Vector
}

// SphereCollision bounces the particle off the scripted obstacle.
type SphereCollision struct {
	ObstacleTimeStamp float64
}

// ParticleCollision is an elastic collision between two particles.
type ParticleCollision struct {
	Other          int
	OtherTimeStamp float64
}

func (CellChange) payload()        {}
func (WallCollision) payload()     {}
func (SphereCollision) payload()   {}
func (ParticleCollision) payload() {}

// Event is a scheduled state change of a particle. TimeStamp holds the time
// stamp of the particle when the event was computed; the event is stale once
// the particle has been updated since.
type Event struct {
	Time      float64
	Particle  int
	TimeStamp float64
	Payload   Payload
}

func (e Event) String() string {
	switch p := e.Payload.(type) {
	case CellChange:
		return fmt.Sprintf("cell change of %d at %g (direction %d)", e.Particle, e.Time, p.Direction)
	case WallCollision:
		return fmt.Sprintf("wall collision of %d at %g (normal %v)", e.Particle, e.Time, p.Normal)
	case SphereCollision:
		return fmt.Sprintf("obstacle collision of %d at %g", e.Particle, e.Time)
	case ParticleCollision:
		return fmt.Sprintf("collision of %d and %d at %g", e.Particle, p.Other, e.Time)
	}
	return fmt.Sprintf("event of %d at %g", e.Particle, e.Time)
}

// eventQueue is a binary min heap of events ordered by time. Events are never
// removed out of order; stale ones are skipped when they reach the top.
type eventQueue []Event

func (q eventQueue) Len() int            { return len(q) }
func (q eventQueue) Less(i, j int) bool  { return q[i].Time < q[j].Time }
func (q eventQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x interface{}) { *q = append(*q, x.(Event)) }

func (q *eventQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = Event{}
	*q = old[:n-1]
	return e
}

func (q *eventQueue) insert(e Event) {
	heap.Push(q, e)
}

func (q *eventQueue) removeSmallest() Event {
	return heap.Pop(q).(Event)
}

func (q *eventQueue) reset() {
	for i := range *q {
		(*q)[i] = Event{}
	}
	*q = (*q)[:0]
}
