package collision

// nilIndex marks an absent particle or cell link.
const nilIndex = -1

// Particle defines a fixed radius sphere stored in the particle arena of a World.
// Its position and velocity are exact as of its time stamp inside the current step.
type Particle struct {
	position  Point
	velocity  Vector
	timeStamp float64

	cell     int // grid cell currently containing the particle
	cellPred int // predecessor in the same grid cell
	cellSucc int // successor in the same grid cell
}

// GetPosition retrieves the particle position.
func (p Particle) GetPosition() Point {
	return p.position
}

// GetVelocity retrieves the particle velocity.
func (p Particle) GetVelocity() Vector {
	return p.velocity
}

// positionAt extrapolates the particle position to step time t.
func (p *Particle) positionAt(t float64) Point {
	return p.position.Add(p.velocity.Mul(t - p.timeStamp))
}

// origin extrapolates the particle position back to the start of the step.
func (p *Particle) origin() Point {
	return p.position.Sub(p.velocity.Mul(p.timeStamp))
}

// advance moves the particle along its current trajectory up to step time t.
func (p *Particle) advance(t float64) {
	p.position = p.positionAt(t)
	p.timeStamp = t
}
