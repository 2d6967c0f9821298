package collision

// particlePair is an ordered pair of particles attracting each other.
// first is always the particle added later.
type particlePair struct {
	first, second int
}

// SetGravitation switches the pairwise inverse square attraction between all
// particles on or off. The pair list grows quadratically with the number of
// particles, so this is meant for small populations only.
func (w *World) SetGravitation(on bool) {
	w.gravitation = on
	if on && !w.pairsBuilt {
		w.pairs = w.pairs[:0]
		for h := range w.particles {
			w.appendPairs(h)
		}
		w.pairsBuilt = true
	}
}

// addPairs extends the pair list by the newly added particle h.
func (w *World) addPairs(h int) {
	if w.pairsBuilt {
		w.appendPairs(h)
	}
}

func (w *World) appendPairs(h int) {
	for i := 0; i < h; i++ {
		w.pairs = append(w.pairs, particlePair{first: h, second: i})
	}
}

// applyGravitation pulls every pair of particles together by the inverse of
// their squared distance.
func (w *World) applyGravitation() {
	for _, pair := range w.pairs {
		p1 := &w.particles[pair.first]
		p2 := &w.particles[pair.second]
		d := p1.position.Sub(p2.position)
		dLen2 := d.Dot(d)
		if dLen2 == 0 {
			continue
		}
		f := d.Normalize().Mul(1 / dLen2)
		p1.velocity = p1.velocity.Sub(f)
		p2.velocity = p2.velocity.Add(f)
	}
}
