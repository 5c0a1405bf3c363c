package chrome

import "math/rand/v2"

const (
	perMove    = 3
	shrinkRate = 0.01
	minSize    = 0.1
)

type Particle struct {
	X, Y   float64
	VX, VY float64
	Size   float64
}

// Trail is a cursor trail of drifting, shrinking particles. It is not safe
// for concurrent use.
type Trail struct {
	rng       *rand.Rand
	particles []Particle
}

// NewTrail creates an empty trail. A nil rng uses a random seed.
func NewTrail(rng *rand.Rand) *Trail {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Trail{rng: rng}
}

// Emit spawns a burst of particles at the cursor position.
func (t *Trail) Emit(x, y float64) {
	for i := 0; i < perMove; i++ {
		t.particles = append(t.particles, Particle{
			X:    x,
			Y:    y,
			VX:   t.rng.Float64()*2 - 1,
			VY:   t.rng.Float64()*2 - 1,
			Size: t.rng.Float64()*2 + 0.5,
		})
	}
}

// Step moves every particle one frame and drops the spent ones.
func (t *Trail) Step() {
	live := t.particles[:0]
	for _, p := range t.particles {
		p.X += p.VX
		p.Y += p.VY
		if p.Size > minSize {
			p.Size -= shrinkRate
		}
		if p.Size > minSize {
			live = append(live, p)
		}
	}
	t.particles = live
}

// Particles returns the live particles. The slice is reused by Step.
func (t *Trail) Particles() []Particle { return t.particles }

func (t *Trail) Len() int { return len(t.particles) }
