package chrome

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Progress(t *testing.T) {
	l := NewLoader("Initializing interface...", 800*time.Millisecond)

	assert.Equal(t, 0.0, l.Progress(0))
	assert.InDelta(t, 0.5, l.Progress(400*time.Millisecond), 1e-9)
	assert.Equal(t, 1.0, l.Progress(time.Second))
	assert.Equal(t, 1.0, Loader{}.Progress(0))
}

func TestLoader_State(t *testing.T) {
	l := NewLoader("", time.Second)

	tests := []struct {
		name     string
		progress float64
		solid    int
		pulse    int
	}{
		{"empty", 0, 0, 0},
		{"under one block", 0.04, 0, 0},
		{"half", 0.5, 9, 1},
		{"almost", 0.99, 18, 1},
		{"complete", 1, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			states := l.State(tt.progress)
			require.Len(t, states, DefaultBlocks)
			var solid, pulse int
			for _, s := range states {
				switch s {
				case BlockSolid:
					solid++
				case BlockPulse:
					pulse++
				}
			}
			assert.Equal(t, tt.solid, solid)
			assert.Equal(t, tt.pulse, pulse)
		})
	}
}

func TestLoader_Render(t *testing.T) {
	l := Loader{Blocks: 4}
	assert.Equal(t, "█▓░░", l.Render(0.5))
	assert.Equal(t, "████", l.Render(1))
	assert.Equal(t, "solid pulse", BlockPulse.String())
}

func TestWipe_Obscure(t *testing.T) {
	w := Wipe{Mode: Obscure}

	assert.Zero(t, w.Alpha(0, 100, 100, 50, 50))
	assert.Equal(t, 1.0, w.Alpha(1, 100, 100, 50, 50))

	// mid-sweep the bottom is covered before the top
	assert.Equal(t, 1.0, w.Alpha(0.6, 100, 100, 50, 99))
	assert.Zero(t, w.Alpha(0.6, 100, 100, 50, 1))
}

func TestWipe_Reveal(t *testing.T) {
	w := Wipe{Mode: Reveal}

	assert.Equal(t, 1.0, w.Alpha(0, 100, 100, 50, 50))
	assert.Zero(t, w.Alpha(1, 100, 100, 50, 50))
}

func TestWipe_Flip(t *testing.T) {
	plain := Wipe{}.Quads(0.5, 200, 100)
	flipped := Wipe{FlipX: true}.Quads(0.5, 200, 100)
	require.Len(t, flipped, 2)
	assert.Equal(t, 200.0, flipped[0].Points[0].X)
	assert.Equal(t, plain[0].Points[0].Y, flipped[0].Points[0].Y)

	up := Wipe{FlipY: true}
	assert.Equal(t, 1.0, up.Alpha(0.6, 100, 100, 50, 1))
	assert.Zero(t, up.Alpha(0.6, 100, 100, 50, 99))
}

func TestWipe_SVG(t *testing.T) {
	svg := Wipe{Mode: Reveal}.SVG(0.25, 320, 180, "#111111")
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Equal(t, 2, strings.Count(svg, "<polygon"))
	assert.Contains(t, svg, `fill="#111111"`)
	assert.Contains(t, svg, `fill-opacity="0.5"`)
}

func TestTrail(t *testing.T) {
	tr := NewTrail(rand.New(rand.NewPCG(3, 4)))
	tr.Emit(10, 10)
	require.Equal(t, 3, tr.Len())
	for _, p := range tr.Particles() {
		assert.GreaterOrEqual(t, p.Size, 0.5)
		assert.Less(t, p.Size, 2.5)
		assert.GreaterOrEqual(t, p.VX, -1.0)
		assert.Less(t, p.VX, 1.0)
	}

	tr.Step()
	assert.Equal(t, 3, tr.Len())

	// the largest particle is spent after (2.5-0.1)/0.01 steps
	for i := 0; i < 250; i++ {
		tr.Step()
	}
	assert.Zero(t, tr.Len())
}
