// Package chrome holds the loading and transition pieces that frame the
// text reveals: a block progress bar, a diagonal wipe and a cursor trail.
package chrome

import (
	"strings"
	"time"
)

// BlockState is the look of one loader block.
type BlockState uint8

const (
	BlockEmpty BlockState = iota
	BlockSolid
	// BlockPulse is the leading solid block while loading is under way.
	BlockPulse
)

func (b BlockState) String() string {
	switch b {
	case BlockSolid:
		return "solid"
	case BlockPulse:
		return "solid pulse"
	}
	return "empty"
}

// DefaultBlocks is the width of the loader bar.
const DefaultBlocks = 20

// Loader is a fixed-width block progress bar that fills over LoadTime.
type Loader struct {
	Message  string
	LoadTime time.Duration
	Blocks   int
}

// NewLoader creates a loader with the default width.
func NewLoader(message string, loadTime time.Duration) Loader {
	return Loader{Message: message, LoadTime: loadTime, Blocks: DefaultBlocks}
}

// Progress converts elapsed time to a fraction in [0,1].
func (l Loader) Progress(elapsed time.Duration) float64 {
	if l.LoadTime <= 0 || elapsed >= l.LoadTime {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(l.LoadTime)
}

// State returns every block for the given progress.
func (l Loader) State(progress float64) []BlockState {
	n := l.Blocks
	if n <= 0 {
		n = DefaultBlocks
	}
	filled := l.filled(progress, n)
	out := make([]BlockState, n)
	for i := range out {
		switch {
		case i == filled-1 && progress < 1:
			out[i] = BlockPulse
		case i < filled:
			out[i] = BlockSolid
		}
	}
	return out
}

func (l Loader) filled(progress float64, n int) int {
	if progress <= 0 {
		return 0
	}
	if progress >= 1 {
		return n
	}
	return int(progress * float64(n))
}

// Render draws the bar as text.
func (l Loader) Render(progress float64) string {
	var b strings.Builder
	for _, s := range l.State(progress) {
		switch s {
		case BlockSolid:
			b.WriteString("█")
		case BlockPulse:
			b.WriteString("▓")
		default:
			b.WriteString("░")
		}
	}
	return b.String()
}
