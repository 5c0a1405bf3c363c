package reveal

import (
	"math"
	"sort"
	"time"
)

// Mode selects how a session renders progress.
type Mode uint8

const (
	// ModeDecode settles shuffled characters out of scramble glyphs.
	ModeDecode Mode = iota
	// ModeType types the plain text left to right behind a cursor.
	ModeType
)

func (m Mode) String() string {
	if m == ModeType {
		return "type"
	}
	return "decode"
}

const (
	DefaultAlphabet = "▒░█▓"
	SymbolAlphabet  = "-/\\>|<_=+*&^%$#@![]{}:;,.?"

	defaultShowPower = 0.5
	defaultMashPower = 2
	defaultDonePower = 15

	// smallest distance kept between adjacent powers
	powerGap = 0.01
)

// Config controls one reveal.
type Config struct {
	Mode Mode

	// Delay passes before the session clock starts moving.
	Delay time.Duration
	// Duration is the wall time from progress 0 to 1.
	Duration time.Duration
	Easing   Easing

	// Alphabet is the pool of scramble glyphs.
	Alphabet string
	// UseSource adds the distinct lower-cased characters of the input
	// to the pool.
	UseSource bool

	// ShowPower, MashPower and DonePower shape the touched, mashing and
	// settled fractions of the queue as progress^power.
	ShowPower float64
	MashPower float64
	DonePower float64

	// Mutation is the per-tick chance a mashing glyph is re-rolled.
	Mutation float64

	// Cursor trails the typed prefix in ModeType.
	Cursor string

	// Prescramble fills untouched characters with random glyphs instead
	// of blanks before the first tick.
	Prescramble bool

	// PendingClass is the span class wrapped around pending glyphs.
	PendingClass string
}

// DefaultConfig returns the decode settings used across the site.
func DefaultConfig() Config {
	return Config{
		Mode:         ModeDecode,
		Duration:     2 * time.Second,
		Easing:       QuintInOut,
		Alphabet:     DefaultAlphabet,
		UseSource:    true,
		ShowPower:    defaultShowPower,
		MashPower:    defaultMashPower,
		DonePower:    defaultDonePower,
		Mutation:     0.15,
		Cursor:       "_",
		PendingClass: "temp",
	}
}

// Normalize returns a copy with every field in a usable range. The powers
// are reordered so that Done > Mash > Show >= 0 always holds.
func (c Config) Normalize() Config {
	if c.Delay < 0 {
		c.Delay = 0
	}
	if c.Duration < 0 {
		c.Duration = 0
	}
	if c.Easing == nil {
		c.Easing = Linear
	}
	c.Mutation = Clamp(c.Mutation, 0, 1)

	p := []float64{
		finiteOr(c.ShowPower, defaultShowPower),
		finiteOr(c.MashPower, defaultMashPower),
		finiteOr(c.DonePower, defaultDonePower),
	}
	sort.Float64s(p)
	if p[0] < 0 {
		p[0] = 0
	}
	if p[1] < p[0]+powerGap {
		p[1] = p[0] + powerGap
	}
	if p[2] < p[1]+powerGap {
		p[2] = p[1] + powerGap
	}
	c.ShowPower, c.MashPower, c.DonePower = p[0], p[1], p[2]
	return c
}

func finiteOr(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}
