package reveal

import (
	"math"
	"strconv"
	"strings"
)

// Easing maps linear progress in [0,1] to eased progress in [0,1].
type Easing func(t float64) float64

func Linear(t float64) float64 { return t }

func SineIn(t float64) float64    { return 1 - math.Cos(t*math.Pi/2) }
func SineOut(t float64) float64   { return math.Sin(t * math.Pi / 2) }
func SineInOut(t float64) float64 { return -(math.Cos(math.Pi*t) - 1) / 2 }

func QuintIn(t float64) float64  { return t * t * t * t * t }
func QuintOut(t float64) float64 { return 1 - math.Pow(1-t, 5) }
func QuintInOut(t float64) float64 {
	if t < 0.5 {
		return 16 * t * t * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 5)/2
}

var easings = map[string]Easing{
	"linear":      Linear,
	"sine.in":     SineIn,
	"sine.out":    SineOut,
	"sine.inout":  SineInOut,
	"quint.in":    QuintIn,
	"quint.out":   QuintOut,
	"quint.inout": QuintInOut,
}

// EasingByName looks up an easing such as "linear" or "quint.inOut".
// Names are case-insensitive.
func EasingByName(name string) (Easing, bool) {
	e, ok := easings[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

// Clamp bounds v to [lo, hi]. NaN clamps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LeadingZeros pads n to the given number of places, e.g. 7 -> "007".
func LeadingZeros(n, places int) string {
	s := strconv.Itoa(n)
	if len(s) >= places {
		return s
	}
	return strings.Repeat("0", places-len(s)) + s
}
