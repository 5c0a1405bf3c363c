package chrome

import (
	"math"
	"strconv"
	"strings"
)

// WipeMode picks whether the wipe covers or uncovers the view.
type WipeMode uint8

const (
	Obscure WipeMode = iota
	Reveal
)

// Curve exponents and the translucent band opacity.
const (
	curvePower   = 0.85
	curveOffset  = 0.95
	curvePower2  = 3
	curveOffset2 = 0.95
	bandOpacity  = 0.5
)

type Point struct {
	X, Y float64
}

// Quad is a filled shape whose points run top-left, top-right,
// bottom-right, bottom-left along two vertical edges.
type Quad struct {
	Points [4]Point
	Alpha  float64
}

// Wipe is a diagonal sweep drawn as a translucent band trailing a solid
// fill.
type Wipe struct {
	Mode  WipeMode
	FlipX bool
	FlipY bool
	// Ease, when set, reshapes progress before drawing.
	Ease func(float64) float64
}

// Quads returns the shapes to draw at progress p on a width×height canvas.
func (w Wipe) Quads(p, width, height float64) []Quad {
	p = math.Max(0, math.Min(1, p))
	if w.Ease != nil {
		p = w.Ease(p)
	}

	p1 := math.Pow(p, curvePower)
	p2 := math.Pow(p, curvePower+curveOffset)
	p3 := math.Pow(p, curvePower+curvePower2)
	p4 := math.Pow(p, curvePower+curvePower2+curveOffset2)

	y := func(v float64) float64 {
		out := height - v*height
		if w.FlipY {
			out = height - out
		}
		return out
	}
	top, bottom := y(1), y(0)
	y1, y2, y3, y4 := y(p1), y(p2), y(p3), y(p4)

	x1, x2 := 0.0, width
	if w.FlipX {
		x1, x2 = width, 0
	}

	band := Quad{
		Points: [4]Point{{x1, y1}, {x2, y2}, {x2, y4}, {x1, y3}},
		Alpha:  bandOpacity,
	}
	if w.Mode == Reveal {
		solid := Quad{
			Points: [4]Point{{x1, top}, {x2, top}, {x2, y2}, {x1, y1}},
			Alpha:  1,
		}
		return []Quad{solid, band}
	}
	solid := Quad{
		Points: [4]Point{{x1, y3}, {x2, y4}, {x2, bottom}, {x1, bottom}},
		Alpha:  1,
	}
	return []Quad{band, solid}
}

// Alpha returns the strongest opacity covering (x, y).
func (w Wipe) Alpha(p, width, height, x, y float64) float64 {
	best := 0.0
	for _, q := range w.Quads(p, width, height) {
		if q.Alpha > best && q.contains(x, y) {
			best = q.Alpha
		}
	}
	return best
}

func (q Quad) contains(x, y float64) bool {
	a, b, c, d := q.Points[0], q.Points[1], q.Points[2], q.Points[3]
	span := b.X - a.X
	if span == 0 {
		return false
	}
	t := (x - a.X) / span
	if t < 0 || t > 1 {
		return false
	}
	e1 := a.Y + (b.Y-a.Y)*t
	e2 := d.Y + (c.Y-d.Y)*t
	lo, hi := math.Min(e1, e2), math.Max(e1, e2)
	return y >= lo && y <= hi
}

// SVG renders the wipe as an inline svg element.
func (w Wipe) SVG(p, width, height float64, color string) string {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)
	b.WriteString(num(width) + " " + num(height))
	b.WriteString(`" preserveAspectRatio="none">`)
	for _, q := range w.Quads(p, width, height) {
		b.WriteString(`<polygon points="`)
		for i, pt := range q.Points {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(num(pt.X) + "," + num(pt.Y))
		}
		b.WriteString(`" fill="` + color + `" fill-opacity="` + num(q.Alpha) + `"/>`)
	}
	b.WriteString(`</svg>`)
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
