// reveal-demo plays the reveal engine and the page chrome in a terminal.
//
//	reveal-demo [-mode decode|type] [-ms 2000] [-easing quint.inout] [-print] [text]
//
// With -print the frames are written to stdout, one per line, instead of
// being animated.
//
// Keys: r replays, m switches mode, w runs the wipe, q or Esc quits.
// Moving the mouse leaves a particle trail.
package main

import (
	"flag"
	"fmt"
	"html"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/Zachkp/folio/chrome"
	"github.com/Zachkp/folio/reveal"
)

const defaultText = "Hi, I'm Zach.<br>I build <b>backend</b> systems &amp; odd little interfaces."

var (
	textStyle    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	pendingStyle = tcell.StyleDefault.Foreground(tcell.ColorGray)
	boldStyle    = textStyle.Bold(true)
	barStyle     = tcell.StyleDefault.Foreground(tcell.ColorLightSkyBlue)
	trailStyle   = tcell.StyleDefault.Foreground(tcell.ColorDarkCyan)
	helpStyle    = tcell.StyleDefault.Foreground(tcell.ColorDimGray)
)

type demo struct {
	screen tcell.Screen
	cfg    reveal.Config
	markup string

	animator *reveal.Animator
	frames   chan string
	frame    string

	loader      chrome.Loader
	loaderStart time.Time

	wipe      chrome.Wipe
	wipeStart time.Time
	wiping    bool

	trail *chrome.Trail
}

func main() {
	var (
		mode      string
		ms        int
		easing    string
		alphabet  string
		loadMS    int
		printOnly bool
	)
	flag.StringVar(&mode, "mode", "decode", "Reveal mode: 'decode' or 'type'")
	flag.IntVar(&ms, "ms", 2000, "Reveal duration in milliseconds")
	flag.StringVar(&easing, "easing", "quint.inout", "Easing curve name")
	flag.StringVar(&alphabet, "alphabet", "", "Scramble alphabet (default block glyphs)")
	flag.IntVar(&loadMS, "load", 800, "Loader duration in milliseconds")
	flag.BoolVar(&printOnly, "print", false, "Print frames instead of animating")
	flag.Parse()

	cfg := reveal.DefaultConfig()
	cfg.Duration = time.Duration(ms) * time.Millisecond
	if mode == "type" {
		cfg.Mode = reveal.ModeType
	}
	if e, ok := reveal.EasingByName(easing); ok {
		cfg.Easing = e
	} else {
		fmt.Fprintf(os.Stderr, "unknown easing %q\n", easing)
		os.Exit(2)
	}
	if alphabet != "" {
		cfg.Alphabet = alphabet
	}

	markup := defaultText
	if flag.NArg() > 0 {
		markup = html.EscapeString(strings.Join(flag.Args(), " "))
	}

	if printOnly {
		for _, frame := range reveal.Frames(markup, cfg, reveal.DefaultFrameInterval) {
			fmt.Println(frame)
		}
		return
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "screen init: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()
	screen.EnableMouse()

	d := &demo{
		screen:      screen,
		cfg:         cfg,
		markup:      markup,
		animator:    reveal.NewAnimator(reveal.NewFrameClock(reveal.DefaultFrameInterval)),
		frames:      make(chan string, 1),
		loader:      chrome.NewLoader("Initializing interface...", time.Duration(loadMS)*time.Millisecond),
		loaderStart: time.Now(),
		wipe:        chrome.Wipe{Mode: chrome.Reveal, FlipX: true, Ease: reveal.QuintOut},
		trail:       chrome.NewTrail(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))),
	}
	defer d.animator.Stop()
	d.run()
}

func (d *demo) run() {
	// Dedicated input goroutine
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := d.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	started := false
	for {
		select {
		case ev, ok := <-events:
			if !ok || !d.handle(ev) {
				return
			}
			continue
		case frame := <-d.frames:
			d.frame = frame
		case <-ticker.C:
		}

		if !started && d.loader.Progress(time.Since(d.loaderStart)) >= 1 {
			started = true
			d.replay()
		}
		d.trail.Step()
		d.draw(started)
	}
}

// handle reports false when the demo should exit
func (d *demo) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case 'r':
			d.replay()
		case 'm':
			if d.cfg.Mode == reveal.ModeDecode {
				d.cfg.Mode = reveal.ModeType
			} else {
				d.cfg.Mode = reveal.ModeDecode
			}
			d.replay()
		case 'w':
			d.wiping = true
			d.wipeStart = time.Now()
		}
	case *tcell.EventMouse:
		x, y := ev.Position()
		d.trail.Emit(float64(x), float64(y))
	case *tcell.EventResize:
		d.screen.Sync()
	}
	return true
}

// replay cancels the current reveal and starts another
func (d *demo) replay() {
	d.animator.Start(d.markup, d.cfg, func(frame string) {
		// keep only the newest frame
		select {
		case d.frames <- frame:
		default:
			select {
			case <-d.frames:
			default:
			}
			select {
			case d.frames <- frame:
			default:
			}
		}
	}, nil)
}

func (d *demo) draw(started bool) {
	s := d.screen
	s.Clear()
	w, h := s.Size()

	if !started {
		p := d.loader.Progress(time.Since(d.loaderStart))
		bar := d.loader.Render(p)
		y := h / 2
		drawString(s, (w-runewidth.StringWidth(d.loader.Message))/2, y-1, d.loader.Message, helpStyle)
		drawString(s, (w-runewidth.StringWidth(bar))/2, y, bar, barStyle)
		s.Show()
		return
	}

	drawMarkup(s, 4, 2, w-8, d.frame)
	drawString(s, 2, h-1, fmt.Sprintf("%s · r replay · m mode · w wipe · q quit", d.cfg.Mode), helpStyle)

	for _, p := range d.trail.Particles() {
		glyph := '·'
		if p.Size > 1.5 {
			glyph = '•'
		}
		s.SetContent(int(p.X), int(p.Y), glyph, nil, trailStyle)
	}

	if d.wiping {
		d.drawWipe(w, h)
	}
	s.Show()
}

func (d *demo) drawWipe(w, h int) {
	const duration = 600 * time.Millisecond
	p := float64(time.Since(d.wipeStart)) / float64(duration)
	if p >= 1 {
		d.wiping = false
		return
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := d.wipe.Alpha(p, float64(w), float64(h), float64(x)+0.5, float64(y)+0.5)
			switch {
			case a >= 1:
				d.screen.SetContent(x, y, '█', nil, textStyle)
			case a > 0:
				d.screen.SetContent(x, y, '▒', nil, pendingStyle)
			}
		}
	}
}

func drawString(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}

// drawMarkup renders a reveal frame, wrapping at width. Tags are not
// printed; pending glyphs are dimmed and <br> breaks the line.
func drawMarkup(s tcell.Screen, left, top, width int, markup string) {
	x, y := left, top
	style := textStyle
	var stack []tcell.Style

	for _, tok := range reveal.Tokenize(markup).Tokens {
		if tok.Markup {
			tag := strings.ToLower(tok.Text)
			switch {
			case strings.HasPrefix(tag, "<br"):
				x, y = left, y+1
			case strings.HasPrefix(tag, "</"):
				if n := len(stack); n > 0 {
					style, stack = stack[n-1], stack[:n-1]
				}
			case strings.HasSuffix(tag, "/>"):
			case strings.HasPrefix(tag, `<span class="temp"`):
				stack = append(stack, style)
				style = pendingStyle
			case strings.HasPrefix(tag, "<b") || strings.HasPrefix(tag, "<strong"):
				stack = append(stack, style)
				style = boldStyle
			default:
				stack = append(stack, style)
			}
			continue
		}

		glyph := tok.Text
		if strings.HasPrefix(glyph, "&") {
			glyph = html.UnescapeString(glyph)
		}
		runes := []rune(glyph)
		if len(runes) == 0 {
			continue
		}
		gw := runewidth.StringWidth(glyph)
		if x+gw > left+width {
			x, y = left, y+1
		}
		s.SetContent(x, y, runes[0], runes[1:], style)
		x += max(gw, 1)
	}
}
