package reveal

import (
	"html"
	"math"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/rivo/uniseg"
)

// Frame is the result of one tick.
type Frame struct {
	Text     string
	Progress float64
	// Waiting is set while the configured delay has not elapsed.
	Waiting bool
	// Settled counts queue positions showing their real character.
	Settled int
	Done    bool
}

// Option customises a Session.
type Option func(*Session)

// WithRand makes shuffling and glyph choice deterministic.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

// Session is the state of one running reveal. It is not safe for
// concurrent use; an Animator serialises access.
type Session struct {
	cfg     Config
	source  string
	content Content

	order   []Item
	cache   []string
	display []string
	pool    []string
	glyphs  []string // type mode graphemes

	rng *rand.Rand

	start    time.Time
	started  bool
	progress float64
	counts   [3]int
	done     bool
}

// NewSession tokenizes markup and prepares a shuffled reveal order.
func NewSession(markup string, cfg Config, opts ...Option) *Session {
	s := &Session{
		cfg:     cfg.Normalize(),
		source:  markup,
		content: Tokenize(markup),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	if s.cfg.Mode == ModeType {
		s.glyphs = graphemes(markup)
		return s
	}

	s.pool = buildPool(s.cfg, s.content.Queue)
	s.order = make([]Item, len(s.content.Queue))
	copy(s.order, s.content.Queue)
	s.rng.Shuffle(len(s.order), func(i, j int) {
		s.order[i], s.order[j] = s.order[j], s.order[i]
	})
	s.cache = make([]string, len(s.order))

	if s.cfg.Prescramble {
		s.display = s.content.Prescrambled(s.pool, s.rng)
	} else {
		s.display = make([]string, len(s.content.Start))
		copy(s.display, s.content.Start)
	}
	return s
}

// Content returns the tokenized source.
func (s *Session) Content() Content { return s.content }

// Progress returns the eased progress of the last tick.
func (s *Session) Progress() float64 { return s.progress }

// Done reports whether the session has rendered its final text.
func (s *Session) Done() bool { return s.done }

// Counts returns the show, mash and done counts of the last tick.
func (s *Session) Counts() (show, mash, done int) {
	return s.counts[0], s.counts[1], s.counts[2]
}

// Tick advances the session to now and renders it. The session clock
// starts at the first tick.
func (s *Session) Tick(now time.Time) Frame {
	if s.done {
		return s.finalFrame()
	}
	if !s.started {
		s.start = now
		s.started = true
	}
	if s.source == "" {
		return s.finish()
	}

	elapsed := now.Sub(s.start) - s.cfg.Delay
	if elapsed < 0 {
		return Frame{Text: s.waitingText(), Waiting: true}
	}

	linear := 1.0
	if s.cfg.Duration > 0 {
		linear = Clamp(float64(elapsed)/float64(s.cfg.Duration), 0, 1)
	}
	eased := 1.0
	if linear < 1 {
		eased = Clamp(s.cfg.Easing(linear), 0, 1)
	}
	if eased > s.progress {
		s.progress = eased
	}
	if s.progress >= 1 {
		return s.finish()
	}

	if s.cfg.Mode == ModeType {
		return Frame{Text: s.typed(), Progress: s.progress}
	}
	settled := s.decode()
	return Frame{
		Text:     strings.Join(s.display, ""),
		Progress: s.progress,
		Settled:  settled,
	}
}

// decode updates the display buffer for the current progress and returns
// the number of settled positions.
func (s *Session) decode() int {
	n := float64(len(s.order))
	show := int(math.Floor(math.Pow(s.progress, s.cfg.ShowPower) * n))
	mash := int(math.Floor(math.Pow(s.progress, s.cfg.MashPower) * n))
	done := int(math.Floor(math.Pow(s.progress, s.cfg.DonePower) * n))
	s.counts = [3]int{show, mash, done}

	for i := 0; i < show; i++ {
		it := s.order[i]
		switch {
		case i <= done:
			s.display[it.Index] = it.Char
		case i <= mash:
			if s.cache[i] == "" || s.rng.Float64() < s.cfg.Mutation {
				s.cache[i] = s.glyph()
			}
			s.display[it.Index] = s.cache[i]
		default:
			s.display[it.Index] = s.pending(s.glyph())
		}
	}
	return min(show, done+1)
}

func (s *Session) typed() string {
	n := len(s.glyphs)
	idx := min(n, int(math.Floor(s.progress*float64(n+1))))
	return strings.Join(s.glyphs[:idx], "") + s.cfg.Cursor
}

func (s *Session) waitingText() string {
	if s.cfg.Mode == ModeType {
		return ""
	}
	return strings.Join(s.display, "")
}

func (s *Session) finish() Frame {
	s.done = true
	s.progress = 1
	n := len(s.order)
	s.counts = [3]int{n, n, n}
	for _, it := range s.order {
		s.display[it.Index] = it.Char
	}
	return s.finalFrame()
}

func (s *Session) finalFrame() Frame {
	return Frame{Text: s.source, Progress: 1, Settled: len(s.order), Done: true}
}

func (s *Session) glyph() string {
	return s.pool[s.rng.IntN(len(s.pool))]
}

func (s *Session) pending(g string) string {
	if s.cfg.PendingClass == "" {
		return g
	}
	return `<span class="` + s.cfg.PendingClass + `">` + g + `</span>`
}

// buildPool splits the alphabet into glyphs and, when enabled, appends the
// distinct lower-cased characters of the queue. Glyphs are escaped so a
// source '<' or '&' cannot open markup.
func buildPool(cfg Config, queue []Item) []string {
	seen := make(map[string]bool)
	var pool []string
	add := func(g string) {
		if seen[g] || strings.TrimFunc(g, unicode.IsSpace) == "" {
			return
		}
		seen[g] = true
		pool = append(pool, html.EscapeString(g))
	}
	for _, g := range graphemes(cfg.Alphabet) {
		add(g)
	}
	if cfg.UseSource {
		for _, it := range queue {
			add(strings.ToLower(it.Char))
		}
	}
	if len(pool) == 0 {
		for _, g := range graphemes(DefaultAlphabet) {
			add(g)
		}
	}
	return pool
}

func graphemes(s string) []string {
	var out []string
	state := -1
	for s != "" {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		if cluster == "" {
			break
		}
		out = append(out, cluster)
	}
	return out
}
