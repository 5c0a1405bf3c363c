package main

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Zachkp/folio/chrome"
	"github.com/Zachkp/folio/reveal"
)

// Spacing of server-sent frames, overridable with FRAME_INTERVAL_MS
var frameInterval = 33 * time.Millisecond

// Cap on loader and transition streams
const maxChromeDuration = 10 * time.Second

// eventStream numbers the events of one response
type eventStream struct {
	c   *gin.Context
	id  string
	seq int
}

func newEventStream(c *gin.Context) *eventStream {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	return &eventStream{c: c, id: uuid.NewString()}
}

func (s *eventStream) send(event string, data any) {
	s.seq++
	s.c.Render(-1, sse.Event{
		Id:    s.id + "-" + strconv.Itoa(s.seq),
		Event: event,
		Data:  data,
	})
	s.c.Writer.Flush()
}

func setupStreamRoutes(r *gin.Engine) {
	r.GET("/reveal/:section/:index", streamReveal)
	r.GET("/loader", streamLoader)
	r.GET("/transition", streamTransition)
}

// streamReveal plays one content entry through the reveal engine as
// server-sent "frame" events, followed by a "done" event carrying the
// exact text.
func streamReveal(c *gin.Context) {
	section := c.Param("section")
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be a number"})
		return
	}
	content := site.Get()
	text, ok := content.Text(section, index)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown text"})
		return
	}

	cfg := presets.For(section).Config(index)
	if c.Query("nodelay") == "1" {
		cfg.Delay = 0
	}
	playReveal(c, text, cfg)
}

func playReveal(c *gin.Context, markup string, cfg reveal.Config) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	frames := make(chan string, 16)

	run := reveal.NewAnimator(reveal.NewFrameClock(frameInterval)).Start(markup, cfg,
		func(frame string) {
			select {
			case frames <- frame:
			case <-ctx.Done():
			}
		}, nil)
	defer run.Cancel()
	// unblocks a pending render before the run is cancelled
	defer cancel()

	stream := newEventStream(c)
	for {
		select {
		case frame := <-frames:
			stream.send("frame", frame)
		case <-run.Done():
			// Frames rendered before completion are still buffered
		drain:
			for {
				select {
				case frame := <-frames:
					stream.send("frame", frame)
				default:
					break drain
				}
			}
			if !run.Cancelled() {
				stream.send("done", markup)
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

type loaderFrame struct {
	Progress float64  `json:"progress"`
	Bar      string   `json:"bar"`
	Blocks   []string `json:"blocks"`
	Message  string   `json:"message,omitempty"`
}

// streamLoader sends the block progress bar until it fills
func streamLoader(c *gin.Context) {
	loader := chrome.NewLoader(c.DefaultQuery("message", "Initializing interface..."),
		queryDuration(c, "ms", 800*time.Millisecond))

	stream := newEventStream(c)
	tickChrome(c.Request.Context(), loader.LoadTime, func(elapsed time.Duration) bool {
		p := loader.Progress(elapsed)
		states := loader.State(p)
		blocks := make([]string, len(states))
		for i, s := range states {
			blocks[i] = s.String()
		}
		stream.send("progress", loaderFrame{
			Progress: math.Round(p*1000) / 1000,
			Bar:      loader.Render(p),
			Blocks:   blocks,
			Message:  loader.Message,
		})
		return p < 1
	})
	stream.send("done", "loaded")
}

// streamTransition sends the wipe as svg frames
func streamTransition(c *gin.Context) {
	wipe := chrome.Wipe{
		FlipX: c.Query("flipx") == "1",
		FlipY: c.Query("flipy") == "1",
		Ease:  reveal.QuintOut,
	}
	if c.Query("mode") == "reveal" {
		wipe.Mode = chrome.Reveal
	}
	duration := queryDuration(c, "ms", 500*time.Millisecond)
	color := c.DefaultQuery("color", "#111111")
	if !isHexColor(color) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "color must be a hex value"})
		return
	}

	stream := newEventStream(c)
	tickChrome(c.Request.Context(), duration, func(elapsed time.Duration) bool {
		p := 1.0
		if duration > 0 {
			p = math.Min(1, float64(elapsed)/float64(duration))
		}
		stream.send("frame", wipe.SVG(p, 100, 100, color))
		return p < 1
	})
	stream.send("done", "complete")
}

// tickChrome calls frame on every interval until it returns false
func tickChrome(ctx context.Context, total time.Duration, frame func(elapsed time.Duration) bool) {
	start := time.Now()
	if !frame(0) || total <= 0 {
		return
	}
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			if !frame(now.Sub(start)) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func queryDuration(c *gin.Context, key string, def time.Duration) time.Duration {
	ms, err := strconv.Atoi(c.Query(key))
	if err != nil || ms < 0 {
		return def
	}
	d := time.Duration(ms) * time.Millisecond
	if d > maxChromeDuration {
		d = maxChromeDuration
	}
	return d
}

func isHexColor(s string) bool {
	if len(s) != 4 && len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		if !('0' <= r && r <= '9' || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F') {
			return false
		}
	}
	return true
}
