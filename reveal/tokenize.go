// Package reveal animates markup strings from scrambled glyphs to their
// final text.
//
// A string is tokenized once into markup spans (tags and entities, passed
// through untouched) and characters. A Session shuffles the characters and
// settles them over time; an Animator drives a Session from a Clock and
// delivers every frame to a render callback.
package reveal

import (
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

const nbsp = "&nbsp;"

// Token is one atomic unit of the source markup.
type Token struct {
	Index  int
	Text   string
	Markup bool
}

// Item is a character token eligible for animation. Index is its slot in
// the display buffer.
type Item struct {
	Index int
	Char  string
}

// Content is the tokenized form of a markup string.
type Content struct {
	Tokens []Token
	// Start is the initial display buffer, one slot per token.
	Start []string
	Queue []Item
}

// Tokenize splits markup into tags, entities and single characters.
// Every input is accepted.
func Tokenize(markup string) Content {
	var c Content
	for rest := markup; rest != ""; {
		chunk, markupSpan := nextChunk(rest)
		rest = rest[len(chunk):]

		idx := len(c.Tokens)
		c.Tokens = append(c.Tokens, Token{Index: idx, Text: chunk, Markup: markupSpan})
		switch {
		case markupSpan:
			c.Start = append(c.Start, chunk)
		case chunk == " ":
			c.Start = append(c.Start, nbsp)
			c.Queue = append(c.Queue, Item{Index: idx, Char: chunk})
		default:
			c.Start = append(c.Start, "")
			c.Queue = append(c.Queue, Item{Index: idx, Char: chunk})
		}
	}
	return c
}

// nextChunk returns the token at the start of s.
func nextChunk(s string) (string, bool) {
	switch s[0] {
	case '<':
		if n := matchTag(s); n > 0 {
			return s[:n], true
		}
	case '&':
		if n := matchEntity(s); n > 0 {
			return s[:n], true
		}
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(s, -1)
	if cluster == "" {
		// invalid UTF-8 still advances one byte
		_, size := utf8.DecodeRuneInString(s)
		return s[:size], false
	}
	return cluster, false
}

// matchTag reports the length of a <...> span with a non-empty body.
func matchTag(s string) int {
	end := strings.IndexByte(s[1:], '>')
	if end < 1 {
		return 0
	}
	return end + 2
}

// matchEntity reports the length of an &...; span whose body holds no
// semicolon or whitespace.
func matchEntity(s string) int {
	for i, r := range s[1:] {
		switch {
		case r == ';':
			if i == 0 {
				return 0
			}
			return i + 2
		case unicode.IsSpace(r):
			return 0
		}
	}
	return 0
}

// String reassembles the tokens, reproducing the original input.
func (c Content) String() string {
	var b strings.Builder
	for _, t := range c.Tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Items returns the raw text of every token.
func (c Content) Items() []string {
	items := make([]string, len(c.Tokens))
	for i, t := range c.Tokens {
		items[i] = t.Text
	}
	return items
}

// Text returns the characters of the queue in source order.
func (c Content) Text() string {
	var b strings.Builder
	for _, it := range c.Queue {
		b.WriteString(it.Char)
	}
	return b.String()
}

// Prescrambled returns a start buffer where every non-whitespace character
// already shows a random glyph from pool. Whitespace is kept as is.
func (c Content) Prescrambled(pool []string, rng *rand.Rand) []string {
	start := make([]string, len(c.Start))
	copy(start, c.Start)
	if len(pool) == 0 {
		return start
	}
	for _, it := range c.Queue {
		if isBlank(it.Char) {
			continue
		}
		start[it.Index] = pool[rng.IntN(len(pool))]
	}
	return start
}

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}
