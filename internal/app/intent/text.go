package intent

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PabloGalante/noto-agent/internal/textfold"
)

// span is a half-open rune range of an input.
type span struct{ start, end int }

// text pairs an input with its folded form. Both have the same rune count,
// so matches found on the folded form address the original.
type text struct {
	orig []rune
	fold string
	norm string // " w1 w2 ... " over folded words
}

func newText(s string) text {
	return text{
		orig: []rune(s),
		fold: textfold.Fold(s),
		norm: " " + strings.Join(textfold.Words(s), " ") + " ",
	}
}

func (t text) String() string { return string(t.orig) }

// has reports whether any phrase occurs as whole folded words.
func (t text) has(phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(t.norm, " "+p+" ") {
			return true
		}
	}
	return false
}

func (t text) words() []string {
	return strings.Fields(t.norm)
}

func (t text) firstWord() string {
	if w := t.words(); len(w) > 0 {
		return w[0]
	}
	return ""
}

// find returns the first match of re on the folded text and its submatches.
func (t text) find(re *regexp.Regexp) (span, []string, bool) {
	loc := re.FindStringSubmatchIndex(t.fold)
	if loc == nil {
		return span{}, nil, false
	}
	subs := make([]string, len(loc)/2)
	for i := range subs {
		if loc[2*i] >= 0 {
			subs[i] = t.fold[loc[2*i]:loc[2*i+1]]
		}
	}
	return t.runeSpan(loc[0], loc[1]), subs, true
}

func (t text) runeSpan(byteStart, byteEnd int) span {
	return span{
		start: utf8.RuneCountInString(t.fold[:byteStart]),
		end:   utf8.RuneCountInString(t.fold[:byteEnd]),
	}
}

// slice returns the original text of s.
func (t text) slice(s span) string {
	return string(t.orig[s.start:s.end])
}

// without returns the original text with spans removed and whitespace collapsed.
func (t text) without(spans ...span) string {
	drop := make([]bool, len(t.orig))
	for _, s := range spans {
		for i := s.start; i < s.end && i < len(drop); i++ {
			drop[i] = true
		}
	}
	var b strings.Builder
	for i, r := range t.orig {
		if drop[i] {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func (t text) isQuestion() bool {
	return strings.ContainsAny(string(t.orig), "?¿") || interrogatives[t.firstWord()]
}

// capitalize upper-cases the first rune.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// trimFillers drops filler words from both ends of s. lead and trail are folded words.
func trimFillers(s string, lead, trail map[string]bool) string {
	words := strings.Fields(s)
	clean := func(w string) string {
		return strings.TrimFunc(textfold.Fold(w), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
	}
	for len(words) > 0 {
		w := clean(words[0])
		if w != "" && !lead[w] {
			break
		}
		words = words[1:]
	}
	for len(words) > 0 {
		w := clean(words[len(words)-1])
		if w != "" && !trail[w] {
			break
		}
		words = words[:len(words)-1]
	}
	out := strings.Join(words, " ")
	return strings.TrimFunc(out, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(",.:;!¡-", r)
	})
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
