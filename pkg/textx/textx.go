// Package textx provides small text utilities used across the project.
// Sentence segmentation and tokenization live here so the grammar
// analyzer and the linguistic profiler share one structural model of
// the text.
package textx

import (
	"strings"
	"unicode"
)

// Span is a slice of the analyzed text with its rune offsets.
type Span struct {
	Text  string
	Start int // rune offset, inclusive
	End   int // rune offset, exclusive
}

// SanitizeText normalizes line endings to \n, removes control characters
// except tab/newline, and trims surrounding space. Sentence-terminal
// punctuation is preserved.
func SanitizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func isTerminal(r rune) bool { return r == '.' || r == '!' || r == '?' }

// SentenceSpans splits text into sentence spans. A sentence ends at a
// run of terminal punctuation (plus trailing quotes or brackets)
// followed by whitespace or end of text; the punctuation stays attached
// to its sentence. Empty input yields nil.
func SentenceSpans(s string) []Span {
	var out []Span
	runes := []rune(s)
	start := 0
	i := 0
	emit := func(from, to int) {
		text := string(runes[from:to])
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return
		}
		lead := 0
		for _, r := range text {
			if !unicode.IsSpace(r) {
				break
			}
			lead++
		}
		out = append(out, Span{Text: trimmed, Start: from + lead, End: from + lead + len([]rune(trimmed))})
	}
	for i < len(runes) {
		if isTerminal(runes[i]) {
			j := i + 1
			for j < len(runes) && (isTerminal(runes[j]) || runes[j] == '"' || runes[j] == '\'' || runes[j] == ')' || runes[j] == ']') {
				j++
			}
			if j >= len(runes) || unicode.IsSpace(runes[j]) {
				emit(start, j)
				start = j
			}
			i = j
			continue
		}
		i++
	}
	emit(start, len(runes))
	return out
}

// Sentences returns the sentence texts only.
func Sentences(s string) []string {
	spans := SentenceSpans(s)
	if spans == nil {
		return nil
	}
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = sp.Text
	}
	return out
}

// TokenSpans splits text into word tokens: runs of letters and digits,
// keeping internal apostrophes and hyphens ("don't", "well-formed").
func TokenSpans(s string) []Span {
	var out []Span
	runes := []rune(s)
	start := -1
	flush := func(end int) {
		if start >= 0 {
			out = append(out, Span{Text: string(runes[start:end]), Start: start, End: end})
			start = -1
		}
	}
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if start < 0 {
				start = i
			}
		case (r == '\'' || r == '-') && start >= 0 && i+1 < len(runes) && unicode.IsLetter(runes[i+1]):
			// keep the joiner inside the token
		default:
			flush(i)
		}
	}
	flush(len(runes))
	return out
}

// Tokens returns the token texts only.
func Tokens(s string) []string {
	spans := TokenSpans(s)
	if spans == nil {
		return nil
	}
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = sp.Text
	}
	return out
}

// Preview returns the first n runes of s.
func Preview(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Snippet returns the text around the rune range [start,end) padded by
// pad runes on each side, for use as an issue context excerpt.
func Snippet(s string, start, end, pad int) string {
	runes := []rune(s)
	lo := start - pad
	if lo < 0 {
		lo = 0
	}
	hi := end + pad
	if hi > len(runes) {
		hi = len(runes)
	}
	if lo >= hi {
		return ""
	}
	return strings.TrimSpace(string(runes[lo:hi]))
}
