// Package grammar implements the rule-based grammar and style analyzer.
// Checks run over the same sentence and token segmentation the
// linguistic profiler uses, and issues are reported in first-occurrence
// order. Analysis is deterministic: identical input always yields the
// identical issue sequence.
package grammar

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
	"github.com/fairyhunter13/essay-evaluator/pkg/textx"
)

const snippetPad = 20

// Analyzer implements domain.GrammarAnalyzer.
type Analyzer struct {
	rules         ruleSet
	confusionKeys []string
}

// New loads the embedded rule dictionary and constructs an Analyzer.
func New() (*Analyzer, error) {
	rs, err := loadRules()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rs.Confusions))
	for k := range rs.Confusions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Analyzer{rules: rs, confusionKeys: keys}, nil
}

// MustNew is New for wiring paths where the embedded rules are known good.
func MustNew() *Analyzer {
	a, err := New()
	if err != nil {
		panic(err)
	}
	return a
}

type positioned struct {
	pos   int
	issue domain.GrammarIssue
}

// Analyze runs all checks over the text. Empty text yields an empty
// slice, never nil and never an error.
func (a *Analyzer) Analyze(text string) []domain.GrammarIssue {
	found := a.checkTokens(text)
	found = append(found, a.checkConfusions(text)...)
	found = append(found, checkSpacing(text)...)
	found = append(found, checkSentences(text)...)
	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })
	issues := make([]domain.GrammarIssue, 0, len(found))
	for _, f := range found {
		issues = append(issues, f.issue)
	}
	return issues
}

func (a *Analyzer) checkTokens(text string) []positioned {
	var out []positioned
	tokens := textx.TokenSpans(text)
	runes := []rune(text)
	for i, tok := range tokens {
		lower := strings.ToLower(tok.Text)

		if repl, ok := a.rules.Misspellings[lower]; ok {
			out = append(out, positioned{tok.Start, domain.GrammarIssue{
				Message:      "Possible spelling mistake found",
				Context:      textx.Snippet(text, tok.Start, tok.End, snippetPad),
				Replacements: matchCase(tok.Text, repl),
			}})
			continue
		}

		if tok.Text == "i" {
			out = append(out, positioned{tok.Start, domain.GrammarIssue{
				Message:      "The personal pronoun \"I\" should be uppercase",
				Context:      textx.Snippet(text, tok.Start, tok.End, snippetPad),
				Replacements: []string{"I"},
			}})
		}

		if i > 0 {
			prev := tokens[i-1]
			if strings.EqualFold(prev.Text, tok.Text) && isWord(tok.Text) && onlySpacesBetween(runes, prev.End, tok.Start) {
				out = append(out, positioned{prev.Start, domain.GrammarIssue{
					Message:      "Possible typo: repeated word",
					Context:      textx.Snippet(text, prev.Start, tok.End, snippetPad),
					Replacements: []string{tok.Text},
				}})
			}
			if art := articleFor(prev.Text, tok.Text); art != "" {
				out = append(out, positioned{prev.Start, domain.GrammarIssue{
					Message:      "Use \"" + art + "\" before this word",
					Context:      textx.Snippet(text, prev.Start, tok.End, snippetPad),
					Replacements: []string{matchCaseWord(prev.Text, art)},
				}})
			}
		}
	}
	return out
}

func (a *Analyzer) checkConfusions(text string) []positioned {
	var out []positioned
	lower := strings.ToLower(text)
	for _, key := range a.confusionKeys {
		rule := a.rules.Confusions[key]
		from := 0
		for {
			idx := strings.Index(lower[from:], key)
			if idx < 0 {
				break
			}
			abs := from + idx
			if wordBoundary(lower, abs, abs+len(key)) {
				start := utf8.RuneCountInString(text[:abs])
				end := start + utf8.RuneCountInString(key)
				out = append(out, positioned{start, domain.GrammarIssue{
					Message:      rule.Message,
					Context:      textx.Snippet(text, start, end, snippetPad),
					Replacements: rule.Suggestions,
				}})
			}
			from = abs + len(key)
		}
	}
	return out
}

func checkSpacing(text string) []positioned {
	var out []positioned
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == ' ' {
			j := i
			for j < len(runes) && runes[j] == ' ' {
				j++
			}
			if j-i >= 2 {
				out = append(out, positioned{i, domain.GrammarIssue{
					Message:      "Multiple consecutive spaces",
					Context:      textx.Snippet(text, i, j, snippetPad),
					Replacements: []string{" "},
				}})
				i = j - 1
				continue
			}
			if j < len(runes) && isClosePunct(runes[j]) {
				out = append(out, positioned{i, domain.GrammarIssue{
					Message:      "Unexpected whitespace before punctuation",
					Context:      textx.Snippet(text, i, j+1, snippetPad),
					Replacements: []string{string(runes[j])},
				}})
			}
			i = j - 1
			continue
		}
		if r == ',' || r == ';' || r == ':' || r == '!' || r == '?' {
			j := i
			for j < len(runes) && runes[j] == r {
				j++
			}
			if j-i >= 2 {
				out = append(out, positioned{i, domain.GrammarIssue{
					Message:      "Repeated punctuation mark",
					Context:      textx.Snippet(text, i, j, snippetPad),
					Replacements: []string{string(r)},
				}})
			}
			i = j - 1
		}
	}
	return out
}

func checkSentences(text string) []positioned {
	var out []positioned
	for _, sp := range textx.SentenceSpans(text) {
		first, _ := utf8.DecodeRuneInString(sp.Text)
		if unicode.IsLower(first) {
			tok := firstWord(sp.Text)
			out = append(out, positioned{sp.Start, domain.GrammarIssue{
				Message:      "Sentence should start with an uppercase letter",
				Context:      textx.Snippet(text, sp.Start, sp.Start+utf8.RuneCountInString(tok), snippetPad),
				Replacements: []string{capitalize(tok)},
			}})
		}
		last, _ := utf8.DecodeLastRuneInString(sp.Text)
		if last != '.' && last != '!' && last != '?' {
			out = append(out, positioned{sp.End, domain.GrammarIssue{
				Message:      "Sentence is missing terminal punctuation",
				Context:      textx.Snippet(text, sp.End, sp.End, snippetPad),
				Replacements: nil,
			}})
		}
	}
	return out
}

// articleFor reports the indefinite article the following word calls
// for when prev is the wrong one, or "" when prev is fine or not an
// article. Vowel-letter heuristic only.
func articleFor(prev, next string) string {
	p := strings.ToLower(prev)
	if p != "a" && p != "an" {
		return ""
	}
	first, _ := utf8.DecodeRuneInString(strings.ToLower(next))
	vowel := strings.ContainsRune("aeiou", first)
	if p == "a" && vowel {
		return "an"
	}
	if p == "an" && !vowel {
		return "a"
	}
	return ""
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && r != '\'' && r != '-' {
			return false
		}
	}
	return s != ""
}

func onlySpacesBetween(runes []rune, from, to int) bool {
	if from >= to {
		return false
	}
	for i := from; i < to; i++ {
		if runes[i] != ' ' {
			return false
		}
	}
	return true
}

func isClosePunct(r rune) bool {
	return r == ',' || r == '.' || r == ';' || r == ':' || r == '!' || r == '?'
}

func wordBoundary(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func firstWord(s string) string {
	toks := textx.Tokens(s)
	if len(toks) == 0 {
		return s
	}
	return toks[0]
}

// matchCase uppercases suggestions when the flagged token was
// capitalized, so replacements drop in cleanly.
func matchCase(token string, suggestions []string) []string {
	first, _ := utf8.DecodeRuneInString(token)
	if !unicode.IsUpper(first) {
		return suggestions
	}
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = matchCaseWord(token, s)
	}
	return out
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}

func matchCaseWord(token, word string) string {
	first, _ := utf8.DecodeRuneInString(token)
	if !unicode.IsUpper(first) {
		return word
	}
	r, size := utf8.DecodeRuneInString(word)
	return string(unicode.ToUpper(r)) + word[size:]
}
