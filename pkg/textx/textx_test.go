package textx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/essay-evaluator/pkg/textx"
)

func TestSanitizeText_Normalizes(t *testing.T) {
	t.Parallel()
	in := "  Hello\r\nworld.\rBye.\x00\x07  "
	out := textx.SanitizeText(in)
	assert.Equal(t, "Hello\nworld.\nBye.", out)
}

func TestSanitizeText_KeepsTabsAndNewlines(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a\tb\nc", textx.SanitizeText("a\tb\nc"))
}

func TestSentences_Basic(t *testing.T) {
	t.Parallel()
	got := textx.Sentences("First sentence. Second one! Third?")
	require.Len(t, got, 3)
	assert.Equal(t, "First sentence.", got[0])
	assert.Equal(t, "Second one!", got[1])
	assert.Equal(t, "Third?", got[2])
}

func TestSentences_NoTerminalPunctuation(t *testing.T) {
	t.Parallel()
	got := textx.Sentences("no punctuation at all")
	require.Len(t, got, 1)
	assert.Equal(t, "no punctuation at all", got[0])
}

func TestSentences_TrailingQuote(t *testing.T) {
	t.Parallel()
	got := textx.Sentences(`He said "stop." Then silence.`)
	require.Len(t, got, 2)
	assert.Equal(t, `He said "stop."`, got[0])
	assert.Equal(t, "Then silence.", got[1])
}

func TestSentences_EllipsisEndsSentence(t *testing.T) {
	t.Parallel()
	got := textx.Sentences("Wait... it moved. Done.")
	require.Len(t, got, 3)
	assert.Equal(t, "Wait...", got[0])
	assert.Equal(t, "it moved.", got[1])
}

func TestSentences_Empty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, textx.Sentences(""))
	assert.Nil(t, textx.Sentences("   \n  "))
}

func TestSentenceSpans_Offsets(t *testing.T) {
	t.Parallel()
	s := "One. Two."
	spans := textx.SentenceSpans(s)
	require.Len(t, spans, 2)
	runes := []rune(s)
	for _, sp := range spans {
		assert.Equal(t, sp.Text, string(runes[sp.Start:sp.End]))
	}
}

func TestTokens_JoinersKept(t *testing.T) {
	t.Parallel()
	got := textx.Tokens("Don't split well-formed words, ok?")
	assert.Equal(t, []string{"Don't", "split", "well-formed", "words", "ok"}, got)
}

func TestTokens_TrailingApostropheDropped(t *testing.T) {
	t.Parallel()
	got := textx.Tokens("the dogs' bowls")
	assert.Equal(t, []string{"the", "dogs", "bowls"}, got)
}

func TestTokens_Empty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, textx.Tokens("... !!! ,,,"))
}

func TestTokenSpans_Offsets(t *testing.T) {
	t.Parallel()
	s := "abc  déf"
	spans := textx.TokenSpans(s)
	require.Len(t, spans, 2)
	runes := []rune(s)
	for _, sp := range spans {
		assert.Equal(t, sp.Text, string(runes[sp.Start:sp.End]))
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", textx.Preview("hello", 0))
	assert.Equal(t, "hel", textx.Preview("hello", 3))
	assert.Equal(t, "hello", textx.Preview("hello", 10))
	// rune-safe truncation
	assert.Equal(t, "héllo", textx.Preview("héllo world", 5))
}

func TestSnippet(t *testing.T) {
	t.Parallel()
	s := "the quick brown fox jumps"
	assert.Equal(t, "quick brown fox j", textx.Snippet(s, 10, 15, 6))
	assert.Equal(t, "the", textx.Snippet(s, 0, 3, 0))
	assert.Equal(t, "", textx.Snippet(s, 5, 5, 0))
}
