// Package extractor converts uploaded documents into normalized plain
// text for the evaluation pipeline. Plain text and OOXML word-processor
// files (.docx) are supported; everything else is rejected before any
// analysis runs.
package extractor

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
	"github.com/fairyhunter13/essay-evaluator/pkg/textx"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Extractor implements domain.TextExtractor. It is stateless and safe
// for concurrent use.
type Extractor struct{}

// New constructs an Extractor.
func New() *Extractor { return &Extractor{} }

// Extract returns sanitized plain text for the given upload. The
// declared format is taken from the filename extension; the content is
// sniffed and must agree with it.
func (e *Extractor) Extract(ctx domain.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return extractPlain(data)
	case ".docx":
		return extractDocx(data)
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func extractPlain(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: not valid UTF-8 text", domain.ErrCorruptDocument)
	}
	if m := mimetype.Detect(data); len(data) > 0 && !strings.HasPrefix(m.String(), "text/") {
		return "", fmt.Errorf("%w: declared text/plain, detected %s", domain.ErrCorruptDocument, m.String())
	}
	return textx.SanitizeText(string(data)), nil
}
