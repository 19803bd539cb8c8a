package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
	"github.com/fairyhunter13/essay-evaluator/pkg/textx"
)

// extractDocx pulls paragraph text out of word/document.xml inside the
// OOXML container. Any structural failure (bad zip, missing part,
// malformed XML) maps to ErrCorruptDocument.
func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a valid docx container: %v", domain.ErrCorruptDocument, err)
	}
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			part = f
			break
		}
	}
	if part == nil {
		return "", fmt.Errorf("%w: word/document.xml missing", domain.ErrCorruptDocument)
	}
	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}
	defer func() { _ = rc.Close() }()

	text, err := readDocumentXML(rc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}
	return textx.SanitizeText(text), nil
}

// readDocumentXML walks the WordprocessingML body, joining runs of text
// and separating paragraphs with newlines.
func readDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br", "tab":
				b.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
