package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second</w:t></w:r><w:r><w:t xml:space="preserve"> paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtract_PlainText(t *testing.T) {
	t.Parallel()
	e := New()
	got, err := e.Extract(context.Background(), "essay.txt", []byte("Hello world.\r\nSecond line.  "))
	require.NoError(t, err)
	assert.Equal(t, "Hello world.\nSecond line.", got)
}

func TestExtract_PlainText_InvalidUTF8(t *testing.T) {
	t.Parallel()
	e := New()
	_, err := e.Extract(context.Background(), "essay.txt", []byte{0xff, 0xfe, 0x00, 0x41})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptDocument))
}

func TestExtract_PlainText_BinaryDisguisedAsTxt(t *testing.T) {
	t.Parallel()
	e := New()
	// A zip archive renamed to .txt: valid UTF-8 prefix but not text.
	data := buildDocx(t, sampleDocumentXML)
	_, err := e.Extract(context.Background(), "essay.txt", data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptDocument))
}

func TestExtract_UnsupportedExtension(t *testing.T) {
	t.Parallel()
	e := New()
	for _, name := range []string{"essay.pdf", "essay.doc", "essay", "essay.png"} {
		_, err := e.Extract(context.Background(), name, []byte("content"))
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, domain.ErrUnsupportedFormat), name)
	}
}

func TestExtract_Docx(t *testing.T) {
	t.Parallel()
	e := New()
	got, err := e.Extract(context.Background(), "essay.docx", buildDocx(t, sampleDocumentXML))
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", got)
}

func TestExtract_Docx_NotAZip(t *testing.T) {
	t.Parallel()
	e := New()
	_, err := e.Extract(context.Background(), "essay.docx", []byte("plain text, no container"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptDocument))
}

func TestExtract_Docx_MissingDocumentPart(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	e := New()
	_, err = e.Extract(context.Background(), "essay.docx", buf.Bytes())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptDocument))
}

func TestExtract_Docx_MalformedXML(t *testing.T) {
	t.Parallel()
	e := New()
	_, err := e.Extract(context.Background(), "essay.docx", buildDocx(t, "<w:document><unclosed"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptDocument))
}

func TestExtract_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := New()
	_, err := e.Extract(ctx, "essay.txt", []byte("text"))
	assert.Error(t, err)
}

func TestReadDocumentXML_BreaksAndTabs(t *testing.T) {
	t.Parallel()
	xml := `<w:document xmlns:w="x"><w:body><w:p><w:r><w:t>before</w:t><w:br/><w:t>after</w:t></w:r></w:p></w:body></w:document>`
	got, err := extractDocx(buildDocx(t, xml))
	require.NoError(t, err)
	assert.Equal(t, "before after", got)
}
